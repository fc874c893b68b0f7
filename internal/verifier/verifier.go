// Package verifier judges a navigation attempt against its testing
// instructions and produces the decision that drives the retry loop.
// The judge's raw output is advisory: the decision policy re-derives
// retry eligibility from configured budgets before anything acts on it.
package verifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ShayCichocki/critiq/pkg/models"
)

// completer is the single-shot completion surface the verifier needs.
// api.Client satisfies it.
type completer interface {
	Complete(ctx context.Context, system, prompt string, maxTokens int64) (string, error)
}

// Verifier runs LLM-as-judge verification of navigation attempts.
type Verifier struct {
	client       completer
	instructions []models.TestingInstruction
}

// New creates a verifier for the given instruction set.
func New(client completer, instructions []models.TestingInstruction) *Verifier {
	return &Verifier{client: client, instructions: instructions}
}

const judgeSystemPrompt = `You are a meticulous QA verification judge for web usability testing sessions.
You review a persona's navigation attempt against its testing instructions and
report, for every task, whether its success criteria were met and whether it
should be retried. You respond ONLY with a JSON object, no prose before or after.`

// Verify judges one attempt. It never returns an error for judge
// misbehavior: transport failures and unparsable output produce a
// degraded outcome whose decision fails open to PROCEED, so a broken
// judge can stall the session at most zero extra attempts.
func (v *Verifier) Verify(ctx context.Context, attempt *models.NavigationAttemptResult, attemptNum int) models.VerificationOutcome {
	prompt := v.buildPrompt(attempt, attemptNum)

	raw, err := v.client.Complete(ctx, judgeSystemPrompt, prompt, 4096)
	if err != nil {
		return models.VerificationOutcome{
			Degraded: true,
			Raw:      fmt.Sprintf("verification call failed: %v", err),
		}
	}

	verdict, err := ParseVerdict(raw)
	if err != nil {
		return models.VerificationOutcome{Degraded: true, Raw: raw}
	}

	NormalizeVerdict(verdict, v.instructions)
	return models.VerificationOutcome{Verdict: verdict, Raw: raw}
}

// buildPrompt renders the attempt evidence and instruction budgets for the judge.
func (v *Verifier) buildPrompt(attempt *models.NavigationAttemptResult, attemptNum int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## Navigation attempt %d\n\n", attemptNum)
	fmt.Fprintf(&b, "Persona: %s\nURL tested: %s\n\n", attempt.PersonaType, attempt.URLTested)

	b.WriteString("## Testing instructions\n\n")
	for i, in := range v.instructions {
		fmt.Fprintf(&b, "%d. Task: %s\n   Priority: %s\n   Max attempts: %d\n   Success criteria: %s\n   Fallback action: %s\n",
			i+1, in.Task, in.Priority, in.MaxAttempts, in.SuccessCriteria, in.FallbackAction)
	}

	b.WriteString("\n## Reported task results\n\n")
	for _, r := range attempt.Instructions {
		fmt.Fprintf(&b, "- Task: %s\n  Status: %s\n  Attempts made: %d\n  Success criteria met: %t\n  Fallback executed: %t\n  Notes: %s\n",
			r.Task, r.FinalStatus, r.AttemptsMade, r.SuccessCriteriaMet, r.FallbackExecuted, r.Notes)
	}

	b.WriteString("\n## Navigation path\n\n")
	for _, p := range attempt.NavigationPath {
		fmt.Fprintf(&b, "- %s\n", p)
	}

	b.WriteString("\n## Recorded interactions\n\n")
	for _, it := range attempt.Interactions {
		status := "ok"
		if !it.Success {
			status = "FAILED"
		}
		fmt.Fprintf(&b, "- [%s] %s %s: %s\n", status, it.Action, it.Target, it.Outcome)
	}

	if len(attempt.Observations) > 0 {
		b.WriteString("\n## Observations\n\n")
		for _, o := range attempt.Observations {
			fmt.Fprintf(&b, "- %s\n", o)
		}
	}
	if len(attempt.Issues) > 0 {
		b.WriteString("\n## Issues found\n\n")
		for _, is := range attempt.Issues {
			fmt.Fprintf(&b, "- [%s] %s (%s)\n", is.Severity, is.Description, is.Location)
		}
	}

	b.WriteString("\n" + judgeOutputSchema)
	return b.String()
}

var judgeOutputSchema = fmt.Sprintf(`## Required output

Verify each task against its success criteria using the recorded evidence, not
just the reported status. Respond with a single JSON object:

%s

Rules:
- task_verifications must contain exactly one entry per testing instruction, in order.
- needs_retry is true when a task's success criteria were not met and retrying could plausibly help.
- attempts_made counts full navigation attempts in which the task was tried.
- overall_assessment is "satisfactory" only when all priority tasks met their criteria.`, exampleVerdictJSON())

func exampleVerdictJSON() string {
	example := models.VerificationVerdict{
		PersonaType:       "<persona>",
		URLTested:         "<url>",
		OverallAssessment: models.AssessmentNeedsImprovement,
		TaskVerifications: []models.TaskVerification{{
			TaskDescription:    "<task text>",
			Priority:           models.PriorityHigh,
			MaxAttempts:        3,
			AttemptsMade:       1,
			SuccessCriteriaMet: false,
			VerificationNotes:  "<why>",
			NeedsRetry:         true,
			CanRetry:           true,
		}},
		CompletionRate:         0.5,
		PriorityTasksCompleted: map[string]int{"high": 1},
		FeedbackSummary:        []string{"<feedback>"},
		MissingRequirements:    []string{"<gap>"},
		FinalDecision:          models.DecisionRetry,
		RetryGuidance:          "<what to do differently>",
		VerificationNotes:      "<notes>",
	}
	data, _ := json.MarshalIndent(example, "", "  ")
	return "```json\n" + string(data) + "\n```"
}
