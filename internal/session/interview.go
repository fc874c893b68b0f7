package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ShayCichocki/critiq/internal/api"
	"github.com/ShayCichocki/critiq/pkg/models"
)

const interviewSystemPrompt = `You are conducting a post-test usability interview. Play both roles:
the interviewer asking about the session, and the test participant answering
in character, grounded strictly in what actually happened during navigation.
Respond ONLY with a JSON object.`

// Interview simulates the post-test interview from the accepted
// navigation attempt. Like research, a failure here aborts the
// session: the report contract includes interview findings.
func Interview(ctx context.Context, client completer, research *models.PersonaProfile, attempt *models.NavigationAttemptResult) (*models.InterviewOutput, error) {
	raw, err := client.Complete(ctx, interviewSystemPrompt, interviewPrompt(research, attempt), 3072)
	if err != nil {
		return nil, fmt.Errorf("interview simulation: %w", err)
	}

	out := &models.InterviewOutput{}
	if err := api.DecodeJSON(raw, out); err != nil {
		return nil, fmt.Errorf("interview simulation: %w", err)
	}

	if out.PersonaType == "" && attempt != nil {
		out.PersonaType = attempt.PersonaType
	}
	if out.SatisfactionScore < 1 {
		out.SatisfactionScore = 1
	}
	if out.SatisfactionScore > 10 {
		out.SatisfactionScore = 10
	}
	return out, nil
}

func interviewPrompt(research *models.PersonaProfile, attempt *models.NavigationAttemptResult) string {
	var b strings.Builder

	b.WriteString("## Participant\n\n")
	if research != nil {
		fmt.Fprintf(&b, "Persona: %s\n", research.PersonaType)
		if research.ProfessionalBackground != "" {
			fmt.Fprintf(&b, "Background: %s\n", research.ProfessionalBackground)
		}
		for _, tr := range research.BehavioralTraits {
			fmt.Fprintf(&b, "- %s\n", tr)
		}
	}

	b.WriteString("\n## What happened during the test\n\n")
	if attempt != nil {
		fmt.Fprintf(&b, "Site: %s\n\n", attempt.URLTested)
		for _, r := range attempt.Instructions {
			fmt.Fprintf(&b, "- Task %q: %s (criteria met: %t)\n", r.Task, r.FinalStatus, r.SuccessCriteriaMet)
			if r.Notes != "" {
				fmt.Fprintf(&b, "  %s\n", r.Notes)
			}
		}
		for _, o := range attempt.Observations {
			fmt.Fprintf(&b, "- Observed: %s\n", o)
		}
		for _, is := range attempt.Issues {
			fmt.Fprintf(&b, "- Issue [%s]: %s\n", is.Severity, is.Description)
		}
	}

	fmt.Fprintf(&b, `
Run the interview: 5-7 questions about task difficulty, confusion points, and
overall impressions, each answered in the participant's voice. Then respond
with a JSON object:
%s`, interviewSchema)

	return b.String()
}

var interviewSchema = func() string {
	example := models.InterviewOutput{
		PersonaType:       "<persona>",
		Questions:         []string{"<question>"},
		Responses:         []string{"<answer in the participant's voice>"},
		PainPoints:        []string{"<pain point>"},
		SatisfactionScore: 7,
		Suggestions:       []string{"<improvement>"},
		Quotes:            []string{"<notable quote>"},
	}
	data, _ := json.MarshalIndent(example, "", "  ")
	return "```json\n" + string(data) + "\n```"
}()
