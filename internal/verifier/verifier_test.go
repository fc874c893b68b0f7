package verifier

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ShayCichocki/critiq/pkg/models"
)

// fakeCompleter returns canned responses for Complete calls.
type fakeCompleter struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeCompleter) Complete(ctx context.Context, system, prompt string, maxTokens int64) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.response, f.err
}

func sampleAttempt() *models.NavigationAttemptResult {
	return &models.NavigationAttemptResult{
		URLTested:   "https://example.com",
		PersonaType: "tech_savvy",
		Instructions: []models.InstructionResult{{
			Task:         "Find the top story",
			Priority:     models.PriorityHigh,
			MaxAttempts:  3,
			AttemptsMade: 1,
			FinalStatus:  models.StatusFailed,
			Notes:        "Could not locate headline",
		}},
		NavigationPath: []string{"https://example.com"},
		Interactions: []models.Interaction{
			{Action: "navigate", Target: "https://example.com", Outcome: "Navigated", Success: true},
			{Action: "click", Target: "a.headline", Outcome: "No elements found", Success: false},
		},
		Observations:            []string{"Front page loads quickly"},
		Issues:                  []models.Issue{{Description: "Headline selector missing", Severity: "medium", Location: "front page"}},
		OverallCompletionStatus: "failed",
	}
}

func TestVerifier_Verify_ParsesAndNormalizes(t *testing.T) {
	fc := &fakeCompleter{response: "```json\n" + sampleVerdictJSON + "\n```"}
	v := New(fc, twoInstructions())

	out := v.Verify(context.Background(), sampleAttempt(), 1)

	if out.Degraded {
		t.Fatalf("outcome degraded, raw = %q", out.Raw)
	}
	if out.Decision() != models.DecisionRetry {
		t.Errorf("Decision() = %q, want RETRY", out.Decision())
	}
	// Normalization derives can_retry from the configured budget.
	tv := out.Verdict.TaskVerifications[0]
	if tv.MaxAttempts != 3 || !tv.CanRetry {
		t.Errorf("task verification not normalized: %+v", tv)
	}
}

func TestVerifier_Verify_PromptCarriesEvidence(t *testing.T) {
	fc := &fakeCompleter{response: sampleVerdictJSON}
	v := New(fc, twoInstructions())

	v.Verify(context.Background(), sampleAttempt(), 2)

	if len(fc.prompts) != 1 {
		t.Fatalf("got %d prompts, want 1", len(fc.prompts))
	}
	prompt := fc.prompts[0]
	for _, want := range []string{
		"Navigation attempt 2",
		"Find the top story",
		"Success criteria: Top story title extracted",
		"[FAILED] click a.headline",
		"Headline selector missing",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestVerifier_Verify_TransportErrorFailsOpen(t *testing.T) {
	fc := &fakeCompleter{err: errors.New("api unavailable")}
	v := New(fc, twoInstructions())

	out := v.Verify(context.Background(), sampleAttempt(), 1)

	if !out.Degraded {
		t.Fatal("outcome should be degraded on transport error")
	}
	if out.Decision() != models.DecisionProceed {
		t.Errorf("Decision() = %q, want fail-open PROCEED", out.Decision())
	}
	if !strings.Contains(out.Raw, "api unavailable") {
		t.Errorf("Raw = %q, want to carry the failure", out.Raw)
	}
}

func TestVerifier_Verify_UnparsableFailsOpen(t *testing.T) {
	fc := &fakeCompleter{response: "Looks good to me, ship it."}
	v := New(fc, twoInstructions())

	out := v.Verify(context.Background(), sampleAttempt(), 1)

	if !out.Degraded {
		t.Fatal("outcome should be degraded for prose output")
	}
	if out.Decision() != models.DecisionProceed {
		t.Errorf("Decision() = %q, want fail-open PROCEED", out.Decision())
	}
	if out.Raw != "Looks good to me, ship it." {
		t.Errorf("Raw = %q, want original judge output", out.Raw)
	}
}
