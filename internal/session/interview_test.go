package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/ShayCichocki/critiq/pkg/models"
)

func interviewAttempt() *models.NavigationAttemptResult {
	return &models.NavigationAttemptResult{
		URLTested:   "https://example.com",
		PersonaType: "novice",
		Instructions: []models.InstructionResult{
			{Task: "Find the top story", FinalStatus: models.StatusCompleted, SuccessCriteriaMet: true},
			{Task: "Open the comments page", FinalStatus: models.StatusFailed, Notes: "Link did not respond"},
		},
		Observations: []string{"Dense front page"},
		Issues:       []models.Issue{{Description: "Tiny links", Severity: "medium"}},
	}
}

func TestInterview(t *testing.T) {
	fc := &fakeCompleter{response: `{
		"persona_type": "novice",
		"questions": ["How hard was finding the top story?"],
		"responses": ["Once I scrolled a bit it was fine."],
		"pain_points": ["Dense layout"],
		"satisfaction_score": 6,
		"suggestions": ["Bigger links"],
		"quotes": ["I almost gave up on the comments."]
	}`}

	out, err := Interview(context.Background(), fc, &models.PersonaProfile{PersonaType: "novice"}, interviewAttempt())
	if err != nil {
		t.Fatalf("Interview() error = %v", err)
	}

	if out.SatisfactionScore != 6 {
		t.Errorf("SatisfactionScore = %d", out.SatisfactionScore)
	}
	if len(out.Questions) != 1 || len(out.Responses) != 1 {
		t.Errorf("questions/responses = %v / %v", out.Questions, out.Responses)
	}

	// The prompt must carry the real session evidence.
	prompt := fc.prompts[0]
	for _, want := range []string{
		"https://example.com",
		"Find the top story",
		"Link did not respond",
		"Tiny links",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("interview prompt missing %q", want)
		}
	}
}

func TestInterview_ClampsSatisfactionScore(t *testing.T) {
	tests := []struct {
		name  string
		score int
		want  int
	}{
		{"too low", 0, 1},
		{"too high", 15, 10},
		{"in range", 8, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := &fakeCompleter{response: fmt.Sprintf(`{"questions": ["q"], "satisfaction_score": %d}`, tt.score)}

			out, err := Interview(context.Background(), fc, nil, interviewAttempt())
			if err != nil {
				t.Fatalf("Interview() error = %v", err)
			}
			if out.SatisfactionScore != tt.want {
				t.Errorf("SatisfactionScore = %d, want %d", out.SatisfactionScore, tt.want)
			}
		})
	}
}

func TestInterview_Errors(t *testing.T) {
	t.Run("transport error", func(t *testing.T) {
		fc := &fakeCompleter{err: errors.New("api down")}
		if _, err := Interview(context.Background(), fc, nil, interviewAttempt()); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("unparsable output", func(t *testing.T) {
		fc := &fakeCompleter{response: "The user seemed satisfied overall."}
		if _, err := Interview(context.Background(), fc, nil, interviewAttempt()); err == nil {
			t.Error("expected error")
		}
	})
}
