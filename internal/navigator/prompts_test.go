package navigator

import (
	"strings"
	"testing"

	"github.com/ShayCichocki/critiq/pkg/models"
)

func TestProfileFor(t *testing.T) {
	tests := []struct {
		persona   string
		wantSpeed string
	}{
		{"tech_savvy", "fast"},
		{"novice", "slow"},
		{"accessibility_focused", "medium"},
		{"mobile_first", "fast"},
		{"TECH_SAVVY", "fast"},
		{"  novice  ", "slow"},
		{"power_user", "slow"}, // unknown falls back to novice
		{"", "slow"},
	}

	for _, tt := range tests {
		t.Run(tt.persona, func(t *testing.T) {
			if got := ProfileFor(tt.persona).NavigationSpeed; got != tt.wantSpeed {
				t.Errorf("ProfileFor(%q).NavigationSpeed = %q, want %q", tt.persona, got, tt.wantSpeed)
			}
		})
	}
}

func TestKnownPersonaTypes(t *testing.T) {
	for _, p := range KnownPersonaTypes() {
		if _, ok := behaviorProfiles[p]; !ok {
			t.Errorf("persona %q listed but has no profile", p)
		}
	}
}

func TestSystemPrompt(t *testing.T) {
	got := systemPrompt("accessibility_focused", nil)

	for _, want := range []string{
		"accessibility_focused user",
		"screen reader",
		"Missing alt text",
		"discover_elements",
		"task_results",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("system prompt missing %q", want)
		}
	}
}

func TestSystemPrompt_WithResearch(t *testing.T) {
	research := &models.PersonaProfile{
		PersonaType:            "novice",
		ProfessionalBackground: "Retired schoolteacher",
		TechnologyProfile:      "Uses a tablet for email and news",
		BehavioralTraits:       []string{"Reads every label before clicking"},
	}

	got := systemPrompt("novice", research)

	if !strings.Contains(got, "Retired schoolteacher") {
		t.Error("system prompt missing research background")
	}
	if !strings.Contains(got, "Reads every label before clicking") {
		t.Error("system prompt missing behavioral trait")
	}
}

func TestAttemptPrompt(t *testing.T) {
	instructions := []models.TestingInstruction{{
		Task:            "Find the top story",
		Priority:        models.PriorityHigh,
		MaxAttempts:     3,
		SuccessCriteria: "Title extracted",
		FallbackAction:  "Note the blocker",
	}}

	t.Run("first attempt", func(t *testing.T) {
		got := attemptPrompt("https://example.com", instructions, 1, "")
		if !strings.Contains(got, "https://example.com") {
			t.Error("prompt missing app URL")
		}
		if !strings.Contains(got, "Find the top story") {
			t.Error("prompt missing task")
		}
		if strings.Contains(got, "previous attempt") {
			t.Error("first attempt prompt mentions a previous attempt")
		}
	})

	t.Run("retry with guidance", func(t *testing.T) {
		got := attemptPrompt("https://example.com", instructions, 2, "Use the site search")
		if !strings.Contains(got, "attempt 2") {
			t.Error("retry prompt missing attempt number")
		}
		if !strings.Contains(got, "Use the site search") {
			t.Error("retry prompt missing guidance")
		}
	})
}
