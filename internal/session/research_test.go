package session

import (
	"context"
	"errors"
	"strings"
	"testing"
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

func TestResearch(t *testing.T) {
	fc := &fakeCompleter{response: "```json\n" + `{
		"persona_type": "novice",
		"professional_background": "Retired schoolteacher",
		"technology_profile": "Tablet user, email and news",
		"behavioral_traits": ["Reads every label"],
		"pain_points": ["Small text"],
		"key_insights": ["Needs obvious affordances"]
	}` + "\n```"}

	profile, err := Research(context.Background(), fc, "novice")
	if err != nil {
		t.Fatalf("Research() error = %v", err)
	}

	if profile.PersonaType != "novice" {
		t.Errorf("PersonaType = %q", profile.PersonaType)
	}
	if profile.ProfessionalBackground != "Retired schoolteacher" {
		t.Errorf("ProfessionalBackground = %q", profile.ProfessionalBackground)
	}
	if len(profile.KeyInsights) != 1 {
		t.Errorf("KeyInsights = %v", profile.KeyInsights)
	}
	if !strings.Contains(fc.prompts[0], `"novice"`) {
		t.Errorf("prompt missing persona type: %q", fc.prompts[0])
	}
}

func TestResearch_FillsPersonaType(t *testing.T) {
	fc := &fakeCompleter{response: `{"professional_background": "x"}`}

	profile, err := Research(context.Background(), fc, "mobile_first")
	if err != nil {
		t.Fatalf("Research() error = %v", err)
	}
	if profile.PersonaType != "mobile_first" {
		t.Errorf("PersonaType = %q, want filled from request", profile.PersonaType)
	}
}

func TestResearch_Errors(t *testing.T) {
	t.Run("transport error", func(t *testing.T) {
		fc := &fakeCompleter{err: errors.New("api down")}
		if _, err := Research(context.Background(), fc, "novice"); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("unparsable output", func(t *testing.T) {
		fc := &fakeCompleter{response: "I could not research this persona."}
		if _, err := Research(context.Background(), fc, "novice"); err == nil {
			t.Error("expected error")
		}
	})
}
