// Package session wires research, orchestrated navigation, interview,
// and reporting into one pipeline run.
package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ShayCichocki/critiq/internal/api"
	"github.com/ShayCichocki/critiq/pkg/models"
)

// completer is the single-shot completion surface the research and
// interview stages need. api.Client satisfies it.
type completer interface {
	Complete(ctx context.Context, system, prompt string, maxTokens int64) (string, error)
}

const researchSystemPrompt = `You are a UX researcher building a persona dossier before a usability test.
Ground the dossier in realistic demographic and behavioral patterns for the
persona type. Respond ONLY with a JSON object.`

// Research builds the persona profile that grounds navigation and the
// interview. Errors here abort the session: a pipeline without a
// persona has nothing to test with.
func Research(ctx context.Context, client completer, personaType string) (*models.PersonaProfile, error) {
	prompt := fmt.Sprintf(`Research the %q user persona for a web usability test.

Respond with a JSON object:
%s`, personaType, researchSchema)

	raw, err := client.Complete(ctx, researchSystemPrompt, prompt, 2048)
	if err != nil {
		return nil, fmt.Errorf("persona research: %w", err)
	}

	profile := &models.PersonaProfile{}
	if err := api.DecodeJSON(raw, profile); err != nil {
		return nil, fmt.Errorf("persona research: %w", err)
	}
	if profile.PersonaType == "" {
		profile.PersonaType = personaType
	}
	return profile, nil
}

var researchSchema = func() string {
	example := models.PersonaProfile{
		PersonaType:            "<persona>",
		ProfessionalBackground: "<typical roles and responsibilities>",
		TechnologyProfile:      "<proficiency and usage patterns>",
		BehavioralTraits:       []string{"<trait>"},
		PainPoints:             []string{"<frustration>"},
		DecisionFactors:        []string{"<factor>"},
		KeyInsights:            []string{"<insight for the test>"},
	}
	data, _ := json.MarshalIndent(example, "", "  ")
	return "```json\n" + string(data) + "\n```"
}()
