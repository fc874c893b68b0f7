package models

// PersonaProfile is the structured output of the persona research stage.
// It grounds both the navigation prompts and the interview simulation.
type PersonaProfile struct {
	// PersonaType is the persona that was researched.
	PersonaType string `json:"persona_type"`
	// ProfessionalBackground describes typical roles and responsibilities.
	ProfessionalBackground string `json:"professional_background"`
	// TechnologyProfile describes proficiency and usage patterns.
	TechnologyProfile string `json:"technology_profile"`
	// BehavioralTraits describes interaction preferences and patterns.
	BehavioralTraits []string `json:"behavioral_traits"`
	// PainPoints lists common frustrations with technology.
	PainPoints []string `json:"pain_points"`
	// DecisionFactors lists what influences this persona's decisions.
	DecisionFactors []string `json:"decision_factors,omitempty"`
	// KeyInsights lists the most important insights for test simulation.
	KeyInsights []string `json:"key_insights"`
}

// InterviewOutput is the structured output of the synthetic interview stage.
type InterviewOutput struct {
	// PersonaType is the persona that was interviewed.
	PersonaType string `json:"persona_type"`
	// Questions are the questions asked during the interview.
	Questions []string `json:"questions"`
	// Responses are the simulated user responses, aligned with Questions.
	Responses []string `json:"responses"`
	// PainPoints are the pain points mentioned in the interview.
	PainPoints []string `json:"pain_points"`
	// SatisfactionScore is the overall satisfaction score (1-10).
	SatisfactionScore int `json:"satisfaction_score"`
	// Suggestions are user suggestions for improvement.
	Suggestions []string `json:"suggestions,omitempty"`
	// Quotes are notable user quotes from the interview.
	Quotes []string `json:"quotes,omitempty"`
}
