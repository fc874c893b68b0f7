// Package navigator runs persona-driven navigation attempts against a
// live browser session. Each attempt is one agent loop over the page
// tools; the runner merges the agent's self-report with the journaled
// ground truth.
package navigator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ShayCichocki/critiq/pkg/models"
)

// BehaviorProfile describes how a persona approaches a web interface.
// Unknown persona types fall back to the novice profile, the most
// conservative set of behaviors.
type BehaviorProfile struct {
	Demographics    map[string]string
	NavigationSpeed string
	ErrorTolerance  string
	Exploration     string
	Preferences     []string
	PainPoints      []string
}

var behaviorProfiles = map[string]BehaviorProfile{
	"tech_savvy": {
		Demographics: map[string]string{
			"age_range":         "25-35",
			"tech_proficiency":  "high",
			"device_preference": "desktop",
		},
		NavigationSpeed: "fast",
		ErrorTolerance:  "low",
		Exploration:     "high",
		Preferences: []string{
			"keyboard shortcuts", "advanced features", "efficiency", "customization",
		},
		PainPoints: []string{
			"Slow loading times", "Unnecessary confirmation dialogs",
			"Limited customization options", "Lack of keyboard shortcuts",
		},
	},
	"novice": {
		Demographics: map[string]string{
			"age_range":         "45-65",
			"tech_proficiency":  "low",
			"device_preference": "tablet",
		},
		NavigationSpeed: "slow",
		ErrorTolerance:  "high",
		Exploration:     "low",
		Preferences: []string{
			"clear instructions", "large buttons", "step-by-step guidance", "familiar patterns",
		},
		PainPoints: []string{
			"Complex interfaces", "Small text and buttons",
			"Unclear error messages", "Too many options at once",
		},
	},
	"accessibility_focused": {
		Demographics: map[string]string{
			"age_range":           "30-50",
			"tech_proficiency":    "medium",
			"device_preference":   "desktop",
			"accessibility_needs": "screen reader, high contrast, keyboard only",
		},
		NavigationSpeed: "medium",
		ErrorTolerance:  "medium",
		Exploration:     "methodical",
		Preferences: []string{
			"keyboard accessible controls", "high contrast", "clear focus indicators", "descriptive alt text",
		},
		PainPoints: []string{
			"Inaccessible forms", "Missing alt text",
			"Poor keyboard navigation", "Low contrast text",
		},
	},
	"mobile_first": {
		Demographics: map[string]string{
			"age_range":         "18-30",
			"tech_proficiency":  "high",
			"device_preference": "mobile",
		},
		NavigationSpeed: "fast",
		ErrorTolerance:  "low",
		Exploration:     "medium",
		Preferences: []string{
			"thumb-friendly layouts", "swipe gestures", "quick actions",
		},
		PainPoints: []string{
			"Small touch targets", "Slow mobile loading",
			"Desktop-only features", "Poor touch responsiveness",
		},
	},
}

// ProfileFor returns the behavior profile for a persona type.
func ProfileFor(personaType string) BehaviorProfile {
	if p, ok := behaviorProfiles[strings.ToLower(strings.TrimSpace(personaType))]; ok {
		return p
	}
	return behaviorProfiles["novice"]
}

// KnownPersonaTypes lists the persona types with dedicated profiles.
func KnownPersonaTypes() []string {
	return []string{"tech_savvy", "novice", "accessibility_focused", "mobile_first"}
}

// systemPrompt renders the navigation agent's system prompt from the
// persona profile and optional research output.
func systemPrompt(personaType string, research *models.PersonaProfile) string {
	profile := ProfileFor(personaType)

	var b strings.Builder
	fmt.Fprintf(&b, `You are a %s user performing a usability test on a live website.
Stay in character for the whole session: navigate, read, and react the way this
persona actually would, and note friction points as you hit them.

## Persona behavior profile
`, personaType)

	for _, line := range profileLines(profile) {
		fmt.Fprintf(&b, "- %s: %s\n", line[0], line[1])
	}

	b.WriteString("\nTypical pain points to watch for:\n")
	for _, p := range profile.PainPoints {
		fmt.Fprintf(&b, "- %s\n", p)
	}

	if research != nil {
		b.WriteString("\n## Persona research\n")
		if research.ProfessionalBackground != "" {
			fmt.Fprintf(&b, "Background: %s\n", research.ProfessionalBackground)
		}
		if research.TechnologyProfile != "" {
			fmt.Fprintf(&b, "Technology profile: %s\n", research.TechnologyProfile)
		}
		for _, tr := range research.BehavioralTraits {
			fmt.Fprintf(&b, "- %s\n", tr)
		}
	}

	b.WriteString(`
## How to work
Use the browser tools to interact with the page. Prefer discover_elements when
a selector fails instead of guessing blindly. Work through every task in order,
within its attempt budget. When a task is blocked after reasonable effort,
execute its fallback action and say so.

When you have finished all tasks (or exhausted their budgets), reply with a
single JSON object and nothing else:
` + attemptOutputSchema)

	return b.String()
}

// profileLines flattens a profile into ordered label/value pairs.
func profileLines(p BehaviorProfile) [][2]string {
	lines := [][2]string{
		{"navigation speed", p.NavigationSpeed},
		{"error tolerance", p.ErrorTolerance},
		{"exploration", p.Exploration},
		{"preferences", strings.Join(p.Preferences, ", ")},
	}
	for _, key := range []string{"age_range", "tech_proficiency", "device_preference", "accessibility_needs"} {
		if v, ok := p.Demographics[key]; ok {
			lines = append(lines, [2]string{strings.ReplaceAll(key, "_", " "), v})
		}
	}
	return lines
}

// attemptPrompt renders the user prompt for one navigation attempt.
func attemptPrompt(appURL string, instructions []models.TestingInstruction, attemptNum int, guidance string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Test the site at %s.\n\n## Tasks\n\n", appURL)
	for i, in := range instructions {
		fmt.Fprintf(&b, "%d. %s\n   Priority: %s | Max attempts: %d\n   Success criteria: %s\n   Fallback: %s\n",
			i+1, in.Task, in.Priority, in.MaxAttempts, in.SuccessCriteria, in.FallbackAction)
	}

	if attemptNum > 1 {
		fmt.Fprintf(&b, "\nThis is navigation attempt %d. A previous attempt did not fully satisfy the tasks.\n", attemptNum)
	}
	if guidance != "" {
		fmt.Fprintf(&b, "\n## Feedback from the previous attempt\n\n%s\n", guidance)
	}

	b.WriteString("\nStart by navigating to the site, then work through the tasks in character.")
	return b.String()
}

// attemptOutputSchema is the JSON shape the agent must emit when done.
var attemptOutputSchema = func() string {
	example := attemptReport{
		URLTested:   "<url>",
		PersonaType: "<persona>",
		Instructions: []models.InstructionResult{{
			Task:               "<task text exactly as given>",
			Priority:           models.PriorityHigh,
			MaxAttempts:        3,
			AttemptsMade:       1,
			SuccessCriteriaMet: true,
			FinalStatus:        models.StatusCompleted,
			Notes:              "<what happened>",
		}},
		Observations:            []string{"<interface observation>"},
		Issues:                  []models.Issue{{Description: "<issue>", Severity: "medium", Location: "<where>"}},
		OverallCompletionStatus: "completed",
	}
	data, _ := json.MarshalIndent(example, "", "  ")
	return "```json\n" + string(data) + "\n```"
}()

// attemptReport is the subset of the attempt result the agent reports
// itself; navigation path and interactions come from the journal.
type attemptReport struct {
	URLTested               string                     `json:"url_tested"`
	PersonaType             string                     `json:"persona_type"`
	Instructions            []models.InstructionResult `json:"task_results"`
	Observations            []string                   `json:"observations_made"`
	Issues                  []models.Issue             `json:"issues_found"`
	OverallCompletionStatus string                     `json:"completion_status"`
}
