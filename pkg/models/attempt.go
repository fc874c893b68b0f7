package models

import (
	"fmt"
	"time"
)

// FinalStatus represents the terminal outcome of a single testing instruction
// within one navigation attempt.
type FinalStatus string

const (
	// StatusCompleted indicates the task met its success criteria.
	StatusCompleted FinalStatus = "completed"
	// StatusFailed indicates the task did not meet its success criteria.
	StatusFailed FinalStatus = "failed"
	// StatusPartial indicates the task was partially accomplished.
	StatusPartial FinalStatus = "partial"
)

// Valid returns true if the status is a known value.
func (s FinalStatus) Valid() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusPartial:
		return true
	default:
		return false
	}
}

// InstructionResult is the per-task outcome produced by one navigation
// attempt. The originating instruction is denormalized (task, priority,
// max attempts) so results are self-describing for reporting.
type InstructionResult struct {
	// Task is the instruction's task description.
	Task string `json:"task"`
	// Priority is the instruction's priority.
	Priority Priority `json:"priority"`
	// MaxAttempts is the instruction's retry budget.
	MaxAttempts int `json:"max_attempts"`
	// AttemptsMade is how many attempts have targeted this task so far.
	// It is monotonically non-decreasing across the retry loop and never
	// exceeds MaxAttempts.
	AttemptsMade int `json:"attempts_made"`
	// SuccessCriteriaMet reports whether the success criteria were satisfied.
	SuccessCriteriaMet bool `json:"success_criteria_met"`
	// FallbackExecuted is true only if the task failed and its fallback ran.
	FallbackExecuted bool `json:"fallback_executed"`
	// FinalStatus is the task's terminal status for this attempt.
	FinalStatus FinalStatus `json:"final_status"`
	// Notes carries free-text detail about what happened.
	Notes string `json:"notes,omitempty"`
}

// Validate checks the result's internal invariants.
func (r InstructionResult) Validate() error {
	if !r.FinalStatus.Valid() {
		return fmt.Errorf("invalid final_status %q", r.FinalStatus)
	}
	if r.MaxAttempts > 0 && r.AttemptsMade > r.MaxAttempts {
		return fmt.Errorf("attempts_made %d exceeds max_attempts %d", r.AttemptsMade, r.MaxAttempts)
	}
	if r.FallbackExecuted && r.SuccessCriteriaMet {
		return fmt.Errorf("fallback_executed requires success_criteria_met == false")
	}
	if r.SuccessCriteriaMet && r.FinalStatus != StatusCompleted {
		return fmt.Errorf("success_criteria_met requires final_status completed, got %q", r.FinalStatus)
	}
	return nil
}

// Interaction is one raw browser interaction performed during an attempt.
type Interaction struct {
	// Action is the tool name (navigate, click, extract_text, ...).
	Action string `json:"action"`
	// Target is the URL or CSS selector the action was applied to.
	Target string `json:"target,omitempty"`
	// Outcome is the tool's result text, truncated for storage.
	Outcome string `json:"outcome,omitempty"`
	// Success reports whether the action succeeded.
	Success bool `json:"success"`
	// At is when the interaction happened.
	At time.Time `json:"at"`
}

// Issue is a usability problem discovered during navigation.
type Issue struct {
	// Description is what went wrong from the persona's perspective.
	Description string `json:"description"`
	// Severity is one of low, medium, high, critical.
	Severity string `json:"severity"`
	// Location is the page or element where the issue was observed.
	Location string `json:"location,omitempty"`
}

// NavigationAttemptResult is the output of one full navigation pass against
// all configured testing instructions. A new attempt always produces a new
// result; results are never mutated after creation.
type NavigationAttemptResult struct {
	// URLTested is the application URL the attempt ran against.
	URLTested string `json:"url_tested"`
	// PersonaType is the persona that drove the attempt.
	PersonaType string `json:"persona_type"`
	// Instructions holds one result per configured instruction, in
	// configuration order.
	Instructions []InstructionResult `json:"instructions"`
	// NavigationPath is the ordered sequence of pages and actions taken.
	NavigationPath []string `json:"navigation_path"`
	// Interactions is the ordered raw interaction log.
	Interactions []Interaction `json:"interactions"`
	// Observations are interface notes made along the way.
	Observations []string `json:"observations,omitempty"`
	// Issues are the usability problems discovered.
	Issues []Issue `json:"issues,omitempty"`
	// OverallCompletionStatus summarizes the attempt (completed/failed/partial).
	OverallCompletionStatus FinalStatus `json:"overall_completion_status"`
	// HighPriorityCompleted counts completed high-priority tasks.
	HighPriorityCompleted int `json:"high_priority_completed"`
	// HighPriorityTotal counts configured high-priority tasks.
	HighPriorityTotal int `json:"high_priority_total"`
}

// CompletedCount returns the number of instructions that met their criteria.
func (r *NavigationAttemptResult) CompletedCount() int {
	n := 0
	for _, ir := range r.Instructions {
		if ir.SuccessCriteriaMet {
			n++
		}
	}
	return n
}

// Validate checks the result and all per-instruction results.
func (r *NavigationAttemptResult) Validate() error {
	if !r.OverallCompletionStatus.Valid() {
		return fmt.Errorf("invalid overall_completion_status %q", r.OverallCompletionStatus)
	}
	for i, ir := range r.Instructions {
		if err := ir.Validate(); err != nil {
			return fmt.Errorf("instruction %d: %w", i, err)
		}
	}
	return nil
}
