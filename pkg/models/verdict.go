package models

import "fmt"

// Decision is the verifier's final decision for one navigation attempt.
type Decision string

const (
	// DecisionProceed accepts the attempt and moves the session forward.
	DecisionProceed Decision = "PROCEED"
	// DecisionRetry requests another navigation attempt.
	DecisionRetry Decision = "RETRY"
	// DecisionAcceptableWithMaxAttempts accepts the attempt because every
	// unmet instruction has exhausted its per-task retry budget.
	DecisionAcceptableWithMaxAttempts Decision = "ACCEPTABLE_WITH_MAX_ATTEMPTS"
)

// Valid returns true if the decision is a known value.
func (d Decision) Valid() bool {
	switch d {
	case DecisionProceed, DecisionRetry, DecisionAcceptableWithMaxAttempts:
		return true
	default:
		return false
	}
}

// Assessment is the verifier's overall quality judgment of an attempt.
type Assessment string

const (
	// AssessmentSatisfactory means all high-priority tasks met their criteria.
	AssessmentSatisfactory Assessment = "satisfactory"
	// AssessmentNeedsImprovement means at least one task should be retried.
	AssessmentNeedsImprovement Assessment = "needs_improvement"
	// AssessmentAcceptableWithMaxAttempts means unmet tasks are out of budget.
	AssessmentAcceptableWithMaxAttempts Assessment = "acceptable_with_max_attempts"
)

// Valid returns true if the assessment is a known value.
func (a Assessment) Valid() bool {
	switch a {
	case AssessmentSatisfactory, AssessmentNeedsImprovement, AssessmentAcceptableWithMaxAttempts:
		return true
	default:
		return false
	}
}

// TaskVerification is the verifier's judgment of a single testing
// instruction within one attempt.
type TaskVerification struct {
	// TaskDescription is the task that was verified.
	TaskDescription string `json:"task_description"`
	// Priority is the task's priority.
	Priority Priority `json:"priority"`
	// MaxAttempts is the task's retry budget.
	MaxAttempts int `json:"max_attempts"`
	// AttemptsMade is how many attempts have targeted this task.
	AttemptsMade int `json:"attempts_made"`
	// SuccessCriteriaMet reports whether the criteria were satisfied.
	SuccessCriteriaMet bool `json:"success_criteria_met"`
	// VerificationNotes carries detail about completion quality.
	VerificationNotes string `json:"verification_notes,omitempty"`
	// NeedsRetry reports whether this task should be retried.
	NeedsRetry bool `json:"needs_retry"`
	// CanRetry reports whether a retry is possible (attempts_made < max_attempts).
	CanRetry bool `json:"can_retry"`
}

// VerificationVerdict is the structured judgment of one navigation attempt.
type VerificationVerdict struct {
	// PersonaType is the persona that was tested.
	PersonaType string `json:"persona_type"`
	// URLTested is the URL that was tested.
	URLTested string `json:"url_tested"`
	// OverallAssessment is the overall quality assessment.
	OverallAssessment Assessment `json:"overall_assessment"`
	// TaskVerifications holds one entry per instruction, in configuration order.
	TaskVerifications []TaskVerification `json:"task_verifications"`
	// CompletionRate is completed-instruction count over total count (0.0-1.0),
	// unweighted by priority.
	CompletionRate float64 `json:"completion_rate"`
	// PriorityTasksCompleted counts completed tasks by priority level.
	PriorityTasksCompleted map[string]int `json:"priority_tasks_completed,omitempty"`
	// FeedbackSummary lists key feedback points for improvement.
	FeedbackSummary []string `json:"feedback_summary,omitempty"`
	// MissingRequirements lists important requirements that were not met.
	MissingRequirements []string `json:"missing_requirements,omitempty"`
	// FinalDecision is PROCEED, RETRY, or ACCEPTABLE_WITH_MAX_ATTEMPTS.
	FinalDecision Decision `json:"final_decision"`
	// RetryGuidance is fed into the next attempt when FinalDecision is RETRY.
	RetryGuidance string `json:"retry_guidance,omitempty"`
	// VerificationNotes carries additional observations.
	VerificationNotes string `json:"verification_notes,omitempty"`
}

// RetryableCount returns the number of tasks flagged for a possible retry.
func (v *VerificationVerdict) RetryableCount() int {
	n := 0
	for _, tv := range v.TaskVerifications {
		if tv.NeedsRetry && tv.CanRetry {
			n++
		}
	}
	return n
}

// Validate checks the verdict's internal invariants, in particular that a
// RETRY decision carries at least one retryable task.
func (v *VerificationVerdict) Validate() error {
	if !v.OverallAssessment.Valid() {
		return fmt.Errorf("invalid overall_assessment %q", v.OverallAssessment)
	}
	if !v.FinalDecision.Valid() {
		return fmt.Errorf("invalid final_decision %q", v.FinalDecision)
	}
	if v.CompletionRate < 0 || v.CompletionRate > 1 {
		return fmt.Errorf("completion_rate %v out of range [0,1]", v.CompletionRate)
	}
	if v.FinalDecision == DecisionRetry && v.RetryableCount() == 0 {
		return fmt.Errorf("final_decision RETRY requires at least one task with needs_retry and can_retry")
	}
	return nil
}

// VerificationOutcome is the tagged result of judging one attempt: either a
// parsed verdict, or an explicit degraded (fail-open) outcome when no
// structured judgment could be produced.
type VerificationOutcome struct {
	// Verdict is the structured judgment, nil when Degraded is true.
	Verdict *VerificationVerdict
	// Degraded is true when the judgment was malformed or unavailable and
	// the fail-open default applies.
	Degraded bool
	// Raw is the raw judge output, kept for logging.
	Raw string
}

// Decision returns the effective decision for this outcome. Degraded
// outcomes fail open to PROCEED so the retry loop always terminates.
func (o *VerificationOutcome) Decision() Decision {
	if o.Degraded || o.Verdict == nil {
		return DecisionProceed
	}
	return o.Verdict.FinalDecision
}
