package verifier

import (
	"strings"

	"github.com/ShayCichocki/critiq/pkg/models"
)

// NormalizeVerdict enforces the decision policy on a parsed verdict,
// in place. The judge's opinion on retry budgets and the final decision
// is advisory only: budgets come from the instruction configuration,
// and the decision is re-derived from the per-task verifications. A
// judge cannot grant extra attempts or force a retry of an exhausted
// task.
func NormalizeVerdict(v *models.VerificationVerdict, instructions []models.TestingInstruction) {
	byTask := make(map[string]models.TestingInstruction, len(instructions))
	for _, in := range instructions {
		byTask[normalizeTaskKey(in.Task)] = in
	}

	completed := 0
	anyRetryable := false
	anyUnmet := false
	priorityCompleted := make(map[string]int)

	for i := range v.TaskVerifications {
		tv := &v.TaskVerifications[i]

		// Restore configured budgets and priority, matching by task text.
		if in, ok := byTask[normalizeTaskKey(tv.TaskDescription)]; ok {
			tv.MaxAttempts = in.MaxAttempts
			tv.Priority = in.Priority
		}
		if tv.AttemptsMade < 1 {
			tv.AttemptsMade = 1
		}
		if tv.MaxAttempts > 0 && tv.AttemptsMade > tv.MaxAttempts {
			tv.AttemptsMade = tv.MaxAttempts
		}

		// can_retry is derived, never trusted.
		tv.CanRetry = tv.AttemptsMade < tv.MaxAttempts

		if tv.SuccessCriteriaMet {
			tv.NeedsRetry = false
			completed++
			priorityCompleted[string(tv.Priority)]++
		} else {
			anyUnmet = true
		}
		if tv.NeedsRetry && tv.CanRetry {
			anyRetryable = true
		}
	}

	if n := len(v.TaskVerifications); n > 0 {
		v.CompletionRate = float64(completed) / float64(n)
	} else {
		v.CompletionRate = 1.0
	}
	v.PriorityTasksCompleted = priorityCompleted

	v.FinalDecision = deriveDecision(v, anyRetryable, anyUnmet)

	switch v.FinalDecision {
	case models.DecisionProceed:
		if anyUnmet {
			// Unmet tasks but nothing retryable and not flagged for retry.
			if v.OverallAssessment != models.AssessmentSatisfactory {
				v.OverallAssessment = models.AssessmentNeedsImprovement
			}
		} else {
			v.OverallAssessment = models.AssessmentSatisfactory
		}
	case models.DecisionRetry:
		v.OverallAssessment = models.AssessmentNeedsImprovement
	case models.DecisionAcceptableWithMaxAttempts:
		v.OverallAssessment = models.AssessmentAcceptableWithMaxAttempts
	}
}

// deriveDecision computes the final decision from the per-task state:
// every task met means PROCEED; any retryable unmet task means RETRY;
// unmet tasks that are all out of budget mean ACCEPTABLE_WITH_MAX_ATTEMPTS.
func deriveDecision(v *models.VerificationVerdict, anyRetryable, anyUnmet bool) models.Decision {
	if !anyUnmet {
		return models.DecisionProceed
	}
	if anyRetryable {
		return models.DecisionRetry
	}

	// Unmet tasks remain, none retryable. If any of them wanted a retry,
	// their budgets are exhausted.
	for _, tv := range v.TaskVerifications {
		if !tv.SuccessCriteriaMet && tv.NeedsRetry {
			return models.DecisionAcceptableWithMaxAttempts
		}
	}

	// Unmet but not worth retrying per the judge: move on.
	return models.DecisionProceed
}

func normalizeTaskKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
