package verifier

import (
	"testing"

	"github.com/ShayCichocki/critiq/pkg/models"
)

func twoInstructions() []models.TestingInstruction {
	return []models.TestingInstruction{
		{
			Task:            "Find the top story",
			Priority:        models.PriorityHigh,
			MaxAttempts:     3,
			SuccessCriteria: "Top story title extracted",
			FallbackAction:  "Note the blocker",
		},
		{
			Task:            "Open the comments page",
			Priority:        models.PriorityMedium,
			MaxAttempts:     2,
			SuccessCriteria: "Comments visible",
			FallbackAction:  "Report the issue",
		},
	}
}

func TestNormalizeVerdict_AllMetIsProceed(t *testing.T) {
	v := &models.VerificationVerdict{
		TaskVerifications: []models.TaskVerification{
			{TaskDescription: "Find the top story", AttemptsMade: 1, SuccessCriteriaMet: true},
			{TaskDescription: "Open the comments page", AttemptsMade: 1, SuccessCriteriaMet: true},
		},
		// Judge tried to force a retry anyway.
		FinalDecision: models.DecisionRetry,
	}

	NormalizeVerdict(v, twoInstructions())

	if v.FinalDecision != models.DecisionProceed {
		t.Errorf("FinalDecision = %q, want PROCEED", v.FinalDecision)
	}
	if v.OverallAssessment != models.AssessmentSatisfactory {
		t.Errorf("OverallAssessment = %q, want satisfactory", v.OverallAssessment)
	}
	if v.CompletionRate != 1.0 {
		t.Errorf("CompletionRate = %v, want 1.0", v.CompletionRate)
	}
	if v.PriorityTasksCompleted["high"] != 1 || v.PriorityTasksCompleted["medium"] != 1 {
		t.Errorf("PriorityTasksCompleted = %v", v.PriorityTasksCompleted)
	}
}

func TestNormalizeVerdict_RetryableUnmetIsRetry(t *testing.T) {
	v := &models.VerificationVerdict{
		TaskVerifications: []models.TaskVerification{
			{TaskDescription: "Find the top story", AttemptsMade: 1, SuccessCriteriaMet: false, NeedsRetry: true},
			{TaskDescription: "Open the comments page", AttemptsMade: 1, SuccessCriteriaMet: true},
		},
	}

	NormalizeVerdict(v, twoInstructions())

	if v.FinalDecision != models.DecisionRetry {
		t.Errorf("FinalDecision = %q, want RETRY", v.FinalDecision)
	}
	if v.OverallAssessment != models.AssessmentNeedsImprovement {
		t.Errorf("OverallAssessment = %q", v.OverallAssessment)
	}
	if v.CompletionRate != 0.5 {
		t.Errorf("CompletionRate = %v, want 0.5", v.CompletionRate)
	}
	if got := v.RetryableCount(); got != 1 {
		t.Errorf("RetryableCount() = %d, want 1", got)
	}
}

func TestNormalizeVerdict_ExhaustedBudgetsAreAcceptable(t *testing.T) {
	v := &models.VerificationVerdict{
		TaskVerifications: []models.TaskVerification{
			// Judge claims can_retry, but the task has used its whole budget.
			{TaskDescription: "Find the top story", AttemptsMade: 3, SuccessCriteriaMet: false, NeedsRetry: true, CanRetry: true},
			{TaskDescription: "Open the comments page", AttemptsMade: 2, SuccessCriteriaMet: false, NeedsRetry: true, CanRetry: true},
		},
	}

	NormalizeVerdict(v, twoInstructions())

	if v.FinalDecision != models.DecisionAcceptableWithMaxAttempts {
		t.Errorf("FinalDecision = %q, want ACCEPTABLE_WITH_MAX_ATTEMPTS", v.FinalDecision)
	}
	if v.OverallAssessment != models.AssessmentAcceptableWithMaxAttempts {
		t.Errorf("OverallAssessment = %q", v.OverallAssessment)
	}
	for i, tv := range v.TaskVerifications {
		if tv.CanRetry {
			t.Errorf("task %d: CanRetry = true after budget exhaustion", i)
		}
	}
}

func TestNormalizeVerdict_ClampsJudgeBudgets(t *testing.T) {
	v := &models.VerificationVerdict{
		TaskVerifications: []models.TaskVerification{
			// Judge inflated the budget and deflated attempts.
			{TaskDescription: "Find the top story", MaxAttempts: 99, AttemptsMade: 0, SuccessCriteriaMet: false, NeedsRetry: true},
		},
	}

	NormalizeVerdict(v, twoInstructions())

	tv := v.TaskVerifications[0]
	if tv.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want configured 3", tv.MaxAttempts)
	}
	if tv.AttemptsMade != 1 {
		t.Errorf("AttemptsMade = %d, want clamped to 1", tv.AttemptsMade)
	}
	if tv.Priority != models.PriorityHigh {
		t.Errorf("Priority = %q, want configured high", tv.Priority)
	}
	if !tv.CanRetry {
		t.Error("CanRetry should be derived true (1 < 3)")
	}
}

func TestNormalizeVerdict_UnmetButNotRetryWorthyIsProceed(t *testing.T) {
	v := &models.VerificationVerdict{
		TaskVerifications: []models.TaskVerification{
			{TaskDescription: "Find the top story", AttemptsMade: 1, SuccessCriteriaMet: true},
			// Unmet, but the judge says retrying will not help.
			{TaskDescription: "Open the comments page", AttemptsMade: 1, SuccessCriteriaMet: false, NeedsRetry: false},
		},
	}

	NormalizeVerdict(v, twoInstructions())

	if v.FinalDecision != models.DecisionProceed {
		t.Errorf("FinalDecision = %q, want PROCEED", v.FinalDecision)
	}
	if v.OverallAssessment != models.AssessmentNeedsImprovement {
		t.Errorf("OverallAssessment = %q, want needs_improvement", v.OverallAssessment)
	}
}

func TestNormalizeVerdict_SuccessfulTaskNeverRetries(t *testing.T) {
	v := &models.VerificationVerdict{
		TaskVerifications: []models.TaskVerification{
			// Contradictory judge output: met criteria but flagged for retry.
			{TaskDescription: "Find the top story", AttemptsMade: 1, SuccessCriteriaMet: true, NeedsRetry: true},
		},
	}

	NormalizeVerdict(v, twoInstructions())

	if v.TaskVerifications[0].NeedsRetry {
		t.Error("NeedsRetry should be cleared for a met task")
	}
	if v.FinalDecision != models.DecisionProceed {
		t.Errorf("FinalDecision = %q, want PROCEED", v.FinalDecision)
	}
}

func TestNormalizeVerdict_NoTasks(t *testing.T) {
	v := &models.VerificationVerdict{}

	NormalizeVerdict(v, nil)

	if v.FinalDecision != models.DecisionProceed {
		t.Errorf("FinalDecision = %q, want PROCEED", v.FinalDecision)
	}
	if v.CompletionRate != 1.0 {
		t.Errorf("CompletionRate = %v, want 1.0", v.CompletionRate)
	}
}

func TestNormalizeVerdict_ValidatesAfterNormalization(t *testing.T) {
	// Whatever the judge sends, a normalized verdict must satisfy the
	// verdict invariants.
	inputs := []*models.VerificationVerdict{
		{TaskVerifications: []models.TaskVerification{
			{TaskDescription: "Find the top story", AttemptsMade: 5, NeedsRetry: true, CanRetry: true},
		}, FinalDecision: models.DecisionRetry},
		{TaskVerifications: []models.TaskVerification{
			{TaskDescription: "unknown task", SuccessCriteriaMet: true},
		}, CompletionRate: 42},
	}

	for i, v := range inputs {
		NormalizeVerdict(v, twoInstructions())
		if err := v.Validate(); err != nil {
			t.Errorf("verdict %d invalid after normalization: %v", i, err)
		}
	}
}
