package orchestrator

import (
	"strings"

	"github.com/ShayCichocki/critiq/pkg/models"
)

// taskProgress tracks one instruction's completion bookkeeping across
// attempts. Completion latches: once a task's success criteria are met
// they stay met, no matter what later attempts or verdicts report.
type taskProgress struct {
	instruction      models.TestingInstruction
	attemptsMade     int
	completed        bool
	fallbackExecuted bool
	notes            string
}

// ProgressTracker owns the per-task completion bookkeeping for a
// session. The orchestrator feeds it every attempt result and every
// verdict; navigator and judge output never mutate progress directly.
type ProgressTracker struct {
	order []string
	tasks map[string]*taskProgress
}

// NewProgressTracker creates a tracker seeded from the instruction set.
func NewProgressTracker(instructions []models.TestingInstruction) *ProgressTracker {
	t := &ProgressTracker{tasks: make(map[string]*taskProgress, len(instructions))}
	for _, in := range instructions {
		key := taskKey(in.Task)
		if _, dup := t.tasks[key]; dup {
			continue
		}
		t.order = append(t.order, key)
		t.tasks[key] = &taskProgress{instruction: in}
	}
	return t
}

// RecordAttempt folds one navigation attempt's reported task results
// into the tracker. Every tracked task consumes one attempt from its
// budget per navigation attempt that ran while it was incomplete;
// attempt counts are monotonic and clamped to the task's budget.
func (t *ProgressTracker) RecordAttempt(result *models.NavigationAttemptResult) {
	reported := make(map[string]models.InstructionResult, len(result.Instructions))
	for _, r := range result.Instructions {
		reported[taskKey(r.Task)] = r
	}

	for _, key := range t.order {
		tp := t.tasks[key]
		if tp.completed {
			continue
		}

		if tp.attemptsMade < tp.instruction.MaxAttempts {
			tp.attemptsMade++
		}

		r, ok := reported[key]
		if !ok {
			continue
		}
		if r.SuccessCriteriaMet {
			tp.completed = true
		}
		if r.FallbackExecuted {
			tp.fallbackExecuted = true
		}
		if r.Notes != "" {
			tp.notes = r.Notes
		}
	}
}

// RecordVerdict folds the judge's per-task findings into the tracker.
// Only the completion latch moves forward: a verdict can mark a task
// met, never unmet, and it cannot change attempt counts.
func (t *ProgressTracker) RecordVerdict(verdict *models.VerificationVerdict) {
	if verdict == nil {
		return
	}
	for _, tv := range verdict.TaskVerifications {
		tp, ok := t.tasks[taskKey(tv.TaskDescription)]
		if !ok {
			continue
		}
		if tv.SuccessCriteriaMet {
			tp.completed = true
		}
		if !tp.completed && tv.VerificationNotes != "" {
			tp.notes = tv.VerificationNotes
		}
	}
}

// Exhausted returns true when every incomplete task has used its whole
// attempt budget.
func (t *ProgressTracker) Exhausted() bool {
	for _, key := range t.order {
		tp := t.tasks[key]
		if !tp.completed && tp.attemptsMade < tp.instruction.MaxAttempts {
			return false
		}
	}
	return true
}

// CompletedCount returns how many tasks have latched complete.
func (t *ProgressTracker) CompletedCount() int {
	n := 0
	for _, key := range t.order {
		if t.tasks[key].completed {
			n++
		}
	}
	return n
}

// CompletionRate returns completed over total, unweighted by priority.
// An empty instruction set counts as fully complete.
func (t *ProgressTracker) CompletionRate() float64 {
	if len(t.order) == 0 {
		return 1.0
	}
	return float64(t.CompletedCount()) / float64(len(t.order))
}

// Results renders the final per-task bookkeeping in configuration
// order. Statuses: completed when criteria latched, partial when a
// fallback ran, failed otherwise.
func (t *ProgressTracker) Results() []models.InstructionResult {
	out := make([]models.InstructionResult, 0, len(t.order))
	for _, key := range t.order {
		tp := t.tasks[key]

		status := models.StatusFailed
		switch {
		case tp.completed:
			status = models.StatusCompleted
		case tp.fallbackExecuted:
			status = models.StatusPartial
		}

		attempts := tp.attemptsMade
		if attempts < 1 {
			attempts = 1
		}

		out = append(out, models.InstructionResult{
			Task:               tp.instruction.Task,
			Priority:           tp.instruction.Priority,
			MaxAttempts:        tp.instruction.MaxAttempts,
			AttemptsMade:       attempts,
			SuccessCriteriaMet: tp.completed,
			FallbackExecuted:   tp.fallbackExecuted && !tp.completed,
			FinalStatus:        status,
			Notes:              tp.notes,
		})
	}
	return out
}

func taskKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
