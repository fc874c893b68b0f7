// Package orchestrator runs the bounded attempt/verify retry loop at
// the heart of a critiq session. It owns the session's progress
// bookkeeping and guarantees termination: at least one and at most the
// configured limit of navigation attempts run, and every exit path
// yields a final accepted attempt.
package orchestrator

import (
	"context"
	"fmt"
	"log"

	"github.com/ShayCichocki/critiq/pkg/models"
)

// AttemptRunner executes one full navigation attempt. Guidance carries
// the judge's retry feedback from the previous attempt; it is empty on
// the first attempt.
type AttemptRunner interface {
	RunAttempt(ctx context.Context, attemptNum int, guidance string) (*models.NavigationAttemptResult, error)
}

// Verifier judges one navigation attempt.
type Verifier interface {
	Verify(ctx context.Context, attempt *models.NavigationAttemptResult, attemptNum int) models.VerificationOutcome
}

// StopChecker reports whether an external stop was requested. Checked
// between attempts only; a running attempt always finishes.
type StopChecker interface {
	ShouldStop() bool
}

// Phase is the orchestrator's position in the retry state machine.
type Phase string

const (
	PhaseAttempting         Phase = "ATTEMPTING"
	PhaseVerifying          Phase = "VERIFYING"
	PhaseRetry              Phase = "RETRY"
	PhaseApproved           Phase = "APPROVED"
	PhaseMaxRetriesExceeded Phase = "MAX_RETRIES_EXCEEDED"
	PhaseDone               Phase = "DONE"
)

// TerminationReason explains why the retry loop stopped.
type TerminationReason string

const (
	// ReasonApproved means the verifier accepted the attempt.
	ReasonApproved TerminationReason = "approved"
	// ReasonAcceptedMaxAttempts means every unmet task ran out of budget.
	ReasonAcceptedMaxAttempts TerminationReason = "accepted_with_max_attempts"
	// ReasonLimitReached means the global attempt limit forced acceptance.
	ReasonLimitReached TerminationReason = "attempt_limit_reached"
	// ReasonFailOpen means the last verdict was degraded and the loop
	// proceeded rather than retrying blind.
	ReasonFailOpen TerminationReason = "verification_degraded"
	// ReasonStopped means an external stop request ended the loop early.
	ReasonStopped TerminationReason = "stop_requested"
)

// Config holds the orchestrator's knobs.
type Config struct {
	// AttemptLimit bounds full navigation attempts (min 1).
	AttemptLimit int
	// Instructions is the session's task list.
	Instructions []models.TestingInstruction
	// Stop is optional; nil means no external stop channel.
	Stop StopChecker
	// Logger is optional; nil falls back to the default logger.
	Logger *log.Logger
}

// Result is the outcome of the whole retry loop.
type Result struct {
	// FinalAttempt is the accepted navigation attempt, its instruction
	// results replaced by the tracker's authoritative bookkeeping.
	FinalAttempt *models.NavigationAttemptResult
	// FinalOutcome is the verification outcome of the accepted attempt.
	FinalOutcome models.VerificationOutcome
	// Outcomes holds one verification outcome per attempt, in order.
	Outcomes []models.VerificationOutcome
	// AttemptsUsed is the number of navigation attempts run (>= 1).
	AttemptsUsed int
	// Reason explains why the loop terminated.
	Reason TerminationReason
	// Phase is the terminal state machine phase: PhaseApproved,
	// PhaseMaxRetriesExceeded, or PhaseDone when a stop request closed
	// the loop without a new decision.
	Phase Phase
	// CompletionRate is the tracker's final completed/total ratio.
	CompletionRate float64
}

// Orchestrator drives attempts through verification until acceptance.
type Orchestrator struct {
	runner   AttemptRunner
	verifier Verifier
	cfg      Config
	logger   *log.Logger
}

// New creates an orchestrator. AttemptLimit values below 1 are raised
// to 1 so the loop always runs.
func New(runner AttemptRunner, verifier Verifier, cfg Config) *Orchestrator {
	if cfg.AttemptLimit < 1 {
		cfg.AttemptLimit = 1
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Orchestrator{runner: runner, verifier: verifier, cfg: cfg, logger: logger}
}

// Run executes the retry loop. It returns an error only for fatal
// runner failures (a dead browser, a cancelled context); verification
// misbehavior never aborts the loop, it fails open to acceptance.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	tracker := NewProgressTracker(o.cfg.Instructions)
	result := &Result{}
	guidance := ""

	for attempt := 1; attempt <= o.cfg.AttemptLimit; attempt++ {
		if attempt > 1 && o.stopRequested() {
			o.logger.Printf("orchestrator: stop requested before attempt %d", attempt)
			result.Reason = ReasonStopped
			result.Phase = PhaseDone
			break
		}

		result.Phase = PhaseAttempting
		o.logger.Printf("orchestrator: attempt %d/%d starting", attempt, o.cfg.AttemptLimit)

		attemptResult, err := o.runner.RunAttempt(ctx, attempt, guidance)
		if err != nil {
			return nil, fmt.Errorf("attempt %d: %w", attempt, err)
		}
		result.AttemptsUsed = attempt
		result.FinalAttempt = attemptResult
		tracker.RecordAttempt(attemptResult)

		result.Phase = PhaseVerifying
		outcome := o.verifier.Verify(ctx, attemptResult, attempt)
		result.Outcomes = append(result.Outcomes, outcome)
		result.FinalOutcome = outcome
		tracker.RecordVerdict(outcome.Verdict)

		decision := outcome.Decision()
		o.logger.Printf("orchestrator: attempt %d verified, decision=%s degraded=%t", attempt, decision, outcome.Degraded)

		switch decision {
		case models.DecisionProceed:
			result.Phase = PhaseApproved
			if outcome.Degraded {
				result.Reason = ReasonFailOpen
			} else {
				result.Reason = ReasonApproved
			}

		case models.DecisionAcceptableWithMaxAttempts:
			result.Phase = PhaseApproved
			result.Reason = ReasonAcceptedMaxAttempts

		case models.DecisionRetry:
			if attempt == o.cfg.AttemptLimit {
				// Budget spent: accept what we have.
				result.Phase = PhaseMaxRetriesExceeded
				result.Reason = ReasonLimitReached
				break
			}
			if outcome.Verdict == nil || outcome.Verdict.RetryableCount() == 0 || tracker.Exhausted() {
				// A RETRY with nothing retryable, or with every incomplete
				// task out of budget, cannot make progress. The tracker's
				// bookkeeping overrules the judge's retry claims.
				result.Phase = PhaseApproved
				result.Reason = ReasonAcceptedMaxAttempts
				break
			}
			result.Phase = PhaseRetry
			guidance = outcome.Verdict.RetryGuidance
			continue

		default:
			// Unknown decision value: treat like a degraded verdict.
			result.Phase = PhaseApproved
			result.Reason = ReasonFailOpen
		}
		break
	}

	// The first attempt always runs, so a finished loop always has an
	// attempt to report, even when stopped early.
	if result.FinalAttempt != nil {
		result.FinalAttempt.Instructions = tracker.Results()
		result.FinalAttempt.HighPriorityTotal = countHighPriority(o.cfg.Instructions)
		result.FinalAttempt.HighPriorityCompleted = countHighPriorityCompleted(result.FinalAttempt.Instructions)
		result.FinalAttempt.OverallCompletionStatus = overallStatus(tracker)
	}
	result.CompletionRate = tracker.CompletionRate()

	return result, nil
}

func (o *Orchestrator) stopRequested() bool {
	return o.cfg.Stop != nil && o.cfg.Stop.ShouldStop()
}

func countHighPriority(instructions []models.TestingInstruction) int {
	n := 0
	for _, in := range instructions {
		if in.Priority == models.PriorityHigh {
			n++
		}
	}
	return n
}

func countHighPriorityCompleted(results []models.InstructionResult) int {
	n := 0
	for _, r := range results {
		if r.Priority == models.PriorityHigh && r.FinalStatus == models.StatusCompleted {
			n++
		}
	}
	return n
}

func overallStatus(t *ProgressTracker) models.FinalStatus {
	switch rate := t.CompletionRate(); {
	case rate == 1.0:
		return models.StatusCompleted
	case rate > 0:
		return models.StatusPartial
	default:
		return models.StatusFailed
	}
}
