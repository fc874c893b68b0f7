package navigator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/ShayCichocki/critiq/internal/api"
	"github.com/ShayCichocki/critiq/internal/browser"
	"github.com/ShayCichocki/critiq/pkg/models"
)

// Config holds the runner's per-session settings.
type Config struct {
	AppURL       string
	PersonaType  string
	Instructions []models.TestingInstruction
	// MaxIterations and MaxTokens bound each attempt's agent loop
	// (0 means the loop defaults).
	MaxIterations int
	MaxTokens     int64
}

// Runner executes navigation attempts over a shared browser session.
// Each attempt gets a fresh journal and tool executor; the browser
// itself lives for the whole session.
type Runner struct {
	client        *api.Client
	session       *browser.Session
	notifications *api.NotificationManager
	cfg           Config
	research      *models.PersonaProfile
	onStream      func(api.StreamEvent)
	logger        *log.Logger

	// runLoop is swappable for tests.
	runLoop func(ctx context.Context, journal *browser.Journal, system, user string) (*api.LoopResult, error)
}

// New creates a runner bound to the given client and browser session.
func New(client *api.Client, session *browser.Session, notifications *api.NotificationManager, cfg Config) *Runner {
	r := &Runner{
		client:        client,
		session:       session,
		notifications: notifications,
		cfg:           cfg,
		logger:        log.Default(),
	}
	r.runLoop = r.runAgentLoop
	return r
}

// SetResearch supplies the persona research profile; it enriches the
// system prompt when present.
func (r *Runner) SetResearch(p *models.PersonaProfile) {
	r.research = p
}

// SetStreamHandler forwards agent loop events for progress display.
func (r *Runner) SetStreamHandler(fn func(api.StreamEvent)) {
	r.onStream = fn
}

// RunAttempt executes one full navigation attempt. It returns an error
// only when the browser session itself is dead; agent misbehavior
// (unparsable output, iteration budget, mid-attempt stop) yields a
// partial result built from the journaled ground truth.
func (r *Runner) RunAttempt(ctx context.Context, attemptNum int, guidance string) (*models.NavigationAttemptResult, error) {
	journal := browser.NewJournal()

	system := systemPrompt(r.cfg.PersonaType, r.research)
	user := attemptPrompt(r.cfg.AppURL, r.cfg.Instructions, attemptNum, guidance)

	loopResult, err := r.runLoop(ctx, journal, system, user)
	if err != nil {
		switch {
		case errors.Is(err, api.ErrStopSignal), errors.Is(err, api.ErrMaxIterations):
			// The attempt ended early but the browser work it did is
			// still evidence; salvage it.
			r.logger.Printf("navigator: attempt %d ended early (interaction success %.0f%%): %v",
				attemptNum, journal.SuccessRate()*100, err)
		case ctx.Err() != nil:
			return nil, fmt.Errorf("navigation attempt %d: %w", attemptNum, ctx.Err())
		default:
			// Transport failure. A dead browser is fatal for the whole
			// session; an API hiccup is just a degraded attempt.
			if herr := r.session.Healthy(); herr != nil {
				return nil, fmt.Errorf("navigation attempt %d: %w", attemptNum, herr)
			}
			r.logger.Printf("navigator: attempt %d degraded: %v", attemptNum, err)
		}
	}

	output := ""
	if loopResult != nil {
		output = loopResult.Output
	}
	return r.buildResult(output, journal), nil
}

func (r *Runner) runAgentLoop(ctx context.Context, journal *browser.Journal, system, user string) (*api.LoopResult, error) {
	loop := api.NewAgentLoop(api.AgentLoopConfig{
		Client:        r.client,
		Executor:      browser.NewExecutor(r.session, journal),
		Tools:         browser.ToolDefinitions(),
		Notifications: r.notifications,
		MaxIterations: r.cfg.MaxIterations,
		MaxTokens:     r.cfg.MaxTokens,
	})
	if r.onStream != nil {
		loop.SetStreamHandler(r.onStream)
	}
	return loop.Run(ctx, system, user)
}

// buildResult merges the agent's self-report with the journaled ground
// truth. The journal always wins for path and interactions; the report
// contributes per-task claims, observations, and issues.
func (r *Runner) buildResult(output string, journal *browser.Journal) *models.NavigationAttemptResult {
	result := &models.NavigationAttemptResult{
		URLTested:               r.cfg.AppURL,
		PersonaType:             r.cfg.PersonaType,
		NavigationPath:          journal.Path(),
		Interactions:            journal.Interactions(),
		OverallCompletionStatus: "failed",
	}

	report, err := parseReport(output)
	if err != nil {
		r.logger.Printf("navigator: attempt report unparsable, keeping journal only: %v", err)
		result.Instructions = unreportedInstructions(r.cfg.Instructions)
		return result
	}

	result.Instructions = reconcileInstructions(r.cfg.Instructions, report.Instructions)
	result.Observations = report.Observations
	result.Issues = report.Issues
	if st := models.FinalStatus(report.OverallCompletionStatus); st.Valid() {
		result.OverallCompletionStatus = st
	}
	return result
}

// parseReport extracts the attempt report JSON from the agent's final
// text, tolerating markdown fences and surrounding prose.
func parseReport(output string) (*attemptReport, error) {
	report := &attemptReport{}
	if err := api.DecodeJSON(output, report); err != nil {
		return nil, fmt.Errorf("decode attempt report: %w", err)
	}
	if len(report.Instructions) == 0 && report.OverallCompletionStatus == "" {
		return nil, errors.New("attempt report carries no task results")
	}
	return report, nil
}

// reconcileInstructions maps the agent's claims back onto the
// configured instruction set: configuration supplies task text,
// priority, and budgets; the report supplies only outcome claims.
func reconcileInstructions(configured []models.TestingInstruction, reported []models.InstructionResult) []models.InstructionResult {
	byTask := make(map[string]models.InstructionResult, len(reported))
	for _, r := range reported {
		byTask[strings.ToLower(strings.TrimSpace(r.Task))] = r
	}

	out := make([]models.InstructionResult, 0, len(configured))
	for _, in := range configured {
		res := models.InstructionResult{
			Task:         in.Task,
			Priority:     in.Priority,
			MaxAttempts:  in.MaxAttempts,
			AttemptsMade: 1,
			FinalStatus:  models.StatusFailed,
		}
		if r, ok := byTask[strings.ToLower(strings.TrimSpace(in.Task))]; ok {
			res.SuccessCriteriaMet = r.SuccessCriteriaMet
			res.FallbackExecuted = r.FallbackExecuted && !r.SuccessCriteriaMet
			res.Notes = r.Notes
			switch {
			case r.SuccessCriteriaMet:
				res.FinalStatus = models.StatusCompleted
			case res.FallbackExecuted:
				res.FinalStatus = models.StatusPartial
			}
		} else {
			res.Notes = "not reported by the navigation agent"
		}
		out = append(out, res)
	}
	return out
}

// unreportedInstructions marks every configured task failed for an
// attempt whose report could not be parsed.
func unreportedInstructions(configured []models.TestingInstruction) []models.InstructionResult {
	out := make([]models.InstructionResult, 0, len(configured))
	for _, in := range configured {
		out = append(out, models.InstructionResult{
			Task:         in.Task,
			Priority:     in.Priority,
			MaxAttempts:  in.MaxAttempts,
			AttemptsMade: 1,
			FinalStatus:  models.StatusFailed,
			Notes:        "attempt produced no parsable report",
		})
	}
	return out
}
