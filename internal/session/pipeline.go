package session

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ShayCichocki/critiq/internal/api"
	"github.com/ShayCichocki/critiq/internal/browser"
	"github.com/ShayCichocki/critiq/internal/config"
	"github.com/ShayCichocki/critiq/internal/history"
	"github.com/ShayCichocki/critiq/internal/navigator"
	"github.com/ShayCichocki/critiq/internal/orchestrator"
	"github.com/ShayCichocki/critiq/internal/report"
	"github.com/ShayCichocki/critiq/internal/verifier"
	"github.com/ShayCichocki/critiq/pkg/models"
)

// Pipeline runs one full critiq session: persona research, the
// orchestrated navigation loop, the simulated interview, and the
// final report.
type Pipeline struct {
	client        *api.Client
	appCfg        *config.Config
	sessionCfg    *config.SessionConfig
	notifications *api.NotificationManager
	store         *history.Store
	onStream      func(api.StreamEvent)
	logger        *log.Logger
}

// Outcome is everything a finished session produced.
type Outcome struct {
	Research  *models.PersonaProfile
	Result    *orchestrator.Result
	Interview *models.InterviewOutput
	Metrics   report.Metrics
	Report    string
	// ReportPath is where the report was written, empty if writing
	// was disabled.
	ReportPath string
	// Cleanup reports how browser shutdown went.
	Cleanup browser.CleanupStatus
	// TokensIn and TokensOut are the session's API token totals.
	TokensIn, TokensOut int64
}

// New creates a pipeline. The history store is optional; nil disables
// persistence.
func New(client *api.Client, appCfg *config.Config, sessionCfg *config.SessionConfig, notifications *api.NotificationManager, store *history.Store) *Pipeline {
	return &Pipeline{
		client:        client,
		appCfg:        appCfg,
		sessionCfg:    sessionCfg,
		notifications: notifications,
		store:         store,
		logger:        log.Default(),
	}
}

// SetStreamHandler forwards navigation agent events for progress display.
func (p *Pipeline) SetStreamHandler(fn func(api.StreamEvent)) {
	p.onStream = fn
}

// Run executes the session end to end. The browser is closed on every
// exit path; its cleanup status is logged and, on success, reported in
// the outcome.
func (p *Pipeline) Run(ctx context.Context) (*Outcome, error) {
	outcome := &Outcome{}

	// Stage 1: persona research. Nothing else can run without it.
	research, err := Research(ctx, p.client, p.sessionCfg.PersonaType)
	if err != nil {
		return nil, err
	}
	outcome.Research = research
	p.logger.Printf("session: persona research done for %s", p.sessionCfg.PersonaType)

	// Stage 2: browser + orchestrated navigation.
	bs, err := browser.NewSession(browser.Config{
		Headless:   p.appCfg.Browser.Headless,
		NavTimeout: p.appCfg.Browser.NavTimeout,
		UserAgent:  p.appCfg.Browser.UserAgent,
	})
	if err != nil {
		return nil, fmt.Errorf("start browser: %w", err)
	}
	defer func() {
		outcome.Cleanup = bs.Close()
		if !outcome.Cleanup.Clean() {
			p.logger.Printf("session: browser cleanup failed: %v", outcome.Cleanup.Err)
		}
	}()

	sessionID := p.beginHistory()

	runner := navigator.New(p.client, bs, p.notifications, navigator.Config{
		AppURL:        p.sessionCfg.AppURL,
		PersonaType:   p.sessionCfg.PersonaType,
		Instructions:  p.sessionCfg.TestingInstructions,
		MaxIterations: p.appCfg.Agent.MaxIterations,
		MaxTokens:     p.appCfg.Agent.MaxTokens,
	})
	runner.SetResearch(research)
	if p.onStream != nil {
		runner.SetStreamHandler(p.onStream)
	}

	judge := verifier.New(p.client, p.sessionCfg.TestingInstructions)
	orch := orchestrator.New(runner, judge, orchestrator.Config{
		AttemptLimit: p.appCfg.Verification.GlobalAttemptLimit,
		Instructions: p.sessionCfg.TestingInstructions,
		Stop:         p.notifications,
		Logger:       p.logger,
	})

	result, err := orch.Run(ctx)
	if err != nil {
		p.finishHistory(sessionID, 0, 0, "aborted")
		return nil, err
	}
	outcome.Result = result
	p.recordAttempts(sessionID, result)

	// Stage 3: interview.
	interview, err := Interview(ctx, p.client, research, result.FinalAttempt)
	if err != nil {
		p.finishHistory(sessionID, result.AttemptsUsed, result.CompletionRate, "aborted")
		return nil, err
	}
	outcome.Interview = interview

	// Stage 4: report.
	outcome.Metrics = report.Analyze(result.FinalAttempt, bs.Metrics())
	outcome.Report = report.Generate(report.Input{
		AppURL:            p.sessionCfg.AppURL,
		PersonaType:       p.sessionCfg.PersonaType,
		GeneratedAt:       time.Now(),
		Attempt:           result.FinalAttempt,
		Verdict:           result.FinalOutcome.Verdict,
		Interview:         interview,
		Research:          research,
		Metrics:           outcome.Metrics,
		AttemptsUsed:      result.AttemptsUsed,
		AttemptLimit:      p.appCfg.Verification.GlobalAttemptLimit,
		TerminationReason: string(result.Reason),
	})
	if path := p.appCfg.Output.ReportFile; path != "" {
		if err := report.WriteFile(path, outcome.Report); err != nil {
			// The report content is still in the outcome; do not lose
			// the whole session over a write failure.
			p.logger.Printf("session: %v", err)
		} else {
			outcome.ReportPath = path
		}
	}

	p.finishHistory(sessionID, result.AttemptsUsed, result.CompletionRate, string(result.Reason))

	outcome.TokensIn, outcome.TokensOut = p.client.Tracker().Totals()
	return outcome, nil
}

// beginHistory opens a history row; persistence failures are logged,
// never fatal.
func (p *Pipeline) beginHistory() string {
	if p.store == nil {
		return ""
	}
	id, err := p.store.BeginSession(p.sessionCfg.AppURL, p.sessionCfg.PersonaType)
	if err != nil {
		p.logger.Printf("session: history disabled: %v", err)
		return ""
	}
	return id
}

func (p *Pipeline) recordAttempts(sessionID string, result *orchestrator.Result) {
	if p.store == nil || sessionID == "" {
		return
	}
	for i, out := range result.Outcomes {
		rate := 0.0
		if out.Verdict != nil {
			rate = out.Verdict.CompletionRate
		}
		if err := p.store.RecordAttempt(sessionID, i+1, out.Decision(), out.Degraded, rate); err != nil {
			p.logger.Printf("session: record attempt %d: %v", i+1, err)
		}
	}
}

func (p *Pipeline) finishHistory(sessionID string, attempts int, rate float64, reason string) {
	if p.store == nil || sessionID == "" {
		return
	}
	if err := p.store.FinishSession(sessionID, attempts, rate, reason); err != nil {
		p.logger.Printf("session: finish history: %v", err)
	}
}
