package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/critiq/internal/api"
	"github.com/ShayCichocki/critiq/internal/config"
	"github.com/ShayCichocki/critiq/internal/history"
	"github.com/ShayCichocki/critiq/internal/orchestrator"
	"github.com/ShayCichocki/critiq/internal/session"
)

var (
	runConfigPath string
	runReportPath string
	runNoHistory  bool
	runVerbose    bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a usability testing session",
	Long: `Run one full usability testing session from a YAML session config.

The session opens a browser, navigates the site in persona, verifies the
result against each task's success criteria, retries within the configured
attempt budgets, and writes a markdown critique report.`,
	RunE: runSession,
}

func init() {
	runCmd.Flags().StringVarP(&runConfigPath, "config", "c", "", "Path to YAML session config (required)")
	runCmd.Flags().StringVarP(&runReportPath, "output", "o", "", "Report file path (overrides config)")
	runCmd.Flags().BoolVar(&runNoHistory, "no-history", false, "Skip recording the session in the history database")
	runCmd.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Print navigation agent activity")
	runCmd.MarkFlagRequired("config")
}

func runSession(cmd *cobra.Command, args []string) error {
	appCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("%w: %v", errBadConfig, err)
	}

	sessionCfg, err := config.LoadSession(runConfigPath)
	if err != nil {
		var vErr *config.ValidationError
		if errors.As(err, &vErr) {
			return err
		}
		return fmt.Errorf("%w: %v", errBadConfig, err)
	}

	apiKey, err := config.GetAPIKey(appCfg)
	if err != nil && !appCfg.Anthropic.UseBedrock {
		return fmt.Errorf("%w: %v", errBadConfig, err)
	}
	if !appCfg.Anthropic.UseBedrock {
		if err := config.ValidateAPIKey(apiKey); err != nil {
			return fmt.Errorf("%w: %v", errBadConfig, err)
		}
	}

	client, err := api.NewClient(api.ClientConfig{
		Model:         anthropic.Model(appCfg.Anthropic.Model),
		APIKey:        apiKey,
		UseAWSBedrock: appCfg.Anthropic.UseBedrock,
		AWSRegion:     appCfg.Anthropic.AWSRegion,
		AWSProfile:    appCfg.Anthropic.AWSProfile,
	})
	if err != nil {
		return fmt.Errorf("create API client: %w", err)
	}

	workDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}
	notifications, err := api.NewNotificationManager(workDir)
	if err != nil {
		return fmt.Errorf("start signal watcher: %w", err)
	}
	defer notifications.Close()

	var store *history.Store
	if !runNoHistory {
		path := appCfg.Output.HistoryDB
		if path == "" {
			path = history.DefaultPath()
		}
		store, err = history.Open(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s history disabled: %v\n", color.YellowString("Warning:"), err)
			store = nil
		} else {
			defer store.Close()
		}
	}

	if runReportPath != "" {
		appCfg.Output.ReportFile = runReportPath
	}

	// Ctrl-C requests a graceful stop between attempts; a second one
	// cancels outright.
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, color.YellowString("\nStop requested; finishing the current attempt..."))
		notifications.SendKill()
		<-sigCh
		cancel()
	}()

	pipeline := session.New(client, appCfg, sessionCfg, notifications, store)
	if runVerbose {
		pipeline.SetStreamHandler(printStreamEvent)
	}

	fmt.Printf("Testing %s as %s (%d tasks, attempt limit %d)\n\n",
		color.CyanString(sessionCfg.AppURL),
		color.MagentaString(sessionCfg.PersonaType),
		len(sessionCfg.TestingInstructions),
		appCfg.Verification.GlobalAttemptLimit)

	outcome, err := pipeline.Run(ctx)
	if err != nil {
		return err
	}

	printSummary(outcome)
	return nil
}

func printStreamEvent(ev api.StreamEvent) {
	switch ev.Type {
	case "tool_use":
		fmt.Printf("  %s %s %s\n", color.BlueString("→"), ev.Tool, string(ev.Input))
	case "tool_result":
		fmt.Printf("  %s %s\n", color.HiBlackString("←"), color.HiBlackString(firstLine(ev.Content)))
	case "error":
		fmt.Printf("  %s %s\n", color.RedString("!"), ev.Content)
	}
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}

func printSummary(outcome *session.Outcome) {
	result := outcome.Result

	fmt.Println("\n=== Session Summary ===")
	fmt.Printf("Attempts: %d\n", result.AttemptsUsed)
	fmt.Printf("Outcome: %s\n", colorReason(result.Reason))
	fmt.Printf("Task completion: %.0f%%\n", result.CompletionRate*100)
	fmt.Printf("Usability rating: %s\n", outcome.Metrics.UsabilityRating)
	if outcome.Interview != nil {
		fmt.Printf("Satisfaction: %d/10\n", outcome.Interview.SatisfactionScore)
	}
	fmt.Printf("Tokens: %d in / %d out\n", outcome.TokensIn, outcome.TokensOut)
	if outcome.ReportPath != "" {
		fmt.Printf("Report: %s\n", color.GreenString(outcome.ReportPath))
	}
	if !outcome.Cleanup.Clean() {
		fmt.Printf("%s browser cleanup failed: %v\n", color.YellowString("Warning:"), outcome.Cleanup.Err)
	}
}

func colorReason(reason orchestrator.TerminationReason) string {
	switch reason {
	case orchestrator.ReasonApproved:
		return color.GreenString(string(reason))
	case orchestrator.ReasonAcceptedMaxAttempts, orchestrator.ReasonLimitReached, orchestrator.ReasonFailOpen:
		return color.YellowString(string(reason))
	case orchestrator.ReasonStopped:
		return color.RedString(string(reason))
	default:
		return string(reason)
	}
}
