package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/critiq/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Display the effective critiq configuration.

Configuration is read from ~/.config/critiq/config.yaml, with
project-specific overrides from .critiq.yaml and the ANTHROPIC_API_KEY
environment variable.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(2)
		}
		displayConfig(cfg)
	},
}

func displayConfig(cfg *config.Config) {
	key, _ := config.GetAPIKey(cfg)

	fmt.Printf("anthropic.api_key: %s\n", config.MaskAPIKey(key))
	fmt.Printf("anthropic.model: %s\n", cfg.Anthropic.Model)
	fmt.Printf("anthropic.use_bedrock: %t\n", cfg.Anthropic.UseBedrock)
	if cfg.Anthropic.UseBedrock {
		fmt.Printf("anthropic.aws_region: %s\n", cfg.Anthropic.AWSRegion)
		fmt.Printf("anthropic.aws_profile: %s\n", cfg.Anthropic.AWSProfile)
	}
	fmt.Printf("browser.headless: %t\n", cfg.Browser.Headless)
	fmt.Printf("browser.nav_timeout: %s\n", cfg.Browser.NavTimeout)
	fmt.Printf("verification.global_attempt_limit: %d\n", cfg.Verification.GlobalAttemptLimit)
	fmt.Printf("agent.max_iterations: %d\n", cfg.Agent.MaxIterations)
	fmt.Printf("agent.max_tokens: %d\n", cfg.Agent.MaxTokens)
	fmt.Printf("output.report_file: %s\n", cfg.Output.ReportFile)
	fmt.Printf("output.history_db: %s\n", cfg.Output.HistoryDB)
}
