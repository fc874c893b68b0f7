package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/critiq/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "critiq",
	Short: "Persona-driven web usability testing",
	Long: `Critiq runs AI persona usability tests against live websites.

A session researches a user persona, drives a real browser through your
testing instructions in character, verifies each navigation attempt with
an independent judge (retrying within configured budgets), interviews the
persona about the experience, and writes a markdown critique report.

Sessions are described by a YAML config:

  app_url: https://example.com
  persona_type: novice
  testing_instructions:
    - task: "Find the pricing page"
      priority: high
      max_attempts: 3
      success_criteria: "Pricing tiers visible"
      fallback_action: "Note what blocked the search"`,
}

// Execute runs the root command. Config problems exit 2, runtime
// failures exit 1.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("Error:"), err)

		var vErr *config.ValidationError
		if errors.As(err, &vErr) || errors.Is(err, errBadConfig) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

// errBadConfig marks config-stage failures that are not validation
// errors (missing files, bad YAML) so they share exit code 2.
var errBadConfig = errors.New("invalid configuration")

func main() {
	Execute()
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}
