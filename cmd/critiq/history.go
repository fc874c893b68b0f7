package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/critiq/internal/config"
	"github.com/ShayCichocki/critiq/internal/history"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent testing sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		appCfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("%w: %v", errBadConfig, err)
		}

		path := appCfg.Output.HistoryDB
		if path == "" {
			path = history.DefaultPath()
		}
		if _, err := os.Stat(path); err != nil {
			fmt.Println("No session history yet.")
			return nil
		}

		store, err := history.Open(path)
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		defer store.Close()

		sessions, err := store.RecentSessions(historyLimit)
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			fmt.Println("No session history yet.")
			return nil
		}

		for _, s := range sessions {
			status := color.YellowString(s.Status)
			if s.Status == "done" {
				status = color.GreenString(s.Status)
			}
			fmt.Printf("%s  %s  %s as %s  attempts=%d  completion=%.0f%%  %s\n",
				s.StartedAt.Local().Format("2006-01-02 15:04"),
				status,
				s.AppURL,
				s.PersonaType,
				s.AttemptsUsed,
				s.CompletionRate*100,
				s.TerminationReason)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "Number of sessions to show")
}
