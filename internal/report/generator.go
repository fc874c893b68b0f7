package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ShayCichocki/critiq/pkg/models"
)

// Input carries everything the report renders.
type Input struct {
	AppURL      string
	PersonaType string
	GeneratedAt time.Time

	// Attempt is the accepted navigation attempt.
	Attempt *models.NavigationAttemptResult
	// Verdict is the final verification verdict, nil when degraded.
	Verdict *models.VerificationVerdict
	// Interview is the simulated post-test interview, optional.
	Interview *models.InterviewOutput
	// Research is the persona research profile, optional.
	Research *models.PersonaProfile

	Metrics Metrics
	// AttemptsUsed and AttemptLimit describe the retry loop's spend.
	AttemptsUsed int
	AttemptLimit int
	// TerminationReason explains how the loop ended.
	TerminationReason string
}

// Generate renders the markdown usability report.
func Generate(in Input) string {
	when := in.GeneratedAt
	if when.IsZero() {
		when = time.Now()
	}

	var b strings.Builder
	b.WriteString("# Product Critique Report\n\n")
	fmt.Fprintf(&b, "**Generated:** %s\n", when.Format("January 2, 2006"))
	fmt.Fprintf(&b, "**URL:** %s\n", in.AppURL)
	fmt.Fprintf(&b, "**Persona:** %s\n\n", in.PersonaType)

	writeSummary(&b, in)
	writeTaskResults(&b, in.Attempt)
	writeMetrics(&b, in.Metrics)
	writeIssues(&b, in.Attempt)
	writeFeedback(&b, in)
	writeRecommendations(&b, in)

	return b.String()
}

// WriteFile writes the report, creating parent directories as needed.
func WriteFile(path, content string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func writeSummary(b *strings.Builder, in Input) {
	b.WriteString("## Session Summary\n\n")
	fmt.Fprintf(b, "- Navigation attempts: %d of %d\n", in.AttemptsUsed, in.AttemptLimit)
	if in.TerminationReason != "" {
		fmt.Fprintf(b, "- Outcome: %s\n", strings.ReplaceAll(in.TerminationReason, "_", " "))
	}
	fmt.Fprintf(b, "- Task completion: %.0f%%\n", in.Metrics.TaskCompletionRate*100)
	if in.Attempt != nil && in.Attempt.HighPriorityTotal > 0 {
		fmt.Fprintf(b, "- High-priority tasks: %d/%d completed\n",
			in.Attempt.HighPriorityCompleted, in.Attempt.HighPriorityTotal)
	}
	b.WriteString("\n")
}

func writeTaskResults(b *strings.Builder, attempt *models.NavigationAttemptResult) {
	b.WriteString("## Task Results\n\n")
	if attempt == nil || len(attempt.Instructions) == 0 {
		b.WriteString("No testing instructions were configured.\n\n")
		return
	}

	b.WriteString("| Task | Priority | Status | Attempts |\n")
	b.WriteString("|------|----------|--------|----------|\n")
	for _, r := range attempt.Instructions {
		status := string(r.FinalStatus)
		if r.FallbackExecuted {
			status += " (fallback)"
		}
		fmt.Fprintf(b, "| %s | %s | %s | %d/%d |\n",
			r.Task, r.Priority, status, r.AttemptsMade, r.MaxAttempts)
	}
	b.WriteString("\n")

	for _, r := range attempt.Instructions {
		if r.Notes != "" {
			fmt.Fprintf(b, "- **%s**: %s\n", r.Task, r.Notes)
		}
	}
	b.WriteString("\n")
}

func writeMetrics(b *strings.Builder, m Metrics) {
	b.WriteString("## Performance Assessment\n\n")
	fmt.Fprintf(b, "- Interaction success rate: %.0f%% (%s)\n",
		m.InteractionSuccessRate*100, m.UsabilityRating)
	if m.AverageLoadTime > 0 {
		fmt.Fprintf(b, "- Average page load time: %.2fs (%s)\n",
			m.AverageLoadTime.Seconds(), m.LoadRating)
	} else {
		b.WriteString("- Page load metrics not available\n")
	}
	if m.ErrorResponseRate > 0 {
		fmt.Fprintf(b, "- HTTP error responses: %.0f%% of requests\n", m.ErrorResponseRate*100)
	}
	b.WriteString("\n")
}

func writeIssues(b *strings.Builder, attempt *models.NavigationAttemptResult) {
	b.WriteString("## Key Issues Found\n\n")
	if attempt == nil || len(attempt.Issues) == 0 {
		b.WriteString("- No significant issues identified\n\n")
		return
	}

	// Highest severity first.
	for _, severity := range []string{"critical", "high", "medium", "low"} {
		for _, is := range attempt.Issues {
			if strings.EqualFold(is.Severity, severity) {
				where := ""
				if is.Location != "" {
					where = fmt.Sprintf(" (%s)", is.Location)
				}
				fmt.Fprintf(b, "- **%s**: %s%s\n", severity, is.Description, where)
			}
		}
	}
	b.WriteString("\n")
}

func writeFeedback(b *strings.Builder, in Input) {
	b.WriteString("## User Feedback Highlights\n\n")

	wrote := false
	if in.Interview != nil {
		if in.Interview.SatisfactionScore > 0 {
			fmt.Fprintf(b, "- Satisfaction score: %d/10\n", in.Interview.SatisfactionScore)
			wrote = true
		}
		for _, q := range in.Interview.Quotes {
			fmt.Fprintf(b, "- %q\n", q)
			wrote = true
		}
		for _, p := range in.Interview.PainPoints {
			fmt.Fprintf(b, "- Pain point: %s\n", p)
			wrote = true
		}
	}
	if in.Verdict != nil {
		for _, f := range in.Verdict.FeedbackSummary {
			fmt.Fprintf(b, "- %s\n", f)
			wrote = true
		}
	}
	if !wrote {
		b.WriteString("- User testing completed with positive overall feedback\n")
	}
	b.WriteString("\n")
}

func writeRecommendations(b *strings.Builder, in Input) {
	b.WriteString("## Recommendations\n\n")

	var recs []string
	if in.Interview != nil {
		recs = append(recs, in.Interview.Suggestions...)
	}
	if in.Verdict != nil {
		for _, m := range in.Verdict.MissingRequirements {
			recs = append(recs, "Address unmet requirement: "+m)
		}
	}
	if len(recs) == 0 {
		recs = []string{
			"Monitor and improve page loading performance",
			"Continue gathering user feedback for iterative improvements",
			"Focus on addressing any critical user experience issues",
		}
	}
	for _, r := range recs {
		fmt.Fprintf(b, "- %s\n", r)
	}
	b.WriteString("\n")
}
