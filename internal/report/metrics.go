// Package report turns a finished session into quantitative metrics
// and a markdown usability report.
package report

import (
	"time"

	"github.com/ShayCichocki/critiq/internal/browser"
	"github.com/ShayCichocki/critiq/pkg/models"
)

// Metrics summarizes a session's quantitative outcomes.
type Metrics struct {
	// TaskCompletionRate is completed instructions over total (0.0-1.0).
	TaskCompletionRate float64
	// InteractionSuccessRate is successful interactions over total.
	InteractionSuccessRate float64
	// UsabilityRating grades the interaction success rate.
	UsabilityRating string
	// LoadRating grades the average page load time.
	LoadRating string
	// AverageLoadTime is the mean navigation time.
	AverageLoadTime time.Duration
	// ErrorResponseRate is HTTP >=400 responses over all responses.
	ErrorResponseRate float64
	// SeverityBreakdown counts issues by severity level.
	SeverityBreakdown map[string]int
}

// Analyze computes session metrics from the accepted attempt and the
// browser's load observations.
func Analyze(attempt *models.NavigationAttemptResult, load browser.LoadMetrics) Metrics {
	m := Metrics{
		TaskCompletionRate:     1.0,
		InteractionSuccessRate: 1.0,
		AverageLoadTime:        load.AverageLoadTime(),
		SeverityBreakdown:      map[string]int{},
	}

	if attempt != nil {
		if n := len(attempt.Instructions); n > 0 {
			m.TaskCompletionRate = float64(attempt.CompletedCount()) / float64(n)
		}
		if n := len(attempt.Interactions); n > 0 {
			ok := 0
			for _, it := range attempt.Interactions {
				if it.Success {
					ok++
				}
			}
			m.InteractionSuccessRate = float64(ok) / float64(n)
		}
		for _, is := range attempt.Issues {
			m.SeverityBreakdown[is.Severity]++
		}
	}

	if load.Responses > 0 {
		m.ErrorResponseRate = float64(load.ErrorResponses) / float64(load.Responses)
	}

	m.UsabilityRating = rateUsability(m.InteractionSuccessRate)
	m.LoadRating = rateLoadTime(m.AverageLoadTime)
	return m
}

// rateUsability grades an interaction success rate.
func rateUsability(rate float64) string {
	switch {
	case rate >= 0.9:
		return "Excellent"
	case rate >= 0.8:
		return "Good"
	case rate >= 0.7:
		return "Fair"
	default:
		return "Poor"
	}
}

// rateLoadTime grades an average page load time against web vitals
// style thresholds.
func rateLoadTime(d time.Duration) string {
	switch {
	case d == 0:
		return "Unknown"
	case d < time.Second:
		return "Excellent"
	case d < 2500*time.Millisecond:
		return "Good"
	case d < 4*time.Second:
		return "Fair"
	default:
		return "Poor"
	}
}
