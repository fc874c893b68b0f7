package browser

import (
	"sync"
	"time"

	"github.com/ShayCichocki/critiq/pkg/models"
)

// Journal records the ground-truth interaction log for one navigation
// attempt. The runner resets it per attempt; the recorded path and
// interactions go into the attempt result regardless of what the model
// reports about itself.
type Journal struct {
	mu           sync.Mutex
	path         []string
	interactions []models.Interaction
}

// NewJournal creates an empty journal.
func NewJournal() *Journal {
	return &Journal{}
}

// Record appends one interaction.
func (j *Journal) Record(action, target, outcome string, success bool) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if len(outcome) > 300 {
		outcome = outcome[:300] + "..."
	}
	j.interactions = append(j.interactions, models.Interaction{
		Action:  action,
		Target:  target,
		Outcome: outcome,
		Success: success,
		At:      time.Now(),
	})
}

// AddPage appends an entry to the navigation path.
func (j *Journal) AddPage(entry string) {
	j.mu.Lock()
	defer j.mu.Unlock()

	// Collapse immediate repeats (e.g. failed clicks on the same page).
	if n := len(j.path); n > 0 && j.path[n-1] == entry {
		return
	}
	j.path = append(j.path, entry)
}

// Path returns a copy of the ordered navigation path.
func (j *Journal) Path() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]string, len(j.path))
	copy(out, j.path)
	return out
}

// Interactions returns a copy of the ordered interaction log.
func (j *Journal) Interactions() []models.Interaction {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]models.Interaction, len(j.interactions))
	copy(out, j.interactions)
	return out
}

// SuccessRate returns the fraction of successful interactions, or 1.0 when
// nothing was recorded.
func (j *Journal) SuccessRate() float64 {
	j.mu.Lock()
	defer j.mu.Unlock()

	if len(j.interactions) == 0 {
		return 1.0
	}
	ok := 0
	for _, it := range j.interactions {
		if it.Success {
			ok++
		}
	}
	return float64(ok) / float64(len(j.interactions))
}
