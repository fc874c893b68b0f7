package history

import (
	"path/filepath"
	"testing"

	"github.com/ShayCichocki/critiq/pkg/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_SessionLifecycle(t *testing.T) {
	s := openTestStore(t)

	id, err := s.BeginSession("https://example.com", "novice")
	if err != nil {
		t.Fatalf("BeginSession() error = %v", err)
	}
	if id == "" {
		t.Fatal("BeginSession() returned empty id")
	}

	if err := s.RecordAttempt(id, 1, models.DecisionRetry, false, 0.5); err != nil {
		t.Fatalf("RecordAttempt() error = %v", err)
	}
	if err := s.RecordAttempt(id, 2, models.DecisionProceed, false, 1.0); err != nil {
		t.Fatalf("RecordAttempt() error = %v", err)
	}
	if err := s.FinishSession(id, 2, 1.0, "approved"); err != nil {
		t.Fatalf("FinishSession() error = %v", err)
	}

	n, err := s.AttemptCount(id)
	if err != nil {
		t.Fatalf("AttemptCount() error = %v", err)
	}
	if n != 2 {
		t.Errorf("AttemptCount() = %d, want 2", n)
	}

	sessions, err := s.RecentSessions(5)
	if err != nil {
		t.Fatalf("RecentSessions() error = %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("got %d sessions, want 1", len(sessions))
	}

	got := sessions[0]
	if got.ID != id || got.Status != "done" {
		t.Errorf("session = %+v", got)
	}
	if got.AttemptsUsed != 2 || got.CompletionRate != 1.0 {
		t.Errorf("session numbers = %+v", got)
	}
	if got.TerminationReason != "approved" {
		t.Errorf("TerminationReason = %q", got.TerminationReason)
	}
	if got.FinishedAt == nil {
		t.Error("FinishedAt not set after FinishSession")
	}
}

func TestStore_RecentSessionsOrderAndLimit(t *testing.T) {
	s := openTestStore(t)

	for i := 0; i < 3; i++ {
		if _, err := s.BeginSession("https://example.com", "novice"); err != nil {
			t.Fatal(err)
		}
	}

	sessions, err := s.RecentSessions(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 2 {
		t.Errorf("got %d sessions, want 2", len(sessions))
	}
}

func TestStore_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	id, err := s.BeginSession("https://example.com", "tech_savvy")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s2.Close()

	sessions, err := s2.RecentSessions(5)
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 1 || sessions[0].ID != id {
		t.Errorf("sessions after reopen = %+v", sessions)
	}
}

func TestStore_AttemptRequiresSession(t *testing.T) {
	s := openTestStore(t)

	// Foreign keys are on; an attempt for a missing session must fail.
	if err := s.RecordAttempt("no-such-session", 1, models.DecisionProceed, false, 1.0); err == nil {
		t.Error("RecordAttempt() succeeded for unknown session")
	}
}
