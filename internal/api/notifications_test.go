package api

import (
	"path/filepath"
	"testing"
)

func TestNotificationManager_StopSignal(t *testing.T) {
	dir := t.TempDir()

	nm, err := NewNotificationManager(dir)
	if err != nil {
		t.Fatalf("NewNotificationManager() error = %v", err)
	}
	defer nm.Close()

	if nm.ShouldStop() {
		t.Fatal("ShouldStop() = true before any signal")
	}

	if err := nm.SendKill(); err != nil {
		t.Fatalf("SendKill() error = %v", err)
	}

	// ShouldStop stats the file directly, so no watcher latency matters here.
	if !nm.ShouldStop() {
		t.Error("ShouldStop() = false after SendKill")
	}

	nm.ClearSignals()
	if nm.ShouldStop() {
		t.Error("ShouldStop() = true after ClearSignals")
	}
}

func TestNotificationManager_CritiqDir(t *testing.T) {
	dir := t.TempDir()

	nm, err := NewNotificationManager(dir)
	if err != nil {
		t.Fatalf("NewNotificationManager() error = %v", err)
	}
	defer nm.Close()

	want := filepath.Join(dir, ".critiq")
	if nm.CritiqDir() != want {
		t.Errorf("CritiqDir() = %q, want %q", nm.CritiqDir(), want)
	}
}
