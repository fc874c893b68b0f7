package api

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// NotificationManager watches the .critiq/signals directory for a stop
// request. The orchestrator consults it between attempts; a running attempt
// is never interrupted.
type NotificationManager struct {
	critiqDir string

	mu         sync.RWMutex
	stopSignal bool

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewNotificationManager creates a notification manager rooted at the given
// working directory. The watcher is best-effort: if it cannot be created the
// manager falls back to polling the signal file.
func NewNotificationManager(workDir string) (*NotificationManager, error) {
	critiqDir := filepath.Join(workDir, ".critiq")

	signalsDir := filepath.Join(critiqDir, "signals")
	if err := os.MkdirAll(signalsDir, 0755); err != nil {
		return nil, err
	}

	nm := &NotificationManager{
		critiqDir: critiqDir,
		done:      make(chan struct{}),
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nm, nil
	}
	nm.watcher = watcher

	if err := watcher.Add(signalsDir); err != nil {
		watcher.Close()
		nm.watcher = nil
		return nm, nil
	}

	go nm.watchSignals()

	return nm, nil
}

// watchSignals monitors the signals directory for the kill file.
func (nm *NotificationManager) watchSignals() {
	for {
		select {
		case <-nm.done:
			return
		case event, ok := <-nm.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) == "kill" &&
				(event.Op&fsnotify.Create != 0 || event.Op&fsnotify.Write != 0) {
				nm.mu.Lock()
				nm.stopSignal = true
				nm.mu.Unlock()
			}
		case <-nm.watcher.Errors:
			// Ignore errors, keep watching
		}
	}
}

// ShouldStop returns true if a stop signal has been received.
func (nm *NotificationManager) ShouldStop() bool {
	// Also check the file directly in case the watcher missed it
	killPath := filepath.Join(nm.critiqDir, "signals", "kill")
	if _, err := os.Stat(killPath); err == nil {
		nm.mu.Lock()
		nm.stopSignal = true
		nm.mu.Unlock()
	}

	nm.mu.RLock()
	defer nm.mu.RUnlock()
	return nm.stopSignal
}

// SendKill creates a kill signal file.
func (nm *NotificationManager) SendKill() error {
	path := filepath.Join(nm.critiqDir, "signals", "kill")
	return os.WriteFile(path, []byte(time.Now().Format(time.RFC3339)), 0644)
}

// ClearSignals removes the signal files and resets signal state.
func (nm *NotificationManager) ClearSignals() {
	nm.mu.Lock()
	defer nm.mu.Unlock()

	nm.stopSignal = false
	os.Remove(filepath.Join(nm.critiqDir, "signals", "kill"))
}

// CritiqDir returns the path to the .critiq directory.
func (nm *NotificationManager) CritiqDir() string {
	return nm.critiqDir
}

// Close shuts down the notification manager.
func (nm *NotificationManager) Close() {
	close(nm.done)
	if nm.watcher != nil {
		nm.watcher.Close()
	}
}
