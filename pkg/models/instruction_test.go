package models

import (
	"errors"
	"testing"
)

func TestPriority_Valid(t *testing.T) {
	tests := []struct {
		name     string
		priority Priority
		want     bool
	}{
		{"low is valid", PriorityLow, true},
		{"medium is valid", PriorityMedium, true},
		{"high is valid", PriorityHigh, true},
		{"empty string is invalid", Priority(""), false},
		{"unknown priority is invalid", Priority("urgent"), false},
		{"uppercase is invalid", Priority("HIGH"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.priority.Valid(); got != tt.want {
				t.Errorf("Priority(%q).Valid() = %v, want %v", tt.priority, got, tt.want)
			}
		})
	}
}

func validInstruction() TestingInstruction {
	return TestingInstruction{
		Task:            "Search for a question about Go generics",
		Priority:        PriorityHigh,
		MaxAttempts:     2,
		SuccessCriteria: "Search results page shows relevant questions",
		FallbackAction:  "Browse the tag listing instead",
	}
}

func TestTestingInstruction_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*TestingInstruction)
		wantErr error
	}{
		{"valid instruction", func(ti *TestingInstruction) {}, nil},
		{"empty task", func(ti *TestingInstruction) { ti.Task = "" }, ErrEmptyTask},
		{"whitespace task", func(ti *TestingInstruction) { ti.Task = "   " }, ErrEmptyTask},
		{"bad priority", func(ti *TestingInstruction) { ti.Priority = "critical" }, ErrInvalidPriority},
		{"zero max attempts", func(ti *TestingInstruction) { ti.MaxAttempts = 0 }, ErrInvalidMaxAttempts},
		{"negative max attempts", func(ti *TestingInstruction) { ti.MaxAttempts = -1 }, ErrInvalidMaxAttempts},
		{"empty success criteria", func(ti *TestingInstruction) { ti.SuccessCriteria = "" }, ErrEmptySuccessCriteria},
		{"empty fallback action", func(ti *TestingInstruction) { ti.FallbackAction = "" }, ErrEmptyFallbackAction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ti := validInstruction()
			tt.mutate(&ti)
			err := ti.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
