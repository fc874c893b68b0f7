// Package models contains the shared data model for critiq sessions:
// testing instructions, navigation attempt results, and verification
// verdicts exchanged between the navigator, verifier, and orchestrator.
package models

import (
	"errors"
	"fmt"
	"strings"
)

// Priority represents the importance of a testing instruction.
type Priority string

const (
	// PriorityLow marks nice-to-have tasks.
	PriorityLow Priority = "low"
	// PriorityMedium marks standard tasks.
	PriorityMedium Priority = "medium"
	// PriorityHigh marks tasks that must succeed for a satisfactory session.
	PriorityHigh Priority = "high"
)

// Valid returns true if the priority is a known value.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// Common validation errors for testing instructions.
var (
	// ErrEmptyTask indicates an instruction with no task text.
	ErrEmptyTask = errors.New("testing instruction task must not be empty")
	// ErrInvalidPriority indicates an unknown priority value.
	ErrInvalidPriority = errors.New("priority must be low, medium, or high")
	// ErrInvalidMaxAttempts indicates a non-positive retry budget.
	ErrInvalidMaxAttempts = errors.New("max_attempts must be a positive integer")
	// ErrEmptySuccessCriteria indicates an instruction with no success criteria.
	ErrEmptySuccessCriteria = errors.New("success_criteria must not be empty")
	// ErrEmptyFallbackAction indicates an instruction with no fallback action.
	ErrEmptyFallbackAction = errors.New("fallback_action must not be empty")
)

// TestingInstruction is one discrete task the simulated persona should
// accomplish during navigation. Instructions are created from session
// configuration at startup and never mutated afterwards.
type TestingInstruction struct {
	// Task describes what the persona should do.
	Task string `yaml:"task" json:"task"`
	// Priority is the importance of this task.
	Priority Priority `yaml:"priority" json:"priority"`
	// MaxAttempts is the per-task retry budget.
	MaxAttempts int `yaml:"max_attempts" json:"max_attempts"`
	// SuccessCriteria describes how completion is judged.
	SuccessCriteria string `yaml:"success_criteria" json:"success_criteria"`
	// FallbackAction is executed when the task cannot succeed within budget.
	FallbackAction string `yaml:"fallback_action" json:"fallback_action"`
}

// Validate checks that all required fields are present and well-formed.
func (ti TestingInstruction) Validate() error {
	if strings.TrimSpace(ti.Task) == "" {
		return ErrEmptyTask
	}
	if !ti.Priority.Valid() {
		return fmt.Errorf("%w: got %q", ErrInvalidPriority, ti.Priority)
	}
	if ti.MaxAttempts < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidMaxAttempts, ti.MaxAttempts)
	}
	if strings.TrimSpace(ti.SuccessCriteria) == "" {
		return ErrEmptySuccessCriteria
	}
	if strings.TrimSpace(ti.FallbackAction) == "" {
		return ErrEmptyFallbackAction
	}
	return nil
}
