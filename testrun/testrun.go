// Package testrun records every invocation of the external runner: which
// descriptor was used, how it ended, and the artifacts it produced.
package testrun

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrTestRunNotFound is returned when a test run is not found.
	ErrTestRunNotFound = errors.New("test run not found")

	// ErrInvalidFramework is returned when framework is not set.
	ErrInvalidFramework = errors.New("framework is required")

	// ErrInvalidSpecCount is returned when spec_count is negative.
	ErrInvalidSpecCount = errors.New("spec_count must not be negative")

	// ErrInvalidStatus is returned when status is invalid.
	ErrInvalidStatus = errors.New("invalid status")

	// ErrTestRunNotRunning is returned when trying to complete a test run that's not running.
	ErrTestRunNotRunning = errors.New("test run is not running")

	// ErrTestRunNotPending is returned when trying to skip a test run that has left pending.
	ErrTestRunNotPending = errors.New("test run is not pending")

	// ErrTestRunAlreadyStarted is returned when trying to start an already started test run.
	ErrTestRunAlreadyStarted = errors.New("test run already started")
)

// Status represents the status of a test run.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// IsValid checks if the status is valid.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusRunning, StatusPassed, StatusFailed, StatusSkipped:
		return true
	default:
		return false
	}
}

// IsFinal checks if the status is a final status (can't be changed).
func (s Status) IsFinal() bool {
	return s == StatusPassed || s == StatusFailed || s == StatusSkipped
}

// TestRun is one invocation of the external runner.
type TestRun struct {
	ID             uuid.UUID  `json:"id" gorm:"type:char(36);primaryKey"`
	DescriptorPath string     `json:"descriptor_path" gorm:"type:varchar(1024)"`
	Framework      string     `json:"framework" gorm:"type:varchar(64);not null;index:idx_framework"`
	RemoteEndpoint string     `json:"remote_endpoint,omitempty" gorm:"type:varchar(1024)"`
	SpecCount      int        `json:"spec_count" gorm:"not null;default:0"`
	Status         Status     `json:"status" gorm:"type:varchar(20);not null;default:'pending';index:idx_status"`
	ExitCode       *int       `json:"exit_code,omitempty"`
	Notes          string     `json:"notes" gorm:"type:text"`
	StartedAt      *time.Time `json:"started_at,omitempty" gorm:"index:idx_started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// BeforeCreate hook to generate UUID before creating a new test run
func (tr *TestRun) BeforeCreate(tx *gorm.DB) error {
	if tr.ID == uuid.Nil {
		tr.ID = uuid.New()
	}
	return nil
}

// Validate checks if the test run has valid required fields.
func (tr *TestRun) Validate() error {
	if tr.Framework == "" {
		return ErrInvalidFramework
	}
	if tr.SpecCount < 0 {
		return ErrInvalidSpecCount
	}
	if !tr.Status.IsValid() {
		return ErrInvalidStatus
	}
	return nil
}

// Duration returns how long the run took, or zero if it has not completed.
func (tr *TestRun) Duration() time.Duration {
	if tr.StartedAt == nil || tr.CompletedAt == nil {
		return 0
	}
	return tr.CompletedAt.Sub(*tr.StartedAt)
}

// Start sets the started_at timestamp and changes status to running.
// Returns an error if the test run has already been started.
func (tr *TestRun) Start() error {
	if tr.StartedAt != nil || tr.Status.IsFinal() {
		return ErrTestRunAlreadyStarted
	}
	now := time.Now()
	tr.StartedAt = &now
	tr.Status = StatusRunning
	return nil
}

// Complete sets the completed_at timestamp and final status.
// Returns an error if the test run is not currently running.
func (tr *TestRun) Complete(status Status, notes string) error {
	if tr.Status != StatusRunning {
		return ErrTestRunNotRunning
	}
	if status != StatusPassed && status != StatusFailed {
		return ErrInvalidStatus
	}
	now := time.Now()
	tr.CompletedAt = &now
	tr.Status = status
	if notes != "" {
		tr.Notes = notes
	}
	return nil
}

// Skip finishes a pending test run without running it.
func (tr *TestRun) Skip(notes string) error {
	if tr.Status != StatusPending {
		return ErrTestRunNotPending
	}
	now := time.Now()
	tr.CompletedAt = &now
	tr.Status = StatusSkipped
	if notes != "" {
		tr.Notes = notes
	}
	return nil
}
