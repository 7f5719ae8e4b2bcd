package testrun

import (
	"context"

	"github.com/google/uuid"
)

// Store defines the interface for test run persistence operations.
type Store interface {
	// Create creates a new test run in the store.
	Create(ctx context.Context, testRun *TestRun) error

	// GetByID retrieves a test run by its ID.
	GetByID(ctx context.Context, id uuid.UUID) (*TestRun, error)

	// Update updates a test run with the given setters.
	Update(ctx context.Context, id uuid.UUID, setters ...UpdateSetter) error

	// List retrieves a paginated list of test runs, newest first.
	List(ctx context.Context, limit, offset int) ([]*TestRun, error)

	// Count returns the total number of test runs.
	Count(ctx context.Context) (int64, error)

	// Start marks a test run as started (sets started_at, changes status to running).
	Start(ctx context.Context, id uuid.UUID) error

	// Complete marks a running test run as passed or failed.
	Complete(ctx context.Context, id uuid.UUID, status Status, notes string) error

	// Skip marks a pending test run as skipped.
	Skip(ctx context.Context, id uuid.UUID, notes string) error
}

// UpdateSetter is a function that updates a test run field.
type UpdateSetter func(*TestRun) error
