package testrun

import (
	"context"

	"github.com/google/uuid"
)

// ArtifactStore defines the interface for artifact persistence operations.
type ArtifactStore interface {
	// Create creates a new artifact in the store.
	Create(ctx context.Context, artifact *Artifact) error

	// GetByID retrieves an artifact by its ID.
	GetByID(ctx context.Context, id uuid.UUID) (*Artifact, error)

	// ListByTestRun retrieves all artifacts for a specific test run.
	ListByTestRun(ctx context.Context, testRunID uuid.UUID) ([]*Artifact, error)
}
