package testrun

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/hairizuan-noorazman/e2erun/logger"
	"gorm.io/gorm"
)

// SQLArtifactStore implements the ArtifactStore interface using GORM.
type SQLArtifactStore struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewSQLArtifactStore creates a new GORM-backed artifact store.
func NewSQLArtifactStore(db *gorm.DB, log logger.Logger) *SQLArtifactStore {
	return &SQLArtifactStore{
		db:     db,
		logger: log,
	}
}

// Create creates a new artifact in the database.
func (s *SQLArtifactStore) Create(ctx context.Context, artifact *Artifact) error {
	if err := artifact.Validate(); err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Create(artifact).Error; err != nil {
		s.logger.Error(ctx, "failed to create artifact", map[string]interface{}{
			"error":       err.Error(),
			"test_run_id": artifact.TestRunID,
			"file_name":   artifact.FileName,
		})
		return err
	}

	s.logger.Info(ctx, "artifact created", map[string]interface{}{
		"artifact_id": artifact.ID,
		"test_run_id": artifact.TestRunID,
		"kind":        artifact.Kind,
	})

	return nil
}

// GetByID retrieves an artifact by its ID.
func (s *SQLArtifactStore) GetByID(ctx context.Context, id uuid.UUID) (*Artifact, error) {
	var artifact Artifact
	err := s.db.WithContext(ctx).
		Where("id = ?", id).
		First(&artifact).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrArtifactNotFound
		}
		s.logger.Error(ctx, "failed to get artifact by ID", map[string]interface{}{
			"error":       err.Error(),
			"artifact_id": id,
		})
		return nil, err
	}

	return &artifact, nil
}

// ListByTestRun retrieves all artifacts for a specific test run.
func (s *SQLArtifactStore) ListByTestRun(ctx context.Context, testRunID uuid.UUID) ([]*Artifact, error) {
	var artifacts []*Artifact
	err := s.db.WithContext(ctx).
		Where("test_run_id = ?", testRunID).
		Order("uploaded_at ASC").
		Find(&artifacts).Error

	if err != nil {
		s.logger.Error(ctx, "failed to list artifacts by test run", map[string]interface{}{
			"error":       err.Error(),
			"test_run_id": testRunID,
		})
		return nil, err
	}

	return artifacts, nil
}
