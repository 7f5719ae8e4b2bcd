package testrun

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrArtifactNotFound is returned when an artifact is not found.
	ErrArtifactNotFound = errors.New("artifact not found")

	// ErrInvalidArtifactKind is returned when the artifact kind is invalid.
	ErrInvalidArtifactKind = errors.New("invalid artifact kind")

	// ErrInvalidTestRunID is returned when test_run_id is not set.
	ErrInvalidTestRunID = errors.New("test_run_id is required")

	// ErrInvalidArtifactPath is returned when path is empty.
	ErrInvalidArtifactPath = errors.New("path is required")

	// ErrInvalidFileName is returned when file_name is empty.
	ErrInvalidFileName = errors.New("file_name is required")
)

// ArtifactKind identifies what an artifact holds.
type ArtifactKind string

const (
	// ArtifactKindLog is the combined stdout/stderr of the runner process.
	ArtifactKindLog ArtifactKind = "log"

	// ArtifactKindConfig is the rendered runner configuration file.
	ArtifactKindConfig ArtifactKind = "config"
)

// IsValid checks if the artifact kind is valid.
func (k ArtifactKind) IsValid() bool {
	switch k {
	case ArtifactKindLog, ArtifactKindConfig:
		return true
	default:
		return false
	}
}

// Artifact is a file produced by a test run and kept in blob storage.
type Artifact struct {
	ID         uuid.UUID    `json:"id" gorm:"type:char(36);primaryKey"`
	TestRunID  uuid.UUID    `json:"test_run_id" gorm:"type:char(36);not null;index:idx_artifact_test_run_id"`
	Kind       ArtifactKind `json:"kind" gorm:"type:varchar(20);not null"`
	Path       string       `json:"path" gorm:"type:varchar(512);not null"`
	FileName   string       `json:"file_name" gorm:"type:varchar(255);not null"`
	FileSize   int64        `json:"file_size" gorm:"not null"`
	MimeType   string       `json:"mime_type,omitempty" gorm:"type:varchar(128)"`
	UploadedAt time.Time    `json:"uploaded_at"`
}

// BeforeCreate hook to generate UUID before creating a new artifact
func (a *Artifact) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.UploadedAt.IsZero() {
		a.UploadedAt = time.Now()
	}
	return nil
}

// Validate checks if the artifact has valid required fields.
func (a *Artifact) Validate() error {
	if a.TestRunID == uuid.Nil {
		return ErrInvalidTestRunID
	}
	if !a.Kind.IsValid() {
		return ErrInvalidArtifactKind
	}
	if a.Path == "" {
		return ErrInvalidArtifactPath
	}
	if a.FileName == "" {
		return ErrInvalidFileName
	}
	return nil
}
