package testrun

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/hairizuan-noorazman/e2erun/logger"
	"gorm.io/gorm"
)

// SQLStore implements the Store interface using GORM. It works against any
// dialect opened by the database package.
type SQLStore struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewSQLStore creates a new GORM-backed test run store.
func NewSQLStore(db *gorm.DB, log logger.Logger) *SQLStore {
	return &SQLStore{
		db:     db,
		logger: log,
	}
}

// Create creates a new test run in the database.
func (s *SQLStore) Create(ctx context.Context, testRun *TestRun) error {
	if testRun.Status == "" {
		testRun.Status = StatusPending
	}

	if err := testRun.Validate(); err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Create(testRun).Error; err != nil {
		s.logger.Error(ctx, "failed to create test run", map[string]interface{}{
			"error":     err.Error(),
			"framework": testRun.Framework,
		})
		return err
	}

	s.logger.Debug(ctx, "test run created", map[string]interface{}{
		"test_run_id": testRun.ID,
		"framework":   testRun.Framework,
		"spec_count":  testRun.SpecCount,
	})

	return nil
}

// GetByID retrieves a test run by its ID.
func (s *SQLStore) GetByID(ctx context.Context, id uuid.UUID) (*TestRun, error) {
	var testRun TestRun
	err := s.db.WithContext(ctx).
		Where("id = ?", id).
		First(&testRun).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTestRunNotFound
		}
		s.logger.Error(ctx, "failed to get test run by ID", map[string]interface{}{
			"error":       err.Error(),
			"test_run_id": id,
		})
		return nil, err
	}

	return &testRun, nil
}

// Update updates a test run with the given setters.
func (s *SQLStore) Update(ctx context.Context, id uuid.UUID, setters ...UpdateSetter) error {
	testRun, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	for _, setter := range setters {
		if err := setter(testRun); err != nil {
			return err
		}
	}

	return s.save(ctx, testRun, "test run updated")
}

// List retrieves a paginated list of test runs, newest first.
func (s *SQLStore) List(ctx context.Context, limit, offset int) ([]*TestRun, error) {
	var testRuns []*TestRun
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&testRuns).Error

	if err != nil {
		s.logger.Error(ctx, "failed to list test runs", map[string]interface{}{
			"error":  err.Error(),
			"limit":  limit,
			"offset": offset,
		})
		return nil, err
	}

	return testRuns, nil
}

// Count returns the total number of test runs.
func (s *SQLStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&TestRun{}).Count(&count).Error; err != nil {
		s.logger.Error(ctx, "failed to count test runs", map[string]interface{}{
			"error": err.Error(),
		})
		return 0, err
	}
	return count, nil
}

// Start marks a test run as started (sets started_at, changes status to running).
func (s *SQLStore) Start(ctx context.Context, id uuid.UUID) error {
	testRun, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := testRun.Start(); err != nil {
		return err
	}

	return s.save(ctx, testRun, "test run started")
}

// Complete marks a running test run as passed or failed.
func (s *SQLStore) Complete(ctx context.Context, id uuid.UUID, status Status, notes string) error {
	testRun, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := testRun.Complete(status, notes); err != nil {
		return err
	}

	return s.save(ctx, testRun, "test run completed")
}

// Skip marks a pending test run as skipped.
func (s *SQLStore) Skip(ctx context.Context, id uuid.UUID, notes string) error {
	testRun, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := testRun.Skip(notes); err != nil {
		return err
	}

	return s.save(ctx, testRun, "test run skipped")
}

func (s *SQLStore) save(ctx context.Context, testRun *TestRun, msg string) error {
	if err := s.db.WithContext(ctx).Save(testRun).Error; err != nil {
		s.logger.Error(ctx, "failed to save test run", map[string]interface{}{
			"error":       err.Error(),
			"test_run_id": testRun.ID,
		})
		return err
	}

	s.logger.Info(ctx, msg, map[string]interface{}{
		"test_run_id": testRun.ID,
		"status":      testRun.Status,
	})

	return nil
}
