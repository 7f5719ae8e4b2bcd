package testrun

import (
	"testing"

	"github.com/hairizuan-noorazman/e2erun/logger"
	"github.com/hairizuan-noorazman/e2erun/testutil"
	"gorm.io/gorm"
)

// setupTestStore creates a test database with the test run and artifact stores.
func setupTestStore(t *testing.T) (*gorm.DB, Store, ArtifactStore) {
	db := testutil.SetupTestDB(t)
	testutil.AutoMigrate(t, db, &TestRun{}, &Artifact{})

	log := logger.NewTestLogger()
	return db, NewSQLStore(db, log), NewSQLArtifactStore(db, log)
}

// createTestRun creates a test run with default values.
func createTestRun(framework string, specCount int, status Status) *TestRun {
	return &TestRun{
		DescriptorPath: "e2e.yaml",
		Framework:      framework,
		RemoteEndpoint: "http://localhost:4444/wd/hub",
		SpecCount:      specCount,
		Status:         status,
	}
}
