package testrun

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_IsValid(t *testing.T) {
	tests := []struct {
		name   string
		status Status
		want   bool
	}{
		{"pending is valid", StatusPending, true},
		{"running is valid", StatusRunning, true},
		{"passed is valid", StatusPassed, true},
		{"failed is valid", StatusFailed, true},
		{"skipped is valid", StatusSkipped, true},
		{"invalid status", Status("invalid"), false},
		{"empty status", Status(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.IsValid())
		})
	}
}

func TestStatus_IsFinal(t *testing.T) {
	tests := []struct {
		name   string
		status Status
		want   bool
	}{
		{"passed is final", StatusPassed, true},
		{"failed is final", StatusFailed, true},
		{"skipped is final", StatusSkipped, true},
		{"pending is not final", StatusPending, false},
		{"running is not final", StatusRunning, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.IsFinal())
		})
	}
}

func TestTestRun_Validate(t *testing.T) {
	tests := []struct {
		name    string
		testRun TestRun
		wantErr error
	}{
		{
			name:    "valid test run",
			testRun: TestRun{Framework: "mocha", SpecCount: 1, Status: StatusPending},
		},
		{
			name:    "missing framework",
			testRun: TestRun{SpecCount: 1, Status: StatusPending},
			wantErr: ErrInvalidFramework,
		},
		{
			name:    "negative spec count",
			testRun: TestRun{Framework: "mocha", SpecCount: -1, Status: StatusPending},
			wantErr: ErrInvalidSpecCount,
		},
		{
			name:    "invalid status",
			testRun: TestRun{Framework: "mocha", Status: Status("bogus")},
			wantErr: ErrInvalidStatus,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.testRun.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestTestRun_Lifecycle(t *testing.T) {
	t.Run("start then complete", func(t *testing.T) {
		tr := createTestRun("mocha", 1, StatusPending)
		require.NoError(t, tr.Start())
		assert.Equal(t, StatusRunning, tr.Status)
		assert.NotNil(t, tr.StartedAt)

		assert.ErrorIs(t, tr.Start(), ErrTestRunAlreadyStarted)

		require.NoError(t, tr.Complete(StatusPassed, "all green"))
		assert.Equal(t, StatusPassed, tr.Status)
		assert.Equal(t, "all green", tr.Notes)
		assert.NotNil(t, tr.CompletedAt)
		assert.GreaterOrEqual(t, tr.Duration(), time.Duration(0))
	})

	t.Run("complete requires running", func(t *testing.T) {
		tr := createTestRun("mocha", 1, StatusPending)
		assert.ErrorIs(t, tr.Complete(StatusPassed, ""), ErrTestRunNotRunning)
	})

	t.Run("complete rejects non terminal status", func(t *testing.T) {
		tr := createTestRun("mocha", 1, StatusPending)
		require.NoError(t, tr.Start())
		assert.ErrorIs(t, tr.Complete(StatusPending, ""), ErrInvalidStatus)
		assert.ErrorIs(t, tr.Complete(StatusSkipped, ""), ErrInvalidStatus)
	})

	t.Run("skip pending run", func(t *testing.T) {
		tr := createTestRun("mocha", 0, StatusPending)
		require.NoError(t, tr.Skip("no specs"))
		assert.Equal(t, StatusSkipped, tr.Status)
		assert.Equal(t, "no specs", tr.Notes)
		assert.Equal(t, time.Duration(0), tr.Duration())

		assert.ErrorIs(t, tr.Start(), ErrTestRunAlreadyStarted)
		assert.ErrorIs(t, tr.Skip(""), ErrTestRunNotPending)
	})
}

func TestArtifact_Validate(t *testing.T) {
	runID := uuid.New()
	tests := []struct {
		name     string
		artifact Artifact
		wantErr  error
	}{
		{
			name:     "valid artifact",
			artifact: Artifact{TestRunID: runID, Kind: ArtifactKindLog, Path: "runs/x/output.log", FileName: "output.log"},
		},
		{
			name:     "missing run id",
			artifact: Artifact{Kind: ArtifactKindLog, Path: "p", FileName: "f"},
			wantErr:  ErrInvalidTestRunID,
		},
		{
			name:     "invalid kind",
			artifact: Artifact{TestRunID: runID, Kind: "video", Path: "p", FileName: "f"},
			wantErr:  ErrInvalidArtifactKind,
		},
		{
			name:     "missing path",
			artifact: Artifact{TestRunID: runID, Kind: ArtifactKindConfig, FileName: "f"},
			wantErr:  ErrInvalidArtifactPath,
		},
		{
			name:     "missing file name",
			artifact: Artifact{TestRunID: runID, Kind: ArtifactKindConfig, Path: "p"},
			wantErr:  ErrInvalidFileName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.artifact.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
