package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/hairizuan-noorazman/e2erun/descriptor"
	"github.com/hairizuan-noorazman/e2erun/logger"
	"github.com/hairizuan-noorazman/e2erun/storage"
	"github.com/hairizuan-noorazman/e2erun/testrun"
	"github.com/hairizuan-noorazman/e2erun/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDescriptor = "remoteEndpoint: http://localhost:4444/wd/hub\n" +
	"specPaths: []\n" +
	"capabilities:\n  browserName: firefox\n" +
	"frameworkName: mocha\n" +
	"frameworkOptions:\n  reporter: spec\n  slow: 3000.0\n"

type server struct {
	handler        http.Handler
	runs           testrun.Store
	artifacts      testrun.ArtifactStore
	blobs          storage.BlobStorage
	descriptorPath string
}

func setupServer(t *testing.T) *server {
	t.Helper()

	db := testutil.SetupTestDB(t)
	testutil.AutoMigrate(t, db, &testrun.TestRun{}, &testrun.Artifact{})
	log := logger.NewTestLogger()

	blobs, err := storage.NewLocalStorage(filepath.Join(t.TempDir(), "artifacts"))
	require.NoError(t, err)

	s := &server{
		runs:           testrun.NewSQLStore(db, log),
		artifacts:      testrun.NewSQLArtifactStore(db, log),
		blobs:          blobs,
		descriptorPath: testutil.WriteFile(t, t.TempDir(), "e2e.yaml", testDescriptor),
	}
	d, err := descriptor.LoadFile(s.descriptorPath)
	require.NoError(t, err)

	s.handler = NewRouter(
		NewRunHandler(s.runs, s.artifacts, s.blobs, log),
		NewDescriptorHandler(s.descriptorPath, d, log),
	)
	return s
}

func (s *server) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func (s *server) createRun(t *testing.T, framework string) *testrun.TestRun {
	t.Helper()
	tr := &testrun.TestRun{Framework: framework, SpecCount: 1}
	require.NoError(t, s.runs.Create(context.Background(), tr))
	return tr
}

func TestHealthHandler(t *testing.T) {
	s := setupServer(t)

	w := s.get(t, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
}

func TestRunHandler_List(t *testing.T) {
	s := setupServer(t)
	for i := 0; i < 3; i++ {
		s.createRun(t, "mocha")
	}

	tests := []struct {
		name       string
		query      string
		wantItems  int
		wantLimit  int
		wantOffset int
	}{
		{name: "defaults", query: "", wantItems: 3, wantLimit: defaultLimit},
		{name: "limit", query: "?limit=2", wantItems: 2, wantLimit: 2},
		{name: "offset", query: "?limit=2&offset=2", wantItems: 1, wantLimit: 2, wantOffset: 2},
		{name: "invalid limit falls back", query: "?limit=abc", wantItems: 3, wantLimit: defaultLimit},
		{name: "limit above max falls back", query: "?limit=1000", wantItems: 3, wantLimit: defaultLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.get(t, "/api/v1/runs"+tt.query)
			require.Equal(t, http.StatusOK, w.Code)

			var resp struct {
				Items  []testrun.TestRun `json:"items"`
				Total  int               `json:"total"`
				Limit  int               `json:"limit"`
				Offset int               `json:"offset"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Len(t, resp.Items, tt.wantItems)
			assert.Equal(t, 3, resp.Total)
			assert.Equal(t, tt.wantLimit, resp.Limit)
			assert.Equal(t, tt.wantOffset, resp.Offset)
		})
	}
}

func TestRunHandler_GetByID(t *testing.T) {
	s := setupServer(t)
	tr := s.createRun(t, "jasmine")

	t.Run("found", func(t *testing.T) {
		w := s.get(t, "/api/v1/runs/"+tr.ID.String())
		require.Equal(t, http.StatusOK, w.Code)

		var got testrun.TestRun
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, tr.ID, got.ID)
		assert.Equal(t, "jasmine", got.Framework)
		assert.Equal(t, testrun.StatusPending, got.Status)
	})

	t.Run("not found", func(t *testing.T) {
		w := s.get(t, "/api/v1/runs/"+uuid.NewString())
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		w := s.get(t, "/api/v1/runs/not-a-uuid")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "must be a valid UUID")
	})
}

func TestRunHandler_Artifacts(t *testing.T) {
	s := setupServer(t)
	ctx := context.Background()
	tr := s.createRun(t, "mocha")

	content := []byte("1 passing\n")
	key := storage.ArtifactKey(tr.ID.String(), "output.log")
	require.NoError(t, s.blobs.Upload(ctx, key, bytes.NewReader(content)))
	artifact := &testrun.Artifact{
		TestRunID: tr.ID,
		Kind:      testrun.ArtifactKindLog,
		Path:      key,
		FileName:  "output.log",
		FileSize:  int64(len(content)),
		MimeType:  "text/plain",
	}
	require.NoError(t, s.artifacts.Create(ctx, artifact))

	t.Run("list", func(t *testing.T) {
		w := s.get(t, "/api/v1/runs/"+tr.ID.String()+"/artifacts")
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Items []testrun.Artifact `json:"items"`
			Total int                `json:"total"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Items, 1)
		assert.Equal(t, artifact.ID, resp.Items[0].ID)
		assert.Equal(t, 1, resp.Total)
	})

	t.Run("list for unknown run", func(t *testing.T) {
		w := s.get(t, "/api/v1/runs/"+uuid.NewString()+"/artifacts")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("download", func(t *testing.T) {
		w := s.get(t, "/api/v1/artifacts/"+artifact.ID.String()+"/content")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/plain", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), `filename="output.log"`)
		assert.Equal(t, content, w.Body.Bytes())
	})

	t.Run("download unknown artifact", func(t *testing.T) {
		w := s.get(t, "/api/v1/artifacts/"+uuid.NewString()+"/content")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestDescriptorHandler_Get(t *testing.T) {
	s := setupServer(t)

	type descriptorBody struct {
		Path       string                 `json:"path"`
		Descriptor map[string]interface{} `json:"descriptor"`
		Warnings   []string               `json:"warnings"`
	}

	w := s.get(t, "/api/v1/descriptor")
	require.Equal(t, http.StatusOK, w.Code)

	var resp descriptorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, s.descriptorPath, resp.Path)
	assert.Equal(t, "mocha", resp.Descriptor["frameworkName"])
	assert.Equal(t, []interface{}{}, resp.Descriptor["specPaths"])
	assert.Equal(t, map[string]interface{}{"browserName": "firefox"}, resp.Descriptor["capabilities"])
	assert.Contains(t, w.Body.String(), `"slow":3000.0`)
	assert.Len(t, resp.Warnings, 1)

	t.Run("later edits on disk are not served", func(t *testing.T) {
		testutil.WriteFile(t, filepath.Dir(s.descriptorPath), filepath.Base(s.descriptorPath), "specPaths: a.spec.js\n")

		w := s.get(t, "/api/v1/descriptor")
		require.Equal(t, http.StatusOK, w.Code)

		var again descriptorBody
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &again))
		assert.Equal(t, resp, again)
	})
}
