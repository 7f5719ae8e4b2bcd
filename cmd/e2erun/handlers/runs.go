package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/hairizuan-noorazman/e2erun/logger"
	"github.com/hairizuan-noorazman/e2erun/storage"
	"github.com/hairizuan-noorazman/e2erun/testrun"
)

// RunHandler serves the run history.
type RunHandler struct {
	runStore      testrun.Store
	artifactStore testrun.ArtifactStore
	storage       storage.BlobStorage
	logger        logger.Logger
}

// NewRunHandler creates a new run handler. blobs may be nil when artifact
// storage is disabled.
func NewRunHandler(runStore testrun.Store, artifactStore testrun.ArtifactStore, blobs storage.BlobStorage, log logger.Logger) *RunHandler {
	return &RunHandler{
		runStore:      runStore,
		artifactStore: artifactStore,
		storage:       blobs,
		logger:        log,
	}
}

// List handles listing runs, newest first.
func (h *RunHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	runs, err := h.runStore.List(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error(r.Context(), "failed to list test runs", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "failed to list test runs")
		return
	}

	total, err := h.runStore.Count(r.Context())
	if err != nil {
		h.logger.Error(r.Context(), "failed to count test runs", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "failed to count test runs")
		return
	}

	respondJSON(w, http.StatusOK, NewPaginatedResponse(runs, int(total), limit, offset))
}

// GetByID handles retrieving a single run.
func (h *RunHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDOrRespond(w, r, "id", "test run")
	if !ok {
		return
	}

	tr, err := h.runStore.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, testrun.ErrTestRunNotFound) {
			respondError(w, http.StatusNotFound, "test run not found")
			return
		}
		h.logger.Error(r.Context(), "failed to get test run", map[string]interface{}{
			"error":       err.Error(),
			"test_run_id": id,
		})
		respondError(w, http.StatusInternalServerError, "failed to get test run")
		return
	}

	respondJSON(w, http.StatusOK, tr)
}

// ListArtifacts handles listing the artifacts of a run.
func (h *RunHandler) ListArtifacts(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDOrRespond(w, r, "id", "test run")
	if !ok {
		return
	}

	if _, err := h.runStore.GetByID(r.Context(), id); err != nil {
		if errors.Is(err, testrun.ErrTestRunNotFound) {
			respondError(w, http.StatusNotFound, "test run not found")
			return
		}
		h.logger.Error(r.Context(), "failed to get test run", map[string]interface{}{
			"error":       err.Error(),
			"test_run_id": id,
		})
		respondError(w, http.StatusInternalServerError, "failed to get test run")
		return
	}

	artifacts, err := h.artifactStore.ListByTestRun(r.Context(), id)
	if err != nil {
		h.logger.Error(r.Context(), "failed to list artifacts", map[string]interface{}{
			"error":       err.Error(),
			"test_run_id": id,
		})
		respondError(w, http.StatusInternalServerError, "failed to list artifacts")
		return
	}

	respondJSON(w, http.StatusOK, NewPaginatedResponse(artifacts, len(artifacts), len(artifacts), 0))
}

// DownloadArtifact handles streaming an artifact's content.
func (h *RunHandler) DownloadArtifact(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDOrRespond(w, r, "id", "artifact")
	if !ok {
		return
	}

	if h.storage == nil {
		respondError(w, http.StatusNotFound, "artifact storage is disabled")
		return
	}

	artifact, err := h.artifactStore.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, testrun.ErrArtifactNotFound) {
			respondError(w, http.StatusNotFound, "artifact not found")
			return
		}
		h.logger.Error(r.Context(), "failed to get artifact", map[string]interface{}{
			"error":       err.Error(),
			"artifact_id": id,
		})
		respondError(w, http.StatusInternalServerError, "failed to get artifact")
		return
	}

	reader, err := h.storage.Download(r.Context(), artifact.Path)
	if err != nil {
		if errors.Is(err, storage.ErrFileNotFound) {
			respondError(w, http.StatusNotFound, "file not found in storage")
			return
		}
		h.logger.Error(r.Context(), "failed to download from storage", map[string]interface{}{
			"error": err.Error(),
			"path":  artifact.Path,
		})
		respondError(w, http.StatusInternalServerError, "failed to download file")
		return
	}
	defer reader.Close()

	mimeType := artifact.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.FileName))
	w.Header().Set("Content-Length", strconv.FormatInt(artifact.FileSize, 10))

	if _, err := io.Copy(w, reader); err != nil {
		h.logger.Error(r.Context(), "failed to stream file", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
