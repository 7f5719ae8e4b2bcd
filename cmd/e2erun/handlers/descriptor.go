package handlers

import (
	"net/http"

	"github.com/hairizuan-noorazman/e2erun/descriptor"
	"github.com/hairizuan-noorazman/e2erun/logger"
)

// DescriptorResponse is the descriptor the server was started with.
type DescriptorResponse struct {
	Path       string                 `json:"path"`
	Descriptor *descriptor.Descriptor `json:"descriptor"`
	Warnings   []string               `json:"warnings"`
}

// DescriptorHandler serves the descriptor loaded at startup.
type DescriptorHandler struct {
	path       string
	descriptor *descriptor.Descriptor
	logger     logger.Logger
}

// NewDescriptorHandler creates a new descriptor handler for d, loaded from
// path.
func NewDescriptorHandler(path string, d *descriptor.Descriptor, log logger.Logger) *DescriptorHandler {
	return &DescriptorHandler{
		path:       path,
		descriptor: d,
		logger:     log,
	}
}

// Get returns the descriptor with its load warnings.
func (h *DescriptorHandler) Get(w http.ResponseWriter, r *http.Request) {
	warnings := h.descriptor.Warnings()
	if warnings == nil {
		warnings = []string{}
	}
	respondJSON(w, http.StatusOK, DescriptorResponse{
		Path:       h.path,
		Descriptor: h.descriptor,
		Warnings:   warnings,
	})
}
