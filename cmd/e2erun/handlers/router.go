package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter wires the API routes.
func NewRouter(runs *RunHandler, desc *DescriptorHandler) http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/health", HealthHandler).Methods("GET")

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/descriptor", desc.Get).Methods("GET")
	api.HandleFunc("/runs", runs.List).Methods("GET")
	api.HandleFunc("/runs/{id}", runs.GetByID).Methods("GET")
	api.HandleFunc("/runs/{id}/artifacts", runs.ListArtifacts).Methods("GET")
	api.HandleFunc("/artifacts/{id}/content", runs.DownloadArtifact).Methods("GET")

	return router
}
