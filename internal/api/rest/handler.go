// Package rest exposes the repository over HTTP: package upload and
// lifecycle, entity and descriptor listings, and the admin surface.
package rest

import (
	"context"
	"net/http"

	"github.com/industrialdt/aashub/internal/activity"
	"github.com/industrialdt/aashub/internal/stats"
	"github.com/industrialdt/aashub/internal/storage"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200

	defaultActivityLimit = 50
	maxActivityLimit     = 500

	// maxUploadBytes caps a multipart package upload.
	maxUploadBytes = 256 << 20
)

// Importer drives package imports and deletes. Implemented by the
// import coordinator.
type Importer interface {
	Import(ctx context.Context, packageID string) (storage.ImportResult, error)
	Delete(ctx context.Context, packageID string) (storage.DeleteResult, error)
}

// Handler serves the repository API.
type Handler struct {
	store    storage.Store
	importer Importer
	stats    *stats.Service
	recorder *activity.Recorder
	mux      *http.ServeMux
}

// NewHandler builds the route table over the given collaborators.
func NewHandler(store storage.Store, importer Importer, statsService *stats.Service, recorder *activity.Recorder) *Handler {
	h := &Handler{
		store:    store,
		importer: importer,
		stats:    statsService,
		recorder: recorder,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /packages", h.handleUploadPackage)
	mux.HandleFunc("GET /packages", h.handleListPackages)
	mux.HandleFunc("GET /packages/{packageId}", h.handleDownloadPackage)
	mux.HandleFunc("POST /packages/{packageId}/import", h.handleImportPackage)
	mux.HandleFunc("DELETE /packages/{packageId}", h.handleDeletePackage)

	mux.HandleFunc("GET /shells", h.handleListShells)
	mux.HandleFunc("GET /shells/{id}", h.handleGetShell)
	mux.HandleFunc("GET /submodels", h.handleListSubmodels)
	mux.HandleFunc("GET /submodels/{id}", h.handleGetSubmodel)
	mux.HandleFunc("GET /concept-descriptions", h.handleListConcepts)
	mux.HandleFunc("GET /concept-descriptions/{id}", h.handleGetConcept)
	mux.HandleFunc("GET /shell-descriptors", h.handleListShellDescriptors)
	mux.HandleFunc("GET /submodel-descriptors", h.handleListSubmodelDescriptors)

	mux.HandleFunc("GET /admin/stats", h.handleStats)
	mux.HandleFunc("GET /admin/activity", h.handleActivity)
	mux.HandleFunc("GET /admin/health", h.handleHealth)

	h.mux = mux
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}
