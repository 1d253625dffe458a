package rest

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/industrialdt/aashub/internal/aas"
	"github.com/industrialdt/aashub/internal/platform/id"
	"github.com/industrialdt/aashub/internal/storage"
)

// importSummary is the response of a successful import call.
type importSummary struct {
	PackageID string `json:"packageId"`
	Created   int    `json:"created"`
	Updated   int    `json:"updated"`
	Status    string `json:"status"`
}

func (h *Handler) handleUploadPackage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeValidationError(w, "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header)
	if filename == "" {
		writeValidationError(w, "uploaded file needs a filename")
		return
	}

	blob, err := io.ReadAll(file)
	if err != nil {
		writeValidationError(w, fmt.Sprintf("read upload: %v", err))
		return
	}
	if len(blob) == 0 {
		writeValidationError(w, "uploaded file is empty")
		return
	}

	packageID, err := id.NewID()
	if err != nil {
		writeError(w, fmt.Errorf("mint package id: %w", err))
		return
	}

	record := storage.PackageRecord{
		ID:        packageID,
		Filename:  filename,
		SizeBytes: int64(len(blob)),
		Status:    aas.PackageUploaded,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.store.PutPackage(r.Context(), record, blob); err != nil {
		writeError(w, err)
		return
	}
	h.recorder.PackageUploaded(r.Context(), packageID, filename)
	h.stats.Invalidate()

	writeJSON(w, http.StatusCreated, record.Package())
}

func (h *Handler) handleListPackages(w http.ResponseWriter, r *http.Request) {
	limit, err := pageLimit(r)
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}

	page, err := h.store.ListPackages(r.Context(), limit, r.URL.Query().Get("cursor"))
	if err != nil {
		writeError(w, err)
		return
	}

	packages := make([]aas.Package, 0, len(page.Packages))
	for _, record := range page.Packages {
		packages = append(packages, record.Package())
	}
	writeJSON(w, http.StatusOK, pagedResponse{
		Result:         packages,
		PagingMetadata: pagingMetadata{Cursor: page.NextPageToken},
	})
}

func (h *Handler) handleDownloadPackage(w http.ResponseWriter, r *http.Request) {
	packageID := r.PathValue("packageId")
	record, err := h.store.GetPackage(r.Context(), packageID)
	if err != nil {
		writeError(w, err)
		return
	}
	blob, err := h.store.GetPackageBlob(r.Context(), packageID)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", record.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(blob)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(blob); err != nil {
		// The response is already committed; nothing to surface.
		return
	}
}

func (h *Handler) handleImportPackage(w http.ResponseWriter, r *http.Request) {
	packageID := r.PathValue("packageId")
	result, err := h.importer.Import(r.Context(), packageID)
	if err != nil {
		writeError(w, err)
		return
	}
	h.stats.Invalidate()

	writeJSON(w, http.StatusOK, importSummary{
		PackageID: packageID,
		Created:   result.Created(),
		Updated:   result.Updated(),
		Status:    string(aas.PackageImported),
	})
}

func (h *Handler) handleDeletePackage(w http.ResponseWriter, r *http.Request) {
	packageID := r.PathValue("packageId")
	if _, err := h.importer.Delete(r.Context(), packageID); err != nil {
		writeError(w, err)
		return
	}
	h.stats.Invalidate()
	w.WriteHeader(http.StatusNoContent)
}

// pageLimit reads the limit query parameter, bounded to [1, maxPageSize].
func pageLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultPageSize, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, fmt.Errorf("limit must be a positive integer")
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return limit, nil
}

// sanitizeFilename strips any path components from the client-supplied
// filename.
func sanitizeFilename(header *multipart.FileHeader) string {
	if header == nil {
		return ""
	}
	name := filepath.Base(strings.TrimSpace(header.Filename))
	if name == "." || name == string(filepath.Separator) {
		return ""
	}
	return name
}
