package rest

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/industrialdt/aashub/internal/aas"
)

// componentKind is the closed set of health component types.
type componentKind string

const (
	componentDatabase componentKind = "database"
	componentStorage  componentKind = "storage"
	componentCache    componentKind = "cache"
)

type healthComponent struct {
	Status string        `json:"status"`
	Type   componentKind `json:"type,omitempty"`
	Error  string        `json:"error,omitempty"`
}

type healthResponse struct {
	Status     string                     `json:"status"`
	Components map[string]healthComponent `json:"components"`
	Timestamp  time.Time                  `json:"timestamp"`
}

type activityResponse struct {
	Activities []aas.Activity `json:"activities"`
	Count      int64          `json:"count"`
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.stats.Snapshot(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (h *Handler) handleActivity(w http.ResponseWriter, r *http.Request) {
	limit := defaultActivityLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeValidationError(w, "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	if limit > maxActivityLimit {
		limit = maxActivityLimit
	}

	activities, total, err := h.store.ListActivities(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, activityResponse{
		Activities: activities,
		Count:      total,
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	components := map[string]healthComponent{
		"database": h.checkDatabase(r),
		"storage":  h.checkBlobStorage(r),
		"cache":    {Status: "ok", Type: componentCache},
	}

	status := "ok"
	httpStatus := http.StatusOK
	for _, component := range components {
		if component.Status != "ok" {
			status = "degraded"
			httpStatus = http.StatusServiceUnavailable
			break
		}
	}

	writeJSON(w, httpStatus, healthResponse{
		Status:     status,
		Components: components,
		Timestamp:  time.Now().UTC(),
	})
}

func (h *Handler) checkDatabase(r *http.Request) healthComponent {
	component := healthComponent{Status: "ok", Type: componentDatabase}
	if err := h.store.Ping(r.Context()); err != nil {
		component.Status = "error"
		component.Error = err.Error()
	}
	return component
}

// checkBlobStorage verifies the package blob path is readable. Blobs
// share the database file, but the check is kept distinct so moving them
// to object storage later keeps the health wire shape.
func (h *Handler) checkBlobStorage(r *http.Request) healthComponent {
	component := healthComponent{Status: "ok", Type: componentStorage}
	if _, err := h.store.ListPackages(r.Context(), 1, ""); err != nil {
		component.Status = "error"
		component.Error = fmt.Sprintf("list packages: %v", err)
	}
	return component
}
