// Package stats serves repository aggregates: the incrementally
// maintained counters, their full-recount verification, and per-day
// package activity.
package stats

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/industrialdt/aashub/internal/storage"
)

const (
	snapshotKey     = "stats-snapshot"
	snapshotTTL     = 5 * time.Second
	cleanupInterval = time.Minute
)

// Snapshot is the stats payload the admin surface serves.
type Snapshot struct {
	Shells              int64 `json:"shells"`
	Submodels           int64 `json:"submodels"`
	ConceptDescriptions int64 `json:"conceptDescriptions"`
	ShellDescriptors    int64 `json:"shellDescriptors"`
	SubmodelDescriptors int64 `json:"submodelDescriptors"`
	Packages            int64 `json:"packages"`
	BlobBytes           int64 `json:"blobBytes"`
	PackagesUploadedUTC int64 `json:"packagesUploadedToday"`
	PackagesImportedUTC int64 `json:"packagesImportedToday"`
}

// Service reads stats with a short-lived snapshot cache in front of the
// counter row. The cache bounds read load; mutations never wait on it.
type Service struct {
	store storage.StatsStore
	cache *gocache.Cache
	now   func() time.Time
}

// Option configures service behavior.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a stats service over the given store.
func New(store storage.StatsStore, opts ...Option) *Service {
	s := &Service{
		store: store,
		cache: gocache.New(snapshotTTL, cleanupInterval),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns the current aggregates, served from cache within the
// snapshot TTL.
func (s *Service) Snapshot(ctx context.Context) (Snapshot, error) {
	if cached, found := s.cache.Get(snapshotKey); found {
		if snapshot, ok := cached.(Snapshot); ok {
			return snapshot, nil
		}
	}

	snapshot, err := s.load(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	s.cache.SetDefault(snapshotKey, snapshot)
	return snapshot, nil
}

// Verify recomputes the counters from the underlying tables and compares
// them to the incrementally maintained row. A mismatch means a mutation
// escaped its transaction and is reported as an error.
func (s *Service) Verify(ctx context.Context) (storage.StatsCounters, error) {
	counters, err := s.store.Counters(ctx)
	if err != nil {
		return storage.StatsCounters{}, fmt.Errorf("read counters: %w", err)
	}
	recount, err := s.store.Recount(ctx)
	if err != nil {
		return storage.StatsCounters{}, fmt.Errorf("recount: %w", err)
	}
	if counters != recount {
		return storage.StatsCounters{}, fmt.Errorf("counters diverged: counters=%+v recount=%+v", counters, recount)
	}
	return counters, nil
}

// Invalidate drops the cached snapshot so the next read hits the store.
func (s *Service) Invalidate() {
	s.cache.Delete(snapshotKey)
}

func (s *Service) load(ctx context.Context) (Snapshot, error) {
	counters, err := s.store.Counters(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read counters: %w", err)
	}

	now := s.now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	today, err := s.store.TodayCounts(ctx, dayStart)
	if err != nil {
		return Snapshot{}, fmt.Errorf("today counts: %w", err)
	}

	return Snapshot{
		Shells:              counters.Shells,
		Submodels:           counters.Submodels,
		ConceptDescriptions: counters.ConceptDescriptions,
		ShellDescriptors:    counters.ShellDescriptors,
		SubmodelDescriptors: counters.SubmodelDescriptors,
		Packages:            counters.Packages,
		BlobBytes:           counters.BlobBytes,
		PackagesUploadedUTC: today.PackagesUploaded,
		PackagesImportedUTC: today.PackagesImported,
	}, nil
}
