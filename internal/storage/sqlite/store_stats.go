package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/industrialdt/aashub/internal/aas"
	"github.com/industrialdt/aashub/internal/storage"
)

// Counters returns the incrementally maintained aggregate counters.
func (s *Store) Counters(ctx context.Context) (storage.StatsCounters, error) {
	if err := s.ready(ctx); err != nil {
		return storage.StatsCounters{}, err
	}

	var counters storage.StatsCounters
	err := s.sqlDB.QueryRowContext(ctx, `
		SELECT shells, submodels, concept_descriptions, shell_descriptors,
		       submodel_descriptors, packages, blob_bytes
		FROM stats_counters WHERE id = 1`).Scan(
		&counters.Shells, &counters.Submodels, &counters.ConceptDescriptions,
		&counters.ShellDescriptors, &counters.SubmodelDescriptors,
		&counters.Packages, &counters.BlobBytes)
	if err != nil {
		return storage.StatsCounters{}, fmt.Errorf("read counters: %w", err)
	}
	return counters, nil
}

// Recount recomputes the counters from the underlying tables. At any
// quiescent point Recount and Counters must agree; a divergence means a
// mutation escaped its transaction.
func (s *Store) Recount(ctx context.Context) (storage.StatsCounters, error) {
	if err := s.ready(ctx); err != nil {
		return storage.StatsCounters{}, err
	}

	var counters storage.StatsCounters
	err := s.sqlDB.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM shells),
			(SELECT COUNT(*) FROM submodels),
			(SELECT COUNT(*) FROM concept_descriptions),
			(SELECT COUNT(*) FROM shell_descriptors),
			(SELECT COUNT(*) FROM submodel_descriptors),
			(SELECT COUNT(*) FROM packages),
			(SELECT COALESCE(SUM(size_bytes), 0) FROM packages)`).Scan(
		&counters.Shells, &counters.Submodels, &counters.ConceptDescriptions,
		&counters.ShellDescriptors, &counters.SubmodelDescriptors,
		&counters.Packages, &counters.BlobBytes)
	if err != nil {
		return storage.StatsCounters{}, fmt.Errorf("recount: %w", err)
	}
	return counters, nil
}

// TodayCounts aggregates package uploads and imports since the given
// instant, normally the start of the current UTC day.
func (s *Store) TodayCounts(ctx context.Context, since time.Time) (storage.TodayCounts, error) {
	if err := s.ready(ctx); err != nil {
		return storage.TodayCounts{}, err
	}

	sinceMillis := toMillis(since)
	var counts storage.TodayCounts
	err := s.sqlDB.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM packages WHERE created_at >= ?),
			(SELECT COUNT(*) FROM activities
			 WHERE type = ? AND action = ? AND timestamp >= ?
			   AND detail NOT LIKE 'failed:%')`,
		sinceMillis,
		string(aas.ActivityPackage), string(aas.ActionImport), sinceMillis).Scan(
		&counts.PackagesUploaded, &counts.PackagesImported)
	if err != nil {
		return storage.TodayCounts{}, fmt.Errorf("today counts: %w", err)
	}
	return counts, nil
}
