package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/industrialdt/aashub/internal/aas"
	"github.com/industrialdt/aashub/internal/storage"
)

// ClaimImport transitions a package into importing with a conditional
// update, so concurrent claimants across processes race on a single row
// write. A package already importing is claimable only when its claim
// predates staleBefore, which reclaims imports whose worker died.
func (s *Store) ClaimImport(ctx context.Context, packageID string, startedAt, staleBefore time.Time) (storage.PackageRecord, error) {
	if err := s.ready(ctx); err != nil {
		return storage.PackageRecord{}, err
	}
	if strings.TrimSpace(packageID) == "" {
		return storage.PackageRecord{}, fmt.Errorf("package id is required")
	}

	var record storage.PackageRecord
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		current, err := getPackageTx(ctx, tx, packageID)
		if err != nil {
			return err
		}

		if current.Status == aas.PackageImporting {
			if current.ImportStartedAt != nil && !current.ImportStartedAt.Before(staleBefore) {
				return storage.ErrImportInFlight
			}
		} else if !current.Status.CanStartImport() {
			return storage.ErrImportInFlight
		}

		staleMillis := toMillis(staleBefore)
		result, err := tx.ExecContext(ctx, `
			UPDATE packages
			SET status = ?, import_started_at = ?
			WHERE id = ?
			  AND (status != ? OR import_started_at IS NULL OR import_started_at < ?)`,
			string(aas.PackageImporting), toMillis(startedAt),
			packageID, string(aas.PackageImporting), staleMillis)
		if err != nil {
			return fmt.Errorf("claim import: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("claim import rows: %w", err)
		}
		if affected == 0 {
			return storage.ErrImportInFlight
		}

		record, err = getPackageTx(ctx, tx, packageID)
		return err
	})
	if err != nil {
		return storage.PackageRecord{}, err
	}
	return record, nil
}

// FailImport marks the package failed, releases its claim, and appends
// an import activity entry describing why the package did not land. The
// failure entry carries a "failed:" detail prefix so import counts can
// tell it apart from successful imports.
func (s *Store) FailImport(ctx context.Context, packageID, detail string, at time.Time) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(packageID) == "" {
		return fmt.Errorf("package id is required")
	}
	if at.IsZero() {
		at = time.Now()
	}
	if strings.TrimSpace(detail) == "" {
		detail = "import failed"
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		current, err := getPackageTx(ctx, tx, packageID)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE packages SET status = ?, import_started_at = NULL WHERE id = ?`,
			string(aas.PackageFailed), packageID); err != nil {
			return fmt.Errorf("fail import: %w", err)
		}

		return appendActivityTx(ctx, tx, aas.Activity{
			Type:       aas.ActivityPackage,
			Action:     aas.ActionImport,
			Identifier: packageID,
			Filename:   current.Filename,
			Detail:     "failed: " + detail,
			Timestamp:  at,
		})
	})
}

// ApplyImport merges the decoded environment into the entity tables,
// refreshes the registry descriptors, appends the audit entries, bumps
// the aggregate counters, and flips the package to imported, all inside
// one transaction. Any error rolls the whole import back.
func (s *Store) ApplyImport(ctx context.Context, apply storage.ImportApply) (storage.ImportResult, error) {
	if err := s.ready(ctx); err != nil {
		return storage.ImportResult{}, err
	}
	if strings.TrimSpace(apply.PackageID) == "" {
		return storage.ImportResult{}, fmt.Errorf("package id is required")
	}
	if apply.AppliedAt.IsZero() {
		apply.AppliedAt = time.Now()
	}

	var result storage.ImportResult
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		current, err := getPackageTx(ctx, tx, apply.PackageID)
		if err != nil {
			return err
		}
		if current.Status != aas.PackageImporting {
			return fmt.Errorf("package %s is not claimed for import", apply.PackageID)
		}

		appliedAt := toMillis(apply.AppliedAt)
		env := apply.Environment

		for _, shell := range env.Shells {
			if err := s.runEntityHook(aas.KindShell, shell.ID); err != nil {
				return err
			}
			created, err := upsertShellTx(ctx, tx, shell, apply.PackageID, appliedAt)
			if err != nil {
				return err
			}
			if _, err := upsertShellDescriptorTx(ctx, tx, aas.DescribeShell(shell)); err != nil {
				return err
			}
			action := aas.ActionUpdate
			if created {
				result.CreatedShells++
				action = aas.ActionCreate
			} else {
				result.UpdatedShells++
			}
			if err := appendActivityTx(ctx, tx, aas.Activity{
				Type:       aas.ActivityShell,
				Action:     action,
				Identifier: shell.ID,
				Filename:   apply.Filename,
				Timestamp:  apply.AppliedAt,
			}); err != nil {
				return err
			}
		}

		for _, submodel := range env.Submodels {
			if err := s.runEntityHook(aas.KindSubmodel, submodel.ID); err != nil {
				return err
			}
			created, err := upsertSubmodelTx(ctx, tx, submodel, apply.PackageID, appliedAt)
			if err != nil {
				return err
			}
			if _, err := upsertSubmodelDescriptorTx(ctx, tx, aas.DescribeSubmodel(submodel)); err != nil {
				return err
			}
			action := aas.ActionUpdate
			if created {
				result.CreatedSubmodels++
				action = aas.ActionCreate
			} else {
				result.UpdatedSubmodels++
			}
			if err := appendActivityTx(ctx, tx, aas.Activity{
				Type:       aas.ActivitySubmodel,
				Action:     action,
				Identifier: submodel.ID,
				Filename:   apply.Filename,
				Timestamp:  apply.AppliedAt,
			}); err != nil {
				return err
			}
		}

		for _, concept := range env.ConceptDescriptions {
			if err := s.runEntityHook(aas.KindConceptDescription, concept.ID); err != nil {
				return err
			}
			created, err := upsertConceptTx(ctx, tx, concept, apply.PackageID, appliedAt)
			if err != nil {
				return err
			}
			action := aas.ActionUpdate
			if created {
				result.CreatedConcepts++
				action = aas.ActionCreate
			} else {
				result.UpdatedConcepts++
			}
			if err := appendActivityTx(ctx, tx, aas.Activity{
				Type:       aas.ActivityConceptDescription,
				Action:     action,
				Identifier: concept.ID,
				Filename:   apply.Filename,
				Timestamp:  apply.AppliedAt,
			}); err != nil {
				return err
			}
		}

		if err := appendActivityTx(ctx, tx, aas.Activity{
			Type:       aas.ActivityPackage,
			Action:     aas.ActionImport,
			Identifier: apply.PackageID,
			Filename:   apply.Filename,
			Detail:     fmt.Sprintf("created %d, updated %d", result.Created(), result.Updated()),
			Timestamp:  apply.AppliedAt,
		}); err != nil {
			return err
		}

		if err := bumpCountersTx(ctx, tx, storage.StatsCounters{
			Shells:              int64(result.CreatedShells),
			Submodels:           int64(result.CreatedSubmodels),
			ConceptDescriptions: int64(result.CreatedConcepts),
			ShellDescriptors:    int64(result.CreatedShells),
			SubmodelDescriptors: int64(result.CreatedSubmodels),
		}); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE packages
			SET status = ?, import_started_at = NULL,
			    shell_count = ?, submodel_count = ?, concept_count = ?
			WHERE id = ?`,
			string(aas.PackageImported),
			len(env.Shells), len(env.Submodels), len(env.ConceptDescriptions),
			apply.PackageID); err != nil {
			return fmt.Errorf("mark package imported: %w", err)
		}
		return nil
	})
	if err != nil {
		return storage.ImportResult{}, err
	}
	return result, nil
}

// DeletePackage removes the package record, its blob, and every entity
// whose provenance still points at it, in one transaction. Entities a
// later import re-claimed for another package survive. A live import
// claim blocks the delete; a claim older than staleBefore belongs to a
// dead worker and is overridden, so a crashed import never pins its
// package forever.
func (s *Store) DeletePackage(ctx context.Context, packageID string, at, staleBefore time.Time) (storage.DeleteResult, error) {
	if err := s.ready(ctx); err != nil {
		return storage.DeleteResult{}, err
	}
	if strings.TrimSpace(packageID) == "" {
		return storage.DeleteResult{}, fmt.Errorf("package id is required")
	}
	if at.IsZero() {
		at = time.Now()
	}

	var result storage.DeleteResult
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		current, err := getPackageTx(ctx, tx, packageID)
		if err != nil {
			return err
		}
		if current.Status == aas.PackageImporting {
			if current.ImportStartedAt != nil && !current.ImportStartedAt.Before(staleBefore) {
				return storage.ErrDeleteImporting
			}
		}

		shellIDs, err := entityIDsTx(ctx, tx, "shells", packageID)
		if err != nil {
			return err
		}
		submodelIDs, err := entityIDsTx(ctx, tx, "submodels", packageID)
		if err != nil {
			return err
		}
		conceptIDs, err := entityIDsTx(ctx, tx, "concept_descriptions", packageID)
		if err != nil {
			return err
		}

		for _, id := range shellIDs {
			if _, err := tx.ExecContext(ctx, `DELETE FROM shells WHERE id = ?`, id); err != nil {
				return fmt.Errorf("delete shell: %w", err)
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM shell_descriptors WHERE id = ?`, id); err != nil {
				return fmt.Errorf("delete shell descriptor: %w", err)
			}
			if err := appendActivityTx(ctx, tx, aas.Activity{
				Type:       aas.ActivityShell,
				Action:     aas.ActionDelete,
				Identifier: id,
				Filename:   current.Filename,
				Timestamp:  at,
			}); err != nil {
				return err
			}
		}
		for _, id := range submodelIDs {
			if _, err := tx.ExecContext(ctx, `DELETE FROM submodels WHERE id = ?`, id); err != nil {
				return fmt.Errorf("delete submodel: %w", err)
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM submodel_descriptors WHERE id = ?`, id); err != nil {
				return fmt.Errorf("delete submodel descriptor: %w", err)
			}
			if err := appendActivityTx(ctx, tx, aas.Activity{
				Type:       aas.ActivitySubmodel,
				Action:     aas.ActionDelete,
				Identifier: id,
				Filename:   current.Filename,
				Timestamp:  at,
			}); err != nil {
				return err
			}
		}
		for _, id := range conceptIDs {
			if _, err := tx.ExecContext(ctx, `DELETE FROM concept_descriptions WHERE id = ?`, id); err != nil {
				return fmt.Errorf("delete concept description: %w", err)
			}
			if err := appendActivityTx(ctx, tx, aas.Activity{
				Type:       aas.ActivityConceptDescription,
				Action:     aas.ActionDelete,
				Identifier: id,
				Filename:   current.Filename,
				Timestamp:  at,
			}); err != nil {
				return err
			}
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM packages WHERE id = ?`, packageID); err != nil {
			return fmt.Errorf("delete package: %w", err)
		}
		if err := appendActivityTx(ctx, tx, aas.Activity{
			Type:       aas.ActivityPackage,
			Action:     aas.ActionDelete,
			Identifier: packageID,
			Filename:   current.Filename,
			Timestamp:  at,
		}); err != nil {
			return err
		}

		if err := bumpCountersTx(ctx, tx, storage.StatsCounters{
			Shells:              -int64(len(shellIDs)),
			Submodels:           -int64(len(submodelIDs)),
			ConceptDescriptions: -int64(len(conceptIDs)),
			ShellDescriptors:    -int64(len(shellIDs)),
			SubmodelDescriptors: -int64(len(submodelIDs)),
			Packages:            -1,
			BlobBytes:           -current.SizeBytes,
		}); err != nil {
			return err
		}

		result = storage.DeleteResult{
			RemovedShells:    len(shellIDs),
			RemovedSubmodels: len(submodelIDs),
			RemovedConcepts:  len(conceptIDs),
		}
		return nil
	})
	if err != nil {
		return storage.DeleteResult{}, err
	}
	return result, nil
}

func (s *Store) runEntityHook(kind aas.Kind, id string) error {
	if s.entityHook == nil {
		return nil
	}
	return s.entityHook(kind, id)
}

func getPackageTx(ctx context.Context, tx *sql.Tx, id string) (storage.PackageRecord, error) {
	row := tx.QueryRowContext(ctx, `
		SELECT id, filename, size_bytes, status, shell_count, submodel_count,
		       concept_count, created_at, import_started_at
		FROM packages WHERE id = ?`, id)
	record, err := scanPackage(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.PackageRecord{}, storage.ErrNotFound
		}
		return storage.PackageRecord{}, fmt.Errorf("get package: %w", err)
	}
	return record, nil
}

func entityIDsTx(ctx context.Context, tx *sql.Tx, table, packageID string) ([]string, error) {
	rows, err := tx.QueryContext(ctx,
		fmt.Sprintf(`SELECT id FROM %s WHERE package_id = ? ORDER BY id ASC`, table),
		packageID)
	if err != nil {
		return nil, fmt.Errorf("list %s ids: %w", table, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan %s id: %w", table, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s ids: %w", table, err)
	}
	return ids, nil
}

func upsertShellTx(ctx context.Context, tx *sql.Tx, shell aas.Shell, packageID string, atMillis int64) (created bool, err error) {
	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM shells WHERE id = ?`, shell.ID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check shell: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO shells (id, id_short, asset_kind, global_asset_id, package_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			id_short = excluded.id_short,
			asset_kind = excluded.asset_kind,
			global_asset_id = excluded.global_asset_id,
			package_id = excluded.package_id,
			updated_at = excluded.updated_at`,
		shell.ID, shell.IDShort, string(shell.AssetInformation.AssetKind),
		shell.AssetInformation.GlobalAssetID, packageID, atMillis, atMillis)
	if err != nil {
		return false, fmt.Errorf("upsert shell: %w", err)
	}
	return exists == 0, nil
}

func upsertSubmodelTx(ctx context.Context, tx *sql.Tx, submodel aas.Submodel, packageID string, atMillis int64) (created bool, err error) {
	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM submodels WHERE id = ?`, submodel.ID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check submodel: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO submodels (id, id_short, semantic_id, kind, package_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			id_short = excluded.id_short,
			semantic_id = excluded.semantic_id,
			kind = excluded.kind,
			package_id = excluded.package_id,
			updated_at = excluded.updated_at`,
		submodel.ID, submodel.IDShort, submodel.SemanticID.First(),
		string(submodel.Kind), packageID, atMillis, atMillis)
	if err != nil {
		return false, fmt.Errorf("upsert submodel: %w", err)
	}
	return exists == 0, nil
}

func upsertConceptTx(ctx context.Context, tx *sql.Tx, concept aas.ConceptDescription, packageID string, atMillis int64) (created bool, err error) {
	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM concept_descriptions WHERE id = ?`, concept.ID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check concept description: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO concept_descriptions (id, id_short, package_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			id_short = excluded.id_short,
			package_id = excluded.package_id,
			updated_at = excluded.updated_at`,
		concept.ID, concept.IDShort, packageID, atMillis, atMillis)
	if err != nil {
		return false, fmt.Errorf("upsert concept description: %w", err)
	}
	return exists == 0, nil
}

func bumpCountersTx(ctx context.Context, tx *sql.Tx, delta storage.StatsCounters) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE stats_counters SET
			shells = shells + ?,
			submodels = submodels + ?,
			concept_descriptions = concept_descriptions + ?,
			shell_descriptors = shell_descriptors + ?,
			submodel_descriptors = submodel_descriptors + ?,
			packages = packages + ?,
			blob_bytes = blob_bytes + ?
		WHERE id = 1`,
		delta.Shells, delta.Submodels, delta.ConceptDescriptions,
		delta.ShellDescriptors, delta.SubmodelDescriptors,
		delta.Packages, delta.BlobBytes)
	if err != nil {
		return fmt.Errorf("update counters: %w", err)
	}
	return nil
}
