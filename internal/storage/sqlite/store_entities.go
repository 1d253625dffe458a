package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/industrialdt/aashub/internal/aas"
	"github.com/industrialdt/aashub/internal/storage"
	"github.com/industrialdt/aashub/internal/storage/cursor"
)

// entityOrder is the listing order all entity listings mint cursors for.
const entityOrder = "id asc"

// GetShell fetches a shell record by id.
func (s *Store) GetShell(ctx context.Context, id string) (storage.ShellRecord, error) {
	if err := s.ready(ctx); err != nil {
		return storage.ShellRecord{}, err
	}
	if strings.TrimSpace(id) == "" {
		return storage.ShellRecord{}, fmt.Errorf("shell id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
		SELECT id, id_short, asset_kind, global_asset_id, package_id, created_at, updated_at
		FROM shells WHERE id = ?`, id)
	record, err := scanShell(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ShellRecord{}, storage.ErrNotFound
		}
		return storage.ShellRecord{}, fmt.Errorf("get shell: %w", err)
	}
	return record, nil
}

// GetSubmodel fetches a submodel record by id.
func (s *Store) GetSubmodel(ctx context.Context, id string) (storage.SubmodelRecord, error) {
	if err := s.ready(ctx); err != nil {
		return storage.SubmodelRecord{}, err
	}
	if strings.TrimSpace(id) == "" {
		return storage.SubmodelRecord{}, fmt.Errorf("submodel id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
		SELECT id, id_short, semantic_id, kind, package_id, created_at, updated_at
		FROM submodels WHERE id = ?`, id)
	record, err := scanSubmodel(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.SubmodelRecord{}, storage.ErrNotFound
		}
		return storage.SubmodelRecord{}, fmt.Errorf("get submodel: %w", err)
	}
	return record, nil
}

// GetConcept fetches a concept description record by id.
func (s *Store) GetConcept(ctx context.Context, id string) (storage.ConceptRecord, error) {
	if err := s.ready(ctx); err != nil {
		return storage.ConceptRecord{}, err
	}
	if strings.TrimSpace(id) == "" {
		return storage.ConceptRecord{}, fmt.Errorf("concept description id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
		SELECT id, id_short, package_id, created_at, updated_at
		FROM concept_descriptions WHERE id = ?`, id)
	record, err := scanConcept(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ConceptRecord{}, storage.ErrNotFound
		}
		return storage.ConceptRecord{}, fmt.Errorf("get concept description: %w", err)
	}
	return record, nil
}

// ListShells returns a page of shells ordered by id.
func (s *Store) ListShells(ctx context.Context, pageSize int, pageToken string) (storage.ShellPage, error) {
	if err := s.ready(ctx); err != nil {
		return storage.ShellPage{}, err
	}
	if pageSize <= 0 {
		return storage.ShellPage{}, fmt.Errorf("page size must be greater than zero")
	}

	afterID, err := decodeEntityToken(pageToken)
	if err != nil {
		return storage.ShellPage{}, err
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
		SELECT id, id_short, asset_kind, global_asset_id, package_id, created_at, updated_at
		FROM shells WHERE id > ? ORDER BY id ASC LIMIT ?`,
		afterID, pageSize+1)
	if err != nil {
		return storage.ShellPage{}, fmt.Errorf("list shells: %w", err)
	}
	defer rows.Close()

	page := storage.ShellPage{Shells: make([]storage.ShellRecord, 0, pageSize)}
	for rows.Next() {
		record, err := scanShell(rows)
		if err != nil {
			return storage.ShellPage{}, fmt.Errorf("scan shell: %w", err)
		}
		page.Shells = append(page.Shells, record)
	}
	if err := rows.Err(); err != nil {
		return storage.ShellPage{}, fmt.Errorf("iterate shells: %w", err)
	}

	if len(page.Shells) > pageSize {
		page.Shells = page.Shells[:pageSize]
		token, err := encodeEntityToken(page.Shells[pageSize-1].Shell.ID)
		if err != nil {
			return storage.ShellPage{}, err
		}
		page.NextPageToken = token
	}
	return page, nil
}

// ListSubmodels returns a page of submodels ordered by id.
func (s *Store) ListSubmodels(ctx context.Context, pageSize int, pageToken string) (storage.SubmodelPage, error) {
	if err := s.ready(ctx); err != nil {
		return storage.SubmodelPage{}, err
	}
	if pageSize <= 0 {
		return storage.SubmodelPage{}, fmt.Errorf("page size must be greater than zero")
	}

	afterID, err := decodeEntityToken(pageToken)
	if err != nil {
		return storage.SubmodelPage{}, err
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
		SELECT id, id_short, semantic_id, kind, package_id, created_at, updated_at
		FROM submodels WHERE id > ? ORDER BY id ASC LIMIT ?`,
		afterID, pageSize+1)
	if err != nil {
		return storage.SubmodelPage{}, fmt.Errorf("list submodels: %w", err)
	}
	defer rows.Close()

	page := storage.SubmodelPage{Submodels: make([]storage.SubmodelRecord, 0, pageSize)}
	for rows.Next() {
		record, err := scanSubmodel(rows)
		if err != nil {
			return storage.SubmodelPage{}, fmt.Errorf("scan submodel: %w", err)
		}
		page.Submodels = append(page.Submodels, record)
	}
	if err := rows.Err(); err != nil {
		return storage.SubmodelPage{}, fmt.Errorf("iterate submodels: %w", err)
	}

	if len(page.Submodels) > pageSize {
		page.Submodels = page.Submodels[:pageSize]
		token, err := encodeEntityToken(page.Submodels[pageSize-1].Submodel.ID)
		if err != nil {
			return storage.SubmodelPage{}, err
		}
		page.NextPageToken = token
	}
	return page, nil
}

// ListConcepts returns a page of concept descriptions ordered by id.
func (s *Store) ListConcepts(ctx context.Context, pageSize int, pageToken string) (storage.ConceptPage, error) {
	if err := s.ready(ctx); err != nil {
		return storage.ConceptPage{}, err
	}
	if pageSize <= 0 {
		return storage.ConceptPage{}, fmt.Errorf("page size must be greater than zero")
	}

	afterID, err := decodeEntityToken(pageToken)
	if err != nil {
		return storage.ConceptPage{}, err
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
		SELECT id, id_short, package_id, created_at, updated_at
		FROM concept_descriptions WHERE id > ? ORDER BY id ASC LIMIT ?`,
		afterID, pageSize+1)
	if err != nil {
		return storage.ConceptPage{}, fmt.Errorf("list concept descriptions: %w", err)
	}
	defer rows.Close()

	page := storage.ConceptPage{Concepts: make([]storage.ConceptRecord, 0, pageSize)}
	for rows.Next() {
		record, err := scanConcept(rows)
		if err != nil {
			return storage.ConceptPage{}, fmt.Errorf("scan concept description: %w", err)
		}
		page.Concepts = append(page.Concepts, record)
	}
	if err := rows.Err(); err != nil {
		return storage.ConceptPage{}, fmt.Errorf("iterate concept descriptions: %w", err)
	}

	if len(page.Concepts) > pageSize {
		page.Concepts = page.Concepts[:pageSize]
		token, err := encodeEntityToken(page.Concepts[pageSize-1].Concept.ID)
		if err != nil {
			return storage.ConceptPage{}, err
		}
		page.NextPageToken = token
	}
	return page, nil
}

// decodeEntityToken maps an optional page token to the id to resume after.
func decodeEntityToken(pageToken string) (string, error) {
	if pageToken == "" {
		return "", nil
	}
	c, err := cursor.Decode(pageToken)
	if err != nil {
		return "", fmt.Errorf("decode page token: %w", err)
	}
	if err := cursor.ValidateOrderHash(c, entityOrder); err != nil {
		return "", fmt.Errorf("validate page token: %w", err)
	}
	return c.ID, nil
}

func encodeEntityToken(lastID string) (string, error) {
	token, err := cursor.Encode(cursor.New(lastID, 0, entityOrder))
	if err != nil {
		return "", fmt.Errorf("encode page token: %w", err)
	}
	return token, nil
}

func scanShell(row rowScanner) (storage.ShellRecord, error) {
	var record storage.ShellRecord
	var assetKind string
	var createdAt, updatedAt int64
	if err := row.Scan(
		&record.Shell.ID,
		&record.Shell.IDShort,
		&assetKind,
		&record.Shell.AssetInformation.GlobalAssetID,
		&record.PackageID,
		&createdAt,
		&updatedAt,
	); err != nil {
		return storage.ShellRecord{}, err
	}
	record.Shell.AssetInformation.AssetKind = aas.AssetKind(assetKind)
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	return record, nil
}

func scanSubmodel(row rowScanner) (storage.SubmodelRecord, error) {
	var record storage.SubmodelRecord
	var semanticID, kind string
	var createdAt, updatedAt int64
	if err := row.Scan(
		&record.Submodel.ID,
		&record.Submodel.IDShort,
		&semanticID,
		&kind,
		&record.PackageID,
		&createdAt,
		&updatedAt,
	); err != nil {
		return storage.SubmodelRecord{}, err
	}
	if semanticID != "" {
		record.Submodel.SemanticID = &aas.Reference{Keys: []aas.Key{{Value: semanticID}}}
	}
	record.Submodel.Kind = aas.SubmodelKind(kind)
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	return record, nil
}

func scanConcept(row rowScanner) (storage.ConceptRecord, error) {
	var record storage.ConceptRecord
	var createdAt, updatedAt int64
	if err := row.Scan(
		&record.Concept.ID,
		&record.Concept.IDShort,
		&record.PackageID,
		&createdAt,
		&updatedAt,
	); err != nil {
		return storage.ConceptRecord{}, err
	}
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	return record, nil
}
