package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/industrialdt/aashub/internal/aas"
	"github.com/industrialdt/aashub/internal/storage"
)

// ListShellDescriptors returns a page of registry shell descriptors
// ordered by id.
func (s *Store) ListShellDescriptors(ctx context.Context, pageSize int, pageToken string) (storage.ShellDescriptorPage, error) {
	if err := s.ready(ctx); err != nil {
		return storage.ShellDescriptorPage{}, err
	}
	if pageSize <= 0 {
		return storage.ShellDescriptorPage{}, fmt.Errorf("page size must be greater than zero")
	}

	afterID, err := decodeEntityToken(pageToken)
	if err != nil {
		return storage.ShellDescriptorPage{}, err
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
		SELECT id, id_short, asset_kind, global_asset_id
		FROM shell_descriptors WHERE id > ? ORDER BY id ASC LIMIT ?`,
		afterID, pageSize+1)
	if err != nil {
		return storage.ShellDescriptorPage{}, fmt.Errorf("list shell descriptors: %w", err)
	}
	defer rows.Close()

	page := storage.ShellDescriptorPage{Descriptors: make([]aas.ShellDescriptor, 0, pageSize)}
	for rows.Next() {
		var d aas.ShellDescriptor
		var assetKind string
		if err := rows.Scan(&d.ID, &d.IDShort, &assetKind, &d.GlobalAssetID); err != nil {
			return storage.ShellDescriptorPage{}, fmt.Errorf("scan shell descriptor: %w", err)
		}
		d.AssetKind = aas.AssetKind(assetKind)
		page.Descriptors = append(page.Descriptors, d)
	}
	if err := rows.Err(); err != nil {
		return storage.ShellDescriptorPage{}, fmt.Errorf("iterate shell descriptors: %w", err)
	}

	if len(page.Descriptors) > pageSize {
		page.Descriptors = page.Descriptors[:pageSize]
		token, err := encodeEntityToken(page.Descriptors[pageSize-1].ID)
		if err != nil {
			return storage.ShellDescriptorPage{}, err
		}
		page.NextPageToken = token
	}
	return page, nil
}

// ListSubmodelDescriptors returns a page of registry submodel descriptors
// ordered by id.
func (s *Store) ListSubmodelDescriptors(ctx context.Context, pageSize int, pageToken string) (storage.SubmodelDescriptorPage, error) {
	if err := s.ready(ctx); err != nil {
		return storage.SubmodelDescriptorPage{}, err
	}
	if pageSize <= 0 {
		return storage.SubmodelDescriptorPage{}, fmt.Errorf("page size must be greater than zero")
	}

	afterID, err := decodeEntityToken(pageToken)
	if err != nil {
		return storage.SubmodelDescriptorPage{}, err
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
		SELECT id, id_short, semantic_id
		FROM submodel_descriptors WHERE id > ? ORDER BY id ASC LIMIT ?`,
		afterID, pageSize+1)
	if err != nil {
		return storage.SubmodelDescriptorPage{}, fmt.Errorf("list submodel descriptors: %w", err)
	}
	defer rows.Close()

	page := storage.SubmodelDescriptorPage{Descriptors: make([]aas.SubmodelDescriptor, 0, pageSize)}
	for rows.Next() {
		var d aas.SubmodelDescriptor
		if err := rows.Scan(&d.ID, &d.IDShort, &d.SemanticID); err != nil {
			return storage.SubmodelDescriptorPage{}, fmt.Errorf("scan submodel descriptor: %w", err)
		}
		page.Descriptors = append(page.Descriptors, d)
	}
	if err := rows.Err(); err != nil {
		return storage.SubmodelDescriptorPage{}, fmt.Errorf("iterate submodel descriptors: %w", err)
	}

	if len(page.Descriptors) > pageSize {
		page.Descriptors = page.Descriptors[:pageSize]
		token, err := encodeEntityToken(page.Descriptors[pageSize-1].ID)
		if err != nil {
			return storage.SubmodelDescriptorPage{}, err
		}
		page.NextPageToken = token
	}
	return page, nil
}

func upsertShellDescriptorTx(ctx context.Context, tx *sql.Tx, d aas.ShellDescriptor) (created bool, err error) {
	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM shell_descriptors WHERE id = ?`, d.ID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check shell descriptor: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO shell_descriptors (id, id_short, asset_kind, global_asset_id)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			id_short = excluded.id_short,
			asset_kind = excluded.asset_kind,
			global_asset_id = excluded.global_asset_id`,
		d.ID, d.IDShort, string(d.AssetKind), d.GlobalAssetID)
	if err != nil {
		return false, fmt.Errorf("upsert shell descriptor: %w", err)
	}
	return exists == 0, nil
}

func upsertSubmodelDescriptorTx(ctx context.Context, tx *sql.Tx, d aas.SubmodelDescriptor) (created bool, err error) {
	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM submodel_descriptors WHERE id = ?`, d.ID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check submodel descriptor: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO submodel_descriptors (id, id_short, semantic_id)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			id_short = excluded.id_short,
			semantic_id = excluded.semantic_id`,
		d.ID, d.IDShort, d.SemanticID)
	if err != nil {
		return false, fmt.Errorf("upsert submodel descriptor: %w", err)
	}
	return exists == 0, nil
}
