package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/industrialdt/aashub/internal/storage"
	"github.com/industrialdt/aashub/internal/storage/cursor"
)

// packageOrder is the listing order ListPackages mints cursors for.
const packageOrder = "created_at desc, id desc"

// PutPackage persists a package record and its blob in one transaction,
// incrementing the package counters alongside. No partial record is
// visible on failure.
func (s *Store) PutPackage(ctx context.Context, record storage.PackageRecord, blob []byte) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("package id is required")
	}
	if strings.TrimSpace(record.Filename) == "" {
		return fmt.Errorf("package filename is required")
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO packages (id, filename, size_bytes, status, shell_count, submodel_count, concept_count, blob, created_at, import_started_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			record.ID,
			record.Filename,
			record.SizeBytes,
			string(record.Status),
			record.ShellCount,
			record.SubmodelCount,
			record.ConceptCount,
			blob,
			toMillis(record.CreatedAt),
			toNullMillis(record.ImportStartedAt),
		)
		if err != nil {
			return fmt.Errorf("insert package: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE stats_counters SET packages = packages + 1, blob_bytes = blob_bytes + ? WHERE id = 1`,
			record.SizeBytes,
		)
		if err != nil {
			return fmt.Errorf("update package counters: %w", err)
		}
		return nil
	})
}

// GetPackage fetches a package record by id, without its blob.
func (s *Store) GetPackage(ctx context.Context, id string) (storage.PackageRecord, error) {
	if err := s.ready(ctx); err != nil {
		return storage.PackageRecord{}, err
	}
	if strings.TrimSpace(id) == "" {
		return storage.PackageRecord{}, fmt.Errorf("package id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
		SELECT id, filename, size_bytes, status, shell_count, submodel_count, concept_count, created_at, import_started_at
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

// GetPackageBlob fetches the raw package blob for download and import.
func (s *Store) GetPackageBlob(ctx context.Context, id string) ([]byte, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("package id is required")
	}

	var blob []byte
	row := s.sqlDB.QueryRowContext(ctx, "SELECT blob FROM packages WHERE id = ?", id)
	if err := row.Scan(&blob); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get package blob: %w", err)
	}
	return blob, nil
}

// ListPackages returns a page of packages ordered by creation time
// descending. The cursor pins the last-seen (created_at, id) pair so
// concurrent inserts never shift already-returned pages.
func (s *Store) ListPackages(ctx context.Context, pageSize int, pageToken string) (storage.PackagePage, error) {
	if err := s.ready(ctx); err != nil {
		return storage.PackagePage{}, err
	}
	if pageSize <= 0 {
		return storage.PackagePage{}, fmt.Errorf("page size must be greater than zero")
	}

	page := storage.PackagePage{
		Packages: make([]storage.PackageRecord, 0, pageSize),
	}

	var rows *sql.Rows
	var err error
	if pageToken == "" {
		rows, err = s.sqlDB.QueryContext(ctx, `
			SELECT id, filename, size_bytes, status, shell_count, submodel_count, concept_count, created_at, import_started_at
			FROM packages
			ORDER BY created_at DESC, id DESC
			LIMIT ?`, pageSize+1)
	} else {
		var c cursor.Cursor
		c, err = cursor.Decode(pageToken)
		if err != nil {
			return storage.PackagePage{}, fmt.Errorf("decode page token: %w", err)
		}
		if err = cursor.ValidateOrderHash(c, packageOrder); err != nil {
			return storage.PackagePage{}, fmt.Errorf("validate page token: %w", err)
		}
		rows, err = s.sqlDB.QueryContext(ctx, `
			SELECT id, filename, size_bytes, status, shell_count, submodel_count, concept_count, created_at, import_started_at
			FROM packages
			WHERE created_at < ? OR (created_at = ? AND id < ?)
			ORDER BY created_at DESC, id DESC
			LIMIT ?`, c.CreatedAt, c.CreatedAt, c.ID, pageSize+1)
	}
	if err != nil {
		return storage.PackagePage{}, fmt.Errorf("list packages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		record, err := scanPackage(rows)
		if err != nil {
			return storage.PackagePage{}, fmt.Errorf("scan package: %w", err)
		}
		page.Packages = append(page.Packages, record)
	}
	if err := rows.Err(); err != nil {
		return storage.PackagePage{}, fmt.Errorf("iterate packages: %w", err)
	}

	if len(page.Packages) > pageSize {
		page.Packages = page.Packages[:pageSize]
		last := page.Packages[pageSize-1]
		token, err := cursor.Encode(cursor.New(last.ID, toMillis(last.CreatedAt), packageOrder))
		if err != nil {
			return storage.PackagePage{}, fmt.Errorf("encode page token: %w", err)
		}
		page.NextPageToken = token
	}

	return page, nil
}

// rowScanner abstracts sql.Row and sql.Rows for shared scan helpers.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPackage(row rowScanner) (storage.PackageRecord, error) {
	var record storage.PackageRecord
	var status string
	var createdAt int64
	var importStartedAt sql.NullInt64
	if err := row.Scan(
		&record.ID,
		&record.Filename,
		&record.SizeBytes,
		&status,
		&record.ShellCount,
		&record.SubmodelCount,
		&record.ConceptCount,
		&createdAt,
		&importStartedAt,
	); err != nil {
		return storage.PackageRecord{}, err
	}
	record.Status = packageStatusFromString(status)
	record.CreatedAt = fromMillis(createdAt)
	record.ImportStartedAt = fromNullMillis(importStartedAt)
	return record, nil
}
