package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/davstore/pkg/types"
)

const tableObjectColumns = "id, table_id, uuid, visibility, upload_status, is_file, etag"

// SaveTableObject inserts e with props when its UUID is new, or updates the
// mutable columns of the existing row. Both paths run in one transaction and
// rely on the unique uuid index, so concurrent saves of the same object
// cannot produce two rows.
func (b *Backend) SaveTableObject(ctx context.Context, e *types.TableObjectEntity, props []*types.PropertyEntity) (types.SaveResult, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var res types.SaveResult
	err := b.withTx(ctx, func(tx *sql.Tx) error {
		r, err := tx.ExecContext(ctx,
			`INSERT INTO table_objects (table_id, uuid, visibility, upload_status, is_file, etag)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT(uuid) DO NOTHING`,
			e.TableID, e.UUID, e.Visibility, e.UploadStatus, e.IsFile, e.Etag,
		)
		if err != nil {
			return fmt.Errorf("inserting table object %s: %w", e.UUID, err)
		}
		n, err := r.RowsAffected()
		if err != nil {
			return fmt.Errorf("reading rows affected: %w", err)
		}

		if n == 1 {
			id, err := r.LastInsertId()
			if err != nil {
				return fmt.Errorf("reading table object id: %w", err)
			}
			res.ID = id
			res.Created = true
			res.PropertyIDs, err = insertProperties(ctx, tx, id, props)
			return err
		}

		if err := tx.QueryRowContext(ctx,
			"SELECT id FROM table_objects WHERE uuid = ?", e.UUID,
		).Scan(&res.ID); err != nil {
			return fmt.Errorf("reading table object %s: %w", e.UUID, err)
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE table_objects SET visibility = ?, upload_status = ?, is_file = ?, etag = ? WHERE id = ?",
			e.Visibility, e.UploadStatus, e.IsFile, e.Etag, res.ID,
		); err != nil {
			return fmt.Errorf("updating table object %s: %w", e.UUID, err)
		}
		return nil
	})
	if err != nil {
		return types.SaveResult{}, err
	}
	return res, nil
}

// InsertTableObject inserts e and props as new rows in one transaction.
func (b *Backend) InsertTableObject(ctx context.Context, e *types.TableObjectEntity, props []*types.PropertyEntity) (types.SaveResult, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	res := types.SaveResult{Created: true}
	err := b.withTx(ctx, func(tx *sql.Tx) error {
		r, err := tx.ExecContext(ctx,
			"INSERT INTO table_objects (table_id, uuid, visibility, upload_status, is_file, etag) VALUES (?, ?, ?, ?, ?, ?)",
			e.TableID, e.UUID, e.Visibility, e.UploadStatus, e.IsFile, e.Etag,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return types.ErrDuplicateUUID
			}
			return fmt.Errorf("inserting table object %s: %w", e.UUID, err)
		}
		if res.ID, err = r.LastInsertId(); err != nil {
			return fmt.Errorf("reading table object id: %w", err)
		}
		res.PropertyIDs, err = insertProperties(ctx, tx, res.ID, props)
		return err
	})
	if err != nil {
		return types.SaveResult{}, err
	}
	return res, nil
}

func insertProperties(ctx context.Context, tx *sql.Tx, owner int64, props []*types.PropertyEntity) ([]int64, error) {
	var ids []int64
	for _, p := range props {
		id, err := insertProperty(ctx, tx, owner, p.Name, p.Value)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// UpdateTableObject rewrites the mutable columns of the row with e.ID.
// table_id and uuid never change. Zero rows affected is not an error.
func (b *Backend) UpdateTableObject(ctx context.Context, e *types.TableObjectEntity) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	db, err := b.conn()
	if err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx,
		"UPDATE table_objects SET visibility = ?, upload_status = ?, is_file = ?, etag = ? WHERE id = ?",
		e.Visibility, e.UploadStatus, e.IsFile, e.Etag, e.ID,
	); err != nil {
		return fmt.Errorf("updating table object %d: %w", e.ID, err)
	}
	return nil
}

// GetTableObject returns the row with the given uuid.
func (b *Backend) GetTableObject(ctx context.Context, uuid string) (*types.TableObjectEntity, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	db, err := b.conn()
	if err != nil {
		return nil, err
	}

	row := db.QueryRowContext(ctx,
		"SELECT "+tableObjectColumns+" FROM table_objects WHERE uuid = ?", uuid)
	e, err := hydrateTableObject(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("getting table object %s: %w", uuid, err)
	}
	return e, nil
}

// GetTableObjectByID returns the row with the given id.
func (b *Backend) GetTableObjectByID(ctx context.Context, id int64) (*types.TableObjectEntity, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	db, err := b.conn()
	if err != nil {
		return nil, err
	}

	row := db.QueryRowContext(ctx,
		"SELECT "+tableObjectColumns+" FROM table_objects WHERE id = ?", id)
	e, err := hydrateTableObject(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("getting table object %d: %w", id, err)
	}
	return e, nil
}

func (b *Backend) TableObjectExists(ctx context.Context, uuid string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	db, err := b.conn()
	if err != nil {
		return false, err
	}

	var exists bool
	err = db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM table_objects WHERE uuid = ?)", uuid,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking table object existence: %w", err)
	}
	return exists, nil
}

// ListTableObjects returns rows matching filter ordered by id, which is
// insertion order because ids are never reused.
func (b *Backend) ListTableObjects(ctx context.Context, filter types.TableObjectFilter) ([]*types.TableObjectEntity, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.TableID != nil {
		clauses = append(clauses, "table_id = ?")
		args = append(args, *filter.TableID)
	}
	if !filter.IncludeDeleted {
		clauses = append(clauses, "upload_status != ?")
		args = append(args, int(types.UploadStatusDeleted))
	}
	return b.queryTableObjects(ctx, clauses, args)
}

// ListPendingTableObjects returns rows with local changes not yet pushed.
func (b *Backend) ListPendingTableObjects(ctx context.Context) ([]*types.TableObjectEntity, error) {
	return b.queryTableObjects(ctx,
		[]string{"upload_status IN (?, ?, ?)"},
		[]any{int(types.UploadStatusNew), int(types.UploadStatusUpdated), int(types.UploadStatusDeleted)},
	)
}

func (b *Backend) queryTableObjects(ctx context.Context, clauses []string, args []any) ([]*types.TableObjectEntity, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	db, err := b.conn()
	if err != nil {
		return nil, err
	}

	query := "SELECT " + tableObjectColumns + " FROM table_objects"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY id"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying table objects: %w", err)
	}
	defer rows.Close()

	result := []*types.TableObjectEntity{}
	for rows.Next() {
		e, err := hydrateTableObject(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning table object: %w", err)
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating table objects: %w", err)
	}
	return result, nil
}

// DeleteTableObject removes the row with the given id and every property it
// owns. A missing row is not an error.
func (b *Backend) DeleteTableObject(ctx context.Context, id int64) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM properties WHERE table_object_id = ?", id); err != nil {
			return fmt.Errorf("deleting properties of table object %d: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM table_objects WHERE id = ?", id); err != nil {
			return fmt.Errorf("deleting table object %d: %w", id, err)
		}
		return nil
	})
}

// DeleteAllTableObjects empties the table object and property tables.
func (b *Backend) DeleteAllTableObjects(ctx context.Context) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.withTx(ctx, deleteAllRows(ctx))
}

func deleteAllRows(ctx context.Context) func(tx *sql.Tx) error {
	return func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM properties"); err != nil {
			return fmt.Errorf("deleting properties: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM table_objects"); err != nil {
			return fmt.Errorf("deleting table objects: %w", err)
		}
		return nil
	}
}

func hydrateTableObject(s scanner) (*types.TableObjectEntity, error) {
	var e types.TableObjectEntity
	if err := s.Scan(&e.ID, &e.TableID, &e.UUID, &e.Visibility, &e.UploadStatus, &e.IsFile, &e.Etag); err != nil {
		return nil, err
	}
	return &e, nil
}
