package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/davstore/pkg/types"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// InsertProperty inserts p and returns the assigned id.
// Returns ErrDuplicateProperty if the owner already has a property with the
// same name, ErrNotFound if the owner does not exist.
func (b *Backend) InsertProperty(ctx context.Context, p *types.PropertyEntity) (int64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	db, err := b.conn()
	if err != nil {
		return 0, err
	}
	return insertProperty(ctx, db, p.TableObjectID, p.Name, p.Value)
}

func insertProperty(ctx context.Context, db dbtx, owner int64, name, value string) (int64, error) {
	if name == "" {
		return 0, types.ErrInvalidName
	}
	r, err := db.ExecContext(ctx,
		"INSERT INTO properties (table_object_id, name, value) VALUES (?, ?, ?)",
		owner, name, value,
	)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return 0, types.ErrDuplicateProperty
		case isForeignKeyViolation(err):
			return 0, types.ErrNotFound
		}
		return 0, fmt.Errorf("inserting property %s of table object %d: %w", name, owner, err)
	}
	return r.LastInsertId()
}

// UpdateProperty rewrites the value of the row with p.ID. Zero rows affected
// is not an error.
func (b *Backend) UpdateProperty(ctx context.Context, p *types.PropertyEntity) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	db, err := b.conn()
	if err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx,
		"UPDATE properties SET value = ? WHERE id = ?", p.Value, p.ID,
	); err != nil {
		return fmt.Errorf("updating property %d: %w", p.ID, err)
	}
	return nil
}

// GetProperty returns the property with the given id or ErrNotFound.
func (b *Backend) GetProperty(ctx context.Context, id int64) (*types.PropertyEntity, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	db, err := b.conn()
	if err != nil {
		return nil, err
	}

	row := db.QueryRowContext(ctx,
		"SELECT id, table_object_id, name, value FROM properties WHERE id = ?", id)
	p, err := hydrateProperty(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("getting property %d: %w", id, err)
	}
	return p, nil
}

func (b *Backend) PropertyExists(ctx context.Context, id int64) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	db, err := b.conn()
	if err != nil {
		return false, err
	}

	var exists bool
	if err := db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM properties WHERE id = ?)", id,
	).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking property existence: %w", err)
	}
	return exists, nil
}

// ListProperties returns the properties of one table object ordered by id.
func (b *Backend) ListProperties(ctx context.Context, tableObjectID int64) ([]*types.PropertyEntity, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	db, err := b.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		"SELECT id, table_object_id, name, value FROM properties WHERE table_object_id = ? ORDER BY id",
		tableObjectID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying properties of table object %d: %w", tableObjectID, err)
	}
	defer rows.Close()

	result := []*types.PropertyEntity{}
	for rows.Next() {
		p, err := hydrateProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning property: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating properties: %w", err)
	}
	return result, nil
}

func hydrateProperty(s scanner) (*types.PropertyEntity, error) {
	var p types.PropertyEntity
	if err := s.Scan(&p.ID, &p.TableObjectID, &p.Name, &p.Value); err != nil {
		return nil, err
	}
	return &p, nil
}
