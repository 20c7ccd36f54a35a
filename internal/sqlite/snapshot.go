package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mesh-intelligence/davstore/pkg/types"
)

// Snapshot file names written by Export and read by Import.
const (
	TableObjectsJSONL = "table_objects.jsonl"
	PropertiesJSONL   = "properties.jsonl"
)

// Export writes every table object and property row to JSONL files in dir,
// creating dir if needed. Settings are not exported.
func (b *Backend) Export(ctx context.Context, dir string) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	db, err := b.conn()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating export dir: %w", err)
	}

	objects, err := exportRows(ctx, db,
		"SELECT "+tableObjectColumns+" FROM table_objects ORDER BY id", hydrateTableObject)
	if err != nil {
		return fmt.Errorf("exporting table objects: %w", err)
	}
	if err := writeRecords(filepath.Join(dir, TableObjectsJSONL), objects); err != nil {
		return err
	}

	props, err := exportRows(ctx, db,
		"SELECT id, table_object_id, name, value FROM properties ORDER BY id", hydrateProperty)
	if err != nil {
		return fmt.Errorf("exporting properties: %w", err)
	}
	return writeRecords(filepath.Join(dir, PropertiesJSONL), props)
}

func exportRows[T any](ctx context.Context, db *sql.DB, query string, hydrate func(scanner) (T, error)) ([]T, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []T
	for rows.Next() {
		v, err := hydrate(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, rows.Err()
}

func writeRecords[T any](path string, values []T) error {
	records, err := marshalAll(values)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	if err := writeJSONL(path, records); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Import replaces all table objects and properties with the snapshot in dir.
// Row ids are preserved. A missing properties file imports no properties;
// a missing table objects file is an error. The replacement is atomic.
func (b *Backend) Import(ctx context.Context, dir string) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	objects, err := readRecords[types.TableObjectEntity](filepath.Join(dir, TableObjectsJSONL))
	if err != nil {
		return err
	}
	props, err := readRecords[types.PropertyEntity](filepath.Join(dir, PropertiesJSONL))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	return b.withTx(ctx, func(tx *sql.Tx) error {
		if err := deleteAllRows(ctx)(tx); err != nil {
			return err
		}
		for _, e := range objects {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO table_objects ("+tableObjectColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
				e.ID, e.TableID, e.UUID, e.Visibility, e.UploadStatus, e.IsFile, e.Etag,
			); err != nil {
				if isUniqueViolation(err) {
					return fmt.Errorf("importing table object %s: %w", e.UUID, types.ErrDuplicateUUID)
				}
				return fmt.Errorf("importing table object %s: %w", e.UUID, err)
			}
		}
		for _, p := range props {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO properties (id, table_object_id, name, value) VALUES (?, ?, ?, ?)",
				p.ID, p.TableObjectID, p.Name, p.Value,
			); err != nil {
				return fmt.Errorf("importing property %d: %w", p.ID, err)
			}
		}
		return nil
	})
}

func readRecords[T any](path string) ([]*T, error) {
	records, err := readJSONL(path)
	if err != nil {
		return nil, err
	}
	result := make([]*T, 0, len(records))
	for _, rec := range records {
		v := new(T)
		if err := json.Unmarshal(rec, v); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
		}
		result = append(result, v)
	}
	return result, nil
}
