package dav

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/davstore/pkg/types"
)

// Database mediates every storage operation for table objects and
// properties and owns the attachment directory.
type Database struct {
	store   types.Storage
	fs      afero.Fs
	dataDir string
	auth    types.Authenticator
	syncer  types.Syncer
	log     *zap.Logger
}

// Option configures a Database.
type Option func(*Database)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(db *Database) { db.log = l }
}

// WithAuthenticator sets the credential check used by TableObject.Delete.
// The default never reports a credential.
func WithAuthenticator(a types.Authenticator) Option {
	return func(db *Database) { db.auth = a }
}

// WithSyncer sets the hook invoked after local changes. The default does
// nothing.
func WithSyncer(s types.Syncer) Option {
	return func(db *Database) { db.syncer = s }
}

// WithFs sets the file system used for attachments. The default is the OS
// file system.
func WithFs(fs afero.Fs) Option {
	return func(db *Database) { db.fs = fs }
}

// New returns a Database that persists through store, which must already be
// attached, and keeps attachments under dataDir.
func New(store types.Storage, dataDir string, opts ...Option) *Database {
	db := &Database{
		store:   store,
		fs:      afero.NewOsFs(),
		dataDir: dataDir,
		auth:    anonymous{},
		syncer:  noopSyncer{},
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

type anonymous struct{}

func (anonymous) IsAuthenticated(context.Context) bool { return false }

type noopSyncer struct{}

func (noopSyncer) SyncPush(context.Context) error { return nil }

// syncPush runs the sync hook. Failures are logged, never returned: local
// state is already committed and the next push retries.
func (db *Database) syncPush(ctx context.Context) {
	if err := db.syncer.SyncPush(ctx); err != nil {
		db.log.Warn("sync push failed", zap.Error(err))
	}
}

// CreateTableObject inserts t as a new row without its properties and
// returns the assigned id. t is bound to db on success.
// Returns ErrDuplicateUUID if a row with t.UUID exists.
func (db *Database) CreateTableObject(ctx context.Context, t *TableObject) (int64, error) {
	if err := validateTableID(t.TableID); err != nil {
		return 0, err
	}
	res, err := db.store.InsertTableObject(ctx, t.Entity(), nil)
	if err != nil {
		return 0, fmt.Errorf("creating table object %s: %w", t.UUID, err)
	}
	t.ID = res.ID
	t.db = db
	db.log.Debug("table object created", t.logFields()...)
	return res.ID, nil
}

// CreateTableObjectWithProperties inserts t and all of t.Properties in one
// transaction and returns the assigned id. Property ids and owner ids are
// filled in on success.
func (db *Database) CreateTableObjectWithProperties(ctx context.Context, t *TableObject) (int64, error) {
	if err := validateTableID(t.TableID); err != nil {
		return 0, err
	}
	res, err := db.store.InsertTableObject(ctx, t.Entity(), propertyEntities(t.Properties))
	if err != nil {
		return 0, fmt.Errorf("creating table object %s: %w", t.UUID, err)
	}
	t.bindInserted(db, res)
	db.log.Debug("table object created", append(t.logFields(), zap.Int("properties", len(t.Properties)))...)
	return res.ID, nil
}

// GetTableObject returns the object with the given uuid with its properties
// and file loaded, or nil if there is none.
func (db *Database) GetTableObject(ctx context.Context, id uuid.UUID) (*TableObject, error) {
	e, err := db.store.GetTableObject(ctx, id.String())
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return db.hydrate(ctx, e)
}

// GetAllTableObjects returns every object in insertion order, skipping
// Deleted ones unless includeDeleted is set.
func (db *Database) GetAllTableObjects(ctx context.Context, includeDeleted bool) ([]*TableObject, error) {
	return db.list(ctx, types.TableObjectFilter{IncludeDeleted: includeDeleted})
}

// GetTableObjects is GetAllTableObjects restricted to one table.
func (db *Database) GetTableObjects(ctx context.Context, tableID int, includeDeleted bool) ([]*TableObject, error) {
	return db.list(ctx, types.TableObjectFilter{TableID: &tableID, IncludeDeleted: includeDeleted})
}

// GetPendingTableObjects returns the objects whose local changes have not
// been pushed yet: New, Updated and Deleted ones.
func (db *Database) GetPendingTableObjects(ctx context.Context) ([]*TableObject, error) {
	entities, err := db.store.ListPendingTableObjects(ctx)
	if err != nil {
		return nil, err
	}
	return db.hydrateAll(ctx, entities)
}

func (db *Database) list(ctx context.Context, filter types.TableObjectFilter) ([]*TableObject, error) {
	entities, err := db.store.ListTableObjects(ctx, filter)
	if err != nil {
		return nil, err
	}
	return db.hydrateAll(ctx, entities)
}

func (db *Database) hydrateAll(ctx context.Context, entities []*types.TableObjectEntity) ([]*TableObject, error) {
	result := make([]*TableObject, 0, len(entities))
	for _, e := range entities {
		t, err := db.hydrate(ctx, e)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, nil
}

func (db *Database) hydrate(ctx context.Context, e *types.TableObjectEntity) (*TableObject, error) {
	t, err := TableObjectFromEntity(e)
	if err != nil {
		return nil, err
	}
	t.db = db
	if err := t.Load(ctx); err != nil {
		return nil, err
	}
	return t, nil
}

// UpdateTableObject writes the mutable fields of t to the row with t.ID.
// A missing row is ignored.
func (db *Database) UpdateTableObject(ctx context.Context, t *TableObject) error {
	return db.store.UpdateTableObject(ctx, t.Entity())
}

// UpdateProperty writes p's value to the row with p.ID. A missing row is
// ignored.
func (db *Database) UpdateProperty(ctx context.Context, p *Property) error {
	return db.store.UpdateProperty(ctx, p.Entity())
}

func (db *Database) TableObjectExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return db.store.TableObjectExists(ctx, id.String())
}

func (db *Database) PropertyExists(ctx context.Context, id int64) (bool, error) {
	return db.store.PropertyExists(ctx, id)
}

// CreateProperty persists a new property on the object with id owner.
// Returns ErrDuplicateProperty if owner already has a property named name.
func (db *Database) CreateProperty(ctx context.Context, owner int64, name, value string) (*Property, error) {
	p := &Property{TableObjectID: owner, Name: name, Value: value}
	id, err := db.store.InsertProperty(ctx, p.Entity())
	if err != nil {
		return nil, fmt.Errorf("creating property %s: %w", name, err)
	}
	p.ID = id
	p.db = db
	return p, nil
}

// GetPropertiesOfTableObject returns the properties of the object with id
// owner in insertion order.
func (db *Database) GetPropertiesOfTableObject(ctx context.Context, owner int64) ([]*Property, error) {
	entities, err := db.store.ListProperties(ctx, owner)
	if err != nil {
		return nil, err
	}
	props := make([]*Property, 0, len(entities))
	for _, e := range entities {
		p := PropertyFromEntity(e)
		p.db = db
		props = append(props, p)
	}
	return props, nil
}

// DeleteTableObject removes the object with the given uuid if it is
// already marked Deleted, and marks it Deleted otherwise. An unknown uuid
// is ignored.
func (db *Database) DeleteTableObject(ctx context.Context, id uuid.UUID) error {
	t, err := db.GetTableObject(ctx, id)
	if err != nil || t == nil {
		return err
	}
	if t.UploadStatus == types.UploadStatusDeleted {
		return db.DeleteTableObjectImmediately(ctx, id)
	}
	return t.ChangeUploadStatus(ctx, types.UploadStatusDeleted)
}

// DeleteTableObjectImmediately removes the object with the given uuid, its
// properties and its attachment regardless of upload status. An unknown
// uuid is ignored.
func (db *Database) DeleteTableObjectImmediately(ctx context.Context, id uuid.UUID) error {
	e, err := db.store.GetTableObject(ctx, id.String())
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil
		}
		return err
	}
	if e.IsFile {
		if err := db.removeFile(db.filePath(e.TableID, id)); err != nil {
			return err
		}
	}
	if err := db.store.DeleteTableObject(ctx, e.ID); err != nil {
		return err
	}
	db.log.Debug("table object deleted",
		zap.String("uuid", e.UUID), zap.Int("table_id", e.TableID))
	return nil
}

// DeleteAllTableObjects removes every table object and property. Attachment
// files are left in place.
func (db *Database) DeleteAllTableObjects(ctx context.Context) error {
	return db.store.DeleteAllTableObjects(ctx)
}

// TableFolder returns the attachment directory for tableID, creating it on
// first use.
func (db *Database) TableFolder(tableID int) (string, error) {
	dir := filepath.Join(db.dataDir, strconv.Itoa(tableID))
	if err := db.fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating table folder %s: %w", dir, err)
	}
	return dir, nil
}

// Export writes a JSONL snapshot of all rows into dir.
func (db *Database) Export(ctx context.Context, dir string) error {
	return db.store.Export(ctx, dir)
}

// Import replaces all rows with the snapshot in dir.
func (db *Database) Import(ctx context.Context, dir string) error {
	return db.store.Import(ctx, dir)
}

func (db *Database) filePath(tableID int, id uuid.UUID) string {
	return filepath.Join(db.dataDir, strconv.Itoa(tableID), id.String())
}

// removeFile deletes path, ignoring a file that is already gone.
func (db *Database) removeFile(path string) error {
	if err := db.fs.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing %s: %w", path, err)
	}
	return nil
}
