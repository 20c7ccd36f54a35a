package dav

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/davstore/pkg/types"
)

// TableObject is a record in a logical table, with string properties and an
// optional attached file.
type TableObject struct {
	ID           int64
	TableID      int
	UUID         uuid.UUID
	Visibility   types.Visibility
	UploadStatus types.UploadStatus
	IsFile       bool
	Etag         string
	Properties   []*Property

	// File is the attachment path, set only when IsFile and the file exists.
	File string

	db *Database
}

// NewTableObject returns an unsaved object in state New. Use it with
// Database.CreateTableObject; the Create methods of Database construct and
// persist in one step.
func NewTableObject(id uuid.UUID, tableID int, props ...*Property) *TableObject {
	return &TableObject{
		TableID:      tableID,
		UUID:         id,
		Visibility:   types.VisibilityPrivate,
		UploadStatus: types.UploadStatusNew,
		Properties:   append([]*Property{}, props...),
	}
}

// Create persists a new object with a random uuid in tableID.
func (db *Database) Create(ctx context.Context, tableID int) (*TableObject, error) {
	return db.CreateWithUUID(ctx, uuid.New(), tableID)
}

// CreateWithUUID persists a new object with the given uuid in tableID. If
// the uuid is already stored, that row's mutable fields are overwritten.
func (db *Database) CreateWithUUID(ctx context.Context, id uuid.UUID, tableID int) (*TableObject, error) {
	if err := validateTableID(tableID); err != nil {
		return nil, err
	}
	t := NewTableObject(id, tableID)
	t.db = db
	if err := t.save(ctx); err != nil {
		return nil, err
	}
	db.syncPush(ctx)
	return t, nil
}

// CreateWithFile persists a new file object and copies the file at path
// into its attachment location.
func (db *Database) CreateWithFile(ctx context.Context, id uuid.UUID, tableID int, path string) (*TableObject, error) {
	if err := validateTableID(tableID); err != nil {
		return nil, err
	}
	t := NewTableObject(id, tableID)
	t.IsFile = true
	t.db = db
	if err := t.save(ctx); err != nil {
		return nil, err
	}
	if err := t.SetFileFromPath(ctx, path); err != nil {
		return nil, err
	}
	return t, nil
}

// CreateWithProperties persists a new object together with props. If the
// uuid is already stored, props are merged into the stored object by name.
func (db *Database) CreateWithProperties(ctx context.Context, id uuid.UUID, tableID int, props []*Property) (*TableObject, error) {
	if err := validateTableID(tableID); err != nil {
		return nil, err
	}
	t := NewTableObject(id, tableID, props...)
	t.db = db
	if err := t.saveWithProperties(ctx); err != nil {
		return nil, err
	}
	db.syncPush(ctx)
	return t, nil
}

// validateTableID rejects table ids that no remote table can have.
func validateTableID(tableID int) error {
	if tableID < 1 {
		return fmt.Errorf("table id %d: %w", tableID, types.ErrInvalidTableID)
	}
	return nil
}

func (t *TableObject) bound() error {
	if t.db == nil {
		return fmt.Errorf("table object %s: %w", t.UUID, ErrNotSaved)
	}
	return nil
}

func (t *TableObject) logFields() []zap.Field {
	return []zap.Field{
		zap.String("uuid", t.UUID.String()),
		zap.Int("table_id", t.TableID),
		zap.Stringer("status", t.UploadStatus),
	}
}

// save inserts t or updates the row with the same uuid, atomically.
func (t *TableObject) save(ctx context.Context) error {
	res, err := t.db.store.SaveTableObject(ctx, t.Entity(), nil)
	if err != nil {
		return fmt.Errorf("saving table object %s: %w", t.UUID, err)
	}
	t.ID = res.ID
	return nil
}

// saveWithProperties inserts t with all of its properties. When the uuid
// is already stored, t takes over the stored row and the held properties
// are merged into the stored ones by name.
func (t *TableObject) saveWithProperties(ctx context.Context) error {
	held := t.Properties
	res, err := t.db.store.InsertTableObject(ctx, t.Entity(), propertyEntities(held))
	if err == nil {
		t.bindInserted(t.db, res)
		return nil
	}
	if !errors.Is(err, types.ErrDuplicateUUID) {
		return fmt.Errorf("saving table object %s: %w", t.UUID, err)
	}

	stored, err := t.db.store.GetTableObject(ctx, t.UUID.String())
	if err != nil {
		return fmt.Errorf("reading table object %s: %w", t.UUID, err)
	}
	t.adopt(stored)
	if err := t.Load(ctx); err != nil {
		return err
	}
	changed := false
	for _, p := range held {
		c, err := t.setProperty(ctx, p.Name, p.Value)
		if err != nil {
			return err
		}
		changed = changed || c
	}
	if !changed {
		return nil
	}
	t.markUpdated()
	return t.save(ctx)
}

// adopt copies the persisted fields of e into t.
func (t *TableObject) adopt(e *types.TableObjectEntity) {
	t.ID = e.ID
	t.TableID = e.TableID
	t.Visibility = types.VisibilityFromInt(e.Visibility)
	t.UploadStatus = types.UploadStatusFromInt(e.UploadStatus)
	t.IsFile = e.IsFile
	t.Etag = e.Etag
}

// bindInserted attaches t and its properties to db after an insert.
func (t *TableObject) bindInserted(db *Database, res types.SaveResult) {
	t.ID = res.ID
	t.db = db
	for i, p := range t.Properties {
		p.TableObjectID = res.ID
		p.db = db
		if i < len(res.PropertyIDs) {
			p.ID = res.PropertyIDs[i]
		}
	}
}

// markUpdated flips a fully synced object to Updated after a local change.
func (t *TableObject) markUpdated() {
	if t.UploadStatus == types.UploadStatusUpToDate && !t.IsFile {
		t.UploadStatus = types.UploadStatusUpdated
	}
}

// GetPropertyValue returns the loaded value of the named property.
func (t *TableObject) GetPropertyValue(name string) (string, bool) {
	if p := t.property(name); p != nil {
		return p.Value, true
	}
	return "", false
}

func (t *TableObject) property(name string) *Property {
	for _, p := range t.Properties {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// SetPropertyValue creates or updates the named property. Setting the
// current value does nothing. Otherwise a fully synced non-file object
// becomes Updated and the object is saved.
func (t *TableObject) SetPropertyValue(ctx context.Context, name, value string) error {
	if err := t.bound(); err != nil {
		return err
	}
	changed, err := t.setProperty(ctx, name, value)
	if err != nil || !changed {
		return err
	}
	t.markUpdated()
	if err := t.save(ctx); err != nil {
		return err
	}
	t.db.syncPush(ctx)
	return nil
}

// setProperty writes one property without touching the owner's row.
func (t *TableObject) setProperty(ctx context.Context, name, value string) (bool, error) {
	if name == "" {
		return false, types.ErrInvalidName
	}
	if p := t.property(name); p != nil {
		if p.Value == value {
			return false, nil
		}
		return true, p.SetValue(ctx, value)
	}
	p, err := t.db.CreateProperty(ctx, t.ID, name, value)
	if err != nil {
		return false, err
	}
	t.Properties = append(t.Properties, p)
	return true, nil
}

// ChangeUploadStatus sets and saves a new upload status. Setting the
// current status does nothing.
func (t *TableObject) ChangeUploadStatus(ctx context.Context, status types.UploadStatus) error {
	if status == t.UploadStatus {
		return nil
	}
	if err := t.bound(); err != nil {
		return err
	}
	if t.UploadStatus == types.UploadStatusDeleted {
		t.db.log.Debug("table object leaves deleted state",
			append(t.logFields(), zap.Stringer("to", status))...)
	}
	prev := t.UploadStatus
	t.UploadStatus = status
	if err := t.save(ctx); err != nil {
		t.UploadStatus = prev
		return err
	}
	t.db.syncPush(ctx)
	return nil
}

// Load replaces the in-memory properties with the stored ones and, for
// file objects, locates the attachment.
func (t *TableObject) Load(ctx context.Context) error {
	if err := t.bound(); err != nil {
		return err
	}
	if err := t.loadProperties(ctx); err != nil {
		return err
	}
	return t.loadFile()
}

func (t *TableObject) loadProperties(ctx context.Context) error {
	props, err := t.db.GetPropertiesOfTableObject(ctx, t.ID)
	if err != nil {
		return fmt.Errorf("loading properties of table object %s: %w", t.UUID, err)
	}
	t.Properties = props
	return nil
}

// Delete removes the object. Without a sync credential it is removed
// immediately and only the in-memory copy is marked Deleted. With one, the
// attachment content is removed and the object is marked Deleted so the
// sync layer can propagate the deletion.
func (t *TableObject) Delete(ctx context.Context) error {
	if err := t.bound(); err != nil {
		return err
	}
	if !t.db.auth.IsAuthenticated(ctx) {
		if err := t.DeleteImmediately(ctx); err != nil {
			return err
		}
		t.UploadStatus = types.UploadStatusDeleted
		return nil
	}

	if t.IsFile && t.File != "" {
		if err := t.db.removeFile(t.File); err != nil {
			return err
		}
		t.File = ""
	}
	return t.ChangeUploadStatus(ctx, types.UploadStatusDeleted)
}

// DeleteImmediately removes the attachment, the row and its properties.
func (t *TableObject) DeleteImmediately(ctx context.Context) error {
	if err := t.bound(); err != nil {
		return err
	}
	if err := t.db.DeleteTableObjectImmediately(ctx, t.UUID); err != nil {
		return err
	}
	t.File = ""
	return nil
}
