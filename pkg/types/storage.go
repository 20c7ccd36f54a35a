package types

import "context"

// TableObjectStore provides point and list access to table object rows.
type TableObjectStore interface {
	// SaveTableObject inserts e when no row has its UUID, together with
	// props, or updates the existing row's mutable columns. The check and
	// the write happen in one transaction. props are ignored on update.
	SaveTableObject(ctx context.Context, e *TableObjectEntity, props []*PropertyEntity) (SaveResult, error)

	// InsertTableObject inserts a new row together with props in one
	// transaction. Returns ErrDuplicateUUID if the UUID is already present.
	InsertTableObject(ctx context.Context, e *TableObjectEntity, props []*PropertyEntity) (SaveResult, error)

	// UpdateTableObject rewrites visibility, upload status, is_file and etag
	// of the row with e.ID. A missing row is not an error.
	UpdateTableObject(ctx context.Context, e *TableObjectEntity) error

	// GetTableObject returns the row with the given UUID or ErrNotFound.
	GetTableObject(ctx context.Context, uuid string) (*TableObjectEntity, error)

	// GetTableObjectByID returns the row with the given id or ErrNotFound.
	GetTableObjectByID(ctx context.Context, id int64) (*TableObjectEntity, error)

	TableObjectExists(ctx context.Context, uuid string) (bool, error)

	// ListTableObjects returns matching rows in insertion order.
	ListTableObjects(ctx context.Context, filter TableObjectFilter) ([]*TableObjectEntity, error)

	// ListPendingTableObjects returns rows whose upload status is New,
	// Updated or Deleted, in insertion order.
	ListPendingTableObjects(ctx context.Context) ([]*TableObjectEntity, error)

	// DeleteTableObject removes the row and its properties in one
	// transaction. A missing row is not an error.
	DeleteTableObject(ctx context.Context, id int64) error

	// DeleteAllTableObjects removes every table object and property.
	DeleteAllTableObjects(ctx context.Context) error
}

// PropertyStore provides access to property rows.
type PropertyStore interface {
	// InsertProperty inserts p and returns its id. Returns
	// ErrDuplicateProperty if the owner already has a property named p.Name.
	InsertProperty(ctx context.Context, p *PropertyEntity) (int64, error)

	// UpdateProperty rewrites the value of the row with p.ID. A missing row
	// is not an error.
	UpdateProperty(ctx context.Context, p *PropertyEntity) error

	GetProperty(ctx context.Context, id int64) (*PropertyEntity, error)
	PropertyExists(ctx context.Context, id int64) (bool, error)

	// ListProperties returns the properties owned by tableObjectID in
	// insertion order. Returns an empty slice, not nil, when there are none.
	ListProperties(ctx context.Context, tableObjectID int64) ([]*PropertyEntity, error)
}

// SettingsStore is a small key/value table for client state such as the
// stored session token.
type SettingsStore interface {
	// GetSetting returns ErrNotFound when key is unset.
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
	DeleteSetting(ctx context.Context, key string) error
}

// Storage is the storage engine boundary. Callers attach to a backend, use
// the stores, and detach when done. Every store method returns ErrDetached
// while the backend is not attached.
type Storage interface {
	TableObjectStore
	PropertyStore
	SettingsStore

	// Attach connects to the backend described by config, creating
	// DataDir and migrating the schema as needed. Returns
	// ErrAlreadyAttached if called while attached.
	Attach(config Config) error

	// Detach releases backend resources. Multiple calls succeed.
	Detach() error

	// Export writes a JSONL snapshot of all rows into dir.
	Export(ctx context.Context, dir string) error

	// Import replaces all rows with the JSONL snapshot found in dir.
	Import(ctx context.Context, dir string) error
}

// Authenticator reports whether a valid sync credential is available.
type Authenticator interface {
	IsAuthenticated(ctx context.Context) bool
}

// Syncer pushes local changes to the remote service.
type Syncer interface {
	SyncPush(ctx context.Context) error
}
