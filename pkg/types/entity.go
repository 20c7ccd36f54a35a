package types

// TableObjectEntity is the storage row for a table object. Visibility and
// UploadStatus hold the persisted integer codes.
type TableObjectEntity struct {
	ID           int64  `json:"id"`
	TableID      int    `json:"table_id"`
	UUID         string `json:"uuid"`
	Visibility   int    `json:"visibility"`
	UploadStatus int    `json:"upload_status"`
	IsFile       bool   `json:"is_file"`
	Etag         string `json:"etag"`
}

// PropertyEntity is the storage row for a property. TableObjectID references
// the owning TableObjectEntity.ID.
type PropertyEntity struct {
	ID            int64  `json:"id"`
	TableObjectID int64  `json:"table_object_id"`
	Name          string `json:"name"`
	Value         string `json:"value"`
}

// SaveResult reports the outcome of Storage.SaveTableObject.
type SaveResult struct {
	ID          int64   // Row id of the table object.
	Created     bool    // True when the row was inserted rather than updated.
	PropertyIDs []int64 // Ids assigned to the properties inserted with a new row, in order.
}

// TableObjectFilter narrows ListTableObjects. A nil TableID matches every
// table.
type TableObjectFilter struct {
	TableID        *int
	IncludeDeleted bool
}
