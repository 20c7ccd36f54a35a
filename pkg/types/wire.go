package types

import "github.com/google/uuid"

// TableObjectData is the wire form of a table object. Properties are
// flattened into a name to value map.
type TableObjectData struct {
	ID         int64             `json:"id"`
	TableID    int               `json:"table_id"`
	Visibility int               `json:"visibility"`
	UUID       uuid.UUID         `json:"uuid"`
	File       bool              `json:"file"`
	Properties map[string]string `json:"properties"`
	Etag       string            `json:"etag"`
}
