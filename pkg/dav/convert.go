package dav

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/davstore/pkg/types"
)

// TableObjectFromEntity converts a storage row to an unbound TableObject
// with no properties loaded. Unknown visibility and status codes fall back
// to Private and UpToDate.
func TableObjectFromEntity(e *types.TableObjectEntity) (*TableObject, error) {
	id, err := uuid.Parse(e.UUID)
	if err != nil {
		return nil, fmt.Errorf("table object %d uuid %q: %w", e.ID, e.UUID, types.ErrInvalidUUID)
	}
	return &TableObject{
		ID:           e.ID,
		TableID:      e.TableID,
		UUID:         id,
		Visibility:   types.VisibilityFromInt(e.Visibility),
		UploadStatus: types.UploadStatusFromInt(e.UploadStatus),
		IsFile:       e.IsFile,
		Etag:         e.Etag,
		Properties:   []*Property{},
	}, nil
}

// Entity converts t to its storage row.
func (t *TableObject) Entity() *types.TableObjectEntity {
	return &types.TableObjectEntity{
		ID:           t.ID,
		TableID:      t.TableID,
		UUID:         t.UUID.String(),
		Visibility:   int(t.Visibility),
		UploadStatus: int(t.UploadStatus),
		IsFile:       t.IsFile,
		Etag:         t.Etag,
	}
}

// TableObjectFromData converts the wire form to an unbound TableObject.
// The wire form carries no upload status, so the result is New. Properties
// are ordered by name.
func TableObjectFromData(d types.TableObjectData) *TableObject {
	t := &TableObject{
		ID:           d.ID,
		TableID:      d.TableID,
		UUID:         d.UUID,
		Visibility:   types.VisibilityFromInt(d.Visibility),
		UploadStatus: types.UploadStatusNew,
		IsFile:       d.File,
		Etag:         d.Etag,
		Properties:   make([]*Property, 0, len(d.Properties)),
	}
	names := make([]string, 0, len(d.Properties))
	for name := range d.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		t.Properties = append(t.Properties, &Property{
			TableObjectID: d.ID,
			Name:          name,
			Value:         d.Properties[name],
		})
	}
	return t
}

// Data converts t to the wire form.
func (t *TableObject) Data() types.TableObjectData {
	props := make(map[string]string, len(t.Properties))
	for _, p := range t.Properties {
		props[p.Name] = p.Value
	}
	return types.TableObjectData{
		ID:         t.ID,
		TableID:    t.TableID,
		Visibility: int(t.Visibility),
		UUID:       t.UUID,
		File:       t.IsFile,
		Properties: props,
		Etag:       t.Etag,
	}
}

// PropertyFromEntity converts a storage row to an unbound Property.
func PropertyFromEntity(e *types.PropertyEntity) *Property {
	return &Property{
		ID:            e.ID,
		TableObjectID: e.TableObjectID,
		Name:          e.Name,
		Value:         e.Value,
	}
}

// Entity converts p to its storage row.
func (p *Property) Entity() *types.PropertyEntity {
	return &types.PropertyEntity{
		ID:            p.ID,
		TableObjectID: p.TableObjectID,
		Name:          p.Name,
		Value:         p.Value,
	}
}

func propertyEntities(props []*Property) []*types.PropertyEntity {
	entities := make([]*types.PropertyEntity, 0, len(props))
	for _, p := range props {
		entities = append(entities, p.Entity())
	}
	return entities
}
