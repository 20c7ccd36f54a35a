package dav

import (
	"context"
	"fmt"
)

// Property is a named string value owned by one TableObject.
type Property struct {
	ID            int64
	TableObjectID int64
	Name          string
	Value         string

	db *Database
}

// NewProperty returns an unsaved property for use with
// Database.CreateTableObjectWithProperties.
func NewProperty(name, value string) *Property {
	return &Property{Name: name, Value: value}
}

// SetValue stores value if it differs from the current one. It does not
// change the owner's upload status.
func (p *Property) SetValue(ctx context.Context, value string) error {
	if p.Value == value {
		return nil
	}
	if p.db == nil {
		return fmt.Errorf("property %s: %w", p.Name, ErrNotSaved)
	}
	p.Value = value
	return p.db.UpdateProperty(ctx, p)
}
