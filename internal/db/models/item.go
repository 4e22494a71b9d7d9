// Package models contains database model definitions.
package models

// Item is a named entry of the items table.
// Items are created once and never updated or deleted.
type Item struct {
	ID   uint64 `gorm:"primaryKey;index" json:"id"`
	Name string `gorm:"size:255;index" json:"name"`
}

// All returns every model the schema is created from.
func All() []any {
	return []any{&Item{}}
}
