// Package item provides the persistence operations on items.
package item

import (
	"errors"

	"gorm.io/gorm"

	"github.com/cloudrun-items/items-api/internal/db/models"
)

var (
	// ErrNotConnected is returned when there is no database session.
	ErrNotConnected = errors.New("database not connected")
	// ErrNameEmpty is returned when attempting to create an item without a name.
	ErrNameEmpty = errors.New("item name cannot be empty")
)

// Create inserts one item and returns the persisted row.
func Create(db *gorm.DB, name string) (*models.Item, error) {
	if db == nil {
		return nil, ErrNotConnected
	}

	if name == "" {
		return nil, ErrNameEmpty
	}

	item := &models.Item{Name: name}

	result := db.Create(item)
	if result.Error != nil {
		return nil, result.Error
	}

	return item, nil
}

// GetAll retrieves all items. The order is the one of the database.
func GetAll(db *gorm.DB) ([]models.Item, error) {
	if db == nil {
		return nil, ErrNotConnected
	}

	items := make([]models.Item, 0)

	result := db.Find(&items)
	if result.Error != nil {
		return nil, result.Error
	}

	return items, nil
}
