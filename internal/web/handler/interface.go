// Package handler holds what the http handlers of items-api share.
package handler

import (
	"context"

	"github.com/gofiber/fiber/v3"
	"gorm.io/gorm"

	"github.com/cloudrun-items/items-api/internal/config"
)

// Sessions hands out one database session per request.
// A nil session means the database is not connected.
type Sessions interface {
	Session(ctx context.Context) *gorm.DB
}

// Service is the interface for a web handler service.
type Service interface {
	Init(app *fiber.App, cfg *config.Config, db Sessions) error
}
