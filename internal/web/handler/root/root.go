// Package root serves the greeting on GET /.
package root

import (
	"github.com/gofiber/fiber/v3"

	"github.com/cloudrun-items/items-api/internal/config"
	"github.com/cloudrun-items/items-api/internal/web/handler"
)

// Service is the root handler service.
type Service struct {
	greeting string
}

// New returns a root handler service.
func New() *Service {
	return &Service{}
}

// Init registers GET /. The database is not used.
func (s *Service) Init(app *fiber.App, cfg *config.Config, _ handler.Sessions) error {
	if app == nil || cfg == nil {
		return handler.ErrNilACD
	}

	s.greeting = cfg.Webserver.Greeting
	app.Get(handler.RootPath, s.Get)

	return nil
}

// Get returns the static greeting.
func (s *Service) Get(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"Hello": s.greeting})
}
