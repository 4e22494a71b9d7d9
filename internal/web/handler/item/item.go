// Package item serves the items collection.
package item

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/cloudrun-items/items-api/internal/config"
	controller "github.com/cloudrun-items/items-api/internal/db/controller/item"
	"github.com/cloudrun-items/items-api/internal/web/handler"
)

// CreateRequest is the body of POST /items/.
// The name may also be given as query parameter.
type CreateRequest struct {
	Name string `json:"name" validate:"required"`
}

// Service is the items handler service.
type Service struct {
	db        handler.Sessions
	validator *validator.Validate
}

// New returns an items handler service.
func New() *Service {
	return &Service{}
}

// Init registers the items routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db handler.Sessions) error {
	if app == nil || cfg == nil || db == nil {
		return handler.ErrNilACD
	}

	s.db = db
	s.validator = validator.New()

	router := app.Group(handler.ItemsPath)
	router.Get(handler.RootPath, s.List)
	router.Post(handler.RootPath, s.Create)

	return nil
}

// Create stores a new item and returns it with its generated id.
func (s *Service) Create(c fiber.Ctx) error {
	req := new(CreateRequest)

	if len(c.Body()) > 0 {
		if err := c.Bind().Body(req); err != nil {
			return fiber.NewError(fiber.StatusUnprocessableEntity, "invalid request body")
		}
	}

	if req.Name == "" {
		req.Name = c.Query("name")
	}

	if err := s.validator.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		errors.As(err, &validationErrors)

		messages := make([]string, len(validationErrors))
		for i, ve := range validationErrors {
			messages[i] = "field '" + strings.ToLower(ve.Field()) + "' failed validation tag '" + ve.Tag() + "'"
		}

		return fiber.NewError(fiber.StatusUnprocessableEntity, strings.Join(messages, "; "))
	}

	item, err := controller.Create(s.db.Session(c.Context()), req.Name)
	if err != nil {
		return toHTTPError(err)
	}

	log.Debug().Uint64("id", item.ID).Msg("item created")

	return c.JSON(item)
}

// List returns all items.
func (s *Service) List(c fiber.Ctx) error {
	items, err := controller.GetAll(s.db.Session(c.Context()))
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(items)
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, controller.ErrNotConnected):
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	case errors.Is(err, controller.ErrNameEmpty):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
