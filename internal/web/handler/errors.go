package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
)

// ErrNilACD is returned by Init if app, cfg or db is nil.
var ErrNilACD = errors.New("app, cfg or db is nil")

// Problem is the json error body, {"detail": "..."}.
type Problem struct {
	Detail string `json:"detail"`
}

// ErrorHandler renders every error returned by a handler as Problem.
// Errors that are not a *fiber.Error are internal server errors.
func ErrorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}

	if code >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Int("status", code).Msg("request failed")
	}

	msg := err.Error()
	if fe != nil {
		msg = fe.Message
	}

	return c.Status(code).JSON(Problem{Detail: msg})
}
