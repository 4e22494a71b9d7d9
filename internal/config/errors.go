package config

import (
	"errors"
)

var (
	// ErrEmptyURL error if config webserver.URL is empty.
	ErrEmptyURL = errors.New("config webserver.url can not be empty")

	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("config webserver.port listening port can not be 0")

	// ErrUnknownEngine error if config db.engine is not supported.
	ErrUnknownEngine = errors.New("config db.engine must be one of postgres, mysql, sqlite")

	// ErrUnknownIPType error if config db.iptype is not supported.
	ErrUnknownIPType = errors.New("config db.iptype must be one of auto, private, public, psc")
)
