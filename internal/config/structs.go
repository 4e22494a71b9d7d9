package config

import (
	"github.com/cloudrun-items/items-api/internal/logger"
)

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Runtime   Runtime
	Title     string
	Webserver Webserver
}

// Runtime describes the platform the process runs on.
// Cloud Run sets K_SERVICE and K_REVISION.
type Runtime struct {
	Service  string
	Revision string
}

// Managed reports whether the process runs on a managed runtime.
func (r Runtime) Managed() bool {
	return r.Service != ""
}

// Webserver implement webserver settings.
type Webserver struct {
	DisableRecover bool   // disable recover middleware
	MetricsEnabled bool   // expose /metrics
	Port           int    // listening port for the webserver
	ShutDownTime   int    // seconds to answer 503 on /checkalive before shutdown
	URL            string // base url for the webserver
	Greeting       string // returned by GET /
	CORS           CORS
}

// CORS settings of the webserver.
type CORS struct {
	AllowOrigins     []string
	AllowMethods     []string
	AllowHeaders     []string
	AllowCredentials bool
}
