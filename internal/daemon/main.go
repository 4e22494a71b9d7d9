// Package daemon runs items-api: it connects the database before the
// listener starts and releases everything on shutdown.
package daemon

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/cloudrun-items/items-api/internal/config"
	"github.com/cloudrun-items/items-api/internal/db/engine"
	"github.com/cloudrun-items/items-api/internal/web"
)

// ErrNilConfig is returned by New without a config.
var ErrNilConfig = errors.New("config is nil")

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	engine     *engine.Engine
	webService *web.Service
}

// New connects the database and builds the web service. It blocks until
// the database is verified or the attempt failed. A failed attempt is
// logged and the daemon runs without a database; the item routes then
// answer 503.
func New(ctx context.Context, cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	eng, err := engine.Open(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Str("engine", cfg.DB.Engine).Msg("database is not connected, serving without it")
	}

	if err = eng.RegisterMetrics(prometheus.DefaultRegisterer); err != nil {
		log.Warn().Err(err).Msg("database metrics are not exported")
	}

	webService, err := web.New(cfg, eng)
	if err != nil {
		_ = eng.Close()
		return nil, errors.Wrap(err, "failed to init web service")
	}

	return &Daemon{
		cfg:        cfg,
		engine:     eng,
		webService: webService,
	}, nil
}

// Connected reports whether the database was reached at startup.
func (d *Daemon) Connected() bool {
	return d.engine != nil
}

// Start runs the daemon until SIGINT or SIGTERM.
func (d *Daemon) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// a second signal during the drain terminates the process
	context.AfterFunc(ctx, stop)

	return d.Run(ctx)
}

// Run serves until ctx is done or the listener fails. The web server is
// stopped first, then the database and connector are closed.
func (d *Daemon) Run(ctx context.Context) error {
	listenErr := make(chan error, 1)

	go func() {
		listenErr <- d.webService.Start(fmt.Sprintf(":%d", d.cfg.Webserver.Port))
	}()

	var err error

	select {
	case err = <-listenErr:
		if err != nil {
			err = errors.Wrap(err, "fiber listen error")
		}
	case <-ctx.Done():
		log.Info().Msg("shutdown request")

		if shutdownErr := d.webService.Shutdown(); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to stop http server")
		}

		err = <-listenErr
	}

	if closeErr := d.engine.Close(); closeErr != nil {
		log.Error().Err(closeErr).Msg("failed to close database")
	}

	return err
}
