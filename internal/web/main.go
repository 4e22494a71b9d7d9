// Package web wires the fiber app of items-api: middleware, health check,
// metrics and the item handlers.
package web

import (
	"errors"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/cors"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/cloudrun-items/items-api/internal/config"
	fiberlogger "github.com/cloudrun-items/items-api/internal/logger/adapter/fiber"
	"github.com/cloudrun-items/items-api/internal/web/handler"
	"github.com/cloudrun-items/items-api/internal/web/handler/item"
	"github.com/cloudrun-items/items-api/internal/web/handler/root"
)

const (
	readBufferSize  = 8192
	shutdownTimeout = 10 * time.Second
)

// ErrNilConfig is returned by New without a config.
var ErrNilConfig = errors.New("config cannot be nil")

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool

	mu       sync.Mutex
	ln       net.Listener
	stopping bool
	ready    chan struct{}
}

// New creates the web service and registers all routes. db hands out the
// per request database sessions.
func New(cfg *config.Config, db handler.Sessions) (*Service, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	app := fiber.New(
		fiber.Config{
			ReadBufferSize: readBufferSize,
			AppName:        cfg.Title,
			CaseSensitive:  true,
			Immutable:      true,
			ErrorHandler:   handler.ErrorHandler,
		},
	)

	s := &Service{
		App:          app,
		cfg:          cfg,
		fastShutDown: cfg.DevMode || cfg.Webserver.ShutDownTime <= 0,
		ready:        make(chan struct{}),
	}
	s.alive.Store(true)

	if !cfg.Webserver.DisableRecover {
		app.Use(recoverer.New(recoverer.Config{EnableStackTrace: cfg.DevMode}))
	}

	app.Use(fiberlogger.New(fiberlogger.Config{
		Config:        cfg.Log,
		CheckAliveURI: handler.CheckAlivePath,
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Webserver.CORS.AllowOrigins,
		AllowMethods:     cfg.Webserver.CORS.AllowMethods,
		AllowHeaders:     cfg.Webserver.CORS.AllowHeaders,
		AllowCredentials: cfg.Webserver.CORS.AllowCredentials,
	}))

	app.Get(handler.CheckAlivePath, s.checkAlive)

	if cfg.Webserver.MetricsEnabled {
		app.Get(handler.MetricsPath, adaptor.HTTPHandler(promhttp.Handler()))
	}

	for _, h := range []handler.Service{root.New(), item.New()} {
		if err := h.Init(app, cfg, db); err != nil {
			return nil, err //nolint:wrapcheck
		}
	}

	return s, nil
}

// checkAlive answers 503 while the service drains before shutdown.
func (s *Service) checkAlive(c fiber.Ctx) error {
	if !s.alive.Load() {
		return c.SendStatus(fiber.StatusServiceUnavailable)
	}

	return c.SendString("OK")
}

// Start listens on addr and blocks until the server is shut down.
// Start returns nil at once if Shutdown was called before.
func (s *Service) Start(addr string) error {
	s.mu.Lock()
	if s.stopping {
		s.mu.Unlock()
		return nil
	}

	ln, err := net.Listen(fiber.NetworkTCP, addr)
	if err != nil {
		s.mu.Unlock()
		return err //nolint:wrapcheck
	}

	s.ln = ln
	close(s.ready)
	s.mu.Unlock()

	log.Info().Str("addr", ln.Addr().String()).Msg("http server is listening")

	err = s.App.Listener(ln, fiber.ListenConfig{DisableStartupMessage: true})
	if err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, net.ErrClosed) {
		return err //nolint:wrapcheck
	}

	return nil
}

// Ready is closed once the listener is bound.
func (s *Service) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the bound listener address, nil before Ready.
func (s *Service) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ln == nil {
		return nil
	}

	return s.ln.Addr()
}

// Shutdown stops the http server gracefully.
func (s *Service) Shutdown() error {
	// Graceful shutdown for reverse proxies: set status to fail, so checkalive returns fail.
	s.alive.Store(false)

	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this instance from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	log.Info().Msg("stopping http server ...")

	s.mu.Lock()
	s.stopping = true
	ln := s.ln
	s.mu.Unlock()

	err := s.App.ShutdownWithTimeout(shutdownTimeout)

	// fiber only knows the listener once it serves; closing it here also
	// stops a server that was about to start.
	if ln != nil {
		_ = ln.Close()
	}

	if err != nil {
		return err //nolint:wrapcheck
	}

	log.Info().Msg("http server was stopped ... good bye...")

	return nil
}
