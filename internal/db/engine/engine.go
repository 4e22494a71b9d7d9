// Package engine builds the pooled database handle of items-api and hands
// out per request sessions.
package engine

import (
	"context"
	"database/sql"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/cloudrun-items/items-api/internal/config"
	"github.com/cloudrun-items/items-api/internal/db/connector"
	"github.com/cloudrun-items/items-api/internal/db/dsn"
	"github.com/cloudrun-items/items-api/internal/db/models"
	"github.com/cloudrun-items/items-api/internal/logger/adapter/stdlogger"
)

const (
	slowQueryThreshold = 200 * time.Millisecond
	memoryDSN          = ":memory:"
)

// ErrUnknownEngine is returned for an unsupported db.engine.
var ErrUnknownEngine = errors.New("unknown database engine")

// Engine owns the connection pool and, if used, the Cloud SQL connector.
type Engine struct {
	db        *gorm.DB
	sqlDB     *sql.DB
	connector *connector.Connector
	name      string

	closeOnce sync.Once
	closeErr  error
}

// Open connects to the configured database, verifies the connection and
// creates the schema if absent. Open blocks for at most db.connecttimeout
// while verifying.
func Open(ctx context.Context, cfg *config.Config) (*Engine, error) {
	var c *connector.Connector

	if cfg.DB.UseConnector() && cfg.DB.Engine != config.EngineSQLite {
		var err error
		if c, err = connector.New(ctx, cfg); err != nil {
			return nil, err //nolint:wrapcheck
		}
	}

	return OpenWithConnector(ctx, cfg, c)
}

// OpenWithConnector is Open with a given connector; a nil connector dials
// db.host and db.port directly. The Engine owns c from now on and closes
// it, also when opening fails.
func OpenWithConnector(ctx context.Context, cfg *config.Config, c *connector.Connector) (*Engine, error) {
	e := &Engine{name: cfg.DB.Engine, connector: c}

	dialector, err := e.dialector(cfg)
	if err != nil {
		_ = e.Close()
		return nil, err
	}

	e.db, err = gorm.Open(dialector, &gorm.Config{
		Logger:               newGormLogger(cfg.Log.SQLLevel),
		DisableAutomaticPing: true,
	})
	if err != nil {
		_ = e.Close()
		return nil, errors.Wrap(err, "failed to open database")
	}

	if e.sqlDB, err = e.db.DB(); err != nil {
		_ = e.Close()
		return nil, errors.Wrap(err, "failed to get connection pool")
	}

	configurePool(e.sqlDB, cfg)

	verifyCtx := ctx
	if cfg.DB.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		verifyCtx, cancel = context.WithTimeout(ctx, cfg.DB.ConnectTimeout)
		defer cancel()
	}

	if err = e.Ping(verifyCtx); err != nil {
		_ = e.Close()
		return nil, err
	}

	if err = e.Migrate(verifyCtx); err != nil {
		_ = e.Close()
		return nil, err
	}

	log.Info().
		Str("engine", cfg.DB.Engine).
		Bool("connector", e.connector != nil).
		Msg("database connection established")

	return e, nil
}

func (e *Engine) dialector(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.DB.Engine {
	case config.EnginePostgres:
		pgxCfg, err := pgx.ParseConfig(dsn.Postgres(cfg))
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse postgres dsn")
		}

		if e.connector != nil {
			c := e.connector
			pgxCfg.DialFunc = func(ctx context.Context, _, addr string) (net.Conn, error) {
				return c.DialAddr(ctx, addr)
			}
		}

		e.sqlDB = stdlib.OpenDB(*pgxCfg)

		return postgres.New(postgres.Config{Conn: e.sqlDB}), nil
	case config.EngineMySQL:
		if e.connector != nil {
			mysql.RegisterDialContext(dsn.MySQLDialNetwork, e.connector.DialAddr)
		}

		return gormmysql.New(gormmysql.Config{
			DSN:                       dsn.MySQL(cfg),
			SkipInitializeWithVersion: true,
		}), nil
	case config.EngineSQLite:
		return sqlite.Open(cfg.DB.Path), nil
	default:
		return nil, errors.Wrap(ErrUnknownEngine, cfg.DB.Engine)
	}
}

func configurePool(sqlDB *sql.DB, cfg *config.Config) {
	pool := cfg.DB.Pool

	// every sqlite :memory: connection is a new empty database
	if cfg.DB.Engine == config.EngineSQLite && strings.Contains(cfg.DB.Path, memoryDSN) {
		pool.MaxOpenConns = 1
		pool.MaxIdleConns = 1
		pool.ConnMaxLifetime = 0
		pool.ConnMaxIdleTime = 0
	}

	sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(pool.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(pool.ConnMaxIdleTime)
}

func newGormLogger(level string) gormlogger.Interface {
	return gormlogger.New(stdlogger.New("gorm"), gormlogger.Config{
		SlowThreshold:             slowQueryThreshold,
		LogLevel:                  sqlLogLevel(level),
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

func sqlLogLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}

// Ping verifies the database is reachable.
func (e *Engine) Ping(ctx context.Context) error {
	if err := e.sqlDB.PingContext(ctx); err != nil {
		return errors.Wrapf(err, "failed to reach %s database", e.name)
	}

	return nil
}

// Migrate creates the tables of all models if they do not exist.
func (e *Engine) Migrate(ctx context.Context) error {
	if err := e.db.WithContext(ctx).AutoMigrate(models.All()...); err != nil {
		return errors.Wrap(err, "failed to migrate database")
	}

	return nil
}

// DB returns the root gorm handle.
func (e *Engine) DB() *gorm.DB {
	return e.db
}

// Session returns a gorm session bound to ctx. A nil Engine yields a nil
// session, which the controllers report as not connected.
func (e *Engine) Session(ctx context.Context) *gorm.DB {
	if e == nil || e.db == nil {
		return nil
	}

	return e.db.WithContext(ctx)
}

// Stats returns the connection pool statistics.
func (e *Engine) Stats() sql.DBStats {
	if e == nil || e.sqlDB == nil {
		return sql.DBStats{}
	}

	return e.sqlDB.Stats()
}

// RegisterMetrics exposes the pool statistics as go_sql_* metrics labelled
// with the engine name. Registering the same engine name twice is not an error.
func (e *Engine) RegisterMetrics(reg prometheus.Registerer) error {
	if e == nil || e.sqlDB == nil {
		return nil
	}

	err := reg.Register(collectors.NewDBStatsCollector(e.sqlDB, e.name))
	if err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return nil
		}

		return errors.Wrap(err, "failed to register database metrics")
	}

	return nil
}

// Close disposes the pool and then the connector. Safe to call twice.
func (e *Engine) Close() error {
	if e == nil {
		return nil
	}

	e.closeOnce.Do(func() {
		if e.sqlDB != nil {
			if err := e.sqlDB.Close(); err != nil {
				e.closeErr = errors.Wrap(err, "failed to close connection pool")
			}
		}

		if e.connector != nil {
			if err := e.connector.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close cloud sql connector")

				if e.closeErr == nil {
					e.closeErr = errors.Wrap(err, "failed to close cloud sql connector")
				}
			}
		}
	})

	return e.closeErr
}
