// Package connector dials Cloud SQL instances through the Cloud SQL Go
// connector. The connector authenticates with the ambient Google
// credentials and wraps every connection in a TLS tunnel, so no database
// port has to be exposed and no certificates handled by the service.
package connector

import (
	"context"
	"net"
	"sync"

	"cloud.google.com/go/cloudsqlconn"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/cloudrun-items/items-api/internal/config"
	"github.com/cloudrun-items/items-api/internal/logger/adapter/stdlogger"
)

// ErrNoInstance is returned when no instance connection name is configured.
var ErrNoInstance = errors.New("no cloud sql instance connection name configured")

// Dialer is the subset of *cloudsqlconn.Dialer used by the Connector.
type Dialer interface {
	Dial(ctx context.Context, icn string, opts ...cloudsqlconn.DialOption) (net.Conn, error)
	Close() error
}

// Connector yields raw connections to one Cloud SQL instance.
type Connector struct {
	instance string
	ipType   string
	dialer   Dialer
	opts     []cloudsqlconn.DialOption

	closeOnce sync.Once
	closeErr  error
}

// New creates a Connector for the configured instance. The network path
// is resolved from db.iptype and the runtime the process runs on.
func New(ctx context.Context, cfg *config.Config) (*Connector, error) {
	if !cfg.DB.UseConnector() {
		return nil, ErrNoInstance
	}

	options := []cloudsqlconn.Option{
		cloudsqlconn.WithContextDebugLogger(stdlogger.New("cloudsqlconn").Context()),
	}

	if cfg.DB.LazyRefresh {
		options = append(options, cloudsqlconn.WithLazyRefresh())
	}

	if cfg.DB.IAMAuthN {
		options = append(options, cloudsqlconn.WithIAMAuthN())
	}

	d, err := cloudsqlconn.NewDialer(ctx, options...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create cloud sql dialer")
	}

	return NewWithDialer(cfg, d), nil
}

// NewWithDialer creates a Connector on top of an existing Dialer.
func NewWithDialer(cfg *config.Config, d Dialer) *Connector {
	ipType := cfg.DB.ResolveIPType(cfg.Runtime.Managed())

	log.Info().
		Str("instance", cfg.DB.InstanceConnectionName).
		Str("ip_type", ipType).
		Bool("managed_runtime", cfg.Runtime.Managed()).
		Msg("cloud sql connector ready")

	return &Connector{
		instance: cfg.DB.InstanceConnectionName,
		ipType:   ipType,
		dialer:   d,
		opts:     DialOptions(ipType),
	}
}

// DialOptions returns the dial options selecting the network path.
func DialOptions(ipType string) []cloudsqlconn.DialOption {
	switch ipType {
	case config.IPTypePrivate:
		return []cloudsqlconn.DialOption{cloudsqlconn.WithPrivateIP()}
	case config.IPTypePSC:
		return []cloudsqlconn.DialOption{cloudsqlconn.WithPSC()}
	default:
		return []cloudsqlconn.DialOption{cloudsqlconn.WithPublicIP()}
	}
}

// Instance returns the instance connection name.
func (c *Connector) Instance() string {
	return c.instance
}

// IPType returns the resolved network path.
func (c *Connector) IPType() string {
	return c.ipType
}

// Dial opens a new connection to the instance.
func (c *Connector) Dial(ctx context.Context) (net.Conn, error) {
	conn, err := c.dialer.Dial(ctx, c.instance, c.opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to dial %s", c.instance)
	}

	return conn, nil
}

// DialAddr ignores the address chosen by a driver and dials the instance.
// It fits the DialFunc hooks of pgx and go-sql-driver/mysql.
func (c *Connector) DialAddr(ctx context.Context, _ string) (net.Conn, error) {
	return c.Dial(ctx)
}

// Close stops the background certificate refresh. Safe to call twice.
func (c *Connector) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.dialer.Close()
	})

	return c.closeErr
}
