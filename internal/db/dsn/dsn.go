// Package dsn provides Data Source Name construction utilities for database connections.
package dsn

import (
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/cloudrun-items/items-api/internal/config"
)

// MySQLDialNetwork is the network name the Cloud SQL dialer is registered under.
const MySQLDialNetwork = "cloudsql"

// MySQL builds the go-sql-driver DSN from the configuration. When the
// Cloud SQL connector is used the address is dialed through MySQLDialNetwork.
func MySQL(cfg *config.Config) string {
	mc := mysql.NewConfig()
	mc.User = cfg.DB.User
	mc.Passwd = cfg.DB.Password
	mc.DBName = cfg.DB.Name
	mc.ParseTime = true
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%d", cfg.DB.Host, cfg.DB.Port)

	if cfg.DB.UseConnector() {
		mc.Net = MySQLDialNetwork
		mc.Addr = cfg.DB.InstanceConnectionName
	}

	out := mc.FormatDSN()
	if cfg.DB.Extras != "" {
		sep := "?"
		if strings.Contains(out, "?") {
			sep = "&"
		}

		out += sep + cfg.DB.Extras
	}

	return out
}

// Postgres builds a libpq key/value DSN from the configuration.
// Host and port are left out when the Cloud SQL connector dials.
func Postgres(cfg *config.Config) string {
	parts := []string{
		kv("user", cfg.DB.User),
		kv("password", cfg.DB.Password),
		kv("dbname", cfg.DB.Name),
	}

	if cfg.DB.UseConnector() {
		// the connector encrypts the tunnel, the driver must not negotiate TLS again
		parts = append(parts, "sslmode=disable")
	} else {
		parts = append(parts, kv("host", cfg.DB.Host), fmt.Sprintf("port=%d", cfg.DB.Port))
	}

	if cfg.DB.Extras != "" {
		parts = append(parts, cfg.DB.Extras)
	}

	return strings.Join(parts, " ")
}

// kv quotes a libpq value.
func kv(key, value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	value = strings.ReplaceAll(value, `'`, `\'`)

	return fmt.Sprintf("%s='%s'", key, value)
}
