package config

import "time"

// Supported database engines.
const (
	EnginePostgres = "postgres"
	EngineMySQL    = "mysql"
	EngineSQLite   = "sqlite"
)

// Supported network paths to a Cloud SQL instance.
const (
	IPTypeAuto    = "auto"
	IPTypePrivate = "private"
	IPTypePublic  = "public"
	IPTypePSC     = "psc"
)

// DB holds the database configuration settings.
type DB struct {
	Engine string

	// InstanceConnectionName is the Cloud SQL "project:region:instance".
	// If empty, Host and Port are used for a direct connection.
	InstanceConnectionName string
	IPType                 string
	IAMAuthN               bool
	LazyRefresh            bool

	Extras   string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	Path     string // sqlite database file

	ConnectTimeout time.Duration
	Pool           Pool
}

// Pool holds the connection pool settings of the engine.
type Pool struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// UseConnector reports whether connections go through the Cloud SQL connector.
func (d DB) UseConnector() bool {
	return d.InstanceConnectionName != ""
}

// ResolveIPType returns the network path to use. In auto mode a managed
// runtime dials the private address and everything else the public one.
func (d DB) ResolveIPType(managed bool) string {
	switch d.IPType {
	case IPTypePrivate, IPTypePublic, IPTypePSC:
		return d.IPType
	}

	if managed {
		return IPTypePrivate
	}

	return IPTypePublic
}
