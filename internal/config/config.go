// Package config reads the items-api configuration from defaults,
// etc/main.toml and the environment.
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the file looked up in the config path.
	ConfigFileName = "main.toml"

	// JSONOverrideEnv holds a JSON document merged over the loaded config.
	JSONOverrideEnv = "ITEMS_API_CONFIG_JSON"

	envPrefix  = "ITEMS_API"
	maskedPass = "********"
)

// envBindings maps config keys to the plain environment variables set by
// the deployment and the platform.
var envBindings = map[string][]string{ //nolint:gochecknoglobals
	"db.user":                   {"DB_USER"},
	"db.password":               {"DB_PASS"},
	"db.name":                   {"DB_NAME"},
	"db.instanceconnectionname": {"INSTANCE_CONNECTION_NAME"},
	"runtime.service":           {"K_SERVICE"},
	"runtime.revision":          {"K_REVISION"},
	"webserver.port":            {envPrefix + "_WEBSERVER_PORT", "PORT"},
}

// ReadConfig from the config directory and the environment.
// A missing main.toml is not an error; defaults and env apply.
func ReadConfig(path string) (Config, error) {
	var (
		c   Config
		err error
		v   = viper.New()
	)

	if path == "" {
		path = "./etc/"
	}

	setDefaults(v)

	file := filepath.Join(path, ConfigFileName)
	if _, err = os.Stat(file); err == nil {
		v.SetConfigFile(file)
		v.SetConfigType("toml")

		if err = v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrap(err, "failed to read main config file")
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, envs := range envBindings {
		if err = v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return Config{}, errors.Wrapf(err, "failed to bind env for %s", key)
		}
	}

	if err = v.Unmarshal(&c); err != nil {
		return Config{}, errors.Wrap(err, "failed to decode config")
	}

	if JSONConfigEnv := os.Getenv(JSONOverrideEnv); JSONConfigEnv != "" {
		c, err = decodeAndMergeConfig(c, JSONConfigEnv)
		if err != nil {
			return c, err
		}
	}

	return c, validate(&c)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("title", "items-api")
	v.SetDefault("devmode", false)

	v.SetDefault("webserver.port", 8000) //nolint:mnd
	v.SetDefault("webserver.url", "http://localhost:8000")
	v.SetDefault("webserver.shutdowntime", 5) //nolint:mnd
	v.SetDefault("webserver.greeting", "From Go on Cloud Run!")
	v.SetDefault("webserver.metricsenabled", true)
	v.SetDefault("webserver.disablerecover", false)
	v.SetDefault("webserver.cors.alloworigins", []string{"*"})
	v.SetDefault("webserver.cors.allowmethods", []string{"GET", "POST", "HEAD", "OPTIONS"})
	v.SetDefault("webserver.cors.allowheaders", []string{})
	v.SetDefault("webserver.cors.allowcredentials", false)

	v.SetDefault("db.engine", EnginePostgres)
	v.SetDefault("db.iptype", IPTypeAuto)
	v.SetDefault("db.lazyrefresh", true)
	v.SetDefault("db.iamauthn", false)
	v.SetDefault("db.host", "127.0.0.1")
	v.SetDefault("db.port", 5432) //nolint:mnd
	v.SetDefault("db.extras", "")
	v.SetDefault("db.path", "items.db")
	v.SetDefault("db.connecttimeout", 10*time.Second) //nolint:mnd
	v.SetDefault("db.pool.maxopenconns", 15)         //nolint:mnd
	v.SetDefault("db.pool.maxidleconns", 5)          //nolint:mnd
	v.SetDefault("db.pool.connmaxlifetime", 30*time.Minute)
	v.SetDefault("db.pool.connmaxidletime", time.Duration(0))

	v.SetDefault("log.loglevel", "info")
	v.SetDefault("log.appname", "items-api")
	v.SetDefault("log.servicename", "items-api")
	v.SetDefault("log.sqllevel", "warn")
	v.SetDefault("log.reportcaller", false)
	v.SetDefault("log.enableaccesslogtoconsole", true)
	v.SetDefault("log.disablecheckalive", true)
	v.SetDefault("log.console.enabled", true)
	v.SetDefault("log.console.useconsolewriter", false)
	v.SetDefault("log.file.enabled", false)
	v.SetDefault("log.file.path", "./log")
	v.SetDefault("log.file.access", "access.log")
	v.SetDefault("log.file.error", "error.log")
	v.SetDefault("log.file.info", "info.log")
	v.SetDefault("log.file.trace", "trace.log")
	v.SetDefault("log.file.warn", "warn.log")

	for _, name := range []string{"access", "error", "info", "trace", "warn"} {
		v.SetDefault("log.file."+name+"maxsize", 100)   //nolint:mnd
		v.SetDefault("log.file."+name+"maxbackups", 10) //nolint:mnd
		v.SetDefault("log.file."+name+"maxage", 28)     //nolint:mnd
	}
}

func decodeAndMergeConfig(c Config, configAsJSON string) (Config, error) {
	err := json.Unmarshal([]byte(configAsJSON), &c)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to decode "+JSONOverrideEnv)
	}

	return c, nil
}

// DumpConfig config as TOML String. The database password is masked.
func DumpConfig(c *Config) (string, error) {
	var buffer bytes.Buffer

	if err := toml.NewEncoder(&buffer).Encode(masked(c)); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// DumpConfigJSON config as JSON String. The database password is masked.
func DumpConfigJSON(c *Config) (string, error) {
	var buffer bytes.Buffer
	j := json.NewEncoder(&buffer)
	j.SetIndent("", "  ")

	if err := j.Encode(masked(c)); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

func masked(c *Config) Config {
	out := *c
	if out.DB.Password != "" {
		out.DB.Password = maskedPass
	}

	return out
}

// validate the structural settings only. Database credentials are not
// checked here, a wrong one surfaces when the engine connects.
func validate(c *Config) error {
	invalidErrMessage := "invalid config"

	if c.Webserver.Port == 0 {
		return errors.Wrap(ErrWebServerPortCanNotBeZero, invalidErrMessage)
	}

	if c.Webserver.URL == "" {
		return errors.Wrap(ErrEmptyURL, invalidErrMessage)
	}

	switch c.DB.Engine {
	case EnginePostgres, EngineMySQL, EngineSQLite:
	default:
		return errors.Wrap(ErrUnknownEngine, invalidErrMessage)
	}

	switch c.DB.IPType {
	case IPTypeAuto, IPTypePrivate, IPTypePublic, IPTypePSC, "":
	default:
		return errors.Wrap(ErrUnknownIPType, invalidErrMessage)
	}

	if c.Webserver.ShutDownTime == 0 {
		c.Webserver.ShutDownTime = 5 // set default of 5 seconds
	}

	return nil
}
