package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func etcPath(t *testing.T) string {
	t.Helper()

	projectRoot, err := filepath.Abs("../../")
	require.NoError(t, err, "failed to get project root")

	return filepath.Join(projectRoot, "etc") + string(filepath.Separator)
}

func TestReadConfig(t *testing.T) {
	t.Setenv("PORT", "")

	cfg, err := ReadConfig(etcPath(t))
	require.NoError(t, err)

	assert.Equal(t, "items-api", cfg.Title)
	assert.Equal(t, 8000, cfg.Webserver.Port)
	assert.NotEmpty(t, cfg.Webserver.URL)
	assert.Equal(t, EnginePostgres, cfg.DB.Engine)
	assert.Equal(t, 10*time.Second, cfg.DB.ConnectTimeout)
	assert.Equal(t, 15, cfg.DB.Pool.MaxOpenConns)
	assert.Equal(t, 30*time.Minute, cfg.DB.Pool.ConnMaxLifetime)
	assert.Equal(t, "access.log", cfg.Log.File.AccessLog)
	assert.Equal(t, 100, cfg.Log.File.ErrorMaxSize)
	assert.True(t, cfg.Log.Console.Enabled)
}

func TestReadConfigWithoutFile(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("K_SERVICE", "")

	cfg, err := ReadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Webserver.Port)
	assert.Equal(t, "From Go on Cloud Run!", cfg.Webserver.Greeting)
	assert.Equal(t, []string{"*"}, cfg.Webserver.CORS.AllowOrigins)
	assert.Equal(t, IPTypeAuto, cfg.DB.IPType)
	assert.True(t, cfg.DB.LazyRefresh)
	assert.Empty(t, cfg.DB.User)
	assert.Empty(t, cfg.DB.Password)
	assert.Empty(t, cfg.DB.Name)
	assert.Empty(t, cfg.DB.InstanceConnectionName)
	assert.False(t, cfg.Runtime.Managed())
}

func TestReadConfigFromEnv(t *testing.T) {
	t.Setenv("DB_USER", "items")
	t.Setenv("DB_PASS", "secret")
	t.Setenv("DB_NAME", "itemsdb")
	t.Setenv("INSTANCE_CONNECTION_NAME", "project:europe-west1:items")
	t.Setenv("K_SERVICE", "items-api")
	t.Setenv("PORT", "8080")
	t.Setenv("ITEMS_API_DB_ENGINE", "mysql")

	cfg, err := ReadConfig(etcPath(t))
	require.NoError(t, err)

	assert.Equal(t, "items", cfg.DB.User)
	assert.Equal(t, "secret", cfg.DB.Password)
	assert.Equal(t, "itemsdb", cfg.DB.Name)
	assert.Equal(t, "project:europe-west1:items", cfg.DB.InstanceConnectionName)
	assert.True(t, cfg.DB.UseConnector())
	assert.Equal(t, EngineMySQL, cfg.DB.Engine)
	assert.True(t, cfg.Runtime.Managed())
	assert.Equal(t, 8080, cfg.Webserver.Port)
}

func TestReadConfigWithJSONOverride(t *testing.T) {
	t.Setenv(JSONOverrideEnv, `{"Title":"Test Override","Webserver":{"Port":9090}}`)

	cfg, err := ReadConfig(etcPath(t))
	require.NoError(t, err)

	assert.Equal(t, "Test Override", cfg.Title)
	assert.Equal(t, 9090, cfg.Webserver.Port)
}

func TestReadConfigWithBrokenJSONOverride(t *testing.T) {
	t.Setenv(JSONOverrideEnv, `{"Title":`)

	_, err := ReadConfig(etcPath(t))
	require.Error(t, err)
}

func TestConfigValidation(t *testing.T) {
	valid := func() Config {
		return Config{
			DB: DB{Engine: EnginePostgres, IPType: IPTypeAuto},
			Webserver: Webserver{
				Port: 8080,
				URL:  "http://localhost:8080",
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
	}{
		{
			name:   "valid config",
			mutate: func(_ *Config) {},
		},
		{
			name:    "missing port",
			mutate:  func(c *Config) { c.Webserver.Port = 0 },
			wantErr: ErrWebServerPortCanNotBeZero,
		},
		{
			name:    "missing URL",
			mutate:  func(c *Config) { c.Webserver.URL = "" },
			wantErr: ErrEmptyURL,
		},
		{
			name:    "unknown engine",
			mutate:  func(c *Config) { c.DB.Engine = "oracle" },
			wantErr: ErrUnknownEngine,
		},
		{
			name:    "unknown ip type",
			mutate:  func(c *Config) { c.DB.IPType = "carrier-pigeon" },
			wantErr: ErrUnknownIPType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)

			err := validate(&c)
			if tt.wantErr == nil {
				require.NoError(t, err)
				assert.Equal(t, 5, c.Webserver.ShutDownTime)

				return
			}

			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestResolveIPType(t *testing.T) {
	tests := []struct {
		name    string
		ipType  string
		managed bool
		want    string
	}{
		{"auto on managed runtime", IPTypeAuto, true, IPTypePrivate},
		{"auto locally", IPTypeAuto, false, IPTypePublic},
		{"empty locally", "", false, IPTypePublic},
		{"forced public on managed runtime", IPTypePublic, true, IPTypePublic},
		{"forced private locally", IPTypePrivate, false, IPTypePrivate},
		{"psc", IPTypePSC, true, IPTypePSC},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DB{IPType: tt.ipType}.ResolveIPType(tt.managed))
		})
	}
}

func TestDumpConfig(t *testing.T) {
	cfg := Config{
		Title:   "Test",
		DevMode: true,
		DB:      DB{User: "items", Password: "secret"},
		Webserver: Webserver{
			Port: 8080,
			URL:  "http://localhost:8080",
		},
	}

	tomlStr, err := DumpConfig(&cfg)
	require.NoError(t, err)

	assert.True(t, strings.Contains(tomlStr, "Test"), "DumpConfig() output should contain Title")
	assert.NotContains(t, tomlStr, "secret")
	assert.Contains(t, tomlStr, maskedPass)
	assert.Equal(t, "secret", cfg.DB.Password, "dump must not alter the config")
}

func TestDumpConfigJSON(t *testing.T) {
	cfg := Config{
		Title: "Test",
		DB:    DB{Password: "secret"},
		Webserver: Webserver{
			Port: 8080,
			URL:  "http://localhost:8080",
		},
	}

	jsonStr, err := DumpConfigJSON(&cfg)
	require.NoError(t, err)

	assert.Contains(t, jsonStr, `"Title": "Test"`)
	assert.NotContains(t, jsonStr, "secret")
}
