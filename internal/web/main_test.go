package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudrun-items/items-api/internal/config"
	"github.com/cloudrun-items/items-api/internal/db/engine"
	"github.com/cloudrun-items/items-api/internal/logger"
)

func testConfig() *config.Config {
	return &config.Config{
		DevMode: true,
		Title:   "items-api",
		DB: config.DB{
			Engine:         config.EngineSQLite,
			Path:           ":memory:",
			ConnectTimeout: 5 * time.Second,
		},
		Log: logger.Log{
			DisableCheckAlive: true,
		},
		Webserver: config.Webserver{
			MetricsEnabled: true,
			Greeting:       "From Go on Cloud Run!",
			CORS:           config.CORS{AllowOrigins: []string{"*"}},
		},
	}
}

func newTestService(t *testing.T, cfg *config.Config) *Service {
	t.Helper()

	e, err := engine.Open(context.Background(), cfg)
	require.NoError(t, err)

	t.Cleanup(func() { _ = e.Close() })

	s, err := New(cfg, e)
	require.NoError(t, err)

	return s
}

func call(t *testing.T, s *Service, req *http.Request) (*http.Response, string) {
	t.Helper()

	resp, err := s.App.Test(req)
	require.NoError(t, err)

	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, string(body)
}

func TestNewWithoutConfig(t *testing.T) {
	_, err := New(nil, nil)
	require.ErrorIs(t, err, ErrNilConfig)
}

func TestRoutes(t *testing.T) {
	s := newTestService(t, testConfig())

	resp, body := call(t, s, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"Hello":"From Go on Cloud Run!"}`, body)

	resp, body = call(t, s, httptest.NewRequest(http.MethodGet, "/items/", nil))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, body)

	req := httptest.NewRequest(http.MethodPost, "/items/", strings.NewReader(`{"name":"foo"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, body = call(t, s, req)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"name":"foo"`)

	resp, _ = call(t, s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, body = call(t, s, httptest.NewRequest(http.MethodGet, "/does-not-exist", nil))
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, `"detail"`)
}

func TestMetricsDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Webserver.MetricsEnabled = false

	s := newTestService(t, cfg)

	resp, _ := call(t, s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestNotConnected(t *testing.T) {
	var e *engine.Engine

	s, err := New(testConfig(), e)
	require.NoError(t, err)

	resp, body := call(t, s, httptest.NewRequest(http.MethodGet, "/items/", nil))
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	assert.JSONEq(t, `{"detail":"database not connected"}`, body)

	resp, _ = call(t, s, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestCheckAlive(t *testing.T) {
	s := newTestService(t, testConfig())

	resp, body := call(t, s, httptest.NewRequest(http.MethodGet, "/checkalive", nil))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", body)

	s.alive.Store(false)

	resp, _ = call(t, s, httptest.NewRequest(http.MethodGet, "/checkalive", nil))
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestCORS(t *testing.T) {
	s := newTestService(t, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(fiber.HeaderOrigin, "https://example.com")

	resp, _ := call(t, s, req)
	assert.Equal(t, "*", resp.Header.Get(fiber.HeaderAccessControlAllowOrigin))
}

func TestRecover(t *testing.T) {
	s := newTestService(t, testConfig())
	s.App.Get("/panic", func(_ fiber.Ctx) error {
		panic("boom")
	})

	resp, _ := call(t, s, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

func TestStartAndShutdown(t *testing.T) {
	s := newTestService(t, testConfig())

	errCh := make(chan error, 1)

	go func() {
		errCh <- s.Start("127.0.0.1:0")
	}()

	select {
	case <-s.Ready():
	case err := <-errCh:
		t.Fatalf("server stopped before it was ready: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not become ready")
	}

	require.NotNil(t, s.Addr())

	resp, err := http.Get(fmt.Sprintf("http://%s/checkalive", s.Addr())) //nolint:noctx
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, s.Shutdown())

	select {
	case err = <-errCh:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}

	assert.False(t, s.alive.Load())
}

func TestShutdownBeforeStart(t *testing.T) {
	s := newTestService(t, testConfig())

	require.NoError(t, s.Shutdown())

	errCh := make(chan error, 1)

	go func() {
		errCh <- s.Start("127.0.0.1:0")
	}()

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server started after shutdown")
	}

	assert.Nil(t, s.Addr())
}

func TestShutdownRightAfterStart(t *testing.T) {
	for range 20 {
		s := newTestService(t, testConfig())

		errCh := make(chan error, 1)

		go func() {
			errCh <- s.Start("127.0.0.1:0")
		}()

		<-s.Ready()
		require.NoError(t, s.Shutdown())

		select {
		case err := <-errCh:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("server did not stop")
		}
	}
}
