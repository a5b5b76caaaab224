package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/staff-portal/app"
	"github.com/upb/staff-portal/config"
	"github.com/upb/staff-portal/repositories/postgres"
	"github.com/upb/staff-portal/routes"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		Server: config.ServerConfig{
			Host:            "127.0.0.1",
			Port:            0,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    20 * time.Second,
			ShutdownTimeout: 2 * time.Second,
			RequestTimeout:  10 * time.Second,
		},
		Auth: config.AuthConfig{
			JWTSecret: "main-test-secret",
			TokenTTL:  time.Hour,
		},
		CORS: config.CORSConfig{
			AllowedOrigins: []string{"http://localhost:*"},
		},
		Observability: config.ObservabilityConfig{
			LogLevel:       "error",
			LogFormat:      "json",
			MetricsEnabled: true,
		},
	}
}

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	logger := zaptest.NewLogger(t)
	factory := postgres.NewRepositoryFactoryFromDB(postgres.WrapDB(sqlDB, logger), logger)
	deps := app.NewDependenciesFromFactory(testConfig(), factory, logger)
	return routes.SetupRoutes(deps)
}

func TestNewServer(t *testing.T) {
	cfg := testConfig()
	cfg.Server.Port = 9090

	srv := newServer(cfg, http.NotFoundHandler())

	assert.Equal(t, "127.0.0.1:9090", srv.Addr)
	assert.Equal(t, 15*time.Second, srv.ReadTimeout)
	assert.Equal(t, 15*time.Second, srv.ReadHeaderTimeout)
	assert.Equal(t, 20*time.Second, srv.WriteTimeout)
}

func TestServe_StopsOnCancel(t *testing.T) {
	cfg := testConfig()
	srv := newServer(cfg, http.NotFoundHandler())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, srv, cfg, zap.NewNop()) }()

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestApplicationStartup(t *testing.T) {
	ts := httptest.NewServer(newTestHandler(t))
	defer ts.Close()

	testCases := []struct {
		name           string
		method         string
		path           string
		expectedStatus int
	}{
		{"health check", http.MethodGet, "/healthz", http.StatusOK},
		{"metrics", http.MethodGet, "/metrics", http.StatusOK},
		{"list users unauthenticated", http.MethodGet, "/api/v1/users", http.StatusUnauthorized},
		{"create user unauthenticated", http.MethodPost, "/api/v1/users", http.StatusUnauthorized},
		{"current user unauthenticated", http.MethodGet, "/api/v1/users/me", http.StatusUnauthorized},
		{"get user unauthenticated", http.MethodGet, "/api/v1/users/u1", http.StatusUnauthorized},
		{"update status unauthenticated", http.MethodPatch, "/api/v1/users/u1/status", http.StatusUnauthorized},
		{"delete user unauthenticated", http.MethodDelete, "/api/v1/users/u1", http.StatusUnauthorized},
		{"not found", http.MethodGet, "/api/v1/nonexistent", http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := http.NewRequest(tc.method, ts.URL+tc.path, nil)
			require.NoError(t, err)

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tc.expectedStatus, resp.StatusCode, "endpoint: %s %s", tc.method, tc.path)
		})
	}
}

func TestCORSMiddleware(t *testing.T) {
	ts := httptest.NewServer(newTestHandler(t))
	defer ts.Close()

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/v1/auth/login", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
}
