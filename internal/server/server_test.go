package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toyz/frood/internal/config"
	"github.com/toyz/frood/pkg/frood"
)

func testConfig(adapter string, metrics bool) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Addr:            "127.0.0.1:0",
			Adapter:         adapter,
			MaxMemoryMB:     1,
			ShutdownTimeout: time.Second,
		},
		Dispatch: config.DispatchConfig{MaxForwards: 2, Renderer: "text"},
		Metrics:  config.MetricsConfig{Enabled: metrics, Namespace: "cc", Path: "/metrics"},
		BaseRoutes: []config.BaseRouteConfig{
			{Prefix: "/", Modules: []string{"site"}},
		},
		Modules: map[string]config.ModuleConfig{
			"site": {SubModules: map[string]string{"public": "Public/"}},
		},
	}
}

func testRegistry() *frood.Registry {
	reg := frood.NewRegistry()
	reg.Controller("site", "public", "build").
		Action("show", func(c *frood.Controller, id int) {
			c.Assign("id", id)
		}, frood.Required("id", frood.TypeInteger))
	return reg
}

func TestServer_Adapters(t *testing.T) {
	for _, adapter := range config.Adapters {
		t.Run(adapter, func(t *testing.T) {
			s, err := New(testConfig(adapter, true), testRegistry(), nil)
			require.NoError(t, err)

			do := func(target string) (int, string) {
				req := httptest.NewRequest(http.MethodGet, target, nil)
				if app := s.FiberApp(); app != nil {
					resp, err := app.Test(req)
					require.NoError(t, err)
					defer resp.Body.Close()
					body, err := io.ReadAll(resp.Body)
					require.NoError(t, err)
					return resp.StatusCode, string(body)
				}
				rec := httptest.NewRecorder()
				s.Handler().ServeHTTP(rec, req)
				return rec.Code, rec.Body.String()
			}

			status, body := do("/build/show?id=7")
			assert.Equal(t, http.StatusOK, status)
			assert.Equal(t, "id: 7\n", body)

			status, _ = do("/build/show?id=seven")
			assert.Equal(t, http.StatusBadRequest, status)

			status, _ = do("/build/delete")
			assert.Equal(t, http.StatusNotFound, status)

			status, body = do("/metrics")
			assert.Equal(t, http.StatusOK, status)
			assert.Contains(t, body, `cc_dispatch_total{action="show",controller="build",module="site",result="rendered",sub_module="public"} 1`)
			assert.Contains(t, body, "go_goroutines")
		})
	}
}

func TestServer_MetricsDisabled(t *testing.T) {
	s, err := New(testConfig("http", false), testRegistry(), nil)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code, "routed to the metrics controller of site, which does not exist")
}

func TestServer_Errors(t *testing.T) {
	bad := frood.NewRegistry()
	bad.Controller("site", "public", "build").
		Action("show", func(id int) {})
	_, err := New(testConfig("http", false), bad, nil)
	assert.ErrorContains(t, err, "invalid registry")

	cfg := testConfig("http", false)
	cfg.BaseRoutes[0].Modules = []string{"missing"}
	_, err = New(cfg, testRegistry(), nil)
	var confErr *frood.ConfigurationError
	assert.ErrorAs(t, err, &confErr)

	_, err = New(testConfig("carrier-pigeon", false), testRegistry(), nil)
	assert.ErrorContains(t, err, "unknown adapter")
}

func TestServer_Run(t *testing.T) {
	s, err := New(testConfig("http", false), testRegistry(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServer_ReadHeaderTimeout(t *testing.T) {
	tests := []struct {
		name       string
		configured time.Duration
		expected   time.Duration
	}{
		{name: "configured", configured: 3 * time.Second, expected: 3 * time.Second},
		{name: "unset", expected: config.DefaultReadHeaderTimeout},
		{name: "negative", configured: -time.Second, expected: config.DefaultReadHeaderTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig("chi", false)
			cfg.Server.ReadHeaderTimeout = tt.configured
			s, err := New(cfg, testRegistry(), nil)
			require.NoError(t, err)

			srv := s.httpServer(cfg.Server.Addr)
			assert.Equal(t, tt.expected, srv.ReadHeaderTimeout)
			assert.Equal(t, cfg.Server.Addr, srv.Addr)
			assert.NotNil(t, srv.Handler)
		})
	}
}
