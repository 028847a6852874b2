// Package server runs a frood dispatcher behind one of the HTTP adapters, as selected
// by configuration.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/toyz/frood/internal/config"
	"github.com/toyz/frood/pkg/frood"
	"github.com/toyz/frood/pkg/frood/adapters"
)

// Server serves one dispatcher
type Server struct {
	cfg        *config.Config
	logger     *slog.Logger
	dispatcher *frood.Dispatcher
	metrics    *prometheus.Registry

	// handler serves every net/http based adapter; fiberApp is set for fiber instead
	handler  http.Handler
	fiberApp *fiber.App
	http     *http.Server
}

// New builds the dispatcher described by cfg over reg and the adapter serving it
func New(cfg *config.Config, reg *frood.Registry, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if err := reg.Err(); err != nil {
		return nil, fmt.Errorf("invalid registry: %w", err)
	}
	fc, err := cfg.Frood()
	if err != nil {
		return nil, err
	}

	s := &Server{cfg: cfg, logger: logger}

	opts := append(cfg.DispatcherOptions(), frood.WithLogger(logger))
	if cfg.Metrics.Enabled {
		s.metrics = prometheus.NewRegistry()
		s.metrics.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		opts = append(opts, frood.WithObserver(frood.NewPrometheusObserver(
			frood.WithNamespace(cfg.Metrics.Namespace),
			frood.WithRegistry(s.metrics),
		)))
	}
	s.dispatcher = frood.NewDispatcher(fc, reg, opts...)

	handlerOpts := []adapters.HandlerOption{
		adapters.WithMaxMemory(int64(cfg.Server.MaxMemoryMB) << 20),
		adapters.WithUploadDir(cfg.Server.UploadDir),
		adapters.WithHandlerLogger(logger),
	}
	if err := s.build(handlerOpts); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) build(opts []adapters.HandlerOption) error {
	metricsPath := s.cfg.Metrics.Path

	switch s.cfg.Server.Adapter {
	case "http":
		mux := http.NewServeMux()
		if s.metrics != nil {
			mux.Handle(metricsPath, s.metricsHandler())
		}
		mux.Handle("/", adapters.NewHandler(s.dispatcher, opts...))
		s.handler = mux
	case "chi":
		r := chi.NewRouter()
		r.Use(middleware.RequestID, middleware.Recoverer)
		if s.metrics != nil {
			r.Handle(metricsPath, s.metricsHandler())
		}
		adapters.MountChi(r, s.dispatcher, opts...)
		s.handler = r
	case "gin":
		gin.SetMode(gin.ReleaseMode)
		engine := gin.New()
		engine.Use(gin.Recovery())
		if s.metrics != nil {
			engine.GET(metricsPath, gin.WrapH(s.metricsHandler()))
		}
		adapters.NewGinAdapter(engine, s.dispatcher, opts...)
		s.handler = engine
	case "echo":
		e := echo.New()
		e.HideBanner = true
		e.HidePort = true
		if s.metrics != nil {
			e.GET(metricsPath, echo.WrapHandler(s.metricsHandler()))
		}
		adapters.NewEchoAdapter(e, s.dispatcher, opts...)
		s.handler = e
	case "fiber":
		app := fiber.New(fiber.Config{DisableStartupMessage: true})
		if s.metrics != nil {
			app.Get(metricsPath, adaptor.HTTPHandler(s.metricsHandler()))
		}
		adapters.NewFiberAdapter(app, s.dispatcher, opts...)
		s.fiberApp = app
	default:
		return fmt.Errorf("unknown adapter %q", s.cfg.Server.Adapter)
	}
	return nil
}

func (s *Server) metricsHandler() http.Handler {
	return promhttp.HandlerFor(s.metrics, promhttp.HandlerOpts{Registry: s.metrics})
}

// Dispatcher returns the dispatcher the server serves
func (s *Server) Dispatcher() *frood.Dispatcher {
	return s.dispatcher
}

// Handler returns the HTTP handler, nil for the fiber adapter
func (s *Server) Handler() http.Handler {
	return s.handler
}

// FiberApp returns the fiber app, nil for the net/http based adapters
func (s *Server) FiberApp() *fiber.App {
	return s.fiberApp
}

func (s *Server) httpServer(addr string) *http.Server {
	timeout := s.cfg.Server.ReadHeaderTimeout
	if timeout <= 0 {
		timeout = config.DefaultReadHeaderTimeout
	}
	return &http.Server{Addr: addr, Handler: s.handler, ReadHeaderTimeout: timeout}
}

// Run serves until ctx is done, then shuts down within the configured timeout
func (s *Server) Run(ctx context.Context) error {
	addr := s.cfg.Server.Addr
	if s.fiberApp == nil {
		s.http = s.httpServer(addr)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.listen(addr)
	}()
	s.logger.Info("frood server started", "addr", addr, "adapter", s.cfg.Server.Adapter, "metrics", s.metrics != nil)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down", "timeout", s.cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := s.shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

func (s *Server) listen(addr string) error {
	if s.fiberApp != nil {
		return s.fiberApp.Listen(addr)
	}
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) shutdown(ctx context.Context) error {
	if s.fiberApp != nil {
		return s.fiberApp.ShutdownWithContext(ctx)
	}
	return s.http.Shutdown(ctx)
}
