package adapters

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/toyz/frood/pkg/frood"
)

// EchoAdapter serves a dispatcher from an Echo v4 instance
type EchoAdapter struct {
	engine  *echo.Echo
	handler *Handler
}

// NewEchoAdapter creates a new Echo adapter and routes every unclaimed path to d
func NewEchoAdapter(e *echo.Echo, d *frood.Dispatcher, opts ...HandlerOption) *EchoAdapter {
	ea := &EchoAdapter{engine: e, handler: NewHandler(d, opts...)}
	e.Any("/*", ea.handle)
	return ea
}

// NewDefaultEchoAdapter creates a new Echo adapter with default Echo instance
func NewDefaultEchoAdapter(d *frood.Dispatcher, opts ...HandlerOption) *EchoAdapter {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	return NewEchoAdapter(e, d, opts...)
}

func (ea *EchoAdapter) handle(c echo.Context) error {
	ea.handler.ServeHTTP(c.Response(), c.Request())
	return nil
}

// Start starts the server
func (ea *EchoAdapter) Start(addr string) error {
	return ea.engine.Start(addr)
}

// Stop stops the server
func (ea *EchoAdapter) Stop(ctx context.Context) error {
	return ea.engine.Shutdown(ctx)
}

// Name returns the adapter name
func (ea *EchoAdapter) Name() string {
	return "Echo"
}

// GetEcho returns the underlying Echo instance
func (ea *EchoAdapter) GetEcho() *echo.Echo {
	return ea.engine
}
