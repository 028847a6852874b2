package adapters

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/toyz/frood/pkg/frood"
)

// GinAdapter serves a dispatcher from a Gin engine
type GinAdapter struct {
	engine  *gin.Engine
	handler *Handler
	server  *http.Server
}

// NewGinAdapter creates a new Gin adapter. Paths the engine has no route for are
// dispatched; the dispatcher matches base routes itself.
func NewGinAdapter(g *gin.Engine, d *frood.Dispatcher, opts ...HandlerOption) *GinAdapter {
	ga := &GinAdapter{engine: g, handler: NewHandler(d, opts...)}
	g.NoRoute(ga.handle)
	g.NoMethod(ga.handle)
	return ga
}

// NewDefaultGinAdapter creates a new Gin adapter with default Gin instance
func NewDefaultGinAdapter(d *frood.Dispatcher, opts ...HandlerOption) *GinAdapter {
	return NewGinAdapter(gin.Default(), d, opts...)
}

func (ga *GinAdapter) handle(c *gin.Context) {
	ga.handler.ServeHTTP(c.Writer, c.Request)
	c.Abort()
}

// Start starts the Gin server
func (ga *GinAdapter) Start(addr string) error {
	ga.server = &http.Server{Addr: addr, Handler: ga.engine}
	if err := ga.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts the server started by Start down
func (ga *GinAdapter) Stop(ctx context.Context) error {
	if ga.server == nil {
		return nil
	}
	return ga.server.Shutdown(ctx)
}

// Name returns the adapter name
func (ga *GinAdapter) Name() string {
	return "Gin"
}

// GetEngine returns the underlying Gin engine
func (ga *GinAdapter) GetEngine() *gin.Engine {
	return ga.engine
}
