package adapters

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/toyz/frood/pkg/frood"
)

// FiberAdapter serves a dispatcher from a Fiber app. Requests are converted from
// fasthttp directly rather than through net/http.
type FiberAdapter struct {
	app        *fiber.App
	dispatcher *frood.Dispatcher
	uploadDir  string
	logger     *slog.Logger
}

// NewFiberAdapter creates a new Fiber adapter on app and routes every unclaimed path to d
func NewFiberAdapter(app *fiber.App, d *frood.Dispatcher, opts ...HandlerOption) *FiberAdapter {
	h := NewHandler(d, opts...)
	fa := &FiberAdapter{app: app, dispatcher: d, uploadDir: h.uploadDir, logger: h.logger}
	app.All("/*", fa.handle)
	return fa
}

// NewDefaultFiberAdapter creates a new Fiber adapter with a default Fiber app
func NewDefaultFiberAdapter(d *frood.Dispatcher, opts ...HandlerOption) *FiberAdapter {
	return NewFiberAdapter(fiber.New(fiber.Config{DisableStartupMessage: true}), d, opts...)
}

func (fa *FiberAdapter) handle(c *fiber.Ctx) error {
	req, cleanup, err := fa.request(c)
	defer cleanup()
	if err != nil {
		fa.logger.Warn("cannot read request", "uri", c.OriginalURL(), "error", err)
		return fa.writeError(c, err)
	}

	res, err := fa.dispatcher.Dispatch(c.UserContext(), req)
	if err != nil {
		return fa.writeError(c, err)
	}

	setHeaders(c, res.Header)
	c.Set(frood.HeaderDispatchID, res.ID)
	return c.Status(res.StatusCode).Send(res.Body)
}

func (fa *FiberAdapter) request(c *fiber.Ctx) (*frood.Request, func(), error) {
	var uploads uploads
	cleanup := uploads.remove

	query := make(url.Values)
	c.Request().URI().QueryArgs().VisitAll(func(key, value []byte) {
		query.Add(string(key), string(value))
	})

	body := make(url.Values)
	files := make(map[string]*frood.FileParameter)
	contentType := c.Get(fiber.HeaderContentType)
	if isMultipart(contentType) {
		form, err := c.MultipartForm()
		if err != nil {
			return nil, cleanup, &frood.CastingError{Value: contentType, Type: frood.TypeArray, Message: err.Error()}
		}
		for name, values := range form.Value {
			body[name] = values
		}
		for name, headers := range form.File {
			if len(headers) > 0 {
				files[name] = uploads.store(fa.uploadDir, headers[len(headers)-1])
			}
		}
	} else {
		c.Request().PostArgs().VisitAll(func(key, value []byte) {
			body.Add(string(key), string(value))
		})
	}

	params := frood.NewParametersFromValues(query, body, files).
		WithCaster(frood.NewCaster(contentType))

	req := frood.NewRequest(c.OriginalURL(), params)
	req.Method = c.Method()
	return req, cleanup, nil
}

func (fa *FiberAdapter) writeError(c *fiber.Ctx, err error) error {
	setHeaders(c, frood.ErrorHeaders(err))
	status := frood.ErrorStatus(err)
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.Status(status).SendString(errorBody(status, err))
}

func setHeaders(c *fiber.Ctx, header http.Header) {
	for name, values := range header {
		for i, v := range values {
			if i == 0 {
				c.Set(name, v)
				continue
			}
			c.Response().Header.Add(name, v)
		}
	}
}

// Start starts the Fiber server
func (fa *FiberAdapter) Start(addr string) error {
	return fa.app.Listen(addr)
}

// Stop stops the Fiber server
func (fa *FiberAdapter) Stop(ctx context.Context) error {
	return fa.app.ShutdownWithContext(ctx)
}

// Name returns the adapter name
func (fa *FiberAdapter) Name() string {
	return "Fiber"
}

// GetApp returns the underlying Fiber app
func (fa *FiberAdapter) GetApp() *fiber.App {
	return fa.app
}
