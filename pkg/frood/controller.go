package frood

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
)

// Controller is the per-dispatch state handed to actions: assigned values, the selected
// renderer, the response status and headers, and any raw output the action writes.
type Controller struct {
	request  *Request
	values   map[string]any
	renderer Renderer
	status   int
	header   http.Header
	output   bytes.Buffer
	logger   *slog.Logger
}

// NewController creates the controller state for a request
func NewController(req *Request, renderer Renderer, logger *slog.Logger) *Controller {
	if renderer == nil {
		renderer = JSONRenderer{}
	}
	if logger == nil {
		logger = discardLogger
	}
	return &Controller{
		request:  req,
		values:   make(map[string]any),
		renderer: renderer,
		status:   http.StatusOK,
		header:   make(http.Header),
		logger:   logger,
	}
}

// Request returns the request being dispatched
func (c *Controller) Request() *Request {
	return c.request
}

// Logger returns a logger carrying the route of the request
func (c *Controller) Logger() *slog.Logger {
	return c.logger
}

// Assign sets a value for the renderer
func (c *Controller) Assign(key string, value any) {
	c.values[key] = value
}

// Value returns an assigned value
func (c *Controller) Value(key string) (any, error) {
	v, ok := c.values[key]
	if !ok {
		return nil, fmt.Errorf("no value has been set for key %s", key)
	}
	return v, nil
}

// HasValue reports whether a value was assigned for key
func (c *Controller) HasValue(key string) bool {
	_, ok := c.values[key]
	return ok
}

// Values returns the assigned values
func (c *Controller) Values() map[string]any {
	return c.values
}

// Keys returns the assigned keys, sorted
func (c *Controller) Keys() []string {
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SetRenderer selects the renderer for the assigned values
func (c *Controller) SetRenderer(r Renderer) {
	if r != nil {
		c.renderer = r
	}
}

// Renderer returns the selected renderer
func (c *Controller) Renderer() Renderer {
	return c.renderer
}

// OutputJSON renders the assigned values as JSON
func (c *Controller) OutputJSON() { c.SetRenderer(JSONRenderer{}) }

// OutputJSONAutoUTF8 renders the assigned values as JSON, converting Latin-1 strings to UTF-8
func (c *Controller) OutputJSONAutoUTF8() { c.SetRenderer(JSONAutoUTF8Renderer{}) }

// OutputXML renders the assigned values as XML
func (c *Controller) OutputXML() { c.SetRenderer(XMLRenderer{}) }

// OutputYAML renders the assigned values as YAML
func (c *Controller) OutputYAML() { c.SetRenderer(YAMLRenderer{}) }

// OutputText renders the assigned values as plain text
func (c *Controller) OutputText() { c.SetRenderer(TextRenderer{}) }

// OutputDisabled renders nothing; only what the action writes is sent
func (c *Controller) OutputDisabled() { c.SetRenderer(DisabledRenderer{}) }

// SetStatus sets the response status code
func (c *Controller) SetStatus(code int) {
	c.status = code
}

// Status returns the response status code
func (c *Controller) Status() int {
	return c.status
}

// Header returns the response headers
func (c *Controller) Header() http.Header {
	return c.header
}

// Write appends raw output sent ahead of the rendered values
func (c *Controller) Write(p []byte) (int, error) {
	return c.output.Write(p)
}

// Forward returns an outcome dispatching another action. Empty names default to those of
// the current request and nil params to an empty set.
func (c *Controller) Forward(params *Parameters, action, controller, module, subModule string) Outcome {
	if params == nil {
		params = NewParameters(nil)
	}
	if action == "" {
		action = c.request.Action()
	}
	if controller == "" {
		controller = c.Basename()
	}
	if module == "" {
		module = c.request.Module()
	}
	if subModule == "" {
		subModule = c.request.SubModule()
	}
	next := NewRouteRequest(module, subModule, controller, action, params)
	next.Method = c.request.Method
	return Forward{Request: next}
}

// Redirect returns an outcome redirecting the client to url
func (c *Controller) Redirect(url string, status ...int) Outcome {
	r := Redirect{URL: url}
	if len(status) > 0 {
		r.Status = status[0]
	}
	return r
}

// Basename returns the word-form name the controller is registered under
func (c *Controller) Basename() string {
	return c.request.Controller()
}
