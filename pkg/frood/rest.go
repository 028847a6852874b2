package frood

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// HTTPError is returned by REST handlers to answer with a specific status and message
type HTTPError struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
}

// Error implements the error interface
func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// NewHTTPError creates a new HTTPError with the given status code and message
func NewHTTPError(statusCode int, message string) *HTTPError {
	return &HTTPError{StatusCode: statusCode, Message: message}
}

// ErrMethodNotAllowed creates a 405 Method Not Allowed error
func ErrMethodNotAllowed() *HTTPError {
	return NewHTTPError(http.StatusMethodNotAllowed, "Method not allowed")
}

// ErrNotImplemented creates a 501 Not Implemented error
func ErrNotImplemented() *HTTPError {
	return NewHTTPError(http.StatusNotImplemented, "Not implemented")
}

// ErrNotFound creates a 404 Not Found error
func ErrNotFound(message string) *HTTPError {
	return NewHTTPError(http.StatusNotFound, message)
}

// RestHandler handles one HTTP verb of a REST resource. item is the trailing item id of
// the API path, empty when the request addressed the collection.
type RestHandler func(ctx context.Context, ctrl *Controller, params *Parameters, item string) error

// restMethods are the verbs a REST controller can dispatch to
var restMethods = map[string]bool{
	http.MethodHead:    true,
	http.MethodGet:     true,
	http.MethodPut:     true,
	http.MethodDelete:  true,
	http.MethodPost:    true,
	http.MethodOptions: true,
	http.MethodTrace:   true,
	http.MethodConnect: true,
	http.MethodPatch:   true,
}

// RestController fans the api action of an API-routed controller out to per-verb
// handlers. Unknown verbs answer 405 and verbs without a handler 501.
type RestController struct {
	handlers map[string]RestHandler
}

// NewRestController creates a REST controller without handlers
func NewRestController() *RestController {
	return &RestController{handlers: make(map[string]RestHandler)}
}

// On sets the handler for an HTTP verb
func (rc *RestController) On(method string, h RestHandler) *RestController {
	rc.handlers[method] = h
	return rc
}

// Register installs the controller as the api action of entry. REST controllers render
// JSON unless a handler selects otherwise.
func (rc *RestController) Register(entry *ControllerEntry) *ControllerEntry {
	return entry.
		Init(func(c *Controller) { c.OutputJSON() }).
		Action(APIAction, rc.API)
}

// API is the api action: it extracts the item parameter and calls the handler for the
// request method.
func (rc *RestController) API(ctx context.Context, ctrl *Controller, params *Parameters) error {
	item := ""
	if params.Has(ItemParameter) {
		item, _ = params.GetString(ItemParameter, "")
		params.Unset(ItemParameter)
	}

	method := ctrl.Request().Method
	var err error
	switch h, ok := rc.handlers[method]; {
	case !restMethods[method]:
		err = ErrMethodNotAllowed()
	case !ok:
		err = ErrNotImplemented()
	default:
		err = h(ctx, ctrl, params, item)
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		ctrl.SetStatus(httpErr.StatusCode)
		ctrl.OutputDisabled()
		_, _ = ctrl.Write([]byte(httpErr.Message))
		return nil
	}
	return err
}
