package frood

import (
	"context"
	"errors"
	"net/http"
)

// Diagnostic headers set on failed responses and read back by remote dispatch.
const (
	HeaderPrefix     = "X-Frood-"
	HeaderError      = "X-Frood-Error"
	HeaderRequest    = "X-Frood-Request"
	HeaderDispatchID = "X-Frood-Dispatch-Id"
)

// Result is the response of a dispatch: the final request after any forwards and what
// to send back to the client.
type Result struct {
	// ID identifies the dispatch in logs and the X-Frood-Dispatch-Id header
	ID string

	Request     *Request
	StatusCode  int
	ContentType string
	Header      http.Header
	Body        []byte

	// Location is set for redirects
	Location string
}

// ErrorStatus maps a dispatch error to an HTTP status: 404 for requests that could not be
// routed or resolved, 400 for missing or malformed parameters, 502 for failed remote
// calls and 500 for configuration and action failures. HTTPErrors keep their own status.
func ErrorStatus(err error) int {
	var (
		httpErr    *HTTPError
		castErr    *CastingError
		missingErr *MissingParameterError
		sigErr     *SignatureMismatchError
		confErr    *ConfigurationError
		remoteErr  *RemoteDispatchError
		dispErr    *DispatchError
	)
	switch {
	case errors.As(err, &httpErr):
		return httpErr.StatusCode
	case errors.As(err, &castErr), errors.As(err, &missingErr):
		return http.StatusBadRequest
	case errors.As(err, &sigErr), errors.As(err, &confErr):
		return http.StatusInternalServerError
	case errors.Is(err, ErrTooManyForwards):
		return http.StatusLoopDetected
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	case errors.As(err, &remoteErr):
		return http.StatusBadGateway
	case errors.As(err, &dispErr) && dispErr.Err == nil:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// ErrorHeaders returns the diagnostic headers describing a dispatch error
func ErrorHeaders(err error) http.Header {
	h := make(http.Header)
	h.Set(HeaderError, err.Error())

	var dispErr *DispatchError
	if errors.As(err, &dispErr) && dispErr.Request != nil && dispErr.Request.Module() != "" {
		h.Set(HeaderRequest, dispErr.Request.String())
	}
	return h
}
