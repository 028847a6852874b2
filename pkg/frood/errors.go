package frood

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrNotEncodable is returned by Parameters.QueryString when a value is not a scalar.
	ErrNotEncodable = errors.New("frood: parameter value cannot be encoded in a query string")

	// ErrUnknownType is returned when a textual type name does not resolve to a cast type.
	ErrUnknownType = errors.New("frood: unknown parameter type")

	// ErrTooManyForwards is returned when a dispatch forwards more times than the dispatcher allows.
	ErrTooManyForwards = errors.New("frood: too many forwards")
)

// CastingError is returned when a value cannot be cast to the requested type.
type CastingError struct {
	Value any
	Type  Type

	// Code and Message carry the upload error of a rejected file parameter.
	Code    int
	Message string
}

// Error implements the error interface
func (e *CastingError) Error() string {
	msg := fmt.Sprintf("parameter value, %v, could not be cast as %s", describeValue(e.Value), typeLabel(e.Type))
	switch {
	case e.Type == TypeFile && e.Code != 0:
		msg += fmt.Sprintf(" (upload error %d: %s)", e.Code, e.Message)
	case e.Message != "":
		msg += ": " + e.Message
	}
	return msg
}

// MissingParameterError is returned when a required parameter is absent and no default was given.
type MissingParameterError struct {
	Name string
}

// Error implements the error interface
func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("parameter %s is missing", e.Name)
}

// ConfigurationError reports an invalid or incomplete configuration.
type ConfigurationError struct {
	Key     string
	Message string
}

// Error implements the error interface
func (e *ConfigurationError) Error() string {
	if e.Key == "" {
		return "configuration: " + e.Message
	}
	return fmt.Sprintf("configuration %s: %s", e.Key, e.Message)
}

// DispatchError reports a request that could not be routed or handled. It carries the
// request as far as it was resolved.
type DispatchError struct {
	Message string
	Request *Request
	Err     error
}

// NewDispatchError creates a DispatchError for the given request
func NewDispatchError(req *Request, format string, args ...any) *DispatchError {
	return &DispatchError{
		Message: fmt.Sprintf(format, args...),
		Request: req,
	}
}

// Error implements the error interface
func (e *DispatchError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Request != nil {
		b.WriteString(" [")
		b.WriteString(e.Request.String())
		b.WriteString("]")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error
func (e *DispatchError) Unwrap() error {
	return e.Err
}

// RemoteDispatchError is a DispatchError raised by a remote host. Diagnostics holds the
// X-Frood-* headers of the remote response.
type RemoteDispatchError struct {
	DispatchError
	Host        string
	Status      int
	Diagnostics http.Header
}

// Error implements the error interface
func (e *RemoteDispatchError) Error() string {
	msg := fmt.Sprintf("remote dispatch to %s failed", e.Host)
	if e.Status != 0 {
		msg += fmt.Sprintf(" with status %d", e.Status)
	}
	if reason := e.Diagnostics.Get(HeaderError); reason != "" {
		msg += ": " + reason
	}
	return msg + ": " + e.DispatchError.Error()
}

// Unwrap exposes the embedded DispatchError so errors.As finds both kinds.
func (e *RemoteDispatchError) Unwrap() error {
	return &e.DispatchError
}

// SignatureMismatchError reports an action whose declared parameters do not match its
// Go signature.
type SignatureMismatchError struct {
	Action string
	Reason string
}

// Error implements the error interface
func (e *SignatureMismatchError) Error() string {
	return fmt.Sprintf("action %s: declared parameters do not match the signature: %s", e.Action, e.Reason)
}

func describeValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("%q", val)
	case *FileParameter:
		if val == nil {
			return "null"
		}
		return fmt.Sprintf("file(%s)", val.OriginalName)
	default:
		return fmt.Sprintf("%v", val)
	}
}

func typeLabel(t Type) string {
	if t == TypeNone {
		return "untyped"
	}
	return string(t)
}
