// Package adapters serves a frood Dispatcher through net/http and the web frameworks
// frood applications are commonly embedded in.
package adapters

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/toyz/frood/pkg/frood"
)

// DefaultMaxMemory is the part of a multipart body kept in memory while parsing.
const DefaultMaxMemory = 32 << 20

// Handler dispatches HTTP requests. Query and body values become request parameters,
// uploaded files are stored in temporary files for the duration of the dispatch.
type Handler struct {
	dispatcher *frood.Dispatcher
	maxMemory  int64
	uploadDir  string
	logger     *slog.Logger
}

// HandlerOption configures a Handler
type HandlerOption func(*Handler)

// WithMaxMemory sets how much of a multipart body is kept in memory
func WithMaxMemory(n int64) HandlerOption {
	return func(h *Handler) {
		if n > 0 {
			h.maxMemory = n
		}
	}
}

// WithUploadDir sets the directory uploaded files are stored in, os.TempDir() when empty
func WithUploadDir(dir string) HandlerOption {
	return func(h *Handler) {
		h.uploadDir = dir
	}
}

// WithHandlerLogger sets the logger used for transport errors
func WithHandlerLogger(logger *slog.Logger) HandlerOption {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewHandler creates a Handler for a dispatcher
func NewHandler(d *frood.Dispatcher, opts ...HandlerOption) *Handler {
	h := &Handler{
		dispatcher: d,
		maxMemory:  DefaultMaxMemory,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ServeHTTP implements http.Handler
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req, cleanup, err := h.Request(r)
	defer cleanup()
	if err != nil {
		h.logger.Warn("cannot read request", "uri", r.RequestURI, "error", err)
		WriteResult(w, nil, err)
		return
	}

	res, err := h.dispatcher.Dispatch(r.Context(), req)
	WriteResult(w, res, err)
}

// Request converts an HTTP request to a frood request. The returned cleanup function
// removes uploaded files and must be called once the dispatch is done, even on error.
func (h *Handler) Request(r *http.Request) (*frood.Request, func(), error) {
	var uploads uploads
	cleanup := uploads.remove

	contentType := r.Header.Get("Content-Type")
	if isMultipart(contentType) {
		if err := r.ParseMultipartForm(h.maxMemory); err != nil {
			return nil, cleanup, &frood.CastingError{Value: contentType, Type: frood.TypeArray, Message: err.Error()}
		}
	} else if err := r.ParseForm(); err != nil {
		return nil, cleanup, &frood.CastingError{Value: r.URL.RawQuery, Type: frood.TypeArray, Message: err.Error()}
	}

	files := make(map[string]*frood.FileParameter)
	if r.MultipartForm != nil {
		for name, headers := range r.MultipartForm.File {
			if len(headers) == 0 {
				continue
			}
			files[name] = uploads.store(h.uploadDir, headers[len(headers)-1])
		}
	}

	params := frood.NewParametersFromValues(r.URL.Query(), r.PostForm, files).
		WithCaster(frood.NewCaster(contentType))

	req := frood.NewRequest(r.URL.RequestURI(), params)
	req.Method = r.Method
	return req, cleanup, nil
}

// uploads tracks the temporary files of one request
type uploads []string

func (u *uploads) store(dir string, fh *multipart.FileHeader) *frood.FileParameter {
	path, err := u.save(dir, fh)
	if err != nil {
		return frood.NewFileParameter("", fh.Filename, fh.Size, frood.UploadErrorCode(frood.UploadCantWrite))
	}
	return frood.NewFileParameter(path, fh.Filename, fh.Size, frood.UploadErrorCode(frood.UploadOK))
}

func (u *uploads) save(dir string, fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	f, err := os.CreateTemp(dir, "frood-upload-*")
	if err != nil {
		return "", err
	}
	*u = append(*u, f.Name())

	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		return "", fmt.Errorf("store upload %s: %w", fh.Filename, err)
	}
	return f.Name(), f.Close()
}

func (u *uploads) remove() {
	for _, path := range *u {
		_ = os.Remove(path)
	}
	*u = nil
}

func isMultipart(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(contentType), "multipart/form-data")
}

// WriteResult writes a dispatch result, or the status and diagnostic headers of err
func WriteResult(w http.ResponseWriter, res *frood.Result, err error) {
	if err != nil {
		writeError(w, err)
		return
	}

	header := w.Header()
	for name, values := range res.Header {
		header[name] = values
	}
	header.Set(frood.HeaderDispatchID, res.ID)
	if res.Location == "" {
		header.Set("Content-Length", strconv.Itoa(len(res.Body)))
	}
	w.WriteHeader(res.StatusCode)
	_, _ = w.Write(res.Body)
}

func writeError(w http.ResponseWriter, err error) {
	header := w.Header()
	for name, values := range frood.ErrorHeaders(err) {
		header[name] = values
	}
	header.Set("Content-Type", "text/plain; charset=utf-8")
	header.Set("X-Content-Type-Options", "nosniff")

	status := frood.ErrorStatus(err)
	w.WriteHeader(status)
	_, _ = io.WriteString(w, errorBody(status, err))
}

// errorBody is the text sent with a failed dispatch. Only routing failures expose the
// error message; other failures send the status text.
func errorBody(status int, err error) string {
	var dispatchErr *frood.DispatchError
	if status == http.StatusNotFound && errors.As(err, &dispatchErr) {
		return err.Error() + "\n"
	}
	return http.StatusText(status) + "\n"
}
