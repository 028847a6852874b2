package frood

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"time"
)

// DefaultRemoteTimeout bounds a remote dispatch when the context has no deadline.
const DefaultRemoteTimeout = 30 * time.Second

// Remote dispatches actions of a module on another host over HTTP. With an empty
// SubModule actions are posted to {host}/{module}/{controller}/{action} and the remote
// routes them to its public sub-module; otherwise the sub-module is part of the path.
type Remote struct {
	Host      string
	Module    string
	SubModule string

	client *http.Client
	logger *slog.Logger
}

// RemoteOption configures a Remote
type RemoteOption func(*Remote)

// WithHTTPClient sets the client remote requests are sent with
func WithHTTPClient(client *http.Client) RemoteOption {
	return func(r *Remote) {
		if client != nil {
			r.client = client
		}
	}
}

// WithRemoteLogger sets the remote logger
func WithRemoteLogger(logger *slog.Logger) RemoteOption {
	return func(r *Remote) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRemote creates a Remote for a module on host. subModule may be empty.
func NewRemote(host, module, subModule string, opts ...RemoteOption) *Remote {
	r := &Remote{
		Host:      host,
		Module:    module,
		SubModule: subModule,
		client:    &http.Client{Timeout: DefaultRemoteTimeout},
		logger:    discardLogger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// URL returns the URL an action is posted to
func (r *Remote) URL(controller, action string) string {
	url := strings.TrimSuffix(r.Host, "/") + "/" + r.Module + "/"
	if r.SubModule != "" {
		url += r.SubModule + "/"
	}
	return url + controller + "/" + action
}

// Dispatch posts params to the action on the remote host and returns the response body.
// Parameters are sent as form fields under their word-form names and files as multipart
// parts. Transport failures and non-2xx responses yield a RemoteDispatchError; requests
// are never retried.
func (r *Remote) Dispatch(ctx context.Context, controller, action string, params *Parameters) ([]byte, error) {
	if params == nil {
		params = NewParameters(nil)
	}
	subModule := r.SubModule
	if subModule == "" {
		subModule = PublicSubModule
	}
	req := NewRouteRequest(r.Module, subModule, controller, action, params)
	req.Method = http.MethodPost

	body, contentType, err := encodeMultipart(params)
	if err != nil {
		return nil, r.failure(req, 0, nil, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.URL(controller, action), body)
	if err != nil {
		return nil, r.failure(req, 0, nil, err)
	}
	httpReq.Header.Set("Content-Type", contentType)

	start := time.Now()
	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, r.failure(req, 0, nil, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, r.failure(req, resp.StatusCode, resp.Header, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, r.failure(req, resp.StatusCode, resp.Header, nil)
	}

	r.logger.Debug("remote dispatch", "host", r.Host, "request", req.String(), "status", resp.StatusCode, "duration", time.Since(start))
	return data, nil
}

func (r *Remote) failure(req *Request, status int, header http.Header, cause error) *RemoteDispatchError {
	diagnostics := make(http.Header)
	for name, values := range header {
		if strings.HasPrefix(http.CanonicalHeaderKey(name), HeaderPrefix) {
			diagnostics[http.CanonicalHeaderKey(name)] = append([]string(nil), values...)
		}
	}

	err := &RemoteDispatchError{
		DispatchError: DispatchError{
			Message: fmt.Sprintf("could not call %s(%s) on the host %s", req.String(), req.Parameters().String(), r.Host),
			Request: req,
			Err:     cause,
		},
		Host:        r.Host,
		Status:      status,
		Diagnostics: diagnostics,
	}
	r.logger.Warn("remote dispatch failed", "host", r.Host, "request", req.String(), "status", status, "error", cause)
	return err
}

// Errors returns every error the remote host reported in its diagnostic headers
func (e *RemoteDispatchError) Errors() []string {
	return e.Diagnostics.Values(HeaderError)
}

// encodeMultipart writes the parameters as a multipart form. Lists become repeated
// "name[]" fields and maps "name[key]" fields.
func encodeMultipart(params *Parameters) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	var err error
	params.Each(func(name string, value any) bool {
		err = writeField(w, ToWordForm(name), value)
		return err == nil
	})
	if err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func writeField(w *multipart.Writer, name string, value any) error {
	switch v := value.(type) {
	case nil:
		return w.WriteField(name, "")
	case *FileParameter:
		return writeFile(w, name, v)
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := writeField(w, name+"["+k+"]", v[k]); err != nil {
				return err
			}
		}
		return nil
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() != reflect.Uint8 {
		for i := 0; i < rv.Len(); i++ {
			if err := writeField(w, name+"[]", rv.Index(i).Interface()); err != nil {
				return err
			}
		}
		return nil
	}

	s, err := Cast(TypeString, value)
	if err != nil {
		return fmt.Errorf("parameter %s: %w", name, err)
	}
	return w.WriteField(name, s.(string))
}

func writeFile(w *multipart.Writer, name string, file *FileParameter) error {
	f, err := os.Open(file.Path)
	if err != nil {
		return fmt.Errorf("parameter %s: %w", name, err)
	}
	defer f.Close()

	filename := file.OriginalName
	if filename == "" {
		filename = filepath.Base(file.Path)
	}
	part, err := w.CreateFormFile(name, filename)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, f)
	return err
}
