package adapters

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toyz/frood/pkg/frood"
)

func testDispatcher(t *testing.T) *frood.Dispatcher {
	t.Helper()

	config := frood.NewConfiguration().
		AddModule(frood.NewModuleConfiguration("cruisecontrol")).
		AddBaseRoute("/cruisecontrol", "cruisecontrol")

	reg := frood.NewRegistry()
	reg.Controller("cruisecontrol", "public", "build").
		Action("show", func(c *frood.Controller, id int, label string) {
			c.Assign("id", id)
			c.Assign("label", label)
			c.Assign("method", c.Request().Method)
		}, frood.Required("id", frood.TypeInteger), frood.Optional("label", frood.TypeString, "none")).
		Action("upload", func(c *frood.Controller, report *frood.FileParameter) error {
			data, err := os.ReadFile(report.Path)
			if err != nil {
				return err
			}
			c.Assign("name", report.OriginalName)
			c.Assign("content", string(data))
			c.Assign("mime", report.MIMEType)
			return nil
		}, frood.Required("report", frood.TypeFile)).
		Action("away", func(c *frood.Controller) frood.Outcome {
			return c.Redirect("/cruisecontrol/build/show?id=1")
		})
	require.NoError(t, reg.Err())

	return frood.NewDispatcher(config, reg)
}

func multipartBody(t *testing.T, fields map[string]string, fileField, fileName, content string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileField != "" {
		part, err := w.CreateFormFile(fileField, fileName)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestHandler(t *testing.T) {
	h := NewHandler(testDispatcher(t), WithUploadDir(t.TempDir()))

	tests := []struct {
		name        string
		method      string
		target      string
		body        string
		contentType string
		status      int
		expected    string
	}{
		{
			name:     "query parameters",
			method:   http.MethodGet,
			target:   "/cruisecontrol/build/show?id=42",
			status:   http.StatusOK,
			expected: `{"id":42,"label":"none","method":"GET"}`,
		},
		{
			name:        "form body wins over query",
			method:      http.MethodPost,
			target:      "/cruisecontrol/build/show?id=1&label=query",
			body:        url.Values{"label": {"form"}}.Encode(),
			contentType: "application/x-www-form-urlencoded",
			status:      http.StatusOK,
			expected:    `{"id":1,"label":"form","method":"POST"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.JSONEq(t, tt.expected, rec.Body.String())
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.NotEmpty(t, rec.Header().Get(frood.HeaderDispatchID))
		})
	}
}

func TestHandler_Upload(t *testing.T) {
	dir := t.TempDir()
	h := NewHandler(testDispatcher(t), WithUploadDir(dir), WithMaxMemory(1<<10))

	body, contentType := multipartBody(t, nil, "report", "report.txt", "all green")
	req := httptest.NewRequest(http.MethodPost, "/cruisecontrol/build/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"content":"all green"`)
	assert.Contains(t, rec.Body.String(), `"name":"report.txt"`)
	assert.Contains(t, rec.Body.String(), `"mime":"text/plain`)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "uploads are removed after the dispatch")
}

func TestHandler_Errors(t *testing.T) {
	h := NewHandler(testDispatcher(t))

	tests := []struct {
		name    string
		target  string
		status  int
		request string
	}{
		{name: "unknown controller", target: "/cruisecontrol/buildresults/frood?tab=coverage", status: http.StatusNotFound,
			request: "/cruisecontrol/public/buildresults/frood"},
		{name: "no base route", target: "/elsewhere", status: http.StatusNotFound},
		{name: "missing parameter", target: "/cruisecontrol/build/show", status: http.StatusBadRequest,
			request: "/cruisecontrol/public/build/show"},
		{name: "missing file", target: "/cruisecontrol/build/upload", status: http.StatusBadRequest,
			request: "/cruisecontrol/public/build/upload"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))

			assert.Equal(t, tt.status, rec.Code)
			assert.NotEmpty(t, rec.Header().Get(frood.HeaderError))
			assert.Equal(t, tt.request, rec.Header().Get(frood.HeaderRequest))
			assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
		})
	}
}

func TestHandler_Redirect(t *testing.T) {
	h := NewHandler(testDispatcher(t))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cruisecontrol/build/away", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/cruisecontrol/build/show?id=1", rec.Header().Get("Location"))
}

func TestMountChi(t *testing.T) {
	r := NewChiRouter(testDispatcher(t))
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cruisecontrol/build/show?id=3", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":3,"label":"none","method":"GET"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, "ok", rec.Body.String())
}
