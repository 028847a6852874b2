package adapters

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/toyz/frood/pkg/frood"
)

func TestEchoAdapter(t *testing.T) {
	adapter := NewDefaultEchoAdapter(testDispatcher(t))
	assert.Equal(t, "Echo", adapter.Name())

	e := adapter.GetEcho()
	e.GET("/health", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	t.Run("dispatched", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/cruisecontrol/build/show", strings.NewReader(url.Values{"id": {"9"}}.Encode()))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"id":9,"label":"none","method":"POST"}`, rec.Body.String())
	})

	t.Run("engine route", func(t *testing.T) {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, "ok", rec.Body.String())
	})

	t.Run("dispatch error", func(t *testing.T) {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cruisecontrol/build/show?id=x", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "/cruisecontrol/public/build/show", rec.Header().Get(frood.HeaderRequest))
	})
}
