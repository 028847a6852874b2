package adapters

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/toyz/frood/pkg/frood"
)

func init() {
	// Set Gin to test mode to reduce noise in test output
	gin.SetMode(gin.TestMode)
}

func TestGinAdapter(t *testing.T) {
	engine := gin.New()
	engine.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	adapter := NewGinAdapter(engine, testDispatcher(t))

	assert.Equal(t, "Gin", adapter.Name())
	assert.Same(t, engine, adapter.GetEngine())

	tests := []struct {
		name   string
		target string
		status int
		body   string
	}{
		{name: "dispatched", target: "/cruisecontrol/build/show?id=7", status: http.StatusOK, body: `{"id":7,"label":"none","method":"GET"}`},
		{name: "engine route", target: "/health", status: http.StatusOK, body: "ok"},
		{name: "dispatch error", target: "/cruisecontrol/buildresults/frood", status: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))

			assert.Equal(t, tt.status, rec.Code)
			switch {
			case tt.status != http.StatusOK:
				assert.NotEmpty(t, rec.Header().Get(frood.HeaderError))
			case tt.target == "/health":
				assert.Equal(t, tt.body, rec.Body.String())
			default:
				assert.JSONEq(t, tt.body, rec.Body.String())
			}
		})
	}
}
