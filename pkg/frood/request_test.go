package frood

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequest(t *testing.T) {
	params := NewParameters(map[string]any{"tab": "summary"})
	req := NewRequest("/cruisecontrol/public/buildresults/frood?tab=coverage&page=2", params)

	assert.Equal(t, "/cruisecontrol/public/buildresults/frood", req.Path())
	assert.Equal(t, "/cruisecontrol/public/buildresults/frood?tab=coverage&page=2", req.URI())
	assert.Equal(t, "GET", req.Method)

	tab, err := req.Parameters().GetString("tab")
	require.NoError(t, err)
	assert.Equal(t, "summary", tab, "explicit parameters win over the query")

	page, err := req.Parameters().GetInt("page")
	require.NoError(t, err)
	assert.Equal(t, 2, page)
}

func TestRequest_SettersOnlyFillEmptyFields(t *testing.T) {
	req := NewRequest("/", nil)
	assert.False(t, req.IsComplete())

	req.SetModule("blog").SetSubModule("public").SetController("post").SetAction("show")
	assert.True(t, req.IsComplete())

	req.SetModule("other").SetSubModule("admin").SetController("x").SetAction("y")
	assert.Equal(t, "/blog/public/post/show", req.String())
}

func TestNewRouteRequest(t *testing.T) {
	req := NewRouteRequest("blog", "admin", "post", "edit", nil)
	assert.True(t, req.IsComplete())
	assert.Equal(t, "/blog/admin/post/edit", req.URI())
	assert.NotNil(t, req.Parameters())
}

func TestRequest_MatchPrefix(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		prefix   string
		matches  bool
		leftover string
	}{
		{name: "exact", uri: "/blog", prefix: "/blog", matches: true, leftover: ""},
		{name: "segment", uri: "/blog/post/show", prefix: "/blog", matches: true, leftover: "post/show"},
		{name: "trailing slash prefix", uri: "/blog/post", prefix: "/blog/", matches: true, leftover: "post"},
		{name: "root", uri: "/post/show", prefix: "/", matches: true, leftover: "post/show"},
		{name: "partial segment", uri: "/blogger/post", prefix: "/blog", matches: false, leftover: "/blogger/post"},
		{name: "unrelated", uri: "/news", prefix: "/blog", matches: false, leftover: "/news"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := NewRequest(tt.uri, nil)
			assert.Equal(t, tt.matches, req.MatchPrefix(tt.prefix))
			assert.Equal(t, tt.leftover, req.Path())
		})
	}
}
