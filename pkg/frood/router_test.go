package frood

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func routeWith(t *testing.T, router Router, path string) *Request {
	t.Helper()
	req := NewRequest(path, nil)
	router.Route(req)
	return req
}

func TestSegmentRouter(t *testing.T) {
	module := NewModuleConfiguration("cruisecontrol").WithSubModule("admin", "Admin/")
	router := NewSegmentRouter(module)

	tests := []struct {
		path     string
		expected string
		leftover string
	}{
		{path: "", expected: "/cruisecontrol/public/index/index"},
		{path: "test", expected: "/cruisecontrol/public/test/index"},
		{path: "test/", expected: "/cruisecontrol/public/test/index"},
		{path: "buildresults/frood", expected: "/cruisecontrol/public/buildresults/frood"},
		{path: "public/buildresults/frood", expected: "/cruisecontrol/public/buildresults/frood"},
		{path: "admin", expected: "/cruisecontrol/admin/index/index"},
		{path: "admin/users/ban", expected: "/cruisecontrol/admin/users/ban"},
		{path: "admin/users/ban/42", expected: "/cruisecontrol/admin/users/ban", leftover: "42"},
		{path: "shared/users", expected: "/cruisecontrol/public/shared/users"},
		{path: "build_results/show_all/extra", expected: "/cruisecontrol/public/build_results/show_all", leftover: "extra"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			req := routeWith(t, router, tt.path)
			assert.True(t, req.IsComplete())
			assert.Equal(t, tt.expected, req.String())
			assert.Equal(t, tt.leftover, req.Path())
		})
	}
}

func TestSegmentRouter_KeepsRoutedFields(t *testing.T) {
	router := NewSegmentRouter(NewModuleConfiguration("blog"))

	req := NewRequest("post/show", nil)
	req.SetController("archive")
	router.Route(req)

	assert.Equal(t, "archive", req.Controller())
	assert.Equal(t, "show", req.Action())
}

func TestRoutePattern_Parts(t *testing.T) {
	tests := []struct {
		name     string
		pattern  RoutePattern
		expected []PatternPart
	}{
		{
			name:     "static",
			pattern:  "post/list",
			expected: []PatternPart{{Type: StaticPart, Value: "post/list"}},
		},
		{
			name:    "typed placeholder",
			pattern: "post/{id:int}",
			expected: []PatternPart{
				{Type: StaticPart, Value: "post/"},
				{Type: PlaceholderPart, Value: "id", Kind: TypeInteger},
			},
		},
		{
			name:    "untyped placeholder and wildcard",
			pattern: "files/{name}/{*}",
			expected: []PatternPart{
				{Type: StaticPart, Value: "files/"},
				{Type: PlaceholderPart, Value: "name"},
				{Type: StaticPart, Value: "/"},
				{Type: WildcardPart, Value: "*"},
			},
		},
		{
			name:     "regexp quantifier stays static",
			pattern:  "year/([0-9]{4})",
			expected: []PatternPart{{Type: StaticPart, Value: "year/([0-9]{4})"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.pattern.Parts())
		})
	}
}

func TestRoutePattern_Compile(t *testing.T) {
	re, err := RoutePattern("post/{id:int}").Compile()
	require.NoError(t, err)

	assert.True(t, re.MatchString("post/42"))
	assert.True(t, re.MatchString("post/-42?x=1"))
	assert.False(t, re.MatchString("post/abc"))
	assert.False(t, re.MatchString("post/42/comments"))

	_, err = RoutePattern("post/(").Compile()
	var cfgErr *ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestPatternRouter(t *testing.T) {
	module := NewModuleConfiguration("blog")
	routes := []PatternRoute{
		{Pattern: "post/{id:int}", Controller: "post", Action: "show", SubModule: "public"},
		{Pattern: "archive/([0-9]{4})/([0-9]{2})", SubModule: "public", Controller: "archive", Action: "month",
			Parameters: map[string]string{"year": "$1", "month": "$2", "day": "$3"}},
		{Pattern: "feed/(rss|atom)", Module: "syndication", SubModule: "public", Controller: "$1", Action: "index"},
		{Pattern: "about", SubModule: "public", Controller: "page"},
	}

	router, err := NewPatternRouter(module.Name, routes, NewSegmentRouter(module))
	require.NoError(t, err)

	t.Run("named placeholder becomes parameter", func(t *testing.T) {
		req := routeWith(t, router, "post/42")
		assert.Equal(t, "/blog/public/post/show", req.String())
		assert.Empty(t, req.Path())

		id, err := req.Parameters().GetInt("id")
		require.NoError(t, err)
		assert.Equal(t, 42, id)
	})

	t.Run("template parameters skip empty values", func(t *testing.T) {
		req := routeWith(t, router, "archive/2009/03")
		assert.Equal(t, "/blog/public/archive/month", req.String())
		assert.Equal(t, []string{"Month", "Year"}, req.Parameters().Names())

		year, err := req.Parameters().GetInt("year")
		require.NoError(t, err)
		assert.Equal(t, 2009, year)
	})

	t.Run("explicit module and group substitution", func(t *testing.T) {
		req := routeWith(t, router, "feed/atom")
		assert.Equal(t, "/syndication/public/atom/index", req.String())
	})

	t.Run("partial route leaves the rest open", func(t *testing.T) {
		req := routeWith(t, router, "about")
		assert.Equal(t, "blog", req.Module())
		assert.Equal(t, "page", req.Controller())
		assert.Empty(t, req.Action())
		assert.False(t, req.IsComplete())
		assert.Empty(t, req.Path())
	})

	t.Run("no match falls back", func(t *testing.T) {
		req := routeWith(t, router, "user/profile")
		assert.Equal(t, "/blog/public/user/profile", req.String())
	})

	t.Run("no match without fallback", func(t *testing.T) {
		strict, err := NewPatternRouter(module.Name, routes, nil)
		require.NoError(t, err)

		req := routeWith(t, strict, "user/profile")
		assert.Empty(t, req.Module())
	})
}

func TestAPIRouter(t *testing.T) {
	module := NewModuleConfiguration("shop").WithSubModule(APISubModule, "Api/")
	router := NewAPIRouter(module)

	tests := []struct {
		name     string
		path     string
		expected string
		item     string
		leftover string
	}{
		{name: "collection", path: "api/v1/orders", expected: "/shop/api/orders_v1/api"},
		{name: "item", path: "api/v1/orders/42", expected: "/shop/api/orders_v1/api", item: "42"},
		{name: "action", path: "api/2/orders/cancel/42", expected: "/shop/api/orders_2/cancel", item: "42"},
		{name: "trailing slash", path: "api/v1/orders/", expected: "/shop/api/orders_v1/api"},
		{name: "segments after the item", path: "api/v1/orders/42/comments", expected: "/shop/api/orders_v1/api", item: "42", leftover: "comments"},
		{name: "segments after action and item", path: "api/v1/orders/cancel/42/x", expected: "/shop/api/orders_v1/cancel", item: "42", leftover: "x"},
		{name: "resource is a whole segment", path: "api/v1/orders-x", expected: "/shop/api/v1/orders", leftover: "-x"},
		{name: "not an api path", path: "orders/list", expected: "/shop/public/orders/list"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := routeWith(t, router, tt.path)
			assert.Equal(t, tt.expected, req.String())
			assert.Equal(t, tt.leftover, req.Path())

			item, ok := req.Parameters().Raw(ItemParameter)
			if tt.item == "" {
				assert.False(t, ok)
				return
			}
			assert.Equal(t, tt.item, item)
		})
	}

	t.Run("module without api sub-module", func(t *testing.T) {
		plain := NewAPIRouter(NewModuleConfiguration("shop"))
		req := routeWith(t, plain, "api/v1/orders")
		assert.Equal(t, "/shop/public/api/v1", req.String())
	})
}

func TestRouterChain(t *testing.T) {
	var calls []string
	partial := RouterFunc(func(req *Request) {
		calls = append(calls, "partial")
		req.SetModule("blog").SetSubModule("public")
	})
	finisher := RouterFunc(func(req *Request) {
		calls = append(calls, "finisher")
		req.SetController("post").SetAction("show")
	})
	never := RouterFunc(func(req *Request) {
		calls = append(calls, "never")
	})

	t.Run("stops once complete", func(t *testing.T) {
		calls = nil
		chain := NewRouterChain(partial, finisher).Add(never)
		assert.Equal(t, 3, chain.Len())

		req := NewRequest("whatever", nil)
		require.NoError(t, chain.Route(req))
		assert.Equal(t, "/blog/public/post/show", req.String())
		assert.Equal(t, []string{"partial", "finisher"}, calls)
	})

	t.Run("incomplete request fails", func(t *testing.T) {
		calls = nil
		chain := NewRouterChain(partial, never)

		req := NewRequest("whatever", nil)
		err := chain.Route(req)

		var dispatchErr *DispatchError
		require.True(t, errors.As(err, &dispatchErr))
		assert.Same(t, req, dispatchErr.Request)
		assert.Equal(t, []string{"partial", "never"}, calls)
	})
}
