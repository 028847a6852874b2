package frood

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestControllerKeyAndActionMethod(t *testing.T) {
	assert.Equal(t, "cruisecontrol_public_controller_buildresults", ControllerKey("cruisecontrol", "public", "buildresults"))
	assert.Equal(t, "indexAction", ActionMethod("index"))
	assert.Equal(t, "showAllAction", ActionMethod("show_all"))
}

func TestRegistry_Lookup(t *testing.T) {
	reg := NewRegistry()
	reg.Controller("cruisecontrol", "public", "test").
		Init(func(c *Controller) { c.OutputText() }).
		Action("index", func(c *Controller) {})

	t.Run("found", func(t *testing.T) {
		req := NewRouteRequest("cruisecontrol", "public", "test", "index", nil)
		action, init, err := reg.Lookup(req)
		require.NoError(t, err)
		require.NotNil(t, init)
		assert.Equal(t, "indexAction", action.Info().Method)
		assert.Equal(t, "/cruisecontrol/public/test/index", action.Info().Path())
	})

	t.Run("unknown controller", func(t *testing.T) {
		req := NewRouteRequest("cruisecontrol", "public", "buildresults", "frood", nil)
		_, _, err := reg.Lookup(req)

		var dispatchErr *DispatchError
		require.True(t, errors.As(err, &dispatchErr))
		assert.Contains(t, err.Error(), "cruisecontrol_public_controller_buildresults does not exist")
		assert.Equal(t, "buildresults", dispatchErr.Request.Controller())
		assert.Equal(t, "frood", dispatchErr.Request.Action())
	})

	t.Run("unknown action", func(t *testing.T) {
		req := NewRouteRequest("cruisecontrol", "public", "test", "frood", nil)
		_, _, err := reg.Lookup(req)
		assert.ErrorContains(t, err, "froodAction does not exist")
	})
}

func TestRegistry_RecordsRegistrationErrors(t *testing.T) {
	reg := NewRegistry()
	reg.Controller("blog", "public", "post").
		Action("show", func(id int) {}, Required("id", TypeInteger)).
		Action("broken", func(id string) {}, Required("id", TypeInteger)).
		Action("Bad-Name", func() {})

	err := reg.Err()
	require.Error(t, err)

	var mismatch *SignatureMismatchError
	assert.True(t, errors.As(err, &mismatch))
	var cfgErr *ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))

	infos := reg.Actions()
	require.Len(t, infos, 3)
	assert.NoError(t, infos[0].Err)
	assert.Error(t, infos[1].Err)

	action, _, lookupErr := reg.Lookup(NewRouteRequest("blog", "public", "post", "broken", nil))
	require.NoError(t, lookupErr)
	_, callErr := action.Call(context.Background(), nil, NewParameters(map[string]any{"id": "1"}))
	assert.True(t, errors.As(callErr, &mismatch))
}

func TestRegistry_ActionsByModule(t *testing.T) {
	reg := NewRegistry()
	reg.Controller("shop", "public", "product").Action("list", func() {})
	reg.Controller("blog", "public", "post").Action("show", func() {}).Action("index", func() {})
	reg.Controller("blog", "admin", "post").Action("edit", func() {})

	var paths []string
	for _, info := range reg.ActionsByModule("blog") {
		paths = append(paths, info.Path())
	}
	assert.Equal(t, []string{"/blog/admin/post/edit", "/blog/public/post/index", "/blog/public/post/show"}, paths)

	assert.Len(t, reg.Actions(), 4)
	assert.NoError(t, reg.Err())
}

func TestRegistry_ReRegisterReplacesAction(t *testing.T) {
	reg := NewRegistry()
	entry := reg.Controller("blog", "public", "post")
	entry.Action("show", func() error { return errors.New("first") })
	entry.Action("show", func() error { return nil })

	assert.Same(t, entry, reg.Controller("blog", "public", "post"))
	require.Len(t, reg.Actions(), 1)

	action, _, err := reg.Lookup(NewRouteRequest("blog", "public", "post", "show", nil))
	require.NoError(t, err)
	_, err = action.Call(context.Background(), nil, nil)
	assert.NoError(t, err)
}
