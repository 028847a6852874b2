// Package frood routes request URIs to module, sub-module, controller and action
// handlers and invokes them with typed parameters.
//
// A Configuration maps URI prefixes to modules and describes how each module routes
// its paths. A Registry holds the actions, registered by hand or by code generated with
// "frood gen". The Dispatcher ties them together:
//
//	config := frood.NewConfiguration().
//		AddModule(frood.NewModuleConfiguration("blog").WithSubModule("admin", "Admin/")).
//		AddBaseRoute("/blog", "blog")
//
//	reg := frood.NewRegistry()
//	reg.Controller("blog", "public", "post").
//		Action("show", func(c *frood.Controller, id int) error {
//			c.Assign("id", id)
//			return nil
//		}, frood.Required("id", frood.TypeInteger))
//
//	d := frood.NewDispatcher(config, reg)
//	res, err := d.DispatchURI(ctx, "/blog/post/show?id=42", nil)
package frood
