package frood

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultName is used for any controller or action a path does not name.
const DefaultName = "index"

// Router fills in whatever parts of a request it can resolve. A router never changes a
// field that is already set.
type Router interface {
	Route(req *Request)
}

// RouterFunc adapts a function to the Router interface
type RouterFunc func(req *Request)

// Route implements Router
func (f RouterFunc) Route(req *Request) {
	f(req)
}

var segmentPattern = regexp.MustCompile(`^([a-z][a-z0-9_]*)?(?:/([a-z][a-z0-9_]*))?(?:/([a-z][a-z0-9_]*))?`)

// SegmentRouter routes "[subModule/]controller/action" paths within one module. When the
// first segment names a routable sub-module of the module, the segments are read as
// sub-module, controller and action; otherwise the sub-module is "public" and the
// segments are controller and action. Missing segments default to "index".
type SegmentRouter struct {
	Module *ModuleConfiguration
}

// NewSegmentRouter creates a SegmentRouter for a module
func NewSegmentRouter(module *ModuleConfiguration) *SegmentRouter {
	return &SegmentRouter{Module: module}
}

// Route implements Router
func (r *SegmentRouter) Route(req *Request) {
	m := segmentPattern.FindStringSubmatch(req.Path())
	if m == nil {
		return
	}

	req.SetModule(r.Module.Name)
	req.consume(m[0])
	if m[1] != "" && r.Module.HasSubModule(m[1]) {
		req.SetSubModule(m[1]).
			SetController(orDefault(m[2])).
			SetAction(orDefault(m[3]))
		return
	}
	req.SetSubModule(PublicSubModule).
		SetController(orDefault(m[1])).
		SetAction(orDefault(m[2]))
}

// String implements fmt.Stringer
func (r *SegmentRouter) String() string {
	return fmt.Sprintf("SegmentRouter(%s)", r.Module.Name)
}

func orDefault(name string) string {
	if name == "" {
		return DefaultName
	}
	return name
}

// RouterChain runs routers in order until a request is complete. A chain holds no
// per-request state and may be reused across requests.
type RouterChain struct {
	routers []Router
}

// NewRouterChain creates a chain of routers
func NewRouterChain(routers ...Router) *RouterChain {
	return &RouterChain{routers: routers}
}

// Add appends a router to the chain
func (c *RouterChain) Add(router Router) *RouterChain {
	c.routers = append(c.routers, router)
	return c
}

// Len returns the number of routers in the chain
func (c *RouterChain) Len() int {
	return len(c.routers)
}

// Route runs the routers until the request is complete. A request still incomplete after
// the last router yields a DispatchError carrying the partially routed request.
func (c *RouterChain) Route(req *Request) error {
	for _, router := range c.routers {
		if req.IsComplete() {
			return nil
		}
		router.Route(req)
	}
	if req.IsComplete() {
		return nil
	}
	return NewDispatchError(req, "no router could complete request %q", req.URI())
}

// String implements fmt.Stringer
func (c *RouterChain) String() string {
	names := make([]string, len(c.routers))
	for i, r := range c.routers {
		names[i] = fmt.Sprintf("%v", r)
	}
	return "RouterChain[" + strings.Join(names, ", ") + "]"
}
