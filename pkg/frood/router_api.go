package frood

import (
	"fmt"
	"regexp"
)

const (
	// APISubModule is the sub-module API requests are routed to.
	APISubModule = "api"

	// APIAction is the action of API requests that do not name one.
	APIAction = "api"

	// ItemParameter is the parameter holding the trailing item id of an API request.
	ItemParameter = "item"
)

// apiPattern matches a prefix of the path; segments after the item are left unrouted.
var apiPattern = regexp.MustCompile(`^api/([a-z0-9][a-z0-9_]*)/([a-z][a-z0-9_]*)(?:/([a-z][a-z0-9_]*))?(?:/([^/?]+))?(?:/|$)`)

// APIRouter routes "api/{version}/{resource}[/{action}][/{item}]" paths to the api
// sub-module of a module. The controller becomes "{resource}_{version}" and the action
// defaults to "api". Modules without an api sub-module, and paths that do not start
// with an api prefix, are routed by the segment router.
type APIRouter struct {
	Module   *ModuleConfiguration
	Fallback Router
}

// NewAPIRouter creates an APIRouter falling back to segment routing
func NewAPIRouter(module *ModuleConfiguration) *APIRouter {
	return &APIRouter{Module: module, Fallback: NewSegmentRouter(module)}
}

// Route implements Router
func (r *APIRouter) Route(req *Request) {
	m := apiPattern.FindStringSubmatch(req.Path())
	if m == nil || !r.Module.HasSubModule(APISubModule) {
		if r.Fallback != nil {
			r.Fallback.Route(req)
		}
		return
	}

	version, resource, action, item := m[1], m[2], m[3], m[4]
	if action == "" {
		action = APIAction
	}

	req.SetModule(r.Module.Name).
		SetSubModule(APISubModule).
		SetController(resource + "_" + version).
		SetAction(action)
	if item != "" {
		req.Parameters().Add(ItemParameter, item)
	}
	req.consume(m[0])
}

// String implements fmt.Stringer
func (r *APIRouter) String() string {
	return fmt.Sprintf("APIRouter(%s)", r.Module.Name)
}
