package frood

import (
	"net/http"
	"net/url"
	"strings"
)

// Request is the routing state of one dispatch. Routers fill in the module, sub-module,
// controller and action; once a field is set it is never changed.
type Request struct {
	module     string
	subModule  string
	controller string
	action     string

	// Method is the HTTP verb of the originating request, empty when not dispatched over HTTP.
	Method string

	uri        string
	path       string
	parameters *Parameters
}

// NewRequest creates a Request for a raw URI. A query string in the URI is parsed into
// the parameters; params, when given, are added on top.
func NewRequest(uri string, params *Parameters) *Request {
	r := &Request{uri: uri, Method: http.MethodGet}

	path, rawQuery, _ := strings.Cut(uri, "?")
	r.path = path

	r.parameters = params
	if r.parameters == nil {
		r.parameters = NewParameters(nil)
	}

	if rawQuery != "" {
		if query, err := url.ParseQuery(rawQuery); err == nil {
			fromQuery := NewParametersFromValues(query, nil, nil)
			fromQuery.Each(func(name string, value any) bool {
				if _, exists := r.parameters.Raw(name); !exists {
					r.parameters.Add(name, value)
				}
				return true
			})
		}
	}
	return r
}

// NewRouteRequest creates an already routed Request
func NewRouteRequest(module, subModule, controller, action string, params *Parameters) *Request {
	r := NewRequest("", params)
	r.SetModule(module).SetSubModule(subModule).SetController(controller).SetAction(action)
	r.uri = r.String()
	return r
}

// Module returns the routed module name
func (r *Request) Module() string { return r.module }

// SubModule returns the routed sub-module name
func (r *Request) SubModule() string { return r.subModule }

// Controller returns the routed controller name
func (r *Request) Controller() string { return r.controller }

// Action returns the routed action name
func (r *Request) Action() string { return r.action }

// URI returns the raw URI the request was created from
func (r *Request) URI() string { return r.uri }

// Path returns the part of the request path routers have not consumed yet
func (r *Request) Path() string { return r.path }

// Parameters returns the request parameters
func (r *Request) Parameters() *Parameters { return r.parameters }

// SetModule sets the module unless it is already set
func (r *Request) SetModule(module string) *Request {
	if r.module == "" {
		r.module = module
	}
	return r
}

// SetSubModule sets the sub-module unless it is already set
func (r *Request) SetSubModule(subModule string) *Request {
	if r.subModule == "" {
		r.subModule = subModule
	}
	return r
}

// SetController sets the controller unless it is already set
func (r *Request) SetController(controller string) *Request {
	if r.controller == "" {
		r.controller = controller
	}
	return r
}

// SetAction sets the action unless it is already set
func (r *Request) SetAction(action string) *Request {
	if r.action == "" {
		r.action = action
	}
	return r
}

// SetParameters replaces the request parameters
func (r *Request) SetParameters(params *Parameters) *Request {
	if params != nil {
		r.parameters = params
	}
	return r
}

// IsComplete reports whether module, sub-module, controller and action are all set
func (r *Request) IsComplete() bool {
	return r.module != "" && r.subModule != "" && r.controller != "" && r.action != ""
}

// MatchPrefix consumes prefix from the unrouted path when the path starts with it. The
// prefix only matches whole path segments: "/blog" matches "/blog" and "/blog/x" but not
// "/blogger".
func (r *Request) MatchPrefix(prefix string) bool {
	if !matchesPrefix(r.path, prefix) {
		return false
	}
	r.path = strings.TrimPrefix(r.path[len(prefix):], "/")
	return true
}

// consume removes the part of the unrouted path a router matched
func (r *Request) consume(matched string) {
	r.path = strings.TrimPrefix(strings.TrimPrefix(r.path, matched), "/")
}

func matchesPrefix(path, prefix string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	if len(path) == len(prefix) || strings.HasSuffix(prefix, "/") {
		return true
	}
	return path[len(prefix)] == '/'
}

// String renders the routing state as "/module/sub/controller/action"
func (r *Request) String() string {
	return "/" + r.module + "/" + r.subModule + "/" + r.controller + "/" + r.action
}
