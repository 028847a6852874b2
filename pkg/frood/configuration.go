package frood

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

const (
	// PublicSubModule is the sub-module requests are routed to when no other is named.
	PublicSubModule = "public"

	// SharedSubModule holds code shared by the other sub-modules. It is never routable.
	SharedSubModule = "shared"
)

// BaseRoute maps a URI prefix to the modules that serve it, in routing order.
type BaseRoute struct {
	Prefix  string
	Modules []string
}

// ModuleConfiguration describes one module: its sub-modules and how requests are routed
// within it.
type ModuleConfiguration struct {
	Name string

	// SubModules maps sub-module names to their autoload paths.
	SubModules map[string]string

	// Patterns are tried before segment routing, in order.
	Patterns []PatternRoute

	// NoFallback stops the pattern router from falling back to segment routing.
	NoFallback bool

	// API installs the API router for "api/{version}/{resource}" paths.
	API bool

	// Routers replaces the routers derived from the fields above when set.
	Routers []Router
}

// NewModuleConfiguration creates a module with the default public and shared sub-modules
func NewModuleConfiguration(name string) *ModuleConfiguration {
	return &ModuleConfiguration{
		Name: name,
		SubModules: map[string]string{
			PublicSubModule: "Public/",
			SharedSubModule: "Shared/",
		},
	}
}

// WithSubModule adds a sub-module and its autoload path
func (m *ModuleConfiguration) WithSubModule(name, path string) *ModuleConfiguration {
	if m.SubModules == nil {
		m.SubModules = make(map[string]string)
	}
	m.SubModules[name] = path
	return m
}

// HasSubModule reports whether name is a routable sub-module of the module
func (m *ModuleConfiguration) HasSubModule(name string) bool {
	if name == SharedSubModule {
		return false
	}
	_, ok := m.SubModules[name]
	return ok
}

// AutoloadPath returns the autoload path of a sub-module
func (m *ModuleConfiguration) AutoloadPath(subModule string) (string, error) {
	path, ok := m.SubModules[subModule]
	if !ok {
		return "", &ConfigurationError{
			Key:     "modules." + m.Name + ".sub_modules",
			Message: fmt.Sprintf("sub-module %q is not configured", subModule),
		}
	}
	return path, nil
}

// SubModuleNames returns the sub-module names, sorted
func (m *ModuleConfiguration) SubModuleNames() []string {
	names := make([]string, 0, len(m.SubModules))
	for name := range m.SubModules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BuildRouters returns the module's routers: the explicit Routers when set, otherwise
// pattern routing (when patterns exist) falling back to API or segment routing.
func (m *ModuleConfiguration) BuildRouters() ([]Router, error) {
	if len(m.Routers) > 0 {
		return m.Routers, nil
	}

	var base Router = NewSegmentRouter(m)
	if m.API {
		base = NewAPIRouter(m)
	}
	if len(m.Patterns) == 0 {
		return []Router{base}, nil
	}

	fallback := base
	if m.NoFallback {
		fallback = nil
	}
	pr, err := NewPatternRouter(m.Name, m.Patterns, fallback)
	if err != nil {
		return nil, err
	}
	return []Router{pr}, nil
}

// Validate checks the module for configuration errors
func (m *ModuleConfiguration) Validate() error {
	if !namePattern.MatchString(m.Name) {
		return &ConfigurationError{Key: "modules", Message: fmt.Sprintf("invalid module name %q", m.Name)}
	}
	if _, ok := m.SubModules[PublicSubModule]; !ok {
		return &ConfigurationError{Key: "modules." + m.Name, Message: "the public sub-module is required"}
	}
	for _, p := range m.Patterns {
		if _, err := p.Pattern.Compile(); err != nil {
			return err
		}
	}
	return nil
}

// Configuration holds the base routes and module configurations of an application. It is
// built once at startup and passed to the Dispatcher; after that it is read-only apart
// from the router chains it builds and caches on first use.
type Configuration struct {
	baseRoutes []BaseRoute
	modules    map[string]*ModuleConfiguration

	mu     sync.Mutex
	chains map[string]*RouterChain
}

// NewConfiguration creates an empty configuration
func NewConfiguration() *Configuration {
	return &Configuration{
		modules: make(map[string]*ModuleConfiguration),
		chains:  make(map[string]*RouterChain),
	}
}

// AddModule registers a module configuration
func (c *Configuration) AddModule(m *ModuleConfiguration) *Configuration {
	c.modules[m.Name] = m
	return c
}

// AddBaseRoute maps a URI prefix to modules. Prefixes are matched longest first; equal
// lengths keep the order they were added in.
func (c *Configuration) AddBaseRoute(prefix string, modules ...string) *Configuration {
	c.baseRoutes = append(c.baseRoutes, BaseRoute{Prefix: prefix, Modules: modules})
	sort.SliceStable(c.baseRoutes, func(i, j int) bool {
		return len(c.baseRoutes[i].Prefix) > len(c.baseRoutes[j].Prefix)
	})
	return c
}

// BaseRoutes returns the base routes in matching order
func (c *Configuration) BaseRoutes() []BaseRoute {
	return append([]BaseRoute(nil), c.baseRoutes...)
}

// MatchBaseRoute returns the longest base route whose prefix matches path
func (c *Configuration) MatchBaseRoute(path string) (BaseRoute, bool) {
	for _, route := range c.baseRoutes {
		if matchesPrefix(path, route.Prefix) {
			return route, true
		}
	}
	return BaseRoute{}, false
}

// Module returns the configuration of a module
func (c *Configuration) Module(name string) (*ModuleConfiguration, error) {
	m, ok := c.modules[name]
	if !ok {
		return nil, &ConfigurationError{Key: "modules", Message: fmt.Sprintf("module %q is not configured", name)}
	}
	return m, nil
}

// ModuleNames returns the configured module names, sorted
func (c *Configuration) ModuleNames() []string {
	names := make([]string, 0, len(c.modules))
	for name := range c.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RouterChain returns the router chain for a base route, building it on first use
func (c *Configuration) RouterChain(route BaseRoute) (*RouterChain, error) {
	key := route.Prefix + "\x00" + strings.Join(route.Modules, ",")

	c.mu.Lock()
	defer c.mu.Unlock()

	if chain, ok := c.chains[key]; ok {
		return chain, nil
	}

	chain := NewRouterChain()
	for _, name := range route.Modules {
		m, ok := c.modules[name]
		if !ok {
			return nil, &ConfigurationError{
				Key:     "base_routes." + route.Prefix,
				Message: fmt.Sprintf("module %q is not configured", name),
			}
		}
		routers, err := m.BuildRouters()
		if err != nil {
			return nil, err
		}
		for _, r := range routers {
			chain.Add(r)
		}
	}

	if c.chains == nil {
		c.chains = make(map[string]*RouterChain)
	}
	c.chains[key] = chain
	return chain, nil
}

// Route completes the routing state of req from the longest matching base route and
// the router chain of its modules. Complete requests are left untouched.
func (c *Configuration) Route(req *Request) error {
	if req.IsComplete() {
		return nil
	}

	base, ok := c.MatchBaseRoute(req.Path())
	if !ok {
		return NewDispatchError(req, "no base route matches %q", req.Path())
	}
	req.MatchPrefix(base.Prefix)

	chain, err := c.RouterChain(base)
	if err != nil {
		return &DispatchError{Message: "cannot build router chain", Request: req, Err: err}
	}
	return chain.Route(req)
}

// Validate checks every module and base route
func (c *Configuration) Validate() error {
	for _, name := range c.ModuleNames() {
		if err := c.modules[name].Validate(); err != nil {
			return err
		}
	}
	for _, route := range c.baseRoutes {
		if !strings.HasPrefix(route.Prefix, "/") {
			return &ConfigurationError{Key: "base_routes", Message: fmt.Sprintf("prefix %q must start with /", route.Prefix)}
		}
		if len(route.Modules) == 0 {
			return &ConfigurationError{Key: "base_routes." + route.Prefix, Message: "no modules configured"}
		}
		for _, name := range route.Modules {
			if _, ok := c.modules[name]; !ok {
				return &ConfigurationError{
					Key:     "base_routes." + route.Prefix,
					Message: fmt.Sprintf("module %q is not configured", name),
				}
			}
		}
	}
	return nil
}
