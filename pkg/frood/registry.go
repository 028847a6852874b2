package frood

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ControllerKey returns the registry key of a controller: "{module}_{sub}_controller_{name}"
func ControllerKey(module, subModule, controller string) string {
	return module + "_" + subModule + "_controller_" + controller
}

// ActionMethod returns the method name an action is registered under: "{action}Action",
// with the action name in dromedary case.
func ActionMethod(action string) string {
	return ToDromedary(action) + "Action"
}

// ActionInfo contains metadata about a registered action
type ActionInfo struct {
	// Module, SubModule and Controller identify the owning controller
	Module     string
	SubModule  string
	Controller string

	// Name is the action name as it appears in URIs (e.g., "show_all")
	Name string

	// Method is the registry method name (e.g., "showAllAction")
	Method string

	// Params are the declared parameters, empty for raw actions
	Params []ParamSpec

	// Raw reports whether the action takes the whole *Parameters
	Raw bool

	// Err holds the signature validation error, if any
	Err error
}

// Key returns the controller registry key of the action
func (a ActionInfo) Key() string {
	return ControllerKey(a.Module, a.SubModule, a.Controller)
}

// Path returns the URI path of the action relative to its base route
func (a ActionInfo) Path() string {
	return "/" + a.Module + "/" + a.SubModule + "/" + a.Controller + "/" + a.Name
}

// Action is a registered action: its validated signature, or the error that made it invalid.
type Action struct {
	info ActionInfo
	sig  *Signature
}

// Info returns the action metadata
func (a *Action) Info() ActionInfo {
	return a.info
}

// Call invokes the action. An action whose signature failed validation returns that error
// instead of running.
func (a *Action) Call(ctx context.Context, ctrl *Controller, params *Parameters) (Outcome, error) {
	if a.info.Err != nil {
		return nil, a.info.Err
	}
	return a.sig.Call(ctx, ctrl, params)
}

// ControllerEntry groups the actions registered for one controller.
type ControllerEntry struct {
	Module    string
	SubModule string
	Name      string
	actions   map[string]*Action
	order     []string
	init      func(*Controller)
	registry  *Registry
}

// Key returns the registry key of the controller
func (c *ControllerEntry) Key() string {
	return ControllerKey(c.Module, c.SubModule, c.Name)
}

// Init sets a hook run on the controller state before every action, typically to select
// a renderer.
func (c *ControllerEntry) Init(fn func(*Controller)) *ControllerEntry {
	c.registry.mu.Lock()
	defer c.registry.mu.Unlock()
	c.init = fn
	return c
}

// Action registers an action handler with its parameter declarations. Signature errors
// are recorded and reported by Registry.Err and when the action is called.
func (c *ControllerEntry) Action(name string, handler any, params ...ParamSpec) *ControllerEntry {
	method := ActionMethod(name)
	info := ActionInfo{
		Module:     c.Module,
		SubModule:  c.SubModule,
		Controller: c.Name,
		Name:       name,
		Method:     method,
		Params:     params,
	}

	sig, err := NewSignature(c.Key()+"::"+method, handler, params)
	if err == nil {
		info.Raw = sig.Raw()
	} else {
		info.Err = err
	}
	if !namePattern.MatchString(name) {
		info.Err = &ConfigurationError{Key: c.Key(), Message: fmt.Sprintf("invalid action name %q", name)}
	}

	c.registry.mu.Lock()
	defer c.registry.mu.Unlock()
	if _, exists := c.actions[method]; !exists {
		c.order = append(c.order, method)
	}
	c.actions[method] = &Action{info: info, sig: sig}
	return c
}

// Registry maps controller keys and action method names to handlers. It is filled at
// startup, by hand or by generated registration code, and read concurrently afterwards.
type Registry struct {
	mu          sync.RWMutex
	controllers map[string]*ControllerEntry
	order       []string
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{controllers: make(map[string]*ControllerEntry)}
}

// Controller returns the entry for a controller, creating it on first use
func (r *Registry) Controller(module, subModule, name string) *ControllerEntry {
	key := ControllerKey(module, subModule, name)

	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.controllers[key]; ok {
		return c
	}
	c := &ControllerEntry{
		Module:    module,
		SubModule: subModule,
		Name:      name,
		actions:   make(map[string]*Action),
		registry:  r,
	}
	r.controllers[key] = c
	r.order = append(r.order, key)
	return c
}

// Lookup returns the action registered for a routed request
func (r *Registry) Lookup(req *Request) (*Action, func(*Controller), error) {
	key := ControllerKey(req.Module(), req.SubModule(), req.Controller())

	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.controllers[key]
	if !ok {
		return nil, nil, NewDispatchError(req, "controller %s does not exist", key)
	}
	method := ActionMethod(req.Action())
	a, ok := c.actions[method]
	if !ok {
		return nil, nil, NewDispatchError(req, "action %s::%s does not exist", key, method)
	}
	return a, c.init, nil
}

// Actions returns metadata of every registered action, in registration order
func (r *Registry) Actions() []ActionInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var infos []ActionInfo
	for _, key := range r.order {
		c := r.controllers[key]
		for _, method := range c.order {
			infos = append(infos, c.actions[method].info)
		}
	}
	return infos
}

// ActionsByModule returns the actions of one module, sorted by path
func (r *Registry) ActionsByModule(module string) []ActionInfo {
	var filtered []ActionInfo
	for _, info := range r.Actions() {
		if info.Module == module {
			filtered = append(filtered, info)
		}
	}
	sort.Slice(filtered, func(i, j int) bool { return filtered[i].Path() < filtered[j].Path() })
	return filtered
}

// Err returns every signature and naming error recorded during registration
func (r *Registry) Err() error {
	var errs []error
	for _, info := range r.Actions() {
		if info.Err != nil {
			errs = append(errs, info.Err)
		}
	}
	return errors.Join(errs...)
}
