package frood

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultMaxForwards bounds how many times one dispatch may forward.
const DefaultMaxForwards = 8

const tracerName = "github.com/toyz/frood"

var discardLogger = slog.New(slog.DiscardHandler)

// Dispatcher routes requests and invokes the registered actions.
type Dispatcher struct {
	config      *Configuration
	registry    *Registry
	logger      *slog.Logger
	observer    DispatchObserver
	tracer      trace.Tracer
	maxForwards int
	renderer    func() Renderer
}

// DispatcherOption configures a Dispatcher
type DispatcherOption func(*Dispatcher)

// WithLogger sets the dispatcher logger
func WithLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithObserver sets the observer notified after every dispatch
func WithObserver(observer DispatchObserver) DispatcherOption {
	return func(d *Dispatcher) {
		d.observer = observer
	}
}

// WithTracer sets the tracer dispatch spans are started with
func WithTracer(tracer trace.Tracer) DispatcherOption {
	return func(d *Dispatcher) {
		if tracer != nil {
			d.tracer = tracer
		}
	}
}

// WithMaxForwards sets how many forwards one dispatch may follow
func WithMaxForwards(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n >= 0 {
			d.maxForwards = n
		}
	}
}

// WithDefaultRenderer sets the renderer controllers start with
func WithDefaultRenderer(fn func() Renderer) DispatcherOption {
	return func(d *Dispatcher) {
		if fn != nil {
			d.renderer = fn
		}
	}
}

// NewDispatcher creates a dispatcher over a configuration and a registry
func NewDispatcher(config *Configuration, registry *Registry, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		config:      config,
		registry:    registry,
		logger:      discardLogger,
		tracer:      otel.Tracer(tracerName),
		maxForwards: DefaultMaxForwards,
		renderer:    func() Renderer { return JSONRenderer{} },
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Configuration returns the dispatcher configuration
func (d *Dispatcher) Configuration() *Configuration {
	return d.config
}

// Registry returns the dispatcher registry
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// DispatchURI creates a request for uri and dispatches it
func (d *Dispatcher) DispatchURI(ctx context.Context, uri string, params *Parameters) (*Result, error) {
	return d.Dispatch(ctx, NewRequest(uri, params))
}

// Dispatch routes req, invokes its action and renders the result. Forward outcomes are
// followed up to the configured limit. Every routing or lookup failure is a
// DispatchError; errors returned by actions are wrapped in one.
func (d *Dispatcher) Dispatch(ctx context.Context, req *Request) (*Result, error) {
	if req == nil {
		return nil, NewDispatchError(nil, "no request to dispatch")
	}

	id := uuid.NewString()
	start := time.Now()

	ctx, span := d.tracer.Start(ctx, "frood.Dispatch", trace.WithAttributes(
		attribute.String("frood.dispatch_id", id),
		attribute.String("frood.uri", req.URI()),
	))
	defer span.End()

	logger := d.logger.With("dispatch_id", id)

	res, err := d.dispatch(ctx, req, id, logger)

	final := req
	if res != nil {
		final = res.Request
	}
	span.SetAttributes(
		attribute.String("frood.module", final.Module()),
		attribute.String("frood.sub_module", final.SubModule()),
		attribute.String("frood.controller", final.Controller()),
		attribute.String("frood.action", final.Action()),
	)

	result, status := "rendered", 0
	switch {
	case err != nil:
		result, status = "error", ErrorStatus(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Warn("dispatch failed", "uri", req.URI(), "request", final.String(), "error", err)
	case res.Location != "":
		result, status = "redirect", res.StatusCode
	default:
		status = res.StatusCode
	}
	if err == nil {
		logger.Debug("dispatched", "uri", req.URI(), "request", final.String(), "status", status, "duration", time.Since(start))
	}
	if d.observer != nil {
		d.observer.ObserveDispatch(d.observed(final, err), result, status, time.Since(start))
	}
	return res, err
}

// observed returns the request reported to the observer. Requests for routes nothing is
// registered for are collapsed so arbitrary paths cannot grow label sets.
func (d *Dispatcher) observed(req *Request, err error) *Request {
	if err == nil {
		return req
	}
	if _, _, lookupErr := d.registry.Lookup(req); lookupErr == nil {
		return req
	}
	return NewRouteRequest(UnmatchedLabel, UnmatchedLabel, UnmatchedLabel, UnmatchedLabel, nil)
}

func (d *Dispatcher) dispatch(ctx context.Context, req *Request, id string, logger *slog.Logger) (*Result, error) {
	for forwards := 0; ; forwards++ {
		if err := ctx.Err(); err != nil {
			return nil, &DispatchError{Message: "dispatch cancelled", Request: req, Err: err}
		}
		if err := d.config.Route(req); err != nil {
			return nil, err
		}

		ctrl, outcome, err := d.invoke(ctx, req, logger)
		if err != nil {
			return nil, err
		}

		switch o := outcome.(type) {
		case Forward, *Forward:
			next := forwardRequest(o)
			if next == nil {
				return nil, NewDispatchError(req, "forward without a request")
			}
			if forwards >= d.maxForwards {
				return nil, &DispatchError{Message: "forward limit reached", Request: next, Err: ErrTooManyForwards}
			}
			logger.Debug("forwarding", "from", req.String(), "to", next.String())
			req = next
			continue
		case Redirect:
			return d.redirect(id, req, ctrl, o), nil
		case *Redirect:
			return d.redirect(id, req, ctrl, *o), nil
		}
		return d.render(id, req, ctrl)
	}
}

func forwardRequest(o Outcome) *Request {
	switch f := o.(type) {
	case Forward:
		return f.Request
	case *Forward:
		if f != nil {
			return f.Request
		}
	}
	return nil
}

func (d *Dispatcher) invoke(ctx context.Context, req *Request, logger *slog.Logger) (*Controller, Outcome, error) {
	// A request naming a module or sub-module that is not configured is not found,
	// not a configuration failure.
	module, err := d.config.Module(req.Module())
	if err != nil {
		return nil, nil, NewDispatchError(req, "unknown module %q", req.Module())
	}
	if _, err := module.AutoloadPath(req.SubModule()); err != nil {
		return nil, nil, NewDispatchError(req, "unknown sub-module %q", req.SubModule())
	}

	action, init, err := d.registry.Lookup(req)
	if err != nil {
		return nil, nil, err
	}

	ctrl := NewController(req, d.renderer(), logger.With("request", req.String()))
	if init != nil {
		init(ctrl)
	}

	outcome, err := action.Call(ctx, ctrl, req.Parameters())
	if err != nil {
		var dispErr *DispatchError
		if errors.As(err, &dispErr) {
			return nil, nil, err
		}
		return nil, nil, &DispatchError{Message: fmt.Sprintf("action %s failed", action.Info().Method), Request: req, Err: err}
	}
	return ctrl, outcome, nil
}

func (d *Dispatcher) redirect(id string, req *Request, ctrl *Controller, r Redirect) *Result {
	header := ctrl.Header().Clone()
	header.Set("Location", r.URL)
	return &Result{
		ID:         id,
		Request:    req,
		StatusCode: r.StatusCode(),
		Header:     header,
		Location:   r.URL,
	}
}

func (d *Dispatcher) render(id string, req *Request, ctrl *Controller) (*Result, error) {
	var body bytes.Buffer
	body.Write(ctrl.output.Bytes())

	renderer := ctrl.Renderer()
	if err := renderer.Render(&body, ctrl.Values()); err != nil {
		return nil, &DispatchError{Message: "rendering failed", Request: req, Err: err}
	}

	header := ctrl.Header().Clone()
	contentType := renderer.ContentType()
	if ct := header.Get("Content-Type"); ct != "" {
		contentType = ct
	}
	header.Set("Content-Type", contentType)

	return &Result{
		ID:          id,
		Request:     req,
		StatusCode:  ctrl.Status(),
		ContentType: contentType,
		Header:      header,
		Body:        body.Bytes(),
	}, nil
}
