package adapters

import (
	"github.com/go-chi/chi/v5"
	"github.com/toyz/frood/pkg/frood"
)

// MountChi routes every path of r that has no route of its own to the dispatcher. The
// dispatcher matches base routes itself, so one catch-all route serves all of them.
func MountChi(r chi.Router, d *frood.Dispatcher, opts ...HandlerOption) *Handler {
	h := NewHandler(d, opts...)
	r.Handle("/*", h)
	return h
}

// NewChiRouter creates a chi router serving the dispatcher
func NewChiRouter(d *frood.Dispatcher, opts ...HandlerOption) chi.Router {
	r := chi.NewRouter()
	MountChi(r, d, opts...)
	return r
}
