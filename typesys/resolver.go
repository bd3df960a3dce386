package typesys

import (
	"go.uber.org/zap"

	"github.com/clrscope/clrscope"
)

// Resolver ties together the services field resolution needs: the raw
// target image, the type catalog, the runtime's per-domain records, and a
// layout service. It is safe for concurrent use; the target image is
// immutable for the lifetime of a session.
//
// The active target is an explicit value here, not process-wide state:
// independent sessions against different targets coexist freely.
type Resolver struct {
	target  clrscope.Target
	catalog Catalog
	runtime RuntimeData
	layout  Layout
	statics *StaticLocator
	log     *zap.Logger
}

// NewResolver creates a resolver over the given target. The layout
// defaults to DefaultLayout and logging to the package logger.
func NewResolver(target clrscope.Target, catalog Catalog, runtime RuntimeData) *Resolver {
	r := &Resolver{
		target:  target,
		catalog: catalog,
		runtime: runtime,
		layout:  DefaultLayout{},
		log:     Logger(),
	}
	r.statics = &StaticLocator{res: r}
	return r
}

// SetLayout replaces the layout service.
func (r *Resolver) SetLayout(l Layout) {
	if l != nil {
		r.layout = l
	}
}

// SetLogger replaces the resolver's logger.
func (r *Resolver) SetLogger(log *zap.Logger) {
	if log != nil {
		r.log = log
	}
}

// Statics returns the static storage locator bound to this resolver.
func (r *Resolver) Statics() *StaticLocator {
	return r.statics
}

// Catalog returns the catalog the resolver consults.
func (r *Resolver) Catalog() Catalog {
	return r.catalog
}

// Target returns the underlying target image.
func (r *Resolver) Target() clrscope.Target {
	return r.target
}
