// Package modkit assembles modules from shared deps and construction options
package modkit

import (
	"net/http"
	"strings"

	"auracast/internal/modkit/httpkit"
	"auracast/internal/modkit/module"
)

// Built is the resolved construction state of a module
type Built struct {
	Name   string
	Prefix string
	Mw     []func(http.Handler) http.Handler
	// Ports holds whatever the caller injected with WithPorts
	Ports any
}

// Option adjusts a module before it is built
type Option func(*Built)

// WithName names the module in logs and panics
func WithName(name string) Option { return func(b *Built) { b.Name = name } }

// WithPrefix sets the path the module mounts under
func WithPrefix(prefix string) Option { return func(b *Built) { b.Prefix = prefix } }

// WithMiddlewares appends module scoped middleware, applied in order
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(b *Built) { b.Mw = append(b.Mw, mw...) }
}

// WithPorts injects ports owned by another module, the type is declared by the receiver
func WithPorts[T any](p T) Option { return func(b *Built) { b.Ports = p } }

// Build applies opts in order, later options win
// it panics on a missing name and normalizes the prefix to one leading slash
func Build(opts ...Option) Built {
	var b Built
	for _, o := range opts {
		o(&b)
	}
	if strings.TrimSpace(b.Name) == "" {
		panic("modkit: module name is required")
	}
	if p := strings.Trim(strings.TrimSpace(b.Prefix), "/"); p != "" {
		b.Prefix = "/" + p
	} else {
		b.Prefix = ""
	}
	return b
}

// Injected returns the ports of type T passed with WithPorts, or the zero T
func Injected[T any](b Built) T {
	v, _ := b.Ports.(T)
	return v
}

// Routes is an HTTP module that mounts register under its prefix with its middleware
type Routes struct {
	b        Built
	ports    any
	register func(httpkit.Router)
}

var _ module.Module = (*Routes)(nil)

// NewRoutes builds an HTTP module, ports are what it exposes to other modules
func NewRoutes(b Built, ports any, register func(httpkit.Router)) *Routes {
	if b.Prefix == "" {
		panic("modkit: module " + b.Name + " needs a prefix to mount routes")
	}
	return &Routes{b: b, ports: ports, register: register}
}

func (m *Routes) Name() string   { return m.b.Name }
func (m *Routes) Ports() any     { return m.ports }
func (m *Routes) Prefix() string { return m.b.Prefix }

// MountRoutes mounts the module on r
func (m *Routes) MountRoutes(r httpkit.Router) {
	r.Route(m.b.Prefix, func(sub httpkit.Router) {
		if len(m.b.Mw) > 0 {
			sub.Use(m.b.Mw...)
		}
		m.register(sub)
	})
}

// Worker is a module with ports and no routes
type Worker struct {
	name  string
	ports any
}

var _ module.Module = Worker{}

// NewWorker names a route-less module
func NewWorker(name string, ports any) Worker { return Worker{name: name, ports: ports} }

func (w Worker) Name() string                { return w.name }
func (w Worker) Ports() any                  { return w.ports }
func (w Worker) MountRoutes(httpkit.Router) {}
