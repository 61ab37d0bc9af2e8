// Package chain implements an ordered HTTP security filter pipeline with
// relative insertion and a shared-object registry for configuration-time
// collaborators.
package chain

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// Handler is the continuation passed to each filter.
type Handler interface {
	ServeHTTP(w http.ResponseWriter, r *http.Request) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// ServeHTTP implements Handler.
func (f HandlerFunc) ServeHTTP(w http.ResponseWriter, r *http.Request) error {
	return f(w, r)
}

// Filter is a single request-processing unit in the chain. A filter whose
// Matches returns false is skipped for that request.
type Filter interface {
	Matches(r *http.Request) bool
	ServeHTTP(w http.ResponseWriter, r *http.Request, next Handler) error
}

type namedFilter struct {
	name   string
	filter Filter
}

// Builder assembles an ordered filter list. It is mutated only during
// application startup, on a single goroutine; the composed Handler is
// immutable and safe for concurrent use.
type Builder struct {
	filters    []namedFilter
	shared     *SharedObjects
	entryPoint string
	logger     *zap.Logger
}

// BuilderOption customizes a Builder.
type BuilderOption func(*Builder)

// WithLogger sets the logger used by the composed chain.
func WithLogger(logger *zap.Logger) BuilderOption {
	return func(b *Builder) { b.logger = logger }
}

// NewBuilder creates an empty chain builder.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{
		shared: NewSharedObjects(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Shared returns the builder's shared-object registry.
func (b *Builder) Shared() *SharedObjects {
	return b.shared
}

// Logger returns the builder's logger, or a no-op logger if unset.
func (b *Builder) Logger() *zap.Logger {
	if b.logger != nil {
		return b.logger
	}
	return zap.NewNop()
}

// SetAuthenticationEntryPoint sets the URL unauthenticated requests for
// protected resources are redirected to.
func (b *Builder) SetAuthenticationEntryPoint(url string) {
	b.entryPoint = url
}

// AuthenticationEntryPoint returns the configured entry point URL, or ""
// if none has been set.
func (b *Builder) AuthenticationEntryPoint() string {
	return b.entryPoint
}

// AddFilter appends a filter to the end of the chain.
func (b *Builder) AddFilter(name string, f Filter) error {
	if b.indexOf(name) >= 0 {
		return fmt.Errorf("filter %q is already registered", name)
	}
	b.filters = append(b.filters, namedFilter{name: name, filter: f})
	return nil
}

// AddFilterAfter inserts a filter immediately after the named anchor.
func (b *Builder) AddFilterAfter(name string, f Filter, after string) error {
	return b.insert(name, f, after, 1)
}

// AddFilterBefore inserts a filter immediately before the named anchor.
func (b *Builder) AddFilterBefore(name string, f Filter, before string) error {
	return b.insert(name, f, before, 0)
}

func (b *Builder) insert(name string, f Filter, anchor string, offset int) error {
	if b.indexOf(name) >= 0 {
		return fmt.Errorf("filter %q is already registered", name)
	}
	idx := b.indexOf(anchor)
	if idx < 0 {
		return fmt.Errorf("anchor filter %q is not registered", anchor)
	}
	at := idx + offset
	b.filters = append(b.filters, namedFilter{})
	copy(b.filters[at+1:], b.filters[at:])
	b.filters[at] = namedFilter{name: name, filter: f}
	return nil
}

func (b *Builder) indexOf(name string) int {
	for i := range b.filters {
		if b.filters[i].name == name {
			return i
		}
	}
	return -1
}

// FilterNames returns the names of all registered filters in chain order.
func (b *Builder) FilterNames() []string {
	names := make([]string, len(b.filters))
	for i := range b.filters {
		names[i] = b.filters[i].name
	}
	return names
}

// Handler composes the chain into a single Handler. Requests flow through
// matching filters in registration order and reach terminal last.
func (b *Builder) Handler(terminal Handler) Handler {
	next := terminal
	if next == nil {
		next = HandlerFunc(func(w http.ResponseWriter, r *http.Request) error {
			http.NotFound(w, r)
			return nil
		})
	}
	for i := len(b.filters) - 1; i >= 0; i-- {
		next = &link{filter: b.filters[i].filter, next: next}
	}
	return next
}

// HTTPHandler composes the chain into a standard http.Handler. Errors
// escaping the chain are logged and answered with a plain 500.
func (b *Builder) HTTPHandler(terminal Handler) http.Handler {
	h := b.Handler(terminal)
	logger := b.Logger()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := h.ServeHTTP(w, r); err != nil {
			logger.Error("unhandled filter chain error",
				zap.String("path", r.URL.Path),
				zap.Error(err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
		}
	})
}

type link struct {
	filter Filter
	next   Handler
}

func (l *link) ServeHTTP(w http.ResponseWriter, r *http.Request) error {
	if !l.filter.Matches(r) {
		return l.next.ServeHTTP(w, r)
	}
	return l.filter.ServeHTTP(w, r, l.next)
}
