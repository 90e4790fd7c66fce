package engine

import "github.com/jsvm/jsvm/internal/object"

// Handle is spec.md §6's `Handle<Value>`: a reference to an
// ECMAScript Value the embedder holds outside of any running script.
// jsvm's object graph is ordinary Go-GC'd memory (spec.md §9's tracing
// collector is just the Go runtime's own collector, with the frame
// stack/evaluation stack/job queue/embedder handles as its root set in
// spirit), so a Handle does not pin anything the Go GC wouldn't
// already keep alive through the reference it holds. What it adds is
// the "explicitly scoped" discipline spec.md calls for: a Handle is
// only valid while its owning HandleScope is open, so code that closes
// over a Handle past its scope's Close is a programmer error this API
// can catch rather than a use-after-free this API has to prevent.
type Handle struct {
	scope *HandleScope
	value object.Value
}

// Value returns the held Value. Panics if the owning scope has closed.
func (h *Handle) Value() object.Value {
	if h.scope.closed {
		panic("engine: Handle used after its HandleScope was closed")
	}
	return h.value
}

// HandleScope roots a batch of Handles for the duration between
// OpenScope and Close, mirroring the explicit-scoping half of spec.md
// §6's Handle protocol.
type HandleScope struct {
	engine  *Engine
	handles []*Handle
	closed  bool
}

// OpenScope starts a new HandleScope on this Engine.
func (e *Engine) OpenScope() *HandleScope {
	return &HandleScope{engine: e}
}

// New roots v for the lifetime of this scope and returns a Handle to it.
func (s *HandleScope) New(v object.Value) *Handle {
	if s.closed {
		panic("engine: HandleScope.New called after Close")
	}
	h := &Handle{scope: s, value: v}
	s.handles = append(s.handles, h)
	return h
}

// Len reports how many handles are currently open in this scope.
func (s *HandleScope) Len() int { return len(s.handles) }

// Close invalidates every Handle this scope produced.
func (s *HandleScope) Close() {
	s.closed = true
	s.handles = nil
}
