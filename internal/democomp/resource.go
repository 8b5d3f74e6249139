// Package democomp is a minimal workhooks.Hooks implementation: a
// small static tree (a labeled box containing a title and a suspense
// boundary wrapping one async item) big enough to exercise begin/
// complete/suspense/commit without a general element-diffing API
// (out of scope per spec's Non-goals).
package democomp

import "github.com/google/uuid"

// AsyncResource is a Wakeable standing in for a pending fetch: demo
// code calls Resolve once the "network" responds, which notifies every
// subscriber registered by the suspense protocol while it was pending.
type AsyncResource struct {
	id    uuid.UUID
	ready bool
	value string
	subs  []func(ok bool)
}

// NewAsyncResource returns a resource that is not yet ready, keyed by
// a fresh UUID so it has stable identity as a pingCache map key.
func NewAsyncResource() *AsyncResource {
	return &AsyncResource{id: uuid.New()}
}

// ID returns the resource's identity, useful in test assertions and
// log lines.
func (r *AsyncResource) ID() uuid.UUID { return r.id }

// Ready reports whether Resolve has been called.
func (r *AsyncResource) Ready() bool { return r.ready }

// Value returns the resolved value, or "" before Resolve.
func (r *AsyncResource) Value() string { return r.value }

// Subscribe implements workhooks.Wakeable. If already resolved, it
// calls onSettle synchronously.
func (r *AsyncResource) Subscribe(onSettle func(ok bool)) {
	if r.ready {
		onSettle(true)
		return
	}
	r.subs = append(r.subs, onSettle)
}

// Resolve marks the resource ready and notifies every pending
// subscriber in registration order.
func (r *AsyncResource) Resolve(value string) {
	r.value = value
	r.ready = true
	subs := r.subs
	r.subs = nil
	for _, s := range subs {
		s(true)
	}
}

// Reject notifies every pending subscriber of failure; the resource
// never becomes ready.
func (r *AsyncResource) Reject() {
	subs := r.subs
	r.subs = nil
	for _, s := range subs {
		s(false)
	}
}
