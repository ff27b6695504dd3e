// Package mutable hands parameter changes from control threads over to
// the real-time thread.
//
// A mutation is created on the control side and applied by the thread
// that owns the component, so components never need locks.
package mutable

import (
	"github.com/rs/xid"
)

// Context identifies a component that accepts mutations. It is usually
// embedded into the component.
type Context xid.ID

// Mutation is a change of state bound to a component.
type Mutation struct {
	target Context
	fn     func()
}

// Batch is a list of mutations in the order they were created.
type Batch []Mutation

// New returns a unique context.
func New() Context {
	return Context(xid.New())
}

// Mutate binds fn to the component.
func (c Context) Mutate(fn func()) Mutation {
	return Mutation{
		target: c,
		fn:     fn,
	}
}

func (c Context) String() string {
	return xid.ID(c).String()
}

// Target returns context of the mutated component.
func (m Mutation) Target() Context {
	return m.target
}

// Apply runs the mutation.
func (m Mutation) Apply() {
	m.fn()
}

// ApplyTo runs mutations bound to target in order and returns how many
// were applied.
func (b Batch) ApplyTo(target Context) int {
	n := 0
	for _, m := range b {
		if m.target == target {
			m.fn()
			n++
		}
	}
	return n
}
