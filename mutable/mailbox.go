package mutable

import (
	"context"
	"fmt"
	"sync"
)

// Mailbox delivers mutations of a single component. It holds one
// delivered batch, mutations put while it's occupied wait for the next
// push.
type Mailbox struct {
	mu      sync.Mutex
	target  Context
	pending Batch
	slot    chan Batch
}

// NewMailbox returns mailbox for mutations bound to target.
func NewMailbox(target Context) *Mailbox {
	return &Mailbox{
		target: target,
		slot:   make(chan Batch, 1),
	}
}

// put must be called with mu held.
func (m *Mailbox) put(mutations []Mutation) {
	for _, mut := range mutations {
		if mut.target != m.target {
			panic(fmt.Sprintf("mutation of %v put into mailbox of %v", mut.target, m.target))
		}
		m.pending = append(m.pending, mut)
	}
}

// Push adds mutations to pending ones and delivers them. It blocks until
// the previous batch is received or context is done. Pending mutations
// are kept if context is done.
func (m *Mailbox) Push(ctx context.Context, mutations ...Mutation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(mutations)
	if len(m.pending) == 0 {
		return nil
	}
	select {
	case m.slot <- m.pending:
		m.pending = nil
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryPush adds mutations to pending ones and delivers them if the mailbox
// is free. It returns true if mutations are still pending.
func (m *Mailbox) TryPush(mutations ...Mutation) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(mutations)
	if len(m.pending) == 0 {
		return false
	}
	select {
	case m.slot <- m.pending:
		m.pending = nil
		return false
	default:
		return true
	}
}

// Pending returns true if there are mutations that weren't delivered.
func (m *Mailbox) Pending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending) > 0
}

// Receive returns delivered batch without blocking. It's called by the
// thread that owns the component.
func (m *Mailbox) Receive() (Batch, bool) {
	select {
	case b := <-m.slot:
		return b, true
	default:
		return nil, false
	}
}
