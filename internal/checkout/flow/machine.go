// Package flow models the checkout steps as an explicit state machine.
//
// Each cart has one machine. Handlers snapshot (state, epoch) before calling
// the backend and apply the resulting transition with the snapshot epoch;
// if the session was reset in the meantime the epoch no longer matches and
// the late transition is discarded rather than applied. In-flight calls are
// never cancelled, their results just stop mattering.
package flow

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
)

// State is a named checkout step.
type State string

const (
	// StateCart: items are being edited; no checkout step entered.
	StateCart State = "cart"
	// StateShipping: fulfillment option selection.
	StateShipping State = "shipping"
	// StatePayment: provider selection and session negotiation.
	StatePayment State = "payment"
	// StateConfirm: a payment session exists and awaits confirmation.
	StateConfirm State = "confirm"
	// StateCompleted: the cart became an order; terminal.
	StateCompleted State = "completed"
)

// transitions is the closed table of allowed moves. Backward moves model
// the user navigating to an earlier step.
var transitions = map[State][]State{
	StateCart:     {StateShipping, StatePayment},
	StateShipping: {StatePayment, StateCart},
	StatePayment:  {StateConfirm, StateShipping, StateCart},
	StateConfirm:  {StateCompleted, StatePayment, StateCart},
}

// Errors reported by Apply.
var (
	ErrInvalidTransition = errors.New("transition not allowed")
	ErrStale             = errors.New("transition from a superseded flow epoch")
)

// Machine tracks the current step of one checkout session.
type Machine struct {
	mu    sync.Mutex
	state State
	epoch uint64
}

// NewMachine creates a machine in StateCart.
func NewMachine() *Machine {
	return &Machine{state: StateCart}
}

// Snapshot returns the current state and epoch.
func (m *Machine) Snapshot() (State, uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state, m.epoch
}

// Apply moves the machine to next if the epoch still matches the caller's
// snapshot and the transition table allows the move. A stale epoch returns
// ErrStale and leaves the machine untouched: that is the discard, not a
// failure to recover from.
func (m *Machine) Apply(epoch uint64, next State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if epoch != m.epoch {
		return ErrStale
	}
	if m.state == next {
		return nil
	}
	for _, allowed := range transitions[m.state] {
		if allowed == next {
			m.state = next
			return nil
		}
	}
	return errors.Wrapf(ErrInvalidTransition, "%s -> %s", m.state, next)
}

// Reset returns the machine to StateCart and bumps the epoch, invalidating
// every snapshot taken before the reset.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = StateCart
	m.epoch++
}

// Registry holds one machine per cart identifier. Machines for abandoned
// carts are evicted after an idle period; a later request simply recreates
// one in StateCart, which is where an abandoned session belongs anyway.
type Registry struct {
	mu       sync.Mutex
	machines map[string]*machineEntry
}

type machineEntry struct {
	m       *Machine
	touched time.Time
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{machines: make(map[string]*machineEntry)}
}

// Get returns the machine for the cart, creating it on first use.
func (r *Registry) Get(cartID string) *Machine {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.machines[cartID]
	if !ok {
		e = &machineEntry{m: NewMachine()}
		r.machines[cartID] = e
	}
	e.touched = time.Now()
	return e.m
}

// Remove drops the machine for a terminated cart.
func (r *Registry) Remove(cartID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.machines, cartID)
}

// evict drops machines untouched for maxAge.
func (r *Registry) evict(now time.Time, maxAge time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for cartID, e := range r.machines {
		if now.Sub(e.touched) >= maxAge {
			delete(r.machines, cartID)
		}
	}
}

// StartEviction launches a background goroutine that periodically drops
// machines idle for maxAge, until ctx is done.
func (r *Registry) StartEviction(ctx context.Context, interval, maxAge time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				r.evict(now, maxAge)
			}
		}
	}()
}
