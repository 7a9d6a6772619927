package flow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMachine_ForwardPath(t *testing.T) {
	m := NewMachine()
	for _, next := range []State{StateShipping, StatePayment, StateConfirm, StateCompleted} {
		_, epoch := m.Snapshot()
		require.NoError(t, m.Apply(epoch, next))
	}
	state, _ := m.Snapshot()
	assert.Equal(t, StateCompleted, state)
}

func TestMachine_BackwardNavigation(t *testing.T) {
	m := NewMachine()
	_, epoch := m.Snapshot()
	require.NoError(t, m.Apply(epoch, StateShipping))
	require.NoError(t, m.Apply(epoch, StatePayment))
	require.NoError(t, m.Apply(epoch, StateShipping))
	require.NoError(t, m.Apply(epoch, StateCart))
}

func TestMachine_InvalidTransition(t *testing.T) {
	m := NewMachine()
	_, epoch := m.Snapshot()

	err := m.Apply(epoch, StateCompleted)
	require.ErrorIs(t, err, ErrInvalidTransition)

	state, _ := m.Snapshot()
	assert.Equal(t, StateCart, state, "a rejected transition leaves the machine untouched")
}

func TestMachine_SelfTransitionIsNoop(t *testing.T) {
	m := NewMachine()
	_, epoch := m.Snapshot()
	require.NoError(t, m.Apply(epoch, StateCart))
}

func TestMachine_CompletedIsTerminal(t *testing.T) {
	m := NewMachine()
	_, epoch := m.Snapshot()
	require.NoError(t, m.Apply(epoch, StateShipping))
	require.NoError(t, m.Apply(epoch, StatePayment))
	require.NoError(t, m.Apply(epoch, StateConfirm))
	require.NoError(t, m.Apply(epoch, StateCompleted))

	require.ErrorIs(t, m.Apply(epoch, StateCart), ErrInvalidTransition)
}

func TestMachine_StaleEpochDiscarded(t *testing.T) {
	m := NewMachine()
	_, epoch := m.Snapshot()
	require.NoError(t, m.Apply(epoch, StateShipping))

	// A reset while a backend call is in flight supersedes the snapshot.
	m.Reset()

	err := m.Apply(epoch, StatePayment)
	require.ErrorIs(t, err, ErrStale)

	state, newEpoch := m.Snapshot()
	assert.Equal(t, StateCart, state)
	assert.Equal(t, epoch+1, newEpoch)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	m1 := r.Get("cart_1")
	assert.Same(t, m1, r.Get("cart_1"))
	assert.NotSame(t, m1, r.Get("cart_2"))

	r.Remove("cart_1")
	assert.NotSame(t, m1, r.Get("cart_1"), "removed machines are recreated fresh")
}

func TestRegistryEviction(t *testing.T) {
	r := NewRegistry()
	now := time.Now()

	m1 := r.Get("cart_1")
	r.evict(now.Add(2*time.Hour), time.Hour)
	assert.NotSame(t, m1, r.Get("cart_1"), "an idle machine is dropped and recreated fresh")

	m2 := r.Get("cart_2")
	r.evict(now, time.Hour)
	assert.Same(t, m2, r.Get("cart_2"), "a recently touched machine survives")
}
