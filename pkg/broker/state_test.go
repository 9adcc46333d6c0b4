package broker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnseenMessageDefaultsToPending(t *testing.T) {
	s := NewInMemoryStateStore()
	state, err := s.GetMessageState("orders", "billing", 42)
	require.NoError(t, err)
	assert.Equal(t, StatePending, state)
}

func TestSetAndGetMessageState(t *testing.T) {
	s := NewInMemoryStateStore()
	require.NoError(t, s.SetMessageState("orders", "billing", 1, StateProcessed))

	state, err := s.GetMessageState("orders", "billing", 1)
	require.NoError(t, err)
	assert.Equal(t, StateProcessed, state)
}

func TestBaseOffsetDefaultsToZero(t *testing.T) {
	s := NewInMemoryStateStore()
	offset, err := s.GetBaseOffset("orders", "billing")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), offset)
}

func TestIncrementRetryCount(t *testing.T) {
	s := NewInMemoryStateStore()
	for want := 1; want <= 3; want++ {
		got, err := s.IncrementRetryCount("orders", "billing", 1)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestMessageStatesAreIsolatedPerGroup(t *testing.T) {
	s := NewInMemoryStateStore()
	require.NoError(t, s.SetMessageState("orders", "billing", 1, StateProcessed))

	state, err := s.GetMessageState("orders", "shipping", 1)
	require.NoError(t, err)
	assert.Equal(t, StatePending, state, "a different group must not see billing's state")
}
