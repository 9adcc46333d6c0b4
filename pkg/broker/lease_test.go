package broker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeaseAcquireRejectsWhileLive(t *testing.T) {
	m := NewInMemoryLeaseManager()

	ok, err := m.Acquire("orders", "billing", 1, "consumer-a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.Acquire("orders", "billing", 1, "consumer-b", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLeaseAcquireAllowedAfterExpiry(t *testing.T) {
	m := NewInMemoryLeaseManager()

	ok, err := m.Acquire("orders", "billing", 1, "consumer-a", time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)

	time.Sleep(5 * time.Millisecond)

	ok, err = m.Acquire("orders", "billing", 1, "consumer-b", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "an expired lease must be treated as absent")
}

func TestGetLeaseOpportunisticallyDeletesExpired(t *testing.T) {
	m := NewInMemoryLeaseManager()
	_, err := m.Acquire("orders", "billing", 1, "consumer-a", time.Millisecond)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	lease, err := m.GetLease("orders", "billing", 1)
	require.NoError(t, err)
	assert.Nil(t, lease)

	m.mu.RLock()
	_, stillPresent := m.leases[messageKey{logGroup{"orders", "billing"}, 1}]
	m.mu.RUnlock()
	assert.False(t, stillPresent, "expired lease should be deleted on read")
}

func TestReleaseIsIdempotent(t *testing.T) {
	m := NewInMemoryLeaseManager()
	require.NoError(t, m.Release("orders", "billing", 1))

	_, err := m.Acquire("orders", "billing", 1, "consumer-a", time.Minute)
	require.NoError(t, err)
	require.NoError(t, m.Release("orders", "billing", 1))
	require.NoError(t, m.Release("orders", "billing", 1))

	lease, err := m.GetLease("orders", "billing", 1)
	require.NoError(t, err)
	assert.Nil(t, lease)
}

func TestReapExpiredRemovesOnlyExpiredLeases(t *testing.T) {
	m := NewInMemoryLeaseManager()
	_, err := m.Acquire("orders", "billing", 1, "consumer-a", time.Millisecond)
	require.NoError(t, err)
	_, err = m.Acquire("orders", "billing", 2, "consumer-b", time.Minute)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	reaped, err := m.ReapExpired()
	require.NoError(t, err)
	assert.Equal(t, 1, reaped)

	lease, err := m.GetLease("orders", "billing", 2)
	require.NoError(t, err)
	require.NotNil(t, lease)
	assert.Equal(t, "consumer-b", lease.OwnerID)
}

func TestGetLeasesBatch(t *testing.T) {
	m := NewInMemoryLeaseManager()
	_, err := m.Acquire("orders", "billing", 1, "consumer-a", time.Minute)
	require.NoError(t, err)

	leases, err := m.GetLeases("orders", "billing", []uint64{1, 2, 3})
	require.NoError(t, err)
	require.Contains(t, leases, uint64(1))
	assert.NotContains(t, leases, uint64(2))
	assert.NotContains(t, leases, uint64(3))
}
