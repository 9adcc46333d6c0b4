package broker

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrchestrator() *Orchestrator {
	return NewOrchestrator(NewInMemoryStorage(), NewInMemoryStateStore(), NewInMemoryLeaseManager())
}

func TestAcquireNextReturnsMessagesInOrder(t *testing.T) {
	o := newTestOrchestrator()
	for i := 0; i < 3; i++ {
		_, err := o.Produce("orders", []byte{byte(i)}, nil)
		require.NoError(t, err)
	}

	msg, found, err := o.AcquireNext("orders", "billing")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, uint64(0), msg.ID)
}

func TestAcquireNextEmptyLogReturnsNotFound(t *testing.T) {
	o := newTestOrchestrator()
	_, found, err := o.AcquireNext("orders", "billing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestNoDuplicateDeliveryAcrossTwoConsumers(t *testing.T) {
	o := newTestOrchestrator()
	id, err := o.Produce("orders", []byte("payload"), nil)
	require.NoError(t, err)

	msg, found, err := o.AcquireNext("orders", "billing")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, id, msg.ID)

	leasedA, err := o.AcquireLease("orders", "billing", msg.ID, "consumer-a", time.Minute)
	require.NoError(t, err)
	require.True(t, leasedA)

	leasedB, err := o.AcquireLease("orders", "billing", msg.ID, "consumer-b", time.Minute)
	require.NoError(t, err)
	assert.False(t, leasedB, "second consumer must not acquire a lease already held")

	_, found, err = o.AcquireNext("orders", "billing")
	require.NoError(t, err)
	assert.False(t, found, "leased message must not be re-offered while the lease is live")
}

func TestLeaseExpiryReclamationAndWrongOwnerOnLateSettle(t *testing.T) {
	o := newTestOrchestrator()
	id, err := o.Produce("orders", []byte("payload"), nil)
	require.NoError(t, err)

	msg, found, err := o.AcquireNext("orders", "billing")
	require.NoError(t, err)
	require.True(t, found)

	leased, err := o.AcquireLease("orders", "billing", msg.ID, "consumer-a", time.Millisecond)
	require.NoError(t, err)
	require.True(t, leased)

	time.Sleep(5 * time.Millisecond)

	reclaimed, found, err := o.AcquireNext("orders", "billing")
	require.NoError(t, err)
	require.True(t, found, "message with an expired lease must be reclaimed")
	assert.Equal(t, id, reclaimed.ID)

	leasedB, err := o.AcquireLease("orders", "billing", reclaimed.ID, "consumer-b", time.Minute)
	require.NoError(t, err)
	require.True(t, leasedB)

	err = o.Settle("orders", "billing", msg.ID, "consumer-a", true, 3)
	require.Error(t, err, "the original, now-expired owner must not be able to settle")
	assert.True(t, IsWrongOwner(err))

	err = o.Settle("orders", "billing", msg.ID, "consumer-b", true, 3)
	assert.NoError(t, err, "the current owner must be able to settle")
}

func TestRetryToDeadLetterAfterMaxRetries(t *testing.T) {
	o := newTestOrchestrator()
	id, err := o.Produce("orders", []byte("payload"), nil)
	require.NoError(t, err)

	const maxRetries = 3
	for attempt := 0; attempt < maxRetries; attempt++ {
		msg, found, err := o.AcquireNext("orders", "billing")
		require.NoError(t, err)
		require.True(t, found, "attempt %d", attempt)
		require.Equal(t, id, msg.ID)

		leased, err := o.AcquireLease("orders", "billing", msg.ID, "consumer-a", time.Minute)
		require.NoError(t, err)
		require.True(t, leased)

		err = o.Settle("orders", "billing", msg.ID, "consumer-a", false, maxRetries)
		require.NoError(t, err)
	}

	state, err := o.stateStore.GetMessageState("orders", "billing", id)
	require.NoError(t, err)
	assert.Equal(t, StateDead, state)

	_, found, err := o.AcquireNext("orders", "billing")
	require.NoError(t, err)
	assert.False(t, found, "a dead-lettered message must never be redelivered")
}

func TestIndependentOffsetsPerGroup(t *testing.T) {
	o := newTestOrchestrator()
	id, err := o.Produce("orders", []byte("payload"), nil)
	require.NoError(t, err)

	msgA, found, err := o.AcquireNext("orders", "billing")
	require.NoError(t, err)
	require.True(t, found)
	leasedA, err := o.AcquireLease("orders", "billing", msgA.ID, "consumer-a", time.Minute)
	require.NoError(t, err)
	require.True(t, leasedA)
	require.NoError(t, o.Settle("orders", "billing", msgA.ID, "consumer-a", true, 3))

	msgB, found, err := o.AcquireNext("orders", "shipping")
	require.NoError(t, err)
	require.True(t, found, "a separate group must see the message independent of billing's progress")
	assert.Equal(t, id, msgB.ID)
}

func TestInterleavedProduceAndConsume(t *testing.T) {
	o := newTestOrchestrator()
	var wg sync.WaitGroup
	const n = 50

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			_, err := o.Produce("orders", []byte{byte(i)}, nil)
			require.NoError(t, err)
		}
	}()

	delivered := make(map[uint64]bool)
	var mu sync.Mutex
	wg.Add(1)
	go func() {
		defer wg.Done()
		for len(delivered) < n {
			msg, found, err := o.AcquireNext("orders", "billing")
			require.NoError(t, err)
			if !found {
				continue
			}
			leased, err := o.AcquireLease("orders", "billing", msg.ID, "consumer-a", time.Minute)
			require.NoError(t, err)
			if !leased {
				continue
			}
			require.NoError(t, o.Settle("orders", "billing", msg.ID, "consumer-a", true, 3))
			mu.Lock()
			delivered[msg.ID] = true
			mu.Unlock()
		}
	}()

	wg.Wait()
	assert.Len(t, delivered, n)
}
