package broker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrchestratorIsCachedPerLog(t *testing.T) {
	r := NewRegistry()
	a := r.GetOrchestrator("orders")
	b := r.GetOrchestrator("orders")
	assert.Same(t, a, b)
	assert.Equal(t, 1, r.OrchestratorCount())
}

func TestGetOrchestratorDistinctPerLog(t *testing.T) {
	r := NewRegistry()
	r.GetOrchestrator("orders")
	r.GetOrchestrator("payments")
	assert.Equal(t, 2, r.OrchestratorCount())
}

func TestReaperReclaimsAcrossLogs(t *testing.T) {
	r := NewRegistry()
	orch := r.GetOrchestrator("orders")

	id, err := orch.Produce("orders", []byte("payload"), nil)
	require.NoError(t, err)
	msg, found, err := orch.AcquireNext("orders", "billing")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, id, msg.ID)

	leased, err := orch.AcquireLease("orders", "billing", msg.ID, "consumer-a", time.Millisecond)
	require.NoError(t, err)
	require.True(t, leased)

	payments := r.GetOrchestrator("payments")
	pid, err := payments.Produce("payments", []byte("payload"), nil)
	require.NoError(t, err)
	leased, err = payments.AcquireLease("payments", "billing", pid, "consumer-b", time.Millisecond)
	require.NoError(t, err)
	require.True(t, leased)

	ctx, cancel := context.WithCancel(context.Background())
	r.StartReaper(ctx, 2*time.Millisecond)

	lm := r.leaseManager.(*InMemoryLeaseManager)
	require.Eventually(t, func() bool {
		lm.mu.RLock()
		defer lm.mu.RUnlock()
		return len(lm.leases) == 0
	}, time.Second, 5*time.Millisecond, "reaper should remove the expired leases of both logs")

	require.Eventually(t, func() bool {
		_, found, err := orch.AcquireNext("orders", "billing")
		return err == nil && found
	}, time.Second, 5*time.Millisecond)

	cancel()
	r.StopReaper()
}

func TestStopReaperPerformsFinalSweep(t *testing.T) {
	r := NewRegistry()
	orch := r.GetOrchestrator("orders")
	id, err := orch.Produce("orders", []byte("payload"), nil)
	require.NoError(t, err)
	leased, err := orch.AcquireLease("orders", "billing", id, "consumer-a", time.Millisecond)
	require.NoError(t, err)
	require.True(t, leased)
	time.Sleep(5 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	r.StartReaper(ctx, time.Hour)

	cancel()
	r.StopReaper()

	lm := r.leaseManager.(*InMemoryLeaseManager)
	lm.mu.RLock()
	remaining := len(lm.leases)
	lm.mu.RUnlock()
	assert.Equal(t, 0, remaining, "the sweep on stop should remove the expired lease")
}
