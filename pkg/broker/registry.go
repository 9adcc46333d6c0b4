package broker

import (
	"context"
	"sync"
	"time"

	"github.com/brokerlabs/leasebroker/internal/logger"
	"github.com/brokerlabs/leasebroker/internal/telemetry"
	"github.com/brokerlabs/leasebroker/pkg/metrics"
)

// Registry owns the shared storage, state, and lease stores and lazily
// constructs one Orchestrator per log, all three sharing those stores.
//
// It also owns the background reaper: a ticker-driven goroutine that
// periodically reclaims expired leases across every log.
type Registry struct {
	mu            sync.RWMutex
	orchestrators map[string]*Orchestrator

	storage      Storage
	stateStore   StateStore
	leaseManager LeaseManager

	reapCtx    context.Context
	reapCancel context.CancelFunc
	reapWg     sync.WaitGroup
}

// NewRegistry builds a Registry over a fresh set of in-memory stores.
func NewRegistry() *Registry {
	return &Registry{
		orchestrators: make(map[string]*Orchestrator),
		storage:       NewInMemoryStorage(),
		stateStore:    NewInMemoryStateStore(),
		leaseManager:  NewInMemoryLeaseManager(),
	}
}

// GetOrchestrator returns the Orchestrator for logID, constructing it on
// first use.
func (r *Registry) GetOrchestrator(logID string) *Orchestrator {
	r.mu.RLock()
	orch, ok := r.orchestrators[logID]
	r.mu.RUnlock()
	if ok {
		return orch
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if orch, ok := r.orchestrators[logID]; ok {
		return orch
	}

	orch = NewOrchestrator(r.storage, r.stateStore, r.leaseManager)
	r.orchestrators[logID] = orch
	return orch
}

// OrchestratorCount returns the number of logs with a live Orchestrator.
func (r *Registry) OrchestratorCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.orchestrators)
}

// StartReaper launches the background lease-expiry sweep at the given
// interval. The first sweep runs after interval has elapsed, not
// immediately on start, matching a ticker's natural firing behavior.
//
// StartReaper is not idempotent: calling it twice without an intervening
// StopReaper leaks the first goroutine.
func (r *Registry) StartReaper(ctx context.Context, interval time.Duration) {
	r.reapCtx, r.reapCancel = context.WithCancel(ctx)

	r.reapWg.Add(1)
	go r.reapLoop(interval)
}

// StopReaper cancels the reaper goroutine and blocks until it exits,
// performing one final sweep on the way out.
func (r *Registry) StopReaper() {
	if r.reapCancel != nil {
		r.reapCancel()
	}
	r.reapWg.Wait()
}

func (r *Registry) reapLoop(interval time.Duration) {
	defer r.reapWg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.reapCtx.Done():
			r.reapOnce()
			return
		case <-ticker.C:
			r.reapOnce()
		}
	}
}

func (r *Registry) reapOnce() {
	_, span := telemetry.StartReapSpan(r.reapCtx)
	defer span.End()

	start := time.Now()
	reaped, err := r.leaseManager.ReapExpired()
	metrics.ObserveReapDuration(time.Since(start))
	if err != nil {
		logger.ErrorCtx(r.reapCtx, "reaper sweep failed", logger.Err(err))
		return
	}
	metrics.RecordLeaseReaped(reaped)
	if reaped > 0 {
		logger.Info("reaper reclaimed expired leases", logger.ReapedCount(reaped))
	}
}
