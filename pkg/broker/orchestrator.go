package broker

import (
	"sync"
	"time"

	"github.com/brokerlabs/leasebroker/internal/logger"
	"github.com/brokerlabs/leasebroker/pkg/metrics"
)

const defaultBatchSize = 20

// Orchestrator coordinates a single log's storage, consumption state, and
// leases to provide at-least-once delivery with exclusive, time-bounded
// processing per (log, group) pair.
type Orchestrator struct {
	storage      Storage
	stateStore   StateStore
	leaseManager LeaseManager

	slideMu sync.Mutex
}

// NewOrchestrator builds an Orchestrator over the given shared stores.
func NewOrchestrator(storage Storage, stateStore StateStore, leaseManager LeaseManager) *Orchestrator {
	return &Orchestrator{
		storage:      storage,
		stateStore:   stateStore,
		leaseManager: leaseManager,
	}
}

// Produce appends a message to the log and returns its assigned id.
func (o *Orchestrator) Produce(logID string, payload any, metadata map[string]any) (uint64, error) {
	id, err := o.storage.Append(logID, payload, metadata)
	if err == nil {
		metrics.RecordProduced(logID)
	}
	return id, err
}

// AcquireNext scans forward from the (log, group)'s base offset for the
// first message eligible for delivery: not yet processed or dead-lettered,
// and not currently under an unexpired lease. A message whose state is
// in_progress but whose lease has lapsed is lazily downgraded back to
// pending before being considered.
//
// It returns the message and true if one was found, or false if the log
// has no eligible message past the base offset.
func (o *Orchestrator) AcquireNext(logID, groupID string) (Message, bool, error) {
	if err := o.slideOffset(logID, groupID); err != nil {
		return Message{}, false, err
	}

	offset, err := o.stateStore.GetBaseOffset(logID, groupID)
	if err != nil {
		return Message{}, false, err
	}

	for {
		batch, err := o.storage.GetBatch(logID, offset, defaultBatchSize)
		if err != nil {
			return Message{}, false, err
		}
		if len(batch) == 0 {
			return Message{}, false, nil
		}

		ids := make([]uint64, len(batch))
		for i, msg := range batch {
			ids[i] = msg.ID
		}
		states, err := o.stateStore.GetMessageStates(logID, groupID, ids)
		if err != nil {
			return Message{}, false, err
		}
		leases, err := o.leaseManager.GetLeases(logID, groupID, ids)
		if err != nil {
			return Message{}, false, err
		}

		for _, msg := range batch {
			state := states[msg.ID]
			lease := leases[msg.ID]

			if state == StateProcessed || state == StateDead {
				continue
			}

			if state == StateInProgress && lease == nil {
				if err := o.stateStore.SetMessageState(logID, groupID, msg.ID, StatePending); err != nil {
					return Message{}, false, err
				}
				metrics.RecordLeaseLazyReclaimed(logID, groupID)
				state = StatePending
			}

			if (state == StatePending || state == StateFailed) && lease == nil {
				return msg, true, nil
			}
		}

		offset += uint64(len(batch))
	}
}

// AcquireLease grants the caller an exclusive lease over the given message,
// transitioning it to in_progress on success. It returns false, not an
// error, when the lease is already held by someone else.
func (o *Orchestrator) AcquireLease(logID, groupID string, messageID uint64, clientID string, duration time.Duration) (bool, error) {
	state, err := o.stateStore.GetMessageState(logID, groupID, messageID)
	if err != nil {
		return false, err
	}
	if state == StateProcessed || state == StateDead {
		return false, nil
	}

	acquired, err := o.leaseManager.Acquire(logID, groupID, messageID, clientID, duration)
	if err != nil {
		return false, err
	}
	if acquired {
		if err := o.stateStore.SetMessageState(logID, groupID, messageID, StateInProgress); err != nil {
			return false, err
		}
		metrics.RecordLeaseAcquired(logID, groupID)
	}
	return acquired, nil
}

// Settle records the outcome of processing a message. On success the
// message is marked processed. On failure its retry count is incremented
// and it is marked dead once maxRetries is reached, otherwise failed. The
// caller's lease is released either way.
//
// Settle returns a WrongOwner broker.Error if a live lease on the message is
// held by another client. When there is no live lease at all (never taken,
// or already expired), the settle proceeds.
func (o *Orchestrator) Settle(logID, groupID string, messageID uint64, clientID string, success bool, maxRetries int) error {
	lease, err := o.leaseManager.GetLease(logID, groupID, messageID)
	if err != nil {
		return err
	}
	if lease != nil && lease.OwnerID != clientID {
		metrics.RecordSettlement(logID, groupID, "wrong_owner")
		return NewWrongOwnerError(messageID)
	}

	var newState MessageState
	if success {
		newState = StateProcessed
	} else {
		retries, err := o.stateStore.IncrementRetryCount(logID, groupID, messageID)
		if err != nil {
			return err
		}
		if retries >= maxRetries {
			newState = StateDead
		} else {
			newState = StateFailed
		}
	}

	if err := o.stateStore.SetMessageState(logID, groupID, messageID, newState); err != nil {
		return err
	}
	if err := o.leaseManager.Release(logID, groupID, messageID); err != nil {
		return err
	}

	if success || newState == StateDead {
		if err := o.slideOffset(logID, groupID); err != nil {
			return err
		}
	}

	logger.Debug("settled message",
		logger.LogID(logID), logger.GroupID(groupID), logger.MessageID(messageID),
		logger.ClientID(clientID), logger.State(string(newState)))
	metrics.RecordSettlement(logID, groupID, string(newState))

	return nil
}

// slideOffset advances the (log, group) base offset past every leading
// processed or dead message, so future scans skip settled history. It is
// serialized per-orchestrator so concurrent settles don't race each other
// while reading and writing the base offset.
func (o *Orchestrator) slideOffset(logID, groupID string) error {
	o.slideMu.Lock()
	defer o.slideMu.Unlock()

	offset, err := o.stateStore.GetBaseOffset(logID, groupID)
	if err != nil {
		return err
	}

	for {
		state, err := o.stateStore.GetMessageState(logID, groupID, offset)
		if err != nil {
			return err
		}
		if state != StateProcessed && state != StateDead {
			break
		}
		offset++
	}

	return o.stateStore.SetBaseOffset(logID, groupID, offset)
}
