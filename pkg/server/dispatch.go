package server

import (
	"context"
	"fmt"
	"time"

	"github.com/brokerlabs/leasebroker/internal/logger"
	"github.com/brokerlabs/leasebroker/internal/telemetry"
	"github.com/brokerlabs/leasebroker/pkg/broker"
	"github.com/brokerlabs/leasebroker/pkg/metrics"
	"github.com/brokerlabs/leasebroker/pkg/protocol"
)

// maxAcquireAttempts bounds how many times AcquireNext retries after losing
// a lease race to another connection before giving up and reporting "not
// found" to the caller.
const maxAcquireAttempts = 8

// dispatch decodes a frame body, routes it to the matching broker
// operation, and encodes the response body. Decode errors and broker errors
// are encoded into the response body rather than returned; the only error
// dispatch returns is a failure to encode a response, which the caller
// (connection.serve) treats as connection-fatal.
func (c *connection) dispatch(ctx context.Context, command uint8, body []byte) ([]byte, error) {
	switch protocol.Command(command) {
	case protocol.CommandProduce:
		return c.handleProduce(ctx, body)
	case protocol.CommandAcquireNext:
		return c.handleAcquireNext(ctx, body)
	case protocol.CommandSettle:
		return c.handleSettle(ctx, body)
	default:
		logger.WarnCtx(ctx, "unknown command", logger.Command(fmt.Sprintf("%d", command)))
		return protocol.Encode(map[string]string{
			"error": fmt.Sprintf("Unknown command: %d", command),
		})
	}
}

func (c *connection) handleProduce(ctx context.Context, body []byte) ([]byte, error) {
	var req protocol.ProduceRequest
	if err := protocol.Decode(body, &req); err != nil {
		return protocol.Encode(protocol.ProduceResponse{Error: err.Error()})
	}

	ctx, span := telemetry.StartProduceSpan(ctx, req.LogID)
	defer span.End()

	orch := c.registry.GetOrchestrator(req.LogID)
	id, err := orch.Produce(req.LogID, req.Payload, req.Metadata)
	if err != nil {
		logger.ErrorCtx(ctx, "produce failed", logger.LogID(req.LogID), logger.Err(err))
		return protocol.Encode(protocol.ProduceResponse{Error: err.Error()})
	}

	logger.DebugCtx(ctx, "produced message", logger.LogID(req.LogID), logger.MessageID(id))
	return protocol.Encode(protocol.ProduceResponse{MessageID: id})
}

func (c *connection) handleAcquireNext(ctx context.Context, body []byte) ([]byte, error) {
	var req protocol.AcquireNextRequest
	if err := protocol.Decode(body, &req); err != nil {
		return protocol.Encode(protocol.AcquireNextResponse{Error: err.Error()})
	}

	ctx, span := telemetry.StartAcquireNextSpan(ctx, req.LogID, req.GroupID, req.ClientID)
	defer span.End()

	duration := c.cfg.DefaultLeaseDuration
	if req.LeaseDurationSec > 0 {
		duration = time.Duration(req.LeaseDurationSec * float64(time.Second))
	}

	orch := c.registry.GetOrchestrator(req.LogID)

	for attempt := 0; attempt < maxAcquireAttempts; attempt++ {
		msg, found, err := orch.AcquireNext(req.LogID, req.GroupID)
		if err != nil {
			logger.ErrorCtx(ctx, "acquire_next scan failed", logger.Err(err))
			return protocol.Encode(protocol.AcquireNextResponse{Error: err.Error()})
		}
		if !found {
			return protocol.Encode(protocol.AcquireNextResponse{Found: false})
		}

		leased, err := orch.AcquireLease(req.LogID, req.GroupID, msg.ID, req.ClientID, duration)
		if err != nil {
			logger.ErrorCtx(ctx, "acquire_next lease failed", logger.MessageID(msg.ID), logger.Err(err))
			return protocol.Encode(protocol.AcquireNextResponse{Error: err.Error()})
		}
		if !leased {
			// Another client won the lease race between the scan and the
			// acquire; rescan from the current base offset for the next
			// eligible message.
			metrics.RecordLeaseRaceLost(req.LogID, req.GroupID)
			continue
		}

		logger.DebugCtx(ctx, "acquired lease",
			logger.LogID(req.LogID), logger.GroupID(req.GroupID),
			logger.MessageID(msg.ID), logger.ClientID(req.ClientID))

		return protocol.Encode(protocol.AcquireNextResponse{
			Found:     true,
			MessageID: msg.ID,
			Payload:   msg.Payload,
			Metadata:  msg.Metadata,
		})
	}

	return protocol.Encode(protocol.AcquireNextResponse{Found: false})
}

func (c *connection) handleSettle(ctx context.Context, body []byte) ([]byte, error) {
	var req protocol.SettleRequest
	if err := protocol.Decode(body, &req); err != nil {
		return protocol.Encode(protocol.SettleResponse{Error: err.Error()})
	}

	ctx, span := telemetry.StartSettleSpan(ctx, req.LogID, req.GroupID, req.MessageID, req.ClientID)
	defer span.End()

	orch := c.registry.GetOrchestrator(req.LogID)
	err := orch.Settle(req.LogID, req.GroupID, req.MessageID, req.ClientID, req.Success, c.cfg.MaxRetries)
	if err != nil {
		if broker.IsWrongOwner(err) {
			logger.WarnCtx(ctx, "settle rejected: wrong owner",
				logger.LogID(req.LogID), logger.GroupID(req.GroupID),
				logger.MessageID(req.MessageID), logger.ClientID(req.ClientID))
		} else {
			logger.ErrorCtx(ctx, "settle failed", logger.MessageID(req.MessageID), logger.Err(err))
		}
		return protocol.Encode(protocol.SettleResponse{Error: err.Error()})
	}

	return protocol.Encode(protocol.SettleResponse{OK: true})
}
