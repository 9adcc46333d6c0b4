package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Common attribute keys for broker operations.
const (
	AttrClientAddr = "client.address"
	AttrLogID      = "broker.log_id"
	AttrGroupID    = "broker.group_id"
	AttrClientID   = "broker.client_id"
	AttrMessageID  = "broker.message_id"
	AttrOutcome    = "broker.outcome"
	AttrRetryCount = "broker.retry_count"
)

// Span names for broker operations.
const (
	SpanProduce     = "broker.produce"
	SpanAcquireNext = "broker.acquire_next"
	SpanSettle      = "broker.settle"
	SpanReapSweep   = "broker.reap_sweep"
)

// ClientAddr returns an attribute for the connecting client's network address.
func ClientAddr(addr string) attribute.KeyValue {
	return attribute.String(AttrClientAddr, addr)
}

// LogID returns an attribute for the log a span operates on.
func LogID(id string) attribute.KeyValue {
	return attribute.String(AttrLogID, id)
}

// GroupID returns an attribute for the consumer group a span operates on.
func GroupID(id string) attribute.KeyValue {
	return attribute.String(AttrGroupID, id)
}

// ClientID returns an attribute for the client performing the operation.
func ClientID(id string) attribute.KeyValue {
	return attribute.String(AttrClientID, id)
}

// MessageID returns an attribute for the message a span operates on.
func MessageID(id uint64) attribute.KeyValue {
	return attribute.Int64(AttrMessageID, int64(id))
}

// Outcome returns an attribute for a settle outcome (processed, failed, dead).
func Outcome(outcome string) attribute.KeyValue {
	return attribute.String(AttrOutcome, outcome)
}

// RetryCount returns an attribute for a message's current retry count.
func RetryCount(count int) attribute.KeyValue {
	return attribute.Int(AttrRetryCount, count)
}

// StartProduceSpan starts a span for a produce operation.
func StartProduceSpan(ctx context.Context, logID string) (context.Context, trace.Span) {
	return StartSpan(ctx, SpanProduce, trace.WithAttributes(LogID(logID)))
}

// StartAcquireNextSpan starts a span for an acquire_next operation.
func StartAcquireNextSpan(ctx context.Context, logID, groupID, clientID string) (context.Context, trace.Span) {
	return StartSpan(ctx, SpanAcquireNext, trace.WithAttributes(LogID(logID), GroupID(groupID), ClientID(clientID)))
}

// StartSettleSpan starts a span for a settle operation.
func StartSettleSpan(ctx context.Context, logID, groupID string, messageID uint64, clientID string) (context.Context, trace.Span) {
	return StartSpan(ctx, SpanSettle, trace.WithAttributes(
		LogID(logID), GroupID(groupID), MessageID(messageID), ClientID(clientID),
	))
}

// StartReapSpan starts a span for a reaper sweep.
func StartReapSpan(ctx context.Context) (context.Context, trace.Span) {
	return StartSpan(ctx, SpanReapSweep)
}
