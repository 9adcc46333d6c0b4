package logger

import (
	"log/slog"
)

// Standard field keys for structured logging.
// Use these keys consistently across all log statements for log aggregation and querying.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// Wire Protocol & Connection
	// ========================================================================
	KeyConnID       = "conn_id"      // TCP connection identifier
	KeyCommand      = "command"      // Frame command: produce, acquire_next, settle
	KeyFrameLen     = "frame_len"    // Decoded frame body length in bytes
	KeyFrameVersion = "frame_version" // Wire protocol version byte
	KeyRemoteAddr   = "remote_addr"  // Client TCP remote address

	// ========================================================================
	// Log / Group / Message Identity
	// ========================================================================
	KeyLogID     = "log_id"     // Append-only log identifier
	KeyGroupID   = "group_id"   // Consumer group identifier
	KeyMessageID = "message_id" // Dense monotonic message id within a log
	KeyBaseOffset = "base_offset" // Current base offset for a (log, group) pair

	// ========================================================================
	// Lease & Delivery
	// ========================================================================
	KeyClientID    = "client_id"    // Lease owner / consuming client identity
	KeyLeaseExpiry = "lease_expiry" // Lease expiry, unix seconds
	KeyLeaseDur    = "lease_duration_s" // Requested lease duration in seconds
	KeyState       = "state"       // Message delivery state: pending, in_progress, processed, failed, dead
	KeyRetryCount  = "retry_count" // Number of failed settle attempts recorded for a message
	KeyMaxRetries  = "max_retries" // Configured max retries before dead-lettering

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
	KeyErrorKind  = "error_kind"  // Broker error taxonomy kind
	KeyOperation  = "operation"   // Orchestrator sub-operation: poll, acquire, settle, slide, reap

	// ========================================================================
	// Reaper & Registry
	// ========================================================================
	KeyReapedCount    = "reaped_count"    // Number of expired leases reclaimed in a sweep
	KeyReapIntervalS  = "reap_interval_s" // Configured reaper sweep interval in seconds
	KeyOrchestratorCt = "orchestrator_count" // Number of live per-log orchestrators in the registry

	// ========================================================================
	// Batch / Scan
	// ========================================================================
	KeyBatchSize = "batch_size" // Storage scan batch size
	KeyLimit     = "limit"      // Requested result limit
	KeyReturned  = "returned"   // Number of messages actually returned
)

// ============================================================================
// Field constructors for type safety
// These functions provide type-safe construction of slog.Attr values.
// ============================================================================

// ----------------------------------------------------------------------------
// Distributed Tracing
// ----------------------------------------------------------------------------

// TraceID returns a slog.Attr for OpenTelemetry trace ID
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for OpenTelemetry span ID
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// ----------------------------------------------------------------------------
// Wire Protocol & Connection
// ----------------------------------------------------------------------------

// ConnID returns a slog.Attr for the connection identifier
func ConnID(id string) slog.Attr {
	return slog.String(KeyConnID, id)
}

// Command returns a slog.Attr for the frame command name
func Command(cmd string) slog.Attr {
	return slog.String(KeyCommand, cmd)
}

// FrameLen returns a slog.Attr for the decoded frame body length
func FrameLen(n int) slog.Attr {
	return slog.Int(KeyFrameLen, n)
}

// FrameVersion returns a slog.Attr for the wire protocol version byte
func FrameVersion(v uint8) slog.Attr {
	return slog.Any(KeyFrameVersion, v)
}

// RemoteAddr returns a slog.Attr for the client's remote address
func RemoteAddr(addr string) slog.Attr {
	return slog.String(KeyRemoteAddr, addr)
}

// ----------------------------------------------------------------------------
// Log / Group / Message Identity
// ----------------------------------------------------------------------------

// LogID returns a slog.Attr for the log identifier
func LogID(id string) slog.Attr {
	return slog.String(KeyLogID, id)
}

// GroupID returns a slog.Attr for the consumer group identifier
func GroupID(id string) slog.Attr {
	return slog.String(KeyGroupID, id)
}

// MessageID returns a slog.Attr for a message id
func MessageID(id uint64) slog.Attr {
	return slog.Uint64(KeyMessageID, id)
}

// BaseOffset returns a slog.Attr for a (log, group) base offset
func BaseOffset(offset uint64) slog.Attr {
	return slog.Uint64(KeyBaseOffset, offset)
}

// ----------------------------------------------------------------------------
// Lease & Delivery
// ----------------------------------------------------------------------------

// ClientID returns a slog.Attr for the lease owner / consumer identity
func ClientID(id string) slog.Attr {
	return slog.String(KeyClientID, id)
}

// LeaseExpiry returns a slog.Attr for lease expiry, unix seconds
func LeaseExpiry(unixSeconds float64) slog.Attr {
	return slog.Float64(KeyLeaseExpiry, unixSeconds)
}

// LeaseDuration returns a slog.Attr for the requested lease duration in seconds
func LeaseDuration(seconds float64) slog.Attr {
	return slog.Float64(KeyLeaseDur, seconds)
}

// State returns a slog.Attr for a message delivery state
func State(state string) slog.Attr {
	return slog.String(KeyState, state)
}

// RetryCount returns a slog.Attr for the recorded retry count
func RetryCount(n int) slog.Attr {
	return slog.Int(KeyRetryCount, n)
}

// MaxRetries returns a slog.Attr for the configured max retries
func MaxRetries(n int) slog.Attr {
	return slog.Int(KeyMaxRetries, n)
}

// ----------------------------------------------------------------------------
// Operation Metadata
// ----------------------------------------------------------------------------

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorKind returns a slog.Attr for the broker error taxonomy kind
func ErrorKind(kind string) slog.Attr {
	return slog.String(KeyErrorKind, kind)
}

// Operation returns a slog.Attr for an orchestrator sub-operation
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// ----------------------------------------------------------------------------
// Reaper & Registry
// ----------------------------------------------------------------------------

// ReapedCount returns a slog.Attr for the number of leases reclaimed in a sweep
func ReapedCount(n int) slog.Attr {
	return slog.Int(KeyReapedCount, n)
}

// ReapIntervalS returns a slog.Attr for the configured reaper interval in seconds
func ReapIntervalS(seconds float64) slog.Attr {
	return slog.Float64(KeyReapIntervalS, seconds)
}

// OrchestratorCount returns a slog.Attr for the number of live per-log orchestrators
func OrchestratorCount(n int) slog.Attr {
	return slog.Int(KeyOrchestratorCt, n)
}

// ----------------------------------------------------------------------------
// Batch / Scan
// ----------------------------------------------------------------------------

// BatchSize returns a slog.Attr for the storage scan batch size
func BatchSize(n int) slog.Attr {
	return slog.Int(KeyBatchSize, n)
}

// Limit returns a slog.Attr for a requested result limit
func Limit(n int) slog.Attr {
	return slog.Int(KeyLimit, n)
}

// Returned returns a slog.Attr for the number of messages actually returned
func Returned(n int) slog.Attr {
	return slog.Int(KeyReturned, n)
}
