package logger

import (
	"context"
	"time"
)

// contextKey is a private type for context keys to avoid collisions
type contextKey struct{}

// logContextKey is the key for LogContext in context.Context
var logContextKey = contextKey{}

// LogContext holds request-scoped logging context for a single broker
// operation: a connection handling one frame, or an internal call the
// orchestrator makes on its behalf.
type LogContext struct {
	TraceID   string    // OpenTelemetry trace ID
	SpanID    string    // OpenTelemetry span ID
	ConnID    string    // Connection identifier
	LogID     string    // Log the operation targets
	GroupID   string    // Consumer group the operation targets
	ClientID  string    // Lease owner / consumer identity
	MessageID uint64    // Message id, when known
	StartTime time.Time // For duration calculation
}

// WithContext returns a new context with the given LogContext
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from context, or nil if not present
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext creates a new LogContext for a connection.
func NewLogContext(connID string) *LogContext {
	return &LogContext{
		ConnID:    connID,
		StartTime: time.Now(),
	}
}

// Clone creates a copy of the LogContext
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	return &LogContext{
		TraceID:   lc.TraceID,
		SpanID:    lc.SpanID,
		ConnID:    lc.ConnID,
		LogID:     lc.LogID,
		GroupID:   lc.GroupID,
		ClientID:  lc.ClientID,
		MessageID: lc.MessageID,
		StartTime: lc.StartTime,
	}
}

// WithLogGroup returns a copy with the log_id and group_id set
func (lc *LogContext) WithLogGroup(logID, groupID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.LogID = logID
		clone.GroupID = groupID
	}
	return clone
}

// WithClient returns a copy with the client_id set
func (lc *LogContext) WithClient(clientID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.ClientID = clientID
	}
	return clone
}

// WithMessage returns a copy with the message_id set
func (lc *LogContext) WithMessage(messageID uint64) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.MessageID = messageID
	}
	return clone
}

// WithTrace returns a copy with trace info set
func (lc *LogContext) WithTrace(traceID, spanID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.TraceID = traceID
		clone.SpanID = spanID
	}
	return clone
}

// DurationMs returns the duration since StartTime in milliseconds
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}
