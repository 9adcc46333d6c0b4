// Package protocol defines the broker's three wire commands and their
// request/response body shapes, encoded as MessagePack maps over the
// internal/wire frame format.
package protocol

// Command identifies the operation a frame carries.
type Command uint8

const (
	CommandProduce     Command = 1
	CommandAcquireNext Command = 2
	CommandSettle      Command = 3
)

// String returns the logging-friendly command name.
func (c Command) String() string {
	switch c {
	case CommandProduce:
		return "produce"
	case CommandAcquireNext:
		return "acquire_next"
	case CommandSettle:
		return "settle"
	default:
		return "unknown"
	}
}

// ProduceRequest appends one message to a log. Payload is an opaque,
// duck-typed structured value carried through as whatever it is — a
// string, a number, a nested map — not necessarily raw bytes.
type ProduceRequest struct {
	LogID    string         `msgpack:"log_id"`
	Payload  any            `msgpack:"payload"`
	Metadata map[string]any `msgpack:"metadata,omitempty"`
}

// ProduceResponse carries the id assigned to the appended message.
type ProduceResponse struct {
	MessageID uint64 `msgpack:"message_id"`
	Error     string `msgpack:"error,omitempty"`
}

// AcquireNextRequest asks for the next eligible message in a (log, group),
// leasing it to the caller for duration seconds on success.
type AcquireNextRequest struct {
	LogID            string  `msgpack:"log_id"`
	GroupID          string  `msgpack:"group_id"`
	ClientID         string  `msgpack:"client_id"`
	LeaseDurationSec float64 `msgpack:"duration,omitempty"`
}

// AcquireNextResponse carries the leased message, if any.
type AcquireNextResponse struct {
	Found     bool           `msgpack:"found"`
	MessageID uint64         `msgpack:"message_id,omitempty"`
	Payload   any            `msgpack:"payload,omitempty"`
	Metadata  map[string]any `msgpack:"metadata,omitempty"`
	Error     string         `msgpack:"error,omitempty"`
}

// SettleRequest reports the outcome of processing a leased message.
type SettleRequest struct {
	LogID     string `msgpack:"log_id"`
	GroupID   string `msgpack:"group_id"`
	MessageID uint64 `msgpack:"message_id"`
	ClientID  string `msgpack:"client_id"`
	Success   bool   `msgpack:"success"`
}

// SettleResponse acknowledges a settle, or carries the resulting error.
type SettleResponse struct {
	OK    bool   `msgpack:"ok"`
	Error string `msgpack:"error,omitempty"`
}
