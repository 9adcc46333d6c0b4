package protocol

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Decode unmarshals a MessagePack frame body into v.
func Decode(body []byte, v any) error {
	if err := msgpack.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode frame body: %w", err)
	}
	return nil
}

// Encode marshals v into a MessagePack frame body.
func Encode(v any) ([]byte, error) {
	body, err := msgpack.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode frame body: %w", err)
	}
	return body, nil
}
