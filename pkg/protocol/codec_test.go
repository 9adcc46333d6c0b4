package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProduceRequestRoundTrips(t *testing.T) {
	req := ProduceRequest{LogID: "orders", Payload: []byte("hello"), Metadata: map[string]any{"tenant": "acme"}}

	body, err := Encode(req)
	require.NoError(t, err)

	var decoded ProduceRequest
	require.NoError(t, Decode(body, &decoded))
	assert.Equal(t, req.LogID, decoded.LogID)
	assert.Equal(t, req.Payload, decoded.Payload)
	assert.Equal(t, "acme", decoded.Metadata["tenant"])
}

func TestProduceRequestRoundTripsWithStructuredPayload(t *testing.T) {
	req := ProduceRequest{LogID: "orders", Payload: map[string]any{"x": int64(1)}}

	body, err := Encode(req)
	require.NoError(t, err)

	var decoded ProduceRequest
	require.NoError(t, Decode(body, &decoded))
	payload, ok := decoded.Payload.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, int64(1), payload["x"])
}

func TestAcquireNextResponseRoundTripsWhenNotFound(t *testing.T) {
	resp := AcquireNextResponse{Found: false}

	body, err := Encode(resp)
	require.NoError(t, err)

	var decoded AcquireNextResponse
	require.NoError(t, Decode(body, &decoded))
	assert.False(t, decoded.Found)
	assert.Zero(t, decoded.MessageID)
}

func TestSettleRequestRoundTrips(t *testing.T) {
	req := SettleRequest{LogID: "orders", GroupID: "billing", MessageID: 7, ClientID: "consumer-a", Success: true}

	body, err := Encode(req)
	require.NoError(t, err)

	var decoded SettleRequest
	require.NoError(t, Decode(body, &decoded))
	assert.Equal(t, req, decoded)
}

func TestDecodeRejectsMalformedBody(t *testing.T) {
	var req ProduceRequest
	err := Decode([]byte{0xFF, 0xFF, 0xFF}, &req)
	assert.Error(t, err)
}

func TestCommandString(t *testing.T) {
	assert.Equal(t, "produce", CommandProduce.String())
	assert.Equal(t, "acquire_next", CommandAcquireNext.String())
	assert.Equal(t, "settle", CommandSettle.String())
	assert.Equal(t, "unknown", Command(99).String())
}
