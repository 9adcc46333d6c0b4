package wire

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFrameThenReadFrameRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	body := []byte(`{"log_id":"orders"}`)

	require.NoError(t, WriteFrame(&buf, 2, body))

	frame, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, ProtocolVersion, frame.Version)
	assert.Equal(t, uint8(2), frame.Command)
	assert.Equal(t, body, frame.Body)
}

func TestReadFrameEmptyBody(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, 3, nil))

	frame, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, uint8(3), frame.Command)
	assert.Empty(t, frame.Body)
}

func TestReadFrameRejectsOversizedLength(t *testing.T) {
	var buf bytes.Buffer
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(MaxFrameSize)+1)
	buf.Write(lenBuf[:])

	_, err := ReadFrame(&buf)
	require.Error(t, err)
	var tooLarge *ErrFrameTooLarge
	assert.ErrorAs(t, err, &tooLarge)
}

func TestReadFrameRejectsHeaderShorterThanTwoBytes(t *testing.T) {
	var buf bytes.Buffer
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], 1)
	buf.Write(lenBuf[:])
	buf.WriteByte(0xFF)

	_, err := ReadFrame(&buf)
	require.Error(t, err)
}

func TestReadFrameTruncatedMidReadReturnsWrappedError(t *testing.T) {
	var buf bytes.Buffer
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], 10)
	buf.Write(lenBuf[:])
	buf.Write([]byte{1, 2, 3})

	_, err := ReadFrame(&buf)
	require.Error(t, err)
}

func TestReadFrameCleanEOFBetweenFramesUnwrapped(t *testing.T) {
	var buf bytes.Buffer
	_, err := ReadFrame(&buf)
	assert.ErrorIs(t, err, io.EOF)
}
