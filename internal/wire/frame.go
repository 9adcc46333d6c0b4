// Package wire implements the broker's length-prefixed frame protocol:
//
//	[length uint32 BE][version uint8][command uint8][body ...]
//
// length counts the bytes following it, i.e. 2 (version + command) plus
// len(body). The body is an opaque, self-describing binary map, encoded
// with MessagePack by the pkg/protocol layer.
package wire

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/brokerlabs/leasebroker/internal/bytesize"
	"github.com/brokerlabs/leasebroker/pkg/bufpool"
)

// ProtocolVersion is the only wire version this broker emits or accepts.
const ProtocolVersion uint8 = 1

// MaxFrameSize is the maximum allowed frame body size (version + command +
// body), matching the spec's 10 MiB ceiling.
const MaxFrameSize = 10 * bytesize.MiB

// Frame is a decoded wire message.
type Frame struct {
	Version uint8
	Command uint8
	Body    []byte
}

// ErrFrameTooLarge is returned by ReadFrame when the advertised length
// exceeds MaxFrameSize.
type ErrFrameTooLarge struct {
	Length uint32
}

func (e *ErrFrameTooLarge) Error() string {
	return fmt.Sprintf("frame too large: %d bytes", e.Length)
}

// ReadFrame reads one frame from r.
//
// An io.EOF or io.ErrUnexpectedEOF on the length prefix is returned
// unwrapped so callers can tell a clean disconnect between frames from a
// truncated frame mid-read.
func ReadFrame(r io.Reader) (Frame, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return Frame{}, err
	}
	length := binary.BigEndian.Uint32(lenBuf[:])

	if bytesize.ByteSize(length) > MaxFrameSize {
		return Frame{}, &ErrFrameTooLarge{Length: length}
	}
	if length < 2 {
		return Frame{}, fmt.Errorf("frame shorter than header: %d bytes", length)
	}

	buf := bufpool.GetUint32(length)
	if _, err := io.ReadFull(r, buf); err != nil {
		bufpool.Put(buf)
		return Frame{}, fmt.Errorf("read frame body: %w", err)
	}

	version := buf[0]
	command := buf[1]
	body := make([]byte, length-2)
	copy(body, buf[2:])
	bufpool.Put(buf)

	return Frame{Version: version, Command: command, Body: body}, nil
}

// WriteFrame writes a frame to w in a single call.
func WriteFrame(w io.Writer, command uint8, body []byte) error {
	length := uint32(2 + len(body))

	out := make([]byte, 4+length)
	binary.BigEndian.PutUint32(out[0:4], length)
	out[4] = ProtocolVersion
	out[5] = command
	copy(out[6:], body)

	_, err := w.Write(out)
	return err
}
