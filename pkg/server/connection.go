package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/brokerlabs/leasebroker/internal/logger"
	"github.com/brokerlabs/leasebroker/internal/wire"
	"github.com/brokerlabs/leasebroker/pkg/broker"
	"github.com/brokerlabs/leasebroker/pkg/protocol"
)

// connection serves a single TCP client: read a frame, dispatch it, write
// the response, repeat. Exactly one frame is in flight at a time, per the
// wire protocol's serial/pipelined contract; requests from other
// connections are unaffected by anything that happens here.
type connection struct {
	id       string
	conn     net.Conn
	registry *broker.Registry
	cfg      Config
}

func newConnection(id string, conn net.Conn, registry *broker.Registry, cfg Config) *connection {
	return &connection{id: id, conn: conn, registry: registry, cfg: cfg}
}

func (c *connection) serve(ctx context.Context) {
	lc := logger.NewLogContext(c.id)
	ctx = logger.WithContext(ctx, lc)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		frame, err := wire.ReadFrame(c.conn)
		if err != nil {
			if isQuietClose(err) {
				return
			}
			var tooLarge *wire.ErrFrameTooLarge
			if errors.As(err, &tooLarge) {
				logger.WarnCtx(ctx, "frame exceeds maximum size, closing connection", logger.Err(err))
				return
			}
			logger.WarnCtx(ctx, "frame read failed, closing connection", logger.Err(err))
			return
		}

		if frame.Version != wire.ProtocolVersion {
			logger.WarnCtx(ctx, "unsupported frame version", logger.Err(fmt.Errorf("version %d", frame.Version)))
			errBody, err := protocol.Encode(map[string]string{
				"error": fmt.Sprintf("Unknown version: %d", frame.Version),
			})
			if err != nil {
				logger.ErrorCtx(ctx, "failed to encode version error response", logger.Err(err))
				return
			}
			if err := wire.WriteFrame(c.conn, frame.Command, errBody); err != nil {
				logger.WarnCtx(ctx, "frame write failed, closing connection", logger.Err(err))
				return
			}
			continue
		}

		respBody, err := c.dispatch(ctx, frame.Command, frame.Body)
		if err != nil {
			logger.ErrorCtx(ctx, "dispatch failed", logger.Err(err))
			return
		}

		if err := wire.WriteFrame(c.conn, frame.Command, respBody); err != nil {
			logger.WarnCtx(ctx, "frame write failed, closing connection", logger.Err(err))
			return
		}
	}
}

// isQuietClose reports whether err represents a normal client disconnect
// between frames, which should not be logged as a failure.
func isQuietClose(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed)
}
