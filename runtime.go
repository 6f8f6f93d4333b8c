package lmbridge

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/filegrind/lmbridge-go/wire"
)

// Runtime drives a Bridge from a framed request stream, one request at
// a time. A pool supervisor spawns one worker process per Runtime and
// talks to it over the worker's stdin/stdout.
type Runtime struct {
	fr     *wire.FrameReader
	fw     *wire.FrameWriter
	bridge *Bridge
	logger *slog.Logger
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithRuntimeLogger sets the logger used for loop-level events.
func WithRuntimeLogger(logger *slog.Logger) RuntimeOption {
	return func(rt *Runtime) {
		if logger != nil {
			rt.logger = logger
		}
	}
}

// WithLimits sets the frame size limits on both stream directions.
func WithLimits(limits wire.Limits) RuntimeOption {
	return func(rt *Runtime) {
		rt.fr.SetLimits(limits)
		rt.fw.SetLimits(limits)
	}
}

// NewRuntime wires a Bridge to a request stream. In production r and w
// are os.Stdin and os.Stdout; tests pass pipes.
func NewRuntime(r io.Reader, w io.Writer, bridge *Bridge, opts ...RuntimeOption) *Runtime {
	rt := &Runtime{
		fr:     wire.NewFrameReader(r),
		fw:     wire.NewFrameWriter(w),
		bridge: bridge,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// Run processes requests until the input stream ends, the stream
// becomes unreadable, or ctx is cancelled between requests. Stream
// exhaustion is the normal shutdown signal in pool mode, so Run
// returns nil for it.
//
// Run blocks in ReadFrame while waiting for the next request; callers
// that need prompt cancellation must close the reader.
func (rt *Runtime) Run(ctx context.Context) error {
	rt.logger.Info("bridge started in pool-worker mode", "worker_id", rt.bridge.WorkerID())

	for {
		if ctx.Err() != nil {
			rt.logger.Info("shutdown requested, stopping request loop")
			return nil
		}

		payload, err := rt.fr.ReadFrame()
		if errors.Is(err, io.EOF) {
			rt.logger.Info("input stream closed, shutting down")
			return nil
		}
		if err != nil {
			rt.logger.Error("failed to read frame", "error", err)
			return nil
		}

		req, err := wire.DecodeRequest(payload)
		if err != nil {
			rt.logger.Error("failed to decode request", "error", err)
			return nil
		}

		resp := rt.bridge.Dispatch(ctx, req)

		encoded, err := wire.EncodeResponse(resp)
		if err != nil {
			rt.logger.Error("failed to encode response", "error", err)
			return nil
		}
		if err := rt.fw.WriteFrame(encoded); err != nil {
			rt.logger.Error("failed to write response frame", "error", err)
			return nil
		}
	}
}
