// Package wire implements the length-prefixed JSON framing used between a
// bridge worker and its host process. Every frame is a 4-byte unsigned
// big-endian payload length followed by that many bytes of UTF-8 JSON.
//
// The framing is symmetric: the host writes request frames to the worker's
// stdin and the worker writes response frames to its stdout. A truncated
// header or payload means the peer has gone away and is reported as io.EOF
// rather than as a distinct error.
package wire

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// headerSize is the fixed byte length of the frame header.
const headerSize = 4

// FrameReader reads length-prefixed frames from an underlying stream.
type FrameReader struct {
	r      io.Reader
	limits Limits
}

// NewFrameReader returns a reader with default limits.
func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{r: r, limits: DefaultLimits()}
}

// SetLimits replaces the reader's limits. Zero values fall back to the
// defaults and oversized values are clamped to the hard limit.
func (fr *FrameReader) SetLimits(l Limits) {
	fr.limits = l.clamped()
}

// ReadFrame reads the next frame payload. It returns io.EOF when the
// stream ends cleanly or mid-frame, and ErrFrameTooLarge when the header
// announces a payload above the configured limit.
func (fr *FrameReader) ReadFrame() ([]byte, error) {
	var hdr [headerSize]byte
	if _, err := io.ReadFull(fr.r, hdr[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return nil, io.EOF
		}
		return nil, err
	}

	n := binary.BigEndian.Uint32(hdr[:])
	if n > fr.limits.MaxFrame {
		return nil, fmt.Errorf("%w: %d bytes (limit %d)", ErrFrameTooLarge, n, fr.limits.MaxFrame)
	}

	payload := make([]byte, n)
	if _, err := io.ReadFull(fr.r, payload); err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return nil, io.EOF
		}
		return nil, err
	}
	return payload, nil
}

// FrameWriter writes length-prefixed frames to an underlying stream.
// Each frame is flushed as soon as it is written so a peer blocked on a
// read never waits on a buffered response.
type FrameWriter struct {
	w      *bufio.Writer
	limits Limits
}

// NewFrameWriter returns a writer with default limits.
func NewFrameWriter(w io.Writer) *FrameWriter {
	return &FrameWriter{w: bufio.NewWriter(w), limits: DefaultLimits()}
}

// SetLimits replaces the writer's limits. Zero values fall back to the
// defaults and oversized values are clamped to the hard limit.
func (fw *FrameWriter) SetLimits(l Limits) {
	fw.limits = l.clamped()
}

// WriteFrame writes a single frame containing payload and flushes it.
func (fw *FrameWriter) WriteFrame(payload []byte) error {
	if len(payload) > int(fw.limits.MaxFrame) {
		return fmt.Errorf("%w: %d bytes (limit %d)", ErrFrameTooLarge, len(payload), fw.limits.MaxFrame)
	}

	var hdr [headerSize]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(payload)))
	if _, err := fw.w.Write(hdr[:]); err != nil {
		return fmt.Errorf("failed to write frame header: %w", err)
	}
	if _, err := fw.w.Write(payload); err != nil {
		return fmt.Errorf("failed to write frame payload: %w", err)
	}
	if err := fw.w.Flush(); err != nil {
		return fmt.Errorf("failed to flush frame: %w", err)
	}
	return nil
}
