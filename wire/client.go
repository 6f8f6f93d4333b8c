package wire

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// Client is the host side of the framed protocol. It writes one request
// frame, then blocks for the matching response frame. Workers answer
// strictly in order, so correlation only has to confirm that the echoed
// ID is the one just sent.
//
// Client is not safe for concurrent use; hosts that multiplex workers
// keep one Client per worker process.
type Client struct {
	fr *FrameReader
	fw *FrameWriter
}

// NewClient returns a client reading responses from r and writing
// requests to w. For a spawned worker these are the worker's stdout and
// stdin.
func NewClient(r io.Reader, w io.Writer) *Client {
	return &Client{fr: NewFrameReader(r), fw: NewFrameWriter(w)}
}

// SetLimits applies l to both directions of the stream.
func (c *Client) SetLimits(l Limits) {
	c.fr.SetLimits(l)
	c.fw.SetLimits(l)
}

// Call sends command with args and waits for the worker's response. The
// request ID is generated here and verified against the echo. Cancelling
// ctx abandons the wait; the stream is unusable afterwards because the
// late response would desynchronize the next call.
func (c *Client) Call(ctx context.Context, command string, args map[string]any) (*Response, error) {
	id, err := json.Marshal(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("failed to encode request id: %w", err)
	}

	payload, err := json.Marshal(&Request{ID: id, Command: command, Args: args})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	if err := c.fw.WriteFrame(payload); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	type readResult struct {
		resp *Response
		err  error
	}
	ch := make(chan readResult, 1)
	go func() {
		frame, err := c.fr.ReadFrame()
		if err != nil {
			ch <- readResult{err: err}
			return
		}
		var resp Response
		if err := json.Unmarshal(frame, &resp); err != nil {
			ch <- readResult{err: fmt.Errorf("failed to decode response: %w", err)}
			return
		}
		ch <- readResult{resp: &resp}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case rr := <-ch:
		if rr.err != nil {
			return nil, rr.err
		}
		if string(rr.resp.ID) != string(id) {
			return nil, fmt.Errorf("response id %s does not match request id %s", rr.resp.ID, id)
		}
		return rr.resp, nil
	}
}
