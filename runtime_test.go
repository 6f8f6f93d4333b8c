package lmbridge

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filegrind/lmbridge-go/wire"
)

func waitForRuntime(t *testing.T, done <-chan error) {
	t.Helper()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("runtime did not stop")
	}
}

func TestRuntimeServesRequests(t *testing.T) {
	workerInR, workerInW := io.Pipe()
	workerOutR, workerOutW := io.Pipe()

	b := newTestBridge(t, WithWorkerID("rt-worker"))
	rt := NewRuntime(workerInR, workerOutW, b, WithRuntimeLogger(quietLogger()))

	done := make(chan error, 1)
	go func() { done <- rt.Run(context.Background()) }()

	client := wire.NewClient(workerOutR, workerInW)

	ping, err := client.Call(context.Background(), "ping", nil)
	require.NoError(t, err)
	assert.True(t, ping.Success)
	assert.Equal(t, "ok", ping.Result["status"])
	assert.Equal(t, "lmbridge", ping.Result["bridge_type"])
	assert.Equal(t, "rt-worker", ping.Result["worker_id"])

	created, err := client.Call(context.Background(), "create_program", map[string]any{
		"id":        "qa-1",
		"signature": qaSignature(),
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", created.Result["status"])

	listed, err := client.Call(context.Background(), "list_programs", nil)
	require.NoError(t, err)
	// Result values round-tripped through JSON, so numbers are float64.
	assert.Equal(t, float64(1), listed.Result["count"])

	require.NoError(t, workerInW.Close())
	waitForRuntime(t, done)
}

func TestRuntimeStopsOnMalformedPayload(t *testing.T) {
	workerInR, workerInW := io.Pipe()
	workerOutR, workerOutW := io.Pipe()

	rt := NewRuntime(workerInR, workerOutW, newTestBridge(t), WithRuntimeLogger(quietLogger()))

	done := make(chan error, 1)
	go func() { done <- rt.Run(context.Background()) }()
	go func() { _, _ = io.Copy(io.Discard, workerOutR) }()

	fw := wire.NewFrameWriter(workerInW)
	require.NoError(t, fw.WriteFrame([]byte("{not json")))

	waitForRuntime(t, done)
}

func TestRuntimeStopsOnOversizedFrame(t *testing.T) {
	workerInR, workerInW := io.Pipe()
	workerOutR, workerOutW := io.Pipe()

	rt := NewRuntime(workerInR, workerOutW, newTestBridge(t),
		WithRuntimeLogger(quietLogger()),
		WithLimits(wire.Limits{MaxFrame: 64}))

	done := make(chan error, 1)
	go func() { done <- rt.Run(context.Background()) }()
	go func() { _, _ = io.Copy(io.Discard, workerOutR) }()

	fw := wire.NewFrameWriter(workerInW)
	require.NoError(t, fw.WriteFrame(bytes.Repeat([]byte("x"), 128)))

	waitForRuntime(t, done)
}

func TestRuntimeStopsWhenContextCancelled(t *testing.T) {
	workerInR, _ := io.Pipe()
	_, workerOutW := io.Pipe()

	rt := NewRuntime(workerInR, workerOutW, newTestBridge(t), WithRuntimeLogger(quietLogger()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, rt.Run(ctx))
}
