package wire

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	fw := NewFrameWriter(&buf)
	fr := NewFrameReader(&buf)

	payloads := [][]byte{
		[]byte(`{"command":"ping"}`),
		{},
		bytes.Repeat([]byte("x"), 64*1024),
	}
	for _, p := range payloads {
		require.NoError(t, fw.WriteFrame(p))
	}
	for _, want := range payloads {
		got, err := fr.ReadFrame()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := fr.ReadFrame()
	assert.Equal(t, io.EOF, err)
}

func TestFrameHeaderIsBigEndian(t *testing.T) {
	var buf bytes.Buffer
	fw := NewFrameWriter(&buf)
	require.NoError(t, fw.WriteFrame([]byte("abc")))

	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x03, 'a', 'b', 'c'}, buf.Bytes())
}

func TestReadFramePartialHeader(t *testing.T) {
	fr := NewFrameReader(bytes.NewReader([]byte{0x00, 0x00}))
	_, err := fr.ReadFrame()
	assert.Equal(t, io.EOF, err)
}

func TestReadFrameTruncatedPayload(t *testing.T) {
	fr := NewFrameReader(bytes.NewReader([]byte{0x00, 0x00, 0x00, 0x0a, 'p', 'a', 'r', 't'}))
	_, err := fr.ReadFrame()
	assert.Equal(t, io.EOF, err)
}

func TestReadFrameOverLimit(t *testing.T) {
	fr := NewFrameReader(bytes.NewReader([]byte{0x00, 0x00, 0x01, 0x00}))
	fr.SetLimits(Limits{MaxFrame: 16})

	_, err := fr.ReadFrame()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFrameTooLarge)
}

func TestWriteFrameOverLimit(t *testing.T) {
	fw := NewFrameWriter(&bytes.Buffer{})
	fw.SetLimits(Limits{MaxFrame: 8})

	err := fw.WriteFrame(bytes.Repeat([]byte("y"), 9))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFrameTooLarge)
}

func TestLimitsClamped(t *testing.T) {
	assert.Equal(t, uint32(DefaultMaxFrame), Limits{}.clamped().MaxFrame)
	assert.Equal(t, uint32(MaxFrameHardLimit), Limits{MaxFrame: MaxFrameHardLimit + 1}.clamped().MaxFrame)
	assert.Equal(t, uint32(1024), Limits{MaxFrame: 1024}.clamped().MaxFrame)
}
