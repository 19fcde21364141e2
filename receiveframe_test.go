package rctclient

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameDecoder_ResponseExample(t *testing.T) {
	// From the worked example in the spec, with a leading stray byte the
	// decoder must discard while in SYNC.
	input := []byte{0x00, 0x2B, 0x05, 0x05, 0x29, 0xBD, 0xA7, 0x5F, 0xFF, 0xB8, 0xD2}

	d := NewFrameDecoder()
	consumed, err := d.Consume(input)
	require.NoError(t, err)
	assert.Equal(t, len(input), consumed)
	require.True(t, d.Complete())
	assert.Equal(t, CommandResponse, d.Command())
	assert.Equal(t, uint32(0x29BDA75F), d.ID())
	assert.Equal(t, uint32(0), d.Address())
	assert.Equal(t, []byte{0xFF}, d.Payload())
}

func TestFrameDecoder_SplitAcrossMultipleConsumeCalls(t *testing.T) {
	input := []byte{0x2B, 0x05, 0x05, 0x29, 0xBD, 0xA7, 0x5F, 0xFF, 0xB8, 0xD2}

	d := NewFrameDecoder()
	var total int
	for i := 0; i < len(input); i++ {
		consumed, err := d.Consume(input[i : i+1])
		total += consumed
		require.NoError(t, err)
		if d.Complete() {
			break
		}
	}
	require.True(t, d.Complete())
	assert.Equal(t, uint32(0x29BDA75F), d.ID())
	assert.Equal(t, []byte{0xFF}, d.Payload())
}

func TestFrameDecoder_EscapedBytesInPayload(t *testing.T) {
	encoded, err := EncodeFrame(CommandResponse, 1, 0, []byte{0x2B, 0x2D, 0x00, 0xFF})
	require.NoError(t, err)

	d := NewFrameDecoder()
	consumed, err := d.Consume(encoded)
	require.NoError(t, err)
	assert.Equal(t, len(encoded), consumed)
	require.True(t, d.Complete())
	assert.Equal(t, []byte{0x2B, 0x2D, 0x00, 0xFF}, d.Payload())
}

func TestFrameDecoder_CRCMismatch(t *testing.T) {
	input := []byte{0x2B, 0x05, 0x05, 0x29, 0xBD, 0xA7, 0x5F, 0xFF, 0x00, 0x00}

	d := NewFrameDecoder()
	_, err := d.Consume(input)
	require.Error(t, err)

	var mismatch *FrameCRCMismatch
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, uint16(0x0000), mismatch.ReceivedCRC)
	assert.Equal(t, uint16(0xB8D2), mismatch.CalculatedCRC)
}

func TestFrameDecoder_InvalidCommand(t *testing.T) {
	input := []byte{0x2B, 0xEE}

	d := NewFrameDecoder()
	_, err := d.Consume(input)
	require.Error(t, err)

	var invalid *InvalidCommand
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, byte(0xEE), invalid.Command)
	assert.False(t, invalid.IsExtension)
}

func TestFrameDecoder_ExtensionCommandIsDistinctSubCase(t *testing.T) {
	input := []byte{0x2B, byte(CommandExtension)}

	d := NewFrameDecoder()
	_, err := d.Consume(input)
	require.Error(t, err)

	var invalid *InvalidCommand
	require.True(t, errors.As(err, &invalid))
	assert.True(t, invalid.IsExtension)
}

func TestFrameDecoder_SyncSkipsGarbageBeforeStartToken(t *testing.T) {
	input := append([]byte{0x41, 0x54, 0x2B}, []byte{0x05, 0x05, 0x29, 0xBD, 0xA7, 0x5F, 0xFF, 0xB8, 0xD2}...)

	d := NewFrameDecoder()
	_, err := d.Consume(input)
	require.NoError(t, err)
	require.True(t, d.Complete())
	assert.Equal(t, uint32(0x29BDA75F), d.ID())
}
