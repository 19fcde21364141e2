package simulator

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rctpower/rctclient"
)

func TestSimulator_AnswersReadWithRegisteredType(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sim := New(nil)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go sim.Serve(ctx, ln)

	conn, err := net.DialTimeout("tcp", ln.Addr().String(), time.Second)
	require.NoError(t, err)
	defer conn.Close()

	req, err := rctclient.EncodeFrame(rctclient.CommandRead, 0x959930BF, 0, nil) // battery.soc, FLOAT
	require.NoError(t, err)
	_, err = conn.Write(req)
	require.NoError(t, err)

	decoder := rctclient.NewFrameDecoder()
	buf := make([]byte, 64)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for !decoder.Complete() {
		n, err := conn.Read(buf)
		require.NoError(t, err)
		_, err = decoder.Consume(buf[:n])
		require.NoError(t, err)
	}

	require.Equal(t, rctclient.CommandResponse, decoder.Command())
	require.Equal(t, uint32(0x959930BF), decoder.ID())
	value, err := rctclient.DecodeValue(rctclient.DataTypeFloat, decoder.Payload())
	require.NoError(t, err)
	require.Equal(t, float32(0), value) // default sim value for FLOAT
}

func TestSimulator_AcknowledgesWriteWithEmptyResponse(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sim := New(nil)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go sim.Serve(ctx, ln)

	conn, err := net.DialTimeout("tcp", ln.Addr().String(), time.Second)
	require.NoError(t, err)
	defer conn.Close()

	payload, err := rctclient.EncodeValue(nil, rctclient.DataTypeFloat, float32(42))
	require.NoError(t, err)
	req, err := rctclient.EncodeFrame(rctclient.CommandWrite, 0x959930BF, 0, payload)
	require.NoError(t, err)
	_, err = conn.Write(req)
	require.NoError(t, err)

	decoder := rctclient.NewFrameDecoder()
	buf := make([]byte, 64)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for !decoder.Complete() {
		n, err := conn.Read(buf)
		require.NoError(t, err)
		_, err = decoder.Consume(buf[:n])
		require.NoError(t, err)
	}

	require.Equal(t, rctclient.CommandResponse, decoder.Command())
	require.Empty(t, decoder.Payload())
}
