package rctclient

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rctpower/rctclient/transport"
)

type pipeDialer struct {
	conn transport.Transport
}

func (d pipeDialer) Dial(ctx context.Context, address string) (transport.Transport, error) {
	return d.conn, nil
}

func TestClient_ReadRoundTrip(t *testing.T) {
	clientSide, deviceSide := net.Pipe()
	defer deviceSide.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		d := NewFrameDecoder()
		buf := make([]byte, 64)
		for !d.Complete() {
			n, err := deviceSide.Read(buf)
			if err != nil {
				return
			}
			if _, err := d.Consume(buf[:n]); err != nil {
				return
			}
		}
		resp, err := EncodeFrame(CommandResponse, d.ID(), 0, []byte{0x3F, 0x80, 0x00, 0x00}) // 1.0 as float32
		if err != nil {
			return
		}
		_, _ = deviceSide.Write(resp)
	}()

	c := NewClient(ClientConfig{Dialer: pipeDialer{conn: clientSide}, ReadTimeout: time.Second})
	require.NoError(t, c.Connect(context.Background(), "ignored"))
	defer c.Close()

	result, err := c.Read(context.Background(), 0x959930BF) // battery.soc, FLOAT
	require.NoError(t, err)
	require.Equal(t, float32(1.0), result.Value)

	<-done
}

func TestClient_ReadWithoutConnectFails(t *testing.T) {
	c := NewClient(ClientConfig{})
	_, err := c.Read(context.Background(), 1)
	require.ErrorIs(t, err, ErrClientNotConnected)
}

// TestClient_ReadHandlesFragmentedResponse feeds the response frame to the
// client split across several Read calls with delays in between, to check
// that the FrameDecoder's partially-consumed state survives across reads
// instead of being discarded between conn.Read calls.
func TestClient_ReadHandlesFragmentedResponse(t *testing.T) {
	resp, err := EncodeFrame(CommandResponse, 0x959930BF, 0, []byte{0x3F, 0x80, 0x00, 0x00}) // 1.0 as float32
	require.NoError(t, err)

	script := make([]interface{}, 0, len(resp)*2)
	for _, b := range resp {
		script = append(script, 2*time.Millisecond, string([]byte{b}))
	}

	conn := &slowTestConn{script: script, closec: make(chan bool, 1)}
	c := NewClient(ClientConfig{Dialer: pipeDialer{conn: conn}, ReadTimeout: time.Second})
	require.NoError(t, c.Connect(context.Background(), "ignored"))
	defer c.Close()

	result, err := c.Read(context.Background(), 0x959930BF)
	require.NoError(t, err)
	require.Equal(t, float32(1.0), result.Value)
}
