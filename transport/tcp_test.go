package transport

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithDefaultPort(t *testing.T) {
	assert.Equal(t, "192.168.1.1:8899", withDefaultPort("192.168.1.1"))
	assert.Equal(t, "192.168.1.1:502", withDefaultPort("192.168.1.1:502"))
	assert.Equal(t, "[::1]:8899", withDefaultPort("::1"))
}

func TestTCPDialer_Dial(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			accepted <- conn
		}
	}()

	d := TCPDialer{ConnectTimeout: time.Second}
	tr, err := d.Dial(context.Background(), ln.Addr().String())
	require.NoError(t, err)
	defer tr.Close()

	select {
	case conn := <-accepted:
		defer conn.Close()
	case <-time.After(time.Second):
		t.Fatal("server never accepted connection")
	}

	require.NoError(t, tr.SetDeadline(time.Now().Add(time.Second)))
}
