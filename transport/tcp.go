package transport

import (
	"context"
	"net"
	"time"
)

// DefaultPort is the TCP port RCT Power devices listen on (§6.2).
const DefaultPort = "8899"

const defaultConnectTimeout = 5 * time.Second

// TCPDialer dials a device's Ethernet/Wi-Fi control port.
type TCPDialer struct {
	// ConnectTimeout bounds how long Dial waits for the TCP handshake.
	// Defaults to 5s.
	ConnectTimeout time.Duration
}

// Dial opens a TCP connection to address, appending DefaultPort if address
// carries no port of its own.
func (d TCPDialer) Dial(ctx context.Context, address string) (Transport, error) {
	timeout := d.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	dialer := &net.Dialer{
		Timeout:   timeout,
		KeepAlive: 15 * time.Second,
	}
	conn, err := dialer.DialContext(ctx, "tcp", withDefaultPort(address))
	if err != nil {
		return nil, err
	}
	return tcpConn{conn}, nil
}

func withDefaultPort(address string) string {
	if _, _, err := net.SplitHostPort(address); err == nil {
		return address
	}
	return net.JoinHostPort(address, DefaultPort)
}

// tcpConn adapts net.Conn to Transport's single combined SetDeadline method.
type tcpConn struct {
	net.Conn
}
