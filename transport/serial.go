package transport

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/tarm/serial"
)

// SerialDialer opens a connection to a device reachable through a local
// RS-485-to-USB bridge rather than its built-in network interface. The RCT
// Power frame format (§6.3) does not care which transport carries it, so
// this is a drop-in alternative to TCPDialer wherever a Dialer is accepted.
type SerialDialer struct {
	// BaudRate defaults to 115200 if zero.
	BaudRate int
}

// Dial opens addr, a device path such as "/dev/ttyUSB0", optionally suffixed
// with "?baud_rate=N" to override SerialDialer.BaudRate for this call.
func (d SerialDialer) Dial(ctx context.Context, addr string) (Transport, error) {
	name, baud, err := parseSerialAddress(addr, d.BaudRate)
	if err != nil {
		return nil, err
	}

	port, err := serial.OpenPort(&serial.Config{
		Name:        name,
		Baud:        baud,
		ReadTimeout: 500 * time.Millisecond,
	})
	if err != nil {
		return nil, err
	}
	return serialConn{port}, nil
}

func parseSerialAddress(addr string, defaultBaud int) (name string, baud int, err error) {
	baud = defaultBaud
	if baud <= 0 {
		baud = 115200
	}

	u, err := url.Parse(addr)
	if err != nil || u.RawQuery == "" {
		return addr, baud, nil
	}
	name = u.Path
	if name == "" {
		name = addr
	}
	if raw := u.Query().Get("baud_rate"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return "", 0, fmt.Errorf("transport: invalid baud_rate %q: %w", raw, err)
		}
		baud = n
	}
	return name, baud, nil
}

// serialConn adapts *serial.Port to Transport. The tarm/serial driver has no
// deadline concept beyond the config-time ReadTimeout, so SetDeadline is a
// no-op, as documented on Transport.SetDeadline.
type serialConn struct {
	port *serial.Port
}

func (s serialConn) Read(p []byte) (int, error)  { return s.port.Read(p) }
func (s serialConn) Write(p []byte) (int, error) { return s.port.Write(p) }
func (s serialConn) Close() error                { return s.port.Close() }
func (s serialConn) SetDeadline(time.Time) error { return nil }
