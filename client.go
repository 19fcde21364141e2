package rctclient

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rctpower/rctclient/transport"
)

const (
	defaultWriteTimeout = 1 * time.Second
	defaultReadTimeout  = 2 * time.Second
)

// ErrClientNotConnected is returned by Client.Read and Client.Write when
// Connect has not been called, or after Close.
var ErrClientNotConnected = errors.New("rctclient: client is not connected")

// ClientHooks allows observing the raw bytes a Client sends and receives,
// for logging or tracing. Implementations must not retain the given slices;
// they are reused across calls.
type ClientHooks interface {
	BeforeWrite(toWrite []byte)
	AfterEachRead(received []byte, n int, err error)
	BeforeParse(received []byte)
}

// ClientConfig configures a Client.
type ClientConfig struct {
	// WriteTimeout bounds a single frame write. Defaults to 1s.
	WriteTimeout time.Duration
	// ReadTimeout bounds how long Read or Write waits, in total, for a complete response
	// frame. Defaults to 2s.
	ReadTimeout time.Duration

	// Dialer opens the Transport on Connect. Defaults to transport.TCPDialer{}.
	Dialer transport.Dialer

	// Registry resolves ResponseDataType for decoding; defaults to
	// DefaultRegistry.
	Registry *Registry

	Hooks ClientHooks
}

// Client is a synchronous request/response driver for one RCT Power device
// connection: it encodes a command with EncodeFrame, writes it to a
// Transport, and feeds the response bytes into a FrameDecoder until a frame
// completes, then decodes the payload using the registry's response type.
type Client struct {
	timeNow func() time.Time

	writeTimeout time.Duration
	readTimeout  time.Duration

	dialer   transport.Dialer
	registry *Registry
	hooks    ClientHooks

	mu      sync.Mutex
	address string
	conn    transport.Transport
}

// NewClient creates a Client with conf, filling unset fields with defaults.
func NewClient(conf ClientConfig) *Client {
	c := &Client{
		timeNow:      time.Now,
		writeTimeout: defaultWriteTimeout,
		readTimeout:  defaultReadTimeout,
		dialer:       transport.TCPDialer{},
		registry:     DefaultRegistry,
		hooks:        conf.Hooks,
	}
	if conf.WriteTimeout > 0 {
		c.writeTimeout = conf.WriteTimeout
	}
	if conf.ReadTimeout > 0 {
		c.readTimeout = conf.ReadTimeout
	}
	if conf.Dialer != nil {
		c.dialer = conf.Dialer
	}
	if conf.Registry != nil {
		c.registry = conf.Registry
	}
	return c
}

// Connect opens the underlying Transport to address. ctx bounds only the
// dial itself.
func (c *Client) Connect(ctx context.Context, address string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	conn, err := c.dialer.Dial(ctx, address)
	if err != nil {
		return err
	}
	c.conn = conn
	c.address = address
	return nil
}

// Close closes the underlying Transport.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// ReadResult is the decoded outcome of a Read or Write call: the raw
// payload plus the value decoded from it using the object's response type,
// via DecodeValue, DecodeTimeseries or DecodeEventTable as appropriate.
type ReadResult struct {
	ID      uint32
	Address uint32
	Payload []byte
	Value   interface{}
}

// Read sends a CommandRead for id and waits for the matching response,
// decoding its payload using the registry entry for id.
func (c *Client) Read(ctx context.Context, id uint32) (ReadResult, error) {
	return c.do(ctx, CommandRead, id, 0, nil)
}

// Write sends a CommandWrite for id with payload already encoded by the
// caller (see EncodeValue) and waits for the device's acknowledgement.
func (c *Client) Write(ctx context.Context, id uint32, payload []byte) (ReadResult, error) {
	if len(payload) > 255-int(CommandWrite.frameTypeMarker()) {
		return c.do(ctx, CommandLongWrite, id, 0, payload)
	}
	return c.do(ctx, CommandWrite, id, 0, payload)
}

func (c *Client) do(ctx context.Context, command Command, id uint32, address uint32, payload []byte) (ReadResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return ReadResult{}, ErrClientNotConnected
	}

	req, err := EncodeFrame(command, id, address, payload)
	if err != nil {
		return ReadResult{}, err
	}

	if err := c.conn.SetDeadline(c.timeNow().Add(c.writeTimeout)); err != nil {
		return ReadResult{}, err
	}
	if c.hooks != nil {
		c.hooks.BeforeWrite(req)
	}
	if _, err := c.conn.Write(req); err != nil {
		return ReadResult{}, fmt.Errorf("rctclient: writing frame: %w", err)
	}

	frame, err := c.readFrame(ctx, id)
	if err != nil {
		return ReadResult{}, err
	}

	desc, descErr := c.registry.ByID(id)
	result := ReadResult{ID: frame.ID(), Address: frame.Address(), Payload: frame.Payload()}
	if descErr != nil || len(frame.Payload()) == 0 {
		return result, nil
	}

	switch desc.EffectiveResponseDataType() {
	case DataTypeTimeseries:
		result.Value, err = DecodeTimeseries(frame.Payload())
	case DataTypeEventTable:
		result.Value, err = DecodeEventTable(frame.Payload())
	default:
		result.Value, err = DecodeValue(desc.EffectiveResponseDataType(), frame.Payload())
	}
	return result, err
}

// readFrame accumulates response bytes until a frame decodes to the
// requested id or the read deadline elapses. Frames for other ids (late
// arrivals from a previous, timed-out request) are discarded and the read
// continues, per the id-only correlation rule of §5.
func (c *Client) readFrame(ctx context.Context, wantID uint32) (*FrameDecoder, error) {
	deadline := c.timeNow().Add(c.readTimeout)
	buf := make([]byte, 512)
	decoder := NewFrameDecoder()

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		remaining := deadline.Sub(c.timeNow())
		if remaining <= 0 {
			return nil, fmt.Errorf("rctclient: timed out waiting for response to id %#08x", wantID)
		}
		if err := c.conn.SetDeadline(c.timeNow().Add(shorter(remaining, 200*time.Millisecond))); err != nil {
			return nil, err
		}

		n, err := c.conn.Read(buf)
		if c.hooks != nil {
			c.hooks.AfterEachRead(buf[:n], n, err)
		}
		if err != nil && !errors.Is(err, os.ErrDeadlineExceeded) {
			return nil, fmt.Errorf("rctclient: reading frame: %w", err)
		}

		remainingBytes := buf[:n]
		for len(remainingBytes) > 0 {
			consumed, ferr := decoder.Consume(remainingBytes)
			remainingBytes = remainingBytes[consumed:]
			if ferr != nil {
				decoder = NewFrameDecoder()
				continue
			}
			if decoder.Complete() {
				if c.hooks != nil {
					c.hooks.BeforeParse(decoder.Payload())
				}
				if decoder.ID() == wantID {
					return decoder, nil
				}
				decoder = NewFrameDecoder()
			}
		}
	}
}

func shorter(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
