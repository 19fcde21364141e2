// Package simulator implements the minimal device stand-in described for
// testing clients without a physical inverter: a TCP server that decodes
// incoming frames, answers READs with a registered or default value for the
// requested object, and acknowledges WRITEs without persisting them.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/rctpower/rctclient"
)

// Simulator answers RCT Power frame requests against a Registry, using each
// descriptor's SimData (or its type default) as the response value.
type Simulator struct {
	Registry *rctclient.Registry
	Logger   *slog.Logger

	mu       sync.RWMutex
	listener net.Listener
}

// New creates a Simulator backed by registry; a nil registry defaults to
// rctclient.DefaultRegistry.
func New(registry *rctclient.Registry) *Simulator {
	if registry == nil {
		registry = rctclient.DefaultRegistry
	}
	return &Simulator{Registry: registry, Logger: slog.Default()}
}

// ListenAndServe listens on address (":0" for a random free port) and serves
// connections until ctx is cancelled.
func (s *Simulator) ListenAndServe(ctx context.Context, address string) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("simulator: listen: %w", err)
	}
	return s.Serve(ctx, listener)
}

// Serve accepts connections from listener until ctx is cancelled.
func (s *Simulator) Serve(ctx context.Context, listener net.Listener) error {
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	defer listener.Close()
	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()
	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		go s.handleConnection(ctx, conn)
	}
}

// Addr returns the address the simulator is listening on.
func (s *Simulator) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listener.Addr()
}

func (s *Simulator) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	decoder := rctclient.NewFrameDecoder()
	buf := make([]byte, 512)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_ = conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
		n, err := conn.Read(buf)
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				continue
			}
			if !errors.Is(err, io.EOF) {
				s.Logger.Error("simulator read error", "err", err)
			}
			return
		}

		remaining := buf[:n]
		for len(remaining) > 0 {
			consumed, ferr := decoder.Consume(remaining)
			remaining = remaining[consumed:]
			if ferr != nil {
				s.Logger.Warn("simulator dropped malformed frame", "err", ferr)
				decoder = rctclient.NewFrameDecoder()
				continue
			}
			if !decoder.Complete() {
				continue
			}

			resp, err := s.respond(decoder.Command(), decoder.ID(), decoder.Address(), decoder.Payload())
			decoder = rctclient.NewFrameDecoder()
			if err != nil {
				s.Logger.Warn("simulator could not build response", "err", err)
				continue
			}
			if _, err := conn.Write(resp); err != nil {
				s.Logger.Error("simulator write error", "err", err)
				return
			}
		}
	}
}

// respond builds the wire response for one decoded request, per §4.5: WRITE
// is acknowledged with an empty RESPONSE and not persisted; READ answers
// with the object's SimData (or its type default) encoded as its response
// data type. Responses are always standard (non-plant) frames; only the
// request side carries a plant address (§4.2 lists no plant RESPONSE
// command), so address is not echoed back on the wire.
func (s *Simulator) respond(command rctclient.Command, id, _ uint32, _ []byte) ([]byte, error) {
	switch command {
	case rctclient.CommandWrite, rctclient.CommandLongWrite, rctclient.CommandPlantWrite, rctclient.CommandPlantLongWrite:
		return rctclient.EncodeFrame(rctclient.CommandResponse, id, 0, nil)
	}

	desc, err := s.Registry.ByID(id)
	if err != nil {
		return nil, err
	}

	respType := desc.EffectiveResponseDataType()
	value := desc.SimData
	if value == nil {
		value = rctclient.DefaultSimValue(respType)
	}

	encoded, err := rctclient.EncodeValue(nil, respType, value)
	if err != nil {
		return nil, fmt.Errorf("simulator: encoding sim_data for %#08x: %w", id, err)
	}

	responseCommand := rctclient.CommandResponse
	if len(encoded) > 255-4 {
		responseCommand = rctclient.CommandLongResponse
	}
	return rctclient.EncodeFrame(responseCommand, id, 0, encoded)
}
