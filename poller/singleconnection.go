package poller

import (
	"context"
	"strings"
	"sync"

	"github.com/rctpower/rctclient"
)

type singleConnectionPerAddress struct {
	mu            sync.Mutex
	clientPool    map[string]*sharedClient
	newClientFunc func(ctx context.Context, address string) (Client, error)
}

// NewSingleConnectionPerAddressClientFunc creates clients that limit themselves to a single
// instance per server address and use a mutex to guard against parallel Client.Read calls.
// Use this for serial devices, which can not service more than one in-flight request at a time.
func NewSingleConnectionPerAddressClientFunc(newClientFunc func(ctx context.Context, address string) (Client, error)) func(ctx context.Context, address string) (Client, error) {
	pool := &singleConnectionPerAddress{
		newClientFunc: newClientFunc,
		clientPool:    map[string]*sharedClient{},
	}
	return pool.NewClientFunc
}

func (scp *singleConnectionPerAddress) NewClientFunc(ctx context.Context, address string) (Client, error) {
	scp.mu.Lock()
	defer scp.mu.Unlock()

	// address could have params, e.g. "/dev/ttyUSB0?baud_rate=9600"
	if i := strings.IndexByte(address, '?'); i != -1 {
		address = address[:i]
	}
	client, ok := scp.clientPool[address]
	if ok {
		return client, nil
	}

	orgClient, err := scp.newClientFunc(ctx, address)
	if err != nil {
		return nil, err
	}

	client = &sharedClient{
		client:  orgClient,
		address: address,
		onClose: scp.onClose,
	}
	scp.clientPool[address] = client
	return client, nil
}

func (scp *singleConnectionPerAddress) onClose(address string) {
	scp.mu.Lock()
	defer scp.mu.Unlock()

	delete(scp.clientPool, address)
}

type sharedClient struct {
	mu      sync.Mutex
	client  Client
	address string
	onClose func(address string)
}

func (c *sharedClient) Read(ctx context.Context, id uint32) (rctclient.ReadResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		return rctclient.ReadResult{}, rctclient.ErrClientNotConnected
	}

	return c.client.Read(ctx, id)
}

func (c *sharedClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		return nil
	}

	err := c.client.Close()
	c.client = nil

	c.onClose(c.address)

	return err
}
