package chathub_test

import (
	"sync"
	"sync/atomic"

	"strangerchat/backend/internal/models"
)

type MockClient struct {
	id     string
	send   chan models.OutboundEvent
	pings  atomic.Int32
	closed chan struct{}
	once   sync.Once
}

func newMockClient(id string) *MockClient {
	return newMockClientWithBuffer(id, 16)
}

func newMockClientWithBuffer(id string, n int) *MockClient {
	return &MockClient{
		id:     id,
		send:   make(chan models.OutboundEvent, n),
		closed: make(chan struct{}),
	}
}

func (c *MockClient) GetID() string {
	return c.id
}

func (c *MockClient) GetSendChannel() chan<- models.OutboundEvent {
	return c.send
}

func (c *MockClient) Ping() {
	c.pings.Add(1)
}

func (c *MockClient) Run() {
	// Not needed for testing
}

func (c *MockClient) Close() {
	c.once.Do(func() { close(c.closed) })
}

func (c *MockClient) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}
