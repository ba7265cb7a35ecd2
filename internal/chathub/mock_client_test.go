package chathub_test

import (
	"sync"

	"socialchat/backend/internal/chathub"
	"socialchat/backend/internal/models"
)

type MockClient struct {
	connID string

	mu     sync.Mutex
	userID string
	events []models.Event
	closed bool
	full   bool
}

func newMockClient(connID string) *MockClient {
	return &MockClient{connID: connID}
}

func (c *MockClient) GetConnectionID() string { return c.connID }

func (c *MockClient) GetUserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

func (c *MockClient) SetUserID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userID = id
}

func (c *MockClient) Send(ev models.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return chathub.ErrClientClosed
	}
	if c.full {
		return chathub.ErrSendBufferFull
	}
	c.events = append(c.events, ev)
	return nil
}

func (c *MockClient) Run() {
	// Not needed for testing
}

func (c *MockClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *MockClient) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *MockClient) Events() []models.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Event(nil), c.events...)
}

// LastOnlineUsers returns the payload of the most recent getOnlineUsers event.
func (c *MockClient) LastOnlineUsers() ([]string, bool) {
	events := c.Events()
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Event == models.EventOnlineUsers {
			return events[i].Data.([]string), true
		}
	}
	return nil, false
}
