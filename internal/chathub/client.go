package chathub

import (
	"errors"

	"socialchat/backend/internal/models"
)

var (
	ErrClientClosed      = errors.New("connection is closed")
	ErrSendBufferFull    = errors.New("connection send buffer is full")
	ErrConnectionUnknown = errors.New("connection is not attached")
)

// Client is one live connection as the registry sees it.
// The transport (WebSocket today) hides behind it.
type Client interface {
	// GetConnectionID returns the id assigned to the connection at upgrade time.
	GetConnectionID() string
	// GetUserID returns the identity registered for this connection, or "" while anonymous.
	GetUserID() string
	SetUserID(string)

	// Send enqueues an event without blocking. It fails once the client is
	// closed or when the outbound buffer is full.
	Send(models.Event) error

	Run()
	Close()
}
