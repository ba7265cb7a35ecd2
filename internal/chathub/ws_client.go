package chathub

import (
	"encoding/json"
	"sync"
	"time"

	"socialchat/backend/internal/config"
	"socialchat/backend/internal/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// InboundHandler receives what a connection reads off the wire.
type InboundHandler interface {
	HandleFrame(c Client, frame []byte)
	HandleClose(c Client)
}

// WebSocketClient implements Client over a gorilla connection.
type WebSocketClient struct {
	ConnectionID string
	Conn         *websocket.Conn

	handler InboundHandler
	limiter *rate.Limiter

	mu     sync.Mutex
	userID string
	send   chan models.Event
	closed bool
}

// NewWebSocketClient wraps conn. limiter may be nil to disable inbound throttling.
func NewWebSocketClient(conn *websocket.Conn, userID string, h InboundHandler, limiter *rate.Limiter) *WebSocketClient {
	return &WebSocketClient{
		ConnectionID: uuid.NewString(),
		Conn:         conn,
		handler:      h,
		limiter:      limiter,
		userID:       userID,
		send:         make(chan models.Event, config.SendBufferSize),
	}
}

func (c *WebSocketClient) GetConnectionID() string { return c.ConnectionID }

func (c *WebSocketClient) GetUserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

func (c *WebSocketClient) SetUserID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userID = id
}

func (c *WebSocketClient) Send(ev models.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClientClosed
	}
	select {
	case c.send <- ev:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Run starts the read and write pumps.
func (c *WebSocketClient) Run() {
	go c.writePump()
	go c.readPump()
}

// Close stops the write pump, which sends a close frame and drops the socket.
func (c *WebSocketClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (c *WebSocketClient) readPump() {
	defer func() {
		c.handler.HandleClose(c)
		c.Close()
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(config.PongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(config.PongWait))
		return nil
	})

	for {
		_, frame, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("connection_id", c.ConnectionID).Msg("websocket read")
			}
			return
		}

		if c.limiter != nil && !c.limiter.Allow() {
			_ = c.Send(models.Event{Event: models.EventError, Data: models.ErrorPayload{Error: "rate limit exceeded"}})
			continue
		}
		c.handler.HandleFrame(c, frame)
	}
}

func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(config.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.send:
			c.Conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			data, err := json.Marshal(ev)
			if err != nil {
				log.Error().Err(err).Str("connection_id", c.ConnectionID).Str("event", ev.Event).Msg("encode event")
				continue
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
