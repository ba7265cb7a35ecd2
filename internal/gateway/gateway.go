// Package gateway turns connection traffic into registry and router calls.
package gateway

import (
	"context"
	"errors"
	"sync"

	"socialchat/backend/internal/chaterr"
	"socialchat/backend/internal/chathub"
	"socialchat/backend/internal/message"
	"socialchat/backend/internal/models"

	"github.com/rs/zerolog/log"
)

// Router is the part of the message router the gateway calls.
type Router interface {
	Send(ctx context.Context, req message.SendRequest) (*message.Receipt, error)
}

// Gateway implements chathub.InboundHandler.
type Gateway struct {
	Hub    *chathub.ManagerService
	Router Router
	Ctx    context.Context

	trustedJoin bool

	mu     sync.Mutex
	pinned map[string]string // connection id -> user id proven at handshake
}

type Option func(*Gateway)

// WithTrustedJoin lets a connection without a verified identity claim one
// through joinChat. Connections verified at handshake stay pinned regardless.
func WithTrustedJoin(on bool) Option {
	return func(g *Gateway) { g.trustedJoin = on }
}

func New(hub *chathub.ManagerService, router Router, opts ...Option) *Gateway {
	g := &Gateway{Hub: hub, Router: router, Ctx: context.Background(), pinned: make(map[string]string)}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Route dispatches one event raised by connection c.
func (g *Gateway) Route(ctx context.Context, c chathub.Client, ev Event) error {
	connID := c.GetConnectionID()

	switch e := ev.(type) {
	case Connect:
		g.Hub.Attach(c)
		if e.Verified && e.UserID != "" {
			g.pin(connID, e.UserID)
		}
		if e.UserID == "" {
			// anonymous: no pairing, but it still gets the current online set
			g.Hub.BroadcastOnlineUsers()
		} else {
			g.Hub.Register(e.UserID, connID)
		}
		log.Info().Str("connection_id", connID).Str("user_id", e.UserID).Msg("client connected")
		return nil

	case Disconnect:
		g.unpin(connID)
		g.Hub.Unregister(connID)
		log.Info().Str("connection_id", connID).Str("user_id", c.GetUserID()).Msg("client disconnected")
		return nil

	case JoinChat:
		if e.UserID == "" {
			return chaterr.Validation("userId is required")
		}
		if err := g.canJoin(c, e.UserID); err != nil {
			log.Warn().Str("connection_id", connID).Str("user_id", c.GetUserID()).
				Str("requested_user_id", e.UserID).Msg("join rejected")
			return err
		}
		g.Hub.Register(e.UserID, connID)
		return nil

	case SendMessage:
		return g.sendMessage(ctx, c, e.SendRequest)

	default:
		return ErrUnknownEvent
	}
}

// canJoin decides whether c may bind userID. A pinned connection may only
// re-join as its own user; an unpinned one needs trusted joins.
func (g *Gateway) canJoin(c chathub.Client, userID string) error {
	g.mu.Lock()
	owner, pinned := g.pinned[c.GetConnectionID()]
	g.mu.Unlock()

	switch {
	case pinned && owner == userID:
		return nil
	case pinned:
		return chaterr.Validation("connection is bound to another user")
	case g.trustedJoin:
		return nil
	default:
		return chaterr.Validation("joinChat requires a verified identity")
	}
}

func (g *Gateway) pin(connID, userID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pinned[connID] = userID
}

func (g *Gateway) unpin(connID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.pinned, connID)
}

func (g *Gateway) sendMessage(ctx context.Context, c chathub.Client, req message.SendRequest) error {
	if bound := c.GetUserID(); bound != "" {
		if req.SenderID == "" {
			req.SenderID = bound
		} else if req.SenderID != bound {
			return chaterr.Validation("senderId does not match the connection's user")
		}
	}
	if req.ChatRoomID == "" || req.SenderID == "" || req.Content == "" {
		return chaterr.Validation("chatRoomId, senderId and content are required")
	}

	receipt, err := g.Router.Send(ctx, req)
	if err != nil {
		return err
	}

	ack := models.Event{Event: models.EventMessageAck, Data: models.MessageAck{
		MessageID:  receipt.Message.ID,
		ChatRoomID: receipt.Message.ChatRoomID,
		Delivered:  receipt.Delivered,
	}}
	if err := c.Send(ack); err != nil {
		log.Warn().Err(err).Str("connection_id", c.GetConnectionID()).Msg("ack dropped")
	}
	return nil
}

// HandleFrame decodes and routes one client frame. Failures go back to the
// sender as an error event; the connection stays open.
func (g *Gateway) HandleFrame(c chathub.Client, frame []byte) {
	ev, err := DecodeEvent(frame)
	if err != nil {
		g.reply(c, "", err)
		return
	}
	if err := g.Route(g.Ctx, c, ev); err != nil {
		g.reply(c, ev.Name(), err)
	}
}

// HandleClose routes a Disconnect for c.
func (g *Gateway) HandleClose(c chathub.Client) {
	_ = g.Route(g.Ctx, c, Disconnect{})
}

func (g *Gateway) reply(c chathub.Client, event string, err error) {
	msg := err.Error()
	if errors.Is(err, chaterr.ErrPersistence) {
		log.Error().Err(err).Str("connection_id", c.GetConnectionID()).Str("event", event).Msg("event failed")
		msg = "internal error"
	}
	payload := models.ErrorPayload{Event: event, Error: msg}
	if sendErr := c.Send(models.Event{Event: models.EventError, Data: payload}); sendErr != nil {
		log.Warn().Err(sendErr).Str("connection_id", c.GetConnectionID()).Msg("error reply dropped")
	}
}
