// Package message routes chat messages: it persists them and pushes them to
// the live connections of their recipients.
package message

import (
	"context"

	"socialchat/backend/internal/chaterr"
	"socialchat/backend/internal/config"
	"socialchat/backend/internal/metrics"
	"socialchat/backend/internal/models"
	"socialchat/backend/internal/storage"

	"github.com/rs/zerolog/log"
)

// Notifier is the part of the presence registry the router needs.
type Notifier interface {
	Resolve(userID string) (connectionID string, ok bool)
	Push(connectionID string, event models.Event) error
}

type Attachment struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

type SendRequest struct {
	ChatRoomID  string       `json:"chatRoomId"`
	SenderID    string       `json:"senderId"`
	ReceiverID  string       `json:"receiverId"`
	Content     string       `json:"content"`
	Type        string       `json:"type"`
	Attachments []Attachment `json:"attachments"`
}

// Receipt is the result of Send. Delivered reports whether at least one live
// push was enqueued; the message is stored either way.
type Receipt struct {
	Message   *models.ChatMessage `json:"message"`
	Delivered bool                `json:"delivered"`
}

type Service struct {
	store    storage.Storage
	notifier Notifier
}

func NewService(store storage.Storage, notifier Notifier) *Service {
	return &Service{store: store, notifier: notifier}
}

// Send stores the message and then pushes it to the recipients that are online.
// Nothing is pushed unless the message was stored.
func (s *Service) Send(ctx context.Context, req SendRequest) (*Receipt, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	room, err := s.store.GetRoomByID(ctx, req.ChatRoomID)
	if err != nil {
		return nil, err
	}
	if !room.HasParticipant(req.SenderID) {
		return nil, chaterr.ErrNotParticipant
	}

	receiver := req.ReceiverID
	if receiver != "" && (receiver == req.SenderID || !room.HasParticipant(receiver)) {
		return nil, chaterr.Validation("receiver %s is not a participant of chat room %s", receiver, room.ID)
	}
	if receiver == "" && room.Type == models.RoomTypeDirect {
		receiver, _ = room.Counterpart(req.SenderID)
	}

	msg := &models.ChatMessage{
		ChatRoomID: room.ID,
		SenderID:   req.SenderID,
		Content:    req.Content,
		Type:       req.Type,
	}
	if msg.Type == "" {
		msg.Type = models.MessageTypeUser
	}
	if receiver != "" {
		msg.ReceiverID = &receiver
	}
	for _, a := range req.Attachments {
		msg.Attachments = append(msg.Attachments, models.MessageAttachment{Type: a.Type, URL: a.URL})
	}

	if err := s.store.SaveMessage(ctx, msg); err != nil {
		return nil, err
	}
	metrics.MessagesTotal.WithLabelValues(metrics.MessageTypeLabel(msg.Type)).Inc()

	var targets []string
	if receiver != "" {
		targets = []string{receiver}
	} else {
		for _, id := range room.ParticipantIDs() {
			if id != req.SenderID {
				targets = append(targets, id)
			}
		}
	}

	delivered := false
	ev := models.NewMessageEvent(msg)
	for _, userID := range targets {
		if s.push(userID, msg, ev) {
			delivered = true
		}
	}

	return &Receipt{Message: msg, Delivered: delivered}, nil
}

func (s *Service) push(userID string, msg *models.ChatMessage, ev models.Event) bool {
	connID, ok := s.notifier.Resolve(userID)
	if !ok {
		metrics.LivePushTotal.WithLabelValues(metrics.PushOffline).Inc()
		log.Debug().Str("user_id", userID).Str("message_id", msg.ID).Msg("recipient offline, message stored only")
		return false
	}
	if err := s.notifier.Push(connID, ev); err != nil {
		metrics.LivePushTotal.WithLabelValues(metrics.PushFailed).Inc()
		log.Warn().Err(err).Str("user_id", userID).Str("connection_id", connID).Str("message_id", msg.ID).Msg("live push failed")
		return false
	}
	metrics.LivePushTotal.WithLabelValues(metrics.PushDelivered).Inc()
	return true
}

func validate(req SendRequest) error {
	if req.ChatRoomID == "" || req.SenderID == "" {
		return chaterr.Validation("chatRoomId and senderId are required")
	}
	if req.Type == models.MessageTypeSystem {
		return chaterr.Validation("system messages cannot be sent by users")
	}
	if req.Content == "" && len(req.Attachments) == 0 {
		return chaterr.Validation("message content is required")
	}
	for _, a := range req.Attachments {
		if a.Type == "" || a.URL == "" {
			return chaterr.Validation("attachments need a type and a url")
		}
	}
	return nil
}

// GetMessages returns every message of a room, oldest first.
func (s *Service) GetMessages(ctx context.Context, chatRoomID string) ([]models.ChatMessage, error) {
	if chatRoomID == "" {
		return nil, chaterr.Validation("chatRoomId is required")
	}
	return s.store.GetChatHistory(ctx, chatRoomID)
}

// GetMessagesPage returns up to limit messages older than cursor, newest first.
// limit is clamped to [1, config.MaxHistoryPage]; 0 selects the default page size.
func (s *Service) GetMessagesPage(ctx context.Context, chatRoomID string, limit int, cursor string) ([]models.ChatMessage, error) {
	if chatRoomID == "" {
		return nil, chaterr.Validation("chatRoomId is required")
	}
	switch {
	case limit <= 0:
		limit = config.DefaultHistoryPage
	case limit > config.MaxHistoryPage:
		limit = config.MaxHistoryPage
	}
	return s.store.GetChatHistoryPage(ctx, chatRoomID, limit, cursor)
}
