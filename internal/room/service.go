// Package room is the room directory: it creates chat rooms, manages group
// membership and lists the rooms a user belongs to.
package room

import (
	"context"
	"strings"

	"socialchat/backend/internal/chaterr"
	"socialchat/backend/internal/localization"
	"socialchat/backend/internal/metrics"
	"socialchat/backend/internal/models"
	"socialchat/backend/internal/storage"

	"github.com/rs/zerolog/log"
)

type CreateDirectChatRequest struct {
	SenderID   string          `json:"senderId"`
	ReceiverID string          `json:"receiverId"`
	Name       string          `json:"name"`
	Type       models.RoomType `json:"type"`
}

type CreateGroupChatRequest struct {
	CreatorID      string   `json:"creatorId"`
	Name           string   `json:"name"`
	ParticipantIDs []string `json:"participantIds"`
}

type Service struct {
	store       storage.Storage
	loc         *localization.Localizer
	lang        string
	reuseDirect bool
}

type Option func(*Service)

// WithDirectRoomReuse makes CreateDirectChat return the pair's existing
// DIRECT room instead of creating another one.
func WithDirectRoomReuse(reuse bool) Option {
	return func(s *Service) { s.reuseDirect = reuse }
}

// WithLocalizer sets the translations and language used for system messages.
func WithLocalizer(l *localization.Localizer, lang string) Option {
	return func(s *Service) {
		s.loc = l
		s.lang = lang
	}
}

func NewService(store storage.Storage, opts ...Option) *Service {
	s := &Service{store: store, lang: "en"}
	for _, opt := range opts {
		opt(s)
	}
	if s.loc == nil {
		s.loc = localization.Default()
	}
	return s
}

// CreateDirectChat creates a room holding exactly the sender and the receiver.
func (s *Service) CreateDirectChat(ctx context.Context, req CreateDirectChatRequest) (*models.ChatRoom, error) {
	if !req.Type.Valid() {
		return nil, chaterr.ErrInvalidRoomType
	}
	if req.SenderID == "" || req.ReceiverID == "" {
		return nil, chaterr.Validation("senderId and receiverId are required")
	}
	if req.SenderID == req.ReceiverID {
		return nil, chaterr.Validation("cannot create a chat with yourself")
	}

	name := strings.TrimSpace(req.Name)
	switch req.Type {
	case models.RoomTypeDirect:
		name = models.DirectRoomName(req.SenderID, req.ReceiverID)
		if s.reuseDirect {
			existing, err := s.store.FindDirectRoom(ctx, req.SenderID, req.ReceiverID)
			if err != nil {
				return nil, err
			}
			if existing != nil {
				return existing, nil
			}
		}
	case models.RoomTypeGroup:
		if name == "" {
			return nil, chaterr.Validation("group chat name is required")
		}
	}

	room := &models.ChatRoom{
		Type:      req.Type,
		Name:      name,
		CreatorID: req.SenderID,
		Participants: []models.ChatParticipant{
			{UserID: req.SenderID},
			{UserID: req.ReceiverID},
		},
	}
	if err := s.store.CreateRoom(ctx, room); err != nil {
		return nil, err
	}

	log.Info().Str("chat_room_id", room.ID).Str("type", string(room.Type)).Str("creator_id", room.CreatorID).Msg("chat room created")
	return room, nil
}

// CreateGroupChat creates a GROUP room for the creator and the given members,
// opened by a system message.
func (s *Service) CreateGroupChat(ctx context.Context, req CreateGroupChatRequest) (*models.ChatRoom, error) {
	if req.CreatorID == "" {
		return nil, chaterr.Validation("creatorId is required")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, chaterr.Validation("group chat name is required")
	}

	members := []string{req.CreatorID}
	seen := map[string]bool{req.CreatorID: true}
	for _, id := range req.ParticipantIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		members = append(members, id)
	}
	if len(members) < 2 {
		return nil, chaterr.Validation("a group chat needs at least one other participant")
	}

	room := &models.ChatRoom{
		Type:      models.RoomTypeGroup,
		Name:      name,
		CreatorID: req.CreatorID,
		Messages: []models.ChatMessage{{
			SenderID: req.CreatorID,
			Content:  s.loc.GetString(s.lang, localization.KeyChatCreated),
			Type:     models.MessageTypeSystem,
		}},
	}
	for _, id := range members {
		room.Participants = append(room.Participants, models.ChatParticipant{UserID: id})
	}
	if err := s.store.CreateRoom(ctx, room); err != nil {
		return nil, err
	}
	metrics.MessagesTotal.WithLabelValues(models.MessageTypeSystem).Inc()

	log.Info().Str("chat_room_id", room.ID).Int("participants", len(members)).Msg("group chat created")
	return room, nil
}

// GetRoom returns the room with its participants.
func (s *Service) GetRoom(ctx context.Context, roomID string) (*models.ChatRoom, error) {
	if roomID == "" {
		return nil, chaterr.Validation("chatRoomId is required")
	}
	return s.store.GetRoomByID(ctx, roomID)
}

// ListRoomsForUser returns every room containing userID. Order is unspecified.
func (s *Service) ListRoomsForUser(ctx context.Context, userID string) ([]models.ChatRoom, error) {
	if userID == "" {
		return nil, chaterr.Validation("userId is required")
	}
	return s.store.ListRoomsForUser(ctx, userID)
}

// AddParticipant adds userID to a group room and records a system message.
func (s *Service) AddParticipant(ctx context.Context, roomID, userID string) (*models.ChatMessage, error) {
	room, err := s.groupRoom(ctx, roomID, userID)
	if err != nil {
		return nil, err
	}
	if room.HasParticipant(userID) {
		return nil, chaterr.Validation("user %s is already a participant", userID)
	}
	msg := newSystemMessage(roomID, userID, s.loc.Format(s.lang, localization.KeyUserJoined, userID))
	if err := s.store.AddParticipantWithMessage(ctx, roomID, userID, msg); err != nil {
		return nil, err
	}
	metrics.MessagesTotal.WithLabelValues(models.MessageTypeSystem).Inc()
	return msg, nil
}

// LeaveChat removes userID from a group room and records a system message.
func (s *Service) LeaveChat(ctx context.Context, roomID, userID string) (*models.ChatMessage, error) {
	room, err := s.groupRoom(ctx, roomID, userID)
	if err != nil {
		return nil, err
	}
	if !room.HasParticipant(userID) {
		return nil, chaterr.NotFound("user %s is not a participant of chat room %s", userID, roomID)
	}
	msg := newSystemMessage(roomID, userID, s.loc.Format(s.lang, localization.KeyUserLeft, userID))
	if err := s.store.RemoveParticipantWithMessage(ctx, roomID, userID, msg); err != nil {
		return nil, err
	}
	metrics.MessagesTotal.WithLabelValues(models.MessageTypeSystem).Inc()
	return msg, nil
}

func (s *Service) groupRoom(ctx context.Context, roomID, userID string) (*models.ChatRoom, error) {
	if roomID == "" || userID == "" {
		return nil, chaterr.Validation("chatRoomId and userId are required")
	}
	room, err := s.store.GetRoomByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.Type != models.RoomTypeGroup {
		return nil, chaterr.Validation("membership of %s chats cannot change", strings.ToLower(string(room.Type)))
	}
	return room, nil
}

func newSystemMessage(roomID, senderID, content string) *models.ChatMessage {
	return &models.ChatMessage{
		ChatRoomID: roomID,
		SenderID:   senderID,
		Content:    content,
		Type:       models.MessageTypeSystem,
	}
}
