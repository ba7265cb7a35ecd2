package storage

import (
	"context"
	"errors"

	"socialchat/backend/internal/chaterr"
	"socialchat/backend/internal/models"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Storage is the durable record of chat rooms and messages.
// It holds no business rules; callers validate before writing.
type Storage interface {
	CreateRoom(ctx context.Context, room *models.ChatRoom) error
	GetRoomByID(ctx context.Context, roomID string) (*models.ChatRoom, error)
	FindDirectRoom(ctx context.Context, userA, userB string) (*models.ChatRoom, error)
	ListRoomsForUser(ctx context.Context, userID string) ([]models.ChatRoom, error)

	// Membership changes commit together with the message announcing them.
	AddParticipantWithMessage(ctx context.Context, roomID, userID string, msg *models.ChatMessage) error
	RemoveParticipantWithMessage(ctx context.Context, roomID, userID string, msg *models.ChatMessage) error

	SaveMessage(ctx context.Context, msg *models.ChatMessage) error
	GetChatHistory(ctx context.Context, roomID string) ([]models.ChatMessage, error)
	GetChatHistoryPage(ctx context.Context, roomID string, limit int, cursor string) ([]models.ChatMessage, error)
}

// Service is the GORM implementation of Storage.
type Service struct {
	DB *gorm.DB
}

// NewStorageService Constructor
func NewStorageService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

func byJoinedAt(db *gorm.DB) *gorm.DB  { return db.Order("joined_at asc") }
func byCreatedAt(db *gorm.DB) *gorm.DB { return db.Order("created_at asc") }

// SaveUser upserts an identity summary. Users are owned by the surrounding
// product; this exists for seeding and the admin CLI.
func (s *Service) SaveUser(ctx context.Context, user *models.User) error {
	return chaterr.Persistence("save user", s.DB.WithContext(ctx).Save(user).Error)
}

// CreateRoom inserts the room together with its participants.
func (s *Service) CreateRoom(ctx context.Context, room *models.ChatRoom) error {
	if err := s.DB.WithContext(ctx).Create(room).Error; err != nil {
		log.Error().Err(err).Str("creator_id", room.CreatorID).Msg("create chat room")
		return chaterr.Persistence("create chat room", err)
	}
	return nil
}

// GetRoomByID returns the room with its participants, or chaterr.ErrRoomNotFound.
func (s *Service) GetRoomByID(ctx context.Context, roomID string) (*models.ChatRoom, error) {
	var room models.ChatRoom
	err := s.DB.WithContext(ctx).
		Preload("Participants", byJoinedAt).
		Where("id = ?", roomID).
		First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, chaterr.ErrRoomNotFound
	}
	if err != nil {
		log.Error().Err(err).Str("chat_room_id", roomID).Msg("get chat room")
		return nil, chaterr.Persistence("get chat room", err)
	}
	return &room, nil
}

// FindDirectRoom returns the oldest DIRECT room shared by the two users, or nil when there is none.
func (s *Service) FindDirectRoom(ctx context.Context, userA, userB string) (*models.ChatRoom, error) {
	db := s.DB.WithContext(ctx)
	memberOf := func(userID string) *gorm.DB {
		return db.Model(&models.ChatParticipant{}).Select("chat_room_id").Where("user_id = ?", userID)
	}

	var room models.ChatRoom
	err := db.Preload("Participants", byJoinedAt).
		Where("type = ?", models.RoomTypeDirect).
		Where("id IN (?)", memberOf(userA)).
		Where("id IN (?)", memberOf(userB)).
		Order("created_at asc").
		First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, chaterr.Persistence("find direct chat room", err)
	}
	return &room, nil
}

// ListRoomsForUser returns every room userID participates in, with participant
// summaries and the full message list. Room order is unspecified.
func (s *Service) ListRoomsForUser(ctx context.Context, userID string) ([]models.ChatRoom, error) {
	db := s.DB.WithContext(ctx)
	memberOf := db.Model(&models.ChatParticipant{}).Select("chat_room_id").Where("user_id = ?", userID)

	rooms := []models.ChatRoom{}
	err := db.Preload("Participants", byJoinedAt).
		Preload("Participants.User").
		Preload("Messages", byCreatedAt).
		Preload("Messages.Attachments").
		Where("id IN (?)", memberOf).
		Find(&rooms).Error
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("list chat rooms")
		return nil, chaterr.Persistence("list chat rooms", err)
	}
	for i := range rooms {
		if rooms[i].Messages == nil {
			rooms[i].Messages = []models.ChatMessage{}
		}
	}
	return rooms, nil
}

func (s *Service) AddParticipant(ctx context.Context, roomID, userID string) error {
	return addParticipant(s.DB.WithContext(ctx), roomID, userID)
}

// RemoveParticipant deletes the membership row; a missing row is a NotFound error.
func (s *Service) RemoveParticipant(ctx context.Context, roomID, userID string) error {
	return removeParticipant(s.DB.WithContext(ctx), roomID, userID)
}

// AddParticipantWithMessage adds userID to the room and saves msg in one transaction.
func (s *Service) AddParticipantWithMessage(ctx context.Context, roomID, userID string, msg *models.ChatMessage) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := addParticipant(tx, roomID, userID); err != nil {
			return err
		}
		return saveMessage(tx, msg)
	})
}

// RemoveParticipantWithMessage removes userID from the room and saves msg in one transaction.
func (s *Service) RemoveParticipantWithMessage(ctx context.Context, roomID, userID string, msg *models.ChatMessage) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := removeParticipant(tx, roomID, userID); err != nil {
			return err
		}
		return saveMessage(tx, msg)
	})
}

func addParticipant(db *gorm.DB, roomID, userID string) error {
	p := models.ChatParticipant{ChatRoomID: roomID, UserID: userID}
	return chaterr.Persistence("add participant", db.Create(&p).Error)
}

func removeParticipant(db *gorm.DB, roomID, userID string) error {
	res := db.Where("chat_room_id = ? AND user_id = ?", roomID, userID).
		Delete(&models.ChatParticipant{})
	if res.Error != nil {
		return chaterr.Persistence("remove participant", res.Error)
	}
	if res.RowsAffected == 0 {
		return chaterr.NotFound("user %s is not a participant of chat room %s", userID, roomID)
	}
	return nil
}

// RemoveParticipants drops several members at once. PostgreSQL only (= ANY).
func (s *Service) RemoveParticipants(ctx context.Context, roomID string, userIDs []string) (int64, error) {
	res := s.DB.WithContext(ctx).Exec(
		"DELETE FROM chat_participants WHERE chat_room_id = ? AND user_id = ANY(?)",
		roomID, pq.Array(userIDs),
	)
	if res.Error != nil {
		return 0, chaterr.Persistence("remove participants", res.Error)
	}
	return res.RowsAffected, nil
}

// SaveMessage inserts the message and its attachments; ID and CreatedAt are filled in place.
func (s *Service) SaveMessage(ctx context.Context, msg *models.ChatMessage) error {
	return saveMessage(s.DB.WithContext(ctx), msg)
}

func saveMessage(db *gorm.DB, msg *models.ChatMessage) error {
	if err := db.Create(msg).Error; err != nil {
		log.Error().Err(err).Str("chat_room_id", msg.ChatRoomID).Msg("save message")
		return chaterr.Persistence("save message", err)
	}
	return nil
}

// GetChatHistory returns all messages of a room, oldest first, with sender and attachments.
// An unknown room yields an empty list.
func (s *Service) GetChatHistory(ctx context.Context, roomID string) ([]models.ChatMessage, error) {
	history := []models.ChatMessage{}
	err := s.DB.WithContext(ctx).
		Preload("Sender").
		Preload("Attachments").
		Where("chat_room_id = ?", roomID).
		Order("created_at asc").
		Find(&history).Error
	if err != nil {
		log.Error().Err(err).Str("chat_room_id", roomID).Msg("get chat history")
		return nil, chaterr.Persistence("get chat history", err)
	}
	return history, nil
}

// GetChatHistoryPage returns up to limit messages older than cursor (a message ID),
// newest first. An empty cursor starts from the latest message.
func (s *Service) GetChatHistoryPage(ctx context.Context, roomID string, limit int, cursor string) ([]models.ChatMessage, error) {
	db := s.DB.WithContext(ctx)
	q := db.Preload("Sender").
		Preload("Attachments").
		Where("chat_room_id = ?", roomID)

	if cursor != "" {
		var anchor models.ChatMessage
		err := db.Select("id", "created_at").
			Where("id = ? AND chat_room_id = ?", cursor, roomID).
			First(&anchor).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, chaterr.NotFound("message %s not found in chat room %s", cursor, roomID)
		}
		if err != nil {
			return nil, chaterr.Persistence("get history cursor", err)
		}
		q = q.Where("created_at < ? OR (created_at = ? AND id < ?)", anchor.CreatedAt, anchor.CreatedAt, anchor.ID)
	}

	page := []models.ChatMessage{}
	if err := q.Order("created_at desc").Order("id desc").Limit(limit).Find(&page).Error; err != nil {
		return nil, chaterr.Persistence("get chat history page", err)
	}
	return page, nil
}
