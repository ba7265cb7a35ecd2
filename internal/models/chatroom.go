package models

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RoomType is the kind of a chat room.
type RoomType string

const (
	RoomTypeDirect RoomType = "DIRECT"
	RoomTypeGroup  RoomType = "GROUP"
)

// Valid reports whether t is one of the supported room types.
func (t RoomType) Valid() bool {
	return t == RoomTypeDirect || t == RoomTypeGroup
}

// ChatRoom is a direct (1:1) or group conversation.
// Participants and Messages are only populated when preloaded by the store.
type ChatRoom struct {
	ID        string   `gorm:"primaryKey;size:36" json:"id"`
	Type      RoomType `gorm:"size:16;not null;index" json:"type"`
	Name      string   `gorm:"size:255" json:"name"`
	CreatorID string   `gorm:"size:64;not null;index" json:"creatorId"`

	Participants []ChatParticipant `gorm:"foreignKey:ChatRoomID" json:"participants"`
	Messages     []ChatMessage     `gorm:"foreignKey:ChatRoomID" json:"messages"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate assigns a UUID when the room has no ID yet.
func (r *ChatRoom) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return
}

// HasParticipant reports whether userID is among the loaded participants.
func (r *ChatRoom) HasParticipant(userID string) bool {
	for _, p := range r.Participants {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

// ParticipantIDs returns the user IDs of the loaded participants in join order.
func (r *ChatRoom) ParticipantIDs() []string {
	ids := make([]string, 0, len(r.Participants))
	for _, p := range r.Participants {
		ids = append(ids, p.UserID)
	}
	return ids
}

// Counterpart returns the other participant of a direct room.
func (r *ChatRoom) Counterpart(userID string) (string, bool) {
	if r.Type != RoomTypeDirect {
		return "", false
	}
	for _, p := range r.Participants {
		if p.UserID != userID {
			return p.UserID, true
		}
	}
	return "", false
}

// ChatParticipant links a user to a room.
type ChatParticipant struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	ChatRoomID string    `gorm:"size:36;not null;uniqueIndex:idx_participant_room_user" json:"chatRoomId"`
	UserID     string    `gorm:"size:64;not null;uniqueIndex:idx_participant_room_user;index:idx_participant_user" json:"userId"`
	JoinedAt   time.Time `gorm:"autoCreateTime" json:"joinedAt"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// BeforeCreate assigns a UUID when the participant row has no ID yet.
func (p *ChatParticipant) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return
}

// DirectRoomName derives the name of a direct room from its two participants.
// The result does not depend on argument order.
func DirectRoomName(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return strings.Join(pair, "_")
}
