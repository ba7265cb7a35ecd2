package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Message types. The column is free text; these are the values the core writes.
const (
	MessageTypeUser   = "MESSAGE"
	MessageTypeSystem = "SYSTEM"
)

// ChatMessage is a persisted message. It is never updated after creation.
type ChatMessage struct {
	ID         string  `gorm:"primaryKey;size:36" json:"id"`
	ChatRoomID string  `gorm:"size:36;not null;index:idx_message_room_created" json:"chatRoomId"`
	SenderID   string  `gorm:"size:64;not null;index" json:"senderId"`
	ReceiverID *string `gorm:"size:64" json:"receiverId"`
	Content    string  `gorm:"type:text;not null" json:"content"`
	Type       string  `gorm:"size:32;not null" json:"type"`

	Attachments []MessageAttachment `gorm:"foreignKey:MessageID" json:"attachments"`
	// Sender is the identity summary of SenderID, filled by preloads.
	Sender *User `gorm:"foreignKey:SenderID" json:"user,omitempty"`

	CreatedAt time.Time `gorm:"index:idx_message_room_created" json:"createdAt"`
}

// BeforeCreate assigns a UUID when the message has no ID yet.
func (m *ChatMessage) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return
}

// MessageAttachment is a {type, url} pair produced by the upload collaborator.
type MessageAttachment struct {
	ID        string `gorm:"primaryKey;size:36" json:"id"`
	MessageID string `gorm:"size:36;not null;index" json:"messageId"`
	Type      string `gorm:"size:32;not null" json:"type"`
	URL       string `gorm:"type:text;not null" json:"url"`
}

// BeforeCreate assigns a UUID when the attachment has no ID yet.
func (a *MessageAttachment) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return
}
