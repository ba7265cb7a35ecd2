package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the identity summary of a member of the social network.
// Rows are owned by the surrounding product; the chat core only reads them
// to decorate participants and message senders.
type User struct {
	ID          string `gorm:"primaryKey;size:64" json:"id"`
	UserName    string `gorm:"size:64;index" json:"userName"`
	DisplayName string `gorm:"size:128" json:"displayName,omitempty"`
	AvatarURL   string `gorm:"type:text" json:"avatarUrl,omitempty"`
}

// BeforeCreate fills in a UUID when the ID is empty.
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return
}
