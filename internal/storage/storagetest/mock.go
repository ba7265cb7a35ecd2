package storagetest

import (
	"context"

	"socialchat/backend/internal/models"

	"github.com/stretchr/testify/mock"
)

// MockStorage is a testify mock of storage.Storage.
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) CreateRoom(ctx context.Context, room *models.ChatRoom) error {
	return m.Called(ctx, room).Error(0)
}

func (m *MockStorage) GetRoomByID(ctx context.Context, roomID string) (*models.ChatRoom, error) {
	args := m.Called(ctx, roomID)
	room, _ := args.Get(0).(*models.ChatRoom)
	return room, args.Error(1)
}

func (m *MockStorage) FindDirectRoom(ctx context.Context, userA, userB string) (*models.ChatRoom, error) {
	args := m.Called(ctx, userA, userB)
	room, _ := args.Get(0).(*models.ChatRoom)
	return room, args.Error(1)
}

func (m *MockStorage) ListRoomsForUser(ctx context.Context, userID string) ([]models.ChatRoom, error) {
	args := m.Called(ctx, userID)
	rooms, _ := args.Get(0).([]models.ChatRoom)
	return rooms, args.Error(1)
}

func (m *MockStorage) AddParticipantWithMessage(ctx context.Context, roomID, userID string, msg *models.ChatMessage) error {
	return m.Called(ctx, roomID, userID, msg).Error(0)
}

func (m *MockStorage) RemoveParticipantWithMessage(ctx context.Context, roomID, userID string, msg *models.ChatMessage) error {
	return m.Called(ctx, roomID, userID, msg).Error(0)
}

func (m *MockStorage) SaveMessage(ctx context.Context, msg *models.ChatMessage) error {
	return m.Called(ctx, msg).Error(0)
}

func (m *MockStorage) GetChatHistory(ctx context.Context, roomID string) ([]models.ChatMessage, error) {
	args := m.Called(ctx, roomID)
	msgs, _ := args.Get(0).([]models.ChatMessage)
	return msgs, args.Error(1)
}

func (m *MockStorage) GetChatHistoryPage(ctx context.Context, roomID string, limit int, cursor string) ([]models.ChatMessage, error) {
	args := m.Called(ctx, roomID, limit, cursor)
	msgs, _ := args.Get(0).([]models.ChatMessage)
	return msgs, args.Error(1)
}
