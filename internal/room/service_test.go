package room_test

import (
	"context"
	"errors"
	"testing"

	"socialchat/backend/internal/chaterr"
	"socialchat/backend/internal/models"
	"socialchat/backend/internal/room"
	"socialchat/backend/internal/storage"
	"socialchat/backend/internal/storage/storagetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setup(t *testing.T, opts ...room.Option) (*room.Service, *storage.Service) {
	t.Helper()
	store := storagetest.NewStore(t)
	return room.NewService(store, opts...), store
}

func TestCreateDirectChat_ListedForBothUsers(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	created, err := svc.CreateDirectChat(ctx, room.CreateDirectChatRequest{
		SenderID: "u1", ReceiverID: "u2", Type: models.RoomTypeDirect,
	})
	require.NoError(t, err)
	assert.Equal(t, "u1_u2", created.Name)
	assert.ElementsMatch(t, []string{"u1", "u2"}, created.ParticipantIDs())

	for _, u := range []string{"u1", "u2"} {
		rooms, err := svc.ListRoomsForUser(ctx, u)
		require.NoError(t, err)
		require.Len(t, rooms, 1)
		assert.Equal(t, created.ID, rooms[0].ID)
		assert.Len(t, rooms[0].Participants, 2)
	}

	rooms, err := svc.ListRoomsForUser(ctx, "u3")
	require.NoError(t, err)
	assert.Empty(t, rooms)
}

func TestCreateDirectChat_NameIsOrderIndependent(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	a, err := svc.CreateDirectChat(ctx, room.CreateDirectChatRequest{SenderID: "u2", ReceiverID: "u1", Type: models.RoomTypeDirect})
	require.NoError(t, err)
	b, err := svc.CreateDirectChat(ctx, room.CreateDirectChatRequest{SenderID: "u1", ReceiverID: "u2", Type: models.RoomTypeDirect})
	require.NoError(t, err)

	assert.Equal(t, a.Name, b.Name)
	assert.NotEqual(t, a.ID, b.ID, "without reuse every call creates a room")
}

func TestCreateDirectChat_Reuse(t *testing.T) {
	svc, _ := setup(t, room.WithDirectRoomReuse(true))
	ctx := context.Background()

	a, err := svc.CreateDirectChat(ctx, room.CreateDirectChatRequest{SenderID: "u1", ReceiverID: "u2", Type: models.RoomTypeDirect})
	require.NoError(t, err)
	b, err := svc.CreateDirectChat(ctx, room.CreateDirectChatRequest{SenderID: "u2", ReceiverID: "u1", Type: models.RoomTypeDirect})
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)

	rooms, err := svc.ListRoomsForUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, rooms, 1)
}

func TestCreateDirectChat_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  room.CreateDirectChatRequest
		want error
	}{
		{"invalid type", room.CreateDirectChatRequest{SenderID: "u1", ReceiverID: "u2", Type: "CHANNEL"}, chaterr.ErrInvalidRoomType},
		{"missing sender", room.CreateDirectChatRequest{ReceiverID: "u2", Type: models.RoomTypeDirect}, chaterr.ErrValidation},
		{"missing receiver", room.CreateDirectChatRequest{SenderID: "u1", Type: models.RoomTypeDirect}, chaterr.ErrValidation},
		{"self chat", room.CreateDirectChatRequest{SenderID: "u1", ReceiverID: "u1", Type: models.RoomTypeDirect}, chaterr.ErrValidation},
		{"group without name", room.CreateDirectChatRequest{SenderID: "u1", ReceiverID: "u2", Type: models.RoomTypeGroup, Name: "  "}, chaterr.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := setup(t)
			_, err := svc.CreateDirectChat(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)

			var count int64
			require.NoError(t, store.DB.Model(&models.ChatRoom{}).Count(&count).Error)
			assert.Zero(t, count, "nothing persisted")
		})
	}
}

func TestCreateDirectChat_InvalidTypeIsValidationError(t *testing.T) {
	svc, _ := setup(t)
	_, err := svc.CreateDirectChat(context.Background(), room.CreateDirectChatRequest{SenderID: "u1", ReceiverID: "u2", Type: "X"})
	assert.ErrorIs(t, err, chaterr.ErrValidation)
}

func TestCreateDirectChat_GroupKeepsName(t *testing.T) {
	svc, _ := setup(t)
	created, err := svc.CreateDirectChat(context.Background(), room.CreateDirectChatRequest{
		SenderID: "u1", ReceiverID: "u2", Type: models.RoomTypeGroup, Name: "Book club",
	})
	require.NoError(t, err)
	assert.Equal(t, "Book club", created.Name)
	assert.Equal(t, models.RoomTypeGroup, created.Type)
}

func TestCreateDirectChat_PersistenceFailure(t *testing.T) {
	store := new(storagetest.MockStorage)
	store.On("CreateRoom", mock.Anything, mock.AnythingOfType("*models.ChatRoom")).
		Return(chaterr.Persistence("create chat room", errors.New("db down")))
	svc := room.NewService(store)

	_, err := svc.CreateDirectChat(context.Background(), room.CreateDirectChatRequest{SenderID: "u1", ReceiverID: "u2", Type: models.RoomTypeDirect})
	assert.ErrorIs(t, err, chaterr.ErrPersistence)
	store.AssertExpectations(t)
}

func TestCreateGroupChat(t *testing.T) {
	svc, store := setup(t)
	ctx := context.Background()

	created, err := svc.CreateGroupChat(ctx, room.CreateGroupChatRequest{
		CreatorID: "u1", Name: "Team", ParticipantIDs: []string{"u2", "u1", "u3", "u2", ""},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2", "u3"}, created.ParticipantIDs())

	history, err := store.GetChatHistory(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.MessageTypeSystem, history[0].Type)
	assert.Equal(t, "Chat created", history[0].Content)

	_, err = svc.CreateGroupChat(ctx, room.CreateGroupChatRequest{CreatorID: "u1", Name: "Solo", ParticipantIDs: []string{"u1"}})
	assert.ErrorIs(t, err, chaterr.ErrValidation)
	_, err = svc.CreateGroupChat(ctx, room.CreateGroupChatRequest{CreatorID: "u1", ParticipantIDs: []string{"u2"}})
	assert.ErrorIs(t, err, chaterr.ErrValidation)
}

func TestLeaveChat(t *testing.T) {
	svc, store := setup(t)
	ctx := context.Background()

	group, err := svc.CreateGroupChat(ctx, room.CreateGroupChatRequest{CreatorID: "u1", Name: "Team", ParticipantIDs: []string{"u2", "u3"}})
	require.NoError(t, err)

	msg, err := svc.LeaveChat(ctx, group.ID, "u2")
	require.NoError(t, err)
	assert.Equal(t, models.MessageTypeSystem, msg.Type)
	assert.Equal(t, "u2 left the chat", msg.Content)

	got, err := store.GetRoomByID(ctx, group.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"u1", "u3"}, got.ParticipantIDs())

	_, err = svc.LeaveChat(ctx, group.ID, "u2")
	assert.ErrorIs(t, err, chaterr.ErrNotFound)

	_, err = svc.LeaveChat(ctx, "missing", "u1")
	assert.ErrorIs(t, err, chaterr.ErrRoomNotFound)

	direct, err := svc.CreateDirectChat(ctx, room.CreateDirectChatRequest{SenderID: "u1", ReceiverID: "u2", Type: models.RoomTypeDirect})
	require.NoError(t, err)
	_, err = svc.LeaveChat(ctx, direct.ID, "u1")
	assert.ErrorIs(t, err, chaterr.ErrValidation)
}

func TestAddParticipant(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	group, err := svc.CreateGroupChat(ctx, room.CreateGroupChatRequest{CreatorID: "u1", Name: "Team", ParticipantIDs: []string{"u2"}})
	require.NoError(t, err)

	msg, err := svc.AddParticipant(ctx, group.ID, "u3")
	require.NoError(t, err)
	assert.Equal(t, "u3 joined the chat", msg.Content)

	got, err := svc.GetRoom(ctx, group.ID)
	require.NoError(t, err)
	assert.True(t, got.HasParticipant("u3"))

	_, err = svc.AddParticipant(ctx, group.ID, "u3")
	assert.ErrorIs(t, err, chaterr.ErrValidation)
}

// failMessageInserts makes every insert into chat_messages fail from now on.
func failMessageInserts(t *testing.T, store *storage.Service) {
	t.Helper()
	err := store.DB.Callback().Create().Before("gorm:create").Register("test:fail_messages", func(tx *gorm.DB) {
		if tx.Statement.Schema != nil && tx.Statement.Schema.Table == "chat_messages" {
			_ = tx.AddError(errors.New("db down"))
		}
	})
	require.NoError(t, err)
}

func TestMembershipChangeRollsBackWithItsMessage(t *testing.T) {
	svc, store := setup(t)
	ctx := context.Background()

	group, err := svc.CreateGroupChat(ctx, room.CreateGroupChatRequest{CreatorID: "u1", Name: "Team", ParticipantIDs: []string{"u2"}})
	require.NoError(t, err)
	failMessageInserts(t, store)

	_, err = svc.AddParticipant(ctx, group.ID, "u3")
	assert.ErrorIs(t, err, chaterr.ErrPersistence)
	_, err = svc.LeaveChat(ctx, group.ID, "u2")
	assert.ErrorIs(t, err, chaterr.ErrPersistence)

	got, err := store.GetRoomByID(ctx, group.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"u1", "u2"}, got.ParticipantIDs())
	history, err := store.GetChatHistory(ctx, group.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1, "only the creation message")
}

func TestAddParticipant_StoreFailure(t *testing.T) {
	store := new(storagetest.MockStorage)
	group := &models.ChatRoom{ID: "g1", Type: models.RoomTypeGroup,
		Participants: []models.ChatParticipant{{UserID: "u1"}, {UserID: "u2"}}}
	store.On("GetRoomByID", mock.Anything, "g1").Return(group, nil)
	store.On("AddParticipantWithMessage", mock.Anything, "g1", "u3", mock.MatchedBy(func(m *models.ChatMessage) bool {
		return m.Type == models.MessageTypeSystem && m.SenderID == "u3"
	})).Return(chaterr.Persistence("add participant", errors.New("db down")))

	msg, err := room.NewService(store).AddParticipant(context.Background(), "g1", "u3")
	assert.Nil(t, msg)
	assert.ErrorIs(t, err, chaterr.ErrPersistence)
	store.AssertExpectations(t)
}

func TestListRoomsForUser_RequiresUser(t *testing.T) {
	svc, _ := setup(t)
	_, err := svc.ListRoomsForUser(context.Background(), "")
	assert.ErrorIs(t, err, chaterr.ErrValidation)
}
