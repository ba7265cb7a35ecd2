package chathub_test

import (
	"fmt"
	"sync"
	"testing"

	"socialchat/backend/internal/chathub"
	"socialchat/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_RegisterBroadcastsToEveryone(t *testing.T) {
	hub := chathub.NewManagerService()

	c1 := newMockClient("c1")
	c2 := newMockClient("c2")
	hub.Attach(c1)
	hub.Attach(c2)

	hub.Register("u1", "c1")
	hub.Register("u2", "c2")

	for _, c := range []*MockClient{c1, c2} {
		online, ok := c.LastOnlineUsers()
		require.True(t, ok)
		assert.ElementsMatch(t, []string{"u1", "u2"}, online)
	}
	assert.Equal(t, "u1", c1.GetUserID())

	hub.Unregister("c1")

	online, ok := c2.LastOnlineUsers()
	require.True(t, ok)
	assert.Equal(t, []string{"u2"}, online)
	assert.Equal(t, 1, hub.ConnectionCount())
}

func TestManager_AnonymousConnectionReceivesBroadcasts(t *testing.T) {
	hub := chathub.NewManagerService()
	anon := newMockClient("anon")
	hub.Attach(anon)

	hub.Register("", "anon")
	_, ok := anon.LastOnlineUsers()
	assert.False(t, ok, "empty user id is ignored")
	assert.Empty(t, hub.OnlineUsers())

	hub.Attach(newMockClient("c1"))
	hub.Register("u1", "c1")

	online, ok := anon.LastOnlineUsers()
	require.True(t, ok)
	assert.Equal(t, []string{"u1"}, online)
}

func TestManager_LastConnectWins(t *testing.T) {
	hub := chathub.NewManagerService()
	old := newMockClient("c1")
	cur := newMockClient("c2")
	hub.Attach(old)
	hub.Attach(cur)

	hub.Register("u1", "c1")
	hub.Register("u1", "c2")

	conn, ok := hub.Resolve("u1")
	require.True(t, ok)
	assert.Equal(t, "c2", conn)
	assert.False(t, old.IsClosed(), "previous connection stays open by default")

	// the superseded connection leaving does not take the user offline
	hub.Unregister("c1")
	conn, ok = hub.Resolve("u1")
	require.True(t, ok)
	assert.Equal(t, "c2", conn)
	assert.Equal(t, []string{"u1"}, hub.OnlineUsers())

	hub.Unregister("c2")
	_, ok = hub.Resolve("u1")
	assert.False(t, ok)
}

func TestManager_ClosePreviousPolicy(t *testing.T) {
	hub := chathub.NewManagerService(chathub.WithSupersessionPolicy(chathub.ClosePrevious))
	old := newMockClient("c1")
	cur := newMockClient("c2")
	hub.Attach(old)
	hub.Attach(cur)

	hub.Register("u1", "c1")
	hub.Register("u1", "c2")

	assert.True(t, old.IsClosed())
	assert.False(t, cur.IsClosed())
}

func TestManager_ReRegisterSameConnection(t *testing.T) {
	hub := chathub.NewManagerService(chathub.WithSupersessionPolicy(chathub.ClosePrevious))
	c := newMockClient("c1")
	hub.Attach(c)

	hub.Register("u1", "c1")
	hub.Register("u1", "c1")

	assert.False(t, c.IsClosed())
	assert.Equal(t, []string{"u1"}, hub.OnlineUsers())
}

func TestManager_UnregisterUnknownIsNoop(t *testing.T) {
	hub := chathub.NewManagerService()
	c := newMockClient("c1")
	hub.Attach(c)
	hub.Register("u1", "c1")

	hub.Unregister("nope")
	assert.Equal(t, []string{"u1"}, hub.OnlineUsers())
}

func TestManager_Push(t *testing.T) {
	hub := chathub.NewManagerService()
	c := newMockClient("c1")
	hub.Attach(c)

	ev := models.Event{Event: models.EventNewMessage, Data: "x"}
	require.NoError(t, hub.Push("c1", ev))
	assert.Contains(t, c.Events(), ev)

	assert.ErrorIs(t, hub.Push("missing", ev), chathub.ErrConnectionUnknown)

	c.Close()
	assert.ErrorIs(t, hub.Push("c1", ev), chathub.ErrClientClosed)
}

func TestManager_BroadcastSkipsFailingConnections(t *testing.T) {
	hub := chathub.NewManagerService()
	full := newMockClient("full")
	full.full = true
	ok := newMockClient("ok")
	hub.Attach(full)
	hub.Attach(ok)

	hub.Register("u1", "ok")

	online, got := ok.LastOnlineUsers()
	require.True(t, got)
	assert.Equal(t, []string{"u1"}, online)
	assert.Empty(t, full.Events())
}

func TestManager_BroadcastIsIdempotent(t *testing.T) {
	hub := chathub.NewManagerService()
	c := newMockClient("c1")
	hub.Attach(c)
	hub.Register("u1", "c1")

	before, _ := c.LastOnlineUsers()
	hub.BroadcastOnlineUsers()
	after, _ := c.LastOnlineUsers()
	assert.Equal(t, before, after)
}

func TestManager_ConcurrentRegisterUnregister(t *testing.T) {
	hub := chathub.NewManagerService()
	const n = 50

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			connID := fmt.Sprintf("c%d", i)
			hub.Attach(newMockClient(connID))
			hub.Register(fmt.Sprintf("u%d", i), connID)
			if i%2 == 0 {
				hub.Unregister(connID)
			}
		}(i)
	}
	wg.Wait()

	online := hub.OnlineUsers()
	assert.Len(t, online, n/2)
	for _, u := range online {
		conn, ok := hub.Resolve(u)
		require.True(t, ok)
		assert.Equal(t, "c"+u[1:], conn)
	}
}
