package chathub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryPresence(t *testing.T) {
	p := NewMemoryPresence()

	prev, err := p.Set("u1", "c1")
	require.NoError(t, err)
	assert.Empty(t, prev)

	prev, _ = p.Set("u1", "c2")
	assert.Equal(t, "c1", prev)

	user, _ := p.DeleteConnection("c1")
	assert.Empty(t, user, "stale connection owns no pairing")

	conn, ok, _ := p.Get("u1")
	assert.True(t, ok)
	assert.Equal(t, "c2", conn)

	user, _ = p.DeleteConnection("c2")
	assert.Equal(t, "u1", user)

	ids, _ := p.UserIDs()
	assert.Empty(t, ids)
}

func TestMemoryPresence_ConnectionChangesUser(t *testing.T) {
	p := NewMemoryPresence()
	p.Set("u1", "c1")
	p.Set("u2", "c1")

	ids, _ := p.UserIDs()
	assert.Equal(t, []string{"u2"}, ids)

	_, ok, _ := p.Get("u1")
	assert.False(t, ok)
}
