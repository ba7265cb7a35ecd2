package localization

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	l := Default()
	assert.True(t, l.Has("en"))
	assert.True(t, l.Has("uk"))
	assert.Equal(t, "Chat created", l.GetString("en", KeyChatCreated))
	assert.Equal(t, "bob left the chat", l.Format("en", KeyUserLeft, "bob"))
}

func TestGetString_Fallbacks(t *testing.T) {
	l, err := Load(fstest.MapFS{
		"en.json": {Data: []byte(`{"hello":"Hello","only_en":"English"}`)},
		"de.json": {Data: []byte(`{"hello":"Hallo"}`)},
		"notes.txt": {Data: []byte(`ignored`)},
	})
	require.NoError(t, err)

	assert.Equal(t, "Hallo", l.GetString("de", "hello"))
	assert.Equal(t, "English", l.GetString("de", "only_en"))
	assert.Equal(t, "Hello", l.GetString("fr", "hello"))
	assert.Equal(t, "missing", l.GetString("de", "missing"))
	assert.False(t, l.Has("notes"))
}

func TestLoad_BadJSON(t *testing.T) {
	_, err := Load(fstest.MapFS{"en.json": {Data: []byte(`{`)}})
	assert.Error(t, err)
}

func TestNewLocalizer_MissingDir(t *testing.T) {
	_, err := NewLocalizer(t.TempDir() + "/nope")
	assert.Error(t, err)
}
