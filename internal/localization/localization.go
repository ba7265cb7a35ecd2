// Package localization holds the texts of system messages written into chat rooms.
// Translations are JSON files named by language code (e.g. "en.json"); a default
// set is embedded in the binary.
package localization

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
	"sync"
)

// Keys of the system messages.
const (
	KeyChatCreated = "chat_created"
	KeyUserJoined  = "user_joined"
	KeyUserLeft    = "user_left"
)

const fallbackLang = "en"

//go:embed locales/*.json
var embedded embed.FS

// Localizer manages the translations for the application.
type Localizer struct {
	translations map[string]map[string]string
	mu           sync.RWMutex
}

// Default returns a Localizer over the embedded translations.
func Default() *Localizer {
	sub, err := fs.Sub(embedded, "locales")
	if err != nil {
		panic(err)
	}
	l, err := Load(sub)
	if err != nil {
		panic(err)
	}
	return l
}

// NewLocalizer loads all translations from a directory on disk.
func NewLocalizer(dir string) (*Localizer, error) {
	return Load(os.DirFS(dir))
}

// Load reads every *.json file at the root of fsys.
func Load(fsys fs.FS) (*Localizer, error) {
	l := &Localizer{
		translations: make(map[string]map[string]string),
	}

	files, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read localization directory: %w", err)
	}

	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".json") {
			continue
		}

		data, err := fs.ReadFile(fsys, file.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read localization file %s: %w", file.Name(), err)
		}

		var translations map[string]string
		if err := json.Unmarshal(data, &translations); err != nil {
			return nil, fmt.Errorf("failed to parse localization file %s: %w", file.Name(), err)
		}

		l.translations[strings.TrimSuffix(path.Base(file.Name()), ".json")] = translations
	}

	return l, nil
}

// GetString returns the string for key in lang, falling back to English and then to the key itself.
func (l *Localizer) GetString(lang, key string) string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if value, ok := l.translations[lang][key]; ok {
		return value
	}
	if value, ok := l.translations[fallbackLang][key]; ok {
		return value
	}
	return key
}

// Format is GetString followed by fmt.Sprintf.
func (l *Localizer) Format(lang, key string, args ...any) string {
	return fmt.Sprintf(l.GetString(lang, key), args...)
}

// Has reports whether lang has any translations loaded.
func (l *Localizer) Has(lang string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.translations[lang]
	return ok
}
