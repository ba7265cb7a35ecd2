// Package log sets up the process-wide zerolog logger.
package log

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const serviceName = "socialchat"

// New builds a logger writing to w. Dev gets console output at debug level,
// other environments JSON at info. A parsable level overrides either default.
func New(w io.Writer, env, level string) zerolog.Logger {
	lvl := zerolog.InfoLevel
	if env == "dev" {
		lvl = zerolog.DebugLevel
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	if parsed, err := zerolog.ParseLevel(level); err == nil && level != "" {
		lvl = parsed
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Str("service", serviceName).Logger()
}

// Init installs New(os.Stdout, env, level) as the global logger.
func Init(env, level string) {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = New(os.Stdout, env, level)
}
