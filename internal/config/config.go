// Package config loads runtime settings from the environment (optionally via a .env file).
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const defaultJWTSecret = "dev-secret-change-me"

// Presence backends.
const (
	PresenceMemory = "memory"
	PresenceRedis  = "redis"
)

// Supersession policies.
const (
	SupersedeKeep  = "keep"
	SupersedeClose = "close"
)

type Config struct {
	Port     string
	Env      string
	LogLevel string

	DatabaseDSN string

	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	PresenceBackend string

	JWTSecret          string
	TrustQueryIdentity bool

	SupersessionPolicy string
	DirectRoomReuse    bool
	Locale             string
	LocalesDir         string

	WSEventsPerSecond float64
	WSEventBurst      int
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getint(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v < 0 {
		return def
	}
	return v
}

func getfloat(key string, def float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func getbool(key string, def bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

// Load reads .env (if present) and the process environment.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:               getenv("APP_PORT", "8080"),
		Env:                getenv("APP_ENV", "dev"),
		LogLevel:           strings.ToLower(os.Getenv("LOG_LEVEL")),
		DatabaseDSN:        getenv("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=socialchat port=5432 sslmode=disable TimeZone=UTC"),
		RedisAddr:          getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		RedisDB:            getint("REDIS_DB", 0),
		PresenceBackend:    strings.ToLower(getenv("PRESENCE_BACKEND", PresenceMemory)),
		JWTSecret:          getenv("JWT_SECRET", defaultJWTSecret),
		TrustQueryIdentity: getbool("TRUST_QUERY_IDENTITY", false),
		SupersessionPolicy: strings.ToLower(getenv("SUPERSESSION_POLICY", SupersedeKeep)),
		DirectRoomReuse:    getbool("DIRECT_ROOM_REUSE", false),
		Locale:             getenv("LOCALE", "en"),
		LocalesDir:         os.Getenv("LOCALES_DIR"),
		WSEventsPerSecond:  getfloat("WS_EVENTS_PER_SECOND", 20),
		WSEventBurst:       getint("WS_EVENT_BURST", 40),
	}
}

// Validate rejects configurations the server cannot start with.
func Validate(cfg Config) error {
	if cfg.Port == "" {
		return errors.New("APP_PORT is required")
	}
	if cfg.DatabaseDSN == "" {
		return errors.New("DATABASE_DSN is required")
	}
	switch cfg.PresenceBackend {
	case PresenceMemory:
	case PresenceRedis:
		if cfg.RedisAddr == "" {
			return errors.New("REDIS_ADDR is required for the redis presence backend")
		}
	default:
		return errors.New("PRESENCE_BACKEND must be memory or redis")
	}
	switch cfg.SupersessionPolicy {
	case SupersedeKeep, SupersedeClose:
	default:
		return errors.New("SUPERSESSION_POLICY must be keep or close")
	}
	if cfg.Env != "dev" && (cfg.JWTSecret == "" || cfg.JWTSecret == defaultJWTSecret) {
		return errors.New("JWT_SECRET must be set outside dev")
	}
	return nil
}
