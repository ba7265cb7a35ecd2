package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"socialchat/backend/internal/api/handler"
	"socialchat/backend/internal/chathub"
	"socialchat/backend/internal/config"
	"socialchat/backend/internal/gateway"
	"socialchat/backend/internal/localization"
	clog "socialchat/backend/internal/log"
	"socialchat/backend/internal/message"
	"socialchat/backend/internal/room"
	"socialchat/backend/internal/storage"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

func newPresenceStore(cfg config.Config) (chathub.PresenceStore, *redis.Client) {
	if cfg.PresenceBackend != config.PresenceRedis {
		return chathub.NewMemoryPresence(), nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("redis connect")
	}

	presence := storage.NewRedisPresence(rdb, "")
	// connections do not survive a restart
	if err := presence.Reset(); err != nil {
		log.Fatal().Err(err).Msg("redis presence reset")
	}
	return presence, rdb
}

func newLocalizer(cfg config.Config) *localization.Localizer {
	if cfg.LocalesDir == "" {
		return localization.Default()
	}
	l, err := localization.NewLocalizer(cfg.LocalesDir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", cfg.LocalesDir).Msg("load locales")
	}
	return l
}

func main() {
	cfg := config.Load()
	clog.Init(cfg.Env, cfg.LogLevel)
	if err := config.Validate(cfg); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	db, err := storage.Connect(cfg.DatabaseDSN, 5)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}
	if err := storage.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("db migrate")
	}
	store := storage.NewStorageService(db)

	presence, rdb := newPresenceStore(cfg)
	policy := chathub.KeepPrevious
	if cfg.SupersessionPolicy == config.SupersedeClose {
		policy = chathub.ClosePrevious
	}
	hub := chathub.NewManagerService(
		chathub.WithPresenceStore(presence),
		chathub.WithSupersessionPolicy(policy),
	)

	rooms := room.NewService(store,
		room.WithDirectRoomReuse(cfg.DirectRoomReuse),
		room.WithLocalizer(newLocalizer(cfg), cfg.Locale),
	)
	msgs := message.NewService(store, hub)
	identity := handler.NewIdentityResolver(cfg.JWTSecret, cfg.TrustQueryIdentity)
	gw := gateway.New(hub, msgs, gateway.WithTrustedJoin(identity.TrustsQuery()))

	h := handler.NewHandler(hub, gw, rooms, msgs, identity, cfg.Env)
	h.EventsPerSecond = cfg.WSEventsPerSecond
	h.EventBurst = cfg.WSEventBurst

	server := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        handler.SetupRouter(h, cfg.Env),
		ReadTimeout:    config.ReadTimeout,
		WriteTimeout:   config.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Str("presence", cfg.PresenceBackend).Msg("server started")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server run")
		}
	}()

	ops := map[string]gfshutdown.Operation{
		"http-server": func(ctx context.Context) error {
			return server.Shutdown(ctx)
		},
		"websockets": func(ctx context.Context) error {
			hub.CloseAll()
			return nil
		},
		"rate-limiter": func(ctx context.Context) error {
			h.Close()
			return nil
		},
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	}
	if rdb != nil {
		ops["redis"] = func(ctx context.Context) error {
			return rdb.Close()
		}
	}

	wait := gfshutdown.GracefulShutdown(context.Background(), config.ShutdownTimeout, ops)
	exitCode := <-wait
	log.Info().Int("code", exitCode).Msg("server exited")
	os.Exit(exitCode)
}
