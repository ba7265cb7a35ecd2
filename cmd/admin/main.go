package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"time"

	"socialchat/backend/internal/api/handler"
	"socialchat/backend/internal/config"
	clog "socialchat/backend/internal/log"
	"socialchat/backend/internal/storage"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const usage = `Usage: admin <command> [args]

Commands:
  online                                         list users with a live connection (redis presence)
  rooms <user_id>                                list the chat rooms of a user
  history <chat_room_id>                         print the messages of a room
  remove-participants <chat_room_id> <user_id>...  drop members from a room
  token <user_id> [ttl_hours]                    sign a handshake token for a user`

// usageError is a bad invocation; main prints it instead of logging it.
type usageError string

func (e usageError) Error() string { return string(e) }

func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// withStore opens the database for one command and closes it afterwards.
func withStore(cfg config.Config, fn func(*storage.Service) error) error {
	db, err := storage.Connect(cfg.DatabaseDSN, 1)
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	return fn(storage.NewStorageService(db))
}

func run(ctx context.Context, cfg config.Config, args []string, w io.Writer) error {
	if len(args) < 1 {
		return usageError(usage)
	}

	switch args[0] {
	case "online":
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		defer rdb.Close()
		ids, err := storage.NewRedisPresence(rdb, "").UserIDs()
		if err != nil {
			return fmt.Errorf("read presence: %w", err)
		}
		sort.Strings(ids)
		return printJSON(w, ids)

	case "rooms":
		if len(args) != 2 {
			return usageError("Usage: admin rooms <user_id>")
		}
		return withStore(cfg, func(s *storage.Service) error {
			rooms, err := s.ListRoomsForUser(ctx, args[1])
			if err != nil {
				return err
			}
			return printJSON(w, rooms)
		})

	case "history":
		if len(args) != 2 {
			return usageError("Usage: admin history <chat_room_id>")
		}
		return withStore(cfg, func(s *storage.Service) error {
			msgs, err := s.GetChatHistory(ctx, args[1])
			if err != nil {
				return err
			}
			return printJSON(w, msgs)
		})

	case "remove-participants":
		if len(args) < 3 {
			return usageError("Usage: admin remove-participants <chat_room_id> <user_id>...")
		}
		return withStore(cfg, func(s *storage.Service) error {
			n, err := s.RemoveParticipants(ctx, args[1], args[2:])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(w, "Removed %d participant(s) from %s.\n", n, args[1])
			return err
		})

	case "token":
		if len(args) < 2 {
			return usageError("Usage: admin token <user_id> [ttl_hours]")
		}
		ttl := 24 * time.Hour
		if len(args) > 2 {
			hours, err := strconv.Atoi(args[2])
			if err != nil || hours <= 0 {
				return usageError("Invalid ttl. Please provide a positive integer.")
			}
			ttl = time.Duration(hours) * time.Hour
		}
		token, err := handler.NewIdentityResolver(cfg.JWTSecret, false).IssueToken(args[1], ttl)
		if err != nil {
			return fmt.Errorf("sign token: %w", err)
		}
		_, err = fmt.Fprintln(w, token)
		return err

	default:
		return usageError(fmt.Sprintf("Unknown command: %s\n\n%s", args[0], usage))
	}
}

func main() {
	cfg := config.Load()
	clog.Init(cfg.Env, cfg.LogLevel)

	err := run(context.Background(), cfg, os.Args[1:], os.Stdout)
	var ue usageError
	switch {
	case err == nil:
	case errors.As(err, &ue):
		fmt.Println(ue)
		os.Exit(1)
	default:
		log.Fatal().Err(err).Msg("admin command failed")
	}
}
