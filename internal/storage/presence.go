package storage

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// Two hashes hold the pairing in both directions:
// users: userID -> connectionID, conns: connectionID -> userID.
// Scripts keep them consistent with each other.

var setPresenceScript = redis.NewScript(`
local prev = redis.call('HGET', KEYS[1], ARGV[1])
local prevUser = redis.call('HGET', KEYS[2], ARGV[2])
if prevUser and prevUser ~= ARGV[1] and redis.call('HGET', KEYS[1], prevUser) == ARGV[2] then
	redis.call('HDEL', KEYS[1], prevUser)
end
if prev and prev ~= ARGV[2] then
	redis.call('HDEL', KEYS[2], prev)
end
redis.call('HSET', KEYS[1], ARGV[1], ARGV[2])
redis.call('HSET', KEYS[2], ARGV[2], ARGV[1])
return prev
`)

var deletePresenceScript = redis.NewScript(`
local user = redis.call('HGET', KEYS[2], ARGV[1])
if not user then
	return false
end
redis.call('HDEL', KEYS[2], ARGV[1])
if redis.call('HGET', KEYS[1], user) == ARGV[1] then
	redis.call('HDEL', KEYS[1], user)
	return user
end
return false
`)

// RedisPresence keeps the userID <-> connectionID pairing in Redis so that
// presence survives in a store the admin CLI can inspect.
type RedisPresence struct {
	Redis *redis.Client
	Ctx   context.Context

	usersKey string
	connsKey string
}

func NewRedisPresence(rdb *redis.Client, prefix string) *RedisPresence {
	if prefix == "" {
		prefix = "chat:presence"
	}
	return &RedisPresence{
		Redis:    rdb,
		Ctx:      context.Background(),
		usersKey: prefix + ":users",
		connsKey: prefix + ":conns",
	}
}

// Set pairs userID with connectionID and returns the connection it replaced, if any.
func (p *RedisPresence) Set(userID, connectionID string) (string, error) {
	prev, err := setPresenceScript.Run(p.Ctx, p.Redis, []string{p.usersKey, p.connsKey}, userID, connectionID).Text()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return prev, err
}

// DeleteConnection drops the pairing owned by connectionID and returns its user.
// An empty user means the connection held no pairing.
func (p *RedisPresence) DeleteConnection(connectionID string) (string, error) {
	user, err := deletePresenceScript.Run(p.Ctx, p.Redis, []string{p.usersKey, p.connsKey}, connectionID).Text()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return user, err
}

func (p *RedisPresence) Get(userID string) (string, bool, error) {
	conn, err := p.Redis.HGet(p.Ctx, p.usersKey, userID).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return conn, true, nil
}

func (p *RedisPresence) UserIDs() ([]string, error) {
	return p.Redis.HKeys(p.Ctx, p.usersKey).Result()
}

// Reset forgets every pairing. Connections do not survive a restart,
// so the server calls this on start-up.
func (p *RedisPresence) Reset() error {
	return p.Redis.Del(p.Ctx, p.usersKey, p.connsKey).Err()
}
