package chathub

import (
	"sync"

	"socialchat/backend/internal/metrics"
	"socialchat/backend/internal/models"

	"github.com/rs/zerolog/log"
)

// ManagerService is the presence registry: it tracks every live connection,
// pairs connections with user identities and broadcasts the online set.
// Mutations and the broadcast they trigger happen under one lock, so every
// broadcast reflects a state that existed at some instant.
type ManagerService struct {
	mu        sync.Mutex
	clients   map[string]Client // connectionID -> attached client
	presence  PresenceStore
	supersede SupersessionPolicy
}

type Option func(*ManagerService)

// WithPresenceStore swaps the in-memory pairing for another store (e.g. Redis).
func WithPresenceStore(p PresenceStore) Option {
	return func(m *ManagerService) { m.presence = p }
}

func WithSupersessionPolicy(p SupersessionPolicy) Option {
	return func(m *ManagerService) { m.supersede = p }
}

// NewManagerService Constructor
func NewManagerService(opts ...Option) *ManagerService {
	m := &ManagerService{
		clients:   make(map[string]Client),
		presence:  NewMemoryPresence(),
		supersede: KeepPrevious,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Attach starts tracking a connection. Anonymous connections still receive broadcasts.
func (m *ManagerService) Attach(c Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clients[c.GetConnectionID()] = c
	metrics.WsConnections.Set(float64(len(m.clients)))
}

// Register pairs userID with connectionID (last connect wins) and broadcasts
// the new online set. An empty userID leaves the connection anonymous.
func (m *ManagerService) Register(userID, connectionID string) {
	if userID == "" {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	prev, err := m.presence.Set(userID, connectionID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Str("connection_id", connectionID).Msg("presence set failed")
		return
	}

	next := m.clients[connectionID]
	if next != nil {
		next.SetUserID(userID)
	}
	if prev != "" && prev != connectionID {
		if old, ok := m.clients[prev]; ok {
			log.Info().Str("user_id", userID).Str("previous", prev).Str("connection_id", connectionID).Msg("connection superseded")
			m.supersede(old, next)
		}
	}

	log.Debug().Str("user_id", userID).Str("connection_id", connectionID).Msg("user registered")
	m.broadcastLocked()
}

// Unregister forgets the connection and the pairing that points at it, then
// broadcasts. A connection that was superseded leaves the newer pairing intact.
func (m *ManagerService) Unregister(connectionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	userID, err := m.presence.DeleteConnection(connectionID)
	if err != nil {
		log.Error().Err(err).Str("connection_id", connectionID).Msg("presence delete failed")
	}
	delete(m.clients, connectionID)
	metrics.WsConnections.Set(float64(len(m.clients)))

	log.Debug().Str("user_id", userID).Str("connection_id", connectionID).Msg("connection unregistered")
	m.broadcastLocked()
}

// Resolve returns the current connection of userID.
func (m *ManagerService) Resolve(userID string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	conn, ok, err := m.presence.Get(userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("presence lookup failed")
		return "", false
	}
	return conn, ok
}

// Push enqueues event on a live connection without blocking.
func (m *ManagerService) Push(connectionID string, event models.Event) error {
	m.mu.Lock()
	c, ok := m.clients[connectionID]
	m.mu.Unlock()
	if !ok {
		return ErrConnectionUnknown
	}
	return c.Send(event)
}

// BroadcastOnlineUsers sends the current online set to every attached connection.
func (m *ManagerService) BroadcastOnlineUsers() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.broadcastLocked()
}

func (m *ManagerService) broadcastLocked() {
	ids, err := m.presence.UserIDs()
	if err != nil {
		log.Error().Err(err).Msg("presence snapshot failed")
		return
	}
	ev := models.OnlineUsersEvent(ids)
	for connID, c := range m.clients {
		if err := c.Send(ev); err != nil {
			log.Warn().Err(err).Str("connection_id", connID).Msg("online users broadcast dropped")
		}
	}
	metrics.PresenceBroadcasts.Inc()
	metrics.OnlineUsers.Set(float64(len(ids)))
}

// OnlineUsers returns a snapshot of the registered user ids in no particular order.
func (m *ManagerService) OnlineUsers() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids, err := m.presence.UserIDs()
	if err != nil {
		log.Error().Err(err).Msg("presence snapshot failed")
		return []string{}
	}
	return ids
}

// ConnectionCount returns the number of attached connections.
func (m *ManagerService) ConnectionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.clients)
}

// CloseAll closes every attached connection. Used on shutdown.
func (m *ManagerService) CloseAll() {
	m.mu.Lock()
	clients := make([]Client, 0, len(m.clients))
	for _, c := range m.clients {
		clients = append(clients, c)
	}
	m.mu.Unlock()

	for _, c := range clients {
		c.Close()
	}
}
