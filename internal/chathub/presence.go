package chathub

import "sync"

// PresenceStore holds the userID -> connectionID pairing.
// A user has at most one current connection and a connection serves at most one user.
type PresenceStore interface {
	// Set pairs userID with connectionID and returns the connection it replaced.
	Set(userID, connectionID string) (previous string, err error)
	// DeleteConnection removes the pairing whose value is connectionID and
	// returns the user it belonged to ("" when there was none).
	DeleteConnection(connectionID string) (userID string, err error)
	Get(userID string) (connectionID string, ok bool, err error)
	UserIDs() ([]string, error)
}

// MemoryPresence is the in-process PresenceStore.
type MemoryPresence struct {
	mu    sync.RWMutex
	users map[string]string
	conns map[string]string
}

func NewMemoryPresence() *MemoryPresence {
	return &MemoryPresence{
		users: make(map[string]string),
		conns: make(map[string]string),
	}
}

func (p *MemoryPresence) Set(userID, connectionID string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if prevUser, ok := p.conns[connectionID]; ok && prevUser != userID && p.users[prevUser] == connectionID {
		delete(p.users, prevUser)
	}
	prev := p.users[userID]
	if prev != "" && prev != connectionID {
		delete(p.conns, prev)
	}
	p.users[userID] = connectionID
	p.conns[connectionID] = userID
	return prev, nil
}

func (p *MemoryPresence) DeleteConnection(connectionID string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	userID, ok := p.conns[connectionID]
	if !ok {
		return "", nil
	}
	delete(p.conns, connectionID)
	if p.users[userID] != connectionID {
		return "", nil
	}
	delete(p.users, userID)
	return userID, nil
}

func (p *MemoryPresence) Get(userID string) (string, bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	conn, ok := p.users[userID]
	return conn, ok, nil
}

func (p *MemoryPresence) UserIDs() ([]string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ids := make([]string, 0, len(p.users))
	for id := range p.users {
		ids = append(ids, id)
	}
	return ids, nil
}
