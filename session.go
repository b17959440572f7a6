package main

import (
	"sync"
)

const maxSessions = 200

// Session is one pilot's arena: a Game plus its reward ledger
type Session struct {
	ID     string
	Game   *Game
	Ledger *RewardLedger
}

// SessionManager handles creation and teardown of arena sessions
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	db       *DB
}

// NewSessionManager creates a new SessionManager
func NewSessionManager(db *DB) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
		db:       db,
	}
}

// CreateSession spins up a new arena with its own game loop. Returns nil
// if the session limit is reached.
func (sm *SessionManager) CreateSession() *Session {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if len(sm.sessions) >= maxSessions {
		return nil
	}

	id := GenerateUUID()
	ledger := NewRewardLedger(sm.db, 0, id)
	game := NewGame(NewTrackingScene(), ledger)
	sess := &Session{
		ID:     id,
		Game:   game,
		Ledger: ledger,
	}
	sm.sessions[id] = sess
	go game.Run()
	return sess
}

// GetSession returns a session by ID
func (sm *SessionManager) GetSession(id string) *Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sessions[id]
}

// RemoveSession stops and discards a session
func (sm *SessionManager) RemoveSession(id string) {
	sm.mu.Lock()
	sess, ok := sm.sessions[id]
	if ok {
		delete(sm.sessions, id)
	}
	sm.mu.Unlock()
	if !ok {
		return
	}
	sess.Game.Stop()
	sess.Ledger.Stop()
}

// SessionCount returns the number of live arenas
func (sm *SessionManager) SessionCount() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}
