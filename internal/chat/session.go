package chat

import (
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/zombor/receipt-chat/internal/receipt"
)

// ErrSessionNotFound is returned for unknown session IDs.
var ErrSessionNotFound = errors.New("session not found")

// Roles of chat messages
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat turn
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Session holds one uploaded receipt and its chat history
type Session struct {
	ID          string         `json:"id"`
	Receipt     receipt.Record `json:"receipt"`
	Filename    string         `json:"filename,omitempty"`
	ContentType string         `json:"content_type,omitempty"`
	History     []Message      `json:"history"`
	CreatedAt   time.Time      `json:"created_at"`
}

func (s *Session) clone() *Session {
	c := *s
	c.History = slices.Clone(s.History)
	if c.History == nil {
		c.History = []Message{}
	}
	return &c
}

// SessionStore keeps sessions in memory. Each session is isolated; callers
// only ever see copies.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionStore returns an empty store
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*Session)}
}

// Put stores a session, replacing any with the same ID
func (s *SessionStore) Put(session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session.clone()
}

// Get returns a copy of a session
func (s *SessionStore) Get(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session.clone(), nil
}

// Append adds messages to a session's history
func (s *SessionStore) Append(id string, msgs ...Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	session.History = append(session.History, msgs...)
	return nil
}

// Delete removes a session and returns its last state
func (s *SessionStore) Delete(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	delete(s.sessions, id)
	return session, nil
}

// Len returns the number of live sessions
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
