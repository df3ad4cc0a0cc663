package memory

import (
	"sync"

	"github.com/xxxsen/docchat/internal/model"
)

// Store holds per-session short-term conversation history. Sessions are
// independent of each other, so appends lock only the session they touch.
// History lives in process memory for the lifetime of the server; there is
// no persistence across restarts.
type Store struct {
	limit int

	mu       sync.RWMutex
	sessions map[string]*session
}

type session struct {
	mu       sync.Mutex
	messages []model.ChatMessage
}

func NewStore(limit int) *Store {
	if limit <= 0 {
		limit = 10
	}
	return &Store{
		limit:    limit,
		sessions: make(map[string]*session),
	}
}

// Get returns a copy of the session's history, oldest first. Unknown
// sessions yield an empty history.
func (s *Store) Get(sessionID string) []model.ChatMessage {
	s.mu.RLock()
	sess := s.sessions[sessionID]
	s.mu.RUnlock()
	if sess == nil {
		return nil
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	out := make([]model.ChatMessage, len(sess.messages))
	copy(out, sess.messages)
	return out
}

// Append adds a turn and evicts the oldest entries beyond the limit.
func (s *Store) Append(sessionID, role, content string) {
	s.mu.Lock()
	sess := s.sessions[sessionID]
	if sess == nil {
		sess = &session{}
		s.sessions[sessionID] = sess
	}
	s.mu.Unlock()

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.messages = append(sess.messages, model.ChatMessage{Role: role, Content: content})
	if overflow := len(sess.messages) - s.limit; overflow > 0 {
		sess.messages = append([]model.ChatMessage(nil), sess.messages[overflow:]...)
	}
}

// Clear removes the session entirely; clearing an unknown session is a
// no-op.
func (s *Store) Clear(sessionID string) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
}
