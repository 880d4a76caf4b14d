package memory

import (
	"sync"

	"gift-quiz-service/internal/app"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
type SessionStore struct {
	mu    sync.RWMutex
	plays map[string]*app.Play
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		plays: make(map[string]*app.Play),
	}
}

func (s *SessionStore) Put(play *app.Play) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plays[play.ID()] = play
}

func (s *SessionStore) Get(playID string) (*app.Play, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	play, ok := s.plays[playID]
	return play, ok
}

func (s *SessionStore) Delete(playID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.plays, playID)
}

// Len reports how many plays are open.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.plays)
}
