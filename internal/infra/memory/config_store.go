package memory

import (
	"context"
	"fmt"
	"sync"

	"gift-quiz-service/internal/codec"
	"gift-quiz-service/internal/domain"
)

// ConfigStore keeps each owner's configuration as canonical JSON text, the way a
// browser keeps it under customQuizData.
type ConfigStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewConfigStore() *ConfigStore {
	return &ConfigStore{data: make(map[string][]byte)}
}

func (s *ConfigStore) LoadConfig(_ context.Context, ownerID string) (domain.QuizConfig, error) {
	s.mu.RLock()
	raw, ok := s.data[ownerID]
	s.mu.RUnlock()
	if !ok {
		return domain.QuizConfig{}, domain.ErrConfigNotFound
	}
	cfg, err := codec.Unmarshal(raw)
	if err != nil {
		return domain.QuizConfig{}, fmt.Errorf("load quiz config: %w", err)
	}
	return cfg, nil
}

func (s *ConfigStore) SaveConfig(_ context.Context, ownerID string, cfg domain.QuizConfig) error {
	raw, err := codec.Marshal(cfg)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.data[ownerID] = raw
	s.mu.Unlock()
	return nil
}

// SetRaw stores text as-is, bypassing validation (useful for tests/demos).
func (s *ConfigStore) SetRaw(ownerID string, raw []byte) {
	s.mu.Lock()
	s.data[ownerID] = append([]byte(nil), raw...)
	s.mu.Unlock()
}
