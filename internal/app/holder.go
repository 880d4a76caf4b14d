package app

import (
	"sync"

	"gift-quiz-service/internal/domain"
)

// ConfigHolder owns the single configuration of a session. Every change replaces
// the whole value, so a QuizConfig handed out by Get never changes underneath the caller.
type ConfigHolder struct {
	mu       sync.RWMutex
	cfg      domain.QuizConfig
	readOnly bool
}

func NewConfigHolder(cfg domain.QuizConfig, readOnly bool) *ConfigHolder {
	return &ConfigHolder{cfg: cfg.Clone(), readOnly: readOnly}
}

// Get returns a copy of the current configuration.
func (h *ConfigHolder) Get() domain.QuizConfig {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cfg.Clone()
}

// ReadOnly reports whether the holder belongs to a player session.
func (h *ConfigHolder) ReadOnly() bool {
	return h.readOnly
}

// Replace swaps in a new validated configuration.
func (h *ConfigHolder) Replace(cfg domain.QuizConfig) error {
	return h.Update(func(c *domain.QuizConfig) error {
		*c = cfg.Clone()
		return nil
	})
}

// Update applies fn to a copy and stores the copy if fn succeeds and the result is
// valid. The previous value is kept on any error.
func (h *ConfigHolder) Update(fn func(*domain.QuizConfig) error) error {
	if h.readOnly {
		return domain.ErrReadOnly
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	next := h.cfg.Clone()
	if err := fn(&next); err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}
	h.cfg = next
	return nil
}
