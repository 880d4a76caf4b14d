package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"gift-quiz-service/internal/app"
	"gift-quiz-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// ConfigRepository caches configurations with TTL in front of a slower store
// (Redis, Postgres) to avoid repeated round trips for the same owner.
type ConfigRepository struct {
	backing app.ConfigStore
	ttl     time.Duration
	clock   func() time.Time
	sf      singleflight.Group
	rnd     *rand.Rand
	rndMu   sync.Mutex

	mu    sync.RWMutex
	cache map[string]cachedConfig
}

type cachedConfig struct {
	cfg       domain.QuizConfig
	expiresAt time.Time
}

func NewConfigRepository(backing app.ConfigStore, ttl time.Duration) *ConfigRepository {
	return &ConfigRepository{
		backing: backing,
		ttl:     ttl,
		clock:   time.Now,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:   make(map[string]cachedConfig),
	}
}

func (r *ConfigRepository) LoadConfig(ctx context.Context, ownerID string) (domain.QuizConfig, error) {
	if cfg, ok := r.cached(ownerID); ok {
		return cfg, nil
	}

	result, err, _ := r.sf.Do(ownerID, func() (interface{}, error) {
		if cfg, ok := r.cached(ownerID); ok {
			return cfg, nil
		}
		cfg, err := r.backing.LoadConfig(ctx, ownerID)
		if err != nil {
			return domain.QuizConfig{}, err
		}
		r.store(ownerID, cfg)
		return cfg, nil
	})
	if err != nil {
		return domain.QuizConfig{}, err
	}
	return result.(domain.QuizConfig).Clone(), nil
}

// SaveConfig writes through to the backing store and refreshes the cache.
func (r *ConfigRepository) SaveConfig(ctx context.Context, ownerID string, cfg domain.QuizConfig) error {
	if err := r.backing.SaveConfig(ctx, ownerID, cfg); err != nil {
		r.mu.Lock()
		delete(r.cache, ownerID)
		r.mu.Unlock()
		return err
	}
	r.store(ownerID, cfg)
	return nil
}

func (r *ConfigRepository) cached(ownerID string) (domain.QuizConfig, bool) {
	now := r.clock()
	r.mu.RLock()
	defer r.mu.RUnlock()
	if entry, ok := r.cache[ownerID]; ok && entry.expiresAt.After(now) {
		return entry.cfg.Clone(), true
	}
	return domain.QuizConfig{}, false
}

func (r *ConfigRepository) store(ownerID string, cfg domain.QuizConfig) {
	expiresAt := r.clock().Add(r.ttlWithJitter())
	r.mu.Lock()
	r.cache[ownerID] = cachedConfig{cfg: cfg.Clone(), expiresAt: expiresAt}
	r.mu.Unlock()
}

func (r *ConfigRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
