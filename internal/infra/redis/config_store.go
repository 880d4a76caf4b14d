package redis

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"gift-quiz-service/internal/app"
	"gift-quiz-service/internal/codec"
	"gift-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// ConfigStore keeps owner configurations in Redis as canonical JSON text:
//
//	SET customQuizData:{ownerID} {json}
//
// With a backing store it acts as a read-through, write-through cache whose keys
// expire after ttl; without one Redis is the store of record and keys never expire.
type ConfigStore struct {
	client  *redis.Client
	backing app.ConfigStore
	ttl     time.Duration
	sf      singleflight.Group
	rndMu   sync.Mutex
	rnd     *rand.Rand
}

func NewConfigStore(client *redis.Client, backing app.ConfigStore, ttl time.Duration) *ConfigStore {
	return &ConfigStore{
		client:  client,
		backing: backing,
		ttl:     ttl,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *ConfigStore) LoadConfig(ctx context.Context, ownerID string) (domain.QuizConfig, error) {
	raw, err := s.client.Get(ctx, s.key(ownerID)).Bytes()
	if err == nil {
		cfg, err := codec.Unmarshal(raw)
		if err != nil {
			return domain.QuizConfig{}, fmt.Errorf("load quiz config: %w", err)
		}
		return cfg, nil
	}
	if !errors.Is(err, redis.Nil) {
		return domain.QuizConfig{}, fmt.Errorf("redis get: %w", err)
	}
	if s.backing == nil {
		return domain.QuizConfig{}, domain.ErrConfigNotFound
	}

	result, err, _ := s.sf.Do(ownerID, func() (interface{}, error) {
		cfg, err := s.backing.LoadConfig(ctx, ownerID)
		if err != nil {
			return domain.QuizConfig{}, err
		}
		// best-effort cache fill
		_ = s.put(ctx, ownerID, cfg)
		return cfg, nil
	})
	if err != nil {
		return domain.QuizConfig{}, err
	}
	return result.(domain.QuizConfig).Clone(), nil
}

func (s *ConfigStore) SaveConfig(ctx context.Context, ownerID string, cfg domain.QuizConfig) error {
	if s.backing != nil {
		if err := s.backing.SaveConfig(ctx, ownerID, cfg); err != nil {
			_ = s.client.Del(ctx, s.key(ownerID)).Err()
			return err
		}
	}
	if err := s.put(ctx, ownerID, cfg); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *ConfigStore) put(ctx context.Context, ownerID string, cfg domain.QuizConfig) error {
	raw, err := codec.Marshal(cfg)
	if err != nil {
		return err
	}
	var ttl time.Duration
	if s.backing != nil {
		ttl = s.ttlWithJitter()
	}
	return s.client.Set(ctx, s.key(ownerID), raw, ttl).Err()
}

func (s *ConfigStore) key(ownerID string) string {
	return app.StorageKey + ":" + ownerID
}

func (s *ConfigStore) ttlWithJitter() time.Duration {
	if s.ttl <= 0 {
		return 0
	}
	jitterMax := int64(s.ttl) / 10
	s.rndMu.Lock()
	defer s.rndMu.Unlock()
	return s.ttl + time.Duration(s.rnd.Int63n(jitterMax+1))
}
