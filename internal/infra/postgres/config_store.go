package postgres

import (
	"context"
	"errors"
	"fmt"

	"gift-quiz-service/internal/codec"
	"gift-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// ConfigStore keeps owner configurations as JSONB in the quiz_configs table.
type ConfigStore struct {
	pool *pgxpool.Pool
}

func NewConfigStore(pool *pgxpool.Pool) *ConfigStore {
	return &ConfigStore{pool: pool}
}

func (s *ConfigStore) LoadConfig(ctx context.Context, ownerID string) (domain.QuizConfig, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM quiz_configs WHERE owner_id=$1`, ownerID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.QuizConfig{}, domain.ErrConfigNotFound
	}
	if err != nil {
		return domain.QuizConfig{}, fmt.Errorf("load quiz config: %w", err)
	}
	cfg, err := codec.Unmarshal(raw)
	if err != nil {
		return domain.QuizConfig{}, fmt.Errorf("unmarshal quiz config: %w", err)
	}
	return cfg, nil
}

func (s *ConfigStore) SaveConfig(ctx context.Context, ownerID string, cfg domain.QuizConfig) error {
	raw, err := codec.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO quiz_configs (owner_id, data, updated_at)
		VALUES ($1, $2::jsonb, now())
		ON CONFLICT (owner_id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		ownerID, string(raw))
	if err != nil {
		return fmt.Errorf("save quiz config: %w", err)
	}
	return nil
}
