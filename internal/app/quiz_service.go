package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"gift-quiz-service/internal/codec"
	"gift-quiz-service/internal/domain"
	"gift-quiz-service/internal/gate"
	"github.com/google/uuid"
)

// StorageKey is the name the owner configuration is saved under.
const StorageKey = "customQuizData"

// ConfigStore persists the owner's configuration (in-memory, Redis, Postgres).
type ConfigStore interface {
	LoadConfig(ctx context.Context, ownerID string) (domain.QuizConfig, error)
	SaveConfig(ctx context.Context, ownerID string, cfg domain.QuizConfig) error
}

// SessionRepository abstracts where open plays are kept.
type SessionRepository interface {
	Put(play *Play)
	Get(playID string) (*Play, bool)
	Delete(playID string)
	Len() int
}

// Mode tells whether a session may edit its configuration.
type Mode string

const (
	// ModePlayer is a read-only session built from a shared token.
	ModePlayer Mode = "player"
	// ModeOwner is an editable session backed by the config store.
	ModeOwner Mode = "owner"
)

// Session is the state of one browsing context: its mode and its configuration.
type Session struct {
	Mode    Mode
	OwnerID string
	Holder  *ConfigHolder
}

// Option configures a QuizService.
type Option func(*QuizService)

// WithLogger sets the service logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *QuizService) { s.log = log }
}

// WithGateOptions passes options to every gate the service creates.
func WithGateOptions(opts ...gate.Option) Option {
	return func(s *QuizService) { s.gateOpts = append(s.gateOpts, opts...) }
}

// WithLocation sets the zone for unlock dates without an offset.
func WithLocation(loc *time.Location) Option {
	return func(s *QuizService) { s.loc = loc }
}

// WithShareBaseURL sets the public URL share links point to.
func WithShareBaseURL(base string) Option {
	return func(s *QuizService) { s.shareBase = base }
}

// WithIDGenerator replaces uuid.NewString for owner and play ids.
func WithIDGenerator(newID func() string) Option {
	return func(s *QuizService) { s.newID = newID }
}

// QuizService contains the quiz use cases.
type QuizService struct {
	configs   ConfigStore
	plays     SessionRepository
	log       *slog.Logger
	gateOpts  []gate.Option
	loc       *time.Location
	shareBase string
	newID     func() string

	editMu sync.Mutex
}

func NewQuizService(configs ConfigStore, plays SessionRepository, opts ...Option) *QuizService {
	s := &QuizService{
		configs:   configs,
		plays:     plays,
		log:       slog.Default(),
		loc:       time.Local,
		shareBase: "http://localhost:8080/",
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OpenSession builds the session of a browsing context. A non-empty token makes a
// read-only player session; a token that does not decode falls back to the default
// quiz. Without a token the owner's saved configuration is used, or the default
// when there is none (a new owner id is assigned when ownerID is empty).
func (s *QuizService) OpenSession(ctx context.Context, ownerID, token string) Session {
	if strings.TrimSpace(token) != "" {
		cfg, err := codec.Decode(token)
		if err != nil {
			s.log.Warn("shared quiz did not decode, using default", slog.String("error", err.Error()))
			cfg = domain.DefaultConfig()
		}
		return Session{Mode: ModePlayer, Holder: NewConfigHolder(cfg, true)}
	}

	if ownerID == "" {
		ownerID = s.newID()
	}
	return Session{Mode: ModeOwner, OwnerID: ownerID, Holder: NewConfigHolder(s.loadOwnerConfig(ctx, ownerID), false)}
}

func (s *QuizService) loadOwnerConfig(ctx context.Context, ownerID string) domain.QuizConfig {
	cfg, err := s.configs.LoadConfig(ctx, ownerID)
	switch {
	case err == nil:
		return cfg
	case errors.Is(err, domain.ErrConfigNotFound):
	default:
		s.log.Debug("saved quiz unreadable, using default",
			slog.String("owner", ownerID),
			slog.String("error", err.Error()))
	}
	return domain.DefaultConfig()
}

// Editor returns an editor for an owner session.
func (s *QuizService) Editor(sess Session) (*Editor, error) {
	if sess.Mode != ModeOwner {
		return nil, domain.ErrReadOnly
	}
	return NewEditor(sess.Holder, s.configs, sess.OwnerID, s.loc)
}

// Edit applies one editor operation to the owner's saved quiz and saves the result.
// Edits are serialized so two of them never read the same saved version.
func (s *QuizService) Edit(ctx context.Context, ownerID string, edit func(*Editor) (domain.QuizConfig, error)) (domain.QuizConfig, error) {
	if ownerID == "" {
		return domain.QuizConfig{}, domain.ErrMissingOwner
	}
	s.editMu.Lock()
	defer s.editMu.Unlock()

	editor, err := s.Editor(s.OpenSession(ctx, ownerID, ""))
	if err != nil {
		return domain.QuizConfig{}, err
	}
	cfg, err := edit(editor)
	if err != nil {
		return cfg, err
	}
	if err := editor.Save(ctx); err != nil {
		return cfg, err
	}
	s.log.Info("quiz saved", slog.String("owner", ownerID), slog.Int("questions", len(cfg.Questions)))
	return cfg, nil
}

// SaveConfig validates cfg and stores it for the owner.
func (s *QuizService) SaveConfig(ctx context.Context, ownerID string, cfg domain.QuizConfig) error {
	_, err := s.Edit(ctx, ownerID, func(e *Editor) (domain.QuizConfig, error) {
		return e.Replace(cfg)
	})
	return err
}

// ShareOwner returns the token and link of the owner's saved quiz.
func (s *QuizService) ShareOwner(ctx context.Context, ownerID string) (string, string, error) {
	if ownerID == "" {
		return "", "", domain.ErrMissingOwner
	}
	editor, err := s.Editor(s.OpenSession(ctx, ownerID, ""))
	if err != nil {
		return "", "", err
	}
	link, err := editor.Share(s.shareBase)
	if err != nil {
		return "", "", err
	}
	return codec.TokenFromURL(link), link, nil
}

// SetUnlockDate changes the unlock date of an owner session, saves it and moves the
// countdown of the session's running play to the new date.
func (s *QuizService) SetUnlockDate(ctx context.Context, sess Session, play *Play, unlock string) (domain.QuizConfig, error) {
	editor, err := s.Editor(sess)
	if err != nil {
		return domain.QuizConfig{}, err
	}
	cfg, err := editor.SetUnlockDate(unlock)
	if err != nil {
		return cfg, err
	}
	if err := editor.Save(ctx); err != nil {
		return cfg, err
	}
	play.Reschedule(cfg.UnlockDate)
	return cfg, nil
}

// Location is the zone unlock dates without an offset are read in.
func (s *QuizService) Location() *time.Location {
	return s.loc
}

// Share encodes cfg and returns the token and the link carrying it.
func (s *QuizService) Share(cfg domain.QuizConfig) (string, string, error) {
	if err := cfg.Validate(); err != nil {
		return "", "", err
	}
	token, err := codec.Encode(cfg)
	if err != nil {
		return "", "", err
	}
	link, err := codec.ShareURL(s.shareBase, cfg)
	if err != nil {
		return "", "", err
	}
	return token, link, nil
}

// NewGate builds the gate for an unlock date with the service's clock options.
func (s *QuizService) NewGate(unlock string) *gate.Gate {
	opts := append([]gate.Option{gate.WithLocation(s.loc)}, s.gateOpts...)
	return gate.New(unlock, opts...)
}

// StartPlay opens a play of the session's quiz and starts its countdown.
// The caller must invoke EndPlay to release it.
func (s *QuizService) StartPlay(_ context.Context, sess Session) *Play {
	cfg := sess.Holder.Get()
	play := NewPlay(s.newID(), cfg, s.NewGate(cfg.UnlockDate))
	s.plays.Put(play)
	play.Open()
	s.log.Debug("play opened",
		slog.String("play", play.ID()),
		slog.String("mode", string(sess.Mode)),
		slog.Bool("locked", play.Locked()),
		slog.Int("open", s.plays.Len()))
	return play
}

// Play looks up an open play.
func (s *QuizService) Play(playID string) (*Play, error) {
	play, ok := s.plays.Get(playID)
	if !ok {
		return nil, fmt.Errorf("play %s: %w", playID, domain.ErrSessionNotFound)
	}
	return play, nil
}

// EndPlay stops the play's countdown and forgets it.
func (s *QuizService) EndPlay(playID string) {
	play, ok := s.plays.Get(playID)
	if !ok {
		return
	}
	play.Close()
	s.plays.Delete(playID)
}
