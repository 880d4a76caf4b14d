package app_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"gift-quiz-service/internal/app"
	"gift-quiz-service/internal/codec"
	"gift-quiz-service/internal/domain"
	"gift-quiz-service/internal/gate"
	"gift-quiz-service/internal/infra/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSessionPlayerFromToken(t *testing.T) {
	service, store, _ := newTestService(t)
	cfg := domain.DefaultConfig()
	cfg.Title = "❤️ Olá"
	token, err := codec.Encode(cfg)
	require.NoError(t, err)

	sess := service.OpenSession(context.Background(), "owner-1", token)
	assert.Equal(t, app.ModePlayer, sess.Mode)
	assert.True(t, sess.Holder.ReadOnly())
	assert.Equal(t, "❤️ Olá", sess.Holder.Get().Title)

	_, err = service.Editor(sess)
	assert.ErrorIs(t, err, domain.ErrReadOnly)

	_, err = store.LoadConfig(context.Background(), "owner-1")
	assert.ErrorIs(t, err, domain.ErrConfigNotFound, "player configs are never persisted")
}

func TestOpenSessionMalformedTokenFallsBackToDefault(t *testing.T) {
	service, _, _ := newTestService(t)

	sess := service.OpenSession(context.Background(), "", "not-base64!!")
	assert.Equal(t, app.ModePlayer, sess.Mode)
	assert.Equal(t, domain.DefaultConfig(), sess.Holder.Get())
}

func TestOpenSessionOwner(t *testing.T) {
	ctx := context.Background()
	service, store, _ := newTestService(t)

	fresh := service.OpenSession(ctx, "", "")
	assert.Equal(t, app.ModeOwner, fresh.Mode)
	assert.Equal(t, "id-1", fresh.OwnerID)
	assert.Equal(t, domain.DefaultConfig(), fresh.Holder.Get())

	saved := domain.BlankConfig()
	saved.Title = "saved"
	require.NoError(t, store.SaveConfig(ctx, "owner-1", saved))
	sess := service.OpenSession(ctx, "owner-1", "")
	assert.Equal(t, "saved", sess.Holder.Get().Title)

	store.SetRaw("owner-2", []byte("{corrupt"))
	corrupt := service.OpenSession(ctx, "owner-2", "")
	assert.Equal(t, domain.DefaultConfig(), corrupt.Holder.Get())
}

func TestSaveConfig(t *testing.T) {
	ctx := context.Background()
	service, store, _ := newTestService(t)

	cfg := domain.BlankConfig()
	cfg.UnlockDate = " 2030-01-01T00:00 "
	require.NoError(t, service.SaveConfig(ctx, "owner-1", cfg))
	got, err := store.LoadConfig(ctx, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, "2030-01-01T00:00", got.UnlockDate)

	cfg.UnlockDate = "someday"
	assert.ErrorIs(t, service.SaveConfig(ctx, "owner-1", cfg), domain.ErrInvalidUnlockDate)

	cfg.UnlockDate = ""
	cfg.Questions = nil
	assert.ErrorIs(t, service.SaveConfig(ctx, "owner-1", cfg), domain.ErrInvalidConfig)
	assert.ErrorIs(t, service.SaveConfig(ctx, "", domain.BlankConfig()), domain.ErrMissingOwner)
}

func TestShare(t *testing.T) {
	service, _, _ := newTestService(t)
	cfg := domain.DefaultConfig()

	token, link, err := service.Share(cfg)
	require.NoError(t, err)
	assert.Equal(t, "https://gift.example/quiz?data="+token, link)

	decoded, err := codec.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, cfg, decoded)
}

func TestStartPlayLockedUntilUnlockDate(t *testing.T) {
	ctx := context.Background()
	service, _, clock := newTestService(t)

	cfg := domain.DefaultConfig()
	cfg.UnlockDate = clock.Now().Add(2 * time.Second).Format(time.RFC3339)
	token, err := codec.Encode(cfg)
	require.NoError(t, err)

	play := service.StartPlay(ctx, service.OpenSession(ctx, "", token))
	defer service.EndPlay(play.ID())

	events, cancel := play.Subscribe()
	defer cancel()
	initial := <-events
	require.Equal(t, app.EventState, initial.Type)
	assert.True(t, initial.State.Locked)
	require.NotNil(t, initial.State.Countdown)
	assert.Equal(t, int64(2), initial.State.Countdown.Seconds)

	_, err = play.Start()
	assert.ErrorIs(t, err, domain.ErrQuizLocked)

	clock.Tick(time.Second)
	ev := <-events
	assert.Equal(t, app.EventCountdown, ev.Type)
	assert.Equal(t, gate.Countdown{Seconds: 1}, ev.Countdown)

	clock.Tick(time.Second)
	ev = <-events
	assert.Equal(t, app.EventUnlocked, ev.Type)
	assert.False(t, ev.State.Locked)

	snap, err := play.Start()
	require.NoError(t, err)
	assert.Equal(t, app.ScreenQuestion, snap.Screen)
}

func TestEndPlayReleasesPlay(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(t)

	play := service.StartPlay(ctx, service.OpenSession(ctx, "", ""))
	got, err := service.Play(play.ID())
	require.NoError(t, err)
	assert.Same(t, play, got)

	events, _ := play.Subscribe()
	<-events

	service.EndPlay(play.ID())
	service.EndPlay(play.ID())

	_, err = service.Play(play.ID())
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	_, open := <-events
	assert.False(t, open, "subscriptions close with the play")
}

func TestEditPersistsEditorOperations(t *testing.T) {
	ctx := context.Background()
	service, store, _ := newTestService(t)

	cfg, err := service.Edit(ctx, "owner-1", (*app.Editor).AddQuestion)
	require.NoError(t, err)
	assert.Len(t, cfg.Questions, len(domain.DefaultConfig().Questions)+1)

	_, err = service.Edit(ctx, "owner-1", func(e *app.Editor) (domain.QuizConfig, error) {
		return e.SetCorrectOption(0, 3)
	})
	require.NoError(t, err)

	saved, err := store.LoadConfig(ctx, "owner-1")
	require.NoError(t, err)
	assert.Len(t, saved.Questions, len(domain.DefaultConfig().Questions)+1)
	assert.Equal(t, 3, saved.Questions[0].CorrectIndex)

	_, err = service.Edit(ctx, "owner-1", func(e *app.Editor) (domain.QuizConfig, error) {
		return e.RemoveOption(0, 9)
	})
	assert.ErrorIs(t, err, domain.ErrOptionNotFound)
	saved, err = store.LoadConfig(ctx, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, 3, saved.Questions[0].CorrectIndex, "a failed edit saves nothing")

	_, err = service.Edit(ctx, "", (*app.Editor).Reset)
	assert.ErrorIs(t, err, domain.ErrMissingOwner)
}

func TestShareOwner(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(t)

	cfg := domain.BlankConfig()
	cfg.Title = "compartilhado"
	require.NoError(t, service.SaveConfig(ctx, "owner-1", cfg))

	token, link, err := service.ShareOwner(ctx, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, "https://gift.example/quiz?data="+token, link)
	decoded, err := codec.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, "compartilhado", decoded.Title)
}

func TestSetUnlockDateReschedulesPlay(t *testing.T) {
	ctx := context.Background()
	service, store, clock := newTestService(t)

	sess := service.OpenSession(ctx, "owner-1", "")
	play := service.StartPlay(ctx, sess)
	defer service.EndPlay(play.ID())
	require.False(t, play.Locked())

	events, cancel := play.Subscribe()
	defer cancel()
	<-events

	unlock := clock.Now().Add(time.Second).Format(time.RFC3339)
	_, err := service.SetUnlockDate(ctx, sess, play, unlock)
	require.NoError(t, err)
	assert.True(t, play.Locked())
	saved, err := store.LoadConfig(ctx, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, unlock, saved.UnlockDate)

	ev := <-events
	assert.True(t, ev.State.Locked)

	clock.Tick(time.Second)
	ev = <-events
	assert.Equal(t, app.EventUnlocked, ev.Type)

	player := service.OpenSession(ctx, "", "not-base64!!")
	_, err = service.SetUnlockDate(ctx, player, play, "")
	assert.ErrorIs(t, err, domain.ErrReadOnly)
}

// testClock is a fake clock whose Tick advances time and fires the gate's ticker.
type testClock struct {
	mu     sync.Mutex
	now    time.Time
	ticker chan time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Tick(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now
	c.mu.Unlock()
	c.ticker <- now
}

type chanTicker struct{ ch chan time.Time }

func (t chanTicker) C() <-chan time.Time { return t.ch }
func (t chanTicker) Stop()               {}

func newTestService(t *testing.T) (*app.QuizService, *memory.ConfigStore, *testClock) {
	t.Helper()
	clock := &testClock{
		now:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		ticker: make(chan time.Time),
	}
	ids := 0
	store := memory.NewConfigStore()
	service := app.NewQuizService(store, memory.NewSessionStore(),
		app.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		app.WithLocation(time.UTC),
		app.WithShareBaseURL("https://gift.example/quiz"),
		app.WithIDGenerator(func() string {
			ids++
			return "id-" + string(rune('0'+ids))
		}),
		app.WithGateOptions(
			gate.WithClock(clock.Now),
			gate.WithTicker(func(time.Duration) gate.Ticker { return chanTicker{ch: clock.ticker} }),
		),
	)
	return service, store, clock
}
