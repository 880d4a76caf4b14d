package memory

import (
	"testing"

	"gift-quiz-service/internal/app"
	"gift-quiz-service/internal/gate"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore()

	play := app.NewPlay("play-1", sampleConfig(), gate.New(""))
	store.Put(play)
	if got, ok := store.Get("play-1"); !ok || got != play {
		t.Fatalf("expected play present")
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 play, got %d", store.Len())
	}

	store.Delete("play-1")
	if _, ok := store.Get("play-1"); ok {
		t.Fatalf("expected play removed")
	}
}
