package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"gift-quiz-service/internal/codec"
	"gift-quiz-service/internal/domain"
	"gift-quiz-service/internal/gate"
	"github.com/gorilla/websocket"
)

func TestWebSocketPlayFlow(t *testing.T) {
	router, _ := newTestRouter(t)
	conn := dial(t, router, "")

	session := readUntil(t, conn, "session")
	if session["mode"] != "owner" || session["playId"] == "" {
		t.Fatalf("unexpected session payload %v", session)
	}
	state := readUntil(t, conn, "state")
	if state["screen"] != "start" || state["locked"] != false {
		t.Fatalf("unexpected initial state %v", state)
	}

	send(t, conn, "start", nil)
	readState(t, conn, func(s map[string]any) bool { return s["screen"] == "question" })

	// First default question: option 1 is correct.
	send(t, conn, "answer", map[string]any{"optionIndex": 0})
	result := readUntil(t, conn, "answerResult")
	if result["correct"] != false || result["tryAgain"] != true {
		t.Fatalf("expected try again, got %v", result)
	}

	send(t, conn, "answer", map[string]any{"optionIndex": 1})
	result = readUntil(t, conn, "answerResult")
	if result["correct"] != true || result["explanation"] == "" {
		t.Fatalf("expected correct answer with explanation, got %v", result)
	}

	send(t, conn, "answer", map[string]any{"optionIndex": 1})
	errPayload := readUntil(t, conn, "error")
	if errPayload["code"] != "already_answered" {
		t.Fatalf("expected already_answered, got %v", errPayload)
	}

	send(t, conn, "next", nil)
	readState(t, conn, func(s map[string]any) bool { return s["questionIndex"] == float64(1) })

	send(t, conn, "restart", nil)
	state = readState(t, conn, func(s map[string]any) bool { return s["screen"] == "start" })
	if state["score"] != float64(0) {
		t.Fatalf("expected fresh start screen, got %v", state)
	}
}

func TestWebSocketRejectsBadMessages(t *testing.T) {
	router, _ := newTestRouter(t)
	conn := dial(t, router, "")
	readUntil(t, conn, "state")

	send(t, conn, "dance", nil)
	if got := readUntil(t, conn, "error"); got["code"] != "bad_request" {
		t.Fatalf("unexpected error %v", got)
	}
	send(t, conn, "answer", map[string]any{"option": 1})
	if got := readUntil(t, conn, "error"); got["code"] != "bad_request" {
		t.Fatalf("unexpected error %v", got)
	}
	send(t, conn, "next", nil)
	if got := readUntil(t, conn, "error"); got["code"] != "invalid_transition" {
		t.Fatalf("unexpected error %v", got)
	}
}

func TestWebSocketCountdownUnlocks(t *testing.T) {
	clock := &stepClock{now: testNow}
	ticks := make(chan time.Time)
	router, _ := newTestRouter(t,
		gate.WithClock(clock.Now),
		gate.WithTicker(func(time.Duration) gate.Ticker { return chanTicker(ticks) }),
	)

	cfg := domain.DefaultConfig()
	cfg.UnlockDate = testNow.Add(2 * time.Second).Format(time.RFC3339)
	token, err := codec.Encode(cfg)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	conn := dial(t, router, "data="+token)

	if session := readUntil(t, conn, "session"); session["mode"] != "player" {
		t.Fatalf("expected player session, got %v", session)
	}
	if state := readUntil(t, conn, "state"); state["locked"] != true {
		t.Fatalf("expected locked state, got %v", state)
	}

	send(t, conn, "start", nil)
	if got := readUntil(t, conn, "error"); got["code"] != "locked" {
		t.Fatalf("expected locked error, got %v", got)
	}

	clock.Advance(time.Second)
	ticks <- clock.Now()
	countdown := readUntil(t, conn, "countdown")
	if countdown["seconds"] != float64(1) {
		t.Fatalf("countdown = %v", countdown)
	}

	clock.Advance(time.Second)
	ticks <- clock.Now()
	unlocked := readUntil(t, conn, "unlocked")
	if unlocked["locked"] != false {
		t.Fatalf("expected unlocked state, got %v", unlocked)
	}

	send(t, conn, "start", nil)
	readState(t, conn, func(s map[string]any) bool { return s["screen"] == "question" })
}

func TestWebSocketOwnerMovesUnlockDate(t *testing.T) {
	router, store := newTestRouter(t)
	conn := dial(t, router, "owner=o1")
	readUntil(t, conn, "state")

	unlock := testNow.Add(time.Hour).Format(time.RFC3339)
	send(t, conn, "setUnlockDate", map[string]any{"unlockDate": unlock})
	readState(t, conn, func(s map[string]any) bool { return s["locked"] == true })

	send(t, conn, "start", nil)
	if got := readUntil(t, conn, "error"); got["code"] != "locked" {
		t.Fatalf("expected locked error, got %v", got)
	}
	saved, err := store.LoadConfig(context.Background(), "o1")
	if err != nil || saved.UnlockDate != unlock {
		t.Fatalf("unlock date not saved: %q %v", saved.UnlockDate, err)
	}

	send(t, conn, "setUnlockDate", map[string]any{"unlockDate": ""})
	readState(t, conn, func(s map[string]any) bool { return s["locked"] == false })
	send(t, conn, "start", nil)
	readState(t, conn, func(s map[string]any) bool { return s["screen"] == "question" })
}

func TestWebSocketPlayerCannotMoveUnlockDate(t *testing.T) {
	router, _ := newTestRouter(t)
	token, err := codec.Encode(domain.DefaultConfig())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	conn := dial(t, router, "data="+token)
	readUntil(t, conn, "state")

	send(t, conn, "setUnlockDate", map[string]any{"unlockDate": "2030-01-01T00:00"})
	if got := readUntil(t, conn, "error"); got["code"] != "read_only" {
		t.Fatalf("expected read_only, got %v", got)
	}
}

func TestOriginChecker(t *testing.T) {
	check := originChecker("https://gift.example")
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	if !check(req) {
		t.Fatalf("requests without origin are allowed")
	}
	req.Header.Set("Origin", "https://gift.example")
	if !check(req) {
		t.Fatalf("expected configured origin to pass")
	}
	req.Header.Set("Origin", "https://evil.example")
	if check(req) {
		t.Fatalf("expected foreign origin to be rejected")
	}
}

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type chanTicker chan time.Time

func (t chanTicker) C() <-chan time.Time { return t }
func (t chanTicker) Stop()               {}

func dial(t *testing.T, handler http.Handler, query string) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	u := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	if query != "" {
		u += "?" + query
	}
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	if err := conn.WriteJSON(map[string]any{"type": typ, "payload": payload}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

// readState waits for a state broadcast satisfying match. Broadcasts and direct
// replies travel on different goroutines, so earlier states may still be in flight.
func readState(t *testing.T, conn *websocket.Conn, match func(map[string]any) bool) map[string]any {
	t.Helper()
	for i := 0; i < 20; i++ {
		if state := readUntil(t, conn, "state"); match(state) {
			return state
		}
	}
	t.Fatalf("no matching state message")
	return nil
}

// readUntil skips messages of other types and returns the payload of the first one of typ.
func readUntil(t *testing.T, conn *websocket.Conn, typ string) map[string]any {
	t.Helper()
	for i := 0; i < 20; i++ {
		var msg struct {
			Type    string          `json:"type"`
			Payload json.RawMessage `json:"payload"`
		}
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read while waiting for %s: %v", typ, err)
		}
		if msg.Type != typ {
			continue
		}
		payload := map[string]any{}
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			t.Fatalf("decode %s payload: %v", typ, err)
		}
		return payload
	}
	t.Fatalf("no %s message", typ)
	return nil
}
