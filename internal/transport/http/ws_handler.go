package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"

	"gift-quiz-service/internal/app"
	"github.com/gorilla/websocket"
)

const maxMessageBytes = 4 << 10

type WSHandler struct {
	service  *app.QuizService
	log      *slog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler accepts connections from allowedOrigin only, or from anywhere when it is empty.
func NewWSHandler(service *app.QuizService, log *slog.Logger, allowedOrigin string) *WSHandler {
	return &WSHandler{
		service: service,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigin),
		},
	}
}

func originChecker(allowed string) func(r *http.Request) bool {
	if allowed == "" {
		return func(*http.Request) bool { return true }
	}
	want, err := url.Parse(allowed)
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		got, perr := url.Parse(origin)
		return err == nil && perr == nil && got.Scheme == want.Scheme && got.Host == want.Host
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	OptionIndex *int `json:"optionIndex"`
}

type unlockPayload struct {
	UnlockDate string `json:"unlockDate"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type sessionPayload struct {
	Mode    app.Mode `json:"mode"`
	OwnerID string   `json:"ownerId,omitempty"`
	PlayID  string   `json:"playId"`
}

// ServeWS upgrades the request and runs one play of the quiz over the connection.
// The countdown is streamed while the quiz is locked; the play ends with the connection.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageBytes)

	sess := h.service.OpenSession(r.Context(), ownerParam(r), tokenParam(r))
	play := h.service.StartPlay(r.Context(), sess)
	defer h.service.EndPlay(play.ID())

	events, cancel := play.Subscribe()
	defer cancel()

	send := make(chan outboundMessage, 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	eventsDone := make(chan struct{})

	// Single writer; gorilla connections allow one concurrent writer.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Debug("ws write failed", slog.String("play", play.ID()), slog.String("error", err.Error()))
				// Unblock the reader and keep draining so no sender is stuck.
				_ = conn.Close()
				for range send {
				}
				return
			}
		}
	}()

	send <- outboundMessage{Type: "session", Payload: sessionPayload{Mode: sess.Mode, OwnerID: sess.OwnerID, PlayID: play.ID()}}

	go func() {
		defer close(eventsDone)
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				select {
				case send <- eventMessage(ev):
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if msg, ok := h.handle(r.Context(), sess, play, inbound); ok {
			send <- msg
		}
	}

	close(closeSignals)
	<-eventsDone
	close(send)
	<-writerDone
}

// handle applies one client action. State changes reach the client through the
// play's own broadcast, so only answers and errors produce a direct reply.
func (h *WSHandler) handle(ctx context.Context, sess app.Session, play *app.Play, inbound inboundMessage) (outboundMessage, bool) {
	var err error
	switch inbound.Type {
	case "start":
		_, err = play.Start()
	case "answer":
		var payload answerPayload
		if jerr := json.Unmarshal(inbound.Payload, &payload); jerr != nil || payload.OptionIndex == nil {
			return errorMessage("invalid answer payload", "bad_request"), true
		}
		result, aerr := play.Answer(*payload.OptionIndex)
		if aerr == nil {
			return outboundMessage{Type: "answerResult", Payload: result}, true
		}
		err = aerr
	case "next":
		_, err = play.Next()
	case "restart":
		play.Restart()
	case "setUnlockDate":
		// Owner preview: the new date is saved and the running countdown follows it.
		var payload unlockPayload
		if jerr := json.Unmarshal(inbound.Payload, &payload); jerr != nil {
			return errorMessage("invalid unlock payload", "bad_request"), true
		}
		_, err = h.service.SetUnlockDate(ctx, sess, play, payload.UnlockDate)
	default:
		return errorMessage("unsupported message type", "bad_request"), true
	}
	if err != nil {
		return errorMessage(err.Error(), errorCode(err)), true
	}
	return outboundMessage{}, false
}

func eventMessage(ev app.Event) outboundMessage {
	switch ev.Type {
	case app.EventCountdown:
		return outboundMessage{Type: "countdown", Payload: ev.Countdown}
	case app.EventUnlocked:
		return outboundMessage{Type: "unlocked", Payload: ev.State}
	default:
		return outboundMessage{Type: "state", Payload: ev.State}
	}
}

func errorMessage(message, code string) outboundMessage {
	return outboundMessage{Type: "error", Payload: errorResponse{Error: message, Code: code}}
}
