package http

import (
	"log/slog"
	"net/http"
	"time"

	"gift-quiz-service/internal/app"
)

// NewRouter wires every endpoint of the service.
func NewRouter(service *app.QuizService, log *slog.Logger, allowedOrigin string) http.Handler {
	api := NewAPI(service, log)
	ws := NewWSHandler(service, log, allowedOrigin)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", api.HandleHealth)
	mux.HandleFunc("GET /api/quiz", api.HandleGetQuiz)
	mux.HandleFunc("PUT /api/quiz", api.HandlePutQuiz)
	mux.HandleFunc("PATCH /api/quiz", api.HandlePatchQuiz)
	mux.HandleFunc("POST /api/quiz/reset", api.HandleResetQuiz)
	mux.HandleFunc("POST /api/quiz/share", api.HandleShareOwner)
	mux.HandleFunc("POST /api/quiz/questions", api.HandleAddQuestion)
	mux.HandleFunc("PATCH /api/quiz/questions/{q}", api.HandlePatchQuestion)
	mux.HandleFunc("DELETE /api/quiz/questions/{q}", api.HandleRemoveQuestion)
	mux.HandleFunc("PUT /api/quiz/questions/{q}/correct", api.HandleSetCorrect)
	mux.HandleFunc("POST /api/quiz/questions/{q}/options", api.HandleAddOption)
	mux.HandleFunc("PATCH /api/quiz/questions/{q}/options/{o}", api.HandleSetOptionText)
	mux.HandleFunc("DELETE /api/quiz/questions/{q}/options/{o}", api.HandleRemoveOption)
	mux.HandleFunc("POST /api/share", api.HandleShare)
	mux.HandleFunc("GET /ws", ws.ServeWS)

	return logRequests(log, mux)
}

func logRequests(log *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Duration("took", time.Since(start)))
	})
}
