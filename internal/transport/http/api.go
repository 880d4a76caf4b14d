package http

import (
	"log/slog"
	"net/http"
	"time"

	"gift-quiz-service/internal/app"
	"gift-quiz-service/internal/domain"
	"gift-quiz-service/internal/gate"
)

// API serves the configuration endpoints used by the editor and the player page.
type API struct {
	service *app.QuizService
	log     *slog.Logger
}

func NewAPI(service *app.QuizService, log *slog.Logger) *API {
	return &API{service: service, log: log}
}

type gateResponse struct {
	State    string     `json:"state"`
	UnlockAt *time.Time `json:"unlockAt,omitempty"`
	// UnlockLocal is UnlockAt in the service zone, in the editor's datetime-local form.
	UnlockLocal string         `json:"unlockLocal,omitempty"`
	Countdown   gate.Countdown `json:"countdown"`
}

type quizResponse struct {
	Mode    app.Mode          `json:"mode"`
	OwnerID string            `json:"ownerId,omitempty"`
	Config  domain.QuizConfig `json:"config"`
	Gate    gateResponse      `json:"gate"`
}

type shareResponse struct {
	Token string `json:"token"`
	URL   string `json:"url"`
}

func (a *API) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// HandleGetQuiz resolves the quiz a page should show: the shared one when data is
// present, the owner's saved one otherwise.
func (a *API) HandleGetQuiz(w http.ResponseWriter, r *http.Request) {
	sess := a.service.OpenSession(r.Context(), ownerParam(r), tokenParam(r))
	cfg := sess.Holder.Get()
	writeJSON(w, http.StatusOK, quizResponse{
		Mode:    sess.Mode,
		OwnerID: sess.OwnerID,
		Config:  cfg,
		Gate:    a.gateView(cfg),
	})
}

func (a *API) gateView(cfg domain.QuizConfig) gateResponse {
	g := a.service.NewGate(cfg.UnlockDate)
	view := gateResponse{State: g.State().String(), Countdown: g.Remaining()}
	if target, locked := g.Target(); locked {
		view.UnlockAt = &target
		view.UnlockLocal = gate.FormatUnlock(target.In(a.service.Location()))
	}
	return view
}

func (a *API) HandlePutQuiz(w http.ResponseWriter, r *http.Request) {
	cfg, err := decodeConfig(w, r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	a.edit(w, r, func(e *app.Editor) (domain.QuizConfig, error) {
		return e.Replace(cfg)
	})
}

type quizPatch struct {
	Title      *string       `json:"title"`
	Subtitle   *string       `json:"subtitle"`
	StartIcon  *string       `json:"startIcon"`
	Prize      *domain.Prize `json:"prize"`
	UnlockDate *string       `json:"unlockDate"`
}

// HandlePatchQuiz changes the quiz-level fields present in the body.
func (a *API) HandlePatchQuiz(w http.ResponseWriter, r *http.Request) {
	var patch quizPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	a.edit(w, r, func(e *app.Editor) (domain.QuizConfig, error) {
		cfg := e.Config()
		var err error
		if patch.Title != nil {
			if cfg, err = e.SetTitle(*patch.Title); err != nil {
				return cfg, err
			}
		}
		if patch.Subtitle != nil {
			if cfg, err = e.SetSubtitle(*patch.Subtitle); err != nil {
				return cfg, err
			}
		}
		if patch.StartIcon != nil {
			if cfg, err = e.SetStartIcon(*patch.StartIcon); err != nil {
				return cfg, err
			}
		}
		if patch.Prize != nil {
			if cfg, err = e.SetPrize(*patch.Prize); err != nil {
				return cfg, err
			}
		}
		if patch.UnlockDate != nil {
			if cfg, err = e.SetUnlockDate(*patch.UnlockDate); err != nil {
				return cfg, err
			}
		}
		return cfg, nil
	})
}

func (a *API) HandleResetQuiz(w http.ResponseWriter, r *http.Request) {
	a.edit(w, r, (*app.Editor).Reset)
}

func (a *API) HandleAddQuestion(w http.ResponseWriter, r *http.Request) {
	a.edit(w, r, (*app.Editor).AddQuestion)
}

type questionPatch struct {
	QuestionText *string `json:"questionText"`
	Explanation  *string `json:"explanation"`
}

func (a *API) HandlePatchQuestion(w http.ResponseWriter, r *http.Request) {
	q, ok := pathIndex(w, r, "q")
	if !ok {
		return
	}
	var patch questionPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	a.edit(w, r, func(e *app.Editor) (domain.QuizConfig, error) {
		cfg := e.Config()
		var err error
		if patch.QuestionText != nil {
			if cfg, err = e.SetQuestionText(q, *patch.QuestionText); err != nil {
				return cfg, err
			}
		}
		if patch.Explanation != nil {
			if cfg, err = e.SetExplanation(q, *patch.Explanation); err != nil {
				return cfg, err
			}
		}
		return cfg, nil
	})
}

func (a *API) HandleRemoveQuestion(w http.ResponseWriter, r *http.Request) {
	q, ok := pathIndex(w, r, "q")
	if !ok {
		return
	}
	a.edit(w, r, func(e *app.Editor) (domain.QuizConfig, error) {
		return e.RemoveQuestion(q)
	})
}

type correctRequest struct {
	OptionIndex *int `json:"optionIndex"`
}

func (a *API) HandleSetCorrect(w http.ResponseWriter, r *http.Request) {
	q, ok := pathIndex(w, r, "q")
	if !ok {
		return
	}
	var req correctRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.OptionIndex == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "optionIndex is required", Code: "bad_request"})
		return
	}
	a.edit(w, r, func(e *app.Editor) (domain.QuizConfig, error) {
		return e.SetCorrectOption(q, *req.OptionIndex)
	})
}

type optionRequest struct {
	Text string `json:"text"`
}

func (a *API) HandleAddOption(w http.ResponseWriter, r *http.Request) {
	q, ok := pathIndex(w, r, "q")
	if !ok {
		return
	}
	var req optionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	a.edit(w, r, func(e *app.Editor) (domain.QuizConfig, error) {
		return e.AddOption(q, req.Text)
	})
}

func (a *API) HandleSetOptionText(w http.ResponseWriter, r *http.Request) {
	q, ok := pathIndex(w, r, "q")
	if !ok {
		return
	}
	o, ok := pathIndex(w, r, "o")
	if !ok {
		return
	}
	var req optionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	a.edit(w, r, func(e *app.Editor) (domain.QuizConfig, error) {
		return e.SetOptionText(q, o, req.Text)
	})
}

func (a *API) HandleRemoveOption(w http.ResponseWriter, r *http.Request) {
	q, ok := pathIndex(w, r, "q")
	if !ok {
		return
	}
	o, ok := pathIndex(w, r, "o")
	if !ok {
		return
	}
	a.edit(w, r, func(e *app.Editor) (domain.QuizConfig, error) {
		return e.RemoveOption(q, o)
	})
}

// edit runs one editor operation on the owner's saved quiz and answers with the
// saved configuration.
func (a *API) edit(w http.ResponseWriter, r *http.Request, op func(*app.Editor) (domain.QuizConfig, error)) {
	ownerID := ownerParam(r)
	cfg, err := a.service.Edit(r.Context(), ownerID, op)
	if err != nil {
		if statusFor(err) == http.StatusInternalServerError {
			a.log.Error("quiz edit failed", slog.String("owner", ownerID), slog.String("error", err.Error()))
		}
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quizResponse{
		Mode:    app.ModeOwner,
		OwnerID: ownerID,
		Config:  cfg,
		Gate:    a.gateView(cfg),
	})
}

// HandleShare encodes the configuration in the body.
func (a *API) HandleShare(w http.ResponseWriter, r *http.Request) {
	cfg, err := decodeConfig(w, r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	token, link, err := a.service.Share(cfg)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, shareResponse{Token: token, URL: link})
}

// HandleShareOwner encodes the owner's saved configuration.
func (a *API) HandleShareOwner(w http.ResponseWriter, r *http.Request) {
	token, link, err := a.service.ShareOwner(r.Context(), ownerParam(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, shareResponse{Token: token, URL: link})
}
