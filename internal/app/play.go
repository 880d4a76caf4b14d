package app

import (
	"sync"
	"time"

	"gift-quiz-service/internal/domain"
	"gift-quiz-service/internal/gate"
)

// Screen is the part of the quiz currently shown.
type Screen string

const (
	ScreenStart    Screen = "start"
	ScreenQuestion Screen = "question"
	ScreenResults  Screen = "results"
)

// QuestionView is a question without its answer.
type QuestionView struct {
	Number  int      `json:"number"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

// Snapshot is what a client needs to render the current screen.
type Snapshot struct {
	PlayID        string          `json:"playId"`
	Screen        Screen          `json:"screen"`
	Title         string          `json:"title"`
	Subtitle      string          `json:"subtitle"`
	StartIcon     string          `json:"startIcon"`
	Locked        bool            `json:"locked"`
	Countdown     *gate.Countdown `json:"countdown,omitempty"`
	QuestionIndex int             `json:"questionIndex"`
	Total         int             `json:"total"`
	Score         int             `json:"score"`
	AwaitingNext  bool            `json:"awaitingNext"`
	Question      *QuestionView   `json:"question,omitempty"`
	Prize         *domain.Prize   `json:"prize,omitempty"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// AnswerResult is the feedback for one answer.
type AnswerResult struct {
	QuestionIndex int    `json:"questionIndex"`
	OptionIndex   int    `json:"optionIndex"`
	Correct       bool   `json:"correct"`
	TryAgain      bool   `json:"tryAgain"`
	Explanation   string `json:"explanation,omitempty"`
	Score         int    `json:"score"`
	Last          bool   `json:"last"`
}

// EventType names what a play broadcast carries.
type EventType string

const (
	EventCountdown EventType = "countdown"
	EventUnlocked  EventType = "unlocked"
	EventState     EventType = "state"
)

// Event is pushed to subscribers of a play.
type Event struct {
	Type      EventType
	Countdown gate.Countdown
	State     Snapshot
}

// Play runs one pass through a quiz: start screen, question loop, results.
// It is safe for concurrent use; gate callbacks and client actions share it.
type Play struct {
	id        string
	cfg       domain.QuizConfig
	gate      *gate.Gate
	now       func() time.Time
	createdAt time.Time

	mu           sync.RWMutex
	screen       Screen
	index        int
	score        int
	awaitingNext bool
	closed       bool
	subscribers  map[chan Event]struct{}
}

// NewPlay is exported for infrastructure layers that need to seed plays.
func NewPlay(id string, cfg domain.QuizConfig, g *gate.Gate) *Play {
	return newPlayWithClock(id, cfg, g, time.Now)
}

func newPlayWithClock(id string, cfg domain.QuizConfig, g *gate.Gate, now func() time.Time) *Play {
	return &Play{
		id:          id,
		cfg:         cfg.Clone(),
		gate:        g,
		now:         now,
		createdAt:   now(),
		screen:      ScreenStart,
		subscribers: make(map[chan Event]struct{}),
	}
}

// ID of the play.
func (p *Play) ID() string { return p.id }

// CreatedAt is when the play was opened.
func (p *Play) CreatedAt() time.Time { return p.createdAt }

// Open starts the countdown if the quiz is locked. Subscribers receive countdown
// events every tick and one unlocked event.
func (p *Play) Open() {
	p.gate.Start(p.onTick, p.onUnlock)
}

// Close stops the countdown and closes every subscription. Safe to call twice.
func (p *Play) Close() {
	// Stop outside p.mu: gate callbacks take p.mu.
	p.gate.Stop()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	for ch := range p.subscribers {
		delete(p.subscribers, ch)
		close(ch)
	}
}

func (p *Play) onTick(c gate.Countdown) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.broadcastLocked(Event{Type: EventCountdown, Countdown: c})
}

func (p *Play) onUnlock() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.broadcastLocked(Event{Type: EventUnlocked, State: p.snapshotLocked()})
}

// Reschedule moves the countdown to a new unlock date and broadcasts the new state.
// An empty or past date unlocks the quiz.
func (p *Play) Reschedule(unlock string) {
	// Reset waits for the tick goroutine, whose callbacks take p.mu.
	p.gate.Reset(unlock)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.cfg.UnlockDate = unlock
	p.broadcastStateLocked()
}

// Locked reports whether the quiz is still behind its unlock date.
func (p *Play) Locked() bool {
	return p.gate.State() == gate.Locked
}

// Start leaves the start screen for the first question.
func (p *Play) Start() (Snapshot, error) {
	if p.Locked() {
		return p.Snapshot(), domain.ErrQuizLocked
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.screen != ScreenStart {
		return p.snapshotLocked(), domain.ErrInvalidTransition
	}
	p.screen = ScreenQuestion
	p.index = 0
	p.score = 0
	p.awaitingNext = false
	return p.broadcastStateLocked(), nil
}

// Answer checks option against the current question. A wrong answer leaves the
// question open for another try; a right one scores and waits for Next.
func (p *Play) Answer(option int) (AnswerResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.screen != ScreenQuestion {
		return AnswerResult{}, domain.ErrInvalidTransition
	}
	if p.awaitingNext {
		return AnswerResult{}, domain.ErrAlreadyAnswered
	}
	question := p.cfg.Questions[p.index]
	if option < 0 || option >= len(question.Options) {
		return AnswerResult{}, domain.ErrOptionNotFound
	}

	result := AnswerResult{
		QuestionIndex: p.index,
		OptionIndex:   option,
		Last:          p.index == len(p.cfg.Questions)-1,
	}
	if question.IsCorrect(option) {
		p.score++
		p.awaitingNext = true
		result.Correct = true
		result.Explanation = question.Explanation
	} else {
		result.TryAgain = true
	}
	result.Score = p.score
	p.broadcastStateLocked()
	return result, nil
}

// Next moves past a correctly answered question, to the results after the last one.
func (p *Play) Next() (Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.screen != ScreenQuestion || !p.awaitingNext {
		return p.snapshotLocked(), domain.ErrInvalidTransition
	}
	p.awaitingNext = false
	if p.index+1 < len(p.cfg.Questions) {
		p.index++
	} else {
		p.screen = ScreenResults
	}
	return p.broadcastStateLocked(), nil
}

// Restart goes back to the start screen with a zero score.
func (p *Play) Restart() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.screen = ScreenStart
	p.index = 0
	p.score = 0
	p.awaitingNext = false
	return p.broadcastStateLocked()
}

// Snapshot returns the current screen.
func (p *Play) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshotLocked()
}

// Subscribe returns a channel of play events, starting with the current state.
// The caller must invoke the returned cancel function to avoid leaks.
func (p *Play) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 8)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	p.subscribers[ch] = struct{}{}
	// Queued before any broadcast can reach ch; the buffer is empty so this never blocks.
	ch <- Event{Type: EventState, State: p.snapshotLocked()}
	p.mu.Unlock()

	cancel := func() {
		p.mu.Lock()
		if _, ok := p.subscribers[ch]; ok {
			delete(p.subscribers, ch)
			close(ch)
		}
		p.mu.Unlock()
	}
	return ch, cancel
}

func (p *Play) broadcastStateLocked() Snapshot {
	snap := p.snapshotLocked()
	p.broadcastLocked(Event{Type: EventState, State: snap})
	return snap
}

func (p *Play) broadcastLocked(ev Event) {
	for ch := range p.subscribers {
		select {
		case ch <- ev:
		default:
			// Drop the oldest event so a slow reader never blocks the gate or other readers.
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
	}
}

func (p *Play) snapshotLocked() Snapshot {
	snap := Snapshot{
		PlayID:        p.id,
		Screen:        p.screen,
		Title:         p.cfg.Title,
		Subtitle:      p.cfg.Subtitle,
		StartIcon:     p.cfg.StartIcon,
		QuestionIndex: p.index,
		Total:         len(p.cfg.Questions),
		Score:         p.score,
		AwaitingNext:  p.awaitingNext,
		UpdatedAt:     p.now(),
	}
	if p.gate.State() == gate.Locked {
		snap.Locked = true
		c := p.gate.Remaining()
		snap.Countdown = &c
	}
	switch p.screen {
	case ScreenQuestion:
		q := p.cfg.Questions[p.index]
		view := &QuestionView{Number: p.index + 1, Text: q.QuestionText, Options: make([]string, len(q.Options))}
		for i, opt := range q.Options {
			view.Options[i] = opt.Text
		}
		snap.Question = view
	case ScreenResults:
		prize := p.cfg.Prize
		snap.Prize = &prize
	}
	return snap
}
