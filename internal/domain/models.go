package domain

import (
	"encoding/json"
	"fmt"
)

const (
	// MaxQuestions is the largest number of questions a quiz may hold.
	MaxQuestions = 10
	// MinQuestions is the smallest number of questions a quiz may hold.
	MinQuestions = 1
	// MinOptions is the number of options the editor never goes below.
	MinOptions = 2
)

// Option is a possible answer for a question. Options have no identity beyond their index.
type Option struct {
	Text string `json:"text"`
}

// Question models an MCQ question with exactly one correct option.
type Question struct {
	QuestionText string
	Options      []Option
	CorrectIndex int
	Explanation  string
}

// Prize holds the display strings of the final screen.
type Prize struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Validity string `json:"validity"`
}

// QuizConfig is the whole customizable quiz: start screen, questions, prize and optional unlock date.
type QuizConfig struct {
	Title      string     `json:"title"`
	Subtitle   string     `json:"subtitle"`
	StartIcon  string     `json:"startIcon"`
	Questions  []Question `json:"questions"`
	Prize      Prize      `json:"prize"`
	UnlockDate string     `json:"unlockDate,omitempty"`
}

// wireOption keeps the per-option flag used by shared links.
type wireOption struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

type wireQuestion struct {
	QuestionText string       `json:"questionText"`
	Options      []wireOption `json:"options"`
	Explanation  string       `json:"explanation"`
}

// MarshalJSON writes the question with an isCorrect flag on every option.
func (q Question) MarshalJSON() ([]byte, error) {
	w := wireQuestion{
		QuestionText: q.QuestionText,
		Options:      make([]wireOption, len(q.Options)),
		Explanation:  q.Explanation,
	}
	for i, opt := range q.Options {
		w.Options[i] = wireOption{Text: opt.Text, IsCorrect: i == q.CorrectIndex}
	}
	return json.Marshal(w)
}

// UnmarshalJSON reads per-option flags into CorrectIndex. When several options are
// flagged the last one wins; none flagged is an error.
func (q *Question) UnmarshalJSON(data []byte) error {
	var w wireQuestion
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	correct := -1
	options := make([]Option, len(w.Options))
	for i, opt := range w.Options {
		options[i] = Option{Text: opt.Text}
		if opt.IsCorrect {
			correct = i
		}
	}
	if correct < 0 {
		return fmt.Errorf("question %q: %w", w.QuestionText, ErrNoCorrectOption)
	}
	*q = Question{
		QuestionText: w.QuestionText,
		Options:      options,
		CorrectIndex: correct,
		Explanation:  w.Explanation,
	}
	return nil
}

// IsCorrect reports whether the option at index is the right answer.
func (q Question) IsCorrect(index int) bool {
	return index == q.CorrectIndex
}

// Clone returns a deep copy so edits never alias an earlier version.
func (c QuizConfig) Clone() QuizConfig {
	out := c
	out.Questions = make([]Question, len(c.Questions))
	for i, q := range c.Questions {
		out.Questions[i] = q.clone()
	}
	return out
}

func (q Question) clone() Question {
	out := q
	out.Options = append([]Option(nil), q.Options...)
	return out
}

// Validate checks the structural invariants of a configuration.
func (c QuizConfig) Validate() error {
	if n := len(c.Questions); n < MinQuestions || n > MaxQuestions {
		return fmt.Errorf("%w: %d questions, want %d..%d", ErrInvalidConfig, n, MinQuestions, MaxQuestions)
	}
	for i, q := range c.Questions {
		if len(q.Options) == 0 {
			return fmt.Errorf("%w: question %d has no options", ErrInvalidConfig, i+1)
		}
		if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
			return fmt.Errorf("%w: question %d: %v", ErrInvalidConfig, i+1, ErrNoCorrectOption)
		}
	}
	return nil
}
