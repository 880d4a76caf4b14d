package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gift-quiz-service/internal/codec"
	"gift-quiz-service/internal/domain"
	"gift-quiz-service/internal/gate"
)

const newQuestionExplanation = "Explicação para a resposta da nova pergunta."

// Editor applies owner edits to a ConfigHolder and persists or shares the result.
type Editor struct {
	holder  *ConfigHolder
	store   ConfigStore
	ownerID string
	loc     *time.Location
}

// NewEditor binds an editor to an owner's holder. A read-only holder is rejected.
func NewEditor(holder *ConfigHolder, store ConfigStore, ownerID string, loc *time.Location) (*Editor, error) {
	if holder.ReadOnly() {
		return nil, domain.ErrReadOnly
	}
	return &Editor{holder: holder, store: store, ownerID: ownerID, loc: loc}, nil
}

// Config returns the configuration being edited.
func (e *Editor) Config() domain.QuizConfig {
	return e.holder.Get()
}

func (e *Editor) update(fn func(*domain.QuizConfig) error) (domain.QuizConfig, error) {
	if err := e.holder.Update(fn); err != nil {
		return e.holder.Get(), err
	}
	return e.holder.Get(), nil
}

func (e *Editor) SetTitle(title string) (domain.QuizConfig, error) {
	return e.update(func(c *domain.QuizConfig) error {
		c.Title = title
		return nil
	})
}

func (e *Editor) SetSubtitle(subtitle string) (domain.QuizConfig, error) {
	return e.update(func(c *domain.QuizConfig) error {
		c.Subtitle = subtitle
		return nil
	})
}

func (e *Editor) SetStartIcon(icon string) (domain.QuizConfig, error) {
	return e.update(func(c *domain.QuizConfig) error {
		c.StartIcon = icon
		return nil
	})
}

func (e *Editor) SetPrize(prize domain.Prize) (domain.QuizConfig, error) {
	return e.update(func(c *domain.QuizConfig) error {
		c.Prize = prize
		return nil
	})
}

// SetUnlockDate stores a new unlock date; an empty value removes the gate.
func (e *Editor) SetUnlockDate(raw string) (domain.QuizConfig, error) {
	raw = strings.TrimSpace(raw)
	if raw != "" {
		if _, ok := gate.ParseUnlock(raw, e.loc); !ok {
			return e.holder.Get(), fmt.Errorf("%w: %q", domain.ErrInvalidUnlockDate, raw)
		}
	}
	return e.update(func(c *domain.QuizConfig) error {
		c.UnlockDate = raw
		return nil
	})
}

func (e *Editor) SetQuestionText(q int, text string) (domain.QuizConfig, error) {
	return e.updateQuestion(q, func(question *domain.Question) error {
		question.QuestionText = text
		return nil
	})
}

func (e *Editor) SetExplanation(q int, text string) (domain.QuizConfig, error) {
	return e.updateQuestion(q, func(question *domain.Question) error {
		question.Explanation = text
		return nil
	})
}

func (e *Editor) SetOptionText(q, o int, text string) (domain.QuizConfig, error) {
	return e.updateQuestion(q, func(question *domain.Question) error {
		if o < 0 || o >= len(question.Options) {
			return domain.ErrOptionNotFound
		}
		question.Options[o].Text = text
		return nil
	})
}

// SetCorrectOption makes option o the only correct answer of question q.
func (e *Editor) SetCorrectOption(q, o int) (domain.QuizConfig, error) {
	return e.updateQuestion(q, func(question *domain.Question) error {
		if o < 0 || o >= len(question.Options) {
			return domain.ErrOptionNotFound
		}
		question.CorrectIndex = o
		return nil
	})
}

func (e *Editor) AddOption(q int, text string) (domain.QuizConfig, error) {
	return e.updateQuestion(q, func(question *domain.Question) error {
		question.Options = append(question.Options, domain.Option{Text: text})
		return nil
	})
}

// RemoveOption drops option o, keeping at least two options and the same correct
// answer where it survives. Removing the correct option makes the first one correct.
func (e *Editor) RemoveOption(q, o int) (domain.QuizConfig, error) {
	return e.updateQuestion(q, func(question *domain.Question) error {
		if o < 0 || o >= len(question.Options) {
			return domain.ErrOptionNotFound
		}
		if len(question.Options) <= domain.MinOptions {
			return domain.ErrOptionLimit
		}
		question.Options = append(question.Options[:o], question.Options[o+1:]...)
		switch {
		case o == question.CorrectIndex:
			question.CorrectIndex = 0
		case o < question.CorrectIndex:
			question.CorrectIndex--
		}
		return nil
	})
}

// AddQuestion appends the new-question template, up to MaxQuestions.
func (e *Editor) AddQuestion() (domain.QuizConfig, error) {
	return e.update(func(c *domain.QuizConfig) error {
		if len(c.Questions) >= domain.MaxQuestions {
			return domain.ErrQuestionLimit
		}
		c.Questions = append(c.Questions, domain.NewQuestion(newQuestionExplanation))
		return nil
	})
}

// RemoveQuestion drops question q, keeping at least one.
func (e *Editor) RemoveQuestion(q int) (domain.QuizConfig, error) {
	return e.update(func(c *domain.QuizConfig) error {
		if q < 0 || q >= len(c.Questions) {
			return domain.ErrQuestionNotFound
		}
		if len(c.Questions) <= domain.MinQuestions {
			return domain.ErrQuestionLimit
		}
		c.Questions = append(c.Questions[:q], c.Questions[q+1:]...)
		return nil
	})
}

// Reset replaces everything with the blank template.
func (e *Editor) Reset() (domain.QuizConfig, error) {
	return e.update(func(c *domain.QuizConfig) error {
		*c = domain.BlankConfig()
		return nil
	})
}

// Replace swaps in a whole configuration, e.g. one submitted by a form.
func (e *Editor) Replace(cfg domain.QuizConfig) (domain.QuizConfig, error) {
	cfg.UnlockDate = strings.TrimSpace(cfg.UnlockDate)
	if cfg.UnlockDate != "" {
		if _, ok := gate.ParseUnlock(cfg.UnlockDate, e.loc); !ok {
			return e.holder.Get(), fmt.Errorf("%w: %q", domain.ErrInvalidUnlockDate, cfg.UnlockDate)
		}
	}
	if err := e.holder.Replace(cfg); err != nil {
		return e.holder.Get(), err
	}
	return e.holder.Get(), nil
}

// Save writes the configuration to the owner's customQuizData entry.
func (e *Editor) Save(ctx context.Context) error {
	if err := e.store.SaveConfig(ctx, e.ownerID, e.holder.Get()); err != nil {
		return fmt.Errorf("save quiz config: %w", err)
	}
	return nil
}

// Share returns a link carrying the current configuration.
func (e *Editor) Share(baseURL string) (string, error) {
	return codec.ShareURL(baseURL, e.holder.Get())
}

func (e *Editor) updateQuestion(q int, fn func(*domain.Question) error) (domain.QuizConfig, error) {
	return e.update(func(c *domain.QuizConfig) error {
		if q < 0 || q >= len(c.Questions) {
			return domain.ErrQuestionNotFound
		}
		return fn(&c.Questions[q])
	})
}
