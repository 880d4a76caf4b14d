package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a play session does not exist (or has been closed).
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrConfigNotFound is returned when no configuration has been saved for an owner.
	ErrConfigNotFound = errors.New("quiz config not found")
	// ErrInvalidConfig wraps every structural violation of a QuizConfig.
	ErrInvalidConfig = errors.New("invalid quiz config")
	// ErrNoCorrectOption indicates a question without a correct option.
	ErrNoCorrectOption = errors.New("no correct option")
	// ErrQuestionNotFound indicates a question index outside the quiz.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrOptionNotFound indicates an option index outside the question.
	ErrOptionNotFound = errors.New("option not found")
	// ErrQuestionLimit is returned when adding or removing would leave the quiz outside 1..10 questions.
	ErrQuestionLimit = errors.New("question limit reached")
	// ErrOptionLimit is returned when removing an option would leave fewer than two.
	ErrOptionLimit = errors.New("option limit reached")
	// ErrMissingOwner is returned when saving without an owner id.
	ErrMissingOwner = errors.New("owner id required")
	// ErrReadOnly is returned when a player session tries to edit its configuration.
	ErrReadOnly = errors.New("quiz config is read-only")
	// ErrQuizLocked is returned when a quiz is started before its unlock date.
	ErrQuizLocked = errors.New("quiz is locked")
	// ErrAlreadyAnswered is returned when answering again before moving on.
	ErrAlreadyAnswered = errors.New("question already answered")
	// ErrInvalidTransition is returned for flow actions that make no sense on the current screen.
	ErrInvalidTransition = errors.New("invalid quiz transition")
	// ErrInvalidUnlockDate is returned by the editor for an unparsable unlock date.
	ErrInvalidUnlockDate = errors.New("invalid unlock date")
)
