package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuestionNotFound indicates a question or index is not part of the quiz.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrAttemptNotStarted is returned when an operation needs a started attempt.
	ErrAttemptNotStarted = errors.New("attempt not started")
	// ErrAttemptStarted is returned when Start is called twice on one attempt.
	ErrAttemptStarted = errors.New("attempt already started")
	// ErrAttemptNotActive is returned for edits outside the in-progress state.
	ErrAttemptNotActive = errors.New("attempt is not in progress")
	// ErrAttemptCompleted guards the terminal state: completed never regresses.
	ErrAttemptCompleted = errors.New("attempt already completed")
	// ErrSubmitInFlight is returned when a completion request is already running.
	ErrSubmitInFlight = errors.New("submission already in flight")
	// ErrSubmitDeclined is returned when the caller declines to submit with
	// unanswered questions; the attempt stays in progress, untouched.
	ErrSubmitDeclined = errors.New("submission declined")
	// ErrInvalidGuestIdentity rejects anonymous attempts before any network call.
	ErrInvalidGuestIdentity = errors.New("invalid guest name or email")
	// ErrUnsupportedQuestionType rejects answers to question kinds outside
	// the catalog.
	ErrUnsupportedQuestionType = errors.New("unsupported question type")
)
