// Package attempt owns the quiz attempt lifecycle: answer state, debounced
// autosave, the countdown, and the state machine that gates submission.
package attempt

import (
	"context"
	"sync"
	"time"

	"quiz-attempt-service/internal/catalog"
	"quiz-attempt-service/internal/domain"
)

// Gateway is the attempt-scoped view of the platform API. A gateway is
// bound to one quiz and one caller identity when the attempt starts —
// authenticated and anonymous callers get different implementations — and
// the controller never mixes the two within an attempt.
type Gateway interface {
	Start(ctx context.Context) (domain.StartReceipt, error)
	SaveAnswer(ctx context.Context, questionID string, value domain.AnswerValue) error
	Complete(ctx context.Context) (domain.AttemptResult, error)
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// Status is the client-side lifecycle of an attempt.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusSubmitting Status = "submitting"
	StatusCompleted  Status = "completed"
	StatusAbandoned  Status = "abandoned"
)

// Config tunes a controller. Zero values select production defaults.
type Config struct {
	// QuietPeriod is the autosave debounce window.
	QuietPeriod time.Duration
	// Tick is the countdown recomputation interval.
	Tick time.Duration
	// Now is the wall clock; injectable for deterministic tests.
	Now func() time.Time
	// ConfirmUnanswered decides whether a manual submit proceeds with
	// unanswered questions. Nil declines, so a host must either set it or
	// retry via SubmitConfirmed once its user agrees.
	ConfirmUnanswered func(unanswered int) bool
	// OnRemaining receives every countdown tick.
	OnRemaining func(remaining time.Duration)
	// OnAutoSubmit reports the outcome of a timer-driven submission, which
	// happens off the caller's goroutine.
	OnAutoSubmit func(result domain.AttemptResult, err error)
	// OnSaveState receives unsaved-changes indicator flips.
	OnSaveState func(dirty bool)
}

// Controller drives one attempt at one quiz. It is the only writer of the
// attempt's in-memory state; starting a new attempt means building a new
// controller.
type Controller struct {
	quiz    domain.Quiz
	gateway Gateway
	cfg     Config

	mu        sync.Mutex
	status    Status
	starting  bool
	ref       string
	startedAt time.Time
	index     int
	result    domain.AttemptResult

	answers   *AnswerStore
	autosave  *Autosave
	countdown *Countdown
}

// NewController builds a controller in the NotStarted state.
func NewController(quiz domain.Quiz, gateway Gateway, cfg Config) *Controller {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.QuietPeriod <= 0 {
		cfg.QuietPeriod = DefaultQuietPeriod
	}
	if cfg.Tick <= 0 {
		cfg.Tick = DefaultTick
	}
	return &Controller{
		quiz:    quiz,
		gateway: gateway,
		cfg:     cfg,
		status:  StatusNotStarted,
		answers: NewAnswerStore(),
	}
}

// Start opens the attempt against the platform and, for timed quizzes,
// starts the countdown. On failure the controller stays NotStarted and
// Start may be retried.
func (c *Controller) Start(ctx context.Context) (domain.StartReceipt, error) {
	c.mu.Lock()
	if c.status != StatusNotStarted || c.starting {
		c.mu.Unlock()
		return domain.StartReceipt{}, domain.ErrAttemptStarted
	}
	c.starting = true
	c.mu.Unlock()

	receipt, err := c.gateway.Start(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.starting = false
	if err != nil {
		return domain.StartReceipt{}, err
	}

	c.status = StatusInProgress
	c.ref = receipt.Ref
	c.startedAt = receipt.StartedAt
	c.index = 0
	c.answers.Reset()
	c.autosave = NewAutosave(c.gateway.SaveAnswer, c.cfg.QuietPeriod, c.cfg.Now, c.cfg.OnSaveState)
	c.startCountdownLocked()
	return receipt, nil
}

// startCountdownLocked (re)arms the countdown for timed quizzes with time
// left on the clock.
func (c *Controller) startCountdownLocked() {
	duration := c.quiz.Duration()
	if duration <= 0 {
		return
	}
	if Remaining(c.cfg.Now(), c.startedAt, duration) == 0 {
		return
	}
	c.countdown = StartCountdown(c.startedAt, duration, c.cfg.Tick, c.cfg.Now, c.cfg.OnRemaining, c.autoSubmit)
}

func (c *Controller) autoSubmit() {
	result, err := c.submit(context.Background(), true)
	if c.cfg.OnAutoSubmit != nil {
		c.cfg.OnAutoSubmit(result, err)
	}
}

// RecordAnswer stores the learner's current answer for a question and
// schedules a debounced background save.
func (c *Controller) RecordAnswer(questionID string, value domain.AnswerValue) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != StatusInProgress {
		return domain.ErrAttemptNotActive
	}
	question, ok := c.quiz.QuestionByID(questionID)
	if !ok {
		return domain.ErrQuestionNotFound
	}
	if !catalog.Supported(question.Type) {
		return domain.ErrUnsupportedQuestionType
	}
	c.answers.Set(questionID, value)
	c.autosave.Notify(questionID, value)
	return nil
}

// CurrentQuestion returns the question the learner is on and its index.
func (c *Controller) CurrentQuestion() (domain.Question, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.quiz.Questions[c.index], c.index
}

// AnswerFor returns the current answer for a question.
func (c *Controller) AnswerFor(questionID string) (domain.AnswerValue, bool) {
	return c.answers.Get(questionID)
}

// Next moves to the next question, clamping at the last one.
func (c *Controller) Next() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.index < len(c.quiz.Questions)-1 {
		c.index++
	}
	return c.index
}

// Previous moves to the previous question, clamping at the first one.
func (c *Controller) Previous() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.index > 0 {
		c.index--
	}
	return c.index
}

// JumpTo moves to an arbitrary question. Navigation is unrestricted while
// the attempt is in progress: any answer may be revisited and changed.
func (c *Controller) JumpTo(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.quiz.Questions) {
		return domain.ErrQuestionNotFound
	}
	c.index = index
	return nil
}

// UnansweredCount returns how many quiz questions lack a non-empty answer.
func (c *Controller) UnansweredCount() int {
	return len(c.quiz.Questions) - c.answers.AnsweredCount()
}

// AnsweredCount returns how many questions hold a non-empty answer.
func (c *Controller) AnsweredCount() int {
	return c.answers.AnsweredCount()
}

// Submit performs the manual submission path. With unanswered questions it
// asks ConfirmUnanswered; a declined (or absent) confirmation returns
// ErrSubmitDeclined with the attempt untouched.
func (c *Controller) Submit(ctx context.Context) (domain.AttemptResult, error) {
	return c.submit(ctx, false)
}

// SubmitConfirmed submits without re-asking about unanswered questions.
// Hosts that obtained the learner's yes out of band (for example over a
// round trip to the browser) use this for the second call.
func (c *Controller) SubmitConfirmed(ctx context.Context) (domain.AttemptResult, error) {
	return c.submit(ctx, true)
}

func (c *Controller) submit(ctx context.Context, skipConfirmation bool) (domain.AttemptResult, error) {
	c.mu.Lock()
	switch c.status {
	case StatusSubmitting:
		c.mu.Unlock()
		return domain.AttemptResult{}, domain.ErrSubmitInFlight
	case StatusCompleted:
		c.mu.Unlock()
		return domain.AttemptResult{}, domain.ErrAttemptCompleted
	case StatusInProgress:
	default:
		c.mu.Unlock()
		return domain.AttemptResult{}, domain.ErrAttemptNotActive
	}

	if !skipConfirmation {
		if unanswered := len(c.quiz.Questions) - c.answers.AnsweredCount(); unanswered > 0 {
			confirm := c.cfg.ConfirmUnanswered
			c.mu.Unlock()
			if confirm == nil || !confirm(unanswered) {
				return domain.AttemptResult{}, domain.ErrSubmitDeclined
			}
			c.mu.Lock()
			// The timer may have fired while the learner was deciding.
			if c.status != StatusInProgress {
				status := c.status
				c.mu.Unlock()
				if status == StatusCompleted {
					return domain.AttemptResult{}, domain.ErrAttemptCompleted
				}
				return domain.AttemptResult{}, domain.ErrSubmitInFlight
			}
		}
	}

	// At most one completion request per attempt: everyone else sees
	// StatusSubmitting and backs off.
	c.status = StatusSubmitting
	countdown := c.countdown
	c.countdown = nil
	autosave := c.autosave
	c.mu.Unlock()

	countdown.Stop()
	autosave.Flush(ctx)

	result, err := c.gateway.Complete(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		// Submission is retryable; nothing is assumed committed.
		c.status = StatusInProgress
		c.startCountdownLocked()
		return domain.AttemptResult{}, err
	}
	c.status = StatusCompleted
	c.result = result
	autosave.Stop()
	return result, nil
}

// Exit abandons the attempt: timer and pending debounce are cancelled and
// no completion request is sent. The attempt stays in-progress server-side.
func (c *Controller) Exit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != StatusInProgress && c.status != StatusNotStarted {
		return
	}
	c.status = StatusAbandoned
	c.countdown.Stop()
	c.countdown = nil
	if c.autosave != nil {
		c.autosave.Stop()
	}
}

// Remaining returns the time left on the attempt clock, zero for untimed
// quizzes or before the attempt starts.
func (c *Controller) Remaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status == StatusNotStarted {
		return 0
	}
	return Remaining(c.cfg.Now(), c.startedAt, c.quiz.Duration())
}

// Timed reports whether the quiz has a configured duration.
func (c *Controller) Timed() bool {
	return c.quiz.Duration() > 0
}

// Status returns the current lifecycle state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Ref returns the attempt identifier handed out at start: a numeric id for
// authenticated callers, a public token for anonymous ones.
func (c *Controller) Ref() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ref
}

// Result returns the final attempt record once completed.
func (c *Controller) Result() (domain.AttemptResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result, c.status == StatusCompleted
}

// Dirty reports whether an answer edit has not yet reached the platform.
func (c *Controller) Dirty() bool {
	c.mu.Lock()
	autosave := c.autosave
	c.mu.Unlock()
	if autosave == nil {
		return false
	}
	return autosave.Dirty()
}

// Quiz returns the content this attempt runs against.
func (c *Controller) Quiz() domain.Quiz {
	return c.quiz
}
