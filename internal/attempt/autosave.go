package attempt

import (
	"context"
	"log"
	"sync"
	"time"

	"quiz-attempt-service/internal/domain"
)

// DefaultQuietPeriod matches the debounce window used by the platform's
// web client.
const DefaultQuietPeriod = 2 * time.Second

// SaveFunc persists one answer to the platform.
type SaveFunc func(ctx context.Context, questionID string, value domain.AnswerValue) error

// Autosave collapses rapid answer edits into one background write per
// changed question. Failures are logged and swallowed: the final score
// depends on the explicit completion call, and the next edit's debounce
// cycle resends the latest value anyway.
type Autosave struct {
	save    SaveFunc
	quiet   time.Duration
	now     func() time.Time
	onState func(dirty bool)

	mu        sync.Mutex
	pending   map[string]domain.AnswerValue
	timer     *time.Timer
	stopped   bool
	lastEdit  time.Time
	lastClean time.Time
}

// NewAutosave builds an autosave unit. quiet <= 0 selects the default
// quiet period; onState, when non-nil, is told whenever the unsaved-changes
// indicator flips.
func NewAutosave(save SaveFunc, quiet time.Duration, now func() time.Time, onState func(dirty bool)) *Autosave {
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	if now == nil {
		now = time.Now
	}
	return &Autosave{
		save:    save,
		quiet:   quiet,
		now:     now,
		onState: onState,
		pending: make(map[string]domain.AnswerValue),
	}
}

// Notify records an edit and restarts the quiet-period timer. Only the
// latest value per question survives to the flush.
func (a *Autosave) Notify(questionID string, value domain.AnswerValue) {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return
	}
	wasClean := !a.dirtyLocked()
	a.pending[questionID] = value
	a.lastEdit = a.now()
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.quiet, a.flushAsync)
	onState := a.onState
	a.mu.Unlock()

	if wasClean && onState != nil {
		onState(true)
	}
}

func (a *Autosave) flushAsync() {
	a.Flush(context.Background())
}

// Flush sends every pending answer now, one write per question, always the
// value current at flush time. Errors are logged, never returned: an
// autosave miss must not interrupt the learner.
func (a *Autosave) Flush(ctx context.Context) {
	a.mu.Lock()
	if a.stopped && len(a.pending) == 0 {
		a.mu.Unlock()
		return
	}
	batch := a.pending
	a.pending = make(map[string]domain.AnswerValue)
	a.mu.Unlock()

	if len(batch) == 0 {
		return
	}

	allSaved := true
	for questionID, value := range batch {
		if err := a.save(ctx, questionID, value); err != nil {
			allSaved = false
			log.Printf("autosave: answer for question %s not saved: %v", questionID, err)
		}
	}
	if !allSaved {
		return
	}

	a.mu.Lock()
	nowClean := len(a.pending) == 0
	if nowClean {
		a.lastClean = a.now()
	}
	onState := a.onState
	a.mu.Unlock()

	if nowClean && onState != nil {
		onState(false)
	}
}

// Dirty reports whether an edit exists that has not reached the platform.
func (a *Autosave) Dirty() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dirtyLocked()
}

func (a *Autosave) dirtyLocked() bool {
	return len(a.pending) > 0 || a.lastEdit.After(a.lastClean)
}

// Stop cancels the pending debounce without flushing. Used when the
// learner exits the attempt.
func (a *Autosave) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopped = true
	a.pending = make(map[string]domain.AnswerValue)
	if a.timer != nil {
		a.timer.Stop()
	}
}
