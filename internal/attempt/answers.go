package attempt

import (
	"sync"

	"quiz-attempt-service/internal/domain"
)

// AnswerStore holds the learner's current answers for the active attempt.
// Set and AnsweredCount share one mutex so a reader never observes a
// partially applied update.
type AnswerStore struct {
	mu      sync.RWMutex
	answers map[string]domain.AnswerValue
}

func NewAnswerStore() *AnswerStore {
	return &AnswerStore{answers: make(map[string]domain.AnswerValue)}
}

// Set replaces the current value for a question. Last write wins.
func (s *AnswerStore) Set(questionID string, value domain.AnswerValue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answers[questionID] = value
}

// Get returns the current value and whether the question has been touched.
func (s *AnswerStore) Get(questionID string) (domain.AnswerValue, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.answers[questionID]
	return value, ok
}

// AnsweredCount returns how many questions currently hold a non-empty value.
func (s *AnswerStore) AnsweredCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, value := range s.answers {
		if !value.IsEmpty() {
			count++
		}
	}
	return count
}

// Reset clears all answers; called when a new attempt starts.
func (s *AnswerStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answers = make(map[string]domain.AnswerValue)
}

// Snapshot copies the current answer map.
func (s *AnswerStore) Snapshot() map[string]domain.AnswerValue {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]domain.AnswerValue, len(s.answers))
	for id, value := range s.answers {
		out[id] = value
	}
	return out
}
