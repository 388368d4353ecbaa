package domain

import (
	"strings"
	"time"
)

// LocalizedText carries the per-language variants of a display string.
// English is the canonical field; Arabic and Spanish are optional.
type LocalizedText struct {
	En string `json:"en"`
	Ar string `json:"ar,omitempty"`
	Es string `json:"es,omitempty"`
}

// Resolve returns the variant for lang, falling back to English and then
// to the first non-empty variant.
func (t LocalizedText) Resolve(lang string) string {
	switch strings.ToLower(lang) {
	case "ar":
		if t.Ar != "" {
			return t.Ar
		}
	case "es":
		if t.Es != "" {
			return t.Es
		}
	}
	if t.En != "" {
		return t.En
	}
	if t.Ar != "" {
		return t.Ar
	}
	return t.Es
}

// IsEmpty reports whether no variant is set.
func (t LocalizedText) IsEmpty() bool {
	return t.En == "" && t.Ar == "" && t.Es == ""
}

// QuestionType tags how a question is rendered and answered.
type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	TrueFalse      QuestionType = "true_false"
	FillInBlank    QuestionType = "fill_in_blank"
	Essay          QuestionType = "essay"
	ImageBased     QuestionType = "image_based"
	AudioBased     QuestionType = "audio_based"
	VideoBased     QuestionType = "video_based"
	// Unsupported is the explicit fallback for tags this service does not
	// know; callers render an "unsupported question type" state instead of
	// guessing.
	Unsupported QuestionType = "unsupported"
)

// ParseQuestionType maps a wire tag to a QuestionType, returning
// Unsupported for anything unknown.
func ParseQuestionType(tag string) QuestionType {
	t := QuestionType(strings.ToLower(strings.TrimSpace(tag)))
	switch t {
	case MultipleChoice, TrueFalse, FillInBlank, Essay, ImageBased, AudioBased, VideoBased:
		return t
	}
	return Unsupported
}

// AnswerValue is a learner's answer to one question: a single string for
// most kinds, several strings when a question has multiple blanks.
type AnswerValue []string

// Answer wraps a single-valued answer.
func Answer(v string) AnswerValue {
	return AnswerValue{v}
}

// IsEmpty reports whether the value carries no non-blank entry.
func (v AnswerValue) IsEmpty() bool {
	for _, s := range v {
		if strings.TrimSpace(s) != "" {
			return false
		}
	}
	return true
}

// Question is one item of a quiz, read-only during an attempt.
type Question struct {
	ID            string          `json:"id"`
	QuizID        string          `json:"quizId"`
	Type          QuestionType    `json:"type"`
	Text          LocalizedText   `json:"text"`
	Options       []LocalizedText `json:"options,omitempty"`
	CorrectAnswer AnswerValue     `json:"correctAnswer,omitempty"`
	Explanation   LocalizedText   `json:"explanation,omitempty"`
	Points        int             `json:"points"` // defaults to 1 if zero
	Order         int             `json:"order"`
	MediaURL      string          `json:"mediaUrl,omitempty"`
	MediaType     string          `json:"mediaType,omitempty"`
	Passage       LocalizedText   `json:"passage,omitempty"`
}

// Quiz is immutable quiz content plus the settings that govern an attempt.
type Quiz struct {
	ID              string        `json:"id"`
	Title           LocalizedText `json:"title"`
	Description     LocalizedText `json:"description,omitempty"`
	Difficulty      string        `json:"difficulty,omitempty"`
	Language        string        `json:"language,omitempty"`
	DurationMinutes int           `json:"durationMinutes,omitempty"` // zero means untimed
	PassingScore    int           `json:"passingScore,omitempty"`
	Active          bool          `json:"active"`
	Questions       []Question    `json:"questions"`
}

// Duration returns the attempt time limit, zero for untimed quizzes.
func (q Quiz) Duration() time.Duration {
	return time.Duration(q.DurationMinutes) * time.Minute
}

// QuestionByID finds a question in the quiz.
func (q Quiz) QuestionByID(id string) (Question, bool) {
	for i := range q.Questions {
		if q.Questions[i].ID == id {
			return q.Questions[i], true
		}
	}
	return Question{}, false
}

// AttemptStatus is the server-side lifecycle of an attempt.
type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptCompleted  AttemptStatus = "completed"
	AttemptAbandoned  AttemptStatus = "abandoned"
)

// StartReceipt is what the platform hands back when an attempt starts.
// Ref is a numeric attempt id for authenticated callers and an opaque
// public token for anonymous ones; StartedAt is the authoritative start
// timestamp, always the server's.
type StartReceipt struct {
	Ref       string    `json:"ref"`
	StartedAt time.Time `json:"startedAt"`
}

// AttemptResult is the final attempt record returned by the completion
// endpoint. Terminal: nothing mutates an attempt after this exists.
type AttemptResult struct {
	Ref              string        `json:"ref"`
	QuizID           string        `json:"quizId"`
	Status           AttemptStatus `json:"status"`
	Score            float64       `json:"score"`
	Passed           bool          `json:"passed"`
	CorrectAnswers   int           `json:"correctAnswers"`
	TotalQuestions   int           `json:"totalQuestions"`
	StartedAt        time.Time     `json:"startedAt"`
	CompletedAt      time.Time     `json:"completedAt"`
	TimeTakenSeconds int           `json:"timeTakenSeconds"`
}
