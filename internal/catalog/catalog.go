// Package catalog is the closed enumeration of question kinds and their
// rendering/validation capabilities. Pure lookups, no I/O.
package catalog

import (
	"fmt"

	"quiz-attempt-service/internal/domain"
)

// Capabilities describes what a question kind needs to be rendered and
// validated.
type Capabilities struct {
	RequiresOptions       bool
	RequiresMedia         bool
	AllowsMultipleAnswers bool
	AcceptedMediaTypes    []string
	MaxUploadMB           int
}

const (
	maxChoiceOptions = 8
	minChoiceOptions = 2
)

var capabilities = map[domain.QuestionType]Capabilities{
	domain.MultipleChoice: {
		RequiresOptions: true,
	},
	domain.TrueFalse: {},
	domain.FillInBlank: {
		AllowsMultipleAnswers: true,
	},
	domain.Essay: {},
	domain.ImageBased: {
		RequiresOptions:    true,
		RequiresMedia:      true,
		AcceptedMediaTypes: []string{"image/jpeg", "image/png", "image/gif", "image/webp"},
		MaxUploadMB:        5,
	},
	domain.AudioBased: {
		RequiresOptions:    true,
		RequiresMedia:      true,
		AcceptedMediaTypes: []string{"audio/mpeg", "audio/wav", "audio/ogg"},
		MaxUploadMB:        10,
	},
	domain.VideoBased: {
		RequiresOptions:    true,
		RequiresMedia:      true,
		AcceptedMediaTypes: []string{"video/mp4", "video/webm"},
		MaxUploadMB:        50,
	},
}

// For returns the capability record for a question kind. The second result
// is false for unknown or Unsupported tags.
func For(t domain.QuestionType) (Capabilities, bool) {
	caps, ok := capabilities[t]
	return caps, ok
}

// Supported reports whether the kind is part of the catalog.
func Supported(t domain.QuestionType) bool {
	_, ok := capabilities[t]
	return ok
}

// Validate checks a proposed question payload against its kind's
// capabilities and returns human-readable problems. An empty slice means
// the payload is acceptable.
func Validate(q domain.Question) []string {
	caps, ok := For(q.Type)
	if !ok {
		return []string{fmt.Sprintf("unsupported question type %q", string(q.Type))}
	}

	var errs []string
	if q.Text.IsEmpty() {
		errs = append(errs, "question text is required")
	}
	if caps.RequiresOptions {
		if len(q.Options) < minChoiceOptions {
			errs = append(errs, fmt.Sprintf("at least %d options required", minChoiceOptions))
		}
		if len(q.Options) > maxChoiceOptions {
			errs = append(errs, fmt.Sprintf("maximum %d options for %s questions", maxChoiceOptions, q.Type))
		}
	}
	if caps.RequiresMedia && q.MediaURL == "" {
		errs = append(errs, "media is required for this question type")
	}
	if q.CorrectAnswer.IsEmpty() && q.Type != domain.Essay {
		errs = append(errs, "a correct answer is required")
	}
	if !caps.AllowsMultipleAnswers && len(q.CorrectAnswer) > 1 {
		errs = append(errs, "multiple correct answers are not allowed for this question type")
	}
	return errs
}
