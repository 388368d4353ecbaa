package catalog

import (
	"strings"
	"testing"

	"quiz-attempt-service/internal/domain"
)

func TestCapabilities(t *testing.T) {
	caps, ok := For(domain.MultipleChoice)
	if !ok || !caps.RequiresOptions || caps.RequiresMedia {
		t.Fatalf("unexpected multiple choice capabilities: %+v ok=%v", caps, ok)
	}

	caps, ok = For(domain.FillInBlank)
	if !ok || !caps.AllowsMultipleAnswers {
		t.Fatalf("expected fill-in-blank to allow multiple answers: %+v", caps)
	}

	caps, ok = For(domain.ImageBased)
	if !ok || !caps.RequiresMedia || caps.MaxUploadMB != 5 || len(caps.AcceptedMediaTypes) == 0 {
		t.Fatalf("unexpected image capabilities: %+v", caps)
	}

	if _, ok := For(domain.Unsupported); ok {
		t.Fatalf("expected unsupported tag to have no capabilities")
	}
	if Supported(domain.QuestionType("matching")) {
		t.Fatalf("expected unknown tag to be unsupported")
	}
}

func TestValidateRejectsUnsupportedType(t *testing.T) {
	errs := Validate(domain.Question{Type: domain.QuestionType("matching")})
	if len(errs) != 1 || !strings.Contains(errs[0], "unsupported question type") {
		t.Fatalf("expected a single unsupported-type error, got %v", errs)
	}
}

func TestValidateOptionBounds(t *testing.T) {
	q := domain.Question{
		Type:          domain.MultipleChoice,
		Text:          domain.LocalizedText{En: "Pick one"},
		Options:       []domain.LocalizedText{{En: "a"}},
		CorrectAnswer: domain.Answer("a"),
	}
	errs := Validate(q)
	if len(errs) != 1 || !strings.Contains(errs[0], "at least 2 options") {
		t.Fatalf("expected option minimum error, got %v", errs)
	}

	q.Options = make([]domain.LocalizedText, 9)
	for i := range q.Options {
		q.Options[i] = domain.LocalizedText{En: "opt"}
	}
	errs = Validate(q)
	if len(errs) != 1 || !strings.Contains(errs[0], "maximum 8 options") {
		t.Fatalf("expected option maximum error, got %v", errs)
	}
}

func TestValidateMediaAndAnswers(t *testing.T) {
	q := domain.Question{
		Type:          domain.AudioBased,
		Text:          domain.LocalizedText{En: "Listen"},
		Options:       []domain.LocalizedText{{En: "a"}, {En: "b"}},
		CorrectAnswer: domain.Answer("a"),
	}
	errs := Validate(q)
	if len(errs) != 1 || !strings.Contains(errs[0], "media is required") {
		t.Fatalf("expected media error, got %v", errs)
	}

	tf := domain.Question{
		Type:          domain.TrueFalse,
		Text:          domain.LocalizedText{En: "Water is wet"},
		CorrectAnswer: domain.AnswerValue{"true", "false"},
	}
	errs = Validate(tf)
	if len(errs) != 1 || !strings.Contains(errs[0], "multiple correct answers") {
		t.Fatalf("expected multiple-answer error, got %v", errs)
	}

	essay := domain.Question{Type: domain.Essay, Text: domain.LocalizedText{En: "Discuss"}}
	if errs := Validate(essay); len(errs) != 0 {
		t.Fatalf("expected essay without correct answer to validate, got %v", errs)
	}
}
