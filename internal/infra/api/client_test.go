package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"quiz-attempt-service/internal/domain"
)

func TestLoadQuizMapsContent(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/quizzes/quiz-1" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{
			"id":"quiz-1",
			"title":{"en":"Spanish Basics","es":"Fundamentos"},
			"duration_minutes":10,
			"passing_score":60,
			"is_active":true,
			"questions":[
				{"id":"q1","type":"multiple_choice","question":{"en":"Pick"},"options":[{"en":"a"},{"en":"b"}],"points":1,"order":1},
				{"id":"q2","type":"matching","question":{"en":"???"}}
			]
		}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret-token", nil)
	quiz, err := client.LoadQuiz(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("load quiz: %v", err)
	}

	if gotAuth != "Bearer secret-token" {
		t.Fatalf("expected bearer token, got %q", gotAuth)
	}
	if quiz.ID != "quiz-1" || quiz.DurationMinutes != 10 || !quiz.Active {
		t.Fatalf("unexpected quiz: %+v", quiz)
	}
	if quiz.Title.Resolve("es") != "Fundamentos" {
		t.Fatalf("expected localized title, got %q", quiz.Title.Resolve("es"))
	}
	if len(quiz.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(quiz.Questions))
	}
	if quiz.Questions[0].Type != domain.MultipleChoice {
		t.Fatalf("expected multiple choice, got %s", quiz.Questions[0].Type)
	}
	// Unknown tags come through as the explicit Unsupported fallback.
	if quiz.Questions[1].Type != domain.Unsupported {
		t.Fatalf("expected unsupported fallback, got %s", quiz.Questions[1].Type)
	}
}

func TestLoadQuizNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", nil)
	_, err := client.LoadQuiz(context.Background(), "nope")
	if !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}

func TestLoadQuizServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", nil)
	if _, err := client.LoadQuiz(context.Background(), "quiz-1"); err == nil {
		t.Fatalf("expected error on 502")
	}
}
