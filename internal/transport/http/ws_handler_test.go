package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"quiz-attempt-service/internal/domain"
	"quiz-attempt-service/internal/infra/api"
	"quiz-attempt-service/internal/infra/memory"
)

// fakePlatform stands in for the learning-platform backend.
func fakePlatform(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/guest/quizzes/quiz-1/attempts":
			w.Write([]byte(`{"data":{"token":"tok-abc","started_at":"2025-03-01T12:00:00Z"}}`))
		case "/api/guest/attempts/tok-abc/answers":
			w.Write([]byte(`{"data":{}}`))
		case "/api/guest/attempts/tok-abc/complete":
			w.Write([]byte(`{"data":{"status":"completed","score":33.3,"passed":false,"correct_answers":1,"total_questions":3}}`))
		default:
			t.Errorf("unexpected platform call %s %s", r.Method, r.URL.Path)
			http.NotFound(w, r)
		}
	}))
}

func newTestHandler(t *testing.T, platformURL string) (*WSHandler, *memory.AttemptRegistry) {
	t.Helper()
	quizzes := memory.NewQuizRepository(memory.NewStaticQuizLoader(map[string]domain.Quiz{
		"quiz-1": sampleQuiz(),
	}), time.Minute)
	registry := memory.NewAttemptRegistry()
	handler := NewWSHandler(quizzes, api.NewGatewayFactory(api.NewClient(platformURL, "", nil)), registry)
	handler.QuietPeriod = 20 * time.Millisecond
	handler.Tick = 10 * time.Millisecond
	return handler, registry
}

func TestGuestAttemptFlow(t *testing.T) {
	platform := fakePlatform(t)
	defer platform.Close()

	handler, registry := newTestHandler(t, platform.URL)
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", handler.ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws?quizId=quiz-1&name=Ana&email=ana@example.com&lang=es"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	writeMsg(t, conn, map[string]any{"type": "start"})

	started := readUntil(t, conn, "started")
	if started["attemptRef"] != "tok-abc" {
		t.Fatalf("expected public token ref, got %v", started["attemptRef"])
	}
	if started["timed"] != true {
		t.Fatalf("expected timed attempt, got %v", started)
	}

	question := readUntil(t, conn, "question")
	if question["index"].(float64) != 0 || question["total"].(float64) != 3 {
		t.Fatalf("unexpected first question: %v", question)
	}
	if question["text"] != "¿Cuánto es 2 + 2?" {
		t.Fatalf("expected spanish text, got %v", question["text"])
	}
	if _, leaked := question["correctAnswer"]; leaked {
		t.Fatalf("correct answer must not cross the transport")
	}

	writeMsg(t, conn, map[string]any{"type": "answer", "payload": map[string]any{
		"questionId": "q1", "value": "4",
	}})
	writeMsg(t, conn, map[string]any{"type": "navigate", "payload": map[string]any{"action": "next"}})

	question = readUntil(t, conn, "question")
	if question["index"].(float64) != 1 || question["answeredCount"].(float64) != 1 {
		t.Fatalf("unexpected second question view: %v", question)
	}

	// Two questions unanswered: submission needs explicit confirmation.
	writeMsg(t, conn, map[string]any{"type": "submit"})
	confirm := readUntil(t, conn, "confirmRequired")
	if confirm["unanswered"].(float64) != 2 {
		t.Fatalf("expected 2 unanswered reported, got %v", confirm)
	}

	writeMsg(t, conn, map[string]any{"type": "submit", "payload": map[string]any{"force": true}})
	completed := readUntil(t, conn, "completed")
	if completed["status"] != "completed" || completed["totalQuestions"].(float64) != 3 {
		t.Fatalf("unexpected completion payload: %v", completed)
	}

	// Completion releases the registry slot.
	deadline := time.Now().Add(2 * time.Second)
	for registry.Active() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("expected registry drained, %d active", registry.Active())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRejectsInvalidGuestIdentityBeforeUpgrade(t *testing.T) {
	platform := fakePlatform(t)
	defer platform.Close()

	handler, _ := newTestHandler(t, platform.URL)
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", handler.ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws?quizId=quiz-1&name=A&email=nope"
	if _, _, err := websocket.DefaultDialer.Dial(u, nil); err == nil {
		t.Fatalf("expected handshake rejection for invalid identity")
	}
}

func TestRejectsUnknownQuiz(t *testing.T) {
	platform := fakePlatform(t)
	defer platform.Close()

	handler, _ := newTestHandler(t, platform.URL)
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", handler.ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws?quizId=quiz-9&name=Ana&email=ana@example.com"
	if _, _, err := websocket.DefaultDialer.Dial(u, nil); err == nil {
		t.Fatalf("expected handshake rejection for unknown quiz")
	}
}

func writeMsg(t *testing.T, conn *websocket.Conn, msg map[string]any) {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write %v: %v", msg["type"], err)
	}
}

// readUntil skips background events (remaining ticks, save-state flips)
// until a message of the wanted type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, want string) map[string]any {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var msg struct {
			Type    string          `json:"type"`
			Payload json.RawMessage `json:"payload"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read while waiting for %s: %v", want, err)
		}
		if msg.Type == "error" && want != "error" {
			t.Fatalf("unexpected error event: %s", msg.Payload)
		}
		if msg.Type != want {
			continue
		}
		var payload map[string]any
		if len(msg.Payload) > 0 {
			if err := json.Unmarshal(msg.Payload, &payload); err != nil {
				t.Fatalf("decode %s payload: %v", want, err)
			}
		}
		return payload
	}
}

func sampleQuiz() domain.Quiz {
	mk := func(id string) domain.Question {
		return domain.Question{
			ID:   id,
			Type: domain.MultipleChoice,
			Text: domain.LocalizedText{En: "What is 2 + 2?", Es: "¿Cuánto es 2 + 2?"},
			Options: []domain.LocalizedText{
				{En: "3"}, {En: "4"}, {En: "5"},
			},
			CorrectAnswer: domain.Answer("4"),
			Points:        1,
		}
	}
	return domain.Quiz{
		ID:              "quiz-1",
		Title:           domain.LocalizedText{En: "Numbers", Es: "Números"},
		DurationMinutes: 10,
		PassingScore:    60,
		Active:          true,
		Questions:       []domain.Question{mk("q1"), mk("q2"), mk("q3")},
	}
}
