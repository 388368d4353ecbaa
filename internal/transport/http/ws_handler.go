// Package http exposes the attempt flow to the browser host shell: one
// WebSocket session drives one attempt.
package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"quiz-attempt-service/internal/attempt"
	"quiz-attempt-service/internal/catalog"
	"quiz-attempt-service/internal/domain"
)

// GatewayFactory picks the endpoint variant for an attempt. The decision
// is made once, before the attempt starts, and never revisited.
type GatewayFactory interface {
	Authenticated(quizID string) attempt.Gateway
	Anonymous(quizID, name, email string) (attempt.Gateway, error)
}

// AttemptRegistry tracks attempts in flight (in-memory or Redis-backed).
type AttemptRegistry interface {
	Register(sessionID, attemptRef string)
	Unregister(sessionID string)
	Active() int
}

type WSHandler struct {
	quizzes  attempt.QuizRepository
	gateways GatewayFactory
	registry AttemptRegistry
	upgrader websocket.Upgrader

	// QuietPeriod and Tick tune the attempt controller; zero selects the
	// production defaults.
	QuietPeriod time.Duration
	Tick        time.Duration
}

func NewWSHandler(quizzes attempt.QuizRepository, gateways GatewayFactory, registry AttemptRegistry) *WSHandler {
	return &WSHandler{
		quizzes:  quizzes,
		gateways: gateways,
		registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type answerPayload struct {
	QuestionID string          `json:"questionId"`
	Value      json.RawMessage `json:"value"`
}

type navigatePayload struct {
	Action string `json:"action"` // next, previous, jump
	Index  int    `json:"index"`
}

type submitPayload struct {
	Force bool `json:"force"`
}

type startedPayload struct {
	AttemptRef       string    `json:"attemptRef"`
	StartedAt        time.Time `json:"startedAt"`
	Timed            bool      `json:"timed"`
	RemainingSeconds int       `json:"remainingSeconds,omitempty"`
}

type questionView struct {
	Index         int      `json:"index"`
	Total         int      `json:"total"`
	ID            string   `json:"id"`
	Type          string   `json:"type"`
	Text          string   `json:"text"`
	Options       []string `json:"options,omitempty"`
	MediaURL      string   `json:"mediaUrl,omitempty"`
	MediaType     string   `json:"mediaType,omitempty"`
	Passage       string   `json:"passage,omitempty"`
	Multiple      bool     `json:"multiple,omitempty"`
	Supported     bool     `json:"supported"`
	Answer        []string `json:"answer,omitempty"`
	AnsweredCount int      `json:"answeredCount"`
}

type confirmPayload struct {
	Unanswered int `json:"unanswered"`
}

// ServeWS upgrades the request and runs one attempt session over it. The
// caller identifies as authenticated (userId) or anonymous (name+email);
// quiz content and identity problems are rejected before the upgrade.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	if quizID == "" {
		http.Error(w, "missing quizId", http.StatusBadRequest)
		return
	}
	lang := r.URL.Query().Get("lang")
	if lang == "" {
		lang = "en"
	}

	quiz, err := h.quizzes.GetQuiz(r.Context(), quizID)
	if err != nil {
		if errors.Is(err, domain.ErrQuizNotFound) {
			http.Error(w, "quiz not found", http.StatusNotFound)
			return
		}
		log.Printf("ws: load quiz %s: %v", quizID, err)
		http.Error(w, "quiz unavailable", http.StatusBadGateway)
		return
	}
	if len(quiz.Questions) == 0 {
		http.Error(w, "quiz has no questions", http.StatusNotFound)
		return
	}

	var gateway attempt.Gateway
	if userID := r.URL.Query().Get("userId"); userID != "" {
		gateway = h.gateways.Authenticated(quizID)
	} else {
		gateway, err = h.gateways.Anonymous(quizID, r.URL.Query().Get("name"), r.URL.Query().Get("email"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	sessionID := uuid.NewString()
	sender := newWSSender(conn)
	defer sender.close()

	controller := attempt.NewController(quiz, gateway, attempt.Config{
		QuietPeriod: h.QuietPeriod,
		Tick:        h.Tick,
		Now:         time.Now,
		OnRemaining: func(left time.Duration) {
			sender.push(outboundMessage{Type: "remaining", Payload: map[string]int{
				"seconds": int(left / time.Second),
			}})
		},
		OnSaveState: func(dirty bool) {
			sender.push(outboundMessage{Type: "saveState", Payload: map[string]bool{"dirty": dirty}})
		},
		OnAutoSubmit: func(result domain.AttemptResult, err error) {
			if err != nil {
				// A concurrent manual submit winning the race is not an error
				// worth surfacing.
				if errors.Is(err, domain.ErrSubmitInFlight) || errors.Is(err, domain.ErrAttemptCompleted) || errors.Is(err, domain.ErrAttemptNotActive) {
					return
				}
				sender.push(outboundMessage{Type: "error", Payload: errorPayload{Message: "automatic submission failed: " + err.Error()}})
				return
			}
			h.registry.Unregister(sessionID)
			sender.push(outboundMessage{Type: "completed", Payload: result})
		},
	})
	defer func() {
		controller.Exit()
		h.registry.Unregister(sessionID)
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}

		switch inbound.Type {
		case "start":
			receipt, err := controller.Start(r.Context())
			if err != nil {
				sender.push(outboundMessage{Type: "error", Payload: errorPayload{Message: err.Error()}})
				continue
			}
			h.registry.Register(sessionID, receipt.Ref)
			started := startedPayload{
				AttemptRef: receipt.Ref,
				StartedAt:  receipt.StartedAt,
				Timed:      controller.Timed(),
			}
			if started.Timed {
				started.RemainingSeconds = int(controller.Remaining() / time.Second)
			}
			sender.push(outboundMessage{Type: "started", Payload: started})
			sender.push(outboundMessage{Type: "question", Payload: h.viewFor(controller, lang)})

		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				sender.push(outboundMessage{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}})
				continue
			}
			value, err := decodeAnswerValue(payload.Value)
			if err != nil {
				sender.push(outboundMessage{Type: "error", Payload: errorPayload{Message: "invalid answer value"}})
				continue
			}
			if err := controller.RecordAnswer(payload.QuestionID, value); err != nil {
				sender.push(outboundMessage{Type: "error", Payload: errorPayload{Message: err.Error()}})
			}

		case "navigate":
			var payload navigatePayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				sender.push(outboundMessage{Type: "error", Payload: errorPayload{Message: "invalid navigate payload"}})
				continue
			}
			switch payload.Action {
			case "next":
				controller.Next()
			case "previous":
				controller.Previous()
			case "jump":
				if err := controller.JumpTo(payload.Index); err != nil {
					sender.push(outboundMessage{Type: "error", Payload: errorPayload{Message: err.Error()}})
					continue
				}
			default:
				sender.push(outboundMessage{Type: "error", Payload: errorPayload{Message: "unknown navigate action"}})
				continue
			}
			sender.push(outboundMessage{Type: "question", Payload: h.viewFor(controller, lang)})

		case "submit":
			var payload submitPayload
			if len(inbound.Payload) > 0 {
				_ = json.Unmarshal(inbound.Payload, &payload)
			}
			var result domain.AttemptResult
			var err error
			if payload.Force {
				result, err = controller.SubmitConfirmed(r.Context())
			} else {
				result, err = controller.Submit(r.Context())
			}
			switch {
			case errors.Is(err, domain.ErrSubmitDeclined):
				sender.push(outboundMessage{Type: "confirmRequired", Payload: confirmPayload{Unanswered: controller.UnansweredCount()}})
			case err != nil:
				sender.push(outboundMessage{Type: "error", Payload: errorPayload{Message: err.Error()}})
			default:
				h.registry.Unregister(sessionID)
				sender.push(outboundMessage{Type: "completed", Payload: result})
			}

		case "exit":
			return

		default:
			sender.push(outboundMessage{Type: "error", Payload: errorPayload{Message: "unsupported message type"}})
		}
	}
}

// viewFor projects the controller's current question for the host. Correct
// answers and explanations never cross this boundary.
func (h *WSHandler) viewFor(controller *attempt.Controller, lang string) questionView {
	question, index := controller.CurrentQuestion()
	view := questionView{
		Index:         index,
		Total:         len(controller.Quiz().Questions),
		ID:            question.ID,
		Type:          string(question.Type),
		Text:          question.Text.Resolve(lang),
		MediaURL:      question.MediaURL,
		MediaType:     question.MediaType,
		Passage:       question.Passage.Resolve(lang),
		Supported:     catalog.Supported(question.Type),
		AnsweredCount: controller.AnsweredCount(),
	}
	if caps, ok := catalog.For(question.Type); ok {
		view.Multiple = caps.AllowsMultipleAnswers
	}
	for _, opt := range question.Options {
		view.Options = append(view.Options, opt.Resolve(lang))
	}
	if answer, ok := controller.AnswerFor(question.ID); ok {
		view.Answer = answer
	}
	return view
}

// decodeAnswerValue accepts a single string or a list of strings.
func decodeAnswerValue(raw json.RawMessage) (domain.AnswerValue, error) {
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return domain.Answer(single), nil
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err != nil {
		return nil, err
	}
	return domain.AnswerValue(many), nil
}

// wsSender serializes writes to the connection so timer ticks, autosave
// state flips, and the read loop never write concurrently.
type wsSender struct {
	ch chan outboundMessage

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

func newWSSender(conn *websocket.Conn) *wsSender {
	s := &wsSender{
		ch:   make(chan outboundMessage, 32),
		done: make(chan struct{}),
	}
	go func() {
		defer close(s.done)
		failed := false
		for msg := range s.ch {
			if failed {
				continue // keep draining so pushes never block forever
			}
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				failed = true
			}
		}
	}()
	return s
}

func (s *wsSender) push(msg outboundMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.ch <- msg
}

func (s *wsSender) close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.ch)
	s.mu.Unlock()
	<-s.done
}
