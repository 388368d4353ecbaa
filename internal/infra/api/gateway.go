package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"quiz-attempt-service/internal/attempt"
	"quiz-attempt-service/internal/domain"
)

var validate = validator.New()

// guestIdentity gates anonymous attempts before any network call: a
// display name of at least two characters and a syntactically valid email.
type guestIdentity struct {
	Name  string `validate:"required,min=2"`
	Email string `validate:"required,email"`
}

type startReceiptDTO struct {
	ID        int64     `json:"id"`
	Token     string    `json:"token"`
	StartedAt time.Time `json:"started_at"`
}

type attemptResultDTO struct {
	ID               int64                `json:"id"`
	Token            string               `json:"token"`
	QuizID           string               `json:"quiz_id"`
	Status           domain.AttemptStatus `json:"status"`
	Score            float64              `json:"score"`
	Passed           bool                 `json:"passed"`
	CorrectAnswers   int                  `json:"correct_answers"`
	TotalQuestions   int                  `json:"total_questions"`
	StartedAt        time.Time            `json:"started_at"`
	CompletedAt      time.Time            `json:"completed_at"`
	TimeTakenSeconds int                  `json:"time_taken_seconds"`
}

func (dto attemptResultDTO) toDomain(ref string) domain.AttemptResult {
	return domain.AttemptResult{
		Ref:              ref,
		QuizID:           dto.QuizID,
		Status:           dto.Status,
		Score:            dto.Score,
		Passed:           dto.Passed,
		CorrectAnswers:   dto.CorrectAnswers,
		TotalQuestions:   dto.TotalQuestions,
		StartedAt:        dto.StartedAt,
		CompletedAt:      dto.CompletedAt,
		TimeTakenSeconds: dto.TimeTakenSeconds,
	}
}

type answerRequest struct {
	QuestionID string             `json:"question_id"`
	Answer     domain.AnswerValue `json:"answer"`
}

// AuthenticatedGateway drives an attempt through the authenticated
// endpoints, keyed by a numeric attempt id.
type AuthenticatedGateway struct {
	client    *Client
	quizID    string
	attemptID int64
}

// NewAuthenticatedGateway binds a gateway to one quiz for the caller the
// client's token identifies.
func NewAuthenticatedGateway(client *Client, quizID string) *AuthenticatedGateway {
	return &AuthenticatedGateway{client: client, quizID: quizID}
}

func (g *AuthenticatedGateway) Start(ctx context.Context) (domain.StartReceipt, error) {
	var dto startReceiptDTO
	path := "/api/quizzes/" + g.quizID + "/attempts"
	if err := g.client.do(ctx, http.MethodPost, path, struct{}{}, &dto, true); err != nil {
		return domain.StartReceipt{}, err
	}
	g.attemptID = dto.ID
	return domain.StartReceipt{
		Ref:       strconv.FormatInt(dto.ID, 10),
		StartedAt: dto.StartedAt,
	}, nil
}

func (g *AuthenticatedGateway) SaveAnswer(ctx context.Context, questionID string, value domain.AnswerValue) error {
	path := fmt.Sprintf("/api/attempts/%d/answers", g.attemptID)
	return g.client.do(ctx, http.MethodPost, path, answerRequest{QuestionID: questionID, Answer: value}, nil, true)
}

func (g *AuthenticatedGateway) Complete(ctx context.Context) (domain.AttemptResult, error) {
	var dto attemptResultDTO
	path := fmt.Sprintf("/api/attempts/%d/complete", g.attemptID)
	if err := g.client.do(ctx, http.MethodPost, path, struct{}{}, &dto, true); err != nil {
		return domain.AttemptResult{}, err
	}
	return dto.toDomain(strconv.FormatInt(g.attemptID, 10)), nil
}

// AnonymousGateway drives an attempt through the guest endpoints, keyed by
// the opaque public token the platform mints at start.
type AnonymousGateway struct {
	client *Client
	quizID string
	name   string
	email  string
	token  string
}

// NewAnonymousGateway validates the guest identity and binds a gateway to
// one quiz. Rejections happen here, before any network call.
func NewAnonymousGateway(client *Client, quizID, name, email string) (*AnonymousGateway, error) {
	if err := validate.Struct(guestIdentity{Name: name, Email: email}); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidGuestIdentity, err)
	}
	return &AnonymousGateway{client: client, quizID: quizID, name: name, email: email}, nil
}

func (g *AnonymousGateway) Start(ctx context.Context) (domain.StartReceipt, error) {
	var dto startReceiptDTO
	path := "/api/guest/quizzes/" + g.quizID + "/attempts"
	body := struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}{Name: g.name, Email: g.email}
	if err := g.client.do(ctx, http.MethodPost, path, body, &dto, false); err != nil {
		return domain.StartReceipt{}, err
	}
	g.token = dto.Token
	return domain.StartReceipt{Ref: dto.Token, StartedAt: dto.StartedAt}, nil
}

func (g *AnonymousGateway) SaveAnswer(ctx context.Context, questionID string, value domain.AnswerValue) error {
	path := "/api/guest/attempts/" + g.token + "/answers"
	return g.client.do(ctx, http.MethodPost, path, answerRequest{QuestionID: questionID, Answer: value}, nil, false)
}

func (g *AnonymousGateway) Complete(ctx context.Context) (domain.AttemptResult, error) {
	var dto attemptResultDTO
	path := "/api/guest/attempts/" + g.token + "/complete"
	if err := g.client.do(ctx, http.MethodPost, path, struct{}{}, &dto, false); err != nil {
		return domain.AttemptResult{}, err
	}
	return dto.toDomain(g.token), nil
}

// GatewayFactory builds attempt gateways off one shared client. The
// authenticated-vs-anonymous decision is made exactly once per attempt,
// here.
type GatewayFactory struct {
	client *Client
}

func NewGatewayFactory(client *Client) *GatewayFactory {
	return &GatewayFactory{client: client}
}

func (f *GatewayFactory) Authenticated(quizID string) attempt.Gateway {
	return NewAuthenticatedGateway(f.client, quizID)
}

func (f *GatewayFactory) Anonymous(quizID, name, email string) (attempt.Gateway, error) {
	return NewAnonymousGateway(f.client, quizID, name, email)
}
