// Package api is the REST client for the learning-platform backend. The
// backend exposes resource-style endpoints with a data envelope; every
// attempt operation has an authenticated and a guest variant.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"quiz-attempt-service/internal/domain"
)

// DefaultTimeout bounds every platform call. The backend defines no retry
// policy for start/complete; both are visibly retryable by the caller
// instead.
const DefaultTimeout = 15 * time.Second

// Client talks to the platform API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient builds a client for the given base URL. token, when set, is
// sent as a bearer token on authenticated calls. httpClient may be nil; a
// default with DefaultTimeout is used.
func NewClient(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    httpClient,
	}
}

type envelope struct {
	Data json.RawMessage `json:"data"`
}

type quizDTO struct {
	ID              string               `json:"id"`
	Title           domain.LocalizedText `json:"title"`
	Description     domain.LocalizedText `json:"description"`
	Difficulty      string               `json:"difficulty"`
	Language        string               `json:"language"`
	DurationMinutes int                  `json:"duration_minutes"`
	PassingScore    int                  `json:"passing_score"`
	Active          bool                 `json:"is_active"`
	Questions       []questionDTO        `json:"questions"`
}

type questionDTO struct {
	ID            string                 `json:"id"`
	Type          string                 `json:"type"`
	Text          domain.LocalizedText   `json:"question"`
	Options       []domain.LocalizedText `json:"options"`
	CorrectAnswer domain.AnswerValue     `json:"correct_answer"`
	Explanation   domain.LocalizedText   `json:"explanation"`
	Points        int                    `json:"points"`
	Order         int                    `json:"order"`
	MediaURL      string                 `json:"media_url"`
	MediaType     string                 `json:"media_type"`
	Passage       domain.LocalizedText   `json:"passage"`
}

// LoadQuiz fetches quiz content with its ordered question list. The name
// satisfies the quiz cache's loader interface so the client can sit behind
// the in-memory or Redis cache directly.
func (c *Client) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var dto quizDTO
	if err := c.do(ctx, http.MethodGet, "/api/quizzes/"+quizID, nil, &dto, true); err != nil {
		return domain.Quiz{}, err
	}
	return dto.toDomain(quizID), nil
}

func (dto quizDTO) toDomain(quizID string) domain.Quiz {
	quiz := domain.Quiz{
		ID:              dto.ID,
		Title:           dto.Title,
		Description:     dto.Description,
		Difficulty:      dto.Difficulty,
		Language:        dto.Language,
		DurationMinutes: dto.DurationMinutes,
		PassingScore:    dto.PassingScore,
		Active:          dto.Active,
	}
	if quiz.ID == "" {
		quiz.ID = quizID
	}
	quiz.Questions = make([]domain.Question, 0, len(dto.Questions))
	for _, q := range dto.Questions {
		quiz.Questions = append(quiz.Questions, domain.Question{
			ID:            q.ID,
			QuizID:        quiz.ID,
			Type:          domain.ParseQuestionType(q.Type),
			Text:          q.Text,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
			Explanation:   q.Explanation,
			Points:        q.Points,
			Order:         q.Order,
			MediaURL:      q.MediaURL,
			MediaType:     q.MediaType,
			Passage:       q.Passage,
		})
	}
	return quiz
}

// do issues one request and decodes the enveloped response into out.
func (c *Client) do(ctx context.Context, method, path string, body, out any, authed bool) error {
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("platform api: encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed && c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.ErrQuizNotFound
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("platform api: %s %s returned status %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("platform api: decode response: %w", err)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("platform api: decode payload: %w", err)
	}
	return nil
}
