package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"quiz-attempt-service/internal/domain"
	"quiz-attempt-service/internal/infra/memory"
)

func TestQuizRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)

	loader := &countingLoader{
		QuizLoader: memory.NewStaticQuizLoader(map[string]domain.Quiz{
			"quiz-1": sampleQuiz(),
		}),
	}
	repo := NewQuizRepository(client, loader, time.Minute)

	quiz, err := repo.GetQuiz(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if !mr.Exists("quiz:quiz-1:content") {
		t.Fatalf("expected quiz content cached in redis")
	}

	// Second call should hit the cache, loader not incremented, content intact.
	quiz2, err := repo.GetQuiz(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("get quiz 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	if quiz2.DurationMinutes != quiz.DurationMinutes || len(quiz2.Questions) != len(quiz.Questions) {
		t.Fatalf("cached quiz differs: %+v vs %+v", quiz2, quiz)
	}
	if quiz2.Questions[0].Text.Resolve("en") != "What is 2 + 2?" {
		t.Fatalf("localized text lost in cache round trip: %+v", quiz2.Questions[0].Text)
	}
}

type countingLoader struct {
	memory.QuizLoader
	calls int
}

func (l *countingLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	l.calls++
	return l.QuizLoader.LoadQuiz(ctx, quizID)
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:              "quiz-1",
		Title:           domain.LocalizedText{En: "Sample"},
		DurationMinutes: 10,
		Questions: []domain.Question{
			{
				ID:   "q1",
				Type: domain.MultipleChoice,
				Text: domain.LocalizedText{En: "What is 2 + 2?"},
				Options: []domain.LocalizedText{
					{En: "3"}, {En: "4"},
				},
				CorrectAnswer: domain.Answer("4"),
				Points:        1,
			},
		},
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
