package quiz

import (
	"context"
	"errors"
)

var (
	ErrQuizNotFound      = errors.New("quiz not found")
	ErrInvalidSubmission = errors.New("invalid submission")
	ErrUnauthenticated   = errors.New("user is not authenticated")
)

type QuizRepository interface {
	CreateQuiz(ctx context.Context, definition Definition) error
	GetQuiz(ctx context.Context, quizID string) (Definition, error)
	ListQuizzes(ctx context.Context, filter Filter) ([]Summary, error)
	CountQuizzes(ctx context.Context) (int, error)
}

type ResultRepository interface {
	// SaveResult persists a graded result. When idempotencyKey is non-empty and
	// a result already exists for (userID, idempotencyKey), the stored result is
	// returned unchanged and created is false.
	SaveResult(ctx context.Context, userID, idempotencyKey string, result GradedResult) (stored GradedResult, created bool, err error)
	ListResults(ctx context.Context, userID string, limit int) ([]GradedResult, error)
}
