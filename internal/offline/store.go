package offline

import (
	"context"
	"encoding/json"
	"time"

	"b2g-quiz/internal/quiz"
	"b2g-quiz/internal/roadmap"
)

const (
	CollectionAttempts = "pending_attempts"
	CollectionQuizzes  = "quizzes"
	CollectionPlans    = "plans"
	CollectionProgress = "progress"
)

// AttemptRecord is one completed quiz attempt as captured on the client.
// ClientScore is always 0: correctness is only decided by the server.
type AttemptRecord struct {
	LocalID     int64
	ClientKey   string
	UserID      string
	QuizID      string
	Answers     []quiz.Answer
	ClientScore int
	Total       int
	CompletedAt time.Time

	Synced   bool
	ResultID string
	SyncedAt time.Time
	Graded   *quiz.GradedResult
}

// Resolution is what the server acknowledged for a pending attempt.
type Resolution struct {
	ResultID string
	SyncedAt time.Time
	Graded   *quiz.GradedResult
}

type ProgressEntry struct {
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Store is the client's durable cache. Collections are independent and every
// method is atomic with respect to its collection. Implementations return
// *StorageError for storage failures and ErrNotFound for missing keys.
type Store interface {
	// AddAttempt inserts a record and returns its store-assigned local id.
	// Local ids increase monotonically and are never reused.
	AddAttempt(ctx context.Context, record AttemptRecord) (int64, error)
	Attempt(ctx context.Context, localID int64) (AttemptRecord, error)
	Attempts(ctx context.Context) ([]AttemptRecord, error)
	UnresolvedAttempts(ctx context.Context) ([]AttemptRecord, error)
	MarkResolved(ctx context.Context, localID int64, resolution Resolution) error
	PurgeResolved(ctx context.Context, before time.Time) (int, error)

	PutQuiz(ctx context.Context, detail quiz.PublicQuiz) error
	Quiz(ctx context.Context, quizID string) (quiz.PublicQuiz, error)
	Quizzes(ctx context.Context) ([]quiz.PublicQuiz, error)

	PutPlan(ctx context.Context, plan roadmap.Plan) error
	Plan(ctx context.Context, planID string) (roadmap.Plan, error)
	Plans(ctx context.Context) ([]roadmap.Plan, error)

	PutProgress(ctx context.Context, entry ProgressEntry) error
	Progress(ctx context.Context, key string) (ProgressEntry, error)
	ProgressEntries(ctx context.Context) ([]ProgressEntry, error)
}
