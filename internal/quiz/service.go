package quiz

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"b2g-quiz/internal/logger"
	"b2g-quiz/internal/opentdb"
)

const defaultResultsLimit = 20

type QuestionsFetcher func(ctx context.Context, amount int) ([]opentdb.RawQuestion, error)

type SyncAck struct {
	Index          int          `json:"index"`
	IdempotencyKey string       `json:"idempotency_key,omitempty"`
	ResultID       string       `json:"result_id"`
	Result         GradedResult `json:"result"`
}

type SyncRejection struct {
	Index          int    `json:"index"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
	Reason         string `json:"error"`
}

type SyncReport struct {
	Accepted []SyncAck
	Rejected []SyncRejection
}

// ResultIDs lists the server-issued ids of every accepted record, in batch order.
func (r SyncReport) ResultIDs() []string {
	ids := make([]string, 0, len(r.Accepted))
	for _, ack := range r.Accepted {
		ids = append(ids, ack.ResultID)
	}
	return ids
}

// Service is the grading authority: it owns quiz content and is the only
// component that decides whether an answer is correct.
type Service struct {
	quizzes QuizRepository
	results ResultRepository
	log     *logger.Logger
	now     func() time.Time
	newID   func() string

	mu          sync.RWMutex
	definitions map[string]Definition
}

func NewService(quizzes QuizRepository, results ResultRepository, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		quizzes:     quizzes,
		results:     results,
		log:         log.With("component", "quiz.Service"),
		now:         func() time.Time { return time.Now().UTC() },
		newID:       uuid.NewString,
		definitions: make(map[string]Definition),
	}
}

func (s *Service) ListQuizzes(ctx context.Context, filter Filter) ([]Summary, error) {
	return s.quizzes.ListQuizzes(ctx, filter)
}

func (s *Service) GetQuiz(ctx context.Context, quizID string) (PublicQuiz, error) {
	definition, err := s.definition(ctx, quizID)
	if err != nil {
		return PublicQuiz{}, err
	}
	return definition.ToPublic(), nil
}

// Submit grades one attempt and persists it. Resubmitting the same
// idempotency key for the same user returns the originally stored result.
func (s *Service) Submit(ctx context.Context, userID string, submission Submission) (GradedResult, error) {
	userID, err := normalizeUserID(userID)
	if err != nil {
		return GradedResult{}, err
	}
	if strings.TrimSpace(submission.QuizID) == "" {
		return GradedResult{}, fmt.Errorf("%w: quiz_id is required", ErrInvalidSubmission)
	}

	definition, err := s.definition(ctx, submission.QuizID)
	if err != nil {
		return GradedResult{}, err
	}

	result := Grade(definition, submission.Answers)
	result.ResultID = s.newID()
	result.CompletedAt = submission.CompletedAt.UTC()
	if submission.CompletedAt.IsZero() {
		result.CompletedAt = s.now()
	}

	stored, created, err := s.results.SaveResult(ctx, userID, strings.TrimSpace(submission.IdempotencyKey), result)
	if err != nil {
		return GradedResult{}, err
	}
	if !created {
		s.log.Info("duplicate submission resolved to existing result",
			"user_id", userID,
			"quiz_id", stored.QuizID,
			"result_id", stored.ResultID,
		)
	}
	return stored, nil
}

// SyncBatch grades offline attempts one by one. A record that cannot be
// graded is rejected on its own; the rest of the batch still goes through.
// The client-observed score is ignored: every record is graded here.
func (s *Service) SyncBatch(ctx context.Context, userID string, submissions []Submission) (SyncReport, error) {
	userID, err := normalizeUserID(userID)
	if err != nil {
		return SyncReport{}, err
	}

	report := SyncReport{
		Accepted: make([]SyncAck, 0, len(submissions)),
		Rejected: make([]SyncRejection, 0),
	}
	for idx, submission := range submissions {
		if err := ctx.Err(); err != nil {
			return SyncReport{}, err
		}

		result, err := s.Submit(ctx, userID, submission)
		if err != nil {
			s.log.Warn("offline result rejected",
				"user_id", userID,
				"quiz_id", submission.QuizID,
				"index", idx,
				"error", err,
			)
			report.Rejected = append(report.Rejected, SyncRejection{
				Index:          idx,
				IdempotencyKey: submission.IdempotencyKey,
				Reason:         rejectionReason(err),
			})
			continue
		}

		report.Accepted = append(report.Accepted, SyncAck{
			Index:          idx,
			IdempotencyKey: submission.IdempotencyKey,
			ResultID:       result.ResultID,
			Result:         result,
		})
	}
	return report, nil
}

func (s *Service) ListResults(ctx context.Context, userID string, limit int) ([]GradedResult, error) {
	userID, err := normalizeUserID(userID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultResultsLimit
	}
	return s.results.ListResults(ctx, userID, limit)
}

// PublishQuiz stores a new quiz. Published quizzes are immutable.
func (s *Service) PublishQuiz(ctx context.Context, definition Definition) (Definition, error) {
	if strings.TrimSpace(definition.Title) == "" {
		return Definition{}, errors.New("quiz title is required")
	}
	if definition.QuizID == "" {
		definition.QuizID = generateQuizID()
	}
	if definition.Difficulty == "" {
		definition.Difficulty = DifficultyBeginner
	}
	if _, ok := ParseDifficulty(string(definition.Difficulty)); !ok {
		return Definition{}, fmt.Errorf("unknown difficulty %q", definition.Difficulty)
	}
	if definition.CreatedAt.IsZero() {
		definition.CreatedAt = s.now()
	}

	seen := make(map[string]struct{}, len(definition.Questions))
	for idx := range definition.Questions {
		question := &definition.Questions[idx]
		if question.QuestionID == "" {
			question.QuestionID = MakeQuestionID(*question)
		}
		if _, dup := seen[question.QuestionID]; dup {
			return Definition{}, fmt.Errorf("duplicate question id %q", question.QuestionID)
		}
		seen[question.QuestionID] = struct{}{}
	}

	if err := s.quizzes.CreateQuiz(ctx, definition); err != nil {
		return Definition{}, err
	}
	s.setCachedDefinition(definition)
	return definition, nil
}

// SeedDefaults publishes the built-in sample quizzes when the catalogue is empty.
func (s *Service) SeedDefaults(ctx context.Context) (int, error) {
	count, err := s.quizzes.CountQuizzes(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	seeded := 0
	for _, definition := range DefaultQuizzes() {
		if _, err := s.PublishQuiz(ctx, definition); err != nil {
			return seeded, err
		}
		seeded++
	}
	return seeded, nil
}

// ImportQuiz builds and publishes one quiz from fetched trivia questions.
func (s *Service) ImportQuiz(ctx context.Context, fetcher QuestionsFetcher, title string, amount int) (Definition, error) {
	if fetcher == nil {
		return Definition{}, errors.New("question fetcher is not configured")
	}
	raw, err := fetcher(ctx, amount)
	if err != nil {
		return Definition{}, err
	}
	return s.PublishQuiz(ctx, BuildDefinition(title, raw))
}

func (s *Service) definition(ctx context.Context, quizID string) (Definition, error) {
	quizID = strings.TrimSpace(quizID)
	if quizID == "" {
		return Definition{}, ErrQuizNotFound
	}
	if definition, ok := s.getCachedDefinition(quizID); ok {
		return definition, nil
	}

	definition, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return Definition{}, err
	}
	s.setCachedDefinition(definition)
	return definition, nil
}

func (s *Service) getCachedDefinition(quizID string) (Definition, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	definition, ok := s.definitions[quizID]
	return definition, ok
}

// Definitions never change after publishing, so the cache has no invalidation.
func (s *Service) setCachedDefinition(definition Definition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.definitions[definition.QuizID] = definition
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrQuizNotFound):
		return "quiz not found"
	case errors.Is(err, ErrInvalidSubmission):
		return err.Error()
	default:
		return "result could not be stored"
	}
}

func normalizeUserID(userID string) (string, error) {
	normalized := strings.TrimSpace(userID)
	if normalized == "" {
		return "", ErrUnauthenticated
	}
	return normalized, nil
}

func generateQuizID() string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	const length = 10

	var builder strings.Builder
	builder.Grow(len("qz_") + length)
	builder.WriteString("qz_")
	for idx := 0; idx < length; idx++ {
		builder.WriteByte(alphabet[rand.Intn(len(alphabet))])
	}
	return builder.String()
}
