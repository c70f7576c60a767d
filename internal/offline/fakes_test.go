package offline

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"b2g-quiz/internal/quiz"
	"b2g-quiz/internal/roadmap"
)

type memStore struct {
	mu       sync.Mutex
	nextID   int64
	attempts map[int64]AttemptRecord
	quizzes  map[string]quiz.PublicQuiz
	plans    map[string]roadmap.Plan
	progress map[string]ProgressEntry

	failWrites bool
}

func newMemStore() *memStore {
	return &memStore{
		attempts: make(map[int64]AttemptRecord),
		quizzes:  make(map[string]quiz.PublicQuiz),
		plans:    make(map[string]roadmap.Plan),
		progress: make(map[string]ProgressEntry),
	}
}

func (s *memStore) writeErr(op, collection string) error {
	if s.failWrites {
		return &StorageError{Op: op, Collection: collection, Err: fmt.Errorf("quota exceeded")}
	}
	return nil
}

func (s *memStore) AddAttempt(_ context.Context, record AttemptRecord) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writeErr("put", CollectionAttempts); err != nil {
		return 0, err
	}
	s.nextID++
	record.LocalID = s.nextID
	s.attempts[record.LocalID] = record
	return record.LocalID, nil
}

func (s *memStore) Attempt(_ context.Context, localID int64) (AttemptRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.attempts[localID]
	if !ok {
		return AttemptRecord{}, ErrNotFound
	}
	return record, nil
}

func (s *memStore) Attempts(context.Context) ([]AttemptRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedAttempts(func(AttemptRecord) bool { return true }), nil
}

func (s *memStore) UnresolvedAttempts(context.Context) ([]AttemptRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedAttempts(func(record AttemptRecord) bool { return !record.Synced }), nil
}

func (s *memStore) sortedAttempts(keep func(AttemptRecord) bool) []AttemptRecord {
	out := make([]AttemptRecord, 0, len(s.attempts))
	for _, record := range s.attempts {
		if keep(record) {
			out = append(out, record)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LocalID < out[j].LocalID })
	return out
}

func (s *memStore) MarkResolved(_ context.Context, localID int64, resolution Resolution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writeErr("markResolved", CollectionAttempts); err != nil {
		return err
	}
	record, ok := s.attempts[localID]
	if !ok {
		return ErrNotFound
	}
	record.Synced = true
	record.ResultID = resolution.ResultID
	record.SyncedAt = resolution.SyncedAt
	record.Graded = resolution.Graded
	s.attempts[localID] = record
	return nil
}

func (s *memStore) PurgeResolved(_ context.Context, before time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	purged := 0
	for id, record := range s.attempts {
		if record.Synced && record.SyncedAt.Before(before) {
			delete(s.attempts, id)
			purged++
		}
	}
	return purged, nil
}

func (s *memStore) PutQuiz(_ context.Context, detail quiz.PublicQuiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writeErr("put", CollectionQuizzes); err != nil {
		return err
	}
	s.quizzes[detail.QuizID] = detail
	return nil
}

func (s *memStore) Quiz(_ context.Context, quizID string) (quiz.PublicQuiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	detail, ok := s.quizzes[quizID]
	if !ok {
		return quiz.PublicQuiz{}, ErrNotFound
	}
	return detail, nil
}

func (s *memStore) Quizzes(context.Context) ([]quiz.PublicQuiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]quiz.PublicQuiz, 0, len(s.quizzes))
	for _, detail := range s.quizzes {
		out = append(out, detail)
	}
	return out, nil
}

func (s *memStore) PutPlan(_ context.Context, plan roadmap.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writeErr("put", CollectionPlans); err != nil {
		return err
	}
	s.plans[plan.ID] = plan
	return nil
}

func (s *memStore) Plan(_ context.Context, planID string) (roadmap.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	plan, ok := s.plans[planID]
	if !ok {
		return roadmap.Plan{}, ErrNotFound
	}
	return plan, nil
}

func (s *memStore) Plans(context.Context) ([]roadmap.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]roadmap.Plan, 0, len(s.plans))
	for _, plan := range s.plans {
		out = append(out, plan)
	}
	return out, nil
}

func (s *memStore) PutProgress(_ context.Context, entry ProgressEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress[entry.Key] = entry
	return nil
}

func (s *memStore) Progress(_ context.Context, key string) (ProgressEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.progress[key]
	if !ok {
		return ProgressEntry{}, ErrNotFound
	}
	return entry, nil
}

func (s *memStore) ProgressEntries(context.Context) ([]ProgressEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ProgressEntry, 0, len(s.progress))
	for _, entry := range s.progress {
		out = append(out, entry)
	}
	return out, nil
}

// fakeServer grades with the real grading rules against definitions that
// carry answer keys, the way the server does.
type fakeServer struct {
	mu          sync.Mutex
	definitions map[string]quiz.Definition
	plans       map[string]roadmap.Plan
	byKey       map[string]quiz.GradedResult
	nextID      int

	err        error
	listCalls  int
	getCalls   int
	batchCalls int
	batches    [][]AttemptRecord

	// batchGate, when set, blocks SubmitBatch until it is closed.
	batchGate chan struct{}
}

func newFakeServer(definitions ...quiz.Definition) *fakeServer {
	server := &fakeServer{
		definitions: make(map[string]quiz.Definition),
		plans:       make(map[string]roadmap.Plan),
		byKey:       make(map[string]quiz.GradedResult),
	}
	for _, definition := range definitions {
		server.definitions[definition.QuizID] = definition
	}
	return server
}

func (f *fakeServer) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeServer) ListQuizzes(_ context.Context, filter quiz.Filter) ([]quiz.Summary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]quiz.Summary, 0, len(f.definitions))
	for _, definition := range f.definitions {
		if summary := definition.Summary(); filter.Matches(summary) {
			out = append(out, summary)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuizID < out[j].QuizID })
	return out, nil
}

func (f *fakeServer) GetQuiz(_ context.Context, quizID string) (quiz.PublicQuiz, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.err != nil {
		return quiz.PublicQuiz{}, f.err
	}
	definition, ok := f.definitions[quizID]
	if !ok {
		return quiz.PublicQuiz{}, &SubmissionError{StatusCode: 404, Err: quiz.ErrQuizNotFound}
	}
	return definition.ToPublic(), nil
}

func (f *fakeServer) GetPlan(_ context.Context, planID string) (roadmap.Plan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return roadmap.Plan{}, f.err
	}
	plan, ok := f.plans[planID]
	if !ok {
		return roadmap.Plan{}, &SubmissionError{StatusCode: 404, Err: roadmap.ErrPlanNotFound}
	}
	return plan, nil
}

func (f *fakeServer) SubmitAttempt(_ context.Context, record AttemptRecord) (quiz.GradedResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return quiz.GradedResult{}, f.err
	}
	return f.gradeLocked(record)
}

func (f *fakeServer) SubmitBatch(ctx context.Context, records []AttemptRecord) (BatchResponse, error) {
	f.mu.Lock()
	gate := f.batchGate
	f.batchCalls++
	f.batches = append(f.batches, records)
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return BatchResponse{}, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return BatchResponse{}, f.err
	}

	var response BatchResponse
	for _, record := range records {
		result, err := f.gradeLocked(record)
		if err != nil {
			response.Rejections = append(response.Rejections, BatchRejection{ClientKey: record.ClientKey, Reason: "quiz not found"})
			continue
		}
		graded := result
		response.Acks = append(response.Acks, BatchAck{ClientKey: record.ClientKey, ResultID: result.ResultID, Result: &graded})
	}
	return response, nil
}

func (f *fakeServer) gradeLocked(record AttemptRecord) (quiz.GradedResult, error) {
	if existing, ok := f.byKey[record.ClientKey]; ok && record.ClientKey != "" {
		return existing, nil
	}
	definition, ok := f.definitions[record.QuizID]
	if !ok {
		return quiz.GradedResult{}, quiz.ErrQuizNotFound
	}
	result := quiz.Grade(definition, record.Answers)
	f.nextID++
	result.ResultID = fmt.Sprintf("srv-%d", f.nextID)
	result.CompletedAt = record.CompletedAt
	if record.ClientKey != "" {
		f.byKey[record.ClientKey] = result
	}
	return result, nil
}

func fiveQuestionQuiz() quiz.Definition {
	questions := make([]quiz.Question, 0, 5)
	keys := []string{"a", "b", "a", "b", "a"}
	for idx, key := range keys {
		questions = append(questions, quiz.Question{
			PublicQuestion: quiz.PublicQuestion{
				QuestionID: fmt.Sprintf("%d", idx+1),
				Question:   fmt.Sprintf("question %d?", idx+1),
				Options:    []string{"a", "b"},
			},
			CorrectAnswer: key,
		})
	}
	return quiz.Definition{
		QuizID:        "Q1",
		Title:         "Five",
		SkillCategory: "Go",
		Difficulty:    quiz.DifficultyBeginner,
		Questions:     questions,
		CreatedAt:     time.Unix(1700000000, 0).UTC(),
	}
}

// threeOfFive answers questions 1-3 correctly and 4-5 incorrectly.
func threeOfFive() []quiz.Answer {
	return []quiz.Answer{
		{QuestionID: "1", Selected: quiz.Selected("a")},
		{QuestionID: "2", Selected: quiz.Selected("b")},
		{QuestionID: "3", Selected: quiz.Selected("a")},
		{QuestionID: "4", Selected: quiz.Selected("a")},
		{QuestionID: "5", Selected: quiz.Selected("b")},
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
