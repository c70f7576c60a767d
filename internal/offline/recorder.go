package offline

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"b2g-quiz/internal/logger"
	"b2g-quiz/internal/quiz"
)

type Status string

const (
	StatusGraded        Status = "graded"
	StatusStoredOffline Status = "stored_offline"
	// StatusUnsaved means the attempt exists only in memory; the accompanying
	// error says why it could not be stored.
	StatusUnsaved Status = "unsaved"
)

type Outcome struct {
	Status  Status
	Result  *quiz.GradedResult
	LocalID int64
	Record  AttemptRecord
}

// Submitter sends one attempt to the grading server.
type Submitter interface {
	SubmitAttempt(ctx context.Context, record AttemptRecord) (quiz.GradedResult, error)
}

type RecorderConfig struct {
	UserID        string
	SubmitTimeout time.Duration
}

type Recorder struct {
	monitor *Monitor
	remote  Submitter
	store   Store
	cfg     RecorderConfig
	log     *logger.Logger
	now     func() time.Time
	newKey  func() string
}

func NewRecorder(monitor *Monitor, remote Submitter, store Store, cfg RecorderConfig, log *logger.Logger) *Recorder {
	if log == nil {
		log = logger.Nop()
	}
	return &Recorder{
		monitor: monitor,
		remote:  remote,
		store:   store,
		cfg:     cfg,
		log:     log.With("component", "offline.Recorder"),
		now:     func() time.Time { return time.Now().UTC() },
		newKey:  uuid.NewString,
	}
}

// RecordAttempt grades an attempt online or keeps it for a later drain.
//
// Online success returns StatusGraded and leaves the store untouched. Any
// online failure, or being offline, stores the attempt and returns
// StatusStoredOffline with a nil error. A 401 stores the attempt and then
// returns ErrAuthExpired. A storage failure returns StatusUnsaved with the
// *StorageError.
func (r *Recorder) RecordAttempt(ctx context.Context, quizID string, answers []quiz.Answer) (Outcome, error) {
	quizID = strings.TrimSpace(quizID)
	if quizID == "" {
		return Outcome{}, errors.New("quiz id is required")
	}

	record := r.newRecord(ctx, quizID, answers)

	if r.monitor.IsOnline() {
		result, err := r.submit(ctx, record)
		if err == nil {
			return Outcome{Status: StatusGraded, Result: &result, Record: record}, nil
		}
		if errors.Is(err, ErrAuthExpired) {
			outcome, storeErr := r.enqueue(ctx, record)
			if storeErr != nil {
				return outcome, errors.Join(ErrAuthExpired, storeErr)
			}
			return outcome, ErrAuthExpired
		}
		r.log.Warn("online submission failed, storing attempt offline",
			"quiz_id", quizID,
			"error", err,
		)
	}

	return r.enqueue(ctx, record)
}

func (r *Recorder) newRecord(ctx context.Context, quizID string, answers []quiz.Answer) AttemptRecord {
	total := len(answers)
	if cached, err := r.store.Quiz(ctx, quizID); err == nil {
		total = cached.QuestionCount
	}

	copied := make([]quiz.Answer, len(answers))
	copy(copied, answers)

	return AttemptRecord{
		ClientKey:   r.newKey(),
		UserID:      r.cfg.UserID,
		QuizID:      quizID,
		Answers:     copied,
		ClientScore: 0,
		Total:       total,
		CompletedAt: r.now(),
	}
}

func (r *Recorder) submit(ctx context.Context, record AttemptRecord) (quiz.GradedResult, error) {
	if r.cfg.SubmitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.SubmitTimeout)
		defer cancel()
	}
	return r.remote.SubmitAttempt(ctx, record)
}

// The attempt is written even when the caller's context was cancelled during
// submission.
func (r *Recorder) enqueue(ctx context.Context, record AttemptRecord) (Outcome, error) {
	localID, err := r.store.AddAttempt(context.WithoutCancel(ctx), record)
	if err != nil {
		r.log.Error("attempt could not be stored",
			"quiz_id", record.QuizID,
			"error", err,
		)
		return Outcome{Status: StatusUnsaved, Record: record}, err
	}

	record.LocalID = localID
	return Outcome{Status: StatusStoredOffline, LocalID: localID, Record: record}, nil
}
