package httpapi

import (
	"time"

	"b2g-quiz/internal/quiz"
	"b2g-quiz/internal/roadmap"
)

type healthResponse struct {
	Status string `json:"status"`
}

type quizListResponse struct {
	Quizzes []quiz.Summary `json:"quizzes"`
	Count   int            `json:"count"`
}

type quizResponse struct {
	Quiz quiz.PublicQuiz `json:"quiz"`
}

type submitRequest struct {
	QuizID         string        `json:"quiz_id" validate:"required"`
	Answers        []quiz.Answer `json:"answers" validate:"required,dive"`
	IdempotencyKey string        `json:"idempotency_key" validate:"omitempty,max=128"`
	CompletedAt    *time.Time    `json:"completed_at"`
}

func (r submitRequest) submission() quiz.Submission {
	submission := quiz.Submission{
		QuizID:         r.QuizID,
		Answers:        r.Answers,
		Total:          len(r.Answers),
		IdempotencyKey: r.IdempotencyKey,
	}
	if r.CompletedAt != nil {
		submission.CompletedAt = *r.CompletedAt
	}
	return submission
}

type submitResponse struct {
	Result quiz.GradedResult `json:"result"`
}

type offlineResult struct {
	QuizID         string        `json:"quiz_id"`
	Answers        []quiz.Answer `json:"answers"`
	Score          int           `json:"score"`
	TotalQuestions int           `json:"total_questions"`
	CompletedAt    *time.Time    `json:"completed_at"`
	IdempotencyKey string        `json:"idempotency_key"`
}

type syncRequest struct {
	OfflineResults []offlineResult `json:"offline_results" validate:"required,max=500"`
}

func (r syncRequest) submissions() []quiz.Submission {
	submissions := make([]quiz.Submission, 0, len(r.OfflineResults))
	for _, record := range r.OfflineResults {
		submission := quiz.Submission{
			QuizID:         record.QuizID,
			Answers:        record.Answers,
			ClientScore:    record.Score,
			Total:          record.TotalQuestions,
			IdempotencyKey: record.IdempotencyKey,
		}
		if record.CompletedAt != nil {
			submission.CompletedAt = *record.CompletedAt
		}
		submissions = append(submissions, submission)
	}
	return submissions
}

type syncResponse struct {
	SyncedIDs []string             `json:"synced_ids"`
	Results   []quiz.SyncAck       `json:"results"`
	Rejected  []quiz.SyncRejection `json:"rejected"`
	Count     int                  `json:"count"`
}

type resultsResponse struct {
	Results []quiz.GradedResult `json:"results"`
}

type roadmapResponse struct {
	Roadmap roadmap.Plan `json:"roadmap"`
}

type roadmapsResponse struct {
	Roadmaps []roadmap.Plan `json:"roadmaps"`
}

type errorResponse struct {
	Error string `json:"error"`
}
