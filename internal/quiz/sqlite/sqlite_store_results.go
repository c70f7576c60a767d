package sqlite

import (
	"context"
	"encoding/json"
	"time"

	"b2g-quiz/internal/quiz"
)

// SaveResult stores a graded result.
//
// Invariants:
//   - (user_id, idempotency_key) is unique in results when the key is set.
//   - An existing result is never overwritten; a resubmitted key gets the
//     stored row back so a lost acknowledgement cannot produce a second result.
func (s *Store) SaveResult(ctx context.Context, userID, idempotencyKey string, result quiz.GradedResult) (quiz.GradedResult, bool, error) {
	answersJSON, err := json.Marshal(result.Answers)
	if err != nil {
		return quiz.GradedResult{}, false, err
	}

	var key any
	if idempotencyKey != "" {
		key = idempotencyKey
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return quiz.GradedResult{}, false, err
	}
	defer tx.Rollback()

	insertResult, err := tx.ExecContext(
		ctx,
		`INSERT OR IGNORE INTO results
			(result_id, user_id, quiz_id, idempotency_key, score, total_questions, percentage, answers_json, completed_at_unix, created_at_unix)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.ResultID,
		userID,
		result.QuizID,
		key,
		result.Score,
		result.Total,
		result.Percentage,
		string(answersJSON),
		result.CompletedAt.UnixNano(),
		time.Now().UTC().UnixNano(),
	)
	if err != nil {
		return quiz.GradedResult{}, false, err
	}

	inserted, err := insertResult.RowsAffected()
	if err != nil {
		return quiz.GradedResult{}, false, err
	}
	if inserted == 1 {
		if err := tx.Commit(); err != nil {
			return quiz.GradedResult{}, false, err
		}
		return result, true, nil
	}

	existing, err := scanResult(tx.QueryRowContext(
		ctx,
		`SELECT result_id, quiz_id, score, total_questions, percentage, answers_json, completed_at_unix
		 FROM results
		 WHERE user_id = ? AND idempotency_key = ?
		 LIMIT 1`,
		userID,
		idempotencyKey,
	))
	if err != nil {
		return quiz.GradedResult{}, false, err
	}
	if err := tx.Commit(); err != nil {
		return quiz.GradedResult{}, false, err
	}
	return existing, false, nil
}

func (s *Store) ListResults(ctx context.Context, userID string, limit int) ([]quiz.GradedResult, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT result_id, quiz_id, score, total_questions, percentage, answers_json, completed_at_unix
		 FROM results
		 WHERE user_id = ?
		 ORDER BY completed_at_unix DESC, created_at_unix DESC
		 LIMIT ?`,
		userID,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]quiz.GradedResult, 0)
	for rows.Next() {
		result, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResult(row rowScanner) (quiz.GradedResult, error) {
	var (
		result          quiz.GradedResult
		answersJSON     string
		completedAtUnix int64
	)
	if err := row.Scan(
		&result.ResultID,
		&result.QuizID,
		&result.Score,
		&result.Total,
		&result.Percentage,
		&answersJSON,
		&completedAtUnix,
	); err != nil {
		return quiz.GradedResult{}, err
	}
	if err := json.Unmarshal([]byte(answersJSON), &result.Answers); err != nil {
		return quiz.GradedResult{}, err
	}
	result.CompletedAt = time.Unix(0, completedAtUnix).UTC()
	return result, nil
}
