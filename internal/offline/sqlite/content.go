package sqlite

import (
	"context"
	"encoding/json"
	"time"

	"b2g-quiz/internal/offline"
	"b2g-quiz/internal/quiz"
	"b2g-quiz/internal/roadmap"
)

// Quizzes, plans and progress entries are kept as JSON documents keyed by id.

func (s *Store) PutQuiz(ctx context.Context, detail quiz.PublicQuiz) error {
	return s.putDocument(ctx, offline.CollectionQuizzes,
		`INSERT OR REPLACE INTO quizzes (quiz_id, payload_json) VALUES (?, ?)`,
		detail.QuizID, detail)
}

func (s *Store) Quiz(ctx context.Context, quizID string) (quiz.PublicQuiz, error) {
	var detail quiz.PublicQuiz
	err := s.getDocument(ctx, offline.CollectionQuizzes,
		`SELECT payload_json FROM quizzes WHERE quiz_id = ?`, quizID, &detail)
	return detail, err
}

func (s *Store) Quizzes(ctx context.Context) ([]quiz.PublicQuiz, error) {
	out := make([]quiz.PublicQuiz, 0)
	err := s.listDocuments(ctx, offline.CollectionQuizzes,
		`SELECT payload_json FROM quizzes ORDER BY quiz_id ASC`,
		func(payload []byte) error {
			var detail quiz.PublicQuiz
			if err := json.Unmarshal(payload, &detail); err != nil {
				return err
			}
			out = append(out, detail)
			return nil
		})
	return out, err
}

func (s *Store) PutPlan(ctx context.Context, plan roadmap.Plan) error {
	return s.putDocument(ctx, offline.CollectionPlans,
		`INSERT OR REPLACE INTO plans (plan_id, payload_json) VALUES (?, ?)`,
		plan.ID, plan)
}

func (s *Store) Plan(ctx context.Context, planID string) (roadmap.Plan, error) {
	var plan roadmap.Plan
	err := s.getDocument(ctx, offline.CollectionPlans,
		`SELECT payload_json FROM plans WHERE plan_id = ?`, planID, &plan)
	return plan, err
}

func (s *Store) Plans(ctx context.Context) ([]roadmap.Plan, error) {
	out := make([]roadmap.Plan, 0)
	err := s.listDocuments(ctx, offline.CollectionPlans,
		`SELECT payload_json FROM plans ORDER BY plan_id ASC`,
		func(payload []byte) error {
			var plan roadmap.Plan
			if err := json.Unmarshal(payload, &plan); err != nil {
				return err
			}
			out = append(out, plan)
			return nil
		})
	return out, err
}

func (s *Store) PutProgress(ctx context.Context, entry offline.ProgressEntry) error {
	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = time.Now().UTC()
	}
	value := []byte(entry.Value)
	if len(value) == 0 {
		value = []byte("null")
	}
	if !json.Valid(value) {
		return storageErr("put", offline.CollectionProgress, errInvalidJSON)
	}

	_, err := s.db.ExecContext(
		ctx,
		`INSERT OR REPLACE INTO progress (key, value_json, updated_at_unix) VALUES (?, ?, ?)`,
		entry.Key,
		string(value),
		entry.UpdatedAt.UnixNano(),
	)
	return storageErr("put", offline.CollectionProgress, err)
}

func (s *Store) Progress(ctx context.Context, key string) (offline.ProgressEntry, error) {
	var (
		entry         offline.ProgressEntry
		value         string
		updatedAtUnix int64
	)
	err := s.db.QueryRowContext(
		ctx,
		`SELECT key, value_json, updated_at_unix FROM progress WHERE key = ?`,
		key,
	).Scan(&entry.Key, &value, &updatedAtUnix)
	if err != nil {
		return offline.ProgressEntry{}, readErr("get", offline.CollectionProgress, err)
	}
	entry.Value = json.RawMessage(value)
	entry.UpdatedAt = time.Unix(0, updatedAtUnix).UTC()
	return entry, nil
}

func (s *Store) ProgressEntries(ctx context.Context) ([]offline.ProgressEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value_json, updated_at_unix FROM progress ORDER BY key ASC`)
	if err != nil {
		return nil, storageErr("getAll", offline.CollectionProgress, err)
	}
	defer rows.Close()

	entries := make([]offline.ProgressEntry, 0)
	for rows.Next() {
		var (
			entry         offline.ProgressEntry
			value         string
			updatedAtUnix int64
		)
		if err := rows.Scan(&entry.Key, &value, &updatedAtUnix); err != nil {
			return nil, storageErr("getAll", offline.CollectionProgress, err)
		}
		entry.Value = json.RawMessage(value)
		entry.UpdatedAt = time.Unix(0, updatedAtUnix).UTC()
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("getAll", offline.CollectionProgress, err)
	}
	return entries, nil
}

func (s *Store) putDocument(ctx context.Context, collection, stmt, key string, document any) error {
	payload, err := json.Marshal(document)
	if err != nil {
		return storageErr("put", collection, err)
	}
	_, err = s.db.ExecContext(ctx, stmt, key, string(payload))
	return storageErr("put", collection, err)
}

func (s *Store) getDocument(ctx context.Context, collection, query, key string, into any) error {
	var payload string
	if err := s.db.QueryRowContext(ctx, query, key).Scan(&payload); err != nil {
		return readErr("get", collection, err)
	}
	if err := json.Unmarshal([]byte(payload), into); err != nil {
		return storageErr("get", collection, err)
	}
	return nil
}

func (s *Store) listDocuments(ctx context.Context, collection, query string, each func([]byte) error) error {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return storageErr("getAll", collection, err)
	}
	defer rows.Close()

	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return storageErr("getAll", collection, err)
		}
		if err := each([]byte(payload)); err != nil {
			return storageErr("getAll", collection, err)
		}
	}
	return storageErr("getAll", collection, rows.Err())
}
