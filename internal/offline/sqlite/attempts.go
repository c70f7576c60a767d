package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"b2g-quiz/internal/offline"
	"b2g-quiz/internal/quiz"
)

const attemptColumns = `local_id, client_key, user_id, quiz_id, answers_json, client_score, total_questions,
	completed_at_unix, synced, result_id, synced_at_unix, graded_json`

func (s *Store) AddAttempt(ctx context.Context, record offline.AttemptRecord) (int64, error) {
	answersJSON, err := json.Marshal(record.Answers)
	if err != nil {
		return 0, storageErr("put", offline.CollectionAttempts, err)
	}

	result, err := s.db.ExecContext(
		ctx,
		`INSERT INTO pending_attempts
			(client_key, user_id, quiz_id, answers_json, client_score, total_questions, completed_at_unix)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.ClientKey,
		record.UserID,
		record.QuizID,
		string(answersJSON),
		record.ClientScore,
		record.Total,
		record.CompletedAt.UnixNano(),
	)
	if err != nil {
		return 0, storageErr("put", offline.CollectionAttempts, err)
	}

	localID, err := result.LastInsertId()
	if err != nil {
		return 0, storageErr("put", offline.CollectionAttempts, err)
	}
	return localID, nil
}

func (s *Store) Attempt(ctx context.Context, localID int64) (offline.AttemptRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+attemptColumns+` FROM pending_attempts WHERE local_id = ?`, localID)
	record, err := scanAttempt(row)
	if err != nil {
		return offline.AttemptRecord{}, readErr("get", offline.CollectionAttempts, err)
	}
	return record, nil
}

func (s *Store) Attempts(ctx context.Context) ([]offline.AttemptRecord, error) {
	return s.queryAttempts(ctx, "getAll", `SELECT `+attemptColumns+` FROM pending_attempts ORDER BY local_id ASC`)
}

func (s *Store) UnresolvedAttempts(ctx context.Context) ([]offline.AttemptRecord, error) {
	return s.queryAttempts(ctx, "getAllUnresolved", `SELECT `+attemptColumns+` FROM pending_attempts WHERE synced = 0 ORDER BY local_id ASC`)
}

// MarkResolved stores the server's acknowledgement on a pending attempt.
// Resolving an already resolved attempt keeps the first acknowledgement. The
// answer key is never written to disk.
func (s *Store) MarkResolved(ctx context.Context, localID int64, resolution offline.Resolution) error {
	var gradedJSON any
	if resolution.Graded != nil {
		encoded, err := json.Marshal(resolution.Graded.WithoutAnswerKey())
		if err != nil {
			return storageErr("markResolved", offline.CollectionAttempts, err)
		}
		gradedJSON = string(encoded)
	}

	result, err := s.db.ExecContext(
		ctx,
		`UPDATE pending_attempts
		 SET synced = 1, result_id = ?, synced_at_unix = ?, graded_json = ?
		 WHERE local_id = ? AND synced = 0`,
		resolution.ResultID,
		resolution.SyncedAt.UnixNano(),
		gradedJSON,
		localID,
	)
	if err != nil {
		return storageErr("markResolved", offline.CollectionAttempts, err)
	}

	updated, err := result.RowsAffected()
	if err != nil {
		return storageErr("markResolved", offline.CollectionAttempts, err)
	}
	if updated == 1 {
		return nil
	}

	var exists int
	err = s.db.QueryRowContext(ctx, `SELECT 1 FROM pending_attempts WHERE local_id = ?`, localID).Scan(&exists)
	if err != nil {
		return readErr("markResolved", offline.CollectionAttempts, err)
	}
	return nil
}

// PurgeResolved deletes resolved attempts synced before the cutoff. Pending
// attempts are never purged.
func (s *Store) PurgeResolved(ctx context.Context, before time.Time) (int, error) {
	result, err := s.db.ExecContext(
		ctx,
		`DELETE FROM pending_attempts WHERE synced = 1 AND synced_at_unix < ?`,
		before.UnixNano(),
	)
	if err != nil {
		return 0, storageErr("purge", offline.CollectionAttempts, err)
	}
	purged, err := result.RowsAffected()
	if err != nil {
		return 0, storageErr("purge", offline.CollectionAttempts, err)
	}
	return int(purged), nil
}

func (s *Store) queryAttempts(ctx context.Context, op, query string) ([]offline.AttemptRecord, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, storageErr(op, offline.CollectionAttempts, err)
	}
	defer rows.Close()

	records := make([]offline.AttemptRecord, 0)
	for rows.Next() {
		record, err := scanAttempt(rows)
		if err != nil {
			return nil, storageErr(op, offline.CollectionAttempts, err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(op, offline.CollectionAttempts, err)
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAttempt(row rowScanner) (offline.AttemptRecord, error) {
	var (
		record          offline.AttemptRecord
		answersJSON     string
		completedAtUnix int64
		synced          int
		resultID        sql.NullString
		syncedAtUnix    sql.NullInt64
		gradedJSON      sql.NullString
	)
	if err := row.Scan(
		&record.LocalID,
		&record.ClientKey,
		&record.UserID,
		&record.QuizID,
		&answersJSON,
		&record.ClientScore,
		&record.Total,
		&completedAtUnix,
		&synced,
		&resultID,
		&syncedAtUnix,
		&gradedJSON,
	); err != nil {
		return offline.AttemptRecord{}, err
	}

	if err := json.Unmarshal([]byte(answersJSON), &record.Answers); err != nil {
		return offline.AttemptRecord{}, err
	}
	record.CompletedAt = time.Unix(0, completedAtUnix).UTC()
	record.Synced = synced == 1
	record.ResultID = resultID.String
	if syncedAtUnix.Valid {
		record.SyncedAt = time.Unix(0, syncedAtUnix.Int64).UTC()
	}
	if gradedJSON.Valid {
		var graded quiz.GradedResult
		if err := json.Unmarshal([]byte(gradedJSON.String), &graded); err != nil {
			return offline.AttemptRecord{}, err
		}
		record.Graded = &graded
	}
	return record, nil
}
