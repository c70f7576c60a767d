package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"b2g-quiz/internal/quiz"
)

const defaultListLimit = 100

func (s *Store) CreateQuiz(ctx context.Context, definition quiz.Definition) error {
	if definition.QuizID == "" {
		return errors.New("quiz id is required")
	}
	if definition.CreatedAt.IsZero() {
		definition.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM quiz_questions WHERE quiz_id = ?`, definition.QuizID); err != nil {
		return err
	}

	_, err = tx.ExecContext(
		ctx,
		`INSERT OR REPLACE INTO quizzes (quiz_id, title, skill_category, difficulty, question_count, created_at_unix)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		definition.QuizID,
		definition.Title,
		definition.SkillCategory,
		string(definition.Difficulty),
		len(definition.Questions),
		definition.CreatedAt.UnixNano(),
	)
	if err != nil {
		return err
	}

	for idx, question := range definition.Questions {
		if question.QuestionID == "" {
			question.QuestionID = quiz.MakeQuestionID(question)
		}

		optionsJSON, err := json.Marshal(question.Options)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO quiz_questions (quiz_id, question_id, position, prompt, options_json, correct_answer)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			definition.QuizID,
			question.QuestionID,
			idx,
			question.Question,
			string(optionsJSON),
			question.CorrectAnswer,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *Store) GetQuiz(ctx context.Context, quizID string) (quiz.Definition, error) {
	var (
		definition    quiz.Definition
		difficulty    string
		createdAtUnix int64
	)
	err := s.db.QueryRowContext(
		ctx,
		`SELECT quiz_id, title, skill_category, difficulty, created_at_unix FROM quizzes WHERE quiz_id = ?`,
		quizID,
	).Scan(&definition.QuizID, &definition.Title, &definition.SkillCategory, &difficulty, &createdAtUnix)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return quiz.Definition{}, quiz.ErrQuizNotFound
		}
		return quiz.Definition{}, err
	}
	definition.Difficulty = quiz.Difficulty(difficulty)
	definition.CreatedAt = time.Unix(0, createdAtUnix).UTC()

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT question_id, prompt, options_json, correct_answer
		 FROM quiz_questions
		 WHERE quiz_id = ?
		 ORDER BY position ASC`,
		quizID,
	)
	if err != nil {
		return quiz.Definition{}, err
	}
	defer rows.Close()

	definition.Questions = make([]quiz.Question, 0)
	for rows.Next() {
		var (
			question    quiz.Question
			optionsJSON string
		)
		if err := rows.Scan(&question.QuestionID, &question.Question, &optionsJSON, &question.CorrectAnswer); err != nil {
			return quiz.Definition{}, err
		}
		if err := json.Unmarshal([]byte(optionsJSON), &question.Options); err != nil {
			return quiz.Definition{}, err
		}
		definition.Questions = append(definition.Questions, question)
	}

	return definition, rows.Err()
}

// ListQuizzes returns quiz summaries newest first. Category matching is a
// case-insensitive substring match, difficulty must match exactly.
func (s *Store) ListQuizzes(ctx context.Context, filter quiz.Filter) ([]quiz.Summary, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	var (
		clauses []string
		args    []any
	)
	if category := strings.TrimSpace(filter.Category); category != "" {
		clauses = append(clauses, `instr(lower(skill_category), lower(?)) > 0`)
		args = append(args, category)
	}
	if filter.Difficulty != "" {
		clauses = append(clauses, `difficulty = ?`)
		args = append(args, string(filter.Difficulty))
	}

	query := `SELECT quiz_id, title, skill_category, difficulty, question_count, created_at_unix FROM quizzes`
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, ` AND `)
	}
	query += ` ORDER BY created_at_unix DESC, quiz_id ASC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]quiz.Summary, 0)
	for rows.Next() {
		var (
			item          quiz.Summary
			difficulty    string
			createdAtUnix int64
		)
		if err := rows.Scan(&item.QuizID, &item.Title, &item.SkillCategory, &difficulty, &item.QuestionCount, &createdAtUnix); err != nil {
			return nil, err
		}
		item.Difficulty = quiz.Difficulty(difficulty)
		item.CreatedAt = time.Unix(0, createdAtUnix).UTC()
		summaries = append(summaries, item)
	}

	return summaries, rows.Err()
}

func (s *Store) CountQuizzes(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM quizzes`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
