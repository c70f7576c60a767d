package sqlite

import (
	"context"
)

func (s *Store) initSchema(ctx context.Context) error {
	// No FK constraints: a result's quiz id is validated when it is graded.
	statements := []string{
		`CREATE TABLE IF NOT EXISTS quizzes (
			quiz_id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			skill_category TEXT NOT NULL,
			difficulty TEXT NOT NULL,
			question_count INTEGER NOT NULL,
			created_at_unix INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS quiz_questions (
			quiz_id TEXT NOT NULL,
			question_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			prompt TEXT NOT NULL,
			options_json TEXT NOT NULL,
			correct_answer TEXT NOT NULL,
			PRIMARY KEY (quiz_id, position),
			UNIQUE (quiz_id, question_id)
		);`,
		`CREATE TABLE IF NOT EXISTS results (
			result_id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			quiz_id TEXT NOT NULL,
			idempotency_key TEXT,
			score INTEGER NOT NULL,
			total_questions INTEGER NOT NULL,
			percentage INTEGER NOT NULL,
			answers_json TEXT NOT NULL,
			completed_at_unix INTEGER NOT NULL,
			created_at_unix INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS plans (
			plan_id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			payload_json TEXT NOT NULL,
			created_at_unix INTEGER NOT NULL
		);`,
		// NULL keys never collide, so submissions without a key are always stored.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_results_user_key ON results(user_id, idempotency_key);`,
		`CREATE INDEX IF NOT EXISTS idx_quizzes_created_at ON quizzes(created_at_unix DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_results_user_completed ON results(user_id, completed_at_unix DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_plans_user ON plans(user_id, created_at_unix DESC);`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
