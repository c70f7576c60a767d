package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"b2g-quiz/internal/roadmap"
)

// Plans are stored as JSON documents; only the owner and creation time are
// queried.
func (s *Store) SavePlan(ctx context.Context, plan roadmap.Plan) error {
	payload, err := json.Marshal(plan)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT OR REPLACE INTO plans (plan_id, user_id, payload_json, created_at_unix) VALUES (?, ?, ?, ?)`,
		plan.ID,
		plan.UserID,
		string(payload),
		plan.CreatedAt.UnixNano(),
	)
	return err
}

func (s *Store) GetPlan(ctx context.Context, userID, planID string) (roadmap.Plan, error) {
	var payload string
	err := s.db.QueryRowContext(
		ctx,
		`SELECT payload_json FROM plans WHERE plan_id = ? AND user_id = ?`,
		planID,
		userID,
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return roadmap.Plan{}, roadmap.ErrPlanNotFound
		}
		return roadmap.Plan{}, err
	}

	var plan roadmap.Plan
	if err := json.Unmarshal([]byte(payload), &plan); err != nil {
		return roadmap.Plan{}, err
	}
	return plan, nil
}

func (s *Store) ListPlans(ctx context.Context, userID string) ([]roadmap.Plan, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT payload_json FROM plans WHERE user_id = ? ORDER BY created_at_unix DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	plans := make([]roadmap.Plan, 0)
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var plan roadmap.Plan
		if err := json.Unmarshal([]byte(payload), &plan); err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}
