package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/exam-mentor/backend/internal/models"
)

const planItemCols = `id, plan_id, item_type, concept_id, duration_minutes, question_count,
	difficulty_min, difficulty_max, display_order, is_completed`

func scanPlanItem(sc interface{ Scan(...any) error }) (models.DailyPlanItem, error) {
	var it models.DailyPlanItem
	err := sc.Scan(&it.ID, &it.PlanID, &it.ItemType, &it.ConceptID, &it.DurationMinutes, &it.QuestionCount,
		&it.DifficultyMin, &it.DifficultyMax, &it.DisplayOrder, &it.IsCompleted)
	return it, err
}

func (s *Store) loadPlan(ctx context.Context, where string, args ...any) (*models.DailyPlan, error) {
	var p models.DailyPlan
	err := s.q.QueryRowContext(ctx,
		`SELECT id, user_id, plan_date, total_minutes, is_completed, created_at
		 FROM daily_plans WHERE `+where, args...,
	).Scan(&p.ID, &p.UserID, &p.PlanDate, &p.TotalMinutes, &p.IsCompleted, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get plan: %w", err)
	}
	p.PlanDate = p.PlanDate.UTC()

	rows, err := s.q.QueryContext(ctx,
		`SELECT `+planItemCols+` FROM daily_plan_items WHERE plan_id = $1 ORDER BY display_order, id`, p.ID)
	if err != nil {
		return nil, fmt.Errorf("get plan items: %w", err)
	}
	defer rows.Close()

	p.Items = []models.DailyPlanItem{}
	for rows.Next() {
		it, err := scanPlanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan plan item: %w", err)
		}
		p.Items = append(p.Items, it)
	}
	return &p, rows.Err()
}

func (s *Store) GetPlan(ctx context.Context, userID int64, day time.Time) (*models.DailyPlan, error) {
	return s.loadPlan(ctx, `user_id = $1 AND plan_date = $2`, userID, day.UTC().Format("2006-01-02"))
}

func (s *Store) GetPlanByID(ctx context.Context, planID int64) (*models.DailyPlan, error) {
	return s.loadPlan(ctx, `id = $1`, planID)
}

// CreatePlan inserts the plan and its items, filling in their IDs.
func (s *Store) CreatePlan(ctx context.Context, p *models.DailyPlan) error {
	err := s.q.QueryRowContext(ctx,
		`INSERT INTO daily_plans (user_id, plan_date, total_minutes, is_completed, created_at)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		p.UserID, p.PlanDate.UTC().Format("2006-01-02"), p.TotalMinutes, p.IsCompleted, p.CreatedAt,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("create plan: %w", err)
	}

	for i := range p.Items {
		it := &p.Items[i]
		it.PlanID = p.ID
		err := s.q.QueryRowContext(ctx,
			`INSERT INTO daily_plan_items (plan_id, item_type, concept_id, duration_minutes,
			     question_count, difficulty_min, difficulty_max, display_order, is_completed)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
			it.PlanID, it.ItemType, it.ConceptID, it.DurationMinutes,
			it.QuestionCount, it.DifficultyMin, it.DifficultyMax, it.DisplayOrder, it.IsCompleted,
		).Scan(&it.ID)
		if err != nil {
			return fmt.Errorf("create plan item: %w", err)
		}
	}
	return nil
}

// DeletePlan removes a plan; its items go with it through ON DELETE CASCADE.
func (s *Store) DeletePlan(ctx context.Context, planID int64) error {
	if _, err := s.q.ExecContext(ctx, `DELETE FROM daily_plans WHERE id = $1`, planID); err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}
	return nil
}

func (s *Store) GetPlanItem(ctx context.Context, itemID int64) (*models.DailyPlanItem, error) {
	it, err := scanPlanItem(s.q.QueryRowContext(ctx,
		`SELECT `+planItemCols+` FROM daily_plan_items WHERE id = $1`, itemID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get plan item: %w", err)
	}
	return &it, nil
}

func (s *Store) CompletePlanItem(ctx context.Context, itemID int64) error {
	if _, err := s.q.ExecContext(ctx,
		`UPDATE daily_plan_items SET is_completed = TRUE WHERE id = $1`, itemID); err != nil {
		return fmt.Errorf("complete plan item: %w", err)
	}
	return nil
}

func (s *Store) SetPlanCompleted(ctx context.Context, planID int64, completed bool) error {
	if _, err := s.q.ExecContext(ctx,
		`UPDATE daily_plans SET is_completed = $1 WHERE id = $2`, completed, planID); err != nil {
		return fmt.Errorf("set plan completed: %w", err)
	}
	return nil
}
