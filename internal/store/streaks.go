package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/exam-mentor/backend/internal/models"
)

func (s *Store) GetStreak(ctx context.Context, userID int64) (*models.Streak, error) {
	var st models.Streak
	err := s.q.QueryRowContext(ctx,
		`SELECT id, user_id, current_streak, longest_streak, last_activity_date, streak_start_date
		 FROM streaks WHERE user_id = $1`,
		userID,
	).Scan(&st.ID, &st.UserID, &st.CurrentStreak, &st.LongestStreak, &st.LastActivityDate, &st.StreakStartDate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get streak: %w", err)
	}
	return &st, nil
}

func (s *Store) SaveStreak(ctx context.Context, st *models.Streak) error {
	err := s.q.QueryRowContext(ctx,
		`INSERT INTO streaks (user_id, current_streak, longest_streak, last_activity_date, streak_start_date)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id) DO UPDATE SET
		     current_streak = EXCLUDED.current_streak,
		     longest_streak = EXCLUDED.longest_streak,
		     last_activity_date = EXCLUDED.last_activity_date,
		     streak_start_date = EXCLUDED.streak_start_date
		 RETURNING id`,
		st.UserID, st.CurrentStreak, st.LongestStreak, st.LastActivityDate, st.StreakStartDate,
	).Scan(&st.ID)
	if err != nil {
		return fmt.Errorf("save streak: %w", err)
	}
	return nil
}
