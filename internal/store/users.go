package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/exam-mentor/backend/internal/models"
	"github.com/lib/pq"
)

// ErrDuplicate reports a unique constraint violation.
var ErrDuplicate = errors.New("duplicate record")

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

const userCols = `id, email, name, password, level, daily_minutes, target_score, exam_date,
	study_focus, onboarding_complete, created_at, updated_at`

func scanUser(sc interface{ Scan(...any) error }) (models.User, error) {
	var u models.User
	err := sc.Scan(&u.ID, &u.Email, &u.Name, &u.Password, &u.Level, &u.DailyMinutes, &u.TargetScore, &u.ExamDate,
		&u.StudyFocus, &u.OnboardingComplete, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (s *Store) getUser(ctx context.Context, where string, arg any) (*models.User, error) {
	u, err := scanUser(s.q.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE `+where, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (s *Store) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	return s.getUser(ctx, `id = $1`, userID)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, `email = $1`, email)
}

// CreateUser inserts u with its hashed password already set.
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	now := time.Now().UTC()
	err := s.q.QueryRowContext(ctx,
		`INSERT INTO users (email, name, password, level, daily_minutes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $6)
		 RETURNING id, onboarding_complete, created_at, updated_at`,
		u.Email, u.Name, u.Password, u.Level, u.DailyMinutes, now,
	).Scan(&u.ID, &u.OnboardingComplete, &u.CreatedAt, &u.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// UpdateProfile writes the editable profile fields of u.
func (s *Store) UpdateProfile(ctx context.Context, u *models.User) error {
	err := s.q.QueryRowContext(ctx,
		`UPDATE users SET name = $1, level = $2, daily_minutes = $3, target_score = $4,
		     exam_date = $5, study_focus = $6, onboarding_complete = $7, updated_at = NOW()
		 WHERE id = $8
		 RETURNING updated_at`,
		u.Name, u.Level, u.DailyMinutes, u.TargetScore, u.ExamDate, u.StudyFocus, u.OnboardingComplete, u.ID,
	).Scan(&u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

func (s *Store) MarkOnboarded(ctx context.Context, userID int64) error {
	if _, err := s.q.ExecContext(ctx,
		`UPDATE users SET onboarding_complete = TRUE, updated_at = NOW() WHERE id = $1`, userID); err != nil {
		return fmt.Errorf("mark onboarded: %w", err)
	}
	return nil
}
