package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/exam-mentor/backend/internal/models"
)

const sessionCols = `id, user_id, session_type, question_count, correct_count, total_time_seconds,
	started_at, ended_at, is_completed`

func scanSession(sc interface{ Scan(...any) error }) (models.StudySession, error) {
	var ss models.StudySession
	err := sc.Scan(&ss.ID, &ss.UserID, &ss.SessionType, &ss.QuestionCount, &ss.CorrectCount,
		&ss.TotalTimeSeconds, &ss.StartedAt, &ss.EndedAt, &ss.IsCompleted)
	return ss, err
}

func (s *Store) CreateSession(ctx context.Context, ss *models.StudySession) error {
	err := s.q.QueryRowContext(ctx,
		`INSERT INTO study_sessions (user_id, session_type, question_count, started_at)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		ss.UserID, ss.SessionType, ss.QuestionCount, ss.StartedAt,
	).Scan(&ss.ID)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, sessionID int64) (*models.StudySession, error) {
	ss, err := scanSession(s.q.QueryRowContext(ctx,
		`SELECT `+sessionCols+` FROM study_sessions WHERE id = $1`, sessionID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &ss, nil
}

// CompleteSession stores the final tallies and closes the session.
func (s *Store) CompleteSession(ctx context.Context, ss *models.StudySession) error {
	_, err := s.q.ExecContext(ctx,
		`UPDATE study_sessions
		 SET correct_count = $1, total_time_seconds = $2, ended_at = $3, is_completed = TRUE
		 WHERE id = $4`,
		ss.CorrectCount, ss.TotalTimeSeconds, ss.EndedAt, ss.ID,
	)
	if err != nil {
		return fmt.Errorf("complete session: %w", err)
	}
	return nil
}

func (s *Store) RecentSessions(ctx context.Context, userID int64, limit int) ([]models.StudySession, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+sessionCols+` FROM study_sessions WHERE user_id = $1
		 ORDER BY started_at DESC, id DESC LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent sessions: %w", err)
	}
	defer rows.Close()

	out := []models.StudySession{}
	for rows.Next() {
		ss, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, ss)
	}
	return out, rows.Err()
}
