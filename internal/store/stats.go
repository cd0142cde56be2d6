package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/exam-mentor/backend/internal/models"
)

const statsCols = `s.id, s.user_id, s.concept_id, s.mastery, s.accuracy, s.total_attempts,
	s.correct_attempts, s.avg_time_seconds, s.difficulty_comfort, s.current_streak,
	s.best_streak, s.last_seen, s.last_correct`

func scanStats(sc interface{ Scan(...any) error }) (models.ConceptStats, error) {
	var st models.ConceptStats
	err := sc.Scan(&st.ID, &st.UserID, &st.ConceptID, &st.Mastery, &st.Accuracy, &st.TotalAttempts,
		&st.CorrectAttempts, &st.AvgTimeSeconds, &st.DifficultyComfort, &st.CurrentStreak,
		&st.BestStreak, &st.LastSeen, &st.LastCorrect)
	return st, err
}

func (s *Store) queryStats(ctx context.Context, query string, args ...any) ([]models.ConceptStats, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ConceptStats
	for rows.Next() {
		st, err := scanStats(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *Store) GetConceptStats(ctx context.Context, userID, conceptID int64) (*models.ConceptStats, error) {
	st, err := scanStats(s.q.QueryRowContext(ctx,
		`SELECT `+statsCols+` FROM concept_stats s WHERE s.user_id = $1 AND s.concept_id = $2`,
		userID, conceptID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get concept stats: %w", err)
	}
	return &st, nil
}

func (s *Store) ListConceptStats(ctx context.Context, userID int64) ([]models.ConceptStats, error) {
	out, err := s.queryStats(ctx,
		`SELECT `+statsCols+` FROM concept_stats s WHERE s.user_id = $1 ORDER BY s.concept_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list concept stats: %w", err)
	}
	return out, nil
}

func (s *Store) WeakestConceptStats(ctx context.Context, userID int64, limit int) ([]models.ConceptStats, error) {
	out, err := s.queryStats(ctx,
		`SELECT `+statsCols+` FROM concept_stats s WHERE s.user_id = $1
		 ORDER BY s.mastery ASC, s.concept_id LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("weakest concept stats: %w", err)
	}
	return out, nil
}

// SaveConceptStats upserts on the (user_id, concept_id) pair.
func (s *Store) SaveConceptStats(ctx context.Context, st *models.ConceptStats) error {
	err := s.q.QueryRowContext(ctx,
		`INSERT INTO concept_stats (user_id, concept_id, mastery, accuracy, total_attempts,
		     correct_attempts, avg_time_seconds, difficulty_comfort, current_streak, best_streak,
		     last_seen, last_correct)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (user_id, concept_id) DO UPDATE SET
		     mastery = EXCLUDED.mastery,
		     accuracy = EXCLUDED.accuracy,
		     total_attempts = EXCLUDED.total_attempts,
		     correct_attempts = EXCLUDED.correct_attempts,
		     avg_time_seconds = EXCLUDED.avg_time_seconds,
		     difficulty_comfort = EXCLUDED.difficulty_comfort,
		     current_streak = EXCLUDED.current_streak,
		     best_streak = EXCLUDED.best_streak,
		     last_seen = EXCLUDED.last_seen,
		     last_correct = EXCLUDED.last_correct
		 RETURNING id`,
		st.UserID, st.ConceptID, st.Mastery, st.Accuracy, st.TotalAttempts,
		st.CorrectAttempts, st.AvgTimeSeconds, st.DifficultyComfort, st.CurrentStreak, st.BestStreak,
		st.LastSeen, st.LastCorrect,
	).Scan(&st.ID)
	if err != nil {
		return fmt.Errorf("save concept stats: %w", err)
	}
	return nil
}

// ── Dashboard Aggregates ────────────────────────────────

// AttemptTotals returns the learner's attempt count, correct count and mean
// answer time.
func (s *Store) AttemptTotals(ctx context.Context, userID int64) (total, correct int, avgTime float64, err error) {
	err = s.q.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE is_correct),
		        COALESCE(AVG(time_taken_seconds), 0)
		 FROM attempts WHERE user_id = $1`,
		userID,
	).Scan(&total, &correct, &avgTime)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("attempt totals: %w", err)
	}
	return total, correct, avgTime, nil
}

func (s *Store) TotalStudySeconds(ctx context.Context, userID int64) (int, error) {
	var secs int
	err := s.q.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(total_time_seconds), 0) FROM study_sessions WHERE user_id = $1`,
		userID,
	).Scan(&secs)
	if err != nil {
		return 0, fmt.Errorf("total study seconds: %w", err)
	}
	return secs, nil
}

// TopicMasteryAverages returns mean concept mastery per topic name over the
// concepts the learner has stats for.
func (s *Store) TopicMasteryAverages(ctx context.Context, userID int64) (map[string]float64, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT t.name, AVG(s.mastery)
		 FROM concept_stats s
		 JOIN concepts c ON c.id = s.concept_id
		 JOIN topics t ON t.id = c.topic_id
		 WHERE s.user_id = $1
		 GROUP BY t.name`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("topic mastery: %w", err)
	}
	defer rows.Close()

	out := make(map[string]float64)
	for rows.Next() {
		var name string
		var avg float64
		if err := rows.Scan(&name, &avg); err != nil {
			return nil, fmt.Errorf("scan topic mastery: %w", err)
		}
		out[name] = avg
	}
	return out, rows.Err()
}

// WeakestConcepts joins the lowest-mastery stats with concept and topic names.
func (s *Store) WeakestConcepts(ctx context.Context, userID int64, limit int) ([]models.WeakConcept, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT s.concept_id, c.name, t.name, s.mastery, s.accuracy, s.avg_time_seconds,
		        s.total_attempts, s.current_streak
		 FROM concept_stats s
		 JOIN concepts c ON c.id = s.concept_id
		 JOIN topics t ON t.id = c.topic_id
		 WHERE s.user_id = $1
		 ORDER BY s.mastery ASC, s.concept_id
		 LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("weakest concepts: %w", err)
	}
	defer rows.Close()

	out := []models.WeakConcept{}
	for rows.Next() {
		var w models.WeakConcept
		if err := rows.Scan(&w.ConceptID, &w.ConceptName, &w.TopicName, &w.Mastery, &w.Accuracy,
			&w.AvgTimeSeconds, &w.TotalAttempts, &w.CurrentStreak); err != nil {
			return nil, fmt.Errorf("scan weak concept: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// MasteryMap lists every concept grouped by topic in display order, with the
// learner's stats where they exist.
func (s *Store) MasteryMap(ctx context.Context, userID int64) ([]models.TopicMastery, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT t.id, t.name, c.id, c.name,
		        COALESCE(s.mastery, 0), COALESCE(s.accuracy, 0), COALESCE(s.total_attempts, 0)
		 FROM topics t
		 LEFT JOIN concepts c ON c.topic_id = t.id
		 LEFT JOIN concept_stats s ON s.concept_id = c.id AND s.user_id = $1
		 ORDER BY t.display_order, t.id, c.display_order, c.id`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("mastery map: %w", err)
	}
	defer rows.Close()

	var out []models.TopicMastery
	for rows.Next() {
		var topicID int64
		var topicName string
		var conceptID sql.NullInt64
		var conceptName sql.NullString
		var cm models.ConceptMastery
		if err := rows.Scan(&topicID, &topicName, &conceptID, &conceptName,
			&cm.Mastery, &cm.Accuracy, &cm.TotalAttempts); err != nil {
			return nil, fmt.Errorf("scan mastery map: %w", err)
		}

		if len(out) == 0 || out[len(out)-1].TopicID != topicID {
			out = append(out, models.TopicMastery{TopicID: topicID, TopicName: topicName, Concepts: []models.ConceptMastery{}})
		}
		if conceptID.Valid {
			cm.ID = conceptID.Int64
			cm.Name = conceptName.String
			last := &out[len(out)-1]
			last.Concepts = append(last.Concepts, cm)
		}
	}
	return out, rows.Err()
}

// DailyAttemptTotals aggregates attempts per UTC day from since onwards.
func (s *Store) DailyAttemptTotals(ctx context.Context, userID int64, since time.Time) ([]models.DailyAttemptTotals, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT (created_at AT TIME ZONE 'UTC')::date AS day,
		        COUNT(*),
		        COUNT(*) FILTER (WHERE is_correct),
		        COALESCE(SUM(time_taken_seconds), 0)
		 FROM attempts
		 WHERE user_id = $1 AND created_at >= $2
		 GROUP BY day ORDER BY day`,
		userID, since)
	if err != nil {
		return nil, fmt.Errorf("daily attempt totals: %w", err)
	}
	defer rows.Close()

	var out []models.DailyAttemptTotals
	for rows.Next() {
		var d models.DailyAttemptTotals
		if err := rows.Scan(&d.Day, &d.Total, &d.Correct, &d.TotalTime); err != nil {
			return nil, fmt.Errorf("scan daily totals: %w", err)
		}
		d.Day = d.Day.UTC()
		out = append(out, d)
	}
	return out, rows.Err()
}
