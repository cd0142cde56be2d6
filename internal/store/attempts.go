package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/exam-mentor/backend/internal/models"
)

const attemptCols = `a.id, a.user_id, a.question_id, a.session_id, a.selected_option, a.is_correct,
	a.time_taken_seconds, a.was_guessed, a.hint_used, a.mistake_type, a.next_review_date,
	a.review_interval_days, a.review_count, a.created_at`

func scanAttempt(sc interface{ Scan(...any) error }) (models.Attempt, error) {
	var a models.Attempt
	var mistake sql.NullString
	err := sc.Scan(&a.ID, &a.UserID, &a.QuestionID, &a.SessionID, &a.SelectedOption, &a.IsCorrect,
		&a.TimeTakenSeconds, &a.WasGuessed, &a.HintUsed, &mistake, &a.NextReviewDate,
		&a.ReviewIntervalDays, &a.ReviewCount, &a.CreatedAt)
	if err != nil {
		return a, err
	}
	a.SelectedOption = strings.TrimSpace(a.SelectedOption)
	if mistake.Valid {
		mt := models.MistakeType(mistake.String)
		a.MistakeType = &mt
	}
	return a, nil
}

func (s *Store) queryAttempts(ctx context.Context, query string, args ...any) ([]models.Attempt, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Attempt{}
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) CreateAttempt(ctx context.Context, a *models.Attempt) error {
	var mistake *string
	if a.MistakeType != nil {
		m := string(*a.MistakeType)
		mistake = &m
	}
	err := s.q.QueryRowContext(ctx,
		`INSERT INTO attempts (user_id, question_id, session_id, selected_option, is_correct,
		     time_taken_seconds, was_guessed, hint_used, mistake_type, next_review_date,
		     review_interval_days, review_count, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING id`,
		a.UserID, a.QuestionID, a.SessionID, a.SelectedOption, a.IsCorrect,
		a.TimeTakenSeconds, a.WasGuessed, a.HintUsed, mistake, a.NextReviewDate,
		a.ReviewIntervalDays, a.ReviewCount, a.CreatedAt,
	).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("create attempt: %w", err)
	}
	return nil
}

func (s *Store) GetAttempt(ctx context.Context, attemptID int64) (*models.Attempt, error) {
	a, err := scanAttempt(s.q.QueryRowContext(ctx,
		`SELECT `+attemptCols+` FROM attempts a WHERE a.id = $1`, attemptID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get attempt: %w", err)
	}
	return &a, nil
}

func (s *Store) UpdateAttemptReview(ctx context.Context, a *models.Attempt) error {
	_, err := s.q.ExecContext(ctx,
		`UPDATE attempts SET next_review_date = $1, review_interval_days = $2, review_count = $3
		 WHERE id = $4`,
		a.NextReviewDate, a.ReviewIntervalDays, a.ReviewCount, a.ID,
	)
	if err != nil {
		return fmt.Errorf("update attempt review: %w", err)
	}
	return nil
}

func (s *Store) SetMistakeType(ctx context.Context, attemptID int64, mt models.MistakeType) error {
	_, err := s.q.ExecContext(ctx,
		`UPDATE attempts SET mistake_type = $1 WHERE id = $2`, string(mt), attemptID)
	if err != nil {
		return fmt.Errorf("set mistake type: %w", err)
	}
	return nil
}

func (s *Store) AnsweredQuestionIDs(ctx context.Context, userID, conceptID int64) ([]int64, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT DISTINCT a.question_id
		 FROM attempts a JOIN questions q ON q.id = a.question_id
		 WHERE a.user_id = $1 AND q.concept_id = $2`,
		userID, conceptID)
	if err != nil {
		return nil, fmt.Errorf("answered questions: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan question id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ── Review Queue ────────────────────────────────────────

func (s *Store) DueReviews(ctx context.Context, userID int64, asOf time.Time, limit int) ([]models.Attempt, error) {
	query := `SELECT ` + attemptCols + ` FROM attempts a
		 WHERE a.user_id = $1 AND a.is_correct = FALSE
		   AND a.next_review_date IS NOT NULL AND a.next_review_date <= $2
		 ORDER BY a.next_review_date ASC, a.id`
	args := []any{userID, asOf}
	if limit > 0 {
		query += ` LIMIT $3`
		args = append(args, limit)
	}

	out, err := s.queryAttempts(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("due reviews: %w", err)
	}
	return out, nil
}

func (s *Store) CountDueReviews(ctx context.Context, userID int64, asOf time.Time) (int, error) {
	var n int
	err := s.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM attempts
		 WHERE user_id = $1 AND is_correct = FALSE
		   AND next_review_date IS NOT NULL AND next_review_date <= $2`,
		userID, asOf,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count due reviews: %w", err)
	}
	return n, nil
}

// ReviewItems decorates due attempts with question, concept and topic
// details for display.
func (s *Store) ReviewItems(ctx context.Context, attempts []models.Attempt) ([]models.ReviewItem, error) {
	items := make([]models.ReviewItem, 0, len(attempts))
	for _, a := range attempts {
		item := models.ReviewItem{
			AttemptID:      a.ID,
			QuestionID:     a.QuestionID,
			SelectedOption: a.SelectedOption,
			MistakeType:    a.MistakeType,
			ReviewCount:    a.ReviewCount,
			NextReviewDate: a.NextReviewDate,
		}
		err := s.q.QueryRowContext(ctx,
			`SELECT q.text, q.correct_option, c.name, t.name
			 FROM questions q
			 JOIN concepts c ON c.id = q.concept_id
			 JOIN topics t ON t.id = c.topic_id
			 WHERE q.id = $1`,
			a.QuestionID,
		).Scan(&item.QuestionText, &item.CorrectOption, &item.ConceptName, &item.TopicName)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("review item details: %w", err)
		}
		item.CorrectOption = strings.TrimSpace(item.CorrectOption)
		items = append(items, item)
	}
	return items, nil
}

// ── History ─────────────────────────────────────────────

// AttemptHistory pages through a learner's attempts, newest first,
// optionally restricted to one topic.
func (s *Store) AttemptHistory(ctx context.Context, userID int64, topicID *int64, limit, offset int) ([]models.Attempt, int, error) {
	countQuery, countArgs, pageQuery, pageArgs := attemptHistoryQueries(userID, topicID, limit, offset)

	var total int
	if err := s.q.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count attempts: %w", err)
	}

	out, err := s.queryAttempts(ctx, pageQuery, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("attempt history: %w", err)
	}
	return out, total, nil
}

// attemptHistoryQueries builds the total count and the page query over the
// same filter.
func attemptHistoryQueries(userID int64, topicID *int64, limit, offset int) (string, []any, string, []any) {
	where := `a.user_id = $1`
	args := []any{userID}
	join := ``
	if topicID != nil {
		join = ` JOIN questions q ON q.id = a.question_id JOIN concepts c ON c.id = q.concept_id`
		where += ` AND c.topic_id = $2`
		args = append(args, *topicID)
	}
	countQuery := `SELECT COUNT(*) FROM attempts a` + join + ` WHERE ` + where

	pageArgs := append(append([]any{}, args...), limit, offset)
	pageQuery := fmt.Sprintf(`SELECT %s FROM attempts a%s WHERE %s
		 ORDER BY a.created_at DESC, a.id DESC LIMIT $%d OFFSET $%d`,
		attemptCols, join, where, len(pageArgs)-1, len(pageArgs))
	return countQuery, args, pageQuery, pageArgs
}

// ActiveLearnerIDs lists learners with at least one attempt since the given
// time.
func (s *Store) ActiveLearnerIDs(ctx context.Context, since time.Time) ([]int64, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT DISTINCT user_id FROM attempts WHERE created_at >= $1 ORDER BY user_id`, since)
	if err != nil {
		return nil, fmt.Errorf("active learners: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan learner id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
