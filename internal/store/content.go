package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/exam-mentor/backend/internal/models"
	"github.com/lib/pq"
)

// ── Topics & Concepts ───────────────────────────────────

func (s *Store) ListTopics(ctx context.Context) ([]models.Topic, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, name, description, exam_weight, display_order
		 FROM topics ORDER BY display_order, id`)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	defer rows.Close()

	var topics []models.Topic
	for rows.Next() {
		var t models.Topic
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.ExamWeight, &t.DisplayOrder); err != nil {
			return nil, fmt.Errorf("scan topic: %w", err)
		}
		topics = append(topics, t)
	}
	return topics, rows.Err()
}

func (s *Store) CountTopics(ctx context.Context) (int, error) {
	var n int
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM topics`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count topics: %w", err)
	}
	return n, nil
}

func (s *Store) CreateTopic(ctx context.Context, t *models.Topic) error {
	err := s.q.QueryRowContext(ctx,
		`INSERT INTO topics (name, description, exam_weight, display_order)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		t.Name, t.Description, t.ExamWeight, t.DisplayOrder,
	).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("create topic: %w", err)
	}
	return nil
}

const conceptCols = `id, topic_id, name, description, prerequisite_id, display_order`

func scanConcept(sc interface{ Scan(...any) error }) (models.Concept, error) {
	var c models.Concept
	err := sc.Scan(&c.ID, &c.TopicID, &c.Name, &c.Description, &c.PrerequisiteID, &c.DisplayOrder)
	return c, err
}

func (s *Store) GetConcept(ctx context.Context, conceptID int64) (*models.Concept, error) {
	c, err := scanConcept(s.q.QueryRowContext(ctx,
		`SELECT `+conceptCols+` FROM concepts WHERE id = $1`, conceptID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get concept: %w", err)
	}
	return &c, nil
}

func (s *Store) ListConcepts(ctx context.Context, topicID *int64) ([]models.Concept, error) {
	query := `SELECT ` + conceptCols + ` FROM concepts`
	var args []any
	if topicID != nil {
		query += ` WHERE topic_id = $1`
		args = append(args, *topicID)
	}
	query += ` ORDER BY topic_id, display_order, id`

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list concepts: %w", err)
	}
	defer rows.Close()

	var concepts []models.Concept
	for rows.Next() {
		c, err := scanConcept(rows)
		if err != nil {
			return nil, fmt.Errorf("scan concept: %w", err)
		}
		concepts = append(concepts, c)
	}
	return concepts, rows.Err()
}

func (s *Store) CreateConcept(ctx context.Context, c *models.Concept) error {
	err := s.q.QueryRowContext(ctx,
		`INSERT INTO concepts (topic_id, name, description, prerequisite_id, display_order)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		c.TopicID, c.Name, c.Description, c.PrerequisiteID, c.DisplayOrder,
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("create concept: %w", err)
	}
	return nil
}

// ConceptNames returns the concept and topic names for a concept. Unknown
// concepts yield empty names.
func (s *Store) ConceptNames(ctx context.Context, conceptID int64) (concept, topic string, err error) {
	err = s.q.QueryRowContext(ctx,
		`SELECT c.name, t.name FROM concepts c JOIN topics t ON t.id = c.topic_id WHERE c.id = $1`,
		conceptID,
	).Scan(&concept, &topic)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", nil
	}
	if err != nil {
		return "", "", fmt.Errorf("concept names: %w", err)
	}
	return concept, topic, nil
}

// ── Questions ───────────────────────────────────────────

const questionCols = `q.id, q.concept_id, q.text, q.option_a, q.option_b, q.option_c, q.option_d,
	q.correct_option, q.explanation, q.hint, q.why_wrong, q.difficulty,
	q.expected_time_seconds, q.is_active, q.created_at`

func scanQuestion(sc interface{ Scan(...any) error }) (models.Question, error) {
	var q models.Question
	var whyWrong []byte
	err := sc.Scan(&q.ID, &q.ConceptID, &q.Text, &q.OptionA, &q.OptionB, &q.OptionC, &q.OptionD,
		&q.CorrectOption, &q.Explanation, &q.Hint, &whyWrong, &q.Difficulty,
		&q.ExpectedTimeSeconds, &q.IsActive, &q.CreatedAt)
	if err != nil {
		return q, err
	}
	if len(whyWrong) > 0 {
		if err := json.Unmarshal(whyWrong, &q.WhyWrong); err != nil {
			return q, fmt.Errorf("decode why_wrong: %w", err)
		}
	}
	q.CorrectOption = strings.TrimSpace(q.CorrectOption)
	return q, nil
}

func (s *Store) GetQuestion(ctx context.Context, questionID int64) (*models.Question, error) {
	q, err := scanQuestion(s.q.QueryRowContext(ctx,
		`SELECT `+questionCols+` FROM questions q WHERE q.id = $1`, questionID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get question: %w", err)
	}
	return &q, nil
}

func (s *Store) FindQuestion(ctx context.Context, conceptID int64, difficulty *int, exclude []int64) (*models.Question, error) {
	query, args := findQuestionQuery(conceptID, difficulty, exclude)
	q, err := scanQuestion(s.q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find question: %w", err)
	}
	return &q, nil
}

// findQuestionQuery selects the easiest active question of a concept,
// within one level of difficulty when given, skipping excluded IDs.
func findQuestionQuery(conceptID int64, difficulty *int, exclude []int64) (string, []any) {
	query := `SELECT ` + questionCols + ` FROM questions q
		 WHERE q.concept_id = $1 AND q.is_active`
	args := []any{conceptID}

	if difficulty != nil {
		args = append(args, *difficulty-1, *difficulty+1)
		query += fmt.Sprintf(` AND q.difficulty BETWEEN $%d AND $%d`, len(args)-1, len(args))
	}
	if len(exclude) > 0 {
		args = append(args, pq.Array(exclude))
		query += fmt.Sprintf(` AND q.id <> ALL($%d)`, len(args))
	}
	query += ` ORDER BY q.difficulty, q.id LIMIT 1`
	return query, args
}

// RandomQuestions draws up to limit active questions in random order.
func (s *Store) RandomQuestions(ctx context.Context, f models.QuestionFilter, limit int) ([]models.Question, error) {
	query, args := randomQuestionsQuery(f, limit)
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("random questions: %w", err)
	}
	defer rows.Close()

	var questions []models.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func randomQuestionsQuery(f models.QuestionFilter, limit int) (string, []any) {
	query := `SELECT ` + questionCols + ` FROM questions q JOIN concepts c ON c.id = q.concept_id
		 WHERE q.is_active`
	var args []any

	if f.TopicID != nil {
		args = append(args, *f.TopicID)
		query += fmt.Sprintf(` AND c.topic_id = $%d`, len(args))
	}
	if f.ConceptID != nil {
		args = append(args, *f.ConceptID)
		query += fmt.Sprintf(` AND q.concept_id = $%d`, len(args))
	}
	if f.Difficulty != nil {
		args = append(args, *f.Difficulty-1, *f.Difficulty+1)
		query += fmt.Sprintf(` AND q.difficulty BETWEEN $%d AND $%d`, len(args)-1, len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(` ORDER BY RANDOM() LIMIT $%d`, len(args))
	return query, args
}

func (s *Store) CreateQuestion(ctx context.Context, q *models.Question) error {
	whyWrong, err := json.Marshal(q.WhyWrong)
	if err != nil {
		return fmt.Errorf("encode why_wrong: %w", err)
	}
	if q.WhyWrong == nil {
		whyWrong = []byte("{}")
	}
	err = s.q.QueryRowContext(ctx,
		`INSERT INTO questions (concept_id, text, option_a, option_b, option_c, option_d,
		     correct_option, explanation, hint, why_wrong, difficulty, expected_time_seconds, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING id, created_at`,
		q.ConceptID, q.Text, q.OptionA, q.OptionB, q.OptionC, q.OptionD,
		q.CorrectOption, q.Explanation, q.Hint, whyWrong, q.Difficulty, q.ExpectedTimeSeconds, q.IsActive,
	).Scan(&q.ID, &q.CreatedAt)
	if err != nil {
		return fmt.Errorf("create question: %w", err)
	}
	return nil
}
