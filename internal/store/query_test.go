package store

import (
	"testing"

	"github.com/exam-mentor/backend/internal/models"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func int64Ptr(v int64) *int64 { return &v }
func intPtr(v int) *int { return &v }

func TestFindQuestionQuery(t *testing.T) {
	tests := []struct {
		name       string
		difficulty *int
		exclude    []int64
		wantArgs   []any
		contains   []string
		absent     []string
	}{
		{
			name:     "concept only",
			wantArgs: []any{int64(5)},
			absent:   []string{"BETWEEN", "ALL("},
		},
		{
			name:       "difficulty window",
			difficulty: intPtr(3),
			wantArgs:   []any{int64(5), 2, 4},
			contains:   []string{"q.difficulty BETWEEN $2 AND $3"},
			absent:     []string{"ALL("},
		},
		{
			name:     "exclusions only",
			exclude:  []int64{4, 9},
			wantArgs: []any{int64(5), pq.Array([]int64{4, 9})},
			contains: []string{"q.id <> ALL($2)"},
			absent:   []string{"BETWEEN"},
		},
		{
			name:       "difficulty and exclusions",
			difficulty: intPtr(1),
			exclude:    []int64{4},
			wantArgs:   []any{int64(5), 0, 2, pq.Array([]int64{4})},
			contains:   []string{"q.difficulty BETWEEN $2 AND $3", "q.id <> ALL($4)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args := findQuestionQuery(5, tt.difficulty, tt.exclude)

			assert.Equal(t, tt.wantArgs, args)
			assert.Contains(t, query, "q.concept_id = $1 AND q.is_active")
			assert.Contains(t, query, "ORDER BY q.difficulty, q.id LIMIT 1")
			for _, s := range tt.contains {
				assert.Contains(t, query, s)
			}
			for _, s := range tt.absent {
				assert.NotContains(t, query, s)
			}
		})
	}
}

func TestRandomQuestionsQuery(t *testing.T) {
	tests := []struct {
		name     string
		filter   models.QuestionFilter
		wantArgs []any
		contains []string
	}{
		{
			name:     "no filter",
			wantArgs: []any{10},
			contains: []string{"ORDER BY RANDOM() LIMIT $1"},
		},
		{
			name:     "topic",
			filter:   models.QuestionFilter{TopicID: int64Ptr(2)},
			wantArgs: []any{int64(2), 10},
			contains: []string{"c.topic_id = $1", "LIMIT $2"},
		},
		{
			name:     "concept and difficulty",
			filter:   models.QuestionFilter{ConceptID: int64Ptr(8), Difficulty: intPtr(5)},
			wantArgs: []any{int64(8), 4, 6, 10},
			contains: []string{"q.concept_id = $1", "q.difficulty BETWEEN $2 AND $3", "LIMIT $4"},
		},
		{
			name:     "everything",
			filter:   models.QuestionFilter{TopicID: int64Ptr(2), ConceptID: int64Ptr(8), Difficulty: intPtr(3)},
			wantArgs: []any{int64(2), int64(8), 2, 4, 10},
			contains: []string{"c.topic_id = $1", "q.concept_id = $2", "q.difficulty BETWEEN $3 AND $4", "LIMIT $5"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args := randomQuestionsQuery(tt.filter, 10)

			assert.Equal(t, tt.wantArgs, args)
			assert.Contains(t, query, "WHERE q.is_active")
			for _, s := range tt.contains {
				assert.Contains(t, query, s)
			}
		})
	}
}

func TestAttemptHistoryQueries(t *testing.T) {
	t.Run("all topics", func(t *testing.T) {
		count, countArgs, page, pageArgs := attemptHistoryQueries(7, nil, 20, 40)

		assert.Equal(t, []any{int64(7)}, countArgs)
		assert.Equal(t, []any{int64(7), 20, 40}, pageArgs)
		assert.NotContains(t, count, "JOIN")
		assert.Contains(t, page, "LIMIT $2 OFFSET $3")
		assert.Contains(t, page, "ORDER BY a.created_at DESC, a.id DESC")
	})

	t.Run("one topic", func(t *testing.T) {
		count, countArgs, page, pageArgs := attemptHistoryQueries(7, int64Ptr(3), 20, 0)

		assert.Equal(t, []any{int64(7), int64(3)}, countArgs)
		assert.Equal(t, []any{int64(7), int64(3), 20, 0}, pageArgs)
		assert.Contains(t, count, "c.topic_id = $2")
		assert.Contains(t, page, "c.topic_id = $2")
		assert.Contains(t, page, "LIMIT $3 OFFSET $4")
	})
}
