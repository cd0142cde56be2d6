package practice

import (
	"net/url"
	"testing"
	"time"

	"github.com/exam-mentor/backend/internal/learning"
	"github.com/exam-mentor/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeSession(t *testing.T) {
	sess := &models.StudySession{ID: 12, SessionType: models.SessionTimedSet}
	graded := []gradedAnswer{
		{topic: "Algebra", correct: true, timeTaken: 40},
		{topic: "Geometry", correct: false, timeTaken: 95},
		{topic: "Algebra", correct: false, timeTaken: 61},
		{topic: "Algebra", correct: true, timeTaken: 50},
	}

	// Five submitted, one pointed at a question that no longer exists.
	res := summarizeSession(sess, 5, graded)

	assert.Equal(t, int64(12), res.SessionID)
	assert.Equal(t, models.SessionTimedSet, res.SessionType)
	assert.Equal(t, 5, res.TotalQuestions)
	assert.Equal(t, 2, res.CorrectCount)
	assert.Equal(t, 246, res.TotalTimeSeconds)
	assert.InDelta(t, 0.4, res.Accuracy, 1e-9)
	assert.InDelta(t, 49.2, res.AvgTimePerQuestion, 1e-9)

	require.Len(t, res.TopicBreakdown, 2)
	alg := res.TopicBreakdown[0]
	assert.Equal(t, "Algebra", alg.TopicName)
	assert.Equal(t, 2, alg.Correct)
	assert.Equal(t, 3, alg.Total)
	assert.InDelta(t, 0.667, alg.Accuracy, 1e-9)
	assert.InDelta(t, 50.3, alg.AvgTime, 1e-9)

	geo := res.TopicBreakdown[1]
	assert.Equal(t, "Geometry", geo.TopicName)
	assert.Equal(t, 0.0, geo.Accuracy)
	assert.InDelta(t, 95.0, geo.AvgTime, 1e-9)
}

func TestSummarizeSessionEmpty(t *testing.T) {
	res := summarizeSession(&models.StudySession{ID: 1}, 0, nil)
	assert.Zero(t, res.Accuracy)
	assert.Zero(t, res.AvgTimePerQuestion)
	assert.NotNil(t, res.TopicBreakdown)
	assert.Empty(t, res.TopicBreakdown)
}

func TestBuildPlanResponse(t *testing.T) {
	drill := int64(7)
	gone := int64(8)
	plan := &models.DailyPlan{
		ID:           3,
		PlanDate:     time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		TotalMinutes: 45,
		Items: []models.DailyPlanItem{
			{ID: 30, ItemType: models.ItemTimedSprint, DisplayOrder: 3},
			{ID: 10, ItemType: models.ItemWarmup, DisplayOrder: 0},
			{ID: 20, ItemType: models.ItemWeakTopicDrill, ConceptID: &drill, DisplayOrder: 2},
			{ID: 25, ItemType: models.ItemWeakTopicDrill, ConceptID: &gone, DisplayOrder: 2},
		},
	}

	resp := buildPlanResponse(plan, map[int64]string{drill: "Ratios", gone: ""})

	assert.Equal(t, "2026-03-10", resp.PlanDate)
	assert.Equal(t, 45, resp.TotalMinutes)
	require.Len(t, resp.Items, 4)

	var ids []int64
	for _, it := range resp.Items {
		ids = append(ids, it.ID)
	}
	assert.Equal(t, []int64{10, 20, 25, 30}, ids)

	require.NotNil(t, resp.Items[1].ConceptName)
	assert.Equal(t, "Ratios", *resp.Items[1].ConceptName)
	assert.Nil(t, resp.Items[2].ConceptName)
	assert.Nil(t, resp.Items[0].ConceptName)
}

func TestNormalizePaging(t *testing.T) {
	tests := []struct {
		page, perPage         int
		wantPage, wantPerPage int
	}{
		{1, 20, 1, 20},
		{0, 0, 1, defaultHistoryPerPage},
		{-3, 5, 1, 5},
		{4, 1000, 4, maxHistoryPerPage},
	}
	for _, tt := range tests {
		page, perPage := normalizePaging(tt.page, tt.perPage)
		assert.Equal(t, tt.wantPage, page)
		assert.Equal(t, tt.wantPerPage, perPage)
	}
}

func TestQueryHelpers(t *testing.T) {
	q := url.Values{"topic_id": {"4"}, "concept_id": {"-1"}, "page": {"x"}, "difficulty": {"3"}}

	topic := queryInt64Ptr(q, "topic_id")
	require.NotNil(t, topic)
	assert.Equal(t, int64(4), *topic)
	assert.Nil(t, queryInt64Ptr(q, "concept_id"))
	assert.Nil(t, queryInt64Ptr(q, "missing"))

	assert.Equal(t, 1, intQueryParam(q, "page", 1))

	d, ok := queryDifficulty(q)
	assert.True(t, ok)
	require.NotNil(t, d)
	assert.Equal(t, 3, *d)

	d, ok = queryDifficulty(url.Values{})
	assert.True(t, ok)
	assert.Nil(t, d)
}

func TestCheckSession(t *testing.T) {
	open := &models.StudySession{ID: 3, UserID: 7}
	done := &models.StudySession{ID: 4, UserID: 7, IsCompleted: true}

	tests := []struct {
		name     string
		sess     *models.StudySession
		userID   int64
		needOpen bool
		want     error
	}{
		{"missing", nil, 7, false, learning.ErrNotFound},
		{"other learner", open, 8, false, learning.ErrNotFound},
		{"other learner completed", done, 8, true, learning.ErrNotFound},
		{"owned open", open, 7, true, nil},
		{"owned completed read", done, 7, false, nil},
		{"owned completed attach", done, 7, true, ErrSessionCompleted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkSession(tt.sess, tt.userID, tt.needOpen)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
