package learning

import (
	"testing"

	"github.com/exam-mentor/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReviewLadderAdvances(t *testing.T) {
	a := &models.Attempt{}
	ScheduleFirstReview(a, testNow)
	require.Equal(t, 1, a.ReviewIntervalDays)

	for _, want := range []int{3, 7, 14, 30, 30} {
		ApplyReview(a, true, 30, 60, testNow)
		assert.Equal(t, want, a.ReviewIntervalDays)
		require.NotNil(t, a.NextReviewDate)
		assert.Equal(t, testNow.AddDate(0, 0, want), *a.NextReviewDate)
	}
	assert.Equal(t, 5, a.ReviewCount)
}

func TestReviewWrongResets(t *testing.T) {
	for _, start := range []int{1, 3, 7, 14, 30} {
		a := &models.Attempt{ReviewIntervalDays: start, ReviewCount: 2}
		ApplyReview(a, false, 10, 60, testNow)
		assert.Equal(t, 1, a.ReviewIntervalDays)
		assert.Equal(t, 3, a.ReviewCount)
		assert.Equal(t, testNow.AddDate(0, 0, 1), *a.NextReviewDate)
	}
}

func TestReviewSlowHolds(t *testing.T) {
	a := &models.Attempt{ReviewIntervalDays: 7}
	ApplyReview(a, true, 61, 60, testNow)
	assert.Equal(t, 7, a.ReviewIntervalDays)
	assert.Equal(t, testNow.AddDate(0, 0, 7), *a.NextReviewDate)
}

func TestReviewOffLadderTreatedAsFirstRung(t *testing.T) {
	a := &models.Attempt{ReviewIntervalDays: 5}
	ApplyReview(a, true, 10, 60, testNow)
	assert.Equal(t, 3, a.ReviewIntervalDays)
}

func TestRungIndex(t *testing.T) {
	tests := map[int]int{1: 0, 3: 1, 7: 2, 14: 3, 30: 4, 0: 0, 2: 0, 60: 0}
	for interval, want := range tests {
		assert.Equal(t, want, rungIndex(interval), "interval %d", interval)
	}
}
