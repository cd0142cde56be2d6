package learning

import (
	"testing"
	"time"

	"github.com/exam-mentor/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)

func question(difficulty, expected int) *models.Question {
	return &models.Question{ID: 1, ConceptID: 7, CorrectOption: "a", Difficulty: difficulty, ExpectedTimeSeconds: expected}
}

func TestApplyAttemptCorrectFast(t *testing.T) {
	stats := &models.ConceptStats{Mastery: 0.2, Accuracy: 0.3, TotalAttempts: 10, CorrectAttempts: 3, DifficultyComfort: 1, AvgTimeSeconds: 40}
	a := &models.Attempt{IsCorrect: true, TimeTakenSeconds: 20}

	delta := ApplyAttempt(stats, question(3, 60), a, testNow)

	assert.InDelta(t, 0.064, delta, 1e-9)
	assert.InDelta(t, 0.264, stats.Mastery, 1e-9)
	assert.Equal(t, 1, stats.CurrentStreak)
	assert.Equal(t, 1, stats.BestStreak)
	assert.Equal(t, 3, stats.DifficultyComfort)
	assert.Equal(t, 11, stats.TotalAttempts)
	assert.Equal(t, 4, stats.CorrectAttempts)
	assert.InDelta(t, 4.0/11.0, stats.Accuracy, 1e-9)
	assert.InDelta(t, 36.0, stats.AvgTimeSeconds, 1e-9)
	require.NotNil(t, stats.LastCorrect)
	require.NotNil(t, stats.LastSeen)
	assert.Equal(t, testNow, *stats.LastSeen)
	assert.Nil(t, a.NextReviewDate)
}

func TestApplyAttemptSpeedBonus(t *testing.T) {
	for _, start := range []float64{0, 0.25, 0.5, 0.9} {
		fast := &models.ConceptStats{Mastery: start}
		slow := &models.ConceptStats{Mastery: start}

		df := ApplyAttempt(fast, question(2, 60), &models.Attempt{IsCorrect: true, TimeTakenSeconds: 60}, testNow)
		ds := ApplyAttempt(slow, question(2, 60), &models.Attempt{IsCorrect: true, TimeTakenSeconds: 61}, testNow)

		assert.Greater(t, df, ds, "start=%v", start)
		assert.Greater(t, ds, 0.0, "start=%v", start)
	}
}

func TestApplyAttemptGuessedCorrect(t *testing.T) {
	for _, start := range []float64{0, 0.4, 0.7} {
		for _, secs := range []int{5, 500} {
			stats := &models.ConceptStats{Mastery: start, CurrentStreak: 4, BestStreak: 4}
			delta := ApplyAttempt(stats, question(4, 60), &models.Attempt{IsCorrect: true, WasGuessed: true, TimeTakenSeconds: secs}, testNow)

			assert.InDelta(t, 0.01, delta, 1e-9)
			assert.Equal(t, 0, stats.CurrentStreak)
			assert.Equal(t, 4, stats.BestStreak)
			assert.Nil(t, stats.LastCorrect)
		}
	}
}

func TestApplyAttemptGuessedAtCeiling(t *testing.T) {
	stats := &models.ConceptStats{Mastery: 0.995}
	delta := ApplyAttempt(stats, question(1, 60), &models.Attempt{IsCorrect: true, WasGuessed: true}, testNow)

	assert.Equal(t, 1.0, stats.Mastery)
	assert.InDelta(t, 0.005, delta, 1e-9)
}

func TestApplyAttemptWrong(t *testing.T) {
	stats := &models.ConceptStats{Mastery: 0.5, CurrentStreak: 2, DifficultyComfort: 3}
	a := &models.Attempt{IsCorrect: false, TimeTakenSeconds: 30}

	delta := ApplyAttempt(stats, question(5, 60), a, testNow)

	assert.InDelta(t, -0.03, delta, 1e-9)
	assert.Equal(t, 0, stats.CurrentStreak)
	assert.Equal(t, 3, stats.DifficultyComfort)
	require.NotNil(t, a.NextReviewDate)
	assert.Equal(t, testNow.AddDate(0, 0, 1), *a.NextReviewDate)
	assert.Equal(t, 1, a.ReviewIntervalDays)
	assert.Equal(t, 0, a.ReviewCount)

	lowStats := &models.ConceptStats{Mastery: 0.1}
	lowDelta := ApplyAttempt(lowStats, question(1, 60), &models.Attempt{}, testNow)
	assert.Greater(t, lowDelta, delta, "low mastery decays less")
	assert.Less(t, lowDelta, 0.0)

	zero := &models.ConceptStats{}
	assert.Equal(t, 0.0, ApplyAttempt(zero, question(1, 60), &models.Attempt{}, testNow))
	assert.Equal(t, 0.0, zero.Mastery)
}

func TestApplyAttemptStaysInRange(t *testing.T) {
	stats := &models.ConceptStats{}
	outcomes := []models.Attempt{
		{IsCorrect: true, TimeTakenSeconds: 10},
		{IsCorrect: true, WasGuessed: true},
		{IsCorrect: false},
		{IsCorrect: true, TimeTakenSeconds: 200},
	}
	for i := 0; i < 400; i++ {
		a := outcomes[i%len(outcomes)]
		if i > 200 {
			a = outcomes[i%2]
		}
		ApplyAttempt(stats, question(3, 60), &a, testNow)
		require.GreaterOrEqual(t, stats.Mastery, 0.0)
		require.LessOrEqual(t, stats.Mastery, 1.0)
		require.GreaterOrEqual(t, stats.Accuracy, 0.0)
		require.LessOrEqual(t, stats.Accuracy, 1.0)
	}
}

func TestApplyAttemptFirstObservationSetsAverage(t *testing.T) {
	stats := &models.ConceptStats{}
	ApplyAttempt(stats, question(1, 60), &models.Attempt{IsCorrect: true, TimeTakenSeconds: 50}, testNow)
	assert.Equal(t, 50.0, stats.AvgTimeSeconds)

	ApplyAttempt(stats, question(1, 60), &models.Attempt{IsCorrect: true, TimeTakenSeconds: 100}, testNow)
	assert.InDelta(t, 60.0, stats.AvgTimeSeconds, 1e-9)
}

func TestSeedFromDiagnostic(t *testing.T) {
	tests := []struct {
		correct, total int
		wantMastery    float64
		wantComfort    int
	}{
		{5, 5, 0.5, 3},
		{4, 5, 0.4, 3},
		{3, 5, 0.3, 2},
		{1, 5, 0.1, 1},
		{0, 0, 0, 1},
	}
	for _, tt := range tests {
		stats := models.NewConceptStats(1, 2)
		SeedFromDiagnostic(stats, tt.correct, tt.total, testNow)
		assert.InDelta(t, tt.wantMastery, stats.Mastery, 1e-9, "%d/%d", tt.correct, tt.total)
		assert.Equal(t, tt.wantComfort, stats.DifficultyComfort, "%d/%d", tt.correct, tt.total)
		assert.Equal(t, tt.total, stats.TotalAttempts)
	}
}

func TestRecommendLevel(t *testing.T) {
	assert.Equal(t, models.LevelBeginner, RecommendLevel(0.39))
	assert.Equal(t, models.LevelAverage, RecommendLevel(0.4))
	assert.Equal(t, models.LevelAverage, RecommendLevel(0.69))
	assert.Equal(t, models.LevelHighScorer, RecommendLevel(0.7))
}
