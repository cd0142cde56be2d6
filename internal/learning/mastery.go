package learning

import (
	"time"

	"github.com/exam-mentor/backend/internal/models"
)

const (
	fastGain   = 0.08
	slowGain   = 0.04
	guessGain  = 0.01
	wrongDecay = 0.06

	// avgTimeKeep is the weight the running average keeps on each update.
	avgTimeKeep = 0.8
)

// ApplyAttempt folds one answered question into the learner's concept stats
// and returns the signed mastery change. A wrong attempt is scheduled for
// its first review.
func ApplyAttempt(stats *models.ConceptStats, q *models.Question, a *models.Attempt, now time.Time) float64 {
	old := stats.Mastery

	stats.TotalAttempts++
	if a.IsCorrect {
		stats.CorrectAttempts++
	}
	stats.Accuracy = accuracy(stats.CorrectAttempts, stats.TotalAttempts)

	elapsed := float64(a.TimeTakenSeconds)
	if stats.AvgTimeSeconds == 0 {
		stats.AvgTimeSeconds = elapsed
	} else {
		stats.AvgTimeSeconds = stats.AvgTimeSeconds*avgTimeKeep + elapsed*(1-avgTimeKeep)
	}

	fast := a.TimeTakenSeconds <= expectedTime(q)

	switch {
	case a.IsCorrect && !a.WasGuessed:
		gain := slowGain
		if fast {
			gain = fastGain
		}
		stats.Mastery = clamp01(stats.Mastery + gain*(1-stats.Mastery))
		stats.CurrentStreak++
		if stats.CurrentStreak > stats.BestStreak {
			stats.BestStreak = stats.CurrentStreak
		}
		t := now
		stats.LastCorrect = &t
		if q.Difficulty > stats.DifficultyComfort {
			stats.DifficultyComfort = q.Difficulty
		}
	case a.IsCorrect:
		// A lucky guess nudges mastery but never builds a streak.
		stats.Mastery = clamp01(stats.Mastery + guessGain)
		stats.CurrentStreak = 0
	default:
		stats.Mastery = clamp01(stats.Mastery - wrongDecay*stats.Mastery)
		stats.CurrentStreak = 0
		ScheduleFirstReview(a, now)
	}

	seen := now
	stats.LastSeen = &seen

	return stats.Mastery - old
}

// SeedFromDiagnostic initializes stats from an onboarding diagnostic result.
// Mastery starts at half the observed accuracy.
func SeedFromDiagnostic(stats *models.ConceptStats, correct, total int, now time.Time) {
	acc := accuracy(correct, total)
	stats.Mastery = clamp01(acc * 0.5)
	stats.Accuracy = acc
	stats.TotalAttempts = total
	stats.CorrectAttempts = correct
	seen := now
	stats.LastSeen = &seen

	switch {
	case acc >= 0.8:
		stats.DifficultyComfort = 3
	case acc >= 0.5:
		stats.DifficultyComfort = 2
	default:
		stats.DifficultyComfort = 1
	}
}

// RecommendLevel maps overall diagnostic accuracy to a study level.
func RecommendLevel(overall float64) models.Level {
	switch {
	case overall < 0.4:
		return models.LevelBeginner
	case overall < 0.7:
		return models.LevelAverage
	default:
		return models.LevelHighScorer
	}
}

func accuracy(correct, total int) float64 {
	if total <= 0 {
		return 0
	}
	return clamp01(float64(correct) / float64(total))
}

func expectedTime(q *models.Question) int {
	if q.ExpectedTimeSeconds <= 0 {
		return models.DefaultExpectedTimeSeconds
	}
	return q.ExpectedTimeSeconds
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
