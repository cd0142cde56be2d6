package learning

import (
	"time"

	"github.com/exam-mentor/backend/internal/models"
)

// reviewLadder is the fixed sequence of day intervals between reviews.
var reviewLadder = []int{1, 3, 7, 14, 30}

// rungIndex returns the ladder position of interval, or 0 if it is not on
// the ladder.
func rungIndex(interval int) int {
	for i, days := range reviewLadder {
		if days == interval {
			return i
		}
	}
	return 0
}

// ScheduleFirstReview puts a wrong attempt on the first rung, due tomorrow.
func ScheduleFirstReview(a *models.Attempt, now time.Time) {
	a.ReviewIntervalDays = reviewLadder[0]
	a.ReviewCount = 0
	due := now.AddDate(0, 0, reviewLadder[0])
	a.NextReviewDate = &due
}

// ApplyReview moves a review item along the ladder. A fast correct answer
// advances one rung, a slow correct answer holds, a miss resets to the
// first rung.
func ApplyReview(a *models.Attempt, gotCorrect bool, timeTaken, expected int, now time.Time) {
	a.ReviewCount++

	switch {
	case gotCorrect && timeTaken <= expected:
		next := rungIndex(a.ReviewIntervalDays) + 1
		if next >= len(reviewLadder) {
			next = len(reviewLadder) - 1
		}
		a.ReviewIntervalDays = reviewLadder[next]
	case gotCorrect:
		if a.ReviewIntervalDays <= 0 {
			a.ReviewIntervalDays = reviewLadder[0]
		}
	default:
		a.ReviewIntervalDays = reviewLadder[0]
	}

	due := now.AddDate(0, 0, a.ReviewIntervalDays)
	a.NextReviewDate = &due
}
