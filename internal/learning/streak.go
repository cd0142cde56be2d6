package learning

import (
	"time"

	"github.com/exam-mentor/backend/internal/models"
)

// Day truncates t to its UTC calendar date.
func Day(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}

// CheckIn records activity on now's calendar day. It reports false when the
// learner was already active today and nothing changed.
func CheckIn(s *models.Streak, now time.Time) bool {
	today := Day(now)

	if s.LastActivityDate != nil {
		last := Day(*s.LastActivityDate)
		if last.Equal(today) {
			return false
		}
		if int(today.Sub(last).Hours()/24) == 1 {
			s.CurrentStreak++
		} else {
			s.CurrentStreak = 1
			start := today
			s.StreakStartDate = &start
		}
	} else {
		// First ever activity
		s.CurrentStreak = 1
		start := today
		s.StreakStartDate = &start
	}

	if s.CurrentStreak > s.LongestStreak {
		s.LongestStreak = s.CurrentStreak
	}
	s.LastActivityDate = &today
	return true
}
