package models

import "time"

type Streak struct {
	ID               int64      `json:"id"`
	UserID           int64      `json:"user_id"`
	CurrentStreak    int        `json:"current_streak"`
	LongestStreak    int        `json:"longest_streak"`
	LastActivityDate *time.Time `json:"last_activity_date"`
	StreakStartDate  *time.Time `json:"streak_start_date"`
}

type StreakResponse struct {
	CurrentStreak    int     `json:"current_streak"`
	LongestStreak    int     `json:"longest_streak"`
	LastActivityDate *string `json:"last_activity_date"`
	StreakStartDate  *string `json:"streak_start_date"`
}

func (s Streak) Response() StreakResponse {
	return StreakResponse{
		CurrentStreak:    s.CurrentStreak,
		LongestStreak:    s.LongestStreak,
		LastActivityDate: formatDate(s.LastActivityDate),
		StreakStartDate:  formatDate(s.StreakStartDate),
	}
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format("2006-01-02")
	return &s
}
