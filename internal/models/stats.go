package models

import "time"

// ConceptStats is the per learner × concept performance record.
type ConceptStats struct {
	ID                int64      `json:"id"`
	UserID            int64      `json:"user_id"`
	ConceptID         int64      `json:"concept_id"`
	Mastery           float64    `json:"mastery"`
	Accuracy          float64    `json:"accuracy"`
	TotalAttempts     int        `json:"total_attempts"`
	CorrectAttempts   int        `json:"correct_attempts"`
	AvgTimeSeconds    float64    `json:"avg_time_seconds"`
	DifficultyComfort int        `json:"difficulty_comfort"`
	CurrentStreak     int        `json:"current_streak"`
	BestStreak        int        `json:"best_streak"`
	LastSeen          *time.Time `json:"last_seen,omitempty"`
	LastCorrect       *time.Time `json:"last_correct,omitempty"`
}

// NewConceptStats returns the zero-state row created on first contact.
func NewConceptStats(userID, conceptID int64) *ConceptStats {
	return &ConceptStats{UserID: userID, ConceptID: conceptID, DifficultyComfort: 1}
}

// ── Dashboard ───────────────────────────────────────────

type WeakConcept struct {
	ConceptID      int64   `json:"concept_id"`
	ConceptName    string  `json:"concept_name"`
	TopicName      string  `json:"topic_name"`
	Mastery        float64 `json:"mastery"`
	Accuracy       float64 `json:"accuracy"`
	AvgTimeSeconds float64 `json:"avg_time_seconds"`
	TotalAttempts  int     `json:"total_attempts"`
	CurrentStreak  int     `json:"current_streak"`
}

type DashboardResponse struct {
	TotalQuestionsDone int                `json:"total_questions_done"`
	TotalCorrect       int                `json:"total_correct"`
	OverallAccuracy    float64            `json:"overall_accuracy"`
	AvgTimePerQuestion float64            `json:"avg_time_per_question"`
	CurrentStreak      int                `json:"current_streak"`
	LongestStreak      int                `json:"longest_streak"`
	TotalStudyMinutes  int                `json:"total_study_minutes"`
	MasterySummary     map[string]float64 `json:"mastery_summary"`
	WeakestConcepts    []WeakConcept      `json:"weakest_concepts"`
}

type ConceptMastery struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Mastery       float64 `json:"mastery"`
	Accuracy      float64 `json:"accuracy"`
	TotalAttempts int     `json:"total_attempts"`
}

type TopicMastery struct {
	TopicID   int64            `json:"topic_id"`
	TopicName string           `json:"topic_name"`
	Concepts  []ConceptMastery `json:"concepts"`
}

type TrendPoint struct {
	Date          string  `json:"date"`
	Accuracy      float64 `json:"accuracy"`
	AvgTime       float64 `json:"avg_time"`
	QuestionsDone int     `json:"questions_done"`
}

// DailyAttemptTotals is one UTC day's aggregate of attempts.
type DailyAttemptTotals struct {
	Day       time.Time
	Total     int
	Correct   int
	TotalTime int
}

type MasteryMapResponse struct {
	Topics []TopicMastery `json:"topics"`
}

type TrendsResponse struct {
	DailyTrends []TrendPoint `json:"daily_trends"`
	Period      string       `json:"period"`
}
