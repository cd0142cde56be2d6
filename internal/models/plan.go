package models

import "time"

type PlanItemType string

const (
	ItemWarmup         PlanItemType = "warmup"
	ItemWeakTopicDrill PlanItemType = "weak_topic_drill"
	ItemTimedSprint    PlanItemType = "timed_sprint"
	ItemMistakeReview  PlanItemType = "mistake_review"
	ItemMixedPractice  PlanItemType = "mixed_practice"
)

type DailyPlan struct {
	ID           int64           `json:"id"`
	UserID       int64           `json:"user_id"`
	PlanDate     time.Time       `json:"plan_date"`
	TotalMinutes int             `json:"total_minutes"`
	IsCompleted  bool            `json:"is_completed"`
	CreatedAt    time.Time       `json:"created_at"`
	Items        []DailyPlanItem `json:"items"`
}

type DailyPlanItem struct {
	ID              int64        `json:"id"`
	PlanID          int64        `json:"plan_id"`
	ItemType        PlanItemType `json:"item_type"`
	ConceptID       *int64       `json:"concept_id,omitempty"`
	DurationMinutes int          `json:"duration_minutes"`
	QuestionCount   int          `json:"question_count"`
	DifficultyMin   *int         `json:"difficulty_min,omitempty"`
	DifficultyMax   *int         `json:"difficulty_max,omitempty"`
	DisplayOrder    int          `json:"display_order"`
	IsCompleted     bool         `json:"is_completed"`
}

// PlanItemOut adds display names to a plan item.
type PlanItemOut struct {
	DailyPlanItem
	ConceptName *string `json:"concept_name,omitempty"`
}

type PlanResponse struct {
	ID           int64         `json:"id"`
	PlanDate     string        `json:"plan_date"`
	TotalMinutes int           `json:"total_minutes"`
	IsCompleted  bool          `json:"is_completed"`
	Items        []PlanItemOut `json:"items"`
}

type CompleteItemResponse struct {
	ItemID        int64 `json:"item_id"`
	IsCompleted   bool  `json:"is_completed"`
	PlanCompleted bool  `json:"plan_completed"`
}

type PlanSettingsResponse struct {
	DailyMinutes int     `json:"daily_minutes"`
	TargetScore  *int    `json:"target_score"`
	ExamDate     *string `json:"exam_date"`
}
