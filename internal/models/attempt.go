package models

import "time"

type MistakeType string

const (
	MistakeConcept      MistakeType = "concept_misunderstanding"
	MistakeCalculation  MistakeType = "calculation_error"
	MistakeTimePressure MistakeType = "time_pressure"
	MistakeMisread      MistakeType = "misread_question"
	MistakeGuessed      MistakeType = "guessed"
)

var ValidMistakeTypes = map[MistakeType]bool{
	MistakeConcept:      true,
	MistakeCalculation:  true,
	MistakeTimePressure: true,
	MistakeMisread:      true,
	MistakeGuessed:      true,
}

// Attempt is one answer event. A wrong attempt with NextReviewDate set is a
// pending review item; reviewing it mutates the scheduling fields in place.
type Attempt struct {
	ID                 int64        `json:"id"`
	UserID             int64        `json:"user_id"`
	QuestionID         int64        `json:"question_id"`
	SessionID          *int64       `json:"session_id,omitempty"`
	SelectedOption     string       `json:"selected_option"`
	IsCorrect          bool         `json:"is_correct"`
	TimeTakenSeconds   int          `json:"time_taken_seconds"`
	WasGuessed         bool         `json:"was_guessed"`
	HintUsed           bool         `json:"hint_used"`
	MistakeType        *MistakeType `json:"mistake_type,omitempty"`
	NextReviewDate     *time.Time   `json:"next_review_date,omitempty"`
	ReviewIntervalDays int          `json:"review_interval_days"`
	ReviewCount        int          `json:"review_count"`
	CreatedAt          time.Time    `json:"created_at"`
}

type AttemptRequest struct {
	QuestionID       int64  `json:"question_id" validate:"required"`
	SelectedOption   string `json:"selected_option" validate:"required,oneof=a b c d"`
	TimeTakenSeconds int    `json:"time_taken_seconds" validate:"min=0"`
	WasGuessed       bool   `json:"was_guessed"`
	HintUsed         bool   `json:"hint_used"`
	SessionID        *int64 `json:"session_id,omitempty"`
}

type AttemptResponse struct {
	Attempt
	CorrectOption string  `json:"correct_option"`
	Explanation   string  `json:"explanation"`
	WhyWrong      *string `json:"why_wrong"`
	MasteryChange float64 `json:"mastery_change"`
	NewMastery    float64 `json:"new_mastery"`
}

type AttemptHistoryResponse struct {
	Attempts []Attempt `json:"attempts"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	PerPage  int       `json:"per_page"`
}

// ── Review Queue ────────────────────────────────────────

type ReviewItem struct {
	AttemptID      int64        `json:"attempt_id"`
	QuestionID     int64        `json:"question_id"`
	QuestionText   string       `json:"question_text"`
	ConceptName    string       `json:"concept_name"`
	TopicName      string       `json:"topic_name"`
	SelectedOption string       `json:"selected_option"`
	CorrectOption  string       `json:"correct_option"`
	MistakeType    *MistakeType `json:"mistake_type"`
	ReviewCount    int          `json:"review_count"`
	NextReviewDate *time.Time   `json:"next_review_date"`
}

type ReviewQueueResponse struct {
	Reviews []ReviewItem `json:"reviews"`
	Count   int          `json:"count"`
}

type ClassifyMistakeRequest struct {
	MistakeType MistakeType `json:"mistake_type" validate:"required,oneof=concept_misunderstanding calculation_error time_pressure misread_question guessed"`
}

type MarkReviewedRequest struct {
	GotCorrect bool `json:"got_correct"`
	TimeTaken  int  `json:"time_taken" validate:"min=0"`
}

type ReviewResultResponse struct {
	AttemptID          int64      `json:"attempt_id"`
	ReviewCount        int        `json:"review_count"`
	NextReviewDate     *time.Time `json:"next_review_date"`
	ReviewIntervalDays int        `json:"review_interval_days"`
}
