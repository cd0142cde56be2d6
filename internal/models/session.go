package models

import "time"

type SessionType string

const (
	SessionPractice       SessionType = "practice"
	SessionTimedSet       SessionType = "timed_set"
	SessionDiagnostic     SessionType = "diagnostic"
	SessionReview         SessionType = "review"
	SessionExamSimulation SessionType = "exam_simulation"
)

type StudySession struct {
	ID               int64       `json:"id"`
	UserID           int64       `json:"user_id"`
	SessionType      SessionType `json:"session_type"`
	QuestionCount    int         `json:"question_count"`
	CorrectCount     int         `json:"correct_count"`
	TotalTimeSeconds int         `json:"total_time_seconds"`
	StartedAt        time.Time   `json:"started_at"`
	EndedAt          *time.Time  `json:"ended_at,omitempty"`
	IsCompleted      bool        `json:"is_completed"`
}

type StartSessionRequest struct {
	SessionType   SessionType `json:"session_type" validate:"required,oneof=practice timed_set diagnostic review exam_simulation"`
	QuestionCount int         `json:"question_count" validate:"omitempty,min=5,max=50"`
	TopicID       *int64      `json:"topic_id,omitempty"`
	Difficulty    *int        `json:"difficulty,omitempty" validate:"omitempty,min=1,max=5"`
}

type StartSessionResponse struct {
	Session   StudySession  `json:"session"`
	Questions []QuestionOut `json:"questions"`
}

type AnswerSubmission struct {
	QuestionID       int64  `json:"question_id" validate:"required"`
	SelectedOption   string `json:"selected_option" validate:"required,oneof=a b c d"`
	TimeTakenSeconds int    `json:"time_taken_seconds" validate:"min=0"`
}

type SubmitSessionRequest struct {
	Answers []AnswerSubmission `json:"answers" validate:"required,min=1,dive"`
}

type TopicBreakdown struct {
	TopicName string  `json:"topic_name"`
	Correct   int     `json:"correct"`
	Total     int     `json:"total"`
	Accuracy  float64 `json:"accuracy"`
	AvgTime   float64 `json:"avg_time"`
}

type SessionResult struct {
	SessionID          int64            `json:"session_id"`
	SessionType        SessionType      `json:"session_type"`
	TotalQuestions     int              `json:"total_questions"`
	CorrectCount       int              `json:"correct_count"`
	Accuracy           float64          `json:"accuracy"`
	TotalTimeSeconds   int              `json:"total_time_seconds"`
	AvgTimePerQuestion float64          `json:"avg_time_per_question"`
	TopicBreakdown     []TopicBreakdown `json:"topic_breakdown"`
}

// ── Onboarding Diagnostic ───────────────────────────────

type DiagnosticResponse struct {
	Questions []QuestionOut `json:"questions"`
	Total     int           `json:"total"`
}

type DiagnosticSubmitRequest struct {
	Answers []AnswerSubmission `json:"answers" validate:"required,min=1,dive"`
}

type DiagnosticConceptResult struct {
	ConceptID         int64   `json:"concept_id"`
	ConceptName       string  `json:"concept_name"`
	Accuracy          float64 `json:"accuracy"`
	InitialMastery    float64 `json:"initial_mastery"`
	DifficultyComfort int     `json:"difficulty_comfort"`
}

type DiagnosticResult struct {
	OverallAccuracy  float64                   `json:"overall_accuracy"`
	ConceptResults   []DiagnosticConceptResult `json:"concept_results"`
	RecommendedLevel Level                     `json:"recommended_level"`
}
