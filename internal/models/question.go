package models

import "time"

// Option tags a question's four answer choices.
const (
	OptionA = "a"
	OptionB = "b"
	OptionC = "c"
	OptionD = "d"
)

var ValidOptions = map[string]bool{OptionA: true, OptionB: true, OptionC: true, OptionD: true}

// DefaultExpectedTimeSeconds is used when a question has no timing target.
const DefaultExpectedTimeSeconds = 90

type Topic struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Description  string  `json:"description,omitempty"`
	ExamWeight   float64 `json:"exam_weight"`
	DisplayOrder int     `json:"display_order"`
}

type Concept struct {
	ID             int64  `json:"id"`
	TopicID        int64  `json:"topic_id"`
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	PrerequisiteID *int64 `json:"prerequisite_id,omitempty"`
	DisplayOrder   int    `json:"display_order"`
}

type Question struct {
	ID                  int64             `json:"id"`
	ConceptID           int64             `json:"concept_id"`
	Text                string            `json:"text"`
	OptionA             string            `json:"option_a"`
	OptionB             string            `json:"option_b"`
	OptionC             string            `json:"option_c"`
	OptionD             string            `json:"option_d"`
	CorrectOption       string            `json:"correct_option"`
	Explanation         string            `json:"explanation"`
	Hint                *string           `json:"hint,omitempty"`
	WhyWrong            map[string]string `json:"why_wrong,omitempty"`
	Difficulty          int               `json:"difficulty"`
	ExpectedTimeSeconds int               `json:"expected_time_seconds"`
	IsActive            bool              `json:"is_active"`
	CreatedAt           time.Time         `json:"created_at"`
}

// WhyWrongFor returns the rationale for choosing the given wrong option, if any.
func (q Question) WhyWrongFor(option string) *string {
	if option == q.CorrectOption {
		return nil
	}
	if s, ok := q.WhyWrong[option]; ok && s != "" {
		return &s
	}
	return nil
}

// QuestionOut is the learner-facing view: no answer, no explanation.
type QuestionOut struct {
	ID                  int64  `json:"id"`
	ConceptID           int64  `json:"concept_id"`
	ConceptName         string `json:"concept_name,omitempty"`
	TopicName           string `json:"topic_name,omitempty"`
	Text                string `json:"text"`
	OptionA             string `json:"option_a"`
	OptionB             string `json:"option_b"`
	OptionC             string `json:"option_c"`
	OptionD             string `json:"option_d"`
	Difficulty          int    `json:"difficulty"`
	ExpectedTimeSeconds int    `json:"expected_time_seconds"`
	HasHint             bool   `json:"has_hint"`
}

func (q Question) Out(conceptName, topicName string) QuestionOut {
	return QuestionOut{
		ID:                  q.ID,
		ConceptID:           q.ConceptID,
		ConceptName:         conceptName,
		TopicName:           topicName,
		Text:                q.Text,
		OptionA:             q.OptionA,
		OptionB:             q.OptionB,
		OptionC:             q.OptionC,
		OptionD:             q.OptionD,
		Difficulty:          q.Difficulty,
		ExpectedTimeSeconds: q.ExpectedTimeSeconds,
		HasHint:             q.Hint != nil && *q.Hint != "",
	}
}

// QuestionDetail is the full question, answer included, for post-answer
// review.
type QuestionDetail struct {
	Question
	ConceptName string `json:"concept_name,omitempty"`
	TopicName   string `json:"topic_name,omitempty"`
}

type BatchResponse struct {
	Questions []QuestionOut `json:"questions"`
	Count     int           `json:"count"`
}

// QuestionFilter narrows active questions by topic, concept and difficulty±1.
type QuestionFilter struct {
	TopicID    *int64
	ConceptID  *int64
	Difficulty *int
}

type HintResponse struct {
	QuestionID int64   `json:"question_id"`
	Hint       *string `json:"hint"`
}

type BatchRequest struct {
	TopicID    *int64 `json:"topic_id,omitempty"`
	ConceptID  *int64 `json:"concept_id,omitempty"`
	Difficulty *int   `json:"difficulty,omitempty" validate:"omitempty,min=1,max=5"`
	Count      int    `json:"count" validate:"omitempty,min=1,max=50"`
}
