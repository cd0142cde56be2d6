package models

import (
	"fmt"
	"strings"
	"time"
)

type Level string

const (
	LevelBeginner   Level = "beginner"
	LevelAverage    Level = "average"
	LevelHighScorer Level = "high_scorer"
)

var ValidLevels = map[Level]bool{
	LevelBeginner:   true,
	LevelAverage:    true,
	LevelHighScorer: true,
}

type User struct {
	ID                 int64      `json:"id"`
	Email              string     `json:"email"`
	Name               string     `json:"name"`
	Password           string     `json:"-"`
	Level              Level      `json:"level"`
	DailyMinutes       int        `json:"daily_minutes"`
	TargetScore        *int       `json:"target_score,omitempty"`
	ExamDate           *time.Time `json:"exam_date,omitempty"`
	StudyFocus         *string    `json:"study_focus,omitempty"`
	OnboardingComplete bool       `json:"onboarding_complete"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// FirstName returns the first whitespace-separated part of the user's name.
func (u User) FirstName() string {
	parts := strings.Fields(u.Name)
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// ProfileRequest is shared by onboarding and the plan settings endpoint.
// Nil fields are left unchanged.
type ProfileRequest struct {
	Name         *string `json:"name,omitempty"`
	Level        *Level  `json:"level,omitempty" validate:"omitempty,oneof=beginner average high_scorer"`
	DailyMinutes *int    `json:"daily_minutes,omitempty" validate:"omitempty,min=15,max=180"`
	TargetScore  *int    `json:"target_score,omitempty" validate:"omitempty,min=0,max=100"`
	ExamDate     *string `json:"exam_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	StudyFocus   *string `json:"study_focus,omitempty"`
}

// ApplyProfile copies the non-nil fields of req onto u. An empty study focus
// clears it.
func (u *User) ApplyProfile(req ProfileRequest) error {
	if req.Name != nil {
		if name := strings.TrimSpace(*req.Name); name != "" {
			u.Name = name
		}
	}
	if req.Level != nil {
		if !ValidLevels[*req.Level] {
			return fmt.Errorf("invalid level %q", *req.Level)
		}
		u.Level = *req.Level
	}
	if req.DailyMinutes != nil {
		u.DailyMinutes = *req.DailyMinutes
	}
	if req.TargetScore != nil {
		score := *req.TargetScore
		u.TargetScore = &score
	}
	if req.ExamDate != nil {
		d, err := time.Parse("2006-01-02", *req.ExamDate)
		if err != nil {
			return fmt.Errorf("parse exam date: %w", err)
		}
		u.ExamDate = &d
	}
	if req.StudyFocus != nil {
		if focus := strings.TrimSpace(*req.StudyFocus); focus != "" {
			u.StudyFocus = &focus
		} else {
			u.StudyFocus = nil
		}
	}
	return nil
}

type ErrorResponse struct {
	Error string `json:"error"`
}
