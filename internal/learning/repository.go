package learning

import (
	"context"
	"time"

	"github.com/exam-mentor/backend/internal/models"
)

// Repository is the persistence the engine reads and writes through.
// Lookups of a single entity return nil, nil when it does not exist.
type Repository interface {
	GetUser(ctx context.Context, userID int64) (*models.User, error)

	// ── Content ─────────────────────────────────────────
	GetConcept(ctx context.Context, conceptID int64) (*models.Concept, error)
	ListConcepts(ctx context.Context, topicID *int64) ([]models.Concept, error)
	GetQuestion(ctx context.Context, questionID int64) (*models.Question, error)
	// FindQuestion returns the lowest-difficulty active question of the
	// concept, within ±1 of difficulty when given, skipping excluded IDs.
	FindQuestion(ctx context.Context, conceptID int64, difficulty *int, exclude []int64) (*models.Question, error)
	AnsweredQuestionIDs(ctx context.Context, userID, conceptID int64) ([]int64, error)

	// ── Concept Stats ───────────────────────────────────
	GetConceptStats(ctx context.Context, userID, conceptID int64) (*models.ConceptStats, error)
	ListConceptStats(ctx context.Context, userID int64) ([]models.ConceptStats, error)
	WeakestConceptStats(ctx context.Context, userID int64, limit int) ([]models.ConceptStats, error)
	SaveConceptStats(ctx context.Context, stats *models.ConceptStats) error

	// ── Attempts & Reviews ──────────────────────────────
	CreateAttempt(ctx context.Context, a *models.Attempt) error
	GetAttempt(ctx context.Context, attemptID int64) (*models.Attempt, error)
	UpdateAttemptReview(ctx context.Context, a *models.Attempt) error
	SetMistakeType(ctx context.Context, attemptID int64, mt models.MistakeType) error
	DueReviews(ctx context.Context, userID int64, asOf time.Time, limit int) ([]models.Attempt, error)
	CountDueReviews(ctx context.Context, userID int64, asOf time.Time) (int, error)

	// ── Daily Plans ─────────────────────────────────────
	GetPlan(ctx context.Context, userID int64, day time.Time) (*models.DailyPlan, error)
	GetPlanByID(ctx context.Context, planID int64) (*models.DailyPlan, error)
	CreatePlan(ctx context.Context, plan *models.DailyPlan) error
	DeletePlan(ctx context.Context, planID int64) error
	GetPlanItem(ctx context.Context, itemID int64) (*models.DailyPlanItem, error)
	CompletePlanItem(ctx context.Context, itemID int64) error
	SetPlanCompleted(ctx context.Context, planID int64, completed bool) error

	// ── Streaks ─────────────────────────────────────────
	GetStreak(ctx context.Context, userID int64) (*models.Streak, error)
	SaveStreak(ctx context.Context, s *models.Streak) error

	// WithTx runs fn against a repository bound to one transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(Repository) error) error
}
