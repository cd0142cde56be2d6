package learning

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"math/rand"
	"time"

	"github.com/exam-mentor/backend/internal/models"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
)

const (
	DefaultDailyMinutes = 45
	DefaultReviewLimit  = 20
	weakestForPlan      = weakDrillCount
)

// globalRand defers to the package-level math/rand source, which is safe for
// concurrent use.
type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }
func (globalRand) Intn(n int) int   { return rand.Intn(n) }

// Engine runs the mastery, review, selection, plan and streak logic against
// a Repository.
type Engine struct {
	repo         Repository
	rnd          Rand
	now          func() time.Time
	dailyMinutes int
}

type Option func(*Engine)

// WithRand replaces the random source. Tests pass a seeded *rand.Rand.
func WithRand(r Rand) Option {
	return func(e *Engine) { e.rnd = r }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithDefaultDailyMinutes sets the plan length used when a learner has none.
func WithDefaultDailyMinutes(m int) Option {
	return func(e *Engine) {
		if m > 0 {
			e.dailyMinutes = m
		}
	}
}

func NewEngine(repo Repository, opts ...Option) *Engine {
	e := &Engine{
		repo:         repo,
		rnd:          globalRand{},
		now:          time.Now,
		dailyMinutes: DefaultDailyMinutes,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) clock() time.Time { return e.now().UTC() }

// Using returns a copy of the engine that reads and writes through repo,
// typically a repository already bound to a transaction.
func (e *Engine) Using(repo Repository) *Engine {
	cp := *e
	cp.repo = repo
	return &cp
}

// Now is the engine's clock in UTC.
func (e *Engine) Now() time.Time { return e.clock() }

// ── Adaptive Selection ──────────────────────────────────

// NextQuestion picks the next question for a learner. A concept filter skips
// scoring. It returns nil, nil when nothing in scope has a question.
func (e *Engine) NextQuestion(ctx context.Context, userID int64, topicID, conceptID *int64, difficulty *int) (*models.Question, error) {
	if conceptID != nil {
		return e.findQuestion(ctx, userID, *conceptID, difficulty)
	}

	concepts, err := e.repo.ListConcepts(ctx, topicID)
	if err != nil {
		return nil, fmt.Errorf("list concepts: %w", err)
	}
	if len(concepts) == 0 {
		return nil, nil
	}

	all, err := e.repo.ListConceptStats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list concept stats: %w", err)
	}
	byConcept := make(map[int64]*models.ConceptStats, len(all))
	for i := range all {
		byConcept[all[i].ConceptID] = &all[i]
	}

	scores := ScoreConcepts(concepts, byConcept, e.clock())
	picked := PickConcept(scores, e.rnd)
	if picked == nil {
		return nil, nil
	}
	target := TargetDifficulty(picked.Stats, difficulty, e.rnd)

	return e.findQuestion(ctx, userID, picked.Concept.ID, &target)
}

func (e *Engine) findQuestion(ctx context.Context, userID, conceptID int64, difficulty *int) (*models.Question, error) {
	answered, err := e.repo.AnsweredQuestionIDs(ctx, userID, conceptID)
	if err != nil {
		return nil, fmt.Errorf("answered questions: %w", err)
	}

	q, err := e.repo.FindQuestion(ctx, conceptID, difficulty, answered)
	if err != nil {
		return nil, fmt.Errorf("find question: %w", err)
	}
	if q != nil || len(answered) == 0 {
		return q, nil
	}

	// Every matching question was answered already; re-serve a seen one.
	log.Printf("[selector] pool exhausted for user %d concept %d, re-serving", userID, conceptID)
	q, err = e.repo.FindQuestion(ctx, conceptID, difficulty, nil)
	if err != nil {
		return nil, fmt.Errorf("find question: %w", err)
	}
	return q, nil
}

// ── Mastery ─────────────────────────────────────────────

// UpdateMastery applies an answered attempt to the learner's stats for the
// question's concept and persists the result. A wrong attempt that is
// already stored gets its review schedule saved too.
func (e *Engine) UpdateMastery(ctx context.Context, userID int64, q *models.Question, a *models.Attempt) (*models.ConceptStats, float64, error) {
	return e.updateMastery(ctx, e.repo, userID, q, a)
}

func (e *Engine) updateMastery(ctx context.Context, repo Repository, userID int64, q *models.Question, a *models.Attempt) (*models.ConceptStats, float64, error) {
	stats, err := getOrCreateStats(ctx, repo, userID, q.ConceptID)
	if err != nil {
		return nil, 0, err
	}

	delta := ApplyAttempt(stats, q, a, e.clock())

	if err := repo.SaveConceptStats(ctx, stats); err != nil {
		return nil, 0, fmt.Errorf("save concept stats: %w", err)
	}
	if !a.IsCorrect && a.ID != 0 {
		if err := repo.UpdateAttemptReview(ctx, a); err != nil {
			return nil, 0, fmt.Errorf("schedule review: %w", err)
		}
	}
	return stats, delta, nil
}

func getOrCreateStats(ctx context.Context, repo Repository, userID, conceptID int64) (*models.ConceptStats, error) {
	stats, err := repo.GetConceptStats(ctx, userID, conceptID)
	if err != nil {
		return nil, fmt.Errorf("get concept stats: %w", err)
	}
	if stats == nil {
		stats = models.NewConceptStats(userID, conceptID)
	}
	return stats, nil
}

// AnswerInput is one answer as submitted by a learner.
type AnswerInput struct {
	QuestionID       int64
	SelectedOption   string
	TimeTakenSeconds int
	WasGuessed       bool
	HintUsed         bool
	SessionID        *int64
	// CheckIn also records the day's activity on the learner's streak.
	CheckIn bool
}

// AnswerOutcome is the result of recording an answer.
type AnswerOutcome struct {
	Attempt  *models.Attempt
	Question *models.Question
	Stats    *models.ConceptStats
	Delta    float64
}

// RecordAnswer grades an answer, stores the attempt and updates mastery in a
// single transaction. It returns ErrNotFound for an unknown question.
func (e *Engine) RecordAnswer(ctx context.Context, userID int64, in AnswerInput) (*AnswerOutcome, error) {
	var out *AnswerOutcome
	err := e.repo.WithTx(ctx, func(tx Repository) error {
		q, err := tx.GetQuestion(ctx, in.QuestionID)
		if err != nil {
			return fmt.Errorf("get question: %w", err)
		}
		if q == nil {
			return ErrNotFound
		}

		a := &models.Attempt{
			UserID:             userID,
			QuestionID:         q.ID,
			SessionID:          in.SessionID,
			SelectedOption:     in.SelectedOption,
			IsCorrect:          in.SelectedOption == q.CorrectOption,
			TimeTakenSeconds:   max(0, in.TimeTakenSeconds),
			WasGuessed:         in.WasGuessed,
			HintUsed:           in.HintUsed,
			ReviewIntervalDays: reviewLadder[0],
			CreatedAt:          e.clock(),
		}
		if a.WasGuessed && !a.IsCorrect {
			mt := models.MistakeGuessed
			a.MistakeType = &mt
		}
		if err := tx.CreateAttempt(ctx, a); err != nil {
			return fmt.Errorf("create attempt: %w", err)
		}

		stats, delta, err := e.updateMastery(ctx, tx, userID, q, a)
		if err != nil {
			return err
		}

		if in.CheckIn {
			if _, err := e.checkIn(ctx, tx, userID); err != nil {
				return err
			}
		}

		out = &AnswerOutcome{Attempt: a, Question: q, Stats: stats, Delta: delta}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ── Spaced Repetition ───────────────────────────────────

// DueReviews lists the learner's wrong attempts that are due, oldest first.
// A non-positive limit returns all of them.
func (e *Engine) DueReviews(ctx context.Context, userID int64, limit int) ([]models.Attempt, error) {
	reviews, err := e.repo.DueReviews(ctx, userID, e.clock(), limit)
	if err != nil {
		return nil, fmt.Errorf("due reviews: %w", err)
	}
	return reviews, nil
}

func (e *Engine) ReviewCount(ctx context.Context, userID int64) (int, error) {
	n, err := e.repo.CountDueReviews(ctx, userID, e.clock())
	if err != nil {
		return 0, fmt.Errorf("count due reviews: %w", err)
	}
	return n, nil
}

// ProcessReview records a review outcome for one of the learner's wrong
// attempts and reschedules it. Correct attempts are not review items and
// yield ErrNotFound. The question's expected time decides fast or slow.
func (e *Engine) ProcessReview(ctx context.Context, userID, attemptID int64, gotCorrect bool, timeTaken int) (*models.Attempt, error) {
	var out *models.Attempt
	err := e.repo.WithTx(ctx, func(tx Repository) error {
		a, err := ownedAttempt(ctx, tx, userID, attemptID)
		if err != nil {
			return err
		}
		// Only wrong attempts are review items.
		if a.IsCorrect || a.NextReviewDate == nil {
			return ErrNotFound
		}

		expected := models.DefaultExpectedTimeSeconds
		q, err := tx.GetQuestion(ctx, a.QuestionID)
		if err != nil {
			return fmt.Errorf("get question: %w", err)
		}
		if q != nil {
			expected = expectedTime(q)
		}

		ApplyReview(a, gotCorrect, timeTaken, expected, e.clock())
		if err := tx.UpdateAttemptReview(ctx, a); err != nil {
			return fmt.Errorf("update review: %w", err)
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ClassifyMistake tags one of the learner's attempts with a mistake type.
func (e *Engine) ClassifyMistake(ctx context.Context, userID, attemptID int64, mt models.MistakeType) (*models.Attempt, error) {
	if !models.ValidMistakeTypes[mt] {
		return nil, fmt.Errorf("invalid mistake type %q", mt)
	}
	a, err := ownedAttempt(ctx, e.repo, userID, attemptID)
	if err != nil {
		return nil, err
	}
	if err := e.repo.SetMistakeType(ctx, a.ID, mt); err != nil {
		return nil, fmt.Errorf("set mistake type: %w", err)
	}
	a.MistakeType = &mt
	return a, nil
}

// ownedAttempt loads an attempt, hiding attempts of other learners.
func ownedAttempt(ctx context.Context, repo Repository, userID, attemptID int64) (*models.Attempt, error) {
	a, err := repo.GetAttempt(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("get attempt: %w", err)
	}
	if a == nil || a.UserID != userID {
		return nil, ErrNotFound
	}
	return a, nil
}

// ── Daily Plan ──────────────────────────────────────────

// TodayPlan returns the learner's plan for today, generating it on first use.
func (e *Engine) TodayPlan(ctx context.Context, userID int64) (*models.DailyPlan, error) {
	plan, err := e.repo.GetPlan(ctx, userID, Day(e.clock()))
	if err != nil {
		return nil, fmt.Errorf("get plan: %w", err)
	}
	if plan != nil {
		return plan, nil
	}
	return e.GeneratePlan(ctx, userID)
}

// GeneratePlan builds a fresh plan for today, replacing any existing one.
func (e *Engine) GeneratePlan(ctx context.Context, userID int64) (*models.DailyPlan, error) {
	var plan *models.DailyPlan
	err := e.repo.WithTx(ctx, func(tx Repository) error {
		user, err := tx.GetUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("get user: %w", err)
		}
		if user == nil {
			return ErrNotFound
		}

		now := e.clock()
		today := Day(now)

		existing, err := tx.GetPlan(ctx, userID, today)
		if err != nil {
			return fmt.Errorf("get plan: %w", err)
		}
		if existing != nil {
			if err := tx.DeletePlan(ctx, existing.ID); err != nil {
				return fmt.Errorf("delete plan: %w", err)
			}
		}

		weakest, err := tx.WeakestConceptStats(ctx, userID, weakestForPlan)
		if err != nil {
			return fmt.Errorf("weakest concepts: %w", err)
		}
		due, err := tx.CountDueReviews(ctx, userID, now)
		if err != nil {
			return fmt.Errorf("count due reviews: %w", err)
		}

		total := user.DailyMinutes
		if total <= 0 {
			total = e.dailyMinutes
		}
		alloc := Allocate(total, user.Level, due)

		plan = &models.DailyPlan{
			UserID:       userID,
			PlanDate:     today,
			TotalMinutes: total,
			CreatedAt:    now,
			Items:        BuildPlanItems(alloc, weakest, due),
		}
		if err := tx.CreatePlan(ctx, plan); err != nil {
			return fmt.Errorf("create plan: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[plan] generated plan %d for user %d (%d items, %d min)", plan.ID, userID, len(plan.Items), plan.TotalMinutes)
	return plan, nil
}

// CompletePlanItem marks an item done and completes the plan once every
// item is done.
func (e *Engine) CompletePlanItem(ctx context.Context, userID, itemID int64) (*models.CompleteItemResponse, error) {
	var resp *models.CompleteItemResponse
	err := e.repo.WithTx(ctx, func(tx Repository) error {
		item, err := tx.GetPlanItem(ctx, itemID)
		if err != nil {
			return fmt.Errorf("get plan item: %w", err)
		}
		if item == nil {
			return ErrNotFound
		}
		plan, err := tx.GetPlanByID(ctx, item.PlanID)
		if err != nil {
			return fmt.Errorf("get plan: %w", err)
		}
		if plan == nil {
			return ErrNotFound
		}
		if plan.UserID != userID {
			return ErrForbidden
		}

		if err := tx.CompletePlanItem(ctx, itemID); err != nil {
			return fmt.Errorf("complete plan item: %w", err)
		}
		for i := range plan.Items {
			if plan.Items[i].ID == itemID {
				plan.Items[i].IsCompleted = true
			}
		}

		done := AllComplete(plan.Items)
		if done && !plan.IsCompleted {
			if err := tx.SetPlanCompleted(ctx, plan.ID, true); err != nil {
				return fmt.Errorf("complete plan: %w", err)
			}
		}
		resp = &models.CompleteItemResponse{ItemID: itemID, IsCompleted: true, PlanCompleted: done}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// ── Streaks ─────────────────────────────────────────────

// CheckIn records today's activity on the learner's streak.
func (e *Engine) CheckIn(ctx context.Context, userID int64) (*models.Streak, error) {
	var s *models.Streak
	err := e.repo.WithTx(ctx, func(tx Repository) error {
		var err error
		s, err = e.checkIn(ctx, tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (e *Engine) checkIn(ctx context.Context, repo Repository, userID int64) (*models.Streak, error) {
	s, err := repo.GetStreak(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get streak: %w", err)
	}
	if s == nil {
		s = &models.Streak{UserID: userID}
	}
	if !CheckIn(s, e.clock()) {
		return s, nil
	}
	if err := repo.SaveStreak(ctx, s); err != nil {
		return nil, fmt.Errorf("save streak: %w", err)
	}
	return s, nil
}

// CurrentStreak returns the learner's streak without recording activity.
func (e *Engine) CurrentStreak(ctx context.Context, userID int64) (*models.Streak, error) {
	s, err := e.repo.GetStreak(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get streak: %w", err)
	}
	if s == nil {
		s = &models.Streak{UserID: userID}
	}
	return s, nil
}

// ── Onboarding Diagnostic ───────────────────────────────

// ApplyDiagnostic grades diagnostic answers per concept and seeds the
// learner's concept stats from the results. Unknown questions are skipped.
func (e *Engine) ApplyDiagnostic(ctx context.Context, userID int64, answers []models.AnswerSubmission) (*models.DiagnosticResult, error) {
	type tally struct{ correct, total int }

	result := &models.DiagnosticResult{ConceptResults: []models.DiagnosticConceptResult{}}
	err := e.repo.WithTx(ctx, func(tx Repository) error {
		var order []int64
		tallies := make(map[int64]*tally)
		for _, ans := range answers {
			q, err := tx.GetQuestion(ctx, ans.QuestionID)
			if err != nil {
				return fmt.Errorf("get question: %w", err)
			}
			if q == nil {
				continue
			}
			t, ok := tallies[q.ConceptID]
			if !ok {
				t = &tally{}
				tallies[q.ConceptID] = t
				order = append(order, q.ConceptID)
			}
			t.total++
			if ans.SelectedOption == q.CorrectOption {
				t.correct++
			}
		}

		now := e.clock()
		var sum float64
		for _, conceptID := range order {
			t := tallies[conceptID]
			stats, err := getOrCreateStats(ctx, tx, userID, conceptID)
			if err != nil {
				return err
			}
			SeedFromDiagnostic(stats, t.correct, t.total, now)
			if err := tx.SaveConceptStats(ctx, stats); err != nil {
				return fmt.Errorf("save concept stats: %w", err)
			}

			name := ""
			if c, err := tx.GetConcept(ctx, conceptID); err != nil {
				return fmt.Errorf("get concept: %w", err)
			} else if c != nil {
				name = c.Name
			}

			acc := RoundTo(stats.Accuracy, 2)
			sum += acc
			result.ConceptResults = append(result.ConceptResults, models.DiagnosticConceptResult{
				ConceptID:         conceptID,
				ConceptName:       name,
				Accuracy:          acc,
				InitialMastery:    RoundTo(stats.Mastery, 2),
				DifficultyComfort: stats.DifficultyComfort,
			})
		}

		if n := len(result.ConceptResults); n > 0 {
			result.OverallAccuracy = RoundTo(sum/float64(n), 2)
		}
		result.RecommendedLevel = RecommendLevel(result.OverallAccuracy)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RoundTo rounds v to the given number of decimal places.
func RoundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
