// Package practice serves the learner-facing study flow: adaptive questions,
// answer submission, the review queue, daily plans, streaks, timed sessions
// and the onboarding diagnostic.
package practice

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/exam-mentor/backend/internal/learning"
	"github.com/exam-mentor/backend/internal/models"
	"github.com/exam-mentor/backend/internal/store"
)

var (
	ErrSessionCompleted = errors.New("session already submitted")
	ErrNoQuestions      = errors.New("no questions available")
)

const (
	defaultBatchSize      = 10
	defaultSessionSize    = 10
	diagnosticPerTopic    = 5
	recentSessionsLimit   = 20
	defaultHistoryPerPage = 20
	maxHistoryPerPage     = 100
)

type Service struct {
	engine      *learning.Engine
	store       *store.Store
	reviewLimit int
}

func NewService(engine *learning.Engine, st *store.Store, reviewLimit int) *Service {
	if reviewLimit <= 0 {
		reviewLimit = learning.DefaultReviewLimit
	}
	return &Service{engine: engine, store: st, reviewLimit: reviewLimit}
}

// ── Questions ───────────────────────────────────────────

func (s *Service) out(ctx context.Context, q *models.Question) (models.QuestionOut, error) {
	concept, topic, err := s.store.ConceptNames(ctx, q.ConceptID)
	if err != nil {
		return models.QuestionOut{}, err
	}
	return q.Out(concept, topic), nil
}

func (s *Service) outAll(ctx context.Context, qs []models.Question) ([]models.QuestionOut, error) {
	out := make([]models.QuestionOut, 0, len(qs))
	for i := range qs {
		o, err := s.out(ctx, &qs[i])
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

func (s *Service) NextQuestion(ctx context.Context, userID int64, topicID, conceptID *int64, difficulty *int) (*models.QuestionOut, error) {
	q, err := s.engine.NextQuestion(ctx, userID, topicID, conceptID, difficulty)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, ErrNoQuestions
	}
	out, err := s.out(ctx, q)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) GetQuestion(ctx context.Context, questionID int64) (*models.QuestionDetail, error) {
	q, err := s.store.GetQuestion(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, learning.ErrNotFound
	}
	concept, topic, err := s.store.ConceptNames(ctx, q.ConceptID)
	if err != nil {
		return nil, err
	}
	return &models.QuestionDetail{Question: *q, ConceptName: concept, TopicName: topic}, nil
}

func (s *Service) GetHint(ctx context.Context, questionID int64) (*models.HintResponse, error) {
	q, err := s.store.GetQuestion(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, learning.ErrNotFound
	}
	return &models.HintResponse{QuestionID: q.ID, Hint: q.Hint}, nil
}

// Batch draws random active questions for a timed set.
func (s *Service) Batch(ctx context.Context, req models.BatchRequest) (*models.BatchResponse, error) {
	count := req.Count
	if count <= 0 {
		count = defaultBatchSize
	}
	qs, err := s.store.RandomQuestions(ctx, models.QuestionFilter{
		TopicID:    req.TopicID,
		ConceptID:  req.ConceptID,
		Difficulty: req.Difficulty,
	}, count)
	if err != nil {
		return nil, err
	}
	out, err := s.outAll(ctx, qs)
	if err != nil {
		return nil, err
	}
	return &models.BatchResponse{Questions: out, Count: len(out)}, nil
}

// ── Attempts ────────────────────────────────────────────

// SubmitAttempt grades a single answer, updates mastery and the streak, and
// returns the feedback shown after answering.
func (s *Service) SubmitAttempt(ctx context.Context, userID int64, req models.AttemptRequest) (*models.AttemptResponse, error) {
	if req.SessionID != nil {
		sess, err := s.store.GetSession(ctx, *req.SessionID)
		if err != nil {
			return nil, err
		}
		// Attempts cannot join a session whose totals are already final.
		if err := checkSession(sess, userID, true); err != nil {
			return nil, err
		}
	}

	res, err := s.engine.RecordAnswer(ctx, userID, learning.AnswerInput{
		QuestionID:       req.QuestionID,
		SelectedOption:   req.SelectedOption,
		TimeTakenSeconds: req.TimeTakenSeconds,
		WasGuessed:       req.WasGuessed,
		HintUsed:         req.HintUsed,
		SessionID:        req.SessionID,
		CheckIn:          true,
	})
	if err != nil {
		return nil, err
	}

	return &models.AttemptResponse{
		Attempt:       *res.Attempt,
		CorrectOption: res.Question.CorrectOption,
		Explanation:   res.Question.Explanation,
		WhyWrong:      res.Question.WhyWrongFor(req.SelectedOption),
		MasteryChange: learning.RoundTo(res.Delta, 4),
		NewMastery:    learning.RoundTo(res.Stats.Mastery, 4),
	}, nil
}

func (s *Service) History(ctx context.Context, userID int64, topicID *int64, page, perPage int) (*models.AttemptHistoryResponse, error) {
	page, perPage = normalizePaging(page, perPage)
	attempts, total, err := s.store.AttemptHistory(ctx, userID, topicID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, err
	}
	return &models.AttemptHistoryResponse{Attempts: attempts, Total: total, Page: page, PerPage: perPage}, nil
}

func (s *Service) RecentAttempts(ctx context.Context, userID int64, limit int) ([]models.Attempt, error) {
	_, limit = normalizePaging(1, limit)
	attempts, _, err := s.store.AttemptHistory(ctx, userID, nil, limit, 0)
	return attempts, err
}

// normalizePaging clamps a 1-based page and its size.
func normalizePaging(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = defaultHistoryPerPage
	}
	if perPage > maxHistoryPerPage {
		perPage = maxHistoryPerPage
	}
	return page, perPage
}

// ── Review Queue ────────────────────────────────────────

func (s *Service) ReviewQueue(ctx context.Context, userID int64, limit int) (*models.ReviewQueueResponse, error) {
	if limit <= 0 {
		limit = s.reviewLimit
	}
	due, err := s.engine.DueReviews(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	items, err := s.store.ReviewItems(ctx, due)
	if err != nil {
		return nil, err
	}
	return &models.ReviewQueueResponse{Reviews: items, Count: len(items)}, nil
}

func (s *Service) ReviewCount(ctx context.Context, userID int64) (int, error) {
	return s.engine.ReviewCount(ctx, userID)
}

func (s *Service) ClassifyMistake(ctx context.Context, userID, attemptID int64, mt models.MistakeType) (*models.Attempt, error) {
	return s.engine.ClassifyMistake(ctx, userID, attemptID, mt)
}

func (s *Service) MarkReviewed(ctx context.Context, userID, attemptID int64, req models.MarkReviewedRequest) (*models.ReviewResultResponse, error) {
	a, err := s.engine.ProcessReview(ctx, userID, attemptID, req.GotCorrect, req.TimeTaken)
	if err != nil {
		return nil, err
	}
	return &models.ReviewResultResponse{
		AttemptID:          a.ID,
		ReviewCount:        a.ReviewCount,
		NextReviewDate:     a.NextReviewDate,
		ReviewIntervalDays: a.ReviewIntervalDays,
	}, nil
}

// ── Daily Plan ──────────────────────────────────────────

func (s *Service) TodayPlan(ctx context.Context, userID int64) (*models.PlanResponse, error) {
	plan, err := s.engine.TodayPlan(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.planResponse(ctx, plan)
}

func (s *Service) RegeneratePlan(ctx context.Context, userID int64) (*models.PlanResponse, error) {
	plan, err := s.engine.GeneratePlan(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.planResponse(ctx, plan)
}

func (s *Service) planResponse(ctx context.Context, plan *models.DailyPlan) (*models.PlanResponse, error) {
	names := make(map[int64]string)
	for _, it := range plan.Items {
		if it.ConceptID == nil {
			continue
		}
		if _, ok := names[*it.ConceptID]; ok {
			continue
		}
		concept, _, err := s.store.ConceptNames(ctx, *it.ConceptID)
		if err != nil {
			return nil, err
		}
		names[*it.ConceptID] = concept
	}
	return buildPlanResponse(plan, names), nil
}

// buildPlanResponse orders items for display and attaches concept names.
func buildPlanResponse(plan *models.DailyPlan, names map[int64]string) *models.PlanResponse {
	items := make([]models.PlanItemOut, 0, len(plan.Items))
	for _, it := range plan.Items {
		out := models.PlanItemOut{DailyPlanItem: it}
		if it.ConceptID != nil {
			if name, ok := names[*it.ConceptID]; ok && name != "" {
				out.ConceptName = &name
			}
		}
		items = append(items, out)
	}
	sortPlanItems(items)
	return &models.PlanResponse{
		ID:           plan.ID,
		PlanDate:     plan.PlanDate.UTC().Format("2006-01-02"),
		TotalMinutes: plan.TotalMinutes,
		IsCompleted:  plan.IsCompleted,
		Items:        items,
	}
}

func sortPlanItems(items []models.PlanItemOut) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].DisplayOrder < items[j].DisplayOrder
	})
}

func (s *Service) CompletePlanItem(ctx context.Context, userID, itemID int64) (*models.CompleteItemResponse, error) {
	return s.engine.CompletePlanItem(ctx, userID, itemID)
}

// UpdatePlanSettings changes the learner's study budget and goals. Today's
// plan is kept; the next generation picks the new budget up.
func (s *Service) UpdatePlanSettings(ctx context.Context, userID int64, req models.ProfileRequest) (*models.PlanSettingsResponse, error) {
	// Plan settings only cover the study budget and goals.
	req.Name, req.Level, req.StudyFocus = nil, nil, nil
	u, err := s.updateProfile(ctx, userID, req)
	if err != nil {
		return nil, err
	}
	resp := &models.PlanSettingsResponse{DailyMinutes: u.DailyMinutes, TargetScore: u.TargetScore}
	if u.ExamDate != nil {
		d := u.ExamDate.Format("2006-01-02")
		resp.ExamDate = &d
	}
	return resp, nil
}

// ── Streaks ─────────────────────────────────────────────

func (s *Service) CurrentStreak(ctx context.Context, userID int64) (*models.StreakResponse, error) {
	st, err := s.engine.CurrentStreak(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := st.Response()
	return &resp, nil
}

func (s *Service) CheckIn(ctx context.Context, userID int64) (*models.StreakResponse, error) {
	st, err := s.engine.CheckIn(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := st.Response()
	return &resp, nil
}

// ── Onboarding ──────────────────────────────────────────

func (s *Service) updateProfile(ctx context.Context, userID int64, req models.ProfileRequest) (*models.User, error) {
	var user *models.User
	err := s.store.InTx(ctx, func(tx *store.Store) error {
		u, err := tx.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		if u == nil {
			return learning.ErrNotFound
		}
		if err := u.ApplyProfile(req); err != nil {
			return fmt.Errorf("%w: %v", errInvalidProfile, err)
		}
		if err := tx.UpdateProfile(ctx, u); err != nil {
			return err
		}
		user = u
		return nil
	})
	return user, err
}

var errInvalidProfile = errors.New("invalid profile")

// SetProfile stores the onboarding questionnaire.
func (s *Service) SetProfile(ctx context.Context, userID int64, req models.ProfileRequest) (*models.User, error) {
	return s.updateProfile(ctx, userID, req)
}

// DiagnosticQuestions samples up to five active questions from every topic.
func (s *Service) DiagnosticQuestions(ctx context.Context) (*models.DiagnosticResponse, error) {
	topics, err := s.store.ListTopics(ctx)
	if err != nil {
		return nil, err
	}
	resp := &models.DiagnosticResponse{Questions: []models.QuestionOut{}}
	for _, t := range topics {
		topicID := t.ID
		qs, err := s.store.RandomQuestions(ctx, models.QuestionFilter{TopicID: &topicID}, diagnosticPerTopic)
		if err != nil {
			return nil, err
		}
		out, err := s.outAll(ctx, qs)
		if err != nil {
			return nil, err
		}
		resp.Questions = append(resp.Questions, out...)
	}
	resp.Total = len(resp.Questions)
	return resp, nil
}

// SubmitDiagnostic seeds concept stats from the diagnostic and finishes
// onboarding.
func (s *Service) SubmitDiagnostic(ctx context.Context, userID int64, answers []models.AnswerSubmission) (*models.DiagnosticResult, error) {
	var result *models.DiagnosticResult
	err := s.store.InTx(ctx, func(tx *store.Store) error {
		var err error
		result, err = s.engine.Using(tx).ApplyDiagnostic(ctx, userID, answers)
		if err != nil {
			return err
		}
		return tx.MarkOnboarded(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[onboarding] user %d finished diagnostic: accuracy %.2f, level %s",
		userID, result.OverallAccuracy, result.RecommendedLevel)
	return result, nil
}
