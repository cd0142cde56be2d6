// Package stats serves the learner dashboard, mastery map and trends.
package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/exam-mentor/backend/internal/learning"
	"github.com/exam-mentor/backend/internal/models"
	"golang.org/x/sync/errgroup"
)

const (
	weakestLimit     = 5
	defaultTrendDays = 7
	maxTrendDays     = 90
)

// Store is the read side the stats endpoints aggregate over.
type Store interface {
	AttemptTotals(ctx context.Context, userID int64) (total, correct int, avgTime float64, err error)
	TotalStudySeconds(ctx context.Context, userID int64) (int, error)
	TopicMasteryAverages(ctx context.Context, userID int64) (map[string]float64, error)
	WeakestConcepts(ctx context.Context, userID int64, limit int) ([]models.WeakConcept, error)
	MasteryMap(ctx context.Context, userID int64) ([]models.TopicMastery, error)
	DailyAttemptTotals(ctx context.Context, userID int64, since time.Time) ([]models.DailyAttemptTotals, error)
	GetStreak(ctx context.Context, userID int64) (*models.Streak, error)
}

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Dashboard runs the independent aggregates concurrently.
func (s *Service) Dashboard(ctx context.Context, userID int64) (*models.DashboardResponse, error) {
	var (
		total, correct int
		avgTime        float64
		studySeconds   int
		mastery        map[string]float64
		weakest        []models.WeakConcept
		streak         *models.Streak
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		total, correct, avgTime, err = s.store.AttemptTotals(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		studySeconds, err = s.store.TotalStudySeconds(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		mastery, err = s.store.TopicMasteryAverages(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		weakest, err = s.store.WeakestConcepts(gctx, userID, weakestLimit)
		return err
	})
	g.Go(func() error {
		var err error
		streak, err = s.store.GetStreak(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}

	resp := &models.DashboardResponse{
		TotalQuestionsDone: total,
		TotalCorrect:       correct,
		AvgTimePerQuestion: learning.RoundTo(avgTime, 1),
		TotalStudyMinutes:  studySeconds / 60,
		MasterySummary:     mastery,
		WeakestConcepts:    weakest,
	}
	if total > 0 {
		resp.OverallAccuracy = learning.RoundTo(float64(correct)/float64(total), 3)
	}
	if streak != nil {
		resp.CurrentStreak = streak.CurrentStreak
		resp.LongestStreak = streak.LongestStreak
	}
	if resp.MasterySummary == nil {
		resp.MasterySummary = map[string]float64{}
	}
	if resp.WeakestConcepts == nil {
		resp.WeakestConcepts = []models.WeakConcept{}
	}
	return resp, nil
}

func (s *Service) MasteryMap(ctx context.Context, userID int64) (*models.MasteryMapResponse, error) {
	topics, err := s.store.MasteryMap(ctx, userID)
	if err != nil {
		return nil, err
	}
	if topics == nil {
		topics = []models.TopicMastery{}
	}
	return &models.MasteryMapResponse{Topics: topics}, nil
}

func (s *Service) Weakest(ctx context.Context, userID int64) ([]models.WeakConcept, error) {
	return s.store.WeakestConcepts(ctx, userID, weakestLimit)
}

// Trends reports accuracy and speed for each of the last days UTC days,
// today included, oldest first. Days without attempts are zero.
func (s *Service) Trends(ctx context.Context, userID int64, days int) (*models.TrendsResponse, error) {
	days = clampDays(days)
	today := learning.Day(s.now())
	since := today.AddDate(0, 0, -(days - 1))

	totals, err := s.store.DailyAttemptTotals(ctx, userID, since)
	if err != nil {
		return nil, err
	}
	return &models.TrendsResponse{
		DailyTrends: buildTrends(totals, since, days),
		Period:      fmt.Sprintf("%dd", days),
	}, nil
}

func clampDays(days int) int {
	if days <= 0 {
		return defaultTrendDays
	}
	if days > maxTrendDays {
		return maxTrendDays
	}
	return days
}

func buildTrends(totals []models.DailyAttemptTotals, since time.Time, days int) []models.TrendPoint {
	byDay := make(map[string]models.DailyAttemptTotals, len(totals))
	for _, t := range totals {
		byDay[t.Day.UTC().Format("2006-01-02")] = t
	}

	points := make([]models.TrendPoint, 0, days)
	for i := 0; i < days; i++ {
		key := since.AddDate(0, 0, i).Format("2006-01-02")
		p := models.TrendPoint{Date: key}
		if t, ok := byDay[key]; ok && t.Total > 0 {
			p.QuestionsDone = t.Total
			p.Accuracy = learning.RoundTo(float64(t.Correct)/float64(t.Total), 3)
			p.AvgTime = learning.RoundTo(float64(t.TotalTime)/float64(t.Total), 1)
		}
		points = append(points, p)
	}
	return points
}
