package learning

import (
	"math"

	"github.com/exam-mentor/backend/internal/models"
)

const (
	minSlotMinutes   = 5
	maxReviewMinutes = 15
	weakDrillCount   = 3
)

// Allocation is the minute budget of a daily plan, split by activity.
type Allocation struct {
	Warmup int
	Review int
	Sprint int
	Drill  int
}

// Allocate splits total minutes across warm-up, review, sprint and drill.
// The review slot only exists when reviews are due. The level adjustment
// is applied after the drill remainder is fixed.
func Allocate(total int, level models.Level, dueReviews int) Allocation {
	var a Allocation
	a.Warmup = max(minSlotMinutes, roundMinutes(total, 0.12))
	if dueReviews > 0 {
		a.Review = min(roundMinutes(total, 0.20), maxReviewMinutes)
	}
	a.Sprint = max(minSlotMinutes, roundMinutes(total, 0.22))
	a.Drill = total - a.Warmup - a.Review - a.Sprint

	switch level {
	case models.LevelBeginner:
		a.Warmup += 3
		a.Sprint = max(minSlotMinutes, a.Sprint-3)
	case models.LevelHighScorer:
		a.Warmup = max(minSlotMinutes, a.Warmup-2)
		a.Sprint += 2
	}
	return a
}

// BuildPlanItems lays out plan items in display order. weakest holds the
// learner's lowest-mastery concepts; when empty a single mixed-practice item
// stands in for the drills.
func BuildPlanItems(a Allocation, weakest []models.ConceptStats, dueReviews int) []models.DailyPlanItem {
	var items []models.DailyPlanItem
	add := func(it models.DailyPlanItem) {
		it.DisplayOrder = len(items)
		items = append(items, it)
	}

	add(models.DailyPlanItem{
		ItemType:        models.ItemWarmup,
		DurationMinutes: a.Warmup,
		QuestionCount:   max(3, a.Warmup/2),
		DifficultyMin:   intPtr(1),
		DifficultyMax:   intPtr(2),
	})

	if len(weakest) > 0 {
		per := a.Drill / len(weakest)
		for _, s := range weakest {
			comfort := min(max(s.DifficultyComfort, minDifficulty), maxDifficulty)
			conceptID := s.ConceptID
			add(models.DailyPlanItem{
				ItemType:        models.ItemWeakTopicDrill,
				ConceptID:       &conceptID,
				DurationMinutes: max(minSlotMinutes, per),
				QuestionCount:   max(3, per/2),
				DifficultyMin:   intPtr(comfort),
				DifficultyMax:   intPtr(min(comfort+1, maxDifficulty)),
			})
		}
	} else {
		add(models.DailyPlanItem{
			ItemType:        models.ItemMixedPractice,
			DurationMinutes: max(0, a.Drill),
			QuestionCount:   max(5, a.Drill/2),
			DifficultyMin:   intPtr(1),
			DifficultyMax:   intPtr(3),
		})
	}

	add(models.DailyPlanItem{
		ItemType:        models.ItemTimedSprint,
		DurationMinutes: a.Sprint,
		QuestionCount:   max(5, a.Sprint),
		DifficultyMin:   intPtr(2),
		DifficultyMax:   intPtr(4),
	})

	if a.Review > 0 {
		add(models.DailyPlanItem{
			ItemType:        models.ItemMistakeReview,
			DurationMinutes: a.Review,
			QuestionCount:   min(dueReviews, max(3, a.Review/2)),
		})
	}
	return items
}

// AllComplete reports whether every item of a plan is done.
func AllComplete(items []models.DailyPlanItem) bool {
	for _, it := range items {
		if !it.IsCompleted {
			return false
		}
	}
	return len(items) > 0
}

func roundMinutes(total int, share float64) int {
	return int(math.Round(float64(total) * share))
}

func intPtr(v int) *int { return &v }
