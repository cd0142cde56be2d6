package learning

import (
	"sort"
	"time"

	"github.com/exam-mentor/backend/internal/models"
)

// Priority weights. They sum to 1.
const (
	weightMasteryGap   = 0.35
	weightStaleness    = 0.15
	weightInaccuracy   = 0.20
	weightUrgency      = 0.20
	weightTopicDeficit = 0.10

	staleAfterDays  = 30
	selectionPool   = 5
	minSelectWeight = 0.01
	defaultTarget   = 2
	maxDifficulty   = 5
	minDifficulty   = 1
)

// Rand is the random source used for concept sampling and difficulty
// picks. *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// ConceptScore is a candidate concept with its computed priority.
type ConceptScore struct {
	Concept  models.Concept
	Stats    *models.ConceptStats
	Priority float64
}

// ScoreConcepts ranks candidate concepts, highest priority first. stats is
// keyed by concept ID; concepts without an entry have never been attempted.
func ScoreConcepts(concepts []models.Concept, stats map[int64]*models.ConceptStats, now time.Time) []ConceptScore {
	scores := make([]ConceptScore, 0, len(concepts))
	topicAttempts := make(map[int64]int)

	for _, c := range concepts {
		s := stats[c.ID]

		var mastery, acc float64
		var attempts int
		if s != nil {
			mastery, acc, attempts = s.Mastery, s.Accuracy, s.TotalAttempts
		}

		priority := (1-mastery)*weightMasteryGap +
			staleness(s, now)*weightStaleness +
			(1-acc)*weightInaccuracy +
			reviewUrgency(s, now)*weightUrgency

		topicAttempts[c.TopicID] += attempts
		scores = append(scores, ConceptScore{Concept: c, Stats: s, Priority: priority})
	}

	// Topic balance needs the topic-wide totals, so it is a second pass.
	total := 0
	for _, n := range topicAttempts {
		total += n
	}
	if total == 0 {
		total = 1
	}
	topics := len(topicAttempts)
	if topics == 0 {
		topics = 1
	}
	expected := 1.0 / float64(topics)

	for i := range scores {
		observed := float64(topicAttempts[scores[i].Concept.TopicID]) / float64(total)
		if deficit := expected - observed; deficit > 0 {
			scores[i].Priority += deficit * weightTopicDeficit
		}
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Priority > scores[j].Priority
	})
	return scores
}

// PickConcept draws one of the top-ranked scores, weighted by priority.
// scores must already be sorted by ScoreConcepts.
func PickConcept(scores []ConceptScore, rnd Rand) *ConceptScore {
	if len(scores) == 0 {
		return nil
	}
	pool := scores
	if len(pool) > selectionPool {
		pool = pool[:selectionPool]
	}

	weights := make([]float64, len(pool))
	var sum float64
	for i, s := range pool {
		w := s.Priority
		if w < minSelectWeight {
			w = minSelectWeight
		}
		weights[i] = w
		sum += w
	}

	r := rnd.Float64() * sum
	for i, w := range weights {
		if r < w {
			return &pool[i]
		}
		r -= w
	}
	return &pool[len(pool)-1]
}

// TargetDifficulty picks a difficulty for the next question of a concept.
// A forced difficulty always wins.
func TargetDifficulty(s *models.ConceptStats, forced *int, rnd Rand) int {
	if forced != nil {
		return *forced
	}
	if s == nil {
		return defaultTarget
	}

	var low int
	switch {
	case s.Mastery < 0.3:
		low = 1
	case s.Mastery < 0.6:
		low = 2
	case s.Mastery < 0.8:
		low = 3
	default:
		low = 4
	}
	target := low + rnd.Intn(2)

	// Streak bonus first, then the frustration guard.
	if s.CurrentStreak >= 3 {
		target = min(target+1, maxDifficulty)
	}
	if s.Accuracy < 0.5 && s.TotalAttempts > 5 {
		target = max(target-1, minDifficulty)
	}
	return target
}

func daysSince(t time.Time, now time.Time) int {
	return int(now.Sub(t).Hours() / 24)
}

func staleness(s *models.ConceptStats, now time.Time) float64 {
	days := staleAfterDays
	if s != nil && s.LastSeen != nil {
		days = daysSince(*s.LastSeen, now)
	}
	v := float64(days) / staleAfterDays
	if v > 1 {
		return 1
	}
	if v < 0 {
		return 0
	}
	return v
}

func reviewUrgency(s *models.ConceptStats, now time.Time) float64 {
	if s == nil || s.LastSeen == nil {
		return 0.5
	}
	days := daysSince(*s.LastSeen, now)

	switch {
	case s.Mastery < 0.3 && days > 3:
		return 1.0
	case s.Mastery < 0.6 && days > 7:
		return 0.8
	case s.Mastery < 0.8 && days > 14:
		return 0.6
	case days > 21:
		return 0.4
	default:
		return 0
	}
}
