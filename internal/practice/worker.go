package practice

import (
	"context"
	"log"
	"time"
)

// activeWindow is how recently a learner must have answered something to get
// a plan generated overnight.
const activeWindow = 7 * 24 * time.Hour

// StartPlanWorker pre-generates today's plan for recently active learners
// once a day, at 00:xx UTC.
func (s *Service) StartPlanWorker(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	log.Println("[plan-worker] Nightly plan worker started")

	for {
		select {
		case <-ctx.Done():
			log.Println("[plan-worker] Shutting down")
			return
		case t := <-ticker.C:
			if t.UTC().Hour() == 0 {
				s.generateNightlyPlans(ctx)
			}
		}
	}
}

func (s *Service) generateNightlyPlans(ctx context.Context) {
	since := s.engine.Now().Add(-activeWindow)
	ids, err := s.store.ActiveLearnerIDs(ctx, since)
	if err != nil {
		log.Printf("[plan-worker] failed to list active learners: %v", err)
		return
	}

	generated := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return
		}
		if _, err := s.engine.TodayPlan(ctx, id); err != nil {
			log.Printf("[plan-worker] WARN: plan for user %d: %v", id, err)
			continue
		}
		generated++
	}
	log.Printf("[plan-worker] ensured plans for %d/%d active learners", generated, len(ids))
}
