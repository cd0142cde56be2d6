package learning

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/exam-mentor/backend/internal/models"
)

type statsKey struct {
	userID    int64
	conceptID int64
}

type planKey struct {
	userID int64
	day    time.Time
}

// MemoryRepository is an in-process Repository used as a test double by the
// engine tests. The server runs on store.Store. Transactions are serialized
// but not rolled back on error.
type MemoryRepository struct {
	mu   sync.Mutex
	txMu sync.Mutex

	nextID int64

	users     map[int64]*models.User
	topics    map[int64]*models.Topic
	concepts  map[int64]*models.Concept
	questions map[int64]*models.Question
	stats     map[statsKey]*models.ConceptStats
	attempts  map[int64]*models.Attempt
	plans     map[int64]*models.DailyPlan
	planByDay map[planKey]int64
	streaks   map[int64]*models.Streak
}

var _ Repository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:     make(map[int64]*models.User),
		topics:    make(map[int64]*models.Topic),
		concepts:  make(map[int64]*models.Concept),
		questions: make(map[int64]*models.Question),
		stats:     make(map[statsKey]*models.ConceptStats),
		attempts:  make(map[int64]*models.Attempt),
		plans:     make(map[int64]*models.DailyPlan),
		planByDay: make(map[planKey]int64),
		streaks:   make(map[int64]*models.Streak),
	}
}

func (m *MemoryRepository) id() int64 {
	m.nextID++
	return m.nextID
}

// ── Seeding ─────────────────────────────────────────────

// AddUser stores u, assigning an ID when it has none.
func (m *MemoryRepository) AddUser(u models.User) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == 0 {
		u.ID = m.id()
	}
	m.users[u.ID] = &u
	return &u
}

func (m *MemoryRepository) AddTopic(t models.Topic) *models.Topic {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID == 0 {
		t.ID = m.id()
	}
	m.topics[t.ID] = &t
	return &t
}

func (m *MemoryRepository) AddConcept(c models.Concept) *models.Concept {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == 0 {
		c.ID = m.id()
	}
	m.concepts[c.ID] = &c
	return &c
}

func (m *MemoryRepository) AddQuestion(q models.Question) *models.Question {
	m.mu.Lock()
	defer m.mu.Unlock()
	if q.ID == 0 {
		q.ID = m.id()
	}
	m.questions[q.ID] = &q
	return &q
}

// ── Repository ──────────────────────────────────────────

func (m *MemoryRepository) GetUser(_ context.Context, userID int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *MemoryRepository) GetConcept(_ context.Context, conceptID int64) (*models.Concept, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.concepts[conceptID]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (m *MemoryRepository) ListConcepts(_ context.Context, topicID *int64) ([]models.Concept, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Concept
	for _, c := range m.concepts {
		if topicID != nil && c.TopicID != *topicID {
			continue
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder < out[j].DisplayOrder
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemoryRepository) GetQuestion(_ context.Context, questionID int64) (*models.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.questions[questionID]
	if !ok {
		return nil, nil
	}
	cp := *q
	return &cp, nil
}

func (m *MemoryRepository) FindQuestion(_ context.Context, conceptID int64, difficulty *int, exclude []int64) (*models.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	skip := make(map[int64]bool, len(exclude))
	for _, id := range exclude {
		skip[id] = true
	}

	var best *models.Question
	for _, q := range m.questions {
		if q.ConceptID != conceptID || !q.IsActive || skip[q.ID] {
			continue
		}
		if difficulty != nil && (q.Difficulty < *difficulty-1 || q.Difficulty > *difficulty+1) {
			continue
		}
		if best == nil || q.Difficulty < best.Difficulty || (q.Difficulty == best.Difficulty && q.ID < best.ID) {
			best = q
		}
	}
	if best == nil {
		return nil, nil
	}
	cp := *best
	return &cp, nil
}

func (m *MemoryRepository) AnsweredQuestionIDs(_ context.Context, userID, conceptID int64) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[int64]bool)
	var ids []int64
	for _, a := range m.attempts {
		if a.UserID != userID || seen[a.QuestionID] {
			continue
		}
		if q, ok := m.questions[a.QuestionID]; ok && q.ConceptID == conceptID {
			seen[a.QuestionID] = true
			ids = append(ids, a.QuestionID)
		}
	}
	return ids, nil
}

func (m *MemoryRepository) GetConceptStats(_ context.Context, userID, conceptID int64) (*models.ConceptStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stats[statsKey{userID, conceptID}]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *MemoryRepository) ListConceptStats(_ context.Context, userID int64) ([]models.ConceptStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ConceptStats
	for k, s := range m.stats {
		if k.userID == userID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ConceptID < out[j].ConceptID })
	return out, nil
}

func (m *MemoryRepository) WeakestConceptStats(ctx context.Context, userID int64, limit int) ([]models.ConceptStats, error) {
	all, _ := m.ListConceptStats(ctx, userID)
	sort.SliceStable(all, func(i, j int) bool { return all[i].Mastery < all[j].Mastery })
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (m *MemoryRepository) SaveConceptStats(_ context.Context, s *models.ConceptStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == 0 {
		s.ID = m.id()
	}
	cp := *s
	m.stats[statsKey{s.UserID, s.ConceptID}] = &cp
	return nil
}

func (m *MemoryRepository) CreateAttempt(_ context.Context, a *models.Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = m.id()
	cp := *a
	m.attempts[a.ID] = &cp
	return nil
}

func (m *MemoryRepository) GetAttempt(_ context.Context, attemptID int64) (*models.Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[attemptID]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (m *MemoryRepository) UpdateAttemptReview(_ context.Context, a *models.Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.attempts[a.ID]
	if !ok {
		return nil
	}
	stored.NextReviewDate = a.NextReviewDate
	stored.ReviewIntervalDays = a.ReviewIntervalDays
	stored.ReviewCount = a.ReviewCount
	return nil
}

func (m *MemoryRepository) SetMistakeType(_ context.Context, attemptID int64, mt models.MistakeType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.attempts[attemptID]; ok {
		a.MistakeType = &mt
	}
	return nil
}

func (m *MemoryRepository) DueReviews(_ context.Context, userID int64, asOf time.Time, limit int) ([]models.Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Attempt
	for _, a := range m.attempts {
		if a.UserID == userID && !a.IsCorrect && a.NextReviewDate != nil && !a.NextReviewDate.After(asOf) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].NextReviewDate.Equal(*out[j].NextReviewDate) {
			return out[i].NextReviewDate.Before(*out[j].NextReviewDate)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryRepository) CountDueReviews(ctx context.Context, userID int64, asOf time.Time) (int, error) {
	due, _ := m.DueReviews(ctx, userID, asOf, 0)
	return len(due), nil
}

func (m *MemoryRepository) GetPlan(ctx context.Context, userID int64, day time.Time) (*models.DailyPlan, error) {
	m.mu.Lock()
	id, ok := m.planByDay[planKey{userID, Day(day)}]
	m.mu.Unlock()
	if !ok {
		return nil, nil
	}
	return m.GetPlanByID(ctx, id)
}

func (m *MemoryRepository) GetPlanByID(_ context.Context, planID int64) (*models.DailyPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.plans[planID]
	if !ok {
		return nil, nil
	}
	cp := *p
	cp.Items = append([]models.DailyPlanItem(nil), p.Items...)
	return &cp, nil
}

func (m *MemoryRepository) CreatePlan(_ context.Context, plan *models.DailyPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	plan.ID = m.id()
	for i := range plan.Items {
		plan.Items[i].ID = m.id()
		plan.Items[i].PlanID = plan.ID
	}
	cp := *plan
	cp.Items = append([]models.DailyPlanItem(nil), plan.Items...)
	m.plans[plan.ID] = &cp
	m.planByDay[planKey{plan.UserID, Day(plan.PlanDate)}] = plan.ID
	return nil
}

func (m *MemoryRepository) DeletePlan(_ context.Context, planID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.plans[planID]
	if !ok {
		return nil
	}
	delete(m.planByDay, planKey{p.UserID, Day(p.PlanDate)})
	delete(m.plans, planID)
	return nil
}

func (m *MemoryRepository) GetPlanItem(_ context.Context, itemID int64) (*models.DailyPlanItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.plans {
		for _, it := range p.Items {
			if it.ID == itemID {
				cp := it
				return &cp, nil
			}
		}
	}
	return nil, nil
}

func (m *MemoryRepository) CompletePlanItem(_ context.Context, itemID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.plans {
		for i := range p.Items {
			if p.Items[i].ID == itemID {
				p.Items[i].IsCompleted = true
			}
		}
	}
	return nil
}

func (m *MemoryRepository) SetPlanCompleted(_ context.Context, planID int64, completed bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.plans[planID]; ok {
		p.IsCompleted = completed
	}
	return nil
}

func (m *MemoryRepository) GetStreak(_ context.Context, userID int64) (*models.Streak, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.streaks[userID]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *MemoryRepository) SaveStreak(_ context.Context, s *models.Streak) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == 0 {
		s.ID = m.id()
	}
	cp := *s
	m.streaks[s.UserID] = &cp
	return nil
}

func (m *MemoryRepository) WithTx(ctx context.Context, fn func(Repository) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return fn(m)
}
