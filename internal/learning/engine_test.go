package learning

import (
	"context"
	"testing"
	"time"

	"github.com/exam-mentor/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	repo    *MemoryRepository
	engine  *Engine
	now     time.Time
	user    *models.User
	topic   *models.Topic
	concept *models.Concept
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{repo: NewMemoryRepository(), now: testNow}
	f.engine = NewEngine(f.repo, WithRand(seeded()), WithClock(func() time.Time { return f.now }))
	f.user = f.repo.AddUser(models.User{Email: "ada@example.com", Name: "Ada", Level: models.LevelAverage, DailyMinutes: 45})
	f.topic = f.repo.AddTopic(models.Topic{Name: "Quantitative", ExamWeight: 0.5})
	f.concept = f.repo.AddConcept(models.Concept{TopicID: f.topic.ID, Name: "Ratios"})
	return f
}

func (f *fixture) addQuestion(conceptID int64, difficulty int) *models.Question {
	return f.repo.AddQuestion(models.Question{
		ConceptID:           conceptID,
		Text:                "q",
		CorrectOption:       "b",
		Difficulty:          difficulty,
		ExpectedTimeSeconds: 60,
		IsActive:            true,
		WhyWrong:            map[string]string{"a": "off by one"},
	})
}

func TestRecordAnswerCorrect(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := f.addQuestion(f.concept.ID, 3)

	out, err := f.engine.RecordAnswer(ctx, f.user.ID, AnswerInput{QuestionID: q.ID, SelectedOption: "b", TimeTakenSeconds: 20, CheckIn: true})
	require.NoError(t, err)

	assert.True(t, out.Attempt.IsCorrect)
	assert.NotZero(t, out.Attempt.ID)
	assert.InDelta(t, 0.08, out.Delta, 1e-9)

	stats, err := f.repo.GetConceptStats(ctx, f.user.ID, f.concept.ID)
	require.NoError(t, err)
	require.NotNil(t, stats)
	assert.Equal(t, 1, stats.TotalAttempts)
	assert.Equal(t, 3, stats.DifficultyComfort)

	streak, err := f.engine.CurrentStreak(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, streak.CurrentStreak)

	n, err := f.engine.ReviewCount(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRecordAnswerUnknownQuestion(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.RecordAnswer(context.Background(), f.user.ID, AnswerInput{QuestionID: 999, SelectedOption: "a"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWrongAnswerFlowsThroughReviewQueue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := f.addQuestion(f.concept.ID, 2)

	out, err := f.engine.RecordAnswer(ctx, f.user.ID, AnswerInput{QuestionID: q.ID, SelectedOption: "c", TimeTakenSeconds: 40, WasGuessed: true})
	require.NoError(t, err)
	require.NotNil(t, out.Attempt.MistakeType)
	assert.Equal(t, models.MistakeGuessed, *out.Attempt.MistakeType)

	// Not due until tomorrow.
	due, err := f.engine.DueReviews(ctx, f.user.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, due)

	f.now = f.now.Add(25 * time.Hour)
	due, err = f.engine.DueReviews(ctx, f.user.ID, DefaultReviewLimit)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, out.Attempt.ID, due[0].ID)

	reviewed, err := f.engine.ProcessReview(ctx, f.user.ID, due[0].ID, true, 30)
	require.NoError(t, err)
	assert.Equal(t, 3, reviewed.ReviewIntervalDays)
	assert.Equal(t, 1, reviewed.ReviewCount)
	assert.Equal(t, f.now.AddDate(0, 0, 3), *reviewed.NextReviewDate)

	n, err := f.engine.ReviewCount(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	stored, err := f.repo.GetAttempt(ctx, out.Attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.ReviewIntervalDays)
}

func TestDueReviewsOldestFirstAndLimited(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := f.addQuestion(f.concept.ID, 2)

	var ids []int64
	for i := 0; i < 3; i++ {
		out, err := f.engine.RecordAnswer(ctx, f.user.ID, AnswerInput{QuestionID: q.ID, SelectedOption: "a"})
		require.NoError(t, err)
		ids = append(ids, out.Attempt.ID)
		f.now = f.now.Add(time.Hour)
	}
	f.now = f.now.AddDate(0, 0, 2)

	due, err := f.engine.DueReviews(ctx, f.user.ID, 2)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, ids[0], due[0].ID)
	assert.Equal(t, ids[1], due[1].ID)
}

func TestProcessReviewOtherLearner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := f.addQuestion(f.concept.ID, 2)
	other := f.repo.AddUser(models.User{Email: "bob@example.com", Name: "Bob"})

	out, err := f.engine.RecordAnswer(ctx, f.user.ID, AnswerInput{QuestionID: q.ID, SelectedOption: "a"})
	require.NoError(t, err)

	_, err = f.engine.ProcessReview(ctx, other.ID, out.Attempt.ID, true, 10)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.engine.ClassifyMistake(ctx, other.ID, out.Attempt.ID, models.MistakeMisread)
	assert.ErrorIs(t, err, ErrNotFound)

	a, err := f.engine.ClassifyMistake(ctx, f.user.ID, out.Attempt.ID, models.MistakeMisread)
	require.NoError(t, err)
	assert.Equal(t, models.MistakeMisread, *a.MistakeType)
}

func TestProcessReviewCorrectAttempt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := f.addQuestion(f.concept.ID, 2)

	out, err := f.engine.RecordAnswer(ctx, f.user.ID, AnswerInput{QuestionID: q.ID, SelectedOption: "b", TimeTakenSeconds: 10})
	require.NoError(t, err)
	require.True(t, out.Attempt.IsCorrect)

	_, err = f.engine.ProcessReview(ctx, f.user.ID, out.Attempt.ID, false, 10)
	assert.ErrorIs(t, err, ErrNotFound)

	stored, err := f.repo.GetAttempt(ctx, out.Attempt.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.NextReviewDate)
	assert.Zero(t, stored.ReviewCount)
	assert.Equal(t, out.Attempt.ReviewIntervalDays, stored.ReviewIntervalDays)

	n, err := f.engine.ReviewCount(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestNextQuestionPrefersUnseen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	easy := f.addQuestion(f.concept.ID, 1)
	next := f.addQuestion(f.concept.ID, 2)

	q, err := f.engine.NextQuestion(ctx, f.user.ID, nil, &f.concept.ID, nil)
	require.NoError(t, err)
	require.NotNil(t, q)
	assert.Equal(t, easy.ID, q.ID)

	_, err = f.engine.RecordAnswer(ctx, f.user.ID, AnswerInput{QuestionID: easy.ID, SelectedOption: "b", TimeTakenSeconds: 10})
	require.NoError(t, err)

	q, err = f.engine.NextQuestion(ctx, f.user.ID, nil, &f.concept.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, next.ID, q.ID)

	_, err = f.engine.RecordAnswer(ctx, f.user.ID, AnswerInput{QuestionID: next.ID, SelectedOption: "b", TimeTakenSeconds: 10})
	require.NoError(t, err)

	// Pool exhausted: a seen question comes back rather than nothing.
	q, err = f.engine.NextQuestion(ctx, f.user.ID, nil, &f.concept.ID, nil)
	require.NoError(t, err)
	require.NotNil(t, q)
	assert.Equal(t, easy.ID, q.ID)
}

func TestNextQuestionDifficultyWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addQuestion(f.concept.ID, 1)
	hard := f.addQuestion(f.concept.ID, 4)

	five := 5
	q, err := f.engine.NextQuestion(ctx, f.user.ID, nil, &f.concept.ID, &five)
	require.NoError(t, err)
	require.NotNil(t, q)
	assert.Equal(t, hard.ID, q.ID)

	other := f.repo.AddConcept(models.Concept{TopicID: f.topic.ID, Name: "Empty"})
	q, err = f.engine.NextQuestion(ctx, f.user.ID, nil, &other.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, q)
}

func TestNextQuestionScoredSelection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// A second, untouched topic should draw most picks.
	fresh := f.repo.AddTopic(models.Topic{Name: "Verbal"})
	freshConcept := f.repo.AddConcept(models.Concept{TopicID: fresh.ID, Name: "Synonyms"})
	f.addQuestion(freshConcept.ID, 2)
	f.addQuestion(f.concept.ID, 4)

	seen := f.now
	require.NoError(t, f.repo.SaveConceptStats(ctx, &models.ConceptStats{
		UserID: f.user.ID, ConceptID: f.concept.ID,
		Mastery: 0.95, Accuracy: 0.95, TotalAttempts: 40, CorrectAttempts: 38,
		DifficultyComfort: 4, LastSeen: &seen,
	}))

	counts := map[int64]int{}
	for i := 0; i < 300; i++ {
		q, err := f.engine.NextQuestion(ctx, f.user.ID, nil, nil, nil)
		require.NoError(t, err)
		require.NotNil(t, q)
		counts[q.ConceptID]++
	}
	assert.Greater(t, counts[freshConcept.ID], counts[f.concept.ID])

	// Topic filter keeps selection inside the topic.
	q, err := f.engine.NextQuestion(ctx, f.user.ID, &f.topic.ID, nil, nil)
	require.NoError(t, err)
	require.NotNil(t, q)
	assert.Equal(t, f.concept.ID, q.ConceptID)
}

func TestNextQuestionNoConcepts(t *testing.T) {
	repo := NewMemoryRepository()
	e := NewEngine(repo, WithRand(seeded()))
	q, err := e.NextQuestion(context.Background(), 1, nil, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, q)
}

func TestTodayPlanGeneratesOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	plan, err := f.engine.TodayPlan(ctx, f.user.ID)
	require.NoError(t, err)
	require.Len(t, plan.Items, 3)
	assert.Equal(t, models.ItemWarmup, plan.Items[0].ItemType)
	assert.Equal(t, models.ItemMixedPractice, plan.Items[1].ItemType)
	assert.Equal(t, models.ItemTimedSprint, plan.Items[2].ItemType)
	assert.Equal(t, 45, plan.TotalMinutes)

	again, err := f.engine.TodayPlan(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, plan.ID, again.ID)
}

func TestGeneratePlanReplacesToday(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.engine.GeneratePlan(ctx, f.user.ID)
	require.NoError(t, err)

	second, err := f.engine.GeneratePlan(ctx, f.user.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	old, err := f.repo.GetPlanByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Nil(t, old)

	item, err := f.repo.GetPlanItem(ctx, first.Items[0].ID)
	require.NoError(t, err)
	assert.Nil(t, item)

	today, err := f.engine.TodayPlan(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, today.ID)
}

func TestGeneratePlanUsesWeakestAndReviews(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := f.addQuestion(f.concept.ID, 2)

	_, err := f.engine.RecordAnswer(ctx, f.user.ID, AnswerInput{QuestionID: q.ID, SelectedOption: "a"})
	require.NoError(t, err)
	f.now = f.now.AddDate(0, 0, 1)

	plan, err := f.engine.GeneratePlan(ctx, f.user.ID)
	require.NoError(t, err)
	require.Len(t, plan.Items, 4)
	assert.Equal(t, models.ItemWeakTopicDrill, plan.Items[1].ItemType)
	assert.Equal(t, f.concept.ID, *plan.Items[1].ConceptID)
	assert.Equal(t, models.ItemMistakeReview, plan.Items[3].ItemType)
	assert.Equal(t, 1, plan.Items[3].QuestionCount)
}

func TestCompletePlanItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := f.repo.AddUser(models.User{Email: "bob@example.com", Name: "Bob"})

	plan, err := f.engine.GeneratePlan(ctx, f.user.ID)
	require.NoError(t, err)

	_, err = f.engine.CompletePlanItem(ctx, other.ID, plan.Items[0].ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.engine.CompletePlanItem(ctx, f.user.ID, 12345)
	assert.ErrorIs(t, err, ErrNotFound)

	for i, it := range plan.Items {
		resp, err := f.engine.CompletePlanItem(ctx, f.user.ID, it.ID)
		require.NoError(t, err)
		assert.True(t, resp.IsCompleted)
		assert.Equal(t, i == len(plan.Items)-1, resp.PlanCompleted)
	}

	stored, err := f.repo.GetPlanByID(ctx, plan.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsCompleted)
}

func TestEngineCheckIn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s, err := f.engine.CheckIn(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, s.CurrentStreak)

	s, err = f.engine.CheckIn(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, s.CurrentStreak)

	f.now = f.now.AddDate(0, 0, 1)
	s, err = f.engine.CheckIn(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, s.CurrentStreak)

	f.now = f.now.AddDate(0, 0, 3)
	s, err = f.engine.CheckIn(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, s.CurrentStreak)
	assert.Equal(t, 2, s.LongestStreak)
}

func TestApplyDiagnostic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	second := f.repo.AddConcept(models.Concept{TopicID: f.topic.ID, Name: "Percentages"})

	var answers []models.AnswerSubmission
	for i := 0; i < 5; i++ {
		q := f.addQuestion(f.concept.ID, 2)
		answers = append(answers, models.AnswerSubmission{QuestionID: q.ID, SelectedOption: "b"})
	}
	for i := 0; i < 5; i++ {
		q := f.addQuestion(second.ID, 2)
		opt := "a"
		if i < 2 {
			opt = "b"
		}
		answers = append(answers, models.AnswerSubmission{QuestionID: q.ID, SelectedOption: opt})
	}
	answers = append(answers, models.AnswerSubmission{QuestionID: 9999, SelectedOption: "a"})

	res, err := f.engine.ApplyDiagnostic(ctx, f.user.ID, answers)
	require.NoError(t, err)
	require.Len(t, res.ConceptResults, 2)

	assert.Equal(t, "Ratios", res.ConceptResults[0].ConceptName)
	assert.Equal(t, 1.0, res.ConceptResults[0].Accuracy)
	assert.Equal(t, 0.5, res.ConceptResults[0].InitialMastery)
	assert.Equal(t, 3, res.ConceptResults[0].DifficultyComfort)

	assert.Equal(t, 0.4, res.ConceptResults[1].Accuracy)
	assert.Equal(t, 0.2, res.ConceptResults[1].InitialMastery)
	assert.Equal(t, 1, res.ConceptResults[1].DifficultyComfort)

	assert.Equal(t, 0.7, res.OverallAccuracy)
	assert.Equal(t, models.LevelHighScorer, res.RecommendedLevel)

	stats, err := f.repo.GetConceptStats(ctx, f.user.ID, second.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0.2, stats.Mastery, 1e-9)
}
