package practice

import (
	"context"
	"errors"

	"github.com/exam-mentor/backend/internal/learning"
	"github.com/exam-mentor/backend/internal/models"
	"github.com/exam-mentor/backend/internal/store"
)

// ── Study Sessions ──────────────────────────────────────

func (s *Service) StartSession(ctx context.Context, userID int64, req models.StartSessionRequest) (*models.StartSessionResponse, error) {
	count := req.QuestionCount
	if count <= 0 {
		count = defaultSessionSize
	}

	qs, err := s.store.RandomQuestions(ctx, models.QuestionFilter{
		TopicID:    req.TopicID,
		Difficulty: req.Difficulty,
	}, count)
	if err != nil {
		return nil, err
	}
	out, err := s.outAll(ctx, qs)
	if err != nil {
		return nil, err
	}

	sess := models.StudySession{
		UserID:        userID,
		SessionType:   req.SessionType,
		QuestionCount: count,
		StartedAt:     s.engine.Now(),
	}
	if err := s.store.CreateSession(ctx, &sess); err != nil {
		return nil, err
	}
	return &models.StartSessionResponse{Session: sess, Questions: out}, nil
}

func (s *Service) GetSession(ctx context.Context, userID, sessionID int64) (*models.StudySession, error) {
	return s.ownedSession(ctx, userID, sessionID)
}

func (s *Service) SessionHistory(ctx context.Context, userID int64) ([]models.StudySession, error) {
	return s.store.RecentSessions(ctx, userID, recentSessionsLimit)
}

func (s *Service) ownedSession(ctx context.Context, userID, sessionID int64) (*models.StudySession, error) {
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := checkSession(sess, userID, false); err != nil {
		return nil, err
	}
	return sess, nil
}

// checkSession hides sessions of other learners. With open set, a session
// that was already submitted is rejected too.
func checkSession(sess *models.StudySession, userID int64, open bool) error {
	if sess == nil || sess.UserID != userID {
		return learning.ErrNotFound
	}
	if open && sess.IsCompleted {
		return ErrSessionCompleted
	}
	return nil
}

// gradedAnswer is one session answer after grading.
type gradedAnswer struct {
	topic     string
	correct   bool
	timeTaken int
}

// SubmitSession grades every answer of a session in one transaction: each
// answer becomes an attempt tied to the session and updates mastery. Answers
// to unknown questions are skipped but still count toward the total.
func (s *Service) SubmitSession(ctx context.Context, userID, sessionID int64, answers []models.AnswerSubmission) (*models.SessionResult, error) {
	var result *models.SessionResult
	err := s.store.InTx(ctx, func(tx *store.Store) error {
		sess, err := tx.GetSession(ctx, sessionID)
		if err != nil {
			return err
		}
		if err := checkSession(sess, userID, true); err != nil {
			return err
		}

		eng := s.engine.Using(tx)
		topics := make(map[int64]string)
		graded := make([]gradedAnswer, 0, len(answers))
		for _, ans := range answers {
			res, err := eng.RecordAnswer(ctx, userID, learning.AnswerInput{
				QuestionID:       ans.QuestionID,
				SelectedOption:   ans.SelectedOption,
				TimeTakenSeconds: ans.TimeTakenSeconds,
				SessionID:        &sess.ID,
				CheckIn:          true,
			})
			if errors.Is(err, learning.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}

			topic, ok := topics[res.Question.ConceptID]
			if !ok {
				_, topic, err = tx.ConceptNames(ctx, res.Question.ConceptID)
				if err != nil {
					return err
				}
				if topic == "" {
					topic = "Unknown"
				}
				topics[res.Question.ConceptID] = topic
			}
			graded = append(graded, gradedAnswer{
				topic:     topic,
				correct:   res.Attempt.IsCorrect,
				timeTaken: res.Attempt.TimeTakenSeconds,
			})
		}

		result = summarizeSession(sess, len(answers), graded)

		now := s.engine.Now()
		sess.CorrectCount = result.CorrectCount
		sess.TotalTimeSeconds = result.TotalTimeSeconds
		sess.EndedAt = &now
		sess.IsCompleted = true
		return tx.CompleteSession(ctx, sess)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// summarizeSession totals graded answers overall and per topic. total is the
// number of submitted answers, graded or not.
func summarizeSession(sess *models.StudySession, total int, graded []gradedAnswer) *models.SessionResult {
	type tally struct{ correct, total, time int }

	res := &models.SessionResult{
		SessionID:      sess.ID,
		SessionType:    sess.SessionType,
		TotalQuestions: total,
		TopicBreakdown: []models.TopicBreakdown{},
	}

	var order []string
	byTopic := make(map[string]*tally)
	for _, g := range graded {
		t, ok := byTopic[g.topic]
		if !ok {
			t = &tally{}
			byTopic[g.topic] = t
			order = append(order, g.topic)
		}
		t.total++
		t.time += g.timeTaken
		res.TotalTimeSeconds += g.timeTaken
		if g.correct {
			t.correct++
			res.CorrectCount++
		}
	}

	if total > 0 {
		res.Accuracy = learning.RoundTo(float64(res.CorrectCount)/float64(total), 3)
		res.AvgTimePerQuestion = learning.RoundTo(float64(res.TotalTimeSeconds)/float64(total), 1)
	}

	for _, name := range order {
		t := byTopic[name]
		res.TopicBreakdown = append(res.TopicBreakdown, models.TopicBreakdown{
			TopicName: name,
			Correct:   t.correct,
			Total:     t.total,
			Accuracy:  learning.RoundTo(float64(t.correct)/float64(t.total), 3),
			AvgTime:   learning.RoundTo(float64(t.time)/float64(t.total), 1),
		})
	}
	return res
}
