package content

import (
	"context"
	_ "embed"
	"fmt"
	"log"

	"github.com/exam-mentor/backend/internal/models"
)

// Store is what loading a bundle writes to.
type Store interface {
	CountTopics(ctx context.Context) (int, error)
	CreateTopic(ctx context.Context, t *models.Topic) error
	CreateConcept(ctx context.Context, c *models.Concept) error
	CreateQuestion(ctx context.Context, q *models.Question) error
}

type LoadResult struct {
	Skipped   bool
	Topics    int
	Concepts  int
	Questions int
}

// Load writes a validated bundle. Nothing is written when content already
// exists. Callers wrap it in a transaction.
func Load(ctx context.Context, st Store, b *Bundle) (*LoadResult, error) {
	n, err := st.CountTopics(ctx)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		log.Printf("[seed] %d topics already present, skipping content", n)
		return &LoadResult{Skipped: true}, nil
	}

	res := &LoadResult{}
	conceptIDs := make(map[string]int64)
	for ti, ts := range b.Topics {
		topic := models.Topic{
			Name:         ts.Name,
			Description:  ts.Description,
			ExamWeight:   ts.ExamWeight,
			DisplayOrder: ti,
		}
		if err := st.CreateTopic(ctx, &topic); err != nil {
			return nil, fmt.Errorf("topic %q: %w", ts.Name, err)
		}
		res.Topics++

		for ci, cs := range ts.Concepts {
			concept := models.Concept{
				TopicID:      topic.ID,
				Name:         cs.Name,
				Description:  cs.Description,
				DisplayOrder: ci,
			}
			if cs.Prerequisite != "" {
				id, ok := conceptIDs[cs.Prerequisite]
				if !ok {
					return nil, fmt.Errorf("concept %q: unknown prerequisite %q", cs.Name, cs.Prerequisite)
				}
				concept.PrerequisiteID = &id
			}
			if err := st.CreateConcept(ctx, &concept); err != nil {
				return nil, fmt.Errorf("concept %q: %w", cs.Name, err)
			}
			conceptIDs[cs.Name] = concept.ID
			res.Concepts++

			for qi, qs := range cs.Questions {
				q := qs.Question(concept.ID)
				if err := st.CreateQuestion(ctx, &q); err != nil {
					return nil, fmt.Errorf("concept %q question %d: %w", cs.Name, qi+1, err)
				}
				res.Questions++
			}
		}
	}

	log.Printf("[seed] loaded %d topics, %d concepts, %d questions", res.Topics, res.Concepts, res.Questions)
	return res, nil
}

//go:embed bundles/default.yaml
var defaultBundle []byte

// Default returns the bundle shipped with the binary.
func Default() (*Bundle, error) {
	return ParseBundle("default.yaml", defaultBundle)
}
