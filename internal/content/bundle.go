// Package content parses and loads seed bundles of topics, concepts and
// questions.
package content

import (
	"encoding/json"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/exam-mentor/backend/internal/models"
	"gopkg.in/yaml.v3"
)

type Bundle struct {
	Topics []TopicSpec `json:"topics" yaml:"topics"`
}

type TopicSpec struct {
	Name        string        `json:"name" yaml:"name"`
	Description string        `json:"description" yaml:"description"`
	ExamWeight  float64       `json:"exam_weight" yaml:"exam_weight"`
	Concepts    []ConceptSpec `json:"concepts" yaml:"concepts"`
}

type ConceptSpec struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	// Prerequisite names an earlier concept in the same bundle.
	Prerequisite string         `json:"prerequisite,omitempty" yaml:"prerequisite,omitempty"`
	Questions    []QuestionSpec `json:"questions" yaml:"questions"`
}

type QuestionSpec struct {
	Text                string            `json:"text" yaml:"text"`
	Options             map[string]string `json:"options" yaml:"options"`
	CorrectOption       string            `json:"correct_option" yaml:"correct_option"`
	Explanation         string            `json:"explanation" yaml:"explanation"`
	Hint                string            `json:"hint,omitempty" yaml:"hint,omitempty"`
	WhyWrong            map[string]string `json:"why_wrong,omitempty" yaml:"why_wrong,omitempty"`
	Difficulty          int               `json:"difficulty" yaml:"difficulty"`
	ExpectedTimeSeconds int               `json:"expected_time_seconds" yaml:"expected_time_seconds"`
}

// Question converts the bundle entry into a storable question for conceptID.
func (q QuestionSpec) Question(conceptID int64) models.Question {
	out := models.Question{
		ConceptID:           conceptID,
		Text:                strings.TrimSpace(q.Text),
		OptionA:             q.Options[models.OptionA],
		OptionB:             q.Options[models.OptionB],
		OptionC:             q.Options[models.OptionC],
		OptionD:             q.Options[models.OptionD],
		CorrectOption:       strings.ToLower(q.CorrectOption),
		Explanation:         q.Explanation,
		WhyWrong:            q.WhyWrong,
		Difficulty:          q.Difficulty,
		ExpectedTimeSeconds: q.ExpectedTimeSeconds,
		IsActive:            true,
	}
	if out.ExpectedTimeSeconds == 0 {
		out.ExpectedTimeSeconds = models.DefaultExpectedTimeSeconds
	}
	if h := strings.TrimSpace(q.Hint); h != "" {
		out.Hint = &h
	}
	return out
}

func (b *Bundle) QuestionCount() int {
	n := 0
	for _, t := range b.Topics {
		for _, c := range t.Concepts {
			n += len(c.Questions)
		}
	}
	return n
}

type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Errors, "; "))
}

// ParseBundle decodes a bundle by file name: .yaml and .yml are read as YAML,
// everything else as JSON. The result is validated.
func ParseBundle(name string, data []byte) (*Bundle, error) {
	var b Bundle
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &b); err != nil {
			return nil, fmt.Errorf("failed to parse YAML bundle: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, fmt.Errorf("failed to parse JSON bundle: %w", err)
		}
	}

	if err := validateBundle(&b); err != nil {
		return nil, err
	}
	return &b, nil
}

func validateBundle(b *Bundle) error {
	var errs []string

	if len(b.Topics) == 0 {
		return &ValidationError{Errors: []string{"no topics in bundle"}}
	}

	topicNames := make(map[string]bool)
	conceptNames := make(map[string]bool)
	for ti, t := range b.Topics {
		tRef := fmt.Sprintf("topic %d", ti+1)
		if strings.TrimSpace(t.Name) == "" {
			errs = append(errs, tRef+": empty name")
		} else if topicNames[t.Name] {
			errs = append(errs, fmt.Sprintf("%s: duplicate name %q", tRef, t.Name))
		}
		topicNames[t.Name] = true

		if t.ExamWeight < 0 || t.ExamWeight > 1 {
			errs = append(errs, fmt.Sprintf("%s: exam_weight %.2f outside [0, 1]", tRef, t.ExamWeight))
		}
		if len(t.Concepts) == 0 {
			errs = append(errs, tRef+": no concepts")
		}

		for ci, c := range t.Concepts {
			cRef := fmt.Sprintf("%s concept %d", tRef, ci+1)
			if strings.TrimSpace(c.Name) == "" {
				errs = append(errs, cRef+": empty name")
			}
			if c.Prerequisite != "" && !conceptNames[c.Prerequisite] {
				errs = append(errs, fmt.Sprintf("%s: prerequisite %q must name an earlier concept", cRef, c.Prerequisite))
			}
			if conceptNames[c.Name] {
				errs = append(errs, fmt.Sprintf("%s: duplicate name %q", cRef, c.Name))
			}
			conceptNames[c.Name] = true

			if len(c.Questions) == 0 {
				log.Printf("WARNING: %s (%s) has no questions", cRef, c.Name)
			}
			for qi, q := range c.Questions {
				errs = append(errs, validateQuestion(fmt.Sprintf("%s question %d", cRef, qi+1), q)...)
			}
			checkDuplicateText(c.Name, c.Questions)
		}
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

func validateQuestion(ref string, q QuestionSpec) []string {
	var errs []string

	if strings.TrimSpace(q.Text) == "" {
		errs = append(errs, ref+": empty text")
	}
	if len(q.Options) != 4 {
		errs = append(errs, fmt.Sprintf("%s: expected 4 options, got %d", ref, len(q.Options)))
	}
	for key, text := range q.Options {
		if !models.ValidOptions[key] {
			errs = append(errs, fmt.Sprintf("%s: unknown option %q", ref, key))
		} else if strings.TrimSpace(text) == "" {
			errs = append(errs, fmt.Sprintf("%s: option %s is empty", ref, key))
		}
	}
	if !models.ValidOptions[strings.ToLower(q.CorrectOption)] {
		errs = append(errs, fmt.Sprintf("%s: invalid correct_option %q", ref, q.CorrectOption))
	}
	if q.Difficulty < 1 || q.Difficulty > 5 {
		errs = append(errs, fmt.Sprintf("%s: difficulty %d outside [1, 5]", ref, q.Difficulty))
	}
	if q.ExpectedTimeSeconds < 0 {
		errs = append(errs, fmt.Sprintf("%s: expected_time_seconds must be positive", ref))
	}
	if q.Explanation == "" {
		errs = append(errs, ref+": empty explanation")
	}
	for key := range q.WhyWrong {
		if key == strings.ToLower(q.CorrectOption) {
			errs = append(errs, fmt.Sprintf("%s: why_wrong given for the correct option %q", ref, key))
		}
	}
	return errs
}

// checkDuplicateText warns when two questions of a concept share most of
// their wording.
func checkDuplicateText(concept string, questions []QuestionSpec) {
	if len(questions) < 2 {
		return
	}

	tokenSets := make([]map[string]bool, len(questions))
	for i, q := range questions {
		tokenSets[i] = tokenize(q.Text)
	}

	for i := 0; i < len(questions); i++ {
		for j := i + 1; j < len(questions); j++ {
			overlap := jaccardSimilarity(tokenSets[i], tokenSets[j])
			if overlap > 0.80 {
				log.Printf("WARNING: %s questions %d and %d have %.0f%% word overlap", concept, i+1, j+1, overlap*100)
			}
		}
	}
}

func tokenize(s string) map[string]bool {
	tokens := make(map[string]bool)
	for _, word := range strings.Fields(strings.ToLower(s)) {
		if len(word) > 3 {
			tokens[word] = true
		}
	}
	return tokens
}

func jaccardSimilarity(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for w := range a {
		if b[w] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}
