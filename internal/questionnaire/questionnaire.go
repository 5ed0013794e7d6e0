// Package questionnaire defines the per-day question sets and the rules that decide
// when a day's answers are complete.
package questionnaire

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mycelian/nurture-tracker/internal/model"
)

//go:embed default.yaml
var defaultYAML []byte

// Day is one stage of the script.
type Day struct {
	Title       string   `yaml:"title" json:"title"`
	Description string   `yaml:"description" json:"description"`
	Questions   []string `yaml:"questions" json:"questions"`
}

// Questionnaire is the full script, Days[0] being day 1.
type Questionnaire struct {
	Days []Day `yaml:"days" json:"days"`
}

// Default returns the embedded questionnaire.
func Default() (*Questionnaire, error) {
	return Parse(defaultYAML)
}

// Load reads a questionnaire from path; an empty path yields the embedded default.
func Load(path string) (*Questionnaire, error) {
	if path == "" {
		return Default()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read questionnaire: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML and checks the fixed shape of 7 days with 9 questions each.
func Parse(b []byte) (*Questionnaire, error) {
	var q Questionnaire
	if err := yaml.Unmarshal(b, &q); err != nil {
		return nil, fmt.Errorf("decode questionnaire: %w", err)
	}
	if len(q.Days) != model.NurtureDays {
		return nil, fmt.Errorf("%w: questionnaire needs %d days, got %d", model.ErrValidation, model.NurtureDays, len(q.Days))
	}
	for i, d := range q.Days {
		if len(d.Questions) != model.QuestionsPerDay {
			return nil, fmt.Errorf("%w: day %d needs %d questions, got %d", model.ErrValidation, i+1, model.QuestionsPerDay, len(d.Questions))
		}
		for j, text := range d.Questions {
			if strings.TrimSpace(text) == "" {
				return nil, fmt.Errorf("%w: day %d question %d is empty", model.ErrValidation, i+1, j)
			}
		}
	}
	return &q, nil
}

// Day returns the definition of day (1-based).
func (q *Questionnaire) Day(day int) (Day, bool) {
	if day < 1 || day > len(q.Days) {
		return Day{}, false
	}
	return q.Days[day-1], true
}

// AnswerKey is the storage key of one answer: "day_<D>_q_<Q>" with Q zero-based.
func AnswerKey(day, question int) string {
	return "day_" + strconv.Itoa(day) + "_q_" + strconv.Itoa(question)
}

// ValidateQuestion rejects coordinates outside the fixed grid.
func ValidateQuestion(day, question int) error {
	if day < 1 || day > model.NurtureDays {
		return fmt.Errorf("%w: day must be between 1 and %d", model.ErrValidation, model.NurtureDays)
	}
	if question < 0 || question >= model.QuestionsPerDay {
		return fmt.Errorf("%w: question index must be between 0 and %d", model.ErrValidation, model.QuestionsPerDay-1)
	}
	return nil
}

// MissingQuestions lists question indexes of day whose trimmed answer is empty.
func MissingQuestions(answers model.Answers, day int) []int {
	var missing []int
	for q := 0; q < model.QuestionsPerDay; q++ {
		if strings.TrimSpace(answers[AnswerKey(day, q)]) == "" {
			missing = append(missing, q)
		}
	}
	return missing
}

// IsDayComplete holds when every question of day has a non-blank answer.
func IsDayComplete(answers model.Answers, day int) bool {
	return len(MissingQuestions(answers, day)) == 0
}

// DayProgress is the answered share of day's questions as a percentage.
func DayProgress(answers model.Answers, day int) float64 {
	answered := model.QuestionsPerDay - len(MissingQuestions(answers, day))
	return float64(answered) / model.QuestionsPerDay * 100
}
