package quiz

import (
	"crypto/sha1"
	"encoding/hex"
	"html"
	"math"
	"math/rand"
	"strings"
	"time"

	"b2g-quiz/internal/opentdb"
)

type Difficulty string

const (
	DifficultyBeginner Difficulty = "beginner"
	DifficultyMedium   Difficulty = "medium"
	DifficultyAdvanced Difficulty = "advanced"
)

func ParseDifficulty(value string) (Difficulty, bool) {
	switch Difficulty(strings.ToLower(strings.TrimSpace(value))) {
	case DifficultyBeginner:
		return DifficultyBeginner, true
	case DifficultyMedium:
		return DifficultyMedium, true
	case DifficultyAdvanced:
		return DifficultyAdvanced, true
	}
	return "", false
}

// PublicQuestion is the only question shape that leaves the server. It has no
// field able to carry the answer key.
type PublicQuestion struct {
	QuestionID string   `json:"id"`
	Question   string   `json:"question"`
	Options    []string `json:"options"`
}

type Question struct {
	PublicQuestion
	CorrectAnswer string `json:"-"`
}

type Definition struct {
	QuizID        string
	Title         string
	SkillCategory string
	Difficulty    Difficulty
	Questions     []Question
	CreatedAt     time.Time
}

type Summary struct {
	QuizID        string     `json:"id"`
	Title         string     `json:"title"`
	SkillCategory string     `json:"skill_category"`
	Difficulty    Difficulty `json:"difficulty"`
	QuestionCount int        `json:"question_count"`
	CreatedAt     time.Time  `json:"created_at"`
}

type PublicQuiz struct {
	Summary
	Questions []PublicQuestion `json:"questions"`
}

// Answer is one submitted selection. A nil Selected means the question was
// left unanswered.
type Answer struct {
	QuestionID string  `json:"question_id"`
	Selected   *string `json:"selected_option"`
}

type GradedAnswer struct {
	QuestionID string  `json:"question_id"`
	Selected   *string `json:"selected"`
	Correct    string  `json:"correct,omitempty"`
	IsCorrect  bool    `json:"is_correct"`
}

type GradedResult struct {
	ResultID    string         `json:"id"`
	QuizID      string         `json:"quiz_id"`
	Score       int            `json:"score"`
	Total       int            `json:"total"`
	Percentage  int            `json:"percentage"`
	Answers     []GradedAnswer `json:"graded_answers"`
	CompletedAt time.Time      `json:"completed_at"`
}

// Submission is one attempt as received by the grading side, either from
// the single-submit path or as an element of an offline batch.
type Submission struct {
	QuizID         string
	Answers        []Answer
	ClientScore    int
	Total          int
	CompletedAt    time.Time
	IdempotencyKey string
}

type Filter struct {
	Category   string
	Difficulty Difficulty
	Limit      int
}

// Matches applies the list filter: category is a case-insensitive substring
// match and difficulty must match exactly.
func (f Filter) Matches(summary Summary) bool {
	if category := strings.TrimSpace(f.Category); category != "" {
		if !strings.Contains(strings.ToLower(summary.SkillCategory), strings.ToLower(category)) {
			return false
		}
	}
	if f.Difficulty != "" && summary.Difficulty != f.Difficulty {
		return false
	}
	return true
}

func Selected(option string) *string {
	return &option
}

// NormalizeOption is the single normalization applied before comparing a
// selection with the answer key: surrounding whitespace is dropped, case is kept.
func NormalizeOption(option string) string {
	return strings.TrimSpace(option)
}

func normalizeSelection(selected *string) *string {
	if selected == nil {
		return nil
	}
	value := NormalizeOption(*selected)
	if value == "" {
		return nil
	}
	return &value
}

// Grade scores answers against the quiz in quiz order. Questions without an
// answer count as incorrect and stay in the total.
func Grade(definition Definition, answers []Answer) GradedResult {
	submitted := make(map[string]*string, len(answers))
	for _, answer := range answers {
		if _, seen := submitted[answer.QuestionID]; seen {
			continue
		}
		submitted[answer.QuestionID] = answer.Selected
	}

	score := 0
	graded := make([]GradedAnswer, 0, len(definition.Questions))
	for _, question := range definition.Questions {
		selected := normalizeSelection(submitted[question.QuestionID])
		correct := NormalizeOption(question.CorrectAnswer)
		isCorrect := selected != nil && *selected == correct
		if isCorrect {
			score++
		}
		graded = append(graded, GradedAnswer{
			QuestionID: question.QuestionID,
			Selected:   selected,
			Correct:    correct,
			IsCorrect:  isCorrect,
		})
	}

	total := len(definition.Questions)
	return GradedResult{
		QuizID:     definition.QuizID,
		Score:      score,
		Total:      total,
		Percentage: Percentage(score, total),
		Answers:    graded,
	}
}

// WithoutAnswerKey returns a copy of the result with every correct option
// cleared. Scores and per-question outcomes are kept.
func (r GradedResult) WithoutAnswerKey() GradedResult {
	answers := make([]GradedAnswer, len(r.Answers))
	copy(answers, r.Answers)
	for idx := range answers {
		answers[idx].Correct = ""
	}
	r.Answers = answers
	return r
}

func Percentage(score, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(score) / float64(total)))
}

func (d Definition) Summary() Summary {
	return Summary{
		QuizID:        d.QuizID,
		Title:         d.Title,
		SkillCategory: d.SkillCategory,
		Difficulty:    d.Difficulty,
		QuestionCount: len(d.Questions),
		CreatedAt:     d.CreatedAt,
	}
}

// ToPublic drops the answer key. Options are copied so the public value never
// aliases server state.
func (d Definition) ToPublic() PublicQuiz {
	return PublicQuiz{
		Summary:   d.Summary(),
		Questions: ToPublicQuestions(d.Questions),
	}
}

func ToPublicQuestions(questions []Question) []PublicQuestion {
	public := make([]PublicQuestion, 0, len(questions))
	for _, question := range questions {
		public = append(public, PublicQuestion{
			QuestionID: question.QuestionID,
			Question:   question.Question,
			Options:    append([]string(nil), question.Options...),
		})
	}
	return public
}

func MakeQuestionID(question Question) string {
	var keyBuilder strings.Builder
	keyBuilder.WriteString(question.Question)
	for _, option := range question.Options {
		keyBuilder.WriteString("|")
		keyBuilder.WriteString(option)
	}

	hash := sha1.Sum([]byte(keyBuilder.String()))
	return "q_" + hex.EncodeToString(hash[:6])
}

// BuildDefinition turns OpenTriviaDB questions into a quiz. Category and
// difficulty are taken from the first question.
func BuildDefinition(title string, raw []opentdb.RawQuestion) Definition {
	questions := make([]Question, 0, len(raw))
	for _, item := range raw {
		question := buildQuestion(item)
		question.QuestionID = MakeQuestionID(question)
		questions = append(questions, question)
	}

	definition := Definition{
		Title:      strings.TrimSpace(title),
		Difficulty: DifficultyBeginner,
		Questions:  questions,
	}
	if len(raw) > 0 {
		definition.SkillCategory = html.UnescapeString(raw[0].Category)
		definition.Difficulty = difficultyFromOpenTDB(raw[0].Difficulty)
	}
	if definition.SkillCategory == "" {
		definition.SkillCategory = "general"
	}
	if definition.Title == "" {
		definition.Title = "Trivia: " + definition.SkillCategory
	}
	return definition
}

func difficultyFromOpenTDB(value string) Difficulty {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "medium":
		return DifficultyMedium
	case "hard":
		return DifficultyAdvanced
	default:
		return DifficultyBeginner
	}
}

func buildQuestion(raw opentdb.RawQuestion) Question {
	options := make([]string, 0, len(raw.IncorrectAnswers)+1)
	for _, incorrect := range raw.IncorrectAnswers {
		options = append(options, html.UnescapeString(incorrect))
	}
	correct := html.UnescapeString(raw.CorrectAnswer)
	options = append(options, correct)

	rand.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})

	return Question{
		PublicQuestion: PublicQuestion{
			Question: html.UnescapeString(raw.Question),
			Options:  options,
		},
		CorrectAnswer: correct,
	}
}
