package quiz

import (
	"encoding/json"
	"strings"
	"testing"

	"b2g-quiz/internal/opentdb"
)

func fiveQuestionQuiz() Definition {
	return Definition{
		QuizID:        "Q1",
		Title:         "Five",
		SkillCategory: "Go",
		Difficulty:    DifficultyBeginner,
		Questions: []Question{
			seedQuestion("1", "one?", []string{"a", "b"}, "a"),
			seedQuestion("2", "two?", []string{"a", "b"}, "b"),
			seedQuestion("3", "three?", []string{"a", "b"}, "a"),
			seedQuestion("4", "four?", []string{"a", "b"}, "b"),
			seedQuestion("5", "five?", []string{"a", "b"}, "a"),
		},
	}
}

func TestGradeThreeOfFive(t *testing.T) {
	answers := []Answer{
		{QuestionID: "1", Selected: Selected("a")},
		{QuestionID: "2", Selected: Selected("b")},
		{QuestionID: "3", Selected: Selected("a")},
		{QuestionID: "4", Selected: Selected("a")},
		{QuestionID: "5", Selected: Selected("b")},
	}

	result := Grade(fiveQuestionQuiz(), answers)
	if result.Score != 3 || result.Total != 5 || result.Percentage != 60 {
		t.Fatalf("unexpected grade: score=%d total=%d percentage=%d", result.Score, result.Total, result.Percentage)
	}
	if len(result.Answers) != 5 {
		t.Fatalf("expected a verdict per question, got %d", len(result.Answers))
	}
	if !result.Answers[0].IsCorrect || result.Answers[3].IsCorrect {
		t.Fatalf("unexpected per-question verdicts: %+v", result.Answers)
	}
}

func TestGradeAllCorrectIsHundredPercent(t *testing.T) {
	definition := fiveQuestionQuiz()
	answers := make([]Answer, 0, len(definition.Questions))
	for _, question := range definition.Questions {
		answers = append(answers, Answer{QuestionID: question.QuestionID, Selected: Selected(question.CorrectAnswer)})
	}

	result := Grade(definition, answers)
	if result.Percentage != 100 || result.Score != 5 {
		t.Fatalf("expected 100%%, got score=%d percentage=%d", result.Score, result.Percentage)
	}
}

func TestGradeNothingAnsweredIsZeroPercent(t *testing.T) {
	result := Grade(fiveQuestionQuiz(), nil)
	if result.Percentage != 0 || result.Score != 0 || result.Total != 5 {
		t.Fatalf("unexpected grade for empty answers: %+v", result)
	}
	for _, answer := range result.Answers {
		if answer.IsCorrect || answer.Selected != nil {
			t.Fatalf("unanswered question graded as answered: %+v", answer)
		}
	}
}

func TestGradeUnansweredStaysInTotal(t *testing.T) {
	answers := []Answer{
		{QuestionID: "1", Selected: Selected("a")},
		{QuestionID: "2", Selected: nil},
		{QuestionID: "3", Selected: Selected("   ")},
	}

	result := Grade(fiveQuestionQuiz(), answers)
	if result.Total != 5 || result.Score != 1 || result.Percentage != 20 {
		t.Fatalf("unexpected grade: %+v", result)
	}
}

func TestGradeZeroQuestionQuiz(t *testing.T) {
	result := Grade(Definition{QuizID: "empty"}, []Answer{{QuestionID: "x", Selected: Selected("a")}})
	if result.Total != 0 || result.Percentage != 0 || result.Score != 0 {
		t.Fatalf("unexpected grade for empty quiz: %+v", result)
	}
}

func TestGradeTrimsButKeepsCase(t *testing.T) {
	definition := Definition{
		QuizID:    "case",
		Questions: []Question{seedQuestion("1", "?", []string{"SELECT", "select"}, "SELECT")},
	}

	if got := Grade(definition, []Answer{{QuestionID: "1", Selected: Selected("  SELECT ")}}); got.Score != 1 {
		t.Fatalf("expected surrounding whitespace to be ignored, got %+v", got)
	}
	if got := Grade(definition, []Answer{{QuestionID: "1", Selected: Selected("select")}}); got.Score != 0 {
		t.Fatalf("expected case-sensitive comparison, got %+v", got)
	}
}

func TestGradeFirstAnswerForQuestionWins(t *testing.T) {
	answers := []Answer{
		{QuestionID: "1", Selected: Selected("b")},
		{QuestionID: "1", Selected: Selected("a")},
	}
	if got := Grade(fiveQuestionQuiz(), answers); got.Score != 0 {
		t.Fatalf("expected duplicate answers to be ignored, got score %d", got.Score)
	}
}

func TestPercentageRounds(t *testing.T) {
	cases := map[[2]int]int{
		{1, 3}: 33,
		{2, 3}: 67,
		{1, 8}: 13,
		{0, 0}: 0,
	}
	for input, want := range cases {
		if got := Percentage(input[0], input[1]); got != want {
			t.Fatalf("Percentage(%d, %d) = %d, want %d", input[0], input[1], got, want)
		}
	}
}

func TestToPublicNeverSerializesAnswerKey(t *testing.T) {
	public := fiveQuestionQuiz().ToPublic()
	encoded, err := json.Marshal(public)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(encoded), "correct") {
		t.Fatalf("public quiz leaks answer key: %s", encoded)
	}
	if public.QuestionCount != 5 || len(public.Questions) != 5 {
		t.Fatalf("unexpected public quiz shape: %+v", public)
	}
}

func TestWithoutAnswerKeyKeepsScore(t *testing.T) {
	result := Grade(fiveQuestionQuiz(), []Answer{
		{QuestionID: "1", Selected: Selected("a")},
		{QuestionID: "2", Selected: Selected("a")},
	})
	stripped := result.WithoutAnswerKey()

	if stripped.Score != result.Score || stripped.Total != 5 || stripped.Percentage != result.Percentage {
		t.Fatalf("score changed: %+v", stripped)
	}
	if !stripped.Answers[0].IsCorrect || stripped.Answers[1].IsCorrect {
		t.Fatalf("per-question outcome changed: %+v", stripped.Answers)
	}
	for _, answer := range stripped.Answers {
		if answer.Correct != "" {
			t.Fatalf("answer key kept for %s: %q", answer.QuestionID, answer.Correct)
		}
	}
	if result.Answers[1].Correct != "b" {
		t.Fatalf("original result was modified: %+v", result.Answers[1])
	}

	encoded, err := json.Marshal(stripped)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(encoded), `"correct"`) {
		t.Fatalf("stripped result still serializes an answer key: %s", encoded)
	}
}

func TestFilterMatches(t *testing.T) {
	summary := Summary{SkillCategory: "JavaScript", Difficulty: DifficultyBeginner}
	if !(Filter{Category: "script"}).Matches(summary) {
		t.Fatalf("expected case-insensitive substring category match")
	}
	if (Filter{Difficulty: DifficultyAdvanced}).Matches(summary) {
		t.Fatalf("expected difficulty mismatch to filter out")
	}
	if !(Filter{}).Matches(summary) {
		t.Fatalf("expected empty filter to match everything")
	}
}

func TestBuildDefinitionUnescapesAndAssignsID(t *testing.T) {
	raw := []opentdb.RawQuestion{
		{
			Category:         "Science &amp; Nature",
			Difficulty:       "hard",
			Question:         "2 &amp; 2 = ?",
			CorrectAnswer:    "4 &lt; 5",
			IncorrectAnswers: []string{"1", "2", "3"},
		},
	}

	definition := BuildDefinition("", raw)
	if len(definition.Questions) != 1 {
		t.Fatalf("expected 1 question, got %d", len(definition.Questions))
	}
	if definition.Difficulty != DifficultyAdvanced {
		t.Fatalf("difficulty = %q, want advanced", definition.Difficulty)
	}
	if definition.Title != "Trivia: Science & Nature" {
		t.Fatalf("unexpected title %q", definition.Title)
	}

	item := definition.Questions[0]
	if item.Question != "2 & 2 = ?" {
		t.Fatalf("question not unescaped, got %q", item.Question)
	}
	if !strings.HasPrefix(item.QuestionID, "q_") || len(item.QuestionID) != 14 {
		t.Fatalf("unexpected question id format: %q", item.QuestionID)
	}
	if item.CorrectAnswer != "4 < 5" {
		t.Fatalf("correct answer not unescaped: %q", item.CorrectAnswer)
	}

	foundCorrectOption := false
	for _, option := range item.Options {
		if option == item.CorrectAnswer {
			foundCorrectOption = true
			break
		}
	}
	if !foundCorrectOption {
		t.Fatalf("correct option text not found in options: %+v", item.Options)
	}
}

func TestMakeQuestionIDDiffersWhenOptionOrderDiffers(t *testing.T) {
	q1 := seedQuestion("", "Ordering matters", []string{"One", "Two"}, "One")
	q2 := seedQuestion("", "Ordering matters", []string{"Two", "One"}, "One")

	if MakeQuestionID(q1) == MakeQuestionID(q2) {
		t.Fatalf("expected different IDs for different option ordering")
	}
}

func TestParseDifficulty(t *testing.T) {
	if got, ok := ParseDifficulty(" Medium "); !ok || got != DifficultyMedium {
		t.Fatalf("ParseDifficulty(Medium) = (%q, %t)", got, ok)
	}
	if _, ok := ParseDifficulty("expert"); ok {
		t.Fatalf("expected unknown difficulty to be rejected")
	}
}
