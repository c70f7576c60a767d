package cli

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"b2g-quiz/internal/opentdb"
	"b2g-quiz/internal/quiz"
	quizsqlite "b2g-quiz/internal/quiz/sqlite"
)

func newCatalogue(t *testing.T) *quiz.Service {
	t.Helper()
	store, err := quizsqlite.NewStore(filepath.Join(t.TempDir(), "quiz.db"))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return quiz.NewService(store, store, nil)
}

func TestRunSeedsListsAndShows(t *testing.T) {
	catalogue := newCatalogue(t)

	var out bytes.Buffer
	input := strings.NewReader("seed\nlist sql\nshow qz_sql_fundamentals\nshow missing\nexit\n")
	if err := Run(context.Background(), input, &out, catalogue, nil); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	output := out.String()
	for _, want := range []string{
		"Seeded ",
		"qz_sql_fundamentals",
		"Which SQL command retrieves data?",
		"B. SELECT",
		"error: quiz not found",
	} {
		if !strings.Contains(output, want) {
			t.Fatalf("output missing %q:\n%s", want, output)
		}
	}
}

func TestRunImportsFetchedQuestions(t *testing.T) {
	catalogue := newCatalogue(t)

	var requested int
	fetcher := func(_ context.Context, amount int) ([]opentdb.RawQuestion, error) {
		requested = amount
		return []opentdb.RawQuestion{
			{
				Type:             "multiple",
				Difficulty:       "medium",
				Category:         "Science",
				Question:         "What is H2O?",
				CorrectAnswer:    "Water",
				IncorrectAnswers: []string{"Salt", "Iron", "Air"},
			},
		}, nil
	}

	var out bytes.Buffer
	if err := Run(context.Background(), strings.NewReader("import 3 Lab Basics\nlist science\n"), &out, catalogue, fetcher); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if requested != 3 {
		t.Fatalf("requested amount = %d, want 3", requested)
	}
	if !strings.Contains(out.String(), "Published ") || !strings.Contains(out.String(), "Lab Basics") {
		t.Fatalf("import not reported:\n%s", out.String())
	}
}

func TestRunReportsFetcherFailure(t *testing.T) {
	catalogue := newCatalogue(t)
	fetcher := func(context.Context, int) ([]opentdb.RawQuestion, error) {
		return nil, errors.New("trivia api down")
	}

	var out bytes.Buffer
	if err := Run(context.Background(), strings.NewReader("import\nimport 0\n"), &out, catalogue, fetcher); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !strings.Contains(out.String(), "error: trivia api down") {
		t.Fatalf("expected fetch error:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "error: amount must be a positive integer") {
		t.Fatalf("expected amount validation:\n%s", out.String())
	}
}
