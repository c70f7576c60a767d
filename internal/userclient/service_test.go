package userclient

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"b2g-quiz/internal/httpapi"
	"b2g-quiz/internal/offline"
	offlinesqlite "b2g-quiz/internal/offline/sqlite"
	"b2g-quiz/internal/quiz"
	quizsqlite "b2g-quiz/internal/quiz/sqlite"
	"b2g-quiz/internal/roadmap"
)

func TestParsePositiveLimit(t *testing.T) {
	if got, err := parsePositiveLimit([]string{"results"}, 1, 10); err != nil || got != 10 {
		t.Fatalf("default parsePositiveLimit = (%d, %v), want (10, nil)", got, err)
	}
	if got, err := parsePositiveLimit([]string{"results", "3"}, 1, 10); err != nil || got != 3 {
		t.Fatalf("valid parsePositiveLimit = (%d, %v), want (3, nil)", got, err)
	}
	if _, err := parsePositiveLimit([]string{"results", "0"}, 1, 10); err == nil {
		t.Fatalf("expected validation error for non-positive limit")
	}
}

func TestPromptAnswer(t *testing.T) {
	reader := bufio.NewReader(strings.NewReader(" b \n"))
	var out bytes.Buffer

	index, ok := promptAnswer(reader, &out, 2)
	if !ok || index != 1 {
		t.Fatalf("promptAnswer valid = (%d, %t), want (1, true)", index, ok)
	}

	reader = bufio.NewReader(strings.NewReader("z\n"))
	if _, ok := promptAnswer(reader, &out, 2); ok {
		t.Fatalf("expected out-of-range letter to be rejected")
	}
}

func TestPromptYesNoRetriesUntilValid(t *testing.T) {
	reader := bufio.NewReader(strings.NewReader("maybe\nyes\n"))
	var out bytes.Buffer

	ok, err := promptYesNo(reader, &out, "continue? ")
	if err != nil {
		t.Fatalf("promptYesNo returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected yes result")
	}
	if !strings.Contains(out.String(), "Please answer yes or no.") {
		t.Fatalf("expected retry hint in output, got: %s", out.String())
	}
}

func TestDescribeClientError(t *testing.T) {
	storageErr := &offline.StorageError{Op: "add", Collection: offline.CollectionAttempts, Err: errors.New("disk full")}
	joined := errors.Join(offline.ErrAuthExpired, storageErr)
	if got := describeClientError(joined, "http://x").Error(); !strings.Contains(got, "nothing was saved") {
		t.Fatalf("storage failure must win over auth expiry, got %q", got)
	}

	wrapped := fmt.Errorf("%w: %v", ErrServiceUnavailable, errors.New("dial"))
	if got := describeClientError(wrapped, "http://x").Error(); got != "quiz service unavailable at http://x" {
		t.Fatalf("unexpected message %q", got)
	}
}

type endToEnd struct {
	server  *httptest.Server
	quizzes *quiz.Service
	token   string
}

func newEndToEnd(t *testing.T) endToEnd {
	t.Helper()

	store, err := quizsqlite.NewStore(filepath.Join(t.TempDir(), "quiz.db"))
	if err != nil {
		t.Fatalf("quiz store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	quizzes := quiz.NewService(store, store, nil)
	if _, err := quizzes.SeedDefaults(context.Background()); err != nil {
		t.Fatalf("SeedDefaults failed: %v", err)
	}
	auth := httpapi.NewAuthenticator("e2e-secret")
	token, err := auth.IssueToken("user-1", time.Hour)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}

	server := httptest.NewServer(httpapi.NewRouter(quizzes, roadmap.NewService(store, nil, nil), auth, nil))
	t.Cleanup(server.Close)
	return endToEnd{server: server, quizzes: quizzes, token: token}
}

func newOfflineStore(t *testing.T) *offlinesqlite.Store {
	t.Helper()
	store, err := offlinesqlite.NewStore(filepath.Join(t.TempDir(), "offline.db"))
	if err != nil {
		t.Fatalf("offline store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRunGradesOnlineAttempt(t *testing.T) {
	env := newEndToEnd(t)
	store := newOfflineStore(t)

	input := strings.NewReader("play qz_sql_fundamentals\nb\nb\nd\nb\nd\nexit\n")
	var out bytes.Buffer
	err := Run(context.Background(), input, &out, Config{
		ServerURL: env.server.URL,
		Token:     env.token,
		Store:     store,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !strings.Contains(out.String(), "user=user-1") {
		t.Fatalf("user id not read from token:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "Score: 5/5 (100%)") {
		t.Fatalf("expected graded score in output:\n%s", out.String())
	}
	attempts, err := store.Attempts(context.Background())
	if err != nil || len(attempts) != 0 {
		t.Fatalf("online attempt should not be queued: (%d, %v)", len(attempts), err)
	}
}

func TestRunQueuesOfflineAttemptAndSyncsOnReconnect(t *testing.T) {
	env := newEndToEnd(t)
	store := newOfflineStore(t)

	script := strings.Join([]string{
		"quizzes",
		"offline",
		"play qz_python_basics",
		"b", "c", "a", "z", "z", "z", "b",
		"pending",
		"sync",
		"online",
		"exit",
	}, "\n") + "\n"

	var out bytes.Buffer
	err := Run(context.Background(), strings.NewReader(script), &out, Config{
		ServerURL: env.server.URL,
		Token:     env.token,
		Store:     store,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	output := out.String()
	for _, want := range []string{
		"Python Basics",
		"Saved offline as #1.",
		"Question left unanswered.",
		"#1 qz_python_basics answered=4/5",
		"error: offline; attempts will sync when the connection returns",
	} {
		if !strings.Contains(output, want) {
			t.Fatalf("output missing %q:\n%s", want, output)
		}
	}
	if strings.Contains(output, "Score:") {
		t.Fatalf("offline attempt must not show a score:\n%s", output)
	}

	deadline := time.Now().Add(3 * time.Second)
	var record offline.AttemptRecord
	for {
		record, err = store.Attempt(context.Background(), 1)
		if err == nil && record.Synced {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("attempt not synced after reconnect: %+v (%v)", record, err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	if record.ClientScore != 0 || record.Graded == nil {
		t.Fatalf("unexpected synced record %+v", record)
	}
	if record.Graded.Score != 3 || record.Graded.Total != 5 || record.Graded.Percentage != 60 {
		t.Fatalf("unexpected server grade %+v", record.Graded)
	}

	results, err := env.quizzes.ListResults(context.Background(), "user-1", 10)
	if err != nil || len(results) != 1 || results[0].ResultID != record.ResultID {
		t.Fatalf("server results = (%+v, %v), want exactly the synced attempt", results, err)
	}
}

func TestRunWithoutServerServesNothingUncached(t *testing.T) {
	store := newOfflineStore(t)

	var out bytes.Buffer
	err := Run(context.Background(), strings.NewReader("status\nplay qz_python_basics\nexit\n"), &out, Config{
		ServerURL:   "http://127.0.0.1:1",
		HTTPTimeout: 200 * time.Millisecond,
		Store:       store,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !strings.Contains(out.String(), "offline, 0 attempt(s) waiting to sync") {
		t.Fatalf("expected offline status:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "content unavailable offline") {
		t.Fatalf("expected content unavailable error:\n%s", out.String())
	}
}
