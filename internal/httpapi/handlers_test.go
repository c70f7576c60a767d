package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"b2g-quiz/internal/quiz"
)

func TestParseIntParam(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/quiz/list", nil)
	if got, err := parseIntParam(req, "limit", 10); err != nil || got != 10 {
		t.Fatalf("default parseIntParam = (%d, %v), want (10, nil)", got, err)
	}

	req = httptest.NewRequest(http.MethodGet, "/quiz/list?limit=25", nil)
	if got, err := parseIntParam(req, "limit", 10); err != nil || got != 25 {
		t.Fatalf("valid parseIntParam = (%d, %v), want (25, nil)", got, err)
	}

	req = httptest.NewRequest(http.MethodGet, "/quiz/list?limit=0", nil)
	if _, err := parseIntParam(req, "limit", 10); err == nil {
		t.Fatalf("expected error for non-positive limit")
	}
}

func TestDecodeBodyReportsJSONFieldNames(t *testing.T) {
	api := NewAPI(nil, nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/quiz/submit", strings.NewReader(`{"answers":[]}`))
	var request submitRequest
	err := api.decodeBody(req, &request)
	if err == nil || err.Error() != "quiz_id is required" {
		t.Fatalf("decodeBody error = %v, want quiz_id is required", err)
	}

	req = httptest.NewRequest(http.MethodPost, "/quiz/submit", strings.NewReader(`{`))
	if err := api.decodeBody(req, &request); err == nil || err.Error() != "invalid JSON payload" {
		t.Fatalf("decodeBody error = %v, want invalid JSON payload", err)
	}

	req = httptest.NewRequest(http.MethodPost, "/quiz/submit", http.NoBody)
	if err := api.decodeBody(req, &request); err == nil || err.Error() != "request body is required" {
		t.Fatalf("decodeBody error = %v, want request body is required", err)
	}
}

func TestSubmitRequestSubmission(t *testing.T) {
	completedAt := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	request := submitRequest{
		QuizID:      "Q1",
		Answers:     []quiz.Answer{{QuestionID: "1", Selected: quiz.Selected("a")}, {QuestionID: "2"}},
		CompletedAt: &completedAt,
	}

	submission := request.submission()
	if submission.QuizID != "Q1" || !submission.CompletedAt.Equal(completedAt) || submission.Total != 2 {
		t.Fatalf("unexpected submission %+v", submission)
	}

	request.CompletedAt = nil
	if submission := request.submission(); !submission.CompletedAt.IsZero() {
		t.Fatalf("missing completed_at should stay zero, got %v", submission.CompletedAt)
	}
}

func TestAuthenticatorVerify(t *testing.T) {
	auth := NewAuthenticator(testSecret)

	token, err := auth.IssueToken("user-1", time.Hour)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}
	if userID, err := auth.Verify(token); err != nil || userID != "user-1" {
		t.Fatalf("Verify = (%q, %v), want (user-1, nil)", userID, err)
	}

	expired, _ := auth.IssueToken("user-1", -time.Minute)
	if _, err := auth.Verify(expired); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}

	other := NewAuthenticator("other-secret")
	foreign, _ := other.IssueToken("user-1", time.Hour)
	if _, err := auth.Verify(foreign); err == nil {
		t.Fatalf("expected token signed with another secret to be rejected")
	}

	legacy := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: "user-7",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := legacy.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign legacy token: %v", err)
	}
	if userID, err := auth.Verify(signed); err != nil || userID != "user-7" {
		t.Fatalf("Verify legacy = (%q, %v), want (user-7, nil)", userID, err)
	}

	hs512 := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"}})
	signed, _ = hs512.SignedString([]byte(testSecret))
	if _, err := auth.Verify(signed); err == nil {
		t.Fatalf("expected non-HS256 token to be rejected")
	}

	if _, err := NewAuthenticator("").Verify(token); err == nil {
		t.Fatalf("expected verification without a secret to fail")
	}
}
