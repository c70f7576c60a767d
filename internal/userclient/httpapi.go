package userclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"b2g-quiz/internal/offline"
	"b2g-quiz/internal/quiz"
	"b2g-quiz/internal/roadmap"
)

var ErrServiceUnavailable = errors.New("quiz service unavailable")

type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if strings.TrimSpace(e.Message) == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return e.Message
}

// HTTPClient talks to the quiz service. It satisfies the content, submit and
// batch interfaces of package offline.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

var (
	_ offline.ContentSource  = (*HTTPClient)(nil)
	_ offline.Submitter      = (*HTTPClient)(nil)
	_ offline.BatchSubmitter = (*HTTPClient)(nil)
)

type quizListResponse struct {
	Quizzes []quiz.Summary `json:"quizzes"`
}

// Questions decode into quiz.PublicQuestion, so an answer key sent by a
// misbehaving server is dropped here.
type quizResponse struct {
	Quiz quiz.PublicQuiz `json:"quiz"`
}

type roadmapResponse struct {
	Roadmap roadmap.Plan `json:"roadmap"`
}

type submitRequest struct {
	QuizID         string        `json:"quiz_id"`
	Answers        []quiz.Answer `json:"answers"`
	IdempotencyKey string        `json:"idempotency_key"`
	CompletedAt    time.Time     `json:"completed_at"`
}

type submitResponse struct {
	Result quiz.GradedResult `json:"result"`
}

type offlineResult struct {
	QuizID         string        `json:"quiz_id"`
	Answers        []quiz.Answer `json:"answers"`
	Score          int           `json:"score"`
	TotalQuestions int           `json:"total_questions"`
	CompletedAt    time.Time     `json:"completed_at"`
	IdempotencyKey string        `json:"idempotency_key"`
}

type syncRequest struct {
	OfflineResults []offlineResult `json:"offline_results"`
}

type syncResult struct {
	IdempotencyKey string             `json:"idempotency_key"`
	ResultID       string             `json:"result_id"`
	Result         *quiz.GradedResult `json:"result"`
}

type syncRejection struct {
	IdempotencyKey string `json:"idempotency_key"`
	Error          string `json:"error"`
}

type syncResponse struct {
	Results  []syncResult    `json:"results"`
	Rejected []syncRejection `json:"rejected"`
}

type resultsResponse struct {
	Results []quiz.GradedResult `json:"results"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewHTTPClient(baseURL, token string, httpClient *http.Client) *HTTPClient {
	baseURL = strings.TrimSpace(baseURL)
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = defaultServer
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &HTTPClient{
		baseURL:    baseURL,
		token:      strings.TrimSpace(token),
		httpClient: httpClient,
	}
}

func (c *HTTPClient) Health(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "/healthz", nil, nil)
}

func (c *HTTPClient) ListQuizzes(ctx context.Context, filter quiz.Filter) ([]quiz.Summary, error) {
	query := url.Values{}
	if category := strings.TrimSpace(filter.Category); category != "" {
		query.Set("category", category)
	}
	if filter.Difficulty != "" {
		query.Set("difficulty", string(filter.Difficulty))
	}
	if filter.Limit > 0 {
		query.Set("limit", strconv.Itoa(filter.Limit))
	}

	path := "/quiz/list"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var payload quizListResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Quizzes, nil
}

func (c *HTTPClient) GetQuiz(ctx context.Context, quizID string) (quiz.PublicQuiz, error) {
	if strings.TrimSpace(quizID) == "" {
		return quiz.PublicQuiz{}, errors.New("quiz_id is required")
	}

	var payload quizResponse
	if err := c.doJSON(ctx, http.MethodGet, "/quiz/"+url.PathEscape(quizID), nil, &payload); err != nil {
		return quiz.PublicQuiz{}, err
	}
	return payload.Quiz, nil
}

func (c *HTTPClient) GetPlan(ctx context.Context, planID string) (roadmap.Plan, error) {
	if strings.TrimSpace(planID) == "" {
		return roadmap.Plan{}, errors.New("plan id is required")
	}

	var payload roadmapResponse
	if err := c.doJSON(ctx, http.MethodGet, "/roadmap/"+url.PathEscape(planID), nil, &payload); err != nil {
		return roadmap.Plan{}, err
	}
	return payload.Roadmap, nil
}

func (c *HTTPClient) ListResults(ctx context.Context, limit int) ([]quiz.GradedResult, error) {
	path := "/quiz/user/my-results"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	var payload resultsResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Results, nil
}

func (c *HTTPClient) SubmitAttempt(ctx context.Context, record offline.AttemptRecord) (quiz.GradedResult, error) {
	request := submitRequest{
		QuizID:         record.QuizID,
		Answers:        record.Answers,
		IdempotencyKey: record.ClientKey,
		CompletedAt:    record.CompletedAt,
	}

	var payload submitResponse
	if err := c.doJSON(ctx, http.MethodPost, "/quiz/submit", request, &payload); err != nil {
		return quiz.GradedResult{}, err
	}
	return payload.Result, nil
}

func (c *HTTPClient) SubmitBatch(ctx context.Context, records []offline.AttemptRecord) (offline.BatchResponse, error) {
	request := syncRequest{OfflineResults: make([]offlineResult, 0, len(records))}
	for _, record := range records {
		request.OfflineResults = append(request.OfflineResults, offlineResult{
			QuizID:         record.QuizID,
			Answers:        record.Answers,
			Score:          record.ClientScore,
			TotalQuestions: record.Total,
			CompletedAt:    record.CompletedAt,
			IdempotencyKey: record.ClientKey,
		})
	}

	var payload syncResponse
	if err := c.doJSON(ctx, http.MethodPost, "/quiz/sync", request, &payload); err != nil {
		return offline.BatchResponse{}, err
	}

	response := offline.BatchResponse{
		Acks:       make([]offline.BatchAck, 0, len(payload.Results)),
		Rejections: make([]offline.BatchRejection, 0, len(payload.Rejected)),
	}
	for _, item := range payload.Results {
		response.Acks = append(response.Acks, offline.BatchAck{
			ClientKey: item.IdempotencyKey,
			ResultID:  item.ResultID,
			Result:    item.Result,
		})
	}
	for _, item := range payload.Rejected {
		response.Rejections = append(response.Rejections, offline.BatchRejection{
			ClientKey: item.IdempotencyKey,
			Reason:    item.Error,
		})
	}
	return response, nil
}

// doJSON maps failures onto the offline error set: 401 is ErrAuthExpired and
// everything else that is not a 2xx is a *offline.SubmissionError.
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, requestBody any, responseBody any) error {
	fullURL := c.baseURL + path

	var body io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return err
		}
		body = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return err
	}
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		request.Header.Set("Authorization", "Bearer "+c.token)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return &offline.SubmissionError{Err: fmt.Errorf("%w: %v", ErrServiceUnavailable, err)}
	}
	defer response.Body.Close()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		apiErr := APIError{StatusCode: response.StatusCode}
		var payload errorResponse
		if err := json.NewDecoder(response.Body).Decode(&payload); err == nil && strings.TrimSpace(payload.Error) != "" {
			apiErr.Message = payload.Error
		}
		if apiErr.Message == "" {
			apiErr.Message = response.Status
		}
		if response.StatusCode == http.StatusUnauthorized {
			return fmt.Errorf("%w: %s", offline.ErrAuthExpired, apiErr.Message)
		}
		return &offline.SubmissionError{StatusCode: response.StatusCode, Err: &apiErr}
	}

	if responseBody == nil {
		return nil
	}
	if err := json.NewDecoder(response.Body).Decode(responseBody); err != nil {
		return &offline.SubmissionError{StatusCode: response.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// TokenSubject reads the user id from a bearer token without verifying it.
// The server remains the authority; the client only uses it to tag records.
func TokenSubject(token string) string {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(strings.TrimSpace(token), claims); err != nil {
		return ""
	}
	if subject, err := claims.GetSubject(); err == nil && subject != "" {
		return subject
	}
	if id, ok := claims["id"].(string); ok {
		return id
	}
	return ""
}
