package roadmap

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

var ErrScorerUnavailable = errors.New("plan generator unavailable")

type ScoreRequest struct {
	TargetRole        string   `json:"target_role"`
	MissingSkills     []string `json:"missing_skills"`
	AvailabilityHours int      `json:"availability_hours"`
	PreferredLanguage string   `json:"preferred_language"`
}

// Scorer turns a skill gap into a weekly plan. Implementations are opaque to
// this package; the service falls back to FallbackWeeks on any error.
type Scorer interface {
	GenerateWeeks(ctx context.Context, request ScoreRequest) ([]Week, error)
}

type HTTPScorer struct {
	baseURL    string
	httpClient *http.Client
}

type scoreResponse struct {
	WeeklyPlan []Week `json:"weekly_plan"`
}

func NewHTTPScorer(baseURL string, httpClient *http.Client) *HTTPScorer {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &HTTPScorer{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: httpClient,
	}
}

func (s *HTTPScorer) GenerateWeeks(ctx context.Context, request ScoreRequest) ([]Week, error) {
	if s.baseURL == "" {
		return nil, fmt.Errorf("%w: no service url configured", ErrScorerUnavailable)
	}

	encoded, err := json.Marshal(request)
	if err != nil {
		return nil, err
	}

	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/roadmap/generate", bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	httpRequest.Header.Set("Content-Type", "application/json")

	response, err := s.httpClient.Do(httpRequest)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScorerUnavailable, err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrScorerUnavailable, response.StatusCode)
	}

	var payload scoreResponse
	if err := json.NewDecoder(response.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode weekly plan: %w", err)
	}
	if payload.WeeklyPlan == nil {
		payload.WeeklyPlan = []Week{}
	}
	return payload.WeeklyPlan, nil
}
