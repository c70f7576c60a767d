package roadmap

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"b2g-quiz/internal/logger"
)

var (
	ErrPlanNotFound   = errors.New("roadmap not found")
	ErrInvalidRequest = errors.New("invalid roadmap request")
)

type Repository interface {
	SavePlan(ctx context.Context, plan Plan) error
	GetPlan(ctx context.Context, userID, planID string) (Plan, error)
	ListPlans(ctx context.Context, userID string) ([]Plan, error)
}

type Service struct {
	plans  Repository
	scorer Scorer
	log    *logger.Logger
	now    func() time.Time
	newID  func() string
}

func NewService(plans Repository, scorer Scorer, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		plans:  plans,
		scorer: scorer,
		log:    log.With("component", "roadmap.Service"),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

// Generate computes the skill gap for the request, asks the scorer for a
// weekly plan and stores the result for the user.
func (s *Service) Generate(ctx context.Context, userID string, request Request) (Plan, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Plan{}, fmt.Errorf("%w: user is required", ErrInvalidRequest)
	}
	targetRole := strings.TrimSpace(request.TargetRole)
	if targetRole == "" {
		return Plan{}, fmt.Errorf("%w: target_role is required", ErrInvalidRequest)
	}

	hours := request.AvailabilityHours
	if hours <= 0 {
		hours = defaultAvailabilityHours
	}
	language := strings.TrimSpace(request.PreferredLanguage)
	if language == "" {
		language = defaultLanguage
	}

	missing, matched := SkillGap(request.RequiredSkills, request.CurrentSkills)
	weeks := s.weeklyPlan(ctx, ScoreRequest{
		TargetRole:        targetRole,
		MissingSkills:     missing,
		AvailabilityHours: hours,
		PreferredLanguage: language,
	})

	plan := Plan{
		ID:                  s.newID(),
		UserID:              userID,
		TargetRole:          targetRole,
		MissingSkills:       missing,
		WeeklyPlan:          weeks,
		AvailabilityHours:   hours,
		PreferredLanguage:   language,
		ReadinessPercentage: Readiness(len(matched), len(matched)+len(missing)),
		Status:              StatusActive,
		CreatedAt:           s.now(),
	}
	if err := s.plans.SavePlan(ctx, plan); err != nil {
		return Plan{}, err
	}
	return plan, nil
}

func (s *Service) Get(ctx context.Context, userID, planID string) (Plan, error) {
	userID = strings.TrimSpace(userID)
	planID = strings.TrimSpace(planID)
	if userID == "" || planID == "" {
		return Plan{}, ErrPlanNotFound
	}
	return s.plans.GetPlan(ctx, userID, planID)
}

func (s *Service) List(ctx context.Context, userID string) ([]Plan, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user is required", ErrInvalidRequest)
	}
	return s.plans.ListPlans(ctx, userID)
}

func (s *Service) weeklyPlan(ctx context.Context, request ScoreRequest) []Week {
	if s.scorer != nil {
		weeks, err := s.scorer.GenerateWeeks(ctx, request)
		if err == nil {
			return weeks
		}
		s.log.Warn("plan generator failed, using fallback plan",
			"target_role", request.TargetRole,
			"error", err,
		)
	}
	return FallbackWeeks(request.MissingSkills, request.AvailabilityHours)
}
