package offline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"b2g-quiz/internal/logger"
	"b2g-quiz/internal/quiz"
	"b2g-quiz/internal/roadmap"
)

// ContentSource is the network side of quiz and plan delivery.
type ContentSource interface {
	ListQuizzes(ctx context.Context, filter quiz.Filter) ([]quiz.Summary, error)
	GetQuiz(ctx context.Context, quizID string) (quiz.PublicQuiz, error)
	GetPlan(ctx context.Context, planID string) (roadmap.Plan, error)
}

// Delivery serves quiz and plan content from the network when online and from
// the local store otherwise. Callers get the same shape on both paths.
type Delivery struct {
	monitor *Monitor
	remote  ContentSource
	store   Store
	log     *logger.Logger
	now     func() time.Time
}

func NewDelivery(monitor *Monitor, remote ContentSource, store Store, log *logger.Logger) *Delivery {
	if log == nil {
		log = logger.Nop()
	}
	return &Delivery{
		monitor: monitor,
		remote:  remote,
		store:   store,
		log:     log.With("component", "offline.Delivery"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// FetchQuizList lists quizzes. A successful online list also caches the
// detail of every listed quiz so it can be taken offline later.
func (d *Delivery) FetchQuizList(ctx context.Context, filter quiz.Filter) ([]quiz.Summary, error) {
	if d.monitor.IsOnline() {
		summaries, err := d.remote.ListQuizzes(ctx, filter)
		if err == nil {
			d.warmDetails(ctx, summaries)
			return summaries, nil
		}
		if errors.Is(err, ErrAuthExpired) {
			return nil, err
		}
		d.log.Warn("quiz list fetch failed, using cache", "error", err)
	}
	return d.cachedQuizList(ctx, filter)
}

func (d *Delivery) FetchQuizDetail(ctx context.Context, quizID string) (quiz.PublicQuiz, error) {
	quizID = strings.TrimSpace(quizID)
	if d.monitor.IsOnline() {
		detail, err := d.remote.GetQuiz(ctx, quizID)
		if err == nil {
			if err := d.store.PutQuiz(ctx, detail); err != nil {
				d.log.Warn("caching quiz detail failed", "quiz_id", quizID, "error", err)
			}
			return detail, nil
		}
		if errors.Is(err, ErrAuthExpired) {
			return quiz.PublicQuiz{}, err
		}
		d.log.Warn("quiz detail fetch failed, using cache", "quiz_id", quizID, "error", err)
	}

	detail, err := d.store.Quiz(ctx, quizID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return quiz.PublicQuiz{}, fmt.Errorf("%w: quiz %s", ErrContentUnavailable, quizID)
		}
		return quiz.PublicQuiz{}, err
	}
	return detail, nil
}

func (d *Delivery) FetchPlan(ctx context.Context, planID string) (roadmap.Plan, error) {
	planID = strings.TrimSpace(planID)
	if d.monitor.IsOnline() {
		plan, err := d.remote.GetPlan(ctx, planID)
		if err == nil {
			cachedAt := d.now()
			plan.CachedAt = &cachedAt
			if err := d.store.PutPlan(ctx, plan); err != nil {
				d.log.Warn("caching plan failed", "plan_id", planID, "error", err)
			}
			return plan, nil
		}
		if errors.Is(err, ErrAuthExpired) {
			return roadmap.Plan{}, err
		}
		d.log.Warn("plan fetch failed, using cache", "plan_id", planID, "error", err)
	}

	plan, err := d.store.Plan(ctx, planID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return roadmap.Plan{}, fmt.Errorf("%w: plan %s", ErrContentUnavailable, planID)
		}
		return roadmap.Plan{}, err
	}
	return plan, nil
}

// CachedQuizzes and the other accessors below expose the store for display.
func (d *Delivery) CachedQuizzes(ctx context.Context) ([]quiz.PublicQuiz, error) {
	return d.store.Quizzes(ctx)
}

func (d *Delivery) CachedPlans(ctx context.Context) ([]roadmap.Plan, error) {
	return d.store.Plans(ctx)
}

func (d *Delivery) cachedQuizList(ctx context.Context, filter quiz.Filter) ([]quiz.Summary, error) {
	cached, err := d.store.Quizzes(ctx)
	if err != nil {
		return nil, err
	}
	if len(cached) == 0 {
		return nil, fmt.Errorf("%w: no quizzes cached", ErrContentUnavailable)
	}

	summaries := make([]quiz.Summary, 0, len(cached))
	for _, detail := range cached {
		if filter.Matches(detail.Summary) {
			summaries = append(summaries, detail.Summary)
		}
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		if summaries[i].CreatedAt.Equal(summaries[j].CreatedAt) {
			return summaries[i].QuizID < summaries[j].QuizID
		}
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	if filter.Limit > 0 && len(summaries) > filter.Limit {
		summaries = summaries[:filter.Limit]
	}
	return summaries, nil
}

// Published quizzes are immutable, so details already cached are not refetched.
func (d *Delivery) warmDetails(ctx context.Context, summaries []quiz.Summary) {
	for _, summary := range summaries {
		if ctx.Err() != nil {
			return
		}
		if _, err := d.store.Quiz(ctx, summary.QuizID); err == nil {
			continue
		}

		detail, err := d.remote.GetQuiz(ctx, summary.QuizID)
		if err != nil {
			d.log.Debug("warming quiz detail failed", "quiz_id", summary.QuizID, "error", err)
			if errors.Is(err, ErrAuthExpired) {
				return
			}
			continue
		}
		if err := d.store.PutQuiz(ctx, detail); err != nil {
			d.log.Warn("caching quiz detail failed", "quiz_id", summary.QuizID, "error", err)
		}
	}
}
