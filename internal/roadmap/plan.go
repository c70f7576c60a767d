package roadmap

import (
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"
)

const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusPaused    = "paused"

	defaultAvailabilityHours = 10
	defaultLanguage          = "en"
	maxFallbackWeeks         = 8
)

type Resource struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type Week struct {
	Week           int        `json:"week"`
	FocusSkill     string     `json:"focus_skill"`
	Topics         []string   `json:"topics"`
	EstimatedHours int        `json:"estimated_hours"`
	Milestone      string     `json:"milestone"`
	Resources      []Resource `json:"resources"`
}

// Plan is a learning roadmap towards a target role. Clients cache it verbatim.
type Plan struct {
	ID                  string     `json:"id"`
	UserID              string     `json:"user_id"`
	TargetRole          string     `json:"target_role"`
	MissingSkills       []string   `json:"missing_skills"`
	WeeklyPlan          []Week     `json:"weekly_plan"`
	AvailabilityHours   int        `json:"availability_hours"`
	PreferredLanguage   string     `json:"preferred_language"`
	ReadinessPercentage int        `json:"readiness_percentage"`
	Status              string     `json:"status"`
	CreatedAt           time.Time  `json:"created_at"`
	CachedAt            *time.Time `json:"cached_at,omitempty"`
}

type Request struct {
	TargetRole        string   `json:"target_role" validate:"required,max=200"`
	RequiredSkills    []string `json:"required_skills" validate:"required,min=1,dive,required"`
	CurrentSkills     []string `json:"current_skills" validate:"omitempty,dive,required"`
	AvailabilityHours int      `json:"availability_hours" validate:"omitempty,min=1,max=168"`
	PreferredLanguage string   `json:"preferred_language" validate:"omitempty,max=16"`
}

// SkillGap splits the required skills into those the user lacks and those
// already held. Matching ignores case and surrounding whitespace.
func SkillGap(required, current []string) (missing, matched []string) {
	have := make(map[string]struct{}, len(current))
	for _, skill := range current {
		have[strings.ToLower(strings.TrimSpace(skill))] = struct{}{}
	}

	missing = make([]string, 0, len(required))
	matched = make([]string, 0, len(required))
	for _, skill := range required {
		skill = strings.TrimSpace(skill)
		if skill == "" {
			continue
		}
		if _, ok := have[strings.ToLower(skill)]; ok {
			matched = append(matched, skill)
			continue
		}
		missing = append(missing, skill)
	}
	return missing, matched
}

func Readiness(matched, required int) int {
	if required <= 0 {
		return 0
	}
	return int(math.Round(float64(matched) * 100 / float64(required)))
}

// FallbackWeeks builds a one-skill-per-week plan for the first eight missing
// skills. It is used whenever the plan generator cannot be reached.
func FallbackWeeks(missing []string, availabilityHours int) []Week {
	count := len(missing)
	if count > maxFallbackWeeks {
		count = maxFallbackWeeks
	}

	weeks := make([]Week, 0, count)
	for idx, skill := range missing[:count] {
		weeks = append(weeks, Week{
			Week:       idx + 1,
			FocusSkill: skill,
			Topics: []string{
				"Introduction to " + skill,
				"Core concepts of " + skill,
				"Practice projects",
			},
			EstimatedHours: availabilityHours,
			Milestone:      fmt.Sprintf("Complete %s basics", skill),
			Resources: []Resource{{
				Title: skill + " on YouTube",
				URL:   "https://www.youtube.com/results?search_query=" + url.QueryEscape(skill+" tutorial"),
			}},
		})
	}
	return weeks
}
