package httpapi

import (
	"net/http"
	"strings"

	"b2g-quiz/internal/quiz"
	"b2g-quiz/internal/roadmap"
)

const (
	defaultListLimit    = 50
	defaultResultsLimit = 20
)

func (a *API) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

func (a *API) HandleListQuizzes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}
	if a.quizzes == nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "quiz service unavailable"})
		return
	}

	limit, err := parseIntParam(r, "limit", defaultListLimit)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	filter := quiz.Filter{
		Category: strings.TrimSpace(r.URL.Query().Get("category")),
		Limit:    limit,
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("difficulty")); raw != "" {
		difficulty, ok := quiz.ParseDifficulty(raw)
		if !ok {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "difficulty must be one of beginner, medium, advanced"})
			return
		}
		filter.Difficulty = difficulty
	}

	summaries, err := a.quizzes.ListQuizzes(r.Context(), filter)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	if summaries == nil {
		summaries = []quiz.Summary{}
	}
	writeJSON(w, http.StatusOK, quizListResponse{Quizzes: summaries, Count: len(summaries)})
}

func (a *API) HandleGetQuiz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}
	if a.quizzes == nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "quiz service unavailable"})
		return
	}

	definition, err := a.quizzes.GetQuiz(r.Context(), strings.TrimSpace(r.PathValue("quiz_id")))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quizResponse{Quiz: definition})
}

func (a *API) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}
	if a.quizzes == nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "quiz service unavailable"})
		return
	}

	var request submitRequest
	if err := a.decodeBody(r, &request); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	result, err := a.quizzes.Submit(r.Context(), userIDFromContext(r.Context()), request.submission())
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, submitResponse{Result: result})
}

// HandleSync accepts a batch of attempts recorded offline. Records are graded
// independently; one bad record never fails the rest of the batch.
func (a *API) HandleSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}
	if a.quizzes == nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "quiz service unavailable"})
		return
	}

	var request syncRequest
	if err := a.decodeBody(r, &request); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	report, err := a.quizzes.SyncBatch(r.Context(), userIDFromContext(r.Context()), request.submissions())
	if err != nil {
		a.writeServiceError(w, err)
		return
	}

	a.log.Info("offline results synced",
		"user_id", userIDFromContext(r.Context()),
		"accepted", len(report.Accepted),
		"rejected", len(report.Rejected),
	)
	writeJSON(w, http.StatusOK, syncResponse{
		SyncedIDs: report.ResultIDs(),
		Results:   report.Accepted,
		Rejected:  report.Rejected,
		Count:     len(report.Accepted),
	})
}

func (a *API) HandleMyResults(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}
	if a.quizzes == nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "quiz service unavailable"})
		return
	}

	limit, err := parseIntParam(r, "limit", defaultResultsLimit)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	results, err := a.quizzes.ListResults(r.Context(), userIDFromContext(r.Context()), limit)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	if results == nil {
		results = []quiz.GradedResult{}
	}
	writeJSON(w, http.StatusOK, resultsResponse{Results: results})
}

func (a *API) HandleGenerateRoadmap(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}
	if a.plans == nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "roadmap service unavailable"})
		return
	}

	var request roadmap.Request
	if err := a.decodeBody(r, &request); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	plan, err := a.plans.Generate(r.Context(), userIDFromContext(r.Context()), request)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, roadmapResponse{Roadmap: plan})
}

func (a *API) HandleMyRoadmaps(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}
	if a.plans == nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "roadmap service unavailable"})
		return
	}

	plans, err := a.plans.List(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	if plans == nil {
		plans = []roadmap.Plan{}
	}
	writeJSON(w, http.StatusOK, roadmapsResponse{Roadmaps: plans})
}

func (a *API) HandleGetRoadmap(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}
	if a.plans == nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "roadmap service unavailable"})
		return
	}

	plan, err := a.plans.Get(r.Context(), userIDFromContext(r.Context()), r.PathValue("plan_id"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, roadmapResponse{Roadmap: plan})
}
