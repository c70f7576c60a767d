package httpapi

import (
	"net/http"

	"b2g-quiz/internal/logger"
	"b2g-quiz/internal/quiz"
	"b2g-quiz/internal/roadmap"
)

func NewRouter(quizzes *quiz.Service, plans *roadmap.Service, auth *Authenticator, log *logger.Logger) http.Handler {
	api := NewAPI(quizzes, plans, auth, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", api.HandleHealth)
	mux.HandleFunc("/quiz/list", api.HandleListQuizzes)
	mux.HandleFunc("/quiz/{quiz_id}", api.HandleGetQuiz)
	mux.HandleFunc("/quiz/submit", api.auth.Require(api.HandleSubmit))
	mux.HandleFunc("/quiz/sync", api.auth.Require(api.HandleSync))
	mux.HandleFunc("/quiz/user/my-results", api.auth.Require(api.HandleMyResults))
	mux.HandleFunc("/roadmap/generate", api.auth.Require(api.HandleGenerateRoadmap))
	mux.HandleFunc("/roadmap/my-roadmaps", api.auth.Require(api.HandleMyRoadmaps))
	mux.HandleFunc("/roadmap/{plan_id}", api.auth.Require(api.HandleGetRoadmap))

	return withRequestLogging(api.log, mux)
}
