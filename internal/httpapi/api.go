package httpapi

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"b2g-quiz/internal/logger"
	"b2g-quiz/internal/quiz"
	"b2g-quiz/internal/roadmap"
)

type API struct {
	quizzes  *quiz.Service
	plans    *roadmap.Service
	auth     *Authenticator
	validate *validator.Validate
	log      *logger.Logger
}

func NewAPI(quizzes *quiz.Service, plans *roadmap.Service, auth *Authenticator, log *logger.Logger) *API {
	if log == nil {
		log = logger.Nop()
	}
	if auth == nil {
		auth = NewAuthenticator("")
	}
	return &API{
		quizzes:  quizzes,
		plans:    plans,
		auth:     auth,
		validate: newValidator(),
		log:      log.With("component", "httpapi"),
	}
}

// Validation errors name fields by their JSON keys.
func newValidator() *validator.Validate {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return validate
}
