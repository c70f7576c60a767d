package userclient

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"b2g-quiz/internal/logger"
	"b2g-quiz/internal/offline"
	"b2g-quiz/internal/quiz"
)

const (
	defaultServer            = "http://127.0.0.1:8080"
	defaultListLimit         = 10
	defaultResultsLimit      = 10
	defaultHTTPTimeout       = 5 * time.Second
	defaultSubmitTimeout     = 5 * time.Second
	defaultMaxInvalidAnswers = 3
	defaultPurgeAge          = 30 * 24 * time.Hour
)

type Config struct {
	UserID            string
	ServerURL         string
	Token             string
	ListLimit         int
	MaxInvalidAnswers int
	HTTPTimeout       time.Duration
	// ProbeInterval <= 0 disables background health probing; connectivity is
	// then checked once at start and can be toggled with online/offline.
	ProbeInterval time.Duration
	Store         offline.Store
	Log           *logger.Logger
}

type session struct {
	out               io.Writer
	reader            *bufio.Reader
	serverURL         string
	listLimit         int
	maxInvalidAnswers int

	client      *HTTPClient
	store       offline.Store
	monitor     *offline.Monitor
	delivery    *offline.Delivery
	recorder    *offline.Recorder
	coordinator *offline.Coordinator
}

func Run(ctx context.Context, in io.Reader, out io.Writer, cfg Config) error {
	if cfg.Store == nil {
		return errors.New("offline store is required")
	}

	serverURL := strings.TrimSpace(cfg.ServerURL)
	if serverURL == "" {
		serverURL = defaultServer
	}
	listLimit := cfg.ListLimit
	if listLimit <= 0 {
		listLimit = defaultListLimit
	}
	maxInvalidAnswers := cfg.MaxInvalidAnswers
	if maxInvalidAnswers <= 0 {
		maxInvalidAnswers = defaultMaxInvalidAnswers
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	log := cfg.Log
	if log == nil {
		log = logger.Nop()
	}
	userID := strings.TrimSpace(cfg.UserID)
	if userID == "" {
		userID = TokenSubject(cfg.Token)
	}

	client := NewHTTPClient(serverURL, cfg.Token, &http.Client{Timeout: timeout})
	monitor := offline.NewMonitor(false)
	s := &session{
		out:               out,
		reader:            bufio.NewReader(in),
		serverURL:         serverURL,
		listLimit:         listLimit,
		maxInvalidAnswers: maxInvalidAnswers,
		client:            client,
		store:             cfg.Store,
		monitor:           monitor,
		delivery:          offline.NewDelivery(monitor, client, cfg.Store, log),
		recorder: offline.NewRecorder(monitor, client, cfg.Store, offline.RecorderConfig{
			UserID:        userID,
			SubmitTimeout: defaultSubmitTimeout,
		}, log),
		coordinator: offline.NewCoordinator(monitor, client, cfg.Store, log),
	}

	unsubscribe := s.coordinator.Watch(ctx)
	defer unsubscribe()

	if cfg.ProbeInterval > 0 {
		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go monitor.Watch(watchCtx, cfg.ProbeInterval, client.Health)
	} else {
		monitor.SetOnline(client.Health(ctx) == nil)
	}

	fmt.Fprintf(out, "quiz-user-service\nuser=%s\nserver=%s\n", displayUser(userID), serverURL)
	if strings.TrimSpace(cfg.Token) == "" {
		fmt.Fprintln(out, "no access token set; attempts will be kept locally until QUIZ_TOKEN is configured")
	}
	fmt.Fprintln(out)
	printHelp(out)

	for {
		fmt.Fprint(out, "\n> ")
		line, err := s.reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(out)
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		args := strings.Fields(line)
		command := strings.ToLower(args[0])

		var cmdErr error
		switch command {
		case "help":
			printHelp(out)
		case "exit":
			return nil
		case "status":
			cmdErr = s.runStatus(ctx)
		case "quizzes":
			category := ""
			if len(args) > 1 {
				category = strings.Join(args[1:], " ")
			}
			cmdErr = s.runList(ctx, category)
		case "play":
			if len(args) != 2 {
				fmt.Fprintln(out, "usage: play <quiz_id>")
				continue
			}
			cmdErr = s.runPlay(ctx, args[1])
		case "plan":
			if len(args) != 2 {
				fmt.Fprintln(out, "usage: plan <plan_id>")
				continue
			}
			cmdErr = s.runPlan(ctx, args[1])
		case "plans":
			cmdErr = s.runPlans(ctx)
		case "progress":
			if len(args) != 3 {
				fmt.Fprintln(out, "usage: progress <plan_id> <week>")
				continue
			}
			week, parseErr := parsePositiveLimit(args, 2, 0)
			if parseErr != nil {
				fmt.Fprintf(out, "invalid week: %v\n", parseErr)
				continue
			}
			cmdErr = s.runProgress(ctx, args[1], week)
		case "pending":
			cmdErr = s.runPending(ctx)
		case "sync":
			cmdErr = s.runSync(ctx)
		case "results":
			limit, parseErr := parsePositiveLimit(args, 1, defaultResultsLimit)
			if parseErr != nil {
				fmt.Fprintf(out, "invalid results limit: %v\n", parseErr)
				continue
			}
			cmdErr = s.runResults(ctx, limit)
		case "online":
			s.monitor.SetOnline(true)
			fmt.Fprintln(out, "connectivity set to online")
		case "offline":
			s.monitor.SetOnline(false)
			fmt.Fprintln(out, "connectivity set to offline")
		case "purge":
			days, parseErr := parsePositiveLimit(args, 1, int(defaultPurgeAge/(24*time.Hour)))
			if parseErr != nil {
				fmt.Fprintf(out, "invalid purge age: %v\n", parseErr)
				continue
			}
			cmdErr = s.runPurge(ctx, time.Duration(days)*24*time.Hour)
		default:
			fmt.Fprintln(out, "unknown command. type 'help' for usage.")
		}
		if cmdErr != nil {
			fmt.Fprintf(out, "error: %v\n", describeClientError(cmdErr, serverURL))
		}
	}
}

func (s *session) runStatus(ctx context.Context) error {
	pending, err := s.store.UnresolvedAttempts(ctx)
	if err != nil {
		return err
	}
	state := "offline"
	if s.monitor.IsOnline() {
		state = "online"
	}
	fmt.Fprintf(s.out, "%s, %d attempt(s) waiting to sync\n", state, len(pending))
	return nil
}

func (s *session) runList(ctx context.Context, category string) error {
	quizzes, err := s.delivery.FetchQuizList(ctx, quiz.Filter{Category: category, Limit: s.listLimit})
	if err != nil {
		return err
	}

	if len(quizzes) == 0 {
		fmt.Fprintln(s.out, "No quizzes found.")
		return nil
	}

	fmt.Fprintln(s.out, "Quizzes:")
	for idx, item := range quizzes {
		fmt.Fprintf(s.out, "%d. %s %s [%s, %s] (%d questions)\n",
			idx+1,
			item.QuizID,
			item.Title,
			item.SkillCategory,
			item.Difficulty,
			item.QuestionCount,
		)
	}
	return nil
}

func (s *session) runPlay(ctx context.Context, quizID string) error {
	detail, err := s.delivery.FetchQuizDetail(ctx, quizID)
	if err != nil {
		return err
	}
	if len(detail.Questions) == 0 {
		fmt.Fprintf(s.out, "Quiz %s has no questions.\n", detail.QuizID)
		return nil
	}

	fmt.Fprintf(s.out, "%s (%d questions)\n", detail.Title, len(detail.Questions))
	answers := make([]quiz.Answer, 0, len(detail.Questions))
	for idx, question := range detail.Questions {
		fmt.Fprintf(s.out, "\nQ%d. %s\n", idx+1, question.Question)
		for optionIdx, option := range question.Options {
			fmt.Fprintf(s.out, "  %c. %s\n", 'A'+optionIdx, option)
		}

		answer := quiz.Answer{QuestionID: question.QuestionID}
		for attempt := 0; attempt < s.maxInvalidAnswers; attempt++ {
			choice, ok := promptAnswer(s.reader, s.out, len(question.Options))
			if ok {
				answer.Selected = quiz.Selected(question.Options[choice])
				break
			}
			fmt.Fprintln(s.out, "Invalid answer.")
		}
		if answer.Selected == nil {
			fmt.Fprintln(s.out, "Question left unanswered.")
		}
		answers = append(answers, answer)
	}

	outcome, err := s.recorder.RecordAttempt(ctx, detail.QuizID, answers)
	switch {
	case errors.Is(err, offline.ErrAuthExpired) && outcome.Status == offline.StatusStoredOffline:
		fmt.Fprintf(s.out, "\nYour session expired. The attempt was saved locally as #%d and will sync after you sign in again.\n", outcome.LocalID)
		return nil
	case err != nil:
		return err
	}

	switch outcome.Status {
	case offline.StatusGraded:
		printGraded(s.out, *outcome.Result)
	case offline.StatusStoredOffline:
		fmt.Fprintf(s.out, "\nSaved offline as #%d. It will be graded when you reconnect.\n", outcome.LocalID)
	}
	return nil
}

func (s *session) runPlan(ctx context.Context, planID string) error {
	plan, err := s.delivery.FetchPlan(ctx, planID)
	if err != nil {
		return err
	}

	fmt.Fprintf(s.out, "%s (readiness %d%%, %d h/week)\n", plan.TargetRole, plan.ReadinessPercentage, plan.AvailabilityHours)
	if plan.CachedAt != nil && !s.monitor.IsOnline() {
		fmt.Fprintf(s.out, "offline copy saved %s\n", plan.CachedAt.Format(time.RFC3339))
	}
	for _, week := range plan.WeeklyPlan {
		fmt.Fprintf(s.out, "Week %d: %s (%d h) - %s\n", week.Week, week.FocusSkill, week.EstimatedHours, strings.Join(week.Topics, ", "))
	}
	if entry, err := s.store.Progress(ctx, progressKey(plan.ID)); err == nil {
		fmt.Fprintf(s.out, "progress: %s\n", entry.Value)
	}
	return nil
}

func (s *session) runPlans(ctx context.Context) error {
	plans, err := s.delivery.CachedPlans(ctx)
	if err != nil {
		return err
	}
	if len(plans) == 0 {
		fmt.Fprintln(s.out, "No plans saved for offline use.")
		return nil
	}
	for idx, plan := range plans {
		fmt.Fprintf(s.out, "%d. %s %s (%d weeks)\n", idx+1, plan.ID, plan.TargetRole, len(plan.WeeklyPlan))
	}
	return nil
}

type planProgress struct {
	CompletedWeek int `json:"completed_week"`
}

func (s *session) runProgress(ctx context.Context, planID string, week int) error {
	value, err := json.Marshal(planProgress{CompletedWeek: week})
	if err != nil {
		return err
	}
	if err := s.store.PutProgress(ctx, offline.ProgressEntry{
		Key:       progressKey(planID),
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	}); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Marked week %d of %s complete.\n", week, planID)
	return nil
}

func (s *session) runPending(ctx context.Context) error {
	pending, err := s.store.UnresolvedAttempts(ctx)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		fmt.Fprintln(s.out, "Nothing waiting to sync.")
		return nil
	}
	for _, record := range pending {
		fmt.Fprintf(s.out, "#%d %s answered=%d/%d at %s\n",
			record.LocalID,
			record.QuizID,
			answeredCount(record.Answers),
			record.Total,
			record.CompletedAt.Format(time.RFC3339),
		)
	}
	return nil
}

func (s *session) runSync(ctx context.Context) error {
	report, err := s.coordinator.DrainPending(ctx)
	if err != nil {
		return err
	}
	if report.Submitted == 0 {
		fmt.Fprintln(s.out, "Nothing to sync.")
		return nil
	}
	fmt.Fprintf(s.out, "Synced %d of %d attempt(s).\n", report.Synced(), report.Submitted)
	for _, rejection := range report.Rejections {
		fmt.Fprintf(s.out, "rejected %s: %s\n", rejection.ClientKey, rejection.Reason)
	}
	return nil
}

// runResults shows server results when online and locally stored grades
// otherwise.
func (s *session) runResults(ctx context.Context, limit int) error {
	if s.monitor.IsOnline() {
		results, err := s.client.ListResults(ctx, limit)
		if err == nil {
			printResults(s.out, results)
			return nil
		}
		if errors.Is(err, offline.ErrAuthExpired) {
			return err
		}
	}

	attempts, err := s.store.Attempts(ctx)
	if err != nil {
		return err
	}
	results := make([]quiz.GradedResult, 0, len(attempts))
	for idx := len(attempts) - 1; idx >= 0 && len(results) < limit; idx-- {
		if graded := attempts[idx].Graded; graded != nil {
			results = append(results, *graded)
		}
	}
	printResults(s.out, results)
	return nil
}

func (s *session) runPurge(ctx context.Context, age time.Duration) error {
	confirmed, err := promptYesNo(s.reader, s.out, fmt.Sprintf("remove synced attempts older than %s? (yes/no): ", age))
	if err != nil || !confirmed {
		return err
	}
	purged, err := s.store.PurgeResolved(ctx, time.Now().UTC().Add(-age))
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Removed %d synced attempt(s).\n", purged)
	return nil
}

func progressKey(planID string) string {
	return "roadmap:" + planID
}
