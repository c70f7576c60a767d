package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"b2g-quiz/internal/config"
	"b2g-quiz/internal/httpapi"
	"b2g-quiz/internal/logger"
	"b2g-quiz/internal/opentdb"
	"b2g-quiz/internal/quiz"
	quizsqlite "b2g-quiz/internal/quiz/sqlite"
	"b2g-quiz/internal/roadmap"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, "error: load .env:", err)
		os.Exit(1)
	}
	cfg := config.LoadServer()

	addr := flag.String("addr", cfg.Addr, "HTTP listen address")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	mintToken := flag.String("mint-token", "", "print a development access token for this user id and exit")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "lifetime of tokens printed by -mint-token")
	flag.Parse()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error: init logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	if *mintToken != "" {
		if cfg.JWTSecret == "" {
			log.Error("JWT_SECRET must be set to mint tokens")
			os.Exit(1)
		}
		token, err := httpapi.NewAuthenticator(cfg.JWTSecret).IssueToken(*mintToken, *tokenTTL)
		if err != nil {
			log.Error("mint token failed", "error", err)
			os.Exit(1)
		}
		fmt.Println(token)
		return
	}

	secret := cfg.JWTSecret
	if secret == "" {
		secret = randomSecret()
		log.Warn("JWT_SECRET is not set; using a random secret, tokens will not survive a restart")
	}

	store, err := quizsqlite.NewStore(*dbPath)
	if err != nil {
		log.Error("open database failed", "path", *dbPath, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	quizzes := quiz.NewService(store, store, log)
	if cfg.SeedQuizzes {
		seeded, err := quizzes.SeedDefaults(ctx)
		if err != nil {
			log.Error("seeding quizzes failed", "error", err)
			os.Exit(1)
		}
		if seeded > 0 {
			log.Info("seeded default quizzes", "count", seeded)
		}
	}
	if cfg.OpenTDBImport > 0 {
		trivia := opentdb.NewClient(&http.Client{Timeout: 10 * time.Second})
		definition, err := quizzes.ImportQuiz(ctx, trivia.FetchQuestions, "General Knowledge", cfg.OpenTDBImport)
		if err != nil {
			log.Warn("trivia import failed", "error", err)
		} else {
			log.Info("imported trivia quiz", "quiz_id", definition.QuizID, "questions", len(definition.Questions))
		}
	}

	var scorer roadmap.Scorer
	if cfg.AIServiceURL != "" {
		scorer = roadmap.NewHTTPScorer(cfg.AIServiceURL, nil)
	}
	plans := roadmap.NewService(store, scorer, log)

	server := &http.Server{
		Addr:              *addr,
		Handler:           httpapi.NewRouter(quizzes, plans, httpapi.NewAuthenticator(secret), log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Info("quiz-service listening", "addr", *addr, "db", *dbPath)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func randomSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf)
}
