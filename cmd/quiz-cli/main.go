package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"b2g-quiz/internal/cli"
	"b2g-quiz/internal/config"
	"b2g-quiz/internal/logger"
	"b2g-quiz/internal/opentdb"
	"b2g-quiz/internal/quiz"
	quizsqlite "b2g-quiz/internal/quiz/sqlite"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, "error: load .env:", err)
		os.Exit(1)
	}
	cfg := config.LoadServer()

	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	flag.Parse()

	log, err := logger.New("quiet")
	if err != nil {
		fmt.Fprintln(os.Stderr, "error: init logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	store, err := quizsqlite.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error: open database:", err)
		os.Exit(1)
	}
	defer store.Close()

	trivia := opentdb.NewClient(&http.Client{Timeout: 10 * time.Second})
	catalogue := quiz.NewService(store, store, log)
	if err := cli.Run(context.Background(), os.Stdin, os.Stdout, catalogue, trivia.FetchQuestions); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
