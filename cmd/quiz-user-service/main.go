package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"b2g-quiz/internal/config"
	"b2g-quiz/internal/logger"
	offlinesqlite "b2g-quiz/internal/offline/sqlite"
	"b2g-quiz/internal/userclient"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, "error: load .env:", err)
		os.Exit(1)
	}
	cfg := config.LoadClient()

	server := flag.String("server", cfg.ServerURL, "quiz service base URL")
	token := flag.String("token", cfg.Token, "access token (defaults to QUIZ_TOKEN)")
	dbPath := flag.String("db", cfg.DBPath, "local offline database path")
	timeout := flag.Duration("timeout", cfg.HTTPTimeout, "HTTP timeout")
	probe := flag.Duration("probe", cfg.ProbeInterval, "connectivity probe interval, 0 to disable")
	flag.Parse()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error: init logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	store, err := offlinesqlite.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error: open offline store:", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = userclient.Run(ctx, os.Stdin, os.Stdout, userclient.Config{
		ServerURL:     *server,
		Token:         *token,
		HTTPTimeout:   *timeout,
		ProbeInterval: *probe,
		Store:         store,
		Log:           log,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
