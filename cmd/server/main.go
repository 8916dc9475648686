// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/pkozlowski/quizroom/internal/config"
	"github.com/pkozlowski/quizroom/internal/handlers"
	"github.com/pkozlowski/quizroom/internal/journal"
	"github.com/pkozlowski/quizroom/internal/middleware"
	"github.com/pkozlowski/quizroom/internal/presence"
	"github.com/pkozlowski/quizroom/internal/quiz"
)

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}

	bank, err := quiz.LoadQuestionBank(cfg.QuestionsPath)
	if err != nil {
		logger.Fatalf("startup: %v", err)
	}
	logger.Infof("loaded %d questions from %s", bank.Len(), cfg.QuestionsPath)

	var j *journal.Journal
	if cfg.RedisAddr != "" {
		j, err = journal.Connect(cfg.RedisAddr, logger)
		if err != nil {
			logger.Fatalf("startup: %v", err)
		}
		defer j.Close()
		logger.Infof("event journal enabled via %s", cfg.RedisAddr)
	}

	store := quiz.NewStore(quiz.CryptoCodeGenerator{}, logger)
	tracker := presence.NewTracker()
	hub := handlers.NewHub(j, logger)
	srv := handlers.NewServer(store, bank, tracker, hub, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	timer := quiz.NewQuestionTimer(store, bank, cfg.TimerTick, hub.Broadcast, logger)
	go timer.Run(ctx)

	reaper := quiz.NewSessionReaper(store, quiz.ReaperConfig{
		Tick:          cfg.CleanupTick,
		LobbyTTL:      cfg.LobbyTTL,
		InProgressTTL: cfg.InProgressTTL,
	}, logger)
	go reaper.Run(ctx)

	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: middleware.LogMiddleware(logger)(srv.Routes()),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Infof("listening on %s", cfg.Addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("server exited: %v", err)
	}
	logger.Info("server stopped")
}
