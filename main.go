package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/wordtrail/internal/bot"
	"github.com/example/wordtrail/internal/calendar"
	"github.com/example/wordtrail/internal/clockin"
	"github.com/example/wordtrail/internal/config"
	"github.com/example/wordtrail/internal/database"
	"github.com/example/wordtrail/internal/excel"
	"github.com/example/wordtrail/internal/httpapi"
	"github.com/example/wordtrail/internal/learning"
	"github.com/example/wordtrail/internal/logger"
	"github.com/example/wordtrail/internal/scheduler"
)

func main() {
	configPath := flag.String("config", "", "path to the config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	lg, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.Open(ctx, cfg.DB.Options())
	if err != nil {
		lg.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Validate already checked these.
	table, _ := cfg.Learning.Table()
	loc, _ := cfg.Learning.Location()
	clock := calendar.SystemClock

	progress := database.NewProgressRepository(db)
	books := database.NewBookRepository(db)
	users := database.NewUserRepository(db)

	tracker := learning.NewTracker(progress, table, clock, lg)
	reviews := learning.NewReviewScheduler(progress, books, loc, clock, lg).
		WithMaxBatchSize(cfg.Learning.MaxBatchSize)
	aggregator := clockin.NewAggregator(
		database.NewClockInRepository(db),
		database.NewGoalRepository(db),
		progress,
		loc, clock, lg,
	)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr: cfg.HTTP.Addr,
		Handler: httpapi.NewRouter(httpapi.Services{
			Tracker:    tracker,
			Scheduler:  reviews,
			Aggregator: aggregator,
			Books:      books,
		}, lg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var notifier scheduler.Notifier
	var tg *bot.Bot
	if cfg.Telegram.Token != "" {
		tg, err = bot.New(cfg.Telegram.Token, cfg.Telegram.AdminIDs, bot.Deps{
			Tracker:    tracker,
			Reviews:    reviews,
			Aggregator: aggregator,
			Users:      users,
			Books:      books,
			Importer:   excel.NewImporter(books, lg),
		}, lg)
		if err != nil {
			lg.Fatal("failed to create bot", zap.Error(err))
		}
		notifier = tg
	} else {
		lg.Info("TELEGRAM_BOT_TOKEN is not set, bot disabled")
	}

	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched = scheduler.New(scheduler.Options{
			SweepTime: cfg.Scheduler.SweepTime,
			StartHour: cfg.Scheduler.ReminderStartHour,
			EndHour:   cfg.Scheduler.ReminderEndHour,
			Workers:   cfg.Scheduler.Workers,
			Location:  loc,
			Clock:     clock,
			Reminders: tg != nil,
		}, aggregator, reviews, users, notifier, lg)
		if err := sched.Start(ctx); err != nil {
			lg.Fatal("failed to start scheduler", zap.Error(err))
		}
	}

	done := make(chan struct{})

	go func() {
		sig := <-sigChan
		lg.Info("received signal", zap.String("signal", sig.String()))
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if sched != nil {
			sched.Stop()
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			lg.Error("error during shutdown", zap.Error(err))
		}
		close(done)
	}()

	if tg != nil {
		go func() {
			if err := tg.Run(ctx); err != nil {
				lg.Error("bot error", zap.Error(err))
			}
		}()
	}

	go func() {
		lg.Info("http server started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Error("http server error", zap.Error(err))
			sigChan <- syscall.SIGTERM
		}
	}()

	<-done
	lg.Info("stopped")
}
