package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/example/wordtrail/internal/calendar"
	"github.com/example/wordtrail/pkg/models"
)

// Default reminder window, in hours of the configured location.
const (
	DefaultNotificationStartHour = 9
	DefaultNotificationEndHour   = 21
)

// Notifier sends reminder notifications.
type Notifier interface {
	SendReminders(chatID int64, count int) error
}

// Finalizer recomputes clock-in records of past days.
type Finalizer interface {
	UsersWithRecord(ctx context.Context, day time.Time) ([]string, error)
	RefreshForDate(ctx context.Context, userID string, day time.Time) (*models.ClockIn, error)
}

// Backlog reports how many reviews a user has pending.
type Backlog interface {
	OverdueCount(ctx context.Context, userID, bookID string) (int, error)
}

// UserLister lists users that accept reminders.
type UserLister interface {
	ListRemindable(ctx context.Context) ([]models.User, error)
}

// Options configures the jobs.
type Options struct {
	SweepTime string // HH:MM
	StartHour int
	EndHour   int
	Workers   int
	Location  *time.Location
	Clock     calendar.Clock
	Reminders bool // enables the hourly reminder job
}

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	opts      Options
	finalizer Finalizer
	backlog   Backlog
	users     UserLister
	notifier  Notifier
	logger    *zap.Logger
	stopOnce  sync.Once
}

// New creates a new scheduler instance. notifier may be nil, in which case no reminders are sent.
func New(opts Options, finalizer Finalizer, backlog Backlog, users UserLister, notifier Notifier, logger *zap.Logger) *Scheduler {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Clock == nil {
		opts.Clock = calendar.SystemClock
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.StartHour == 0 && opts.EndHour == 0 {
		opts.StartHour = DefaultNotificationStartHour
		opts.EndHour = DefaultNotificationEndHour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := gocron.NewScheduler(opts.Location)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		opts:      opts,
		finalizer: finalizer,
		backlog:   backlog,
		users:     users,
		notifier:  notifier,
		logger:    logger,
	}
}

// Start registers the jobs and runs them asynchronously until ctx is done or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.scheduler.Every(1).Day().At(s.opts.SweepTime).Do(func() {
		yesterday := calendar.AddDays(s.opts.Clock(), -1, s.opts.Location)
		n, err := s.SweepDay(ctx, yesterday)
		if err != nil {
			s.logger.Error("clock-in sweep failed", zap.Error(err))
			return
		}
		s.logger.Info("clock-in sweep finished",
			zap.String("date", calendar.DateKey(yesterday, s.opts.Location)),
			zap.Int("users", n),
		)
	})
	if err != nil {
		return fmt.Errorf("schedule sweep: %w", err)
	}

	if s.notifier != nil && s.opts.Reminders {
		_, err = s.scheduler.Every(1).Hour().Do(func() {
			n, err := s.SendReminders(ctx)
			if err != nil {
				s.logger.Error("failed to send reminders", zap.Error(err))
				return
			}
			if n > 0 {
				s.logger.Info("reminders sent", zap.Int("count", n))
			}
		})
		if err != nil {
			return fmt.Errorf("schedule reminders: %w", err)
		}
	}

	s.scheduler.StartAsync()
	s.logger.Info("scheduler started", zap.String("sweep_time", s.opts.SweepTime))

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// Stop terminates all scheduled tasks. It is safe to call more than once.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		if s.scheduler.IsRunning() {
			s.scheduler.Stop()
			s.logger.Info("scheduler stopped")
		}
	})
}

// SweepDay finalizes the clock-in records of day for every user that has one
// and returns how many were refreshed. Users are processed concurrently.
func (s *Scheduler) SweepDay(ctx context.Context, day time.Time) (int, error) {
	userIDs, err := s.finalizer.UsersWithRecord(ctx, day)
	if err != nil {
		return 0, err
	}

	var done atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for _, userID := range userIDs {
		userID := userID
		g.Go(func() error {
			c, err := s.finalizer.RefreshForDate(gctx, userID, day)
			if err != nil {
				return fmt.Errorf("refresh user %s: %w", userID, err)
			}
			if c != nil {
				done.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return int(done.Load()), err
	}
	return int(done.Load()), nil
}

// SendReminders notifies every remindable user with overdue reviews, if the
// current hour is inside the reminder window. It returns the number of messages sent.
func (s *Scheduler) SendReminders(ctx context.Context) (int, error) {
	if s.notifier == nil {
		return 0, nil
	}
	hour := s.opts.Clock().In(s.opts.Location).Hour()
	if hour < s.opts.StartHour || hour >= s.opts.EndHour {
		s.logger.Debug("outside notification hours, skipping reminders",
			zap.Int("hour", hour),
			zap.Int("start", s.opts.StartHour),
			zap.Int("end", s.opts.EndHour),
		)
		return 0, nil
	}

	users, err := s.users.ListRemindable(ctx)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, u := range users {
		ok, err := s.RunManualCheck(ctx, u)
		if err != nil {
			// one failing user must not block the rest
			s.logger.Warn("reminder failed", zap.String("user_id", u.ID), zap.Error(err))
			continue
		}
		if ok {
			sent++
		}
	}
	return sent, nil
}

// RunManualCheck sends a reminder to one user if they have overdue reviews.
func (s *Scheduler) RunManualCheck(ctx context.Context, u models.User) (bool, error) {
	if s.notifier == nil || u.ChatID == 0 {
		return false, nil
	}
	count, err := s.backlog.OverdueCount(ctx, u.ID, "")
	if err != nil {
		return false, err
	}
	if count == 0 {
		return false, nil
	}
	if err := s.notifier.SendReminders(u.ChatID, count); err != nil {
		return false, fmt.Errorf("notify chat %d: %w", u.ChatID, err)
	}
	return true, nil
}
