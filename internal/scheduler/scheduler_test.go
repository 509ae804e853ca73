package scheduler

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/example/wordtrail/pkg/models"
)

type fakeFinalizer struct {
	mu        sync.Mutex
	users     []string
	refreshed []string
	failFor   string
}

func (f *fakeFinalizer) UsersWithRecord(_ context.Context, _ time.Time) ([]string, error) {
	return f.users, nil
}

func (f *fakeFinalizer) RefreshForDate(_ context.Context, userID string, day time.Time) (*models.ClockIn, error) {
	if userID == f.failFor {
		return nil, errors.New("boom")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshed = append(f.refreshed, userID)
	return &models.ClockIn{UserID: userID, Date: day.Format("2006-01-02")}, nil
}

type fakeBacklog map[string]int

func (b fakeBacklog) OverdueCount(_ context.Context, userID, _ string) (int, error) {
	return b[userID], nil
}

type fakeUsers []models.User

func (u fakeUsers) ListRemindable(context.Context) ([]models.User, error) {
	return u, nil
}

type recordingNotifier struct {
	sent map[int64]int
	fail int64
}

func (n *recordingNotifier) SendReminders(chatID int64, count int) error {
	if chatID == n.fail {
		return errors.New("blocked by user")
	}
	if n.sent == nil {
		n.sent = map[int64]int{}
	}
	n.sent[chatID] = count
	return nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestSweepDay(t *testing.T) {
	fin := &fakeFinalizer{users: []string{"a", "b", "c", "d", "e"}}
	s := New(Options{Workers: 2}, fin, nil, nil, nil, nil)

	n, err := s.SweepDay(context.Background(), time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("SweepDay() error = %v", err)
	}
	if n != 5 {
		t.Fatalf("SweepDay() = %d, want 5", n)
	}
	sort.Strings(fin.refreshed)
	if len(fin.refreshed) != 5 || fin.refreshed[0] != "a" || fin.refreshed[4] != "e" {
		t.Fatalf("refreshed = %v", fin.refreshed)
	}
}

func TestSweepDayError(t *testing.T) {
	fin := &fakeFinalizer{users: []string{"a", "bad"}, failFor: "bad"}
	s := New(Options{Workers: 1}, fin, nil, nil, nil, nil)
	if _, err := s.SweepDay(context.Background(), time.Now()); err == nil {
		t.Fatal("SweepDay() should report the failing user")
	}
}

func TestSendReminders(t *testing.T) {
	users := fakeUsers{
		{ID: "busy", ChatID: 1},
		{ID: "idle", ChatID: 2},
		{ID: "blocked", ChatID: 3},
	}
	backlog := fakeBacklog{"busy": 7, "blocked": 2}
	notifier := &recordingNotifier{fail: 3}

	noon := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	s := New(Options{StartHour: 9, EndHour: 21, Clock: fixedClock(noon)}, nil, backlog, users, notifier, nil)

	n, err := s.SendReminders(context.Background())
	if err != nil {
		t.Fatalf("SendReminders() error = %v", err)
	}
	if n != 1 || notifier.sent[1] != 7 {
		t.Fatalf("SendReminders() = %d, sent = %v", n, notifier.sent)
	}
	if _, ok := notifier.sent[2]; ok {
		t.Fatalf("user without backlog was notified")
	}
}

func TestSendRemindersOutsideWindow(t *testing.T) {
	late := time.Date(2025, 3, 10, 22, 0, 0, 0, time.UTC)
	notifier := &recordingNotifier{}
	s := New(Options{StartHour: 9, EndHour: 21, Clock: fixedClock(late)}, nil,
		fakeBacklog{"a": 1}, fakeUsers{{ID: "a", ChatID: 1}}, notifier, nil)

	n, err := s.SendReminders(context.Background())
	if err != nil || n != 0 || len(notifier.sent) != 0 {
		t.Fatalf("SendReminders() = %d, %v, sent = %v", n, err, notifier.sent)
	}
}

func TestStartStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := New(Options{SweepTime: "00:05", Reminders: true}, &fakeFinalizer{}, fakeBacklog{}, fakeUsers{}, &recordingNotifier{}, nil)
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if got := len(s.scheduler.Jobs()); got != 2 {
		t.Fatalf("registered %d jobs, want 2", got)
	}
	s.Stop()
	cancel()
}
