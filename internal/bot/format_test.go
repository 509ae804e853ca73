package bot

import (
	"errors"
	"strings"
	"testing"

	"github.com/example/wordtrail/internal/clockin"
	"github.com/example/wordtrail/pkg/models"
)

func TestParseGoalArgs(t *testing.T) {
	tests := []struct {
		args    string
		newN    int
		reviewN int
		wantErr bool
	}{
		{"10 30", 10, 30, false},
		{"  0   5 ", 0, 5, false},
		{"-1 5", -1, 5, false}, // range checks happen in the aggregator
		{"10", 0, 0, true},
		{"ten 30", 0, 0, true},
		{"1 2 3", 0, 0, true},
	}
	for _, tt := range tests {
		n, r, err := parseGoalArgs(tt.args)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseGoalArgs(%q) error = %v, wantErr %v", tt.args, err, tt.wantErr)
			continue
		}
		if err != nil {
			if !errors.Is(err, errUsage) {
				t.Errorf("parseGoalArgs(%q) error = %v, want errUsage", tt.args, err)
			}
			continue
		}
		if n != tt.newN || r != tt.reviewN {
			t.Errorf("parseGoalArgs(%q) = %d, %d, want %d, %d", tt.args, n, r, tt.newN, tt.reviewN)
		}
	}
}

func TestParseLearnArgs(t *testing.T) {
	tests := []struct {
		args    string
		book    string
		n       int
		wantErr bool
	}{
		{"", "", 0, false},
		{"Basics", "Basics", 0, false},
		{"Basics 5", "Basics", 5, false},
		{"Travel phrases 3", "Travel phrases", 3, false},
		{"Basics 0", "", 0, true},
	}
	for _, tt := range tests {
		book, n, err := parseLearnArgs(tt.args)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseLearnArgs(%q) error = %v, wantErr %v", tt.args, err, tt.wantErr)
			continue
		}
		if book != tt.book || n != tt.n {
			t.Errorf("parseLearnArgs(%q) = %q, %d, want %q, %d", tt.args, book, n, tt.book, tt.n)
		}
	}
}

func TestReviewCallbackRoundTrip(t *testing.T) {
	for _, remembered := range []bool{true, false} {
		data := reviewCallbackData(remembered, "look:up")
		got, item, ok := parseReviewCallback(data)
		if !ok || got != remembered || item != "look:up" {
			t.Errorf("parseReviewCallback(%q) = %v, %q, %v", data, got, item, ok)
		}
	}

	for _, bad := range []string{"", "review", "rev:", "rev:1:", "rev:2:apple", "rev:1"} {
		if _, _, ok := parseReviewCallback(bad); ok {
			t.Errorf("parseReviewCallback(%q) ok = true, want false", bad)
		}
	}
}

func TestReminderText(t *testing.T) {
	if got := reminderText(1); !strings.Contains(got, "1 item ") {
		t.Errorf("reminderText(1) = %q", got)
	}
	if got := reminderText(4); !strings.Contains(got, "4 items") {
		t.Errorf("reminderText(4) = %q", got)
	}
}

func TestFormatToday(t *testing.T) {
	got := formatToday(&models.ClockIn{
		Date:                 "2025-03-10",
		Status:               true,
		NewItemsCompleted:    3,
		NewItemsTarget:       2,
		ReviewItemsCompleted: 1,
		ReviewItemsTarget:    0,
		StreakDays:           4,
	})
	for _, want := range []string{"2025-03-10", "done", "New: 3/2", "Reviews: 1/0", "Streak: 4 days"} {
		if !strings.Contains(got, want) {
			t.Errorf("formatToday() = %q, missing %q", got, want)
		}
	}
}

func TestFormatWeek(t *testing.T) {
	got := formatWeek([]clockin.DaySummary{
		{Date: "2025-03-09", Status: true},
		{Date: "2025-03-10"},
	})
	lines := strings.Split(got, "\n")
	if len(lines) != 3 {
		t.Fatalf("formatWeek() has %d lines, want 3:\n%s", len(lines), got)
	}
	if !strings.HasPrefix(lines[1], "✅ 2025-03-09") || !strings.HasPrefix(lines[2], "⬜ 2025-03-10") {
		t.Errorf("formatWeek() = %q", got)
	}
}
