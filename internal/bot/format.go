package bot

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/example/wordtrail/internal/clockin"
	"github.com/example/wordtrail/internal/excel"
	"github.com/example/wordtrail/pkg/models"
)

var errUsage = errors.New("usage")

const reviewCallbackPrefix = "rev:"

const helpText = `Welcome to WordTrail! 🎓

/books - list books
/learn <book> [count] - start learning new items
/review [book] - review what is due today
/due - how many reviews are waiting
/goal [new review] - show or set daily goals
/today - today's progress
/checkin - clock in when goals are met
/week - last 7 days
/stats - overall progress
/remind on|off - daily reminders`

// userKey maps a Telegram user to an engine user id.
func userKey(telegramID int64) string {
	return "tg:" + strconv.FormatInt(telegramID, 10)
}

func usageMessage(err error) string {
	return err.Error()
}

// parseGoalArgs parses "<new> <review>".
func parseGoalArgs(args string) (int, int, error) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("%w: /goal <new items> <review items>", errUsage)
	}
	newItems, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: /goal <new items> <review items>", errUsage)
	}
	reviewItems, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: /goal <new items> <review items>", errUsage)
	}
	return newItems, reviewItems, nil
}

// parseLearnArgs splits "<book name> [count]". The count is optional and
// 0 when absent.
func parseLearnArgs(args string) (string, int, error) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return "", 0, nil
	}
	last := fields[len(fields)-1]
	n, err := strconv.Atoi(last)
	if err != nil {
		return strings.Join(fields, " "), 0, nil
	}
	if n <= 0 {
		return "", 0, fmt.Errorf("%w: count must be positive", errUsage)
	}
	return strings.Join(fields[:len(fields)-1], " "), n, nil
}

func reviewCallbackData(remembered bool, itemID string) string {
	flag := "0"
	if remembered {
		flag = "1"
	}
	return reviewCallbackPrefix + flag + ":" + itemID
}

func parseReviewCallback(data string) (bool, string, bool) {
	rest, ok := strings.CutPrefix(data, reviewCallbackPrefix)
	if !ok {
		return false, "", false
	}
	flag, itemID, ok := strings.Cut(rest, ":")
	if !ok || itemID == "" {
		return false, "", false
	}
	switch flag {
	case "1":
		return true, itemID, true
	case "0":
		return false, itemID, true
	}
	return false, "", false
}

func reminderText(count int) string {
	noun := "items"
	if count == 1 {
		noun = "item"
	}
	return fmt.Sprintf("⏰ You have %d %s waiting for review!", count, noun)
}

func boolToEnabledString(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}

func formatBooks(books []models.Book) string {
	if len(books) == 0 {
		return "No books yet."
	}
	var sb strings.Builder
	sb.WriteString("📚 Books:\n")
	for _, book := range books {
		fmt.Fprintf(&sb, "- %s\n", book.Name)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatLearned(bookName string, items []string) string {
	return fmt.Sprintf("📖 Started %d new items from %s:\n%s", len(items), bookName, strings.Join(items, "\n"))
}

func formatReviewResult(p *models.Progress, remembered bool) string {
	mark := "✅"
	if !remembered {
		mark = "❌"
	}
	return fmt.Sprintf("%s %s: proficiency %.0f%%, next review %s",
		mark, p.ItemID, p.Proficiency*100, p.NextReviewTime.Format("2006-01-02"))
}

func formatGoal(goal *models.LearningGoal) string {
	return fmt.Sprintf("🎯 Daily goal: %d new, %d reviews", goal.DailyNewItemsGoal, goal.DailyReviewItemsGoal)
}

func formatToday(c *models.ClockIn) string {
	status := "⏳ in progress"
	if c.Status {
		status = "✅ done"
	}
	return fmt.Sprintf("📅 %s %s\nNew: %d/%d\nReviews: %d/%d\nStreak: %d days",
		c.Date, status,
		c.NewItemsCompleted, c.NewItemsTarget,
		c.ReviewItemsCompleted, c.ReviewItemsTarget,
		c.StreakDays)
}

func formatWeek(history []clockin.DaySummary) string {
	var sb strings.Builder
	sb.WriteString("🗓 Last 7 days:\n")
	for _, d := range history {
		mark := "⬜"
		if d.Status {
			mark = "✅"
		}
		fmt.Fprintf(&sb, "%s %s  new %d/%d  reviews %d/%d\n", mark, d.Date,
			d.NewItemsCompleted, d.NewItemsTarget, d.ReviewItemsCompleted, d.ReviewItemsTarget)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatStats(stats *models.ProgressStats, streak int) string {
	return fmt.Sprintf("📊 Your progress\nLearned: %d\nMastered: %d\nStill learning: %d\nAverage proficiency: %.0f%%\nStreak: %d days",
		stats.LearnedItems, stats.MasteredItems, stats.LearningItems, stats.AverageProficiency*100, streak)
}

func formatImport(r *excel.ImportResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "✅ Import finished:\n- Rows: %d\n- Books created: %d\n- Items added: %d\n- Skipped: %d\n",
		r.TotalProcessed, r.BooksCreated, r.ItemsAdded, r.Skipped)
	if len(r.BookIDs) > 0 {
		names := make([]string, 0, len(r.BookIDs))
		for name := range r.BookIDs {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Fprintf(&sb, "- Books: %s\n", strings.Join(names, ", "))
	}
	if len(r.Errors) > 0 {
		fmt.Fprintf(&sb, "\n❌ Errors (%d):\n", len(r.Errors))
		for _, e := range r.Errors {
			sb.WriteString("- " + e + "\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}
