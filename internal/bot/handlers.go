package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/example/wordtrail/internal/learning"
	"github.com/example/wordtrail/pkg/models"
)

// Constants for callback data
const (
	callbackReview = "review"
	callbackDue    = "due"
	callbackToday  = "today"
	callbackStats  = "stats"
)

const defaultLearnBatch = 10

// reviewSession is the queue of items a user is reviewing right now.
type reviewSession struct {
	bookID string
	items  []string
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	var err error
	switch {
	case update.Message != nil:
		err = b.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		err = b.handleCallback(ctx, update.CallbackQuery)
	}
	if err != nil {
		b.logger.Error("update failed", zap.Int("update_id", update.UpdateID), zap.Error(err))
	}
}

// handleMessage handles commands and uploads
func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) error {
	if message == nil || message.From == nil || message.Chat == nil {
		return fmt.Errorf("invalid message: required fields are missing")
	}
	chatID := message.Chat.ID

	if !message.IsCommand() {
		if message.Document != nil {
			return b.handleUpload(ctx, message)
		}
		b.replyWithMenu(chatID, "I don't understand. Use /help to see the commands.")
		return nil
	}

	if err := b.registerUser(ctx, message.From.ID, chatID); err != nil {
		return err
	}
	userID := userKey(message.From.ID)
	args := strings.TrimSpace(message.CommandArguments())

	var err error
	switch message.Command() {
	case "start", "help":
		b.replyWithMenu(chatID, helpText)
	case "menu":
		b.replyWithMenu(chatID, "Main menu")
	case "books":
		err = b.handleBooks(ctx, chatID)
	case "learn":
		err = b.handleLearn(ctx, chatID, userID, args)
	case "review":
		err = b.startReview(ctx, chatID, message.From.ID, args)
	case "due":
		err = b.handleDue(ctx, chatID, userID)
	case "goal":
		err = b.handleGoal(ctx, chatID, userID, args)
	case "today":
		err = b.handleToday(ctx, chatID, userID)
	case "checkin":
		err = b.handleCheckIn(ctx, chatID, userID)
	case "week":
		err = b.handleWeek(ctx, chatID, userID)
	case "stats":
		err = b.handleStats(ctx, chatID, userID)
	case "remind":
		err = b.handleRemind(ctx, chatID, userID, args)
	case "import":
		b.handleImportCommand(message.From.ID, chatID, args)
	default:
		b.replyWithMenu(chatID, "Unknown command. Use /help to see the commands.")
	}
	return b.userFacing(chatID, err)
}

// userFacing turns invalid input into a reply and passes other errors on.
func (b *Bot) userFacing(chatID int64, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, learning.ErrInvalidArgument), errors.Is(err, errUsage):
		b.reply(chatID, "❌ "+usageMessage(err))
		return nil
	case errors.Is(err, learning.ErrCollectionNotFound):
		b.reply(chatID, "❌ Book not found. Use /books to list them.")
		return nil
	case errors.Is(err, learning.ErrNotFound):
		b.reply(chatID, "❌ You have not started learning this item yet.")
		return nil
	}
	b.reply(chatID, "❌ Something went wrong, please try again later.")
	return err
}

func (b *Bot) registerUser(ctx context.Context, telegramID, chatID int64) error {
	// Upsert keeps the reminder flag of known users.
	u := &models.User{ID: userKey(telegramID), ChatID: chatID, RemindersEnabled: true, CreatedAt: time.Now()}
	if err := b.deps.Users.Upsert(ctx, u); err != nil {
		return fmt.Errorf("register user %d: %w", telegramID, err)
	}
	return nil
}

func (b *Bot) handleBooks(ctx context.Context, chatID int64) error {
	books, err := b.deps.Books.List(ctx)
	if err != nil {
		return err
	}
	b.reply(chatID, formatBooks(books))
	return nil
}

func (b *Bot) handleLearn(ctx context.Context, chatID int64, userID, args string) error {
	name, n, err := parseLearnArgs(args)
	if err != nil {
		return err
	}
	book, err := b.resolveBook(ctx, name)
	if err != nil {
		return err
	}
	if n == 0 {
		goal, err := b.deps.Aggregator.GetGoal(ctx, userID)
		if err != nil {
			return err
		}
		n = goal.DailyNewItemsGoal
		if n == 0 {
			n = defaultLearnBatch
		}
	}

	items, err := b.deps.Reviews.NewItems(ctx, userID, book.ID, n)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		b.replyWithMenu(chatID, fmt.Sprintf("🎉 You have started every item of %s.", book.Name))
		return nil
	}
	for _, item := range items {
		if _, err := b.deps.Tracker.StartLearning(ctx, userID, item); err != nil {
			return err
		}
	}
	b.replyWithMenu(chatID, formatLearned(book.Name, items))
	return nil
}

func (b *Bot) startReview(ctx context.Context, chatID, telegramID int64, args string) error {
	userID := userKey(telegramID)
	var bookID string
	if args != "" {
		book, err := b.resolveBook(ctx, args)
		if err != nil {
			return err
		}
		bookID = book.ID
	}

	due, err := b.deps.Reviews.DueToday(ctx, userID, bookID)
	if err != nil {
		return err
	}
	if len(due) == 0 {
		b.replyWithMenu(chatID, "✅ Nothing to review right now.")
		return nil
	}

	s := &reviewSession{bookID: bookID, items: make([]string, 0, len(due))}
	for _, p := range due {
		s.items = append(s.items, p.ItemID)
	}
	b.mu.Lock()
	b.sessions[telegramID] = s
	b.mu.Unlock()

	b.reply(chatID, fmt.Sprintf("📚 %d items to review.", len(s.items)))
	b.promptReview(chatID, s.items[0])
	return nil
}

func (b *Bot) promptReview(chatID int64, itemID string) {
	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("Do you remember «%s»?", itemID))
	msg.ReplyMarkup = createKeyboard([][]MenuButton{{
		{Text: "✅ Remembered", CallbackData: reviewCallbackData(true, itemID)},
		{Text: "❌ Forgot", CallbackData: reviewCallbackData(false, itemID)},
	}})
	if _, err := b.out.Send(msg); err != nil {
		b.logger.Warn("send failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// answerReview records one answer and moves the session forward.
func (b *Bot) answerReview(ctx context.Context, chatID, telegramID int64, itemID string, remembered bool) error {
	userID := userKey(telegramID)
	p, err := b.deps.Tracker.RecordReview(ctx, userID, itemID, remembered)
	if err != nil {
		return err
	}

	b.mu.Lock()
	var next string
	s := b.sessions[telegramID]
	if s != nil {
		s.items = removeItem(s.items, itemID)
		if len(s.items) > 0 {
			next = s.items[0]
		} else {
			delete(b.sessions, telegramID)
		}
	}
	b.mu.Unlock()

	b.reply(chatID, formatReviewResult(p, remembered))
	if next != "" {
		b.promptReview(chatID, next)
		return nil
	}

	rec, ok, err := b.deps.Aggregator.TryClockIn(ctx, userID)
	if err != nil {
		return err
	}
	if ok {
		b.replyWithMenu(chatID, fmt.Sprintf("🔥 Daily goals reached! Streak: %d days.", rec.StreakDays))
		return nil
	}
	b.replyWithMenu(chatID, "Review finished.\n\n"+formatToday(rec))
	return nil
}

func (b *Bot) handleDue(ctx context.Context, chatID int64, userID string) error {
	today, err := b.deps.Reviews.DueTodayCount(ctx, userID, "")
	if err != nil {
		return err
	}
	overdue, err := b.deps.Reviews.OverdueCount(ctx, userID, "")
	if err != nil {
		return err
	}
	b.replyWithMenu(chatID, fmt.Sprintf("📅 Due today: %d\n⏰ Overdue now: %d", today, overdue))
	return nil
}

func (b *Bot) handleGoal(ctx context.Context, chatID int64, userID, args string) error {
	if args == "" {
		goal, err := b.deps.Aggregator.GetGoal(ctx, userID)
		if err != nil {
			return err
		}
		b.reply(chatID, formatGoal(goal))
		return nil
	}
	newItems, reviewItems, err := parseGoalArgs(args)
	if err != nil {
		return err
	}
	goal, err := b.deps.Aggregator.SetGoal(ctx, userID, newItems, reviewItems)
	if err != nil {
		return err
	}
	b.reply(chatID, "✅ Goal saved. It applies from tomorrow.\n\n"+formatGoal(goal))
	return nil
}

func (b *Bot) handleToday(ctx context.Context, chatID int64, userID string) error {
	rec, err := b.deps.Aggregator.Refresh(ctx, userID)
	if err != nil {
		return err
	}
	b.replyWithMenu(chatID, formatToday(rec))
	return nil
}

func (b *Bot) handleCheckIn(ctx context.Context, chatID int64, userID string) error {
	rec, ok, err := b.deps.Aggregator.TryClockIn(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		b.reply(chatID, "Not yet!\n\n"+formatToday(rec))
		return nil
	}
	b.reply(chatID, fmt.Sprintf("🔥 Clocked in. Streak: %d days.", rec.StreakDays))
	return nil
}

func (b *Bot) handleWeek(ctx context.Context, chatID int64, userID string) error {
	history, err := b.deps.Aggregator.WeeklyHistory(ctx, userID)
	if err != nil {
		return err
	}
	b.reply(chatID, formatWeek(history))
	return nil
}

func (b *Bot) handleStats(ctx context.Context, chatID int64, userID string) error {
	stats, err := b.deps.Tracker.UserStats(ctx, userID)
	if err != nil {
		return err
	}
	today, err := b.deps.Aggregator.Stats(ctx, userID)
	if err != nil {
		return err
	}
	b.replyWithMenu(chatID, formatStats(stats, today.StreakDays))
	return nil
}

func (b *Bot) handleRemind(ctx context.Context, chatID int64, userID, args string) error {
	var enabled bool
	switch strings.ToLower(args) {
	case "on":
		enabled = true
	case "off":
	default:
		return fmt.Errorf("%w: /remind on|off", errUsage)
	}
	if err := b.deps.Users.SetReminders(ctx, userID, enabled); err != nil {
		return err
	}
	b.reply(chatID, "🔔 Reminders "+boolToEnabledString(enabled)+".")
	return nil
}

// handleCallback handles button presses
func (b *Bot) handleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	if callback.From == nil || callback.Message == nil || callback.Message.Chat == nil {
		return fmt.Errorf("invalid callback: required fields are missing")
	}
	chatID := callback.Message.Chat.ID
	if _, err := b.out.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		b.logger.Debug("callback answer failed", zap.Error(err))
	}
	if err := b.registerUser(ctx, callback.From.ID, chatID); err != nil {
		return err
	}
	userID := userKey(callback.From.ID)

	var err error
	switch callback.Data {
	case callbackReview:
		err = b.startReview(ctx, chatID, callback.From.ID, "")
	case callbackDue:
		err = b.handleDue(ctx, chatID, userID)
	case callbackToday:
		err = b.handleToday(ctx, chatID, userID)
	case callbackStats:
		err = b.handleStats(ctx, chatID, userID)
	default:
		remembered, itemID, ok := parseReviewCallback(callback.Data)
		if !ok {
			return fmt.Errorf("unknown callback %q", callback.Data)
		}
		err = b.answerReview(ctx, chatID, callback.From.ID, itemID, remembered)
	}
	return b.userFacing(chatID, err)
}

// resolveBook finds a book by id or case-insensitive name. An empty
// name is accepted when exactly one book exists.
func (b *Bot) resolveBook(ctx context.Context, name string) (*models.Book, error) {
	books, err := b.deps.Books.List(ctx)
	if err != nil {
		return nil, err
	}
	if name == "" {
		if len(books) == 1 {
			return &books[0], nil
		}
		return nil, fmt.Errorf("%w: /learn <book> [count]", errUsage)
	}
	for i := range books {
		if books[i].ID == name || strings.EqualFold(books[i].Name, name) {
			return &books[i], nil
		}
	}
	return nil, fmt.Errorf("book %q: %w", name, learning.ErrCollectionNotFound)
}

func removeItem(items []string, itemID string) []string {
	for i, it := range items {
		if it == itemID {
			return append(items[:i], items[i+1:]...)
		}
	}
	return items
}
