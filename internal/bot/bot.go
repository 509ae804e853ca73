package bot

import (
	"context"
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/example/wordtrail/internal/clockin"
	"github.com/example/wordtrail/internal/excel"
	"github.com/example/wordtrail/internal/learning"
	"github.com/example/wordtrail/pkg/models"
)

// MenuButton represents a button in the menu
type MenuButton struct {
	Text         string
	CallbackData string
}

// createKeyboard creates a keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// sender is the part of the Telegram API the handlers use.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// UserStore keeps the chat users known to the bot.
type UserStore interface {
	Upsert(ctx context.Context, u *models.User) error
	SetReminders(ctx context.Context, id string, enabled bool) error
}

// BookLister lists the books users can learn from.
type BookLister interface {
	List(ctx context.Context) ([]models.Book, error)
}

// Importer loads books from uploaded spreadsheets.
type Importer interface {
	Import(ctx context.Context, cfg excel.ImportConfig) (*excel.ImportResult, error)
}

// Deps are the services the bot talks to. Importer may be nil.
type Deps struct {
	Tracker    *learning.Tracker
	Reviews    *learning.ReviewScheduler
	Aggregator *clockin.Aggregator
	Users      UserStore
	Books      BookLister
	Importer   Importer
}

// Bot represents the Telegram bot application
type Bot struct {
	api    *tgbotapi.BotAPI
	out    sender
	deps   Deps
	admins map[int64]bool
	logger *zap.Logger

	mu       sync.Mutex
	sessions map[int64]*reviewSession // by Telegram user id
	awaiting map[int64]string         // admin chat -> target book for the next upload
}

// New creates a bot authorized with token.
func New(token string, adminIDs []int64, deps Deps, logger *zap.Logger) (*Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram token is empty")
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("unable to create bot: %w", err)
	}
	b := newBot(api, adminIDs, deps, logger)
	b.api = api
	b.logger.Info("authorized on account", zap.String("username", api.Self.UserName))
	return b, nil
}

func newBot(out sender, adminIDs []int64, deps Deps, logger *zap.Logger) *Bot {
	if logger == nil {
		logger = zap.NewNop()
	}
	admins := make(map[int64]bool, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = true
	}
	return &Bot{
		out:      out,
		deps:     deps,
		admins:   admins,
		logger:   logger.Named("bot"),
		sessions: make(map[int64]*reviewSession),
		awaiting: make(map[int64]string),
	}
}

// Run polls for updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	if b.api == nil {
		return fmt.Errorf("bot is not connected")
	}
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logger.Info("bot stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

// SendReminders implements the scheduler.Notifier interface
func (b *Bot) SendReminders(chatID int64, count int) error {
	msg := tgbotapi.NewMessage(chatID, reminderText(count))
	msg.ReplyMarkup = createKeyboard([][]MenuButton{{{Text: "Start review", CallbackData: callbackReview}}})
	if _, err := b.out.Send(msg); err != nil {
		b.logger.Warn("reminder not sent", zap.Int64("chat_id", chatID), zap.Error(err))
		return err
	}
	b.logger.Debug("reminder sent", zap.Int64("chat_id", chatID), zap.Int("count", count))
	return nil
}

func (b *Bot) isAdmin(userID int64) bool {
	return b.admins[userID]
}

func (b *Bot) reply(chatID int64, text string) {
	if _, err := b.out.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.logger.Warn("send failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *Bot) replyWithMenu(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = createKeyboard(mainMenuButtons())
	if _, err := b.out.Send(msg); err != nil {
		b.logger.Warn("send failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func mainMenuButtons() [][]MenuButton {
	return [][]MenuButton{
		{{Text: "Review", CallbackData: callbackReview}, {Text: "Due", CallbackData: callbackDue}},
		{{Text: "Today", CallbackData: callbackToday}, {Text: "Stats", CallbackData: callbackStats}},
	}
}
