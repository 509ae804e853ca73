package bot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/wordtrail/internal/excel"
)

// handleImportCommand arms the chat for one spreadsheet upload. Admin only.
func (b *Bot) handleImportCommand(telegramID, chatID int64, bookName string) {
	if !b.isAdmin(telegramID) || b.deps.Importer == nil {
		b.replyWithMenu(chatID, "This command is only available for administrators.")
		return
	}
	b.mu.Lock()
	b.awaiting[chatID] = bookName
	b.mu.Unlock()
	b.reply(chatID, "📎 Send an .xlsx or .csv file. Column A holds items, column B the book name.")
}

func (b *Bot) handleUpload(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID
	b.mu.Lock()
	bookName, ok := b.awaiting[chatID]
	delete(b.awaiting, chatID)
	b.mu.Unlock()
	if !ok || !b.isAdmin(message.From.ID) {
		b.replyWithMenu(chatID, "Use /import before sending a file.")
		return nil
	}

	ext := strings.ToLower(filepath.Ext(message.Document.FileName))
	if ext != ".xlsx" && ext != ".csv" {
		b.reply(chatID, "❌ Only .xlsx and .csv files are supported.")
		return nil
	}

	path, err := b.download(ctx, message.Document.FileID, ext)
	if err != nil {
		return err
	}
	defer os.Remove(path)

	cfg := excel.DefaultImportConfig()
	cfg.FilePath = path
	cfg.BookName = bookName
	cfg.SheetName = ""
	result, err := b.deps.Importer.Import(ctx, cfg)
	if err != nil {
		return fmt.Errorf("import %s: %w", message.Document.FileName, err)
	}
	b.replyWithMenu(chatID, formatImport(result))
	return nil
}

// download saves a Telegram file to a temporary path.
func (b *Bot) download(ctx context.Context, fileID, ext string) (string, error) {
	url, err := b.out.GetFileDirectURL(fileID)
	if err != nil {
		return "", fmt.Errorf("get file url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download file: status %d", resp.StatusCode)
	}

	f, err := os.CreateTemp("", "wordtrail-import-*"+ext)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("save file: %w", err)
	}
	return f.Name(), nil
}
