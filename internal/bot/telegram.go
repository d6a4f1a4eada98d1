// file: internal/bot/telegram.go
// version: 1.2.0
// guid: 0e2f4a6b-8c0d-4e2f-8a4b-6c8d0e2f4a6c

package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vgrab/video-downloader-bot/internal/metrics"
	"github.com/vgrab/video-downloader-bot/internal/notify"
)

// TelegramMessenger adapts the Bot API client to the Messenger interface,
// translating its error shapes into the sentinels the notifier understands.
type TelegramMessenger struct {
	api *tgbotapi.BotAPI
}

func NewTelegramMessenger(api *tgbotapi.BotAPI) *TelegramMessenger {
	return &TelegramMessenger{api: api}
}

func (t *TelegramMessenger) SendText(_ context.Context, chatID int64, text string) (notify.MessageRef, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	sent, err := t.api.Send(msg)
	if err != nil {
		return notify.MessageRef{}, translateError(err)
	}
	return notify.MessageRef{ChatID: chatID, MessageID: sent.MessageID}, nil
}

func (t *TelegramMessenger) EditText(_ context.Context, ref notify.MessageRef, text string) error {
	edit := tgbotapi.NewEditMessageText(ref.ChatID, ref.MessageID, text)
	if _, err := t.api.Request(edit); err != nil {
		return translateError(err)
	}
	return nil
}

func (t *TelegramMessenger) DeleteMessage(_ context.Context, ref notify.MessageRef) error {
	del := tgbotapi.NewDeleteMessage(ref.ChatID, ref.MessageID)
	if _, err := t.api.Request(del); err != nil {
		return translateError(err)
	}
	return nil
}

func (t *TelegramMessenger) SendFile(_ context.Context, chatID int64, upload FileUpload) error {
	f, err := os.Open(upload.Path)
	if err != nil {
		return fmt.Errorf("failed to open upload file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat upload file: %w", err)
	}

	reader := &countingReader{r: f, total: info.Size(), report: upload.Progress}
	file := tgbotapi.FileReader{Name: filepath.Base(upload.Path), Reader: reader}

	var chattable tgbotapi.Chattable
	switch upload.Kind {
	case FileVideo:
		cfg := tgbotapi.NewVideo(chatID, file)
		cfg.Caption = upload.Caption
		cfg.SupportsStreaming = true
		chattable = cfg
	case FileAudio:
		cfg := tgbotapi.NewAudio(chatID, file)
		cfg.Caption = upload.Caption
		chattable = cfg
	default:
		cfg := tgbotapi.NewDocument(chatID, file)
		cfg.Caption = upload.Caption
		chattable = cfg
	}

	if _, err := t.api.Send(chattable); err != nil {
		return translateError(err)
	}
	return nil
}

// translateError maps Bot API failures onto the notifier's sentinels:
// retry-after responses become FloodWaitError, no-op edit rejections become
// ErrNotModified.
func translateError(err error) error {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.RetryAfter > 0 {
			metrics.FloodWait()
			return &notify.FloodWaitError{RetryAfter: time.Duration(apiErr.RetryAfter) * time.Second}
		}
		if strings.Contains(strings.ToLower(apiErr.Message), "message is not modified") {
			return notify.ErrNotModified
		}
	}
	return err
}

// countingReader reports cumulative read progress while the API client
// streams the file body.
type countingReader struct {
	r      io.Reader
	total  int64
	read   int64
	report func(current, total int64)
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.read += int64(n)
		if c.report != nil {
			c.report(c.read, c.total)
		}
	}
	return n, err
}
