// file: internal/bot/handlers.go
// version: 1.6.0
// guid: 2a4b6c8d-0e2f-4a4b-8c6d-8e0f2a4b6c8e

package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vgrab/video-downloader-bot/internal/admission"
	"github.com/vgrab/video-downloader-bot/internal/classify"
	"github.com/vgrab/video-downloader-bot/internal/config"
	"github.com/vgrab/video-downloader-bot/internal/dispatch"
	"github.com/vgrab/video-downloader-bot/internal/metrics"
	"github.com/vgrab/video-downloader-bot/internal/notify"
	"github.com/vgrab/video-downloader-bot/internal/storage"
)

// pendingTTL bounds how long a format menu stays answerable.
const pendingTTL = 5 * time.Minute

const helpText = `Send me a link and I will download the video and send it back.

Supported sources:
• Direct file links (mp4, webm, mp3, ...)
• YouTube (you pick the quality, or /audio for mp3)
• Instagram, TikTok, Twitter/X, Facebook, Reddit, Vimeo and more

Commands:
/start — welcome message
/help — this message
/stats — bot status (admins)
/cleanup — remove old files (admins)`

// Bot routes incoming chat updates into the download pipeline.
type Bot struct {
	cfg        *config.Config
	msgr       Messenger
	notifier   *notify.Notifier
	classifier *classify.Classifier
	ledger     *admission.Ledger
	recent     *admission.RecentURLCache
	dispatcher *dispatch.Dispatcher
	store      *storage.Manager
	started    time.Time

	mu      sync.Mutex
	pending map[int64]*pendingChoice
}

// pendingChoice parks a YouTube session while the user picks a format.
type pendingChoice struct {
	sess      *dispatch.Session
	menu      *dispatch.FormatMenu
	createdAt time.Time
}

// New wires the bot together. The messenger doubles as the notifier's
// editor so progress edits share the transport.
func New(cfg *config.Config, msgr Messenger, dispatcher *dispatch.Dispatcher, classifier *classify.Classifier, store *storage.Manager) *Bot {
	return &Bot{
		cfg:        cfg,
		msgr:       msgr,
		notifier:   notify.New(msgr),
		classifier: classifier,
		ledger:     admission.NewLedger(cfg.MaxConcurrentDownloads, cfg.MaxDownloadsPerUser),
		recent:     admission.NewRecentURLCache(),
		dispatcher: dispatcher,
		store:      store,
		started:    time.Now(),
		pending:    make(map[int64]*pendingChoice),
	}
}

// Ledger exposes admission counters for the status server.
func (b *Bot) Ledger() *admission.Ledger { return b.ledger }

// Uptime reports how long the bot has been running.
func (b *Bot) Uptime() time.Duration { return time.Since(b.started) }

// Run consumes the update channel until the context ends.
func (b *Bot) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate processes one incoming update. Messages posted in channels
// have no sender; the chat ID stands in for the user there.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Text == "" {
		return
	}
	chatID := msg.Chat.ID
	userID := chatID
	if msg.From != nil {
		userID = msg.From.ID
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, chatID, userID, msg.Command())
		return
	}

	text := strings.TrimSpace(msg.Text)
	if b.hasPending(userID) {
		if n, err := strconv.Atoi(text); err == nil {
			b.handleFormatChoice(ctx, chatID, userID, n, false)
			return
		}
	}
	if url := extractURL(text); url != "" {
		b.handleURL(ctx, chatID, userID, url)
		return
	}
	b.reply(ctx, chatID, "Send me a video link to download. Use /help for details.")
}

func (b *Bot) handleCommand(ctx context.Context, chatID, userID int64, command string) {
	switch command {
	case "start":
		b.reply(ctx, chatID, "👋 Hi! Send me a video link and I will download it for you.\n\nUse /help to see what I can do.")
	case "help":
		b.reply(ctx, chatID, helpText)
	case "audio":
		b.handleFormatChoice(ctx, chatID, userID, 0, true)
	case "stats":
		b.handleStats(ctx, chatID, userID)
	case "cleanup":
		b.handleCleanup(ctx, chatID, userID)
	default:
		// Telegram treats "/1" as a command, so numbered format picks
		// arrive here rather than as plain text.
		if n, err := strconv.Atoi(command); err == nil {
			b.handleFormatChoice(ctx, chatID, userID, n, false)
			return
		}
		b.reply(ctx, chatID, "Unknown command. Use /help to see what I can do.")
	}
}

func (b *Bot) handleStats(ctx context.Context, chatID, userID int64) {
	if !b.cfg.IsAdmin(userID) {
		b.reply(ctx, chatID, "This command is for admins only.")
		return
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 Bot status:\n")
	fmt.Fprintf(&sb, "• Active downloads: %d\n", b.ledger.ActiveTotal())
	fmt.Fprintf(&sb, "• Active users: %d\n", b.ledger.Users())
	fmt.Fprintf(&sb, "• Stored files: %d\n", b.store.FileCount())
	fmt.Fprintf(&sb, "• Uptime: %s\n", b.Uptime().Round(time.Second))
	if free, err := b.store.FreeSpaceGB(); err == nil {
		fmt.Fprintf(&sb, "• Free disk: %.1f GB\n", free)
	}
	b.reply(ctx, chatID, sb.String())
}

func (b *Bot) handleCleanup(ctx context.Context, chatID, userID int64) {
	if !b.cfg.IsAdmin(userID) {
		b.reply(ctx, chatID, "This command is for admins only.")
		return
	}
	age := time.Duration(b.cfg.CleanupAgeHours) * time.Hour
	removed, err := b.store.Cleanup(age)
	if err != nil {
		b.reply(ctx, chatID, fmt.Sprintf("Cleanup finished with errors: %v", err))
		return
	}
	b.updateGauges()
	b.reply(ctx, chatID, fmt.Sprintf("🧹 Cleanup done, removed %d file(s).", removed))
}

// handleURL takes a link through dedup, classification and admission, then
// starts the download in the background.
func (b *Bot) handleURL(ctx context.Context, chatID, userID int64, url string) {
	if b.recent.SeenRecently(url) {
		metrics.DuplicateSuppressed()
		log.Printf("[INFO] dropping duplicate URL from user %d", userID)
		return
	}

	source, err := b.classifier.Classify(url)
	if err != nil {
		b.reply(ctx, chatID, "❌ "+classifyMessage(err))
		return
	}

	tok, err := b.ledger.TryAdmit(userID, b.cfg.IsAuthorized(userID), b.cfg.IsAdmin(userID))
	if err != nil {
		b.reply(ctx, chatID, "❌ "+admissionMessage(err, b.cfg.MaxConcurrentDownloads, b.cfg.MaxDownloadsPerUser))
		return
	}

	// direct links are verified with a HEAD probe before any transfer
	if source == classify.SourceDirect {
		if cerr := b.classifier.CheckDirectURL(ctx, url); cerr != nil {
			b.ledger.Refund(tok)
			b.reply(ctx, chatID, "❌ "+classifyMessage(cerr))
			return
		}
	}

	status, err := b.msgr.SendText(ctx, chatID, "⏳ Processing your link...")
	if err != nil {
		b.ledger.Refund(tok)
		log.Printf("[ERROR] failed to send status message: %v", err)
		return
	}

	sess := dispatch.NewSession(userID, url, source)
	sess.StatusMessage = status
	b.updateGauges()

	go b.backgroundCleanup()
	go b.run(ctx, chatID, sess, tok, nil)
}

// handleFormatChoice resumes a parked YouTube session with the user's
// selection: a 1-based menu number or the audio-only shortcut.
func (b *Bot) handleFormatChoice(ctx context.Context, chatID, userID int64, number int, audioOnly bool) {
	p := b.takePending(userID)
	if p == nil {
		b.reply(ctx, chatID, "There is no format choice waiting. Send a link first.")
		return
	}

	var sel dispatch.FormatSelection
	switch {
	case audioOnly:
		if !p.menu.HasAudio {
			b.setPending(userID, p)
			b.reply(ctx, chatID, "Audio-only download is not available for this video.")
			return
		}
		sel.AudioOnly = true
	case number >= 1 && number <= len(p.menu.Choices):
		c := p.menu.Choices[number-1]
		sel.FormatID = c.ID
		sel.Height = c.Height
	default:
		b.setPending(userID, p)
		b.reply(ctx, chatID, fmt.Sprintf("Please pick a number between 1 and %d, or /audio.", len(p.menu.Choices)))
		return
	}

	tok, err := b.ledger.TryAdmit(userID, b.cfg.IsAuthorized(userID), b.cfg.IsAdmin(userID))
	if err != nil {
		b.setPending(userID, p)
		b.reply(ctx, chatID, "❌ "+admissionMessage(err, b.cfg.MaxConcurrentDownloads, b.cfg.MaxDownloadsPerUser))
		return
	}

	b.updateGauges()
	_ = b.msgr.EditText(ctx, p.sess.StatusMessage, "⏳ Starting download...")
	go b.run(ctx, chatID, p.sess, tok, &sel)
}

// run executes one download attempt end to end. It always gives the
// admission slot back, including on panic.
func (b *Bot) run(ctx context.Context, chatID int64, sess *dispatch.Session, tok *admission.Token, sel *dispatch.FormatSelection) {
	released := false
	release := func() {
		if !released {
			released = true
			b.ledger.Release(tok)
			b.updateGauges()
		}
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[ERROR] panic while handling session %s: %v", sess.ID, r)
			release()
			_ = b.msgr.EditText(ctx, sess.StatusMessage, "❌ An unexpected error occurred. Please try again.")
		}
	}()

	metrics.DownloadStarted(sess.Category.String())
	downloadStart := time.Now()
	progress := func(current, total int64) {
		b.notifier.Report(ctx, sess.StatusMessage, notify.PhaseDownload, "⬇️ Downloading...", current, total, downloadStart)
	}

	out, err := b.dispatcher.Download(ctx, sess, sel, progress)
	if err != nil {
		release()
		metrics.DownloadFailed(sess.Category.String(), failureCategory(err))
		_ = b.msgr.EditText(ctx, sess.StatusMessage, "❌ "+userMessage(err))
		return
	}

	if out.Menu != nil {
		// parked for a format choice: hand the slot back so the wait
		// does not count against the user
		b.setPending(sess.UserID, &pendingChoice{sess: sess, menu: out.Menu, createdAt: time.Now()})
		b.ledger.Refund(tok)
		released = true
		b.updateGauges()
		_ = b.msgr.EditText(ctx, sess.StatusMessage, out.Menu.Render())
		return
	}

	b.deliver(ctx, chatID, sess, out)
	release()
}

// deliver uploads the finished file and removes it afterwards, success or
// not. The status message is deleted once the media message is out.
func (b *Bot) deliver(ctx context.Context, chatID int64, sess *dispatch.Session, out *dispatch.Outcome) {
	defer func() {
		b.store.RemoveWithSiblings(out.Path)
		b.updateGauges()
	}()

	uploadStart := time.Now()
	upload := FileUpload{
		Path:    out.Path,
		Kind:    KindForPath(out.Path),
		Caption: out.Title,
		Progress: func(current, total int64) {
			b.notifier.Report(ctx, sess.StatusMessage, notify.PhaseUpload, "⬆️ Uploading to Telegram...", current, total, uploadStart)
		},
	}
	if err := b.msgr.SendFile(ctx, chatID, upload); err != nil {
		metrics.DownloadFailed(sess.Category.String(), "upload")
		log.Printf("[ERROR] upload failed for session %s: %v", sess.ID, err)
		_ = b.msgr.EditText(ctx, sess.StatusMessage, "❌ Uploading the file to Telegram failed. Please try again.")
		return
	}

	metrics.DownloadCompleted(sess.Category.String())
	_ = b.msgr.DeleteMessage(ctx, sess.StatusMessage)
	log.Printf("[INFO] session %s delivered %s", sess.ID, out.Path)
}

// backgroundCleanup prunes expired files around each new download and
// reclaims space when the disk runs low.
func (b *Bot) backgroundCleanup() {
	age := time.Duration(b.cfg.CleanupAgeHours) * time.Hour
	if removed, err := b.store.Cleanup(age); err == nil && removed > 0 {
		log.Printf("[INFO] background cleanup removed %d file(s)", removed)
	}
	if _, err := b.store.EnsureFreeSpace(); err != nil {
		log.Printf("[WARN] free space check failed: %v", err)
	}
	b.updateGauges()
}

func (b *Bot) updateGauges() {
	metrics.SetActiveDownloads(b.ledger.ActiveTotal())
	metrics.SetActiveUsers(b.ledger.Users())
	metrics.SetStoredFiles(b.store.FileCount())
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	if _, err := b.msgr.SendText(ctx, chatID, text); err != nil {
		log.Printf("[ERROR] failed to send message to chat %d: %v", chatID, err)
	}
}

func (b *Bot) hasPending(userID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.pending[userID]
	return ok && time.Since(p.createdAt) <= pendingTTL
}

func (b *Bot) setPending(userID int64, p *pendingChoice) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending[userID] = p
}

func (b *Bot) takePending(userID int64) *pendingChoice {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.pending[userID]
	if !ok {
		return nil
	}
	delete(b.pending, userID)
	if time.Since(p.createdAt) > pendingTTL {
		return nil
	}
	return p
}

// extractURL returns the first http(s) token in the text, or empty.
func extractURL(text string) string {
	for _, field := range strings.Fields(text) {
		if strings.HasPrefix(field, "http://") || strings.HasPrefix(field, "https://") {
			return field
		}
	}
	return ""
}

func userMessage(err error) string {
	var derr *dispatch.DownloadError
	if errors.As(err, &derr) {
		return derr.Message
	}
	return "The download failed. Please try again later."
}

func failureCategory(err error) string {
	var derr *dispatch.DownloadError
	if errors.As(err, &derr) {
		return derr.Category.String()
	}
	return "internal"
}

func classifyMessage(err error) string {
	switch {
	case errors.Is(err, classify.ErrInvalidStructure):
		return "That does not look like a valid URL."
	case errors.Is(err, classify.ErrBlockedDomain):
		return "This domain is not allowed."
	case errors.Is(err, classify.ErrInvalidScheme):
		return "Only http and https links are supported."
	case errors.Is(err, classify.ErrInvalidFileType):
		return "This file type is not supported."
	case errors.Is(err, classify.ErrBadStatus):
		return "The file could not be reached at that URL."
	case errors.Is(err, classify.ErrBadContentType):
		return "The link does not point to a media file."
	case errors.Is(err, classify.ErrTooLarge):
		return "The file is too large to deliver over Telegram."
	default:
		return "The link could not be processed."
	}
}

func admissionMessage(err error, maxConcurrent, maxDaily int) string {
	switch {
	case errors.Is(err, admission.ErrNotAuthorized):
		return "You are not authorized to use this bot."
	case errors.Is(err, admission.ErrConcurrencyLimit):
		return fmt.Sprintf("You already have %d download(s) running. Please wait for them to finish.", maxConcurrent)
	case errors.Is(err, admission.ErrDailyLimit):
		return fmt.Sprintf("You have reached the daily limit of %d downloads. Try again tomorrow.", maxDaily)
	default:
		return "Your request could not be accepted right now."
	}
}
