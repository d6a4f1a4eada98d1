// file: cmd/serve.go
// version: 1.2.1
// guid: 4c6d8e0f-2a4b-4c6d-8e0f-2a4b6c8d0e2c

package cmd

import (
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"

	"github.com/vgrab/video-downloader-bot/internal/bot"
	"github.com/vgrab/video-downloader-bot/internal/classify"
	"github.com/vgrab/video-downloader-bot/internal/config"
	"github.com/vgrab/video-downloader-bot/internal/dispatch"
	"github.com/vgrab/video-downloader-bot/internal/extract"
	"github.com/vgrab/video-downloader-bot/internal/metrics"
	"github.com/vgrab/video-downloader-bot/internal/server"
	"github.com/vgrab/video-downloader-bot/internal/storage"
	"github.com/vgrab/video-downloader-bot/internal/watcher"
)

// serveCmd starts the bot and the status HTTP server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot",
	Long:  `Connect to Telegram, process incoming links and serve the status endpoint.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := &config.AppConfig
		if cfg.BotToken == "" {
			return fmt.Errorf("TELEGRAM_BOT_TOKEN is not set")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		store, err := storage.NewManager(cfg.DownloadDir)
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}

		metrics.Register()

		log.Printf("[INFO] ensuring yt-dlp is available")
		if err := extract.Install(ctx); err != nil {
			return err
		}

		// startup housekeeping: drop expired files, reclaim space if low
		age := time.Duration(cfg.CleanupAgeHours) * time.Hour
		if removed, err := store.Cleanup(age); err == nil && removed > 0 {
			log.Printf("[INFO] startup cleanup removed %d file(s)", removed)
		}
		if free, err := store.EnsureFreeSpace(); err == nil {
			log.Printf("[INFO] free disk space: %.1f GB", free)
		}

		api, err := tgbotapi.NewBotAPI(cfg.BotToken)
		if err != nil {
			return fmt.Errorf("failed to connect to Telegram: %w", err)
		}
		log.Printf("[INFO] authorized as @%s", api.Self.UserName)

		classifier := classify.New(cfg.BlockedDomains, cfg.AllowedExtensions, cfg.AllowedMIMEPrefixes, cfg.MaxFileSize)
		dispatcher := dispatch.New(extract.NewYTDLP(), store, cfg.MaxFileSize, cfg.DownloadTimeout)
		b := bot.New(cfg, bot.NewTelegramMessenger(api), dispatcher, classifier, store)

		w := watcher.New(func(string) {
			metrics.SetStoredFiles(store.FileCount())
		}, 0)
		if err := w.Start(store.Root()); err != nil {
			log.Printf("[WARN] file watcher disabled: %v", err)
		} else {
			defer w.Stop()
		}

		srv := server.New(b.Ledger(), store, cfg.StatusPort)
		go func() {
			if err := srv.Run(ctx); err != nil {
				log.Printf("[ERROR] status server: %v", err)
			}
		}()

		updateConfig := tgbotapi.NewUpdate(0)
		updateConfig.Timeout = 30
		updates := api.GetUpdatesChan(updateConfig)

		log.Printf("[INFO] bot is running, downloads go to %s", store.Root())
		b.Run(ctx, updates)

		log.Printf("[INFO] shutting down")
		api.StopReceivingUpdates()
		return nil
	},
}
