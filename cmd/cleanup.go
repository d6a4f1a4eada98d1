// file: cmd/cleanup.go
// version: 1.1.0
// guid: 6e8f0a2b-4c6d-4e8f-8a0b-4c6d8e0f2a4d

package cmd

import (
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/vgrab/video-downloader-bot/internal/config"
	"github.com/vgrab/video-downloader-bot/internal/storage"
)

// cleanupCmd removes expired downloads without starting the bot.
var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove expired downloaded files",
	Long:  `Delete files under the download directory older than the configured age, together with their leftover fragments.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := &config.AppConfig

		store, err := storage.NewManager(cfg.DownloadDir)
		if err != nil {
			return fmt.Errorf("failed to open download directory: %w", err)
		}

		maxAge := time.Duration(cfg.CleanupAgeHours) * time.Hour
		if hours, _ := cmd.Flags().GetInt("older-than"); hours > 0 {
			maxAge = time.Duration(hours) * time.Hour
		}

		total := store.FileCount()
		fmt.Printf("Scanning %d file(s) in %s (older than %s)\n", total, store.Root(), maxAge)

		bar := progressbar.Default(int64(total))
		removed, err := store.CleanupWithProgress(maxAge, func(string) {
			_ = bar.Add(1)
		})
		_ = bar.Finish()
		if err != nil {
			return fmt.Errorf("cleanup failed: %w", err)
		}

		fmt.Printf("Removed %d file(s)\n", removed)
		return nil
	},
}

func init() {
	cleanupCmd.Flags().Int("older-than", 0, "override the age threshold in hours")
}
