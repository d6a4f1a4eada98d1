// file: cmd/diagnostics.go
// version: 1.1.0
// guid: 8a0b2c4d-6e8f-4a0b-8c2d-6e8f0a2b4c6a

package cmd

import (
	"fmt"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/vgrab/video-downloader-bot/internal/config"
	"github.com/vgrab/video-downloader-bot/internal/storage"
	"github.com/vgrab/video-downloader-bot/internal/sysinfo"
)

// diagnosticsCmd prints a snapshot of the host and the download store,
// useful when a deployment misbehaves.
var diagnosticsCmd = &cobra.Command{
	Use:   "diagnostics",
	Short: "Print host and storage diagnostics",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := &config.AppConfig

		store, err := storage.NewManager(cfg.DownloadDir)
		if err != nil {
			return fmt.Errorf("failed to open download directory: %w", err)
		}

		fmt.Println("Storage:")
		fmt.Printf("  root:  %s\n", store.Root())
		fmt.Printf("  files: %d\n", store.FileCount())
		if total, used, free, derr := store.DiskUsage(); derr == nil {
			fmt.Printf("  disk:  %.1f GB total, %.1f GB used, %.1f GB free\n", total, used, free)
		} else {
			fmt.Printf("  disk:  unavailable (%v)\n", derr)
		}

		mem := sysinfo.Memory()
		fmt.Println("Host:")
		fmt.Printf("  cpu:    %.1f%%\n", sysinfo.CPUPercent())
		fmt.Printf("  memory: %.1f%% of %.1f GB\n", mem.UsedPercent, float64(mem.TotalBytes)/(1<<30))

		fmt.Println("Tools:")
		for _, tool := range []string{"yt-dlp", "ffmpeg"} {
			if path, lerr := exec.LookPath(tool); lerr == nil {
				fmt.Printf("  %-7s %s\n", tool+":", path)
			} else {
				fmt.Printf("  %-7s not found\n", tool+":")
			}
		}

		fmt.Println("Limits:")
		fmt.Printf("  max file size:        %d bytes\n", cfg.MaxFileSize)
		fmt.Printf("  concurrent per user:  %d\n", cfg.MaxConcurrentDownloads)
		fmt.Printf("  daily per user:       %d\n", cfg.MaxDownloadsPerUser)
		fmt.Printf("  cleanup age:          %dh\n", cfg.CleanupAgeHours)
		return nil
	},
}
