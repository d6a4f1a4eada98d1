// file: internal/config/config.go
// version: 1.3.1
// guid: 4f2a8b1c-9d3e-4a5b-8c6d-7e1f2a3b4c5d

package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	BotToken    string
	DownloadDir string
	StatusPort  int

	AuthEnabled  bool
	AllowedUsers []int64
	AdminUsers   []int64

	MaxFileSize            int64 // bytes
	MaxConcurrentDownloads int
	MaxDownloadsPerUser    int // per day
	DownloadTimeout        time.Duration
	CleanupAgeHours        int

	BlockedDomains      []string
	AllowedExtensions   []string
	AllowedMIMEPrefixes []string
}

var AppConfig Config

// InitConfig initializes the application configuration
func InitConfig() {
	// Set defaults
	viper.SetDefault("download_dir", "./downloads")
	viper.SetDefault("status_port", 8080)
	viper.SetDefault("auth_enabled", false)
	viper.SetDefault("max_file_size", 9*(int64(1)<<30)/5) // 1.8GB; Telegram caps uploads at 2GB
	viper.SetDefault("max_concurrent_downloads", 2)
	viper.SetDefault("max_downloads_per_user", 10)
	viper.SetDefault("download_timeout_seconds", 3600)
	viper.SetDefault("cleanup_age_hours", 24)
	viper.SetDefault("blocked_domains", []string{"malware.com", "phishing.com", "virus.com"})

	AppConfig = Config{
		BotToken:               viper.GetString("telegram_bot_token"),
		DownloadDir:            viper.GetString("download_dir"),
		StatusPort:             viper.GetInt("status_port"),
		AuthEnabled:            viper.GetBool("auth_enabled"),
		AllowedUsers:           parseUserIDs(viper.GetString("allowed_users")),
		AdminUsers:             parseUserIDs(viper.GetString("admin_users")),
		MaxFileSize:            viper.GetInt64("max_file_size"),
		MaxConcurrentDownloads: viper.GetInt("max_concurrent_downloads"),
		MaxDownloadsPerUser:    viper.GetInt("max_downloads_per_user"),
		DownloadTimeout:        time.Duration(viper.GetInt("download_timeout_seconds")) * time.Second,
		CleanupAgeHours:        viper.GetInt("cleanup_age_hours"),
		BlockedDomains:         viper.GetStringSlice("blocked_domains"),
		AllowedExtensions: []string{
			".mp4", ".mkv", ".avi", ".mov", ".wmv", ".flv", ".webm", ".mp3", ".m4a",
		},
		AllowedMIMEPrefixes: []string{
			"video/", "audio/", "application/octet-stream",
			"application/mp4", "application/x-matroska",
		},
	}

	if AppConfig.MaxConcurrentDownloads < 1 {
		AppConfig.MaxConcurrentDownloads = 1
	}
	if AppConfig.MaxDownloadsPerUser < 1 {
		AppConfig.MaxDownloadsPerUser = 1
	}
}

// parseUserIDs parses a comma-separated list of numeric user IDs.
// Malformed entries are skipped.
func parseUserIDs(raw string) []int64 {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// IsAdmin reports whether the user is in the admin set.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminUsers {
		if id == userID {
			return true
		}
	}
	return false
}

// IsAuthorized reports whether the user may use the bot. When authorization
// is disabled, or the allowed set is empty, everyone is authorized.
func (c *Config) IsAuthorized(userID int64) bool {
	if !c.AuthEnabled {
		return true
	}
	if len(c.AllowedUsers) == 0 {
		return true
	}
	for _, id := range c.AllowedUsers {
		if id == userID {
			return true
		}
	}
	return c.IsAdmin(userID)
}
