// file: internal/metrics/metrics.go
// version: 1.1.0
// guid: 6a8b0c2d-4e6f-4a8b-9c0d-2e4f6a8b0c2f

// Package metrics exposes Prometheus counters and gauges for the bot.
// Registration happens once on first use; helpers keep call sites terse.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	downloadsStarted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "video_downloader_bot",
		Name:      "downloads_started_total",
		Help:      "Number of downloads started, by source category.",
	}, []string{"source"})

	downloadsCompleted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "video_downloader_bot",
		Name:      "downloads_completed_total",
		Help:      "Number of downloads delivered to users, by source category.",
	}, []string{"source"})

	downloadsFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "video_downloader_bot",
		Name:      "downloads_failed_total",
		Help:      "Number of failed downloads, by source category and failure kind.",
	}, []string{"source", "category"})

	floodWaits = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "video_downloader_bot",
		Name:      "flood_waits_total",
		Help:      "Number of rate-limit responses received from the messaging API.",
	})

	duplicatesSuppressed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "video_downloader_bot",
		Name:      "duplicate_urls_suppressed_total",
		Help:      "Number of URLs dropped by the duplicate-submission window.",
	})

	activeDownloads = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "video_downloader_bot",
		Name:      "active_downloads",
		Help:      "Downloads currently in flight.",
	})

	activeUsers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "video_downloader_bot",
		Name:      "active_users",
		Help:      "Users with at least one download in flight.",
	})

	storedFiles = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "video_downloader_bot",
		Name:      "stored_files",
		Help:      "Files currently present under the download root.",
	})
)

// Register installs all collectors into the default registry. Safe to call
// more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			downloadsStarted,
			downloadsCompleted,
			downloadsFailed,
			floodWaits,
			duplicatesSuppressed,
			activeDownloads,
			activeUsers,
			storedFiles,
		)
	})
}

func DownloadStarted(source string)   { downloadsStarted.WithLabelValues(source).Inc() }
func DownloadCompleted(source string) { downloadsCompleted.WithLabelValues(source).Inc() }

func DownloadFailed(source, category string) {
	downloadsFailed.WithLabelValues(source, category).Inc()
}

func FloodWait()           { floodWaits.Inc() }
func DuplicateSuppressed() { duplicatesSuppressed.Inc() }

func SetActiveDownloads(n int) { activeDownloads.Set(float64(n)) }
func SetActiveUsers(n int)     { activeUsers.Set(float64(n)) }
func SetStoredFiles(n int)     { storedFiles.Set(float64(n)) }
