// file: internal/server/server.go
// version: 1.2.0
// guid: 6a8b0c2d-4e6f-4a8b-8c0d-2e4f6a8b0c2a

// Package server exposes the HTTP status surface: a JSON health report and
// the Prometheus scrape endpoint.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vgrab/video-downloader-bot/internal/server/middleware"
	"github.com/vgrab/video-downloader-bot/internal/storage"
	"github.com/vgrab/video-downloader-bot/internal/sysinfo"
)

// BotStats reports download activity. Satisfied by the admission ledger.
type BotStats interface {
	ActiveTotal() int
	Users() int
}

// Server is the status HTTP server.
type Server struct {
	stats   BotStats
	store   *storage.Manager
	port    int
	started time.Time
}

func New(stats BotStats, store *storage.Manager, port int) *Server {
	return &Server{
		stats:   stats,
		store:   store,
		port:    port,
		started: time.Now(),
	}
}

// Handler builds the routed engine. Split from Run for tests.
func (s *Server) Handler() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	limiter := middleware.NewIPRateLimiter(120, 20)
	engine.Use(limiter.Middleware())

	engine.GET("/health", s.handleHealth)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return engine
}

// Run serves until the context ends, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[INFO] status server listening on :%d", s.port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	mem := sysinfo.Memory()

	disk := gin.H{}
	if total, used, free, err := s.store.DiskUsage(); err == nil {
		usedPercent := 0.0
		if total > 0 {
			usedPercent = used / total * 100.0
		}
		disk = gin.H{
			"total_gb":     round1(total),
			"used_gb":      round1(used),
			"free_gb":      round1(free),
			"used_percent": round1(usedPercent),
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
		"bot": gin.H{
			"active_downloads": s.stats.ActiveTotal(),
			"active_users":     s.stats.Users(),
			"stored_files":     s.store.FileCount(),
		},
		"system": gin.H{
			"cpu_percent":    round1(sysinfo.CPUPercent()),
			"memory_percent": round1(mem.UsedPercent),
			"disk":           disk,
		},
	})
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
