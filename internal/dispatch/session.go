// file: internal/dispatch/session.go
// version: 1.0.0
// guid: 9a1b3c5d-7e9f-4a1b-8c3d-5e7f9a1b3c5d

package dispatch

import (
	"time"

	"github.com/google/uuid"

	"github.com/vgrab/video-downloader-bot/internal/classify"
	"github.com/vgrab/video-downloader-bot/internal/notify"
)

// Status tracks a session through its lifecycle.
type Status int

const (
	StatusPending Status = iota
	StatusAwaitingFormatChoice
	StatusDownloading
	StatusCompleted
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusAwaitingFormatChoice:
		return "awaiting_format_choice"
	case StatusDownloading:
		return "downloading"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Session carries one user request through admission, download and delivery.
type Session struct {
	ID           string
	UserID       int64
	SourceURL    string
	CanonicalURL string
	Category     classify.Source
	Platform     classify.Platform
	TargetPath   string
	StartTime    time.Time
	Status       Status

	// StatusMessage is the progress message edited in place during the
	// download and upload phases.
	StatusMessage notify.MessageRef
}

// NewSession builds a pending session for a classified URL. The canonical URL
// starts equal to the source URL; the YouTube strategy rewrites it.
func NewSession(userID int64, rawURL string, category classify.Source) *Session {
	return &Session{
		ID:           uuid.NewString(),
		UserID:       userID,
		SourceURL:    rawURL,
		CanonicalURL: rawURL,
		Category:     category,
		Platform:     classify.PlatformFor(rawURL),
		StartTime:    time.Now(),
		Status:       StatusPending,
	}
}
