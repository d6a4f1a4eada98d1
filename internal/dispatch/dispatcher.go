// file: internal/dispatch/dispatcher.go
// version: 1.2.0
// guid: 2c4d6e8f-0a2b-4c4d-8e6f-0a2b4c6d8e0f

package dispatch

import (
	"context"
	"fmt"
	"net/http"
	"os/exec"
	"time"

	"github.com/vgrab/video-downloader-bot/internal/classify"
	"github.com/vgrab/video-downloader-bot/internal/extract"
	"github.com/vgrab/video-downloader-bot/internal/storage"
)

// Progress receives byte counts as a transfer advances. total is zero when
// the remote does not announce a size.
type Progress func(current, total int64)

// FormatSelection is the user's answer to a format menu.
type FormatSelection struct {
	FormatID  string
	Height    int
	AudioOnly bool
}

// Outcome is the result of a dispatch. Exactly one of Path or Menu is set:
// Path when a file was produced, Menu when the session now awaits a format
// choice.
type Outcome struct {
	Path  string
	Title string
	Menu  *FormatMenu
}

// Dispatcher routes a session to the strategy matching its source category.
type Dispatcher struct {
	extractor   extract.Extractor
	store       *storage.Manager
	client      *http.Client
	maxFileSize int64
	timeout     time.Duration

	// hasFFmpeg is swapped in tests.
	hasFFmpeg func() bool
}

// New builds a dispatcher. maxFileSize caps direct downloads in bytes and
// timeout bounds a whole download attempt.
func New(extractor extract.Extractor, store *storage.Manager, maxFileSize int64, timeout time.Duration) *Dispatcher {
	return &Dispatcher{
		extractor:   extractor,
		store:       store,
		client:      &http.Client{},
		maxFileSize: maxFileSize,
		timeout:     timeout,
		hasFFmpeg: func() bool {
			_, err := exec.LookPath("ffmpeg")
			return err == nil
		},
	}
}

// Download runs the strategy for the session's category. For YouTube URLs a
// nil selection probes available formats and returns a menu instead of a
// file; calling again with a selection performs the actual download.
func (d *Dispatcher) Download(ctx context.Context, sess *Session, sel *FormatSelection, progress Progress) (*Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	sess.Status = StatusDownloading
	var (
		out *Outcome
		err error
	)
	switch sess.Category {
	case classify.SourceDirect:
		out, err = d.downloadDirect(ctx, sess, progress)
	case classify.SourceYouTube:
		if sel == nil {
			out, err = d.probeFormats(ctx, sess)
		} else {
			out, err = d.downloadYouTube(ctx, sess, sel, progress)
		}
	case classify.SourceSocial:
		out, err = d.downloadSocial(ctx, sess, progress)
	default:
		err = internalError("unsupported source category %q", sess.Category)
	}

	switch {
	case err != nil:
		sess.Status = StatusFailed
	case out.Menu != nil:
		sess.Status = StatusAwaitingFormatChoice
	default:
		sess.Status = StatusCompleted
	}
	return out, err
}

// wrapContextError converts context expiry into a user-facing timeout error.
func wrapContextError(ctx context.Context, err error) error {
	if ctx.Err() == context.DeadlineExceeded {
		return networkError("Download timed out. The file may be too large or the connection too slow.")
	}
	if ctx.Err() == context.Canceled {
		return internalError("Download was cancelled.")
	}
	return err
}

func progressTitle(sess *Session) string {
	if sess.Platform != classify.PlatformUnknown {
		return fmt.Sprintf("%s video", sess.Platform)
	}
	return "video"
}
