// file: internal/dispatch/social.go
// version: 1.2.0
// guid: 0c2d4e6f-8a0b-4c2d-8e4f-6a8b0c2d4e6a

package dispatch

import (
	"context"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/vgrab/video-downloader-bot/internal/extract"
)

const (
	socialMaxAttempts = 2
	socialRetryDelay  = 3 * time.Second
)

// downloadSocial fetches the best available format from a social platform.
// These sites are flakier than direct hosts, so certificate checks are
// relaxed, geo restrictions bypassed and a transient failure retried once.
func (d *Dispatcher) downloadSocial(ctx context.Context, sess *Session, progress Progress) (*Outcome, error) {
	target, err := d.store.GeneratePath(sess.SourceURL, sess.UserID)
	if err != nil {
		return nil, internalError("Could not prepare a download location: %v", err)
	}
	sess.TargetPath = target
	base := strings.TrimSuffix(target, filepath.Ext(target))

	opts := extract.Options{
		Format:             "best",
		MergeFormat:        "mp4",
		OutputTemplate:     base + ".%(ext)s",
		NoCheckCertificate: true,
		GeoBypass:          true,
		Progress: func(downloaded, total int64) {
			if progress != nil {
				progress(downloaded, total)
			}
		},
	}

	var lastErr error
	for attempt := 1; attempt <= socialMaxAttempts; attempt++ {
		lastErr = d.extractor.Download(ctx, sess.SourceURL, opts)
		if lastErr == nil {
			break
		}
		if !isRetryable(lastErr) || attempt == socialMaxAttempts {
			break
		}
		log.Printf("[WARN] %s download attempt %d/%d failed, retrying: %v",
			sess.Platform, attempt, socialMaxAttempts, lastErr)
		select {
		case <-ctx.Done():
			return nil, wrapContextError(ctx, mapExtractError(lastErr))
		case <-time.After(socialRetryDelay):
		}
	}
	if lastErr != nil {
		d.store.RemoveWithSiblings(base + ".bin")
		return nil, wrapContextError(ctx, mapExtractError(lastErr))
	}

	path, err := resolveOutput(base)
	if err != nil {
		return nil, internalError("The download finished but the file could not be located.")
	}
	sess.TargetPath = path
	return &Outcome{Path: path, Title: progressTitle(sess)}, nil
}

// isRetryable reports whether a failure looks transient. Permanent
// conditions such as removed or private content never retry.
func isRetryable(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, permanent := range []string{
		"video unavailable", "private", "login required",
		"unsupported url", "unable to extract", "404",
	} {
		if strings.Contains(msg, permanent) {
			return false
		}
	}
	return true
}
