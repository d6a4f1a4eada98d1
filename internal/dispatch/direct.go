// file: internal/dispatch/direct.go
// version: 1.3.1
// guid: 4e6f8a0b-2c4d-4e6f-9a8b-2c4d6e8f0a2c

package dispatch

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	directChunkSize = 1 << 20 // 1 MiB
	minFreeDirectGB = 2.0
)

var contentDispositionFilename = regexp.MustCompile(`filename\*?=(?:UTF-8'')?"?([^";]+)"?`)

// parseRetryAfter reads the delay-seconds form of a Retry-After header.
func parseRetryAfter(v string) time.Duration {
	if secs, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}

// contentTypeExt maps common media content types to extensions, used when
// neither the URL nor the Content-Disposition header names the file.
var contentTypeExt = map[string]string{
	"video/mp4":        ".mp4",
	"video/webm":       ".webm",
	"video/quicktime":  ".mov",
	"video/x-msvideo":  ".avi",
	"video/x-matroska": ".mkv",
	"audio/mpeg":       ".mp3",
	"audio/mp4":        ".m4a",
	"audio/ogg":        ".ogg",
	"audio/wav":        ".wav",
	"audio/flac":       ".flac",
}

// downloadDirect streams a direct media URL to disk in fixed-size chunks,
// enforcing the size cap while reading so an understated Content-Length
// cannot bypass it.
func (d *Dispatcher) downloadDirect(ctx context.Context, sess *Session, progress Progress) (*Outcome, error) {
	free, err := d.store.FreeSpaceGB()
	if err == nil && free < minFreeDirectGB {
		log.Printf("[WARN] direct download refused: %.2f GB free, need %.2f", free, minFreeDirectGB)
		return nil, internalError("Not enough disk space on the server. Please try again later.")
	}

	target, err := d.store.GeneratePath(sess.SourceURL, sess.UserID)
	if err != nil {
		return nil, internalError("Could not prepare a download location: %v", err)
	}
	sess.TargetPath = target

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sess.SourceURL, nil)
	if err != nil {
		return nil, networkError("Could not build the request: %v", err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, wrapContextError(ctx, networkError("Could not connect to the server: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, rateLimitError(parseRetryAfter(resp.Header.Get("Retry-After")))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, networkError("The server responded with status %d.", resp.StatusCode)
	}

	if name := directFilename(resp, target); name != "" {
		renamed, rerr := d.store.Rename(target, name)
		if rerr == nil {
			target = renamed
			sess.TargetPath = renamed
		}
	}

	total := resp.ContentLength
	if total < 0 {
		// chunked responses report -1; the progress contract wants zero
		total = 0
	}
	if total > 0 && total > d.maxFileSize {
		return nil, &DownloadError{
			Category: CategoryValidation,
			Message:  fmt.Sprintf("The file is too large (%d bytes, limit %d).", total, d.maxFileSize),
		}
	}

	out, err := os.Create(target)
	if err != nil {
		return nil, internalError("Could not create the output file: %v", err)
	}

	written, err := d.copyCapped(out, resp.Body, total, progress)
	cerr := out.Close()
	if err != nil {
		d.store.RemoveWithSiblings(target)
		return nil, wrapContextError(ctx, err)
	}
	if cerr != nil {
		d.store.RemoveWithSiblings(target)
		return nil, internalError("Could not finalize the file: %v", cerr)
	}
	if written == 0 {
		d.store.RemoveWithSiblings(target)
		return nil, networkError("The server returned an empty file.")
	}

	log.Printf("[INFO] direct download complete: %s (%d bytes)", filepath.Base(target), written)
	return &Outcome{Path: target, Title: filepath.Base(target)}, nil
}

// copyCapped copies in directChunkSize reads, reporting progress and
// aborting once the cap is exceeded.
func (d *Dispatcher) copyCapped(dst io.Writer, src io.Reader, total int64, progress Progress) (int64, error) {
	buf := make([]byte, directChunkSize)
	var written int64
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return written, internalError("Could not write to disk: %v", werr)
			}
			written += int64(n)
			if written > d.maxFileSize {
				return written, &DownloadError{
					Category: CategoryValidation,
					Message:  fmt.Sprintf("The download exceeded the size limit of %d bytes.", d.maxFileSize),
				}
			}
			if progress != nil {
				progress(written, total)
			}
		}
		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			return written, networkError("The connection was interrupted: %v", rerr)
		}
	}
}

// directFilename resolves a better filename than the URL-derived one:
// Content-Disposition always wins; a content-type extension is consulted
// only when the current name carries the generic .bin suffix.
func directFilename(resp *http.Response, target string) string {
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if m := contentDispositionFilename.FindStringSubmatch(cd); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	if strings.ToLower(filepath.Ext(target)) != ".bin" {
		return ""
	}
	ct := resp.Header.Get("Content-Type")
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = ct[:i]
	}
	if ext, ok := contentTypeExt[strings.TrimSpace(strings.ToLower(ct))]; ok {
		return "download" + ext
	}
	return ""
}
