// file: internal/classify/classify.go
// version: 1.2.0
// guid: 8d1e4f6a-2b3c-4d5e-9f0a-1b2c3d4e5f6a

// Package classify validates submitted URLs and routes them to a download
// source category before any network I/O happens.
package classify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"
)

// Source is a download source category.
type Source int

const (
	SourceDirect Source = iota
	SourceYouTube
	SourceSocial
)

func (s Source) String() string {
	switch s {
	case SourceYouTube:
		return "youtube"
	case SourceSocial:
		return "social"
	default:
		return "direct"
	}
}

// Validation failure sentinels. Callers match with errors.Is and surface the
// wrapped detail to the user.
var (
	ErrInvalidStructure = errors.New("invalid URL structure")
	ErrBlockedDomain    = errors.New("blocked domain")
	ErrInvalidScheme    = errors.New("invalid URL scheme")
	ErrInvalidFileType  = errors.New("invalid file type")
	ErrBadStatus        = errors.New("HTTP error")
	ErrBadContentType   = errors.New("invalid content type")
	ErrTooLarge         = errors.New("file too large")
)

// Classifier validates URLs against the configured policy and detects the
// source category from the host.
type Classifier struct {
	BlockedDomains      []string
	AllowedExtensions   []string
	AllowedMIMEPrefixes []string
	MaxFileSize         int64
	Client              *http.Client
}

// New returns a Classifier with the given policy and a default HTTP client
// for header checks.
func New(blocked, extensions, mimePrefixes []string, maxFileSize int64) *Classifier {
	return &Classifier{
		BlockedDomains:      blocked,
		AllowedExtensions:   extensions,
		AllowedMIMEPrefixes: mimePrefixes,
		MaxFileSize:         maxFileSize,
		Client:              &http.Client{Timeout: 30 * time.Second},
	}
}

// Classify validates the URL structurally and returns its source category.
// No network I/O is performed; direct URLs get a separate header check via
// CheckDirectURL.
func (c *Classifier) Classify(raw string) (Source, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return SourceDirect, fmt.Errorf("%w: %v", ErrInvalidStructure, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return SourceDirect, ErrInvalidStructure
	}

	host := strings.ToLower(u.Host)
	for _, blocked := range c.BlockedDomains {
		if blocked != "" && strings.Contains(host, blocked) {
			return SourceDirect, fmt.Errorf("%w: %s", ErrBlockedDomain, host)
		}
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return SourceDirect, fmt.Errorf("%w: %s", ErrInvalidScheme, u.Scheme)
	}

	// Extension check only applies when the path carries one; bare paths are
	// deferred to content inspection.
	if ext := strings.ToLower(path.Ext(u.Path)); ext != "" {
		allowed := false
		for _, e := range c.AllowedExtensions {
			if ext == e {
				allowed = true
				break
			}
		}
		if !allowed {
			return SourceDirect, fmt.Errorf("%w: %s", ErrInvalidFileType, ext)
		}
	}

	if IsYouTubeURL(raw) {
		return SourceYouTube, nil
	}
	if PlatformFor(raw) != PlatformUnknown {
		return SourceSocial, nil
	}
	return SourceDirect, nil
}

// CheckDirectURL performs a header-only fetch to confirm the target is
// reachable, of an allowed content type, and under the size limit. Only
// direct URLs get this check; the extractors validate their own sources.
func (c *Classifier) CheckDirectURL(ctx context.Context, raw string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, raw, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidStructure, err)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("URL access error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" {
		valid := false
		lower := strings.ToLower(contentType)
		for _, prefix := range c.AllowedMIMEPrefixes {
			if strings.Contains(lower, prefix) {
				valid = true
				break
			}
		}
		if !valid {
			return fmt.Errorf("%w: %s", ErrBadContentType, contentType)
		}
	}

	if cl := resp.Header.Get("Content-Length"); cl != "" {
		size, err := strconv.ParseInt(cl, 10, 64)
		if err == nil && size > c.MaxFileSize {
			return fmt.Errorf("%w: %.2fMB (maximum: %.2fMB)",
				ErrTooLarge,
				float64(size)/(1024*1024),
				float64(c.MaxFileSize)/(1024*1024))
		}
	}

	return nil
}
