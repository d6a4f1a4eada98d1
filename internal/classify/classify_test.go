// file: internal/classify/classify_test.go
// version: 1.1.0
// guid: 0f3b6c9d-1e2a-4b5c-8d7e-6f5a4b3c2d1e

package classify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClassifier() *Classifier {
	return New(
		[]string{"malware.com", "phishing.com", "virus.com"},
		[]string{".mp4", ".mkv", ".avi", ".mov", ".wmv", ".flv", ".webm", ".mp3", ".m4a"},
		[]string{"video/", "audio/", "application/octet-stream"},
		100*1024*1024,
	)
}

func TestClassify(t *testing.T) {
	t.Parallel()
	c := testClassifier()

	tests := []struct {
		name    string
		url     string
		want    Source
		wantErr error
	}{
		{"direct mp4", "https://example.com/video.mp4", SourceDirect, nil},
		{"direct no extension", "https://example.com/stream", SourceDirect, nil},
		{"youtube watch", "https://www.youtube.com/watch?v=abc123", SourceYouTube, nil},
		{"youtube short link", "https://youtu.be/abc123", SourceYouTube, nil},
		{"instagram reel", "https://www.instagram.com/reel/xyz/", SourceSocial, nil},
		{"tiktok", "https://vm.tiktok.com/xyz", SourceSocial, nil},
		{"blocked domain", "https://malware.com/video.mp4", SourceDirect, ErrBlockedDomain},
		{"bad scheme", "ftp://example.com/video.mp4", SourceDirect, ErrInvalidScheme},
		{"missing host", "https://", SourceDirect, ErrInvalidStructure},
		{"not a url", "://nope", SourceDirect, ErrInvalidStructure},
		{"bad extension", "https://example.com/tool.exe", SourceDirect, ErrInvalidFileType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Classify(tt.url)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "expected %v, got %v", tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheckDirectURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr error
	}{
		{
			"ok",
			func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "video/mp4")
				w.Header().Set("Content-Length", "1024")
			},
			nil,
		},
		{
			"not found",
			func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
			ErrBadStatus,
		},
		{
			"wrong content type",
			func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/html")
			},
			ErrBadContentType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := testClassifier()
			err := c.CheckDirectURL(context.Background(), srv.URL)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "expected %v, got %v", tt.wantErr, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestCheckDirectURLTooLarge(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		w.Header().Set("Content-Length", "52428800") // 50MB
	}))
	defer srv.Close()

	c := testClassifier()
	c.MaxFileSize = 10 * 1024 * 1024

	err := c.CheckDirectURL(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTooLarge))
}

func TestPlatformFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url  string
		want Platform
	}{
		{"https://www.instagram.com/p/abc/", PlatformInstagram},
		{"https://fb.watch/xyz", PlatformFacebook},
		{"https://x.com/user/status/123", PlatformTwitter},
		{"https://www.tiktok.com/@user/video/1", PlatformTikTok},
		{"https://redd.it/abc", PlatformReddit},
		{"https://vimeo.com/12345", PlatformVimeo},
		{"https://dai.ly/xyz", PlatformDailymotion},
		{"https://example.com/video.mp4", PlatformUnknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, PlatformFor(tt.url), "url %s", tt.url)
	}
}

func TestCanonicalYouTubeURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"short link", "https://youtu.be/dQw4w9WgXcQ", "https://www.youtube.com/watch?v=dQw4w9WgXcQ"},
		{"watch with tracking", "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42&si=track", "https://www.youtube.com/watch?v=dQw4w9WgXcQ"},
		{"shorts", "https://www.youtube.com/shorts/abc123/extra", "https://www.youtube.com/watch?v=abc123"},
		{"unrecognized passes through", "https://www.youtube.com/feed/trending", "https://www.youtube.com/feed/trending"},
		{"non-youtube passes through", "https://example.com/watch?v=abc", "https://example.com/watch?v=abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalYouTubeURL(tt.in))
		})
	}
}
