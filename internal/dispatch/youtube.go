// file: internal/dispatch/youtube.go
// version: 1.4.0
// guid: 8a0b2c4d-6e8f-4a0b-8c2d-4e6f8a0b2c4e

package dispatch

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/vgrab/video-downloader-bot/internal/classify"
	"github.com/vgrab/video-downloader-bot/internal/extract"
	"github.com/vgrab/video-downloader-bot/internal/notify"
)

// FormatChoice is one selectable entry in a format menu.
type FormatChoice struct {
	ID      string
	Ext     string
	Height  int
	Tier    string // "HD", "FHD", "4K" or empty
	HasBoth bool   // format already muxes audio and video
}

// FormatMenu lists the playable formats for a video, best first.
type FormatMenu struct {
	Title    string
	Duration time.Duration
	Choices  []FormatChoice
	HasAudio bool // an audio-only download is offered
}

// probeFormats resolves the canonical watch URL, probes available formats
// and returns a menu for the user to choose from.
func (d *Dispatcher) probeFormats(ctx context.Context, sess *Session) (*Outcome, error) {
	sess.CanonicalURL = classify.CanonicalYouTubeURL(sess.SourceURL)

	info, err := d.extractor.Probe(ctx, sess.CanonicalURL)
	if err != nil {
		return nil, wrapContextError(ctx, mapExtractError(err))
	}

	menu := RankFormats(info)
	if len(menu.Choices) == 0 && !menu.HasAudio {
		return nil, unavailableError("No downloadable formats were found for this video.")
	}
	return &Outcome{Title: info.Title, Menu: menu}, nil
}

// RankFormats keeps video formats with a known height, sorts them best
// first and collapses duplicate heights, preferring entries that already
// carry audio. Heights map to quality tiers.
func RankFormats(info *extract.Info) *FormatMenu {
	menu := &FormatMenu{
		Title:    info.Title,
		Duration: time.Duration(info.Duration * float64(time.Second)),
	}

	byHeight := make(map[int]extract.Format)
	for _, f := range info.Formats {
		if !f.HasVideo || f.Height <= 0 {
			if !f.HasVideo && f.HasAudio {
				menu.HasAudio = true
			}
			continue
		}
		cur, ok := byHeight[f.Height]
		if !ok || (f.HasAudio && !cur.HasAudio) {
			byHeight[f.Height] = f
		}
	}

	heights := make([]int, 0, len(byHeight))
	for h := range byHeight {
		heights = append(heights, h)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(heights)))

	for _, h := range heights {
		f := byHeight[h]
		menu.Choices = append(menu.Choices, FormatChoice{
			ID:      f.ID,
			Ext:     f.Ext,
			Height:  h,
			Tier:    qualityTier(h),
			HasBoth: f.HasAudio,
		})
	}
	return menu
}

func qualityTier(height int) string {
	switch {
	case height >= 2160:
		return "4K"
	case height >= 1080:
		return "FHD"
	case height >= 720:
		return "HD"
	default:
		return ""
	}
}

// Render formats the menu as a numbered message plus the /audio shortcut.
func (m *FormatMenu) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎬 %s\n", m.Title)
	if m.Duration > 0 {
		fmt.Fprintf(&b, "⏱ %s\n", notify.FormatDuration(m.Duration))
	}
	b.WriteString("\nChoose a quality:\n")
	for i, c := range m.Choices {
		label := fmt.Sprintf("%dp", c.Height)
		if c.Tier != "" {
			label += " " + c.Tier
		}
		fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, label, c.Ext)
	}
	if m.HasAudio {
		b.WriteString("\n/audio — audio only (mp3)")
	}
	return b.String()
}

// downloadYouTube performs the second phase of the flow: fetch the chosen
// format, merging in the best audio when ffmpeg is present, otherwise
// falling back to the best progressive stream at or below the chosen
// height.
func (d *Dispatcher) downloadYouTube(ctx context.Context, sess *Session, sel *FormatSelection, progress Progress) (*Outcome, error) {
	sess.CanonicalURL = classify.CanonicalYouTubeURL(sess.SourceURL)

	target, err := d.store.GeneratePath(sess.CanonicalURL, sess.UserID)
	if err != nil {
		return nil, internalError("Could not prepare a download location: %v", err)
	}
	sess.TargetPath = target
	base := strings.TrimSuffix(target, filepath.Ext(target))

	opts := extract.Options{
		OutputTemplate: base + ".%(ext)s",
		Progress: func(downloaded, total int64) {
			if progress != nil {
				progress(downloaded, total)
			}
		},
	}
	switch {
	case sel.AudioOnly:
		opts.Format = "bestaudio/best"
		opts.ExtractAudioMP3 = true
	case d.hasFFmpeg():
		opts.Format = fmt.Sprintf("%s+bestaudio/best", sel.FormatID)
		opts.MergeFormat = "mp4"
	default:
		// no muxer available; best self-contained stream at the
		// chosen height or lower
		log.Printf("[WARN] ffmpeg not found, falling back to progressive format for session %s", sess.ID)
		opts.Format = fmt.Sprintf("best[height<=%d]", sel.Height)
	}

	if err := d.extractor.Download(ctx, sess.CanonicalURL, opts); err != nil {
		d.store.RemoveWithSiblings(base + ".bin")
		return nil, wrapContextError(ctx, mapExtractError(err))
	}

	path, err := resolveOutput(base)
	if err != nil {
		return nil, internalError("The download finished but the file could not be located.")
	}
	sess.TargetPath = path
	return &Outcome{Path: path, Title: filepath.Base(path)}, nil
}

// resolveOutput finds the file the extractor actually wrote: the template
// leaves the extension to the extractor, so match on the base name prefix.
func resolveOutput(base string) (string, error) {
	matches, err := filepath.Glob(base + ".*")
	if err != nil || len(matches) == 0 {
		return "", fmt.Errorf("no output matching %s.*", filepath.Base(base))
	}
	// prefer the playable container over leftover part files
	for _, m := range matches {
		switch strings.ToLower(filepath.Ext(m)) {
		case ".mp4", ".mkv", ".webm", ".mov", ".mp3", ".m4a":
			return m, nil
		}
	}
	return matches[0], nil
}

// mapExtractError translates extractor output into user-facing categories.
func mapExtractError(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "video unavailable"), strings.Contains(msg, "404"):
		return unavailableError("This video is unavailable or has been removed.")
	case strings.Contains(msg, "private"):
		return unavailableError("This video is private.")
	case strings.Contains(msg, "login required"), strings.Contains(msg, "sign in"):
		return unavailableError("This content requires a login to access.")
	case strings.Contains(msg, "unsupported url"):
		return unavailableError("This site is not supported.")
	case strings.Contains(msg, "unable to extract"):
		return unavailableError("Could not extract the video from this page.")
	case strings.Contains(msg, "timed out"), strings.Contains(msg, "timeout"), strings.Contains(msg, "connection"):
		return networkError("A network error occurred while fetching the video.")
	default:
		return internalError("The download failed: %v", err)
	}
}
