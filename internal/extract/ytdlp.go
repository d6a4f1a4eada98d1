// file: internal/extract/ytdlp.go
// version: 1.2.0
// guid: 9b0c2d4e-6f8a-4b1c-8d3e-7f9a1b3c5d7e

package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lrstanley/go-ytdlp"
)

// progressInterval is how often the wrapper surfaces progress updates from
// the yt-dlp process.
const progressInterval = 500 * time.Millisecond

// YTDLP runs downloads through the yt-dlp binary via the go-ytdlp wrapper.
type YTDLP struct{}

// NewYTDLP returns the production extractor.
func NewYTDLP() *YTDLP {
	return &YTDLP{}
}

// Install makes sure a yt-dlp binary is available, downloading one when the
// host has none. Called once at startup.
func Install(ctx context.Context) error {
	_, err := ytdlp.Install(ctx, nil)
	if err != nil {
		return fmt.Errorf("yt-dlp install: %w", err)
	}
	return nil
}

// probePayload mirrors the subset of yt-dlp's --dump-single-json output the
// bot needs.
type probePayload struct {
	Title    string         `json:"title"`
	ID       string         `json:"id"`
	Duration float64        `json:"duration"`
	Formats  []probeFormat  `json:"formats"`
	Entries  []probePayload `json:"entries"`
}

type probeFormat struct {
	FormatID   string   `json:"format_id"`
	Ext        string   `json:"ext"`
	Height     *float64 `json:"height"`
	Vcodec     string   `json:"vcodec"`
	Acodec     string   `json:"acodec"`
	ABR        *float64 `json:"abr"`
	FormatNote string   `json:"format_note"`
}

// Probe fetches metadata and formats without downloading. Collections
// collapse to their first entry.
func (y *YTDLP) Probe(ctx context.Context, url string) (*Info, error) {
	dl := ytdlp.New().
		DumpSingleJSON().
		SkipDownload().
		NoPlaylist()

	res, err := dl.Run(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("probe failed: %w", err)
	}

	var payload probePayload
	if err := json.Unmarshal([]byte(res.Stdout), &payload); err != nil {
		return nil, fmt.Errorf("probe returned unparseable metadata: %w", err)
	}
	if len(payload.Entries) > 0 {
		payload = payload.Entries[0]
	}

	info := &Info{
		Title:    payload.Title,
		ID:       payload.ID,
		Duration: payload.Duration,
		Formats:  make([]Format, 0, len(payload.Formats)),
	}
	for _, f := range payload.Formats {
		format := Format{
			ID:       f.FormatID,
			Ext:      f.Ext,
			HasVideo: f.Vcodec != "" && f.Vcodec != "none",
			HasAudio: f.Acodec != "" && f.Acodec != "none",
			Note:     f.FormatNote,
		}
		if f.Height != nil {
			format.Height = int(*f.Height)
		}
		if f.ABR != nil {
			format.ABR = *f.ABR
		}
		info.Formats = append(info.Formats, format)
	}

	return info, nil
}

// Download runs yt-dlp with the declared options.
func (y *YTDLP) Download(ctx context.Context, url string, opts Options) error {
	dl := ytdlp.New().
		NoPlaylist().
		ForceOverwrites().
		RestrictFilenames().
		Output(opts.OutputTemplate)

	if opts.Format != "" {
		dl = dl.Format(opts.Format)
	}
	if opts.MergeFormat != "" {
		dl = dl.MergeOutputFormat(opts.MergeFormat)
	}
	if opts.ExtractAudioMP3 {
		dl = dl.ExtractAudio().AudioFormat("mp3")
	}
	if opts.NoCheckCertificate {
		dl = dl.NoCheckCertificates()
	}
	if opts.GeoBypass {
		dl = dl.GeoBypass()
	}

	if opts.Progress != nil {
		dl.ProgressFunc(progressInterval, func(update ytdlp.ProgressUpdate) {
			if update.TotalBytes > 0 {
				opts.Progress(int64(update.DownloadedBytes), int64(update.TotalBytes))
			}
		})
	}

	if _, err := dl.Run(ctx, url); err != nil {
		return err
	}
	return nil
}
