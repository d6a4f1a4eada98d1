// file: internal/extract/extract.go
// version: 1.1.0
// guid: 2e4f6a8b-0c1d-4e2f-9a3b-5c7d9e1f3a4b

// Package extract adapts the yt-dlp wrapper into the narrow interface the
// download strategies need: probe a URL for metadata and formats, or run a
// download with declarative options.
package extract

import "context"

// Format describes one downloadable format of a probed media item.
type Format struct {
	ID       string
	Ext      string
	Height   int
	HasVideo bool
	HasAudio bool
	ABR      float64 // audio bitrate, kbps
	Note     string
}

// Info is the probe result for a URL. For multi-item results (collections)
// only the first item is represented.
type Info struct {
	Title    string
	ID       string
	Duration float64 // seconds
	Formats  []Format
}

// Options declares how a download should run. The extractor writes the file
// according to OutputTemplate; callers resolve the real output path
// afterwards because the extractor may pick its own extension.
type Options struct {
	Format             string
	OutputTemplate     string
	MergeFormat        string // container for merged audio+video output
	ExtractAudioMP3    bool
	NoCheckCertificate bool
	GeoBypass          bool
	Progress           func(downloaded, total int64)
}

// Extractor is the extraction collaborator.
type Extractor interface {
	// Probe fetches metadata and the available formats without downloading.
	Probe(ctx context.Context, url string) (*Info, error)

	// Download fetches the URL to disk per the options. It returns only an
	// error; the output file is located via the options' output template.
	Download(ctx context.Context, url string, opts Options) error
}
