// file: internal/bot/messenger.go
// version: 1.0.0
// guid: 8c0d2e4f-6a8b-4c0d-9e2f-4a6b8c0d2e4a

// Package bot wires the Telegram surface to the download pipeline: command
// handling, URL intake, the format-choice dialog and file delivery.
package bot

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/vgrab/video-downloader-bot/internal/notify"
)

// FileKind tells the messenger which upload method to use.
type FileKind int

const (
	FileVideo FileKind = iota
	FileAudio
	FileDocument
)

// KindForPath picks the upload method from the file extension: known video
// containers go out as videos, mp3 as audio, everything else as a document.
func KindForPath(path string) FileKind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp4", ".mov", ".avi", ".webm":
		return FileVideo
	case ".mp3":
		return FileAudio
	default:
		return FileDocument
	}
}

// FileUpload describes one outgoing file.
type FileUpload struct {
	Path    string
	Kind    FileKind
	Caption string

	// Progress receives byte counts as the upload streams out.
	Progress func(current, total int64)
}

// Messenger is the chat transport. EditText satisfies notify.Editor so the
// same implementation backs progress reporting.
type Messenger interface {
	SendText(ctx context.Context, chatID int64, text string) (notify.MessageRef, error)
	EditText(ctx context.Context, ref notify.MessageRef, text string) error
	DeleteMessage(ctx context.Context, ref notify.MessageRef) error
	SendFile(ctx context.Context, chatID int64, upload FileUpload) error
}
