// Package downloader defines the contract with the external media
// extraction tool and its yt-dlp implementation.
package downloader

import "context"

// Options are the caller-selectable download options
type Options struct {
	// AudioOnly extracts the audio track as mp3 instead of the video
	AudioOnly bool `json:"audio_only"`
	// Format overrides the format selection passed to the extractor
	Format string `json:"format,omitempty"`
}

// Request describes one download handed to the executor. Output files
// are namespaced by task id so concurrent downloads never collide.
type Request struct {
	TaskID  string
	URL     string
	Options Options
}

// Result is the outcome of a successful download
type Result struct {
	// Filepath is the absolute server-local path of the downloaded file
	Filepath string
	// DisplayName is the sanitized human-facing filename
	DisplayName string
}

// Downloader performs the actual media download. Implementations either
// return a Result whose Filepath exists on disk, or fail with an *Error
// classifying the cause as transient or permanent.
type Downloader interface {
	Download(ctx context.Context, req Request) (*Result, error)
}
