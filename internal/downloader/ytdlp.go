package downloader

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Defaults for the yt-dlp invocation
const (
	// DefaultTimeout bounds a single extractor invocation
	DefaultTimeout = 30 * time.Minute
	// MaxFilesize is passed to yt-dlp to refuse oversized downloads
	MaxFilesize = "5G"

	// defaultVideoFormat prefers merged best streams
	defaultVideoFormat = "bestvideo+bestaudio/best"
	// youtubeVideoFormat prefers AVC1/MP4A streams, which players handle best
	youtubeVideoFormat = "bestvideo[vcodec*=avc1]+bestaudio[acodec*=mp4a]/bestvideo+bestaudio/best"
	// audioFormat selects the best audio stream for mp3 extraction
	audioFormat = "bestaudio/best"
)

// youtubeHosts triggers the YouTube-specific format preference
var youtubeHosts = []string{"youtube.com", "youtu.be"}

// YtDlp shells out to the local yt-dlp binary to perform downloads
type YtDlp struct {
	binaryPath  string
	downloadDir string
	timeout     time.Duration
}

// NewYtDlp creates a yt-dlp downloader writing into downloadDir. A
// binary next to the working directory takes precedence over PATH.
func NewYtDlp(downloadDir string) *YtDlp {
	binary := "yt-dlp"
	if _, err := os.Stat("./yt-dlp"); err == nil {
		binary = "./yt-dlp"
	}
	return &YtDlp{
		binaryPath:  binary,
		downloadDir: downloadDir,
		timeout:     DefaultTimeout,
	}
}

// SetTimeout overrides the per-download timeout
func (d *YtDlp) SetTimeout(timeout time.Duration) {
	d.timeout = timeout
}

// Download runs yt-dlp for the request and returns the downloaded file
// path together with a sanitized display name.
func (d *YtDlp) Download(ctx context.Context, req Request) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := os.MkdirAll(d.downloadDir, 0o755); err != nil {
		return nil, NewTransient("failed to create download directory", err)
	}

	args := d.buildArgs(req)
	cmd := exec.CommandContext(ctx, d.binaryPath, args...)

	var out bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		combined := stderr.String()
		return nil, &Error{
			Class: classify(combined),
			Msg:   fmt.Sprintf("yt-dlp failed: %s", tail(combined, 500)),
			Err:   err,
		}
	}

	title, path := parseOutput(out.String())
	if path == "" {
		return nil, NewTransient("yt-dlp did not report an output file", nil)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, NewTransient("failed to resolve output path", err)
	}
	if _, err := os.Stat(absPath); err != nil {
		return nil, NewPermanent(fmt.Sprintf("downloaded file not found at %s", absPath), err)
	}

	ext := strings.TrimPrefix(filepath.Ext(absPath), ".")
	fallback := fmt.Sprintf("%s.%s", req.TaskID, ext)
	display := SanitizeDisplayName(fmt.Sprintf("%s.%s", title, ext), fallback)
	if title == "" {
		display = fallback
	}

	return &Result{Filepath: absPath, DisplayName: display}, nil
}

// buildArgs assembles the yt-dlp command line for a request. Output
// files are templated by task id so concurrent jobs cannot collide.
func (d *YtDlp) buildArgs(req Request) []string {
	outTmpl := filepath.Join(d.downloadDir, req.TaskID+".%(ext)s")

	args := []string{
		"--no-progress",
		"--no-warnings",
		"--no-simulate",
		"--embed-metadata",
		"--max-filesize", MaxFilesize,
		"--print", "pre_process:%(title)s",
		"--print", "after_move:filepath",
		"-o", outTmpl,
	}

	switch {
	case req.Options.AudioOnly:
		args = append(args, "-f", audioFormat, "-x", "--audio-format", "mp3", "--audio-quality", "192K")
	case req.Options.Format != "":
		args = append(args, "-f", req.Options.Format)
	case isYouTube(req.URL):
		args = append(args, "-f", youtubeVideoFormat)
	default:
		args = append(args, "-f", defaultVideoFormat)
	}

	return append(args, req.URL)
}

// parseOutput splits the printed lines: the title comes first
// (pre_process), the final file path last (after_move).
func parseOutput(stdout string) (title, path string) {
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	var nonEmpty []string
	for _, l := range lines {
		if s := strings.TrimSpace(l); s != "" {
			nonEmpty = append(nonEmpty, s)
		}
	}
	if len(nonEmpty) == 0 {
		return "", ""
	}
	if len(nonEmpty) == 1 {
		return "", nonEmpty[0]
	}
	return nonEmpty[0], nonEmpty[len(nonEmpty)-1]
}

func isYouTube(rawURL string) bool {
	for _, host := range youtubeHosts {
		if strings.Contains(rawURL, host) {
			return true
		}
	}
	return false
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
