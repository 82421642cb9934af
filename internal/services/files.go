package services

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dlerhq/dler/internal/logger"
)

// File gateway errors
var (
	// ErrForbiddenPath is returned when a path resolves outside the
	// download root
	ErrForbiddenPath = errors.New("path is outside the download root")
	// ErrFileNotFound is returned when a contained path has no file on disk
	ErrFileNotFound = errors.New("file not found on the server")
)

// FileGateway validates and serves files referenced by completed tasks.
// Every path is canonicalized and checked for containment inside the
// configured download root before it is touched.
type FileGateway struct {
	root string
}

// NewFileGateway creates a gateway rooted at dir, creating it if needed
func NewFileGateway(dir string) (*FileGateway, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve download root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create download root: %w", err)
	}
	return &FileGateway{root: abs}, nil
}

// Root returns the absolute download root
func (g *FileGateway) Root() string {
	return g.root
}

// Resolve canonicalizes a path and verifies it lies inside the download
// root and exists on disk. Containment is checked before existence so a
// crafted path never leaks whether anything lives outside the root.
func (g *FileGateway) Resolve(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", ErrForbiddenPath
	}
	if !g.contains(abs) {
		return "", ErrForbiddenPath
	}
	if _, err := os.Stat(abs); err != nil {
		return "", ErrFileNotFound
	}
	return abs, nil
}

// Remove deletes a file after the same containment check. A file that is
// already absent is not an error.
func (g *FileGateway) Remove(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return ErrForbiddenPath
	}
	if !g.contains(abs) {
		return ErrForbiddenPath
	}
	if err := os.Remove(abs); err != nil {
		if os.IsNotExist(err) {
			logger.Debugf("File already absent, nothing to remove: %s", abs)
			return nil
		}
		return fmt.Errorf("failed to remove file: %w", err)
	}
	return nil
}

func (g *FileGateway) contains(abs string) bool {
	return abs == g.root || strings.HasPrefix(abs, g.root+string(filepath.Separator))
}
