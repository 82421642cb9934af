package downloader

import (
	"regexp"
	"strings"
)

// illegalNameChars are characters that are invalid in filenames on
// common filesystems
var illegalNameChars = regexp.MustCompile(`[\\/*?:"<>|]`)

// SanitizeDisplayName replaces filesystem-illegal characters in a
// human-facing filename with underscores. When nothing presentable
// remains, fallback is returned instead.
func SanitizeDisplayName(name, fallback string) string {
	s := illegalNameChars.ReplaceAllString(name, "_")
	s = strings.TrimSpace(s)
	if strings.Trim(s, "_ .") == "" {
		return fallback
	}
	return s
}
