// Package urlnorm canonicalizes media URLs into stable cache keys.
package urlnorm

import (
	"net/url"
	"strings"
)

// videoIDParam is the query parameter that identifies a video on the
// recognized media-sharing hosts
const videoIDParam = "v"

// recognizedHost reports whether the host belongs to the media-sharing
// domain set whose URLs carry the video id in a query parameter
func recognizedHost(host string) bool {
	return host == "youtube.com" || strings.HasSuffix(host, ".youtube.com") ||
		host == "youtube-nocookie.com" || strings.HasSuffix(host, ".youtube-nocookie.com")
}

// shortLinkHost reports whether the host identifies the video in the URL
// path, making every query parameter non-identifying
func shortLinkHost(host string) bool {
	return host == "youtu.be"
}

// Normalize canonicalizes a URL into a stable cache key. For recognized
// hosts only the video id parameter is retained; every other query
// parameter and the fragment are dropped. Scheme, host and path are
// preserved. Unrecognized or unparsable input is returned unchanged.
// Normalize is idempotent.
func Normalize(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}

	host := strings.ToLower(u.Hostname())
	switch {
	case recognizedHost(host):
		q := u.Query()
		id := q.Get(videoIDParam)
		u.RawQuery = ""
		if id != "" {
			u.RawQuery = url.Values{videoIDParam: []string{id}}.Encode()
		}
		u.Fragment = ""
		return u.String()
	case shortLinkHost(host):
		u.RawQuery = ""
		u.Fragment = ""
		return u.String()
	default:
		return raw
	}
}
