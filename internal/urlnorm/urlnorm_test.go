package urlnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "keeps only video id on youtube",
			in:   "https://www.youtube.com/watch?v=abc123&list=PL99&t=42s",
			want: "https://www.youtube.com/watch?v=abc123",
		},
		{
			name: "drops tracking params",
			in:   "https://youtube.com/watch?v=abc123&utm_source=share&feature=youtu.be",
			want: "https://youtube.com/watch?v=abc123",
		},
		{
			name: "mobile subdomain is recognized",
			in:   "https://m.youtube.com/watch?v=xyz&app=desktop",
			want: "https://m.youtube.com/watch?v=xyz",
		},
		{
			name: "no id parameter leaves bare path",
			in:   "https://www.youtube.com/feed/subscriptions?flow=1",
			want: "https://www.youtube.com/feed/subscriptions",
		},
		{
			name: "short link keeps path drops query",
			in:   "https://youtu.be/abc123?si=tracker&t=10",
			want: "https://youtu.be/abc123",
		},
		{
			name: "fragment is dropped on recognized hosts",
			in:   "https://www.youtube.com/watch?v=abc123#comments",
			want: "https://www.youtube.com/watch?v=abc123",
		},
		{
			name: "unrecognized host passes through untouched",
			in:   "https://vimeo.com/12345?foo=bar",
			want: "https://vimeo.com/12345?foo=bar",
		},
		{
			name: "unparsable input passes through",
			in:   "://not a url",
			want: "://not a url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.in)
			assert.Equal(t, tt.want, got)

			// Normalization must be idempotent
			assert.Equal(t, got, Normalize(got))
		})
	}
}

func TestNormalizePreservesSchemeHostPath(t *testing.T) {
	in := "http://music.youtube.com/watch?v=id1&extra=2"
	got := Normalize(in)
	assert.Equal(t, "http://music.youtube.com/watch?v=id1", got)
}

func TestNormalizeDistinctIDsStayDistinct(t *testing.T) {
	a := Normalize("https://www.youtube.com/watch?v=aaa&x=1")
	b := Normalize("https://www.youtube.com/watch?v=bbb&x=1")
	assert.NotEqual(t, a, b)
}
