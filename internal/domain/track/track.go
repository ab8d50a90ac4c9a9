// ABOUTME: Now-playing track record and sanitizer for untrusted submissions
// ABOUTME: Coerces fields to text and truncates them to fixed limits
package track

import (
	"encoding/json"
	"fmt"
	"strconv"
)

const (
	MaxTitleLen  = 120
	MaxArtistLen = 120
	MaxCoverLen  = 5000
	MaxURLLen    = 5000
)

// Placeholder is the display line used when title or artist is missing.
const Placeholder = "nothing playing :["

// Track is the current now-playing record. All fields are always present,
// possibly empty.
type Track struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Cover  string `json:"cover"`
	URL    string `json:"url"`
}

// DisplayLine returns "title - artist", or Placeholder unless both are set.
func (t Track) DisplayLine() string {
	if t.Title == "" || t.Artist == "" {
		return Placeholder
	}
	return t.Title + " - " + t.Artist
}

func (t Track) IsEmpty() bool {
	return t == Track{}
}

// Submission is an untrusted key/value update. Values may be any JSON type.
type Submission map[string]any

// SubmissionFrom builds a submission from plain strings.
func SubmissionFrom(title, artist, cover, url string) Submission {
	return Submission{
		"title":  title,
		"artist": artist,
		"cover":  cover,
		"url":    url,
	}
}

// Sanitize turns a submission into a Track. Missing keys become empty strings
// and oversize values are truncated. It never fails.
func Sanitize(raw Submission) Track {
	return Track{
		Title:  truncate(coerce(raw["title"]), MaxTitleLen),
		Artist: truncate(coerce(raw["artist"]), MaxArtistLen),
		Cover:  truncate(coerce(raw["cover"]), MaxCoverLen),
		URL:    truncate(coerce(raw["url"]), MaxURLLen),
	}
}

func coerce(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	case fmt.Stringer:
		return val.String()
	}
	if b, err := json.Marshal(v); err == nil {
		return string(b)
	}
	return fmt.Sprint(v)
}

// truncate cuts s to at most n code points without splitting a rune.
func truncate(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
