// Package m3u parses M3U playlist text into channel records.
package m3u

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// DefaultGroup is assigned to channels whose EXTINF line carries no
// group-title attribute.
const DefaultGroup = "General"

// Channel is one playable entry extracted from a playlist. Channels are
// never persisted; they are re-derived by re-parsing their playlist.
type Channel struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	LogoURL        string `json:"logo_url,omitempty"`
	Group          string `json:"group"`
	StreamURL      string `json:"stream_url"`
	SourcePlaylist string `json:"source_playlist"`
}

var (
	attrID    = regexp.MustCompile(`tvg-id="([^"]*)"`)
	attrLogo  = regexp.MustCompile(`tvg-logo="([^"]*)"`)
	attrGroup = regexp.MustCompile(`group-title="([^"]*)"`)
)

// pending holds metadata from an #EXTINF line until its URL line arrives.
type pending struct {
	id    string
	name  string
	logo  string
	group string
}

// Parse scans M3U text and returns the channels it declares, in input
// order, each tagged with the given source playlist name. Malformed or
// incomplete entries are dropped silently; a playlist with no valid
// entries yields an empty slice, never an error.
//
// An #EXTINF line opens a pending entry (discarding any unterminated
// one); the next non-empty, non-comment line is taken as its stream URL.
// URL lines with no preceding metadata are ignored. Channel ids prefer
// tvg-id, fall back to a positional placeholder, and are de-duplicated
// with _1, _2, ... suffixes within the parse pass.
func Parse(r io.Reader, source string) []Channel {
	var channels []Channel
	var cur *pending
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if strings.HasPrefix(line, "#EXTINF:") {
			cur = parseExtinf(line)
			continue
		}

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// URL line. Without pending metadata there is nothing to emit.
		if cur == nil {
			continue
		}

		id := cur.id
		if id == "" {
			id = fmt.Sprintf("channel_%d", len(channels))
		}
		id = uniqueID(id, seen)
		seen[id] = true

		channels = append(channels, Channel{
			ID:             id,
			Name:           cur.name,
			LogoURL:        cur.logo,
			Group:          cur.group,
			StreamURL:      line,
			SourcePlaylist: source,
		})
		cur = nil
	}

	return channels
}

// ParseString is a convenience wrapper around Parse.
func ParseString(content, source string) []Channel {
	return Parse(strings.NewReader(content), source)
}

// parseExtinf extracts the display name and recognized attributes from
// an #EXTINF metadata line. The name is the text after the last comma.
func parseExtinf(line string) *pending {
	p := &pending{group: DefaultGroup}

	if idx := strings.LastIndex(line, ","); idx != -1 {
		p.name = strings.TrimSpace(line[idx+1:])
	}
	if m := attrID.FindStringSubmatch(line); len(m) > 1 {
		p.id = m[1]
	}
	if m := attrLogo.FindStringSubmatch(line); len(m) > 1 {
		p.logo = m[1]
	}
	if m := attrGroup.FindStringSubmatch(line); len(m) > 1 {
		p.group = m[1]
	}

	return p
}

// uniqueID resolves id collisions by appending the first unused integer
// suffix, keeping ids deterministic in input order.
func uniqueID(id string, seen map[string]bool) string {
	if !seen[id] {
		return id
	}
	for counter := 1; ; counter++ {
		candidate := fmt.Sprintf("%s_%d", id, counter)
		if !seen[candidate] {
			return candidate
		}
	}
}
