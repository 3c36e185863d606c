// Package text extracts track URLs from Discord message content.
package text

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	// Suppressed URLs (<https://...>) are matched first so the plain-URL
	// alternative never sees their inner part.
	urlRegex = regexp.MustCompile(`<https?://[^\s>]+>|https?://\S+`)

	trailingPunct = ".,!?;:)"
)

// ExtractURLs returns the URLs of a message in order of appearance.
// URLs wrapped in angle brackets are skipped: that is how Discord users
// suppress link previews, and it doubles as an opt-out from conversion.
func ExtractURLs(content string) []string {
	content = norm.NFKC.String(content)

	var urls []string
	for _, match := range urlRegex.FindAllString(content, -1) {
		if strings.HasPrefix(match, "<") {
			continue
		}
		if u := strings.TrimRight(match, trailingPunct); u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}

// Unwrap strips one layer of angle brackets from a user-supplied URL, so
// slash-command arguments pasted with suppression markers still resolve.
func Unwrap(raw string) string {
	raw = strings.TrimSpace(norm.NFKC.String(raw))
	if strings.HasPrefix(raw, "<") && strings.HasSuffix(raw, ">") {
		raw = strings.TrimSuffix(strings.TrimPrefix(raw, "<"), ">")
	}
	return raw
}
