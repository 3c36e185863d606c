// Package fuzzy normalizes track titles and artist names and scores how
// similar two of them are. The resolver uses the score to log conversions
// where the best search hit looks unlike the source track.
package fuzzy

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	featRegex    = regexp.MustCompile(`(?i)\s*[\(\[]?\s*(?:feat\.?|ft\.?|featuring)\s+[^\)\]]*[\)\]]?\s*`)
	versionRegex = regexp.MustCompile(`(?i)\s*[\(\[]\s*(?:remaster(?:ed)?|deluxe|extended|radio edit|clean|explicit|live|official(?: music)? video|lyric video|audio)[^\)\]]*[\)\]]\s*`)
	punctRegex   = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
	spaceRegex   = regexp.MustCompile(`\s+`)
)

// NormalizeTitle strips featuring credits and version qualifiers so the same
// song titled slightly differently on two platforms still compares well.
func NormalizeTitle(title string) string {
	title = base(title)
	title = featRegex.ReplaceAllString(title, " ")
	title = versionRegex.ReplaceAllString(title, " ")
	return strings.TrimSpace(spaceRegex.ReplaceAllString(title, " "))
}

// NormalizeArtist lowercases and strips punctuation and accents from an
// artist name.
func NormalizeArtist(artist string) string {
	return base(artist)
}

// base lowercases, strips diacritics (NFKD + mark removal) and collapses
// punctuation and whitespace.
func base(text string) string {
	text = norm.NFKD.String(text)

	var b strings.Builder
	for _, r := range text {
		if !unicode.IsMark(r) {
			b.WriteRune(r)
		}
	}

	text = punctRegex.ReplaceAllString(b.String(), " ")
	text = spaceRegex.ReplaceAllString(text, " ")
	return strings.TrimSpace(strings.ToLower(text))
}

// Similarity scores two already-normalized strings in [0, 1] using the
// longest common subsequence over the longer length.
func Similarity(s1, s2 string) float64 {
	if s1 == s2 {
		return 1.0
	}
	if len(s1) == 0 || len(s2) == 0 {
		return 0.0
	}
	longest := len(s1)
	if len(s2) > longest {
		longest = len(s2)
	}
	return float64(lcs(s1, s2)) / float64(longest)
}

func lcs(s1, s2 string) int {
	m, n := len(s1), len(s2)
	dp := make([][]int, m+1)
	for i := range dp {
		dp[i] = make([]int, n+1)
	}

	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			if s1[i-1] == s2[j-1] {
				dp[i][j] = dp[i-1][j-1] + 1
			} else if dp[i-1][j] > dp[i][j-1] {
				dp[i][j] = dp[i-1][j]
			} else {
				dp[i][j] = dp[i][j-1]
			}
		}
	}

	return dp[m][n]
}
