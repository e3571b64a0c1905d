// Package normalize provides canonical forms for the values Keepstack uses as
// lookup keys: article URLs and tag slugs.
package normalize

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// Matches spaces, underscores, and slashes (for replacement with dashes).
	wordSeparatorRe = regexp.MustCompile(`[\s_/]+`)
	// Matches non-alphanumeric characters (except dashes).
	nonAlphanumericRe = regexp.MustCompile(`[^a-z0-9-]`)
	// Matches multiple consecutive dashes.
	multipleDashRe = regexp.MustCompile(`-+`)
)

// foldDiacritics decomposes accented characters and strips the combining
// marks, so "café" slugs to "cafe" instead of dropping the rune entirely.
//
//nolint:gochecknoglobals // Reusable transformer chain
var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// TagSlug converts user input to a canonical tag slug.
// The slug is the source of truth for tag identity.
//
// Normalization rules:
//  1. Fold diacritics to their base letters
//  2. Trim whitespace and lowercase
//  3. Replace spaces and underscores with dashes
//  4. Remove non-alphanumeric characters (except dashes)
//  5. Collapse multiple dashes
//  6. Trim leading/trailing dashes
//
// Examples:
//
//	"Deep Work"     → "deep-work"
//	"deep_work"     → "deep-work"
//	"Café Culture"  → "cafe-culture"
//	"🔖 To Read!"   → "to-read"
//	"--leading--"   → "leading"
func TagSlug(input string) string {
	// 1. Fold diacritics; fall back to the raw input if the transform fails.
	if folded, _, err := transform.String(foldDiacritics, input); err == nil {
		input = folded
	}

	// 2. Trim and lowercase
	s := strings.ToLower(strings.TrimSpace(input))

	// 3. Replace word separators (spaces, underscores, slashes) with dashes
	s = wordSeparatorRe.ReplaceAllString(s, "-")

	// 4. Remove non-alphanumeric (except dashes)
	s = nonAlphanumericRe.ReplaceAllString(s, "")

	// 5. Collapse multiple dashes
	s = multipleDashRe.ReplaceAllString(s, "-")

	// 6. Trim leading/trailing dashes
	return strings.Trim(s, "-")
}

// trackingParams are query parameters stripped from canonical URLs. They vary
// per visit and would defeat URL-based deduplication.
//
//nolint:gochecknoglobals // Static lookup table
var trackingParams = map[string]bool{
	"utm_source": true, "utm_medium": true, "utm_campaign": true,
	"utm_term": true, "utm_content": true, "utm_id": true,
	"fbclid": true, "gclid": true, "mc_cid": true, "mc_eid": true,
	"ref": true, "ref_src": true,
}

// CanonicalURL normalizes a URL for use as an article's business key:
// lowercased scheme and host, fragment dropped, tracking parameters removed,
// and a trailing slash on non-root paths trimmed.
//
// Inputs that do not parse as absolute http(s) URLs are returned with only
// surrounding whitespace trimmed, so locally generated schemes like
// local-epub:// pass through untouched.
func CanonicalURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	u, err := url.Parse(trimmed)
	if err != nil || u.Host == "" {
		return trimmed
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return trimmed
	}

	u.Scheme = scheme
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	if u.RawQuery != "" {
		q := u.Query()
		for param := range q {
			if trackingParams[strings.ToLower(param)] {
				q.Del(param)
			}
		}
		u.RawQuery = q.Encode()
	}

	if len(u.Path) > 1 {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}

	return u.String()
}

// CleanString removes null bytes from strings, which can cause issues in the
// record store and JSON parsing. Some document metadata embeds null
// terminators in strings.
func CleanString(s string) string {
	return strings.Map(func(r rune) rune {
		if r == 0 { // null byte
			return -1 // drop it
		}
		return r
	}, s)
}

// CollapseWhitespace trims a string and folds internal whitespace runs into
// single spaces. Used for titles and author names pulled from markup.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
