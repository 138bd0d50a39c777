// Package links extracts URLs from message text and fetches their pages as
// auxiliary context. Every fetch is best-effort: a dead link never fails the
// pipeline.
package links

import (
	"regexp"
	"strings"
)

// excludePatterns drops URLs that never carry article content: ads,
// tracking, list management, job boards, social profiles. Extend as new
// noise sources show up in real newsletters.
var excludePatterns = []*regexp.Regexp{
	regexp.MustCompile(`advertise\.`),
	regexp.MustCompile(`/ads?/`),
	regexp.MustCompile(`/sponsor`),
	regexp.MustCompile(`jobs\.ashbyhq\.com`),
	regexp.MustCompile(`/jobs/`),
	regexp.MustCompile(`/careers/`),
	regexp.MustCompile(`/unsubscribe`),
	regexp.MustCompile(`/manage\?`),
	regexp.MustCompile(`/preferences`),
	regexp.MustCompile(`/settings`),
	regexp.MustCompile(`/refer`),
	regexp.MustCompile(`hub\.sparklp\.co`),
	regexp.MustCompile(`/web-version`),
	regexp.MustCompile(`twitter\.com/`),
	regexp.MustCompile(`x\.com/`),
	regexp.MustCompile(`linkedin\.com/in/`),
	regexp.MustCompile(`linkedin\.com/feed/`),
	regexp.MustCompile(`/sign-?up`),
	regexp.MustCompile(`/register`),
}

var urlPattern = regexp.MustCompile(`https?://[^\s<>"{}|\\^` + "`" + `\[\]]+`)

// IsValuableURL reports whether a URL is worth fetching as content.
func IsValuableURL(url string) bool {
	lowered := strings.ToLower(url)
	for _, pattern := range excludePatterns {
		if pattern.MatchString(lowered) {
			return false
		}
	}
	return true
}

// ExtractLinks returns the unique, content-worthy HTTP(S) URLs found in
// text, in order of first appearance.
func ExtractLinks(text string) []string {
	matches := urlPattern.FindAllString(text, -1)

	seen := make(map[string]bool, len(matches))
	var unique []string
	for _, url := range matches {
		url = strings.TrimRight(url, ".,;:!?)]")
		url = strings.TrimLeft(url, "[")
		if url == "" || seen[url] {
			continue
		}
		if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
			continue
		}
		if !IsValuableURL(url) {
			continue
		}
		seen[url] = true
		unique = append(unique, url)
	}
	return unique
}
