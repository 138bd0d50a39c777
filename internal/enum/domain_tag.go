package enum

import "strings"

// DomainTags is the ordered domain vocabulary used to derive a single digest
// grouping label from an item's topic tags. Order matters: the first
// vocabulary entry that appears among the tags wins, regardless of where it
// sits in the item's own tag list.
var DomainTags = []string{
	"Telecom",
	"Device Financing",
	"AI SaaS",
	"FinTech",
}

// DomainTagFromTopics returns the first vocabulary entry matched
// (case-insensitively) by any of the given topic tags, or "" when none match.
func DomainTagFromTopics(tags []string) string {
	lowered := make(map[string]bool, len(tags))
	for _, tag := range tags {
		lowered[strings.ToLower(strings.TrimSpace(tag))] = true
	}
	for _, domain := range DomainTags {
		if lowered[strings.ToLower(domain)] {
			return domain
		}
	}
	return ""
}
