package interfaces

import (
	"context"
	"time"

	"github.com/briefstack/maildigest/internal/config"
)

// DigestQuery selects candidate items. An explicit ContentIDs list takes
// precedence over the time-window/row-cap query.
type DigestQuery struct {
	ContentIDs []string
	SinceHours int
	MaxItems   int
}

// DigestItem is one enriched, filtered item ready for rendering.
type DigestItem struct {
	ContentID    string
	Subject      string
	Category     string
	SummaryMD    string
	TopicTags    []string
	DomainTag    string
	StartupAngle string
	RoleAngle    string
}

type DigestService interface {
	// Select loads candidates, fills both caches as a side effect (this can
	// trigger provider calls), and applies the role's category/topic filters.
	// The result keeps created_at-descending order; grouping is the
	// renderer's job.
	Select(ctx context.Context, role *config.Role, query DigestQuery) ([]DigestItem, error)
	FormatMarkdown(items []DigestItem, roleName string) string
	// WriteDigest writes rendered markdown under the output directory and
	// returns the file path.
	WriteDigest(markdown string, date time.Time, roleName string) (string, error)
}
