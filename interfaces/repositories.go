package interfaces

import (
	"context"
	"time"

	"github.com/briefstack/maildigest/internal/models"
)

type ContentItemRepository interface {
	// Insert stores a new item. A unique-key violation (content_id or
	// message_id already present) returns errors.ErrDuplicate.
	Insert(ctx context.Context, item *models.ContentItem) error
	ExistsByMessageID(ctx context.Context, messageID string) (bool, error)
	ExistsBySourceUID(ctx context.Context, sourceUID string) (bool, error)
	ExistsByContentID(ctx context.Context, contentID string) (bool, error)
	// GetByContentIDs returns matching items ordered by created_at descending.
	GetByContentIDs(ctx context.Context, contentIDs []string) ([]*models.ContentItem, error)
	// List returns items ordered by created_at descending, optionally bounded
	// by a creation cutoff and a row cap (zero value = unbounded).
	List(ctx context.Context, since *time.Time, maxItems int) ([]*models.ContentItem, error)
}

type AICacheRepository interface {
	// Get returns nil, nil when no entry exists for the content id.
	Get(ctx context.Context, contentID string) (*models.AICacheEntry, error)
	// Upsert merges the entry into the cache. Only fields marked valid on the
	// entry are written; already-present fields the entry does not carry stay
	// untouched.
	Upsert(ctx context.Context, entry *models.AICacheEntry) error
}

type RoleCacheRepository interface {
	// Get returns nil, nil when no entry exists for the (content, role) pair.
	Get(ctx context.Context, contentID, roleName string) (*models.RoleCacheEntry, error)
	// InsertIfAbsent writes the entry unless one already exists, in which case
	// the stored entry is returned unchanged. A concurrent duplicate insert is
	// a no-op, not an error.
	InsertIfAbsent(ctx context.Context, entry *models.RoleCacheEntry) (*models.RoleCacheEntry, error)
}

type IngestStateRepository interface {
	// GetLastUID returns 0 when no cursor exists yet.
	GetLastUID(ctx context.Context, sourceType, mailbox string) (uint32, error)
	// SaveLastUID upserts the cursor. The stored watermark never decreases.
	SaveLastUID(ctx context.Context, sourceType, mailbox string, lastUID uint32) error
}
