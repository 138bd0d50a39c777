package interfaces

import (
	"context"

	"github.com/briefstack/maildigest/internal/config"
	"github.com/briefstack/maildigest/internal/models"
)

type EnrichmentService interface {
	// EnsureEnrichment returns the cache entry for the item, generating any
	// missing field first. Once all three fields are present this is a
	// zero-network-call cache hit.
	EnsureEnrichment(ctx context.Context, item *models.ContentItem) (*models.AICacheEntry, error)
	// EnsureRoleAngles returns the cached angles for (item, role), generating
	// and permanently caching them on first request. Cached angles are
	// returned unchanged even if the role's configuration changed since.
	EnsureRoleAngles(ctx context.Context, item *models.ContentItem, role *config.Role, enrichment *models.AICacheEntry) (*models.RoleCacheEntry, error)
}
