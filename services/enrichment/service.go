// Package enrichment owns the two generation caches. Expensive artifacts
// are computed at most once per content identity (summary, category, topic
// tags) and at most once per (content identity, role) pair (angles).
package enrichment

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/briefstack/maildigest/interfaces"
	"github.com/briefstack/maildigest/internal/config"
	"github.com/briefstack/maildigest/internal/logger"
	"github.com/briefstack/maildigest/internal/models"
	"github.com/briefstack/maildigest/internal/utils"
	"github.com/briefstack/maildigest/services/ai"
)

// maxCharsPerLinkBlock caps each appended link-content block in the prompt.
const maxCharsPerLinkBlock = 1000

type enrichmentService struct {
	aiCache      interfaces.AICacheRepository
	roleCache    interfaces.RoleCacheRepository
	provider     interfaces.AIProvider
	log          *logger.Logger
	maxBodyChars int
}

func NewEnrichmentService(
	aiCache interfaces.AICacheRepository,
	roleCache interfaces.RoleCacheRepository,
	provider interfaces.AIProvider,
	log *logger.Logger,
	maxBodyChars int,
) interfaces.EnrichmentService {
	return &enrichmentService{
		aiCache:      aiCache,
		roleCache:    roleCache,
		provider:     provider,
		log:          log,
		maxBodyChars: maxBodyChars,
	}
}

// EnsureEnrichment fills whichever of the three generated fields are
// missing, each with its own provider call, and merges the result back into
// the cache. Presence rules are asymmetric on purpose: summary and category
// regenerate when blank, topic tags count as cached even when empty so a
// legitimate zero-tag classification is not recomputed forever.
func (s *enrichmentService) EnsureEnrichment(ctx context.Context, item *models.ContentItem) (*models.AICacheEntry, error) {
	cached, err := s.aiCache.Get(ctx, item.ContentID)
	if err != nil {
		return nil, err
	}

	merged := &models.AICacheEntry{ContentID: item.ContentID}
	var tags []string
	tagsCached := false
	if cached != nil {
		merged.SummaryMD = cached.SummaryMD
		merged.Category = cached.Category
		merged.TopicTags = cached.TopicTags
		tags, tagsCached = cached.Tags()
	}

	needSummary := !merged.HasSummary()
	needCategory := !merged.HasCategory()
	if !needSummary && !needCategory && tagsCached {
		return merged, nil
	}

	promptText := s.buildPromptText(item)

	if needSummary {
		raw, err := s.provider.Generate(ctx, ai.BuildSummaryPrompt(item, promptText), ai.TemperatureSummary)
		if err != nil {
			return nil, errors.Wrap(err, "summary generation failed")
		}
		// A blank response is stored blank: it reads as missing and gets
		// another attempt on the next pass.
		merged.SummaryMD = sql.NullString{String: strings.TrimSpace(raw), Valid: true}
	}

	if needCategory {
		raw, err := s.provider.Generate(ctx, ai.BuildCategoryPrompt(item, promptText), ai.TemperatureCategory)
		if err != nil {
			return nil, errors.Wrap(err, "category generation failed")
		}
		category := ai.ParseCategory(raw)
		merged.Category = sql.NullString{String: category.String(), Valid: true}
	}

	if !tagsCached {
		raw, err := s.provider.Generate(ctx, ai.BuildTopicTagsPrompt(item, promptText), ai.TemperatureTags)
		if err != nil {
			return nil, errors.Wrap(err, "topic tagging failed")
		}
		tags = ai.ParseTopicTags(raw)
		merged.SetTags(tags)
	}

	if err := s.aiCache.Upsert(ctx, merged); err != nil {
		return nil, err
	}
	return merged, nil
}

// EnsureRoleAngles returns the cached angle pair for (item, role) or
// generates it once. A cached pair is returned as stored; whether the
// role's objectives changed since is deliberately not checked.
func (s *enrichmentService) EnsureRoleAngles(ctx context.Context, item *models.ContentItem, role *config.Role, enrichment *models.AICacheEntry) (*models.RoleCacheEntry, error) {
	cached, err := s.roleCache.Get(ctx, item.ContentID, role.Name)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		return cached, nil
	}

	summary := enrichment.SummaryMD.String
	category := enrichment.Category.String
	tags, _ := enrichment.Tags()

	raw, err := s.provider.Generate(ctx, ai.BuildRoleAnglesPrompt(item, summary, category, tags, role), ai.TemperatureAngles)
	if err != nil {
		return nil, errors.Wrap(err, "role angle generation failed")
	}
	startup, roleAngle := ai.ParseRoleAngles(raw, role.Name)

	return s.roleCache.InsertIfAbsent(ctx, &models.RoleCacheEntry{
		ContentID:    item.ContentID,
		RoleName:     role.Name,
		StartupAngle: startup,
		RoleAngle:    roleAngle,
	})
}

// buildPromptText assembles the provider input: the length-capped body plus
// a trimmed block per fetched link, in stable URL order.
func (s *enrichmentService) buildPromptText(item *models.ContentItem) string {
	body := utils.Truncate(strings.TrimSpace(item.ExtractedText), s.maxBodyChars)

	if len(item.LinkContent) == 0 {
		return body
	}

	urls := make([]string, 0, len(item.LinkContent))
	for url, content := range item.LinkContent {
		if content != "" {
			urls = append(urls, url)
		}
	}
	sort.Strings(urls)

	blocks := make([]string, 0, len(urls))
	for _, url := range urls {
		trimmed := utils.Truncate(item.LinkContent[url], maxCharsPerLinkBlock)
		blocks = append(blocks, fmt.Sprintf("--- Content from %s ---\n%s", url, trimmed))
	}
	if len(blocks) == 0 {
		return body
	}
	return body + "\n\n" + strings.Join(blocks, "\n\n")
}
