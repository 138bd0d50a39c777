// Package digest assembles the reader-facing output: select stored items,
// make sure both caches are filled, apply the role's filters, and render
// grouped markdown.
package digest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/briefstack/maildigest/interfaces"
	"github.com/briefstack/maildigest/internal/config"
	"github.com/briefstack/maildigest/internal/enum"
	"github.com/briefstack/maildigest/internal/logger"
	"github.com/briefstack/maildigest/internal/models"
	"github.com/briefstack/maildigest/internal/utils"
)

type digestService struct {
	cfg        *config.DigestConfig
	items      interfaces.ContentItemRepository
	enrichment interfaces.EnrichmentService
	log        *logger.Logger
}

func NewDigestService(
	cfg *config.DigestConfig,
	items interfaces.ContentItemRepository,
	enrichment interfaces.EnrichmentService,
	log *logger.Logger,
) interfaces.DigestService {
	return &digestService{
		cfg:        cfg,
		items:      items,
		enrichment: enrichment,
		log:        log,
	}
}

func (s *digestService) Select(ctx context.Context, role *config.Role, query interfaces.DigestQuery) ([]interfaces.DigestItem, error) {
	candidates, err := s.loadCandidates(ctx, query)
	if err != nil {
		return nil, err
	}
	s.log.Infof("building digest for role %s from %d candidates", role.Name, len(candidates))

	var selected []interfaces.DigestItem
	for _, item := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		enriched, err := s.enrichment.EnsureEnrichment(ctx, item)
		if err != nil {
			return nil, errors.Wrapf(err, "enrichment failed for %s", item.ContentID)
		}
		tags, _ := enriched.Tags()
		category := enriched.Category.String

		if !matchesRole(role, category, tags) {
			continue
		}

		angles, err := s.enrichment.EnsureRoleAngles(ctx, item, role, enriched)
		if err != nil {
			return nil, errors.Wrapf(err, "angle generation failed for %s", item.ContentID)
		}

		subject := item.Subject
		if subject == "" {
			subject = "(no subject)"
		}
		selected = append(selected, interfaces.DigestItem{
			ContentID:    item.ContentID,
			Subject:      subject,
			Category:     category,
			SummaryMD:    enriched.SummaryMD.String,
			TopicTags:    tags,
			DomainTag:    enum.DomainTagFromTopics(tags),
			StartupAngle: angles.StartupAngle,
			RoleAngle:    angles.RoleAngle,
		})
	}

	s.log.Infof("role %s: %d of %d items selected", role.Name, len(selected), len(candidates))
	return selected, nil
}

func (s *digestService) loadCandidates(ctx context.Context, query interfaces.DigestQuery) ([]*models.ContentItem, error) {
	if len(query.ContentIDs) > 0 {
		return s.items.GetByContentIDs(ctx, query.ContentIDs)
	}

	var since *time.Time
	if query.SinceHours > 0 {
		cutoff := time.Now().UTC().Add(-time.Duration(query.SinceHours) * time.Hour)
		since = &cutoff
	}
	return s.items.List(ctx, since, query.MaxItems)
}

// matchesRole applies both role filters. Category is exact within the focus
// list; topics pass when any item tag matches any focus topic. An empty
// focus list means no filtering on that axis.
func matchesRole(role *config.Role, category string, tags []string) bool {
	if len(role.FocusCategories) > 0 && !utils.ContainsFold(category, role.FocusCategories) {
		return false
	}
	if len(role.FocusTopics) > 0 {
		matched := false
		for _, tag := range tags {
			if utils.ContainsFold(tag, role.FocusTopics) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

func (s *digestService) FormatMarkdown(items []interfaces.DigestItem, roleName string) string {
	var b strings.Builder
	b.WriteString("# Digest of Recent Insights\n\n")
	b.WriteString(fmt.Sprintf("_Role: %s · %d items_\n", roleName, len(items)))

	if len(items) == 0 {
		b.WriteString("\nNo new items matched this role's focus.\n")
		return b.String()
	}

	grouped := make(map[string][]interfaces.DigestItem, len(enum.Categories))
	for _, item := range items {
		category := item.Category
		if category == "" {
			category = enum.CategoryOther.String()
		}
		grouped[category] = append(grouped[category], item)
	}

	for _, category := range enum.Categories {
		section := grouped[category.String()]
		if len(section) == 0 {
			continue
		}
		b.WriteString(fmt.Sprintf("\n## %s\n", category))
		for _, item := range section {
			writeItem(&b, item, roleName)
		}
	}
	return b.String()
}

func writeItem(b *strings.Builder, item interfaces.DigestItem, roleName string) {
	b.WriteString(fmt.Sprintf("\n### %s", item.Subject))
	if item.DomainTag != "" {
		b.WriteString(fmt.Sprintf(" (Domain: %s)", item.DomainTag))
	}
	b.WriteString("\n\n")

	if item.SummaryMD != "" {
		b.WriteString(item.SummaryMD)
		b.WriteString("\n\n")
	}
	if len(item.TopicTags) > 0 {
		b.WriteString(fmt.Sprintf("_Topics: %s_\n\n", strings.Join(item.TopicTags, ", ")))
	}
	b.WriteString(fmt.Sprintf("- **Startup angle:** %s\n", item.StartupAngle))
	b.WriteString(fmt.Sprintf("- **%s angle:** %s\n", roleName, item.RoleAngle))
}

func (s *digestService) WriteDigest(markdown string, date time.Time, roleName string) (string, error) {
	if err := os.MkdirAll(s.cfg.OutputDir, 0o755); err != nil {
		return "", errors.Wrap(err, "failed to create output directory")
	}

	name := fmt.Sprintf("digest-%s", date.Format("2006-01-02"))
	if roleName != "" {
		name += "-" + sanitizeRoleName(roleName)
	}
	path := filepath.Join(s.cfg.OutputDir, name+".md")

	if err := os.WriteFile(path, []byte(markdown), 0o644); err != nil {
		return "", errors.Wrapf(err, "failed to write digest %s", path)
	}
	s.log.Infof("wrote digest %s", path)
	return path, nil
}

func sanitizeRoleName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '-'
		default:
			return -1
		}
	}, name)
}
