// Package ingestion runs the incremental fetch pass: read the mailbox
// cursor, inspect every newer UID, deduplicate in three tiers, store new
// items, then advance the cursor exactly once at the end.
package ingestion

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/briefstack/maildigest/interfaces"
	"github.com/briefstack/maildigest/internal/config"
	apperrors "github.com/briefstack/maildigest/internal/errors"
	"github.com/briefstack/maildigest/internal/identity"
	"github.com/briefstack/maildigest/internal/logger"
	"github.com/briefstack/maildigest/internal/models"
	"github.com/briefstack/maildigest/internal/utils"
	"github.com/briefstack/maildigest/services/links"
	"github.com/briefstack/maildigest/services/parser"
)

// SourceTypeIMAP namespaces identities and cursors per transport kind.
const SourceTypeIMAP = "imap"

type ingestionService struct {
	cfg         *config.IngestConfig
	mailbox     string
	transport   interfaces.MailTransport
	decoder     interfaces.MessageDecoder
	fetcher     interfaces.LinkFetcher
	items       interfaces.ContentItemRepository
	ingestState interfaces.IngestStateRepository
	log         *logger.Logger
}

func NewIngestionService(
	cfg *config.IngestConfig,
	mailbox string,
	transport interfaces.MailTransport,
	decoder interfaces.MessageDecoder,
	fetcher interfaces.LinkFetcher,
	items interfaces.ContentItemRepository,
	ingestState interfaces.IngestStateRepository,
	log *logger.Logger,
) interfaces.IngestionService {
	return &ingestionService{
		cfg:         cfg,
		mailbox:     mailbox,
		transport:   transport,
		decoder:     decoder,
		fetcher:     fetcher,
		items:       items,
		ingestState: ingestState,
		log:         log,
	}
}

func (s *ingestionService) Run(ctx context.Context) (*interfaces.IngestSummary, error) {
	summary := &interfaces.IngestSummary{}

	lastUID, err := s.ingestState.GetLastUID(ctx, SourceTypeIMAP, s.mailbox)
	if err != nil {
		return summary, errors.Wrap(err, "failed to read ingest cursor")
	}

	uids, err := s.transport.SearchSince(ctx, lastUID)
	if err != nil {
		return summary, errors.Wrap(err, "search failed")
	}
	if len(uids) == 0 {
		s.log.Infof("no new messages in %s past uid %d", s.mailbox, lastUID)
		return summary, nil
	}
	s.log.Infof("inspecting %d messages in %s past uid %d", len(uids), s.mailbox, lastUID)

	// The cursor records the highest UID inspected, not stored, so skipped
	// duplicates are never re-fetched on the next run.
	maxInspected := lastUID
	for _, uid := range uids {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		skipped, err := s.ingestOne(ctx, uid, summary)
		if err != nil {
			// Store the cursor progress made so far before bailing.
			if maxInspected > lastUID {
				if saveErr := s.ingestState.SaveLastUID(ctx, SourceTypeIMAP, s.mailbox, maxInspected); saveErr != nil {
					s.log.Errorf("failed to save ingest cursor: %v", saveErr)
				}
			}
			return summary, errors.Wrapf(err, "failed to ingest uid %d", uid)
		}
		if skipped {
			summary.Skipped++
		}
		if uid > maxInspected {
			maxInspected = uid
		}
	}

	if maxInspected > lastUID {
		if err := s.ingestState.SaveLastUID(ctx, SourceTypeIMAP, s.mailbox, maxInspected); err != nil {
			return summary, errors.Wrap(err, "failed to save ingest cursor")
		}
	}

	s.log.Infof("ingest complete: %d new, %d skipped", summary.NewCount, summary.Skipped)
	return summary, nil
}

// ingestOne processes a single UID. The returned bool reports whether the
// message was skipped as a duplicate or filtered out; an error aborts the
// whole run.
func (s *ingestionService) ingestOne(ctx context.Context, uid uint32, summary *interfaces.IngestSummary) (bool, error) {
	// UIDs are only unique within a mailbox, so the stored locator carries
	// the mailbox qualifier.
	sourceUID := fmt.Sprintf("%s:%d", s.mailbox, uid)

	// Tier 1: Message-ID from headers alone, before paying for the body.
	rawHeaders, err := s.transport.FetchHeaders(ctx, uid)
	if err != nil {
		return false, errors.Wrap(err, "failed to fetch headers")
	}
	messageID := s.transport.ExtractMessageID(rawHeaders)
	if messageID != "" {
		exists, err := s.items.ExistsByMessageID(ctx, messageID)
		if err != nil {
			return false, err
		}
		if exists {
			s.log.Debugf("uid %d: duplicate message id", uid)
			return true, nil
		}
	}

	// Tier 2: the mailbox UID itself.
	exists, err := s.items.ExistsBySourceUID(ctx, sourceUID)
	if err != nil {
		return false, err
	}
	if exists {
		s.log.Debugf("uid %d: already ingested", uid)
		return true, nil
	}

	raw, err := s.transport.FetchBody(ctx, uid)
	if err != nil {
		return false, errors.Wrap(err, "failed to fetch body")
	}
	msg, err := s.decoder.Decode(raw, s.cfg.MaxBodyChars)
	if err != nil {
		// An undecodable message is skipped, not fatal; the cursor still
		// advances past it.
		s.log.Warnf("uid %d: decode failed, skipping: %v", uid, err)
		return true, nil
	}

	if s.cfg.NewsletterOnly && !parser.IsNewsletter(msg) {
		s.log.Debugf("uid %d: not a newsletter, skipping", uid)
		return true, nil
	}

	// Tier 3: content identity computed from the decoded fields, so the
	// same message arriving under a different UID still deduplicates.
	contentID := identity.Compute(SourceTypeIMAP, msg.Subject, msg.Sender, msg.Date, msg.Body)
	exists, err = s.items.ExistsByContentID(ctx, contentID)
	if err != nil {
		return false, err
	}
	if exists {
		s.log.Debugf("uid %d: duplicate content", uid)
		return true, nil
	}

	item := &models.ContentItem{
		ContentID:     contentID,
		SourceType:    SourceTypeIMAP,
		SourceUID:     sourceUID,
		Subject:       msg.Subject,
		Sender:        msg.Sender,
		Date:          msg.Date,
		ExtractedText: msg.Body,
	}
	if messageID != "" {
		item.MessageID = &messageID
	}

	item.Links = links.ExtractLinks(msg.Body)
	if s.cfg.FetchLinks && len(item.Links) > 0 {
		item.LinkContent = s.fetchLinks(ctx, item.Links)
	}

	if err := s.items.Insert(ctx, item); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			s.log.Debugf("uid %d: lost insert race, skipping", uid)
			return true, nil
		}
		return false, err
	}

	if s.cfg.MarkSeen {
		if err := s.transport.MarkSeen(ctx, uid); err != nil {
			s.log.Warnf("uid %d: failed to mark seen: %v", uid, err)
		}
	}

	summary.NewCount++
	summary.NewContentIDs = append(summary.NewContentIDs, contentID)
	s.log.Infof("stored uid %d: %s", uid, utils.Truncate(msg.Subject, 60))
	return false, nil
}

// fetchLinks retrieves page text for the first few extracted URLs. Every
// failure is logged and dropped; the map only holds successful fetches.
func (s *ingestionService) fetchLinks(ctx context.Context, urls []string) models.StringMap {
	limit := s.cfg.MaxLinksToFetch
	if limit <= 0 || limit > len(urls) {
		limit = len(urls)
	}

	content := make(models.StringMap, limit)
	for _, url := range urls[:limit] {
		if err := ctx.Err(); err != nil {
			break
		}
		text, err := s.fetcher.Fetch(ctx, url)
		if err != nil {
			s.log.Debugf("link fetch failed for %s: %v", url, err)
			continue
		}
		if text != "" {
			content[url] = text
		}
	}
	return content
}
