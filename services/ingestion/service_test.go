package ingestion

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briefstack/maildigest/interfaces"
	"github.com/briefstack/maildigest/internal/config"
	apperrors "github.com/briefstack/maildigest/internal/errors"
	"github.com/briefstack/maildigest/internal/logger"
	"github.com/briefstack/maildigest/internal/models"
	"github.com/briefstack/maildigest/services/parser"
)

type fakeTransport struct {
	uids        []uint32
	messageIDs  map[uint32]string
	bodies      map[uint32][]byte
	bodyFetches int
	seen        []uint32
}

func (f *fakeTransport) SearchSince(_ context.Context, sinceUID uint32) ([]uint32, error) {
	var out []uint32
	for _, uid := range f.uids {
		if uid > sinceUID {
			out = append(out, uid)
		}
	}
	return out, nil
}

func (f *fakeTransport) FetchHeaders(_ context.Context, uid uint32) ([]byte, error) {
	return []byte("Message-Id: " + f.messageIDs[uid] + "\r\n"), nil
}

func (f *fakeTransport) FetchBody(_ context.Context, uid uint32) ([]byte, error) {
	f.bodyFetches++
	return f.bodies[uid], nil
}

func (f *fakeTransport) ExtractMessageID(rawHeaders []byte) string {
	for _, id := range f.messageIDs {
		if string(rawHeaders) == "Message-Id: "+id+"\r\n" {
			return id
		}
	}
	return ""
}

func (f *fakeTransport) MarkSeen(_ context.Context, uid uint32) error {
	f.seen = append(f.seen, uid)
	return nil
}

type fakeItemRepo struct {
	items []*models.ContentItem
}

func (f *fakeItemRepo) Insert(_ context.Context, item *models.ContentItem) error {
	for _, stored := range f.items {
		if stored.ContentID == item.ContentID {
			return apperrors.ErrDuplicate
		}
		if item.MessageID != nil && stored.MessageID != nil && *stored.MessageID == *item.MessageID {
			return apperrors.ErrDuplicate
		}
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	f.items = append(f.items, item)
	return nil
}

func (f *fakeItemRepo) ExistsByMessageID(_ context.Context, messageID string) (bool, error) {
	if messageID == "" {
		return false, nil
	}
	for _, item := range f.items {
		if item.MessageID != nil && *item.MessageID == messageID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeItemRepo) ExistsBySourceUID(_ context.Context, sourceUID string) (bool, error) {
	for _, item := range f.items {
		if item.SourceUID == sourceUID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeItemRepo) ExistsByContentID(_ context.Context, contentID string) (bool, error) {
	for _, item := range f.items {
		if item.ContentID == contentID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeItemRepo) GetByContentIDs(_ context.Context, _ []string) ([]*models.ContentItem, error) {
	return nil, nil
}

func (f *fakeItemRepo) List(_ context.Context, _ *time.Time, _ int) ([]*models.ContentItem, error) {
	return f.items, nil
}

type fakeIngestState struct {
	lastUID uint32
	saves   int
}

func (f *fakeIngestState) GetLastUID(_ context.Context, _, _ string) (uint32, error) {
	return f.lastUID, nil
}

func (f *fakeIngestState) SaveLastUID(_ context.Context, _, _ string, lastUID uint32) error {
	f.saves++
	if lastUID > f.lastUID {
		f.lastUID = lastUID
	}
	return nil
}

type fakeFetcher struct {
	pages map[string]string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (string, error) {
	text, ok := f.pages[url]
	if !ok {
		return "", errors.New("fetch failed")
	}
	return text, nil
}

func rawMessage(subject, body string) []byte {
	return []byte(fmt.Sprintf(
		"Subject: %s\r\nFrom: news@example.com\r\nDate: Mon, 24 Aug 2026 07:00:00 +0000\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s",
		subject, body,
	))
}

type fixture struct {
	cfg       *config.IngestConfig
	transport *fakeTransport
	items     *fakeItemRepo
	state     *fakeIngestState
	fetcher   *fakeFetcher
}

func newFixture() *fixture {
	return &fixture{
		cfg: &config.IngestConfig{
			MaxBodyChars:    4000,
			FetchLinks:      false,
			MaxLinksToFetch: 10,
		},
		transport: &fakeTransport{
			messageIDs: make(map[uint32]string),
			bodies:     make(map[uint32][]byte),
		},
		items:   &fakeItemRepo{},
		state:   &fakeIngestState{},
		fetcher: &fakeFetcher{pages: make(map[string]string)},
	}
}

func (fx *fixture) service() interfaces.IngestionService {
	return fx.serviceFor("INBOX", fx.transport, fx.state)
}

func (fx *fixture) serviceFor(mailbox string, transport *fakeTransport, state *fakeIngestState) interfaces.IngestionService {
	log := logger.NewNop()
	return NewIngestionService(
		fx.cfg, mailbox, transport, parser.NewDecoder(log), fx.fetcher,
		fx.items, state, log,
	)
}

func (fx *fixture) addMessage(uid uint32, messageID, subject, body string) {
	fx.transport.uids = append(fx.transport.uids, uid)
	fx.transport.messageIDs[uid] = messageID
	fx.transport.bodies[uid] = rawMessage(subject, body)
}

func TestRun_StoresNewMessages(t *testing.T) {
	fx := newFixture()
	fx.addMessage(10, "<a@example.com>", "First", "Body one.")
	fx.addMessage(11, "<b@example.com>", "Second", "Body two.")

	summary, err := fx.service().Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.NewCount)
	assert.Equal(t, 0, summary.Skipped)
	assert.Len(t, summary.NewContentIDs, 2)
	assert.Equal(t, uint32(11), fx.state.lastUID)

	require.Len(t, fx.items.items, 2)
	assert.Equal(t, "imap", fx.items.items[0].SourceType)
	assert.Equal(t, "INBOX:10", fx.items.items[0].SourceUID)
	assert.Equal(t, "First", fx.items.items[0].Subject)
}

func TestRun_SecondRunFindsNothing(t *testing.T) {
	fx := newFixture()
	fx.addMessage(10, "<a@example.com>", "First", "Body one.")

	svc := fx.service()
	_, err := svc.Run(context.Background())
	require.NoError(t, err)

	summary, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.NewCount)
	assert.Equal(t, 0, summary.Skipped)
}

func TestRun_MessageIDShortCircuitSkipsBodyFetch(t *testing.T) {
	fx := newFixture()
	fx.addMessage(10, "<same@example.com>", "First", "Body one.")

	svc := fx.service()
	_, err := svc.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, fx.transport.bodyFetches)

	// Same message id under a fresh UID: duplicate detected from headers
	// alone, without paying for the body.
	fx.addMessage(20, "<same@example.com>", "First again", "Body one.")
	summary, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.NewCount)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, fx.transport.bodyFetches)
}

func TestRun_ContentDedupAcrossUIDs(t *testing.T) {
	fx := newFixture()
	fx.addMessage(10, "<a@example.com>", "Same Subject", "Same body.")

	svc := fx.service()
	_, err := svc.Run(context.Background())
	require.NoError(t, err)

	// Different UID and message id but identical decoded fields: the
	// content hash catches it.
	fx.addMessage(20, "<b@example.com>", "Same Subject", "Same body.")
	summary, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.NewCount)
	assert.Equal(t, 1, summary.Skipped)
	assert.Len(t, fx.items.items, 1)
}

func TestRun_CursorAdvancesOnAllSkippedRun(t *testing.T) {
	fx := newFixture()
	fx.addMessage(10, "<a@example.com>", "Same Subject", "Same body.")

	svc := fx.service()
	_, err := svc.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint32(10), fx.state.lastUID)

	fx.addMessage(25, "<b@example.com>", "Same Subject", "Same body.")
	summary, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.NewCount)
	assert.Equal(t, uint32(25), fx.state.lastUID, "cursor tracks inspected UIDs, not stored ones")
}

func TestRun_CursorSavedOncePerRun(t *testing.T) {
	fx := newFixture()
	fx.addMessage(10, "<a@example.com>", "First", "Body one.")
	fx.addMessage(11, "<b@example.com>", "Second", "Body two.")

	_, err := fx.service().Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, fx.state.saves)
}

func TestRun_NewsletterOnlyFilter(t *testing.T) {
	fx := newFixture()
	fx.cfg.NewsletterOnly = true
	fx.addMessage(10, "<a@example.com>", "The Weekly Newsletter", "News body.")
	fx.addMessage(11, "<b@example.com>", "Re: lunch?", "Personal body.")

	summary, err := fx.service().Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.NewCount)
	assert.Equal(t, 1, summary.Skipped)
	require.Len(t, fx.items.items, 1)
	assert.Equal(t, "The Weekly Newsletter", fx.items.items[0].Subject)
}

func TestRun_FetchesLinksBestEffort(t *testing.T) {
	fx := newFixture()
	fx.cfg.FetchLinks = true
	fx.fetcher.pages["https://example.com/good"] = "Fetched page text."
	fx.addMessage(10, "<a@example.com>", "Links",
		"See https://example.com/good and https://example.com/dead for details.")

	summary, err := fx.service().Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, summary.NewCount)

	item := fx.items.items[0]
	assert.Equal(t, models.StringList{"https://example.com/good", "https://example.com/dead"}, item.Links)
	// The dead link is dropped silently; only successful fetches are kept.
	assert.Equal(t, models.StringMap{"https://example.com/good": "Fetched page text."}, item.LinkContent)
}

func TestRun_MarkSeen(t *testing.T) {
	fx := newFixture()
	fx.cfg.MarkSeen = true
	fx.addMessage(10, "<a@example.com>", "First", "Body one.")

	_, err := fx.service().Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []uint32{10}, fx.transport.seen)
}

func TestRun_SameUIDAcrossMailboxesIsNotADuplicate(t *testing.T) {
	fx := newFixture()
	fx.addMessage(5, "<a@example.com>", "Inbox message", "Inbox body.")

	_, err := fx.service().Run(context.Background())
	require.NoError(t, err)
	require.Len(t, fx.items.items, 1)

	// A different message sits at the same numeric UID in another mailbox.
	// UIDs are per-mailbox, so sharing the store must not make it look
	// already ingested.
	archive := &fakeTransport{
		messageIDs: map[uint32]string{5: "<b@example.com>"},
		bodies:     map[uint32][]byte{5: rawMessage("Archive message", "Archive body.")},
		uids:       []uint32{5},
	}
	svc := fx.serviceFor("Archive", archive, &fakeIngestState{})

	summary, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.NewCount)
	assert.Equal(t, 0, summary.Skipped)

	require.Len(t, fx.items.items, 2)
	assert.Equal(t, "INBOX:5", fx.items.items[0].SourceUID)
	assert.Equal(t, "Archive:5", fx.items.items[1].SourceUID)
}

func TestRun_NoMessagesLeavesCursorAlone(t *testing.T) {
	fx := newFixture()

	summary, err := fx.service().Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.NewCount)
	assert.Equal(t, 0, fx.state.saves)
}
