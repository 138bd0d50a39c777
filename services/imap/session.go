package imap

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/mail"
	"sort"
	"strings"
	"time"

	goimap "github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/pkg/errors"

	"github.com/briefstack/maildigest/interfaces"
	"github.com/briefstack/maildigest/internal/config"
	apperrors "github.com/briefstack/maildigest/internal/errors"
	"github.com/briefstack/maildigest/internal/logger"
)

// headerFields is the header subset fetched during the cheap pre-body
// inspection pass.
var headerFields = []string{
	"MESSAGE-ID", "SUBJECT", "FROM", "DATE", "LIST-ID", "LIST-UNSUBSCRIBE",
}

// Session is one connected IMAP session over a single mailbox. It implements
// interfaces.MailTransport. Not safe for concurrent use; the pipeline is
// strictly sequential.
type Session struct {
	cfg    *config.IMAPConfig
	search string
	log    *logger.Logger
	client *client.Client
}

func NewSession(cfg *config.IMAPConfig, search string, log *logger.Logger) *Session {
	return &Session{
		cfg:    cfg,
		search: search,
		log:    log,
	}
}

// Connect dials the server, logs in and selects the configured mailbox.
// readOnly selects with EXAMINE semantics so inspection never mutates flags.
func (s *Session) Connect(readOnly bool) error {
	serverAddr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	tlsConfig := &tls.Config{ServerName: s.cfg.Host}

	c, err := client.DialWithDialerTLS(dialer, serverAddr, tlsConfig)
	if err != nil {
		return errors.Wrapf(err, "failed to connect to %s", serverAddr)
	}

	c.Timeout = 30 * time.Second
	if err := c.Login(s.cfg.Username, s.cfg.Password); err != nil {
		c.Logout()
		return errors.Wrapf(err, "failed to login as %s", s.cfg.Username)
	}
	c.Timeout = 0

	if _, err := c.Select(s.cfg.Mailbox, readOnly); err != nil {
		c.Logout()
		return errors.Wrapf(err, "failed to select mailbox %s", s.cfg.Mailbox)
	}

	s.log.Debugf("connected to %s, mailbox %s", serverAddr, s.cfg.Mailbox)
	s.client = c
	return nil
}

func (s *Session) Close() {
	if s.client == nil {
		return
	}
	if err := s.client.Logout(); err != nil {
		s.log.Debugf("imap logout: %v", err)
	}
	s.client = nil
}

// SearchSince returns UIDs strictly greater than sinceUID matching the
// configured search predicate, ascending.
func (s *Session) SearchSince(ctx context.Context, sinceUID uint32) ([]uint32, error) {
	if s.client == nil {
		return nil, apperrors.ErrNotConnected
	}

	criteria := goimap.NewSearchCriteria()
	criteria.Uid = new(goimap.SeqSet)
	criteria.Uid.AddRange(sinceUID+1, 0) // 0 = "*"
	applyPredicate(criteria, s.search)

	uids, err := s.client.UidSearch(criteria)
	if err != nil {
		return nil, errors.Wrap(err, "uid search failed")
	}

	sort.Slice(uids, func(i, j int) bool { return uids[i] < uids[j] })
	return uidsAbove(uids, sinceUID), nil
}

// uidsAbove drops UIDs at or below the watermark. Servers interpret the
// range N:* as including the highest-UID message even when N exceeds it, so
// an up-to-date mailbox would otherwise return its last message again.
func uidsAbove(uids []uint32, sinceUID uint32) []uint32 {
	filtered := uids[:0]
	for _, uid := range uids {
		if uid > sinceUID {
			filtered = append(filtered, uid)
		}
	}
	return filtered
}

// applyPredicate maps the configured textual predicate onto search criteria.
// Unknown predicates fall back to ALL rather than failing the run.
func applyPredicate(criteria *goimap.SearchCriteria, predicate string) {
	switch strings.ToUpper(strings.TrimSpace(predicate)) {
	case "UNSEEN":
		criteria.WithoutFlags = []string{goimap.SeenFlag}
	case "FLAGGED":
		criteria.WithFlags = []string{goimap.FlaggedFlag}
	case "", "ALL":
	}
}

func (s *Session) FetchHeaders(ctx context.Context, uid uint32) ([]byte, error) {
	section := &goimap.BodySectionName{
		BodyPartName: goimap.BodyPartName{
			Specifier: goimap.HeaderSpecifier,
			Fields:    headerFields,
		},
		Peek: true,
	}
	return s.fetchSection(uid, section)
}

func (s *Session) FetchBody(ctx context.Context, uid uint32) ([]byte, error) {
	section := &goimap.BodySectionName{Peek: true}
	return s.fetchSection(uid, section)
}

func (s *Session) fetchSection(uid uint32, section *goimap.BodySectionName) ([]byte, error) {
	if s.client == nil {
		return nil, apperrors.ErrNotConnected
	}

	seqSet := new(goimap.SeqSet)
	seqSet.AddNum(uid)
	items := []goimap.FetchItem{section.FetchItem(), goimap.FetchUid}

	messages := make(chan *goimap.Message, 1)
	if err := s.client.UidFetch(seqSet, items, messages); err != nil {
		return nil, errors.Wrapf(err, "uid fetch %d failed", uid)
	}

	msg, ok := <-messages
	if !ok || msg == nil {
		return nil, nil
	}
	literal := msg.GetBody(section)
	if literal == nil {
		return nil, nil
	}
	raw, err := io.ReadAll(literal)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read message %d", uid)
	}
	return raw, nil
}

// ExtractMessageID pulls the Message-ID header out of raw header bytes.
// Returns "" when the header is missing or unparseable.
func (s *Session) ExtractMessageID(rawHeaders []byte) string {
	if len(rawHeaders) == 0 {
		return ""
	}
	msg, err := mail.ReadMessage(strings.NewReader(string(rawHeaders) + "\r\n"))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(msg.Header.Get("Message-Id"))
}

func (s *Session) MarkSeen(ctx context.Context, uid uint32) error {
	if s.client == nil {
		return apperrors.ErrNotConnected
	}

	seqSet := new(goimap.SeqSet)
	seqSet.AddNum(uid)
	item := goimap.FormatFlagsOp(goimap.AddFlags, true)
	flags := []interface{}{goimap.SeenFlag}
	return s.client.UidStore(seqSet, item, flags, nil)
}

var _ interfaces.MailTransport = (*Session)(nil)
