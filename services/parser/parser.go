// Package parser is the message decoder: raw RFC 5322 bytes in, header
// fields and a plain-text body out. Character-set repair and MIME walking
// are delegated to enmime; HTML-only messages are reduced to text with
// hyperlinks kept inline so the link extractor still sees them.
package parser

import (
	"bytes"
	"strings"

	"github.com/jaytaylor/html2text"
	"github.com/jhillyerd/enmime"
	"github.com/pkg/errors"

	"github.com/briefstack/maildigest/interfaces"
	"github.com/briefstack/maildigest/internal/logger"
	"github.com/briefstack/maildigest/internal/utils"
)

// noBodyPlaceholder keeps header-only messages ingestable; their identity
// still differs by subject/sender/date.
const noBodyPlaceholder = "[No body content extracted]"

type Decoder struct {
	log *logger.Logger
}

func NewDecoder(log *logger.Logger) *Decoder {
	return &Decoder{log: log}
}

func (d *Decoder) Decode(raw []byte, maxBodyChars int) (*interfaces.DecodedMessage, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read mime envelope")
	}

	subject := strings.TrimSpace(env.GetHeader("Subject"))
	if subject == "" {
		subject = "(no subject)"
	}

	body := strings.TrimSpace(env.Text)
	if body == "" && strings.TrimSpace(env.HTML) != "" {
		body = d.htmlToText(env.HTML)
	}
	if body == "" {
		d.log.Debugf("no body extracted for %q", utils.Truncate(subject, 50))
		body = noBodyPlaceholder
	} else {
		body = utils.Truncate(body, maxBodyChars)
	}

	return &interfaces.DecodedMessage{
		Subject:         subject,
		Sender:          env.GetHeader("From"),
		Date:            env.GetHeader("Date"),
		Body:            body,
		ListUnsubscribe: env.GetHeader("List-Unsubscribe"),
	}, nil
}

func (d *Decoder) htmlToText(html string) string {
	text, err := html2text.FromString(html, html2text.Options{})
	if err != nil {
		d.log.Debugf("html reduction failed: %v", err)
		return ""
	}

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

var newsletterKeywords = []string{"newsletter", "update", "digest", "roundup"}

// IsNewsletter applies the bulk-mail heuristic: a List-Unsubscribe header is
// definitive, otherwise the subject is scanned for newsletter keywords.
func IsNewsletter(msg *interfaces.DecodedMessage) bool {
	if msg.ListUnsubscribe != "" {
		return true
	}
	subject := strings.ToLower(msg.Subject)
	for _, keyword := range newsletterKeywords {
		if strings.Contains(subject, keyword) {
			return true
		}
	}
	return false
}

var _ interfaces.MessageDecoder = (*Decoder)(nil)
