package interfaces

import "context"

// MailTransport is the line-oriented mail protocol collaborator. It supplies
// raw message bytes given a mailbox cursor; everything else about the
// protocol stays behind this interface.
type MailTransport interface {
	// SearchSince returns UIDs strictly greater than sinceUID matching the
	// session's configured search predicate, in ascending order.
	SearchSince(ctx context.Context, sinceUID uint32) ([]uint32, error)
	// FetchHeaders returns the raw header block for a message, or nil when
	// the message yields nothing.
	FetchHeaders(ctx context.Context, uid uint32) ([]byte, error)
	// FetchBody returns the full raw message.
	FetchBody(ctx context.Context, uid uint32) ([]byte, error)
	// ExtractMessageID pulls the protocol-level Message-ID out of raw
	// headers, or "" when absent.
	ExtractMessageID(rawHeaders []byte) string
	MarkSeen(ctx context.Context, uid uint32) error
}

// DecodedMessage is the decoder's view of one raw message.
type DecodedMessage struct {
	Subject         string
	Sender          string
	Date            string
	Body            string
	ListUnsubscribe string
}

// MessageDecoder turns raw bytes into header fields and a plain-text body,
// including character-set repair and HTML reduction. Bodies longer than
// maxBodyChars are truncated.
type MessageDecoder interface {
	Decode(raw []byte, maxBodyChars int) (*DecodedMessage, error)
}

// LinkFetcher retrieves auxiliary text for a URL found inside a message.
// Failures are expected and non-fatal; callers treat them as "no content".
type LinkFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}
