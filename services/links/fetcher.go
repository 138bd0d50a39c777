package links

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"

	"github.com/briefstack/maildigest/interfaces"
	"github.com/briefstack/maildigest/internal/logger"
	"github.com/briefstack/maildigest/internal/utils"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// chromeTags never contribute article text.
var chromeTags = []string{"script", "style", "nav", "header", "footer", "aside", "noscript"}

type Fetcher struct {
	httpClient      *http.Client
	log             *logger.Logger
	maxCharsPerLink int
}

func NewFetcher(log *logger.Logger, timeout time.Duration, maxCharsPerLink int) *Fetcher {
	return &Fetcher{
		httpClient:      &http.Client{Timeout: timeout},
		log:             log,
		maxCharsPerLink: maxCharsPerLink,
	}
}

// Fetch retrieves a URL and reduces it to plain text, preferring the page's
// main/article region over the whole body. Non-HTML responses and HTTP
// errors are errors here; callers treat any error as "no content".
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", errors.Errorf("unexpected status %d", resp.StatusCode)
	}
	if !strings.Contains(strings.ToLower(resp.Header.Get("Content-Type")), "text/html") {
		return "", errors.New("not an html response")
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "failed to parse html")
	}

	doc.Find(strings.Join(chromeTags, ", ")).Remove()

	content := doc.Find("main").First()
	if content.Length() == 0 {
		content = doc.Find("article").First()
	}
	if content.Length() == 0 {
		content = doc.Find("body").First()
	}
	if content.Length() == 0 {
		return "", errors.New("no content element found")
	}

	var lines []string
	for _, line := range strings.Split(content.Text(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	text := strings.Join(lines, "\n")
	if text == "" {
		return "", errors.New("no text extracted")
	}
	return utils.Truncate(text, f.maxCharsPerLink), nil
}

var _ interfaces.LinkFetcher = (*Fetcher)(nil)
