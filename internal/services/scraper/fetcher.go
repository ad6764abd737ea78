// Package scraper retrieves web pages and strips markup to plain text.
package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/memoro/internal/common"
	"github.com/ternarybob/memoro/internal/interfaces"
)

// nonContentSelectors are DOM regions that never hold article text.
var nonContentSelectors = []string{
	"script", "style", "noscript", "iframe", "svg",
	"nav", "header", "footer", "aside", "form",
}

var blankLineRegex = regexp.MustCompile(`\n{3,}`)

// Fetcher retrieves a URL and converts it to plain text, bounded by a
// per-site timeout and byte budget so one slow or huge site cannot stall
// a generation job.
type Fetcher struct {
	httpClient   *http.Client
	timeout      time.Duration
	maxBodyBytes int
	maxTextChars int
	userAgent    string
	logger       arbor.ILogger
}

// Compile-time assertion: Fetcher implements the SiteFetcher interface
var _ interfaces.SiteFetcher = (*Fetcher)(nil)

// NewFetcher creates a site fetcher from config.
func NewFetcher(config *common.FetcherConfig, logger arbor.ILogger) *Fetcher {
	timeout := config.GetTimeout()
	maxBody := config.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 2 * 1024 * 1024
	}
	maxText := config.MaxTextChars
	if maxText <= 0 {
		maxText = 6000
	}
	userAgent := config.UserAgent
	if userAgent == "" {
		userAgent = "memoro/1.0"
	}

	return &Fetcher{
		httpClient:   &http.Client{Timeout: timeout},
		timeout:      timeout,
		maxBodyBytes: maxBody,
		maxTextChars: maxText,
		userAgent:    userAgent,
		logger:       logger,
	}
}

// FetchText retrieves a URL and returns its readable text content.
func (f *Fetcher) FetchText(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.Contains(contentType, "html") && !strings.Contains(contentType, "text/plain") {
		return "", fmt.Errorf("fetch %s: unsupported content type %q", url, contentType)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, int64(f.maxBodyBytes)))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", url, err)
	}

	text, err := f.extractText(url, string(body))
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", url, err)
	}

	f.logger.Debug().
		Str("url", url).
		Int("bytes", len(body)).
		Int("text_chars", len(text)).
		Msg("Site fetched")

	return text, nil
}

// extractText strips non-content markup and converts the remainder to
// markdown-flavored plain text, capped at maxTextChars.
func (f *Fetcher) extractText(url, html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	for _, selector := range nonContentSelectors {
		doc.Find(selector).Remove()
	}

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}

	inner, err := root.Html()
	if err != nil {
		return "", fmt.Errorf("serialize body: %w", err)
	}

	converter := md.NewConverter(url, true, nil)
	text, err := converter.ConvertString(inner)
	if err != nil {
		// Markdown conversion can choke on pathological markup; fall back
		// to the raw node text
		text = root.Text()
	}

	text = blankLineRegex.ReplaceAllString(strings.TrimSpace(text), "\n\n")
	runes := []rune(text)
	if len(runes) > f.maxTextChars {
		text = string(runes[:f.maxTextChars])
	}
	return text, nil
}
