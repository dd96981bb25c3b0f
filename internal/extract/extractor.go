// Package extract turns a daily GIA index page into advisory events.
//
// Links are matched on their visible text, each matching article is fetched,
// and the first paragraph naming the advisory supplies the content and the
// effective time.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/couchcryptid/heat-stress-etl/internal/config"
	"github.com/couchcryptid/heat-stress-etl/internal/domain"
)

// Extractor derives events from one day's index page.
type Extractor struct {
	fetcher domain.Fetcher
	parser  domain.TimeParser
	feed    config.Feed
	logger  *slog.Logger
}

// New creates an Extractor. A nil parser selects domain.RegexTimeParser.
func New(fetcher domain.Fetcher, parser domain.TimeParser, feed config.Feed, logger *slog.Logger) *Extractor {
	if parser == nil {
		parser = domain.RegexTimeParser{}
	}
	return &Extractor{
		fetcher: fetcher,
		parser:  parser,
		feed:    feed,
		logger:  logger,
	}
}

type link struct {
	text string
	href string
	typ  domain.EventType
}

// Extract returns one event per matching link on the index page, in page
// order. An error means the index page itself could not be retrieved or
// parsed; article failures degrade to ContentNotFound.
func (x *Extractor) Extract(ctx context.Context, indexURL string, day time.Time) ([]domain.Event, error) {
	body, err := x.fetcher.Fetch(ctx, domain.IndexPage, indexURL)
	if err != nil {
		return nil, fmt.Errorf("fetch index: %w", err)
	}

	links, err := x.findLinks(body)
	if err != nil {
		return nil, fmt.Errorf("parse index %s: %w", indexURL, err)
	}

	base, err := url.Parse(indexURL)
	if err != nil {
		return nil, fmt.Errorf("parse index url: %w", err)
	}

	events := make([]domain.Event, 0, len(links))
	for _, l := range links {
		events = append(events, x.buildEvent(ctx, base, l, day))
	}
	return events, nil
}

func (x *Extractor) findLinks(body []byte) ([]link, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var links []link
	doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		typ, ok := x.classify(text)
		if !ok {
			return
		}
		href, _ := s.Attr("href")
		links = append(links, link{text: text, href: strings.TrimSpace(href), typ: typ})
	})
	return links, nil
}

// classify matches link text against the feed phrases, case-insensitively.
func (x *Extractor) classify(text string) (domain.EventType, bool) {
	lower := normalize(text)
	switch {
	case strings.Contains(lower, x.feed.WarningPhrase):
		return domain.Warning, true
	case strings.Contains(lower, x.feed.CancellationPhrase):
		return domain.Cancellation, true
	default:
		return domain.NoRecord, false
	}
}

func (x *Extractor) buildEvent(ctx context.Context, base *url.URL, l link, day time.Time) domain.Event {
	event := domain.Event{
		Month:         day.Month().String(),
		Date:          day.Format(domain.DateLayout),
		Title:         l.text,
		Content:       domain.ContentNotFound,
		Type:          l.typ,
		RawTimeTokens: []string{},
		TimeValue:     "0000",
	}

	ref, err := url.Parse(l.href)
	if err != nil || l.href == "" {
		x.logger.Warn("unusable article link", "date", event.Date, "title", l.text, "href", l.href)
		return event
	}
	event.URL = base.ResolveReference(ref).String()

	paragraph, err := x.articleParagraph(ctx, event.URL)
	if err != nil {
		x.logger.Error("article retrieval failed", "url", event.URL, "error", err)
		return event
	}
	if paragraph == "" {
		x.logger.Info("advisory paragraph not found", "url", event.URL)
		return event
	}
	event.Content = paragraph

	fields, err := domain.ExtractTimeFields(x.parser, paragraph)
	if err != nil && !errors.Is(err, domain.ErrNoTimeToken) {
		x.logger.Warn("unreadable time token", "url", event.URL, "tokens", fields.RawTokens, "error", err)
	}
	event.RawTimeTokens = fields.RawTokens
	event.PeriodMarker = fields.PeriodMarker
	event.TimeValue = fields.TimeValue
	return event
}

// articleParagraph returns the trimmed text of the first <p> mentioning the
// advisory, or "" when none does.
func (x *Extractor) articleParagraph(ctx context.Context, articleURL string) (string, error) {
	body, err := x.fetcher.Fetch(ctx, domain.ArticlePage, articleURL)
	if err != nil {
		return "", err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse article: %w", err)
	}

	var found string
	doc.Find("p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if strings.Contains(normalize(text), x.feed.AdvisoryName) {
			found = text
			return false
		}
		return true
	})
	return found, nil
}

// normalize lowercases s and collapses whitespace runs, so phrases broken
// across lines in the markup still match.
func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
