package extract

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/heat-stress-etl/internal/adapter/web"
	"github.com/couchcryptid/heat-stress-etl/internal/config"
	"github.com/couchcryptid/heat-stress-etl/internal/domain"
	"github.com/couchcryptid/heat-stress-etl/internal/observability"
)

const indexURL = "https://www.info.gov.hk/gia/wr/202410/10.htm"

var testDay = time.Date(2024, time.October, 10, 0, 0, 0, 0, time.UTC)

type fakeFetcher struct {
	pages map[string]string
	errs  map[string]error
	calls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, _ domain.PageKind, url string) ([]byte, error) {
	f.calls = append(f.calls, url)
	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	body, ok := f.pages[url]
	if !ok {
		return nil, errors.New("status 404")
	}
	return []byte(body), nil
}

func newTestExtractor(f domain.Fetcher) *Extractor {
	return New(f, nil, config.DefaultFeed(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

const twoLinkIndex = `<html><body><ul>
<li><a href="/gia/general/202410/10/P2024101000700.htm">Cancellation of Heat Stress at Work Warning</a></li>
<li><a href="../../general/202410/10/P2024101000400.htm">Heat Stress at Work Warning in force</a></li>
<li><a href="/gia/general/202410/10/P2024101000100.htm">Very Hot Weather Warning issued</a></li>
</ul></body></html>`

const cancellationArticle = `<html><body>
<p>Please find below the press release.</p>
<p>The Labour Department cancelled the Heat Stress at Work Warning at 6.30PM today.</p>
</body></html>`

const warningArticle = `<html><body>
<p>The Labour Department has issued the Heat Stress at Work Warning at 3.15PM today.
The next update will be at 5.00PM.</p>
<p>Another paragraph about the heat stress at work warning at 9.00AM.</p>
</body></html>`

func TestExtract_TwoLinks(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		indexURL: twoLinkIndex,
		"https://www.info.gov.hk/gia/general/202410/10/P2024101000700.htm": cancellationArticle,
		"https://www.info.gov.hk/gia/general/202410/10/P2024101000400.htm": warningArticle,
	}}

	events, err := newTestExtractor(f).Extract(context.Background(), indexURL, testDay)
	require.NoError(t, err)
	require.Len(t, events, 2)

	c := events[0]
	assert.Equal(t, domain.Cancellation, c.Type)
	assert.Equal(t, "October", c.Month)
	assert.Equal(t, "20241010", c.Date)
	assert.Equal(t, "Cancellation of Heat Stress at Work Warning", c.Title)
	assert.Equal(t, "https://www.info.gov.hk/gia/general/202410/10/P2024101000700.htm", c.URL)
	assert.Equal(t, "The Labour Department cancelled the Heat Stress at Work Warning at 6.30PM today.", c.Content)
	assert.Equal(t, []string{"6.30PM"}, c.RawTimeTokens)
	require.NotNil(t, c.PeriodMarker)
	assert.Equal(t, domain.PM, *c.PeriodMarker)
	assert.Equal(t, "1830", c.TimeValue)
	assert.Nil(t, c.Duration)
	assert.Nil(t, c.NoOfHours)

	w := events[1]
	assert.Equal(t, domain.Warning, w.Type)
	assert.Equal(t, "https://www.info.gov.hk/gia/general/202410/10/P2024101000400.htm", w.URL)
	assert.Equal(t, []string{"3.15PM", "5.00PM"}, w.RawTimeTokens)
	assert.Equal(t, "1515", w.TimeValue)
}

func TestExtract_RepeatedLinkFetchedOnce(t *testing.T) {
	article := "https://www.info.gov.hk/gia/general/202410/10/P2024101000400.htm"
	f := &fakeFetcher{pages: map[string]string{
		indexURL: `<ul>
<li><a href="/gia/general/202410/10/P2024101000400.htm">Heat Stress at Work Warning in force</a></li>
<li><a href="/gia/general/202410/10/P2024101000400.htm">Heat Stress at Work Warning in force</a></li>
</ul>`,
		article: warningArticle,
	}}
	cached := web.NewCachedFetcher(f, 32, observability.NewMetricsForTesting())

	events, err := newTestExtractor(cached).Extract(context.Background(), indexURL, testDay)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, events[0].Content, events[1].Content)
	assert.Equal(t, "1515", events[1].TimeValue)
	assert.Equal(t, []string{indexURL, article}, f.calls)
}

func TestExtract_NoMatchingLinks(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		indexURL: `<html><body><a href="/x.htm">Tropical Cyclone Warning Signal No. 1</a></body></html>`,
	}}

	events, err := newTestExtractor(f).Extract(context.Background(), indexURL, testDay)
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.Equal(t, []string{indexURL}, f.calls, "no article should be fetched")
}

func TestExtract_IndexFailure(t *testing.T) {
	f := &fakeFetcher{errs: map[string]error{indexURL: errors.New("connection refused")}}

	events, err := newTestExtractor(f).Extract(context.Background(), indexURL, testDay)
	require.Error(t, err)
	assert.Empty(t, events)
}

func TestExtract_ArticleFailureDegrades(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		indexURL: `<a href="/gia/general/202410/10/P1.htm">HEAT STRESS AT WORK WARNING IN FORCE</a>`,
	}}

	events, err := newTestExtractor(f).Extract(context.Background(), indexURL, testDay)
	require.NoError(t, err)
	require.Len(t, events, 1)

	e := events[0]
	assert.Equal(t, domain.Warning, e.Type)
	assert.Equal(t, domain.ContentNotFound, e.Content)
	assert.Empty(t, e.RawTimeTokens)
	assert.Nil(t, e.PeriodMarker)
	assert.Equal(t, "0000", e.TimeValue)
}

func TestExtract_ParagraphWithoutAdvisoryName(t *testing.T) {
	article := "https://www.info.gov.hk/gia/general/202410/10/P1.htm"
	f := &fakeFetcher{pages: map[string]string{
		indexURL: `<a href="/gia/general/202410/10/P1.htm">Cancellation of Heat Stress at Work Warning</a>`,
		article:  `<p>Issued at 4.00PM.</p>`,
	}}

	events, err := newTestExtractor(f).Extract(context.Background(), indexURL, testDay)
	require.NoError(t, err)
	require.Len(t, events, 1)

	assert.Equal(t, domain.ContentNotFound, events[0].Content)
	assert.Empty(t, events[0].RawTimeTokens)
	assert.Equal(t, "0000", events[0].TimeValue)
}

func TestExtract_ParagraphWithoutTime(t *testing.T) {
	article := "https://www.info.gov.hk/gia/general/202410/10/P1.htm"
	f := &fakeFetcher{pages: map[string]string{
		indexURL: `<a href="/gia/general/202410/10/P1.htm">Heat Stress at Work Warning in force</a>`,
		article:  `<p>The Heat Stress at Work Warning is now in force.</p>`,
	}}

	events, err := newTestExtractor(f).Extract(context.Background(), indexURL, testDay)
	require.NoError(t, err)
	require.Len(t, events, 1)

	assert.Equal(t, "The Heat Stress at Work Warning is now in force.", events[0].Content)
	assert.Empty(t, events[0].RawTimeTokens)
	assert.Nil(t, events[0].PeriodMarker)
	assert.Equal(t, "0000", events[0].TimeValue)
}

func TestExtract_LinkWithoutHref(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		indexURL: `<a>Heat Stress at Work Warning in force</a>`,
	}}

	events, err := newTestExtractor(f).Extract(context.Background(), indexURL, testDay)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Empty(t, events[0].URL)
	assert.Equal(t, domain.ContentNotFound, events[0].Content)
}

func TestClassify(t *testing.T) {
	x := newTestExtractor(&fakeFetcher{})

	tests := []struct {
		text string
		want domain.EventType
		ok   bool
	}{
		{"Heat Stress at Work Warning in force", domain.Warning, true},
		{"  heat stress at work\n warning IN FORCE ", domain.Warning, true},
		{"Cancellation of Heat Stress at Work Warning", domain.Cancellation, true},
		{"Special Announcement on Heat Stress", domain.NoRecord, false},
	}
	for _, tt := range tests {
		got, ok := x.classify(tt.text)
		assert.Equal(t, tt.ok, ok, tt.text)
		assert.Equal(t, tt.want, got, tt.text)
	}
}
