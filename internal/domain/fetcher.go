package domain

import "context"

// PageKind distinguishes daily index pages from linked articles.
type PageKind string

const (
	IndexPage   PageKind = "index"
	ArticlePage PageKind = "article"
)

// Fetcher retrieves raw HTML from the publication feed.
type Fetcher interface {
	Fetch(ctx context.Context, kind PageKind, url string) ([]byte, error)
}
