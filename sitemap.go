package foodscraper

import "context"

// SitemapService discovers page URLs from website sitemaps.
type SitemapService interface {
	// DiscoverURLs finds all URLs listed in a site's sitemaps.
	// It first checks robots.txt for sitemap directives, then falls back
	// to /sitemap.xml. Sitemap indexes are resolved recursively.
	//
	// If filter is non-nil, only URLs for which it returns true are kept.
	DiscoverURLs(ctx context.Context, baseURL string, filter func(url string) bool) ([]string, error)
}
