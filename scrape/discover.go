package scrape

import (
	"context"
	"strings"

	"github.com/fwojciec/foodscraper"
)

// Discover lists the recipe URLs a supported site publishes in its sitemaps.
// siteURL must itself resolve to a supported site. Only URLs the resolver
// accepts are returned, excluding siteURL itself.
func Discover(ctx context.Context, sitemaps foodscraper.SitemapService, resolver *foodscraper.Resolver, siteURL string) ([]string, error) {
	if _, err := resolver.Resolve(siteURL); err != nil {
		return nil, err
	}

	root := strings.TrimSpace(siteURL)
	return sitemaps.DiscoverURLs(ctx, root, func(u string) bool {
		return u != root && resolver.Supported(u)
	})
}
