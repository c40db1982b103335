package mock

import (
	"context"

	"github.com/fwojciec/foodscraper"
)

var _ foodscraper.SitemapService = (*SitemapService)(nil)

// SitemapService is a mock implementation of foodscraper.SitemapService.
type SitemapService struct {
	DiscoverURLsFn func(ctx context.Context, baseURL string, filter func(url string) bool) ([]string, error)
}

func (s *SitemapService) DiscoverURLs(ctx context.Context, baseURL string, filter func(url string) bool) ([]string, error) {
	return s.DiscoverURLsFn(ctx, baseURL, filter)
}

var _ foodscraper.Converter = (*Converter)(nil)

// Converter is a mock implementation of foodscraper.Converter.
type Converter struct {
	ConvertFn func(html string) (string, error)
}

func (c *Converter) Convert(html string) (string, error) {
	return c.ConvertFn(html)
}
