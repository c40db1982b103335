// Package scrape orchestrates recipe scraping. It coordinates site
// resolution, selector lookup, fetching, extraction, and storage of
// recipe pages.
package scrape

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fwojciec/foodscraper"
	"github.com/fwojciec/foodscraper/bloom"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of pages scraped in parallel by ScrapeAll.
const DefaultConcurrency = 3

// dedupeFalsePositiveRate sizes the batch Bloom filter. A false positive
// would skip a distinct URL as a duplicate.
const dedupeFalsePositiveRate = 1e-6

// Scraper runs recipe scrapes. Resolver, Selectors, Fetcher and Extractor
// are required; Writer, Recipes and RateLimiter are optional.
type Scraper struct {
	Resolver    *foodscraper.Resolver
	Selectors   foodscraper.SelectorRegistry
	Fetcher     foodscraper.Fetcher
	Extractor   foodscraper.RecipeExtractor
	Writer      foodscraper.RecipeWriter
	Recipes     foodscraper.RecipeService
	RateLimiter foodscraper.DomainLimiter
	Concurrency int
	RetryDelays []time.Duration
	Logf        LogFunc
	Now         func() time.Time
}

// Result holds the outcome of scraping one URL.
type Result struct {
	URL    string
	Site   foodscraper.SiteKey
	Recipe *foodscraper.Recipe

	// Path is where Writer stored the recipe, if a Writer is set.
	Path string

	// Saved is the library record, if a RecipeService is set. Unchanged
	// reports that the library already held an identical recipe for the URL.
	Saved     *foodscraper.SavedRecipe
	Unchanged bool

	// Duplicate is set for a repeated URL in a batch; it is not scraped.
	Duplicate bool

	Err error
}

// Scrape runs a single scrape. The URL is resolved and its selectors looked
// up before anything is fetched; a rejected URL is never fetched or retried.
func (s *Scraper) Scrape(ctx context.Context, rawURL string) (*Result, error) {
	result := s.scrape(ctx, rawURL)
	if result.Err != nil {
		return nil, result.Err
	}
	return &result, nil
}

// ScrapeAll scrapes urls concurrently and returns one Result per input URL,
// in input order. Failures are reported per Result. The returned error is
// non-nil only if ctx is canceled.
func (s *Scraper) ScrapeAll(ctx context.Context, urls []string) ([]Result, error) {
	concurrency := s.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	results := make([]Result, len(urls))
	seen := bloom.NewFilter(uint(max(len(urls), 1)), dedupeFalsePositiveRate)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, rawURL := range urls {
		key := strings.TrimSpace(rawURL)
		if seen.TestAndAdd(key) {
			results[i] = Result{URL: rawURL, Duplicate: true}
			continue
		}

		g.Go(func() error {
			results[i] = s.scrape(gctx, rawURL)
			return nil
		})
	}
	_ = g.Wait()

	return results, ctx.Err()
}

func (s *Scraper) scrape(ctx context.Context, rawURL string) Result {
	result := Result{URL: rawURL}
	if err := ctx.Err(); err != nil {
		result.Err = err
		return result
	}

	resolver := s.Resolver
	if resolver == nil {
		resolver = foodscraper.NewResolver()
	}

	site, err := resolver.Resolve(rawURL)
	if err != nil {
		result.Err = err
		return result
	}
	result.Site = site

	selectors, err := s.Selectors.Lookup(site)
	if err != nil {
		result.Err = err
		return result
	}

	html, err := s.fetch(ctx, strings.TrimSpace(rawURL))
	if err != nil {
		result.Err = fmt.Errorf("fetching %s: %w", rawURL, err)
		return result
	}

	recipe, err := s.Extractor.Extract(html, selectors, rawURL)
	if err != nil {
		result.Err = err
		return result
	}
	result.Recipe = recipe

	if s.Writer != nil {
		path, err := s.Writer.WriteRecipe(ctx, recipe)
		if err != nil {
			result.Err = fmt.Errorf("writing recipe: %w", err)
			return result
		}
		result.Path = path
	}

	if s.Recipes != nil {
		saved, unchanged, err := s.record(ctx, site, recipe)
		if err != nil {
			result.Err = fmt.Errorf("recording recipe: %w", err)
			return result
		}
		result.Saved = saved
		result.Unchanged = unchanged
	}

	return result
}

// fetch waits for the site's rate limit before every attempt.
func (s *Scraper) fetch(ctx context.Context, url string) (string, error) {
	delays := s.RetryDelays
	if delays == nil {
		delays = DefaultRetryDelays()
	}

	fetchFn := func(ctx context.Context, url string) (string, error) {
		if s.RateLimiter != nil {
			u, err := foodscraper.ParseURL(url)
			if err != nil {
				return "", err
			}
			if err := s.RateLimiter.Wait(ctx, u.Host); err != nil {
				return "", err
			}
		}
		return s.Fetcher.Fetch(ctx, url)
	}

	return FetchWithRetry(ctx, url, fetchFn, s.Logf, delays)
}

// record stores the recipe in the library unless an identical recipe for
// the same URL is already there.
func (s *Scraper) record(ctx context.Context, site foodscraper.SiteKey, recipe *foodscraper.Recipe) (*foodscraper.SavedRecipe, bool, error) {
	hash, err := ContentHash(recipe)
	if err != nil {
		return nil, false, err
	}

	sourceURL := strings.TrimSpace(recipe.SourceURL)
	existing, err := s.Recipes.FindRecipes(ctx, foodscraper.RecipeFilter{SourceURL: &sourceURL, Limit: 1})
	if err != nil {
		return nil, false, err
	}
	if len(existing) > 0 && existing[0].ContentHash == hash {
		return existing[0], true, nil
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}

	saved := &foodscraper.SavedRecipe{
		Site:        site,
		SourceURL:   sourceURL,
		Recipe:      *recipe,
		ContentHash: hash,
		ScrapedAt:   now().UTC(),
	}
	if err := s.Recipes.SaveRecipe(ctx, saved); err != nil {
		return nil, false, err
	}
	return saved, false, nil
}
