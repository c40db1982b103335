package scrape_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fwojciec/foodscraper"
	"github.com/fwojciec/foodscraper/goquery"
	"github.com/fwojciec/foodscraper/mock"
	"github.com/fwojciec/foodscraper/scrape"
	"github.com/fwojciec/foodscraper/yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const soupPage = `<html><body>
<h1 class="text-center">Tomato Soup</h1>
<div class="detail-ingr-block">200g tomato

1 onion
</div>
</body></html>`

func newRegistry(t *testing.T, doc string) foodscraper.SelectorRegistry {
	t.Helper()
	reg, err := yaml.ParseRegistry(strings.NewReader(doc))
	require.NoError(t, err)
	return reg
}

func staticFetcher(html string) *mock.Fetcher {
	return &mock.Fetcher{
		FetchFn: func(_ context.Context, _ string) (string, error) {
			return html, nil
		},
	}
}

func failingFetcher(t *testing.T) *mock.Fetcher {
	return &mock.Fetcher{
		FetchFn: func(_ context.Context, url string) (string, error) {
			t.Errorf("unexpected fetch of %s", url)
			return "", errors.New("unexpected fetch")
		},
	}
}

func TestScraper_Scrape(t *testing.T) {
	t.Parallel()

	t.Run("extracts recipe from supported site", func(t *testing.T) {
		t.Parallel()

		s := &scrape.Scraper{
			Selectors:   newRegistry(t, "15gram:\n  title: h1.text-center\n  ingredients: .detail-ingr-block\n  image: .recipe-image\n"),
			Fetcher:     staticFetcher(soupPage),
			Extractor:   goquery.NewExtractor(),
			RetryDelays: []time.Duration{},
		}

		result, err := s.Scrape(context.Background(), "https://15gram.be/recipes/test")

		require.NoError(t, err)
		assert.Equal(t, foodscraper.SiteKey("15gram"), result.Site)
		require.NotNil(t, result.Recipe.Title)
		assert.Equal(t, "Tomato Soup", *result.Recipe.Title)
		assert.Equal(t, []string{"200g tomato", "1 onion"}, result.Recipe.Ingredients)
		assert.Nil(t, result.Recipe.ImageLink)
		assert.Nil(t, result.Recipe.Steps)
		assert.Equal(t, "https://15gram.be/recipes/test", result.Recipe.SourceURL)
	})

	t.Run("rejects unsupported domain without fetching", func(t *testing.T) {
		t.Parallel()

		s := &scrape.Scraper{
			Selectors: newRegistry(t, "15gram: {title: h1}\n"),
			Fetcher:   failingFetcher(t),
			Extractor: goquery.NewExtractor(),
		}

		_, err := s.Scrape(context.Background(), "https://example.com/recipe")

		assert.Equal(t, foodscraper.EUNSUPPORTED, foodscraper.ErrorCode(err))
	})

	t.Run("rejects invalid URL without fetching", func(t *testing.T) {
		t.Parallel()

		s := &scrape.Scraper{
			Selectors: newRegistry(t, "15gram: {title: h1}\n"),
			Fetcher:   failingFetcher(t),
			Extractor: goquery.NewExtractor(),
		}

		_, err := s.Scrape(context.Background(), "not a url")

		assert.Equal(t, foodscraper.EINVALIDURL, foodscraper.ErrorCode(err))
	})

	t.Run("rejects unconfigured site without fetching", func(t *testing.T) {
		t.Parallel()

		s := &scrape.Scraper{
			Selectors: newRegistry(t, "15gram: {title: h1}\n"),
			Fetcher:   failingFetcher(t),
			Extractor: goquery.NewExtractor(),
		}

		_, err := s.Scrape(context.Background(), "https://dagelijksekost.vrt.be/gerechten/soep")

		assert.Equal(t, foodscraper.ENOTCONFIGURED, foodscraper.ErrorCode(err))
	})

	t.Run("site without steps selector yields null steps", func(t *testing.T) {
		t.Parallel()

		page := `<h1 class="recipe__title">Stoemp</h1>
<div class="recipe__intro">Comfort food.</div>
<ul class="recipe__ingredients"><li>1kg potatoes</li><li>500g carrots</li></ul>
<ol class="recipe__preparation"><li>Boil.</li></ol>
<img class="recipe__image" src="https://dagelijksekost.vrt.be/img/stoemp.jpg">`

		s := &scrape.Scraper{
			Selectors: newRegistry(t, `dagelijksekost:
  title: h1.recipe__title
  description: .recipe__intro
  ingredients: .recipe__ingredients
  image: img.recipe__image
`),
			Fetcher:   staticFetcher(page),
			Extractor: goquery.NewExtractor(),
		}

		result, err := s.Scrape(context.Background(), "https://dagelijksekost.vrt.be/gerechten/stoemp")

		require.NoError(t, err)
		assert.Nil(t, result.Recipe.Steps)
		require.NotNil(t, result.Recipe.Title)
		assert.Equal(t, "Stoemp", *result.Recipe.Title)
		require.NotNil(t, result.Recipe.Description)
		assert.Equal(t, "Comfort food.", *result.Recipe.Description)
		assert.Equal(t, []string{"1kg potatoes", "500g carrots"}, result.Recipe.Ingredients)
		require.NotNil(t, result.Recipe.ImageLink)
		assert.Equal(t, "https://dagelijksekost.vrt.be/img/stoemp.jpg", *result.Recipe.ImageLink)
	})

	t.Run("retries failed fetches", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32
		var retries []string
		s := &scrape.Scraper{
			Selectors: newRegistry(t, "15gram: {title: h1.text-center}\n"),
			Fetcher: &mock.Fetcher{
				FetchFn: func(_ context.Context, _ string) (string, error) {
					if attempts.Add(1) < 3 {
						return "", errors.New("connection reset")
					}
					return soupPage, nil
				},
			},
			Extractor:   goquery.NewExtractor(),
			RetryDelays: []time.Duration{0, 0, 0},
			Logf: func(format string, args ...any) {
				retries = append(retries, format)
			},
		}

		result, err := s.Scrape(context.Background(), "https://15gram.be/recipes/test")

		require.NoError(t, err)
		assert.Equal(t, int32(3), attempts.Load())
		assert.Len(t, retries, 2)
		require.NotNil(t, result.Recipe.Title)
	})

	t.Run("returns last fetch error after retries are exhausted", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32
		s := &scrape.Scraper{
			Selectors: newRegistry(t, "15gram: {title: h1}\n"),
			Fetcher: &mock.Fetcher{
				FetchFn: func(_ context.Context, _ string) (string, error) {
					attempts.Add(1)
					return "", errors.New("HTTP 503")
				},
			},
			Extractor:   goquery.NewExtractor(),
			RetryDelays: []time.Duration{0, 0},
		}

		_, err := s.Scrape(context.Background(), "https://15gram.be/recipes/test")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "HTTP 503")
		assert.Equal(t, int32(3), attempts.Load())
	})

	t.Run("waits on rate limiter with host before each attempt", func(t *testing.T) {
		t.Parallel()

		var domains []string
		s := &scrape.Scraper{
			Selectors: newRegistry(t, "15gram: {title: h1}\n"),
			Fetcher:   staticFetcher(soupPage),
			Extractor: goquery.NewExtractor(),
			RateLimiter: &mock.DomainLimiter{
				WaitFn: func(_ context.Context, domain string) error {
					domains = append(domains, domain)
					return nil
				},
			},
		}

		_, err := s.Scrape(context.Background(), "https://15gram.be/recipes/test")

		require.NoError(t, err)
		assert.Equal(t, []string{"15gram.be"}, domains)
	})

	t.Run("writes recipe with writer", func(t *testing.T) {
		t.Parallel()

		var written *foodscraper.Recipe
		s := &scrape.Scraper{
			Selectors: newRegistry(t, "15gram: {title: h1.text-center}\n"),
			Fetcher:   staticFetcher(soupPage),
			Extractor: goquery.NewExtractor(),
			Writer: &mock.RecipeWriter{
				WriteRecipeFn: func(_ context.Context, recipe *foodscraper.Recipe) (string, error) {
					written = recipe
					return "/out/recipe_Tomato Soup.json", nil
				},
			},
		}

		result, err := s.Scrape(context.Background(), "https://15gram.be/recipes/test")

		require.NoError(t, err)
		assert.Equal(t, "/out/recipe_Tomato Soup.json", result.Path)
		assert.Same(t, result.Recipe, written)
	})

	t.Run("returns writer error", func(t *testing.T) {
		t.Parallel()

		s := &scrape.Scraper{
			Selectors: newRegistry(t, "15gram: {title: h1.text-center}\n"),
			Fetcher:   staticFetcher(soupPage),
			Extractor: goquery.NewExtractor(),
			Writer: &mock.RecipeWriter{
				WriteRecipeFn: func(_ context.Context, _ *foodscraper.Recipe) (string, error) {
					return "", errors.New("disk full")
				},
			},
		}

		_, err := s.Scrape(context.Background(), "https://15gram.be/recipes/test")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk full")
	})

	t.Run("records new recipe in library", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
		var saved *foodscraper.SavedRecipe
		s := &scrape.Scraper{
			Selectors: newRegistry(t, "15gram: {title: h1.text-center}\n"),
			Fetcher:   staticFetcher(soupPage),
			Extractor: goquery.NewExtractor(),
			Recipes: &mock.RecipeService{
				FindRecipesFn: func(_ context.Context, filter foodscraper.RecipeFilter) ([]*foodscraper.SavedRecipe, error) {
					require.NotNil(t, filter.SourceURL)
					assert.Equal(t, "https://15gram.be/recipes/test", *filter.SourceURL)
					return nil, nil
				},
				SaveRecipeFn: func(_ context.Context, rec *foodscraper.SavedRecipe) error {
					rec.ID = "id-1"
					saved = rec
					return nil
				},
			},
			Now: func() time.Time { return now },
		}

		result, err := s.Scrape(context.Background(), " https://15gram.be/recipes/test ")

		require.NoError(t, err)
		require.NotNil(t, saved)
		assert.Same(t, saved, result.Saved)
		assert.False(t, result.Unchanged)
		assert.Equal(t, foodscraper.SiteKey("15gram"), saved.Site)
		assert.Equal(t, "https://15gram.be/recipes/test", saved.SourceURL)
		assert.Equal(t, now, saved.ScrapedAt)
		assert.NotEmpty(t, saved.ContentHash)
		assert.Equal(t, " https://15gram.be/recipes/test ", saved.Recipe.SourceURL)
	})

	t.Run("skips saving unchanged recipe", func(t *testing.T) {
		t.Parallel()

		extractor := goquery.NewExtractor()
		selectors := newRegistry(t, "15gram: {title: h1.text-center}\n")
		set, err := selectors.Lookup("15gram")
		require.NoError(t, err)
		recipe, err := extractor.Extract(soupPage, set, "https://15gram.be/recipes/test")
		require.NoError(t, err)
		hash, err := scrape.ContentHash(recipe)
		require.NoError(t, err)

		existing := &foodscraper.SavedRecipe{ID: "id-1", ContentHash: hash}
		s := &scrape.Scraper{
			Selectors: selectors,
			Fetcher:   staticFetcher(soupPage),
			Extractor: extractor,
			Recipes: &mock.RecipeService{
				FindRecipesFn: func(_ context.Context, _ foodscraper.RecipeFilter) ([]*foodscraper.SavedRecipe, error) {
					return []*foodscraper.SavedRecipe{existing}, nil
				},
				SaveRecipeFn: func(_ context.Context, _ *foodscraper.SavedRecipe) error {
					t.Error("unexpected save")
					return nil
				},
			},
		}

		result, err := s.Scrape(context.Background(), "https://15gram.be/recipes/test")

		require.NoError(t, err)
		assert.True(t, result.Unchanged)
		assert.Same(t, existing, result.Saved)
	})
}

func TestScraper_ScrapeAll(t *testing.T) {
	t.Parallel()

	t.Run("returns results in input order", func(t *testing.T) {
		t.Parallel()

		s := &scrape.Scraper{
			Selectors: newRegistry(t, "15gram: {title: h1}\n"),
			Fetcher: &mock.Fetcher{
				FetchFn: func(_ context.Context, url string) (string, error) {
					if strings.HasSuffix(url, "/a") {
						time.Sleep(20 * time.Millisecond)
					}
					return "<h1>" + url[strings.LastIndex(url, "/")+1:] + "</h1>", nil
				},
			},
			Extractor:   goquery.NewExtractor(),
			Concurrency: 3,
		}

		results, err := s.ScrapeAll(context.Background(), []string{
			"https://15gram.be/recipes/a",
			"https://example.com/recipe",
			"https://15gram.be/recipes/b",
		})

		require.NoError(t, err)
		require.Len(t, results, 3)
		require.NoError(t, results[0].Err)
		assert.Equal(t, "a", *results[0].Recipe.Title)
		assert.Equal(t, foodscraper.EUNSUPPORTED, foodscraper.ErrorCode(results[1].Err))
		require.NoError(t, results[2].Err)
		assert.Equal(t, "b", *results[2].Recipe.Title)
	})

	t.Run("skips duplicate URLs", func(t *testing.T) {
		t.Parallel()

		var fetches atomic.Int32
		s := &scrape.Scraper{
			Selectors: newRegistry(t, "15gram: {title: h1}\n"),
			Fetcher: &mock.Fetcher{
				FetchFn: func(_ context.Context, _ string) (string, error) {
					fetches.Add(1)
					return soupPage, nil
				},
			},
			Extractor: goquery.NewExtractor(),
		}

		results, err := s.ScrapeAll(context.Background(), []string{
			"https://15gram.be/recipes/test",
			" https://15gram.be/recipes/test",
			"https://15gram.be/recipes/other",
		})

		require.NoError(t, err)
		assert.Equal(t, int32(2), fetches.Load())
		assert.False(t, results[0].Duplicate)
		assert.True(t, results[1].Duplicate)
		assert.Nil(t, results[1].Recipe)
		assert.False(t, results[2].Duplicate)
	})

	t.Run("limits concurrency", func(t *testing.T) {
		t.Parallel()

		var mu sync.Mutex
		var active, peak int
		s := &scrape.Scraper{
			Selectors: newRegistry(t, "15gram: {title: h1}\n"),
			Fetcher: &mock.Fetcher{
				FetchFn: func(_ context.Context, _ string) (string, error) {
					mu.Lock()
					active++
					peak = max(peak, active)
					mu.Unlock()

					time.Sleep(10 * time.Millisecond)

					mu.Lock()
					active--
					mu.Unlock()
					return soupPage, nil
				},
			},
			Extractor:   goquery.NewExtractor(),
			Concurrency: 2,
		}

		urls := make([]string, 6)
		for i := range urls {
			urls[i] = "https://15gram.be/recipes/" + string(rune('a'+i))
		}

		results, err := s.ScrapeAll(context.Background(), urls)

		require.NoError(t, err)
		for _, r := range results {
			assert.NoError(t, r.Err)
		}
		assert.LessOrEqual(t, peak, 2)
	})

	t.Run("never fetches rejected URLs", func(t *testing.T) {
		t.Parallel()

		s := &scrape.Scraper{
			Selectors: newRegistry(t, "15gram: {title: h1}\n"),
			Fetcher:   failingFetcher(t),
			Extractor: goquery.NewExtractor(),
		}

		results, err := s.ScrapeAll(context.Background(), []string{
			"https://example.com/recipe",
			"http://15gram.be/recipes/test",
			"https://dagelijksekost.vrt.be/gerechten/soep",
			"",
		})

		require.NoError(t, err)
		assert.Equal(t, foodscraper.EUNSUPPORTED, foodscraper.ErrorCode(results[0].Err))
		assert.Equal(t, foodscraper.EUNSUPPORTED, foodscraper.ErrorCode(results[1].Err))
		assert.Equal(t, foodscraper.ENOTCONFIGURED, foodscraper.ErrorCode(results[2].Err))
		assert.Equal(t, foodscraper.EINVALIDURL, foodscraper.ErrorCode(results[3].Err))
	})

	t.Run("returns context error when canceled", func(t *testing.T) {
		t.Parallel()

		s := &scrape.Scraper{
			Selectors: newRegistry(t, "15gram: {title: h1}\n"),
			Fetcher:   failingFetcher(t),
			Extractor: goquery.NewExtractor(),
		}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		results, err := s.ScrapeAll(ctx, []string{"https://15gram.be/recipes/test"})

		require.ErrorIs(t, err, context.Canceled)
		require.Len(t, results, 1)
		assert.ErrorIs(t, results[0].Err, context.Canceled)
	})
}
