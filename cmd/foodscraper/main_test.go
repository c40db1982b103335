package main_test

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fwojciec/foodscraper"
	main "github.com/fwojciec/foodscraper/cmd/foodscraper"
	"github.com/fwojciec/foodscraper/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const soupURL = "https://15gram.be/recepten/tomatensoep"

const soupPage = `<!DOCTYPE html>
<html>
<body>
<h1 class="text-center">Tomato Soup</h1>
<p class="recipe-intro">A hearty soup for winter.</p>
<ul class="detail-ingr-block">
	<li>200g tomato</li>
	<li>1 onion</li>
</ul>
<ol class="detail-steps-block">
	<li>Chop the onion.</li>
	<li>Simmer everything.</li>
</ol>
<img class="recipe-image" src="https://15gram.be/img/soup.jpg">
</body>
</html>`

// testContext returns a background context for tests.
func testContext() context.Context {
	return context.Background()
}

func ptr(s string) *string {
	return &s
}

// testMain returns a Main that serves html for every fetch and keeps its
// database and output in temporary directories.
func testMain(t *testing.T, html string) (*main.Main, *atomic.Int32) {
	t.Helper()

	var fetches atomic.Int32
	m := main.NewMain()
	m.DBPath = filepath.Join(t.TempDir(), "test.db")
	m.OutputDir = t.TempDir()
	m.RetryDelays = []time.Duration{}
	m.Fetcher = &mock.Fetcher{
		FetchFn: func(_ context.Context, _ string) (string, error) {
			fetches.Add(1)
			return html, nil
		},
		CloseFn: func() error { return nil },
	}
	return m, &fetches
}

func TestMain_Run_Scrape(t *testing.T) {
	t.Parallel()

	t.Run("writes the recipe file and records it in the library", func(t *testing.T) {
		t.Parallel()

		m, _ := testMain(t, soupPage)
		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}

		err := m.Run(testContext(), []string{"scrape", "--db", m.DBPath, soupURL}, stdout, stderr)
		require.NoError(t, err)

		assert.Contains(t, stdout.String(), "Recipe JSON file 'recipe_Tomato Soup.json' created successfully in '"+m.OutputDir+"'.")
		assert.Contains(t, stdout.String(), "Recipe scraping completed successfully.")

		data, err := os.ReadFile(filepath.Join(m.OutputDir, "recipe_Tomato Soup.json"))
		require.NoError(t, err)
		assert.Contains(t, string(data), `"title": "Tomato Soup"`)
		assert.Contains(t, string(data), `"source_url": "`+soupURL+`"`)

		list := main.NewMain()
		listOut := &bytes.Buffer{}
		err = list.Run(testContext(), []string{"list", "--db", m.DBPath}, listOut, &bytes.Buffer{})
		require.NoError(t, err)
		assert.Contains(t, listOut.String(), "Tomato Soup")
		assert.Contains(t, listOut.String(), soupURL)
	})

	t.Run("rejects an unsupported URL without fetching", func(t *testing.T) {
		t.Parallel()

		m, fetches := testMain(t, soupPage)
		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}

		err := m.Run(testContext(), []string{"scrape", "--no-save", "https://example.com/recipe"}, stdout, stderr)

		require.Error(t, err)
		assert.Contains(t, stderr.String(), "error: unsupported domain: https://example.com/recipe")
		assert.NotContains(t, stdout.String(), "completed successfully")
		assert.Equal(t, int32(0), fetches.Load())
	})

	t.Run("no-save leaves the library untouched", func(t *testing.T) {
		t.Parallel()

		m, _ := testMain(t, soupPage)

		err := m.Run(testContext(), []string{"scrape", "--no-save", "--db", m.DBPath, soupURL}, &bytes.Buffer{}, &bytes.Buffer{})
		require.NoError(t, err)

		_, statErr := os.Stat(m.DBPath)
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("writes markdown into the output directory", func(t *testing.T) {
		t.Parallel()

		m, _ := testMain(t, soupPage)
		out := filepath.Join(t.TempDir(), "recipes")
		stdout := &bytes.Buffer{}

		err := m.Run(testContext(), []string{"scrape", "--no-save", "-f", "markdown", "-o", out, soupURL}, stdout, &bytes.Buffer{})
		require.NoError(t, err)

		assert.Contains(t, stdout.String(), "Recipe Markdown file 'recipe_Tomato Soup.md' created successfully in '"+out+"'.")
		data, err := os.ReadFile(filepath.Join(out, "recipe_Tomato Soup.md"))
		require.NoError(t, err)
		assert.Contains(t, string(data), "# Tomato Soup")
		assert.Contains(t, string(data), "- 200g tomato")
	})

	t.Run("uses a selectors file", func(t *testing.T) {
		t.Parallel()

		m, _ := testMain(t, soupPage)
		selectors := filepath.Join(t.TempDir(), "selectors.yaml")
		require.NoError(t, os.WriteFile(selectors, []byte("15gram:\n  title: h1.text-center\n"), 0o644))

		err := m.Run(testContext(), []string{"scrape", "--no-save", "-s", selectors, soupURL}, &bytes.Buffer{}, &bytes.Buffer{})
		require.NoError(t, err)

		data, err := os.ReadFile(filepath.Join(m.OutputDir, "recipe_Tomato Soup.json"))
		require.NoError(t, err)
		assert.Contains(t, string(data), `"ingredients": null`)
		assert.Contains(t, string(data), `"image_link": null`)
	})

	t.Run("fails on a missing selectors file", func(t *testing.T) {
		t.Parallel()

		m, fetches := testMain(t, soupPage)
		stderr := &bytes.Buffer{}

		err := m.Run(testContext(), []string{"scrape", "--no-save", "-s", filepath.Join(t.TempDir(), "missing.yaml"), soupURL}, &bytes.Buffer{}, stderr)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load selectors")
		assert.Contains(t, stderr.String(), "Hint:")
		assert.Equal(t, int32(0), fetches.Load())
	})
}

func TestMain_Run_Sites(t *testing.T) {
	t.Parallel()

	t.Run("lists built-in sites with all fields configured", func(t *testing.T) {
		t.Parallel()

		m, _ := testMain(t, "")
		stdout := &bytes.Buffer{}

		err := m.Run(testContext(), []string{"sites"}, stdout, &bytes.Buffer{})
		require.NoError(t, err)

		assert.Contains(t, stdout.String(), "15gram  https://15gram.be/  title description ingredients steps image")
		assert.Contains(t, stdout.String(), "dagelijksekost  https://dagelijksekost.vrt.be/  title description ingredients steps image")
	})

	t.Run("marks missing sites and fields", func(t *testing.T) {
		t.Parallel()

		m, _ := testMain(t, "")
		selectors := filepath.Join(t.TempDir(), "selectors.yaml")
		require.NoError(t, os.WriteFile(selectors, []byte("15gram:\n  title: h1\n  image: img\n"), 0o644))
		stdout := &bytes.Buffer{}

		err := m.Run(testContext(), []string{"sites", "--selectors", selectors}, stdout, &bytes.Buffer{})
		require.NoError(t, err)

		assert.Contains(t, stdout.String(), "15gram  https://15gram.be/  title -description -ingredients -steps image")
		assert.Contains(t, stdout.String(), "dagelijksekost  https://dagelijksekost.vrt.be/  no selectors")
	})
}

func TestMain_Run_Check(t *testing.T) {
	t.Parallel()

	m, _ := testMain(t, soupPage)
	selectors := filepath.Join(t.TempDir(), "selectors.yaml")
	require.NoError(t, os.WriteFile(selectors, []byte("15gram:\n  title: h1.text-center\n  description: .missing\n  steps: \"div)\"\n"), 0o644))
	stdout := &bytes.Buffer{}

	err := m.Run(testContext(), []string{"check", "-s", selectors, soupURL}, stdout, &bytes.Buffer{})
	require.NoError(t, err)

	output := stdout.String()
	assert.Contains(t, output, "title        matched          1 match(es): Tomato Soup  [h1.text-center]")
	assert.Contains(t, output, "description  no match  ")
	assert.Contains(t, output, "ingredients  not configured\n")
	assert.Contains(t, output, "steps        invalid selector  [div)]")
	assert.Contains(t, output, "image        not configured\n")
}

func TestMain_Run_Discover(t *testing.T) {
	t.Parallel()

	m, _ := testMain(t, "")
	m.Sitemaps = &mock.SitemapService{
		DiscoverURLsFn: func(_ context.Context, baseURL string, filter func(string) bool) ([]string, error) {
			assert.Equal(t, "https://15gram.be/", baseURL)
			var urls []string
			for _, u := range []string{
				"https://15gram.be/",
				"https://15gram.be/recepten/a",
				"http://15gram.be/recepten/b",
				"https://15gram.be/recepten/c",
			} {
				if filter(u) {
					urls = append(urls, u)
				}
			}
			return urls, nil
		},
	}
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	err := m.Run(testContext(), []string{"discover", "https://15gram.be/", "--limit", "1"}, stdout, stderr)
	require.NoError(t, err)

	assert.Equal(t, "https://15gram.be/recepten/a\n", stdout.String())
	assert.Contains(t, stderr.String(), "Found 2 recipe URLs, showing 1")
}

func TestMain_Run_DiscoverTimeout(t *testing.T) {
	t.Parallel()

	// The sitemap responds slowly; robots.txt answers at once.
	newSite := func(t *testing.T) (*httptest.Server, foodscraper.Origin) {
		t.Helper()

		var server *httptest.Server
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/robots.txt":
				fmt.Fprintf(w, "Sitemap: %s/sitemap.xml\n", server.URL)
			case "/sitemap.xml":
				select {
				case <-time.After(300 * time.Millisecond):
				case <-r.Context().Done():
					return
				}
				fmt.Fprintf(w, `<urlset><url><loc>%s/recepten/soep</loc></url></urlset>`, server.URL)
			default:
				http.NotFound(w, r)
			}
		}))
		t.Cleanup(server.Close)

		u, err := url.Parse(server.URL)
		require.NoError(t, err)
		return server, foodscraper.Origin{Key: "127", Scheme: u.Scheme, Host: u.Host}
	}

	t.Run("sitemap requests honor the timeout flag", func(t *testing.T) {
		t.Parallel()

		server, origin := newSite(t)
		m := main.NewMain()
		m.Origins = []foodscraper.Origin{origin}
		stderr := &bytes.Buffer{}

		err := m.Run(testContext(), []string{"discover", "--timeout", "50ms", server.URL + "/"}, &bytes.Buffer{}, stderr)

		require.Error(t, err)
		assert.Contains(t, stderr.String(), "error:")
	})

	t.Run("lists sitemap URLs within the timeout", func(t *testing.T) {
		t.Parallel()

		server, origin := newSite(t)
		m := main.NewMain()
		m.Origins = []foodscraper.Origin{origin}
		stdout := &bytes.Buffer{}

		err := m.Run(testContext(), []string{"discover", "--timeout", "5s", server.URL + "/"}, stdout, &bytes.Buffer{})

		require.NoError(t, err)
		assert.Equal(t, server.URL+"/recepten/soep\n", stdout.String())
	})
}
