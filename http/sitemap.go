package http

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/beevik/etree"
	"github.com/fwojciec/foodscraper"
)

// Ensure SitemapService implements foodscraper.SitemapService.
var _ foodscraper.SitemapService = (*SitemapService)(nil)

// SitemapService discovers recipe URLs from website sitemaps via HTTP.
type SitemapService struct {
	client    *http.Client
	userAgent string
}

// NewSitemapService creates a new SitemapService with the given HTTP client.
// If client is nil, a client with DefaultFetchTimeout is used.
func NewSitemapService(client *http.Client) *SitemapService {
	if client == nil {
		client = &http.Client{Timeout: DefaultFetchTimeout}
	}
	return &SitemapService{client: client, userAgent: DefaultUserAgent}
}

// DiscoverURLs returns the page URLs listed in a site's sitemaps, in
// sitemap order and without duplicates. Returns an empty slice (not nil)
// if the site publishes no sitemap.
//
// When baseURL has a non-root path (e.g. https://15gram.be/recepten),
// only URLs under that path are returned.
func (s *SitemapService) DiscoverURLs(ctx context.Context, baseURL string, filter func(url string) bool) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	base, err := foodscraper.ParseURL(baseURL)
	if err != nil {
		return nil, err
	}

	pathPrefix := strings.TrimSuffix(base.Path, "/")
	if pathPrefix != "" {
		pathPrefix += "/"
	}

	root := &url.URL{Scheme: base.Scheme, Host: base.Host}
	sitemapURLs, err := s.findSitemapURLs(ctx, root)
	if err != nil {
		return nil, err
	}

	w := &sitemapWalk{
		service:      s,
		seenSitemaps: make(map[string]bool),
		seenURLs:     make(map[string]bool),
		urls:         []string{},
	}
	for _, sitemapURL := range sitemapURLs {
		if err := w.visit(ctx, sitemapURL); err != nil {
			return nil, err
		}
	}

	result := make([]string, 0, len(w.urls))
	for _, u := range w.urls {
		if pathPrefix != "" && !hasPathPrefix(u, pathPrefix) {
			continue
		}
		if filter != nil && !filter(u) {
			continue
		}
		result = append(result, u)
	}
	return result, nil
}

// hasPathPrefix reports whether the URL's path lies under prefix.
// prefix must end with a slash so /recepten does not match /receptenboek.
func hasPathPrefix(rawURL, prefix string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.HasPrefix(parsed.Path, prefix)
}

// findSitemapURLs reads Sitemap directives from robots.txt and falls back
// to /sitemap.xml.
func (s *SitemapService) findSitemapURLs(ctx context.Context, root *url.URL) ([]string, error) {
	robotsURL := root.ResolveReference(&url.URL{Path: "/robots.txt"})
	sitemaps, err := s.sitemapsFromRobots(ctx, robotsURL.String())
	if err == nil && len(sitemaps) > 0 {
		return sitemaps, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	fallback := root.ResolveReference(&url.URL{Path: "/sitemap.xml"}).String()
	exists, err := s.exists(ctx, fallback)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, nil
	}
	if !exists {
		return nil, nil
	}
	return []string{fallback}, nil
}

func (s *SitemapService) sitemapsFromRobots(ctx context.Context, robotsURL string) ([]string, error) {
	resp, err := get(ctx, s.client, robotsURL, s.userAgent)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var sitemaps []string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		const directive = "sitemap:"
		if len(line) > len(directive) && strings.EqualFold(line[:len(directive)], directive) {
			if u := strings.TrimSpace(line[len(directive):]); u != "" {
				sitemaps = append(sitemaps, u)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading robots.txt: %w", err)
	}
	return sitemaps, nil
}

func (s *SitemapService) exists(ctx context.Context, targetURL string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, targetURL, nil)
	if err != nil {
		return false, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return false, err
	}
	resp.Body.Close()

	return resp.StatusCode == http.StatusOK, nil
}

// sitemapWalk collects URLs across a tree of sitemaps and sitemap indexes.
type sitemapWalk struct {
	service      *SitemapService
	seenSitemaps map[string]bool
	seenURLs     map[string]bool
	urls         []string
}

func (w *sitemapWalk) visit(ctx context.Context, sitemapURL string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if w.seenSitemaps[sitemapURL] {
		return nil
	}
	w.seenSitemaps[sitemapURL] = true

	resp, err := get(ctx, w.service.client, sitemapURL, w.service.userAgent)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(resp.Body); err != nil {
		return fmt.Errorf("parsing sitemap %s: %w", sitemapURL, err)
	}

	root := doc.Root()
	if root == nil {
		return fmt.Errorf("empty sitemap %s", sitemapURL)
	}

	if root.Tag == "sitemapindex" {
		for _, child := range locs(root, "sitemap") {
			if err := w.visit(ctx, child); err != nil {
				return err
			}
		}
		return nil
	}

	for _, u := range locs(root, "url") {
		if !w.seenURLs[u] {
			w.seenURLs[u] = true
			w.urls = append(w.urls, u)
		}
	}
	return nil
}

// locs returns the non-empty <loc> values of root's entries with the given tag.
func locs(root *etree.Element, tag string) []string {
	var result []string
	for _, entry := range root.SelectElements(tag) {
		loc := entry.SelectElement("loc")
		if loc == nil {
			continue
		}
		if u := strings.TrimSpace(loc.Text()); u != "" {
			result = append(result, u)
		}
	}
	return result
}
