package main

import (
	"fmt"

	"github.com/fwojciec/foodscraper/scrape"
)

// Run executes the discover command.
func (c *DiscoverCmd) Run(deps *Dependencies) error {
	urls, err := scrape.Discover(deps.Ctx, deps.Sitemaps, deps.Resolver, c.SiteURL)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", errorText(err))
		return err
	}

	if len(urls) == 0 {
		fmt.Fprintln(deps.Stderr, "No recipe URLs found in the site's sitemaps.")
		return nil
	}

	shown := urls
	if c.Limit > 0 && len(shown) > c.Limit {
		shown = shown[:c.Limit]
	}
	for _, u := range shown {
		fmt.Fprintln(deps.Stdout, u)
	}

	fmt.Fprintf(deps.Stderr, "Found %d recipe URLs", len(urls))
	if len(shown) < len(urls) {
		fmt.Fprintf(deps.Stderr, ", showing %d", len(shown))
	}
	fmt.Fprintln(deps.Stderr)
	return nil
}
