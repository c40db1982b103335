package main

import (
	"fmt"
	"path/filepath"

	"github.com/fwojciec/foodscraper"
	"github.com/fwojciec/foodscraper/fs"
	"github.com/fwojciec/foodscraper/scrape"
)

// Run executes the scrape command.
func (c *ScrapeCmd) Run(deps *Dependencies) error {
	format, err := fs.ParseFormat(c.Format)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", foodscraper.ErrorMessage(err))
		return err
	}

	dir := c.Output
	if dir == "" {
		dir = deps.OutputDir
	}
	if dir == "" {
		dir = "."
	}

	scraper := &scrape.Scraper{
		Resolver:    deps.Resolver,
		Selectors:   deps.Selectors,
		Fetcher:     deps.Fetcher,
		Extractor:   deps.Extractor,
		Writer:      fs.NewRecipeWriter(dir, fs.WithFormat(format), fs.WithConverter(deps.Converter)),
		RateLimiter: deps.RateLimiter,
		Concurrency: c.Concurrency,
		RetryDelays: deps.RetryDelays,
		Logf: func(msg string, args ...any) {
			fmt.Fprintf(deps.Stderr, msg+"\n", args...)
		},
	}
	if !c.NoSave {
		scraper.Recipes = deps.Recipes
	}

	results, err := scraper.ScrapeAll(deps.Ctx, c.URLs)

	failed := 0
	for _, r := range results {
		switch {
		case r.Duplicate:
			fmt.Fprintf(deps.Stdout, "Skipping duplicate URL '%s'.\n", r.URL)
		case r.Err != nil:
			failed++
			fmt.Fprintf(deps.Stderr, "error: %s\n", errorText(r.Err))
		default:
			fmt.Fprintf(deps.Stdout, "Recipe %s file '%s' created successfully in '%s'.\n",
				formatLabel(format), filepath.Base(r.Path), dir)
			if r.Unchanged {
				fmt.Fprintf(deps.Stdout, "Library entry %s is already up to date.\n", r.Saved.ID)
			}
		}
	}

	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", err)
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d recipes failed", failed, len(c.URLs))
	}

	fmt.Fprintln(deps.Stdout, "Recipe scraping completed successfully.")
	return nil
}

func formatLabel(f fs.Format) string {
	if f == fs.FormatMarkdown {
		return "Markdown"
	}
	return "JSON"
}
