package main

import (
	"fmt"
	"strings"

	"github.com/fwojciec/foodscraper"
	"github.com/fwojciec/foodscraper/scrape"
)

// previewLen caps the preview of a matched field.
const previewLen = 60

// Run executes the check command.
func (c *CheckCmd) Run(deps *Dependencies) error {
	site, err := deps.Resolver.Resolve(c.URL)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", errorText(err))
		return err
	}

	selectors, err := deps.Selectors.Lookup(site)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", errorText(err))
		return err
	}

	url := strings.TrimSpace(c.URL)
	html, err := deps.Fetcher.Fetch(deps.Ctx, url)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", errorText(err))
		return err
	}

	reports, err := deps.Inspector.Inspect(html, selectors)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", errorText(err))
		return err
	}

	recipe, err := deps.Extractor.Extract(html, selectors, c.URL)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", errorText(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "%s (%s, %s)\n", scrape.TruncateURL(url, previewLen), site, scrape.FormatBytes(len(html)))
	for _, r := range reports {
		line := fmt.Sprintf("  %-12s %-16s", r.Field, r.Status)
		if r.Status == foodscraper.StatusMatched {
			line += fmt.Sprintf(" %d match(es): %s", r.Matches, preview(recipe, r.Field))
		}
		if r.Status != foodscraper.StatusNotConfigured {
			line += fmt.Sprintf("  [%s]", r.Selector)
		}
		fmt.Fprintln(deps.Stdout, strings.TrimRight(line, " "))
	}
	return nil
}

// preview summarizes the extracted value of a field on one line.
func preview(recipe *foodscraper.Recipe, field foodscraper.Field) string {
	var text string
	switch field {
	case foodscraper.FieldTitle:
		text = deref(recipe.Title)
	case foodscraper.FieldDescription:
		text = deref(recipe.Description)
	case foodscraper.FieldImage:
		text = deref(recipe.ImageLink)
	case foodscraper.FieldIngredients:
		return listPreview(recipe.Ingredients)
	case foodscraper.FieldSteps:
		return listPreview(recipe.Steps)
	}
	return truncate(strings.Join(strings.Fields(text), " "), previewLen)
}

func listPreview(items []string) string {
	if len(items) == 0 {
		return "0 items"
	}
	return fmt.Sprintf("%d items, first %q", len(items), truncate(items[0], previewLen))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
