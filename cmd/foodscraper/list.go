package main

import (
	"fmt"

	"github.com/fwojciec/foodscraper"
)

// Run executes the list command.
func (c *ListCmd) Run(deps *Dependencies) error {
	filter := foodscraper.RecipeFilter{Limit: c.Limit}
	if c.Site != "" {
		site := foodscraper.SiteKey(c.Site)
		filter.Site = &site
	}

	recipes, err := deps.Recipes.FindRecipes(deps.Ctx, filter)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", foodscraper.ErrorMessage(err))
		return err
	}

	if len(recipes) == 0 {
		fmt.Fprintln(deps.Stdout, "No recipes found. Use 'foodscraper scrape' to add one.")
		return nil
	}

	for _, r := range recipes {
		title := "(untitled)"
		if r.Recipe.Title != nil {
			title = *r.Recipe.Title
		}
		fmt.Fprintf(deps.Stdout, "%s  %s  %s  %s\n", r.ID, r.Site, title, r.SourceURL)
	}

	return nil
}
