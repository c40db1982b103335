package main

import (
	"fmt"

	"github.com/fwojciec/foodscraper"
	"github.com/fwojciec/foodscraper/fs"
)

// Run executes the show command.
func (c *ShowCmd) Run(deps *Dependencies) error {
	format, err := fs.ParseFormat(c.Format)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", foodscraper.ErrorMessage(err))
		return err
	}

	saved, err := deps.Recipes.FindRecipeByID(deps.Ctx, c.ID)
	if err != nil {
		if foodscraper.ErrorCode(err) == foodscraper.ENOTFOUND {
			fmt.Fprintf(deps.Stderr, "error: recipe %q not found. Use 'foodscraper list' to see saved recipes.\n", c.ID)
			return err
		}
		fmt.Fprintf(deps.Stderr, "error: %s\n", foodscraper.ErrorMessage(err))
		return err
	}

	if format == fs.FormatMarkdown {
		fmt.Fprint(deps.Stdout, fs.FormatRecipe(&saved.Recipe, deps.Converter))
		return nil
	}

	data, err := fs.MarshalRecipe(&saved.Recipe)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", err)
		return err
	}
	fmt.Fprintln(deps.Stdout, string(data))
	return nil
}
