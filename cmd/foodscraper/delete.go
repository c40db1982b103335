package main

import (
	"fmt"

	"github.com/fwojciec/foodscraper"
)

// Run executes the delete command.
func (c *DeleteCmd) Run(deps *Dependencies) error {
	if !c.Force {
		fmt.Fprintf(deps.Stderr, "error: use --force to confirm deletion\n")
		return foodscraper.Errorf(foodscraper.EINVALID, "use --force to confirm deletion")
	}

	if err := deps.Recipes.DeleteRecipe(deps.Ctx, c.ID); err != nil {
		if foodscraper.ErrorCode(err) == foodscraper.ENOTFOUND {
			fmt.Fprintf(deps.Stderr, "error: recipe %q not found. Use 'foodscraper list' to see saved recipes.\n", c.ID)
			return err
		}
		fmt.Fprintf(deps.Stderr, "error: %s\n", foodscraper.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Deleted recipe %s\n", c.ID)
	return nil
}
