package mock

import (
	"context"

	"github.com/fwojciec/foodscraper"
)

var _ foodscraper.RecipeExtractor = (*RecipeExtractor)(nil)

// RecipeExtractor is a mock implementation of foodscraper.RecipeExtractor.
type RecipeExtractor struct {
	ExtractFn func(html string, selectors *foodscraper.SelectorSet, sourceURL string) (*foodscraper.Recipe, error)
}

func (e *RecipeExtractor) Extract(html string, selectors *foodscraper.SelectorSet, sourceURL string) (*foodscraper.Recipe, error) {
	return e.ExtractFn(html, selectors, sourceURL)
}

var _ foodscraper.RecipeWriter = (*RecipeWriter)(nil)

// RecipeWriter is a mock implementation of foodscraper.RecipeWriter.
type RecipeWriter struct {
	WriteRecipeFn func(ctx context.Context, recipe *foodscraper.Recipe) (string, error)
}

func (w *RecipeWriter) WriteRecipe(ctx context.Context, recipe *foodscraper.Recipe) (string, error) {
	return w.WriteRecipeFn(ctx, recipe)
}

var _ foodscraper.RecipeService = (*RecipeService)(nil)

// RecipeService is a mock implementation of foodscraper.RecipeService.
type RecipeService struct {
	SaveRecipeFn     func(ctx context.Context, saved *foodscraper.SavedRecipe) error
	FindRecipeByIDFn func(ctx context.Context, id string) (*foodscraper.SavedRecipe, error)
	FindRecipesFn    func(ctx context.Context, filter foodscraper.RecipeFilter) ([]*foodscraper.SavedRecipe, error)
	DeleteRecipeFn   func(ctx context.Context, id string) error
}

func (s *RecipeService) SaveRecipe(ctx context.Context, saved *foodscraper.SavedRecipe) error {
	return s.SaveRecipeFn(ctx, saved)
}

func (s *RecipeService) FindRecipeByID(ctx context.Context, id string) (*foodscraper.SavedRecipe, error) {
	return s.FindRecipeByIDFn(ctx, id)
}

func (s *RecipeService) FindRecipes(ctx context.Context, filter foodscraper.RecipeFilter) ([]*foodscraper.SavedRecipe, error) {
	return s.FindRecipesFn(ctx, filter)
}

func (s *RecipeService) DeleteRecipe(ctx context.Context, id string) error {
	return s.DeleteRecipeFn(ctx, id)
}
