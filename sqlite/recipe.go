package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fwojciec/foodscraper"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ foodscraper.RecipeService = (*RecipeService)(nil)

// RecipeService implements foodscraper.RecipeService using SQLite.
type RecipeService struct {
	db *DB
}

// NewRecipeService creates a new RecipeService.
func NewRecipeService(db *DB) *RecipeService {
	return &RecipeService{db: db}
}

// SaveRecipe inserts a recipe, or replaces the recipe stored for the same
// source URL. A replaced recipe keeps its ID; saved.ID is set either way.
func (s *RecipeService) SaveRecipe(ctx context.Context, saved *foodscraper.SavedRecipe) error {
	if err := saved.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(&saved.Recipe)
	if err != nil {
		return fmt.Errorf("failed to encode recipe: %w", err)
	}

	if saved.ScrapedAt.IsZero() {
		saved.ScrapedAt = time.Now()
	}
	saved.ScrapedAt = saved.ScrapedAt.UTC().Truncate(time.Second)

	var id string
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO recipes (id, site, source_url, title, recipe_json, content_hash, scraped_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_url) DO UPDATE SET
			site = excluded.site,
			title = excluded.title,
			recipe_json = excluded.recipe_json,
			content_hash = excluded.content_hash,
			scraped_at = excluded.scraped_at
		RETURNING id
	`, uuid.New().String(), string(saved.Site), saved.SourceURL, nullString(saved.Recipe.Title),
		string(data), saved.ContentHash, saved.ScrapedAt.Format(time.RFC3339)).Scan(&id)
	if err != nil {
		return err
	}

	saved.ID = id
	return nil
}

// FindRecipeByID retrieves a recipe by ID.
func (s *RecipeService) FindRecipeByID(ctx context.Context, id string) (*foodscraper.SavedRecipe, error) {
	recipes, err := s.FindRecipes(ctx, foodscraper.RecipeFilter{ID: &id, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(recipes) == 0 {
		return nil, foodscraper.Errorf(foodscraper.ENOTFOUND, "recipe not found")
	}
	return recipes[0], nil
}

// FindRecipes retrieves recipes matching the filter, newest first.
func (s *RecipeService) FindRecipes(ctx context.Context, filter foodscraper.RecipeFilter) ([]*foodscraper.SavedRecipe, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT id, site, source_url, recipe_json, content_hash, scraped_at FROM recipes WHERE 1=1")

	if filter.ID != nil {
		query.WriteString(" AND id = ?")
		args = append(args, *filter.ID)
	}
	if filter.Site != nil {
		query.WriteString(" AND site = ?")
		args = append(args, string(*filter.Site))
	}
	if filter.SourceURL != nil {
		query.WriteString(" AND source_url = ?")
		args = append(args, *filter.SourceURL)
	}

	query.WriteString(" ORDER BY scraped_at DESC, rowid DESC")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recipes []*foodscraper.SavedRecipe
	for rows.Next() {
		var saved foodscraper.SavedRecipe
		var site, data, scrapedAt string

		if err := rows.Scan(&saved.ID, &site, &saved.SourceURL, &data, &saved.ContentHash, &scrapedAt); err != nil {
			return nil, err
		}
		saved.Site = foodscraper.SiteKey(site)

		if err := json.Unmarshal([]byte(data), &saved.Recipe); err != nil {
			return nil, fmt.Errorf("failed to decode recipe %s: %w", saved.ID, err)
		}
		if saved.ScrapedAt, err = parseRFC3339(scrapedAt, "scraped_at"); err != nil {
			return nil, err
		}

		recipes = append(recipes, &saved)
	}

	return recipes, rows.Err()
}

// DeleteRecipe permanently removes a recipe.
func (s *RecipeService) DeleteRecipe(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM recipes WHERE id = ?", id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return foodscraper.Errorf(foodscraper.ENOTFOUND, "recipe not found")
	}

	return nil
}
