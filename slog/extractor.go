package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/foodscraper"
)

// Ensure LoggingExtractor implements foodscraper.RecipeExtractor.
var _ foodscraper.RecipeExtractor = (*LoggingExtractor)(nil)

// LoggingExtractor wraps a RecipeExtractor with logging. Extracted field
// values are logged at debug level.
type LoggingExtractor struct {
	next   foodscraper.RecipeExtractor
	logger *slog.Logger
}

// NewLoggingExtractor creates a new LoggingExtractor.
func NewLoggingExtractor(next foodscraper.RecipeExtractor, logger *slog.Logger) *LoggingExtractor {
	return &LoggingExtractor{next: next, logger: logger}
}

// Extract delegates to the wrapped extractor and logs which fields were absent.
func (e *LoggingExtractor) Extract(html string, selectors *foodscraper.SelectorSet, sourceURL string) (recipe *foodscraper.Recipe, err error) {
	defer func(begin time.Time) {
		var absent []foodscraper.Field
		if recipe != nil {
			absent = recipe.Absent()
		}
		e.logger.Info("extract",
			"url", sourceURL,
			"absent", absent,
			"duration", time.Since(begin),
			"err", err,
		)
		if recipe != nil {
			e.logFields(recipe)
		}
	}(time.Now())
	return e.next.Extract(html, selectors, sourceURL)
}

func (e *LoggingExtractor) logFields(r *foodscraper.Recipe) {
	ctx := context.Background()
	if !e.logger.Enabled(ctx, slog.LevelDebug) {
		return
	}
	if r.Title != nil {
		e.logger.Debug("field", "name", foodscraper.FieldTitle, "value", *r.Title)
	}
	if r.Description != nil {
		e.logger.Debug("field", "name", foodscraper.FieldDescription, "value", *r.Description)
	}
	if r.Ingredients != nil {
		e.logger.Debug("field", "name", foodscraper.FieldIngredients, "value", r.Ingredients)
	}
	if r.Steps != nil {
		e.logger.Debug("field", "name", foodscraper.FieldSteps, "value", r.Steps)
	}
	if r.ImageLink != nil {
		e.logger.Debug("field", "name", foodscraper.FieldImage, "value", *r.ImageLink)
	}
}
