package foodscraper

import (
	"context"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Recipe is the structured record extracted from one recipe page.
//
// Every field except SourceURL is optional: nil means the field was absent,
// either because no selector was configured, the selector was invalid, or it
// matched nothing. Absent fields serialize to JSON null.
type Recipe struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Ingredients []string `json:"ingredients"`
	Steps       []string `json:"steps"`
	ImageLink   *string  `json:"image_link"`
	SourceURL   string   `json:"source_url"`
}

// Absent returns the fields that were not extracted, in output order.
func (r *Recipe) Absent() []Field {
	var fields []Field
	if r.Title == nil {
		fields = append(fields, FieldTitle)
	}
	if r.Description == nil {
		fields = append(fields, FieldDescription)
	}
	if r.Ingredients == nil {
		fields = append(fields, FieldIngredients)
	}
	if r.Steps == nil {
		fields = append(fields, FieldSteps)
	}
	if r.ImageLink == nil {
		fields = append(fields, FieldImage)
	}
	return fields
}

// DefaultIdentifier is the output identifier of a recipe without a title.
const DefaultIdentifier = "recipe"

// Identifier derives the output identifier from the title verbatim.
// The result may contain characters that are unsafe in file names;
// pass it through SanitizeIdentifier before using it as one.
func (r *Recipe) Identifier() string {
	if r.Title == nil {
		return DefaultIdentifier
	}
	return DefaultIdentifier + "_" + *r.Title
}

// maxIdentifierLen keeps file names under common 255-byte limits once an
// extension is appended.
const maxIdentifierLen = 200

// SanitizeIdentifier maps characters that are unsafe in file names to '_'.
// Path separators, Windows reserved characters and control characters are
// replaced; leading and trailing spaces and dots are removed. The result is
// capped at 200 bytes on a rune boundary. Returns DefaultIdentifier if
// nothing usable remains.
func SanitizeIdentifier(id string) string {
	var b strings.Builder
	for _, r := range id {
		switch {
		case r == utf8.RuneError:
			b.WriteRune('_')
		case unicode.IsControl(r):
			b.WriteRune('_')
		case strings.ContainsRune(`/\:*?"<>|`, r):
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}

	s := strings.Trim(b.String(), " .")
	if len(s) > maxIdentifierLen {
		cut := maxIdentifierLen
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = strings.TrimRight(s[:cut], " .")
	}

	if s == "" || strings.Trim(s, "_") == "" {
		return DefaultIdentifier
	}
	return s
}

// RecipeExtractor builds a Recipe from page HTML using a site's selectors.
type RecipeExtractor interface {
	// Extract parses html once and applies every configured selector.
	// Field-level failures yield absent fields, never errors.
	// Returns EINVALID only if the HTML cannot be parsed.
	Extract(html string, selectors *SelectorSet, sourceURL string) (*Recipe, error)
}

// RecipeWriter persists a recipe record.
type RecipeWriter interface {
	// WriteRecipe stores the recipe and returns where it was written.
	WriteRecipe(ctx context.Context, recipe *Recipe) (string, error)
}

// SavedRecipe is a recipe recorded in the local recipe library.
type SavedRecipe struct {
	ID          string    `json:"id"`
	Site        SiteKey   `json:"site"`
	SourceURL   string    `json:"sourceUrl"`
	Recipe      Recipe    `json:"recipe"`
	ContentHash string    `json:"contentHash"`
	ScrapedAt   time.Time `json:"scrapedAt"`
}

// Validate returns an error if the saved recipe contains invalid fields.
func (s *SavedRecipe) Validate() error {
	if s.Site == "" {
		return Errorf(EINVALID, "recipe site required")
	}
	if s.SourceURL == "" {
		return Errorf(EINVALID, "recipe source URL required")
	}
	return nil
}

// RecipeService represents a service for managing the recipe library.
type RecipeService interface {
	// SaveRecipe records a scraped recipe. If a recipe with the same source
	// URL exists it is replaced, keeping its ID.
	SaveRecipe(ctx context.Context, saved *SavedRecipe) error

	// FindRecipeByID retrieves a recipe by ID.
	// Returns ENOTFOUND if the recipe does not exist.
	FindRecipeByID(ctx context.Context, id string) (*SavedRecipe, error)

	// FindRecipes retrieves recipes matching the filter, newest first.
	FindRecipes(ctx context.Context, filter RecipeFilter) ([]*SavedRecipe, error)

	// DeleteRecipe permanently removes a recipe.
	// Returns ENOTFOUND if the recipe does not exist.
	DeleteRecipe(ctx context.Context, id string) error
}

// RecipeFilter represents a filter for FindRecipes.
type RecipeFilter struct {
	ID        *string  `json:"id"`
	Site      *SiteKey `json:"site"`
	SourceURL *string  `json:"sourceUrl"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}
