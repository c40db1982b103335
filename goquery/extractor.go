package goquery

import "github.com/fwojciec/foodscraper"

// Compile-time interface verification.
var (
	_ foodscraper.RecipeExtractor   = (*Extractor)(nil)
	_ foodscraper.SelectorInspector = (*Extractor)(nil)
)

// Extractor builds recipes from page HTML.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract parses the page once and assembles a Recipe from it.
func (e *Extractor) Extract(html string, selectors *foodscraper.SelectorSet, sourceURL string) (*foodscraper.Recipe, error) {
	doc, err := ParseDocument(html)
	if err != nil {
		return nil, err
	}
	return doc.Recipe(selectors, sourceURL), nil
}

// Inspect parses the page once and reports on every field's selector.
func (e *Extractor) Inspect(html string, selectors *foodscraper.SelectorSet) ([]foodscraper.FieldReport, error) {
	doc, err := ParseDocument(html)
	if err != nil {
		return nil, err
	}
	return doc.Inspect(selectors), nil
}
