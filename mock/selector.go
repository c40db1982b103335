package mock

import "github.com/fwojciec/foodscraper"

var _ foodscraper.SelectorRegistry = (*SelectorRegistry)(nil)

// SelectorRegistry is a mock implementation of foodscraper.SelectorRegistry.
type SelectorRegistry struct {
	LookupFn func(key foodscraper.SiteKey) (*foodscraper.SelectorSet, error)
	SitesFn  func() []foodscraper.SiteKey
}

func (r *SelectorRegistry) Lookup(key foodscraper.SiteKey) (*foodscraper.SelectorSet, error) {
	return r.LookupFn(key)
}

func (r *SelectorRegistry) Sites() []foodscraper.SiteKey {
	return r.SitesFn()
}

var _ foodscraper.SelectorInspector = (*SelectorInspector)(nil)

// SelectorInspector is a mock implementation of foodscraper.SelectorInspector.
type SelectorInspector struct {
	InspectFn func(html string, selectors *foodscraper.SelectorSet) ([]foodscraper.FieldReport, error)
}

func (i *SelectorInspector) Inspect(html string, selectors *foodscraper.SelectorSet) ([]foodscraper.FieldReport, error) {
	return i.InspectFn(html, selectors)
}
