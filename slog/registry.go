package slog

import (
	"log/slog"

	"github.com/fwojciec/foodscraper"
)

// Ensure LoggingRegistry implements foodscraper.SelectorRegistry.
var _ foodscraper.SelectorRegistry = (*LoggingRegistry)(nil)

// LoggingRegistry wraps a SelectorRegistry with logging of lookups.
type LoggingRegistry struct {
	next   foodscraper.SelectorRegistry
	logger *slog.Logger
}

// NewLoggingRegistry creates a new LoggingRegistry.
func NewLoggingRegistry(next foodscraper.SelectorRegistry, logger *slog.Logger) *LoggingRegistry {
	return &LoggingRegistry{next: next, logger: logger}
}

// Lookup delegates to the wrapped registry and logs whether the site is
// configured and which fields lack a selector.
func (r *LoggingRegistry) Lookup(key foodscraper.SiteKey) (*foodscraper.SelectorSet, error) {
	set, err := r.next.Lookup(key)
	var unconfigured []foodscraper.Field
	if set != nil {
		unconfigured = set.Unconfigured()
	}
	r.logger.Info("selector lookup",
		"site", string(key),
		"configured", err == nil,
		"unconfigured", unconfigured,
	)
	return set, err
}

// Sites delegates to the wrapped registry.
func (r *LoggingRegistry) Sites() []foodscraper.SiteKey {
	return r.next.Sites()
}
