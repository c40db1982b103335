package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/foodscraper"
	"github.com/fwojciec/foodscraper/sqlite"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger

	DB        *sqlite.DB
	Recipes   foodscraper.RecipeService
	Resolver  *foodscraper.Resolver
	Selectors foodscraper.SelectorRegistry
	Fetcher   foodscraper.Fetcher
	Extractor foodscraper.RecipeExtractor
	Inspector foodscraper.SelectorInspector
	Converter foodscraper.Converter
	Sitemaps  foodscraper.SitemapService

	RateLimiter foodscraper.DomainLimiter
	RetryDelays []time.Duration
	OutputDir   string
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Verbose   bool          `short:"v" help:"Log every extracted field"`
	DB        string        `name:"db" env:"FOODSCRAPER_DB" default:"${db_path}" help:"Recipe library database path"`
	Selectors string        `short:"s" env:"FOODSCRAPER_SELECTORS" help:"YAML selectors file (default: built-in selectors)"`
	Timeout   time.Duration `default:"10s" help:"Fetch timeout per page"`

	Scrape   ScrapeCmd   `cmd:"" help:"Scrape recipe pages into files and the library"`
	Sites    SitesCmd    `cmd:"" help:"List supported sites and their configured fields"`
	Check    CheckCmd    `cmd:"" help:"Report how each selector fares against a page"`
	Discover DiscoverCmd `cmd:"" help:"List recipe URLs from a site's sitemap"`
	List     ListCmd     `cmd:"" help:"List recipes in the library"`
	Show     ShowCmd     `cmd:"" help:"Show a recipe from the library"`
	Delete   DeleteCmd   `cmd:"" help:"Delete a recipe from the library"`
}

// ScrapeCmd is the "scrape" subcommand.
type ScrapeCmd struct {
	URLs        []string `arg:"" name:"url" help:"Recipe page URLs"`
	Output      string   `short:"o" help:"Output directory (default: the executable's directory)"`
	Format      string   `short:"f" default:"json" help:"Output format: json or markdown"`
	Concurrency int      `short:"c" default:"3" help:"Concurrent scrape limit"`
	NoSave      bool     `help:"Do not record recipes in the library"`
}

// SitesCmd is the "sites" subcommand.
type SitesCmd struct{}

// CheckCmd is the "check" subcommand.
type CheckCmd struct {
	URL string `arg:"" help:"Recipe page URL"`
}

// DiscoverCmd is the "discover" subcommand.
type DiscoverCmd struct {
	SiteURL string `arg:"" name:"site-url" help:"Supported site URL, e.g. https://15gram.be/"`
	Limit   int    `short:"n" help:"Maximum number of URLs to print (0 for all)"`
}

// ListCmd is the "list" subcommand.
type ListCmd struct {
	Site  string `help:"Only list recipes from this site key"`
	Limit int    `short:"n" help:"Maximum number of recipes (0 for all)"`
}

// ShowCmd is the "show" subcommand.
type ShowCmd struct {
	ID     string `arg:"" help:"Recipe ID"`
	Format string `short:"f" default:"json" help:"Output format: json or markdown"`
}

// DeleteCmd is the "delete" subcommand.
type DeleteCmd struct {
	ID    string `arg:"" help:"Recipe ID"`
	Force bool   `help:"Confirm deletion"`
}

// errorText is the message printed for a failed operation. Application
// errors print their message; anything else prints in full.
func errorText(err error) string {
	if foodscraper.ErrorCode(err) == foodscraper.EINTERNAL {
		return err.Error()
	}
	return foodscraper.ErrorMessage(err)
}
