package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/foodscraper"
	"github.com/fwojciec/foodscraper/goquery"
	"github.com/fwojciec/foodscraper/htmltomarkdown"
	fshttp "github.com/fwojciec/foodscraper/http"
	"github.com/fwojciec/foodscraper/scrape"
	fsslog "github.com/fwojciec/foodscraper/slog"
	"github.com/fwojciec/foodscraper/sqlite"
	"github.com/fwojciec/foodscraper/yaml"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Database path used unless --db or FOODSCRAPER_DB is given.
	DBPath string

	// Output directory used when scrape is called without --output.
	OutputDir string

	// SQLite database used by SQLite service implementations.
	DB *sqlite.DB

	// Supported origins. Empty means foodscraper.DefaultOrigins.
	Origins []foodscraper.Origin

	// Services for end-to-end testing. Nil fields get production defaults.
	Recipes     foodscraper.RecipeService
	Fetcher     foodscraper.Fetcher
	Sitemaps    foodscraper.SitemapService
	RetryDelays []time.Duration
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		DBPath:    defaultDBPath(),
		OutputDir: defaultOutputDir(),
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	// Initialize dependencies struct for Kong binding
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("foodscraper"),
		kong.Description("Scrape recipes from supported cooking sites"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
		kong.Vars{"db_path": m.DBPath},
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'foodscraper --help' to see available commands")
	}

	if args[0] == "help" || args[0] == "--help" || args[0] == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	cmd, _, _ := strings.Cut(kongCtx.Command(), " ")

	level := slog.LevelWarn
	if cli.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	deps.Logger = logger

	registry, err := loadRegistry(cli.Selectors)
	if err != nil {
		fmt.Fprintln(stderr, "Hint: Set FOODSCRAPER_SELECTORS or --selectors to a valid YAML selectors file")
		return fmt.Errorf("failed to load selectors: %w", err)
	}
	deps.Resolver = foodscraper.NewResolver(m.Origins...)
	deps.Selectors = fsslog.NewLoggingRegistry(registry, logger)

	httpFetcher := fshttp.NewFetcher(fshttp.WithTimeout(cli.Timeout))
	var fetcher foodscraper.Fetcher = httpFetcher
	if m.Fetcher != nil {
		fetcher = m.Fetcher
	}
	defer fetcher.Close()
	deps.Fetcher = fsslog.NewLoggingFetcher(fetcher, logger)

	extractor := goquery.NewExtractor()
	deps.Extractor = fsslog.NewLoggingExtractor(extractor, logger)
	deps.Inspector = extractor
	deps.Converter = htmltomarkdown.NewConverter()

	sitemaps := m.Sitemaps
	if sitemaps == nil {
		sitemaps = fshttp.NewSitemapService(httpFetcher.Client())
	}
	deps.Sitemaps = fsslog.NewLoggingSitemapService(sitemaps, logger)

	deps.RateLimiter = scrape.NewDomainLimiter(scrape.DefaultRequestsPerSecond)
	deps.RetryDelays = m.RetryDelays
	deps.OutputDir = m.OutputDir

	if needsLibrary(cmd, cli) {
		if m.Recipes == nil {
			m.DB = sqlite.NewDB(cli.DB)
			if err := m.DB.Open(); err != nil {
				fmt.Fprintln(stderr, "Hint: Set FOODSCRAPER_DB to use a different database path")
				return fmt.Errorf("failed to open database at %q: %w", cli.DB, err)
			}
			defer m.Close()
			m.Recipes = sqlite.NewRecipeService(m.DB)
		}
		deps.DB = m.DB
		deps.Recipes = m.Recipes
	}

	return kongCtx.Run(deps)
}

// needsLibrary reports whether a command reads or writes the recipe library.
func needsLibrary(cmd string, cli *CLI) bool {
	switch cmd {
	case "scrape":
		return !cli.Scrape.NoSave
	case "list", "show", "delete":
		return true
	}
	return false
}

func loadRegistry(path string) (foodscraper.SelectorRegistry, error) {
	if path == "" {
		return yaml.DefaultRegistry()
	}
	return yaml.LoadRegistry(path)
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "foodscraper.db"
	}
	return filepath.Join(home, ".foodscraper", "foodscraper.db")
}

// defaultOutputDir is the directory holding the executable, or "." if it
// cannot be determined.
func defaultOutputDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}
