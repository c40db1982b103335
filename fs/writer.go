// Package fs writes recipe records to the local file system.
package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fwojciec/foodscraper"
)

// Format is an output file format.
type Format string

// Supported output formats.
const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// Ext returns the file extension for the format, including the dot.
func (f Format) Ext() string {
	if f == FormatMarkdown {
		return ".md"
	}
	return ".json"
}

// ParseFormat returns the Format named by s.
// Returns EINVALID for unknown formats.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatJSON, "":
		return FormatJSON, nil
	case FormatMarkdown, "md":
		return FormatMarkdown, nil
	}
	return "", foodscraper.Errorf(foodscraper.EINVALID, "unknown output format: %q", s)
}

// Ensure RecipeWriter implements foodscraper.RecipeWriter at compile time.
var _ foodscraper.RecipeWriter = (*RecipeWriter)(nil)

// RecipeWriter writes each recipe to its own file in a directory.
// Files are named after the sanitized recipe identifier; an existing file
// with the same name is replaced.
type RecipeWriter struct {
	dir       string
	format    Format
	converter foodscraper.Converter
}

// Option configures a RecipeWriter.
type Option func(*RecipeWriter)

// WithFormat sets the output format. Defaults to FormatJSON.
func WithFormat(f Format) Option {
	return func(w *RecipeWriter) {
		w.format = f
	}
}

// WithConverter sets the converter used to render HTML titles in Markdown
// output. Without one, titles are written as extracted.
func WithConverter(c foodscraper.Converter) Option {
	return func(w *RecipeWriter) {
		w.converter = c
	}
}

// NewRecipeWriter creates a RecipeWriter for the given directory.
func NewRecipeWriter(dir string, opts ...Option) *RecipeWriter {
	w := &RecipeWriter{dir: dir, format: FormatJSON}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Dir returns the output directory.
func (w *RecipeWriter) Dir() string {
	return w.dir
}

// WriteRecipe writes the recipe and returns the path of the file.
// The file is written to a temporary name and renamed into place.
func (w *RecipeWriter) WriteRecipe(ctx context.Context, recipe *foodscraper.Recipe) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var data []byte
	switch w.format {
	case FormatMarkdown:
		data = []byte(FormatRecipe(recipe, w.converter))
	default:
		var err error
		if data, err = MarshalRecipe(recipe); err != nil {
			return "", err
		}
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	name := foodscraper.SanitizeIdentifier(recipe.Identifier()) + w.format.Ext()
	path := filepath.Join(w.dir, name)
	if err := writeFileAtomic(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// MarshalRecipe encodes a recipe as JSON indented by two spaces.
// HTML in field values is kept as is.
func MarshalRecipe(recipe *foodscraper.Recipe) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(recipe); err != nil {
		return nil, fmt.Errorf("encoding recipe: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// FormatRecipe renders a recipe as a Markdown document. Absent fields are
// left out.
func FormatRecipe(recipe *foodscraper.Recipe, conv foodscraper.Converter) string {
	title := "Untitled recipe"
	if recipe.Title != nil {
		title = *recipe.Title
		if conv != nil {
			if md, err := conv.Convert(*recipe.Title); err == nil && md != "" {
				title = md
			}
		}
	}

	var b strings.Builder
	b.WriteString("# ")
	b.WriteString(title)
	b.WriteString("\n")

	if recipe.Description != nil && *recipe.Description != "" {
		b.WriteString("\n")
		b.WriteString(*recipe.Description)
		b.WriteString("\n")
	}

	if recipe.ImageLink != nil && *recipe.ImageLink != "" {
		fmt.Fprintf(&b, "\n![%s](%s)\n", title, *recipe.ImageLink)
	}

	if len(recipe.Ingredients) > 0 {
		b.WriteString("\n## Ingredients\n\n")
		for _, item := range recipe.Ingredients {
			fmt.Fprintf(&b, "- %s\n", item)
		}
	}

	if len(recipe.Steps) > 0 {
		b.WriteString("\n## Steps\n\n")
		for i, step := range recipe.Steps {
			fmt.Fprintf(&b, "%d. %s\n", i+1, step)
		}
	}

	fmt.Fprintf(&b, "\nSource: <%s>\n", strings.TrimSpace(recipe.SourceURL))
	return b.String()
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing recipe: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("writing recipe: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming recipe file: %w", err)
	}
	return nil
}
