// Package yaml loads site selector configuration from YAML documents.
package yaml

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/fwojciec/foodscraper"
	"gopkg.in/yaml.v3"
)

//go:embed selectors.yaml
var defaultSelectors string

// Ensure Registry implements foodscraper.SelectorRegistry at compile time.
var _ foodscraper.SelectorRegistry = (*Registry)(nil)

// Registry is an immutable, in-memory selector registry.
type Registry struct {
	sites map[foodscraper.SiteKey]*foodscraper.SelectorSet
}

// DefaultRegistry returns the registry built from the embedded selectors.
func DefaultRegistry() (*Registry, error) {
	return ParseRegistry(strings.NewReader(defaultSelectors))
}

// LoadRegistry reads a selector file from disk.
func LoadRegistry(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open selector file: %w", err)
	}
	defer f.Close()

	return ParseRegistry(f)
}

// ParseRegistry reads a YAML mapping of site key to field selectors.
//
// Site keys are lowercased. A field that is missing or null stays
// unconfigured. Returns EINVALID if the document is malformed, names an
// unknown field, or holds a non-string selector.
func ParseRegistry(r io.Reader) (*Registry, error) {
	var root yaml.Node
	if err := yaml.NewDecoder(r).Decode(&root); err != nil {
		if err == io.EOF {
			return &Registry{sites: map[foodscraper.SiteKey]*foodscraper.SelectorSet{}}, nil
		}
		return nil, foodscraper.Errorf(foodscraper.EINVALID, "malformed selector configuration: %v", err)
	}

	reg := &Registry{sites: make(map[foodscraper.SiteKey]*foodscraper.SelectorSet)}

	doc := &root
	if doc.Kind == yaml.DocumentNode {
		if len(doc.Content) == 0 {
			return reg, nil
		}
		doc = doc.Content[0]
	}
	if doc.Kind == yaml.ScalarNode && doc.ShortTag() == "!!null" {
		return reg, nil
	}
	if doc.Kind != yaml.MappingNode {
		return nil, foodscraper.Errorf(foodscraper.EINVALID, "selector configuration must be a mapping of sites (line %d)", doc.Line)
	}

	for i := 0; i+1 < len(doc.Content); i += 2 {
		keyNode, valueNode := doc.Content[i], doc.Content[i+1]
		key := foodscraper.SiteKey(strings.ToLower(strings.TrimSpace(keyNode.Value)))
		if key == "" {
			return nil, foodscraper.Errorf(foodscraper.EINVALID, "empty site key (line %d)", keyNode.Line)
		}
		if _, dup := reg.sites[key]; dup {
			return nil, foodscraper.Errorf(foodscraper.EINVALID, "duplicate site %q (line %d)", key, keyNode.Line)
		}

		set, err := parseSelectorSet(key, valueNode)
		if err != nil {
			return nil, err
		}
		reg.sites[key] = set
	}

	return reg, nil
}

func parseSelectorSet(key foodscraper.SiteKey, node *yaml.Node) (*foodscraper.SelectorSet, error) {
	set := &foodscraper.SelectorSet{}
	if node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null" {
		return set, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, foodscraper.Errorf(foodscraper.EINVALID, "site %q: selectors must be a mapping (line %d)", key, node.Line)
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		fieldNode, valueNode := node.Content[i], node.Content[i+1]
		field := foodscraper.Field(fieldNode.Value)

		var dst **string
		switch field {
		case foodscraper.FieldTitle:
			dst = &set.Title
		case foodscraper.FieldDescription:
			dst = &set.Description
		case foodscraper.FieldIngredients:
			dst = &set.Ingredients
		case foodscraper.FieldSteps:
			dst = &set.Steps
		case foodscraper.FieldImage:
			dst = &set.Image
		default:
			return nil, foodscraper.Errorf(foodscraper.EINVALID, "site %q: unknown field %q (line %d)", key, fieldNode.Value, fieldNode.Line)
		}

		if valueNode.Kind == yaml.ScalarNode && valueNode.ShortTag() == "!!null" {
			continue
		}
		if valueNode.Kind != yaml.ScalarNode || valueNode.ShortTag() != "!!str" {
			return nil, foodscraper.Errorf(foodscraper.EINVALID, "site %q: field %q must be a string selector (line %d)", key, field, valueNode.Line)
		}
		selector := valueNode.Value
		*dst = &selector
	}

	return set, nil
}

// Lookup returns the selectors configured for a site.
// Returns ENOTCONFIGURED if the site has no entry.
func (r *Registry) Lookup(key foodscraper.SiteKey) (*foodscraper.SelectorSet, error) {
	set, ok := r.sites[key]
	if !ok {
		return nil, foodscraper.Errorf(foodscraper.ENOTCONFIGURED, "no selectors configured for site: %s", key)
	}
	return set, nil
}

// Sites returns the configured site keys in sorted order.
func (r *Registry) Sites() []foodscraper.SiteKey {
	keys := make([]foodscraper.SiteKey, 0, len(r.sites))
	for k := range r.sites {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
