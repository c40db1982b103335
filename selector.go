package foodscraper

// Field names one of the five recipe fields extracted from a page.
type Field string

// Recipe fields in output order.
const (
	FieldTitle       Field = "title"
	FieldDescription Field = "description"
	FieldIngredients Field = "ingredients"
	FieldSteps       Field = "steps"
	FieldImage       Field = "image"
)

// Fields returns all recipe fields in output order.
func Fields() []Field {
	return []Field{FieldTitle, FieldDescription, FieldIngredients, FieldSteps, FieldImage}
}

// SelectorSet holds the CSS selectors configured for one site.
//
// A nil selector means the field is not configured for the site. A non-nil
// selector may still be empty or syntactically invalid; validity is only
// checked when the selector is applied to a document.
type SelectorSet struct {
	Title       *string
	Description *string
	Ingredients *string
	Steps       *string
	Image       *string
}

// Selector returns the selector for a field.
// The bool result is false if the field is not configured.
func (s *SelectorSet) Selector(field Field) (string, bool) {
	if s == nil {
		return "", false
	}

	var sel *string
	switch field {
	case FieldTitle:
		sel = s.Title
	case FieldDescription:
		sel = s.Description
	case FieldIngredients:
		sel = s.Ingredients
	case FieldSteps:
		sel = s.Steps
	case FieldImage:
		sel = s.Image
	}

	if sel == nil {
		return "", false
	}
	return *sel, true
}

// Unconfigured returns the fields that have no selector, in output order.
func (s *SelectorSet) Unconfigured() []Field {
	var fields []Field
	for _, f := range Fields() {
		if _, ok := s.Selector(f); !ok {
			fields = append(fields, f)
		}
	}
	return fields
}

// SelectorRegistry provides the selector sets of configured sites.
type SelectorRegistry interface {
	// Lookup returns the selectors configured for a site.
	// Fields missing from the configuration are left nil.
	// Returns ENOTCONFIGURED if the site has no entry at all.
	Lookup(key SiteKey) (*SelectorSet, error)

	// Sites returns the configured site keys in sorted order.
	Sites() []SiteKey
}

// FieldStatus describes how a configured selector fared against a page.
type FieldStatus string

// Field statuses reported by a SelectorInspector.
const (
	StatusNotConfigured   FieldStatus = "not configured"
	StatusInvalidSelector FieldStatus = "invalid selector"
	StatusNoMatch         FieldStatus = "no match"
	StatusMatched         FieldStatus = "matched"
)

// FieldReport is the outcome of applying one field's selector to a page.
type FieldReport struct {
	Field    Field
	Selector string
	Status   FieldStatus
	Matches  int
}

// SelectorInspector reports, per field, why a selector did or did not yield
// a value. Recipes only expose absence; inspection tells the causes apart.
type SelectorInspector interface {
	// Inspect parses html once and reports on every field in output order.
	// Returns EINVALID only if the HTML cannot be parsed.
	Inspect(html string, selectors *SelectorSet) ([]FieldReport, error)
}
