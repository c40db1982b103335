// Package goquery implements recipe extraction on top of goquery and
// cascadia CSS selectors.
package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/fwojciec/foodscraper"
	"golang.org/x/net/html"
)

// Document is a parsed page queried by the field extractors.
// It is never mutated after parsing and is safe for concurrent use.
type Document struct {
	doc *goquery.Document
}

// ParseDocument parses page HTML into a Document.
func ParseDocument(htmlText string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlText))
	if err != nil {
		return nil, foodscraper.Errorf(foodscraper.EINVALID, "failed to parse HTML: %v", err)
	}
	return &Document{doc: doc}, nil
}

// compile returns the matcher for a selector expression.
// Blank expressions are treated like invalid ones.
func compile(selector string) (cascadia.Selector, bool) {
	if strings.TrimSpace(selector) == "" {
		return nil, false
	}
	m, err := cascadia.Compile(selector)
	if err != nil {
		return nil, false
	}
	return m, true
}

// selectFirst returns the first node matching selector.
// The bool result is false if the selector is blank, does not compile,
// or matches nothing.
func (d *Document) selectFirst(selector string) (*goquery.Selection, bool) {
	m, ok := compile(selector)
	if !ok {
		return nil, false
	}
	sel := d.doc.FindMatcher(m).First()
	if sel.Length() == 0 {
		return nil, false
	}
	return sel, true
}

// Title returns the inner HTML of the first match, markup included.
func (d *Document) Title(selector string) *string {
	sel, ok := d.selectFirst(selector)
	if !ok {
		return nil
	}
	inner := innerHTML(sel.Get(0))
	return &inner
}

// Description returns the text of the first match with its text segments
// joined by single spaces and surrounding whitespace trimmed.
func (d *Document) Description(selector string) *string {
	sel, ok := d.selectFirst(selector)
	if !ok {
		return nil
	}
	text := strings.TrimSpace(strings.Join(textSegments(sel.Get(0)), " "))
	return &text
}

// Ingredients returns the non-empty trimmed lines of the first match's text
// segments in document order. A match without text yields an empty slice;
// no match yields nil.
func (d *Document) Ingredients(selector string) []string {
	return d.list(selector)
}

// Steps behaves like Ingredients.
func (d *Document) Steps(selector string) []string {
	return d.list(selector)
}

// Image returns the src attribute of the first match.
func (d *Document) Image(selector string) *string {
	sel, ok := d.selectFirst(selector)
	if !ok {
		return nil
	}
	src, exists := sel.Attr("src")
	if !exists {
		return nil
	}
	return &src
}

func (d *Document) list(selector string) []string {
	sel, ok := d.selectFirst(selector)
	if !ok {
		return nil
	}

	items := []string{}
	for _, segment := range textSegments(sel.Get(0)) {
		for line := range strings.SplitSeq(segment, "\n") {
			if item := strings.TrimSpace(line); item != "" {
				items = append(items, item)
			}
		}
	}
	return items
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "\u00a0", "&nbsp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "\u00a0", "&nbsp;", `"`, "&quot;")
)

// rawTextElements hold text that is serialized without escaping.
var rawTextElements = map[string]bool{
	"style": true, "script": true, "xmp": true, "iframe": true,
	"noembed": true, "noframes": true, "plaintext": true,
}

// voidElements have no closing tag.
var voidElements = map[string]bool{
	"area": true, "base": true, "basefont": true, "bgsound": true, "br": true,
	"col": true, "embed": true, "frame": true, "hr": true, "img": true,
	"input": true, "keygen": true, "link": true, "meta": true, "param": true,
	"source": true, "track": true, "wbr": true,
}

// innerHTML serializes the children of n the way browsers do. Text escapes
// only '&', '<', '>' and U+00A0, so quotes and apostrophes stay as written.
func innerHTML(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeNode(&b, c)
	}
	return b.String()
}

func writeNode(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		if n.Parent != nil && n.Parent.Type == html.ElementNode && rawTextElements[n.Parent.Data] {
			b.WriteString(n.Data)
			return
		}
		textEscaper.WriteString(b, n.Data)
	case html.ElementNode:
		b.WriteString("<")
		b.WriteString(n.Data)
		for _, a := range n.Attr {
			b.WriteString(" ")
			if a.Namespace != "" {
				b.WriteString(a.Namespace)
				b.WriteString(":")
			}
			b.WriteString(a.Key)
			b.WriteString(`="`)
			attrEscaper.WriteString(b, a.Val)
			b.WriteString(`"`)
		}
		b.WriteString(">")
		if voidElements[n.Data] {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			writeNode(b, c)
		}
		b.WriteString("</")
		b.WriteString(n.Data)
		b.WriteString(">")
	case html.CommentNode:
		b.WriteString("<!--")
		b.WriteString(n.Data)
		b.WriteString("-->")
	}
}

// textSegments returns the data of every descendant text node in document
// order.
func textSegments(n *html.Node) []string {
	var segments []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			segments = append(segments, n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return segments
}

// Recipe applies every configured selector and assembles the record.
// Fields without a selector are left absent without querying the document.
func (d *Document) Recipe(selectors *foodscraper.SelectorSet, sourceURL string) *foodscraper.Recipe {
	recipe := &foodscraper.Recipe{SourceURL: sourceURL}

	if sel, ok := selectors.Selector(foodscraper.FieldTitle); ok {
		recipe.Title = d.Title(sel)
	}
	if sel, ok := selectors.Selector(foodscraper.FieldDescription); ok {
		recipe.Description = d.Description(sel)
	}
	if sel, ok := selectors.Selector(foodscraper.FieldIngredients); ok {
		recipe.Ingredients = d.Ingredients(sel)
	}
	if sel, ok := selectors.Selector(foodscraper.FieldSteps); ok {
		recipe.Steps = d.Steps(sel)
	}
	if sel, ok := selectors.Selector(foodscraper.FieldImage); ok {
		recipe.ImageLink = d.Image(sel)
	}

	return recipe
}

// Inspect reports how each field's selector fares against the document.
func (d *Document) Inspect(selectors *foodscraper.SelectorSet) []foodscraper.FieldReport {
	reports := make([]foodscraper.FieldReport, 0, len(foodscraper.Fields()))
	for _, field := range foodscraper.Fields() {
		report := foodscraper.FieldReport{Field: field}

		expr, ok := selectors.Selector(field)
		if !ok {
			report.Status = foodscraper.StatusNotConfigured
			reports = append(reports, report)
			continue
		}
		report.Selector = expr

		m, ok := compile(expr)
		if !ok {
			report.Status = foodscraper.StatusInvalidSelector
			reports = append(reports, report)
			continue
		}

		report.Matches = d.doc.FindMatcher(m).Length()
		if report.Matches == 0 {
			report.Status = foodscraper.StatusNoMatch
		} else {
			report.Status = foodscraper.StatusMatched
		}
		reports = append(reports, report)
	}
	return reports
}
