package main

import (
	"fmt"
	"strings"

	"github.com/fwojciec/foodscraper"
)

// Run executes the sites command.
func (c *SitesCmd) Run(deps *Dependencies) error {
	for _, o := range deps.Resolver.Origins() {
		selectors, err := deps.Selectors.Lookup(o.Key)
		if foodscraper.ErrorCode(err) == foodscraper.ENOTCONFIGURED {
			fmt.Fprintf(deps.Stdout, "%s  %s  no selectors\n", o.Key, o.Prefix())
			continue
		} else if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", errorText(err))
			return err
		}
		fmt.Fprintf(deps.Stdout, "%s  %s  %s\n", o.Key, o.Prefix(), fieldMarkers(selectors))
	}
	return nil
}

// fieldMarkers lists every field, prefixing unconfigured ones with '-'.
func fieldMarkers(selectors *foodscraper.SelectorSet) string {
	markers := make([]string, 0, len(foodscraper.Fields()))
	for _, f := range foodscraper.Fields() {
		if _, ok := selectors.Selector(f); ok {
			markers = append(markers, string(f))
		} else {
			markers = append(markers, "-"+string(f))
		}
	}
	return strings.Join(markers, " ")
}
