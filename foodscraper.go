// Package foodscraper provides a CLI-based recipe scraper. It fetches a
// recipe page from a supported site, extracts the title, description,
// ingredients, steps and image using the CSS selectors configured for that
// site, and writes the result as a structured record.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., goquery/, sqlite/, yaml/).
package foodscraper
