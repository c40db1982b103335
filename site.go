package foodscraper

import (
	"net/url"
	"strings"
)

// SiteKey identifies a supported recipe site. It is the lowercase first
// label of the site's host, e.g. "dagelijksekost" for dagelijksekost.vrt.be.
type SiteKey string

// Origin is one row of the supported-site allow-list.
type Origin struct {
	Key    SiteKey
	Scheme string
	Host   string
}

// Prefix returns the literal prefix a URL must start with to belong to the
// origin, e.g. "https://15gram.be/".
func (o Origin) Prefix() string {
	return o.Scheme + "://" + o.Host + "/"
}

// DefaultOrigins lists the recipe sites supported out of the box.
var DefaultOrigins = []Origin{
	{Key: "15gram", Scheme: "https", Host: "15gram.be"},
	{Key: "dagelijksekost", Scheme: "https", Host: "dagelijksekost.vrt.be"},
}

// ParseURL parses a raw URL after trimming surrounding whitespace.
// Returns EINVALIDURL if the input has no scheme or no host.
func ParseURL(rawURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return nil, Errorf(EINVALIDURL, "invalid URL: empty input")
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, Errorf(EINVALIDURL, "invalid URL %q", trimmed)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, Errorf(EINVALIDURL, "invalid URL %q: scheme and host required", trimmed)
	}
	return u, nil
}

// SiteKeyFromURL derives the site key from a URL's host by taking its first
// dot-separated label. It does not check the allow-list.
func SiteKeyFromURL(rawURL string) (SiteKey, error) {
	u, err := ParseURL(rawURL)
	if err != nil {
		return "", err
	}
	label, _, _ := strings.Cut(u.Hostname(), ".")
	if label == "" {
		return "", Errorf(EINVALIDURL, "invalid URL %q: empty host label", strings.TrimSpace(rawURL))
	}
	return SiteKey(strings.ToLower(label)), nil
}

// Resolver maps recipe URLs to site keys and rejects URLs outside its
// allow-list. A Resolver is immutable and safe for concurrent use.
type Resolver struct {
	origins []Origin
}

// NewResolver returns a Resolver for the given origins.
// With no origins it uses DefaultOrigins.
func NewResolver(origins ...Origin) *Resolver {
	if len(origins) == 0 {
		origins = DefaultOrigins
	}
	return &Resolver{origins: append([]Origin(nil), origins...)}
}

// Origins returns a copy of the resolver's allow-list.
func (r *Resolver) Origins() []Origin {
	return append([]Origin(nil), r.origins...)
}

// Resolve returns the site key for a supported recipe URL.
//
// A URL is supported when the trimmed input starts byte-for-byte with an
// origin's prefix and its parsed scheme and host equal the origin's. Same-host
// URLs using another scheme, letter case or no trailing slash are rejected.
// Returns EINVALIDURL for malformed input and EUNSUPPORTED otherwise.
func (r *Resolver) Resolve(rawURL string) (SiteKey, error) {
	u, err := ParseURL(rawURL)
	if err != nil {
		return "", err
	}

	trimmed := strings.TrimSpace(rawURL)
	if _, ok := r.match(trimmed, u); !ok {
		return "", Errorf(EUNSUPPORTED, "unsupported domain: %s", trimmed)
	}

	return SiteKeyFromURL(trimmed)
}

// Supported reports whether the URL belongs to an allow-listed origin.
func (r *Resolver) Supported(rawURL string) bool {
	_, err := r.Resolve(rawURL)
	return err == nil
}

func (r *Resolver) match(trimmed string, u *url.URL) (Origin, bool) {
	for _, o := range r.origins {
		if !strings.HasPrefix(trimmed, o.Prefix()) {
			continue
		}
		if u.Scheme == o.Scheme && u.Host == o.Host {
			return o, true
		}
	}
	return Origin{}, false
}
