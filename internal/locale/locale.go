// Package locale maps request paths to the language/country context the
// storefront queries and renders in.
package locale

import (
	"strings"

	"golang.org/x/text/language"

	"github.com/kleinod-atelier/storefront/internal/content"
)

// Locale is the language/country/path-prefix triple for a request
type Locale struct {
	Label      string
	Language   string
	Country    string
	PathPrefix string
}

// IsDefault reports whether the locale is served without a path prefix
func (l Locale) IsDefault() bool {
	return l.PathPrefix == ""
}

// Tag returns the BCP 47 tag used for lang and hreflang attributes, e.g. "de-DE"
func (l Locale) Tag() string {
	tag, err := language.Parse(strings.ToLower(l.Language) + "-" + l.Country)
	if err != nil {
		return strings.ToLower(l.Language)
	}
	return tag.String()
}

// Link prefixes an internal absolute path with the locale prefix
func (l Locale) Link(path string) string {
	if path == "" || path == "/" {
		if l.PathPrefix == "" {
			return "/"
		}
		return l.PathPrefix
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return l.PathPrefix + path
}

// Resolver resolves locales from a fixed, ordered set; the first entry is the default
type Resolver struct {
	locales []Locale
}

// NewResolver builds a resolver from the configured locales
func NewResolver(locales []content.Locale) *Resolver {
	r := &Resolver{}
	for _, l := range locales {
		r.locales = append(r.locales, Locale{
			Label:      l.Label,
			Language:   l.Language,
			Country:    l.Country,
			PathPrefix: l.Path,
		})
	}
	return r
}

// Default returns the locale used when no prefix is recognised
func (r *Resolver) Default() Locale {
	return r.locales[0]
}

// All returns every configured locale, default first
func (r *Resolver) All() []Locale {
	out := make([]Locale, len(r.locales))
	copy(out, r.locales)
	return out
}

// Prefixed returns the locales that own a path prefix
func (r *Resolver) Prefixed() []Locale {
	var out []Locale
	for _, l := range r.locales {
		if !l.IsDefault() {
			out = append(out, l)
		}
	}
	return out
}

// Resolve maps a request path to its locale. It never fails: any first segment
// that is not a configured prefix yields the default locale.
func (r *Resolver) Resolve(path string) Locale {
	if l, ok := r.match(firstSegment(path)); ok {
		return l
	}
	return r.Default()
}

// Strip removes a recognised locale prefix from path
func (r *Resolver) Strip(path string) string {
	seg := firstSegment(path)
	if _, ok := r.match(seg); !ok {
		if path == "" {
			return "/"
		}
		return path
	}
	rest := strings.TrimPrefix(strings.TrimPrefix(path, "/"), seg)
	if rest == "" {
		return "/"
	}
	return rest
}

// SwitchPath rewrites path (and its raw query) to the same page in target
func (r *Resolver) SwitchPath(path, rawQuery string, target Locale) string {
	out := target.Link(r.Strip(path))
	if rawQuery != "" {
		out += "?" + rawQuery
	}
	return out
}

// Alternate is a link to the current page in another locale
type Alternate struct {
	Locale Locale
	URL    string
}

// Alternates lists the current page in every locale other than current
func (r *Resolver) Alternates(path, rawQuery string, current Locale) []Alternate {
	var out []Alternate
	for _, l := range r.locales {
		if l.Language == current.Language {
			continue
		}
		out = append(out, Alternate{Locale: l, URL: r.SwitchPath(path, rawQuery, l)})
	}
	return out
}

func (r *Resolver) match(segment string) (Locale, bool) {
	if segment == "" {
		return Locale{}, false
	}
	for _, l := range r.locales {
		if !l.IsDefault() && l.PathPrefix == "/"+segment {
			return l, true
		}
	}
	return Locale{}, false
}

func firstSegment(path string) string {
	parts := strings.SplitN(strings.TrimPrefix(path, "/"), "/", 2)
	return parts[0]
}
