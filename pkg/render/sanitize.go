package render

import (
	"html"
	"net/url"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// URLSchemes are the schemes a link or image URL may use. Relative URLs
// are always allowed.
var URLSchemes = []string{"http", "https", "mailto", "tel", "ftp", "ftps"}

var (
	blurbPolicyOnce sync.Once
	blurbPolicy     *bluemonday.Policy
)

// BlurbPolicy returns the sanitizer policy applied to blurb HTML: bold,
// italic, line breaks and links, nothing else. The policy is shared and
// safe for concurrent use.
func BlurbPolicy() *bluemonday.Policy {
	blurbPolicyOnce.Do(func() {
		p := bluemonday.NewPolicy()
		p.AllowElements("b", "strong", "i", "em", "br")
		p.AllowAttrs("href").OnElements("a")
		p.AllowAttrs("target").Matching(regexp.MustCompile(`^_blank$`)).OnElements("a")
		p.AllowAttrs("rel").Matching(regexp.MustCompile(`^[a-z ]+$`)).OnElements("a")
		p.RequireParseableURLs(true)
		p.AllowRelativeURLs(true)
		p.AllowURLSchemes(URLSchemes...)
		blurbPolicy = p
	})
	return blurbPolicy
}

// SanitizeBlurb strips every tag outside the blurb policy. Script and
// style contents are dropped entirely.
func SanitizeBlurb(s string) string {
	if s == "" {
		return ""
	}
	return BlurbPolicy().Sanitize(s)
}

// SafeURL returns raw as a URL fit for an href or src attribute, or "" when
// raw is empty, unparseable or uses a scheme outside URLSchemes.
func SafeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if u.Scheme != "" && !slices.Contains(URLSchemes, u.Scheme) {
		return ""
	}
	return u.String()
}

// PlainText prepares stored inline text for plain-text output. Editors
// store rich inline text entity-encoded, so entities are decoded once here
// and the template escapes the result exactly once.
func PlainText(s string) string {
	return html.UnescapeString(s)
}
