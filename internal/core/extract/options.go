// Package extract reads course stubs and course details out of rendered
// catalog HTML. Extraction degrades instead of failing: a field that cannot
// be found is left nil.
package extract

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"coursecrawler/internal/config"
)

const (
	maxListTitle    = 200
	maxTitle        = 500
	maxDescription  = 5000
	maxPrerequisite = 2000

	minTitle        = 3
	minDescription  = 20
	minPrerequisite = 10
)

// codePattern is a course code such as "EECS 280".
var codePattern = regexp.MustCompile(`\b([A-Z]{2,6})\s+(\d{3,4})\b`)

type Options struct {
	DetailLinkPattern string

	TitleSelectors        []string
	DescriptionSelectors  []string
	PrerequisiteSelectors []string
	DescriptionLabels     []string
	PrerequisiteLabels    []string
}

func NewOptions(c config.Catalog) Options {
	return Options{
		DetailLinkPattern:     c.DetailLinkPattern,
		TitleSelectors:        c.Selectors.DetailTitle,
		DescriptionSelectors:  c.Selectors.DetailDesc,
		PrerequisiteSelectors: c.Selectors.DetailPrereq,
		DescriptionLabels:     c.Selectors.DescLabels,
		PrerequisiteLabels:    c.Selectors.PrereqLabels,
	}
}

func clean(s string) string { return strings.Join(strings.Fields(s), " ") }

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n]))
}

// resolve turns href into an absolute URL against base. Unresolvable
// relative links yield "".
func resolve(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base == nil {
		if ref.IsAbs() {
			return ref.String()
		}
		return ""
	}
	return base.ResolveReference(ref).String()
}
