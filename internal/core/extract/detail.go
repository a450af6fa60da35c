package extract

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"coursecrawler/internal/core/catalog"

	"github.com/PuerkitoBio/goquery"
)

var (
	creditRangePattern  = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:to|-|–)\s*(\d+(?:\.\d+)?)\s+credits?\b`)
	creditSinglePattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s+credits?\b`)
	prereqLinePattern   = regexp.MustCompile(`(?i)prerequisites?\s*:\s*(.+)`)
)

// labelSelector lists elements that commonly hold a field label whose value
// sits in the next sibling.
const labelSelector = "th, td, dt, strong, b, label, span"

// strategy yields candidate texts in preference order.
type strategy func(doc *goquery.Document) []string

// Course extracts a course detail page. It never fails: fields it cannot
// find are nil and Title is empty.
func Course(html, pageURL, subject, number string, opts Options) catalog.CourseDetail {
	d := catalog.CourseDetail{SubjectCode: subject, CourseNumber: number}
	if pageURL != "" {
		u := pageURL
		d.SourceURL = &u
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return d
	}

	if t := firstText(doc, minTitle, maxTitle, bySelectors(opts.TitleSelectors)); t != nil {
		d.Title = *t
	}
	d.Description = firstText(doc, minDescription, maxDescription,
		bySelectors(opts.DescriptionSelectors),
		byLabels(opts.DescriptionLabels),
	)
	d.PrerequisiteText = firstText(doc, minPrerequisite, maxPrerequisite,
		bySelectors(opts.PrerequisiteSelectors),
		byLabels(opts.PrerequisiteLabels),
		byPrerequisiteLine,
	)
	d.CreditMin, d.CreditMax = Credits(clean(doc.Find("body").Text()))
	return d
}

func firstText(doc *goquery.Document, min, max int, strategies ...strategy) *string {
	for _, s := range strategies {
		for _, text := range s(doc) {
			if utf8.RuneCountInString(text) >= min {
				out := truncate(text, max)
				return &out
			}
		}
	}
	return nil
}

func bySelectors(selectors []string) strategy {
	return func(doc *goquery.Document) []string {
		var out []string
		for _, sel := range selectors {
			doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
				if t := clean(s.Text()); t != "" {
					out = append(out, t)
				}
			})
		}
		return out
	}
}

// byLabels finds "label followed by value" layouts: dt/dd pairs, th/td
// cells, and bold or label elements followed by text.
func byLabels(labels []string) strategy {
	return func(doc *goquery.Document) []string {
		var out []string
		for _, label := range labels {
			doc.Find(labelSelector).Each(func(_ int, s *goquery.Selection) {
				own := clean(s.Text())
				if !matchesLabel(own, label) {
					return
				}
				if v := clean(s.Next().Text()); v != "" {
					out = append(out, v)
					return
				}
				parent := clean(s.Parent().Text())
				if rest := strings.TrimSpace(strings.TrimPrefix(parent, own)); rest != "" && rest != parent {
					out = append(out, strings.TrimLeft(rest, ": "))
				}
			})
		}
		return out
	}
}

func matchesLabel(text, label string) bool {
	text = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), ":"))
	return text != "" && strings.EqualFold(text, label)
}

func byPrerequisiteLine(doc *goquery.Document) []string {
	var out []string
	for _, line := range strings.Split(doc.Find("body").Text(), "\n") {
		if m := prereqLinePattern.FindStringSubmatch(line); m != nil {
			if t := clean(m[1]); t != "" {
				out = append(out, t)
			}
		}
	}
	return out
}

// Credits reads a credit range ("3 to 4 credits", "1-3 credits") or a single
// value ("4 credits") from page text. A single value is both bounds.
func Credits(text string) (*float64, *float64) {
	if m := creditRangePattern.FindStringSubmatch(text); m != nil {
		lo, err1 := strconv.ParseFloat(m[1], 64)
		hi, err2 := strconv.ParseFloat(m[2], 64)
		if err1 == nil && err2 == nil {
			if hi < lo {
				lo, hi = hi, lo
			}
			return &lo, &hi
		}
	}
	if m := creditSinglePattern.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			lo, hi := v, v
			return &lo, &hi
		}
	}
	return nil, nil
}
