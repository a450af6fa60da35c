package extract

import (
	"fmt"
	"net/url"
	"strings"

	"coursecrawler/internal/core/catalog"

	"github.com/PuerkitoBio/goquery"
)

const rowSelector = "tr, [role=row]"

// Courses extracts course stubs from a search results page. Table-like rows
// are scanned first, then detail links; the first item seen for a
// subject+number wins.
func Courses(html, pageURL string, opts Options) ([]catalog.CourseListItem, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse results page: %w", err)
	}
	base, _ := url.Parse(pageURL)
	if base != nil && !base.IsAbs() {
		base = nil
	}

	seen := make(map[string]struct{})
	items := make([]catalog.CourseListItem, 0)
	add := func(it catalog.CourseListItem) {
		if _, dup := seen[it.Key()]; dup {
			return
		}
		seen[it.Key()] = struct{}{}
		items = append(items, it)
	}

	for _, it := range rowPass(doc, base, opts) {
		add(it)
	}
	for _, it := range linkPass(doc, base, opts) {
		add(it)
	}
	return items, nil
}

func rowPass(doc *goquery.Document, base *url.URL, opts Options) []catalog.CourseListItem {
	var out []catalog.CourseListItem
	doc.Find(rowSelector).Each(func(_ int, row *goquery.Selection) {
		if row.Find(rowSelector).Length() > 0 {
			return
		}
		it, ok := rowItem(row)
		if !ok {
			return
		}
		row.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
			href, _ := a.Attr("href")
			if !isDetailLink(href, opts.DetailLinkPattern) {
				return true
			}
			if abs := resolve(base, href); abs != "" {
				it.DetailURL = &abs
				return false
			}
			return true
		})
		out = append(out, it)
	})
	return out
}

func linkPass(doc *goquery.Document, base *url.URL, opts Options) []catalog.CourseListItem {
	var out []catalog.CourseListItem
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if opts.DetailLinkPattern == "" || !isDetailLink(href, opts.DetailLinkPattern) {
			return
		}
		it, ok := parseCode(clean(a.Text()))
		if !ok {
			return
		}
		if it.Title == "" {
			if parent, ok := parseCode(clean(a.Parent().Text())); ok && parent.Key() == it.Key() {
				it.Title = parent.Title
			}
		}
		if abs := resolve(base, href); abs != "" {
			it.DetailURL = &abs
		}
		out = append(out, it)
	})
	return out
}

// rowItem reads a course from one results row. The title is the rest of the
// cell holding the code, or else the next non-empty cell; later columns such
// as credits or term are not part of it.
func rowItem(row *goquery.Selection) (catalog.CourseListItem, bool) {
	cells := row.Find("td, th, [role=cell], [role=gridcell], [role=columnheader]")
	if cells.Length() == 0 {
		return parseCode(clean(row.Text()))
	}
	texts := make([]string, 0, cells.Length())
	cells.Each(func(_ int, c *goquery.Selection) {
		if t := clean(c.Text()); t != "" {
			texts = append(texts, t)
		}
	})
	for i, t := range texts {
		it, ok := parseCode(t)
		if !ok {
			continue
		}
		if it.Title == "" && i+1 < len(texts) {
			it.Title = truncate(texts[i+1], maxListTitle)
		}
		return it, true
	}
	return catalog.CourseListItem{}, false
}

// parseCode finds the first course code in line and takes the rest of the
// line as a title guess.
func parseCode(line string) (catalog.CourseListItem, bool) {
	loc := codePattern.FindStringSubmatchIndex(line)
	if loc == nil {
		return catalog.CourseListItem{}, false
	}
	title := strings.TrimLeft(line[loc[1]:], " -:|.–—")
	return catalog.CourseListItem{
		SubjectCode:  line[loc[2]:loc[3]],
		CourseNumber: line[loc[4]:loc[5]],
		Title:        truncate(strings.TrimSpace(title), maxListTitle),
	}, true
}

func isDetailLink(href, pattern string) bool {
	if href == "" {
		return false
	}
	if pattern == "" {
		return true
	}
	return strings.Contains(strings.ToLower(href), strings.ToLower(pattern))
}
