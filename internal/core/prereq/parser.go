// Package prereq turns free-text course prerequisite requirements into a
// structured guess with a heuristic confidence score.
package prereq

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Guess is the structured reading of a prerequisite string. Only the fields
// the parser could detect are set; MinCredit and Concurrent stay nil otherwise.
type Guess struct {
	Raw            string   `json:"raw"`
	HasAnd         bool     `json:"hasAnd"`
	HasOr          bool     `json:"hasOr"`
	HasParentheses bool     `json:"hasParentheses"`
	Courses        []string `json:"courses"`
	MinCredit      *int     `json:"minCredit,omitempty"`
	Concurrent     *bool    `json:"concurrent,omitempty"`
}

const (
	baseConfidence        = 0.3
	minCreditBonus        = 0.2
	concurrentBonus       = 0.1
	perCourseBonus        = 0.1
	maxCourseBonus        = 0.3
	logicalStructureBonus = 0.2
)

var (
	andPattern        = regexp.MustCompile(`(?i)\band\b|&`)
	orPattern         = regexp.MustCompile(`(?i)\bor\b|/`)
	parenPattern      = regexp.MustCompile(`\([^()]*\)`)
	courseCodePattern = regexp.MustCompile(`\b[A-Z]{2,6}\s+\d{3,4}\b`)
	minCreditPattern  = regexp.MustCompile(`(?i)minimum\s+(?:of\s+)?(\d+)\s+credits?`)
	concurrentPattern = regexp.MustCompile(`(?i)\bconcurrent(?:ly)?\b`)
)

// Parse reads raw prerequisite text. Empty or whitespace-only text yields
// (nil, 0); anything else yields a non-nil guess scored in [0, 1].
func Parse(text string) (*Guess, float64) {
	raw := strings.TrimSpace(text)
	if raw == "" {
		return nil, 0
	}

	g := &Guess{
		Raw:            raw,
		HasAnd:         andPattern.MatchString(raw),
		HasOr:          orPattern.MatchString(raw),
		HasParentheses: parenPattern.MatchString(raw),
		Courses:        courseCodePattern.FindAllString(raw, -1),
	}
	if g.Courses == nil {
		g.Courses = []string{}
	}
	if m := minCreditPattern.FindStringSubmatch(raw); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			g.MinCredit = &n
		}
	}
	if concurrentPattern.MatchString(raw) {
		t := true
		g.Concurrent = &t
	}

	return g, score(g)
}

func score(g *Guess) float64 {
	c := baseConfidence
	if g.MinCredit != nil {
		c += minCreditBonus
	}
	if g.Concurrent != nil && *g.Concurrent {
		c += concurrentBonus
	}
	c += math.Min(maxCourseBonus, perCourseBonus*float64(len(g.Courses)))
	if g.HasAnd || g.HasOr || g.HasParentheses {
		c += logicalStructureBonus
	}
	c = math.Max(0, math.Min(1, c))
	return math.Round(c*100) / 100
}
