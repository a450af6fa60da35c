package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const detailPage = `<html><body>
<h1>EECS 281 - Data Structures and Algorithms</h1>
<div id="contentMain_lblDescription">Introduction to algorithm analysis and O-notation; fundamental data structures.</div>
<p>Credits: 4 credits</p>
<div id="contentMain_lblEnforcedPrereq">EECS 280 and EECS 203, or graduate standing</div>
</body></html>`

func TestCourse_SelectorStrategies(t *testing.T) {
	d := Course(detailPage, "https://example.edu/cg/cg_detail.aspx?c=EECS281", "EECS", "281", defaultOpts())

	assert.Equal(t, "EECS", d.SubjectCode)
	assert.Equal(t, "281", d.CourseNumber)
	assert.Equal(t, "EECS 281 - Data Structures and Algorithms", d.Title)
	require.NotNil(t, d.Description)
	assert.Equal(t, "Introduction to algorithm analysis and O-notation; fundamental data structures.", *d.Description)
	require.NotNil(t, d.PrerequisiteText)
	assert.Equal(t, "EECS 280 and EECS 203, or graduate standing", *d.PrerequisiteText)
	require.NotNil(t, d.CreditMin)
	require.NotNil(t, d.CreditMax)
	assert.Equal(t, 4.0, *d.CreditMin)
	assert.Equal(t, 4.0, *d.CreditMax)
	require.NotNil(t, d.SourceURL)
}

func TestCourse_LabelValueLayouts(t *testing.T) {
	html := `<html><body>
<h1>ASIAN 261</h1>
<table>
  <tr><th>Course Description</th><td>A survey of East Asian civilizations from antiquity to the present day.</td></tr>
</table>
<dl>
  <dt>Advisory Prerequisites:</dt><dd>One course in Asian Studies</dd>
</dl>
<p>Credits: 3 to 4 credits</p>
</body></html>`
	d := Course(html, "", "ASIAN", "261", defaultOpts())

	require.NotNil(t, d.Description)
	assert.Equal(t, "A survey of East Asian civilizations from antiquity to the present day.", *d.Description)
	require.NotNil(t, d.PrerequisiteText)
	assert.Equal(t, "One course in Asian Studies", *d.PrerequisiteText)
	assert.Equal(t, 3.0, *d.CreditMin)
	assert.Equal(t, 4.0, *d.CreditMax)
	assert.Nil(t, d.SourceURL)
}

func TestCourse_PrerequisiteLineFallback(t *testing.T) {
	html := `<html><body>
<h1>STATS 413</h1>
<p>
Prerequisite: STATS 250 and MATH 215
</p>
</body></html>`
	d := Course(html, "", "STATS", "413", defaultOpts())
	require.NotNil(t, d.PrerequisiteText)
	assert.Equal(t, "STATS 250 and MATH 215", *d.PrerequisiteText)
}

func TestCourse_MinimumLengthsFilterPlaceholders(t *testing.T) {
	html := `<html><body>
<h1>X</h1>
<div id="description">TBD</div>
<div id="prereq">None</div>
</body></html>`
	d := Course(html, "", "PHIL", "101", defaultOpts())
	assert.Equal(t, "", d.Title)
	assert.Nil(t, d.Description)
	assert.Nil(t, d.PrerequisiteText)
	assert.Nil(t, d.CreditMin)
	assert.Nil(t, d.CreditMax)
}

func TestCourse_TruncatesLongFields(t *testing.T) {
	desc := strings.Repeat("word ", 2000)
	html := `<html><body><h1>HIST 101</h1><div class="description">` + desc + `</div></body></html>`
	d := Course(html, "", "HIST", "101", defaultOpts())
	require.NotNil(t, d.Description)
	assert.LessOrEqual(t, len([]rune(*d.Description)), maxDescription)
}

func TestCourse_GarbageNeverFails(t *testing.T) {
	d := Course("<<<not html", "", "MATH", "115", defaultOpts())
	assert.Equal(t, "MATH", d.SubjectCode)
	assert.Nil(t, d.Description)
}

func TestCredits(t *testing.T) {
	tests := []struct {
		text     string
		min, max float64
		found    bool
	}{
		{"Credits: 3 to 4 credits", 3, 4, true},
		{"1-3 credits", 1, 3, true},
		{"4 credits", 4, 4, true},
		{"1 credit", 1, 1, true},
		{"3.5 credits", 3.5, 3.5, true},
		{"no credit info here", 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			min, max := Credits(tt.text)
			if !tt.found {
				assert.Nil(t, min)
				assert.Nil(t, max)
				return
			}
			require.NotNil(t, min)
			require.NotNil(t, max)
			assert.Equal(t, tt.min, *min)
			assert.Equal(t, tt.max, *max)
		})
	}
}
