package prereq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_EmptyInput(t *testing.T) {
	for _, in := range []string{"", "   ", "\n\t "} {
		g, conf := Parse(in)
		assert.Nil(t, g, "input %q", in)
		assert.Equal(t, 0.0, conf, "input %q", in)
	}
}

func TestParse_NoStructure(t *testing.T) {
	g, conf := Parse("Blah blah no structure")
	require.NotNil(t, g)

	assert.Equal(t, 0.3, conf)
	assert.Equal(t, "Blah blah no structure", g.Raw)
	assert.False(t, g.HasAnd)
	assert.False(t, g.HasOr)
	assert.False(t, g.HasParentheses)
	assert.Empty(t, g.Courses)
	assert.NotNil(t, g.Courses)
	assert.Nil(t, g.MinCredit)
	assert.Nil(t, g.Concurrent)
}

func TestParse_LogicalStructure(t *testing.T) {
	g, conf := Parse("MATH 115 and (EECS 183 or EECS 280)")
	require.NotNil(t, g)

	assert.True(t, g.HasAnd)
	assert.True(t, g.HasOr)
	assert.True(t, g.HasParentheses)
	assert.Equal(t, []string{"MATH 115", "EECS 183", "EECS 280"}, g.Courses)
	// base + three codes (capped) + structure
	assert.InDelta(t, 0.8, conf, 1e-9)
}

func TestParse_MinimumCredits(t *testing.T) {
	g, conf := Parse("Minimum 30 credits required")
	require.NotNil(t, g)
	require.NotNil(t, g.MinCredit)

	assert.Equal(t, 30, *g.MinCredit)
	assert.Greater(t, conf, 0.3)
	assert.InDelta(t, 0.5, conf, 1e-9)
}

func TestParse_Concurrent(t *testing.T) {
	g, conf := Parse("STATS 250; may be taken concurrently")
	require.NotNil(t, g)
	require.NotNil(t, g.Concurrent)

	assert.True(t, *g.Concurrent)
	assert.Equal(t, []string{"STATS 250"}, g.Courses)
	assert.InDelta(t, 0.5, conf, 1e-9)
}

func TestParse_DuplicateCodesKept(t *testing.T) {
	g, _ := Parse("EECS 280 & EECS 280")
	require.NotNil(t, g)

	assert.Equal(t, []string{"EECS 280", "EECS 280"}, g.Courses)
	assert.True(t, g.HasAnd)
}

func TestParse_TrimsRaw(t *testing.T) {
	g, _ := Parse("   CHEM 130/CHEM 125  ")
	require.NotNil(t, g)

	assert.Equal(t, "CHEM 130/CHEM 125", g.Raw)
	assert.True(t, g.HasOr)
	assert.False(t, g.HasAnd)
}

func TestParse_ConfidenceBounds(t *testing.T) {
	inputs := []string{
		"x",
		"Minimum 60 credits and concurrent enrollment in (MATH 215 or MATH 216) and PHYSICS 140 and EECS 203",
		"and or / & ( )",
		"ECON 101 ECON 102 ECON 401 ECON 402 ECON 409",
		"lower-case math 115 is not a course code",
	}
	for _, in := range inputs {
		_, conf := Parse(in)
		assert.GreaterOrEqual(t, conf, 0.0, in)
		assert.LessOrEqual(t, conf, 1.0, in)
	}
}

func TestParse_EverythingCapsAtOne(t *testing.T) {
	_, conf := Parse("Minimum 60 credits and concurrent enrollment in (MATH 215 or MATH 216) and PHYSICS 140")
	assert.InDelta(t, 1.0, conf, 1e-9)
}
