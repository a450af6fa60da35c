package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type query struct {
	Status  string   `form:"status"`
	Limit   int      `form:"limit"`
	Fresh   *bool    `form:"fresh"`
	Tags    []string `form:"tags"`
	Ignored string
}

func lookupFrom(m map[string]string) func(string, ...string) string {
	return func(k string, _ ...string) string { return m[k] }
}

func TestBind(t *testing.T) {
	var q query
	err := bind(lookupFrom(map[string]string{
		"status": "RUNNING", "limit": "50", "fresh": "true", "tags": "a, b,,c", "Ignored": "x",
	}), &q)
	require.NoError(t, err)

	assert.Equal(t, "RUNNING", q.Status)
	assert.Equal(t, 50, q.Limit)
	require.NotNil(t, q.Fresh)
	assert.True(t, *q.Fresh)
	assert.Equal(t, []string{"a", "b", "c"}, q.Tags)
	assert.Empty(t, q.Ignored)
}

func TestBind_MissingKeepsDefaults(t *testing.T) {
	q := query{Limit: 20}
	require.NoError(t, bind(lookupFrom(nil), &q))
	assert.Equal(t, 20, q.Limit)
	assert.Nil(t, q.Fresh)
}

func TestBind_Errors(t *testing.T) {
	var q query
	assert.Error(t, bind(lookupFrom(map[string]string{"limit": "ten"}), &q))
	assert.Error(t, bind(lookupFrom(nil), q))
}
