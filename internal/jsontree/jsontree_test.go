package jsontree_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guillem8cbii/basquet/internal/jsontree"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		input string

		wantKind jsontree.Kind
		wantErr  bool
	}{
		"Object":            {input: `{"b":1,"a":2}`, wantKind: jsontree.Object},
		"Array":             {input: `[1,"x",null,true]`, wantKind: jsontree.Array},
		"String":            {input: `"hola"`, wantKind: jsontree.String},
		"Number":            {input: `12.50`, wantKind: jsontree.Number},
		"Null":              {input: `null`, wantKind: jsontree.Null},
		"Surrounding space": {input: "  {\"a\":[]}\n", wantKind: jsontree.Object},

		"Error on empty input":       {input: ``, wantErr: true},
		"Error on garbage":           {input: `not json`, wantErr: true},
		"Error on truncated object":  {input: `{"a":1`, wantErr: true},
		"Error on trailing value":    {input: `{"a":1} {"b":2}`, wantErr: true},
		"Error on missing separator": {input: `{"a" 1}`, wantErr: true},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			n, err := jsontree.Parse([]byte(tc.input))
			if tc.wantErr {
				require.Error(t, err, "Parse should fail")
				return
			}
			require.NoError(t, err, "Parse should not fail")
			assert.Equal(t, tc.wantKind, n.Kind, "Unexpected root kind")
		})
	}
}

func TestParsePreservesMemberOrder(t *testing.T) {
	t.Parallel()

	n, err := jsontree.Parse([]byte(`{"zeta":1,"alpha":"x","mid":{"k":true}}`))
	require.NoError(t, err)

	keys := make([]string, 0, len(n.Members))
	for _, m := range n.Members {
		keys = append(keys, m.Key)
	}
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, keys)
	assert.Equal(t, "1", n.Get("zeta").Text(), "Numbers keep their literal text")
	assert.Equal(t, "x", n.Get("alpha").Text())
	assert.Empty(t, n.Get("mid").Text(), "Objects have no scalar text")
	assert.Nil(t, n.Get("missing"))
}

func TestWalk(t *testing.T) {
	t.Parallel()

	n, err := jsontree.Parse([]byte(`{"a":{"name":"one","in":[{"name":"two"}]},"b":[{"name":"three"}],"c":{"name":"four"}}`))
	require.NoError(t, err)

	var names []string
	jsontree.Walk(n, func(node *jsontree.Node) bool {
		if v := node.Get("name"); v != nil {
			names = append(names, v.Text())
		}
		return true
	})
	assert.Equal(t, []string{"one", "two", "three", "four"}, names, "Walk should be depth-first in document order")

	var visited int
	jsontree.Walk(n, func(node *jsontree.Node) bool {
		visited++
		return node == n
	})
	assert.Equal(t, 4, visited, "Returning false should prune children")
}

func TestFromValue(t *testing.T) {
	t.Parallel()

	n, err := jsontree.FromValue(map[string]any{"equipoLocal": "Xirivella", "n": 3})
	require.NoError(t, err)
	assert.Equal(t, jsontree.Object, n.Kind)
	assert.Equal(t, "Xirivella", n.Get("equipoLocal").Text())
	assert.Equal(t, "3", n.Get("n").Text())
}
