package graph

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenarioInput = `node_a,node_b,weight
1,2,3
2,3,2
1,3,1
4,5,10
`

func TestBuildScenario(t *testing.T) {
	g, err := Build(strings.NewReader(scenarioInput), 1)
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 2, 3, 4, 5}, g.Nodes())
	assert.Equal(t, 4, g.NumEdges())
	w, ok := g.Weight(5, 4)
	require.True(t, ok)
	assert.Equal(t, int64(10), w)
}

func TestBuildHeaderSkip(t *testing.T) {
	input := "# generated by recorder\nnode_a,node_b,weight\n7,8,1\n"

	g, err := Build(strings.NewReader(input), 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{7, 8}, g.Nodes())

	// With one skipped line the column header is parsed as data.
	_, err = Build(strings.NewReader(input), 1)
	var malformed *MalformedInputError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, 2, malformed.Line)
	assert.Equal(t, FieldNodeA, malformed.Field)
}

func TestBuildNegativeHeaderSkip(t *testing.T) {
	_, err := Build(strings.NewReader(scenarioInput), -1)
	assert.Error(t, err)
}

func TestBuildHeaderLongerThanSource(t *testing.T) {
	g, err := Build(strings.NewReader("only a header"), 3)
	require.NoError(t, err)
	assert.Equal(t, 0, g.NumNodes())
}

func TestBuildMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  int
		field string
	}{
		{name: "too few columns", input: "h\n1,2,3\n4,5\n", line: 3, field: ""},
		{name: "non numeric weight", input: "h\n1,2,heavy\n", line: 2, field: FieldWeight},
		{name: "non numeric node", input: "h\nx,2,1\n", line: 2, field: FieldNodeA},
		{name: "non numeric second node", input: "h\n1,2.5,1\n", line: 2, field: FieldNodeB},
		{name: "zero weight", input: "h\n1,2,0\n", line: 2, field: FieldWeight},
		{name: "bad quoting", input: "h\n1,\"2,1\n", line: 2, field: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Build(strings.NewReader(tt.input), 1)
			assert.Nil(t, g)

			var malformed *MalformedInputError
			require.True(t, errors.As(err, &malformed), "expected MalformedInputError, got %v", err)
			assert.Equal(t, tt.line, malformed.Line)
			assert.Equal(t, tt.field, malformed.Field)
		})
	}
}

func TestBuildToleratesSpacesAndExtraColumns(t *testing.T) {
	g, err := Build(strings.NewReader("h\n1, 2, 3, ignored\n 2,3 ,4\n"), 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, g.Nodes())
	w, _ := g.Weight(2, 3)
	assert.Equal(t, int64(4), w)
}

func TestBuildFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "edges.csv")
	require.NoError(t, os.WriteFile(path, []byte(scenarioInput), 0o644))

	g, err := BuildFromFile(path, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, g.NumNodes())

	_, err = BuildFromFile(filepath.Join(t.TempDir(), "missing.csv"), 1)
	assert.Error(t, err)
}
