package stats

import (
	"bytes"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gilchrisn/graph-partition-service/pkg/graph"
)

func TestRecorderCountsUnorderedPairs(t *testing.T) {
	r := NewRecorder()
	r.Record(2, 1)
	r.Record(1, 2)
	r.RecordWeight(3, 3, 4)
	r.RecordWeight(1, 3, 0)

	assert.Equal(t, int64(2), r.Count(1, 2))
	assert.Equal(t, int64(2), r.Count(2, 1))
	assert.Equal(t, int64(4), r.Count(3, 3))
	assert.Equal(t, int64(0), r.Count(1, 3))
	assert.Equal(t, 2, r.Len())
}

func TestRecorderWriteCSV(t *testing.T) {
	r := NewRecorder()
	r.RecordWeight(5, 4, 10)
	r.RecordWeight(1, 2, 3)
	r.RecordWeight(3, 2, 2)
	r.RecordWeight(1, 3, 1)

	var buf bytes.Buffer
	require.NoError(t, r.WriteCSV(&buf))
	assert.Equal(t, "node_a,node_b,weight\n1,2,3\n1,3,1\n2,3,2\n4,5,10\n", buf.String())

	g, err := graph.Build(&buf, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, g.NumNodes())
	assert.Equal(t, 4, g.NumEdges())
	assert.Equal(t, int64(16), g.TotalWeight())
}

func TestRecorderConcurrent(t *testing.T) {
	r := NewRecorder()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.Record(1, 2)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(800), r.Count(1, 2))
}

func TestRecorderWriteFileRoundTrip(t *testing.T) {
	r := NewRecorder()
	r.Record(7, 8)
	r.Record(8, 9)

	path := filepath.Join(t.TempDir(), "stats.csv")
	require.NoError(t, r.WriteFile(path))

	g, err := graph.BuildFromFile(path, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{7, 8, 9}, g.Nodes())

	rg, err := r.Graph()
	require.NoError(t, err)
	assert.Equal(t, g.Edges(), rg.Edges())
}
