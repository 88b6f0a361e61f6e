package output

import (
	"bufio"
	"fmt"
	"io"

	"github.com/gilchrisn/graph-partition-service/pkg/dendrogram"
)

// WriteHierarchy writes every dendrogram level as blocks of
//
//	c0_l<level>_<cluster>
//	<member count>
//	<node id>...
//
// with levels numbered from 1 and clusters in first-appearance order.
func WriteHierarchy(w io.Writer, d *dendrogram.Dendrogram) error {
	bw := bufio.NewWriter(w)
	for i, level := range d.Levels() {
		for _, c := range level.Clustering().Clusters() {
			fmt.Fprintf(bw, "c0_l%d_%d\n", i+1, c.ID)
			fmt.Fprintf(bw, "%d\n", c.Size())
			for _, node := range c.Nodes {
				fmt.Fprintf(bw, "%d\n", node)
			}
		}
	}
	return bw.Flush()
}
