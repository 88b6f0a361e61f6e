package partition

// RoundRobin deals nodes to n bins in consecutive blocks of blocksize:
// the first block goes to bin 0, the next to bin 1, wrapping after bin
// n-1. A blocksize below 1 is treated as 1. Each node adds 1 to its bin's
// load.
func RoundRobin(nodes []int64, n, blocksize int) (*Assignment, error) {
	if n <= 0 {
		return nil, &InvalidPartitionCountError{N: n}
	}
	if blocksize < 1 {
		blocksize = 1
	}

	a := newAssignment(n)
	for i, node := range nodes {
		bin := (i / blocksize) % n
		a.Bins[bin] = append(a.Bins[bin], node)
		a.Loads[bin]++
	}

	return a, nil
}

// Deal appends nodes that are not yet in any bin round robin, starting at
// bin 0. Duplicates within nodes are placed once. It returns how many
// nodes were added.
func (a *Assignment) Deal(nodes []int64) int {
	if len(a.Bins) == 0 {
		return 0
	}

	placed := a.BinOf()
	added := 0
	for _, node := range nodes {
		if _, ok := placed[node]; ok {
			continue
		}
		bin := added % len(a.Bins)
		a.Bins[bin] = append(a.Bins[bin], node)
		a.Loads[bin]++
		placed[node] = bin
		added++
	}

	return added
}
