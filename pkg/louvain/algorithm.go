package louvain

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"runtime"
	"time"

	"github.com/rs/zerolog"
)

// ErrEmptyGraph is returned when detection is asked to run on a graph
// without nodes.
var ErrEmptyGraph = errors.New("graph has no nodes")

// Result represents the algorithm output
type Result struct {
	Levels     []LevelInfo `json:"levels"`
	Modularity float64     `json:"modularity"`
	NumLevels  int         `json:"num_levels"`
	Statistics Statistics  `json:"statistics"`
}

// LevelInfo contains information about each hierarchical level.
// Membership is indexed by node of the input graph, not by super-node.
type LevelInfo struct {
	Level          int     `json:"level"`
	Membership     []int   `json:"membership"`
	Modularity     float64 `json:"modularity"`
	NumCommunities int     `json:"num_communities"`
	NumMoves       int     `json:"num_moves"`
	Passes         int     `json:"passes"`
	RuntimeMS      int64   `json:"runtime_ms"`
}

// Statistics contains algorithm performance metrics
type Statistics struct {
	TotalPasses  int          `json:"total_passes"`
	TotalMoves   int          `json:"total_moves"`
	RuntimeMS    int64        `json:"runtime_ms"`
	MemoryPeakMB int64        `json:"memory_peak_mb"`
	LevelStats   []LevelStats `json:"level_stats"`
}

// LevelStats contains per-level statistics
type LevelStats struct {
	Level             int     `json:"level"`
	Passes            int     `json:"passes"`
	Moves             int     `json:"moves"`
	InitialModularity float64 `json:"initial_modularity"`
	FinalModularity   float64 `json:"final_modularity"`
	RuntimeMS         int64   `json:"runtime_ms"`
}

// Community holds the community state of one level
type Community struct {
	NodeToCommunity []int     // nodeToComm[i] = community ID of node i
	Total           []float64 // total[c] = sum of degrees of nodes in c
	Internal        []float64 // internal[c] = weight of edges inside c, each edge once
}

// NewCommunity initializes each node in its own community
func NewCommunity(graph *Graph) *Community {
	n := graph.NumNodes
	comm := &Community{
		NodeToCommunity: make([]int, n),
		Total:           make([]float64, n),
		Internal:        make([]float64, n),
	}

	for i := 0; i < n; i++ {
		comm.NodeToCommunity[i] = i
		comm.Total[i] = graph.Degrees[i]
		comm.Internal[i] = graph.SelfLoops[i]
	}

	return comm
}

// CalculateModularity computes Newman's modularity at the given resolution:
//
//	Q = sum_c [ in_c/m - resolution * (tot_c/2m)^2 ]
func CalculateModularity(graph *Graph, comm *Community, resolution float64) float64 {
	if graph.TotalWeight == 0 {
		return 0.0
	}

	m := graph.TotalWeight
	modularity := 0.0
	for c := range comm.Total {
		if comm.Total[c] == 0 && comm.Internal[c] == 0 {
			continue
		}
		share := comm.Total[c] / (2 * m)
		modularity += comm.Internal[c]/m - resolution*share*share
	}

	return modularity
}

// neighborCommunities returns the communities adjacent to node and the
// edge weight from node into each, in order of first appearance in the
// adjacency list. Self-loops are excluded.
func neighborCommunities(graph *Graph, comm *Community, node int) ([]int, []float64) {
	var comms []int
	var weights []float64
	pos := make(map[int]int)

	neighbors, edgeWeights := graph.GetNeighbors(node)
	for i, neighbor := range neighbors {
		if neighbor == node {
			continue
		}
		c := comm.NodeToCommunity[neighbor]
		p, seen := pos[c]
		if !seen {
			p = len(comms)
			pos[c] = p
			comms = append(comms, c)
			weights = append(weights, 0)
		}
		weights[p] += edgeWeights[i]
	}

	return comms, weights
}

func weightTo(comms []int, weights []float64, target int) float64 {
	for i, c := range comms {
		if c == target {
			return weights[i]
		}
	}
	return 0
}

func (comm *Community) remove(graph *Graph, node, c int, weightToComm float64) {
	comm.Total[c] -= graph.Degrees[node]
	comm.Internal[c] -= weightToComm + graph.SelfLoops[node]
	comm.NodeToCommunity[node] = -1
}

func (comm *Community) insert(graph *Graph, node, c int, weightToComm float64) {
	comm.NodeToCommunity[node] = c
	comm.Total[c] += graph.Degrees[node]
	comm.Internal[c] += weightToComm + graph.SelfLoops[node]
}

// OneLevel performs the local-moving phase on one level. Each pass visits
// every node once and moves it to the neighboring community with the
// largest strictly positive modularity gain; ties keep the first candidate
// in adjacency order. Passes stop when a pass moves nothing, when a pass
// improves modularity by less than MinModularityGain, or after MaxPasses
// passes, so the phase halts on every finite graph.
func OneLevel(graph *Graph, comm *Community, config *Config, rng *rand.Rand, logger zerolog.Logger) (moves int, passes int) {
	if graph.TotalWeight == 0 {
		return 0, 0
	}

	resolution := config.Resolution()
	m2 := 2.0 * graph.TotalWeight

	nodes := make([]int, graph.NumNodes)
	for i := range nodes {
		nodes[i] = i
	}

	current := CalculateModularity(graph, comm, resolution)

	for passes < config.MaxPasses() {
		passes++
		passMoves := 0

		if config.Shuffle() {
			rng.Shuffle(len(nodes), func(i, j int) { nodes[i], nodes[j] = nodes[j], nodes[i] })
		}

		for _, node := range nodes {
			oldComm := comm.NodeToCommunity[node]
			degreeShare := graph.Degrees[node] / m2

			comms, weights := neighborCommunities(graph, comm, node)
			oldWeight := weightTo(comms, weights, oldComm)

			comm.remove(graph, node, oldComm, oldWeight)
			removeCost := -oldWeight + resolution*comm.Total[oldComm]*degreeShare

			bestComm := oldComm
			bestGain := 0.0
			for i, target := range comms {
				gain := removeCost + weights[i] - resolution*comm.Total[target]*degreeShare
				if gain > bestGain {
					bestComm = target
					bestGain = gain
				}
			}

			comm.insert(graph, node, bestComm, weightTo(comms, weights, bestComm))
			if bestComm != oldComm {
				passMoves++
			}
		}

		moves += passMoves
		next := CalculateModularity(graph, comm, resolution)

		if config.EnableProgress() {
			logger.Debug().
				Int("pass", passes).
				Int("moves", passMoves).
				Float64("modularity", next).
				Msg("Local optimization progress")
		}

		if passMoves == 0 || next-current < config.MinModularityGain() {
			break
		}
		current = next
	}

	return moves, passes
}

// renumber maps community ids to dense ids 0..k-1 in order of first
// appearance over node indices.
func renumber(comm *Community) ([]int, int) {
	dense := make([]int, len(comm.NodeToCommunity))
	for i := range dense {
		dense[i] = -1
	}

	next := 0
	for _, c := range comm.NodeToCommunity {
		if dense[c] == -1 {
			dense[c] = next
			next++
		}
	}

	return dense, next
}

// AggregateGraph creates a super-graph whose node c is dense community c.
// Edges inside a community become a self-loop carrying their total weight,
// so modularity is preserved across the contraction.
func AggregateGraph(graph *Graph, comm *Community, dense []int, numSuperNodes int) (*Graph, error) {
	if numSuperNodes == 0 {
		return nil, fmt.Errorf("no valid communities found")
	}

	type superEdge struct{ u, v int }
	order := make([]superEdge, 0)
	superWeights := make(map[superEdge]float64)

	for u := 0; u < graph.NumNodes; u++ {
		su := dense[comm.NodeToCommunity[u]]
		neighbors, weights := graph.GetNeighbors(u)
		for i, v := range neighbors {
			// Each undirected edge is stored on both endpoints; take it once.
			if v < u {
				continue
			}
			sv := dense[comm.NodeToCommunity[v]]
			key := superEdge{u: su, v: sv}
			if sv < su {
				key = superEdge{u: sv, v: su}
			}
			if _, seen := superWeights[key]; !seen {
				order = append(order, key)
			}
			superWeights[key] += weights[i]
		}
	}

	superGraph := NewGraph(numSuperNodes)
	for _, key := range order {
		if err := superGraph.AddEdge(key.u, key.v, superWeights[key]); err != nil {
			return nil, err
		}
	}

	return superGraph, nil
}

// Run executes the complete Louvain algorithm. Level 0 is always recorded;
// a further level is recorded only when it raises modularity by at least
// MinModularityGain over the previous one, so the coarsest recorded level
// is the last one that changed the clustering.
func Run(ctx context.Context, graph *Graph, config *Config, logger zerolog.Logger) (*Result, error) {
	startTime := time.Now()

	if err := graph.Validate(); err != nil {
		if errors.Is(err, ErrEmptyGraph) {
			return nil, err
		}
		return nil, fmt.Errorf("invalid graph: %w", err)
	}

	logger.Info().
		Int("nodes", graph.NumNodes).
		Float64("total_weight", graph.TotalWeight).
		Msg("Starting Louvain algorithm")

	result := &Result{
		Levels:     make([]LevelInfo, 0),
		Statistics: Statistics{LevelStats: make([]LevelStats, 0)},
	}

	rng := rand.New(rand.NewSource(config.RandomSeed()))
	resolution := config.Resolution()

	currentGraph := graph
	comm := NewCommunity(currentGraph)
	modularity := CalculateModularity(currentGraph, comm, resolution)

	// nodeToSuper[i] = super-node of input node i in currentGraph
	nodeToSuper := make([]int, graph.NumNodes)
	for i := range nodeToSuper {
		nodeToSuper[i] = i
	}

	for level := 0; level < config.MaxLevels(); level++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		levelStart := time.Now()

		// Phase 1: Local optimization
		moves, passes := OneLevel(currentGraph, comm, config, rng, logger)
		finalMod := CalculateModularity(currentGraph, comm, resolution)
		dense, numCommunities := renumber(comm)

		if level > 0 && finalMod-modularity < config.MinModularityGain() {
			logger.Info().Int("level", level).Msg("No modularity improvement, stopping")
			break
		}

		membership := make([]int, graph.NumNodes)
		for i, super := range nodeToSuper {
			membership[i] = dense[comm.NodeToCommunity[super]]
		}

		levelTime := time.Since(levelStart)
		result.Levels = append(result.Levels, LevelInfo{
			Level:          level,
			Membership:     membership,
			Modularity:     finalMod,
			NumCommunities: numCommunities,
			NumMoves:       moves,
			Passes:         passes,
			RuntimeMS:      levelTime.Milliseconds(),
		})
		result.Statistics.LevelStats = append(result.Statistics.LevelStats, LevelStats{
			Level:             level,
			Passes:            passes,
			Moves:             moves,
			InitialModularity: modularity,
			FinalModularity:   finalMod,
			RuntimeMS:         levelTime.Milliseconds(),
		})
		result.Statistics.TotalMoves += moves
		result.Statistics.TotalPasses += passes
		modularity = finalMod

		logger.Info().
			Int("level", level).
			Int("nodes", currentGraph.NumNodes).
			Int("communities", numCommunities).
			Float64("modularity", finalMod).
			Msg("Level completed")

		// Check if compression occurred
		if numCommunities >= currentGraph.NumNodes {
			logger.Info().Int("level", level).Msg("No compression achieved, stopping")
			break
		}

		if numCommunities == 1 {
			logger.Info().Int("level", level).Msg("Single community remaining, stopping")
			break
		}

		// Phase 2: Create super-graph
		superGraph, err := AggregateGraph(currentGraph, comm, dense, numCommunities)
		if err != nil {
			return nil, fmt.Errorf("aggregation failed at level %d: %w", level, err)
		}

		for i, super := range nodeToSuper {
			nodeToSuper[i] = dense[comm.NodeToCommunity[super]]
		}
		currentGraph = superGraph
		comm = NewCommunity(currentGraph)
	}

	result.NumLevels = len(result.Levels)
	result.Modularity = modularity
	result.Statistics.RuntimeMS = time.Since(startTime).Milliseconds()
	result.Statistics.MemoryPeakMB = getMemoryUsage()

	logger.Info().
		Int("levels", result.NumLevels).
		Float64("final_modularity", result.Modularity).
		Int64("runtime_ms", result.Statistics.RuntimeMS).
		Msg("Louvain algorithm completed")

	return result, nil
}

// getMemoryUsage returns current memory usage in MB
func getMemoryUsage() int64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return int64(m.Alloc / 1024 / 1024)
}
