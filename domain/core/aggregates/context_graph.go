package aggregates

import (
	"tangent-backend/domain/core/entities"
	"tangent-backend/domain/core/valueobjects"
)

// ContextGraph is the directed context graph of a single board, built from
// its full link set. Construction is one pass over the edges, so a caller
// that loads a board's links once pays one storage round-trip for any
// number of traversals within that request. Instances are never cached
// across requests: the graph is a pure function of the persisted edge
// state at build time.
type ContextGraph struct {
	outgoing map[string][]valueobjects.NodeID // source -> targets it feeds
	incoming map[string][]valueobjects.NodeID // target -> sources feeding it
}

// NewContextGraph builds the adjacency indexes from a board's links
func NewContextGraph(links []*entities.ContextLink) *ContextGraph {
	g := &ContextGraph{
		outgoing: make(map[string][]valueobjects.NodeID),
		incoming: make(map[string][]valueobjects.NodeID),
	}
	for _, link := range links {
		src := link.SourceID()
		dst := link.TargetID()
		g.outgoing[src.String()] = append(g.outgoing[src.String()], dst)
		g.incoming[dst.String()] = append(g.incoming[dst.String()], src)
	}
	return g
}

// WouldCreateCycle reports whether adding the edge source->target would
// close a directed cycle. A self-loop is a trivial cycle. Otherwise a BFS
// walks forward from the target along outgoing edges: if the target can
// already reach back to the source, the proposed edge completes a loop.
// The visited set guarantees termination on any finite graph.
func (g *ContextGraph) WouldCreateCycle(sourceID, targetID valueobjects.NodeID) bool {
	if sourceID.Equals(targetID) {
		return true
	}

	visited := make(map[string]bool)
	queue := []valueobjects.NodeID{targetID}
	visited[targetID.String()] = true

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, next := range g.outgoing[current.String()] {
			if next.Equals(sourceID) {
				return true
			}
			if !visited[next.String()] {
				visited[next.String()] = true
				queue = append(queue, next)
			}
		}
	}

	return false
}

// Ancestors returns every node that transitively supplies context to the
// given node: a BFS over incoming edges with visited-set deduplication, so
// a node reached along several paths appears once. The node itself is not
// included.
func (g *ContextGraph) Ancestors(nodeID valueobjects.NodeID) []valueobjects.NodeID {
	visited := make(map[string]bool)
	visited[nodeID.String()] = true

	var ancestors []valueobjects.NodeID
	queue := []valueobjects.NodeID{nodeID}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, prev := range g.incoming[current.String()] {
			if !visited[prev.String()] {
				visited[prev.String()] = true
				ancestors = append(ancestors, prev)
				queue = append(queue, prev)
			}
		}
	}

	return ancestors
}

// Descendants returns every node the given node transitively supplies
// context to, the forward mirror of Ancestors.
func (g *ContextGraph) Descendants(nodeID valueobjects.NodeID) []valueobjects.NodeID {
	visited := make(map[string]bool)
	visited[nodeID.String()] = true

	var descendants []valueobjects.NodeID
	queue := []valueobjects.NodeID{nodeID}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, next := range g.outgoing[current.String()] {
			if !visited[next.String()] {
				visited[next.String()] = true
				descendants = append(descendants, next)
				queue = append(queue, next)
			}
		}
	}

	return descendants
}

// HasCycle reports whether the graph as built contains any directed cycle.
// Iterative three-color DFS, independent of the incremental guard above,
// so tests can cross-check one against the other.
func (g *ContextGraph) HasCycle() bool {
	const (
		white = 0 // unvisited
		gray  = 1 // on the current DFS path
		black = 2 // fully explored
	)

	color := make(map[string]int)

	var stack []string
	for start := range g.outgoing {
		if color[start] != white {
			continue
		}

		// Each stack entry is revisited once on the way back out
		stack = append(stack[:0], start)
		for len(stack) > 0 {
			node := stack[len(stack)-1]
			if color[node] == white {
				color[node] = gray
				for _, next := range g.outgoing[node] {
					switch color[next.String()] {
					case gray:
						return true
					case white:
						stack = append(stack, next.String())
					}
				}
			} else {
				stack = stack[:len(stack)-1]
				if color[node] == gray {
					color[node] = black
				}
			}
		}
	}

	return false
}

// EdgeCount returns the number of edges the graph was built from
func (g *ContextGraph) EdgeCount() int {
	count := 0
	for _, targets := range g.outgoing {
		count += len(targets)
	}
	return count
}
