// Package dag provides the dependency graph used to order standard
// attributes within an operation: requirement edges are hard constraints,
// and a caller-supplied comparator breaks ties deterministically (the
// convention uses it to put obligatory attributes before optional ones).
// Cycles surface at sort time so conventions fail at construction, not
// during a create call.
package dag

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// node is a single vertex with its dependency links.
type node struct {
	id         string
	deps       map[string]*node
	dependents map[string]*node
}

// Graph is a directed dependency graph keyed by string IDs.
type Graph struct {
	mutex sync.RWMutex
	nodes map[string]*node
}

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*node),
	}
}

// AddNode adds a new node with the given ID to the graph. If a node with
// the same ID already exists, the function does nothing.
func (g *Graph) AddNode(id string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if _, ok := g.nodes[id]; ok {
		return
	}

	g.nodes[id] = &node{
		id:         id,
		deps:       make(map[string]*node),
		dependents: make(map[string]*node),
	}
}

// AddEdge creates a directed edge from the `fromID` node to the `toID`
// node, signifying that `toID` depends on `fromID`. An error is returned
// if either node does not exist or if the edge would be self-referential.
func (g *Graph) AddEdge(fromID, toID string) error {
	if fromID == toID {
		return fmt.Errorf("self-referential edge not allowed: %s -> %s", fromID, fromID)
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()

	fromNode, ok := g.nodes[fromID]
	if !ok {
		return fmt.Errorf("source node not found: %s", fromID)
	}

	toNode, ok := g.nodes[toID]
	if !ok {
		return fmt.Errorf("destination node not found: %s", toID)
	}

	toNode.deps[fromID] = fromNode
	fromNode.dependents[toID] = toNode

	return nil
}

// Dependencies returns a sorted slice of node IDs that the given node
// depends on.
func (g *Graph) Dependencies(id string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}

	deps := make([]string, 0, len(n.deps))
	for depID := range n.deps {
		deps = append(deps, depID)
	}
	sort.Strings(deps)
	return deps, nil
}

// TopoSort returns the node IDs in an order where every node appears
// after all of its dependencies. Among the nodes that are ready at any
// point, the comparator decides which goes first, making the result fully
// deterministic; a nil comparator falls back to lexicographic order. A
// cycle yields an error naming the nodes involved.
func (g *Graph) TopoSort(less func(a, b string) bool) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	if less == nil {
		less = func(a, b string) bool { return a < b }
	}

	remaining := make(map[string]int, len(g.nodes))
	for id, n := range g.nodes {
		remaining[id] = len(n.deps)
	}

	order := make([]string, 0, len(g.nodes))
	for len(remaining) > 0 {
		// Pick the best node among those with no unsorted dependencies.
		best := ""
		found := false
		for id, indeg := range remaining {
			if indeg != 0 {
				continue
			}
			if !found || less(id, best) {
				best = id
				found = true
			}
		}
		if !found {
			// Every remaining node still waits on another one: a cycle.
			stuck := make([]string, 0, len(remaining))
			for id := range remaining {
				stuck = append(stuck, id)
			}
			sort.Strings(stuck)
			return nil, fmt.Errorf("dependency cycle involving: %s", strings.Join(stuck, ", "))
		}

		order = append(order, best)
		delete(remaining, best)
		for depID := range g.nodes[best].dependents {
			if _, ok := remaining[depID]; ok {
				remaining[depID]--
			}
		}
	}
	return order, nil
}
