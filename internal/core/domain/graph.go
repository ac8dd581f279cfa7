// Package domain contains the core domain models of the incremental build engine.
package domain

import (
	"iter"
	"slices"
	"strings"

	"fortio.org/safecast"
	"go.trai.ch/zerr"
)

// CycleSeparator joins the files of a cycle reported by Graph.Cycles.
const CycleSeparator = " -> "

// NodeID indexes a file in a Graph arena.
type NodeID int32

// Graph is an arena of files with index-based dependency edges.
// Cycles are legal; every traversal tracks visited nodes explicitly.
type Graph struct {
	nodes []string
	index map[string]NodeID
	edges [][]NodeID
	// labels keeps every distinct edge per source, including several
	// references from one file to the same target.
	labels [][]edgeLabel
}

type edgeLabel struct {
	to   NodeID
	kind EdgeKind
	name string
}

// NewGraph creates a new empty Graph.
func NewGraph() *Graph {
	return &Graph{
		index: make(map[string]NodeID),
	}
}

// Node returns the ID of path, adding it to the arena if needed.
func (g *Graph) Node(path string) (NodeID, error) {
	if id, ok := g.index[path]; ok {
		return id, nil
	}
	id, err := safecast.Conv[NodeID](len(g.nodes))
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, "dependency graph is full"), "path", path)
	}
	g.nodes = append(g.nodes, path)
	g.edges = append(g.edges, nil)
	g.labels = append(g.labels, nil)
	g.index[path] = id
	return id, nil
}

// Lookup returns the ID of path if it is in the arena.
func (g *Graph) Lookup(path string) (NodeID, bool) {
	id, ok := g.index[path]
	return id, ok
}

// Path returns the file behind id.
func (g *Graph) Path(id NodeID) string {
	return g.nodes[id]
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// AddEdge records e. An identical edge is recorded once, and traversal sees
// each target of a node once however many references lead to it.
func (g *Graph) AddEdge(e DependencyEdge) error {
	from, err := g.Node(e.From)
	if err != nil {
		return err
	}
	to, err := g.Node(e.Path)
	if err != nil {
		return err
	}
	label := edgeLabel{to: to, kind: e.Kind, name: e.Name}
	if slices.Contains(g.labels[from], label) {
		return nil
	}
	g.labels[from] = append(g.labels[from], label)
	if !slices.Contains(g.edges[from], to) {
		g.edges[from] = append(g.edges[from], to)
	}
	return nil
}

// Successors returns the direct dependencies of id.
func (g *Graph) Successors(id NodeID) []NodeID {
	return g.edges[id]
}

// Reachable yields every node reachable from start, start included, in
// breadth-first order. Each node is yielded once.
func (g *Graph) Reachable(start NodeID) iter.Seq[NodeID] {
	return func(yield func(NodeID) bool) {
		visited := make([]bool, len(g.nodes))
		queue := []NodeID{start}
		visited[start] = true
		for len(queue) > 0 {
			id := queue[0]
			queue = queue[1:]
			if !yield(id) {
				return
			}
			for _, next := range g.edges[id] {
				if !visited[next] {
					visited[next] = true
					queue = append(queue, next)
				}
			}
		}
	}
}

// Edges yields every recorded edge, grouped by source in insertion order.
func (g *Graph) Edges() iter.Seq[DependencyEdge] {
	return func(yield func(DependencyEdge) bool) {
		for from, labels := range g.labels {
			for _, l := range labels {
				e := DependencyEdge{From: g.nodes[from], Path: g.nodes[l.to], Kind: l.kind, Name: l.name}
				if !yield(e) {
					return
				}
			}
		}
	}
}

// Cycles returns one path per back edge found by a depth-first walk from start,
// formatted as "a -> b -> a". A cycle is informational, never an error.
func (g *Graph) Cycles(start NodeID) []string {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make([]int, len(g.nodes))
	var path []NodeID
	var cycles []string

	var visit func(u NodeID)
	visit = func(u NodeID) {
		state[u] = visiting
		path = append(path, u)
		for _, v := range g.edges[u] {
			switch state[v] {
			case visiting:
				cycles = append(cycles, g.formatCycle(path, v))
			case unvisited:
				visit(v)
			}
		}
		state[u] = done
		path = path[:len(path)-1]
	}
	visit(start)
	return cycles
}

func (g *Graph) formatCycle(path []NodeID, back NodeID) string {
	start := slices.Index(path, back)
	parts := make([]string, 0, len(path)-start+1)
	for _, id := range path[start:] {
		parts = append(parts, g.nodes[id])
	}
	parts = append(parts, g.nodes[back])
	return strings.Join(parts, CycleSeparator)
}
