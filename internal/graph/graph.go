// Package graph builds the workspace dependency graph and computes the
// publish order.
//
// Nodes are package names held in an arena indexed by integer handle,
// with a separate name-to-handle lookup. An edge A -> B means B depends
// on A, so a topological order of the graph visits dependencies before
// dependents.
package graph

import (
	"sort"

	"github.com/seaworthy/cargoship/internal/workspace"
)

// Graph is the dependency graph over workspace package names.
type Graph struct {
	nodes []node
	index map[string]int
}

type node struct {
	name string
	// out lists the handles of this node's dependents, in insertion
	// order, deduplicated.
	out []int
}

// Build converts a workspace into its dependency graph.
//
// For each package P and dependency name D:
//   - D == P's own name: dropped (a self-reference is not a cycle);
//   - D names another workspace package Q: edge Q -> P;
//   - otherwise D is external and ignored.
//
// Nodes are inserted in sorted name order so node handles are
// deterministic for a given workspace; this is what makes tie-breaking
// in Sort reproducible.
func Build(ws *workspace.Workspace) *Graph {
	names := ws.Names()

	g := &Graph{
		nodes: make([]node, 0, len(names)),
		index: make(map[string]int, len(names)),
	}
	for _, name := range names {
		g.index[name] = len(g.nodes)
		g.nodes = append(g.nodes, node{name: name})
	}

	for _, name := range names {
		to := g.index[name]
		seen := make(map[int]bool)
		for _, dep := range ws.Packages[name].Dependencies {
			if dep == name {
				continue
			}
			from, ok := g.index[dep]
			if !ok || seen[from] {
				continue
			}
			seen[from] = true
			g.nodes[from].out = append(g.nodes[from].out, to)
		}
	}

	return g
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Name returns the package name for a node handle.
func (g *Graph) Name(h int) string {
	return g.nodes[h].name
}

// Dependents returns the names of the packages that depend on name.
func (g *Graph) Dependents(name string) []string {
	h, ok := g.index[name]
	if !ok {
		return nil
	}
	deps := make([]string, 0, len(g.nodes[h].out))
	for _, to := range g.nodes[h].out {
		deps = append(deps, g.nodes[to].name)
	}
	sort.Strings(deps)
	return deps
}
