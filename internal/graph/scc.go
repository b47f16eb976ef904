package graph

import (
	"sort"
	"strings"
)

// cycleChains renders every strongly-connected component of size >= 2 as
// a cycle chain ("a -> b -> a"). Tarjan's algorithm; invoked only after
// the topological sort has already failed.
//
// Each chain is rotated so its lexicographically smallest member leads,
// and chains are sorted by that leading name, so the report is stable
// regardless of traversal order.
func (g *Graph) cycleChains() []string {
	n := len(g.nodes)
	const unvisited = -1

	index := make([]int, n)
	lowlink := make([]int, n)
	onStack := make([]bool, n)
	for i := range index {
		index[i] = unvisited
	}

	var (
		counter int
		stack   []int
		sccs    [][]int
	)

	var strongconnect func(v int)
	strongconnect = func(v int) {
		index[v] = counter
		lowlink[v] = counter
		counter++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.nodes[v].out {
			if index[w] == unvisited {
				strongconnect(w)
				if lowlink[w] < lowlink[v] {
					lowlink[v] = lowlink[w]
				}
			} else if onStack[w] {
				if index[w] < lowlink[v] {
					lowlink[v] = index[w]
				}
			}
		}

		if lowlink[v] == index[v] {
			var scc []int
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for v := 0; v < n; v++ {
		if index[v] == unvisited {
			strongconnect(v)
		}
	}

	var chains []string
	for _, scc := range sccs {
		if len(scc) < 2 {
			continue
		}

		// The stack pops in reverse DFS order; reverse it back so the
		// rendered chain follows the edge direction for simple cycles.
		names := make([]string, len(scc))
		for i, h := range scc {
			names[len(scc)-1-i] = g.nodes[h].name
		}

		// Rotate so the smallest name leads.
		min := 0
		for i, name := range names {
			if name < names[min] {
				min = i
			}
		}
		rotated := append(names[min:], names[:min]...)
		rotated = append(rotated, rotated[0])

		chains = append(chains, strings.Join(rotated, " -> "))
	}

	sort.Strings(chains)
	return chains
}
