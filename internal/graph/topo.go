package graph

import (
	"container/heap"
	"fmt"
	"strings"

	"github.com/seaworthy/cargoship/internal/workspace"
)

// CycleError reports that no publish order exists. Chains holds one
// rendered cycle per strongly-connected component of size >= 2, e.g.
// "x -> y -> x", sorted by leading package name.
type CycleError struct {
	Chains []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("circular dependency detected: %s", strings.Join(e.Chains, "; "))
}

// Sort returns the workspace packages in dependency-first order.
//
// Kahn's algorithm with a min-heap over node handles: handles are
// assigned in sorted name order at build time, so ties among packages
// whose dependencies are all satisfied resolve alphabetically and the
// output is identical across runs for identical input.
//
// When no order exists, Sort returns a *CycleError naming every
// mutually-cyclic package group.
func Sort(g *Graph, ws *workspace.Workspace) ([]*workspace.Package, error) {
	indegree := make([]int, len(g.nodes))
	for _, n := range g.nodes {
		for _, to := range n.out {
			indegree[to]++
		}
	}

	ready := &intHeap{}
	for h := range g.nodes {
		if indegree[h] == 0 {
			heap.Push(ready, h)
		}
	}

	order := make([]*workspace.Package, 0, len(g.nodes))
	for ready.Len() > 0 {
		h := heap.Pop(ready).(int)
		order = append(order, ws.Packages[g.nodes[h].name])
		for _, to := range g.nodes[h].out {
			indegree[to]--
			if indegree[to] == 0 {
				heap.Push(ready, to)
			}
		}
	}

	if len(order) < len(g.nodes) {
		return nil, &CycleError{Chains: g.cycleChains()}
	}
	return order, nil
}

// intHeap is a min-heap of node handles.
type intHeap []int

func (h intHeap) Len() int            { return len(h) }
func (h intHeap) Less(i, j int) bool  { return h[i] < h[j] }
func (h intHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *intHeap) Push(x interface{}) { *h = append(*h, x.(int)) }
func (h *intHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
