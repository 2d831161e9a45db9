// Package graph builds and validates the per-campaign workflow graph: the
// fixed set of outreach nodes and edges a lead DAG interpreter walks.
package graph

import (
	"github.com/smilemakc/outreach-engine/internal/domain"
)

// placeholderKind is the UI-only node kind that must be stripped, along
// with any edge touching it, before a graph is built.
const placeholderKind = "addStep"

// Graph is an adjacency-indexed view over a domain.WorkflowGraph, used for
// cycle detection and edge lookups during validation and interpretation.
type Graph struct {
	snapshot     *domain.WorkflowGraph
	forwardEdges map[string][]*domain.Edge
	reverseEdges map[string][]*domain.Edge
}

// Build strips UI-only placeholder nodes and the edges touching them, then
// indexes the remaining nodes and edges for traversal.
func Build(nodes []*domain.Node, edges []*domain.Edge, campaignID string) *Graph {
	strippedNodes, strippedEdges := stripPlaceholders(nodes, edges)
	snapshot := domain.NewWorkflowGraph(campaignID, strippedNodes, strippedEdges)

	g := &Graph{
		snapshot:     snapshot,
		forwardEdges: make(map[string][]*domain.Edge),
		reverseEdges: make(map[string][]*domain.Edge),
	}
	for _, e := range strippedEdges {
		g.forwardEdges[e.FromNodeID()] = append(g.forwardEdges[e.FromNodeID()], e)
		g.reverseEdges[e.ToNodeID()] = append(g.reverseEdges[e.ToNodeID()], e)
	}
	return g
}

// stripPlaceholders drops addStep nodes and any edge that touches one.
func stripPlaceholders(nodes []*domain.Node, edges []*domain.Edge) ([]*domain.Node, []*domain.Edge) {
	placeholder := make(map[string]bool)
	keptNodes := make([]*domain.Node, 0, len(nodes))
	for _, n := range nodes {
		if string(n.Kind()) == placeholderKind {
			placeholder[n.ID()] = true
			continue
		}
		keptNodes = append(keptNodes, n)
	}
	keptEdges := make([]*domain.Edge, 0, len(edges))
	for _, e := range edges {
		if placeholder[e.FromNodeID()] || placeholder[e.ToNodeID()] {
			continue
		}
		keptEdges = append(keptEdges, e)
	}
	return keptNodes, keptEdges
}

// Snapshot returns the stripped WorkflowGraph this Graph indexes.
func (g *Graph) Snapshot() *domain.WorkflowGraph { return g.snapshot }

// Node returns the node with the given ID, or nil.
func (g *Graph) Node(id string) *domain.Node { return g.snapshot.NodeByID(id) }

// EdgesFrom returns the outgoing edges of a node, in declaration order.
func (g *Graph) EdgesFrom(nodeID string) []*domain.Edge { return g.forwardEdges[nodeID] }

// EdgesTo returns the incoming edges of a node.
func (g *Graph) EdgesTo(nodeID string) []*domain.Edge { return g.reverseEdges[nodeID] }

// InDegree returns the number of incoming edges for a node.
func (g *Graph) InDegree(nodeID string) int { return len(g.reverseEdges[nodeID]) }

// SourceNodes returns all nodes with no incoming edges, in the order they
// appear in the snapshot (used as the interpreter's initial queue, giving
// the insertion-order tie-break the interpreter requires).
func (g *Graph) SourceNodes() []*domain.Node {
	var sources []*domain.Node
	for _, n := range g.snapshot.Nodes() {
		if g.InDegree(n.ID()) == 0 {
			sources = append(sources, n)
		}
	}
	return sources
}

// HasCycle reports whether the graph contains a cycle, via DFS.
func (g *Graph) HasCycle() bool {
	visited := make(map[string]bool)
	inStack := make(map[string]bool)
	for _, n := range g.snapshot.Nodes() {
		if !visited[n.ID()] {
			if g.hasCycleDFS(n.ID(), visited, inStack) {
				return true
			}
		}
	}
	return false
}

func (g *Graph) hasCycleDFS(nodeID string, visited, inStack map[string]bool) bool {
	visited[nodeID] = true
	inStack[nodeID] = true
	for _, e := range g.forwardEdges[nodeID] {
		next := e.ToNodeID()
		if !visited[next] {
			if g.hasCycleDFS(next, visited, inStack) {
				return true
			}
		} else if inStack[next] {
			return true
		}
	}
	inStack[nodeID] = false
	return false
}
