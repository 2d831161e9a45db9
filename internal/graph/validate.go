package graph

import (
	"github.com/smilemakc/outreach-engine/internal/domain"
	"github.com/smilemakc/outreach-engine/internal/domain/errors"
)

// Validate checks the structural invariants against the stripped graph g:
// acyclic, at least one source node, complete conditional branches, and no
// mixing of conditional and plain edges. It is run once, at
// campaign activation, against the graph snapshot that will be frozen for
// the campaign's lifetime.
func Validate(g *Graph) error {
	if g.HasCycle() {
		return errors.NewValidationError("CYCLIC_DEPENDENCY", "graph contains a cycle")
	}
	if len(g.SourceNodes()) == 0 {
		return errors.NewValidationError("NO_SOURCE_NODE", "graph has no node without incoming edges")
	}
	for _, n := range g.snapshot.Nodes() {
		if err := validateOutgoingEdges(n, g.EdgesFrom(n.ID())); err != nil {
			return err
		}
	}
	return nil
}

// validateOutgoingEdges enforces that a conditional source node has exactly
// one positive and one negative outgoing edge, and that a node's outgoing
// edges are either all conditional or all plain, never mixed. Whether a
// node is "conditional" is a property of its outgoing edges, not its kind:
// a graph may branch a SendConnectionRequest node on its own
// success/failure the same way a dedicated Condition node branches on an
// expr-lang check, so any node kind may carry conditional edges.
func validateOutgoingEdges(n *domain.Node, edges []*domain.Edge) error {
	if len(edges) == 0 {
		return nil
	}

	var positive, negative, plain int
	for _, e := range edges {
		switch e.Branch() {
		case domain.EdgeBranchPositive:
			positive++
		case domain.EdgeBranchNegative:
			negative++
		default:
			plain++
		}
	}

	conditional := positive + negative
	if conditional > 0 && plain > 0 {
		return errors.NewValidationError("MIXED_EDGE_KINDS", "node "+n.ID()+" mixes conditional and plain outgoing edges")
	}

	if conditional > 0 && (positive != 1 || negative != 1) {
		return errors.NewValidationError("INCOMPLETE_BRANCH",
			"conditional node "+n.ID()+" must have exactly one positive and one negative outgoing edge")
	}

	return nil
}
