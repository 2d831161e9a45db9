package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smilemakc/outreach-engine/internal/domain"
)

func node(id string, kind domain.NodeKind) *domain.Node {
	return domain.NewNode(id, "campaign-1", kind, id, nil)
}

func edge(id, from, to string, branch domain.EdgeBranch) *domain.Edge {
	return domain.NewEdge(id, "campaign-1", from, to, branch, nil)
}

func TestBuild_StripsPlaceholderNodes(t *testing.T) {
	nodes := []*domain.Node{
		node("a", domain.NodeKindProfileVisit),
		node("ui-1", "addStep"),
		node("b", domain.NodeKindLikePost),
	}
	edges := []*domain.Edge{
		edge("e1", "a", "ui-1", domain.EdgeBranchDefault),
		edge("e2", "ui-1", "b", domain.EdgeBranchDefault),
		edge("e3", "a", "b", domain.EdgeBranchDefault),
	}

	g := Build(nodes, edges, "campaign-1")

	assert.Len(t, g.Snapshot().Nodes(), 2)
	assert.Len(t, g.Snapshot().Edges(), 1)
	assert.Nil(t, g.Node("ui-1"))
}

func TestValidate_HappyPathChain(t *testing.T) {
	nodes := []*domain.Node{
		node("a", domain.NodeKindProfileVisit),
		node("b", domain.NodeKindLikePost),
		node("c", domain.NodeKindSendConnectionRequest),
	}
	edges := []*domain.Edge{
		edge("e1", "a", "b", domain.EdgeBranchDefault),
		edge("e2", "b", "c", domain.EdgeBranchDefault),
	}

	g := Build(nodes, edges, "campaign-1")
	require.NoError(t, Validate(g))
	require.Len(t, g.SourceNodes(), 1)
	assert.Equal(t, "a", g.SourceNodes()[0].ID())
}

func TestValidate_RejectsCycle(t *testing.T) {
	nodes := []*domain.Node{
		node("a", domain.NodeKindProfileVisit),
		node("b", domain.NodeKindLikePost),
	}
	edges := []*domain.Edge{
		edge("e1", "a", "b", domain.EdgeBranchDefault),
		edge("e2", "b", "a", domain.EdgeBranchDefault),
	}

	g := Build(nodes, edges, "campaign-1")
	err := Validate(g)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CYCLIC_DEPENDENCY")
}

func TestValidate_RequiresSourceNode(t *testing.T) {
	nodes := []*domain.Node{
		node("a", domain.NodeKindProfileVisit),
		node("b", domain.NodeKindLikePost),
	}
	edges := []*domain.Edge{
		edge("e1", "a", "b", domain.EdgeBranchDefault),
		edge("e2", "b", "a", domain.EdgeBranchDefault),
	}

	g := Build(nodes, edges, "campaign-1")
	// Both nodes have an incoming edge; this is also a cycle, but even
	// setting that aside the graph has no entry point.
	assert.Empty(t, g.SourceNodes())
}

func TestValidate_ConditionalNodeNeedsBothBranches(t *testing.T) {
	nodes := []*domain.Node{
		node("a", domain.NodeKindSendConnectionRequest),
		node("b", domain.NodeKindCondition),
		node("c", domain.NodeKindSendFollowup),
	}
	edges := []*domain.Edge{
		edge("e1", "a", "b", domain.EdgeBranchDefault),
		edge("e2", "b", "c", domain.EdgeBranchPositive),
	}

	g := Build(nodes, edges, "campaign-1")
	err := Validate(g)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one positive and one negative")
}

func TestValidate_AllowsConditionalBranchingOnNonConditionKind(t *testing.T) {
	// A SendConnectionRequest node branches on its own success/failure via
	// +ve/-ve edges, with no dedicated Condition node involved at all.
	nodes := []*domain.Node{
		node("a", domain.NodeKindProfileVisit),
		node("c", domain.NodeKindSendConnectionRequest),
		node("d", domain.NodeKindSendFollowup),
		node("e", domain.NodeKindWithdrawRequest),
	}
	edges := []*domain.Edge{
		edge("e1", "a", "c", domain.EdgeBranchDefault),
		edge("e2", "c", "d", domain.EdgeBranchPositive),
		edge("e3", "c", "e", domain.EdgeBranchNegative),
	}

	g := Build(nodes, edges, "campaign-1")
	assert.NoError(t, Validate(g))
}

func TestValidate_RejectsMixedConditionalAndPlainEdges(t *testing.T) {
	nodes := []*domain.Node{
		node("a", domain.NodeKindCondition),
		node("b", domain.NodeKindSendFollowup),
		node("c", domain.NodeKindWithdrawRequest),
		node("d", domain.NodeKindWebhook),
	}
	edges := []*domain.Edge{
		edge("e1", "a", "b", domain.EdgeBranchPositive),
		edge("e2", "a", "c", domain.EdgeBranchNegative),
		edge("e3", "a", "d", domain.EdgeBranchDefault),
	}

	g := Build(nodes, edges, "campaign-1")
	err := Validate(g)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mixes conditional")
}
