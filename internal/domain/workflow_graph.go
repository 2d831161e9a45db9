package domain

// WorkflowGraph is the immutable set of Nodes and Edges a campaign executes
// per lead. It is snapshotted once at campaign activation; UI-only
// placeholder nodes (kind "addStep") and the edges touching them must
// already be stripped before a WorkflowGraph is constructed.
type WorkflowGraph struct {
	campaignID string
	nodes      []*Node
	edges      []*Edge
}

// NewWorkflowGraph creates a WorkflowGraph from already-stripped nodes and
// edges. Graph invariant validation lives in the graph package, not
// here; this constructor only assembles the snapshot.
func NewWorkflowGraph(campaignID string, nodes []*Node, edges []*Edge) *WorkflowGraph {
	return &WorkflowGraph{
		campaignID: campaignID,
		nodes:      nodes,
		edges:      edges,
	}
}

// CampaignID returns the owning campaign's ID.
func (g *WorkflowGraph) CampaignID() string { return g.campaignID }

// Nodes returns the graph's nodes.
func (g *WorkflowGraph) Nodes() []*Node { return g.nodes }

// Edges returns the graph's edges.
func (g *WorkflowGraph) Edges() []*Edge { return g.edges }

// NodeByID looks up a node by ID, returning nil if absent.
func (g *WorkflowGraph) NodeByID(id string) *Node {
	for _, n := range g.nodes {
		if n.ID() == id {
			return n
		}
	}
	return nil
}

// EdgesFrom returns all edges whose source is nodeID, in graph order.
func (g *WorkflowGraph) EdgesFrom(nodeID string) []*Edge {
	var out []*Edge
	for _, e := range g.edges {
		if e.FromNodeID() == nodeID {
			out = append(out, e)
		}
	}
	return out
}
