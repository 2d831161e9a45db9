package domain

// Node represents a single step in a lead's outreach DAG.
type Node struct {
	id         string
	campaignID string
	kind       NodeKind
	name       string
	config     map[string]any
}

// NewNode creates a new Node instance.
func NewNode(id, campaignID string, kind NodeKind, name string, config map[string]any) *Node {
	return &Node{
		id:         id,
		campaignID: campaignID,
		kind:       kind,
		name:       name,
		config:     config,
	}
}

// ReconstructNode reconstructs a Node from persistence.
func ReconstructNode(id, campaignID string, kind NodeKind, name string, config map[string]any) *Node {
	return &Node{
		id:         id,
		campaignID: campaignID,
		kind:       kind,
		name:       name,
		config:     config,
	}
}

// ID returns the node ID.
func (n *Node) ID() string {
	return n.id
}

// CampaignID returns the campaign ID this node's graph belongs to.
func (n *Node) CampaignID() string {
	return n.campaignID
}

// Kind returns the kind of the node.
func (n *Node) Kind() NodeKind {
	return n.kind
}

// Name returns the display name of the node.
func (n *Node) Name() string {
	return n.name
}

// Config returns the raw configuration of the node.
func (n *Node) Config() map[string]any {
	return n.config
}
