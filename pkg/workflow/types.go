// Package workflow defines and loads the persisted campaign graph
// definition: the external JSON/YAML shape a campaign editor writes and
// this engine reads, distinct from the internal/domain.WorkflowGraph the
// interpreter actually walks.
package workflow

// Definition is a campaign's graph as persisted by the (out-of-scope)
// graph editor: a flat node list plus a flat edge list, no execution
// state. UI-only placeholder nodes (kind "addStep") may appear here; they
// are stripped by internal/graph.Build, not by this package, since
// stripping is part of graph indexing, not graph loading.
type Definition struct {
	Nodes []NodeDef `json:"nodes" yaml:"nodes"`
	Edges []EdgeDef `json:"edges" yaml:"edges"`
}

// NodeDef is one node in a persisted Definition.
type NodeDef struct {
	ID     string         `json:"id" yaml:"id"`
	Kind   string         `json:"kind" yaml:"kind"`
	Config map[string]any `json:"config" yaml:"config"`
}

// DelayDef is an edge's optional wait, expressed as the persisted
// magnitude/unit pair rather than a pre-computed duration.
type DelayDef struct {
	Magnitude int    `json:"magnitude" yaml:"magnitude"`
	Unit      string `json:"unit" yaml:"unit"` // s, m, h, d, w
}

// ConditionDef marks an edge as conditional and names which branch it
// follows.
type ConditionDef struct {
	Branch string `json:"branch" yaml:"branch"` // positive, negative
}

// EdgeDef is one edge in a persisted Definition. ID is optional; Build
// assigns one when the editor didn't.
type EdgeDef struct {
	ID        string        `json:"id,omitempty" yaml:"id,omitempty"`
	Source    string        `json:"source" yaml:"source"`
	Target    string        `json:"target" yaml:"target"`
	Delay     *DelayDef     `json:"delay,omitempty" yaml:"delay,omitempty"`
	Condition *ConditionDef `json:"condition,omitempty" yaml:"condition,omitempty"`
}
