package workflow_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smilemakc/outreach-engine/internal/domain"
	"github.com/smilemakc/outreach-engine/pkg/workflow"
)

const sampleGraphJSON = `{
  "nodes": [
    {"id": "a", "kind": "profile_visit", "config": {}},
    {"id": "ui-1", "kind": "addStep", "config": {}},
    {"id": "b", "kind": "like_post", "config": {"recentPostDays": 7}},
    {"id": "c", "kind": "send_connection_request", "config": {}},
    {"id": "d", "kind": "send_followup", "config": {}},
    {"id": "e", "kind": "withdraw_request", "config": {}}
  ],
  "edges": [
    {"source": "a", "target": "ui-1"},
    {"source": "ui-1", "target": "b"},
    {"source": "a", "target": "b", "delay": {"magnitude": 15, "unit": "m"}},
    {"source": "b", "target": "c", "delay": {"magnitude": 2, "unit": "d"}},
    {"source": "c", "target": "d", "condition": {"branch": "positive"}},
    {"source": "c", "target": "e", "condition": {"branch": "negative"}}
  ]
}`

func TestParseJSON_AndBuild(t *testing.T) {
	def, err := workflow.ParseJSON([]byte(sampleGraphJSON))
	require.NoError(t, err)
	require.Len(t, def.Nodes, 6)
	require.Len(t, def.Edges, 6)

	nodes, edges, err := workflow.Build(def, "camp-1")
	require.NoError(t, err)
	require.Len(t, nodes, 6)
	require.Len(t, edges, 6)

	var delayEdge *domain.Edge
	for _, e := range edges {
		if e.FromNodeID() == "a" && e.ToNodeID() == "b" {
			delayEdge = e
		}
	}
	require.NotNil(t, delayEdge)
	assert.Equal(t, "15m0s", delayEdge.Delay().Duration)

	var positive, negative *domain.Edge
	for _, e := range edges {
		switch e.ToNodeID() {
		case "d":
			positive = e
		case "e":
			negative = e
		}
	}
	require.NotNil(t, positive)
	require.NotNil(t, negative)
	assert.Equal(t, domain.EdgeBranchPositive, positive.Branch())
	assert.Equal(t, domain.EdgeBranchNegative, negative.Branch())
}

func TestParseYAML(t *testing.T) {
	data := []byte(`
nodes:
  - id: a
    kind: profile_visit
edges:
  - source: a
    target: a
    delay:
      magnitude: 1
      unit: w
`)
	def, err := workflow.ParseYAML(data)
	require.NoError(t, err)
	require.Len(t, def.Nodes, 1)
	require.Len(t, def.Edges, 1)
	assert.Equal(t, "w", def.Edges[0].Delay.Unit)
}

func TestBuild_RejectsUnknownDelayUnit(t *testing.T) {
	def := workflow.Definition{
		Nodes: []workflow.NodeDef{{ID: "a", Kind: "profile_visit"}, {ID: "b", Kind: "like_post"}},
		Edges: []workflow.EdgeDef{{Source: "a", Target: "b", Delay: &workflow.DelayDef{Magnitude: 1, Unit: "y"}}},
	}
	_, _, err := workflow.Build(def, "camp-1")
	assert.Error(t, err)
}

func TestBuild_RejectsInvalidConditionBranch(t *testing.T) {
	def := workflow.Definition{
		Nodes: []workflow.NodeDef{{ID: "a", Kind: "send_connection_request"}, {ID: "b", Kind: "send_followup"}},
		Edges: []workflow.EdgeDef{{Source: "a", Target: "b", Condition: &workflow.ConditionDef{Branch: "sideways"}}},
	}
	_, _, err := workflow.Build(def, "camp-1")
	assert.Error(t, err)
}
