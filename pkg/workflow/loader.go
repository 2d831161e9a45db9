package workflow

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/smilemakc/outreach-engine/internal/domain"
)

// ParseJSON decodes a campaign graph Definition from its persisted JSON
// form.
func ParseJSON(data []byte) (Definition, error) {
	var def Definition
	if err := json.Unmarshal(data, &def); err != nil {
		return Definition{}, fmt.Errorf("parse graph definition: %w", err)
	}
	return def, nil
}

// ParseYAML decodes a campaign graph Definition from YAML, for editors or
// fixtures that author graphs by hand rather than generating JSON.
func ParseYAML(data []byte) (Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return Definition{}, fmt.Errorf("parse graph definition: %w", err)
	}
	return def, nil
}

// Build converts a Definition into the domain.Node/domain.Edge slices
// internal/graph.Build indexes for a campaignID. UI-only "addStep"
// placeholder nodes pass through unchanged; stripping them is
// internal/graph's job, run once at campaign activation alongside graph
// validation.
func Build(def Definition, campaignID string) ([]*domain.Node, []*domain.Edge, error) {
	nodes := make([]*domain.Node, 0, len(def.Nodes))
	for _, n := range def.Nodes {
		nodes = append(nodes, domain.ReconstructNode(n.ID, campaignID, domain.NodeKind(n.Kind), n.ID, n.Config))
	}

	edges := make([]*domain.Edge, 0, len(def.Edges))
	for _, e := range def.Edges {
		var delay *domain.Delay
		if e.Delay != nil {
			dur, err := delayDuration(*e.Delay)
			if err != nil {
				return nil, nil, fmt.Errorf("edge %s->%s: %w", e.Source, e.Target, err)
			}
			delay = &domain.Delay{Duration: dur.String()}
		}

		branch := domain.EdgeBranchDefault
		if e.Condition != nil {
			switch e.Condition.Branch {
			case "positive":
				branch = domain.EdgeBranchPositive
			case "negative":
				branch = domain.EdgeBranchNegative
			default:
				return nil, nil, fmt.Errorf("edge %s->%s: invalid condition branch %q", e.Source, e.Target, e.Condition.Branch)
			}
		}

		id := e.ID
		if id == "" {
			id = uuid.NewString()
		}
		edges = append(edges, domain.NewEdge(id, campaignID, e.Source, e.Target, branch, delay))
	}

	return nodes, edges, nil
}

// delayDuration converts a persisted magnitude/unit pair into a
// time.Duration.
func delayDuration(d DelayDef) (time.Duration, error) {
	var unit time.Duration
	switch d.Unit {
	case "s":
		unit = time.Second
	case "m":
		unit = time.Minute
	case "h":
		unit = time.Hour
	case "d":
		unit = 24 * time.Hour
	case "w":
		unit = 7 * 24 * time.Hour
	default:
		return 0, fmt.Errorf("unknown delay unit %q", d.Unit)
	}
	return time.Duration(d.Magnitude) * unit, nil
}
