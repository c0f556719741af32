package refinement

import (
	"context"

	"github.com/dd0wney/cluso-topology/pkg/isomorphism"
	"github.com/dd0wney/cluso-topology/pkg/model"
	"github.com/dd0wney/cluso-topology/pkg/topology"
)

// Candidate is one occurrence of a refinement model's detector in the
// topology. It is only valid during the iteration that found it.
type Candidate struct {
	ID       int
	Mapping  *isomorphism.GraphMapping
	Detector *topology.Graph
	Model    *model.RefinementModel
}

// TopologyNode returns the topology node matched by a detector node.
func (c *Candidate) TopologyNode(detectorID string) string {
	id, _ := c.Mapping.Node(detectorID)
	return id
}

// Chooser selects the candidate to apply. Returning nil ends the run.
type Chooser interface {
	Choose(ctx context.Context, candidates []*Candidate, topo *topology.Graph) (*Candidate, error)
}

// ChooserFunc adapts a function to Chooser.
type ChooserFunc func(ctx context.Context, candidates []*Candidate, topo *topology.Graph) (*Candidate, error)

func (f ChooserFunc) Choose(ctx context.Context, candidates []*Candidate, topo *topology.Graph) (*Candidate, error) {
	return f(ctx, candidates, topo)
}

// FirstChooser applies the candidate with the lowest ID.
type FirstChooser struct{}

func (FirstChooser) Choose(_ context.Context, candidates []*Candidate, _ *topology.Graph) (*Candidate, error) {
	var first *Candidate
	for _, c := range candidates {
		if first == nil || c.ID < first.ID {
			first = c
		}
	}
	return first, nil
}

// NoneChooser never applies anything. Runs with it only report what matched.
type NoneChooser struct{}

func (NoneChooser) Choose(context.Context, []*Candidate, *topology.Graph) (*Candidate, error) {
	return nil, nil
}
