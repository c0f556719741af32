// Package modeltest provides refinement models shared by tests across packages.
package modeltest

import (
	"github.com/dd0wney/cluso-topology/pkg/model"
	"github.com/dd0wney/cluso-topology/pkg/topology"
)

// Namespace used by every fixture type.
const Namespace = "http://ex.org"

var (
	HostedOn   = topology.NewQName(Namespace, "relType_hostedOn")
	ConnectsTo = topology.NewQName(Namespace, "relType_connectsTo")
	WarType    = topology.NewQName(Namespace, "artType_war")
)

// NodeType returns the fixture node type "{http://ex.org}nodeType_<suffix>".
func NodeType(suffix string) topology.QName {
	return topology.NewQName(Namespace, "nodeType_"+suffix)
}

func mustNode(g *topology.Graph, id string, t topology.QName) {
	if _, err := g.AddNode(topology.Node{ID: id, Type: t}); err != nil {
		panic(err)
	}
}

func mustEdge(g *topology.Graph, id, source, target string, t topology.QName) {
	if _, err := g.AddEdge(topology.Edge{ID: id, Type: t, Source: source, Target: target}); err != nil {
		panic(err)
	}
}

// ThreeTierModel returns the pattern refinement model
//
//	detector:  1 -hostedOn-> 2 -hostedOn-> 3
//	structure: 11 -connectsTo-> 12, 11 -hostedOn-> 13, 12 -hostedOn-> 14,
//	           13 -connectsTo-> 14, 13 -hostedOn-> 15, 14 -hostedOn-> 16,
//	           15 -hostedOn-> 16
//
// with relation mappings 1->11, 2->15, 3->15, a deployment artifact mapping
// 1->12 and an ALL attribute mapping 2->13.
func ThreeTierModel() *model.RefinementModel {
	m := model.New(model.PatternRefinementModel, Namespace, "1")

	for _, id := range []string{"1", "2", "3"} {
		mustNode(m.Detector, id, topology.NewQName(Namespace, "pattern_"+id))
	}
	mustEdge(m.Detector, "p1-p2", "1", "2", HostedOn)
	mustEdge(m.Detector, "p2-p3", "2", "3", HostedOn)

	for _, id := range []string{"11", "12", "13", "14", "15", "16"} {
		mustNode(m.RefinementStructure, id, NodeType(id))
	}
	mustEdge(m.RefinementStructure, "n11-n12", "11", "12", ConnectsTo)
	mustEdge(m.RefinementStructure, "n11-n13", "11", "13", HostedOn)
	mustEdge(m.RefinementStructure, "n12-n14", "12", "14", HostedOn)
	mustEdge(m.RefinementStructure, "n13-n14", "13", "14", ConnectsTo)
	mustEdge(m.RefinementStructure, "n13-n15", "13", "15", HostedOn)
	mustEdge(m.RefinementStructure, "n14-n16", "14", "16", HostedOn)
	mustEdge(m.RefinementStructure, "n15-n16", "15", "16", HostedOn)

	m.Mappings = []model.Mapping{
		&model.RelationMapping{
			Base:         model.Base{ID: "p1_to_n11", DetectorElement: model.NodeRef("1"), RefinementElement: model.NodeRef("11")},
			RelationType: ConnectsTo,
			Direction:    model.Incoming,
		},
		&model.DeploymentArtifactMapping{
			Base:         model.Base{ID: "p1_to_n12", DetectorElement: model.NodeRef("1"), RefinementElement: model.NodeRef("12")},
			ArtifactType: WarType,
		},
		&model.AttributeMapping{
			Base: model.Base{ID: "p2_to_n13", DetectorElement: model.NodeRef("2"), RefinementElement: model.NodeRef("13")},
			Mode: model.AttributeAll,
		},
		&model.RelationMapping{
			Base:         model.Base{ID: "p2_to_n15", DetectorElement: model.NodeRef("2"), RefinementElement: model.NodeRef("15")},
			RelationType: ConnectsTo,
			Direction:    model.Incoming,
		},
		&model.RelationMapping{
			Base:         model.Base{ID: "p3_to_n15", DetectorElement: model.NodeRef("3"), RefinementElement: model.NodeRef("15")},
			RelationType: ConnectsTo,
			Direction:    model.Incoming,
		},
	}
	return m
}

// AddSomePermutationMappings declares 2->14, 3->15 and 3->16.
func AddSomePermutationMappings(m *model.RefinementModel) {
	m.Mappings = append(m.Mappings,
		&model.PermutationMapping{Base: model.Base{ID: "p2_to_n14", DetectorElement: model.NodeRef("2"), RefinementElement: model.NodeRef("14")}},
		&model.PermutationMapping{Base: model.Base{ID: "p3_to_n15", DetectorElement: model.NodeRef("3"), RefinementElement: model.NodeRef("15")}},
		&model.PermutationMapping{Base: model.Base{ID: "p3_to_n16", DetectorElement: model.NodeRef("3"), RefinementElement: model.NodeRef("16")}},
	)
}

// AddAllPermutationMappings declares the mappings of AddSomePermutationMappings
// plus one that sends relation p1-p2 to node 14.
func AddAllPermutationMappings(m *model.RefinementModel) {
	AddSomePermutationMappings(m)
	m.Mappings = append(m.Mappings,
		&model.PermutationMapping{Base: model.Base{ID: "p1-p2_to_n14", DetectorElement: model.EdgeRef("p1-p2"), RefinementElement: model.NodeRef("14")}},
	)
}

// TwoNodeModel returns a topology fragment model whose detector is a
// mutable "app" hosted on a staying "host". The refinement structure
// replaces the app with a container running on a runtime that is hosted
// on the staying host.
func TwoNodeModel() *model.RefinementModel {
	m := model.New(model.TopologyFragmentRefinementModel, Namespace, "app-on-host")

	mustNode(m.Detector, "app", NodeType("App"))
	mustNode(m.Detector, "host", NodeType("Host"))
	mustEdge(m.Detector, "app-host", "app", "host", HostedOn)

	mustNode(m.RefinementStructure, "container", NodeType("Container"))
	mustNode(m.RefinementStructure, "runtime", NodeType("Runtime"))
	mustNode(m.RefinementStructure, "host-stay", NodeType("Host"))
	mustEdge(m.RefinementStructure, "container-runtime", "container", "runtime", HostedOn)
	mustEdge(m.RefinementStructure, "runtime-host", "runtime", "host-stay", HostedOn)

	m.Mappings = []model.Mapping{
		&model.StayMapping{Base: model.Base{ID: "stay-host", DetectorElement: model.NodeRef("host"), RefinementElement: model.NodeRef("host-stay")}},
		&model.RelationMapping{
			Base:         model.Base{ID: "app-in", DetectorElement: model.NodeRef("app"), RefinementElement: model.NodeRef("container")},
			RelationType: ConnectsTo,
			Direction:    model.Incoming,
		},
		&model.AttributeMapping{
			Base: model.Base{ID: "app-attrs", DetectorElement: model.NodeRef("app"), RefinementElement: model.NodeRef("container")},
			Mode: model.AttributeAll,
		},
	}
	return m
}
