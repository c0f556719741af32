package model_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/google/uuid"

	"github.com/dd0wney/cluso-topology/pkg/model"
	"github.com/dd0wney/cluso-topology/pkg/model/modeltest"
	"github.com/dd0wney/cluso-topology/pkg/topology"
)

func TestRefinementModel_CloneIsIndependent(t *testing.T) {
	m := modeltest.ThreeTierModel()
	m.PermutationOptions = []model.PermutationOption{{"1"}, {"2", "3"}}
	m.ComponentSets = []model.ComponentSet{{"2", "3"}}

	c := m.Clone()
	c.Mappings[0].(*model.RelationMapping).Direction = model.Outgoing
	c.PermutationOptions[1][0] = "x"
	c.ComponentSets[0] = append(c.ComponentSets[0], "1")
	if _, err := c.Detector.RemoveNode("1"); err != nil {
		t.Fatal(err)
	}

	if m.Mappings[0].(*model.RelationMapping).Direction != model.Incoming {
		t.Error("mapping aliased by clone")
	}
	if m.PermutationOptions[1][0] != "2" {
		t.Error("permutation options aliased by clone")
	}
	if len(m.ComponentSets[0]) != 2 {
		t.Error("component sets aliased by clone")
	}
	if !m.Detector.HasNode("1") {
		t.Error("detector aliased by clone")
	}
}

func TestMappingsOf(t *testing.T) {
	m := modeltest.ThreeTierModel()
	modeltest.AddAllPermutationMappings(m)

	tests := []struct {
		name string
		got  int
		want int
	}{
		{"relation", len(model.MappingsOf[*model.RelationMapping](m)), 3},
		{"attribute", len(model.MappingsOf[*model.AttributeMapping](m)), 1},
		{"artifact", len(model.MappingsOf[*model.DeploymentArtifactMapping](m)), 1},
		{"permutation", len(model.MappingsOf[*model.PermutationMapping](m)), 4},
		{"stay", len(model.MappingsOf[*model.StayMapping](m)), 0},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("MappingsOf %s = %d, want %d", tt.name, tt.got, tt.want)
		}
	}
}

func TestAddMappingAssignsID(t *testing.T) {
	m := modeltest.ThreeTierModel()
	m.AddMapping(&model.PermutationMapping{Base: model.Base{DetectorElement: model.NodeRef("3"), RefinementElement: model.NodeRef("16")}})

	last := m.Mappings[len(m.Mappings)-1]
	if _, err := uuid.Parse(last.MappingID()); err != nil {
		t.Errorf("generated ID %q is not a UUID: %v", last.MappingID(), err)
	}
}

func TestRemoveMappings(t *testing.T) {
	m := modeltest.ThreeTierModel()
	n := m.RemoveMappings(func(mp model.Mapping) bool { return mp.Detector().ID == "1" })
	if n != 2 {
		t.Errorf("removed %d, want 2", n)
	}
	if got := len(m.MappingsForDetector("1")); got != 0 {
		t.Errorf("mappings for 1 left: %d", got)
	}
}

func TestStayHelpers(t *testing.T) {
	m := modeltest.TwoNodeModel()

	if !m.IsStayPlaceholder("host") || m.IsStayPlaceholder("app") {
		t.Error("IsStayPlaceholder wrong")
	}
	if !m.IsStayingRefinementElement("host-stay") || m.IsStayingRefinementElement("runtime") {
		t.Error("IsStayingRefinementElement wrong")
	}
	if ref, ok := m.StayTarget("host-stay"); !ok || ref != model.NodeRef("host") {
		t.Errorf("StayTarget = %v, %v", ref, ok)
	}
}

func TestReverse(t *testing.T) {
	m := modeltest.TwoNodeModel()
	r := m.Reverse()

	if !r.Detector.HasNode("container") || !r.RefinementStructure.HasNode("app") {
		t.Fatal("graphs not swapped")
	}
	stay := model.MappingsOf[*model.StayMapping](r)[0]
	if stay.DetectorElement.ID != "host-stay" || stay.RefinementElement.ID != "host" {
		t.Errorf("stay mapping not reversed: %+v", stay.Base)
	}
	if m.Detector.HasNode("container") {
		t.Error("Reverse mutated the original")
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	m := modeltest.ThreeTierModel()
	modeltest.AddAllPermutationMappings(m)
	m.Mappings = append(m.Mappings, &model.BehaviorPatternMapping{
		Base:            model.Base{ID: "bpm", DetectorElement: model.NodeRef("2"), RefinementElement: model.NodeRef("13")},
		BehaviorPattern: "stateless",
		Property:        model.PropertyKV{Key: "state", Value: "none"},
	})
	m.PermutationOptions = []model.PermutationOption{{"1"}, {"2", "3"}}
	m.ComponentSets = []model.ComponentSet{{"2", "3"}}

	doc := m.Document()
	back, err := model.FromDocument(doc)
	if err != nil {
		t.Fatalf("FromDocument: %v", err)
	}
	if !reflect.DeepEqual(back.Document(), doc) {
		t.Errorf("document round trip mismatch")
	}
	if !reflect.DeepEqual(back.Mappings, m.Mappings) {
		t.Errorf("mappings differ after round trip")
	}
}

func TestFromDocument_UnknownMappingKind(t *testing.T) {
	doc := modeltest.ThreeTierModel().Document()
	doc.Mappings[0].Kind = "teleport"

	if _, err := model.FromDocument(doc); !errors.Is(err, model.ErrUnknownMappingKind) {
		t.Errorf("FromDocument error = %v, want ErrUnknownMappingKind", err)
	}
}

func TestRelationMapping_CanRedirect(t *testing.T) {
	base := topology.NewQName(modeltest.Namespace, "relType_base")
	derived := topology.NewQName(modeltest.Namespace, "relType_derived")
	client := modeltest.NodeType("Client")
	h, err := topology.NewHierarchy(map[topology.QName]topology.TypeDefinition{
		derived: {Kind: topology.RelationshipTypeKind, Name: derived, DerivedFrom: base},
	})
	if err != nil {
		t.Fatal(err)
	}

	clientNode := &topology.Node{ID: "c", Type: client}
	otherNode := &topology.Node{ID: "o", Type: modeltest.NodeType("Other")}
	incoming := &topology.Edge{ID: "e", Type: derived, Source: "c", Target: "d"}

	tests := []struct {
		name    string
		mapping model.RelationMapping
		other   *topology.Node
		want    bool
	}{
		{"incoming subtype", model.RelationMapping{RelationType: base, Direction: model.Incoming}, clientNode, true},
		{"wrong direction", model.RelationMapping{RelationType: base, Direction: model.Outgoing}, clientNode, false},
		{"unrelated type", model.RelationMapping{RelationType: modeltest.HostedOn, Direction: model.Incoming}, clientNode, false},
		{"valid source matches", model.RelationMapping{RelationType: base, Direction: model.Incoming, ValidSourceOrTarget: client}, clientNode, true},
		{"valid source mismatch", model.RelationMapping{RelationType: base, Direction: model.Incoming, ValidSourceOrTarget: client}, otherNode, false},
		{"any relation type", model.RelationMapping{Direction: model.Incoming}, otherNode, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.mapping.CanRedirect(incoming, "d", tt.other, h); got != tt.want {
				t.Errorf("CanRedirect() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKindOfAndContentMappings(t *testing.T) {
	tests := []struct {
		mapping model.Mapping
		kind    model.MappingKind
		content bool
	}{
		{&model.RelationMapping{}, model.RelationKind, true},
		{&model.AttributeMapping{}, model.AttributeKind, true},
		{&model.DeploymentArtifactMapping{}, model.DeploymentArtifactKind, true},
		{&model.StayMapping{}, model.StayKind, false},
		{&model.PermutationMapping{}, model.PermutationKind, false},
		{&model.BehaviorPatternMapping{}, model.BehaviorPatternKind, false},
	}
	for _, tt := range tests {
		if got := model.KindOf(tt.mapping); got != tt.kind {
			t.Errorf("KindOf(%T) = %s, want %s", tt.mapping, got, tt.kind)
		}
		if got := model.IsContentMapping(tt.mapping); got != tt.content {
			t.Errorf("IsContentMapping(%T) = %v", tt.mapping, got)
		}
	}
}
