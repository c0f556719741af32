package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/dd0wney/cluso-topology/pkg/model"
	"github.com/dd0wney/cluso-topology/pkg/model/modeltest"
	"github.com/dd0wney/cluso-topology/pkg/topology"
)

func twoNodeDocument() *model.Document {
	d := modeltest.TwoNodeModel().Document()
	return &d
}

// TestValidateDocument tests tag and referential validation of model documents
func TestValidateDocument(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(d *model.Document)
		expectError bool
		errorField  string
	}{
		{
			name:        "Valid document",
			mutate:      func(d *model.Document) {},
			expectError: false,
		},
		{
			name:        "Missing id - invalid",
			mutate:      func(d *model.Document) { d.ID = "" },
			expectError: true,
			errorField:  "ID: required",
		},
		{
			name:        "Unknown kind - invalid",
			mutate:      func(d *model.Document) { d.Kind = "somethingElse" },
			expectError: true,
			errorField:  "Kind: must be one of",
		},
		{
			name:        "Mapping without detector id - invalid",
			mutate:      func(d *model.Document) { d.Mappings[0].DetectorElement.ID = "" },
			expectError: true,
			errorField:  "Mappings[0].DetectorElement.ID: required",
		},
		{
			name:        "Unknown mapping kind - invalid",
			mutate:      func(d *model.Document) { d.Mappings[2].Kind = "magic" },
			expectError: true,
			errorField:  "Mappings[2].Kind: must be one of",
		},
		{
			name:        "Detector element missing - invalid",
			mutate:      func(d *model.Document) { d.Mappings[1].DetectorElement = model.NodeRef("ghost") },
			expectError: true,
			errorField:  `Mappings[1].DetectorElement: node:ghost not found in detector`,
		},
		{
			name:        "Refinement element of wrong kind - invalid",
			mutate:      func(d *model.Document) { d.Mappings[1].RefinementElement = model.EdgeRef("container") },
			expectError: true,
			errorField:  "Mappings[1].RefinementElement: edge:container not found in refinement structure",
		},
		{
			name:        "Duplicate mapping id - invalid",
			mutate:      func(d *model.Document) { d.Mappings[2].ID = d.Mappings[1].ID },
			expectError: true,
			errorField:  `Mappings[2].ID: duplicate mapping id "app-in"`,
		},
		{
			name: "Dangling relationship - invalid",
			mutate: func(d *model.Document) {
				d.Detector.Relationships[0].Target = "nowhere"
			},
			expectError: true,
			errorField:  `Detector.Relationships[0].Target: node "nowhere" does not exist`,
		},
		{
			name: "Duplicate node id - invalid",
			mutate: func(d *model.Document) {
				d.RefinementStructure.Nodes = append(d.RefinementStructure.Nodes, d.RefinementStructure.Nodes[0])
			},
			expectError: true,
			errorField:  `RefinementStructure.Nodes[3].ID: duplicate element id "container"`,
		},
		{
			name:        "Malformed type - invalid",
			mutate:      func(d *model.Document) { d.Detector.Nodes[0].Type = "{http://ex.org" },
			expectError: true,
			errorField:  "Detector.Nodes[0].Type: malformed type name",
		},
		{
			name: "Selective attribute mapping without property - invalid",
			mutate: func(d *model.Document) {
				d.Mappings[2].Mode = model.AttributeSelective
			},
			expectError: true,
			errorField:  "Mappings[2].DetectorProperty: required for SELECTIVE attribute mappings",
		},
		{
			name:        "Relation mapping without direction - invalid",
			mutate:      func(d *model.Document) { d.Mappings[1].Direction = "" },
			expectError: true,
			errorField:  "Mappings[1].Direction: required for relation mappings",
		},
		{
			name: "Permutation option with unknown node - invalid",
			mutate: func(d *model.Document) {
				d.PermutationOptions = [][]string{{"app", "ghost"}}
			},
			expectError: true,
			errorField:  `PermutationOptions[0]: detector node "ghost" does not exist`,
		},
		{
			name: "Component set of known nodes",
			mutate: func(d *model.Document) {
				d.ComponentSets = [][]string{{"app", "host"}}
			},
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := twoNodeDocument()
			tt.mutate(d)

			err := ValidateDocument(d)
			if tt.expectError {
				if err == nil {
					t.Fatalf("Expected error but got none")
				}
				if !strings.Contains(err.Error(), tt.errorField) {
					t.Errorf("Expected error containing %q, got %q", tt.errorField, err.Error())
				}
			} else if err != nil {
				t.Errorf("Expected no error but got: %v", err)
			}
		})
	}
}

func TestValidateDocument_ReportsEveryProblem(t *testing.T) {
	d := twoNodeDocument()
	d.Mappings[0].DetectorElement = model.NodeRef("ghost1")
	d.Mappings[1].DetectorElement = model.NodeRef("ghost2")

	err := ValidateDocument(d)
	if err == nil {
		t.Fatal("Expected error")
	}
	for _, want := range []string{"Mappings[0].DetectorElement", "Mappings[1].DetectorElement"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Expected %s in %q", want, err.Error())
		}
	}

	var fe *FieldError
	if !errors.As(err, &fe) {
		t.Fatal("Expected FieldError")
	}
	if fe.Field != "Mappings[0].DetectorElement" {
		t.Errorf("First field = %q", fe.Field)
	}
}

func TestValidateDocument_ThreeTier(t *testing.T) {
	d := modeltest.ThreeTierModel().Document()

	if err := ValidateDocument(&d); err != nil {
		t.Errorf("Expected fixture to be valid, got %v", err)
	}
}

func TestValidateDocument_Nil(t *testing.T) {
	if err := ValidateDocument(nil); err == nil {
		t.Error("Expected error for nil document")
	}
}

// TestValidateTemplate tests topology template validation
func TestValidateTemplate(t *testing.T) {
	valid := topology.Template{
		Nodes: []topology.NodeTemplate{
			{ID: "a", Type: "{http://ex.org}A", Properties: map[string]string{"port": "80"}},
			{ID: "b", Type: "B"},
		},
		Relationships: []topology.RelationshipTemplate{
			{ID: "a-b", Type: "{http://ex.org}hostedOn", Source: "a", Target: "b"},
		},
	}

	if err := ValidateTemplate(&valid); err != nil {
		t.Errorf("Expected valid template, got %v", err)
	}

	missingType := valid
	missingType.Nodes = []topology.NodeTemplate{{ID: "a"}}
	missingType.Relationships = nil
	err := ValidateTemplate(&missingType)
	if err == nil || !strings.Contains(err.Error(), "Nodes[0].Type: required") {
		t.Errorf("Expected required type error, got %v", err)
	}

	badKey := topology.Template{Nodes: []topology.NodeTemplate{{ID: "a", Type: "A", Properties: map[string]string{"1bad": "x"}}}}
	err = ValidateTemplate(&badKey)
	if err == nil || !strings.Contains(err.Error(), "Template.Nodes[0].Properties") {
		t.Errorf("Expected property key error, got %v", err)
	}

	if err := ValidateTemplate(nil); err == nil {
		t.Error("Expected error for nil template")
	}
}

// TestValidatePropertyKey tests property key validation
func TestValidatePropertyKey(t *testing.T) {
	tests := []struct {
		key         string
		expectError bool
	}{
		{"name", false},
		{"_private", false},
		{"max.connections", false},
		{"tls-mode", false},
		{"", true},
		{"1st", true},
		{"has space", true},
		{strings.Repeat("k", 101), true},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			err := ValidatePropertyKey(tt.key)
			if (err != nil) != tt.expectError {
				t.Errorf("ValidatePropertyKey(%q) error = %v, expectError %v", tt.key, err, tt.expectError)
			}
		})
	}
}
