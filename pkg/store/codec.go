package store

import (
	"encoding/json"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-topology/pkg/model"
	"github.com/dd0wney/cluso-topology/pkg/topology"
)

// MarshalYAML encodes a model as a YAML document.
func MarshalYAML(m *model.RefinementModel) ([]byte, error) {
	data, err := yaml.Marshal(m.Document())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal model: %w", err)
	}
	return data, nil
}

// UnmarshalYAML decodes a model written by MarshalYAML.
func UnmarshalYAML(data []byte) (*model.RefinementModel, error) {
	var doc model.Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal model: %w", err)
	}
	return model.FromDocument(doc)
}

// MarshalJSON encodes a model as a JSON document.
func MarshalJSON(m *model.RefinementModel) ([]byte, error) {
	data, err := json.Marshal(m.Document())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal model: %w", err)
	}
	return data, nil
}

// UnmarshalJSON decodes a model written by MarshalJSON.
func UnmarshalJSON(data []byte) (*model.RefinementModel, error) {
	var doc model.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal model: %w", err)
	}
	return model.FromDocument(doc)
}

// SortedDefinitions returns the definitions ordered by name.
func SortedDefinitions(defs map[topology.QName]topology.TypeDefinition) []topology.TypeDefinition {
	out := make([]topology.TypeDefinition, 0, len(defs))
	for _, d := range defs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name.String() < out[j].Name.String() })
	return out
}

// SortIDs orders element IDs by namespace, then name.
func SortIDs(ids []ElementID) {
	sort.Slice(ids, func(i, j int) bool {
		if ids[i].Namespace != ids[j].Namespace {
			return ids[i].Namespace < ids[j].Namespace
		}
		return ids[i].Name < ids[j].Name
	})
}
