package topology

import "fmt"

// ElementKind distinguishes nodes from edges in cross-graph references.
type ElementKind int

const (
	NodeElement ElementKind = iota
	EdgeElement
)

func (k ElementKind) String() string {
	if k == EdgeElement {
		return "edge"
	}
	return "node"
}

func (k ElementKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *ElementKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "node", "":
		*k = NodeElement
	case "edge":
		*k = EdgeElement
	default:
		return fmt.Errorf("unknown element kind %q", text)
	}
	return nil
}

// Policy is a behavior marker attached to a node or edge. Ref is optional.
type Policy struct {
	Name string
	Type QName
	Ref  QName
}

// Artifact is a deployment artifact attached to a node.
type Artifact struct {
	Name string
	Type QName
	Ref  QName
}

// Node is a typed component of a topology.
type Node struct {
	ID         string
	Name       string
	Type       QName
	Properties map[string]string
	Policies   []Policy
	Artifacts  []Artifact
}

// Edge is a typed, directed relation between two nodes of the same graph.
type Edge struct {
	ID         string
	Type       QName
	Source     string
	Target     string
	Properties map[string]string
	Policies   []Policy
}

// Clone returns a deep copy of n.
func (n *Node) Clone() *Node {
	c := *n
	c.Properties = cloneProperties(n.Properties)
	c.Policies = clonePolicies(n.Policies)
	if n.Artifacts != nil {
		c.Artifacts = make([]Artifact, len(n.Artifacts))
		copy(c.Artifacts, n.Artifacts)
	}
	return &c
}

// Clone returns a deep copy of e.
func (e *Edge) Clone() *Edge {
	c := *e
	c.Properties = cloneProperties(e.Properties)
	c.Policies = clonePolicies(e.Policies)
	return &c
}

// Property returns the value stored under key, matching keys exactly.
func (n *Node) Property(key string) (string, bool) {
	v, ok := n.Properties[key]
	return v, ok
}

// SetProperty sets a property, allocating the map on first use.
func (n *Node) SetProperty(key, value string) {
	if n.Properties == nil {
		n.Properties = make(map[string]string)
	}
	n.Properties[key] = value
}

// HasPolicyType reports whether a policy of the given type is attached.
func HasPolicyType(policies []Policy, t QName) bool {
	for _, p := range policies {
		if p.Type == t {
			return true
		}
	}
	return false
}

func cloneProperties(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func clonePolicies(in []Policy) []Policy {
	if in == nil {
		return nil
	}
	out := make([]Policy, len(in))
	copy(out, in)
	return out
}
