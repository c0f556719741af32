package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dd0wney/cluso-topology/pkg/model"
	"github.com/dd0wney/cluso-topology/pkg/topology"
)

var (
	// validate is a singleton validator instance
	validate *validator.Validate

	// Validation constants
	MaxPropertyKey = 100
	MaxMappings    = 1000

	// Regular expressions
	propKeyPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_.\-]*$`)
)

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("qname", func(fl validator.FieldLevel) bool {
		_, err := topology.ParseQName(fl.Field().String())
		return err == nil
	})
}

// FieldError is a problem found at one field path of a document.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// collector accumulates field errors below a path prefix.
type collector struct {
	errs []error
}

func (c *collector) add(field, format string, args ...any) {
	c.errs = append(c.errs, &FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (c *collector) err() error {
	return errors.Join(c.errs...)
}

// ValidateDocument checks a persisted refinement model before it is turned
// into a model.RefinementModel. Struct tags are checked first; referential
// checks only run when the tags pass. Every problem is reported.
func ValidateDocument(doc *model.Document) error {
	if doc == nil {
		return errors.New("document cannot be nil")
	}

	// Validate using struct tags
	if err := validate.Struct(doc); err != nil {
		return formatValidationError(err)
	}

	if len(doc.Mappings) > MaxMappings {
		return fmt.Errorf("Mappings: maximum %d mappings allowed, got %d", MaxMappings, len(doc.Mappings))
	}

	c := &collector{}
	detector := checkTemplate(c, "Detector", doc.Detector)
	structure := checkTemplate(c, "RefinementStructure", doc.RefinementStructure)

	mappingIDs := map[string]bool{}
	for i, md := range doc.Mappings {
		field := fmt.Sprintf("Mappings[%d]", i)
		if mappingIDs[md.ID] {
			c.add(field+".ID", "duplicate mapping id %q", md.ID)
		}
		mappingIDs[md.ID] = true

		if !detector.has(md.DetectorElement) {
			c.add(field+".DetectorElement", "%s not found in detector", md.DetectorElement)
		}
		if !structure.has(md.RefinementElement) {
			c.add(field+".RefinementElement", "%s not found in refinement structure", md.RefinementElement)
		}
		checkMappingFields(c, field, md)
	}

	for i, o := range doc.PermutationOptions {
		checkDetectorNodes(c, fmt.Sprintf("PermutationOptions[%d]", i), o, detector)
	}
	for i, cs := range doc.ComponentSets {
		checkDetectorNodes(c, fmt.Sprintf("ComponentSets[%d]", i), cs, detector)
	}
	return c.err()
}

// ValidateTemplate checks a persisted topology: tags, type names, unique IDs
// and that every relationship connects existing nodes.
func ValidateTemplate(t *topology.Template) error {
	if t == nil {
		return errors.New("template cannot be nil")
	}
	if err := validate.Struct(t); err != nil {
		return formatValidationError(err)
	}
	c := &collector{}
	checkTemplate(c, "Template", *t)
	return c.err()
}

// ValidatePropertyKey validates a property key
func ValidatePropertyKey(key string) error {
	if key == "" {
		return errors.New("property key cannot be empty")
	}
	if len(key) > MaxPropertyKey {
		return fmt.Errorf("property key '%s' exceeds maximum length of %d characters", key, MaxPropertyKey)
	}
	if !propKeyPattern.MatchString(key) {
		return fmt.Errorf("property key '%s' is invalid (must start with letter or underscore, followed by alphanumeric, underscore, dot or dash)", key)
	}
	return nil
}

// elements indexes the IDs of one template.
type elements struct {
	nodes map[string]bool
	edges map[string]bool
}

func (e elements) has(ref model.ElementRef) bool {
	if ref.IsEdge() {
		return e.edges[ref.ID]
	}
	return e.nodes[ref.ID]
}

func checkTemplate(c *collector, prefix string, t topology.Template) elements {
	idx := elements{nodes: map[string]bool{}, edges: map[string]bool{}}
	seen := map[string]bool{}

	for i, n := range t.Nodes {
		field := fmt.Sprintf("%s.Nodes[%d]", prefix, i)
		if seen[n.ID] {
			c.add(field+".ID", "duplicate element id %q", n.ID)
		}
		seen[n.ID] = true
		idx.nodes[n.ID] = true
		checkQName(c, field+".Type", n.Type)
		for key := range n.Properties {
			if err := ValidatePropertyKey(key); err != nil {
				c.add(field+".Properties", "%v", err)
			}
		}
		for j, p := range n.Policies {
			checkQName(c, fmt.Sprintf("%s.Policies[%d].Type", field, j), p.Type)
		}
		for j, a := range n.Artifacts {
			checkQName(c, fmt.Sprintf("%s.Artifacts[%d].Type", field, j), a.Type)
		}
	}

	for i, r := range t.Relationships {
		field := fmt.Sprintf("%s.Relationships[%d]", prefix, i)
		if seen[r.ID] {
			c.add(field+".ID", "duplicate element id %q", r.ID)
		}
		seen[r.ID] = true
		idx.edges[r.ID] = true
		checkQName(c, field+".Type", r.Type)
		if !idx.nodes[r.Source] {
			c.add(field+".Source", "node %q does not exist", r.Source)
		}
		if !idx.nodes[r.Target] {
			c.add(field+".Target", "node %q does not exist", r.Target)
		}
	}
	return idx
}

func checkQName(c *collector, field, value string) {
	if err := validate.Var(value, "qname"); err != nil {
		c.add(field, "malformed type name %q", value)
	}
}

func checkMappingFields(c *collector, field string, md model.MappingDocument) {
	switch md.Kind {
	case model.RelationKind:
		if md.Direction == "" {
			c.add(field+".Direction", "required for relation mappings")
		}
		checkQName(c, field+".RelationType", md.RelationType)
		checkQName(c, field+".ValidSourceOrTarget", md.ValidSourceOrTarget)
	case model.AttributeKind:
		if md.Mode == "" {
			c.add(field+".Mode", "required for attribute mappings")
		}
		if md.Mode == model.AttributeSelective && md.DetectorProperty == "" {
			c.add(field+".DetectorProperty", "required for SELECTIVE attribute mappings")
		}
	case model.DeploymentArtifactKind:
		if md.ArtifactType == "" {
			c.add(field+".ArtifactType", "required for deployment artifact mappings")
		}
		checkQName(c, field+".ArtifactType", md.ArtifactType)
	case model.BehaviorPatternKind:
		if md.BehaviorPattern == "" {
			c.add(field+".BehaviorPattern", "required for behavior pattern mappings")
		}
		if md.Property == nil || md.Property.Key == "" {
			c.add(field+".Property.Key", "required for behavior pattern mappings")
		}
	}
}

func checkDetectorNodes(c *collector, field string, ids []string, detector elements) {
	for _, id := range ids {
		if !detector.nodes[id] {
			c.add(field, "detector node %q does not exist", id)
		}
	}
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	c := &collector{}
	for _, e := range validationErrs {
		field := fieldPath(e.Namespace())
		param := e.Param()

		switch e.Tag() {
		case "required":
			c.add(field, "required")
		case "oneof":
			c.add(field, "must be one of [%s]", param)
		case "min":
			c.add(field, "must be at least %s", param)
		case "max":
			c.add(field, "must not exceed %s", param)
		default:
			c.add(field, "validation failed (%s)", e.Tag())
		}
	}
	return c.err()
}

// fieldPath drops the root struct name from a validator namespace such as
// "Document.Mappings[2].DetectorElement.ID".
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}
