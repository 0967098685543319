// Package graph turns parsed projects into labeled nodes and relationships
// and merges successive materializations by identity.
package graph

// Label is a node label.
type Label string

const (
	LabelFile     Label = "File"
	LabelClass    Label = "Class"
	LabelFunction Label = "Function"
	LabelVariable Label = "Variable"
	LabelModule   Label = "Module"
)

// RelType is a relationship type.
type RelType string

const (
	RelContains RelType = "CONTAINS"
	RelImports  RelType = "IMPORTS"
)

// Variable scopes.
const (
	ScopeModule   = "module"
	ScopeClass    = "class"
	ScopeFunction = "function"
)

// Node is a graph node. Label is serialized as "type".
type Node struct {
	ID         string         `json:"id"`
	Label      Label          `json:"type"`
	Properties map[string]any `json:"properties"`
}

// Endpoint identifies one end of a relationship.
type Endpoint struct {
	ID    string `json:"id"`
	Label Label  `json:"type"`
}

// Relationship is a directed, typed edge between two nodes.
type Relationship struct {
	Source     Endpoint       `json:"source"`
	Target     Endpoint       `json:"target"`
	Type       RelType        `json:"relationship_type"`
	Properties map[string]any `json:"properties"`
}

// RelKey is the identity of a relationship.
type RelKey struct {
	SourceID string
	TargetID string
	Type     RelType
}

// Key returns the relationship's identity.
func (r Relationship) Key() RelKey {
	return RelKey{SourceID: r.Source.ID, TargetID: r.Target.ID, Type: r.Type}
}
