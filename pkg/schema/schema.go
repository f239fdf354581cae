// Package schema holds the schema graph the generator reasons about: a tagged
// union over object, array, primitive and reference nodes, the registry that
// owns every named node, and the type inference shared by the builders.
package schema

import (
	"reflect"
	"sort"
	"strings"
)

// Kind tags the variant a Node represents
type Kind string

const (
	KindPrimitive Kind = "primitive"
	KindObject    Kind = "object"
	KindArray     Kind = "array"
	KindReference Kind = "reference"
)

// RefPrefix is the JSON pointer prefix of component schema references
const RefPrefix = "#/components/schemas/"

// Node is one JSON-Schema-like definition.
//
// A KindReference node carries nothing but Ref, the name of the registry entry
// it points at. Properties is nil when the schema declares no property map and
// an empty map when it declares an empty one.
type Node struct {
	Kind        Kind
	Type        string
	Format      string
	Title       string
	Description string
	Nullable    bool
	Enum        []any

	// Object
	Properties           map[string]*Node
	Required             []string
	AdditionalProperties *Node
	AllowsAdditional     bool

	// Array
	Items *Node

	// Compositions
	OneOf []*Node
	AnyOf []*Node
	AllOf []*Node
	Not   *Node

	// Reference
	Ref string
}

// Reference returns a node pointing at the registry entry name
func Reference(name string) *Node {
	return &Node{Kind: KindReference, Ref: name}
}

// RefName extracts the schema name from a $ref string. Component refs yield the
// component name; any other ref falls back to its last path segment.
func RefName(ref string) string {
	if strings.HasPrefix(ref, RefPrefix) {
		return strings.TrimPrefix(ref, RefPrefix)
	}
	parts := strings.Split(ref, "/")
	return parts[len(parts)-1]
}

// IsReference reports whether n is a pure pointer into the registry
func (n *Node) IsReference() bool {
	return n != nil && n.Kind == KindReference
}

// HasProperties reports whether n declares a property map, even an empty one
func (n *Node) HasProperties() bool {
	return n != nil && n.Properties != nil
}

// IsInlineObject reports whether n is an object-typed schema with its own property map
func (n *Node) IsInlineObject() bool {
	return n != nil && n.Kind == KindObject && n.Type == "object" && n.Properties != nil
}

// IsArrayOfInlineObjects reports whether n is an array whose items are inline objects
func (n *Node) IsArrayOfInlineObjects() bool {
	return n != nil && n.Kind == KindArray && n.Type == "array" && n.Items.IsInlineObject()
}

// IsRequired reports whether the property name is listed in n.Required
func (n *Node) IsRequired(name string) bool {
	if n == nil {
		return false
	}
	for _, r := range n.Required {
		if r == name {
			return true
		}
	}
	return false
}

// PropertyNames returns the declared property names in deterministic order
func (n *Node) PropertyNames() []string {
	if n == nil || len(n.Properties) == 0 {
		return nil
	}
	names := make([]string, 0, len(n.Properties))
	for name := range n.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ShallowCopy copies n without descending into child nodes. Slices and maps
// are fresh so the copy can be rebuilt without touching n.
func (n *Node) ShallowCopy() *Node {
	if n == nil {
		return nil
	}
	out := *n
	if n.Properties != nil {
		out.Properties = make(map[string]*Node, len(n.Properties))
		for k, v := range n.Properties {
			out.Properties[k] = v
		}
	}
	out.Required = append([]string(nil), n.Required...)
	out.Enum = append([]any(nil), n.Enum...)
	out.OneOf = append([]*Node(nil), n.OneOf...)
	out.AnyOf = append([]*Node(nil), n.AnyOf...)
	out.AllOf = append([]*Node(nil), n.AllOf...)
	return &out
}

// Clone deep-copies n
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := n.ShallowCopy()
	for k, v := range out.Properties {
		out.Properties[k] = v.Clone()
	}
	out.AdditionalProperties = n.AdditionalProperties.Clone()
	out.Items = n.Items.Clone()
	out.Not = n.Not.Clone()
	out.OneOf = cloneAll(n.OneOf)
	out.AnyOf = cloneAll(n.AnyOf)
	out.AllOf = cloneAll(n.AllOf)
	return out
}

func cloneAll(nodes []*Node) []*Node {
	if nodes == nil {
		return nil
	}
	out := make([]*Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out
}

// Equal reports whether a and b describe the same schema content
func Equal(a, b *Node) bool {
	return reflect.DeepEqual(normalizeEmpty(a), normalizeEmpty(b))
}

// normalizeEmpty maps empty slices to nil so copies made by ShallowCopy
// compare equal to their source.
func normalizeEmpty(n *Node) *Node {
	if n == nil {
		return nil
	}
	out := *n
	if len(out.Required) == 0 {
		out.Required = nil
	}
	if len(out.Enum) == 0 {
		out.Enum = nil
	}
	out.OneOf = normalizeAll(out.OneOf)
	out.AnyOf = normalizeAll(out.AnyOf)
	out.AllOf = normalizeAll(out.AllOf)
	if out.Properties != nil {
		props := make(map[string]*Node, len(out.Properties))
		for k, v := range out.Properties {
			props[k] = normalizeEmpty(v)
		}
		out.Properties = props
	}
	out.AdditionalProperties = normalizeEmpty(out.AdditionalProperties)
	out.Items = normalizeEmpty(out.Items)
	out.Not = normalizeEmpty(out.Not)
	return &out
}

func normalizeAll(nodes []*Node) []*Node {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]*Node, len(nodes))
	for i, n := range nodes {
		out[i] = normalizeEmpty(n)
	}
	return out
}
