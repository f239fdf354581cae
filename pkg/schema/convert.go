package schema

import (
	"github.com/getkin/kin-openapi/openapi3"
)

// FromOpenAPI converts a kin-openapi schema reference into a Node.
//
// A non-empty Ref always yields a reference node, even when the loader has
// resolved its Value, so cycles through named schemas are never followed.
func FromOpenAPI(sr *openapi3.SchemaRef) *Node {
	if sr == nil {
		return nil
	}
	if sr.Ref != "" {
		return Reference(RefName(sr.Ref))
	}
	if sr.Value == nil {
		return &Node{Kind: KindPrimitive}
	}
	s := sr.Value

	n := &Node{
		Type:        declaredType(s),
		Format:      s.Format,
		Title:       s.Title,
		Description: s.Description,
		Nullable:    s.Nullable,
		Required:    append([]string(nil), s.Required...),
		Enum:        append([]any(nil), s.Enum...),
	}

	if s.Properties != nil {
		n.Properties = make(map[string]*Node, len(s.Properties))
		for name, prop := range s.Properties {
			n.Properties[name] = FromOpenAPI(prop)
		}
	}
	if s.AdditionalProperties.Schema != nil {
		n.AdditionalProperties = FromOpenAPI(s.AdditionalProperties.Schema)
	} else if s.AdditionalProperties.Has != nil && *s.AdditionalProperties.Has {
		n.AllowsAdditional = true
	}
	if s.Items != nil {
		n.Items = FromOpenAPI(s.Items)
	}
	n.OneOf = fromAll(s.OneOf)
	n.AnyOf = fromAll(s.AnyOf)
	n.AllOf = fromAll(s.AllOf)
	if s.Not != nil {
		n.Not = FromOpenAPI(s.Not)
	}

	switch {
	case n.Type == "array" || (n.Type == "" && n.Items != nil):
		n.Kind = KindArray
	case n.Type == "object" || (n.Type == "" && (n.Properties != nil || n.AdditionalProperties != nil || n.AllowsAdditional)):
		n.Kind = KindObject
	default:
		n.Kind = KindPrimitive
	}
	return n
}

// RegistryFromOpenAPI seeds a registry from components.schemas
func RegistryFromOpenAPI(doc *openapi3.T) *Registry {
	r := NewRegistry()
	if doc == nil || doc.Components == nil {
		return r
	}
	for name, sr := range doc.Components.Schemas {
		r.Insert(name, FromOpenAPI(sr))
	}
	return r
}

func fromAll(refs openapi3.SchemaRefs) []*Node {
	if len(refs) == 0 {
		return nil
	}
	out := make([]*Node, 0, len(refs))
	for _, sr := range refs {
		out = append(out, FromOpenAPI(sr))
	}
	return out
}

// declaredType picks the first non-null entry of the schema's type list.
// OpenAPI 3.1 allows ["string", "null"]; 3.0 uses Nullable instead.
func declaredType(s *openapi3.Schema) string {
	if s.Type == nil {
		return ""
	}
	for _, t := range *s.Type {
		if t != openapi3.TypeNull {
			return t
		}
	}
	return ""
}
