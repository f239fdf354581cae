package schema

const (
	// TypeUnknown is the open type used when a schema declares no type
	TypeUnknown = "any"
	// TypeVoid marks an operation without a request or response body
	TypeVoid = "void"
	// ArraySuffix is appended to an item type to form an array type
	ArraySuffix = "[]"
)

// TypeOf infers the type string of a schema:
//   - a reference yields the referenced name
//   - an array yields its item type followed by []
//   - an object with additionalProperties yields Record<string, V>
//   - anything else yields its declared type, or "any"
func TypeOf(n *Node) string {
	if n == nil {
		return TypeUnknown
	}
	switch n.Kind {
	case KindReference:
		return n.Ref
	case KindArray:
		return TypeOf(n.Items) + ArraySuffix
	case KindObject:
		if n.AdditionalProperties != nil {
			return MapOf(TypeOf(n.AdditionalProperties))
		}
		if n.AllowsAdditional {
			return MapOf(TypeUnknown)
		}
	}
	if n.Type != "" {
		return n.Type
	}
	return TypeUnknown
}

// MapOf renders a string-keyed map type over value
func MapOf(value string) string {
	return "Record<string, " + value + ">"
}
