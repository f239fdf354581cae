package schema

import (
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const componentsSpec = `openapi: 3.0.3
info:
  title: Shop
  version: "1.0.0"
paths: {}
components:
  schemas:
    User:
      type: object
      required: [id]
      properties:
        id:
          type: integer
        tags:
          type: array
          items:
            type: string
        address:
          type: object
          properties:
            city:
              type: string
        orders:
          type: array
          items:
            $ref: '#/components/schemas/Order'
        meta:
          type: object
          additionalProperties:
            type: string
    Order:
      type: object
      properties:
        owner:
          $ref: '#/components/schemas/User'
    Tags:
      type: array
      items:
        type: string
    Empty:
      type: object
      properties: {}
`

func loadComponents(t *testing.T) *openapi3.T {
	t.Helper()
	doc, err := openapi3.NewLoader().LoadFromData([]byte(componentsSpec))
	require.NoError(t, err)
	return doc
}

func TestTypeOf(t *testing.T) {
	tests := []struct {
		name     string
		node     *Node
		expected string
	}{
		{"nil", nil, "any"},
		{"empty", &Node{Kind: KindPrimitive}, "any"},
		{"reference", Reference("User"), "User"},
		{"primitive", &Node{Kind: KindPrimitive, Type: "string"}, "string"},
		{"array of ref", &Node{Kind: KindArray, Type: "array", Items: Reference("Order")}, "Order[]"},
		{"array of primitive", &Node{Kind: KindArray, Type: "array", Items: &Node{Kind: KindPrimitive, Type: "integer"}}, "integer[]"},
		{"array without items", &Node{Kind: KindArray, Type: "array"}, "any[]"},
		{"nested array", &Node{Kind: KindArray, Type: "array", Items: &Node{Kind: KindArray, Type: "array", Items: Reference("Cell")}}, "Cell[][]"},
		{"map of string", &Node{Kind: KindObject, Type: "object", AdditionalProperties: &Node{Kind: KindPrimitive, Type: "string"}}, "Record<string, string>"},
		{"map of ref", &Node{Kind: KindObject, Type: "object", AdditionalProperties: Reference("Order")}, "Record<string, Order>"},
		{"open map", &Node{Kind: KindObject, Type: "object", AllowsAdditional: true}, "Record<string, any>"},
		{"plain object", &Node{Kind: KindObject, Type: "object", Properties: map[string]*Node{}}, "object"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, TypeOf(test.node))
		})
	}
}

func TestRefName(t *testing.T) {
	assert.Equal(t, "User", RefName("#/components/schemas/User"))
	assert.Equal(t, "Pet", RefName("common.yaml#/definitions/Pet"))
	assert.Equal(t, "Plain", RefName("Plain"))
}

func TestFromOpenAPI(t *testing.T) {
	doc := loadComponents(t)
	reg := RegistryFromOpenAPI(doc)
	require.Equal(t, []string{"Empty", "Order", "Tags", "User"}, reg.Names())

	user, ok := reg.Get("User")
	require.True(t, ok)
	assert.Equal(t, KindObject, user.Kind)
	assert.Equal(t, []string{"id"}, user.Required)
	assert.Equal(t, []string{"address", "id", "meta", "orders", "tags"}, user.PropertyNames())

	assert.True(t, user.Properties["address"].IsInlineObject())
	assert.Equal(t, KindArray, user.Properties["tags"].Kind)
	assert.Equal(t, "string[]", TypeOf(user.Properties["tags"]))
	assert.Equal(t, "Order[]", TypeOf(user.Properties["orders"]))
	assert.Equal(t, "Record<string, string>", TypeOf(user.Properties["meta"]))

	// Resolved refs stay references, so the User <-> Order cycle is not followed.
	order, _ := reg.Get("Order")
	owner := order.Properties["owner"]
	assert.True(t, owner.IsReference())
	assert.Equal(t, "User", owner.Ref)
	assert.Nil(t, owner.Properties)

	tags, _ := reg.Get("Tags")
	assert.False(t, tags.HasProperties())

	empty, _ := reg.Get("Empty")
	assert.True(t, empty.HasProperties())
	assert.Empty(t, empty.Properties)
}

func TestFromOpenAPINullableTypeList(t *testing.T) {
	types := openapi3.Types{openapi3.TypeNull, openapi3.TypeString}
	n := FromOpenAPI(&openapi3.SchemaRef{Value: &openapi3.Schema{Type: &types}})
	assert.Equal(t, "string", n.Type)
	assert.Equal(t, KindPrimitive, n.Kind)
}

func TestRegistryLifecycle(t *testing.T) {
	reg := NewRegistry()
	assert.True(t, reg.Insert("A", &Node{Kind: KindPrimitive, Type: "string"}))
	assert.False(t, reg.Insert("A", &Node{Kind: KindPrimitive, Type: "integer"}), "insert must not overwrite")

	a, _ := reg.Get("A")
	assert.Equal(t, "string", a.Type)

	assert.False(t, reg.Replace("B", &Node{}), "replace must not create entries")
	assert.True(t, reg.Replace("A", &Node{Kind: KindPrimitive, Type: "boolean"}))

	clone := reg.Clone()
	reg.Freeze()
	assert.True(t, reg.Frozen())
	assert.False(t, reg.Insert("C", &Node{}))
	assert.False(t, reg.Replace("A", &Node{}))
	assert.Equal(t, 1, reg.Len())

	assert.False(t, clone.Frozen())
	assert.True(t, clone.Insert("C", &Node{}))
	assert.Equal(t, 1, reg.Len())
}

func TestCloneAndEqual(t *testing.T) {
	doc := loadComponents(t)
	user := FromOpenAPI(doc.Components.Schemas["User"])

	clone := user.Clone()
	assert.True(t, Equal(user, clone))

	clone.Properties["address"].Properties["zip"] = &Node{Kind: KindPrimitive, Type: "string"}
	assert.False(t, Equal(user, clone))
	assert.NotContains(t, user.Properties["address"].Properties, "zip")

	assert.True(t, Equal(user, user.ShallowCopy()))
}
