package normalize

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blimu-dev/resource-sdk-gen/pkg/document"
	"github.com/blimu-dev/resource-sdk-gen/pkg/schema"
)

const shopSpec = `openapi: 3.0.3
info:
  title: Shop
  version: "1.0.0"
paths:
  /orders:
    post:
      requestBody:
        content:
          application/json:
            schema:
              type: object
              properties:
                shipping:
                  type: object
                  properties:
                    carrier:
                      type: string
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                type: object
                properties:
                  receipt:
                    type: object
                    properties:
                      total:
                        type: number
components:
  schemas:
    User:
      type: object
      required: [name]
      properties:
        name:
          type: string
        address:
          type: object
          description: Postal address
          required: [city]
          properties:
            city:
              type: string
            zip:
              type: string
    Order:
      type: object
      properties:
        lines:
          type: array
          description: Order lines
          items:
            type: object
            properties:
              sku:
                type: string
              quantity:
                type: integer
        owner:
          $ref: '#/components/schemas/User'
    Feed:
      type: object
      properties:
        entries:
          type: array
          description: Array of feed entries
          items:
            oneOf:
              - $ref: '#/components/schemas/User'
              - type: object
                properties:
                  headline:
                    type: string
`

func loadDocument(t *testing.T, data string) *document.Document {
	t.Helper()
	oa, err := openapi3.NewLoader().LoadFromData([]byte(data))
	require.NoError(t, err)
	doc, err := document.FromOpenAPI(oa)
	require.NoError(t, err)
	return doc
}

func TestInlineObjectRoundTrip(t *testing.T) {
	doc := loadDocument(t, shopSpec)
	user, _ := doc.Schemas.Get("User")
	original := user.Properties["address"].Clone()

	_, err := Document(doc)
	require.NoError(t, err)

	user, _ = doc.Schemas.Get("User")
	address := user.Properties["address"]
	assert.True(t, address.IsReference())
	assert.Equal(t, "address", address.Ref)

	hoisted, ok := doc.Schemas.Get("address")
	require.True(t, ok)
	assert.True(t, schema.Equal(original, hoisted))
	assert.Equal(t, "string", user.Properties["name"].Type, "primitive properties are untouched")
}

func TestArrayOfInlineObjects(t *testing.T) {
	doc := loadDocument(t, shopSpec)

	res, err := Document(doc)
	require.NoError(t, err)
	assert.Contains(t, res.Hoisted, "linesItem")

	order, _ := doc.Schemas.Get("Order")
	lines := order.Properties["lines"]
	assert.Equal(t, schema.KindArray, lines.Kind)
	assert.Equal(t, "Order lines", lines.Description)
	assert.Equal(t, "linesItem", lines.Items.Ref)
	assert.Equal(t, "linesItem[]", schema.TypeOf(lines))

	item, ok := doc.Schemas.Get("linesItem")
	require.True(t, ok)
	assert.Equal(t, []string{"quantity", "sku"}, item.PropertyNames())

	assert.Equal(t, "User", order.Properties["owner"].Ref)
}

func TestDescribedUnionArray(t *testing.T) {
	doc := loadDocument(t, shopSpec)

	_, err := Document(doc)
	require.NoError(t, err)

	feed, _ := doc.Schemas.Get("Feed")
	union := feed.Properties["entries"].Items.OneOf
	require.Len(t, union, 2)
	assert.Equal(t, "User", union[0].Ref)
	assert.Equal(t, "entriesItem", union[1].Ref)
	assert.False(t, doc.Schemas.Has("entriesItem"), "the union itself is not registered")
}

func TestBodiesAreRewritten(t *testing.T) {
	doc := loadDocument(t, shopSpec)

	res, err := Document(doc)
	require.NoError(t, err)

	op := doc.Paths[0].Operations[0]
	body := op.RequestBody.Content[0].Schema
	assert.Equal(t, "shipping", body.Properties["shipping"].Ref)
	assert.True(t, body.IsInlineObject(), "the body itself stays inline")

	resp := op.Response("200").Content[0].Schema
	assert.Equal(t, "receipt", resp.Properties["receipt"].Ref)

	assert.True(t, doc.Schemas.Has("shipping"))
	assert.True(t, doc.Schemas.Has("receipt"))
	assert.Equal(t, []string{"linesItem", "address", "shipping", "receipt"}, res.Hoisted)
}

func TestIdempotent(t *testing.T) {
	doc := loadDocument(t, shopSpec)
	_, err := Document(doc)
	require.NoError(t, err)

	again := doc.Schemas.Clone()
	res, err := New(again).Normalize(doc.Paths)
	require.NoError(t, err)
	assert.Empty(t, res.Hoisted)
	assert.Empty(t, res.Collisions)

	require.Equal(t, doc.Schemas.Names(), again.Names())
	for _, name := range again.Names() {
		before, _ := doc.Schemas.Get(name)
		after, _ := again.Get(name)
		assert.True(t, schema.Equal(before, after), name)
	}
}

func TestFrozenRegistry(t *testing.T) {
	doc := loadDocument(t, shopSpec)
	_, err := Document(doc)
	require.NoError(t, err)
	assert.True(t, doc.Schemas.Frozen())

	_, err = Document(doc)
	assert.ErrorIs(t, err, ErrRegistryFrozen)
}

func TestRewriteDoesNotMutateInput(t *testing.T) {
	reg := schema.NewRegistry()
	in := &schema.Node{
		Kind: schema.KindObject,
		Type: "object",
		Properties: map[string]*schema.Node{
			"child": {Kind: schema.KindObject, Type: "object", Properties: map[string]*schema.Node{}},
		},
	}
	snapshot := in.Clone()

	out := New(reg).Rewrite(in)
	assert.Equal(t, "child", out.Properties["child"].Ref)
	assert.True(t, schema.Equal(snapshot, in))
	assert.True(t, reg.Has("child"))
	assert.Nil(t, New(reg).Rewrite(nil))
}

func TestSelfNamedNesting(t *testing.T) {
	// node.node.node: the inner property shares its name with the entry being
	// hoisted, so it only references it.
	inner := &schema.Node{Kind: schema.KindObject, Type: "object", Properties: map[string]*schema.Node{
		"value": {Kind: schema.KindPrimitive, Type: "string"},
	}}
	middle := &schema.Node{Kind: schema.KindObject, Type: "object", Properties: map[string]*schema.Node{
		"node": inner,
	}}
	root := &schema.Node{Kind: schema.KindObject, Type: "object", Properties: map[string]*schema.Node{
		"node": middle,
	}}

	reg := schema.NewRegistry()
	reg.Insert("Tree", root)
	res, err := New(reg).Normalize(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"node"}, res.Hoisted)

	node, _ := reg.Get("node")
	assert.Equal(t, "node", node.Properties["node"].Ref)
}

func TestCollisionsAreReported(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	first := &schema.Node{Kind: schema.KindObject, Type: "object", Properties: map[string]*schema.Node{
		"meta": {Kind: schema.KindObject, Type: "object", Properties: map[string]*schema.Node{
			"a": {Kind: schema.KindPrimitive, Type: "string"},
		}},
	}}
	second := &schema.Node{Kind: schema.KindObject, Type: "object", Properties: map[string]*schema.Node{
		"meta": {Kind: schema.KindObject, Type: "object", Properties: map[string]*schema.Node{
			"b": {Kind: schema.KindPrimitive, Type: "integer"},
		}},
	}}
	same := first.Clone()

	reg := schema.NewRegistry()
	reg.Insert("A", first)
	reg.Insert("B", second)
	reg.Insert("C", same)

	res, err := New(reg, WithLogger(logger)).Normalize(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"meta"}, res.Hoisted)
	assert.Equal(t, []Collision{{Name: "meta"}}, res.Collisions)

	meta, _ := reg.Get("meta")
	assert.Contains(t, meta.Properties, "a", "the first hoisted content is kept")
	assert.Contains(t, buf.String(), "schema=meta")
}

func TestIdenticalInlineCopyOfNamedSchemaIsNotACollision(t *testing.T) {
	address := &schema.Node{Kind: schema.KindObject, Type: "object", Properties: map[string]*schema.Node{
		"geo": {Kind: schema.KindObject, Type: "object", Properties: map[string]*schema.Node{
			"lat": {Kind: schema.KindPrimitive, Type: "number"},
		}},
	}}
	zebra := &schema.Node{Kind: schema.KindObject, Type: "object", Properties: map[string]*schema.Node{
		"address": address.Clone(),
	}}

	reg := schema.NewRegistry()
	reg.Insert("address", address)
	reg.Insert("zebra", zebra)

	res, err := New(reg).Normalize(nil)
	require.NoError(t, err)
	assert.Empty(t, res.Collisions, "zebra.address matches address as declared")
	assert.Equal(t, []string{"geo"}, res.Hoisted)

	z, _ := reg.Get("zebra")
	assert.Equal(t, "address", z.Properties["address"].Ref)
}
