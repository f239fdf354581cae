// Package normalize rewrites a document's schema graph so inline object
// schemas nested inside properties become named registry entries referenced
// by $ref. The rewrite is best-effort: it never validates and never fails on
// malformed input, it only leaves what it does not recognise untouched.
package normalize

import (
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/blimu-dev/resource-sdk-gen/pkg/document"
	"github.com/blimu-dev/resource-sdk-gen/pkg/schema"
)

// ItemSuffix is appended to a property name to name its hoisted array item
const ItemSuffix = "Item"

// unionArrayMarker flags arrays that describe a polymorphic item only in prose
const unionArrayMarker = "Array of"

// ErrRegistryFrozen is returned when normalizing a registry that was already frozen
var ErrRegistryFrozen = errors.New("schema registry is frozen")

// Collision records a property whose inline schema was folded into an
// existing registry entry of the same name with different content.
type Collision struct {
	Name string
}

// Result summarises one normalization pass
type Result struct {
	// Hoisted lists the registry names created, in insertion order
	Hoisted    []string
	Collisions []Collision
}

// Option configures a Normalizer
type Option func(*Normalizer)

// WithLogger routes diagnostics to logger
func WithLogger(logger *slog.Logger) Option {
	return func(n *Normalizer) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// Normalizer is the single writer of a registry during normalization
type Normalizer struct {
	registry *schema.Registry
	logger   *slog.Logger

	// pending holds names being hoisted; a nested property with the same
	// name only references the entry instead of registering it again.
	pending map[string]bool
	// origins keeps the raw content each named or hoisted entry came from
	origins map[string]*schema.Node
	result  Result
}

// New creates a Normalizer writing into registry
func New(registry *schema.Registry, opts ...Option) *Normalizer {
	n := &Normalizer{
		registry: registry,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		pending:  map[string]bool{},
		origins:  map[string]*schema.Node{},
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Document normalizes doc.Schemas against doc's paths and freezes the registry
func Document(doc *document.Document, opts ...Option) (Result, error) {
	return New(doc.Schemas, opts...).Normalize(doc.Paths)
}

// Normalize rewrites every named schema, then every request and response body
// schema of paths, and freezes the registry.
func (n *Normalizer) Normalize(paths []*document.PathItem) (Result, error) {
	if n.registry.Frozen() {
		return Result{}, ErrRegistryFrozen
	}

	// Entries hoisted during this loop are inserted already rewritten, so the
	// snapshot taken here is all that needs visiting. Collisions compare
	// against the content as declared, before any entry is rewritten.
	names := n.registry.Names()
	for _, name := range names {
		n.origins[name], _ = n.registry.Get(name)
	}
	for _, name := range names {
		node := n.origins[name]
		n.pending[name] = true
		n.registry.Replace(name, n.Rewrite(node))
		delete(n.pending, name)
	}

	for _, item := range paths {
		for _, op := range item.Operations {
			if op.RequestBody != nil {
				n.rewriteContent(op.RequestBody.Content)
			}
			for _, resp := range op.Responses {
				n.rewriteContent(resp.Content)
			}
		}
	}

	n.registry.Freeze()
	n.logger.Debug("normalized schemas",
		"schemas", n.registry.Len(),
		"hoisted", len(n.result.Hoisted),
		"collisions", len(n.result.Collisions))
	return n.result, nil
}

func (n *Normalizer) rewriteContent(content []*document.Media) {
	for _, media := range content {
		media.Schema = n.Rewrite(media.Schema)
	}
}

// Rewrite returns a rebuilt copy of node with nested inline objects replaced
// by references. node itself is not modified; the registry is.
func (n *Normalizer) Rewrite(node *schema.Node) *schema.Node {
	if node == nil {
		return nil
	}
	// A reference is already a named pointer; there is nothing inside it.
	if node.IsReference() {
		return node
	}

	out := node.ShallowCopy()
	for _, name := range node.PropertyNames() {
		out.Properties[name] = n.rewriteProperty(name, node.Properties[name])
	}
	out.Items = n.Rewrite(node.Items)
	out.AdditionalProperties = n.Rewrite(node.AdditionalProperties)
	out.Not = n.Rewrite(node.Not)
	out.OneOf = n.rewriteAll(node.OneOf)
	out.AnyOf = n.rewriteAll(node.AnyOf)
	out.AllOf = n.rewriteAll(node.AllOf)
	return out
}

func (n *Normalizer) rewriteAll(nodes []*schema.Node) []*schema.Node {
	if nodes == nil {
		return nil
	}
	out := make([]*schema.Node, len(nodes))
	for i, node := range nodes {
		out[i] = n.Rewrite(node)
	}
	return out
}

func (n *Normalizer) rewriteProperty(name string, prop *schema.Node) *schema.Node {
	switch {
	case prop.IsInlineObject():
		n.hoist(name, prop)
		return schema.Reference(name)

	case prop.IsArrayOfInlineObjects():
		itemName := name + ItemSuffix
		n.hoist(itemName, prop.Items)
		arr := prop.ShallowCopy()
		arr.Items = schema.Reference(itemName)
		return arr

	case isDescribedUnionArray(prop):
		itemName := name + ItemSuffix
		arr := prop.ShallowCopy()
		items := prop.Items.ShallowCopy()
		for i, member := range items.OneOf {
			if !member.IsReference() {
				items.OneOf[i] = schema.Reference(itemName)
			}
		}
		arr.Items = items
		return arr

	default:
		return n.Rewrite(prop)
	}
}

// isDescribedUnionArray matches arrays whose description says "Array of" and
// whose items are a oneOf union.
func isDescribedUnionArray(prop *schema.Node) bool {
	return prop != nil &&
		prop.Kind == schema.KindArray &&
		strings.Contains(prop.Description, unionArrayMarker) &&
		prop.Items != nil &&
		len(prop.Items.OneOf) > 0
}

// hoist registers raw under name unless the name is taken. A taken name keeps
// its existing content and the property simply references it.
func (n *Normalizer) hoist(name string, raw *schema.Node) {
	if n.pending[name] {
		return
	}
	if existing, ok := n.registry.Get(name); ok {
		n.noteCollision(name, existing, raw)
		return
	}

	n.pending[name] = true
	n.registry.Insert(name, n.Rewrite(raw))
	delete(n.pending, name)

	n.origins[name] = raw
	n.result.Hoisted = append(n.result.Hoisted, name)
	n.logger.Debug("hoisted inline schema", "schema", name)
}

func (n *Normalizer) noteCollision(name string, existing, raw *schema.Node) {
	if origin, ok := n.origins[name]; ok {
		existing = origin
	}
	if schema.Equal(existing, raw) {
		return
	}
	n.result.Collisions = append(n.result.Collisions, Collision{Name: name})
	n.logger.Debug("schema name reused by a different inline schema", "schema", name)
}
