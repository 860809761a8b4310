// Package resolver promotes identified sub-schemas into a document's shared
// components table and rewrites their occurrences into references.
package resolver

import (
	"github.com/goliatone/go-asyncapi/pkg/spec"
)

// ComponentsPrefix is the reference prefix for promoted schemas.
const ComponentsPrefix = "#/components/schemas/"

// Resolve walks schema depth-first, inserting componentizable nodes into
// doc.Components.Schemas and returning the node to splice into the owning
// tree: a reference when the schema was promoted, the schema itself when not.
//
// rootID names the top-level schema when the node carries no identity of its
// own; baseID prefixes every component key (empty when absent).
//
// Insertion is idempotent: a key that already exists returns a reference
// immediately without revisiting children. The components map doubles as the
// visited set, which is what terminates self-referential type graphs.
func Resolve(doc *spec.Document, schema *spec.Schema, rootID, baseID string) *spec.SchemaOrRef {
	if doc == nil || doc.Components == nil || schema == nil {
		// fail closed: treat as non-componentized
		return spec.InlineSchema(schema)
	}
	id := schema.ID
	if id == "" {
		id = rootID
	}
	return resolve(doc, schema, id, baseID)
}

func resolve(doc *spec.Document, schema *spec.Schema, id, baseID string) *spec.SchemaOrRef {
	if schema == nil {
		return spec.InlineSchema(nil)
	}
	if id == "" {
		resolveChildren(doc, schema, baseID)
		return spec.InlineSchema(schema)
	}

	key := baseID + id
	if doc.Components.Schemas.Has(key) {
		return refTo(key, schema)
	}

	doc.Components.Schemas.Set(key, spec.InlineSchema(schema))
	resolveChildren(doc, schema, baseID)
	return refTo(key, schema)
}

// resolveChildren recurses into every sub-schema position, splicing resolved
// nodes back in place.
func resolveChildren(doc *spec.Document, schema *spec.Schema, baseID string) {
	resolveList(doc, schema.AnyOf, baseID)
	if schema.Properties != nil {
		for _, name := range schema.Properties.Keys() {
			prop, _ := schema.Properties.Get(name)
			if resolved := resolveNode(doc, prop, baseID); resolved != nil {
				schema.Properties.Set(name, resolved)
			}
		}
	}
	resolveList(doc, schema.AllOf, baseID)
	resolveList(doc, schema.OneOf, baseID)
	if resolved := resolveNode(doc, schema.AdditionalProperties, baseID); resolved != nil {
		schema.AdditionalProperties = resolved
	}
	if resolved := resolveNode(doc, schema.Items, baseID); resolved != nil {
		schema.Items = resolved
	}
	if resolved := resolveNode(doc, schema.Not, baseID); resolved != nil {
		schema.Not = resolved
	}
}

func resolveList(doc *spec.Document, list []*spec.SchemaOrRef, baseID string) {
	for i, entry := range list {
		if resolved := resolveNode(doc, entry, baseID); resolved != nil {
			list[i] = resolved
		}
	}
}

func resolveNode(doc *spec.Document, node *spec.SchemaOrRef, baseID string) *spec.SchemaOrRef {
	if node == nil || node.IsRef() || node.Schema == nil {
		return nil
	}
	return resolve(doc, node.Schema, node.Schema.ID, baseID)
}

// refTo builds a reference carrying forward the annotations a reader still
// needs at the usage site.
func refTo(key string, schema *spec.Schema) *spec.SchemaOrRef {
	ref := spec.SchemaRef(ComponentsPrefix + key)
	ref.Description = schema.Description
	ref.Default = schema.Default
	ref.Examples = schema.Examples
	return ref
}
