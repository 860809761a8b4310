package derive

import (
	"encoding/json"
	"reflect"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3gen"

	"github.com/goliatone/go-asyncapi/pkg/spec"
)

const exportedRefPrefix = "#/components/schemas/"

// deriveStruct runs the generic reflector over a struct type, round-trips
// the resulting tree into the structured model, and layers identity,
// nullability, and validation rules on top.
func (d *Deriver) deriveStruct(t reflect.Type) (*spec.Schema, error) {
	if cached, ok := d.memo[t]; ok {
		return cached, nil
	}

	exported := make(openapi3.Schemas)
	ref, err := openapi3gen.NewSchemaRefForValue(
		reflect.New(t).Interface(),
		exported,
		openapi3gen.UseAllExportedFields(),
	)
	if err != nil {
		d.log.Warn().Str("type", t.String()).Err(err).
			Msg("reflection failed, degraded to permissive schema")
		return &spec.Schema{}, nil
	}

	root, err := decodeSchemaRef(t, ref)
	if err != nil {
		return nil, err
	}
	if root.Schema == nil {
		// root arrived as a self reference; decode the exported entry instead
		name := strings.TrimPrefix(root.Ref, exportedRefPrefix)
		if entry, ok := exported[name]; ok {
			root, err = decodeSchemaRef(t, entry)
			if err != nil {
				return nil, err
			}
		}
	}
	if root.Schema == nil {
		return &spec.Schema{}, nil
	}

	// cyclic sub-schemas were exported by name; convert them once and splice
	// shared pointers back over the $ref placeholders
	table := make(map[string]*spec.Schema, len(exported))
	for name, entry := range exported {
		converted, err := decodeSchemaRef(t, entry)
		if err != nil {
			return nil, err
		}
		if converted.Schema == nil {
			continue
		}
		converted.Schema.ID = name
		table[name] = converted.Schema
	}
	if selfName := exportedName(t, exported); selfName != "" {
		// the root itself was exported; reuse one node so self references
		// share identity with the tree we return
		table[selfName] = root.Schema
		root.Schema.ID = selfName
	}
	spliceExportedRefs(root, table, make(map[*spec.Schema]bool))
	for _, entry := range table {
		spliceExportedRefs(spec.InlineSchema(entry), table, make(map[*spec.Schema]bool))
	}

	schema := root.Schema
	schema.ID = d.idFor(t)
	d.memo[t] = schema
	if err := d.decorateStruct(t, schema, map[reflect.Type]bool{}); err != nil {
		return nil, err
	}
	return schema, nil
}

// decodeSchemaRef round-trips the reflector's node through JSON into the
// structured model. A decode failure is fatal for the whole generation call
// and reports the offending type plus the raw intermediate text.
func decodeSchemaRef(t reflect.Type, ref *openapi3.SchemaRef) (*spec.SchemaOrRef, error) {
	raw, err := json.Marshal(ref)
	if err != nil {
		return nil, &DecodeError{TypeName: typeName(t), Raw: "<unserializable>", Err: err}
	}
	out := &spec.SchemaOrRef{}
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, &DecodeError{TypeName: typeName(t), Raw: string(raw), Err: err}
	}
	return out, nil
}

func typeName(t reflect.Type) string {
	if pkg := t.PkgPath(); pkg != "" {
		return pkg + "." + t.Name()
	}
	return t.String()
}

func exportedName(t reflect.Type, exported openapi3.Schemas) string {
	if _, ok := exported[t.Name()]; ok {
		return t.Name()
	}
	return ""
}

// spliceExportedRefs replaces "#/components/schemas/<name>" placeholders the
// reflector emitted for cyclic types with shared pointers into table. The
// shared pointers are what lets the resolver's idempotent insert terminate
// the cycle later.
func spliceExportedRefs(node *spec.SchemaOrRef, table map[string]*spec.Schema, seen map[*spec.Schema]bool) {
	if node == nil {
		return
	}
	if node.IsRef() {
		name := strings.TrimPrefix(node.Ref, exportedRefPrefix)
		if target, ok := table[name]; ok {
			node.Ref = ""
			node.Schema = target
		}
		return
	}
	s := node.Schema
	if s == nil || seen[s] {
		return
	}
	seen[s] = true
	for _, entry := range s.AnyOf {
		spliceExportedRefs(entry, table, seen)
	}
	if s.Properties != nil {
		for _, name := range s.Properties.Keys() {
			prop, _ := s.Properties.Get(name)
			spliceExportedRefs(prop, table, seen)
		}
	}
	for _, entry := range s.AllOf {
		spliceExportedRefs(entry, table, seen)
	}
	for _, entry := range s.OneOf {
		spliceExportedRefs(entry, table, seen)
	}
	spliceExportedRefs(s.AdditionalProperties, table, seen)
	spliceExportedRefs(s.Items, table, seen)
	spliceExportedRefs(s.Not, table, seen)
}

// decorateStruct walks the reflect type alongside the converted schema,
// assigning componentization identities to nested struct schemas, widening
// nullable properties, and applying registered validation rules.
func (d *Deriver) decorateStruct(t reflect.Type, schema *spec.Schema, visited map[reflect.Type]bool) error {
	if visited[t] {
		return nil
	}
	visited[t] = true

	opts := d.types[t]

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name := jsonFieldName(field)
		if name == "" || schema.Properties == nil {
			continue
		}
		prop, ok := schema.Properties.Get(name)
		if !ok || prop == nil {
			continue
		}

		nullable := field.Type.Kind() == reflect.Ptr
		fieldType := field.Type
		for fieldType.Kind() == reflect.Ptr {
			fieldType = fieldType.Elem()
		}

		if prop.Schema != nil {
			if err := d.decorateNested(fieldType, prop.Schema, visited); err != nil {
				return err
			}
			applyRules(prop.Schema, opts.Rules[name])

			if nullable {
				if prop.Schema.ID != "" {
					// null never appears inside a componentized schema;
					// wrap the reference target in a union with null
					wrapped := &spec.Schema{AnyOf: []*spec.SchemaOrRef{
						spec.InlineSchema(prop.Schema),
						spec.InlineSchema(spec.NewSchema("null")),
					}}
					schema.Properties.Set(name, spec.InlineSchema(wrapped))
				} else {
					prop.Schema.Types = prop.Schema.Types.WithNull()
				}
			}
		}
	}
	return nil
}

func (d *Deriver) decorateNested(t reflect.Type, s *spec.Schema, visited map[reflect.Type]bool) error {
	switch t.Kind() {
	case reflect.Struct:
		if _, primitive := primitiveTable[t]; primitive {
			return nil
		}
		if t == patchDocType || isBinary(t) {
			return nil
		}
		if s.ID == "" {
			s.ID = d.idFor(t)
		}
		return d.decorateStruct(t, s, visited)
	case reflect.Slice, reflect.Array:
		if s.Items != nil && s.Items.Schema != nil {
			elem := t.Elem()
			for elem.Kind() == reflect.Ptr {
				elem = elem.Elem()
			}
			return d.decorateNested(elem, s.Items.Schema, visited)
		}
	case reflect.Map:
		if s.AdditionalProperties != nil && s.AdditionalProperties.Schema != nil {
			elem := t.Elem()
			for elem.Kind() == reflect.Ptr {
				elem = elem.Elem()
			}
			return d.decorateNested(elem, s.AdditionalProperties.Schema, visited)
		}
	}
	return nil
}

func jsonFieldName(field reflect.StructField) string {
	tag := field.Tag.Get("json")
	if tag == "" {
		return field.Name
	}
	name := strings.Split(tag, ",")[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return field.Name
	}
	return name
}
