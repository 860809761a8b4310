package spec

import (
	"encoding/json"
	"fmt"
)

// TypeSet is the JSON Schema "type" keyword. A single entry renders as a bare
// string, multiple entries as an array (used to widen a type with "null").
type TypeSet []string

// Contains reports whether the set includes name.
func (t TypeSet) Contains(name string) bool {
	for _, entry := range t {
		if entry == name {
			return true
		}
	}
	return false
}

// WithNull returns the set widened to include "null".
func (t TypeSet) WithNull() TypeSet {
	if t.Contains("null") {
		return t
	}
	out := make(TypeSet, 0, len(t)+1)
	out = append(out, t...)
	return append(out, "null")
}

// MarshalJSON renders a single type as a string and multiple as an array.
func (t TypeSet) MarshalJSON() ([]byte, error) {
	if len(t) == 1 {
		return json.Marshal(t[0])
	}
	return json.Marshal([]string(t))
}

// UnmarshalJSON accepts both the string and array forms.
func (t *TypeSet) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*t = TypeSet{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("spec: invalid type keyword: %w", err)
	}
	*t = TypeSet(many)
	return nil
}

// MarshalYAML mirrors the JSON shape.
func (t TypeSet) MarshalYAML() (any, error) {
	if len(t) == 1 {
		return t[0], nil
	}
	return []string(t), nil
}

// Discriminator disambiguates which branch of a polymorphic union applies.
// Mapping goes from discriminator value to a referenceable schema location.
type Discriminator struct {
	PropertyName string            `json:"propertyName" yaml:"propertyName"`
	Mapping      map[string]string `json:"mapping,omitempty" yaml:"mapping,omitempty"`
}

// Schema is the generic JSON-Schema-like tree the derivation unit produces
// and the resolver componentizes. ID tags a node for promotion into
// components.schemas; it never serializes.
type Schema struct {
	ID string `json:"-" yaml:"-"`

	Types                TypeSet                    `json:"type,omitempty" yaml:"type,omitempty"`
	Format               string                     `json:"format,omitempty" yaml:"format,omitempty"`
	Title                string                     `json:"title,omitempty" yaml:"title,omitempty"`
	Description          string                     `json:"description,omitempty" yaml:"description,omitempty"`
	Default              any                        `json:"default,omitempty" yaml:"default,omitempty"`
	Enum                 []any                      `json:"enum,omitempty" yaml:"enum,omitempty"`
	Const                any                        `json:"const,omitempty" yaml:"const,omitempty"`
	Required             []string                   `json:"required,omitempty" yaml:"required,omitempty"`
	Properties           *OrderedMap[*SchemaOrRef]  `json:"properties,omitempty" yaml:"properties,omitempty"`
	Items                *SchemaOrRef               `json:"items,omitempty" yaml:"items,omitempty"`
	AdditionalProperties *SchemaOrRef               `json:"additionalProperties,omitempty" yaml:"additionalProperties,omitempty"`
	OneOf                []*SchemaOrRef             `json:"oneOf,omitempty" yaml:"oneOf,omitempty"`
	AnyOf                []*SchemaOrRef             `json:"anyOf,omitempty" yaml:"anyOf,omitempty"`
	AllOf                []*SchemaOrRef             `json:"allOf,omitempty" yaml:"allOf,omitempty"`
	Not                  *SchemaOrRef               `json:"not,omitempty" yaml:"not,omitempty"`
	Discriminator        *Discriminator             `json:"discriminator,omitempty" yaml:"discriminator,omitempty"`
	Minimum              *float64                   `json:"minimum,omitempty" yaml:"minimum,omitempty"`
	Maximum              *float64                   `json:"maximum,omitempty" yaml:"maximum,omitempty"`
	ExclusiveMinimum     bool                       `json:"exclusiveMinimum,omitempty" yaml:"exclusiveMinimum,omitempty"`
	ExclusiveMaximum     bool                       `json:"exclusiveMaximum,omitempty" yaml:"exclusiveMaximum,omitempty"`
	MinLength            *int                       `json:"minLength,omitempty" yaml:"minLength,omitempty"`
	MaxLength            *int                       `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`
	MinItems             *int                       `json:"minItems,omitempty" yaml:"minItems,omitempty"`
	MaxItems             *int                       `json:"maxItems,omitempty" yaml:"maxItems,omitempty"`
	Pattern              string                     `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Examples             []any                      `json:"examples,omitempty" yaml:"examples,omitempty"`
}

// NewSchema returns a schema with the given type.
func NewSchema(types ...string) *Schema {
	return &Schema{Types: TypeSet(types)}
}

// SetProperty adds a named property, allocating the map on first use.
func (s *Schema) SetProperty(name string, value *SchemaOrRef) {
	if s.Properties == nil {
		s.Properties = NewOrderedMap[*SchemaOrRef]()
	}
	s.Properties.Set(name, value)
}

// SchemaOrRef holds either an inline schema or a reference into
// components.schemas. A reference may carry sibling annotations copied from
// the schema it replaced.
type SchemaOrRef struct {
	Schema *Schema
	Ref    string

	// annotations carried alongside a $ref
	Description string
	Default     any
	Examples    []any
}

// SchemaRef builds a reference node pointing at target.
func SchemaRef(target string) *SchemaOrRef {
	return &SchemaOrRef{Ref: target}
}

// InlineSchema wraps a schema for inline use.
func InlineSchema(s *Schema) *SchemaOrRef {
	return &SchemaOrRef{Schema: s}
}

// IsRef reports whether the node is a reference.
func (s *SchemaOrRef) IsRef() bool {
	return s != nil && s.Ref != ""
}

type schemaRefObject struct {
	Ref         string `json:"$ref" yaml:"$ref"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Default     any    `json:"default,omitempty" yaml:"default,omitempty"`
	Examples    []any  `json:"examples,omitempty" yaml:"examples,omitempty"`
}

// MarshalJSON renders either a $ref object or the inline schema.
func (s *SchemaOrRef) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}
	if s.Ref != "" {
		return json.Marshal(schemaRefObject{
			Ref:         s.Ref,
			Description: s.Description,
			Default:     s.Default,
			Examples:    s.Examples,
		})
	}
	if s.Schema == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(s.Schema)
}

// UnmarshalJSON accepts a $ref object, an inline schema, or the boolean forms
// JSON Schema allows for additionalProperties.
func (s *SchemaOrRef) UnmarshalJSON(data []byte) error {
	var allowed bool
	if err := json.Unmarshal(data, &allowed); err == nil {
		// boolean schema: true admits anything, false admits nothing
		if allowed {
			s.Schema = &Schema{}
		} else {
			s.Schema = &Schema{Not: &SchemaOrRef{Schema: &Schema{}}}
		}
		return nil
	}

	var probe struct {
		Ref         string `json:"$ref"`
		Description string `json:"description"`
		Default     any    `json:"default"`
		Examples    []any  `json:"examples"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	if probe.Ref != "" {
		s.Ref = probe.Ref
		s.Description = probe.Description
		s.Default = probe.Default
		s.Examples = probe.Examples
		return nil
	}

	schema := &Schema{}
	if err := json.Unmarshal(data, schema); err != nil {
		return err
	}
	s.Schema = schema
	return nil
}

// MarshalYAML mirrors MarshalJSON.
func (s *SchemaOrRef) MarshalYAML() (any, error) {
	if s == nil {
		return nil, nil
	}
	if s.Ref != "" {
		return schemaRefObject{
			Ref:         s.Ref,
			Description: s.Description,
			Default:     s.Default,
			Examples:    s.Examples,
		}, nil
	}
	if s.Schema == nil {
		return map[string]any{}, nil
	}
	return s.Schema, nil
}
