// Package derive converts Go types into the generic schema trees the
// document assembler feeds through the reference resolver. Generic reflection
// is delegated to kin-openapi's openapi3gen generator; this package layers
// primitive mappings, nullability, validation rules, and polymorphism on the
// tree it produces.
package derive

import (
	"fmt"
	"io"
	"math/big"
	"mime/multipart"
	"net/url"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-asyncapi/pkg/spec"
)

// SchemaIDFunc computes the componentization identity for a type. Returning
// an empty string forces the schema to stay inline (never shared).
type SchemaIDFunc func(t reflect.Type) string

// DefaultSchemaID uses the bare type name.
func DefaultSchemaID(t reflect.Type) string {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// Source identifies where a parameter value is bound from.
type Source int

const (
	SourceBody Source = iota
	SourceQuery
	SourceHeader
	SourcePath
	SourceForm
	SourceFile
)

// ParamContext carries binding metadata for parameter-backed schemas. Values
// bound from query, header, path, form, or file sources can never be null on
// the wire, so those sources force non-nullability.
type ParamContext struct {
	Source   Source
	Required bool
	Pattern  string
}

func (p *ParamContext) forcesNonNullable() bool {
	if p == nil {
		return false
	}
	switch p.Source {
	case SourceQuery, SourceHeader, SourcePath, SourceForm, SourceFile:
		return true
	}
	return false
}

// DerivedType declares one branch of a polymorphic union together with its
// discriminator value.
type DerivedType struct {
	Value  string
	Sample any
}

// TypeOptions customizes derivation for a registered type.
type TypeOptions struct {
	// Discriminator names the property whose value selects a branch.
	Discriminator string
	// DerivedTypes lists the union branches in declaration order.
	DerivedTypes []DerivedType
	// Rules maps property names to ordered validation rules. When several
	// rules target the same keyword the later one wins; that overwrite
	// behavior is intentional and relied upon by callers.
	Rules map[string][]Rule
}

// Option configures a Deriver.
type Option func(*Deriver)

// WithSchemaID overrides the componentization identity strategy.
func WithSchemaID(fn SchemaIDFunc) Option {
	return func(d *Deriver) {
		if fn != nil {
			d.idFor = fn
		}
	}
}

// WithTypeOptions registers derivation options for the type of sample.
func WithTypeOptions(sample any, opts TypeOptions) Option {
	return func(d *Deriver) {
		t := reflect.TypeOf(sample)
		if t == nil {
			return
		}
		for t.Kind() == reflect.Ptr {
			t = t.Elem()
		}
		d.types[t] = opts
	}
}

// WithLogger attaches a logger; the default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(d *Deriver) {
		d.log = log
	}
}

// Deriver produces schema trees for Go types. Instances are cheap and meant
// to live for a single document-generation call; the internal memo keyed by
// type is per-call state, never shared across generations.
type Deriver struct {
	idFor  SchemaIDFunc
	types  map[reflect.Type]TypeOptions
	memo   map[reflect.Type]*spec.Schema
	unions map[*spec.Schema]int
	log    zerolog.Logger
}

// New constructs a Deriver.
func New(opts ...Option) *Deriver {
	d := &Deriver{
		idFor:  DefaultSchemaID,
		types:  make(map[reflect.Type]TypeOptions),
		memo:   make(map[reflect.Type]*spec.Schema),
		unions: make(map[*spec.Schema]int),
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// IDFor exposes the identity strategy for a type.
func (d *Deriver) IDFor(t reflect.Type) string {
	return d.idFor(t)
}

// DerivedBranchCount returns the number of declared union branches for the
// type that produced schema, used by the transformer pipeline's positional
// recursion. Zero means the type declared none.
func (d *Deriver) DerivedBranchCount(t reflect.Type) int {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return len(d.types[t].DerivedTypes)
}

// DeriveValue derives a schema for the dynamic type of sample.
func (d *Deriver) DeriveValue(sample any, pctx *ParamContext) (*spec.Schema, error) {
	t := reflect.TypeOf(sample)
	if t == nil {
		return &spec.Schema{}, nil
	}
	return d.Derive(t, pctx)
}

type primitive struct {
	typ    string
	format string
}

var primitiveTable = map[reflect.Type]primitive{
	reflect.TypeOf(false):            {"boolean", ""},
	reflect.TypeOf(int(0)):           {"integer", "int64"},
	reflect.TypeOf(int8(0)):          {"integer", "int32"},
	reflect.TypeOf(int16(0)):         {"integer", "int32"},
	reflect.TypeOf(int32(0)):         {"integer", "int32"},
	reflect.TypeOf(int64(0)):         {"integer", "int64"},
	reflect.TypeOf(uint(0)):          {"integer", "int64"},
	reflect.TypeOf(uint8(0)):         {"integer", "int32"},
	reflect.TypeOf(uint16(0)):        {"integer", "int32"},
	reflect.TypeOf(uint32(0)):        {"integer", "int64"},
	reflect.TypeOf(uint64(0)):        {"integer", "int64"},
	reflect.TypeOf(float32(0)):       {"number", "float"},
	reflect.TypeOf(float64(0)):       {"number", "double"},
	reflect.TypeOf(""):               {"string", ""},
	reflect.TypeOf(time.Time{}):      {"string", "date-time"},
	reflect.TypeOf(time.Duration(0)): {"string", "duration"},
	reflect.TypeOf(uuid.UUID{}):      {"string", "uuid"},
	reflect.TypeOf(url.URL{}):        {"string", "uri"},
	reflect.TypeOf(big.Rat{}):        {"number", "decimal"},
}

var (
	readerType     = reflect.TypeOf((*io.Reader)(nil)).Elem()
	fileHeaderType = reflect.TypeOf(multipart.FileHeader{})
	byteSliceType  = reflect.TypeOf([]byte(nil))
	patchDocType   = reflect.TypeOf(PatchDocument{})
)

// Derive produces the schema tree for t. Unsupported type graphs degrade to
// a maximally permissive empty schema; only round-trip decode failures from
// the underlying reflector are fatal (see DecodeError).
func (d *Deriver) Derive(t reflect.Type, pctx *ParamContext) (*spec.Schema, error) {
	nullable := false
	for t.Kind() == reflect.Ptr {
		nullable = true
		t = t.Elem()
	}
	if pctx.forcesNonNullable() {
		nullable = false
	}

	schema, err := d.deriveNonNull(t)
	if err != nil {
		return nil, err
	}

	if pctx != nil && pctx.Pattern != "" && schema.Types.Contains("string") {
		schema.Pattern = pctx.Pattern
	}

	if nullable {
		if schema.ID != "" {
			// components describe only the non-null shape; null rides on a
			// wrapper union around the referenceable schema
			return &spec.Schema{AnyOf: []*spec.SchemaOrRef{
				spec.InlineSchema(schema),
				spec.InlineSchema(spec.NewSchema("null")),
			}}, nil
		}
		schema.Types = schema.Types.WithNull()
	}
	return schema, nil
}

// NullUnionBranch returns the identified non-null branch when s is the
// wrapper union Derive emits around a nullable componentized schema, nil
// otherwise. Callers that assign fallback component identities must leave
// the wrapper anonymous: handing it the branch's key would collapse the
// branch into a reference to its own wrapper.
func NullUnionBranch(s *spec.Schema) *spec.Schema {
	if s == nil || s.ID != "" || len(s.Types) != 0 || len(s.AnyOf) != 2 {
		return nil
	}
	branch, null := s.AnyOf[0], s.AnyOf[1]
	if branch == nil || branch.Schema == nil || branch.Schema.ID == "" {
		return nil
	}
	if null == nil || null.Schema == nil || !null.Schema.Types.Contains("null") {
		return nil
	}
	return branch.Schema
}

func (d *Deriver) deriveNonNull(t reflect.Type) (*spec.Schema, error) {
	switch {
	case t == patchDocType:
		return patchDocumentSchema(), nil
	case t == byteSliceType:
		return &spec.Schema{Types: spec.TypeSet{"string"}, Format: "byte"}, nil
	case isBinary(t):
		return &spec.Schema{Types: spec.TypeSet{"string"}, Format: "binary"}, nil
	}

	if p, ok := primitiveTable[t]; ok {
		s := &spec.Schema{Types: spec.TypeSet{p.typ}}
		s.Format = p.format
		return s, nil
	}

	if opts, ok := d.types[t]; ok && len(opts.DerivedTypes) > 0 {
		return d.deriveUnion(t, opts)
	}

	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		if isBinary(t.Elem()) {
			return &spec.Schema{
				Types: spec.TypeSet{"array"},
				Items: spec.InlineSchema(&spec.Schema{Types: spec.TypeSet{"string"}, Format: "binary"}),
			}, nil
		}
		item, err := d.Derive(t.Elem(), nil)
		if err != nil {
			return nil, err
		}
		return &spec.Schema{Types: spec.TypeSet{"array"}, Items: spec.InlineSchema(item)}, nil
	case reflect.Map:
		value, err := d.Derive(t.Elem(), nil)
		if err != nil {
			return nil, err
		}
		return &spec.Schema{Types: spec.TypeSet{"object"}, AdditionalProperties: spec.InlineSchema(value)}, nil
	case reflect.Struct:
		return d.deriveStruct(t)
	case reflect.Interface:
		// open interface without declared derived types: anything goes
		return &spec.Schema{}, nil
	default:
		d.log.Warn().Str("type", t.String()).Msg("unsupported type degraded to permissive schema")
		return &spec.Schema{}, nil
	}
}

// deriveUnion builds the polymorphic schema for a base type with declared
// derived-type mappings. A discriminator is emitted only when the base is an
// interface or lists itself among its derived types; a concrete base absent
// from its own list degrades to a plain union. The union claims the base
// type's component key, so a self-listed base contributes its object shape
// under a separate <id>Base key.
func (d *Deriver) deriveUnion(t reflect.Type, opts TypeOptions) (*spec.Schema, error) {
	union := &spec.Schema{ID: d.idFor(t)}

	listsSelf := false
	mapping := make(map[string]string, len(opts.DerivedTypes))
	for _, derived := range opts.DerivedTypes {
		dt := reflect.TypeOf(derived.Sample)
		if dt == nil {
			continue
		}
		for dt.Kind() == reflect.Ptr {
			dt = dt.Elem()
		}
		var branch *spec.Schema
		id := d.idFor(dt)
		if dt == t {
			listsSelf = true
			base, err := d.deriveStruct(dt)
			if err != nil {
				return nil, err
			}
			shape := *base
			if id != "" {
				id += "Base"
			}
			shape.ID = id
			branch = &shape
		} else {
			var err error
			branch, err = d.Derive(dt, nil)
			if err != nil {
				return nil, err
			}
		}
		union.OneOf = append(union.OneOf, spec.InlineSchema(branch))
		if id != "" {
			mapping[derived.Value] = "#/components/schemas/" + id
		}
	}

	if opts.Discriminator != "" && (t.Kind() == reflect.Interface || listsSelf) {
		union.Discriminator = &spec.Discriminator{
			PropertyName: opts.Discriminator,
			Mapping:      mapping,
		}
	}
	d.unions[union] = len(opts.DerivedTypes)
	return union, nil
}

// DeclaredBranches reports how many derived types the schema's source type
// declared, or zero for non-polymorphic schemas. The transformer pipeline
// indexes union branches positionally against this count.
func (d *Deriver) DeclaredBranches(s *spec.Schema) int {
	return d.unions[s]
}

func isBinary(t reflect.Type) bool {
	if t == fileHeaderType || (t.Kind() == reflect.Ptr && t.Elem() == fileHeaderType) {
		return true
	}
	return t.Implements(readerType)
}

// PatchDocument marks a payload carrying a JSON Patch request body. Its
// schema expands to the fixed three-branch operation union.
type PatchDocument struct{}

func patchDocumentSchema() *spec.Schema {
	str := func() *spec.SchemaOrRef { return spec.InlineSchema(spec.NewSchema("string")) }

	addReplaceTest := spec.NewSchema("object")
	addReplaceTest.SetProperty("op", spec.InlineSchema(&spec.Schema{
		Types: spec.TypeSet{"string"},
		Enum:  []any{"add", "replace", "test"},
	}))
	addReplaceTest.SetProperty("path", str())
	addReplaceTest.SetProperty("value", spec.InlineSchema(&spec.Schema{}))
	addReplaceTest.Required = []string{"op", "path", "value"}

	moveCopy := spec.NewSchema("object")
	moveCopy.SetProperty("op", spec.InlineSchema(&spec.Schema{
		Types: spec.TypeSet{"string"},
		Enum:  []any{"move", "copy"},
	}))
	moveCopy.SetProperty("from", str())
	moveCopy.SetProperty("path", str())
	moveCopy.Required = []string{"op", "from", "path"}

	remove := spec.NewSchema("object")
	remove.SetProperty("op", spec.InlineSchema(&spec.Schema{
		Types: spec.TypeSet{"string"},
		Enum:  []any{"remove"},
	}))
	remove.SetProperty("path", str())
	remove.Required = []string{"op", "path"}

	return &spec.Schema{OneOf: []*spec.SchemaOrRef{
		spec.InlineSchema(addReplaceTest),
		spec.InlineSchema(moveCopy),
		spec.InlineSchema(remove),
	}}
}

// DecodeError is returned when the reflector's schema tree fails to
// round-trip into the structured model. It is fatal for the generation call
// and surfaces both the offending type and the raw schema text.
type DecodeError struct {
	TypeName string
	Raw      string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("derive: decode schema for %s: %v; raw schema: %s", e.TypeName, e.Err, e.Raw)
}

func (e *DecodeError) Unwrap() error { return e.Err }
