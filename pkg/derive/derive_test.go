package derive

import (
	"io"
	"math/big"
	"net/url"
	"reflect"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/goliatone/go-asyncapi/pkg/resolver"
	"github.com/goliatone/go-asyncapi/pkg/spec"
)

func TestDerive_Primitives(t *testing.T) {
	tests := []struct {
		name   string
		sample any
		typ    string
		format string
	}{
		{"bool", false, "boolean", ""},
		{"int", int(0), "integer", "int64"},
		{"int16", int16(0), "integer", "int32"},
		{"int32", int32(0), "integer", "int32"},
		{"int64", int64(0), "integer", "int64"},
		{"uint32", uint32(0), "integer", "int64"},
		{"float32", float32(0), "number", "float"},
		{"float64", float64(0), "number", "double"},
		{"string", "", "string", ""},
		{"time", time.Time{}, "string", "date-time"},
		{"duration", time.Duration(0), "string", "duration"},
		{"uuid", uuid.UUID{}, "string", "uuid"},
		{"url", url.URL{}, "string", "uri"},
		{"rat", big.Rat{}, "number", "decimal"},
	}
	d := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema, err := d.DeriveValue(tt.sample, nil)
			if err != nil {
				t.Fatalf("derive: %v", err)
			}
			if !schema.Types.Contains(tt.typ) || len(schema.Types) != 1 {
				t.Fatalf("expected type %q, got %v", tt.typ, schema.Types)
			}
			if schema.Format != tt.format {
				t.Fatalf("expected format %q, got %q", tt.format, schema.Format)
			}
		})
	}
}

func TestDerive_PointerWidensWithNull(t *testing.T) {
	d := New()
	schema, err := d.Derive(reflect.TypeOf((*string)(nil)), nil)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if diff := cmp.Diff(spec.TypeSet{"string", "null"}, schema.Types); diff != "" {
		t.Fatalf("types mismatch (-want +got):\n%s", diff)
	}
}

func TestDerive_ParamSourceForcesNonNullable(t *testing.T) {
	sources := []Source{SourceQuery, SourceHeader, SourcePath, SourceForm, SourceFile}
	d := New()
	for _, src := range sources {
		schema, err := d.Derive(reflect.TypeOf((*string)(nil)), &ParamContext{Source: src})
		if err != nil {
			t.Fatalf("derive: %v", err)
		}
		if schema.Types.Contains("null") {
			t.Fatalf("source %d must not be nullable, got %v", src, schema.Types)
		}
	}

	// body-sourced pointers stay nullable
	schema, err := d.Derive(reflect.TypeOf((*string)(nil)), &ParamContext{Source: SourceBody})
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if !schema.Types.Contains("null") {
		t.Fatalf("body source should keep nullability, got %v", schema.Types)
	}
}

func TestDerive_ParamPatternAppliesToStrings(t *testing.T) {
	d := New()
	schema, err := d.Derive(reflect.TypeOf(""), &ParamContext{Pattern: "^[a-z]+$"})
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if schema.Pattern != "^[a-z]+$" {
		t.Fatalf("expected pattern applied, got %q", schema.Pattern)
	}

	schema, err = d.Derive(reflect.TypeOf(0), &ParamContext{Pattern: "^[a-z]+$"})
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if schema.Pattern != "" {
		t.Fatalf("pattern must not apply to non-strings, got %q", schema.Pattern)
	}
}

func TestDerive_ByteSliceAndBinary(t *testing.T) {
	d := New()

	bytes, err := d.Derive(reflect.TypeOf([]byte(nil)), nil)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if !bytes.Types.Contains("string") || bytes.Format != "byte" {
		t.Fatalf("expected base64 string, got %v/%q", bytes.Types, bytes.Format)
	}

	reader, err := d.Derive(reflect.TypeOf((*io.Reader)(nil)).Elem(), nil)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if !reader.Types.Contains("string") || reader.Format != "binary" {
		t.Fatalf("expected binary string, got %v/%q", reader.Types, reader.Format)
	}
}

func TestDerive_SliceAndMap(t *testing.T) {
	d := New()

	list, err := d.Derive(reflect.TypeOf([]int(nil)), nil)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if !list.Types.Contains("array") || list.Items == nil || !list.Items.Schema.Types.Contains("integer") {
		t.Fatalf("unexpected slice schema: %+v", list)
	}

	dict, err := d.Derive(reflect.TypeOf(map[string]float64(nil)), nil)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if !dict.Types.Contains("object") || dict.AdditionalProperties == nil ||
		!dict.AdditionalProperties.Schema.Types.Contains("number") {
		t.Fatalf("unexpected map schema: %+v", dict)
	}
}

func TestDerive_PatchDocument(t *testing.T) {
	d := New()
	schema, err := d.Derive(reflect.TypeOf(PatchDocument{}), nil)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if len(schema.OneOf) != 3 {
		t.Fatalf("expected three operation branches, got %d", len(schema.OneOf))
	}

	wantRequired := [][]string{
		{"op", "path", "value"},
		{"op", "from", "path"},
		{"op", "path"},
	}
	for i, branch := range schema.OneOf {
		if diff := cmp.Diff(wantRequired[i], branch.Schema.Required); diff != "" {
			t.Fatalf("branch %d required mismatch (-want +got):\n%s", i, diff)
		}
	}
}

type invoice struct {
	Number string  `json:"number"`
	Total  float64 `json:"total"`
	Memo   *string `json:"memo"`
}

func TestDerive_StructProperties(t *testing.T) {
	d := New()
	schema, err := d.Derive(reflect.TypeOf(invoice{}), nil)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if schema.ID != "invoice" {
		t.Fatalf("expected id from type name, got %q", schema.ID)
	}
	if schema.Properties == nil {
		t.Fatal("expected properties")
	}
	memo, ok := schema.Properties.Get("memo")
	if !ok {
		t.Fatalf("expected memo property, keys %v", schema.Properties.Keys())
	}
	if !memo.Schema.Types.Contains("null") {
		t.Fatalf("pointer field should be nullable, got %v", memo.Schema.Types)
	}
	number, _ := schema.Properties.Get("number")
	if number == nil || number.Schema.Types.Contains("null") {
		t.Fatalf("value field must not be nullable: %+v", number)
	}
}

func TestDerive_StructMemoized(t *testing.T) {
	d := New()
	first, err := d.Derive(reflect.TypeOf(invoice{}), nil)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	second, err := d.Derive(reflect.TypeOf(invoice{}), nil)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if first != second {
		t.Fatal("expected memoized schema pointer on second derivation")
	}
}

type page struct {
	Limit int `json:"limit"`
}

func TestDerive_RulesLastWins(t *testing.T) {
	d := New(WithTypeOptions(page{}, TypeOptions{
		Rules: map[string][]Rule{
			"limit": {
				Range{Min: Float(1), Max: Float(10)},
				Range{Min: Float(5), Max: Float(20)},
			},
		},
	}))
	schema, err := d.Derive(reflect.TypeOf(page{}), nil)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	limit, _ := schema.Properties.Get("limit")
	if limit == nil || limit.Schema == nil {
		t.Fatal("expected limit property")
	}
	if limit.Schema.Minimum == nil || *limit.Schema.Minimum != 5 {
		t.Fatalf("expected minimum 5 from later rule, got %v", limit.Schema.Minimum)
	}
	if limit.Schema.Maximum == nil || *limit.Schema.Maximum != 20 {
		t.Fatalf("expected maximum 20 from later rule, got %v", limit.Schema.Maximum)
	}
}

type animal interface{ Kind() string }

type dog struct {
	Kind string `json:"kind"`
	Bark bool   `json:"bark"`
}

type cat struct {
	Kind  string `json:"kind"`
	Lives int    `json:"lives"`
}

type pet struct {
	Kind string `json:"kind"`
}

func TestDerive_UnionInterfaceBaseHasDiscriminator(t *testing.T) {
	d := New(WithTypeOptions((*animal)(nil), TypeOptions{
		Discriminator: "kind",
		DerivedTypes: []DerivedType{
			{Value: "dog", Sample: dog{}},
			{Value: "cat", Sample: cat{}},
		},
	}))
	schema, err := d.Derive(reflect.TypeOf((*animal)(nil)).Elem(), nil)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if len(schema.OneOf) != 2 {
		t.Fatalf("expected two branches, got %d", len(schema.OneOf))
	}
	if schema.Discriminator == nil || schema.Discriminator.PropertyName != "kind" {
		t.Fatalf("expected discriminator on interface base, got %+v", schema.Discriminator)
	}
	want := map[string]string{
		"dog": "#/components/schemas/dog",
		"cat": "#/components/schemas/cat",
	}
	if diff := cmp.Diff(want, schema.Discriminator.Mapping); diff != "" {
		t.Fatalf("mapping mismatch (-want +got):\n%s", diff)
	}
	if d.DeclaredBranches(schema) != 2 {
		t.Fatalf("expected 2 declared branches, got %d", d.DeclaredBranches(schema))
	}
}

func TestDerive_UnionConcreteBaseWithoutSelfOmitsDiscriminator(t *testing.T) {
	d := New(WithTypeOptions(pet{}, TypeOptions{
		Discriminator: "kind",
		DerivedTypes: []DerivedType{
			{Value: "dog", Sample: dog{}},
			{Value: "cat", Sample: cat{}},
		},
	}))
	schema, err := d.Derive(reflect.TypeOf(pet{}), nil)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if schema.Discriminator != nil {
		t.Fatalf("concrete base absent from its branches must not get a discriminator, got %+v", schema.Discriminator)
	}
	if len(schema.OneOf) != 2 {
		t.Fatalf("expected plain two-branch union, got %d", len(schema.OneOf))
	}
}

func TestDerive_UnionConcreteBaseListingSelfGetsDiscriminator(t *testing.T) {
	d := New(WithTypeOptions(pet{}, TypeOptions{
		Discriminator: "kind",
		DerivedTypes: []DerivedType{
			{Value: "pet", Sample: pet{}},
			{Value: "dog", Sample: dog{}},
		},
	}))
	schema, err := d.Derive(reflect.TypeOf(pet{}), nil)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if schema.Discriminator == nil {
		t.Fatal("base listing itself should get a discriminator")
	}
	// the union holds the type's identity; its own shape branches separately
	if schema.ID != "pet" {
		t.Fatalf("expected union under the base identity, got %q", schema.ID)
	}
	if got := schema.OneOf[0].Schema.ID; got != "petBase" {
		t.Fatalf("expected distinct identity on the self branch, got %q", got)
	}
	want := map[string]string{
		"pet": "#/components/schemas/petBase",
		"dog": "#/components/schemas/dog",
	}
	if diff := cmp.Diff(want, schema.Discriminator.Mapping); diff != "" {
		t.Fatalf("mapping mismatch (-want +got):\n%s", diff)
	}
}

func TestDerive_SelfListedBaseComponentizesSeparately(t *testing.T) {
	d := New(WithTypeOptions(pet{}, TypeOptions{
		Discriminator: "kind",
		DerivedTypes: []DerivedType{
			{Value: "pet", Sample: pet{}},
			{Value: "dog", Sample: dog{}},
		},
	}))
	schema, err := d.Derive(reflect.TypeOf(pet{}), nil)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}

	doc := spec.NewDocument()
	ref := resolver.Resolve(doc, schema, "", "")
	if !ref.IsRef() || ref.Ref != "#/components/schemas/pet" {
		t.Fatalf("expected componentized union reference, got %+v", ref)
	}

	union, _ := doc.Components.Schemas.Get("pet")
	if union == nil || union.Schema == nil {
		t.Fatalf("expected pet component, keys %v", doc.Components.Schemas.Keys())
	}
	if got := union.Schema.OneOf[0].Ref; got != "#/components/schemas/petBase" {
		t.Fatalf("self branch must reference the base shape, got %+v", union.Schema.OneOf[0])
	}
	base, _ := doc.Components.Schemas.Get("petBase")
	if base == nil || base.Schema == nil {
		t.Fatalf("expected petBase component, keys %v", doc.Components.Schemas.Keys())
	}
	if _, ok := base.Schema.Properties.Get("kind"); !ok {
		t.Fatalf("expected base object shape under petBase, got %+v", base.Schema)
	}
}

func TestDerive_NullableComponentizedWrapsInUnion(t *testing.T) {
	d := New()
	schema, err := d.Derive(reflect.TypeOf((*invoice)(nil)), nil)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if len(schema.AnyOf) != 2 {
		t.Fatalf("expected anyOf wrapper for nullable componentized type, got %+v", schema)
	}
	if schema.AnyOf[0].Schema.ID != "invoice" {
		t.Fatalf("expected identified schema in first branch, got %q", schema.AnyOf[0].Schema.ID)
	}
	if !schema.AnyOf[1].Schema.Types.Contains("null") {
		t.Fatalf("expected null branch, got %v", schema.AnyOf[1].Schema.Types)
	}
	if schema.AnyOf[0].Schema.Types.Contains("null") {
		t.Fatal("componentized schema must never carry null inline")
	}
}

func TestNullUnionBranch(t *testing.T) {
	d := New()

	wrapper, err := d.Derive(reflect.TypeOf((*invoice)(nil)), nil)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	branch := NullUnionBranch(wrapper)
	if branch == nil || branch.ID != "invoice" {
		t.Fatalf("expected identified branch for nullable wrapper, got %+v", branch)
	}
	if NullUnionBranch(branch) != nil {
		t.Fatal("an identified schema is not a wrapper")
	}

	widened, err := d.Derive(reflect.TypeOf((*string)(nil)), nil)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if NullUnionBranch(widened) != nil {
		t.Fatalf("null-widened primitive is not a wrapper: %+v", widened)
	}
}

type listNode struct {
	Value string    `json:"value"`
	Next  *listNode `json:"next"`
}

func TestDerive_SelfReferentialStruct(t *testing.T) {
	d := New()
	schema, err := d.Derive(reflect.TypeOf(listNode{}), nil)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if schema.ID != "listNode" {
		t.Fatalf("expected identified schema, got %q", schema.ID)
	}

	next, ok := schema.Properties.Get("next")
	if !ok {
		t.Fatalf("expected next property, keys %v", schema.Properties.Keys())
	}
	// nullable self reference: a union of the shared node and null
	if len(next.Schema.AnyOf) != 2 {
		t.Fatalf("expected anyOf wrapper, got %+v", next.Schema)
	}
	if next.Schema.AnyOf[0].Schema != schema {
		t.Fatal("self reference must share the root schema pointer")
	}

	// the shared pointer is what lets componentization terminate the cycle
	doc := spec.NewDocument()
	ref := resolver.Resolve(doc, schema, "", "")
	if !ref.IsRef() || ref.Ref != "#/components/schemas/listNode" {
		t.Fatalf("expected componentized reference, got %+v", ref)
	}
	if doc.Components.Schemas.Len() != 1 {
		t.Fatalf("expected exactly one component, got %v", doc.Components.Schemas.Keys())
	}
}

func TestDerive_CustomSchemaID(t *testing.T) {
	d := New(WithSchemaID(func(t reflect.Type) string {
		for t.Kind() == reflect.Ptr {
			t = t.Elem()
		}
		return "api." + t.Name()
	}))
	schema, err := d.Derive(reflect.TypeOf(invoice{}), nil)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if schema.ID != "api.invoice" {
		t.Fatalf("expected custom id, got %q", schema.ID)
	}
}

func TestDerive_NilSampleYieldsPermissiveSchema(t *testing.T) {
	d := New()
	schema, err := d.DeriveValue(nil, nil)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if len(schema.Types) != 0 {
		t.Fatalf("expected permissive empty schema, got %v", schema.Types)
	}
}
