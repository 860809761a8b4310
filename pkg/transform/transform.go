// Package transform runs user-supplied hooks over an assembled document
// before serialization. Hooks register per document name, apply in
// registration order, and live for a single generation call.
package transform

import (
	"context"
	"errors"
	"reflect"

	"github.com/goliatone/go-asyncapi/pkg/derive"
	"github.com/goliatone/go-asyncapi/pkg/resolver"
	"github.com/goliatone/go-asyncapi/pkg/spec"
)

// DocumentTransformer mutates the whole document. Document transformers run
// last, once per document.
type DocumentTransformer interface {
	TransformDocument(ctx context.Context, doc *spec.Document, tc *Context) error
}

// OperationTransformer mutates one operation. Invoked once per discovered
// operation.
type OperationTransformer interface {
	TransformOperation(ctx context.Context, id string, op *spec.Operation, tc *Context) error
}

// SchemaTransformer mutates one schema node. Each registered transformer
// sweeps the whole tree before the next one starts.
type SchemaTransformer interface {
	TransformSchema(ctx context.Context, s *spec.Schema, tc *Context) error
}

// Func adapters.

type DocumentTransformerFunc func(ctx context.Context, doc *spec.Document, tc *Context) error

func (f DocumentTransformerFunc) TransformDocument(ctx context.Context, doc *spec.Document, tc *Context) error {
	return f(ctx, doc, tc)
}

type OperationTransformerFunc func(ctx context.Context, id string, op *spec.Operation, tc *Context) error

func (f OperationTransformerFunc) TransformOperation(ctx context.Context, id string, op *spec.Operation, tc *Context) error {
	return f(ctx, id, op, tc)
}

type SchemaTransformerFunc func(ctx context.Context, s *spec.Schema, tc *Context) error

func (f SchemaTransformerFunc) TransformSchema(ctx context.Context, s *spec.Schema, tc *Context) error {
	return f(ctx, s, tc)
}

// Registrations hold either a ready instance or a factory resolved
// immediately before the pipeline runs. Factory-built transformers are torn
// down immediately after the run; nothing is cached across calls.

type DocumentRegistration struct {
	Instance DocumentTransformer
	Factory  func() (DocumentTransformer, func(), error)
}

func (r DocumentRegistration) resolve() (DocumentTransformer, func(), error) {
	if r.Factory != nil {
		return r.Factory()
	}
	if r.Instance == nil {
		return nil, nil, errors.New("transform: empty document registration")
	}
	return r.Instance, nil, nil
}

type OperationRegistration struct {
	Instance OperationTransformer
	Factory  func() (OperationTransformer, func(), error)
}

func (r OperationRegistration) resolve() (OperationTransformer, func(), error) {
	if r.Factory != nil {
		return r.Factory()
	}
	if r.Instance == nil {
		return nil, nil, errors.New("transform: empty operation registration")
	}
	return r.Instance, nil, nil
}

type SchemaRegistration struct {
	Instance SchemaTransformer
	Factory  func() (SchemaTransformer, func(), error)
}

func (r SchemaRegistration) resolve() (SchemaTransformer, func(), error) {
	if r.Factory != nil {
		return r.Factory()
	}
	if r.Instance == nil {
		return nil, nil, errors.New("transform: empty schema registration")
	}
	return r.Instance, nil, nil
}

// Context is handed to every hook. It exposes the document under
// construction and on-demand schema derivation bound to the same document.
type Context struct {
	DocumentName string
	Document     *spec.Document

	deriver *derive.Deriver
}

// NewContext builds a transformer context for one generation call.
func NewContext(documentName string, doc *spec.Document, deriver *derive.Deriver) *Context {
	return &Context{DocumentName: documentName, Document: doc, deriver: deriver}
}

// DeriveSchema derives and componentizes a schema for sample's type, bound
// to the context's document.
func (c *Context) DeriveSchema(sample any) (*spec.SchemaOrRef, error) {
	if c.deriver == nil {
		return nil, errors.New("transform: context has no deriver")
	}
	schema, err := c.deriver.DeriveValue(sample, nil)
	if err != nil {
		return nil, err
	}
	rootID := ""
	if t := reflect.TypeOf(sample); t != nil && derive.NullUnionBranch(schema) == nil {
		rootID = c.deriver.IDFor(t)
	}
	return resolver.Resolve(c.Document, schema, rootID, ""), nil
}

// DeclaredBranches reports the declared derived-type count for a schema,
// zero when unknown.
func (c *Context) DeclaredBranches(s *spec.Schema) int {
	if c.deriver == nil {
		return 0
	}
	return c.deriver.DeclaredBranches(s)
}
