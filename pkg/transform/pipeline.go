package transform

import (
	"context"
	"fmt"

	"github.com/goliatone/go-asyncapi/pkg/spec"
)

// Pipeline applies registered transformers in order: every schema
// transformer sweeps the component schemas and the inline message payload
// and header trees (each visiting everything before the next starts), then
// operation transformers run once per operation, then document transformers
// run last.
type Pipeline struct {
	documents  []DocumentRegistration
	operations []OperationRegistration
	schemas    []SchemaRegistration
}

// NewPipeline builds a pipeline from registration lists. The slices are used
// as-is; callers must not mutate them afterwards.
func NewPipeline(documents []DocumentRegistration, operations []OperationRegistration, schemas []SchemaRegistration) *Pipeline {
	return &Pipeline{documents: documents, operations: operations, schemas: schemas}
}

// Run executes the pipeline against the context's document. Cancellation is
// cooperative: the signal is checked at entry and between top-level hook
// invocations, never preemptively.
func (p *Pipeline) Run(ctx context.Context, tc *Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if tc == nil || tc.Document == nil {
		return nil
	}

	var teardowns []func()
	defer func() {
		for _, teardown := range teardowns {
			teardown()
		}
	}()

	schemaHooks := make([]SchemaTransformer, 0, len(p.schemas))
	for _, reg := range p.schemas {
		hook, teardown, err := reg.resolve()
		if err != nil {
			return fmt.Errorf("transform: resolve schema transformer: %w", err)
		}
		if teardown != nil {
			teardowns = append(teardowns, teardown)
		}
		schemaHooks = append(schemaHooks, hook)
	}
	operationHooks := make([]OperationTransformer, 0, len(p.operations))
	for _, reg := range p.operations {
		hook, teardown, err := reg.resolve()
		if err != nil {
			return fmt.Errorf("transform: resolve operation transformer: %w", err)
		}
		if teardown != nil {
			teardowns = append(teardowns, teardown)
		}
		operationHooks = append(operationHooks, hook)
	}
	documentHooks := make([]DocumentTransformer, 0, len(p.documents))
	for _, reg := range p.documents {
		hook, teardown, err := reg.resolve()
		if err != nil {
			return fmt.Errorf("transform: resolve document transformer: %w", err)
		}
		if teardown != nil {
			teardowns = append(teardowns, teardown)
		}
		documentHooks = append(documentHooks, hook)
	}

	doc := tc.Document

	for _, hook := range schemaHooks {
		seen := make(map[*spec.Schema]bool)
		for _, key := range doc.Components.Schemas.Keys() {
			if err := ctx.Err(); err != nil {
				return err
			}
			entry, _ := doc.Components.Schemas.Get(key)
			if entry == nil || entry.Schema == nil {
				continue
			}
			if err := p.visitSchema(ctx, hook, entry.Schema, tc, seen); err != nil {
				return err
			}
		}
		// payloads kept inline (no component key) never appear in the
		// schemas table; sweep them from their message roots as well.
		for _, key := range doc.Components.Messages.Keys() {
			if err := ctx.Err(); err != nil {
				return err
			}
			msg, _ := doc.Components.Messages.Get(key)
			if msg == nil {
				continue
			}
			for _, node := range []*spec.SchemaOrRef{msg.Payload, msg.Headers} {
				if node == nil || node.Schema == nil {
					continue
				}
				if err := p.visitSchema(ctx, hook, node.Schema, tc, seen); err != nil {
					return err
				}
			}
		}
	}

	for _, id := range doc.Operations.Keys() {
		op, _ := doc.Operations.Get(id)
		for _, hook := range operationHooks {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := hook.TransformOperation(ctx, id, op, tc); err != nil {
				return fmt.Errorf("transform: operation %q: %w", id, err)
			}
		}
	}

	for _, hook := range documentHooks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := hook.TransformDocument(ctx, doc, tc); err != nil {
			return fmt.Errorf("transform: document %q: %w", tc.DocumentName, err)
		}
	}
	return nil
}

// visitSchema applies one transformer to a node, then recurses: positionally
// into declared union branches (stopping at the shorter of branch count and
// declared count), into array items, into properties by name, and into
// map-style additional properties.
func (p *Pipeline) visitSchema(ctx context.Context, hook SchemaTransformer, s *spec.Schema, tc *Context, seen map[*spec.Schema]bool) error {
	if s == nil || seen[s] {
		return nil
	}
	seen[s] = true

	if err := hook.TransformSchema(ctx, s, tc); err != nil {
		return fmt.Errorf("transform: schema: %w", err)
	}

	if declared := tc.DeclaredBranches(s); declared > 0 {
		limit := declared
		if len(s.OneOf) < limit {
			limit = len(s.OneOf)
		}
		for i := 0; i < limit; i++ {
			if branch := s.OneOf[i]; branch != nil && branch.Schema != nil {
				if err := p.visitSchema(ctx, hook, branch.Schema, tc, seen); err != nil {
					return err
				}
			}
		}
	}

	if s.Items != nil && s.Items.Schema != nil {
		if err := p.visitSchema(ctx, hook, s.Items.Schema, tc, seen); err != nil {
			return err
		}
	}
	if s.Properties != nil {
		for _, name := range s.Properties.Keys() {
			prop, _ := s.Properties.Get(name)
			if prop != nil && prop.Schema != nil {
				if err := p.visitSchema(ctx, hook, prop.Schema, tc, seen); err != nil {
					return err
				}
			}
		}
	}
	if s.AdditionalProperties != nil && s.AdditionalProperties.Schema != nil {
		if err := p.visitSchema(ctx, hook, s.AdditionalProperties.Schema, tc, seen); err != nil {
			return err
		}
	}
	return nil
}
