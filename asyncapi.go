// Package asyncapi generates AsyncAPI documents from code-first descriptors.
//
// Call sites register channel, operation, and message descriptors (usually
// from init functions via the descriptor package), configure one or more
// named documents through config.Builder, and retrieve rendered documents
// either over HTTP (pkg/httpapi) or at build time through a Provider. Both
// paths produce identical bytes for the same configuration and registry
// state.
package asyncapi

import (
	"context"
	"fmt"
	"io"

	"github.com/goliatone/go-asyncapi/pkg/config"
	"github.com/goliatone/go-asyncapi/pkg/generator"
	"github.com/goliatone/go-asyncapi/pkg/serializer"
)

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithGenerator overrides the document generator.
func WithGenerator(gen *generator.Generator) ProviderOption {
	return func(p *Provider) {
		if gen != nil {
			p.gen = gen
		}
	}
}

// WithVersion selects the rendered spec version (default 3.0.0).
func WithVersion(version serializer.Version) ProviderOption {
	return func(p *Provider) {
		p.version = version
	}
}

// Provider renders documents by name. It backs both the HTTP endpoint and
// build-time tooling so the two stay byte-identical.
type Provider struct {
	store   *config.Store
	gen     *generator.Generator
	version serializer.Version
}

// NewProvider constructs a Provider over a configuration store.
func NewProvider(store *config.Store, opts ...ProviderOption) *Provider {
	p := &Provider{
		store:   store,
		gen:     generator.New(),
		version: serializer.V3,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Generate builds and renders the named document. Unknown names surface
// config.ErrDocumentNotFound.
func (p *Provider) Generate(ctx context.Context, documentName string, format serializer.Format) ([]byte, error) {
	opts, err := p.store.Get(documentName)
	if err != nil {
		return nil, err
	}
	doc, err := p.gen.Build(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("asyncapi: build %q: %w", documentName, err)
	}
	return serializer.Serialize(doc, p.version, format)
}

// Write renders the named document to w, for tooling outside the request
// pipeline.
func (p *Provider) Write(ctx context.Context, documentName string, format serializer.Format, w io.Writer) error {
	data, err := p.Generate(ctx, documentName, format)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
