// Package config holds the per-document-name configuration consulted on
// every generation call. Options are built once at startup through the
// fluent Builder, are immutable afterwards, and are safe for unlimited
// concurrent reads.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-asyncapi/pkg/derive"
	"github.com/goliatone/go-asyncapi/pkg/spec"
	"github.com/goliatone/go-asyncapi/pkg/transform"
)

// ErrDocumentNotFound is returned when a store lookup misses.
var ErrDocumentNotFound = errors.New("config: document not found")

// NamedServer pairs a server record with its document key.
type NamedServer struct {
	Name   string
	Server spec.Server
}

// TypeRegistration carries derivation options for one payload type.
type TypeRegistration struct {
	Sample  any
	Options derive.TypeOptions
}

// Options is the immutable configuration for one named document.
type Options struct {
	// Name is the document name, lowercased.
	Name               string
	Info               spec.Info
	DefaultContentType string
	Servers            []NamedServer
	Tags               []spec.Tag

	// Bindings are keyed by registration name. Only the first binding per
	// name is consulted during assembly; later additions under the same name
	// are retained here but ignored (documented limitation).
	ChannelBindings   map[string][]spec.ChannelBinding
	OperationBindings map[string][]spec.OperationBinding

	// SchemaID computes componentization identities; nil selects the
	// default type-name strategy.
	SchemaID derive.SchemaIDFunc
	Types    []TypeRegistration

	DocumentTransformers  []transform.DocumentRegistration
	OperationTransformers []transform.OperationRegistration
	SchemaTransformers    []transform.SchemaRegistration
}

// Builder accumulates options. Argument validation failures are recorded and
// surfaced by Build; the first error wins and later calls become no-ops.
type Builder struct {
	opts Options
	err  error
}

// NewBuilder starts a builder for the named document.
func NewBuilder(name string) *Builder {
	b := &Builder{}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		b.err = errors.New("config: document name is required")
		return b
	}
	b.opts.Name = strings.ToLower(trimmed)
	b.opts.ChannelBindings = make(map[string][]spec.ChannelBinding)
	b.opts.OperationBindings = make(map[string][]spec.OperationBinding)
	return b
}

func (b *Builder) fail(err error) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

// Title sets the document title.
func (b *Builder) Title(title string) *Builder {
	if b.err != nil {
		return b
	}
	if strings.TrimSpace(title) == "" {
		return b.fail(errors.New("config: title is required"))
	}
	b.opts.Info.Title = title
	return b
}

// Version sets the document version.
func (b *Builder) Version(version string) *Builder {
	if b.err != nil {
		return b
	}
	if strings.TrimSpace(version) == "" {
		return b.fail(errors.New("config: version is required"))
	}
	b.opts.Info.Version = version
	return b
}

// Description sets the document description.
func (b *Builder) Description(description string) *Builder {
	if b.err != nil {
		return b
	}
	b.opts.Info.Description = description
	return b
}

// License sets the document license.
func (b *Builder) License(name, url string) *Builder {
	if b.err != nil {
		return b
	}
	if strings.TrimSpace(name) == "" {
		return b.fail(errors.New("config: license name is required"))
	}
	b.opts.Info.License = &spec.License{Name: name, URL: url}
	return b
}

// DefaultContentType sets the content type messages default to.
func (b *Builder) DefaultContentType(contentType string) *Builder {
	if b.err != nil {
		return b
	}
	b.opts.DefaultContentType = contentType
	return b
}

// AddServer registers a named server.
func (b *Builder) AddServer(name string, server spec.Server) *Builder {
	if b.err != nil {
		return b
	}
	if strings.TrimSpace(name) == "" {
		return b.fail(errors.New("config: server name is required"))
	}
	if strings.TrimSpace(server.Host) == "" || strings.TrimSpace(server.Protocol) == "" {
		return b.fail(fmt.Errorf("config: server %q needs host and protocol", name))
	}
	b.opts.Servers = append(b.opts.Servers, NamedServer{Name: name, Server: server})
	return b
}

// AddTag registers a document-level tag, published under components.tags.
func (b *Builder) AddTag(name, description string) *Builder {
	if b.err != nil {
		return b
	}
	if strings.TrimSpace(name) == "" {
		return b.fail(errors.New("config: tag name is required"))
	}
	b.opts.Tags = append(b.opts.Tags, spec.Tag{Name: name, Description: description})
	return b
}

// AddChannelBinding appends a protocol binding under name. Bindings form an
// ordered list per name; only index 0 is consulted at assembly time.
func (b *Builder) AddChannelBinding(name string, binding spec.ChannelBinding) *Builder {
	if b.err != nil {
		return b
	}
	if strings.TrimSpace(name) == "" || strings.TrimSpace(binding.Protocol) == "" {
		return b.fail(errors.New("config: channel binding needs name and protocol"))
	}
	b.opts.ChannelBindings[name] = append(b.opts.ChannelBindings[name], binding)
	return b
}

// AddOperationBinding appends a protocol binding under name.
func (b *Builder) AddOperationBinding(name string, binding spec.OperationBinding) *Builder {
	if b.err != nil {
		return b
	}
	if strings.TrimSpace(name) == "" || strings.TrimSpace(binding.Protocol) == "" {
		return b.fail(errors.New("config: operation binding needs name and protocol"))
	}
	b.opts.OperationBindings[name] = append(b.opts.OperationBindings[name], binding)
	return b
}

// SchemaID overrides the schema-reference-id strategy.
func (b *Builder) SchemaID(fn derive.SchemaIDFunc) *Builder {
	if b.err != nil {
		return b
	}
	if fn == nil {
		return b.fail(errors.New("config: schema id func is required"))
	}
	b.opts.SchemaID = fn
	return b
}

// WithTypeOptions registers derivation options for sample's type.
func (b *Builder) WithTypeOptions(sample any, opts derive.TypeOptions) *Builder {
	if b.err != nil {
		return b
	}
	if sample == nil {
		return b.fail(errors.New("config: type options sample is required"))
	}
	b.opts.Types = append(b.opts.Types, TypeRegistration{Sample: sample, Options: opts})
	return b
}

// UseDocumentTransformer appends a ready document transformer instance.
func (b *Builder) UseDocumentTransformer(t transform.DocumentTransformer) *Builder {
	if b.err != nil {
		return b
	}
	if t == nil {
		return b.fail(errors.New("config: document transformer is required"))
	}
	b.opts.DocumentTransformers = append(b.opts.DocumentTransformers, transform.DocumentRegistration{Instance: t})
	return b
}

// UseDocumentTransformerFactory appends a factory resolved per generation
// call; the returned teardown runs immediately after the pipeline.
func (b *Builder) UseDocumentTransformerFactory(f func() (transform.DocumentTransformer, func(), error)) *Builder {
	if b.err != nil {
		return b
	}
	if f == nil {
		return b.fail(errors.New("config: document transformer factory is required"))
	}
	b.opts.DocumentTransformers = append(b.opts.DocumentTransformers, transform.DocumentRegistration{Factory: f})
	return b
}

// UseOperationTransformer appends a ready operation transformer instance.
func (b *Builder) UseOperationTransformer(t transform.OperationTransformer) *Builder {
	if b.err != nil {
		return b
	}
	if t == nil {
		return b.fail(errors.New("config: operation transformer is required"))
	}
	b.opts.OperationTransformers = append(b.opts.OperationTransformers, transform.OperationRegistration{Instance: t})
	return b
}

// UseOperationTransformerFactory appends a factory resolved per call.
func (b *Builder) UseOperationTransformerFactory(f func() (transform.OperationTransformer, func(), error)) *Builder {
	if b.err != nil {
		return b
	}
	if f == nil {
		return b.fail(errors.New("config: operation transformer factory is required"))
	}
	b.opts.OperationTransformers = append(b.opts.OperationTransformers, transform.OperationRegistration{Factory: f})
	return b
}

// UseSchemaTransformer appends a ready schema transformer instance.
func (b *Builder) UseSchemaTransformer(t transform.SchemaTransformer) *Builder {
	if b.err != nil {
		return b
	}
	if t == nil {
		return b.fail(errors.New("config: schema transformer is required"))
	}
	b.opts.SchemaTransformers = append(b.opts.SchemaTransformers, transform.SchemaRegistration{Instance: t})
	return b
}

// UseSchemaTransformerFactory appends a factory resolved per call.
func (b *Builder) UseSchemaTransformerFactory(f func() (transform.SchemaTransformer, func(), error)) *Builder {
	if b.err != nil {
		return b
	}
	if f == nil {
		return b.fail(errors.New("config: schema transformer factory is required"))
	}
	b.opts.SchemaTransformers = append(b.opts.SchemaTransformers, transform.SchemaRegistration{Factory: f})
	return b
}

// Build finalizes the options. Any recorded argument error surfaces here.
func (b *Builder) Build() (*Options, error) {
	if b.err != nil {
		return nil, b.err
	}
	opts := b.opts
	if opts.Info.Title == "" {
		opts.Info.Title = opts.Name
	}
	if opts.Info.Version == "" {
		opts.Info.Version = "1.0.0"
	}
	return &opts, nil
}
