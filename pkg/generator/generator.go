// Package generator assembles AsyncAPI documents from registered
// descriptors and per-document configuration. Each Build call runs the full
// sequence — init, discover, bind channels, bind messages, bind operations,
// apply configured bindings, transform, finalize — and leaves no state
// behind between calls.
package generator

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-asyncapi/pkg/config"
	"github.com/goliatone/go-asyncapi/pkg/derive"
	"github.com/goliatone/go-asyncapi/pkg/descriptor"
	"github.com/goliatone/go-asyncapi/pkg/resolver"
	"github.com/goliatone/go-asyncapi/pkg/spec"
	"github.com/goliatone/go-asyncapi/pkg/transform"
)

// Option configures a Generator.
type Option func(*Generator)

// WithRegistry overrides the descriptor registry (default: the process-wide
// registry).
func WithRegistry(r *descriptor.Registry) Option {
	return func(g *Generator) {
		if r != nil {
			g.registry = r
		}
	}
}

// WithLogger attaches a logger; the default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(g *Generator) {
		g.log = log
	}
}

// Generator builds documents. It is stateless across calls: all mutable
// state lives in the Document and the per-call Deriver.
type Generator struct {
	registry *descriptor.Registry
	log      zerolog.Logger
}

// New constructs a Generator.
func New(opts ...Option) *Generator {
	g := &Generator{
		registry: descriptor.Default,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// Build assembles the document described by opts. Transformer instances and
// derivation caches are created fresh for this call.
func (g *Generator) Build(ctx context.Context, opts *config.Options) (*spec.Document, error) {
	if opts == nil {
		return nil, fmt.Errorf("generator: nil options")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc := spec.NewDocument()
	doc.Info = opts.Info
	doc.DefaultContentType = opts.DefaultContentType
	for _, named := range opts.Servers {
		server := named.Server
		doc.Servers.Set(named.Name, &server)
	}
	for _, tag := range opts.Tags {
		entry := tag
		doc.Components.Tags.Set(tag.Name, &entry)
	}

	deriveOpts := []derive.Option{derive.WithLogger(g.log)}
	if opts.SchemaID != nil {
		deriveOpts = append(deriveOpts, derive.WithSchemaID(opts.SchemaID))
	}
	for _, reg := range opts.Types {
		deriveOpts = append(deriveOpts, derive.WithTypeOptions(reg.Sample, reg.Options))
	}
	deriver := derive.New(deriveOpts...)

	types := g.registry.ForDocument(opts.Name)
	g.log.Debug().Str("document", opts.Name).Int("types", len(types)).Msg("discovered descriptors")

	for _, t := range types {
		for _, ch := range t.Channels {
			if strings.TrimSpace(ch.Name) == "" {
				g.log.Warn().Str("type", t.Name).Msg("skipping channel without a name")
				continue
			}
			g.bindChannel(doc, ch)
			if err := g.bindMessages(doc, deriver, ch); err != nil {
				return nil, err
			}
			g.bindOperations(doc, t, ch)
		}
	}

	applyConfiguredBindings(doc, opts)

	tc := transform.NewContext(opts.Name, doc, deriver)
	pipeline := transform.NewPipeline(opts.DocumentTransformers, opts.OperationTransformers, opts.SchemaTransformers)
	if err := pipeline.Run(ctx, tc); err != nil {
		return nil, fmt.Errorf("generator: transform: %w", err)
	}

	doc.Components.Schemas.SortKeys()
	return doc, nil
}

// bindChannel creates the channel on first sight and fills only previously
// unset fields on rediscovery; set fields are never overwritten.
func (g *Generator) bindChannel(doc *spec.Document, ch descriptor.Channel) {
	channel := doc.EnsureChannel(ch.Name)
	if channel.Address == "" {
		if ch.Address != "" {
			channel.Address = ch.Address
		} else {
			channel.Address = ch.Name
		}
	}
	if channel.Description == "" {
		channel.Description = ch.Description
	}
	if len(channel.Servers) == 0 {
		channel.Servers = append(channel.Servers, ch.Servers...)
	}
	for _, param := range ch.Parameters {
		if param.Name == "" || channel.Parameters.Has(param.Name) {
			continue
		}
		channel.Parameters.Set(param.Name, &spec.Parameter{
			Description: param.Description,
			Enum:        param.Enum,
			Default:     param.Default,
			Location:    param.Location,
		})
	}
}

// bindMessages derives and componentizes payload schemas for every message
// declared on the channel's operations. The first registration under a key
// wins; duplicates are no-ops.
func (g *Generator) bindMessages(doc *spec.Document, deriver *derive.Deriver, ch descriptor.Channel) error {
	for _, op := range ch.Operations {
		for _, md := range op.Messages {
			key := messageKey(md)
			if key == "" {
				g.log.Warn().Str("channel", ch.Name).Msg("skipping message without key or payload")
				continue
			}
			if doc.Components.Messages.Has(key) {
				// duplicate registration; attach to the channel if missing
				if existing, ok := doc.Components.Messages.Get(key); ok {
					channel := doc.EnsureChannel(ch.Name)
					if !channel.Messages.Has(key) {
						channel.Messages.Set(key, existing)
					}
				}
				continue
			}

			msg := &spec.Message{
				Name:        md.Name,
				Title:       md.Title,
				Summary:     md.Summary,
				Description: md.Description,
				ContentType: md.ContentType,
			}
			if msg.Name == "" {
				msg.Name = key
			}

			if md.Payload != nil {
				payload, err := deriver.DeriveValue(md.Payload, nil)
				if err != nil {
					return fmt.Errorf("generator: message %q: %w", key, err)
				}
				msg.Payload = resolver.Resolve(doc, payload, rootID(deriver, payload, md.Payload), "")
			}
			if md.Headers != nil {
				headers, err := deriver.DeriveValue(md.Headers, nil)
				if err != nil {
					return fmt.Errorf("generator: message %q headers: %w", key, err)
				}
				msg.Headers = resolver.Resolve(doc, headers, rootID(deriver, headers, md.Headers), "")
			}

			doc.AddMessage(ch.Name, key, msg)
		}
	}
	return nil
}

// bindOperations registers one operation per declaration. Subscribe intent
// maps to the send action and publish intent to receive: the document
// records what the application does on the wire, not the role the
// declaration names. First registration under an id wins; later duplicates
// are dropped silently (documented limitation).
func (g *Generator) bindOperations(doc *spec.Document, t descriptor.Type, ch descriptor.Channel) {
	for _, op := range ch.Operations {
		id := op.ID
		if id == "" {
			id = fmt.Sprintf("%s_%s_%s", t.Name, op.Member, intentSuffix(op.Intent))
		}
		if doc.Operations.Has(id) {
			g.log.Debug().Str("operation", id).Msg("duplicate operation id ignored")
			continue
		}

		operation := &spec.Operation{
			Action:      actionFor(op.Intent),
			Channel:     ch.Name,
			Summary:     op.Summary,
			Description: op.Description,
		}
		for _, md := range op.Messages {
			if key := messageKey(md); key != "" {
				operation.Messages = append(operation.Messages, key)
			}
		}
		for _, tag := range op.Tags {
			operation.Tags = append(operation.Tags, &spec.Tag{Name: tag})
		}
		doc.AddOperation(id, operation)
	}
}

func applyConfiguredBindings(doc *spec.Document, opts *config.Options) {
	// only the first binding per registered name is consulted
	for _, name := range sortedKeys(opts.ChannelBindings) {
		if list := opts.ChannelBindings[name]; len(list) > 0 {
			doc.Components.ChannelBindings.Set(name, list[0])
		}
	}
	for _, name := range sortedKeys(opts.OperationBindings) {
		if list := opts.OperationBindings[name]; len(list) > 0 {
			doc.Components.OperationBindings.Set(name, list[0])
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func actionFor(intent descriptor.Intent) spec.Action {
	if intent == descriptor.IntentSubscribe {
		return spec.ActionSend
	}
	return spec.ActionReceive
}

func intentSuffix(intent descriptor.Intent) string {
	if intent == descriptor.IntentSubscribe {
		return "Subscribe"
	}
	return "Publish"
}

// messageKey resolves the message component key: explicit id, explicit name,
// then the camel-cased payload type name.
func messageKey(md descriptor.Message) string {
	if md.ID != "" {
		return md.ID
	}
	if md.Name != "" {
		return md.Name
	}
	t := reflect.TypeOf(md.Payload)
	if t == nil {
		return ""
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return camelCase(t.Name())
}

// rootID supplies the fallback component identity for an anonymous derived
// schema. The wrapper union around a nullable componentized schema stays
// anonymous so its identified branch keeps the type's key.
func rootID(deriver *derive.Deriver, schema *spec.Schema, sample any) string {
	if derive.NullUnionBranch(schema) != nil {
		return ""
	}
	t := reflect.TypeOf(sample)
	if t == nil {
		return ""
	}
	return deriver.IDFor(t)
}

func camelCase(name string) string {
	if name == "" {
		return ""
	}
	runes := []rune(name)
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}
