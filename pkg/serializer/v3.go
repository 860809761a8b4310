package serializer

import "github.com/goliatone/go-asyncapi/pkg/spec"

type v3Document struct {
	AsyncAPI           string                              `json:"asyncapi" yaml:"asyncapi"`
	Info               spec.Info                           `json:"info" yaml:"info"`
	DefaultContentType string                              `json:"defaultContentType,omitempty" yaml:"defaultContentType,omitempty"`
	Servers            *spec.OrderedMap[*spec.Server]      `json:"servers,omitempty" yaml:"servers,omitempty"`
	Channels           *spec.OrderedMap[*v3Channel]        `json:"channels,omitempty" yaml:"channels,omitempty"`
	Operations         *spec.OrderedMap[*v3Operation]      `json:"operations,omitempty" yaml:"operations,omitempty"`
	Components         *v3Components                       `json:"components,omitempty" yaml:"components,omitempty"`
}

type v3Channel struct {
	Address     string                            `json:"address,omitempty" yaml:"address,omitempty"`
	Description string                            `json:"description,omitempty" yaml:"description,omitempty"`
	Servers     []ref                             `json:"servers,omitempty" yaml:"servers,omitempty"`
	Parameters  *spec.OrderedMap[*spec.Parameter] `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	Messages    *spec.OrderedMap[ref]             `json:"messages,omitempty" yaml:"messages,omitempty"`
}

type v3Operation struct {
	Action      spec.Action `json:"action" yaml:"action"`
	Channel     ref         `json:"channel" yaml:"channel"`
	Summary     string      `json:"summary,omitempty" yaml:"summary,omitempty"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	Messages    []ref       `json:"messages,omitempty" yaml:"messages,omitempty"`
	Tags        []*spec.Tag `json:"tags,omitempty" yaml:"tags,omitempty"`
}

type v3Components struct {
	Schemas           *spec.OrderedMap[*spec.SchemaOrRef]        `json:"schemas,omitempty" yaml:"schemas,omitempty"`
	Messages          *spec.OrderedMap[*spec.Message]            `json:"messages,omitempty" yaml:"messages,omitempty"`
	ChannelBindings   *spec.OrderedMap[spec.ChannelBinding]      `json:"channelBindings,omitempty" yaml:"channelBindings,omitempty"`
	OperationBindings *spec.OrderedMap[spec.OperationBinding]    `json:"operationBindings,omitempty" yaml:"operationBindings,omitempty"`
	Tags              *spec.OrderedMap[*spec.Tag]                `json:"tags,omitempty" yaml:"tags,omitempty"`
}

func serializeV3(doc *spec.Document, format Format) ([]byte, error) {
	out := &v3Document{
		AsyncAPI:           string(V3),
		Info:               doc.Info,
		DefaultContentType: doc.DefaultContentType,
	}
	if doc.Servers.Len() > 0 {
		out.Servers = doc.Servers
	}

	if doc.Channels.Len() > 0 {
		channels := spec.NewOrderedMap[*v3Channel]()
		for _, key := range doc.Channels.Keys() {
			ch, _ := doc.Channels.Get(key)
			wire := &v3Channel{
				Address:     ch.Address,
				Description: ch.Description,
			}
			for _, server := range ch.Servers {
				wire.Servers = append(wire.Servers, ref{Ref: "#/servers/" + refEscape(server)})
			}
			if ch.Parameters.Len() > 0 {
				wire.Parameters = ch.Parameters
			}
			if ch.Messages.Len() > 0 {
				messages := spec.NewOrderedMap[ref]()
				for _, msgKey := range ch.Messages.Keys() {
					messages.Set(msgKey, ref{Ref: "#/components/messages/" + refEscape(msgKey)})
				}
				wire.Messages = messages
			}
			channels.Set(key, wire)
		}
		out.Channels = channels
	}

	if doc.Operations.Len() > 0 {
		operations := spec.NewOrderedMap[*v3Operation]()
		for _, id := range doc.Operations.Keys() {
			op, _ := doc.Operations.Get(id)
			wire := &v3Operation{
				Action:      op.Action,
				Channel:     ref{Ref: "#/channels/" + refEscape(op.Channel)},
				Summary:     op.Summary,
				Description: op.Description,
				Tags:        op.Tags,
			}
			for _, msgKey := range op.Messages {
				wire.Messages = append(wire.Messages, ref{
					Ref: "#/channels/" + refEscape(op.Channel) + "/messages/" + refEscape(msgKey),
				})
			}
			operations.Set(id, wire)
		}
		out.Operations = operations
	}

	out.Components = v3ComponentsFor(doc.Components)
	return encode(out, format)
}

func v3ComponentsFor(c *spec.Components) *v3Components {
	if c == nil {
		return nil
	}
	out := &v3Components{}
	empty := true
	if c.Schemas.Len() > 0 {
		out.Schemas = c.Schemas
		empty = false
	}
	if c.Messages.Len() > 0 {
		out.Messages = c.Messages
		empty = false
	}
	if c.ChannelBindings.Len() > 0 {
		out.ChannelBindings = c.ChannelBindings
		empty = false
	}
	if c.OperationBindings.Len() > 0 {
		out.OperationBindings = c.OperationBindings
		empty = false
	}
	if c.Tags.Len() > 0 {
		out.Tags = c.Tags
		empty = false
	}
	if empty {
		return nil
	}
	return out
}
