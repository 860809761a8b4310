package spec

// Action is the AsyncAPI-level action an operation performs.
type Action string

const (
	// ActionSend marks an operation where the application sends messages.
	ActionSend Action = "send"
	// ActionReceive marks an operation where the application receives messages.
	ActionReceive Action = "receive"
)

// Info carries document metadata.
type Info struct {
	Title       string   `json:"title" yaml:"title"`
	Version     string   `json:"version" yaml:"version"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	License     *License `json:"license,omitempty" yaml:"license,omitempty"`
}

// License identifies the license that applies to the API.
type License struct {
	Name string `json:"name" yaml:"name"`
	URL  string `json:"url,omitempty" yaml:"url,omitempty"`
}

// Server describes a broker the application connects to.
type Server struct {
	Host        string `json:"host" yaml:"host"`
	Protocol    string `json:"protocol" yaml:"protocol"`
	Pathname    string `json:"pathname,omitempty" yaml:"pathname,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Parameter describes a templated segment of a channel address.
type Parameter struct {
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Enum        []string `json:"enum,omitempty" yaml:"enum,omitempty"`
	Default     string   `json:"default,omitempty" yaml:"default,omitempty"`
	Location    string   `json:"location,omitempty" yaml:"location,omitempty"`
}

// Channel is a named addressable topic or route over which messages flow.
type Channel struct {
	Address     string                  `json:"address,omitempty" yaml:"address,omitempty"`
	Description string                  `json:"description,omitempty" yaml:"description,omitempty"`
	Servers     []string                `json:"-" yaml:"-"`
	Parameters  *OrderedMap[*Parameter] `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	Messages    *OrderedMap[*Message]   `json:"-" yaml:"-"`
}

// Operation binds an action to a channel. Channel and Messages hold document
// keys; the serializer turns them into version-specific references.
type Operation struct {
	Action      Action   `json:"action" yaml:"action"`
	Channel     string   `json:"-" yaml:"-"`
	Messages    []string `json:"-" yaml:"-"`
	Summary     string   `json:"summary,omitempty" yaml:"summary,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Tags        []*Tag   `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// Message is a named, schema-typed payload definition.
type Message struct {
	Name        string       `json:"name,omitempty" yaml:"name,omitempty"`
	Title       string       `json:"title,omitempty" yaml:"title,omitempty"`
	Summary     string       `json:"summary,omitempty" yaml:"summary,omitempty"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	ContentType string       `json:"contentType,omitempty" yaml:"contentType,omitempty"`
	Payload     *SchemaOrRef `json:"payload,omitempty" yaml:"payload,omitempty"`
	Headers     *SchemaOrRef `json:"headers,omitempty" yaml:"headers,omitempty"`
}

// Tag is a label attachable to operations and the components table.
type Tag struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// ChannelBinding is protocol-specific channel metadata, serialized under its
// protocol key.
type ChannelBinding struct {
	Protocol string
	Value    any
}

// OperationBinding is protocol-specific operation metadata.
type OperationBinding struct {
	Protocol string
	Value    any
}

// Components is the shared table of de-duplicated, referenceable objects.
type Components struct {
	Schemas           *OrderedMap[*SchemaOrRef]
	Messages          *OrderedMap[*Message]
	ChannelBindings   *OrderedMap[ChannelBinding]
	OperationBindings *OrderedMap[OperationBinding]
	Tags              *OrderedMap[*Tag]
}

// NewComponents constructs an empty components table.
func NewComponents() *Components {
	return &Components{
		Schemas:           NewOrderedMap[*SchemaOrRef](),
		Messages:          NewOrderedMap[*Message](),
		ChannelBindings:   NewOrderedMap[ChannelBinding](),
		OperationBindings: NewOrderedMap[OperationBinding](),
		Tags:              NewOrderedMap[*Tag](),
	}
}

// Document is the root aggregate assembled per generation call.
type Document struct {
	Info               Info
	DefaultContentType string
	Servers            *OrderedMap[*Server]
	Channels           *OrderedMap[*Channel]
	Operations         *OrderedMap[*Operation]
	Components         *Components
}

// NewDocument constructs an empty document skeleton.
func NewDocument() *Document {
	return &Document{
		Servers:    NewOrderedMap[*Server](),
		Channels:   NewOrderedMap[*Channel](),
		Operations: NewOrderedMap[*Operation](),
		Components: NewComponents(),
	}
}

// EnsureChannel returns the channel stored under key, creating it on first
// use. Existing channels are returned as-is so callers can merge
// non-destructively.
func (d *Document) EnsureChannel(key string) *Channel {
	if existing, ok := d.Channels.Get(key); ok {
		return existing
	}
	ch := &Channel{
		Parameters: NewOrderedMap[*Parameter](),
		Messages:   NewOrderedMap[*Message](),
	}
	d.Channels.Set(key, ch)
	return ch
}

// AddMessage registers a message under key on both the channel and the
// document components. Duplicate registrations are no-ops.
func (d *Document) AddMessage(channelKey, key string, msg *Message) bool {
	ch := d.EnsureChannel(channelKey)
	if ch.Messages.Has(key) || d.Components.Messages.Has(key) {
		return false
	}
	ch.Messages.Set(key, msg)
	d.Components.Messages.Set(key, msg)
	return true
}

// AddOperation registers an operation under id. The first registration wins;
// later duplicates are silently ignored (documented limitation, kept for
// output stability).
func (d *Document) AddOperation(id string, op *Operation) bool {
	if d.Operations.Has(id) {
		return false
	}
	d.Operations.Set(id, op)
	return true
}
