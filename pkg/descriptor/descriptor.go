// Package descriptor is the declarative surface the document assembler
// consumes: call sites register channel, operation, and message descriptors
// (code-first), and the assembler turns the descriptor list into a document.
package descriptor

// Intent is the application-level role a declaration expresses. Note the
// assembler maps subscribe intent to the document's "send" action and publish
// intent to "receive": the document describes what the application does on
// the wire, which is the inverse of the role the declaration names.
type Intent string

const (
	IntentPublish   Intent = "publish"
	IntentSubscribe Intent = "subscribe"
)

// Type groups the channels one source type contributes. Name feeds the
// deterministic operation-id fallback, so it should match the declaring
// type's name.
type Type struct {
	// Name of the declaring type.
	Name string
	// Documents restricts the type to the named documents. Empty means all.
	Documents []string
	Channels  []Channel
}

// Channel declares a named channel, its address metadata, and the operations
// bound to it.
type Channel struct {
	// Name keys the channel within the document.
	Name string
	// Address is the routing key or topic; defaults to Name when empty.
	Address     string
	Description string
	// Servers lists server names this channel is available on.
	Servers    []string
	Parameters []Parameter
	Operations []Operation
}

// Parameter declares one templated segment of a channel address.
type Parameter struct {
	Name        string
	Description string
	Enum        []string
	Default     string
	Location    string
}

// Operation declares one side of a communication on a channel.
type Operation struct {
	// Member is the declaring member name, used in the operation-id fallback.
	Member string
	Intent Intent
	// ID overrides the deterministic fallback id.
	ID          string
	Summary     string
	Description string
	Tags        []string
	Messages    []Message
}

// Message declares a payload flowing through an operation. Key precedence:
// explicit ID, explicit Name, then a camel-cased payload type name.
type Message struct {
	// Payload is a sample value of the payload type.
	Payload any
	// Headers is an optional sample value for the message headers.
	Headers     any
	ID          string
	Name        string
	Title       string
	Summary     string
	Description string
	ContentType string
}
