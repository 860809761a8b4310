package spec

import "encoding/json"

// Bindings serialize as a single-entry object keyed by protocol, matching the
// AsyncAPI bindings object shape.

// MarshalJSON renders the binding under its protocol key.
func (b ChannelBinding) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{b.Protocol: b.Value})
}

// MarshalYAML renders the binding under its protocol key.
func (b ChannelBinding) MarshalYAML() (any, error) {
	return map[string]any{b.Protocol: b.Value}, nil
}

// MarshalJSON renders the binding under its protocol key.
func (b OperationBinding) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{b.Protocol: b.Value})
}

// MarshalYAML renders the binding under its protocol key.
func (b OperationBinding) MarshalYAML() (any, error) {
	return map[string]any{b.Protocol: b.Value}, nil
}
