// Package serializer renders assembled documents into the textual forms of
// AsyncAPI 2.6 and 3.0. The two versions are structurally different
// renderings, not flag variants of one another: v3 separates operations from
// channels, v2 nests actions under channels directly.
package serializer

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-asyncapi/pkg/spec"
)

// Version selects the rendering path.
type Version string

const (
	// V2 renders AsyncAPI 2.6.0.
	V2 Version = "2.6.0"
	// V3 renders AsyncAPI 3.0.0.
	V3 Version = "3.0.0"
)

// Format selects the textual encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ContentType returns the response content type for a format.
func ContentType(format Format) string {
	if format == FormatYAML {
		return "application/yaml"
	}
	return "application/json"
}

// Serialize renders doc for the requested version and format.
func Serialize(doc *spec.Document, version Version, format Format) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("serializer: nil document")
	}
	switch version {
	case V2:
		return serializeV2(doc, format)
	case V3, "":
		return serializeV3(doc, format)
	default:
		return nil, fmt.Errorf("serializer: unsupported version %q", version)
	}
}

func encode(v any, format Format) ([]byte, error) {
	if format == FormatYAML {
		return yaml.Marshal(v)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// ref is a plain reference object.
type ref struct {
	Ref string `json:"$ref" yaml:"$ref"`
}

// refEscape encodes a key for use inside a JSON pointer fragment.
func refEscape(key string) string {
	out := make([]byte, 0, len(key))
	for i := 0; i < len(key); i++ {
		switch key[i] {
		case '~':
			out = append(out, '~', '0')
		case '/':
			out = append(out, '~', '1')
		default:
			out = append(out, key[i])
		}
	}
	return string(out)
}
