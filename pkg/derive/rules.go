package derive

import "github.com/goliatone/go-asyncapi/pkg/spec"

// Rule maps a declarative validation constraint onto schema keywords. Rules
// apply in declaration order and each rule overwrites the keywords it
// carries, so the last rule targeting a keyword wins. Callers that stack
// overlapping rules get the later values; this matches how repeated
// constraint declarations behave upstream and is deliberately not merged.
type Rule interface {
	apply(s *spec.Schema)
}

// Range constrains numeric values.
type Range struct {
	Min          *float64
	Max          *float64
	ExclusiveMin bool
	ExclusiveMax bool
}

func (r Range) apply(s *spec.Schema) {
	s.Minimum = r.Min
	s.Maximum = r.Max
	s.ExclusiveMinimum = r.ExclusiveMin
	s.ExclusiveMaximum = r.ExclusiveMax
}

// Length constrains string length, or item count when the schema describes
// an array.
type Length struct {
	Min *int
	Max *int
}

func (l Length) apply(s *spec.Schema) {
	if s.Types.Contains("array") {
		s.MinItems = l.Min
		s.MaxItems = l.Max
		return
	}
	s.MinLength = l.Min
	s.MaxLength = l.Max
}

// Pattern constrains string values to a regular expression.
type Pattern struct {
	Expr string
}

func (p Pattern) apply(s *spec.Schema) {
	s.Pattern = p.Expr
}

func applyRules(s *spec.Schema, rules []Rule) {
	for _, rule := range rules {
		if rule != nil {
			rule.apply(s)
		}
	}
}

// Float is a convenience for building *float64 rule bounds.
func Float(v float64) *float64 { return &v }

// Int is a convenience for building *int rule bounds.
func Int(v int) *int { return &v }
