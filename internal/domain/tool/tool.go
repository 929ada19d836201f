// Package tool defines capabilities the agent may invoke.
package tool

import (
	"context"
	"strings"
)

// Tool is a named callable capability exposed to the agent loop.
type Tool interface {
	Name() string
	Description() string
	Call(ctx context.Context, input string) (string, error)
}

// FunctionName converts a display name into a function-calling identifier:
// "Web Search" -> "web_search".
func FunctionName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// Set is an ordered, read-only collection of tools indexed by function name.
type Set struct {
	tools  []Tool
	byName map[string]Tool
}

// NewSet builds a Set. Later tools with a duplicate function name replace earlier ones in lookups.
func NewSet(tools ...Tool) *Set {
	s := &Set{
		tools:  tools,
		byName: make(map[string]Tool, len(tools)),
	}
	for _, t := range tools {
		s.byName[FunctionName(t.Name())] = t
	}
	return s
}

// Lookup finds a tool by its function name or display name.
func (s *Set) Lookup(name string) (Tool, bool) {
	t, ok := s.byName[FunctionName(name)]
	return t, ok
}

// All returns tools in registration order.
func (s *Set) All() []Tool { return s.tools }

// Names returns display names in registration order.
func (s *Set) Names() []string {
	names := make([]string, len(s.tools))
	for i, t := range s.tools {
		names[i] = t.Name()
	}
	return names
}
