package ai

import (
	"sort"
	"strings"
)

// Registry resolves generators by name.
type Registry struct {
	generators  map[string]Generator
	defaultName string
	basic       *KeywordGenerator
}

func NewRegistry(basic *KeywordGenerator, defaultName string, extra ...Generator) *Registry {
	r := &Registry{
		generators:  map[string]Generator{BasicGeneratorName: basic},
		defaultName: strings.ToLower(strings.TrimSpace(defaultName)),
		basic:       basic,
	}
	for _, g := range extra {
		r.generators[strings.ToLower(g.Name())] = g
	}
	if r.defaultName == "" {
		r.defaultName = BasicGeneratorName
	}
	return r
}

// Resolve returns the generator registered under name, the default one when
// name is empty, and otherwise a keyword generator whose fallback reply says
// the requested model is unavailable.
func (r *Registry) Resolve(name string) Generator {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = r.defaultName
	}
	if g, ok := r.generators[key]; ok {
		return g
	}
	return r.basic.WithFallback(UnavailableReply)
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.generators))
	for name := range r.generators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
