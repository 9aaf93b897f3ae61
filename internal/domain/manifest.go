package domain

import "strings"

// WaveManifest is the static descriptor of a wave: what it emits, what must
// already exist for it to run meaningfully, and what it consumes
// opportunistically. Manifests are loaded once into a registry and never
// mutated. Lower priority numbers run earlier.
type WaveManifest struct {
	Name        string   `json:"name" yaml:"name"`
	Priority    int      `json:"priority" yaml:"priority"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Tags        []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	Emits       []string `json:"emits,omitempty" yaml:"emits,omitempty"`
	Requires    []string `json:"requires,omitempty" yaml:"requires,omitempty"`
	Optional    []string `json:"optional,omitempty" yaml:"optional,omitempty"`
}

// PatternMatches reports whether two signal patterns refer to the same
// signals. Patterns are exact keys, a prefix with a trailing wildcard
// ("color.*"), or the universal wildcard "*". The prefix wildcard is tried
// in both directions, so "color.*" matches the exact key
// "color.mean_saturation" and vice versa.
func PatternMatches(a, b string) bool {
	if a == "*" || b == "*" {
		return true
	}
	if a == b {
		return true
	}
	if strings.HasSuffix(a, "*") && strings.HasPrefix(b, strings.TrimSuffix(a, "*")) {
		return true
	}
	if strings.HasSuffix(b, "*") && strings.HasPrefix(a, strings.TrimSuffix(b, "*")) {
		return true
	}
	return false
}

// EmitsMatching reports whether any of the manifest's Emits patterns
// matches the given pattern.
func (m WaveManifest) EmitsMatching(pattern string) bool {
	for _, emit := range m.Emits {
		if PatternMatches(pattern, emit) {
			return true
		}
	}
	return false
}
