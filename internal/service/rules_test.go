package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/perceptlab/percept/internal/domain"
	"go.uber.org/zap"
)

func TestDefaultRulesCatalog(t *testing.T) {
	rules := DefaultRules()
	if len(rules) != 12 {
		t.Fatalf("got %d default rules, want 12", len(rules))
	}

	ids := make(map[string]struct{})
	for _, r := range rules {
		if r.ID == "" {
			t.Error("rule with empty id")
		}
		if _, dup := ids[r.ID]; dup {
			t.Errorf("duplicate rule id %s", r.ID)
		}
		ids[r.ID] = struct{}{}

		if !r.Enabled {
			t.Errorf("rule %s disabled by default", r.ID)
		}
		if !domain.ValidContradictionType(string(r.Type)) {
			t.Errorf("rule %s has invalid type %s", r.ID, r.Type)
		}
		if !domain.ValidSeverity(string(r.Severity)) {
			t.Errorf("rule %s has invalid severity %s", r.ID, r.Severity)
		}
		if !domain.ValidResolution(string(r.Resolution)) {
			t.Errorf("rule %s has invalid resolution %s", r.ID, r.Resolution)
		}
	}
}

func TestDefaultRulesReturnsFreshSlice(t *testing.T) {
	first := DefaultRules()
	first[0].Enabled = false
	first[0].Threshold = 99

	second := DefaultRules()
	if !second[0].Enabled || second[0].Threshold == 99 {
		t.Error("mutating one DefaultRules result leaked into the next")
	}
}

func TestParseRulesDefaults(t *testing.T) {
	data := []byte(`
rules:
  - id: night_vs_brightness
    signal_key_a: vision.classification
    signal_key_b: color.mean_brightness
    type: custom
    threshold: 0.8
`)

	rules, err := ParseRules(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rules) != 1 {
		t.Fatalf("got %d rules, want 1", len(rules))
	}

	r := rules[0]
	if !r.Enabled {
		t.Error("omitted enabled should default to true")
	}
	if r.Severity != domain.SeverityWarning {
		t.Errorf("severity = %s, want warning", r.Severity)
	}
	if r.Resolution != domain.ResolutionManualReview {
		t.Errorf("resolution = %s, want manual_review", r.Resolution)
	}
	if r.MinConfidenceThreshold != DefaultRuleMinConfidence {
		t.Errorf("min confidence = %f, want %f", r.MinConfidenceThreshold, float32(DefaultRuleMinConfidence))
	}
	if r.Threshold != 0.8 {
		t.Errorf("threshold = %f, want 0.8", r.Threshold)
	}
}

func TestParseRulesExplicitFields(t *testing.T) {
	data := []byte(`
rules:
  - id: strict_saturation
    description: tightened saturation agreement
    signal_key_a: color.mean_saturation
    signal_key_b: vision.saturation_estimate
    type: numeric_divergence
    threshold: 0.1
    severity: info
    min_confidence_threshold: 0.8
    resolution: prefer_higher_confidence
    enabled: false
  - id: still_vs_animated
    signal_key_a: vision.classification
    signal_key_b: format.name
    type: mutually_exclusive
    expected_values: [animation]
    contradictory_values: [jpeg, bmp]
`)

	rules, err := ParseRules(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("got %d rules, want 2", len(rules))
	}

	if rules[0].Enabled {
		t.Error("enabled: false not honored")
	}
	if rules[0].MinConfidenceThreshold != 0.8 {
		t.Errorf("min confidence = %f, want 0.8", rules[0].MinConfidenceThreshold)
	}
	if len(rules[1].ExpectedValues) != 1 || len(rules[1].ContradictoryValues) != 2 {
		t.Errorf("value sets not parsed: %v / %v", rules[1].ExpectedValues, rules[1].ContradictoryValues)
	}
}

func TestParseRulesRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"missing id", "rules:\n  - type: custom\n"},
		{"unknown type", "rules:\n  - id: x\n    type: psychic\n"},
		{"unknown severity", "rules:\n  - id: x\n    type: custom\n    severity: catastrophic\n"},
		{"unknown resolution", "rules:\n  - id: x\n    type: custom\n    resolution: ignore\n"},
		{"not yaml", "rules: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseRules([]byte(tt.data)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestLoadRulesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := []byte(`
rules:
  - id: from_file
    signal_key_a: a.x
    signal_key_b: b.y
    type: boolean_opposite
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	rules, err := LoadRulesFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rules) != 1 || rules[0].ID != "from_file" {
		t.Errorf("got %+v, want one rule from_file", rules)
	}

	if _, err := LoadRulesFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestLoadedRulesExtendDetector(t *testing.T) {
	d := NewDetector(zap.NewNop())
	before := d.RuleCount()

	rules, err := ParseRules([]byte(`
rules:
  - id: grayscale_vs_colors
    signal_key_a: color.is_grayscale
    signal_key_b: color.mean_saturation
    type: numeric_divergence
    threshold: 0.4
  - id: brand_new
    signal_key_a: a.x
    signal_key_b: b.y
    type: boolean_opposite
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, r := range rules {
		d.AddRule(r)
	}

	if d.RuleCount() != before+1 {
		t.Errorf("RuleCount = %d, want %d (one replaced, one added)", d.RuleCount(), before+1)
	}
	got, _ := d.GetRule("grayscale_vs_colors")
	if got.Threshold != 0.4 {
		t.Errorf("threshold = %f, want the loaded 0.4", got.Threshold)
	}
}
