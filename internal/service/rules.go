package service

import (
	"fmt"
	"os"

	"github.com/perceptlab/percept/internal/domain"
	"gopkg.in/yaml.v3"
)

// DefaultRuleMinConfidence is the confidence floor applied to every default
// rule; a resolved operand below it makes the rule inapplicable.
const DefaultRuleMinConfidence = 0.5

// DefaultRules returns the built-in rule catalog. Each call returns a fresh
// slice, so detectors never share mutable rule state.
func DefaultRules() []domain.ContradictionRule {
	return []domain.ContradictionRule{
		{
			ID:                     "grayscale_vs_colors",
			Description:            "An image flagged as grayscale should not carry meaningful saturation",
			SignalKeyA:             "color.is_grayscale",
			SignalKeyB:             "color.mean_saturation",
			Type:                   domain.ContradictionNumericDivergence,
			Threshold:              0.2,
			Severity:               domain.SeverityWarning,
			MinConfidenceThreshold: DefaultRuleMinConfidence,
			Resolution:             domain.ResolutionPreferHigherConfidence,
			Enabled:                true,
		},
		{
			ID:                     "blur_vs_edges",
			Description:            "A heavily blurred image should not also show strong edges",
			SignalKeyA:             "quality.blur_score",
			SignalKeyB:             "quality.edge_strength",
			Type:                   domain.ContradictionNumericDivergence,
			Threshold:              0.6,
			Severity:               domain.SeverityWarning,
			MinConfidenceThreshold: DefaultRuleMinConfidence,
			Resolution:             domain.ResolutionMarkConflicting,
			Enabled:                true,
		},
		{
			ID:                     "saturation_agreement",
			Description:            "Measured saturation and the vision model's estimate should roughly agree",
			SignalKeyA:             "color.mean_saturation",
			SignalKeyB:             "vision.saturation_estimate",
			Type:                   domain.ContradictionNumericDivergence,
			Threshold:              0.3,
			Severity:               domain.SeverityInfo,
			MinConfidenceThreshold: DefaultRuleMinConfidence,
			Resolution:             domain.ResolutionPreferHigherConfidence,
			Enabled:                true,
		},
		{
			ID:                     "classification_consensus",
			Description:            "Waves disagreeing about the image classification",
			SignalKeyA:             "vision.classification",
			SignalKeyB:             "vision.classification",
			Type:                   domain.ContradictionValueConflict,
			Severity:               domain.SeverityWarning,
			MinConfidenceThreshold: DefaultRuleMinConfidence,
			Resolution:             domain.ResolutionRemoveBoth,
			Enabled:                true,
		},
		{
			ID:                     "grayscale_flag_agreement",
			Description:            "The measured grayscale flag and the vision model's monochrome flag should agree",
			SignalKeyA:             "color.is_grayscale",
			SignalKeyB:             "vision.is_monochrome",
			Type:                   domain.ContradictionBooleanOpposite,
			Severity:               domain.SeverityInfo,
			MinConfidenceThreshold: DefaultRuleMinConfidence,
			Resolution:             domain.ResolutionPreferHigherConfidence,
			Enabled:                true,
		},
		{
			ID:                     "animation_still_format",
			Description:            "An image classified as animated cannot live in a still-only container",
			SignalKeyA:             "vision.classification",
			SignalKeyB:             "format.name",
			Type:                   domain.ContradictionMutuallyExclusive,
			Severity:               domain.SeverityWarning,
			MinConfidenceThreshold: DefaultRuleMinConfidence,
			ExpectedValues:         []string{"animation", "animated"},
			ContradictoryValues:    []string{"jpeg", "png", "bmp"},
			Resolution:             domain.ResolutionManualReview,
			Enabled:                true,
		},
		{
			ID:                     "high_text_without_ocr",
			Description:            "A high text-likeliness score implies OCR should have extracted something",
			SignalKeyA:             "textlike.score",
			SignalKeyB:             "ocr.text",
			Type:                   domain.ContradictionMissingImplied,
			Threshold:              0.7,
			Severity:               domain.SeverityInfo,
			MinConfidenceThreshold: DefaultRuleMinConfidence,
			Resolution:             domain.ResolutionEscalateForReview,
			Enabled:                true,
		},
		{
			ID:                     "ocr_vs_vision_text",
			Description:            "OCR extracted substantial text but the caption claims there is none",
			SignalKeyA:             "ocr.text",
			SignalKeyB:             "vision.caption",
			Type:                   domain.ContradictionCustom,
			Severity:               domain.SeverityWarning,
			MinConfidenceThreshold: DefaultRuleMinConfidence,
			Resolution:             domain.ResolutionPreferHigherConfidence,
			Enabled:                true,
		},
		{
			ID:                     "ocr_garbled_text",
			Description:            "OCR reports high confidence on text that looks like noise",
			SignalKeyA:             "ocr.confidence",
			SignalKeyB:             "ocr.text",
			Type:                   domain.ContradictionCustom,
			Threshold:              0.7,
			Severity:               domain.SeverityWarning,
			MinConfidenceThreshold: DefaultRuleMinConfidence,
			Resolution:             domain.ResolutionMarkConflicting,
			Enabled:                true,
		},
		{
			ID:                     "faces_on_icon",
			Description:            "Face detections on an image classified as an icon or diagram",
			SignalKeyA:             "vision.face_count",
			SignalKeyB:             "vision.classification",
			Type:                   domain.ContradictionCustom,
			Severity:               domain.SeverityWarning,
			MinConfidenceThreshold: DefaultRuleMinConfidence,
			Resolution:             domain.ResolutionManualReview,
			Enabled:                true,
		},
		{
			ID:                     "exif_on_rasterized",
			Description:            "EXIF metadata on a format that does not normally carry it",
			SignalKeyA:             "format.has_exif",
			SignalKeyB:             "format.name",
			Type:                   domain.ContradictionCustom,
			Severity:               domain.SeverityInfo,
			MinConfidenceThreshold: DefaultRuleMinConfidence,
			Resolution:             domain.ResolutionPreferMostRecent,
			Enabled:                true,
		},
		{
			ID:                     "screenshot_vs_noise",
			Description:            "Screenshots are digitally captured and should be nearly noise free",
			SignalKeyA:             "vision.classification",
			SignalKeyB:             "quality.noise_level",
			Type:                   domain.ContradictionCustom,
			Severity:               domain.SeverityInfo,
			MinConfidenceThreshold: DefaultRuleMinConfidence,
			Resolution:             domain.ResolutionEscalateForReview,
			Enabled:                true,
		},
	}
}

type ruleSpec struct {
	ID                  string   `yaml:"id"`
	Description         string   `yaml:"description"`
	SignalKeyA          string   `yaml:"signal_key_a"`
	SignalKeyB          string   `yaml:"signal_key_b"`
	Type                string   `yaml:"type"`
	Threshold           float64  `yaml:"threshold"`
	Severity            string   `yaml:"severity"`
	MinConfidence       *float32 `yaml:"min_confidence_threshold"`
	ExpectedValues      []string `yaml:"expected_values"`
	ContradictoryValues []string `yaml:"contradictory_values"`
	Resolution          string   `yaml:"resolution"`
	Enabled             *bool    `yaml:"enabled"`
}

type rulesFile struct {
	Rules []ruleSpec `yaml:"rules"`
}

// LoadRulesFile reads contradiction rules from a YAML file. Omitted enabled
// flags default to true, omitted severities to warning, omitted resolutions
// to manual review.
func LoadRulesFile(path string) ([]domain.ContradictionRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	return ParseRules(data)
}

// ParseRules parses YAML rule definitions, validating type, severity and
// resolution names.
func ParseRules(data []byte) ([]domain.ContradictionRule, error) {
	var file rulesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}

	rules := make([]domain.ContradictionRule, 0, len(file.Rules))
	for i, spec := range file.Rules {
		if spec.ID == "" {
			return nil, fmt.Errorf("rule %d: missing id", i)
		}
		if !domain.ValidContradictionType(spec.Type) {
			return nil, fmt.Errorf("rule %s: unknown type %q", spec.ID, spec.Type)
		}

		severity := spec.Severity
		if severity == "" {
			severity = string(domain.SeverityWarning)
		}
		if !domain.ValidSeverity(severity) {
			return nil, fmt.Errorf("rule %s: unknown severity %q", spec.ID, spec.Severity)
		}

		resolution := spec.Resolution
		if resolution == "" {
			resolution = string(domain.ResolutionManualReview)
		}
		if !domain.ValidResolution(resolution) {
			return nil, fmt.Errorf("rule %s: unknown resolution %q", spec.ID, spec.Resolution)
		}

		minConfidence := float32(DefaultRuleMinConfidence)
		if spec.MinConfidence != nil {
			minConfidence = *spec.MinConfidence
		}
		enabled := true
		if spec.Enabled != nil {
			enabled = *spec.Enabled
		}

		rules = append(rules, domain.ContradictionRule{
			ID:                     spec.ID,
			Description:            spec.Description,
			SignalKeyA:             spec.SignalKeyA,
			SignalKeyB:             spec.SignalKeyB,
			Type:                   domain.ContradictionType(spec.Type),
			Threshold:              spec.Threshold,
			Severity:               domain.Severity(severity),
			MinConfidenceThreshold: minConfidence,
			ExpectedValues:         spec.ExpectedValues,
			ContradictoryValues:    spec.ContradictoryValues,
			Resolution:             domain.Resolution(resolution),
			Enabled:                enabled,
		})
	}
	return rules, nil
}
