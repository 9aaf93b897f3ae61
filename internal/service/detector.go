package service

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"unicode"

	"github.com/perceptlab/percept/internal/domain"
	"go.uber.org/zap"
)

// Detection constants
const (
	// Custom check thresholds
	DefaultOCRTextMinLength     = 20  // OCR output longer than this contradicts a "no text" caption
	DefaultScreenshotNoiseLimit = 0.5 // Noise level above this is suspicious for a screenshot

	// Garbled text heuristic
	DefaultGarbledRunLimit   = 3   // More consecutive symbol characters than this is garbled
	DefaultConsonantRunLimit = 5   // More consecutive consonants than this is garbled
	DefaultGarbledRatio      = 0.3 // Symbol share of all characters above this is garbled
)

// RuleCheck is a rule-specific evaluation registered under a rule id. It
// takes precedence over the generic comparison for its rule's type and
// returns whether the signals contradict plus an explanation.
type RuleCheck func(rule domain.ContradictionRule, a, b domain.Signal) (bool, string)

// Detector scans a completed signal set for logical contradictions using a
// per-instance rule list seeded from DefaultRules. Mutating the rule list
// affects only this instance, never the shared default catalog.
type Detector struct {
	mu     sync.RWMutex
	rules  []domain.ContradictionRule
	checks map[string]RuleCheck
	logger *zap.Logger
}

func NewDetector(logger *zap.Logger) *Detector {
	d := &Detector{
		rules:  DefaultRules(),
		checks: make(map[string]RuleCheck),
		logger: logger,
	}
	d.RegisterCheck("grayscale_vs_colors", checkGrayscaleVsColors)
	d.RegisterCheck("blur_vs_edges", checkBlurVsEdges)
	d.RegisterCheck("ocr_vs_vision_text", checkOCRVsVisionText)
	d.RegisterCheck("ocr_garbled_text", checkOCRGarbledText)
	d.RegisterCheck("faces_on_icon", checkFacesOnIcon)
	d.RegisterCheck("exif_on_rasterized", checkExifOnRasterized)
	d.RegisterCheck("screenshot_vs_noise", checkScreenshotVsNoise)
	return d
}

// Rules returns a copy of this detector's rule list.
func (d *Detector) Rules() []domain.ContradictionRule {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]domain.ContradictionRule, len(d.rules))
	copy(out, d.rules)
	return out
}

func (d *Detector) RuleCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.rules)
}

func (d *Detector) GetRule(ruleID string) (domain.ContradictionRule, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, r := range d.rules {
		if r.ID == ruleID {
			return r, true
		}
	}
	return domain.ContradictionRule{}, false
}

// AddRule appends the rule, or replaces the existing rule carrying the same
// id.
func (d *Detector) AddRule(rule domain.ContradictionRule) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, r := range d.rules {
		if r.ID == rule.ID {
			d.rules[i] = rule
			return
		}
	}
	d.rules = append(d.rules, rule)
}

// RemoveRule deletes the rule with the given id, reporting whether it
// existed.
func (d *Detector) RemoveRule(ruleID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, r := range d.rules {
		if r.ID == ruleID {
			d.rules = append(d.rules[:i], d.rules[i+1:]...)
			return true
		}
	}
	return false
}

func (d *Detector) SetRuleEnabled(ruleID string, enabled bool) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, r := range d.rules {
		if r.ID == ruleID {
			d.rules[i].Enabled = enabled
			return true
		}
	}
	return false
}

// RegisterCheck installs a rule-specific evaluation under a rule id,
// replacing any previous one. Custom-type rules require a registered check;
// numeric-divergence rules use one in place of the generic threshold test
// when present.
func (d *Detector) RegisterCheck(ruleID string, check RuleCheck) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.checks[ruleID] = check
}

func (d *Detector) check(ruleID string) (RuleCheck, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	c, ok := d.checks[ruleID]
	return c, ok
}

// DetectContradictions evaluates every enabled rule against the context's
// signals. A rule that errors or panics is logged and excluded; the
// remaining rules still run.
func (d *Detector) DetectContradictions(ac *domain.AnalysisContext) []domain.ContradictionResult {
	d.mu.RLock()
	rules := make([]domain.ContradictionRule, len(d.rules))
	copy(rules, d.rules)
	d.mu.RUnlock()

	results := []domain.ContradictionResult{}
	for _, rule := range rules {
		if !rule.Enabled {
			continue
		}

		result, err := d.evaluateRule(rule, ac)
		if err != nil {
			d.logger.Warn("rule evaluation failed",
				zap.String("rule", rule.ID),
				zap.Error(err))
			continue
		}
		if result == nil {
			continue
		}

		d.logger.Info("contradiction detected",
			zap.String("rule", rule.ID),
			zap.String("severity", string(result.Severity)),
			zap.String("explanation", result.Explanation))
		results = append(results, *result)
	}
	return results
}

// DetectInProfile rehydrates a completed profile into a fresh context and
// runs detection over it.
func (d *Detector) DetectInProfile(p *domain.Profile) []domain.ContradictionResult {
	return d.DetectContradictions(p.NewContext())
}

func (d *Detector) evaluateRule(rule domain.ContradictionRule, ac *domain.AnalysisContext) (result *domain.ContradictionResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("rule panicked: %v", r)
		}
	}()

	sigA, okA := ac.GetBestSignal(rule.SignalKeyA)
	if !okA {
		return nil, nil
	}
	sigB, okB := ac.GetBestSignal(rule.SignalKeyB)

	// A resolved operand below the confidence floor disqualifies the rule
	// entirely. An absent operand does not: missing_implied inspects
	// absence itself.
	if sigA.Confidence < rule.MinConfidenceThreshold {
		return nil, nil
	}
	if okB && sigB.Confidence < rule.MinConfidenceThreshold {
		return nil, nil
	}

	if rule.Type == domain.ContradictionMissingImplied {
		return d.checkMissingImplied(rule, sigA, sigB, okB), nil
	}
	if !okB {
		return nil, nil
	}

	switch rule.Type {
	case domain.ContradictionValueConflict:
		return d.checkValueConflict(rule, sigA, sigB, ac), nil
	case domain.ContradictionNumericDivergence:
		return d.checkNumericDivergence(rule, sigA, sigB), nil
	case domain.ContradictionBooleanOpposite:
		return d.checkBooleanOpposite(rule, sigA, sigB), nil
	case domain.ContradictionMutuallyExclusive:
		return d.checkMutuallyExclusive(rule, sigA, sigB), nil
	case domain.ContradictionCustom:
		return d.checkCustom(rule, sigA, sigB), nil
	default:
		return nil, nil
	}
}

func (d *Detector) checkValueConflict(rule domain.ContradictionRule, a, b domain.Signal, ac *domain.AnalysisContext) *domain.ContradictionResult {
	valA := domain.StringValue(a.Value)
	valB := domain.StringValue(b.Value)

	if len(rule.ExpectedValues) > 0 && len(rule.ContradictoryValues) > 0 {
		if containsFold(rule.ExpectedValues, valA) && containsFold(rule.ContradictoryValues, valB) {
			return newResult(rule, &a, &b,
				fmt.Sprintf("%s is %q but %s is %q", rule.SignalKeyA, valA, rule.SignalKeyB, valB))
		}
		return nil
	}

	// Same-key mode: different waves disagreeing about one key. Compare the
	// best signal against every other eligible entry under that key.
	if rule.SignalKeyA == rule.SignalKeyB {
		for _, other := range ac.GetSignals(rule.SignalKeyA) {
			if other.Confidence < rule.MinConfidenceThreshold {
				continue
			}
			otherVal := domain.StringValue(other.Value)
			if otherVal != valA {
				return newResult(rule, &a, &other,
					fmt.Sprintf("conflicting values for %s: %q from %s vs %q from %s",
						rule.SignalKeyA, valA, a.Source, otherVal, other.Source))
			}
		}
	}
	return nil
}

func (d *Detector) checkNumericDivergence(rule domain.ContradictionRule, a, b domain.Signal) *domain.ContradictionResult {
	// Rule-specific overrides take precedence over the generic threshold
	// comparison.
	if check, ok := d.check(rule.ID); ok {
		flagged, explanation := check(rule, a, b)
		if !flagged {
			return nil
		}
		return newResult(rule, &a, &b, explanation)
	}

	numA, okA := domain.NumericValue(a.Value)
	numB, okB := domain.NumericValue(b.Value)
	if !okA || !okB {
		return nil
	}
	if math.Abs(numA-numB) <= rule.Threshold {
		return nil
	}
	return newResult(rule, &a, &b,
		fmt.Sprintf("%s (%.2f) and %s (%.2f) diverge by more than %.2f",
			rule.SignalKeyA, numA, rule.SignalKeyB, numB, rule.Threshold))
}

func (d *Detector) checkBooleanOpposite(rule domain.ContradictionRule, a, b domain.Signal) *domain.ContradictionResult {
	valA, okA := domain.BoolValue(a.Value)
	valB, okB := domain.BoolValue(b.Value)
	if !okA || !okB || valA == valB {
		return nil
	}
	return newResult(rule, &a, &b,
		fmt.Sprintf("%s is %t but %s is %t", rule.SignalKeyA, valA, rule.SignalKeyB, valB))
}

func (d *Detector) checkMutuallyExclusive(rule domain.ContradictionRule, a, b domain.Signal) *domain.ContradictionResult {
	valA := domain.StringValue(a.Value)
	valB := domain.StringValue(b.Value)
	if !containsFold(rule.ExpectedValues, valA) || !containsFold(rule.ContradictoryValues, valB) {
		return nil
	}
	return newResult(rule, &a, &b,
		fmt.Sprintf("%s %q cannot occur together with %s %q",
			rule.SignalKeyA, valA, rule.SignalKeyB, valB))
}

func (d *Detector) checkMissingImplied(rule domain.ContradictionRule, a, b domain.Signal, hasB bool) *domain.ContradictionResult {
	score, ok := domain.NumericValue(a.Value)
	if !ok || score <= rule.Threshold {
		return nil
	}
	if hasB && strings.TrimSpace(domain.StringValue(b.Value)) != "" {
		return nil
	}
	return newResult(rule, &a, nil,
		fmt.Sprintf("%s is %.2f but %s is missing or empty", rule.SignalKeyA, score, rule.SignalKeyB))
}

func (d *Detector) checkCustom(rule domain.ContradictionRule, a, b domain.Signal) *domain.ContradictionResult {
	check, ok := d.check(rule.ID)
	if !ok {
		d.logger.Debug("no check registered for custom rule", zap.String("rule", rule.ID))
		return nil
	}
	flagged, explanation := check(rule, a, b)
	if !flagged {
		return nil
	}
	return newResult(rule, &a, &b, explanation)
}

func newResult(rule domain.ContradictionRule, a, b *domain.Signal, explanation string) *domain.ContradictionResult {
	return &domain.ContradictionResult{
		Rule:        rule,
		SignalA:     a,
		SignalB:     b,
		Explanation: explanation,
		Severity:    rule.Severity,
		Resolution:  rule.Resolution.Describe(),
	}
}

func checkGrayscaleVsColors(rule domain.ContradictionRule, a, b domain.Signal) (bool, string) {
	isGray, okA := domain.BoolValue(a.Value)
	saturation, okB := domain.NumericValue(b.Value)
	if !okA || !okB {
		return false, ""
	}
	if isGray && saturation > rule.Threshold {
		return true, fmt.Sprintf("image flagged as grayscale but mean saturation is %.2f", saturation)
	}
	return false, ""
}

func checkBlurVsEdges(rule domain.ContradictionRule, a, b domain.Signal) (bool, string) {
	blur, okA := domain.NumericValue(a.Value)
	edges, okB := domain.NumericValue(b.Value)
	if !okA || !okB {
		return false, ""
	}
	if blur > rule.Threshold && edges > rule.Threshold {
		return true, fmt.Sprintf("blur score %.2f and edge strength %.2f are both high", blur, edges)
	}
	return false, ""
}

func checkOCRVsVisionText(rule domain.ContradictionRule, a, b domain.Signal) (bool, string) {
	text := strings.TrimSpace(domain.StringValue(a.Value))
	caption := strings.ToLower(domain.StringValue(b.Value))
	if len(text) > DefaultOCRTextMinLength && strings.Contains(caption, "no text") {
		return true, fmt.Sprintf("ocr extracted %d characters but the caption says the image has no text", len(text))
	}
	return false, ""
}

func checkOCRGarbledText(rule domain.ContradictionRule, a, b domain.Signal) (bool, string) {
	confidence, ok := domain.NumericValue(a.Value)
	if !ok {
		return false, ""
	}
	text := domain.StringValue(b.Value)
	if confidence > rule.Threshold && looksGarbled(text) {
		return true, fmt.Sprintf("ocr reports %.2f confidence but the extracted text looks garbled", confidence)
	}
	return false, ""
}

func checkFacesOnIcon(rule domain.ContradictionRule, a, b domain.Signal) (bool, string) {
	faces, ok := domain.NumericValue(a.Value)
	if !ok {
		return false, ""
	}
	classification := strings.ToLower(domain.StringValue(b.Value))
	if faces > 0 && (strings.Contains(classification, "icon") || strings.Contains(classification, "diagram")) {
		return true, fmt.Sprintf("%d faces detected on an image classified as %s", int(faces), classification)
	}
	return false, ""
}

func checkExifOnRasterized(rule domain.ContradictionRule, a, b domain.Signal) (bool, string) {
	hasExif, ok := domain.BoolValue(a.Value)
	if !ok {
		return false, ""
	}
	format := strings.ToLower(domain.StringValue(b.Value))
	if hasExif && (format == "png" || format == "gif" || format == "bmp") {
		return true, fmt.Sprintf("exif metadata present on %s, a format that does not normally carry it", format)
	}
	return false, ""
}

func checkScreenshotVsNoise(rule domain.ContradictionRule, a, b domain.Signal) (bool, string) {
	classification := strings.ToLower(domain.StringValue(a.Value))
	noise, ok := domain.NumericValue(b.Value)
	if !ok {
		return false, ""
	}
	if strings.Contains(classification, "screenshot") && noise > DefaultScreenshotNoiseLimit {
		return true, fmt.Sprintf("screenshot classification but noise level is %.2f", noise)
	}
	return false, ""
}

// looksGarbled reports whether text resembles OCR noise rather than prose:
// a run of more than DefaultGarbledRunLimit symbol characters, a run of
// more than DefaultConsonantRunLimit consonants, or symbols making up more
// than DefaultGarbledRatio of all characters.
func looksGarbled(text string) bool {
	if text == "" {
		return false
	}

	symbolRun := 0
	consonantRun := 0
	symbols := 0
	total := 0

	for _, r := range text {
		total++
		alnum := unicode.IsLetter(r) || unicode.IsDigit(r)

		if !alnum && !unicode.IsSpace(r) {
			symbols++
			symbolRun++
			if symbolRun > DefaultGarbledRunLimit {
				return true
			}
		} else {
			symbolRun = 0
		}

		if unicode.IsLetter(r) && !isVowel(r) {
			consonantRun++
			if consonantRun > DefaultConsonantRunLimit {
				return true
			}
		} else {
			consonantRun = 0
		}
	}

	return float64(symbols)/float64(total) > DefaultGarbledRatio
}

func isVowel(r rune) bool {
	switch unicode.ToLower(r) {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	}
	return false
}

func containsFold(values []string, v string) bool {
	for _, candidate := range values {
		if strings.EqualFold(candidate, v) {
			return true
		}
	}
	return false
}
