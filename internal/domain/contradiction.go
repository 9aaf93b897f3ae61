package domain

type ContradictionType string

const (
	ContradictionValueConflict     ContradictionType = "value_conflict"
	ContradictionNumericDivergence ContradictionType = "numeric_divergence"
	ContradictionBooleanOpposite   ContradictionType = "boolean_opposite"
	ContradictionMutuallyExclusive ContradictionType = "mutually_exclusive"
	ContradictionMissingImplied    ContradictionType = "missing_implied"
	ContradictionCustom            ContradictionType = "custom"
)

func ValidContradictionType(t string) bool {
	switch ContradictionType(t) {
	case ContradictionValueConflict, ContradictionNumericDivergence,
		ContradictionBooleanOpposite, ContradictionMutuallyExclusive,
		ContradictionMissingImplied, ContradictionCustom:
		return true
	}
	return false
}

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

func ValidSeverity(s string) bool {
	switch Severity(s) {
	case SeverityInfo, SeverityWarning:
		return true
	}
	return false
}

// Resolution is the recommended way to reconcile a detected contradiction.
// The detector only annotates results with it, nothing applies it
// automatically.
type Resolution string

const (
	ResolutionPreferHigherConfidence Resolution = "prefer_higher_confidence"
	ResolutionPreferMostRecent       Resolution = "prefer_most_recent"
	ResolutionMarkConflicting        Resolution = "mark_conflicting"
	ResolutionRemoveBoth             Resolution = "remove_both"
	ResolutionEscalateForReview      Resolution = "escalate_for_review"
	ResolutionManualReview           Resolution = "manual_review"
)

func ValidResolution(r string) bool {
	switch Resolution(r) {
	case ResolutionPreferHigherConfidence, ResolutionPreferMostRecent,
		ResolutionMarkConflicting, ResolutionRemoveBoth,
		ResolutionEscalateForReview, ResolutionManualReview:
		return true
	}
	return false
}

func (r Resolution) Describe() string {
	switch r {
	case ResolutionPreferHigherConfidence:
		return "keep the signal with the higher confidence"
	case ResolutionPreferMostRecent:
		return "keep the most recently recorded signal"
	case ResolutionMarkConflicting:
		return "keep both signals but mark them as conflicting"
	case ResolutionRemoveBoth:
		return "treat both signals as unreliable and discard them"
	case ResolutionEscalateForReview:
		return "escalate the conflict for downstream review"
	case ResolutionManualReview:
		return "hold for manual review"
	default:
		return "no resolution recommended"
	}
}

// ContradictionRule is a declarative check comparing two signal keys.
// Threshold applies to signal values; MinConfidenceThreshold disqualifies
// the rule entirely when either operand's confidence falls below it.
// ExpectedValues and ContradictoryValues drive the set-based check types.
type ContradictionRule struct {
	ID                     string            `json:"id" yaml:"id"`
	Description            string            `json:"description,omitempty" yaml:"description,omitempty"`
	SignalKeyA             string            `json:"signal_key_a" yaml:"signal_key_a"`
	SignalKeyB             string            `json:"signal_key_b" yaml:"signal_key_b"`
	Type                   ContradictionType `json:"type" yaml:"type"`
	Threshold              float64           `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	Severity               Severity          `json:"severity" yaml:"severity"`
	MinConfidenceThreshold float32           `json:"min_confidence_threshold,omitempty" yaml:"min_confidence_threshold,omitempty"`
	ExpectedValues         []string          `json:"expected_values,omitempty" yaml:"expected_values,omitempty"`
	ContradictoryValues    []string          `json:"contradictory_values,omitempty" yaml:"contradictory_values,omitempty"`
	Resolution             Resolution        `json:"resolution" yaml:"resolution"`
	Enabled                bool              `json:"enabled" yaml:"enabled"`
}

// ContradictionResult records one detected conflict. SignalB is nil for
// single-signal checks such as missing_implied. Resolution carries the
// human-readable description of the recommended strategy.
type ContradictionResult struct {
	Rule        ContradictionRule `json:"rule"`
	SignalA     *Signal           `json:"signal_a,omitempty"`
	SignalB     *Signal           `json:"signal_b,omitempty"`
	Explanation string            `json:"explanation"`
	Severity    Severity          `json:"severity"`
	Resolution  string            `json:"resolution"`
}
