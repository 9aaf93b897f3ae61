package domain

import (
	"time"

	"github.com/google/uuid"
)

// Finding is the persisted form of a ContradictionResult, flattened for
// storage and listing.
type Finding struct {
	ID          uuid.UUID         `json:"id"`
	ProfileID   uuid.UUID         `json:"profile_id"`
	RuleID      string            `json:"rule_id"`
	Type        ContradictionType `json:"type"`
	Severity    Severity          `json:"severity"`
	SignalKeyA  string            `json:"signal_key_a"`
	SignalKeyB  string            `json:"signal_key_b,omitempty"`
	Explanation string            `json:"explanation"`
	Resolution  string            `json:"resolution"`
	DetectedAt  time.Time         `json:"detected_at"`
}

func NewFinding(profileID uuid.UUID, r ContradictionResult) Finding {
	return Finding{
		ID:          uuid.New(),
		ProfileID:   profileID,
		RuleID:      r.Rule.ID,
		Type:        r.Rule.Type,
		Severity:    r.Severity,
		SignalKeyA:  r.Rule.SignalKeyA,
		SignalKeyB:  r.Rule.SignalKeyB,
		Explanation: r.Explanation,
		Resolution:  r.Resolution,
		DetectedAt:  time.Now().UTC(),
	}
}
