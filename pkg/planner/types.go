// Package planner reviews draft incident responses before they reach an
// operator. It scores risk, scans for unsafe actions and inconsistency
// signals, and emits a final decision that approves, trims, or refuses
// the draft. The planner is pure with respect to its configuration and
// never fails open: internal errors degrade to escalation, not
// approval.
package planner

import "time"

// RiskLevel is the bucketed risk of acting on a draft response.
type RiskLevel string

const (
	RiskLow          RiskLevel = "low"
	RiskMedium       RiskLevel = "medium"
	RiskHigh         RiskLevel = "high"
	RiskCritical     RiskLevel = "critical"
	RiskUnacceptable RiskLevel = "unacceptable"
)

var riskRank = map[RiskLevel]int{
	RiskLow:          0,
	RiskMedium:       1,
	RiskHigh:         2,
	RiskCritical:     3,
	RiskUnacceptable: 4,
}

// AtLeast reports whether l is as severe as other.
func (l RiskLevel) AtLeast(other RiskLevel) bool {
	return riskRank[l] >= riskRank[other]
}

// DecisionType is the closed set of review outcomes.
type DecisionType string

const (
	DecisionSafeAnalysis     DecisionType = "safe_analysis"
	DecisionSafetyRefusal    DecisionType = "safety_refusal"
	DecisionPartialResponse  DecisionType = "partial_response"
	DecisionEscalationNeeded DecisionType = "escalation_needed"
)

// ThinkingArtifact records the reasoning behind one SeniorDecision. It
// is retained for audit and debugging only and is never shown to end
// users.
type ThinkingArtifact struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	EventType string `json:"event_type"`
	Host      string `json:"host"`

	RiskScore int       `json:"risk_score"`
	RiskLevel RiskLevel `json:"risk_level"`

	SafetyConcerns []string `json:"safety_concerns"`
	RedFlags       []string `json:"red_flags"`

	Plan                string   `json:"plan"`
	ConfidenceRationale string   `json:"confidence_rationale"`
	PlannedCitations    []string `json:"planned_citations"`
}

// SeniorDecision is the final review verdict applied to a draft
// response. Immutable once returned.
type SeniorDecision struct {
	ID         string       `json:"id"`
	ArtifactID string       `json:"artifact_id"`
	Type       DecisionType `json:"type"`

	ApprovedActions []string `json:"approved_actions"`
	RejectedActions []string `json:"rejected_actions"`
	Guardrails      []string `json:"guardrails"`

	HumanReviewRequired bool   `json:"human_review_required"`
	EscalationReason    string `json:"escalation_reason,omitempty"`
	Explanation         string `json:"explanation"`

	// ResponseOverrides are field replacements the renderer must apply
	// to the draft before showing it (body, classification, confidence,
	// citations).
	ResponseOverrides map[string]any `json:"response_overrides"`
}
