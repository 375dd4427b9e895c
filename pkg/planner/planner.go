package planner

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultKnownTools is the tool vocabulary used for hallucination
// detection when no deployment-specific list is configured.
var DefaultKnownTools = []string{
	"splunk", "crowdstrike", "sentinelone", "microsoft defender", "defender",
	"qradar", "elastic", "wireshark", "zeek", "suricata", "nessus",
	"velociraptor", "osquery", "carbon black", "palo alto", "wazuh",
}

// Planner reviews draft responses. Safe for concurrent use; all state
// is read-only after construction.
type Planner struct {
	knownTools map[string]bool
	now        func() time.Time
}

// NewPlanner builds a planner with the given known-tool list
// (DefaultKnownTools when empty).
func NewPlanner(knownTools []string) *Planner {
	if len(knownTools) == 0 {
		knownTools = DefaultKnownTools
	}
	set := make(map[string]bool, len(knownTools))
	for _, t := range knownTools {
		set[strings.ToLower(t)] = true
	}
	return &Planner{knownTools: set, now: time.Now}
}

// Plan reviews one draft response in the context of the event it
// answers. It is deterministic given identical inputs and never
// panics outward: any internal failure degrades to escalation_needed
// with human review, never to silent approval.
func (p *Planner) Plan(event map[string]any, draftResponse map[string]any) (artifact *ThinkingArtifact, decision *SeniorDecision) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[WARN] planner failure, failing closed: %v", r)
			artifact, decision = p.failClosed(artifact, fmt.Sprintf("internal review failure: %v", r))
		}
	}()

	eventType := mapString(event, "event_type", "search_name", "name")
	host := mapString(event, "host", "hostname")
	draft := ParseDraft(draftResponse)

	artifact = &ThinkingArtifact{
		ID:        "think_" + uuid.New().String(),
		CreatedAt: p.now(),
		EventType: eventType,
		Host:      host,
	}

	artifact.RiskScore = scoreRisk(eventType, host, draft.Text())
	artifact.RiskLevel = bucketRisk(artifact.RiskScore)
	artifact.SafetyConcerns = scanSafetyConcerns(&draft)
	artifact.RedFlags = scanRedFlags(&draft, p.knownTools)
	artifact.PlannedCitations = planCitations(eventType)

	decisionType := deriveDecisionType(artifact.RiskLevel, len(artifact.RedFlags))
	artifact.Plan = fmt.Sprintf("risk=%s score=%d flags=%d concerns=%d -> %s",
		artifact.RiskLevel, artifact.RiskScore, len(artifact.RedFlags),
		len(artifact.SafetyConcerns), decisionType)
	artifact.ConfidenceRationale = confidenceRationale(&draft, artifact)

	decision = &SeniorDecision{
		ID:                "dec_" + uuid.New().String(),
		ArtifactID:        artifact.ID,
		Type:              decisionType,
		ResponseOverrides: map[string]any{},
	}

	switch decisionType {
	case DecisionSafetyRefusal:
		buildRefusal(decision, &draft, artifact)
	case DecisionEscalationNeeded:
		buildEscalation(decision, &draft, artifact)
	case DecisionPartialResponse:
		buildPartial(decision, &draft, artifact)
	default:
		buildSafe(decision, &draft)
	}

	// Every branch overwrites the citation list.
	decision.ResponseOverrides["citations"] = artifact.PlannedCitations

	return artifact, decision
}

// failClosed produces the conservative fallback decision after an
// internal failure. The artifact is preserved if scoring got that far.
func (p *Planner) failClosed(artifact *ThinkingArtifact, reason string) (*ThinkingArtifact, *SeniorDecision) {
	if artifact == nil {
		artifact = &ThinkingArtifact{
			ID:        "think_" + uuid.New().String(),
			CreatedAt: p.now(),
		}
	}
	if artifact.RiskLevel == "" || !artifact.RiskLevel.AtLeast(RiskCritical) {
		artifact.RiskLevel = RiskCritical
	}
	artifact.RedFlags = append(artifact.RedFlags, reason)
	artifact.PlannedCitations = planCitations(artifact.EventType)

	dec := &SeniorDecision{
		ID:                  "dec_" + uuid.New().String(),
		ArtifactID:          artifact.ID,
		Type:                DecisionEscalationNeeded,
		HumanReviewRequired: true,
		EscalationReason:    reason,
		Explanation: "Safety review could not complete; the draft response is held " +
			"for human review and no proposed action is approved.",
		Guardrails:        []string{guardrailApprovalFirst, guardrailPreserveEvidence, guardrailFullLogging},
		ResponseOverrides: map[string]any{"citations": artifact.PlannedCitations},
	}
	return artifact, dec
}

func confidenceRationale(d *Draft, a *ThinkingArtifact) string {
	switch {
	case len(a.RedFlags) > 0:
		return fmt.Sprintf("draft confidence %.2f discounted for %d red flags", d.Confidence, len(a.RedFlags))
	case len(d.Citations) == 0:
		return fmt.Sprintf("draft confidence %.2f, uncited", d.Confidence)
	default:
		return fmt.Sprintf("draft confidence %.2f supported by %d citations", d.Confidence, len(d.Citations))
	}
}
