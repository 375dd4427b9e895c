package planner

import "strings"

const refusalBody = "The proposed response was rejected by safety review. " +
	"It contains actions that could cause irreversible damage or violate " +
	"operational safety policy. A human analyst must review this incident " +
	"before any action is taken."

// Guardrail strings attached to decisions.
const (
	guardrailGenericIR        = "follow organizational IR procedure"
	guardrailApprovalFirst    = "obtain approval before executing any containment action"
	guardrailPreserveEvidence = "preserve forensic evidence before modifying any system"
	guardrailFullLogging      = "log every action taken during response"
	guardrailScopeLimit       = "limit actions to the affected host until scope is confirmed"
)

// citationsByKeyword maps event-type keywords to additional planned
// citations. MITRE ATT&CK is always included regardless.
var citationsByKeyword = []struct {
	keyword  string
	citation string
}{
	{"ransom", "CISA #StopRansomware Guide"},
	{"phish", "CISA Phishing Guidance"},
	{"malware", "NIST SP 800-83 Malware Incident Handling"},
	{"lateral", "MITRE ATT&CK Lateral Movement (TA0008)"},
	{"credential", "MITRE ATT&CK Credential Access (TA0006)"},
	{"exfil", "MITRE ATT&CK Exfiltration (TA0010)"},
}

// deriveDecisionType applies the review table. Order matters: refusal
// conditions dominate escalation, which dominates partial approval.
func deriveDecisionType(risk RiskLevel, redFlagCount int) DecisionType {
	switch {
	case risk == RiskUnacceptable || redFlagCount > 3:
		return DecisionSafetyRefusal
	case risk == RiskCritical:
		return DecisionEscalationNeeded
	case redFlagCount > 0:
		return DecisionPartialResponse
	default:
		return DecisionSafeAnalysis
	}
}

// planCitations produces the citation set every decision overwrites
// onto the response.
func planCitations(eventType string) []string {
	citations := []string{"MITRE ATT&CK"}
	et := strings.ToLower(eventType)
	for _, c := range citationsByKeyword {
		if strings.Contains(et, c.keyword) {
			citations = append(citations, c.citation)
		}
	}
	return citations
}

// buildRefusal rejects the entire draft and replaces the response body.
func buildRefusal(dec *SeniorDecision, d *Draft, artifact *ThinkingArtifact) {
	dec.RejectedActions = d.AllActions()
	dec.HumanReviewRequired = true
	dec.EscalationReason = "safety refusal: " + artifact.summaryLine()
	dec.Explanation = refusalBody
	dec.ResponseOverrides["body"] = refusalBody
	dec.ResponseOverrides["classification"] = "REFUSED"
}

// buildEscalation approves only initial triage and holds everything
// else for a human.
func buildEscalation(dec *SeniorDecision, d *Draft, artifact *ThinkingArtifact) {
	for i, step := range d.TriageSteps {
		if i >= 2 {
			dec.RejectedActions = append(dec.RejectedActions, step)
			continue
		}
		dec.ApprovedActions = append(dec.ApprovedActions, step)
	}
	for _, action := range d.ContainmentActions {
		if firstVerb(action, destructiveVerbs) != "" {
			dec.RejectedActions = append(dec.RejectedActions, action)
		} else {
			dec.ApprovedActions = append(dec.ApprovedActions, action)
		}
	}
	dec.RejectedActions = append(dec.RejectedActions, d.RemediationActions...)

	dec.Guardrails = []string{guardrailApprovalFirst, guardrailPreserveEvidence, guardrailFullLogging}
	dec.HumanReviewRequired = true
	dec.EscalationReason = "critical risk: " + artifact.summaryLine()
	dec.Explanation = "Risk level requires senior analyst sign-off before containment or remediation proceeds."
	if d.Confidence > 0.8 {
		dec.ResponseOverrides["confidence"] = 0.8
	}
}

// buildPartial approves safe-shaped steps and trims the rest.
func buildPartial(dec *SeniorDecision, d *Draft, artifact *ThinkingArtifact) {
	dec.ApprovedActions = append(dec.ApprovedActions, d.TriageSteps...)
	for _, action := range d.ContainmentActions {
		if firstVerb(action, containmentSafeVerbs) != "" && firstVerb(action, destructiveVerbs) == "" {
			dec.ApprovedActions = append(dec.ApprovedActions, action)
		} else {
			dec.RejectedActions = append(dec.RejectedActions, action)
		}
	}
	for _, action := range d.RemediationActions {
		if firstVerb(action, irreversibleRemediationVerbs) != "" {
			dec.RejectedActions = append(dec.RejectedActions, action)
		} else {
			dec.ApprovedActions = append(dec.ApprovedActions, action)
		}
	}
	dec.Guardrails = []string{guardrailGenericIR, guardrailScopeLimit, guardrailFullLogging}
	dec.Explanation = "Some proposed actions were trimmed: " + strings.Join(artifact.RedFlags, "; ")
}

// buildSafe approves the draft unchanged apart from the standard
// guardrail and citation overwrite.
func buildSafe(dec *SeniorDecision, d *Draft) {
	dec.ApprovedActions = d.AllActions()
	dec.Guardrails = []string{guardrailGenericIR}
	dec.Explanation = "Draft response passed safety review."
}

// summaryLine condenses the artifact for escalation reasons.
func (a *ThinkingArtifact) summaryLine() string {
	parts := []string{string(a.RiskLevel) + " risk"}
	if len(a.RedFlags) > 0 {
		parts = append(parts, strings.Join(a.RedFlags, "; "))
	}
	if len(a.SafetyConcerns) > 0 {
		parts = append(parts, strings.Join(a.SafetyConcerns, "; "))
	}
	return strings.Join(parts, " | ")
}
