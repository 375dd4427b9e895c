package planner

import (
	"strings"
	"testing"
)

func TestDestructiveDraftIsRefused(t *testing.T) {
	p := NewPlanner(nil)

	event := map[string]any{
		"event_type": "disk_usage_alert",
		"host":       "fileserver-01",
	}
	draft := map[string]any{
		"triage_steps":        []string{"check disk usage"},
		"remediation_actions": []string{"rm -rf /data to free space"},
		"confidence":          0.9,
	}

	artifact, decision := p.Plan(event, draft)

	if decision.Type != DecisionSafetyRefusal {
		t.Fatalf("decision = %s, want %s (risk=%s score=%d)",
			decision.Type, DecisionSafetyRefusal, artifact.RiskLevel, artifact.RiskScore)
	}
	if len(decision.RejectedActions) == 0 {
		t.Error("refusal must reject the proposed actions")
	}
	if len(decision.ApprovedActions) != 0 {
		t.Errorf("refusal must approve nothing, got %v", decision.ApprovedActions)
	}
	if !decision.HumanReviewRequired {
		t.Error("refusal requires human review")
	}
	if decision.Explanation == "" {
		t.Error("refusal must carry a non-empty explanation")
	}
	if decision.ResponseOverrides["classification"] != "REFUSED" {
		t.Error("refusal must overwrite the response classification")
	}
	if artifact.RiskLevel != RiskUnacceptable {
		t.Errorf("risk = %s, want unacceptable", artifact.RiskLevel)
	}
}

func TestRansomwareOnDomainControllerIsAtLeastCritical(t *testing.T) {
	p := NewPlanner(nil)

	event := map[string]any{
		"event_type": "ransomware_encryption_detected",
		"host":       "DC-PRIMARY",
	}
	draft := map[string]any{
		"triage_steps": []string{"review encryption alerts", "identify patient zero"},
		"confidence":   0.7,
		"citations":    []string{"internal runbook"},
	}

	artifact, decision := p.Plan(event, draft)

	if !artifact.RiskLevel.AtLeast(RiskCritical) {
		t.Fatalf("risk = %s (score %d), want >= critical", artifact.RiskLevel, artifact.RiskScore)
	}
	if decision.Type != DecisionEscalationNeeded && decision.Type != DecisionSafetyRefusal {
		t.Errorf("decision = %s, want escalation or refusal", decision.Type)
	}
	if !decision.HumanReviewRequired {
		t.Error("critical risk requires human review")
	}
}

func TestEscalationTrimsToInitialTriage(t *testing.T) {
	p := NewPlanner(nil)

	event := map[string]any{
		"event_type": "ransomware_beacon",
		"host":       "DC-PRIMARY",
	}
	draft := map[string]any{
		"triage_steps":        []string{"step one", "step two", "step three"},
		"containment_actions": []string{"isolate the host", "delete the malicious share"},
		"remediation_actions": []string{"patch the vulnerability"},
		"confidence":          0.95,
		"citations":           []string{"vendor advisory"},
	}

	_, decision := p.Plan(event, draft)
	if decision.Type != DecisionEscalationNeeded {
		t.Fatalf("decision = %s, want escalation_needed", decision.Type)
	}

	approved := strings.Join(decision.ApprovedActions, "|")
	if !strings.Contains(approved, "step one") || !strings.Contains(approved, "step two") {
		t.Errorf("first two triage steps should be approved, got %v", decision.ApprovedActions)
	}
	rejected := strings.Join(decision.RejectedActions, "|")
	if !strings.Contains(rejected, "step three") {
		t.Error("third triage step must be held back")
	}
	if !strings.Contains(rejected, "delete the malicious share") {
		t.Error("destructive containment must be rejected")
	}
	if !strings.Contains(approved, "isolate the host") {
		t.Error("non-destructive containment should be approved")
	}
	if !strings.Contains(rejected, "patch the vulnerability") {
		t.Error("remediation must wait for human review")
	}
	if decision.ResponseOverrides["confidence"] != 0.8 {
		t.Errorf("confidence override = %v, want cap at 0.8", decision.ResponseOverrides["confidence"])
	}
	if len(decision.Guardrails) != 3 {
		t.Errorf("guardrails = %v, want the three mandatory ones", decision.Guardrails)
	}
}

func TestRedFlagsForceNonClean(t *testing.T) {
	p := NewPlanner(nil)

	testCases := []struct {
		name  string
		draft map[string]any
	}{
		{
			"overconfident_uncited",
			map[string]any{
				"triage_steps": []string{"review the alert"},
				"confidence":   0.99,
			},
		},
		{
			"grounded_uncited",
			map[string]any{
				"triage_steps": []string{"review the alert"},
				"confidence":   0.5,
				"grounded":     true,
			},
		},
		{
			"unknown_tool",
			map[string]any{
				"triage_steps":    []string{"review the alert"},
				"confidence":      0.5,
				"tools_mentioned": []string{"HyperDefender 3000"},
			},
		},
		{
			"offensive_ask",
			map[string]any{
				"body":       "here is how to bypass EDR detection on the endpoint",
				"confidence": 0.5,
			},
		},
	}

	event := map[string]any{"event_type": "phishing_report", "host": "ws-10"}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			artifact, decision := p.Plan(event, tc.draft)
			if len(artifact.RedFlags) == 0 {
				t.Fatal("expected at least one red flag")
			}
			if decision.Type == DecisionSafeAnalysis {
				t.Errorf("red flags must not yield safe_analysis (flags: %v)", artifact.RedFlags)
			}
		})
	}
}

func TestKnownToolIsNotFlagged(t *testing.T) {
	p := NewPlanner(nil)

	event := map[string]any{"event_type": "phishing_report", "host": "ws-10"}
	draft := map[string]any{
		"triage_steps":    []string{"pull the email headers"},
		"confidence":      0.6,
		"citations":       []string{"playbook PB-12"},
		"tools_mentioned": []string{"Splunk", "CrowdStrike"},
	}

	artifact, decision := p.Plan(event, draft)
	if len(artifact.RedFlags) != 0 {
		t.Errorf("red flags = %v, want none", artifact.RedFlags)
	}
	if decision.Type != DecisionSafeAnalysis {
		t.Errorf("decision = %s, want safe_analysis", decision.Type)
	}
}

func TestSafeAnalysisApprovesEverything(t *testing.T) {
	p := NewPlanner(nil)

	event := map[string]any{"event_type": "informational_scan", "host": "ws-22"}
	draft := map[string]any{
		"triage_steps":        []string{"collect logs", "interview the user"},
		"containment_actions": []string{"monitor outbound traffic"},
		"confidence":          0.6,
		"citations":           []string{"runbook"},
	}

	artifact, decision := p.Plan(event, draft)
	if decision.Type != DecisionSafeAnalysis {
		t.Fatalf("decision = %s (risk %s), want safe_analysis", decision.Type, artifact.RiskLevel)
	}
	if len(decision.ApprovedActions) != 3 {
		t.Errorf("approved = %v, want all three actions", decision.ApprovedActions)
	}
	if len(decision.RejectedActions) != 0 {
		t.Errorf("rejected = %v, want none", decision.RejectedActions)
	}
	if decision.HumanReviewRequired {
		t.Error("safe analysis does not need human review")
	}
	if len(decision.Guardrails) != 1 {
		t.Errorf("guardrails = %v, want the single generic one", decision.Guardrails)
	}
}

func TestPartialResponseTrimsIrreversibleRemediation(t *testing.T) {
	p := NewPlanner(nil)

	event := map[string]any{"event_type": "phishing_report", "host": "ws-10"}
	draft := map[string]any{
		"triage_steps":        []string{"pull the email headers"},
		"containment_actions": []string{"isolate the mailbox", "delete all user data"},
		"remediation_actions": []string{"reset the password", "reinstall the operating system"},
		"confidence":          0.99, // uncited overconfidence -> red flag -> partial
	}

	_, decision := p.Plan(event, draft)
	if decision.Type != DecisionPartialResponse {
		t.Fatalf("decision = %s, want partial_response", decision.Type)
	}

	rejected := strings.Join(decision.RejectedActions, "|")
	if !strings.Contains(rejected, "reinstall the operating system") {
		t.Error("irreversible remediation must be rejected")
	}
	if !strings.Contains(rejected, "delete all user data") {
		t.Error("destructive containment must be rejected")
	}
	approved := strings.Join(decision.ApprovedActions, "|")
	if !strings.Contains(approved, "isolate the mailbox") {
		t.Error("isolate-type containment should be approved")
	}
	if !strings.Contains(approved, "reset the password") {
		t.Error("reversible remediation should be approved")
	}
	if decision.HumanReviewRequired {
		t.Error("partial response does not require human review")
	}
}

func TestCitationsAlwaysOverwritten(t *testing.T) {
	p := NewPlanner(nil)

	event := map[string]any{"event_type": "ransomware_detected", "host": "ws-10"}
	draft := map[string]any{
		"triage_steps": []string{"review"},
		"confidence":   0.5,
		"citations":    []string{"totally made up blog"},
	}

	artifact, decision := p.Plan(event, draft)

	cits, ok := decision.ResponseOverrides["citations"].([]string)
	if !ok || len(cits) == 0 {
		t.Fatal("citations override missing")
	}
	if cits[0] != "MITRE ATT&CK" {
		t.Errorf("citations = %v, MITRE ATT&CK must always lead", cits)
	}
	found := false
	for _, c := range cits {
		if strings.Contains(c, "StopRansomware") {
			found = true
		}
	}
	if !found {
		t.Errorf("citations = %v, want the ransomware-specific source", cits)
	}
	if len(artifact.PlannedCitations) != len(cits) {
		t.Error("artifact and override citation lists must agree")
	}
}

func TestPlannerFailsClosed(t *testing.T) {
	p := NewPlanner(nil)

	// A draft shaped to blow up ParseDraft would be ideal, but parsing
	// is total; instead drive the recover path directly.
	artifact, decision := p.failClosed(nil, "synthetic failure")

	if decision.Type != DecisionEscalationNeeded {
		t.Fatalf("decision = %s, want escalation_needed", decision.Type)
	}
	if !decision.HumanReviewRequired {
		t.Error("fail-closed requires human review")
	}
	if decision.Explanation == "" {
		t.Error("fail-closed must carry an explanation")
	}
	if !artifact.RiskLevel.AtLeast(RiskCritical) {
		t.Errorf("risk = %s, want >= critical", artifact.RiskLevel)
	}
	if len(decision.ApprovedActions) != 0 {
		t.Error("fail-closed must approve nothing")
	}
}

func TestPlanHandlesNilInputs(t *testing.T) {
	p := NewPlanner(nil)

	artifact, decision := p.Plan(nil, nil)
	if artifact == nil || decision == nil {
		t.Fatal("nil inputs must still produce a verdict")
	}
	if decision.Type == DecisionSafetyRefusal {
		t.Errorf("empty input should not be refused, got %s", decision.Type)
	}
}

func TestRiskBuckets(t *testing.T) {
	testCases := []struct {
		score int
		want  RiskLevel
	}{
		{0, RiskLow}, {1, RiskLow},
		{2, RiskMedium}, {3, RiskMedium},
		{4, RiskHigh}, {5, RiskHigh},
		{6, RiskCritical}, {7, RiskCritical},
		{8, RiskUnacceptable}, {12, RiskUnacceptable},
	}
	for _, tc := range testCases {
		if got := bucketRisk(tc.score); got != tc.want {
			t.Errorf("bucketRisk(%d) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

func TestDeriveDecisionType(t *testing.T) {
	testCases := []struct {
		risk  RiskLevel
		flags int
		want  DecisionType
	}{
		{RiskUnacceptable, 0, DecisionSafetyRefusal},
		{RiskLow, 4, DecisionSafetyRefusal},
		{RiskCritical, 0, DecisionEscalationNeeded},
		{RiskCritical, 2, DecisionEscalationNeeded},
		{RiskMedium, 1, DecisionPartialResponse},
		{RiskHigh, 0, DecisionSafeAnalysis},
		{RiskLow, 0, DecisionSafeAnalysis},
	}
	for _, tc := range testCases {
		if got := deriveDecisionType(tc.risk, tc.flags); got != tc.want {
			t.Errorf("derive(%s, %d) = %s, want %s", tc.risk, tc.flags, got, tc.want)
		}
	}
}
