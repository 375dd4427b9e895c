package planner

import (
	"fmt"
	"strings"

	"github.com/TryMightyAI/rampart/pkg/patterns"
)

// Verbs that make a containment step destructive rather than
// containing. Matched as substrings against lowercased action text.
var destructiveVerbs = []string{
	"delete", "remove", "wipe", "destroy", "erase", "kill",
	"format", "shutdown", "shut down", "terminate", "drop",
}

// Verbs that keep a containment step reversible.
var containmentSafeVerbs = []string{
	"monitor", "isolate", "quarantine", "block", "watch", "alert", "snapshot",
}

// Verbs that make a remediation step unrecoverable without rebuild
// effort.
var irreversibleRemediationVerbs = []string{
	"rebuild", "reinstall", "format", "reimage", "re-image", "factory reset", "wipe",
}

// scanSafetyConcerns flags draft content that constrains how the
// response may be acted on: destructive containment, leaked secrets,
// fleet-wide phrasing, irreversible remediation.
func scanSafetyConcerns(d *Draft) []string {
	var concerns []string

	for _, action := range d.ContainmentActions {
		if verb := firstVerb(action, destructiveVerbs); verb != "" {
			concerns = append(concerns, fmt.Sprintf("destructive containment action (%s): %s", verb, action))
		}
	}

	reg := patterns.Get()
	if p := reg.MatchAny(d.Body, patterns.CategorySecretToken); p != nil {
		concerns = append(concerns, "response body contains secret material ("+p.Name+")")
	}
	if p := reg.MatchAny(d.Text(), patterns.CategoryNetworkWide); p != nil {
		concerns = append(concerns, "network-wide impact phrasing ("+p.Name+")")
	}
	if p := reg.MatchAny(d.Text(), patterns.CategoryIrreversible); p != nil {
		concerns = append(concerns, "irreversible remediation ("+p.Name+")")
	}

	return concerns
}

// scanRedFlags flags signals that the draft may be unsafe, hallucinated
// or internally inconsistent.
func scanRedFlags(d *Draft, knownTools map[string]bool) []string {
	var flags []string

	if p := patterns.Get().MatchAny(d.Text(), patterns.CategoryOffensiveAsk); p != nil {
		flags = append(flags, "offensive-security assistance language ("+p.Name+")")
	}

	if d.Confidence > 0.95 && len(d.Citations) == 0 {
		flags = append(flags, fmt.Sprintf("confidence %.2f with zero citations", d.Confidence))
	}
	if d.Grounded && len(d.Citations) == 0 {
		flags = append(flags, "claims grounding with zero citations")
	}

	for _, tool := range d.Tools {
		if tool != "" && !knownTools[strings.ToLower(tool)] {
			flags = append(flags, "unknown tool referenced: "+tool)
		}
	}

	return flags
}

func firstVerb(action string, verbs []string) string {
	lower := strings.ToLower(action)
	for _, v := range verbs {
		if strings.Contains(lower, v) {
			return v
		}
	}
	return ""
}
