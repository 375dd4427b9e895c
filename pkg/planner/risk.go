package planner

import (
	"strings"

	"github.com/TryMightyAI/rampart/pkg/patterns"
)

// Event-type severity tiers. The tiers stack: a ransomware event is
// also a generic threat, so both bumps apply; the baseline applies only
// when neither tier fires.
var (
	severeEventKeywords = []string{"apt", "ransomware", "critical"}
	threatEventKeywords = []string{"threat", "malware", "trojan", "ransom", "exploit", "intrusion"}
)

// scoreRisk computes the integer risk score for acting on the draft:
// event-type severity, unsafe actions proposed in the draft text, and
// critical-host context.
func scoreRisk(eventType, host string, draftText string) int {
	score := 0
	et := strings.ToLower(eventType)

	tierHit := false
	if containsAnyKeyword(et, severeEventKeywords) {
		score += 3
		tierHit = true
	}
	if containsAnyKeyword(et, threatEventKeywords) {
		score += 2
		tierHit = true
	}
	if !tierHit {
		score++
	}

	// Unsafe actions proposed in the draft. Reject-tier patterns
	// (severity >= 95) push the score straight into unacceptable
	// territory; lesser matches still dominate the event-type bumps.
	reg := patterns.Get()
	maxSeverity := 0
	for _, p := range reg.MatchAll(draftText, patterns.UnsafeActionCategories()...) {
		if p.Severity > maxSeverity {
			maxSeverity = p.Severity
		}
	}
	switch {
	case maxSeverity >= 95:
		score += 8
	case maxSeverity > 0:
		score += 5
	}
	if host != "" && reg.MatchAny(host, patterns.CategoryCriticalHost) != nil {
		score += 2
	}
	return score
}

// bucketRisk maps a score onto the risk ladder.
func bucketRisk(score int) RiskLevel {
	switch {
	case score >= 8:
		return RiskUnacceptable
	case score >= 6:
		return RiskCritical
	case score >= 4:
		return RiskHigh
	case score >= 2:
		return RiskMedium
	default:
		return RiskLow
	}
}

func containsAnyKeyword(haystack string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(haystack, kw) {
			return true
		}
	}
	return false
}
