// Package intent implements deterministic classification of operator
// queries. No ML is involved: a priority-ordered rule table of regex,
// keyword, exact and wildcard triggers decides the intent, and additive
// confidence modifiers calibrate the score.
package intent

import (
	"fmt"
	"regexp"
	"strings"
)

// Intent tags the purpose of an operator query.
type Intent string

const (
	IntentGreeting               Intent = "greeting"
	IntentDangerousActionRefusal Intent = "dangerous_action_refusal"
	IntentPromptInjectionRefusal Intent = "prompt_injection_refusal"
	IntentBroadScan              Intent = "broad_scan"
	IntentIncidentAnalysis       Intent = "incident_analysis"
	IntentThreatHunting          Intent = "threat_hunting"
	IntentPlaybookExecution      Intent = "playbook_execution"
	IntentToolIntegration        Intent = "tool_integration"
	IntentGenericUnclear         Intent = "generic_unclear"
)

// Base confidences per trigger type. A rule's confidence is the max
// across all of its matching triggers, before modifiers.
const (
	confExact         = 0.95
	confRegex         = 0.90
	confWildcard      = 0.80
	confMultiKeyword  = 0.80
	confSingleKeyword = 0.70
	confFallback      = 0.40
)

// Classification is the result of classifying one query. Produced fresh
// per query, never persisted by this package.
type Classification struct {
	Intent          Intent   `json:"intent"`
	Confidence      float64  `json:"confidence"`
	MatchedPatterns []string `json:"matched_patterns,omitempty"`
	SecurityFlags   []string `json:"security_flags,omitempty"`
	Template        string   `json:"template"`
	Escalate        bool     `json:"escalate"`
	SecurityLog     bool     `json:"security_log"`
}

// ResponseBehavior tells the response-template selector how to handle a
// matched intent.
type ResponseBehavior struct {
	Template    string `yaml:"template" json:"template"`
	Escalate    bool   `yaml:"escalate" json:"escalate"`
	SecurityLog bool   `yaml:"security_log" json:"security_log"`
}

// Trigger is one way a rule can match. Exactly one of the trigger fields
// should be populated; a Trigger with multiple populated fields matches
// if any of them does.
type Trigger struct {
	// Regex is a regular expression matched against the normalized query.
	Regex string `yaml:"regex,omitempty"`

	// Keywords match by substring; two or more hits score higher than
	// one. MaxWords, when >0, disqualifies queries longer than that.
	// RequiredContext, when set, additionally requires one of its
	// keywords in the query or caller context.
	Keywords        []string `yaml:"keywords,omitempty"`
	MaxWords        int      `yaml:"max_words,omitempty"`
	RequiredContext []string `yaml:"required_context,omitempty"`

	// Exact matches the whole normalized query against a fixed set.
	Exact []string `yaml:"exact,omitempty"`

	// Wildcard is a glob-style pattern ("*" matches any run) applied to
	// the whole normalized query.
	Wildcard string `yaml:"wildcard,omitempty"`

	compiledRegex    *regexp.Regexp
	compiledWildcard *regexp.Regexp
}

// Rule binds an intent to its triggers and response behavior. Lower
// priority numbers are evaluated first; the security-sensitive refusal
// rules must carry the lowest numbers in any rule set.
type Rule struct {
	Intent   Intent           `yaml:"intent"`
	Priority int              `yaml:"priority"`
	Triggers []Trigger        `yaml:"triggers"`
	Response ResponseBehavior `yaml:"response"`

	// SecurityFlags are attached to every classification this rule
	// produces (e.g. "dangerous_action" on the refusal rule).
	SecurityFlags []string `yaml:"security_flags,omitempty"`
}

// compile pre-builds the regex and wildcard matchers of every trigger.
func (r *Rule) compile() error {
	for i := range r.Triggers {
		t := &r.Triggers[i]
		if t.Regex != "" {
			re, err := regexp.Compile(t.Regex)
			if err != nil {
				return fmt.Errorf("intent %s trigger %d: bad regex: %w", r.Intent, i, err)
			}
			t.compiledRegex = re
		}
		if t.Wildcard != "" {
			t.compiledWildcard = compileWildcard(t.Wildcard)
		}
	}
	return nil
}

// compileWildcard translates a glob pattern into an anchored regex.
func compileWildcard(pattern string) *regexp.Regexp {
	parts := strings.Split(pattern, "*")
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	return regexp.MustCompile("^" + strings.Join(parts, ".*") + "$")
}
