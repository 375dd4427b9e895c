package intent

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// RuleSet is the versioned classification configuration: the ordered
// rule table plus the confidence modifier deltas. Rules live in data,
// not code, so detection behavior can change without recompilation.
type RuleSet struct {
	Version   int       `yaml:"version"`
	Rules     []Rule    `yaml:"rules"`
	Modifiers Modifiers `yaml:"modifiers"`

	// ConfidenceThreshold is advisory for callers: classifications
	// below it should be treated as unclear regardless of intent.
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
}

// Modifiers holds the additive confidence deltas and the keyword lists
// that trigger them. Each category fires at most once per query.
type Modifiers struct {
	SecurityContextBoost float64  `yaml:"security_context_boost"`
	SecurityContextTerms []string `yaml:"security_context_terms"`

	ToolMentionPenalty float64  `yaml:"tool_mention_penalty"`
	ToolMentionTerms   []string `yaml:"tool_mention_terms"`

	VagueLanguagePenalty float64  `yaml:"vague_language_penalty"`
	VagueLanguageTerms   []string `yaml:"vague_language_terms"`

	TechnicalBoost float64 `yaml:"technical_boost"`
}

// LoadRuleSet reads a YAML rule artifact. Callers that want the
// load-or-fallback behavior should use LoadRuleSetOrDefault.
func LoadRuleSet(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule set: %w", err)
	}
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("parse rule set: %w", err)
	}
	if len(rs.Rules) == 0 {
		return nil, fmt.Errorf("rule set %s contains no rules", path)
	}
	if err := rs.prepare(); err != nil {
		return nil, err
	}
	return &rs, nil
}

// prepare compiles triggers and sorts rules by ascending priority.
func (rs *RuleSet) prepare() error {
	for i := range rs.Rules {
		if err := rs.Rules[i].compile(); err != nil {
			return err
		}
	}
	sort.SliceStable(rs.Rules, func(i, j int) bool {
		return rs.Rules[i].Priority < rs.Rules[j].Priority
	})
	if rs.ConfidenceThreshold == 0 {
		rs.ConfidenceThreshold = 0.5
	}
	return nil
}

// DefaultRuleSet returns the built-in rule table. It mirrors
// configs/intents.yaml and keeps the classifier working when the
// artifact is missing.
func DefaultRuleSet() *RuleSet {
	rs := &RuleSet{
		Version:             1,
		ConfidenceThreshold: 0.5,
		Modifiers: Modifiers{
			SecurityContextBoost: 0.05,
			SecurityContextTerms: []string{
				"incident", "breach", "compromise", "compromised", "infected",
				"malware", "ransomware", "suspicious", "alert",
			},
			ToolMentionPenalty: -0.10,
			ToolMentionTerms: []string{
				"splunk", "crowdstrike", "qradar", "palo alto", "fortinet",
				"carbon black", "defender atp", "elastic siem",
			},
			VagueLanguagePenalty: -0.10,
			VagueLanguageTerms: []string{
				"something", "stuff", "somehow", "whatever", "idk", "some thing",
			},
			TechnicalBoost: 0.10,
		},
		Rules: []Rule{
			{
				Intent:        IntentDangerousActionRefusal,
				Priority:      1,
				SecurityFlags: []string{"dangerous_action"},
				Response:      ResponseBehavior{Template: "refusal_dangerous_action", Escalate: true, SecurityLog: true},
				Triggers: []Trigger{
					{Regex: `(?i)(delete|remove|wipe|destroy|erase|kill|shut\s*down|disable)\s+(all|every|everything|the\s+entire|\*)`},
					{Regex: `(?i)\brm\s+-\w*rf?\b|\bformat\s+[a-z]:|drop\s+(all\s+)?(tables?|database)`},
					{Keywords: []string{"delete everything", "wipe the", "destroy all", "take down production"}},
				},
			},
			{
				Intent:        IntentPromptInjectionRefusal,
				Priority:      2,
				SecurityFlags: []string{"prompt_injection"},
				Response:      ResponseBehavior{Template: "refusal_prompt_injection", Escalate: true, SecurityLog: true},
				Triggers: []Trigger{
					{Regex: `(?i)ignore\s+(all\s+)?(previous|prior|above)\s+(instructions|rules|prompts)`},
					{Regex: `(?i)(disregard\s+your|forget\s+your|you\s+are\s+now\s+an?|reveal\s+your\s+system\s+prompt)`},
					{Keywords: []string{"jailbreak", "dan mode", "no restrictions", "without any filters"}},
				},
			},
			{
				Intent:   IntentGreeting,
				Priority: 10,
				Response: ResponseBehavior{Template: "greeting"},
				Triggers: []Trigger{
					{Exact: []string{"hi", "hello", "hey", "thanks", "thank you", "good morning", "good afternoon", "good evening"}},
					{Regex: `(?i)^\s*(hi|hello|hey|howdy|greetings|good\s+(morning|afternoon|evening))\b`},
					{Keywords: []string{"how are you", "nice to meet"}, MaxWords: 6},
				},
			},
			{
				Intent:   IntentBroadScan,
				Priority: 20,
				Response: ResponseBehavior{Template: "broad_scan"},
				Triggers: []Trigger{
					{Wildcard: "scan *"},
					{Regex: `(?i)(run|start|kick\s+off)\s+a\s+(vulnerability\s+)?scan`},
					{Keywords: []string{"scan my network", "vulnerability assessment", "security posture", "check for vulnerabilities"}},
				},
			},
			{
				Intent:   IntentIncidentAnalysis,
				Priority: 21,
				Response: ResponseBehavior{Template: "incident_analysis", SecurityLog: true},
				Triggers: []Trigger{
					{Regex: `(?i)(investigate|analyze|triage|what\s+happened\s+(on|with|to))`},
					{Keywords: []string{"incident", "alert", "detection", "compromised host", "infected machine"}},
					{Keywords: []string{"why", "root cause"}, RequiredContext: []string{"alert", "incident", "breach", "event"}},
				},
			},
			{
				Intent:   IntentThreatHunting,
				Priority: 22,
				Response: ResponseBehavior{Template: "threat_hunting"},
				Triggers: []Trigger{
					{Keywords: []string{"hunt", "hunting", "ioc", "indicators of compromise", "lateral movement", "beaconing", "anomalous"}},
					{Regex: `(?i)(look|search|sweep)\s+for\s+(signs\s+of|evidence\s+of|any)\b`},
				},
			},
			{
				Intent:   IntentPlaybookExecution,
				Priority: 23,
				Response: ResponseBehavior{Template: "playbook_execution", Escalate: true},
				Triggers: []Trigger{
					{Keywords: []string{"playbook", "runbook", "containment procedure", "response plan", "isolate the host"}},
					{Regex: `(?i)(run|execute|trigger)\s+the\s+\w+\s+(playbook|runbook|procedure)`},
				},
			},
			{
				Intent:   IntentToolIntegration,
				Priority: 24,
				Response: ResponseBehavior{Template: "tool_integration"},
				Triggers: []Trigger{
					{Keywords: []string{"integrate", "integration", "connect to", "api key", "webhook", "connector"}},
				},
			},
		},
	}
	// Built-in rules are authored valid; compile cannot fail here.
	if err := rs.prepare(); err != nil {
		panic(err)
	}
	return rs
}
