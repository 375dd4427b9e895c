package intent

import (
	"fmt"
	"log"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Technical-specificity tokens: queries naming concrete techniques,
// CVEs or IOC-shaped values are more reliable than prose.
var (
	reMitreTechnique = regexp.MustCompile(`(?i)\bt\d{4}(\.\d{3})?\b`)
	reCVE            = regexp.MustCompile(`(?i)\bcve-\d{4}-\d{4,}\b`)
	reHash           = regexp.MustCompile(`\b[a-fA-F0-9]{32,64}\b`)
	reIPv4Token      = regexp.MustCompile(`\b(?:(?:25[0-5]|2[0-4][0-9]|1[0-9]{2}|[1-9]?[0-9])\.){3}(?:25[0-5]|2[0-4][0-9]|1[0-9]{2}|[1-9]?[0-9])\b`)
)

// Classifier classifies operator queries against a RuleSet. It is pure
// with respect to its configuration and safe for concurrent use.
type Classifier struct {
	rules *RuleSet
}

// NewClassifier builds a classifier from an explicit rule set.
func NewClassifier(rules *RuleSet) *Classifier {
	if rules == nil {
		rules = DefaultRuleSet()
	}
	return &Classifier{rules: rules}
}

// LoadRuleSetOrDefault loads the YAML artifact at path, falling back to
// the built-in table when the file is missing or invalid.
func LoadRuleSetOrDefault(path string) *RuleSet {
	if path == "" {
		return DefaultRuleSet()
	}
	rs, err := LoadRuleSet(path)
	if err != nil {
		log.Printf("[WARN] intent rule set %s unusable (%v), using built-in rules", path, err)
		return DefaultRuleSet()
	}
	return rs
}

// Classify determines the intent of a free-text query. It never fails:
// malformed or unmatched input yields the generic_unclear fallback.
// Rules are evaluated in ascending priority order and the first rule
// with any matching trigger wins; colliding rules must be disambiguated
// by priority, not confidence.
func (c *Classifier) Classify(query string, context map[string]any) Classification {
	normalized := normalizeQuery(query)
	wordCount := len(strings.Fields(normalized))
	contextText := flattenContext(context)

	for _, rule := range c.rules.Rules {
		confidence, matched := c.matchRule(&rule, normalized, contextText, wordCount)
		if len(matched) == 0 {
			continue
		}
		confidence = clamp01(confidence + c.modifierDelta(normalized))
		return Classification{
			Intent:          rule.Intent,
			Confidence:      confidence,
			MatchedPatterns: matched,
			SecurityFlags:   rule.SecurityFlags,
			Template:        rule.Response.Template,
			Escalate:        rule.Response.Escalate,
			SecurityLog:     rule.Response.SecurityLog,
		}
	}

	return Classification{
		Intent:     IntentGenericUnclear,
		Confidence: confFallback,
		Template:   "clarify",
	}
}

// matchRule evaluates every trigger of a rule and returns the best base
// confidence plus descriptors of what matched.
func (c *Classifier) matchRule(rule *Rule, query, contextText string, wordCount int) (float64, []string) {
	best := 0.0
	var matched []string

	record := func(conf float64, descriptor string) {
		matched = append(matched, descriptor)
		if conf > best {
			best = conf
		}
	}

	for _, t := range rule.Triggers {
		if t.compiledRegex != nil && t.compiledRegex.MatchString(query) {
			record(confRegex, "regex:"+t.Regex)
		}
		for _, exact := range t.Exact {
			if query == exact {
				record(confExact, "exact:"+exact)
				break
			}
		}
		if t.compiledWildcard != nil && t.compiledWildcard.MatchString(query) {
			record(confWildcard, "wildcard:"+t.Wildcard)
		}
		if len(t.Keywords) > 0 {
			if t.MaxWords > 0 && wordCount > t.MaxWords {
				continue
			}
			hits := 0
			first := ""
			for _, kw := range t.Keywords {
				if strings.Contains(query, kw) {
					if hits == 0 {
						first = kw
					}
					hits++
				}
			}
			if hits == 0 {
				continue
			}
			if len(t.RequiredContext) > 0 && !containsAny(query+" "+contextText, t.RequiredContext) {
				continue
			}
			if hits > 1 {
				record(confMultiKeyword, fmt.Sprintf("keywords:%s(+%d)", first, hits-1))
			} else {
				record(confSingleKeyword, "keyword:"+first)
			}
		}
	}

	return best, matched
}

// modifierDelta sums the additive confidence modifiers. Each category
// triggers independently, at most once.
func (c *Classifier) modifierDelta(query string) float64 {
	m := c.rules.Modifiers
	delta := 0.0
	if containsAny(query, m.SecurityContextTerms) {
		delta += m.SecurityContextBoost
	}
	if containsAny(query, m.ToolMentionTerms) {
		delta += m.ToolMentionPenalty
	}
	if containsAny(query, m.VagueLanguageTerms) {
		delta += m.VagueLanguagePenalty
	}
	if reMitreTechnique.MatchString(query) || reCVE.MatchString(query) ||
		reHash.MatchString(query) || reIPv4Token.MatchString(query) {
		delta += m.TechnicalBoost
	}
	return delta
}

// normalizeQuery lower-cases and trims after NFKC folding, so fullwidth
// and compatibility forms match the ASCII rule table.
func normalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFKC.String(query)))
}

// flattenContext folds string-valued context entries into one haystack
// for required-context trigger checks.
func flattenContext(context map[string]any) string {
	if len(context) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, v := range context {
		if s, ok := v.(string); ok {
			sb.WriteString(strings.ToLower(s))
			sb.WriteString(" ")
		}
	}
	return sb.String()
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0.0 {
		return 0.0
	}
	if v > 1.0 {
		return 1.0
	}
	return v
}
