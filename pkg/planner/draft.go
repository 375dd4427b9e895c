package planner

import "strings"

// Draft is the normalized view of a caller-produced draft response.
// Field extraction is best effort; a malformed draft yields zero values
// rather than an error, and the scoring path treats missing data
// conservatively.
type Draft struct {
	TriageSteps        []string
	ContainmentActions []string
	RemediationActions []string

	Body       string
	Confidence float64
	Citations  []string
	Grounded   bool
	Tools      []string
}

// ParseDraft extracts a Draft from a raw payload.
func ParseDraft(raw map[string]any) Draft {
	d := Draft{
		TriageSteps:        stringList(raw, "triage_steps", "triage"),
		ContainmentActions: stringList(raw, "containment_actions", "containment"),
		RemediationActions: stringList(raw, "remediation_actions", "remediation"),
		Citations:          stringList(raw, "citations", "sources"),
		Tools:              stringList(raw, "tools_mentioned", "tools"),
		Body:               mapString(raw, "body", "response", "text"),
	}
	switch v := raw["confidence"].(type) {
	case float64:
		d.Confidence = v
	case int:
		d.Confidence = float64(v)
	}
	if g, ok := raw["grounded"].(bool); ok {
		d.Grounded = g
	}
	return d
}

// AllActions returns every proposed action in triage, containment,
// remediation order.
func (d *Draft) AllActions() []string {
	out := make([]string, 0, len(d.TriageSteps)+len(d.ContainmentActions)+len(d.RemediationActions))
	out = append(out, d.TriageSteps...)
	out = append(out, d.ContainmentActions...)
	out = append(out, d.RemediationActions...)
	return out
}

// Text flattens the draft into one lowercase haystack for pattern
// scanning.
func (d *Draft) Text() string {
	var sb strings.Builder
	sb.WriteString(d.Body)
	for _, a := range d.AllActions() {
		sb.WriteString("\n")
		sb.WriteString(a)
	}
	return strings.ToLower(sb.String())
}

func stringList(m map[string]any, keys ...string) []string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case []string:
			return v
		case []any:
			var out []string
			for _, item := range v {
				if s, ok := item.(string); ok && s != "" {
					out = append(out, s)
				}
			}
			if out != nil {
				return out
			}
		}
	}
	return nil
}

func mapString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
