// Package correlate links individually weak telemetry events into
// multi-stage attack chains. It owns the only mutable shared state in
// the reasoning core: the active-chain registry.
package correlate

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/TryMightyAI/rampart/pkg/attack"
)

// keywordTechniques maps payload keywords to inferred technique IDs,
// used when the producer did not annotate techniques explicitly.
var keywordTechniques = []struct {
	keyword   string
	technique string
}{
	{"mimikatz", "T1003.001"},
	{"lsass", "T1003.001"},
	{"powershell", "T1059.001"},
	{"cmd.exe", "T1059.003"},
	{"schtasks", "T1053"},
	{"rdp", "T1021.001"},
	{"3389", "T1021.001"},
	{"smb", "T1021.002"},
	{"psexec", "T1021.002"},
	{"phish", "T1566"},
	{"port scan", "T1046"},
	{"nmap", "T1046"},
	{"brute force", "T1110"},
	{"run key", "T1547.001"},
	{"encrypt", "T1486"},
	{"ransom", "T1486"},
	{"exfil", "T1041"},
}

// eventTypePhases is the fallback phase guess applied when no technique
// resolved; first substring hit on the event type wins.
var eventTypePhases = []struct {
	keyword string
	phase   attack.Phase
}{
	{"recon", attack.PhaseReconnaissance},
	{"scan", attack.PhaseReconnaissance},
	{"phish", attack.PhaseInitialAccess},
	{"login", attack.PhaseInitialAccess},
	{"exec", attack.PhaseExecution},
	{"persist", attack.PhasePersistence},
	{"privilege", attack.PhasePrivilegeEscalation},
	{"credential", attack.PhaseCredentialAccess},
	{"discovery", attack.PhaseDiscovery},
	{"lateral", attack.PhaseLateralMovement},
	{"c2", attack.PhaseCommandAndControl},
	{"beacon", attack.PhaseCommandAndControl},
	{"exfil", attack.PhaseExfiltration},
	{"ransom", attack.PhaseImpact},
	{"encrypt", attack.PhaseImpact},
}

// Parser converts producer-agnostic raw events into attack.Events by
// best-effort field extraction. Missing fields default to empty; a
// parse error never aborts correlation of other events.
type Parser struct {
	phases map[string]attack.Phase
	now    func() time.Time
}

// NewParser builds a parser over the given technique→phase table
// (attack.DefaultTechniquePhases when nil).
func NewParser(phases map[string]attack.Phase) *Parser {
	if phases == nil {
		phases = attack.DefaultTechniquePhases()
	}
	return &Parser{phases: phases, now: time.Now}
}

// Parse extracts an attack.Event from a raw payload.
func (p *Parser) Parse(raw map[string]any) (*attack.Event, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty event payload")
	}

	e := &attack.Event{
		ID:         stringField(raw, "event_id", "id"),
		EventType:  stringField(raw, "event_type", "search_name", "name"),
		Host:       stringField(raw, "host", "hostname", "dest_host"),
		User:       stringField(raw, "user", "username", "account"),
		Process:    stringField(raw, "process", "process_name"),
		CmdLine:    stringField(raw, "cmd_line", "command_line", "cmdline"),
		Confidence: floatField(raw, "confidence", 0.5),
		Raw:        raw,
	}
	if e.ID == "" {
		e.ID = "evt_" + uuid.New().String()
	}
	if e.Confidence < 0 || e.Confidence > 1 {
		e.Confidence = 0.5
	}

	ts, err := p.parseTimestamp(raw)
	if err != nil {
		return nil, err
	}
	e.Timestamp = ts

	e.Network = parseNetwork(raw)
	e.File = parseFile(raw)
	e.Registry = parseRegistry(raw)
	e.Source = inferSource(raw)
	e.Techniques = p.extractTechniques(raw, e)
	e.Phase = p.inferPhase(e)

	return e, nil
}

// parseTimestamp accepts RFC3339 strings, epoch seconds, or time.Time.
// Events without any timestamp are stamped at parse time.
func (p *Parser) parseTimestamp(raw map[string]any) (time.Time, error) {
	for _, key := range []string{"timestamp", "_time", "time"} {
		v, ok := raw[key]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case time.Time:
			return t, nil
		case string:
			for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
				if parsed, err := time.Parse(layout, t); err == nil {
					return parsed, nil
				}
			}
			return time.Time{}, fmt.Errorf("unparseable timestamp %q", t)
		case float64:
			return time.Unix(int64(t), 0).UTC(), nil
		case int64:
			return time.Unix(t, 0).UTC(), nil
		}
	}
	return p.now().UTC(), nil
}

func parseNetwork(raw map[string]any) attack.NetworkAttrs {
	n := attack.NetworkAttrs{}
	if nested, ok := raw["network"].(map[string]any); ok {
		n.SourceIP = stringField(nested, "source_ip", "src_ip")
		n.DestIP = stringField(nested, "dest_ip", "destination_ip")
		n.SourcePort = intField(nested, "source_port", "src_port")
		n.DestPort = intField(nested, "dest_port", "destination_port")
		return n
	}
	n.SourceIP = stringField(raw, "src_ip", "source_ip")
	n.DestIP = stringField(raw, "dest_ip", "destination_ip")
	n.SourcePort = intField(raw, "src_port", "source_port")
	n.DestPort = intField(raw, "dest_port", "destination_port")
	return n
}

func parseFile(raw map[string]any) attack.FileAttrs {
	if nested, ok := raw["file"].(map[string]any); ok {
		return attack.FileAttrs{
			Path: stringField(nested, "path", "file_path"),
			Hash: stringField(nested, "hash", "file_hash"),
		}
	}
	return attack.FileAttrs{
		Path: stringField(raw, "file_path"),
		Hash: stringField(raw, "file_hash"),
	}
}

func parseRegistry(raw map[string]any) attack.RegistryAttrs {
	if nested, ok := raw["registry"].(map[string]any); ok {
		return attack.RegistryAttrs{
			Key:   stringField(nested, "key", "registry_key"),
			Value: stringField(nested, "value", "registry_value"),
		}
	}
	return attack.RegistryAttrs{
		Key:   stringField(raw, "registry_key"),
		Value: stringField(raw, "registry_value"),
	}
}

// inferSource guesses the producing system from the payload shape.
func inferSource(raw map[string]any) string {
	switch {
	case raw["search_name"] != nil:
		return "siem"
	case raw["process"] != nil || raw["process_name"] != nil || raw["cmd_line"] != nil:
		return "edr"
	case raw["network"] != nil || raw["src_ip"] != nil:
		return "netflow"
	default:
		return "unknown"
	}
}

// extractTechniques prefers an explicit technique list and otherwise
// infers techniques from keywords over the serialized payload.
func (p *Parser) extractTechniques(raw map[string]any, e *attack.Event) []string {
	if list, ok := raw["techniques"].([]any); ok && len(list) > 0 {
		var out []string
		for _, v := range list {
			if s, ok := v.(string); ok && s != "" {
				out = append(out, strings.ToUpper(s))
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	if list, ok := raw["techniques"].([]string); ok && len(list) > 0 {
		out := make([]string, 0, len(list))
		for _, s := range list {
			out = append(out, strings.ToUpper(s))
		}
		return out
	}

	serialized, err := json.Marshal(raw)
	if err != nil {
		serialized = []byte(e.EventType + " " + e.CmdLine)
	}
	haystack := strings.ToLower(string(serialized))

	var out []string
	seen := make(map[string]bool)
	for _, kt := range keywordTechniques {
		if strings.Contains(haystack, kt.keyword) && !seen[kt.technique] {
			seen[kt.technique] = true
			out = append(out, kt.technique)
		}
	}
	return out
}

// inferPhase uses the first technique's configured phase, falling back
// to a keyword guess from the event type.
func (p *Parser) inferPhase(e *attack.Event) attack.Phase {
	for _, t := range e.Techniques {
		if phase, ok := p.phases[t]; ok {
			return phase
		}
	}
	eventType := strings.ToLower(e.EventType)
	for _, ep := range eventTypePhases {
		if strings.Contains(eventType, ep.keyword) {
			return ep.phase
		}
	}
	return ""
}

func stringField(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func floatField(m map[string]any, key string, fallback float64) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return fallback
}

func intField(m map[string]any, keys ...string) int {
	for _, k := range keys {
		switch v := m[k].(type) {
		case float64:
			return int(v)
		case int:
			return v
		}
	}
	return 0
}
