package attack

import (
	"fmt"
	"time"
)

// NetworkAttrs carries the network fields of a normalized event.
type NetworkAttrs struct {
	SourceIP   string `json:"source_ip,omitempty"`
	DestIP     string `json:"dest_ip,omitempty"`
	SourcePort int    `json:"source_port,omitempty"`
	DestPort   int    `json:"dest_port,omitempty"`
}

// FileAttrs carries the file fields of a normalized event.
type FileAttrs struct {
	Path string `json:"path,omitempty"`
	Hash string `json:"hash,omitempty"`
}

// RegistryAttrs carries the registry fields of a normalized event.
type RegistryAttrs struct {
	Key   string `json:"key,omitempty"`
	Value string `json:"value,omitempty"`
}

// Event is one normalized telemetry record. It is created once per
// inbound raw event, is immutable after creation, and is owned by
// exactly one Chain once appended.
type Event struct {
	ID         string        `json:"id"`
	Timestamp  time.Time     `json:"timestamp"`
	Source     string        `json:"source"` // originating system: edr, siem, netflow, unknown
	EventType  string        `json:"event_type"`
	Host       string        `json:"host"`
	User       string        `json:"user"`
	Process    string        `json:"process"`
	CmdLine    string        `json:"cmd_line"`
	Network    NetworkAttrs  `json:"network"`
	File       FileAttrs     `json:"file"`
	Registry   RegistryAttrs `json:"registry"`
	Techniques []string      `json:"techniques,omitempty"`
	Phase      Phase         `json:"phase,omitempty"`
	Confidence float64       `json:"confidence"`

	// Raw preserves the original payload for audit and export.
	Raw map[string]any `json:"raw,omitempty"`
}

// Validate checks the fields the correlator relies on.
func (e *Event) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("event ID is required")
	}
	if e.Timestamp.IsZero() {
		return fmt.Errorf("event timestamp is required")
	}
	if e.Confidence < 0.0 || e.Confidence > 1.0 {
		return fmt.Errorf("confidence must be between 0.0 and 1.0, got %f", e.Confidence)
	}
	if e.Phase != "" && !e.Phase.IsValid() {
		return fmt.Errorf("invalid phase: %s", e.Phase)
	}
	return nil
}
