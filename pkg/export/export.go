// Package export turns completed attack chains into labeled training
// samples and appends them to a JSONL file, one sample per line.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/TryMightyAI/rampart/pkg/attack"
)

// TrainingSample is the exported JSONL record for one completed chain.
type TrainingSample struct {
	ChainID       string    `json:"chain_id"`
	ExportedAt    time.Time `json:"exported_at"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	AttackerIP    string    `json:"attacker_ip"`
	TargetHosts   []string  `json:"target_hosts"`
	EventCount    int       `json:"event_count"`
	Phases        []string  `json:"phases"`
	Techniques    []string  `json:"techniques"`
	Indicators    []string  `json:"indicators"`
	TrainingValue float64   `json:"training_value"`
}

// JSONLExporter appends training samples to a file. Writes are
// serialized; a failed write is reported but never loses the file
// handle.
type JSONLExporter struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
	now  func() time.Time
}

// NewJSONLExporter opens (or creates) the export file in append mode.
func NewJSONLExporter(path string) (*JSONLExporter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open export file: %w", err)
	}
	return &JSONLExporter{file: f, enc: json.NewEncoder(f), now: time.Now}, nil
}

// Export appends one completed chain as a training sample. Chains that
// are still open are skipped; only completed chains are labeled data.
func (e *JSONLExporter) Export(chain *attack.Chain) error {
	if !chain.Completed || chain.EndTime == nil {
		return fmt.Errorf("chain %s is not completed", chain.ID)
	}

	phases := make([]string, len(chain.PhasesDetected))
	for i, p := range chain.PhasesDetected {
		phases[i] = string(p)
	}

	sample := TrainingSample{
		ChainID:       chain.ID,
		ExportedAt:    e.now().UTC(),
		StartTime:     chain.StartTime,
		EndTime:       *chain.EndTime,
		AttackerIP:    chain.AttackerIP,
		TargetHosts:   chain.TargetHosts,
		EventCount:    len(chain.Events),
		Phases:        phases,
		Techniques:    chain.TechniquesUsed,
		Indicators:    chain.SuccessIndicators,
		TrainingValue: chain.TrainingValue,
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.enc.Encode(sample); err != nil {
		return fmt.Errorf("write training sample: %w", err)
	}
	return nil
}

// Close flushes and closes the export file.
func (e *JSONLExporter) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.file.Close()
}
