package export

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/TryMightyAI/rampart/pkg/attack"
)

func completedChain(t *testing.T) *attack.Chain {
	t.Helper()
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	chain := attack.NewChain(&attack.Event{
		ID:         "e1",
		Timestamp:  start,
		Host:       "ws-01",
		User:       "administrator",
		Techniques: []string{"T1059.001"},
		Phase:      attack.PhaseExecution,
	})
	chain.Complete(start.Add(time.Hour))
	return chain
}

func TestExportAppendsJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "training.jsonl")
	exp, err := NewJSONLExporter(path)
	if err != nil {
		t.Fatal(err)
	}
	defer exp.Close()

	first := completedChain(t)
	second := completedChain(t)
	if err := exp.Export(first); err != nil {
		t.Fatal(err)
	}
	if err := exp.Export(second); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var samples []TrainingSample
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var s TrainingSample
		if err := json.Unmarshal(scanner.Bytes(), &s); err != nil {
			t.Fatalf("line is not valid JSON: %v", err)
		}
		samples = append(samples, s)
	}
	if len(samples) != 2 {
		t.Fatalf("samples = %d, want 2", len(samples))
	}
	if samples[0].ChainID != first.ID {
		t.Errorf("chain id = %s, want %s", samples[0].ChainID, first.ID)
	}
	if samples[0].EventCount != 1 {
		t.Errorf("event count = %d, want 1", samples[0].EventCount)
	}
	if samples[0].TrainingValue < 0 || samples[0].TrainingValue > 1 {
		t.Errorf("training value %f out of range", samples[0].TrainingValue)
	}
}

func TestExportRejectsOpenChain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "training.jsonl")
	exp, err := NewJSONLExporter(path)
	if err != nil {
		t.Fatal(err)
	}
	defer exp.Close()

	open := attack.NewChain(&attack.Event{
		ID: "e1", Timestamp: time.Now(), Host: "ws-01",
	})
	if err := exp.Export(open); err == nil {
		t.Error("exporting an open chain must fail")
	}
}
