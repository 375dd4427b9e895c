// Package telemetry tracks ingest diagnostics. Parse failures and
// backpressure drops never abort correlation; they are only visible
// here, so the counters are the caller's signal that events are being
// lost.
package telemetry

import "sync/atomic"

// IngestStats holds monotonically increasing ingest counters. The zero
// value is ready to use; all methods are safe for concurrent callers.
type IngestStats struct {
	eventsIngested  atomic.Int64
	parseFailures   atomic.Int64
	chainsOpened    atomic.Int64
	chainsCompleted atomic.Int64
	eventsDropped   atomic.Int64
}

func (s *IngestStats) EventIngested()  { s.eventsIngested.Add(1) }
func (s *IngestStats) ParseFailure()   { s.parseFailures.Add(1) }
func (s *IngestStats) ChainOpened()    { s.chainsOpened.Add(1) }
func (s *IngestStats) ChainCompleted() { s.chainsCompleted.Add(1) }
func (s *IngestStats) EventDropped()   { s.eventsDropped.Add(1) }

// Snapshot is a point-in-time copy of the counters for /stats output.
type Snapshot struct {
	EventsIngested  int64 `json:"events_ingested"`
	ParseFailures   int64 `json:"parse_failures"`
	ChainsOpened    int64 `json:"chains_opened"`
	ChainsCompleted int64 `json:"chains_completed"`
	EventsDropped   int64 `json:"events_dropped"`
}

// Snapshot returns the current counter values.
func (s *IngestStats) Snapshot() Snapshot {
	return Snapshot{
		EventsIngested:  s.eventsIngested.Load(),
		ParseFailures:   s.parseFailures.Load(),
		ChainsOpened:    s.chainsOpened.Load(),
		ChainsCompleted: s.chainsCompleted.Load(),
		EventsDropped:   s.eventsDropped.Load(),
	}
}
