package correlate

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/TryMightyAI/rampart/pkg/attack"
	"github.com/TryMightyAI/rampart/pkg/telemetry"
)

// Config tunes the correlation timing behavior.
type Config struct {
	// CorrelationWindow bounds how far an event's timestamp may sit
	// from a chain's start time and still join it. It also closes a
	// chain whose latest event is older than the window at ingest time.
	CorrelationWindow time.Duration

	// ChainTimeout is the idle span after which the sweep force-completes
	// a chain regardless of its contents.
	ChainTimeout time.Duration
}

// DefaultConfig returns the standard correlation timing.
func DefaultConfig() Config {
	return Config{
		CorrelationWindow: 2 * time.Hour,
		ChainTimeout:      6 * time.Hour,
	}
}

func (c *Config) applyDefaults() {
	if c.CorrelationWindow <= 0 {
		c.CorrelationWindow = 2 * time.Hour
	}
	if c.ChainTimeout <= 0 {
		c.ChainTimeout = 6 * time.Hour
	}
}

// CompletionSink receives chains as they complete. Sinks run inside the
// correlator's critical section and must not call back into it.
type CompletionSink func(*attack.Chain)

// Correlator assigns normalized events to attack chains. All mutation
// of the active-chain registry happens under its mutex, so a single
// Correlator may be shared by any number of goroutines.
type Correlator struct {
	mu     sync.Mutex
	cfg    Config
	repo   ChainRepository
	parser *Parser
	stats  *telemetry.IngestStats
	sinks  []CompletionSink

	// now is swappable for tests.
	now func() time.Time
}

// NewCorrelator builds a correlator over the given registry. A nil repo
// gets an in-memory registry; a nil stats gets a private counter set.
func NewCorrelator(cfg Config, repo ChainRepository, stats *telemetry.IngestStats) *Correlator {
	cfg.applyDefaults()
	if repo == nil {
		repo = NewMemoryChainRepository()
	}
	if stats == nil {
		stats = &telemetry.IngestStats{}
	}
	return &Correlator{
		cfg:    cfg,
		repo:   repo,
		parser: NewParser(nil),
		stats:  stats,
		now:    time.Now,
	}
}

// OnComplete registers a sink invoked for every chain completion,
// including force-completions from the idle sweep.
func (c *Correlator) OnComplete(sink CompletionSink) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sinks = append(c.sinks, sink)
}

// Stats exposes the ingest counters.
func (c *Correlator) Stats() telemetry.Snapshot {
	return c.stats.Snapshot()
}

// ActiveChains returns the current open chains for inspection.
func (c *Correlator) ActiveChains(ctx context.Context) ([]*attack.Chain, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.repo.ListActive(ctx)
}

// Ingest parses one raw event and folds it into the chain registry.
// The returned chain is non-nil only when this event completed one; it
// has left the registry and will not be mutated again. A parse failure
// is reported as an error but is not fatal to the pipeline; callers may
// log it and continue.
func (c *Correlator) Ingest(ctx context.Context, raw map[string]any) (*attack.Chain, error) {
	event, err := c.parser.Parse(raw)
	if err != nil {
		c.stats.ParseFailure()
		return nil, fmt.Errorf("parse event: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if err := c.sweepLocked(ctx, now); err != nil {
		log.Printf("[WARN] chain sweep failed: %v", err)
	}

	chain, err := c.matchLocked(ctx, event)
	if err != nil {
		return nil, err
	}
	if chain == nil {
		chain = attack.NewChain(event)
		c.stats.ChainOpened()
	} else {
		chain.Append(event)
	}
	c.stats.EventIngested()

	if c.shouldComplete(chain, now) {
		if err := c.completeLocked(ctx, chain, now); err != nil {
			return nil, err
		}
		return chain, nil
	}

	if err := c.repo.Put(ctx, chain); err != nil {
		return nil, fmt.Errorf("store chain: %w", err)
	}
	return nil, nil
}

// Sweep force-completes chains idle longer than ChainTimeout and
// returns them. Normally the per-ingest sweep suffices; this is for
// periodic callers and shutdown flushes.
func (c *Correlator) Sweep(ctx context.Context) ([]*attack.Chain, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	chains, err := c.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	now := c.now()
	var completed []*attack.Chain
	for _, chain := range chains {
		if now.Sub(chain.LastEventTime()) > c.cfg.ChainTimeout {
			if err := c.completeLocked(ctx, chain, now); err != nil {
				return completed, err
			}
			completed = append(completed, chain)
		}
	}
	return completed, nil
}

func (c *Correlator) sweepLocked(ctx context.Context, now time.Time) error {
	chains, err := c.repo.ListActive(ctx)
	if err != nil {
		return err
	}
	for _, chain := range chains {
		if now.Sub(chain.LastEventTime()) > c.cfg.ChainTimeout {
			if err := c.completeLocked(ctx, chain, now); err != nil {
				return err
			}
		}
	}
	return nil
}

// matchLocked finds the oldest active chain the event belongs to. The
// first match in creation order wins so results do not depend on map
// iteration.
func (c *Correlator) matchLocked(ctx context.Context, e *attack.Event) (*attack.Chain, error) {
	chains, err := c.repo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list chains: %w", err)
	}
	for _, chain := range chains {
		if chain.Completed {
			continue
		}
		if !withinWindow(e.Timestamp, chain.StartTime, c.cfg.CorrelationWindow) {
			continue
		}
		if c.similar(chain, e) {
			return chain, nil
		}
	}
	return nil, nil
}

// similar reports whether the event shares an entity with the chain:
// a target host, the attacker source IP, a previously seen user, or a
// process/command-line substring overlap in either direction.
func (c *Correlator) similar(chain *attack.Chain, e *attack.Event) bool {
	for _, h := range chain.TargetHosts {
		if h != "" && h == e.Host {
			return true
		}
	}
	if src := e.Network.SourceIP; src != "" && src == chain.AttackerIP {
		return true
	}
	if chain.HasUser(e.User) {
		return true
	}
	return processOverlap(chain, e)
}

func processOverlap(chain *attack.Chain, e *attack.Event) bool {
	eventText := strings.ToLower(strings.TrimSpace(e.Process + " " + e.CmdLine))
	if eventText == "" {
		return false
	}
	for _, prev := range chain.Events {
		prevText := strings.ToLower(strings.TrimSpace(prev.Process + " " + prev.CmdLine))
		if prevText == "" {
			continue
		}
		if strings.Contains(eventText, prevText) || strings.Contains(prevText, eventText) {
			return true
		}
	}
	return false
}

func withinWindow(eventTS, chainStart time.Time, window time.Duration) bool {
	delta := eventTS.Sub(chainStart)
	if delta < 0 {
		delta = -delta
	}
	return delta <= window
}

// shouldComplete applies the completion criteria: the chain went quiet
// for a full correlation window, reached the impact phase, or
// accumulated three distinct success indicators.
func (c *Correlator) shouldComplete(chain *attack.Chain, now time.Time) bool {
	if now.Sub(chain.LastEventTime()) > c.cfg.CorrelationWindow {
		return true
	}
	if chain.HasPhase(attack.PhaseImpact) {
		return true
	}
	return len(chain.SuccessIndicators) >= 3
}

// completeLocked finalizes a chain, removes it from the registry, and
// notifies sinks. After this the chain is immutable.
func (c *Correlator) completeLocked(ctx context.Context, chain *attack.Chain, now time.Time) error {
	chain.Complete(now)
	if err := c.repo.Remove(ctx, chain.ID); err != nil {
		return fmt.Errorf("remove completed chain %s: %w", chain.ID, err)
	}
	c.stats.ChainCompleted()
	for _, sink := range c.sinks {
		sink(chain)
	}
	return nil
}
