package attack

import (
	"fmt"
	"net/netip"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Success indicator labels. These are the strings accumulated in
// Chain.SuccessIndicators; downstream consumers key off them.
const (
	IndicatorPrivilegedAccount = "privileged_account_usage"
	IndicatorLateralMovement   = "lateral_movement"
	IndicatorPersistence       = "persistence_mechanism"
	IndicatorCredentialAccess  = "credential_access"
	IndicatorDataAccess        = "sensitive_data_access"
	IndicatorC2Communication   = "c2_communication"
)

var privateRanges = []netip.Prefix{
	netip.MustParsePrefix("10.0.0.0/8"),
	netip.MustParsePrefix("172.16.0.0/12"),
	netip.MustParsePrefix("192.168.0.0/16"),
	netip.MustParsePrefix("127.0.0.0/8"),
	netip.MustParsePrefix("169.254.0.0/16"),
	netip.MustParsePrefix("fc00::/7"),
	netip.MustParsePrefix("::1/128"),
}

// IsPrivateIP reports whether addr parses as an IP inside the RFC1918 /
// loopback / link-local ranges. Unparseable strings are treated as
// private so they never get recorded as an external attacker address.
func IsPrivateIP(addr string) bool {
	ip, err := netip.ParseAddr(addr)
	if err != nil {
		return true
	}
	for _, r := range privateRanges {
		if r.Contains(ip) {
			return true
		}
	}
	return false
}

// Chain is a mutable aggregate representing one suspected attack in
// progress. It is created by the correlator on the first unmatched event
// and mutated only by the correlator until completion; once completed it
// is immutable and no longer eligible for matching.
type Chain struct {
	ID         string     `json:"id"`
	StartTime  time.Time  `json:"start_time"`
	EndTime    *time.Time `json:"end_time,omitempty"`
	AttackerIP string     `json:"attacker_ip"`

	// TargetHosts and the two sets below grow monotonically and never
	// contain duplicates; insertion order is preserved for stable output.
	TargetHosts       []string `json:"target_hosts"`
	Events            []*Event `json:"events"`
	PhasesDetected    []Phase  `json:"phases_detected"`
	TechniquesUsed    []string `json:"techniques_used"`
	SuccessIndicators []string `json:"success_indicators"`

	// TrainingValue estimates how useful the chain is as a labeled
	// training example. Recomputed on every append, always in [0,1].
	TrainingValue float64 `json:"training_value"`

	Completed bool `json:"completed"`
}

// NewChain opens a chain seeded with its first event. The attacker IP is
// recorded only when the event's source IP is outside private ranges.
func NewChain(first *Event) *Chain {
	attacker := "unknown"
	if ip := first.Network.SourceIP; ip != "" && !IsPrivateIP(ip) {
		attacker = ip
	}
	c := &Chain{
		ID:         "chain_" + uuid.New().String(),
		StartTime:  first.Timestamp,
		AttackerIP: attacker,
	}
	if first.Host != "" {
		c.TargetHosts = []string{first.Host}
	}
	c.Append(first)
	return c
}

// Append folds an event into the chain and recomputes derived fields.
// The caller (the correlator) has already decided the event belongs here;
// an event is never appended to two chains.
func (c *Chain) Append(e *Event) {
	c.Events = append(c.Events, e)
	c.addHost(e.Host)
	if e.Phase != "" {
		c.addPhase(e.Phase)
	}
	for _, t := range e.Techniques {
		c.addTechnique(t)
	}
	c.scanIndicators(e)
	c.TrainingValue = c.computeTrainingValue()
}

// LastEventTime returns the timestamp of the most recently appended
// event. Chains always hold at least one event.
func (c *Chain) LastEventTime() time.Time {
	return c.Events[len(c.Events)-1].Timestamp
}

// Duration is the span between the chain start and its latest event.
func (c *Chain) Duration() time.Duration {
	return c.LastEventTime().Sub(c.StartTime)
}

// HasPhase reports whether the chain has observed the given phase.
func (c *Chain) HasPhase(p Phase) bool {
	for _, seen := range c.PhasesDetected {
		if seen == p {
			return true
		}
	}
	return false
}

// HasUser reports whether any event in the chain was attributed to user.
func (c *Chain) HasUser(user string) bool {
	if user == "" {
		return false
	}
	for _, e := range c.Events {
		if e.User == user {
			return true
		}
	}
	return false
}

// Complete marks the chain finished at the given time. Completing twice
// is a no-op so a force-complete sweep racing a normal completion cannot
// double-fire downstream handling.
func (c *Chain) Complete(at time.Time) {
	if c.Completed {
		return
	}
	c.Completed = true
	c.EndTime = &at
}

// Validate checks the chain invariants. Used at the store boundary and
// in tests; the correlator maintains these by construction.
func (c *Chain) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("chain ID is required")
	}
	if len(c.Events) == 0 {
		return fmt.Errorf("chain must contain at least one event")
	}
	if c.TrainingValue < 0.0 || c.TrainingValue > 1.0 {
		return fmt.Errorf("training value out of range: %f", c.TrainingValue)
	}
	if hasDuplicates(c.TargetHosts) {
		return fmt.Errorf("target hosts contain duplicates")
	}
	if hasDuplicates(c.TechniquesUsed) {
		return fmt.Errorf("techniques contain duplicates")
	}
	return nil
}

func hasDuplicates(values []string) bool {
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		if seen[v] {
			return true
		}
		seen[v] = true
	}
	return false
}

func (c *Chain) addHost(host string) {
	if host == "" {
		return
	}
	for _, h := range c.TargetHosts {
		if h == host {
			return
		}
	}
	c.TargetHosts = append(c.TargetHosts, host)
}

func (c *Chain) addPhase(p Phase) {
	for _, seen := range c.PhasesDetected {
		if seen == p {
			return
		}
	}
	c.PhasesDetected = append(c.PhasesDetected, p)
}

func (c *Chain) addTechnique(t string) {
	if t == "" {
		return
	}
	for _, seen := range c.TechniquesUsed {
		if seen == t {
			return
		}
	}
	c.TechniquesUsed = append(c.TechniquesUsed, t)
}

func (c *Chain) addIndicator(name string) {
	for _, seen := range c.SuccessIndicators {
		if seen == name {
			return
		}
	}
	c.SuccessIndicators = append(c.SuccessIndicators, name)
}

// scanIndicators inspects the newly appended event for signs the attack
// is succeeding. Indicators accumulate; they are never removed.
func (c *Chain) scanIndicators(e *Event) {
	user := strings.ToLower(e.User)
	for _, priv := range []string{"admin", "system", "root"} {
		if strings.Contains(user, priv) {
			c.addIndicator(IndicatorPrivilegedAccount)
			break
		}
	}

	if len(c.TargetHosts) > 1 {
		c.addIndicator(IndicatorLateralMovement)
	}

	if e.Registry.Key != "" && strings.Contains(strings.ToLower(e.Registry.Key), "run") {
		c.addIndicator(IndicatorPersistence)
	}

	cmd := strings.ToLower(e.CmdLine + " " + e.Process)
	if strings.Contains(cmd, "lsass") || strings.Contains(cmd, "mimikatz") {
		c.addIndicator(IndicatorCredentialAccess)
	}

	path := strings.ToLower(e.File.Path)
	if path != "" {
		for _, sensitive := range []string{"password", "secret", "confidential", "finance", "hr", "backup"} {
			if strings.Contains(path, sensitive) {
				c.addIndicator(IndicatorDataAccess)
				break
			}
		}
	}

	if dst := e.Network.DestIP; dst != "" && !IsPrivateIP(dst) {
		c.addIndicator(IndicatorC2Communication)
	}
}

// computeTrainingValue scores the chain's usefulness as a labeled
// example: volume, phase/technique diversity, confirmed success
// indicators, lateral spread, and dwell time over an hour.
func (c *Chain) computeTrainingValue() float64 {
	eventTerm := 0.1 * float64(len(c.Events))
	if eventTerm > 1.0 {
		eventTerm = 1.0
	}

	value := eventTerm
	value += 0.1 * float64(len(c.PhasesDetected))
	value += 0.05 * float64(len(c.TechniquesUsed))
	value += 0.2 * float64(len(c.SuccessIndicators))
	if len(c.TargetHosts) > 1 {
		value += 0.5
	}
	if c.Duration() > time.Hour {
		value += 0.3
	}

	if value > 1.0 {
		return 1.0
	}
	if value < 0.0 {
		return 0.0
	}
	return value
}
