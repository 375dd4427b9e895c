package attack

import (
	"testing"
	"time"
)

func testEvent(id string, ts time.Time) *Event {
	return &Event{
		ID:         id,
		Timestamp:  ts,
		Host:       "ws-01",
		Confidence: 0.5,
	}
}

func TestNewChainSeedsHostAndAttacker(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	e := testEvent("e1", start)
	e.Network.SourceIP = "203.0.113.7"
	c := NewChain(e)

	if c.AttackerIP != "203.0.113.7" {
		t.Errorf("attacker IP = %q, want 203.0.113.7", c.AttackerIP)
	}
	if len(c.TargetHosts) != 1 || c.TargetHosts[0] != "ws-01" {
		t.Errorf("target hosts = %v, want [ws-01]", c.TargetHosts)
	}
	if len(c.Events) != 1 {
		t.Errorf("event count = %d, want 1", len(c.Events))
	}
}

func TestNewChainPrivateSourceIsUnknown(t *testing.T) {
	testCases := []struct {
		name string
		ip   string
	}{
		{"rfc1918_10", "10.1.2.3"},
		{"rfc1918_172", "172.16.5.5"},
		{"rfc1918_192", "192.168.1.10"},
		{"loopback", "127.0.0.1"},
		{"link_local", "169.254.1.1"},
		{"garbage", "not-an-ip"},
		{"empty", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e := testEvent("e1", time.Now())
			e.Network.SourceIP = tc.ip
			c := NewChain(e)
			if c.AttackerIP != "unknown" {
				t.Errorf("attacker IP = %q, want unknown", c.AttackerIP)
			}
		})
	}
}

func TestIsPrivateIP(t *testing.T) {
	if !IsPrivateIP("10.0.0.1") {
		t.Error("10.0.0.1 should be private")
	}
	if IsPrivateIP("8.8.8.8") {
		t.Error("8.8.8.8 should not be private")
	}
	if !IsPrivateIP("bogus") {
		t.Error("unparseable addresses must be treated as private")
	}
	if !IsPrivateIP("fc00::1") {
		t.Error("fc00::1 should be private")
	}
}

func TestAppendSetsStayMonotoneAndUnique(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	c := NewChain(testEvent("e1", start))

	hosts := []string{"ws-01", "ws-02", "ws-01", "srv-03", "ws-02"}
	for i, h := range hosts {
		e := testEvent("e", start.Add(time.Duration(i)*time.Minute))
		e.Host = h
		e.Techniques = []string{"T1059.001", "T1059.001"}
		prevHosts := len(c.TargetHosts)
		prevTech := len(c.TechniquesUsed)
		c.Append(e)
		if len(c.TargetHosts) < prevHosts {
			t.Fatal("target hosts shrank")
		}
		if len(c.TechniquesUsed) < prevTech {
			t.Fatal("techniques shrank")
		}
	}

	if len(c.TargetHosts) != 3 {
		t.Errorf("target hosts = %v, want 3 unique", c.TargetHosts)
	}
	if len(c.TechniquesUsed) != 1 {
		t.Errorf("techniques = %v, want 1 unique", c.TechniquesUsed)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("chain should validate: %v", err)
	}
}

func TestTrainingValueClamped(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	c := NewChain(testEvent("e1", start))

	// Pile on everything that contributes value.
	for i := 0; i < 30; i++ {
		e := testEvent("e", start.Add(time.Duration(i)*10*time.Minute))
		e.Host = "host-" + string(rune('a'+i%5))
		e.User = "admin"
		e.Process = "mimikatz.exe"
		e.Techniques = []string{"T1003.001", "T1021.001"}
		e.Phase = PhaseCredentialAccess
		e.Registry.Key = `HKLM\Software\Microsoft\Windows\CurrentVersion\Run`
		e.File.Path = `C:\finance\passwords.xlsx`
		e.Network.DestIP = "198.51.100.20"
		c.Append(e)

		if c.TrainingValue < 0.0 || c.TrainingValue > 1.0 {
			t.Fatalf("training value %f out of [0,1] after %d events", c.TrainingValue, i+2)
		}
	}

	if c.TrainingValue != 1.0 {
		t.Errorf("training value = %f, want saturation at 1.0", c.TrainingValue)
	}
}

func TestSuccessIndicators(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	testCases := []struct {
		name string
		prep func(e *Event)
		want string
	}{
		{"privileged_account", func(e *Event) { e.User = "NT AUTHORITY\\SYSTEM" }, IndicatorPrivilegedAccount},
		{"persistence", func(e *Event) { e.Registry.Key = `HKCU\...\CurrentVersion\Run` }, IndicatorPersistence},
		{"credential_access", func(e *Event) { e.CmdLine = "procdump -ma lsass.exe out.dmp" }, IndicatorCredentialAccess},
		{"data_access", func(e *Event) { e.File.Path = "/mnt/hr/salaries.csv" }, IndicatorDataAccess},
		{"c2", func(e *Event) { e.Network.DestIP = "198.51.100.9" }, IndicatorC2Communication},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewChain(testEvent("e1", start))
			e := testEvent("e2", start.Add(time.Minute))
			tc.prep(e)
			c.Append(e)

			found := false
			for _, ind := range c.SuccessIndicators {
				if ind == tc.want {
					found = true
				}
			}
			if !found {
				t.Errorf("indicators = %v, want %s", c.SuccessIndicators, tc.want)
			}
		})
	}
}

func TestLateralMovementIndicator(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	c := NewChain(testEvent("e1", start))

	if len(c.SuccessIndicators) != 0 {
		t.Fatalf("fresh single-host chain should have no indicators, got %v", c.SuccessIndicators)
	}

	e := testEvent("e2", start.Add(time.Minute))
	e.Host = "srv-02"
	c.Append(e)

	if len(c.SuccessIndicators) != 1 || c.SuccessIndicators[0] != IndicatorLateralMovement {
		t.Errorf("indicators = %v, want [%s]", c.SuccessIndicators, IndicatorLateralMovement)
	}
}

func TestCompleteIsIdempotent(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	c := NewChain(testEvent("e1", start))

	first := start.Add(time.Hour)
	c.Complete(first)
	c.Complete(start.Add(2 * time.Hour))

	if !c.Completed {
		t.Fatal("chain should be completed")
	}
	if c.EndTime == nil || !c.EndTime.Equal(first) {
		t.Errorf("end time = %v, want %v from the first Complete call", c.EndTime, first)
	}
}

func TestDurationBonus(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	c := NewChain(testEvent("e1", start))
	shortValue := c.TrainingValue

	c.Append(testEvent("e2", start.Add(90*time.Minute)))
	if c.TrainingValue <= shortValue {
		t.Errorf("dwell time over an hour should raise training value: %f -> %f", shortValue, c.TrainingValue)
	}
}
