// Package attack defines the event and chain model shared by the
// correlator and the safety planner: MITRE ATT&CK phases, normalized
// telemetry events, and the mutable chain aggregate that links them.
package attack

// Phase is one of the 14 MITRE ATT&CK enterprise kill-chain phases.
type Phase string

const (
	PhaseReconnaissance      Phase = "reconnaissance"
	PhaseResourceDevelopment Phase = "resource_development"
	PhaseInitialAccess       Phase = "initial_access"
	PhaseExecution           Phase = "execution"
	PhasePersistence         Phase = "persistence"
	PhasePrivilegeEscalation Phase = "privilege_escalation"
	PhaseDefenseEvasion      Phase = "defense_evasion"
	PhaseCredentialAccess    Phase = "credential_access"
	PhaseDiscovery           Phase = "discovery"
	PhaseLateralMovement     Phase = "lateral_movement"
	PhaseCollection          Phase = "collection"
	PhaseCommandAndControl   Phase = "command_and_control"
	PhaseExfiltration        Phase = "exfiltration"
	PhaseImpact              Phase = "impact"
)

// AllPhases returns the phases in kill-chain order.
func AllPhases() []Phase {
	return []Phase{
		PhaseReconnaissance,
		PhaseResourceDevelopment,
		PhaseInitialAccess,
		PhaseExecution,
		PhasePersistence,
		PhasePrivilegeEscalation,
		PhaseDefenseEvasion,
		PhaseCredentialAccess,
		PhaseDiscovery,
		PhaseLateralMovement,
		PhaseCollection,
		PhaseCommandAndControl,
		PhaseExfiltration,
		PhaseImpact,
	}
}

// IsValid reports whether p is one of the known kill-chain phases.
func (p Phase) IsValid() bool {
	for _, known := range AllPhases() {
		if p == known {
			return true
		}
	}
	return false
}

// DefaultTechniquePhases maps MITRE technique IDs to their kill-chain
// phase. This is reference data: callers may pass their own table to the
// correlator, this one covers the techniques the built-in inference emits.
func DefaultTechniquePhases() map[string]Phase {
	return map[string]Phase{
		"T1595":     PhaseReconnaissance,   // Active Scanning
		"T1566":     PhaseInitialAccess,    // Phishing
		"T1190":     PhaseInitialAccess,    // Exploit Public-Facing Application
		"T1059":     PhaseExecution,        // Command and Scripting Interpreter
		"T1059.001": PhaseExecution,        // PowerShell
		"T1059.003": PhaseExecution,        // Windows Command Shell
		"T1053":     PhaseExecution,        // Scheduled Task/Job
		"T1547":     PhasePersistence,      // Boot or Logon Autostart Execution
		"T1547.001": PhasePersistence,      // Registry Run Keys
		"T1548":     PhasePrivilegeEscalation,
		"T1070":     PhaseDefenseEvasion,   // Indicator Removal
		"T1003":     PhaseCredentialAccess, // OS Credential Dumping
		"T1003.001": PhaseCredentialAccess, // LSASS Memory
		"T1110":     PhaseCredentialAccess, // Brute Force
		"T1046":     PhaseDiscovery,        // Network Service Discovery
		"T1021":     PhaseLateralMovement,  // Remote Services
		"T1021.001": PhaseLateralMovement,  // RDP
		"T1021.002": PhaseLateralMovement,  // SMB/Windows Admin Shares
		"T1005":     PhaseCollection,       // Data from Local System
		"T1071":     PhaseCommandAndControl,
		"T1105":     PhaseCommandAndControl, // Ingress Tool Transfer
		"T1041":     PhaseExfiltration,      // Exfiltration Over C2 Channel
		"T1486":     PhaseImpact,            // Data Encrypted for Impact
		"T1489":     PhaseImpact,            // Service Stop
	}
}
