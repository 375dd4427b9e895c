// Package patterns provides a centralized, compile-once pattern registry
// for response-safety scanning. All regexes are compiled at package init
// and shared by the planner's risk scorer, safety-concern scan, and
// red-flag scan.
//
// Design principles:
// - COMPILE ONCE: patterns compiled at init, not per-decision
// - DRY: single source of truth for unsafe-action patterns
// - CATEGORIZED: patterns organized by safety category for targeted scans
package patterns

import (
	"regexp"
	"sync"
)

// Category represents a safety pattern category.
type Category string

const (
	// Unsafe-action categories: a match in a draft response means the
	// proposed plan itself is dangerous.
	CategoryDestructiveFS      Category = "destructive_filesystem"
	CategoryCredentialExposure Category = "credential_exposure"
	CategoryNetworkAttack      Category = "network_attack_tooling"
	CategoryExfiltration       Category = "exfiltration"
	CategoryPersistence        Category = "persistence_backdoor"

	// Safety-concern categories: matches that constrain how a response
	// may be acted on rather than rejecting it outright.
	CategoryIrreversible Category = "irreversible_remediation"
	CategoryNetworkWide  Category = "network_wide_impact"
	CategorySecretToken  Category = "secret_token"

	// Red-flag categories.
	CategoryOffensiveAsk Category = "offensive_assistance"

	// Event-context categories.
	CategoryCriticalHost Category = "critical_host"
)

// UnsafeActionCategories lists the categories whose match in a draft
// response contributes the unsafe-action risk bump.
func UnsafeActionCategories() []Category {
	return []Category{
		CategoryDestructiveFS,
		CategoryCredentialExposure,
		CategoryNetworkAttack,
		CategoryExfiltration,
		CategoryPersistence,
	}
}

// Pattern holds a compiled regex with metadata.
type Pattern struct {
	Name        string         // Human-readable name for logging
	Regex       *regexp.Regexp // Compiled regex (never nil after init)
	Category    Category       // Safety category
	Severity    int            // Risk contribution (0-100)
	Description string         // What this pattern detects
}

// Registry holds all compiled patterns, organized by category.
type Registry struct {
	mu         sync.RWMutex
	byCategory map[Category][]*Pattern
	all        []*Pattern
}

var (
	globalRegistry *Registry
	initOnce       sync.Once
)

// Get returns the global pattern registry (singleton).
// Thread-safe and guaranteed to be initialized.
func Get() *Registry {
	initOnce.Do(func() {
		globalRegistry = newRegistry()
	})
	return globalRegistry
}

func newRegistry() *Registry {
	r := &Registry{
		byCategory: make(map[Category][]*Pattern),
		all:        make([]*Pattern, 0, 96),
	}

	r.registerDestructiveFSPatterns()
	r.registerCredentialExposurePatterns()
	r.registerNetworkAttackPatterns()
	r.registerExfiltrationPatterns()
	r.registerPersistencePatterns()
	r.registerIrreversiblePatterns()
	r.registerNetworkWidePatterns()
	r.registerSecretTokenPatterns()
	r.registerOffensiveAskPatterns()
	r.registerCriticalHostPatterns()

	return r
}

func (r *Registry) register(name, pattern string, category Category, severity int, description string) {
	p := &Pattern{
		Name:        name,
		Regex:       regexp.MustCompile(pattern),
		Category:    category,
		Severity:    severity,
		Description: description,
	}
	r.byCategory[category] = append(r.byCategory[category], p)
	r.all = append(r.all, p)
}

// GetByCategory returns all patterns for a category.
// Returns an empty slice if the category has none (never nil).
func (r *Registry) GetByCategory(cat Category) []*Pattern {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if patterns, ok := r.byCategory[cat]; ok {
		return patterns
	}
	return []*Pattern{}
}

// MatchAny checks if text matches any pattern in the given categories.
// Returns the first matching pattern or nil; optimized for early exit.
func (r *Registry) MatchAny(text string, cats ...Category) *Pattern {
	for _, cat := range cats {
		for _, p := range r.GetByCategory(cat) {
			if p.Regex.MatchString(text) {
				return p
			}
		}
	}
	return nil
}

// MatchAll returns every pattern that matches the text in the given
// categories. Use when all matches are needed for scoring.
func (r *Registry) MatchAll(text string, cats ...Category) []*Pattern {
	var matches []*Pattern
	for _, cat := range cats {
		for _, p := range r.GetByCategory(cat) {
			if p.Regex.MatchString(text) {
				matches = append(matches, p)
			}
		}
	}
	return matches
}

// TotalPatterns returns the total count of registered patterns.
func (r *Registry) TotalPatterns() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.all)
}

// CategoryCount returns the number of patterns in a category.
func (r *Registry) CategoryCount(cat Category) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byCategory[cat])
}
