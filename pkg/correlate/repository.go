package correlate

import (
	"context"
	"sync"

	"github.com/TryMightyAI/rampart/pkg/attack"
)

// ChainRepository is the single mutation boundary for the active-chain
// registry. Implementations must return chains from ListActive in
// creation-time ascending order; matching depends on that ordering
// being deterministic.
//
// Get returns nil, nil when the chain is not found.
type ChainRepository interface {
	Get(ctx context.Context, id string) (*attack.Chain, error)
	Put(ctx context.Context, chain *attack.Chain) error
	ListActive(ctx context.Context) ([]*attack.Chain, error)
	Remove(ctx context.Context, id string) error
}

// MemoryChainRepository keeps active chains in process memory.
// Suitable for single-node deployments and tests; multi-node
// deployments use RedisChainRepository.
type MemoryChainRepository struct {
	mu     sync.RWMutex
	chains map[string]*attack.Chain
	order  []string // chain ids in creation order
}

// NewMemoryChainRepository creates an empty in-memory registry.
func NewMemoryChainRepository() *MemoryChainRepository {
	return &MemoryChainRepository{chains: make(map[string]*attack.Chain)}
}

// Get retrieves a chain by id. Not found is not an error.
func (r *MemoryChainRepository) Get(_ context.Context, id string) (*attack.Chain, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.chains[id], nil
}

// Put stores or updates a chain, preserving creation order for new ids.
func (r *MemoryChainRepository) Put(_ context.Context, chain *attack.Chain) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.chains[chain.ID]; !exists {
		r.order = append(r.order, chain.ID)
	}
	r.chains[chain.ID] = chain
	return nil
}

// ListActive returns the open chains in creation order.
func (r *MemoryChainRepository) ListActive(_ context.Context) ([]*attack.Chain, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*attack.Chain, 0, len(r.chains))
	for _, id := range r.order {
		if c, ok := r.chains[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// Remove deletes a chain from the registry.
func (r *MemoryChainRepository) Remove(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.chains[id]; !ok {
		return nil
	}
	delete(r.chains, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// Len returns the number of active chains (for stats and tests).
func (r *MemoryChainRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.chains)
}

var _ ChainRepository = (*MemoryChainRepository)(nil)
