package adapter

import (
	"fmt"
	"sort"
	"sync"

	"github.com/alanyoungcy/nftagg/internal/domain"
)

// Registry maps order kinds to their adapters. It is safe for concurrent use.
type Registry struct {
	adapters map[domain.OrderKind]Adapter
	mu       sync.RWMutex
}

// NewRegistry returns an empty, ready-to-use Registry.
func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[domain.OrderKind]Adapter),
	}
}

// Register adds an adapter under its own kind, replacing any previous
// registration for that kind.
func (r *Registry) Register(a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[a.Kind()] = a
}

// Get retrieves the adapter for a kind. It returns an error when the kind is
// not registered.
func (r *Registry) Get(kind domain.OrderKind) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.adapters[kind]
	if !ok {
		return nil, fmt.Errorf("adapter: kind %q: not registered", kind)
	}
	return a, nil
}

// Kinds returns all registered kinds in sorted order.
func (r *Registry) Kinds() []domain.OrderKind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]domain.OrderKind, 0, len(r.adapters))
	for k := range r.adapters {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// NewDefaultRegistry builds a Registry with every supported protocol wired
// against the given contract set. fetcher provides off-chain signed
// extensions for protocols that need them and may be nil when no such
// protocol will be filled.
func NewDefaultRegistry(addrs Addresses, fetcher ExtensionFetcher) *Registry {
	r := NewRegistry()
	r.Register(NewSeaport(addrs))
	r.Register(NewLooksRare(addrs))
	r.Register(NewX2Y2(addrs, fetcher))
	r.Register(NewZeroExV4(addrs))
	r.Register(NewElement(addrs))
	r.Register(NewSudoswap(addrs))
	r.Register(NewNFTX(addrs))
	r.Register(NewZora(addrs))
	r.Register(NewRarible(addrs))
	r.Register(NewFoundation(addrs))
	r.Register(NewUniverse(addrs))
	r.Register(NewForward(addrs))
	r.Register(NewFlow(addrs))
	r.Register(NewInfinity(addrs))
	r.Register(NewManifold(addrs))
	r.Register(NewSuperRare(addrs))
	r.Register(NewCryptoPunks(addrs))
	r.Register(NewBlur())
	return r
}
