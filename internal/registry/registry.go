// Package registry implements the parent registry described at the
// external interface boundary (spec section 6): the directory
// multiplexer that groups partitions under a base directory. Joins
// resolve their targets through it, read-only, on every call (spec
// section 3, "Ownership").
//
// Grounded on internal/provider/registry.go in the teacher repo: the
// same register-by-name, lookup-by-ID shape (there: pluggable storage
// backends; here: partition directories), generalized from a
// provider-ID keyspace to partition names.
package registry

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/cloudfs/cloudfs/internal/cache"
	"github.com/cloudfs/cloudfs/internal/model"
	"github.com/cloudfs/cloudfs/internal/partition"
)

// registration remembers how a partition name was registered, the way
// spec section 6 requires ("The registry remembers each registration's
// name, cache size, and versioned flag").
type registration struct {
	name      string
	cacheSize int
	versioned bool
}

// Registry binds a base directory and a default cache size, and hands
// out partition handles rooted under it.
type Registry struct {
	baseDir      string
	defaultCache int

	mu            sync.Mutex
	registrations map[string]registration
}

// New returns a Registry rooted at baseDir, using defaultCacheSize for
// any partition constructed without an explicit cache size.
func New(baseDir string, defaultCacheSize int) *Registry {
	if defaultCacheSize < 0 {
		defaultCacheSize = cache.DefaultCapacity
	}
	return &Registry{
		baseDir:       baseDir,
		defaultCache:  defaultCacheSize,
		registrations: make(map[string]registration),
	}
}

func (r *Registry) dirFor(name string) string {
	return filepath.Join(r.baseDir, name)
}

func (r *Registry) resolveCacheSize(cacheSize *int) int {
	if cacheSize != nil {
		return *cacheSize
	}
	return r.defaultCache
}

func (r *Registry) remember(name string, cacheSize int, versioned bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registrations[name] = registration{name: name, cacheSize: cacheSize, versioned: versioned}
}

// GetPartition returns a plain partition named name, creating its
// directory on first use.
func (r *Registry) GetPartition(name string, indexPaths []string, cacheSize *int) *partition.Plain {
	size := r.resolveCacheSize(cacheSize)
	r.remember(name, size, false)
	return partition.NewPlain(r.dirFor(name), indexPaths, size)
}

// GetVersionedPartition returns a unitemporal partition named name.
func (r *Registry) GetVersionedPartition(name string, indexPaths []string, cacheSize *int) *partition.Unitemporal {
	size := r.resolveCacheSize(cacheSize)
	r.remember(name, size, true)
	return partition.NewUnitemporal(r.dirFor(name), indexPaths, size)
}

// GetBitemporalPartition returns a bitemporal partition named name.
func (r *Registry) GetBitemporalPartition(name string, indexPaths []string, cacheSize *int) *partition.Bitemporal {
	size := r.resolveCacheSize(cacheSize)
	r.remember(name, size, true)
	return partition.NewBitemporal(r.dirFor(name), indexPaths, size)
}

// GetPartitionByName returns a new plain partition handle for a
// previously registered name, used by join resolution. Per spec
// section 6, flavor is never checked on re-lookup: joins always treat
// targets as plain, even if the name was registered as versioned or
// bitemporal.
func (r *Registry) GetPartitionByName(name string) (partition.Target, error) {
	r.mu.Lock()
	reg, ok := r.registrations[name]
	r.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: partition %q was never registered", model.ErrNotFound, name)
	}
	return partition.NewPlain(r.dirFor(name), nil, reg.cacheSize), nil
}

// Stats is a read-only, side-effect-free summary of one registered
// partition, in the spirit of the teacher's Dashboard (spec section
// "SUPPLEMENTED FEATURES" in SPEC_FULL.md).
type Stats struct {
	Name      string
	Versioned bool
	KeyCount  int
}

// Stat returns a read-only summary of the named partition.
func (r *Registry) Stat(name string) (Stats, error) {
	r.mu.Lock()
	reg, ok := r.registrations[name]
	r.mu.Unlock()
	if !ok {
		return Stats{}, fmt.Errorf("%w: partition %q was never registered", model.ErrNotFound, name)
	}
	p := partition.NewPlain(r.dirFor(name), nil, reg.cacheSize)
	keys, err := p.Keys()
	if err != nil {
		return Stats{}, err
	}
	return Stats{Name: name, Versioned: reg.versioned, KeyCount: len(keys)}, nil
}
