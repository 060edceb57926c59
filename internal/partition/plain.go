// Package partition implements the three partition flavors sharing one
// storage/index/cache substrate (spec section 4.5-4.7): Plain,
// Unitemporal and Bitemporal. Plain carries the operations common to
// all three (exists, keys, data, delete, index and join handling) so
// the versioned flavors only override what they must.
//
// Grounded on the teacher's internal/core managers (index.go, cache.go):
// same "ensure directory, load index, consult cache, then storage"
// control flow (spec section 2), generalized from a SQLite-backed index
// to the JSON-file-per-key layout spec section 4.1 mandates.
package partition

import (
	"fmt"

	"github.com/cloudfs/cloudfs/internal/cache"
	"github.com/cloudfs/cloudfs/internal/index"
	"github.com/cloudfs/cloudfs/internal/model"
	"github.com/cloudfs/cloudfs/internal/storage"
)

// Plain is a direct key->value store with index and cache support, and
// the base every other flavor embeds.
type Plain struct {
	layout *storage.Layout
	idx    *index.Map
	cache  *cache.Cache
	joins  []*joinSpec
	loaded bool

	// getLatest returns the current domain value for a key, the way
	// GetWithJoins needs it. Plain sets this to its own Get; Unitemporal
	// and Bitemporal rebind it to their own latest-version accessor so
	// join resolution sees the same domain value their own Get(k, nil)
	// would return, not the versioned on-disk envelope.
	getLatest func(string) (any, bool)
}

// NewPlain returns a Plain partition rooted at dir, indexing the given
// dotted field paths and caching up to cacheSize latest values.
func NewPlain(dir string, indexPaths []string, cacheSize int) *Plain {
	p := &Plain{
		layout: storage.New(dir),
		idx:    index.New(storage.New(dir).IndexPath(), indexPaths),
		cache:  cache.New(cacheSize),
	}
	p.getLatest = p.Get
	return p
}

// ensure makes sure the directory exists and the index is loaded.
// Idempotent, as every public operation requires (spec section 2).
func (p *Plain) ensure() error {
	if err := p.layout.EnsureDir(); err != nil {
		return err
	}
	if !p.loaded {
		if err := p.idx.Load(); err != nil {
			return err
		}
		p.loaded = true
	}
	return nil
}

// Set writes value for primary key k, refreshing indices and the
// cache (spec section 4.5).
func (p *Plain) Set(k string, value any) error {
	if err := p.ensure(); err != nil {
		return err
	}
	primary := p.idx.Resolve(k)

	var old any
	hadOld, _ := storage.ReadJSON(p.layout.KeyPath(primary), &old)

	if err := storage.WriteJSON(p.layout.KeyPath(primary), value); err != nil {
		return err
	}

	var oldForIndex any
	if hadOld {
		oldForIndex = old
	}
	if err := p.idx.Refresh(primary, oldForIndex, value); err != nil {
		return err
	}

	p.cache.Set(primary, value)
	return nil
}

// Get resolves k through the index map and returns the cached or
// on-disk value, or (nil, false) if no file exists.
func (p *Plain) Get(k string) (any, bool) {
	if err := p.ensure(); err != nil {
		return nil, false
	}
	primary := p.idx.Resolve(k)

	if v, ok := p.cache.Get(primary); ok {
		return v, true
	}

	var v any
	ok, _ := storage.ReadJSON(p.layout.KeyPath(primary), &v)
	if !ok {
		return nil, false
	}
	p.cache.Set(primary, v)
	return v, true
}

// Exists reports whether k resolves to a cached or on-disk record.
func (p *Plain) Exists(k string) bool {
	if err := p.ensure(); err != nil {
		return false
	}
	primary := p.idx.Resolve(k)
	if p.cache.Has(primary) {
		return true
	}
	return p.layout.Exists(primary)
}

// Delete removes k's file, evicts its cache entry and drops any index
// entries derived from its current value. It returns true iff a file
// was actually removed.
func (p *Plain) Delete(k string) (bool, error) {
	if err := p.ensure(); err != nil {
		return false, err
	}
	primary := p.idx.Resolve(k)

	var value any
	hadValue, _ := storage.ReadJSON(p.layout.KeyPath(primary), &value)

	removed, err := storage.Remove(p.layout.KeyPath(primary))
	if err != nil {
		return false, err
	}

	if hadValue {
		if err := p.idx.Remove(primary, value); err != nil {
			return removed, err
		}
	}
	p.cache.Delete(primary)
	return removed, nil
}

// Keys returns every primary key in the partition directory, in
// directory order.
func (p *Plain) Keys() ([]string, error) {
	if err := p.ensure(); err != nil {
		return nil, err
	}
	return p.layout.Keys()
}

// Data returns every key's current value, aggregated via Get (spec
// section 4.1).
func (p *Plain) Data() (map[string]any, error) {
	keys, err := p.Keys()
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		if v, ok := p.getLatest(k); ok {
			out[k] = v
		}
	}
	return out, nil
}

// CreateJoin registers a non-persistent join descriptor against this
// partition (spec section 4.5). rightField may be empty, meaning the
// join resolves via a direct Get on the target partition rather than a
// linear scan.
func (p *Plain) CreateJoin(db Registry, joinName, leftField, rightField string) error {
	spec, err := newJoinSpec(db, joinName, leftField, rightField)
	if err != nil {
		return err
	}
	p.joins = append(p.joins, spec)
	return nil
}

// GetWithJoins fetches k's record and merges in every declared join's
// contribution, overlaying the left record's own fields on top (spec
// section 4.5). It fails with ErrInvalidArgument if no joins are
// registered.
func (p *Plain) GetWithJoins(k string) (any, error) {
	if len(p.joins) == 0 {
		return nil, fmt.Errorf("%w: no joins registered", model.ErrInvalidArgument)
	}

	left, ok := p.getLatest(k)
	if !ok {
		return nil, nil
	}
	leftObj, ok := left.(map[string]any)
	if !ok {
		// A non-object left record has no fields to join on; return it
		// unmodified rather than failing.
		return left, nil
	}

	return resolveJoins(p.joins, leftObj)
}
