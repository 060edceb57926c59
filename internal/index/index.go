// Package index implements the persistent alternative-key -> primary-key
// map each partition maintains (spec section 4.4), and the dotted
// field-path extraction used to derive alternative keys from records.
//
// Grounded on internal/core/index.go's IndexManager in the teacher
// repo: the same "read on open, rewrite the whole snapshot on every
// mutation" discipline, adapted from a SQLite table to a flat
// __index__.json file per spec section 4.1.
package index

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/cloudfs/cloudfs/internal/storage"
)

// Map is the in-memory, disk-backed alternative-key -> primary-key
// index for one partition.
type Map struct {
	mu     sync.RWMutex
	path   string
	byAlt  map[string]string
	paths  [][]string
}

// New returns an index Map backed by the file at path, extracting
// alternative keys via the given dotted field paths (e.g. "a.b.c").
// The map starts empty; call Load to populate it from disk.
func New(path string, fieldPaths []string) *Map {
	m := &Map{
		path:  path,
		byAlt: make(map[string]string),
	}
	for _, p := range fieldPaths {
		if p == "" {
			continue
		}
		m.paths = append(m.paths, strings.Split(p, "."))
	}
	return m
}

// HasFields reports whether this map was declared with any field
// paths at all. Partitions with no index paths skip extraction.
func (m *Map) HasFields() bool {
	return len(m.paths) > 0
}

// Load reads the index snapshot from disk. A missing or malformed file
// leaves the in-memory map empty rather than failing (spec section
// 4.4).
func (m *Map) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var onDisk map[string]string
	ok, _ := storage.ReadJSON(m.path, &onDisk)
	if !ok || onDisk == nil {
		m.byAlt = make(map[string]string)
		return nil
	}
	m.byAlt = onDisk
	return nil
}

// Resolve returns the primary key that lookup resolves to: lookup
// itself if it is not a known alternative key, or the primary key it
// aliases otherwise.
func (m *Map) Resolve(lookup string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if primary, ok := m.byAlt[lookup]; ok {
		return primary
	}
	return lookup
}

// Extract walks v through each declared field path and returns the
// string-coerced leaf values found, skipping any path whose value is
// absent at any intermediate step.
func (m *Map) Extract(v any) []string {
	if v == nil {
		return nil
	}
	out := make([]string, 0, len(m.paths))
	for _, p := range m.paths {
		if s, ok := extractOne(v, p); ok {
			out = append(out, s)
		}
	}
	return out
}

func extractOne(v any, path []string) (string, bool) {
	cur := v
	for _, seg := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return "", false
		}
		next, present := obj[seg]
		if !present {
			return "", false
		}
		cur = next
	}
	return coerceString(cur)
}

// coerceString renders a JSON leaf value as its "natural string form"
// per spec section 4.4. A nil leaf (explicit JSON null) is absent.
func coerceString(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case bool:
		return strconv.FormatBool(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	default:
		return fmt.Sprintf("%v", t), true
	}
}

// Refresh applies the index-writer flow from spec section 4.4 for a
// single Set(primaryKey, newValue): remove entries derived from
// oldValue (if it existed), add entries derived from newValue, then
// flush the whole map to disk. oldValue may be nil if the key did not
// previously exist.
func (m *Map) Refresh(primaryKey string, oldValue, newValue any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if oldValue != nil {
		for _, alt := range m.Extract(oldValue) {
			if m.byAlt[alt] == primaryKey {
				delete(m.byAlt, alt)
			}
		}
	}
	for _, alt := range m.Extract(newValue) {
		m.byAlt[alt] = primaryKey
	}
	return m.flushLocked()
}

// Remove deletes all index entries derived from value that point at
// primaryKey, then flushes the map to disk. Used by Delete.
func (m *Map) Remove(primaryKey string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, alt := range m.Extract(value) {
		if m.byAlt[alt] == primaryKey {
			delete(m.byAlt, alt)
		}
	}
	return m.flushLocked()
}

func (m *Map) flushLocked() error {
	return storage.WriteJSON(m.path, m.byAlt)
}
