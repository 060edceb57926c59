// Package storage maps (key, optional version) pairs to on-disk file
// paths, lists and classifies directory entries, and provides the
// crash-inspectable JSON codec used by every partition flavor.
//
// Grounded on internal/core/index.go's directory-and-file handling in
// the teacher repo (satvik-A-clouds), adapted from a SQLite index to
// a flat JSON-per-key layout per spec section 4.1.
package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
)

// IndexFileName is the reserved file holding the serialized index map.
// It is never returned by Keys or Data.
const IndexFileName = "__index__.json"

// Layout resolves primary keys to file paths within a single partition
// directory and lists/classifies its entries.
type Layout struct {
	dir string
}

// New returns a Layout rooted at dir. The directory is created lazily
// by EnsureDir, mirroring the teacher's NewIndexManager/NewCacheManager
// convention of creating directories on first use rather than at
// construction time.
func New(dir string) *Layout {
	return &Layout{dir: dir}
}

// Dir returns the partition directory.
func (l *Layout) Dir() string { return l.dir }

// EnsureDir makes sure the partition directory exists. Every public
// partition operation calls this first (spec section 2: "every public
// operation first ensures the partition directory exists").
func (l *Layout) EnsureDir() error {
	return os.MkdirAll(l.dir, 0o700)
}

// KeyPath returns the on-disk path for primary key k.
func (l *Layout) KeyPath(k string) string {
	return filepath.Join(l.dir, k+".json")
}

// IndexPath returns the on-disk path of the index-map snapshot.
func (l *Layout) IndexPath() string {
	return filepath.Join(l.dir, IndexFileName)
}

// Keys returns every primary key present in the partition directory,
// in directory order, with the index file and any non-".json" entries
// excluded. Unknown files are ignored rather than surfaced as errors
// (spec section 4.1).
func (l *Layout) Keys() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if name == IndexFileName {
			continue
		}
		if filepath.Ext(name) != ".json" {
			continue
		}
		names = append(names, name[:len(name)-len(".json")])
	}
	// os.ReadDir already returns entries sorted by filename; sort
	// again defensively since callers depend on a stable order.
	sort.Strings(names)
	return names, nil
}

// Exists reports whether key k has a file on disk.
func (l *Layout) Exists(k string) bool {
	_, err := os.Stat(l.KeyPath(k))
	return err == nil
}

// ReadJSON reads and decodes the file at path into v. A missing or
// malformed file is reported as (false, nil): storage failures on the
// read path are demoted to "absent", never a fatal partition error
// (spec section 4.2).
func ReadJSON(path string, v any) (bool, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, nil
	}
	return true, nil
}

// WriteJSON serializes v as pretty-printed JSON and writes it to path
// via a write-then-rename so a reader never observes a half-written
// file (spec section 5's "no half-written record" guidance). The temp
// file is suffixed with a fresh UUID the way the teacher's
// JournalManager stamps each durable mutation with an operation ID
// before it touches the index.
func WriteJSON(path string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + "." + uuid.NewString() + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// Remove deletes the file at path. It reports whether a file was
// actually removed (false, nil) if none existed, matching the plain
// partition's Delete contract.
func Remove(path string) (bool, error) {
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, nil
	}
	return true, nil
}
