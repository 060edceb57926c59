// Unitemporal partition (spec section 4.6): shares the plain surface
// (Exists, Keys, Data, CreateJoin, GetWithJoins) but overrides writes
// and reads to maintain an append-only version timeline per key.
package partition

import (
	"github.com/cloudfs/cloudfs/internal/model"
	"github.com/cloudfs/cloudfs/internal/storage"
)

// Unitemporal is a versioned store: every Set appends a new immutable
// version to the key's timeline instead of overwriting in place.
type Unitemporal struct {
	*Plain
}

// NewUnitemporal returns a Unitemporal partition rooted at dir.
func NewUnitemporal(dir string, indexPaths []string, cacheSize int) *Unitemporal {
	u := &Unitemporal{Plain: NewPlain(dir, indexPaths, cacheSize)}
	u.getLatest = func(k string) (any, bool) { return u.Get(k, nil) }
	return u
}

func (u *Unitemporal) readRecord(primary string) (*model.UnitemporalRecord, bool) {
	var r model.UnitemporalRecord
	ok, _ := storage.ReadJSON(u.layout.KeyPath(primary), &r)
	if !ok || r.Data == nil {
		return nil, false
	}
	return &r, true
}

// latestValue returns the value of the record's current (highest,
// non-deleted) version slot.
func latestValue(r *model.UnitemporalRecord) any {
	slot, ok := r.Data[r.LatestVersion]
	if !ok {
		return nil
	}
	return slot.Data
}

// Set appends a new version for k, closing the previous version's
// timeline slot and refreshing indices/cache from the new value (spec
// section 4.6).
func (u *Unitemporal) Set(k string, value any, metadata map[string]string) error {
	if err := u.ensure(); err != nil {
		return err
	}
	primary := u.idx.Resolve(k)

	r, had := u.readRecord(primary)

	var oldValue any
	if had {
		oldValue = latestValue(r)
	} else {
		r = &model.UnitemporalRecord{Data: map[int]*model.VersionSlot{}}
	}

	t := now()
	r.LatestVersion++
	if r.LatestVersion != 1 {
		if prev, ok := r.Data[r.LatestVersion-1]; ok {
			prev.DeletedAt = t
		}
	}
	r.Data[r.LatestVersion] = &model.VersionSlot{
		Data:      value,
		Version:   r.LatestVersion,
		CreatedAt: t,
		DeletedAt: model.InfinityTime,
		Metadata:  metadata,
	}

	if err := storage.WriteJSON(u.layout.KeyPath(primary), r); err != nil {
		return err
	}

	if err := u.idx.Refresh(primary, oldValue, value); err != nil {
		return err
	}

	u.cache.Set(primary, value)
	return nil
}

// Get returns the value at the given version, or the cached/on-disk
// latest value if version is nil. Non-latest reads never touch the
// cache (spec section 4.6).
func (u *Unitemporal) Get(k string, version *int) (any, bool) {
	if err := u.ensure(); err != nil {
		return nil, false
	}
	primary := u.idx.Resolve(k)

	if version == nil {
		if v, ok := u.cache.Get(primary); ok {
			return v, true
		}
		r, ok := u.readRecord(primary)
		if !ok {
			return nil, false
		}
		v := latestValue(r)
		u.cache.Set(primary, v)
		return v, true
	}

	r, ok := u.readRecord(primary)
	if !ok {
		return nil, false
	}
	slot, ok := r.Data[*version]
	if !ok {
		return nil, false
	}
	return slot.Data, true
}

// GetVersion returns the full slot (with audit fields) at the given
// version, or the current slot if version is nil.
func (u *Unitemporal) GetVersion(k string, version *int) (*model.VersionSlot, bool) {
	if err := u.ensure(); err != nil {
		return nil, false
	}
	primary := u.idx.Resolve(k)

	r, ok := u.readRecord(primary)
	if !ok {
		return nil, false
	}
	v := r.LatestVersion
	if version != nil {
		v = *version
	}
	slot, ok := r.Data[v]
	if !ok {
		return nil, false
	}
	return slot, true
}

// GetAllVersions returns every slot for k in increasing version order,
// or (nil, false) if the key does not exist.
func (u *Unitemporal) GetAllVersions(k string) ([]*model.VersionSlot, bool) {
	if err := u.ensure(); err != nil {
		return nil, false
	}
	primary := u.idx.Resolve(k)

	r, ok := u.readRecord(primary)
	if !ok {
		return nil, false
	}
	out := make([]*model.VersionSlot, 0, r.LatestVersion)
	for i := 1; i <= r.LatestVersion; i++ {
		if slot, ok := r.Data[i]; ok {
			out = append(out, slot)
		}
	}
	return out, true
}

// Delete removes k's entire version timeline, evicting the cache entry
// and dropping index entries derived from the current latest value. A
// second Delete on an already-removed key is a no-op (returns false).
func (u *Unitemporal) Delete(k string) (bool, error) {
	if err := u.ensure(); err != nil {
		return false, err
	}
	primary := u.idx.Resolve(k)

	r, had := u.readRecord(primary)

	removed, err := storage.Remove(u.layout.KeyPath(primary))
	if err != nil {
		return false, err
	}

	if had {
		if err := u.idx.Remove(primary, latestValue(r)); err != nil {
			return removed, err
		}
	}
	u.cache.Delete(primary)
	return removed, nil
}
