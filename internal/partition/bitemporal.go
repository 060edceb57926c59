// Bitemporal partition (spec section 4.7): a valid-time milestoned
// store where every Set re-milestones the live timeline so intervals
// stay pairwise non-overlapping.
package partition

import (
	"fmt"

	"github.com/cloudfs/cloudfs/internal/model"
	"github.com/cloudfs/cloudfs/internal/storage"
)

// Bitemporal is a key->slice-list store carrying both valid-time
// ([ValidFrom, ValidTo)) and transaction-time (CreatedAt/DeletedAt)
// metadata per slice.
type Bitemporal struct {
	*Plain
}

// NewBitemporal returns a Bitemporal partition rooted at dir.
func NewBitemporal(dir string, indexPaths []string, cacheSize int) *Bitemporal {
	b := &Bitemporal{Plain: NewPlain(dir, indexPaths, cacheSize)}
	b.getLatest = func(k string) (any, bool) { return b.Get(k, nil) }
	return b
}

func (b *Bitemporal) readRecord(primary string) (*model.BitemporalRecord, bool) {
	var r model.BitemporalRecord
	ok, _ := storage.ReadJSON(b.layout.KeyPath(primary), &r)
	if !ok || len(r.Data) == 0 {
		return nil, false
	}
	return &r, true
}

// ltOpen reports whether a < bInf, treating bInf == InfinityTime as
// +Inf.
func ltOpen(a, bInf int64) bool {
	if bInf == model.InfinityTime {
		return true
	}
	return a < bInf
}

// Set assigns value to the interval [validFrom, validTo) for key k,
// re-milestoning any live slices the new interval overlaps (spec
// section 4.7). A nil validFrom defaults to now(); a nil validTo
// defaults to open-ended. Returns ErrInvalidInterval if the requested
// interval is empty.
func (b *Bitemporal) Set(k string, value any, validFrom, validTo *int64, metadata map[string]string) error {
	var nvf int64
	if validFrom != nil {
		nvf = *validFrom
	} else {
		nvf = now()
	}
	nvt := model.InfinityTime
	if validTo != nil {
		nvt = *validTo
	}
	if nvt != model.InfinityTime && nvt <= nvf {
		return fmt.Errorf("%w: validTo (%d) <= validFrom (%d)", model.ErrInvalidInterval, nvt, nvf)
	}

	if err := b.ensure(); err != nil {
		return err
	}
	primary := b.idx.Resolve(k)

	r, had := b.readRecord(primary)
	t := now()

	if !had {
		r = &model.BitemporalRecord{Data: []*model.Slice{
			{Data: value, CreatedAt: t, DeletedAt: model.InfinityTime, ValidFrom: nvf, ValidTo: nvt, Metadata: metadata},
		}}
		if err := storage.WriteJSON(b.layout.KeyPath(primary), r); err != nil {
			return err
		}
		return b.idx.Refresh(primary, nil, value)
	}

	var before, after *model.Slice
	for _, s := range r.Data {
		if !s.IsLive() {
			continue
		}
		switch {
		case nvf <= s.ValidFrom:
			// Starting within (or exactly at the start of) the new
			// interval: fully superseded. Checked ahead of the
			// "enclosing" case below so that nvf == s.ValidFrom never
			// manufactures a zero-width before-remilestone slice.
			s.DeletedAt = t
			if nvt != model.InfinityTime && s.ValidFrom < nvt && ltOpen(nvt, s.ValidTo) {
				after = s
			}
		case s.ValidFrom <= nvf && ltOpen(nvf, s.ValidTo):
			// Enclosing: nvf lands strictly inside s. s becomes the
			// predecessor, truncated to end where the new interval
			// begins.
			before = s
			s.DeletedAt = t
		}
	}

	oldValue := latestBitemporalValue(r)

	if before != nil {
		r.Data = append(r.Data, &model.Slice{
			Data: before.Data, CreatedAt: before.CreatedAt, DeletedAt: model.InfinityTime,
			ValidFrom: before.ValidFrom, ValidTo: nvf, Metadata: before.Metadata,
		})
	}
	r.Data = append(r.Data, &model.Slice{
		Data: value, CreatedAt: t, DeletedAt: model.InfinityTime, ValidFrom: nvf, ValidTo: nvt, Metadata: metadata,
	})
	if after != nil {
		r.Data = append(r.Data, &model.Slice{
			Data: after.Data, CreatedAt: after.CreatedAt, DeletedAt: model.InfinityTime,
			ValidFrom: nvt, ValidTo: after.ValidTo, Metadata: after.Metadata,
		})
	}

	if err := storage.WriteJSON(b.layout.KeyPath(primary), r); err != nil {
		return err
	}
	return b.idx.Refresh(primary, oldValue, value)
}

// latestBitemporalValue returns the value most recently written (the
// slice with the highest CreatedAt), used to re-derive indices on
// Delete and as the "old value" input to idx.Refresh. Indices are
// derived only from this current "now" value — historical slices are
// never indexed (spec section 4.7).
func latestBitemporalValue(r *model.BitemporalRecord) any {
	var latest *model.Slice
	for _, s := range r.Data {
		if latest == nil || s.CreatedAt > latest.CreatedAt {
			latest = s
		}
	}
	if latest == nil {
		return nil
	}
	return latest.Data
}

// selectLive returns the unique live slice whose interval contains t,
// or nil.
func selectLive(r *model.BitemporalRecord, t int64) *model.Slice {
	for _, s := range r.Data {
		if s.IsLive() && s.Contains(t) {
			return s
		}
	}
	return nil
}

// Get returns the value live at validAsOf (now() if nil). Cache may
// only be used when validAsOf is omitted (spec section 4.7).
func (b *Bitemporal) Get(k string, validAsOf *int64) (any, bool) {
	if err := b.ensure(); err != nil {
		return nil, false
	}
	primary := b.idx.Resolve(k)

	if validAsOf == nil {
		if v, ok := b.cache.Get(primary); ok {
			return v, true
		}
		r, ok := b.readRecord(primary)
		if !ok {
			return nil, false
		}
		s := selectLive(r, now())
		if s == nil {
			return nil, false
		}
		b.cache.Set(primary, s.Data)
		return s.Data, true
	}

	r, ok := b.readRecord(primary)
	if !ok {
		return nil, false
	}
	s := selectLive(r, *validAsOf)
	if s == nil {
		return nil, false
	}
	return s.Data, true
}

// GetVersion returns the full live slice at validAsOf (now() if nil).
func (b *Bitemporal) GetVersion(k string, validAsOf *int64) (*model.Slice, bool) {
	if err := b.ensure(); err != nil {
		return nil, false
	}
	primary := b.idx.Resolve(k)

	r, ok := b.readRecord(primary)
	if !ok {
		return nil, false
	}
	t := now()
	if validAsOf != nil {
		t = *validAsOf
	}
	s := selectLive(r, t)
	if s == nil {
		return nil, false
	}
	return s, true
}

// GetAllVersions returns every slice, live and superseded, in
// insertion order.
func (b *Bitemporal) GetAllVersions(k string) ([]*model.Slice, bool) {
	if err := b.ensure(); err != nil {
		return nil, false
	}
	primary := b.idx.Resolve(k)
	r, ok := b.readRecord(primary)
	if !ok {
		return nil, false
	}
	return r.Data, true
}

// Delete removes k's entire slice list, evicting the cache entry and
// dropping index entries derived from the current "now" value.
func (b *Bitemporal) Delete(k string) (bool, error) {
	if err := b.ensure(); err != nil {
		return false, err
	}
	primary := b.idx.Resolve(k)

	r, had := b.readRecord(primary)

	removed, err := storage.Remove(b.layout.KeyPath(primary))
	if err != nil {
		return false, err
	}

	if had {
		if err := b.idx.Remove(primary, latestBitemporalValue(r)); err != nil {
			return removed, err
		}
	}
	b.cache.Delete(primary)
	return removed, nil
}
