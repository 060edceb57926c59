// Package model defines the record and value types shared by every
// partition flavor in the engine.
package model

import "errors"

// InfinityTime is the sentinel used for open-ended deletedAt/validTo
// fields. Real timestamps are epoch milliseconds and always >= 0.
const InfinityTime int64 = -1

// Sentinel errors raised at the boundary (spec section 7). Everything
// else — missing files, malformed JSON, absent keys — is demoted to a
// nil/ok=false result rather than propagated as an error.
var (
	// ErrInvalidArgument is raised by CreateJoin when a required
	// argument is empty, and by GetWithJoins when no joins are
	// registered on the partition.
	ErrInvalidArgument = errors.New("partitiondb: invalid argument")

	// ErrInvalidInterval is raised by the bitemporal Set when the
	// supplied valid-time interval is empty (validTo <= validFrom).
	ErrInvalidInterval = errors.New("partitiondb: invalid valid-time interval")

	// ErrNotFound is raised by the registry's GetPartitionByName when
	// the requested partition name was never registered.
	ErrNotFound = errors.New("partitiondb: not found")
)

// Value is an opaque JSON-serializable payload. Partitions never
// inspect its shape except through declared index field paths.
type Value = any

// VersionSlot is one entry in a unitemporal record's timeline.
type VersionSlot struct {
	Data      Value             `json:"data"`
	Version   int               `json:"version"`
	CreatedAt int64             `json:"createdAt"`
	DeletedAt int64             `json:"deletedAt"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// UnitemporalRecord is the on-disk shape of a unitemporal key: a
// contiguous, 1-indexed version timeline plus the number of the
// latest version.
type UnitemporalRecord struct {
	LatestVersion int                 `json:"latestVersion"`
	Data          map[int]*VersionSlot `json:"data"`
}

// Slice is one element of a bitemporal record: the VersionSlot fields
// other than Version, plus a valid-time interval [ValidFrom, ValidTo).
type Slice struct {
	Data      Value             `json:"data"`
	CreatedAt int64             `json:"createdAt"`
	DeletedAt int64             `json:"deletedAt"`
	ValidFrom int64             `json:"validFrom"`
	ValidTo   int64             `json:"validTo"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// IsLive reports whether the slice has not been superseded.
func (s *Slice) IsLive() bool { return s.DeletedAt == InfinityTime }

// Contains reports whether the half-open interval [ValidFrom, ValidTo)
// contains instant t, treating ValidTo == InfinityTime as +Inf.
func (s *Slice) Contains(t int64) bool {
	if t < s.ValidFrom {
		return false
	}
	if s.ValidTo == InfinityTime {
		return true
	}
	return t < s.ValidTo
}

// BitemporalRecord is the on-disk shape of a bitemporal key: an
// append-only list of slices, live and superseded alike, in insertion
// order.
type BitemporalRecord struct {
	Data []*Slice `json:"data"`
}
