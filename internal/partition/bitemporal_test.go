package partition

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudfs/cloudfs/internal/model"
)

func i64p(v int64) *int64 { return &v }

// S5: bitemporal closed interval.
func TestScenarioS5BitemporalClosedInterval(t *testing.T) {
	b := NewBitemporal(t.TempDir(), nil, 10)

	err := b.Set("ocean", "X", i64p(1), i64p(500), nil)
	require.NoError(t, err)

	v, ok := b.Get("ocean", i64p(250))
	require.True(t, ok)
	assert.Equal(t, "X", v)

	_, ok = b.Get("ocean", i64p(0))
	assert.False(t, ok)

	_, ok = b.Get("ocean", i64p(2000))
	assert.False(t, ok)

	err = b.Set("ocean2", "Y", i64p(50), i64p(25), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInvalidInterval))
}

// S6: bitemporal remilestoning.
func TestScenarioS6BitemporalRemilestoning(t *testing.T) {
	b := NewBitemporal(t.TempDir(), nil, 10)

	require.NoError(t, b.Set("ocean", "X", i64p(1), i64p(500), nil))
	require.NoError(t, b.Set("ocean", "Y", i64p(500), i64p(7895), nil))
	require.NoError(t, b.Set("ocean", "Z", i64p(7895), nil, nil))

	all, ok := b.GetAllVersions("ocean")
	require.True(t, ok)

	live := liveIntervals(all)
	assert.Equal(t, map[[2]int64]string{
		{1, 500}:              "X",
		{500, 7895}:           "Y",
		{7895, model.InfinityTime}: "Z",
	}, live)

	assertNoOverlap(t, all)

	v, ok := b.Get("ocean", i64p(7895))
	require.True(t, ok)
	assert.Equal(t, "Z", v)
}

// Testable property 6: no two live intervals overlap. A write whose
// interval lands strictly inside an existing one only produces a
// before-remilestone fragment (spec section 4.7 step 4, and the
// interleave-strategy decision recorded under Open Questions): the
// portion of the original interval beyond the new interval's validTo
// is superseded without a matching after-remilestone slice, since no
// *other* live slice satisfies the "starting within" condition here.
func TestBitemporalNonOverlapAfterSplit(t *testing.T) {
	b := NewBitemporal(t.TempDir(), nil, 10)

	require.NoError(t, b.Set("k", "A", i64p(0), i64p(1000), nil))
	require.NoError(t, b.Set("k", "B", i64p(200), i64p(300), nil))

	all, ok := b.GetAllVersions("k")
	require.True(t, ok)
	assertNoOverlap(t, all)

	live := liveIntervals(all)
	assert.Equal(t, map[[2]int64]string{
		{0, 200}:   "A",
		{200, 300}: "B",
	}, live)
}

// Testable property 7: point-in-time lookup returns the unique
// containing live slice, or absent.
func TestBitemporalPointInTime(t *testing.T) {
	b := NewBitemporal(t.TempDir(), nil, 10)
	require.NoError(t, b.Set("k", "A", i64p(0), i64p(100), nil))

	v, ok := b.Get("k", i64p(50))
	require.True(t, ok)
	assert.Equal(t, "A", v)

	_, ok = b.Get("k", i64p(100))
	assert.False(t, ok)
}

func liveIntervals(slices []*model.Slice) map[[2]int64]string {
	out := make(map[[2]int64]string)
	for _, s := range slices {
		if s.IsLive() {
			out[[2]int64{s.ValidFrom, s.ValidTo}] = s.Data.(string)
		}
	}
	return out
}

func assertNoOverlap(t *testing.T, slices []*model.Slice) {
	t.Helper()
	var live []*model.Slice
	for _, s := range slices {
		if s.IsLive() {
			live = append(live, s)
		}
	}
	for i := 0; i < len(live); i++ {
		for j := i + 1; j < len(live); j++ {
			a, b := live[i], live[j]
			if intervalsOverlap(a, b) {
				t.Fatalf("live intervals overlap: [%d,%d) and [%d,%d)", a.ValidFrom, a.ValidTo, b.ValidFrom, b.ValidTo)
			}
		}
	}
}

func intervalsOverlap(a, b *model.Slice) bool {
	aEnd := a.ValidTo
	bEnd := b.ValidTo
	aOpen := aEnd == model.InfinityTime
	bOpen := bEnd == model.InfinityTime
	if !aOpen && b.ValidFrom >= aEnd {
		return false
	}
	if !bOpen && a.ValidFrom >= bEnd {
		return false
	}
	return true
}
