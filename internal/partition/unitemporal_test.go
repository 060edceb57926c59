package partition

import "testing"

func intp(i int) *int { return &i }

// S3: unitemporal versions.
func TestScenarioS3UnitemporalVersions(t *testing.T) {
	u := NewUnitemporal(t.TempDir(), nil, 10)

	mustUSet(t, u, "gravity", "v1", nil)
	mustUSet(t, u, "gravity", "v2", nil)
	mustUSet(t, u, "delicate", "v1", nil)

	all, ok := u.GetAllVersions("gravity")
	if !ok || len(all) != 2 {
		t.Fatalf("GetAllVersions(gravity) = (%v, %v), want 2 versions", all, ok)
	}

	v1, ok := u.Get("gravity", intp(1))
	if !ok || v1 != "v1" {
		t.Fatalf("Get(gravity, 1) = (%v, %v), want (v1, true)", v1, ok)
	}

	if _, ok := u.Get("gravity", intp(46)); ok {
		t.Fatal("expected Get(gravity, 46) to be absent")
	}
}

// S4: unitemporal delete.
func TestScenarioS4UnitemporalDelete(t *testing.T) {
	u := NewUnitemporal(t.TempDir(), nil, 10)
	mustUSet(t, u, "gravity", "v1", nil)
	mustUSet(t, u, "gravity", "v2", nil)

	removed, err := u.Delete("gravity")
	if err != nil || !removed {
		t.Fatalf("Delete(gravity) = (%v, %v)", removed, err)
	}

	if _, ok := u.GetAllVersions("gravity"); ok {
		t.Fatal("expected GetAllVersions(gravity) to be absent after delete")
	}
	if _, ok := u.Get("gravity", intp(1)); ok {
		t.Fatal("expected Get(gravity, 1) to be absent after delete")
	}

	removedAgain, err := u.Delete("gravity")
	if err != nil {
		t.Fatalf("second Delete: %v", err)
	}
	if removedAgain {
		t.Fatal("expected second Delete to be a no-op returning false")
	}
}

// Testable property 4: unitemporal monotonicity.
func TestUnitemporalMonotonicity(t *testing.T) {
	u := NewUnitemporal(t.TempDir(), nil, 10)
	const n = 5
	for i := 0; i < n; i++ {
		mustUSet(t, u, "k", i, nil)
	}

	all, ok := u.GetAllVersions("k")
	if !ok {
		t.Fatal("expected key to exist")
	}
	if len(all) != n {
		t.Fatalf("latestVersion = %d, want %d", len(all), n)
	}
	for i := 0; i < n-1; i++ {
		if all[i].DeletedAt != all[i+1].CreatedAt {
			t.Fatalf("slot %d.DeletedAt = %d, want %d (slot %d.CreatedAt)", i+1, all[i].DeletedAt, all[i+1].CreatedAt, i+2)
		}
	}
	if all[n-1].DeletedAt != -1 {
		t.Fatalf("latest slot DeletedAt = %d, want -1", all[n-1].DeletedAt)
	}
}

// Testable property 5: immutability of history across further writes.
func TestUnitemporalHistoryImmutable(t *testing.T) {
	u := NewUnitemporal(t.TempDir(), nil, 10)
	for i := 1; i <= 3; i++ {
		mustUSet(t, u, "k", i, nil)
	}
	for i := 4; i <= 6; i++ {
		mustUSet(t, u, "k", 100+i, nil)
	}

	// Versioned reads decode from JSON, so numbers come back as float64.
	for i := 1; i <= 3; i++ {
		v, ok := u.Get("k", intp(i))
		if !ok || v != float64(i) {
			t.Fatalf("Get(k, %d) = (%v, %v), want (%d, true)", i, v, ok, i)
		}
	}
}

func TestUnitemporalIndexReassignment(t *testing.T) {
	u := NewUnitemporal(t.TempDir(), []string{"artist"}, 10)
	mustUSet(t, u, "gravity", map[string]any{"artist": "John Mayer"}, nil)

	if _, ok := u.Get("John Mayer", nil); !ok {
		t.Fatal("expected alt key to resolve after first set")
	}

	mustUSet(t, u, "gravity", map[string]any{"artist": "John Mayerz"}, nil)
	if _, ok := u.Get("John Mayer", nil); ok {
		t.Fatal("expected stale alt key to be absent")
	}
	if _, ok := u.Get("John Mayerz", nil); !ok {
		t.Fatal("expected new alt key to resolve")
	}
}

func mustUSet(t *testing.T, u *Unitemporal, k string, v any, md map[string]string) {
	t.Helper()
	if err := u.Set(k, v, md); err != nil {
		t.Fatalf("Set(%s): %v", k, err)
	}
}
