package registry

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/cloudfs/cloudfs/internal/model"
)

func TestGetPartitionByNameNotFound(t *testing.T) {
	r := New(t.TempDir(), -1)
	if _, err := r.GetPartitionByName("missing"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetPartitionByNameAfterRegistration(t *testing.T) {
	r := New(t.TempDir(), -1)
	p := r.GetVersionedPartition("songs", nil, nil)
	if err := p.Set("gravity", map[string]any{"artist": "John Mayer"}, nil); err != nil {
		t.Fatalf("Set: %v", err)
	}

	target, err := r.GetPartitionByName("songs")
	if err != nil {
		t.Fatalf("GetPartitionByName: %v", err)
	}
	// Joins always treat targets as plain (spec section 6): even though
	// "songs" was registered as versioned, the resolved handle reads
	// the on-disk envelope as-is.
	v, ok := target.Get("gravity")
	if !ok {
		t.Fatal("expected key to resolve through the plain handle")
	}
	m, ok := v.(map[string]any)
	if !ok {
		t.Fatalf("expected versioned envelope map, got %T", v)
	}
	if _, has := m["latestVersion"]; !has {
		t.Fatalf("expected versioned envelope shape, got %v", m)
	}
}

func TestStat(t *testing.T) {
	r := New(t.TempDir(), -1)
	p := r.GetPartition("songs", nil, nil)
	if err := p.Set("k1", "v1"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	stats, err := r.Stat("songs")
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if stats.KeyCount != 1 || stats.Versioned {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestBackupProducesReadableTarGz(t *testing.T) {
	base := t.TempDir()
	r := New(base, -1)
	p := r.GetPartition("songs", nil, nil)
	if err := p.Set("k1", "v1"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	outDir := t.TempDir()
	path, err := r.Backup(outDir)
	if err != nil {
		t.Fatalf("Backup: %v", err)
	}
	if filepath.Dir(path) != outDir {
		t.Fatalf("expected backup under %s, got %s", outDir, path)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("gzip.NewReader: %v", err)
	}
	tr := tar.NewReader(gz)

	var sawKeyFile bool
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("tar.Next: %v", err)
		}
		if filepath.Base(hdr.Name) == "k1.json" {
			sawKeyFile = true
		}
	}
	if !sawKeyFile {
		t.Fatal("expected backup archive to contain songs/k1.json")
	}

	// Original data must be untouched by backup.
	if !p.Exists("k1") {
		t.Fatal("expected backup to leave the source partition intact")
	}
}
