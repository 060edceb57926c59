package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteReadJSONRoundTrip(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "k1.json")

	type payload struct {
		Name string `json:"name"`
		N    int    `json:"n"`
	}
	in := payload{Name: "gravity", N: 7}

	if err := WriteJSON(path, in); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	var out payload
	ok, err := ReadJSON(path, &out)
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if !ok {
		t.Fatal("expected ok=true")
	}
	if out != in {
		t.Errorf("got %+v, want %+v", out, in)
	}
}

func TestReadJSONMissingFileIsAbsent(t *testing.T) {
	tmp := t.TempDir()
	var v any
	ok, err := ReadJSON(filepath.Join(tmp, "missing.json"), &v)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if ok {
		t.Fatal("expected ok=false for missing file")
	}
}

func TestReadJSONMalformedFileIsAbsent(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("setup: %v", err)
	}

	var v any
	ok, err := ReadJSON(path, &v)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if ok {
		t.Fatal("expected ok=false for malformed file")
	}
}

func TestKeysExcludesIndexFileAndUnknownEntries(t *testing.T) {
	tmp := t.TempDir()
	l := New(tmp)
	if err := l.EnsureDir(); err != nil {
		t.Fatalf("EnsureDir: %v", err)
	}

	for _, name := range []string{"k1.json", "k2.json", IndexFileName} {
		if err := os.WriteFile(filepath.Join(tmp, name), []byte(`{}`), 0o600); err != nil {
			t.Fatalf("setup %s: %v", name, err)
		}
	}
	if err := os.WriteFile(filepath.Join(tmp, "README.md"), []byte("hi"), 0o600); err != nil {
		t.Fatalf("setup readme: %v", err)
	}

	keys, err := l.Keys()
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != 2 || keys[0] != "k1" || keys[1] != "k2" {
		t.Fatalf("unexpected keys: %v", keys)
	}
}

func TestRemoveMissingFileReturnsFalse(t *testing.T) {
	tmp := t.TempDir()
	removed, err := Remove(filepath.Join(tmp, "nope.json"))
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if removed {
		t.Fatal("expected removed=false for missing file")
	}
}
