package manifest

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingManifestReturnsEmpty(t *testing.T) {
	dir := t.TempDir()
	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(m) != 0 {
		t.Errorf("expected empty manifest, got %v", m)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	m := Manifest{"/a/b.txt": "deadbeef"}
	if err := Save(dir, m); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if loaded["/a/b.txt"] != "deadbeef" {
		t.Errorf("got %v", loaded)
	}
}

func TestHashFileDeterministic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(path, []byte("content"), 0o644); err != nil {
		t.Fatal(err)
	}
	h1, err := HashFile(path)
	if err != nil {
		t.Fatal(err)
	}
	h2, _ := HashFile(path)
	if h1 != h2 {
		t.Errorf("expected deterministic hash")
	}
}

func TestUnchangedDetectsModification(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	os.WriteFile(path, []byte("v1"), 0o644)
	h, _ := HashFile(path)
	m := Manifest{path: h}
	unchanged, err := m.Unchanged(path)
	if err != nil || !unchanged {
		t.Errorf("expected unchanged, got %v err=%v", unchanged, err)
	}
	os.WriteFile(path, []byte("v2"), 0o644)
	unchanged, err = m.Unchanged(path)
	if err != nil || unchanged {
		t.Errorf("expected changed after modification, got %v", unchanged)
	}
}
