package checkpoint

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestMarkAndIsReleased(t *testing.T) {
	cp := New(t.TempDir())

	if cp.IsReleased("core", "1.0.0") {
		t.Error("fresh checkpoint reports a release")
	}

	cp.MarkReleased("core", "1.0.0")
	if !cp.IsReleased("core", "1.0.0") {
		t.Error("marked release not reported")
	}

	// The token is exact: another version of the same package does not
	// count as released.
	if cp.IsReleased("core", "1.0.1") {
		t.Error("different version reported as released")
	}
	if cp.IsReleased("core2", "1.0.0") {
		t.Error("different package reported as released")
	}
}

func TestMarkReleasedIdempotent(t *testing.T) {
	cp := New(t.TempDir())
	cp.MarkReleased("core", "1.0.0")
	cp.MarkReleased("core", "1.0.0")
	if cp.Len() != 1 {
		t.Errorf("Len = %d, want 1", cp.Len())
	}
}

func TestMarkReleasedUpdatesTimestamp(t *testing.T) {
	cp := New(t.TempDir())
	before := cp.LastUpdated()
	time.Sleep(10 * time.Millisecond)
	cp.MarkReleased("core", "1.0.0")
	if !cp.LastUpdated().After(before) {
		t.Error("LastUpdated not advanced by MarkReleased")
	}
}

func TestRoundTrip(t *testing.T) {
	stores := map[string]Store{
		"file": FileStore{},
		"mem":  NewMemStore(),
	}

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			root := t.TempDir()

			cp := New(root)
			cp.MarkReleased("core", "1.0.0")
			cp.MarkReleased("api", "0.2.0")
			if err := cp.Persist(store); err != nil {
				t.Fatalf("Persist: %v", err)
			}

			loaded, err := Load(store, root)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if loaded == nil {
				t.Fatal("Load returned nil for persisted checkpoint")
			}

			if !reflect.DeepEqual(loaded.Released(), cp.Released()) {
				t.Errorf("Released = %v, want %v", loaded.Released(), cp.Released())
			}
			if loaded.Root() != cp.Root() {
				t.Errorf("Root = %q, want %q", loaded.Root(), cp.Root())
			}
		})
	}
}

func TestLoadMissingIsNil(t *testing.T) {
	cp, err := Load(FileStore{}, t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cp != nil {
		t.Errorf("Load = %+v, want nil for missing checkpoint", cp)
	}
}

func TestLoadCorrupt(t *testing.T) {
	root := t.TempDir()
	store := FileStore{}

	path := store.Path(canonicalRoot(root))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("not [valid toml"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(store, root)
	if !errors.Is(err, ErrCorrupt) {
		t.Errorf("error = %v, want ErrCorrupt", err)
	}
}

func TestPersistOverwrites(t *testing.T) {
	root := t.TempDir()
	store := NewMemStore()

	cp := New(root)
	cp.MarkReleased("core", "1.0.0")
	if err := cp.Persist(store); err != nil {
		t.Fatal(err)
	}
	cp.MarkReleased("api", "0.2.0")
	if err := cp.Persist(store); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(store, root)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"api@0.2.0", "core@1.0.0"}
	if !reflect.DeepEqual(loaded.Released(), want) {
		t.Errorf("Released = %v, want %v", loaded.Released(), want)
	}
}

func TestDiscard(t *testing.T) {
	root := t.TempDir()
	store := FileStore{}

	// Discarding a missing checkpoint is a no-op.
	if err := Discard(store, root); err != nil {
		t.Fatalf("Discard (missing): %v", err)
	}

	cp := New(root)
	cp.MarkReleased("core", "1.0.0")
	if err := cp.Persist(store); err != nil {
		t.Fatal(err)
	}

	if err := Discard(store, root); err != nil {
		t.Fatalf("Discard: %v", err)
	}

	loaded, err := Load(store, root)
	if err != nil {
		t.Fatalf("Load after Discard: %v", err)
	}
	if loaded != nil {
		t.Error("checkpoint still present after Discard")
	}
}

func TestFileStoreCreatesDirectories(t *testing.T) {
	// target/ does not exist yet; Write must create it.
	root := t.TempDir()
	store := FileStore{}

	if err := store.Write(root, []byte("released = []\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := os.Stat(store.Path(root)); err != nil {
		t.Errorf("checkpoint file missing: %v", err)
	}
}

func TestCanonicalRootStable(t *testing.T) {
	root := t.TempDir()
	a := canonicalRoot(root)
	b := canonicalRoot(root + string(filepath.Separator))
	if a != b {
		t.Errorf("canonicalRoot unstable: %q vs %q", a, b)
	}
}
