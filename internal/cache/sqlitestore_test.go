package cache

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/davecgh/go-spew/spew"
)

func TestSQLiteStore_RoundTrip(t *testing.T) {
	s := NewSQLiteStore(filepath.Join(t.TempDir(), "cache.db"))

	if got := s.Load(); len(got) != 0 {
		t.Fatalf("Load on missing db = %v, want empty", got)
	}
	want := sampleSnapshot()
	if err := s.Save(want); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	got := s.Load()
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch\ngot:  %s\nwant: %s", spew.Sdump(got), spew.Sdump(want))
	}

	if err := s.Save(Snapshot{"only": {Digest: "d", Response: "r", CreatedAt: fixedTime}}); err != nil {
		t.Fatalf("second Save error: %v", err)
	}
	if got := s.Load(); len(got) != 1 {
		t.Errorf("Load after replace has %d entries, want 1", len(got))
	}
}

func TestSQLiteStore_CorruptIsEmptyAndRecreated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	garbage := make([]byte, 4096)
	for i := range garbage {
		garbage[i] = byte(i % 251)
	}
	if err := os.WriteFile(path, garbage, 0o644); err != nil {
		t.Fatal(err)
	}
	s := NewSQLiteStore(path)
	if got := s.Load(); len(got) != 0 {
		t.Errorf("Load on corrupt db = %v, want empty", got)
	}
	if err := s.Save(sampleSnapshot()); err != nil {
		t.Fatalf("Save over corrupt db error: %v", err)
	}
	if got := s.Load(); len(got) != 2 {
		t.Errorf("Load after recreate has %d entries, want 2", len(got))
	}
}

func TestSQLiteStore_Clear(t *testing.T) {
	s := NewSQLiteStore(filepath.Join(t.TempDir(), "cache.db"))

	removed, err := s.Clear()
	if err != nil || removed {
		t.Errorf("Clear on missing db = (%v, %v), want (false, nil)", removed, err)
	}
	if err := s.Save(sampleSnapshot()); err != nil {
		t.Fatal(err)
	}
	removed, err = s.Clear()
	if err != nil || !removed {
		t.Errorf("Clear after save = (%v, %v), want (true, nil)", removed, err)
	}
	if _, err := os.Stat(s.Path()); !os.IsNotExist(err) {
		t.Errorf("db file still present: %v", err)
	}
}
