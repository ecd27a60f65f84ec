package storage

import (
	"path/filepath"
	"testing"

	"warrior_go/internal/domain"
)

func setupTestDB(t *testing.T) *Storage {
	t.Helper()
	s, err := NewStorage(filepath.Join(t.TempDir(), "nested", "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})
	return s
}

func TestSaveAndLoadConfig(t *testing.T) {
	s := setupTestDB(t)

	if err := s.SaveConfig(domain.PrefOrderSize, "150"); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}
	if err := s.SaveConfig(domain.PrefOrderKindIndex, "2"); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	prefs, err := s.LoadConfigMap()
	if err != nil {
		t.Fatalf("LoadConfigMap failed: %v", err)
	}
	if prefs[domain.PrefOrderSize] != "150" {
		t.Errorf("expected order_size 150, got %q", prefs[domain.PrefOrderSize])
	}
	if prefs[domain.PrefOrderKindIndex] != "2" {
		t.Errorf("expected order_kind_index 2, got %q", prefs[domain.PrefOrderKindIndex])
	}
}

func TestSaveConfigOverwrites(t *testing.T) {
	s := setupTestDB(t)
	s.SaveConfig("k", "before")

	if err := s.SaveConfig("k", "after"); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	prefs, _ := s.LoadConfigMap()
	if len(prefs) != 1 || prefs["k"] != "after" {
		t.Errorf("expected single value 'after', got %v", prefs)
	}
}

func TestReopenKeepsValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.db")

	s, err := NewStorage(path)
	if err != nil {
		t.Fatal(err)
	}
	s.SaveConfig(domain.PrefOrderSize, "75")
	s.Close()

	s, err = NewStorage(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	prefs, _ := s.LoadConfigMap()
	if prefs[domain.PrefOrderSize] != "75" {
		t.Errorf("expected persisted 75, got %q", prefs[domain.PrefOrderSize])
	}
}
