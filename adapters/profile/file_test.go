package profile

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/xuanvuong/mochi/server/domain/entities"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.json")
	store := NewFileStore(path, zap.NewNop())

	saved := &entities.UserProfile{Name: "Minh", GradeLevel: "lớp 8", WakeWord: "mochi ơi"}
	if err := store.Save(saved); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded == nil {
		t.Fatal("Expected a profile, got nil")
	}
	if *loaded != *saved {
		t.Errorf("Round trip mismatch: saved %+v, loaded %+v", saved, loaded)
	}
}

func TestFileStoreMissingFile(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "missing.json"), zap.NewNop())
	profile, err := store.Load()
	if err != nil {
		t.Fatalf("Missing file should not error, got %v", err)
	}
	if profile != nil {
		t.Errorf("Expected nil profile for missing file, got %+v", profile)
	}
}

func TestFileStoreRejectsInvalidProfile(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "profile.json"), zap.NewNop())
	if err := store.Save(&entities.UserProfile{Name: ""}); err == nil {
		t.Error("Invalid profile must not be persisted")
	}
}

func TestFileStoreReplacesRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.json")
	store := NewFileStore(path, zap.NewNop())

	store.Save(&entities.UserProfile{Name: "Minh", GradeLevel: "lớp 8"})
	store.Save(&entities.UserProfile{Name: "Lan", GradeLevel: "lớp 9"})

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Name != "Lan" || loaded.GradeLevel != "lớp 9" {
		t.Errorf("Expected replaced record, got %+v", loaded)
	}
}
