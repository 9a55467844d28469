package scratch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
)

// createFile writes a scratch file with the given age.
func createFile(t *testing.T, dir, prefix, ext string, age time.Duration) string {
	t.Helper()
	name := prefix + "-" + uuid.NewString() + ext
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("data"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	mtime := time.Now().Add(-age)
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("Chtimes() error = %v", err)
	}
	return name
}

func TestParseName(t *testing.T) {
	tests := []struct {
		name       string
		wantPrefix string
		wantOK     bool
	}{
		{"app-0b9f5c0e-3f0a-4c57-9a55-0c3d6f5b1f7e.apk", "app", true},
		{"MaaResource-0b9f5c0e-3f0a-4c57-9a55-0c3d6f5b1f7e.zip", "MaaResource", true},
		{"my-app-0b9f5c0e-3f0a-4c57-9a55-0c3d6f5b1f7e", "my-app", true},
		{"app.apk", "", false},
		{"app-not-a-uuid-at-all-xxxxxxxxxxxxxxxxxxxx.apk", "", false},
		{"notes.txt", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prefix, ok := ParseName(tt.name)
			if ok != tt.wantOK || prefix != tt.wantPrefix {
				t.Errorf("ParseName(%q) = (%q, %v), want (%q, %v)", tt.name, prefix, ok, tt.wantPrefix, tt.wantOK)
			}
		})
	}
}

func TestManager_ListEmpty(t *testing.T) {
	manager := NewManager(filepath.Join(t.TempDir(), "missing"))
	entries, err := manager.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("List() = %v, want empty", entries)
	}
}

func TestManager_ListNewestFirst(t *testing.T) {
	tmpDir := t.TempDir()
	old := createFile(t, tmpDir, "app", ".apk", 2*time.Hour)
	recent := createFile(t, tmpDir, "app", ".apk", time.Minute)
	if err := os.WriteFile(filepath.Join(tmpDir, "README"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	entries, err := NewManager(tmpDir).List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("List() returned %d entries, want 2", len(entries))
	}
	if entries[0].Name != recent || entries[1].Name != old {
		t.Errorf("List() order = [%s %s], want [%s %s]", entries[0].Name, entries[1].Name, recent, old)
	}
	if entries[0].Prefix != "app" || entries[0].Size != 4 {
		t.Errorf("List()[0] = %+v", entries[0])
	}
}

func TestManager_Delete(t *testing.T) {
	tmpDir := t.TempDir()
	name := createFile(t, tmpDir, "app", ".apk", 0)
	manager := NewManager(tmpDir)

	if err := manager.Delete(name); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := manager.Delete(name); err == nil {
		t.Error("Delete() of missing file should fail")
	}
	if err := manager.Delete("../escape"); err == nil {
		t.Error("Delete() should reject path separators")
	}
}

func TestManager_Prune(t *testing.T) {
	tmpDir := t.TempDir()
	for i := 0; i < 4; i++ {
		createFile(t, tmpDir, "app", ".apk", time.Duration(i+1)*time.Hour)
	}
	keptResource := createFile(t, tmpDir, "MaaResource", ".zip", 5*time.Hour)
	manager := NewManager(tmpDir)

	result, err := manager.Prune(2)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if result.Kept != 3 {
		t.Errorf("Prune() Kept = %v, want 3", result.Kept)
	}
	if len(result.Deleted) != 2 {
		t.Errorf("Prune() Deleted count = %v, want 2", len(result.Deleted))
	}

	entries, err := manager.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("List() after prune = %v, want 3", len(entries))
	}
	if _, err := os.Stat(filepath.Join(tmpDir, keptResource)); err != nil {
		t.Errorf("resource download should be kept: %v", err)
	}
}

func TestManager_PruneZero(t *testing.T) {
	tmpDir := t.TempDir()
	createFile(t, tmpDir, "app", ".apk", 0)
	result, err := NewManager(tmpDir).Prune(0)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if result.Kept != 0 || len(result.Deleted) != 1 {
		t.Errorf("Prune(0) = %+v, want everything deleted", result)
	}
}

func TestManager_PruneNegative(t *testing.T) {
	if _, err := NewManager(t.TempDir()).Prune(-1); err == nil {
		t.Error("Prune(-1) should fail")
	}
}

func TestDefaultDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/cache")
	dir, err := DefaultDir()
	if err != nil {
		t.Fatalf("DefaultDir() error = %v", err)
	}
	if dir != "/tmp/cache/updsync/scratch" {
		t.Errorf("DefaultDir() = %s", dir)
	}
}
