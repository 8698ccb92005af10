package fs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteFileAtomic(t *testing.T) {
	t.Run("Creates New File", func(t *testing.T) {
		filename := filepath.Join(t.TempDir(), "index.html")

		if err := writeFileAtomic(filename, []byte("<html></html>"), 0644); err != nil {
			t.Fatalf("writeFileAtomic failed: %v", err)
		}

		got, err := os.ReadFile(filename)
		if err != nil {
			t.Fatalf("Failed to read file: %v", err)
		}
		if string(got) != "<html></html>" {
			t.Errorf("unexpected content %q", got)
		}
	})

	t.Run("Overwrites Existing File", func(t *testing.T) {
		filename := filepath.Join(t.TempDir(), "style.css")
		if err := os.WriteFile(filename, []byte("old"), 0644); err != nil {
			t.Fatalf("Setup failed: %v", err)
		}

		if err := writeFileAtomic(filename, []byte("new"), 0644); err != nil {
			t.Fatalf("writeFileAtomic failed: %v", err)
		}

		got, _ := os.ReadFile(filename)
		if string(got) != "new" {
			t.Errorf("expected 'new', got %q", got)
		}
	})

	t.Run("Leaves No Temp Files", func(t *testing.T) {
		dir := t.TempDir()
		for i := 0; i < 3; i++ {
			if err := writeFileAtomic(filepath.Join(dir, "app.js"), []byte("x"), 0644); err != nil {
				t.Fatal(err)
			}
		}
		entries, _ := os.ReadDir(dir)
		for _, e := range entries {
			if strings.HasPrefix(e.Name(), TempFilePrefix) {
				t.Errorf("temp file left behind: %s", e.Name())
			}
		}
		if len(entries) != 1 {
			t.Errorf("expected 1 file, got %d", len(entries))
		}
	})

	t.Run("Fails if Directory Missing", func(t *testing.T) {
		filename := filepath.Join(t.TempDir(), "missing_folder", "test.txt")
		if err := writeFileAtomic(filename, []byte("fail"), 0644); err == nil {
			t.Error("Expected error when directory is missing, got nil")
		}
	})
}

func TestSnapshotRestore(t *testing.T) {
	dir := t.TempDir()

	t.Run("Restores Previous Content", func(t *testing.T) {
		path := filepath.Join(dir, "index.html")
		if err := os.WriteFile(path, []byte("before"), 0600); err != nil {
			t.Fatal(err)
		}

		snap, err := takeSnapshot(path)
		if err != nil {
			t.Fatalf("takeSnapshot failed: %v", err)
		}
		if err := writeFileAtomic(path, []byte("after"), 0644); err != nil {
			t.Fatal(err)
		}
		if err := snap.restore(); err != nil {
			t.Fatalf("restore failed: %v", err)
		}

		got, _ := os.ReadFile(path)
		if string(got) != "before" {
			t.Errorf("expected 'before', got %q", got)
		}
	})

	t.Run("Removes File That Did Not Exist", func(t *testing.T) {
		path := filepath.Join(dir, "new.js")
		snap, err := takeSnapshot(path)
		if err != nil {
			t.Fatal(err)
		}
		if err := writeFileAtomic(path, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
		if err := snap.restore(); err != nil {
			t.Fatal(err)
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("expected %s to be removed, stat err = %v", path, err)
		}
	})

	t.Run("Refuses Directories", func(t *testing.T) {
		sub := filepath.Join(dir, "sub")
		if err := os.Mkdir(sub, 0755); err != nil {
			t.Fatal(err)
		}
		if _, err := takeSnapshot(sub); err == nil {
			t.Error("expected error for directory")
		}
	})
}
