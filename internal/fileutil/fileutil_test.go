package fileutil

// Notes:
// - EnsureDir: tests nested creation and idempotence
// - WriteFileAtomic: tests content, permissions, and overwrite
// - FileExists / IsFilePath: tests classification

import (
	"os"
	"path/filepath"
	"testing"
)

// ---------------------------------------------------------------------------
// TestEnsureDir - Directory Creation
// ---------------------------------------------------------------------------

func TestEnsureDir(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "a", "b", "c")
	if err := EnsureDir(dir); err != nil {
		t.Fatalf("EnsureDir() error: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Fatalf("directory not created: %v", err)
	}

	// Second call is a no-op.
	if err := EnsureDir(dir); err != nil {
		t.Errorf("EnsureDir() on existing dir: %v", err)
	}
}

// ---------------------------------------------------------------------------
// TestWriteFileAtomic - Atomic Writes
// ---------------------------------------------------------------------------

func TestWriteFileAtomic(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.txt")
	if err := WriteFileAtomic(path, []byte("first")); err != nil {
		t.Fatalf("WriteFileAtomic() error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "first" {
		t.Fatalf("content = %q, err = %v", data, err)
	}

	if err := WriteFileAtomic(path, []byte("second")); err != nil {
		t.Fatalf("overwrite error: %v", err)
	}
	data, _ = os.ReadFile(path)
	if string(data) != "second" {
		t.Errorf("overwrite content = %q", data)
	}

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("leftover files: %v", entries)
	}
}

// ---------------------------------------------------------------------------
// TestFileExists / TestIsFilePath - Classification
// ---------------------------------------------------------------------------

func TestFileExists(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	if FileExists(path) {
		t.Error("missing file reported as existing")
	}
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if !FileExists(path) {
		t.Error("existing file not detected")
	}
	if FileExists(dir) {
		t.Error("directory reported as file")
	}
}

func TestIsFilePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected bool
	}{
		{"profile", false},
		{"./custom.yaml", true},
		{"../shared/conf.yaml", true},
		{"/absolute/path.yaml", true},
		{`C:\windows\path.yaml`, true},
		{"my-profile", false},
	}
	for _, tt := range tests {
		if got := IsFilePath(tt.input); got != tt.expected {
			t.Errorf("IsFilePath(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}
