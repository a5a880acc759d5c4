package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOutputPath(t *testing.T) {
	tests := []struct {
		source    string
		inplace   bool
		outputDir string
		want      string
	}{
		{"photos/a.jpg", true, "", "photos/a.jpg"},
		{"photos/a.jpg", true, "out", "photos/a.jpg"},
		{"photos/a.jpg", false, "out", filepath.Join("out", "a.jpg")},
		{"/abs/path/b.png", false, "/tmp/crops", filepath.Join("/tmp/crops", "b.png")},
	}

	for _, tt := range tests {
		if got := OutputPath(tt.source, tt.inplace, tt.outputDir); got != tt.want {
			t.Errorf("OutputPath(%q, %v, %q) = %q, want %q", tt.source, tt.inplace, tt.outputDir, got, tt.want)
		}
	}
}

func TestDebugPath(t *testing.T) {
	if got := DebugPath(filepath.Join("out", "face.jpg")); got != filepath.Join("out", "face_debug.png") {
		t.Errorf("Unexpected debug path %s", got)
	}
}

func TestIsImageFile(t *testing.T) {
	for _, name := range []string{"a.jpg", "b.JPEG", "c.png", "d.webp", "e.tiff"} {
		if !IsImageFile(name) {
			t.Errorf("%s should be an image file", name)
		}
	}
	for _, name := range []string{"a.txt", "noext", "c.pdf"} {
		if IsImageFile(name) {
			t.Errorf("%s should not be an image file", name)
		}
	}
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")

	if err := EnsureDir(dir); err != nil {
		t.Fatalf("EnsureDir failed: %v", err)
	}
	if !DirExists(dir) {
		t.Error("Directory was not created")
	}
	// Existing directories are fine
	if err := EnsureDir(dir); err != nil {
		t.Errorf("EnsureDir on existing dir failed: %v", err)
	}

	file := filepath.Join(dir, "file")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := EnsureDir(file); err == nil {
		t.Error("Expected error when path is a file")
	}
	if !FileExists(file) || FileExists(dir) {
		t.Error("FileExists mismatch")
	}
	if err := EnsureDir(""); err == nil {
		t.Error("Expected error for empty path")
	}
}
