package facefinder

import (
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"

	pigo "github.com/esimov/pigo/core"

	"github.com/hugdru/face-square-image/pkg/types"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.MinSize != 20 || cfg.ScaleFactor != 1.1 || cfg.ShiftFactor != 0.1 {
		t.Errorf("Unexpected defaults %+v", cfg)
	}
}

func TestNewLocatorMissingCascade(t *testing.T) {
	if _, err := NewLocator(filepath.Join(t.TempDir(), "facefinder"), DefaultConfig()); err == nil {
		t.Error("Expected error for missing cascade file")
	}
}

func TestClipDetections(t *testing.T) {
	dets := []pigo.Detection{
		{Row: 50, Col: 60, Scale: 40, Q: 12.5},
		{Row: 10, Col: 10, Scale: 40, Q: 8},
		{Row: 80, Col: 80, Scale: 30, Q: 2},
	}

	got := ClipDetections(dets, 5.0, image.Rect(0, 0, 100, 100))

	want := []types.FaceBox{
		{X: 40, Y: 30, W: 40, H: 40},
		{X: 0, Y: 0, W: 30, H: 30},
	}
	if len(got) != len(want) {
		t.Fatalf("Expected %d boxes, got %+v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Box %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestClipDetectionsEmpty(t *testing.T) {
	if got := ClipDetections(nil, 5.0, image.Rect(0, 0, 10, 10)); len(got) != 0 {
		t.Errorf("Expected no boxes, got %+v", got)
	}
}

// testCascade returns the pigo facefinder cascade, from FACEFINDER_CASCADE or
// cascade/facefinder at the module root, skipping the test when neither exists.
func testCascade(t *testing.T) string {
	t.Helper()
	path := os.Getenv("FACEFINDER_CASCADE")
	if path == "" {
		path = filepath.Join("..", "..", "cascade", "facefinder")
	}
	if _, err := os.Stat(path); err != nil {
		t.Skipf("pigo cascade not available at %s (get it from github.com/esimov/pigo/cascade)", path)
	}
	return path
}

func TestLocateBlankImage(t *testing.T) {
	l, err := NewLocator(testCascade(t), DefaultConfig())
	if err != nil {
		t.Fatalf("NewLocator failed: %v", err)
	}

	faces, err := l.Locate(context.Background(), image.NewGray(image.Rect(0, 0, 320, 240)))
	if err != nil {
		t.Fatalf("Locate failed: %v", err)
	}
	if len(faces) != 0 {
		t.Errorf("Expected no faces on a blank image, got %+v", faces)
	}
}

func TestLocateEmptyImage(t *testing.T) {
	l, err := NewLocator(testCascade(t), DefaultConfig())
	if err != nil {
		t.Fatalf("NewLocator failed: %v", err)
	}

	faces, err := l.Locate(context.Background(), image.NewGray(image.Rect(0, 0, 0, 0)))
	if err != nil || len(faces) != 0 {
		t.Errorf("Expected nothing for an empty image, got %+v %v", faces, err)
	}
}

func TestLocateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The context is checked before the classifier is used
	l := &Locator{config: DefaultConfig()}
	if _, err := l.Locate(ctx, image.NewGray(image.Rect(0, 0, 10, 10))); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
