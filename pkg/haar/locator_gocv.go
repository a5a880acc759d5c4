//go:build gocv

package haar

import (
	"context"
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"

	"github.com/hugdru/face-square-image/pkg/detection"
	"github.com/hugdru/face-square-image/pkg/types"
)

// Locator wraps a loaded gocv cascade classifier
type Locator struct {
	config Config
	mu     sync.Mutex
	cls    gocv.CascadeClassifier
}

var _ detection.Locator = (*Locator)(nil)

// NewLocator loads the cascade XML at cascadePath
func NewLocator(cascadePath string, config Config) (*Locator, error) {
	cls := gocv.NewCascadeClassifier()
	if !cls.Load(cascadePath) {
		cls.Close()
		return nil, fmt.Errorf("could not load haar cascade %s", cascadePath)
	}
	return &Locator{config: config, cls: cls}, nil
}

// Close releases the classifier
func (l *Locator) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cls.Close()
}

// Locate implements detection.Locator
func (l *Locator) Locate(ctx context.Context, gray *image.Gray) ([]types.FaceBox, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mat, err := gocv.ImageGrayToMatGray(gray)
	if err != nil {
		return nil, fmt.Errorf("failed to convert image to mat: %w", err)
	}
	defer mat.Close()

	l.mu.Lock()
	rects := l.cls.DetectMultiScaleWithParams(mat, l.config.ScaleFactor, l.config.MinNeighbors, 0,
		image.Pt(l.config.MinSize, l.config.MinSize), image.Pt(l.config.MaxSize, l.config.MaxSize))
	l.mu.Unlock()

	boxes := make([]types.FaceBox, 0, len(rects))
	for _, r := range rects {
		boxes = append(boxes, types.FaceBoxFromRect(r))
	}
	return detection.ClipBoxes(boxes, gray.Bounds()), nil
}
