//go:build !gocv

package haar

import (
	"context"
	"image"

	"github.com/hugdru/face-square-image/pkg/detection"
	"github.com/hugdru/face-square-image/pkg/types"
)

// Locator is a placeholder in builds without OpenCV
type Locator struct{}

var _ detection.Locator = (*Locator)(nil)

// NewLocator always fails with ErrUnavailable
func NewLocator(cascadePath string, config Config) (*Locator, error) {
	return nil, ErrUnavailable
}

// Close is a no-op
func (l *Locator) Close() error { return nil }

// Locate always fails with ErrUnavailable
func (l *Locator) Locate(ctx context.Context, gray *image.Gray) ([]types.FaceBox, error) {
	return nil, ErrUnavailable
}
