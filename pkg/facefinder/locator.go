// Package facefinder locates faces with the pure Go pigo cascade classifier.
package facefinder

import (
	"context"
	"fmt"
	"image"
	"os"

	pigo "github.com/esimov/pigo/core"

	"github.com/hugdru/face-square-image/pkg/detection"
	"github.com/hugdru/face-square-image/pkg/types"
)

// Config holds the cascade parameters
type Config struct {
	MinSize        int
	MaxSize        int
	ShiftFactor    float64
	ScaleFactor    float64
	Angle          float64
	IoUThreshold   float64
	ScoreThreshold float32
}

// DefaultConfig returns the parameters used by the pigo face finder examples
func DefaultConfig() Config {
	return Config{
		MinSize:        20,
		MaxSize:        1000,
		ShiftFactor:    0.1,
		ScaleFactor:    1.1,
		Angle:          0.0,
		IoUThreshold:   0.2,
		ScoreThreshold: 5.0,
	}
}

// Locator runs an unpacked pigo cascade over grayscale images
type Locator struct {
	classifier *pigo.Pigo
	config     Config
}

var _ detection.Locator = (*Locator)(nil)

// NewLocator unpacks the cascade file at cascadePath
func NewLocator(cascadePath string, config Config) (*Locator, error) {
	data, err := os.ReadFile(cascadePath)
	if err != nil {
		return nil, fmt.Errorf("error reading the cascade file: %w", err)
	}
	return NewLocatorFromBytes(data, config)
}

// NewLocatorFromBytes unpacks an in-memory cascade
func NewLocatorFromBytes(cascade []byte, config Config) (*Locator, error) {
	// Unpack returns the number of cascade trees, the tree depth, the
	// threshold and the prediction from the tree's leaf nodes.
	classifier, err := pigo.NewPigo().Unpack(cascade)
	if err != nil {
		return nil, fmt.Errorf("error unpacking the cascade file: %w", err)
	}
	return &Locator{classifier: classifier, config: config}, nil
}

// Locate implements detection.Locator
func (l *Locator) Locate(ctx context.Context, gray *image.Gray) ([]types.FaceBox, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b := gray.Bounds()
	cols, rows := b.Dx(), b.Dy()
	if cols == 0 || rows == 0 {
		return nil, nil
	}

	params := pigo.CascadeParams{
		MinSize:     l.config.MinSize,
		MaxSize:     min(l.config.MaxSize, max(cols, rows)),
		ShiftFactor: l.config.ShiftFactor,
		ScaleFactor: l.config.ScaleFactor,

		ImageParams: pigo.ImageParams{
			Pixels: gray.Pix,
			Rows:   rows,
			Cols:   cols,
			Dim:    gray.Stride,
		},
	}

	// The result contains quadruplets of row, column, scale and detection score.
	dets := l.classifier.RunCascade(params, l.config.Angle)
	dets = l.classifier.ClusterDetections(dets, l.config.IoUThreshold)

	return ClipDetections(dets, l.config.ScoreThreshold, b), nil
}

// ClipDetections turns scored detections into face boxes inside bounds,
// dropping detections scoring at or below threshold.
func ClipDetections(dets []pigo.Detection, threshold float32, bounds image.Rectangle) []types.FaceBox {
	boxes := make([]types.FaceBox, 0, len(dets))
	for _, det := range dets {
		if det.Q <= threshold {
			continue
		}
		boxes = append(boxes, types.FaceBox{
			X: det.Col - det.Scale/2,
			Y: det.Row - det.Scale/2,
			W: det.Scale,
			H: det.Scale,
		})
	}
	return detection.ClipBoxes(boxes, bounds)
}
