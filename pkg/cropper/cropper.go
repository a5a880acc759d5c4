package cropper

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/hugdru/face-square-image/pkg/types"
)

// ErrInvalidPadding is matched by every InvalidPaddingError
var ErrInvalidPadding = errors.New("invalid padding")

// InvalidPaddingError reports a padding percentage that cannot produce a crop
type InvalidPaddingError struct {
	Percent float64
}

func (e *InvalidPaddingError) Error() string {
	return fmt.Sprintf("invalid padding %v%%: must be a non-negative number", e.Percent)
}

// Is makes errors.Is(err, ErrInvalidPadding) hold
func (e *InvalidPaddingError) Is(target error) bool {
	return target == ErrInvalidPadding
}

// PlanCrop computes the square region around face, padded by paddingPercent of
// the square side on every edge and clipped to the image.
//
// The face box is first grown to a square of side max(W, H). Any odd remainder
// of that growth goes to the bottom/right. Each edge is clipped on its own, so
// a face close to a border loses padding only on that side and the result may
// not be square.
func PlanCrop(face types.FaceBox, dims types.ImageDimensions, paddingPercent float64) (types.CropRegion, error) {
	squareSize := max(face.W, face.H)

	paddingFactor := paddingPercent / 100
	if paddingFactor < 0 || math.IsNaN(paddingFactor) || math.IsInf(paddingFactor, 1) {
		return types.CropRegion{}, &InvalidPaddingError{Percent: paddingPercent}
	}
	// int() truncates toward zero, which is floor for these non-negative values
	padding := int(float64(squareSize) * paddingFactor)

	wDelta := (squareSize - face.W) / 2
	hDelta := (squareSize - face.H) / 2

	return types.CropRegion{
		TopLeftX:     max(0, face.X-wDelta-padding),
		TopLeftY:     max(0, face.Y-hDelta-padding),
		BottomRightX: min(dims.Width, face.X+squareSize+wDelta+padding),
		BottomRightY: min(dims.Height, face.Y+squareSize+hDelta+padding),
	}, nil
}

// Crop extracts region from img. The result has its origin at (0, 0).
func Crop(img image.Image, region types.CropRegion) (image.Image, error) {
	if region.Empty() {
		return nil, fmt.Errorf("empty crop region %v", region.Rect())
	}
	bounds := img.Bounds()
	rect := region.Rect().Add(bounds.Min).Intersect(bounds)
	if rect.Empty() {
		return nil, fmt.Errorf("crop region %v outside image bounds %v", region.Rect(), bounds)
	}
	return imaging.Crop(img, rect), nil
}
