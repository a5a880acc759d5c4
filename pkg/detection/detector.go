package detection

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/hugdru/face-square-image/pkg/types"
)

// ErrFaceCount is matched by every FaceCountError
var ErrFaceCount = errors.New("not exactly one face")

// Locator finds faces in a grayscale image
type Locator interface {
	Locate(ctx context.Context, gray *image.Gray) ([]types.FaceBox, error)
}

// LocatorFunc adapts a plain function to the Locator interface
type LocatorFunc func(ctx context.Context, gray *image.Gray) ([]types.FaceBox, error)

// Locate calls f(ctx, gray)
func (f LocatorFunc) Locate(ctx context.Context, gray *image.Gray) ([]types.FaceBox, error) {
	return f(ctx, gray)
}

// FaceCountError is returned when an image holds zero or several faces
type FaceCountError struct {
	Path  string
	Count int
}

func (e *FaceCountError) Error() string {
	return fmt.Sprintf("not_one_face:%s (found %d)", e.Path, e.Count)
}

// Is makes errors.Is(err, ErrFaceCount) hold
func (e *FaceCountError) Is(target error) bool {
	return target == ErrFaceCount
}

// SingleFace returns the only face in faces, or a FaceCountError tagged with path
func SingleFace(path string, faces []types.FaceBox) (types.FaceBox, error) {
	if len(faces) != 1 {
		return types.FaceBox{}, &FaceCountError{Path: path, Count: len(faces)}
	}
	return faces[0], nil
}

// clipBox constrains a face box to the image, dropping it when nothing is left
func clipBox(box types.FaceBox, bounds image.Rectangle) (types.FaceBox, bool) {
	r := box.Rect().Intersect(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	if r.Empty() {
		return types.FaceBox{}, false
	}
	return types.FaceBoxFromRect(r), true
}

// ClipBoxes constrains every box to the image and drops the empty ones
func ClipBoxes(boxes []types.FaceBox, bounds image.Rectangle) []types.FaceBox {
	out := make([]types.FaceBox, 0, len(boxes))
	for _, b := range boxes {
		if c, ok := clipBox(b, bounds); ok {
			out = append(out, c)
		}
	}
	return out
}
