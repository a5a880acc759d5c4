// Package haar locates faces with an OpenCV Haar cascade through gocv.
//
// The OpenCV backed implementation is only compiled with the gocv build tag,
// since it needs the OpenCV shared libraries at link time:
//
//	go build -tags gocv ./cmd/face-square-image
package haar

import "errors"

// ErrUnavailable is returned by NewLocator in builds without the gocv tag
var ErrUnavailable = errors.New("haar locator unavailable: rebuild with -tags gocv")

// Config holds the DetectMultiScale parameters
type Config struct {
	ScaleFactor  float64
	MinNeighbors int
	MinSize      int
	MaxSize      int
}

// DefaultConfig matches detectMultiScale(gray, 1.3, 5)
func DefaultConfig() Config {
	return Config{
		ScaleFactor:  1.3,
		MinNeighbors: 5,
	}
}
