package types

import "image"

// FaceBox is a detected face in pixel units: top-left corner plus width and height
type FaceBox struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Rect returns the face box as an image rectangle
func (f FaceBox) Rect() image.Rectangle {
	return image.Rect(f.X, f.Y, f.X+f.W, f.Y+f.H)
}

// FaceBoxFromRect converts an image rectangle to a face box
func FaceBoxFromRect(r image.Rectangle) FaceBox {
	r = r.Canon()
	return FaceBox{X: r.Min.X, Y: r.Min.Y, W: r.Dx(), H: r.Dy()}
}

// ImageDimensions holds the pixel size of a source raster
type ImageDimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// CropRegion is the clipped square region to extract from the source image
type CropRegion struct {
	TopLeftX     int `json:"top_left_x"`
	TopLeftY     int `json:"top_left_y"`
	BottomRightX int `json:"bottom_right_x"`
	BottomRightY int `json:"bottom_right_y"`
}

// Rect returns the region as an image rectangle
func (c CropRegion) Rect() image.Rectangle {
	return image.Rect(c.TopLeftX, c.TopLeftY, c.BottomRightX, c.BottomRightY)
}

// Width of the region in pixels
func (c CropRegion) Width() int {
	return c.BottomRightX - c.TopLeftX
}

// Height of the region in pixels
func (c CropRegion) Height() int {
	return c.BottomRightY - c.TopLeftY
}

// Empty reports whether the region contains no pixels
func (c CropRegion) Empty() bool {
	return c.Width() <= 0 || c.Height() <= 0
}
