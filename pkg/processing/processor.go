package processing

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/hugdru/face-square-image/pkg/types"
)

// DecodeError wraps a failure to read or decode a source image
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// WriteError wraps a failure to encode or write a result image
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Processor handles image processing operations
type Processor struct{}

// NewProcessor creates a new image processor
func NewProcessor() *Processor {
	return &Processor{}
}

// LoadImage loads an image from a file path with WebP support.
// EXIF orientation is applied so face coordinates match what a viewer shows.
func (p *Processor) LoadImage(path string) (image.Image, error) {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, &DecodeError{Path: path, Err: fmt.Errorf("not an image (content type %s)", mtype.String())}
	}

	// Try imaging.Open (registered decoders)
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err == nil {
		return img, nil
	}

	// Fallback: explicit WebP decode
	if mtype.Is("image/webp") {
		f, ferr := os.Open(path)
		if ferr != nil {
			return nil, &DecodeError{Path: path, Err: ferr}
		}
		defer f.Close()
		if img, werr := webp.Decode(f); werr == nil {
			return img, nil
		}
	}
	return nil, &DecodeError{Path: path, Err: err}
}

// Dimensions returns the pixel size of img
func (p *Processor) Dimensions(img image.Image) types.ImageDimensions {
	b := img.Bounds()
	return types.ImageDimensions{Width: b.Dx(), Height: b.Dy()}
}

// ToGrayscale converts img to an 8-bit luma raster with its origin at (0, 0)
func (p *Processor) ToGrayscale(img image.Image) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	return gray
}

// SaveImage writes img to path, choosing the encoder from the file extension.
// quality applies to JPEG and lossy WebP.
func (p *Processor) SaveImage(img image.Image, path string, quality int, lossless bool) error {
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".webp":
		err = saveWebP(img, path, quality, lossless)
	case ".jpg", ".jpeg":
		err = imaging.Save(img, path, imaging.JPEGQuality(quality))
	default: // png/gif/bmp/tiff; imaging rejects anything else
		err = imaging.Save(img, path)
	}
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}

func saveWebP(img image.Image, path string, quality int, lossless bool) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	opts := &webp.Options{Lossless: lossless, Quality: float32(quality)}
	if err := webp.Encode(f, img, opts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// PrepareImageForModel converts an image to base64 for sending to vision models
func (p *Processor) PrepareImageForModel(img image.Image, format string, maxDim int, quality int) (string, error) {
	return p.EncodeForModel(p.ResizeForModel(img, maxDim), format, quality)
}

// ResizeForModel shrinks img so its longer side is at most maxDim.
// Smaller images and maxDim <= 0 leave img untouched.
func (p *Processor) ResizeForModel(img image.Image, maxDim int) image.Image {
	if maxDim <= 0 {
		return img
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxDim && h <= maxDim {
		return img
	}
	if w >= h {
		return imaging.Resize(img, maxDim, 0, imaging.Lanczos)
	}
	return imaging.Resize(img, 0, maxDim, imaging.Lanczos)
}

// EncodeForModel encodes img as png or jpg and returns it base64 encoded
func (p *Processor) EncodeForModel(img image.Image, format string, quality int) (string, error) {
	var buf bytes.Buffer
	switch strings.ToLower(format) {
	case "png":
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(&buf, img); err != nil {
			return "", err
		}
	default: // jpg
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return "", err
		}
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// CreateDebugOverlay draws the detected face box and the planned crop region over img
func (p *Processor) CreateDebugOverlay(img image.Image, face types.FaceBox, region types.CropRegion) image.Image {
	nrgba := imaging.Clone(img)
	w := nrgba.Bounds().Dx()
	h := nrgba.Bounds().Dy()

	green := color.NRGBA{0, 255, 0, 255}  // face box
	gold := color.NRGBA{255, 204, 0, 255} // crop region
	red := color.NRGBA{255, 0, 0, 255}    // face center
	stroke := int(math.Max(2, 0.004*float64(min(w, h))))
	cross := int(math.Max(4, 0.01*float64(min(w, h))))

	drawRect(nrgba, face.Rect(), green, stroke)
	if !region.Empty() {
		drawRect(nrgba, region.Rect(), gold, stroke)
	}

	cx, cy := face.X+face.W/2, face.Y+face.H/2
	drawHLine(nrgba, cy, cx-cross, cx+cross, red)
	drawVLine(nrgba, cx, cy-cross, cy+cross, red)

	return nrgba
}

func drawRect(img *image.NRGBA, r image.Rectangle, c color.NRGBA, stroke int) {
	if r.Dx() <= 0 || r.Dy() <= 0 {
		return
	}
	for s := 0; s < stroke; s++ {
		drawHLine(img, r.Min.Y+s, r.Min.X, r.Max.X, c)
		drawHLine(img, r.Max.Y-1-s, r.Min.X, r.Max.X, c)
		drawVLine(img, r.Min.X+s, r.Min.Y, r.Max.Y, c)
		drawVLine(img, r.Max.X-1-s, r.Min.Y, r.Max.Y, c)
	}
}

func drawHLine(img *image.NRGBA, y, x0, x1 int, c color.NRGBA) {
	if y < 0 || y >= img.Bounds().Dy() {
		return
	}
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	x0 = max(x0, 0)
	x1 = min(x1, img.Bounds().Dx())
	if x0 >= x1 {
		return
	}
	i := y*img.Stride + x0*4
	for x := x0; x < x1; x++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += 4
	}
}

func drawVLine(img *image.NRGBA, x, y0, y1 int, c color.NRGBA) {
	if x < 0 || x >= img.Bounds().Dx() {
		return
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	y0 = max(y0, 0)
	y1 = min(y1, img.Bounds().Dy())
	if y0 >= y1 {
		return
	}
	i := y0*img.Stride + x*4
	for y := y0; y < y1; y++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += img.Stride
	}
}
