// Package batch runs the face square crop over a list of images.
//
// Images are handled one at a time in input order. A failing image is logged
// and recorded in its Outcome; it never stops the rest of the batch.
package batch

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/hugdru/face-square-image/internal/utils"
	"github.com/hugdru/face-square-image/pkg/cropper"
	"github.com/hugdru/face-square-image/pkg/detection"
	"github.com/hugdru/face-square-image/pkg/processing"
	"github.com/hugdru/face-square-image/pkg/types"
)

// Options are constant for a whole batch
type Options struct {
	Padding   float64
	Inplace   bool
	OutputDir string
	Quality   int
	Lossless  bool
	Debug     bool
}

// Outcome records what happened to one image
type Outcome struct {
	Path   string
	Output string
	Faces  int
	Face   types.FaceBox
	Region types.CropRegion
	Err    error
}

// PlanFunc computes the crop region for a face
type PlanFunc func(face types.FaceBox, dims types.ImageDimensions, paddingPercent float64) (types.CropRegion, error)

// Orchestrator drives decode, locate, plan, crop and write for every image
type Orchestrator struct {
	locator   detection.Locator
	processor *processing.Processor
	plan      PlanFunc
	opts      Options
	log       logrus.FieldLogger
}

// New creates an orchestrator. The locator is shared by every image.
func New(locator detection.Locator, processor *processing.Processor, opts Options) *Orchestrator {
	if processor == nil {
		processor = processing.NewProcessor()
	}
	return &Orchestrator{
		locator:   locator,
		processor: processor,
		plan:      cropper.PlanCrop,
		opts:      opts,
		log:       logrus.StandardLogger(),
	}
}

// SetLogger replaces the default logrus standard logger
func (o *Orchestrator) SetLogger(log logrus.FieldLogger) {
	o.log = log
}

// SetPlanner replaces the crop planner
func (o *Orchestrator) SetPlanner(plan PlanFunc) {
	o.plan = plan
}

// Run processes paths in order and returns one Outcome per path.
// ctx is only checked between images; once it is done the remaining images
// are reported with ctx.Err() without being touched.
func (o *Orchestrator) Run(ctx context.Context, paths []string) []Outcome {
	outcomes := make([]Outcome, 0, len(paths))
	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			o.log.WithError(err).Warnf("batch interrupted, skipping %d remaining image(s)", len(paths)-i)
			for _, rest := range paths[i:] {
				outcomes = append(outcomes, Outcome{Path: rest, Err: err})
			}
			break
		}

		out := o.ProcessImage(ctx, path)
		entry := o.log.WithField("image", path)
		if out.Err != nil {
			entry.WithError(out.Err).Error("failed to crop image")
		} else {
			entry.WithFields(logrus.Fields{
				"output": out.Output,
				"region": out.Region.Rect().String(),
			}).Info("wrote square crop")
		}
		outcomes = append(outcomes, out)
	}
	return outcomes
}

// ProcessImage runs one image through the whole pipeline
func (o *Orchestrator) ProcessImage(ctx context.Context, path string) Outcome {
	out := Outcome{Path: path}

	img, err := o.processor.LoadImage(path)
	if err != nil {
		out.Err = err
		return out
	}
	dims := o.processor.Dimensions(img)

	faces, err := o.locator.Locate(ctx, o.processor.ToGrayscale(img))
	if err != nil {
		out.Err = fmt.Errorf("failed to locate faces in %s: %w", path, err)
		return out
	}
	out.Faces = len(faces)
	o.log.WithFields(logrus.Fields{"image": path, "faces": len(faces)}).Debug("located faces")

	face, err := detection.SingleFace(path, faces)
	if err != nil {
		out.Err = err
		return out
	}
	out.Face = face

	region, err := o.plan(face, dims, o.opts.Padding)
	if err != nil {
		out.Err = fmt.Errorf("%s: %w", path, err)
		return out
	}
	out.Region = region

	cropped, err := cropper.Crop(img, region)
	if err != nil {
		out.Err = fmt.Errorf("failed to crop %s: %w", path, err)
		return out
	}

	dest := utils.OutputPath(path, o.opts.Inplace, o.opts.OutputDir)
	if err := o.processor.SaveImage(cropped, dest, o.opts.Quality, o.opts.Lossless); err != nil {
		out.Err = err
		return out
	}
	out.Output = dest

	if o.opts.Debug {
		dbgPath := utils.DebugPath(dest)
		overlay := o.processor.CreateDebugOverlay(img, face, region)
		if err := o.processor.SaveImage(overlay, dbgPath, o.opts.Quality, false); err != nil {
			o.log.WithField("image", path).WithError(err).Warn("debug overlay save failed")
		} else {
			o.log.WithField("image", path).Debugf("wrote %s", dbgPath)
		}
	}

	return out
}

// Summary counts successful and failed outcomes
func Summary(outcomes []Outcome) (ok, failed int) {
	for _, out := range outcomes {
		if out.Err != nil {
			failed++
		} else {
			ok++
		}
	}
	return ok, failed
}
