package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/hugdru/face-square-image/internal/config"
	"github.com/hugdru/face-square-image/internal/utils"
	"github.com/hugdru/face-square-image/pkg/batch"
	"github.com/hugdru/face-square-image/pkg/client"
	"github.com/hugdru/face-square-image/pkg/detection"
	"github.com/hugdru/face-square-image/pkg/facefinder"
	"github.com/hugdru/face-square-image/pkg/haar"
	"github.com/hugdru/face-square-image/pkg/llamacpp"
	"github.com/hugdru/face-square-image/pkg/ollama"
	"github.com/hugdru/face-square-image/pkg/processing"
)

func main() {
	args, err := parseArgs(filepath.Base(os.Args[0]), os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "%s: error: %v\n", filepath.Base(os.Args[0]), err)
		os.Exit(2)
	}

	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	logrus.SetOutput(os.Stderr)
	logrus.SetLevel(logrus.InfoLevel)
	if args.verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	if err := run(args); err != nil {
		logrus.Fatal(err)
	}
}

func run(args *cliArgs) error {
	cfg, err := args.loadConfig()
	if err != nil {
		return err
	}

	locator, closer, err := newLocator(cfg)
	if err != nil {
		return fmt.Errorf("failed to set up %s locator: %w", cfg.Locator.Backend, err)
	}
	defer closer.Close()

	if !args.inplace && !utils.DirExists(args.outputDir) {
		logrus.WithField("dir", args.outputDir).Debug("creating output directory")
		if err := utils.EnsureDir(args.outputDir); err != nil {
			return err
		}
	}

	for _, src := range args.sources {
		if !utils.IsImageFile(src) {
			logrus.WithField("image", src).Warn("unrecognized image extension, trying anyway")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orchestrator := batch.New(locator, processing.NewProcessor(), batch.Options{
		Padding:   cfg.Crop.PaddingPercent,
		Inplace:   args.inplace,
		OutputDir: args.outputDir,
		Quality:   cfg.Output.Quality,
		Lossless:  cfg.Output.Lossless,
		Debug:     cfg.Output.Debug,
	})

	logrus.WithFields(logrus.Fields{
		"images":  len(args.sources),
		"locator": cfg.Locator.Backend,
		"padding": cfg.Crop.PaddingPercent,
	}).Debug("starting batch")

	outcomes := orchestrator.Run(ctx, args.sources)
	ok, failed := batch.Summary(outcomes)
	logrus.WithFields(logrus.Fields{"cropped": ok, "failed": failed}).Info("batch complete")

	// Per-image failures are reported above and do not change the exit status
	return nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// newLocator builds the face locator once for the whole batch
func newLocator(cfg *config.Config) (detection.Locator, io.Closer, error) {
	switch cfg.Locator.Backend {
	case config.LocatorPigo:
		p := cfg.Locator.Pigo
		l, err := facefinder.NewLocator(p.CascadePath, facefinder.Config{
			MinSize:        p.MinSize,
			MaxSize:        p.MaxSize,
			ShiftFactor:    p.ShiftFactor,
			ScaleFactor:    p.ScaleFactor,
			IoUThreshold:   p.IoUThreshold,
			ScoreThreshold: float32(p.ScoreThreshold),
		})
		if err != nil {
			return nil, nil, err
		}
		return l, nopCloser{}, nil

	case config.LocatorHaar:
		h := cfg.Locator.Haar
		hc := haar.DefaultConfig()
		hc.ScaleFactor = h.ScaleFactor
		hc.MinNeighbors = h.MinNeighbors
		l, err := haar.NewLocator(h.CascadePath, hc)
		if err != nil {
			return nil, nil, err
		}
		return l, l, nil

	case config.LocatorOllama, config.LocatorLlamaCpp:
		v := cfg.Locator.Vision
		var vc client.VisionClient
		if cfg.Locator.Backend == config.LocatorOllama {
			c, err := ollama.NewClient(cfg.VisionURL())
			if err != nil {
				return nil, nil, err
			}
			vc = c
		} else {
			c, err := llamacpp.NewClient(cfg.VisionURL())
			if err != nil {
				return nil, nil, err
			}
			vc = c
		}
		l := detection.NewModelLocator(vc, detection.ModelLocatorConfig{
			Model:         v.Model,
			SendFormat:    v.SendFormat,
			SendSize:      v.SendSize,
			SendQuality:   v.SendQuality,
			MinConfidence: v.MinConfidence,
		})
		return l, nopCloser{}, nil
	}

	return nil, nil, fmt.Errorf("unknown locator backend %q", cfg.Locator.Backend)
}
