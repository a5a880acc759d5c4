package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/hugdru/face-square-image/internal/config"
	"github.com/hugdru/face-square-image/internal/utils"
)

// stringList is a repeatable string flag
type stringList []string

func (s *stringList) String() string {
	return strings.Join(*s, ",")
}

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

type cliArgs struct {
	sources    []string
	inplace    bool
	outputDir  string
	padding    float64
	configPath string
	locator    string
	cascade    string
	url        string
	model      string
	quality    int
	lossless   bool
	debug      bool
	verbose    bool

	// names of the flags given on the command line
	set map[string]bool
}

const usageHeader = `A program to crop a human face to a square

usage: %s -s image_path [image_path ...] (-i | -o output_dir) [-p padding_percentage]

`

// parseArgs parses the command line. Every argument that is not a flag or a
// flag value is an image path, so -s a.jpg b.jpg -o out works like
// -s a.jpg -s b.jpg -o out. Everything after "--" is an image path.
func parseArgs(name string, argv []string, stderr io.Writer) (*cliArgs, error) {
	a := &cliArgs{set: map[string]bool{}}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, usageHeader, name)
		fs.PrintDefaults()
	}

	var sources stringList
	fs.Var(&sources, "sources", "the images for processing (repeatable)")
	fs.Var(&sources, "s", "shorthand for --sources")
	fs.BoolVar(&a.inplace, "inplace", false, "overwrite the original images")
	fs.BoolVar(&a.inplace, "i", false, "shorthand for --inplace")
	fs.StringVar(&a.outputDir, "output", "", "the directory to place the resulting images")
	fs.StringVar(&a.outputDir, "o", "", "shorthand for --output")
	fs.Float64Var(&a.padding, "padding", 50, "the padding for the cropped square face image, in percent of the face size")
	fs.Float64Var(&a.padding, "p", 50, "shorthand for --padding")

	fs.StringVar(&a.configPath, "config", "", "JSON configuration file (default "+config.GetConfigPath()+" when present)")
	fs.StringVar(&a.locator, "locator", config.LocatorPigo, "face locator: pigo|haar|ollama|llamacpp")
	fs.StringVar(&a.cascade, "cascade", "", "cascade file for the pigo or haar locator (pigo: cascade/facefinder from github.com/esimov/pigo, haar: haarcascade_frontalface_default.xml from OpenCV)")
	fs.StringVar(&a.url, "url", "", "vision model server URL (defaults: ollama=http://localhost:11434, llamacpp=http://localhost:8080)")
	fs.StringVar(&a.model, "model", "", "vision model name")
	fs.IntVar(&a.quality, "quality", 95, "JPEG/WebP output quality (1-100)")
	fs.BoolVar(&a.lossless, "lossless", false, "WebP output lossless mode")
	fs.BoolVar(&a.debug, "debug", false, "also write a debug overlay with the face box and crop region")
	fs.BoolVar(&a.verbose, "verbose", false, "debug logging")
	fs.BoolVar(&a.verbose, "v", false, "shorthand for --verbose")

	rest := argv
	for len(rest) > 0 {
		if err := fs.Parse(rest); err != nil {
			return nil, err
		}
		left := fs.Args()
		if consumed := len(rest) - len(left); consumed > 0 && rest[consumed-1] == "--" {
			sources = append(sources, left...)
			break
		}
		if len(left) == 0 {
			break
		}
		sources = append(sources, left[0])
		rest = left[1:]
	}
	fs.Visit(func(f *flag.Flag) { a.set[canonical(f.Name)] = true })

	a.sources = sources
	if len(a.sources) == 0 {
		fs.Usage()
		return nil, errors.New("the following arguments are required: -s/--sources")
	}
	if a.inplace && a.outputDir != "" {
		fs.Usage()
		return nil, errors.New("argument -o/--output: not allowed with argument -i/--inplace")
	}
	if !a.inplace && a.outputDir == "" {
		fs.Usage()
		return nil, errors.New("one of the arguments -i/--inplace -o/--output is required")
	}

	return a, nil
}

func canonical(name string) string {
	switch name {
	case "s":
		return "sources"
	case "i":
		return "inplace"
	case "o":
		return "output"
	case "p":
		return "padding"
	case "v":
		return "verbose"
	}
	return name
}

// apply overrides cfg with every flag given on the command line
func (a *cliArgs) apply(cfg *config.Config) {
	if a.set["padding"] || a.configPath == "" {
		cfg.Crop.PaddingPercent = a.padding
	}
	if a.set["locator"] {
		cfg.Locator.Backend = a.locator
	}
	if a.set["cascade"] {
		switch cfg.Locator.Backend {
		case config.LocatorHaar:
			cfg.Locator.Haar.CascadePath = a.cascade
		default:
			cfg.Locator.Pigo.CascadePath = a.cascade
		}
	}
	if a.set["url"] {
		cfg.Locator.Vision.URL = a.url
	}
	if a.set["model"] {
		cfg.Locator.Vision.Model = a.model
	}
	if a.set["quality"] {
		cfg.Output.Quality = a.quality
	}
	if a.set["lossless"] {
		cfg.Output.Lossless = a.lossless
	}
	if a.set["debug"] {
		cfg.Output.Debug = a.debug
	}
}

// loadConfig reads the config file, falling back to the per-user one when it
// exists, and applies the flags
func (a *cliArgs) loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if a.configPath == "" && utils.FileExists(config.GetConfigPath()) {
		a.configPath = config.GetConfigPath()
	}
	if a.configPath != "" {
		var err error
		if cfg, err = config.LoadFromFile(a.configPath); err != nil {
			return nil, err
		}
	}
	a.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
