package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Locator backends
const (
	LocatorPigo     = "pigo"
	LocatorHaar     = "haar"
	LocatorOllama   = "ollama"
	LocatorLlamaCpp = "llamacpp"
)

// Config holds the application configuration
type Config struct {
	Crop    CropConfig    `json:"crop"`
	Locator LocatorConfig `json:"locator"`
	Output  OutputConfig  `json:"output"`
}

// CropConfig holds configuration for the square crop
type CropConfig struct {
	PaddingPercent float64 `json:"padding_percent"`
}

// LocatorConfig selects and tunes the face locator
type LocatorConfig struct {
	Backend string       `json:"backend"`
	Pigo    PigoConfig   `json:"pigo"`
	Haar    HaarConfig   `json:"haar"`
	Vision  VisionConfig `json:"vision"`
}

// PigoConfig holds the pigo cascade parameters
type PigoConfig struct {
	CascadePath    string  `json:"cascade_path"`
	MinSize        int     `json:"min_size"`
	MaxSize        int     `json:"max_size"`
	ShiftFactor    float64 `json:"shift_factor"`
	ScaleFactor    float64 `json:"scale_factor"`
	IoUThreshold   float64 `json:"iou_threshold"`
	ScoreThreshold float64 `json:"score_threshold"`
}

// HaarConfig holds the OpenCV Haar cascade parameters
type HaarConfig struct {
	CascadePath  string  `json:"cascade_path"`
	ScaleFactor  float64 `json:"scale_factor"`
	MinNeighbors int     `json:"min_neighbors"`
}

// VisionConfig holds configuration for the vision model locators
type VisionConfig struct {
	URL           string  `json:"url"`
	Model         string  `json:"model"`
	SendFormat    string  `json:"send_format"`
	SendSize      int     `json:"send_size"`
	SendQuality   int     `json:"send_quality"`
	MinConfidence float64 `json:"min_confidence"`
}

// OutputConfig holds configuration for writing crops
type OutputConfig struct {
	Quality  int  `json:"quality"`
	Lossless bool `json:"lossless"`
	Debug    bool `json:"debug"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Crop: CropConfig{
			PaddingPercent: 50,
		},
		Locator: LocatorConfig{
			Backend: LocatorPigo,
			Pigo: PigoConfig{
				CascadePath:    "cascade/facefinder",
				MinSize:        20,
				MaxSize:        1000,
				ShiftFactor:    0.1,
				ScaleFactor:    1.1,
				IoUThreshold:   0.2,
				ScoreThreshold: 5.0,
			},
			Haar: HaarConfig{
				CascadePath:  "training_data/haarcascade_frontalface_default.xml",
				ScaleFactor:  1.3,
				MinNeighbors: 5,
			},
			Vision: VisionConfig{
				Model:         "openbmb/minicpm-v4.5",
				SendFormat:    "jpg",
				SendSize:      1536,
				SendQuality:   85,
				MinConfidence: 0.3,
			},
		},
		Output: OutputConfig{
			Quality: 95,
		},
	}
}

// LoadFromFile loads configuration from a JSON file on top of the defaults
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid.
// Negative padding passes; it fails per image with the crop planner's error.
func (c *Config) Validate() error {
	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		return fmt.Errorf("output.quality must be between 1 and 100")
	}

	switch c.Locator.Backend {
	case LocatorPigo:
		p := c.Locator.Pigo
		if p.CascadePath == "" {
			return fmt.Errorf("locator.pigo.cascade_path cannot be empty")
		}
		if p.MinSize < 1 || p.MaxSize < p.MinSize {
			return fmt.Errorf("locator.pigo.min_size must be positive and not above max_size")
		}
		if p.ShiftFactor <= 0 || p.ShiftFactor > 1 {
			return fmt.Errorf("locator.pigo.shift_factor must be in (0, 1]")
		}
		if p.ScaleFactor <= 1 {
			return fmt.Errorf("locator.pigo.scale_factor must be greater than 1")
		}
		if p.IoUThreshold < 0 || p.IoUThreshold > 1 {
			return fmt.Errorf("locator.pigo.iou_threshold must be between 0 and 1")
		}
	case LocatorHaar:
		h := c.Locator.Haar
		if h.CascadePath == "" {
			return fmt.Errorf("locator.haar.cascade_path cannot be empty")
		}
		if h.ScaleFactor <= 1 {
			return fmt.Errorf("locator.haar.scale_factor must be greater than 1")
		}
		if h.MinNeighbors < 0 {
			return fmt.Errorf("locator.haar.min_neighbors cannot be negative")
		}
	case LocatorOllama, LocatorLlamaCpp:
		v := c.Locator.Vision
		if v.Model == "" {
			return fmt.Errorf("locator.vision.model cannot be empty")
		}
		if v.SendFormat != "jpg" && v.SendFormat != "png" {
			return fmt.Errorf("locator.vision.send_format must be jpg or png")
		}
		if v.SendQuality < 1 || v.SendQuality > 100 {
			return fmt.Errorf("locator.vision.send_quality must be between 1 and 100")
		}
		if v.SendSize < 0 {
			return fmt.Errorf("locator.vision.send_size cannot be negative")
		}
	default:
		return fmt.Errorf("unknown locator backend %q (use pigo, haar, ollama or llamacpp)", c.Locator.Backend)
	}

	return nil
}

// VisionURL returns the configured server URL or the backend's default
func (c *Config) VisionURL() string {
	if c.Locator.Vision.URL != "" {
		return c.Locator.Vision.URL
	}
	if c.Locator.Backend == LocatorOllama {
		return "http://localhost:11434"
	}
	return "http://localhost:8080"
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "face-square-image", "config.json")
}
