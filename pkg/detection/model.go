package detection

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"regexp"
	"strings"

	"github.com/hugdru/face-square-image/pkg/client"
	"github.com/hugdru/face-square-image/pkg/processing"
	"github.com/hugdru/face-square-image/pkg/types"
)

// DefaultPrompt asks the model for every visible face as normalized boxes
const DefaultPrompt = `You are a face locator.

Return JSON only:
{
  "faces": [
    {"x": 0.0, "y": 0.0, "w": 0.0, "h": 0.0, "confidence": 0.0}
  ]
}

HARD RULES
- One entry per visible human face. Do not merge faces. Do not skip partially visible faces.
- All coordinates are normalized to [0,1] (NOT pixels). x,y is the top-left corner.
- The box should tightly include forehead, chin and both cheeks.
- If there is no face, return {"faces": []}.
- JSON only. No markdown, no code fences, no comments, no trailing commas.`

// ModelLocatorConfig controls how images are sent to the vision model
type ModelLocatorConfig struct {
	Model         string
	Prompt        string
	SendFormat    string
	SendSize      int
	SendQuality   int
	MinConfidence float64
}

// ModelLocator finds faces by asking a vision model
type ModelLocator struct {
	client    client.VisionClient
	processor *processing.Processor
	config    ModelLocatorConfig
}

// NewModelLocator creates a locator backed by a vision client
func NewModelLocator(c client.VisionClient, config ModelLocatorConfig) *ModelLocator {
	if config.Prompt == "" {
		config.Prompt = DefaultPrompt
	}
	if config.SendFormat == "" {
		config.SendFormat = "jpg"
	}
	if config.SendQuality == 0 {
		config.SendQuality = 85
	}
	return &ModelLocator{
		client:    c,
		processor: processing.NewProcessor(),
		config:    config,
	}
}

type modelBox struct {
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	W          float64  `json:"w"`
	H          float64  `json:"h"`
	Confidence *float64 `json:"confidence,omitempty"`
}

type modelAnswer struct {
	Faces []modelBox `json:"faces"`
}

// Locate implements Locator
func (l *ModelLocator) Locate(ctx context.Context, gray *image.Gray) ([]types.FaceBox, error) {
	sent := l.processor.ResizeForModel(gray, l.config.SendSize)
	imgB64, err := l.processor.EncodeForModel(sent, l.config.SendFormat, l.config.SendQuality)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image for model: %w", err)
	}

	raw, err := l.client.Query(ctx, l.config.Model, l.config.Prompt, imgB64)
	if err != nil {
		return nil, fmt.Errorf("vision model query failed: %w", err)
	}

	answer, err := parseModelAnswer(raw)
	if err != nil {
		return nil, err
	}

	bounds := gray.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	sentW, sentH := sent.Bounds().Dx(), sent.Bounds().Dy()
	boxes := make([]types.FaceBox, 0, len(answer.Faces))
	for _, f := range answer.Faces {
		if f.Confidence != nil && *f.Confidence < l.config.MinConfidence {
			continue
		}
		boxes = append(boxes, toPixels(f, w, h, sentW, sentH))
	}

	return ClipBoxes(boxes, bounds), nil
}

// toPixels converts a normalized box to a w x h image. Some models answer in
// pixels anyway; those boxes are in the sentW x sentH image the model saw.
func toPixels(b modelBox, w, h, sentW, sentH int) types.FaceBox {
	fw, fh := float64(w), float64(h)
	if b.X > 1 || b.Y > 1 || b.W > 1 || b.H > 1 {
		sx, sy := 1.0, 1.0
		if sentW > 0 && sentH > 0 {
			sx, sy = fw/float64(sentW), fh/float64(sentH)
		}
		return types.FaceBox{
			X: int(b.X * sx),
			Y: int(b.Y * sy),
			W: int(b.W * sx),
			H: int(b.H * sy),
		}
	}
	return types.FaceBox{
		X: int(clamp(b.X, 0, 1) * fw),
		Y: int(clamp(b.Y, 0, 1) * fh),
		W: int(clamp(b.W, 0, 1) * fw),
		H: int(clamp(b.H, 0, 1) * fh),
	}
}

// parseModelAnswer parses the JSON answer of the vision model
func parseModelAnswer(raw string) (*modelAnswer, error) {
	raw = sanitizeModelJSON(raw)
	if !strings.HasPrefix(raw, "{") {
		return nil, fmt.Errorf("model returned non-JSON response: %q", truncate(raw, 80))
	}

	var answer modelAnswer
	if err := json.Unmarshal([]byte(raw), &answer); err != nil {
		return nil, fmt.Errorf("failed to parse model response: %w", err)
	}
	return &answer, nil
}

var (
	reBlockComment  = regexp.MustCompile(`(?s)/\*.*?\*/`)
	reLineComment   = regexp.MustCompile(`(?m)^\s*//.*$`)
	reInlineComment = regexp.MustCompile(`(?m)\s//.*$`)
	reTrailingComma = regexp.MustCompile(`,(\s*[}\]])`)
)

// sanitizeModelJSON removes code fences, comments, and trailing commas from JSON response
func sanitizeModelJSON(raw string) string {
	raw = strings.TrimSpace(raw)

	// Strip triple-backtick fences if present
	if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		}
		if j := strings.LastIndex(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	raw = strings.Trim(strings.TrimSpace(raw), "`")

	raw = reBlockComment.ReplaceAllString(raw, "")
	raw = reLineComment.ReplaceAllString(raw, "")
	raw = reInlineComment.ReplaceAllString(raw, "")
	raw = reTrailingComma.ReplaceAllString(raw, "$1")

	// Keep only the outermost {...}
	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			raw = raw[start : end+1]
		}
	}
	return strings.TrimSpace(raw)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
