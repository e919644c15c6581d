// Package subject asks a vision model where the main subject of an image
// sits, so the cropper can keep it in frame. It is an optional aid: the
// pipeline works without any backend configured and never performs
// network I/O unless one is.
package subject

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/menta2k/eink-frame/pkg/cropper"
)

// locatePrompt instructs the model to return nothing but a subject box.
const locatePrompt = `You locate the main subject of an image for framing.

Return JSON only:
{"label": "string", "confidence": 0.0, "box": {"x": 0.0, "y": 0.0, "w": 0.0, "h": 0.0}}

RULES
- All coordinates are normalized to [0,1] (NOT pixels).
- The box should tightly include the visually dominant subject
  (prefer people/animals/vehicles; else the most central salient object).
- If no subject stands out, return:
  {"label": "none", "confidence": 0.0, "box": {"x": 0.25, "y": 0.25, "w": 0.5, "h": 0.5}}
- JSON only. No markdown, no code fences, no comments.`

// Box is a normalized bounding box.
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Result is a located subject.
type Result struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Box        Box     `json:"box"`
}

// Hint converts the subject box to a crop hint: the point inside the box
// nearest the image center, so the crop drifts no further than it must.
func (r *Result) Hint() cropper.Hint {
	return cropper.Hint{
		CX: clamp(0.5, r.Box.X, r.Box.X+r.Box.W),
		CY: clamp(0.5, r.Box.Y, r.Box.Y+r.Box.H),
	}
}

// Client is a vision model backend that answers a prompt about a
// base64-encoded image.
type Client interface {
	Analyze(ctx context.Context, model, prompt, imageB64 string) (string, error)
}

// Locator finds subjects through a vision model backend.
type Locator struct {
	client Client
	model  string
}

// NewLocator creates a Locator using the given backend and model name.
func NewLocator(client Client, model string) *Locator {
	return &Locator{client: client, model: model}
}

// Locate asks the model for the subject of the image.
func (l *Locator) Locate(ctx context.Context, imageB64 string) (*Result, error) {
	reply, err := l.client.Analyze(ctx, l.model, locatePrompt, imageB64)
	if err != nil {
		return nil, fmt.Errorf("subject detection failed: %w", err)
	}

	var result Result
	if err := json.Unmarshal([]byte(extractJSON(reply)), &result); err != nil {
		return nil, fmt.Errorf("unparseable model reply %q: %w", reply, err)
	}

	result.Box = normalizeBox(result.Box)
	return &result, nil
}

// extractJSON strips code fences and surrounding prose, leaving the first
// JSON object in the reply. Vision models do not always obey "JSON only".
func extractJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}

func normalizeBox(b Box) Box {
	b.X = clamp(b.X, 0, 1)
	b.Y = clamp(b.Y, 0, 1)
	b.W = clamp(b.W, 0, 1-b.X)
	b.H = clamp(b.H, 0, 1-b.Y)
	return b
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
