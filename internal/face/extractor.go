package face

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/jmpark/foyer/internal/imaging"
)

// Detection is one face found in a frame: its bounding box in pixel
// coordinates (x1, y1, x2, y2) and its identity embedding.
type Detection struct {
	Box       [4]float64 `json:"bbox"`
	Embedding []float64  `json:"embedding"`
}

// Area returns the bounding-box area.
func (d *Detection) Area() float64 {
	return (d.Box[2] - d.Box[0]) * (d.Box[3] - d.Box[1])
}

// Extractor is the external face-embedding engine: it maps a normalized
// frame to zero or more detections. An empty result means no face.
type Extractor interface {
	Extract(ctx context.Context, img *imaging.Image) ([]Detection, error)
}

// LargestFace selects the detection with the largest bounding-box area,
// first max wins. Returns nil for an empty slice.
func LargestFace(faces []Detection) *Detection {
	var best *Detection
	for i := range faces {
		if best == nil || faces[i].Area() > best.Area() {
			best = &faces[i]
		}
	}
	return best
}

// RemoteExtractor calls an insightface inference sidecar over HTTP.
type RemoteExtractor struct {
	client *resty.Client
}

// RemoteExtractorConfig holds the sidecar connection settings.
type RemoteExtractorConfig struct {
	BaseURL string
	Timeout time.Duration
}

// NewRemoteExtractor creates an extractor client for the given sidecar.
func NewRemoteExtractor(cfg *RemoteExtractorConfig) *RemoteExtractor {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("Content-Type", "image/jpeg")
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}
	return &RemoteExtractor{client: client}
}

type extractResponse struct {
	Faces  []Detection `json:"faces"`
	Detail string      `json:"detail,omitempty"`
}

// Extract posts the frame as JPEG to the sidecar's /extract endpoint.
func (e *RemoteExtractor) Extract(ctx context.Context, img *imaging.Image) ([]Detection, error) {
	var buf bytes.Buffer
	if err := imaging.EncodeJPEG(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}

	var out extractResponse
	resp, err := e.client.R().
		SetContext(ctx).
		SetBody(buf.Bytes()).
		SetResult(&out).
		Post("/extract")
	if err != nil {
		return nil, fmt.Errorf("extractor request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("extractor returned %s: %s", resp.Status(), out.Detail)
	}
	return out.Faces, nil
}
