// Package embedding wraps the external face embedding extractors. Detection,
// landmarks and embedding inference all happen inside the backend; this package
// only adapts each backend to the Extractor interface.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"image"

	"go.uber.org/zap"

	"github.com/kozaktomas/face-attendance/internal/config"
)

var (
	// ErrUnavailable is returned when a backend is not compiled in or not configured.
	ErrUnavailable = errors.New("face extractor unavailable")
	// ErrModelMismatch is returned when a backend reports a model other than the configured one.
	ErrModelMismatch = errors.New("face extractor model mismatch")
)

// Face is one detected face.
type Face struct {
	Index     int
	BBox      image.Rectangle
	Embedding []float32
	DetScore  float64
}

// Extractor detects faces in an image and computes their embeddings.
type Extractor interface {
	// Detect returns every face found in a JPEG-encoded image.
	Detect(ctx context.Context, jpegData []byte) ([]Face, error)
	// Model names the embedding model; galleries are tagged with it.
	Model() string
	// Metric is the distance the model's embeddings are compared with.
	Metric() Metric
	Close() error
}

// New creates the extractor selected by cfg.Extractor.Backend.
func New(cfg *config.Config, logger *zap.Logger) (Extractor, error) {
	profile, ok := cfg.Profile()
	if !ok {
		return nil, fmt.Errorf("%w: unknown backend %q", ErrUnavailable, cfg.Extractor.Backend)
	}

	metric, err := ParseMetric(profile.Metric)
	if err != nil {
		return nil, err
	}

	switch cfg.Extractor.Backend {
	case config.BackendDlib:
		return newDlibExtractor(cfg.Extractor.ModelsDir, cfg.Extractor.CNN, profile.Model, logger)
	case config.BackendHTTP:
		return NewHTTPExtractor(cfg.Embedding.URL, profile.Model, metric, cfg.Embedding.Timeout, logger), nil
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", ErrUnavailable, cfg.Extractor.Backend)
	}
}
