package embedding

import (
	"errors"
	"testing"

	"github.com/kozaktomas/face-attendance/internal/config"
)

func TestNew_HTTPBackend(t *testing.T) {
	t.Setenv("FACE_EXTRACTOR", "http")
	t.Setenv("EMBEDDING_URL", "http://embedder:8000")

	ext, err := New(config.Load(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer ext.Close()

	if ext.Model() != "buffalo_l" {
		t.Errorf("expected buffalo_l model, got %q", ext.Model())
	}
	if ext.Metric() != MetricCosine {
		t.Errorf("expected cosine metric, got %q", ext.Metric())
	}
}

func TestNew_UnknownBackend(t *testing.T) {
	t.Setenv("FACE_EXTRACTOR", "opencv")

	_, err := New(config.Load(), nil)
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}
