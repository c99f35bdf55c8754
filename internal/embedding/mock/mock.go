// Package mock provides a scripted embedding.Extractor for tests.
package mock

import (
	"context"
	"crypto/sha256"
	"sync"

	"github.com/kozaktomas/face-attendance/internal/embedding"
)

// MockExtractor returns pre-registered faces for known image bytes.
// Unknown images yield zero faces, like a blank photo would.
type MockExtractor struct {
	mu     sync.RWMutex
	faces  map[[32]byte][]embedding.Face
	calls  int
	model  string
	metric embedding.Metric

	// Error injection
	DetectError error
	CloseError  error
}

// NewMockExtractor creates a mock extractor using the Euclidean metric.
func NewMockExtractor(model string) *MockExtractor {
	return &MockExtractor{
		faces:  make(map[[32]byte][]embedding.Face),
		model:  model,
		metric: embedding.MetricEuclidean,
	}
}

// SetMetric changes the reported distance metric.
func (m *MockExtractor) SetMetric(metric embedding.Metric) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metric = metric
}

// AddImage scripts the faces returned for the given image bytes.
func (m *MockExtractor) AddImage(imageData []byte, embeddings ...[]float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	faces := make([]embedding.Face, len(embeddings))
	for i, emb := range embeddings {
		faces[i] = embedding.Face{Index: i, Embedding: emb, DetScore: 1}
	}
	m.faces[sha256.Sum256(imageData)] = faces
}

// Detect returns the scripted faces for the image.
func (m *MockExtractor) Detect(ctx context.Context, jpegData []byte) ([]embedding.Face, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.DetectError != nil {
		return nil, m.DetectError
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.faces[sha256.Sum256(jpegData)], nil
}

// Calls returns how many times Detect was invoked.
func (m *MockExtractor) Calls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls
}

func (m *MockExtractor) Model() string {
	return m.model
}

func (m *MockExtractor) Metric() embedding.Metric {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.metric
}

func (m *MockExtractor) Close() error {
	return m.CloseError
}
