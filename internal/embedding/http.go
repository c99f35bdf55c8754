package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultEmbeddingURL = "http://localhost:8000"

// HTTPExtractor computes face embeddings using the embedding server's /embed/face endpoint.
type HTTPExtractor struct {
	baseURL string
	model   string
	metric  Metric
	client  *http.Client
	logger  *zap.Logger
}

// NewHTTPExtractor creates a new embedding server client.
func NewHTTPExtractor(baseURL, model string, metric Metric, timeout time.Duration, logger *zap.Logger) *HTTPExtractor {
	if baseURL == "" {
		baseURL = defaultEmbeddingURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPExtractor{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   model,
		metric:  metric,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// faceDetection represents a single detected face in the server response
type faceDetection struct {
	FaceIndex int       `json:"face_index"`
	Dim       int       `json:"dim"`
	Embedding []float32 `json:"embedding"`
	BBox      []float64 `json:"bbox"` // [x1, y1, x2, y2]
	DetScore  float64   `json:"det_score"`
}

// faceResponse represents the response from the face embedding endpoint
type faceResponse struct {
	FacesCount int             `json:"faces_count"`
	Faces      []faceDetection `json:"faces"`
	Model      string          `json:"model"`
}

// postImage posts the image as a multipart "file" part with a sniffed Content-Type.
func (c *HTTPExtractor) postImage(ctx context.Context, endpoint string, imageData []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="image.jpg"`)
	h.Set("Content-Type", detectMIMEType(imageData))
	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}

	if _, err := part.Write(imageData); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	return body, nil
}

// Detect detects faces and computes their embeddings
func (c *HTTPExtractor) Detect(ctx context.Context, jpegData []byte) ([]Face, error) {
	start := time.Now()
	body, err := c.postImage(ctx, "/embed/face", jpegData)
	if err != nil {
		return nil, err
	}

	var faceResp faceResponse
	if err := json.Unmarshal(body, &faceResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	c.logger.Debug("embedding server responded",
		zap.Int("faces", len(faceResp.Faces)),
		zap.String("server_model", faceResp.Model),
		zap.Duration("elapsed", time.Since(start)))

	// An empty model means the server does not report one.
	if faceResp.Model != "" && faceResp.Model != c.model {
		return nil, fmt.Errorf("%w: server reports %q, configured %q", ErrModelMismatch, faceResp.Model, c.model)
	}

	faces := make([]Face, len(faceResp.Faces))
	for i, f := range faceResp.Faces {
		if len(f.Embedding) == 0 {
			return nil, fmt.Errorf("empty embedding returned for face %d", f.FaceIndex)
		}
		faces[i] = Face{
			Index:     f.FaceIndex,
			BBox:      bboxRect(f.BBox),
			Embedding: f.Embedding,
			DetScore:  f.DetScore,
		}
	}
	return faces, nil
}

// Model returns the model name being used
func (c *HTTPExtractor) Model() string {
	return c.model
}

// Metric returns the distance metric for the server's embeddings.
func (c *HTTPExtractor) Metric() Metric {
	return c.metric
}

// Close releases idle connections.
func (c *HTTPExtractor) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

func bboxRect(bbox []float64) image.Rectangle {
	if len(bbox) != 4 {
		return image.Rectangle{}
	}
	return image.Rect(int(bbox[0]), int(bbox[1]), int(bbox[2]), int(bbox[3]))
}

// detectMIMEType detects the MIME type from image data
func detectMIMEType(data []byte) string {
	if len(data) < 8 {
		return "application/octet-stream"
	}
	// JPEG: FF D8 FF
	if data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF {
		return "image/jpeg"
	}
	// PNG: 89 50 4E 47 0D 0A 1A 0A
	if data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47 {
		return "image/png"
	}
	return "application/octet-stream"
}
