//go:build dlib

package embedding

import (
	"context"
	"fmt"
	"sync"

	face "github.com/Kagami/go-face"
	"go.uber.org/zap"
)

// dlibExtractor runs the dlib ResNet model in-process through go-face.
// The models directory must contain shape_predictor_5_face_landmarks.dat,
// dlib_face_recognition_resnet_model_v1.dat and, for CNN detection,
// mmod_human_face_detector.dat (https://github.com/davisking/dlib-models).
type dlibExtractor struct {
	mu     sync.Mutex // go-face recognizers are not safe for concurrent use
	rec    *face.Recognizer
	cnn    bool
	model  string
	logger *zap.Logger
}

func newDlibExtractor(modelsDir string, cnn bool, model string, logger *zap.Logger) (Extractor, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	logger.Debug("loading dlib models", zap.String("dir", modelsDir), zap.Bool("cnn", cnn))
	rec, err := face.NewRecognizer(modelsDir)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load dlib models from %s: %v", ErrUnavailable, modelsDir, err)
	}

	return &dlibExtractor{rec: rec, cnn: cnn, model: model, logger: logger}, nil
}

func (d *dlibExtractor) Detect(ctx context.Context, jpegData []byte) ([]Face, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	var (
		found []face.Face
		err   error
	)
	if d.cnn {
		found, err = d.rec.RecognizeCNN(jpegData)
	} else {
		found, err = d.rec.Recognize(jpegData)
	}
	if err != nil {
		return nil, fmt.Errorf("dlib recognition failed: %w", err)
	}

	faces := make([]Face, len(found))
	for i, f := range found {
		emb := make([]float32, len(f.Descriptor))
		copy(emb, f.Descriptor[:])
		faces[i] = Face{
			Index:     i,
			BBox:      f.Rectangle,
			Embedding: emb,
			DetScore:  1.0, // go-face doesn't report detector confidence
		}
	}
	return faces, nil
}

func (d *dlibExtractor) Model() string {
	return d.model
}

func (d *dlibExtractor) Metric() Metric {
	return MetricEuclidean
}

func (d *dlibExtractor) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.rec != nil {
		d.rec.Close()
		d.rec = nil
	}
	return nil
}
