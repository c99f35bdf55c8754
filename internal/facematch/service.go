package facematch

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/kozaktomas/face-attendance/internal/embedding"
	"github.com/kozaktomas/face-attendance/internal/gallery"
	"github.com/kozaktomas/face-attendance/internal/imageio"
	"github.com/kozaktomas/face-attendance/internal/logging"
)

// ServiceConfig wires a Service.
type ServiceConfig struct {
	Extractor    embedding.Extractor
	Store        *gallery.Store
	Matcher      Matcher
	MaxDim       int // images are downscaled to fit before extraction
	Logger       *zap.Logger
	InvocationID string
}

// Service runs the policies against the persisted gallery. Every mutation is a
// single locked load-append-save on the store.
type Service struct {
	extractor    embedding.Extractor
	store        *gallery.Store
	matcher      Matcher
	maxDim       int
	logger       *zap.Logger
	invocationID string
}

// NewService creates a new service.
func NewService(cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		extractor:    cfg.Extractor,
		store:        cfg.Store,
		matcher:      cfg.Matcher,
		maxDim:       cfg.MaxDim,
		logger:       logger,
		invocationID: cfg.InvocationID,
	}
}

// detect extracts the single face of a JPEG image.
func (s *Service) detect(ctx context.Context, jpegData []byte) (embedding.Face, error) {
	faces, err := s.extractor.Detect(ctx, jpegData)
	if err != nil {
		wrapped := logging.NewOperationError("embedding.detect", s.invocationID, err)
		s.logger.Error("face extraction failed", zap.Error(wrapped))
		return embedding.Face{}, wrapped
	}
	s.logger.Debug("faces detected", zap.Int("count", len(faces)))
	return SingleFace(faces)
}

// Register extracts the face in the image and registers it under identifier.
// It returns the normalized identifier that was stored.
func (s *Service) Register(ctx context.Context, jpegData []byte, identifier string) (string, error) {
	if NormalizeIdentifier(identifier) == "" {
		return "", ErrEmptyIdentifier
	}

	face, err := s.detect(ctx, jpegData)
	if err != nil {
		return "", err
	}

	var stored string
	var size int
	err = s.store.Update(ctx, func(g *gallery.Gallery) error {
		id, err := s.matcher.Register(g, face.Embedding, identifier)
		if err != nil {
			return err
		}
		stored = id
		size = g.Len()
		return nil
	})
	if err != nil {
		s.logger.Info("registration rejected", zap.String("student_id", identifier), zap.Error(err))
		return "", err
	}

	s.logger.Info("face registered", zap.String("student_id", stored), zap.Int("gallery_size", size))
	return stored, nil
}

// Recognize extracts the face in the image and looks it up in the gallery.
func (s *Service) Recognize(ctx context.Context, jpegData []byte) (Result, error) {
	face, err := s.detect(ctx, jpegData)
	if err != nil {
		return Result{}, err
	}

	var result Result
	err = s.store.View(ctx, func(g *gallery.Gallery) error {
		result = s.matcher.Recognize(g, face.Embedding)
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	if result.Kind == KindError {
		s.logger.Error("recognition failed", zap.Error(result.Err))
		return result, nil
	}

	s.logger.Info("recognition finished",
		zap.String("outcome", string(result.Kind)),
		zap.String("student_id", result.Identifier),
		zap.Float64("distance", result.Distance))
	return result, nil
}

// EnrollItem is one image to register during a bulk enrollment.
type EnrollItem struct {
	Identifier string
	Path       string
}

// EnrollFailure describes an item that was not registered.
type EnrollFailure struct {
	Identifier string
	Message    string
}

// EnrollReport summarizes a bulk enrollment.
type EnrollReport struct {
	Registered []string
	Failed     []EnrollFailure
}

type extraction struct {
	face embedding.Face
	err  error
}

// Enroll registers many images. Extraction runs on up to concurrency workers;
// registration then happens in item order inside one locked gallery update, so
// duplicates within the batch are caught too. Per-item failures are reported,
// not returned; only storage failures abort the enrollment.
func (s *Service) Enroll(ctx context.Context, items []EnrollItem, concurrency int, progress func()) (*EnrollReport, error) {
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]extraction, len(items))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i, item := range items {
		wg.Add(1)
		go func(i int, item EnrollItem) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			if progress != nil {
				defer progress()
			}

			img, err := imageio.Load(item.Path, s.maxDim)
			if err != nil {
				results[i] = extraction{err: err}
				return
			}
			face, err := s.detect(ctx, img.JPEG)
			results[i] = extraction{face: face, err: err}
		}(i, item)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := &EnrollReport{}
	err := s.store.Update(ctx, func(g *gallery.Gallery) error {
		for i, item := range items {
			if results[i].err != nil {
				report.Failed = append(report.Failed, EnrollFailure{Identifier: item.Identifier, Message: results[i].err.Error()})
				continue
			}
			id, err := s.matcher.Register(g, results[i].face.Embedding, item.Identifier)
			if err != nil {
				report.Failed = append(report.Failed, EnrollFailure{Identifier: item.Identifier, Message: err.Error()})
				continue
			}
			report.Registered = append(report.Registered, id)
		}
		if len(report.Registered) == 0 {
			return errNothingToSave
		}
		return nil
	})
	if err != nil && !errors.Is(err, errNothingToSave) {
		return nil, err
	}

	s.logger.Info("enrollment finished",
		zap.Int("registered", len(report.Registered)),
		zap.Int("failed", len(report.Failed)))
	return report, nil
}

var errNothingToSave = errors.New("nothing to save")
