//go:build !dlib

package embedding

import (
	"fmt"

	"go.uber.org/zap"
)

func newDlibExtractor(_ string, _ bool, _ string, _ *zap.Logger) (Extractor, error) {
	return nil, fmt.Errorf("%w: built without dlib support (rebuild with -tags dlib or set FACE_EXTRACTOR=http)", ErrUnavailable)
}
