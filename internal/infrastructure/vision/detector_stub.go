//go:build !gocv
// +build !gocv

package vision

import (
	"context"
	"errors"
	"image"

	"live-detect/internal/domain/entity"
)

// DNNDetector детектор-заглушка (без OpenCV)
type DNNDetector struct {
	cfg DNNConfig
}

// NewDNNDetector возвращает ошибку, если сборка без тега gocv.
func NewDNNDetector(cfg DNNConfig) (*DNNDetector, error) {
	return nil, errors.New("gocv build tag is not enabled")
}

// Detect возвращает ошибку, если сборка без тега gocv.
func (d *DNNDetector) Detect(ctx context.Context, frame image.Image) ([]entity.Detection, error) {
	_ = ctx
	_ = frame
	return nil, errors.New("gocv build tag is not enabled")
}

// Close ничего не делает.
func (d *DNNDetector) Close() error {
	return nil
}
