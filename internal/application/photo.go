package app

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"live-detect/internal/domain/entity"
	"live-detect/internal/domain/port"
)

// PhotoService разовая детекция на присланной фотографии, без камеры и живого вида
type PhotoService struct {
	detector  port.ObjectDetector
	annotator port.Annotator
	captures  port.CaptureRepository
}

func NewPhotoService(detector port.ObjectDetector, annotator port.Annotator, captures port.CaptureRepository) *PhotoService {
	return &PhotoService{
		detector:  detector,
		annotator: annotator,
		captures:  captures,
	}
}

// Detect декодирует фото, ищет объекты и возвращает размеченный снимок.
// Оверлеи строятся по тем же правилам, что и в живом режиме.
func (s *PhotoService) Detect(ctx context.Context, data []byte, facing entity.FacingMode) (*entity.Capture, error) {
	if s.detector == nil {
		return nil, ErrDetectorNotReady
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode photo: %w", err)
	}

	detections, err := s.detector.Detect(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("detect: %w", err)
	}
	overlays := entity.BuildOverlays(detections)

	png, err := s.annotator.Annotate(img, overlays)
	if err != nil {
		return nil, fmt.Errorf("annotate photo: %w", err)
	}

	b := img.Bounds()
	capture := entity.NewCapture(b.Dx(), b.Dy(), facing, overlays, png)
	if s.captures != nil {
		if err := s.captures.Save(ctx, capture); err != nil {
			return nil, fmt.Errorf("save capture: %w", err)
		}
	}
	return capture, nil
}
