package port

import (
	"context"
	"image"

	"live-detect/internal/domain/entity"
)

// ObjectDetector интерфейс внешнего детектора объектов
type ObjectDetector interface {
	// Detect находит объекты на кадре. Координаты рамок в пикселях кадра.
	Detect(ctx context.Context, frame image.Image) ([]entity.Detection, error)
}
