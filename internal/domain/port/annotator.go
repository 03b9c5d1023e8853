package port

import (
	"image"

	"live-detect/internal/domain/entity"
)

// Annotator рисует оверлеи поверх кадра и кодирует результат
type Annotator interface {
	// Annotate возвращает PNG того же размера, что и кадр
	Annotate(frame image.Image, overlays []entity.Overlay) ([]byte, error)
}
