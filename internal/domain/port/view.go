package port

import "live-detect/internal/domain/entity"

// OverlayView живое отображение оверлеев
type OverlayView interface {
	// Render заменяет все текущие оверлеи новыми
	Render(overlays []entity.Overlay)

	// Clear убирает все оверлеи
	Clear()
}
