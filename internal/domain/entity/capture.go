package entity

import (
	"time"

	"github.com/google/uuid"
)

// Capture снимок кадра с нарисованными оверлеями.
type Capture struct {
	ID        string     // идентификатор снимка
	Width     int        // ширина в пикселях исходного кадра
	Height    int        // высота в пикселях исходного кадра
	Facing    FacingMode // с какой камеры снято
	Overlays  []Overlay  // оверлеи, попавшие на снимок
	PNG       []byte     // закодированное изображение
	CreatedAt time.Time
}

// NewCapture создаёт снимок с новым идентификатором
func NewCapture(width, height int, facing FacingMode, overlays []Overlay, png []byte) *Capture {
	return &Capture{
		ID:        uuid.NewString(),
		Width:     width,
		Height:    height,
		Facing:    facing,
		Overlays:  overlays,
		PNG:       png,
		CreatedAt: time.Now(),
	}
}

// Filename имя файла для скачивания
func (c *Capture) Filename() string {
	return "capture-" + c.CreatedAt.Format("20060102-150405") + ".png"
}
