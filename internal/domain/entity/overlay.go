package entity

import (
	"fmt"
	"math"
)

// OverlayKind тип элемента поверх видео
type OverlayKind string

const (
	OverlayBox   OverlayKind = "box"   // рамка вокруг объекта
	OverlayLabel OverlayKind = "label" // подпись с классом и уверенностью
)

// labelOffset на сколько пикселей подпись поднята над рамкой и сужена относительно неё
const labelOffset = 10

// Overlay элемент, нарисованный поверх живого видео
type Overlay struct {
	Kind   OverlayKind `json:"kind"`
	Text   string      `json:"text,omitempty"`
	X      float64     `json:"x"`
	Y      float64     `json:"y"`
	Width  float64     `json:"width"`
	Height float64     `json:"height,omitempty"`
}

// LabelText формирует подпись вида "cat - with 90% confidence."
func LabelText(d Detection) string {
	return fmt.Sprintf("%s - with %d%% confidence.", d.Label, int(math.Round(d.Score*100)))
}

// BuildOverlays превращает результат детектора в элементы оверлея.
// На каждую видимую детекцию приходится одна рамка и одна подпись, порядок совпадает с выдачей детектора.
func BuildOverlays(detections []Detection) []Overlay {
	overlays := make([]Overlay, 0, 2*len(detections))
	for _, d := range detections {
		if !d.Visible() {
			continue
		}
		overlays = append(overlays,
			Overlay{
				Kind:   OverlayBox,
				X:      d.Box.X,
				Y:      d.Box.Y,
				Width:  d.Box.Width,
				Height: d.Box.Height,
			},
			Overlay{
				Kind:  OverlayLabel,
				Text:  LabelText(d),
				X:     d.Box.X,
				Y:     d.Box.Y - labelOffset,
				Width: d.Box.Width - labelOffset,
			},
		)
	}
	return overlays
}
