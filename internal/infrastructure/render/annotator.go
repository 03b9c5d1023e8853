// Package render рисует оверлеи поверх кадров для снимков.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"

	"live-detect/internal/domain/entity"
	"live-detect/internal/domain/port"
)

// Настройки по умолчанию совпадают с живым видом: красная рамка 2px, подпись 16px.
const (
	DefaultLineWidth = 2.0
	DefaultFontSize  = 16.0
)

// DefaultColor цвет рамок и подписей
var DefaultColor = color.RGBA{R: 255, A: 255}

// Annotator рисует рамки и подписи средствами gg
type Annotator struct {
	LineWidth float64
	FontSize  float64
	Color     color.Color
	font      *truetype.Font
}

// NewAnnotator создаёт рисовальщик со шрифтом Go Regular
func NewAnnotator() (*Annotator, error) {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return &Annotator{
		LineWidth: DefaultLineWidth,
		FontSize:  DefaultFontSize,
		Color:     DefaultColor,
		font:      f,
	}, nil
}

// Draw возвращает копию кадра в родном разрешении с нарисованными оверлеями
func (a *Annotator) Draw(frame image.Image, overlays []entity.Overlay) (image.Image, error) {
	dc, err := a.draw(frame, overlays)
	if err != nil {
		return nil, err
	}
	return dc.Image(), nil
}

// Annotate рисует оверлеи и кодирует результат в PNG
func (a *Annotator) Annotate(frame image.Image, overlays []entity.Overlay) ([]byte, error) {
	dc, err := a.draw(frame, overlays)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func (a *Annotator) draw(frame image.Image, overlays []entity.Overlay) (*gg.Context, error) {
	if frame == nil {
		return nil, errors.New("empty frame")
	}
	b := frame.Bounds()
	if b.Empty() {
		return nil, errors.New("empty frame")
	}

	dc := gg.NewContext(b.Dx(), b.Dy())
	dc.DrawImage(frame, -b.Min.X, -b.Min.Y)

	dc.SetColor(a.Color)
	dc.SetFontFace(truetype.NewFace(a.font, &truetype.Options{Size: a.FontSize}))
	for _, o := range overlays {
		switch o.Kind {
		case entity.OverlayBox:
			dc.SetLineWidth(a.LineWidth)
			dc.DrawRectangle(o.X, o.Y, o.Width, o.Height)
			dc.Stroke()
		case entity.OverlayLabel:
			// Y подписи задаёт базовую линию текста.
			dc.DrawString(o.Text, o.X, o.Y)
		}
	}

	return dc, nil
}

var _ port.Annotator = (*Annotator)(nil)
