package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"

	"live-detect/internal/domain/entity"
)

func solidFrame(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestAnnotate_KeepsNativeResolution(t *testing.T) {
	a, err := NewAnnotator()
	require.NoError(t, err)

	frame := solidFrame(320, 180, color.Black)
	overlays := entity.BuildOverlays([]entity.Detection{
		{Label: "cat", Score: 0.9, Box: entity.BoundingBox{X: 10, Y: 20, Width: 100, Height: 50}},
	})

	data, err := a.Annotate(frame, overlays)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, 320, img.Bounds().Dx())
	require.Equal(t, 180, img.Bounds().Dy())
}

func TestDraw_StrokesBoxOutline(t *testing.T) {
	a, err := NewAnnotator()
	require.NoError(t, err)

	frame := solidFrame(200, 200, color.Black)
	overlays := []entity.Overlay{{Kind: entity.OverlayBox, X: 50, Y: 50, Width: 100, Height: 100}}

	img, err := a.Draw(frame, overlays)
	require.NoError(t, err)

	r, _, _, _ := img.At(50, 100).RGBA()
	require.Greater(t, r, uint32(0x8000), "left edge must be red")

	r, g, b, _ := img.At(100, 100).RGBA()
	require.Zero(t, r+g+b, "inside of the box stays untouched")
}

func TestDraw_OffsetBounds(t *testing.T) {
	a, err := NewAnnotator()
	require.NoError(t, err)

	frame := image.NewRGBA(image.Rect(10, 10, 74, 58))
	img, err := a.Draw(frame, nil)
	require.NoError(t, err)
	require.Equal(t, 64, img.Bounds().Dx())
	require.Equal(t, 48, img.Bounds().Dy())
}

func TestDraw_EmptyFrame(t *testing.T) {
	a, err := NewAnnotator()
	require.NoError(t, err)

	_, err = a.Draw(nil, nil)
	require.Error(t, err)

	_, err = a.Draw(image.NewRGBA(image.Rect(0, 0, 0, 0)), nil)
	require.Error(t, err)
}
