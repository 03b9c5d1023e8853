package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildOverlays_OnlyConfidentDetections(t *testing.T) {
	detections := []Detection{
		{Label: "cat", Score: 0.9, Box: BoundingBox{X: 10, Y: 20, Width: 100, Height: 50}},
		{Label: "dog", Score: 0.5, Box: BoundingBox{X: 0, Y: 0, Width: 10, Height: 10}},
	}

	overlays := BuildOverlays(detections)
	require.Len(t, overlays, 2)

	box := overlays[0]
	require.Equal(t, OverlayBox, box.Kind)
	require.Equal(t, 10.0, box.X)
	require.Equal(t, 20.0, box.Y)
	require.Equal(t, 100.0, box.Width)
	require.Equal(t, 50.0, box.Height)

	label := overlays[1]
	require.Equal(t, OverlayLabel, label.Kind)
	require.Equal(t, "cat - with 90% confidence.", label.Text)
	require.Equal(t, 10.0, label.X)
	require.Equal(t, 10.0, label.Y)
	require.Equal(t, 90.0, label.Width)
}

func TestBuildOverlays_ThresholdIsExclusive(t *testing.T) {
	overlays := BuildOverlays([]Detection{{Label: "cup", Score: ConfidenceThreshold}})
	require.Empty(t, overlays)
}

func TestBuildOverlays_KeepsDetectorOrder(t *testing.T) {
	detections := []Detection{
		{Label: "b", Score: 0.7},
		{Label: "a", Score: 0.99},
		{Label: "b", Score: 0.8},
	}

	overlays := BuildOverlays(detections)
	require.Len(t, overlays, 6)
	require.Equal(t, "b - with 70% confidence.", overlays[1].Text)
	require.Equal(t, "a - with 99% confidence.", overlays[3].Text)
	require.Equal(t, "b - with 80% confidence.", overlays[5].Text)
}

func TestBuildOverlays_Empty(t *testing.T) {
	require.Empty(t, BuildOverlays(nil))
}
