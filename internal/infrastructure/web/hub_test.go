package web

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"live-detect/internal/domain/entity"
)

func newTestHub() *Hub {
	return NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestHub_BroadcastAndReplayLast(t *testing.T) {
	h := newTestHub()
	first := h.register()

	h.Broadcast([]byte("one"))
	require.Equal(t, []byte("one"), <-first.send)

	late := h.register()
	require.Equal(t, []byte("one"), <-late.send)
	require.Equal(t, 2, h.ClientCount())

	h.unregister(first)
	h.unregister(first)
	require.Equal(t, 1, h.ClientCount())
}

func TestHub_DropsSlowClient(t *testing.T) {
	h := newTestHub()
	c := h.register()

	for i := 0; i < sendBuffer+1; i++ {
		h.Broadcast([]byte("x"))
	}
	require.Zero(t, h.ClientCount())

	// Канал закрыт после вычитывания буфера.
	n := 0
	for range c.send {
		n++
	}
	require.Equal(t, sendBuffer, n)
}

func TestLiveView_RenderAndClear(t *testing.T) {
	h := newTestHub()
	c := h.register()
	view := NewLiveView(h)

	overlays := entity.BuildOverlays([]entity.Detection{
		{Label: "cat", Score: 0.9, Box: entity.BoundingBox{X: 10, Y: 20, Width: 100, Height: 50}},
	})
	view.Render(overlays)

	var msg ViewMessage
	require.NoError(t, json.Unmarshal(<-c.send, &msg))
	require.Equal(t, "overlays", msg.Type)
	require.Equal(t, overlays, msg.Overlays)

	view.Clear()
	require.NoError(t, json.Unmarshal(<-c.send, &msg))
	require.Equal(t, "clear", msg.Type)
	require.Empty(t, msg.Overlays)
}
