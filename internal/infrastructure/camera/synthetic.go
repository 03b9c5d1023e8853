package camera

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"
	"time"

	"live-detect/internal/domain/entity"
	"live-detect/internal/domain/port"
)

// SyntheticCamera камера без железа: рисует градиент с бегущей полосой.
// Нужна для демо-режима и тестов.
type SyntheticCamera struct {
	// Width и Height родное разрешение. Если 0, берётся идеальное из запроса.
	Width  int
	Height int
	// FrameInterval пауза между кадрами
	FrameInterval time.Duration
	// Torch включает поддержку фонарика
	Torch bool
	// TorchErr если задана, устройство отклоняет смену фонарика с этой ошибкой
	TorchErr error
	// Unavailable камеры с этими сторонами нет
	Unavailable map[entity.FacingMode]bool

	mu     sync.Mutex
	opened []*SyntheticStream
	torch  bool
}

// NewSyntheticCamera создаёт синтетическую камеру 1280x720 с фонариком и ~30 кадрами в секунду
func NewSyntheticCamera() *SyntheticCamera {
	return &SyntheticCamera{
		Width:         1280,
		Height:        720,
		FrameInterval: 33 * time.Millisecond,
		Torch:         true,
	}
}

// Open выдаёт новый поток
func (c *SyntheticCamera) Open(ctx context.Context, cons port.Constraints) (port.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.Unavailable[cons.Facing] {
		return nil, fmt.Errorf("no %s camera", cons.Facing)
	}

	w, h := c.Width, c.Height
	if w == 0 || h == 0 {
		w, h = cons.IdealWidth, cons.IdealHeight
	}
	if w <= 0 || h <= 0 {
		return nil, errors.New("constraints unsatisfiable: empty resolution")
	}

	s := &SyntheticStream{
		width:    w,
		height:   h,
		facing:   cons.Facing,
		interval: c.FrameInterval,
	}
	var torch TorchFunc
	if c.Torch {
		torch = c.setTorch
	}
	s.track = NewVideoTrack(torch, nil)

	c.mu.Lock()
	c.opened = append(c.opened, s)
	c.mu.Unlock()

	return s, nil
}

// Streams все открытые когда-либо потоки
func (c *SyntheticCamera) Streams() []*SyntheticStream {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*SyntheticStream(nil), c.opened...)
}

// TorchOn текущее состояние фонарика
func (c *SyntheticCamera) TorchOn() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.torch
}

func (c *SyntheticCamera) setTorch(ctx context.Context, on bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.TorchErr != nil {
		return c.TorchErr
	}
	c.torch = on
	return nil
}

// SyntheticStream поток синтетической камеры
type SyntheticStream struct {
	width    int
	height   int
	facing   entity.FacingMode
	interval time.Duration
	track    *VideoTrack

	mu    sync.Mutex
	frame int
}

// Read ждёт интервал кадра и рисует следующий кадр
func (s *SyntheticStream) Read(ctx context.Context) (image.Image, error) {
	if s.interval > 0 {
		timer := time.NewTimer(s.interval)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-s.track.Done():
			return nil, ErrStreamStopped
		case <-timer.C:
		}
	}
	if !s.track.Live() {
		return nil, ErrStreamStopped
	}

	s.mu.Lock()
	n := s.frame
	s.frame++
	s.mu.Unlock()

	return s.render(n), nil
}

func (s *SyntheticStream) render(n int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	bar := n % s.width
	var tint uint8
	if s.facing == entity.FacingFront {
		tint = 0x60
	}
	for y := 0; y < s.height; y++ {
		for x := 0; x < s.width; x++ {
			c := color.RGBA{
				R: uint8(x * 255 / s.width),
				G: uint8(y * 255 / s.height),
				B: tint,
				A: 0xff,
			}
			if x >= bar && x < bar+8 {
				c = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func (s *SyntheticStream) Size() (int, int) {
	return s.width, s.height
}

func (s *SyntheticStream) Tracks() []port.Track {
	return []port.Track{s.track}
}

func (s *SyntheticStream) VideoTrack() port.Track {
	return s.track
}

// Facing с какой стороны открыт поток
func (s *SyntheticStream) Facing() entity.FacingMode {
	return s.facing
}

var (
	_ port.Camera = (*SyntheticCamera)(nil)
	_ port.Stream = (*SyntheticStream)(nil)
)
