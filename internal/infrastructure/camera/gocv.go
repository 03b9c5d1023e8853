//go:build gocv
// +build gocv

package camera

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"

	"live-detect/internal/domain/entity"
	"live-detect/internal/domain/port"
)

// GoCVCamera камера через OpenCV. Сторона выбирается по номеру устройства.
type GoCVCamera struct {
	FrontDevice int
	BackDevice  int
}

// NewGoCVCamera создаёт камеру с номерами устройств для фронтальной и основной стороны
func NewGoCVCamera(frontDevice, backDevice int) *GoCVCamera {
	return &GoCVCamera{FrontDevice: frontDevice, BackDevice: backDevice}
}

// Open открывает устройство и просит у него идеальное разрешение
func (c *GoCVCamera) Open(ctx context.Context, cons port.Constraints) (port.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	device := c.BackDevice
	if cons.Facing == entity.FacingFront {
		device = c.FrontDevice
	}

	webcam, err := gocv.VideoCaptureDevice(device)
	if err != nil {
		return nil, fmt.Errorf("open device %d: %w", device, err)
	}
	if !webcam.IsOpened() {
		webcam.Close()
		return nil, fmt.Errorf("device %d is not available", device)
	}

	// Разрешение только пожелание, камера может выбрать ближайшее поддерживаемое.
	if cons.IdealWidth > 0 && cons.IdealHeight > 0 {
		webcam.Set(gocv.VideoCaptureFrameWidth, float64(cons.IdealWidth))
		webcam.Set(gocv.VideoCaptureFrameHeight, float64(cons.IdealHeight))
	}

	s := &gocvStream{
		webcam: webcam,
		frame:  gocv.NewMat(),
		width:  int(webcam.Get(gocv.VideoCaptureFrameWidth)),
		height: int(webcam.Get(gocv.VideoCaptureFrameHeight)),
	}
	// OpenCV не управляет фонариком, поэтому дорожка без него.
	s.track = NewVideoTrack(nil, s.close)
	return s, nil
}

type gocvStream struct {
	mu     sync.Mutex
	webcam *gocv.VideoCapture
	frame  gocv.Mat
	closed bool
	width  int
	height int
	track  *VideoTrack
}

// Read читает кадр и переводит его в image.Image
func (s *gocvStream) Read(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStreamStopped
	}
	if !s.webcam.Read(&s.frame) {
		return nil, errors.New("cannot read frame")
	}
	if s.frame.Empty() {
		return nil, errors.New("frame is empty")
	}
	return s.frame.ToImage()
}

func (s *gocvStream) Size() (int, int) {
	return s.width, s.height
}

func (s *gocvStream) Tracks() []port.Track {
	return []port.Track{s.track}
}

func (s *gocvStream) VideoTrack() port.Track {
	return s.track
}

func (s *gocvStream) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.webcam.Close()
	s.frame.Close()
}
