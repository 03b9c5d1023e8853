//go:build !gocv
// +build !gocv

package camera

import (
	"context"
	"errors"

	"live-detect/internal/domain/port"
)

// GoCVCamera заглушка камеры (без OpenCV)
type GoCVCamera struct {
	FrontDevice int
	BackDevice  int
}

// NewGoCVCamera создаёт камеру-заглушку (без OpenCV).
func NewGoCVCamera(frontDevice, backDevice int) *GoCVCamera {
	return &GoCVCamera{FrontDevice: frontDevice, BackDevice: backDevice}
}

// Open возвращает ошибку, если сборка без тега gocv.
func (c *GoCVCamera) Open(ctx context.Context, cons port.Constraints) (port.Stream, error) {
	_ = ctx
	_ = cons
	return nil, errors.New("gocv build tag is not enabled")
}
