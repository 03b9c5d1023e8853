package port

import (
	"context"

	"live-detect/internal/domain/entity"
)

// DetectionController команды управления сеансом детекции, которыми пользуются HTTP API и бот
type DetectionController interface {
	Start(ctx context.Context, facing entity.FacingMode) error
	Stop()
	Toggle(ctx context.Context) (bool, error)
	ToggleCamera(ctx context.Context) error
	ToggleTorch(ctx context.Context) (bool, error)
	CaptureFrame(ctx context.Context) (*entity.Capture, error)
	Status() entity.Status
}
