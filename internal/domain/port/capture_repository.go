package port

import (
	"context"
	"errors"

	"live-detect/internal/domain/entity"
)

// ErrCaptureNotFound снимок с таким идентификатором не найден
var ErrCaptureNotFound = errors.New("capture not found")

// CaptureRepository интерфейс хранилища снимков
type CaptureRepository interface {
	// Save сохраняет снимок
	Save(ctx context.Context, capture *entity.Capture) error

	// Get возвращает снимок по ID или ErrCaptureNotFound
	Get(ctx context.Context, id string) (*entity.Capture, error)

	// List возвращает снимки, новые первыми
	List(ctx context.Context) ([]*entity.Capture, error)
}
