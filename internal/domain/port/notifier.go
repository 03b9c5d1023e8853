package port

import (
	"context"

	"live-detect/internal/domain/entity"
)

// CaptureNotifier получает готовые снимки (например, отправляет их в чат)
type CaptureNotifier interface {
	NotifyCapture(ctx context.Context, capture *entity.Capture) error
}
