// Package camera содержит источники видеопотоков: OpenCV-камеру и синтетическую.
package camera

import (
	"context"
	"errors"
	"sync"

	"live-detect/internal/domain/port"
)

// ErrStreamStopped поток уже остановлен
var ErrStreamStopped = errors.New("stream stopped")

// TorchFunc применяет состояние фонарика к устройству
type TorchFunc func(ctx context.Context, on bool) error

// VideoTrack видеодорожка с флагом жизни и необязательным фонариком
type VideoTrack struct {
	mu      sync.Mutex
	live    bool
	torch   TorchFunc
	onStop  func()
	stopped chan struct{}
}

// NewVideoTrack создаёт живую дорожку. torch == nil означает, что фонарика нет.
func NewVideoTrack(torch TorchFunc, onStop func()) *VideoTrack {
	return &VideoTrack{
		live:    true,
		torch:   torch,
		onStop:  onStop,
		stopped: make(chan struct{}),
	}
}

func (t *VideoTrack) Kind() string { return "video" }

// Live сообщает, что дорожка ещё не остановлена
func (t *VideoTrack) Live() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.live
}

// Stop останавливает дорожку. Повторный вызов ничего не делает.
func (t *VideoTrack) Stop() {
	t.mu.Lock()
	if !t.live {
		t.mu.Unlock()
		return
	}
	t.live = false
	close(t.stopped)
	onStop := t.onStop
	t.mu.Unlock()

	if onStop != nil {
		onStop()
	}
}

// Done закрывается при остановке дорожки
func (t *VideoTrack) Done() <-chan struct{} {
	return t.stopped
}

func (t *VideoTrack) Capabilities() port.TrackCapabilities {
	return port.TrackCapabilities{Torch: t.torch != nil}
}

// ApplyConstraints применяет ограничения. Фонарик на устройстве без него не ошибка: запрос просто игнорируется.
func (t *VideoTrack) ApplyConstraints(ctx context.Context, c port.TrackConstraints) error {
	if !t.Live() {
		return ErrStreamStopped
	}
	if t.torch == nil {
		return nil
	}
	return t.torch(ctx, c.Torch)
}

var _ port.Track = (*VideoTrack)(nil)
