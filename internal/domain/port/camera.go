package port

import (
	"context"
	"image"

	"live-detect/internal/domain/entity"
)

// Constraints параметры запроса камеры
type Constraints struct {
	Facing      entity.FacingMode
	IdealWidth  int
	IdealHeight int
}

// TrackCapabilities возможности видеодорожки
type TrackCapabilities struct {
	Torch bool
}

// TrackConstraints ограничения, применяемые к дорожке на лету
type TrackConstraints struct {
	Torch bool
}

// Track одна дорожка медиапотока
type Track interface {
	Kind() string
	Live() bool
	Stop()
	Capabilities() TrackCapabilities
	ApplyConstraints(ctx context.Context, c TrackConstraints) error
}

// Stream открытый поток с камеры
type Stream interface {
	// Read возвращает текущий кадр в родном разрешении. Блокируется до появления кадра.
	Read(ctx context.Context) (image.Image, error)

	// Size родное разрешение потока
	Size() (width, height int)

	// Tracks все дорожки потока
	Tracks() []Track

	// VideoTrack первая видеодорожка или nil
	VideoTrack() Track
}

// Camera источник видеопотоков
type Camera interface {
	// Open запрашивает поток. Ошибка означает отказ в доступе, отсутствие камеры
	// или невыполнимые ограничения.
	Open(ctx context.Context, c Constraints) (Stream, error)
}
