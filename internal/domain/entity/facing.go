package entity

import (
	"fmt"
	"strings"
)

// FacingMode выбор камеры: фронтальная или основная
type FacingMode string

const (
	FacingFront FacingMode = "front" // фронтальная камера
	FacingBack  FacingMode = "back"  // основная (тыльная) камера
)

// Opposite возвращает противоположную камеру
func (f FacingMode) Opposite() FacingMode {
	if f == FacingFront {
		return FacingBack
	}
	return FacingFront
}

func (f FacingMode) String() string {
	return string(f)
}

// ParseFacingMode разбирает режим камеры. Понимает и браузерные имена user/environment.
func ParseFacingMode(s string) (FacingMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "front", "user":
		return FacingFront, nil
	case "back", "rear", "environment", "":
		return FacingBack, nil
	default:
		return "", fmt.Errorf("unknown facing mode %q", s)
	}
}
