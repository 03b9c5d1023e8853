package app

import "errors"

var (
	// ErrCameraAcquisition камера не выдала поток: нет доступа, нет устройства или ограничения невыполнимы
	ErrCameraAcquisition = errors.New("camera acquisition failed")
	// ErrSessionActive сеанс уже запущен
	ErrSessionActive = errors.New("detection session is already active")
	// ErrNotActive нет активного сеанса
	ErrNotActive = errors.New("detection session is not active")
	// ErrTorchUnsupported камера не умеет включать фонарик
	ErrTorchUnsupported = errors.New("torch is not supported by this camera")
	// ErrNoFrame ещё не обработан ни один кадр
	ErrNoFrame = errors.New("no frame available yet")
	// ErrDetectorNotReady детектор не загружен
	ErrDetectorNotReady = errors.New("detector is not ready")
)
