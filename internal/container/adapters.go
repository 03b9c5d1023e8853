package container

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"live-detect/config"
	app "live-detect/internal/application"
	"live-detect/internal/domain/entity"
	"live-detect/internal/domain/port"
	"live-detect/internal/infrastructure/camera"
	"live-detect/internal/infrastructure/vision"
)

// ControllerConfig переводит настройки сервиса в настройки контроллера
func ControllerConfig(cfg *config.Config) (app.ControllerConfig, error) {
	facing, err := entity.ParseFacingMode(cfg.DefaultFacing)
	if err != nil {
		return app.ControllerConfig{}, err
	}
	return app.ControllerConfig{
		IdealWidth:       cfg.CameraWidth,
		IdealHeight:      cfg.CameraHeight,
		DefaultFacing:    facing,
		DetectTimeout:    cfg.DetectTimeout,
		FailurePolicy:    app.FailurePolicy(cfg.FailurePolicy),
		MaxRetries:       cfg.MaxDetectRetries,
		RetryBackoff:     cfg.RetryBackoff,
		StopAfterCapture: cfg.StopAfterCapture,
	}, nil
}

// NewCamera выбирает камеру по CAMERA_DRIVER
func NewCamera(cfg *config.Config) port.Camera {
	if cfg.CameraDriver == "synthetic" {
		cam := camera.NewSyntheticCamera()
		// Разрешение берётся из запроса
		cam.Width, cam.Height = 0, 0
		return cam
	}
	return camera.NewGoCVCamera(cfg.CameraFrontDevice, cfg.CameraBackDevice)
}

// NewDetector выбирает детектор по DETECTOR. Вторым значением возвращается функция освобождения ресурсов.
// Если модель не загрузилась, детектор равен nil: сервис работает, но запуск детекции отклоняется.
func NewDetector(ctx context.Context, cfg *config.Config, logger *slog.Logger) (port.ObjectDetector, func()) {
	switch cfg.Detector {
	case "http":
		d := vision.NewHTTPDetector(cfg.InferenceURL, httpTimeout(cfg.DetectTimeout))
		if err := d.CheckHealth(ctx); err != nil {
			// Сервис модели может подняться позже, детектор всё равно подключаем.
			logger.Warn("inference service is not healthy", "url", cfg.InferenceURL, "error", err)
		}
		return d, func() {}

	default:
		dnn := vision.DefaultDNNConfig()
		dnn.ModelPath = cfg.ModelPath
		dnn.ConfigPath = cfg.ModelConfigPath
		dnn.LabelsPath = cfg.LabelsPath

		d, err := vision.NewDNNDetector(dnn)
		if err != nil {
			logger.Error("failed to load model", "path", cfg.ModelPath, "error", fmt.Errorf("dnn detector: %w", err))
			return nil, func() {}
		}
		return d, func() { _ = d.Close() }
	}
}

func httpTimeout(detectTimeout time.Duration) time.Duration {
	if detectTimeout > 0 {
		return detectTimeout
	}
	return 30 * time.Second
}
