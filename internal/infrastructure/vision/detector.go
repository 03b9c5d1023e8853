//go:build gocv
// +build gocv

package vision

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"live-detect/internal/domain/entity"
)

// DNNDetector детектор объектов на SSD-модели через OpenCV DNN
type DNNDetector struct {
	net    gocv.Net
	mu     sync.Mutex
	cfg    DNNConfig
	labels Labels
}

// NewDNNDetector загружает модель. Путь к конфигу нужен для Caffe/TensorFlow моделей, для ONNX пустой.
func NewDNNDetector(cfg DNNConfig) (*DNNDetector, error) {
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model file not found: %s", cfg.ModelPath)
	}

	net := gocv.ReadNet(cfg.ModelPath, cfg.ConfigPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load model from %s", cfg.ModelPath)
	}
	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	labels, err := cfg.Labels()
	if err != nil {
		net.Close()
		return nil, err
	}

	return &DNNDetector{net: net, cfg: cfg, labels: labels}, nil
}

// Detect прогоняет кадр через сеть и возвращает детекции в пикселях кадра
func (d *DNNDetector) Detect(ctx context.Context, frame image.Image) ([]entity.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mat, err := gocv.ImageToMatRGB(frame)
	if err != nil {
		return nil, fmt.Errorf("convert frame: %w", err)
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, errors.New("empty image")
	}

	imgW := float32(mat.Cols())
	imgH := float32(mat.Rows())

	blob := gocv.BlobFromImage(mat, d.cfg.Scale, image.Pt(d.cfg.InputWidth, d.cfg.InputHeight),
		gocv.NewScalar(d.cfg.Mean, d.cfg.Mean, d.cfg.Mean, 0), true, false)
	defer blob.Close()

	d.mu.Lock()
	d.net.SetInput(blob, "")
	output := d.net.Forward("")
	d.mu.Unlock()
	defer output.Close()

	// Выход SSD: [1, 1, N, 7], строка = imageId, classId, confidence, left, top, right, bottom (0..1).
	detections := make([]entity.Detection, 0)
	for i := 0; i < output.Total(); i += 7 {
		score := output.GetFloatAt(0, i+2)
		if score < d.cfg.MinScore {
			continue
		}
		classID := int(output.GetFloatAt(0, i+1))
		left := clamp01(output.GetFloatAt(0, i+3)) * imgW
		top := clamp01(output.GetFloatAt(0, i+4)) * imgH
		right := clamp01(output.GetFloatAt(0, i+5)) * imgW
		bottom := clamp01(output.GetFloatAt(0, i+6)) * imgH
		if right <= left || bottom <= top {
			continue
		}

		detections = append(detections, entity.Detection{
			Label: d.labels.Name(classID),
			Score: float64(score),
			Box: entity.BoundingBox{
				X:      float64(left),
				Y:      float64(top),
				Width:  float64(right - left),
				Height: float64(bottom - top),
			},
		})
	}

	return detections, nil
}

// Close освобождает сеть
func (d *DNNDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
