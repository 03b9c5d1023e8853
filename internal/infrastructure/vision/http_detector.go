package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"mime/multipart"
	"net"
	"net/http"
	"strings"
	"time"

	"live-detect/internal/domain/entity"
	"live-detect/internal/domain/port"
)

// DefaultJPEGQuality качество JPEG кадра, отправляемого в сервис
const DefaultJPEGQuality = 85

// HTTPDetector выполняет inference через внешний сервис с моделью
type HTTPDetector struct {
	inferenceURL string
	client       *http.Client
	quality      int
}

// NewHTTPDetector создаёт адаптер. timeout ограничивает один запрос, 0 означает без ограничения.
func NewHTTPDetector(inferenceURL string, timeout time.Duration) *HTTPDetector {
	return &HTTPDetector{
		inferenceURL: inferenceURL,
		client:       newHTTPClient(timeout),
		quality:      DefaultJPEGQuality,
	}
}

// wireDetection формат детекции в ответе сервиса
type wireDetection struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Class  string  `json:"class"`
	Conf   float64 `json:"confidence"`
}

// Detect отправляет кадр multipart-запросом и разбирает ответ
func (d *HTTPDetector) Detect(ctx context.Context, frame image.Image) ([]entity.Detection, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "frame.jpg")
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if err := jpeg.Encode(part, frame, &jpeg.Options{Quality: d.quality}); err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.inferenceURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("inference failed with status: %d", resp.StatusCode)
	}

	var result struct {
		Detections []wireDetection `json:"detections"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	detections := make([]entity.Detection, 0, len(result.Detections))
	for _, det := range result.Detections {
		detections = append(detections, entity.Detection{
			Label: det.Class,
			Score: det.Conf,
			Box: entity.BoundingBox{
				X:      det.X,
				Y:      det.Y,
				Width:  det.Width,
				Height: det.Height,
			},
		})
	}
	return detections, nil
}

// CheckHealth проверяет доступность сервиса по адресу <base>/health
func (d *HTTPDetector) CheckHealth(ctx context.Context) error {
	url := strings.TrimSuffix(d.inferenceURL, "/predict") + "/health"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ml service unhealthy: %d", resp.StatusCode)
	}
	return nil
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

var _ port.ObjectDetector = (*HTTPDetector)(nil)
