package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config настройки сервиса
type Config struct {
	HTTPPort string
	LogLevel string

	TelegramToken  string
	TelegramChatID int64 // куда отправлять снимки, 0 отключает уведомления

	CameraDriver      string // gocv | synthetic
	CameraFrontDevice int
	CameraBackDevice  int
	CameraWidth       int
	CameraHeight      int
	DefaultFacing     string

	Detector        string // gocv | http
	ModelPath       string
	ModelConfigPath string
	LabelsPath      string
	InferenceURL    string

	DetectTimeout    time.Duration
	FailurePolicy    string // stop | retry
	MaxDetectRetries int
	RetryBackoff     time.Duration
	StopAfterCapture bool
	CaptureLimit     int
}

// Load читает .env (если есть) и переменные окружения
func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	var errs []string
	cfg := &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		TelegramToken:   os.Getenv("TELEGRAM_TOKEN"),
		CameraDriver:    getEnv("CAMERA_DRIVER", "gocv"),
		DefaultFacing:   getEnv("CAMERA_FACING", "back"),
		Detector:        getEnv("DETECTOR", "gocv"),
		ModelPath:       getEnv("MODEL_PATH", "models/ssd_mobilenet_v2_coco.pb"),
		ModelConfigPath: getEnv("MODEL_CONFIG_PATH", "models/ssd_mobilenet_v2_coco.pbtxt"),
		LabelsPath:      os.Getenv("LABELS_PATH"),
		InferenceURL:    getEnv("INFERENCE_URL", "http://localhost:5000/predict"),
		FailurePolicy:   getEnv("DETECTOR_FAILURE_POLICY", "stop"),
	}

	cfg.TelegramChatID = int64(getInt("TELEGRAM_CHAT_ID", 0, &errs))
	cfg.CameraFrontDevice = getInt("CAMERA_FRONT_DEVICE", 0, &errs)
	cfg.CameraBackDevice = getInt("CAMERA_BACK_DEVICE", 1, &errs)
	cfg.CameraWidth = getInt("CAMERA_WIDTH", 1280, &errs)
	cfg.CameraHeight = getInt("CAMERA_HEIGHT", 720, &errs)
	cfg.MaxDetectRetries = getInt("MAX_DETECT_RETRIES", 3, &errs)
	cfg.CaptureLimit = getInt("CAPTURE_LIMIT", 50, &errs)
	cfg.DetectTimeout = getDuration("DETECT_TIMEOUT", 0, &errs)
	cfg.RetryBackoff = getDuration("RETRY_BACKOFF", 500*time.Millisecond, &errs)
	cfg.StopAfterCapture = getBool("STOP_AFTER_CAPTURE", true, &errs)

	errs = append(errs, cfg.Validate()...)
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid config: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

// Validate проверяет значения и возвращает список ошибок, nil если всё в порядке
func (c *Config) Validate() []string {
	var errs []string

	switch c.CameraDriver {
	case "gocv", "synthetic":
	default:
		errs = append(errs, "CAMERA_DRIVER must be gocv or synthetic")
	}
	switch c.Detector {
	case "gocv", "http":
	default:
		errs = append(errs, "DETECTOR must be gocv or http")
	}
	switch c.FailurePolicy {
	case "stop", "retry":
	default:
		errs = append(errs, "DETECTOR_FAILURE_POLICY must be stop or retry")
	}
	switch strings.ToLower(c.DefaultFacing) {
	case "front", "back", "user", "environment":
	default:
		errs = append(errs, "CAMERA_FACING must be front or back")
	}
	if c.CameraWidth <= 0 || c.CameraHeight <= 0 {
		errs = append(errs, "CAMERA_WIDTH and CAMERA_HEIGHT must be positive")
	}
	if c.MaxDetectRetries < 0 {
		errs = append(errs, "MAX_DETECT_RETRIES must not be negative")
	}
	if c.DetectTimeout < 0 || c.RetryBackoff < 0 {
		errs = append(errs, "durations must not be negative")
	}
	if c.Detector == "http" && c.InferenceURL == "" {
		errs = append(errs, "INFERENCE_URL is required for http detector")
	}

	return errs
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getInt(key string, defaultVal int, errs *[]string) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s: %v", key, err))
		return defaultVal
	}
	return n
}

func getDuration(key string, defaultVal time.Duration, errs *[]string) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s: %v", key, err))
		return defaultVal
	}
	return d
}

func getBool(key string, defaultVal bool, errs *[]string) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s: %v", key, err))
		return defaultVal
	}
	return b
}
