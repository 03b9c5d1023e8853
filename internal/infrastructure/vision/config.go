// Package vision содержит адаптеры внешнего детектора объектов.
package vision

import "live-detect/internal/domain/port"

// DNNConfig настройки SSD-модели
type DNNConfig struct {
	ModelPath   string
	ConfigPath  string
	LabelsPath  string   // файл с именами классов, важнее ClassNames
	ClassNames  []string // пусто: COCOClasses
	LabelOffset int
	InputWidth  int
	InputHeight int
	Scale       float64
	Mean        float64
	MinScore    float32 // нижний порог внутри детектора, ниже порога оверлея
}

// DefaultDNNConfig возвращает настройки для MobileNet-SSD, обученной на COCO
func DefaultDNNConfig() DNNConfig {
	return DNNConfig{
		ModelPath:   "models/ssd_mobilenet_v2_coco.pb",
		ConfigPath:  "models/ssd_mobilenet_v2_coco.pbtxt",
		ClassNames:  COCO90Classes,
		LabelOffset: 1,
		InputWidth:  300,
		InputHeight: 300,
		Scale:       1.0 / 127.5,
		Mean:        127.5,
		MinScore:    0.3,
	}
}

// Labels собирает таблицу имён классов для модели
func (c DNNConfig) Labels() (Labels, error) {
	names := c.ClassNames
	if c.LabelsPath != "" {
		loaded, err := LoadLabels(c.LabelsPath)
		if err != nil {
			return Labels{}, err
		}
		names = loaded
	}
	if len(names) == 0 {
		names = COCOClasses
	}
	return Labels{Names: names, Offset: c.LabelOffset}, nil
}

var _ port.ObjectDetector = (*DNNDetector)(nil)
