package vision

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// COCOClasses 80 классов COCO подряд, как их нумеруют YOLO-модели (с нуля)
var COCOClasses = []string{
	"person", "bicycle", "car", "motorcycle", "airplane", "bus", "train", "truck", "boat",
	"traffic light", "fire hydrant", "stop sign", "parking meter", "bench", "bird", "cat",
	"dog", "horse", "sheep", "cow", "elephant", "bear", "zebra", "giraffe", "backpack",
	"umbrella", "handbag", "tie", "suitcase", "frisbee", "skis", "snowboard", "sports ball",
	"kite", "baseball bat", "baseball glove", "skateboard", "surfboard", "tennis racket",
	"bottle", "wine glass", "cup", "fork", "knife", "spoon", "bowl", "banana", "apple",
	"sandwich", "orange", "broccoli", "carrot", "hot dog", "pizza", "donut", "cake", "chair",
	"couch", "potted plant", "bed", "dining table", "toilet", "tv", "laptop", "mouse",
	"remote", "keyboard", "cell phone", "microwave", "oven", "toaster", "sink",
	"refrigerator", "book", "clock", "vase", "scissors", "teddy bear", "hair drier",
	"toothbrush",
}

// COCO90Classes карта классов TensorFlow Object Detection API: номера 1..90 с пропусками.
// Её используют SSD-модели из TF model zoo, пустая строка означает неиспользуемый номер.
var COCO90Classes = []string{
	"person", "bicycle", "car", "motorcycle", "airplane", "bus", "train", "truck", "boat",
	"traffic light", "fire hydrant", "", "stop sign", "parking meter", "bench", "bird", "cat",
	"dog", "horse", "sheep", "cow", "elephant", "bear", "zebra", "giraffe", "", "backpack",
	"umbrella", "", "", "handbag", "tie", "suitcase", "frisbee", "skis", "snowboard",
	"sports ball", "kite", "baseball bat", "baseball glove", "skateboard", "surfboard",
	"tennis racket", "bottle", "", "wine glass", "cup", "fork", "knife", "spoon", "bowl",
	"banana", "apple", "sandwich", "orange", "broccoli", "carrot", "hot dog", "pizza", "donut",
	"cake", "chair", "couch", "potted plant", "bed", "", "dining table", "", "", "toilet", "",
	"tv", "laptop", "mouse", "remote", "keyboard", "cell phone", "microwave", "oven", "toaster",
	"sink", "refrigerator", "", "book", "clock", "vase", "scissors", "teddy bear", "hair drier",
	"toothbrush",
}

// Labels таблица имён классов. Offset вычитается из номера класса модели
// (у SSD нулевой класс означает фон, поэтому Offset = 1).
type Labels struct {
	Names  []string
	Offset int
}

// Name возвращает имя класса или "class N", если номера нет в таблице
func (l Labels) Name(classID int) string {
	i := classID - l.Offset
	if i < 0 || i >= len(l.Names) || l.Names[i] == "" {
		return fmt.Sprintf("class %d", classID)
	}
	return l.Names[i]
}

// LoadLabels читает имена классов из файла, по одному на строку
func LoadLabels(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open labels: %w", err)
	}
	defer f.Close()

	var names []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if name := strings.TrimSpace(sc.Text()); name != "" {
			names = append(names, name)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read labels: %w", err)
	}
	return names, nil
}
