package entity

// ConfidenceThreshold минимальная уверенность (не включительно), с которой детекция попадает на экран
const ConfidenceThreshold = 0.66

// BoundingBox рамка объекта в пикселях исходного кадра
type BoundingBox struct {
	X      float64 // координата X левого верхнего угла
	Y      float64 // координата Y левого верхнего угла
	Width  float64 // ширина рамки
	Height float64 // высота рамки
}

// Detection один объект, найденный детектором на кадре
type Detection struct {
	Label string      `json:"label"`
	Score float64     `json:"score"`
	Box   BoundingBox `json:"bbox"`
}

// Visible сообщает, достаточно ли уверенности, чтобы показать детекцию
func (d Detection) Visible() bool {
	return d.Score > ConfidenceThreshold
}
