package entity

import (
	"time"

	"github.com/google/uuid"
)

// Session сеанс детекции. Одновременно активен не более одного.
type Session struct {
	ID        string
	Active    bool
	Facing    FacingMode
	StartedAt time.Time
}

// NewSession создаёт активный сеанс для выбранной камеры
func NewSession(facing FacingMode) *Session {
	return &Session{
		ID:        uuid.NewString(),
		Active:    true,
		Facing:    facing,
		StartedAt: time.Now(),
	}
}

// Deactivate помечает сеанс завершённым. Цикл детекции проверяет этот флаг после каждого кадра.
func (s *Session) Deactivate() {
	s.Active = false
}

// Status снимок состояния контроллера для API и бота
type Status struct {
	Active    bool       `json:"active"`
	SessionID string     `json:"session_id,omitempty"`
	Facing    FacingMode `json:"facing"`
	Torch     bool       `json:"torch"`
	Overlays  []Overlay  `json:"overlays"`
	Frames    int64      `json:"frames"`
	LastError string     `json:"last_error,omitempty"`
}
