package storage

import (
	"context"
	"sort"
	"sync"

	"live-detect/internal/domain/entity"
	"live-detect/internal/domain/port"
)

// DefaultCaptureLimit сколько снимков хранится в памяти по умолчанию
const DefaultCaptureLimit = 50

// MemoryCaptureRepository in-memory хранилище снимков с ограничением по количеству
type MemoryCaptureRepository struct {
	mu       sync.RWMutex
	limit    int
	captures map[string]*entity.Capture
	order    []string // ID в порядке сохранения
}

// NewMemoryCaptureRepository создаёт новое in-memory хранилище. limit <= 0 означает DefaultCaptureLimit.
func NewMemoryCaptureRepository(limit int) *MemoryCaptureRepository {
	if limit <= 0 {
		limit = DefaultCaptureLimit
	}
	return &MemoryCaptureRepository{
		limit:    limit,
		captures: make(map[string]*entity.Capture),
	}
}

// Save сохраняет снимок, вытесняя самый старый при переполнении
func (r *MemoryCaptureRepository) Save(ctx context.Context, capture *entity.Capture) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.captures[capture.ID]; !exists {
		r.order = append(r.order, capture.ID)
	}
	r.captures[capture.ID] = capture

	for len(r.order) > r.limit {
		oldest := r.order[0]
		r.order = r.order[1:]
		delete(r.captures, oldest)
	}

	return nil
}

// Get возвращает снимок по ID
func (r *MemoryCaptureRepository) Get(ctx context.Context, id string) (*entity.Capture, error) {
	r.mu.RLock()
	capture, exists := r.captures[id]
	r.mu.RUnlock()

	if !exists {
		return nil, port.ErrCaptureNotFound
	}
	return capture, nil
}

// List возвращает снимки, новые первыми
func (r *MemoryCaptureRepository) List(ctx context.Context) ([]*entity.Capture, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*entity.Capture, 0, len(r.order))
	for i := len(r.order) - 1; i >= 0; i-- {
		result = append(result, r.captures[r.order[i]])
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// Проверка реализации интерфейса
var _ port.CaptureRepository = (*MemoryCaptureRepository)(nil)
