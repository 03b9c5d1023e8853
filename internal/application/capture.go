package app

import (
	"context"

	"live-detect/internal/domain/entity"
	"live-detect/internal/domain/port"
)

// CaptureService выдаёт сохранённые снимки для скачивания
type CaptureService struct {
	repo port.CaptureRepository
}

func NewCaptureService(repo port.CaptureRepository) *CaptureService {
	return &CaptureService{repo: repo}
}

func (s *CaptureService) Get(ctx context.Context, id string) (*entity.Capture, error) {
	return s.repo.Get(ctx, id)
}

func (s *CaptureService) List(ctx context.Context) ([]*entity.Capture, error) {
	return s.repo.List(ctx)
}

// Latest возвращает самый свежий снимок или port.ErrCaptureNotFound
func (s *CaptureService) Latest(ctx context.Context) (*entity.Capture, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, port.ErrCaptureNotFound
	}
	return list[0], nil
}
