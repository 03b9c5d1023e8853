package web

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	app "live-detect/internal/application"
	"live-detect/internal/domain/entity"
	"live-detect/internal/domain/port"
)

// StartRequest тело запроса запуска
type StartRequest struct {
	Facing string `json:"facing"`
}

// CaptureInfo описание снимка без самой картинки
type CaptureInfo struct {
	ID          string            `json:"id"`
	Width       int               `json:"width"`
	Height      int               `json:"height"`
	Facing      entity.FacingMode `json:"facing"`
	Overlays    int               `json:"overlays"`
	CreatedAt   string            `json:"created_at"`
	URL         string            `json:"url"`
	DownloadURL string            `json:"download_url"`
}

func captureInfo(c *entity.Capture) CaptureInfo {
	return CaptureInfo{
		ID:          c.ID,
		Width:       c.Width,
		Height:      c.Height,
		Facing:      c.Facing,
		Overlays:    len(c.Overlays),
		CreatedAt:   c.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		URL:         "/api/captures/" + c.ID,
		DownloadURL: "/api/captures/" + c.ID + "/download",
	}
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.ctrl.Status())
}

func (s *Server) handleStart(c *fiber.Ctx) error {
	var req StartRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
	}
	facing, err := entity.ParseFacingMode(req.Facing)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if err := s.ctrl.Start(c.UserContext(), facing); err != nil {
		return err
	}
	return c.JSON(s.ctrl.Status())
}

func (s *Server) handleStop(c *fiber.Ctx) error {
	s.ctrl.Stop()
	return c.JSON(s.ctrl.Status())
}

func (s *Server) handleToggle(c *fiber.Ctx) error {
	if _, err := s.ctrl.Toggle(c.UserContext()); err != nil {
		return err
	}
	return c.JSON(s.ctrl.Status())
}

func (s *Server) handleSwitchCamera(c *fiber.Ctx) error {
	if err := s.ctrl.ToggleCamera(c.UserContext()); err != nil {
		return err
	}
	return c.JSON(s.ctrl.Status())
}

func (s *Server) handleTorch(c *fiber.Ctx) error {
	on, err := s.ctrl.ToggleTorch(c.UserContext())
	if errors.Is(err, app.ErrTorchUnsupported) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":     err.Error(),
			"supported": false,
			"torch":     on,
		})
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"supported": true, "torch": on})
}

func (s *Server) handleCapture(c *fiber.Ctx) error {
	capture, err := s.ctrl.CaptureFrame(c.UserContext())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(captureInfo(capture))
}

func (s *Server) handleListCaptures(c *fiber.Ctx) error {
	list, err := s.captures.List(c.UserContext())
	if err != nil {
		return err
	}
	infos := make([]CaptureInfo, 0, len(list))
	for _, capture := range list {
		infos = append(infos, captureInfo(capture))
	}
	return c.JSON(infos)
}

func (s *Server) handleGetCapture(c *fiber.Ctx) error {
	capture, err := s.captures.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(capture.PNG)
}

func (s *Server) handleDownloadCapture(c *fiber.Ctx) error {
	capture, err := s.captures.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "image/png")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", capture.Filename()))
	return c.Send(capture.PNG)
}

// handleError переводит ошибки контроллера в HTTP-статусы
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError

	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		status = fe.Code
	case errors.Is(err, app.ErrSessionActive),
		errors.Is(err, app.ErrNotActive),
		errors.Is(err, app.ErrNoFrame):
		status = fiber.StatusConflict
	case errors.Is(err, app.ErrCameraAcquisition),
		errors.Is(err, app.ErrDetectorNotReady):
		status = fiber.StatusServiceUnavailable
	case errors.Is(err, app.ErrTorchUnsupported):
		status = fiber.StatusUnprocessableEntity
	case errors.Is(err, port.ErrCaptureNotFound):
		status = fiber.StatusNotFound
	}

	if status >= fiber.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.Path(), "error", err)
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
