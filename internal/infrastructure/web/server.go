// Package web HTTP API управления детекцией и живой вид оверлеев поверх websocket.
package web

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"live-detect/internal/domain/port"
)

// Server HTTP-сервер
type Server struct {
	app      *fiber.App
	ctrl     port.DetectionController
	captures port.CaptureRepository
	hub      *Hub
	logger   *slog.Logger
}

// NewServer создаёт сервер и регистрирует маршруты
func NewServer(ctrl port.DetectionController, captures port.CaptureRepository, hub *Hub, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		ctrl:     ctrl,
		captures: captures,
		hub:      hub,
		logger:   logger.With("component", "web"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "live-detect",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Post("/session/start", s.handleStart)
	api.Post("/session/stop", s.handleStop)
	api.Post("/session/toggle", s.handleToggle)
	api.Post("/camera/switch", s.handleSwitchCamera)
	api.Post("/torch", s.handleTorch)
	api.Post("/capture", s.handleCapture)
	api.Get("/captures", s.handleListCaptures)
	api.Get("/captures/:id", s.handleGetCapture)
	api.Get("/captures/:id/download", s.handleDownloadCapture)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/overlays", websocket.New(hub.Serve))

	s.app = app
	return s
}

// App возвращает fiber-приложение (нужно тестам)
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen запускает сервер на порту и блокируется
func (s *Server) Listen(port string) error {
	s.logger.Info("http server listening", "addr", ":"+port)
	return s.app.Listen(":" + port)
}

// Shutdown останавливает сервер
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
