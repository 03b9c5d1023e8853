package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"live-detect/config"
	telegram "live-detect/internal/api"
	app "live-detect/internal/application"
	"live-detect/internal/container"
	"live-detect/internal/infrastructure/render"
	"live-detect/internal/infrastructure/storage"
	"live-detect/internal/infrastructure/web"
	"live-detect/internal/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log.Init(cfg.LogLevel)
	logger := log.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctrlCfg, err := container.ControllerConfig(cfg)
	if err != nil {
		logger.Error("invalid controller config", "error", err)
		os.Exit(1)
	}

	annotator, err := render.NewAnnotator()
	if err != nil {
		logger.Error("failed to create annotator", "error", err)
		os.Exit(1)
	}

	detector, closeDetector := container.NewDetector(ctx, cfg, logger)
	defer closeDetector()

	// Снимки хранятся в памяти
	captures := storage.NewMemoryCaptureRepository(cfg.CaptureLimit)
	hub := web.NewHub(logger)

	deps := app.ControllerDeps{
		Camera:    container.NewCamera(cfg),
		Detector:  detector,
		View:      web.NewLiveView(hub),
		Annotator: annotator,
		Captures:  captures,
		Logger:    logger,
	}

	var tg telegram.BotAPI
	if cfg.TelegramToken != "" {
		api, err := telegram.Connect(cfg.TelegramToken)
		if err != nil {
			logger.Error("failed to connect telegram", "error", err)
			os.Exit(1)
		}
		logger.Info("telegram authorized", "account", api.Self.UserName)
		tg = api
		if cfg.TelegramChatID != 0 {
			deps.Notifier = telegram.NewNotifier(api, cfg.TelegramChatID)
		}
	}

	// Собираем сервисы приложения
	appContainer := container.New(deps, ctrlCfg)

	server := web.NewServer(appContainer.Controller, captures, hub, logger)
	go func() {
		if err := server.Listen(cfg.HTTPPort); err != nil {
			logger.Error("http server stopped", "error", err)
			stop()
		}
	}()

	if tg != nil {
		bot := telegram.NewBot(tg, appContainer.Controller, appContainer.CaptureService, appContainer.PhotoService, cfg.TelegramChatID, logger)
		go func() {
			logger.Info("bot is running")
			if err := bot.Run(ctx); err != nil {
				logger.Error("bot error", "error", err)
			}
		}()
	}

	logger.Info("live-detect started",
		"camera", cfg.CameraDriver,
		"detector", cfg.Detector,
		"detector_ready", detector != nil,
	)

	<-ctx.Done()
	logger.Info("shutting down")

	appContainer.Controller.Stop()
	if err := server.Shutdown(); err != nil {
		logger.Error("http shutdown", "error", err)
	}
}
